package views

import (
	"github.com/spf13/cast"

	"github.com/JustinTDCT/moviestore/internal/ui"
)

// Form schemas shared with the handlers that validate them.
var (
	LoginFields = ui.Schema{
		{Name: "email"},
		{Name: "password", Sensitive: true},
		{Name: "remember"},
	}
	RegisterFields = ui.Schema{
		{Name: "name"},
		{Name: "email"},
		{Name: "password", Sensitive: true},
		{Name: "password_confirmation", Sensitive: true},
		{Name: "level"},
	}
	ForgotPasswordFields = ui.Schema{
		{Name: "email"},
	}
	ResetPasswordFields = ui.Schema{
		{Name: "token"},
		{Name: "email"},
		{Name: "password", Sensitive: true},
		{Name: "password_confirmation", Sensitive: true},
	}
	AdminLoginFields = ui.Schema{
		{Name: "email"},
		{Name: "password", Sensitive: true},
	}
)

// formFrom builds the form a view mounts with, restoring the old input and
// errors carried over from the previous submit.
func formFrom(schema ui.Schema, shared Shared) *ui.Form {
	return ui.NewForm(schema).Restore(shared.Old, shared.Errors)
}

type LoginModel struct {
	Shared
	Form             *ui.Form
	CanResetPassword bool
}

type LoginView struct{}

func (LoginView) Name() string { return "Auth/Login" }

func (LoginView) Normalize(_ Env, props Props) (any, error) {
	shared := sharedFromProps(props)
	if s := cast.ToString(props["status"]); s != "" {
		shared.Status = s
	}
	return LoginModel{
		Shared:           shared,
		Form:             formFrom(LoginFields, shared),
		CanResetPassword: cast.ToBool(props["canResetPassword"]),
	}, nil
}

type RegisterModel struct {
	Shared
	Form   *ui.Form
	Levels []Option
}

type RegisterView struct{}

func (RegisterView) Name() string { return "Auth/Register" }

func (RegisterView) Normalize(_ Env, props Props) (any, error) {
	shared := sharedFromProps(props)
	m := RegisterModel{
		Shared: shared,
		Form:   formFrom(RegisterFields, shared),
		Levels: OptionsFromProp(props["levels"]),
	}
	if m.Form.Value("level") == "" && len(m.Levels) > 0 {
		_ = m.Form.Set("level", m.Levels[len(m.Levels)-1].Value)
	}
	return m, nil
}

type ForgotPasswordModel struct {
	Shared
	Form *ui.Form
}

type ForgotPasswordView struct{}

func (ForgotPasswordView) Name() string { return "Auth/ForgotPassword" }

func (ForgotPasswordView) Normalize(_ Env, props Props) (any, error) {
	shared := sharedFromProps(props)
	if s := cast.ToString(props["status"]); s != "" {
		shared.Status = s
	}
	return ForgotPasswordModel{Shared: shared, Form: formFrom(ForgotPasswordFields, shared)}, nil
}

type ResetPasswordModel struct {
	Shared
	Form *ui.Form
}

type ResetPasswordView struct{}

func (ResetPasswordView) Name() string { return "Auth/ResetPassword" }

func (ResetPasswordView) Normalize(_ Env, props Props) (any, error) {
	shared := sharedFromProps(props)
	f := formFrom(ResetPasswordFields, shared)
	_ = f.Set("token", cast.ToString(props["token"]))
	if f.Value("email") == "" {
		_ = f.Set("email", cast.ToString(props["email"]))
	}
	return ResetPasswordModel{Shared: shared, Form: f}, nil
}

// VerificationLinkSent is the status the resend endpoint flashes.
const VerificationLinkSent = "verification-link-sent"

type VerifyEmailModel struct {
	Shared
	Form     *ui.Form
	LinkSent bool
}

type VerifyEmailView struct{}

func (VerifyEmailView) Name() string { return "Auth/VerifyEmail" }

func (VerifyEmailView) Normalize(_ Env, props Props) (any, error) {
	shared := sharedFromProps(props)
	status := str(props, "status", shared.Status)
	return VerifyEmailModel{
		Shared:   shared,
		Form:     ui.NewForm(nil),
		LinkSent: status == VerificationLinkSent,
	}, nil
}

type AdminLoginModel struct {
	Shared
	Form *ui.Form
}

type AdminLoginView struct{}

func (AdminLoginView) Name() string { return "Admin/Login" }

func (AdminLoginView) Normalize(_ Env, props Props) (any, error) {
	shared := sharedFromProps(props)
	if s := cast.ToString(props["status"]); s != "" {
		shared.Status = s
	}
	return AdminLoginModel{Shared: shared, Form: formFrom(AdminLoginFields, shared)}, nil
}

type AdminDashboardModel struct {
	Shared
	Users  int
	Movies int
}

type AdminDashboardView struct{}

func (AdminDashboardView) Name() string { return "Admin/Dashboard" }

func (AdminDashboardView) Normalize(_ Env, props Props) (any, error) {
	stats := cast.ToStringMap(props["stats"])
	return AdminDashboardModel{
		Shared: sharedFromProps(props),
		Users:  cast.ToInt(stats["users"]),
		Movies: cast.ToInt(stats["movies"]),
	}, nil
}
