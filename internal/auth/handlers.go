package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"

	"github.com/JustinTDCT/moviestore/internal/httputil"
	"github.com/JustinTDCT/moviestore/internal/inertia"
	"github.com/JustinTDCT/moviestore/internal/notifications"
	"github.com/JustinTDCT/moviestore/internal/routes"
	"github.com/JustinTDCT/moviestore/internal/sessions"
	"github.com/JustinTDCT/moviestore/internal/settings"
	"github.com/JustinTDCT/moviestore/internal/users"
	"github.com/JustinTDCT/moviestore/internal/views"
)

const (
	msgCredentials  = "These credentials do not match our records."
	msgNotAdmin     = "These credentials do not have admin access."
	msgEmailTaken   = "The email has already been taken."
	msgUnknownEmail = "We can't find a user with that email address."
	msgInvalidReset = "This password reset token is invalid."
	msgLevel        = "The selected level is invalid."

	statusResetLinkSent = "We have emailed your password reset link."
	statusPasswordReset = "Your password has been reset."
	statusVerified      = "Your email address has been verified."
)

type UserStore interface {
	UserFinder
	GetByEmail(ctx context.Context, email string) (*users.User, error)
	Create(ctx context.Context, u *users.User) error
	Count(ctx context.Context) (int, error)
	UpdatePassword(ctx context.Context, id, hash string) error
	MarkEmailVerified(ctx context.Context, id string) error
}

type SettingsReader interface {
	Bool(ctx context.Context, key string, def bool) bool
}

type Options struct {
	Users    UserStore
	Settings SettingsReader
	Sessions *sessions.Manager
	Signer   *Signer
	Mail     notifications.Dispatcher
	Inertia  *inertia.Inertia
	Routes   *routes.Table
	Guard    *SubmitGuard
	Logger   *log.Logger
}

type Handler struct {
	Options
}

func NewHandler(opts Options) *Handler {
	if opts.Guard == nil {
		opts.Guard = NewSubmitGuard()
	}
	return &Handler{Options: opts}
}

// Mount registers the account routes on r. limit throttles the POST
// endpoints that send mail or check a password.
func (h *Handler) Mount(r chi.Router, gate *Gate, limit func(http.Handler) http.Handler) {
	p := h.Routes.Pattern

	r.Group(func(r chi.Router) {
		r.Use(gate.RequireGuest)
		r.Get(p(routes.Login), h.Guard.Page(h.showLogin))
		r.With(limit).Post(p(routes.Login), h.Guard.Wrap("login", h.login))
		r.Get(p(routes.Register), h.Guard.Page(h.showRegister))
		r.With(limit).Post(p(routes.Register), h.Guard.Wrap("register", h.register))
		r.Get(p(routes.PasswordRequest), h.Guard.Page(h.showForgotPassword))
		r.With(limit).Post(p(routes.PasswordEmail), h.Guard.Wrap("forgot-password", h.sendResetLink))
		r.Get(p(routes.PasswordReset), h.Guard.Page(h.showResetPassword))
		r.With(limit).Post(p(routes.PasswordStore), h.Guard.Wrap("reset-password", h.resetPassword))
	})

	r.Get(p(routes.AdminLogin), h.Guard.Page(h.showAdminLogin))
	r.With(limit).Post(p(routes.AdminAccess), h.Guard.Wrap("admin-login", h.adminLogin))

	r.Group(func(r chi.Router) {
		r.Use(gate.RequireAuth)
		r.Get(p(routes.VerificationNotice), h.Guard.Page(h.showVerifyEmail))
		r.With(limit).Post(p(routes.VerificationSend), h.Guard.Wrap("verification", h.resendVerification))
		r.Get(p(routes.VerificationVerify), h.verifyEmail)
		r.Post(p(routes.Logout), h.logout)
	})
}

func (h *Handler) path(name string, kv ...string) string {
	params, err := routes.Pairs(kv...)
	if err == nil {
		var p string
		if p, err = h.Routes.Resolve(name, params); err == nil {
			return p
		}
	}
	h.Logger.Error("failed to resolve route", "route", name, "err", err)
	return "/"
}

// readForm parses the body, answering 400 itself when it cannot.
func (h *Handler) readForm(w http.ResponseWriter, r *http.Request) (map[string]string, bool) {
	form, err := httputil.ReadForm(r)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "INVALID_FORM", err.Error())
		return nil, false
	}
	return form, true
}

// back flashes errs with the safe part of form and returns to the form page.
func (h *Handler) back(w http.ResponseWriter, r *http.Request, errs fieldErrors, form map[string]string, fallback string) {
	sessions.FromContext(r.Context()).SetErrors(errs, oldInput(form))
	inertia.Back(w, r, h.path(fallback))
}

func (h *Handler) serverError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	h.Logger.Error(msg, "path", r.URL.Path, "err", err)
	h.Inertia.Error(w, http.StatusInternalServerError, "Something went wrong.")
}

// signIn starts a fresh authenticated session for u.
func (h *Handler) signIn(ctx context.Context, u *users.User) error {
	s := sessions.FromContext(ctx)
	if err := h.Sessions.Regenerate(ctx, s); err != nil {
		return fmt.Errorf("failed to regenerate session: %w", err)
	}
	s.Login(u.ID, u.IsAdmin)
	return nil
}

// credentials validates an email and password pair against the store.
func (h *Handler) credentials(ctx context.Context, form map[string]string) (*users.User, fieldErrors, error) {
	errs := fieldErrors{}
	errs.required(form, "email", "password")
	errs.email(form, "email")
	if errs.any() {
		return nil, errs, nil
	}
	u, err := h.Users.GetByEmail(ctx, NormalizeEmail(form["email"]))
	if errors.Is(err, users.ErrNotFound) || (err == nil && !CheckPassword(u.PasswordHash, form["password"])) {
		errs.add("email", msgCredentials)
		return nil, errs, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return u, errs, nil
}

func (h *Handler) resetEnabled(ctx context.Context) bool {
	return h.Settings.Bool(ctx, settings.KeyPasswordResetEnabled, true)
}

func (h *Handler) registrationEnabled(ctx context.Context) bool {
	return h.Settings.Bool(ctx, settings.KeyRegistrationEnabled, true)
}

func (h *Handler) showLogin(w http.ResponseWriter, r *http.Request) {
	h.Inertia.Render(w, r, "Auth/Login", inertia.Props{
		"canResetPassword": h.resetEnabled(r.Context()),
	})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	form, ok := h.readForm(w, r)
	if !ok {
		return
	}
	u, errs, err := h.credentials(r.Context(), form)
	if err != nil {
		h.serverError(w, r, "failed to look up user", err)
		return
	}
	if errs.any() {
		h.back(w, r, errs, form, routes.Login)
		return
	}
	if err := h.signIn(r.Context(), u); err != nil {
		h.serverError(w, r, "failed to sign in", err)
		return
	}
	h.Logger.Info("user signed in", "user_id", u.ID)
	inertia.Redirect(w, r, sessions.FromContext(r.Context()).PullIntended(h.path(routes.Dashboard)))
}

func (h *Handler) showRegister(w http.ResponseWriter, r *http.Request) {
	if !h.registrationEnabled(r.Context()) {
		h.Inertia.NotFound(w, r)
		return
	}
	h.Inertia.Render(w, r, "Auth/Register", inertia.Props{"levels": users.Levels})
}

func (h *Handler) register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.registrationEnabled(ctx) {
		h.Inertia.NotFound(w, r)
		return
	}
	form, ok := h.readForm(w, r)
	if !ok {
		return
	}

	errs := fieldErrors{}
	errs.required(form, "name", "email", "password", "level")
	errs.max(form, "name", 255)
	errs.email(form, "email")
	errs.max(form, "email", 255)
	errs.password(form)
	if _, known := users.Levels[form["level"]]; form["level"] != "" && !known {
		errs.add("level", msgLevel)
	}
	if errs.any() {
		h.back(w, r, errs, form, routes.Register)
		return
	}

	hash, err := HashPassword(form["password"])
	if err != nil {
		h.serverError(w, r, "failed to hash password", err)
		return
	}
	count, err := h.Users.Count(ctx)
	if err != nil {
		h.serverError(w, r, "failed to count users", err)
		return
	}

	u := &users.User{
		Name:         form["name"],
		Email:        NormalizeEmail(form["email"]),
		PasswordHash: hash,
		Level:        form["level"],
		IsAdmin:      count == 0,
	}
	if err := h.Users.Create(ctx, u); errors.Is(err, users.ErrEmailTaken) {
		errs.add("email", msgEmailTaken)
		h.back(w, r, errs, form, routes.Register)
		return
	} else if err != nil {
		h.serverError(w, r, "failed to create user", err)
		return
	}
	h.Logger.Info("user registered", "user_id", u.ID, "admin", u.IsAdmin)

	if err := h.sendVerification(ctx, u); err != nil {
		h.Logger.Error("failed to send verification email", "user_id", u.ID, "err", err)
	}
	if err := h.signIn(ctx, u); err != nil {
		h.serverError(w, r, "failed to sign in", err)
		return
	}
	inertia.Redirect(w, r, h.path(routes.Dashboard))
}

func (h *Handler) showForgotPassword(w http.ResponseWriter, r *http.Request) {
	if !h.resetEnabled(r.Context()) {
		h.Inertia.NotFound(w, r)
		return
	}
	h.Inertia.Render(w, r, "Auth/ForgotPassword", nil)
}

func (h *Handler) sendResetLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if !h.resetEnabled(ctx) {
		h.Inertia.NotFound(w, r)
		return
	}
	form, ok := h.readForm(w, r)
	if !ok {
		return
	}

	errs := fieldErrors{}
	errs.required(form, "email")
	errs.email(form, "email")
	if errs.any() {
		h.back(w, r, errs, form, routes.PasswordRequest)
		return
	}

	u, err := h.Users.GetByEmail(ctx, NormalizeEmail(form["email"]))
	if errors.Is(err, users.ErrNotFound) {
		errs.add("email", msgUnknownEmail)
		h.back(w, r, errs, form, routes.PasswordRequest)
		return
	}
	if err != nil {
		h.serverError(w, r, "failed to look up user", err)
		return
	}

	token, err := h.Signer.Sign(PurposeResetPassword, u.ID, Fingerprint(u.PasswordHash))
	if err != nil {
		h.serverError(w, r, "failed to sign reset link", err)
		return
	}
	link, err := h.Routes.Absolute(routes.PasswordReset, map[string]string{"token": token, "email": u.Email})
	if err != nil {
		h.serverError(w, r, "failed to build reset link", err)
		return
	}
	err = h.Mail.Dispatch(ctx, notifications.Message{
		To:       u.Email,
		Subject:  "Reset Password Notification",
		Template: notifications.TemplateResetPassword,
		Data:     h.mailData(u, link),
	})
	if err != nil {
		h.serverError(w, r, "failed to send reset link", err)
		return
	}

	sessions.FromContext(ctx).Flash("status", statusResetLinkSent)
	inertia.Back(w, r, h.path(routes.PasswordRequest))
}

func (h *Handler) showResetPassword(w http.ResponseWriter, r *http.Request) {
	if !h.resetEnabled(r.Context()) {
		h.Inertia.NotFound(w, r)
		return
	}
	h.Inertia.Render(w, r, "Auth/ResetPassword", inertia.Props{
		"token": chi.URLParam(r, "token"),
		"email": r.URL.Query().Get("email"),
	})
}

func (h *Handler) resetPassword(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	form, ok := h.readForm(w, r)
	if !ok {
		return
	}

	errs := fieldErrors{}
	errs.required(form, "token", "email", "password")
	errs.email(form, "email")
	errs.password(form)
	if errs.any() {
		h.back(w, r, errs, form, routes.PasswordRequest)
		return
	}

	u, err := h.resetTarget(ctx, form)
	if errors.Is(err, ErrInvalidToken) {
		errs.add("email", msgInvalidReset)
		h.back(w, r, errs, form, routes.PasswordRequest)
		return
	}
	if err != nil {
		h.serverError(w, r, "failed to look up user", err)
		return
	}

	hash, err := HashPassword(form["password"])
	if err != nil {
		h.serverError(w, r, "failed to hash password", err)
		return
	}
	if err := h.Users.UpdatePassword(ctx, u.ID, hash); err != nil {
		h.serverError(w, r, "failed to update password", err)
		return
	}
	if err := h.Sessions.Store().DeleteByUser(ctx, u.ID); err != nil {
		h.Logger.Error("failed to end sessions after password reset", "user_id", u.ID, "err", err)
	}
	h.Logger.Info("password reset", "user_id", u.ID)

	sessions.FromContext(ctx).Flash("status", statusPasswordReset)
	inertia.Redirect(w, r, h.path(routes.Login))
}

// resetTarget returns the user a reset token was issued to. The token must
// name the submitted email and predate no password change.
func (h *Handler) resetTarget(ctx context.Context, form map[string]string) (*users.User, error) {
	claims, err := h.Signer.Verify(form["token"], PurposeResetPassword)
	if err != nil {
		return nil, err
	}
	u, err := h.Users.GetByID(ctx, claims.Subject)
	if errors.Is(err, users.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if u.Email != NormalizeEmail(form["email"]) || Fingerprint(u.PasswordHash) != claims.Fingerprint {
		return nil, ErrInvalidToken
	}
	return u, nil
}

func (h *Handler) showVerifyEmail(w http.ResponseWriter, r *http.Request) {
	if UserFromContext(r.Context()).Verified() {
		inertia.Redirect(w, r, h.path(routes.Dashboard))
		return
	}
	h.Inertia.Render(w, r, "Auth/VerifyEmail", nil)
}

func (h *Handler) resendVerification(w http.ResponseWriter, r *http.Request) {
	u := UserFromContext(r.Context())
	if u.Verified() {
		inertia.Redirect(w, r, h.path(routes.Dashboard))
		return
	}
	if err := h.sendVerification(r.Context(), u); err != nil {
		h.serverError(w, r, "failed to send verification email", err)
		return
	}
	sessions.FromContext(r.Context()).Flash("status", views.VerificationLinkSent)
	inertia.Back(w, r, h.path(routes.VerificationNotice))
}

func (h *Handler) verifyEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u := UserFromContext(ctx)
	claims, err := h.Signer.Verify(chi.URLParam(r, "token"), PurposeVerifyEmail)
	if err != nil || claims.Subject != u.ID || claims.Fingerprint != Fingerprint(u.Email) {
		h.Inertia.Error(w, http.StatusForbidden, "This verification link is invalid or has expired.")
		return
	}
	if !u.Verified() {
		if err := h.Users.MarkEmailVerified(ctx, u.ID); err != nil {
			h.serverError(w, r, "failed to verify email", err)
			return
		}
		h.Logger.Info("email verified", "user_id", u.ID)
		sessions.FromContext(ctx).Flash("status", statusVerified)
	}
	inertia.Redirect(w, r, h.path(routes.Dashboard))
}

func (h *Handler) sendVerification(ctx context.Context, u *users.User) error {
	token, err := h.Signer.Sign(PurposeVerifyEmail, u.ID, Fingerprint(u.Email))
	if err != nil {
		return err
	}
	link, err := h.Routes.Absolute(routes.VerificationVerify, map[string]string{"token": token})
	if err != nil {
		return err
	}
	return h.Mail.Dispatch(ctx, notifications.Message{
		To:       u.Email,
		Subject:  "Verify Email Address",
		Template: notifications.TemplateVerifyEmail,
		Data:     h.mailData(u, link),
	})
}

func (h *Handler) mailData(u *users.User, link string) map[string]any {
	return map[string]any{
		"name":    u.Name,
		"url":     link,
		"expires": fmt.Sprintf("%d minutes", int(h.Signer.TTL().Minutes())),
	}
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Destroy(r.Context(), sessions.FromContext(r.Context())); err != nil {
		h.Logger.Error("failed to destroy session", "err", err)
	}
	inertia.Redirect(w, r, h.path(routes.Home))
}

func (h *Handler) showAdminLogin(w http.ResponseWriter, r *http.Request) {
	if u := UserFromContext(r.Context()); u != nil && u.IsAdmin {
		inertia.Redirect(w, r, h.path(routes.AdminDashboard))
		return
	}
	h.Inertia.Render(w, r, "Admin/Login", nil)
}

func (h *Handler) adminLogin(w http.ResponseWriter, r *http.Request) {
	form, ok := h.readForm(w, r)
	if !ok {
		return
	}
	u, errs, err := h.credentials(r.Context(), form)
	if err != nil {
		h.serverError(w, r, "failed to look up user", err)
		return
	}
	if !errs.any() && !u.IsAdmin {
		errs.add("email", msgNotAdmin)
	}
	if errs.any() {
		h.back(w, r, errs, form, routes.AdminLogin)
		return
	}
	if err := h.signIn(r.Context(), u); err != nil {
		h.serverError(w, r, "failed to sign in", err)
		return
	}
	h.Logger.Info("admin signed in", "user_id", u.ID)
	inertia.Redirect(w, r, h.path(routes.AdminDashboard))
}
