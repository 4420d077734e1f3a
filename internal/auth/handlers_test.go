package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JustinTDCT/moviestore/internal/inertia"
	"github.com/JustinTDCT/moviestore/internal/logging"
	"github.com/JustinTDCT/moviestore/internal/notifications"
	"github.com/JustinTDCT/moviestore/internal/routes"
	"github.com/JustinTDCT/moviestore/internal/sessions"
	"github.com/JustinTDCT/moviestore/internal/settings"
	"github.com/JustinTDCT/moviestore/internal/testutil"
	"github.com/JustinTDCT/moviestore/internal/users"
	"github.com/JustinTDCT/moviestore/internal/views"
)

const baseURL = "http://moviestore.test"

type mailbox struct {
	mu   sync.Mutex
	msgs []notifications.Message
}

func (m *mailbox) Dispatch(_ context.Context, msg notifications.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.msgs = append(m.msgs, msg)
	return nil
}

// link returns the path and query of the last mailed link.
func (m *mailbox) link(t *testing.T) *url.URL {
	t.Helper()
	m.mu.Lock()
	defer m.mu.Unlock()
	require.NotEmpty(t, m.msgs, "no mail sent")
	u, err := url.Parse(m.msgs[len(m.msgs)-1].Data["url"].(string))
	require.NoError(t, err)
	return u
}

func (m *mailbox) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.msgs)
}

type harness struct {
	srv      *httptest.Server
	client   *http.Client
	users    *users.Repository
	settings *settings.Repository
	mail     *mailbox
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	database := testutil.OpenDB(t)
	logger := logging.Discard()
	table := routes.Default(baseURL)

	app, err := views.NewApp(views.Options{Routes: table, Logger: logger})
	require.NoError(t, err)
	in := inertia.New(app, "v1", logger)
	in.ShareFunc(SharedProps)

	h := &harness{
		users:    users.NewRepository(database.DB),
		settings: settings.NewRepository(database.DB),
		mail:     &mailbox{},
	}
	mgr := sessions.NewManager(sessions.NewSQLStore(database.DB), time.Hour, false, logger)
	handler := NewHandler(Options{
		Users:    h.users,
		Settings: h.settings,
		Sessions: mgr,
		Signer:   NewSigner("test-key", time.Hour),
		Mail:     h.mail,
		Inertia:  in,
		Routes:   table,
		Logger:   logger,
	})
	gate := NewGate(table, logger)

	r := chi.NewRouter()
	r.Use(mgr.Middleware, LoadUser(h.users, logger), in.Middleware)
	handler.Mount(r, gate, func(next http.Handler) http.Handler { return next })
	r.With(gate.RequireAuth, gate.RequireVerified).Get("/dashboard", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("dashboard"))
	})
	r.With(gate.RequireAdmin).Get("/admin", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("admin"))
	})

	h.srv = httptest.NewServer(r)
	t.Cleanup(h.srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	h.client = &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
	return h
}

func (h *harness) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	res, err := h.client.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { res.Body.Close() })
	return res
}

func (h *harness) get(t *testing.T, path string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.srv.URL+path, nil)
	require.NoError(t, err)
	return h.do(t, req)
}

// post submits form as if from the page at path.
func (h *harness) post(t *testing.T, path string, form url.Values) *http.Response {
	t.Helper()
	return h.postFrom(t, path, path, form)
}

func (h *harness) postFrom(t *testing.T, from, path string, form url.Values) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, h.srv.URL+path, strings.NewReader(form.Encode()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", h.srv.URL+from)
	return h.do(t, req)
}

// page fetches path as a client-side visit and decodes the page object.
func (h *harness) page(t *testing.T, path string) views.Page {
	t.Helper()
	req, err := http.NewRequest(http.MethodGet, h.srv.URL+path, nil)
	require.NoError(t, err)
	req.Header.Set(inertia.HeaderInertia, "true")
	req.Header.Set(inertia.HeaderVersion, "v1")
	res := h.do(t, req)
	require.Equal(t, http.StatusOK, res.StatusCode)

	var p views.Page
	require.NoError(t, json.NewDecoder(res.Body).Decode(&p))
	return p
}

func location(t *testing.T, res *http.Response) string {
	t.Helper()
	require.Contains(t, []int{http.StatusFound, http.StatusSeeOther}, res.StatusCode)
	u, err := url.Parse(res.Header.Get("Location"))
	require.NoError(t, err)
	return u.Path
}

func pageErrors(p views.Page) map[string]any {
	errs, _ := p.Props["errors"].(map[string]any)
	return errs
}

func (h *harness) createUser(t *testing.T, email, password string, admin, verified bool) *users.User {
	t.Helper()
	hash, err := HashPassword(password)
	require.NoError(t, err)
	u := &users.User{Name: "Test", Email: email, PasswordHash: hash, IsAdmin: admin}
	require.NoError(t, h.users.Create(context.Background(), u))
	if verified {
		require.NoError(t, h.users.MarkEmailVerified(context.Background(), u.ID))
	}
	return u
}

func registration() url.Values {
	return url.Values{
		"name":                  {"Ann"},
		"email":                 {"Ann@Example.com"},
		"password":              {"password1"},
		"password_confirmation": {"password1"},
		"level":                 {users.LevelUser},
	}
}

func TestRegisterAndVerify(t *testing.T) {
	h := newHarness(t)

	res := h.post(t, "/register", registration())
	assert.Equal(t, "/dashboard", location(t, res))

	u, err := h.users.GetByEmail(context.Background(), "ann@example.com")
	require.NoError(t, err)
	assert.True(t, u.IsAdmin, "first account administers the site")
	assert.Equal(t, users.LevelUser, u.Level)

	assert.Equal(t, "/verify-email", location(t, h.get(t, "/dashboard")), "unverified users wait at the notice")

	p := h.page(t, "/verify-email")
	assert.Equal(t, "Auth/VerifyEmail", p.Component)

	res = h.postFrom(t, "/verify-email", "/email/verification-notification", nil)
	assert.Equal(t, "/verify-email", location(t, res))
	assert.Equal(t, 2, h.mail.count())
	p = h.page(t, "/verify-email")
	assert.Equal(t, views.VerificationLinkSent, p.Props["flash"].(map[string]any)["status"])

	link := h.mail.link(t)
	assert.Equal(t, "moviestore.test", link.Host)
	assert.Equal(t, "/dashboard", location(t, h.get(t, link.Path)))
	assert.Equal(t, http.StatusOK, h.get(t, "/dashboard").StatusCode)

	t.Run("Second Account Is Not Admin", func(t *testing.T) {
		other := newHarness(t)
		other.createUser(t, "first@example.com", "password1", true, true)
		other.post(t, "/register", registration())
		u, err := other.users.GetByEmail(context.Background(), "ann@example.com")
		require.NoError(t, err)
		assert.False(t, u.IsAdmin)
	})
}

func TestRegisterValidation(t *testing.T) {
	h := newHarness(t)

	form := registration()
	form.Set("email", "not-an-email")
	form.Set("password_confirmation", "different")
	form.Set("level", "9")
	form.Del("name")
	res := h.post(t, "/register", form)
	assert.Equal(t, "/register", location(t, res))

	p := h.page(t, "/register")
	errs := pageErrors(p)
	assert.Equal(t, "The name field is required.", errs["name"])
	assert.Equal(t, "The email field must be a valid email address.", errs["email"])
	assert.Equal(t, "The password field confirmation does not match.", errs["password"])
	assert.Equal(t, msgLevel, errs["level"])

	old, _ := p.Props["old"].(map[string]any)
	assert.Equal(t, "not-an-email", old["email"])
	assert.NotContains(t, old, "password", "passwords never come back")
	assert.NotContains(t, p.HTML, "different")

	assert.Empty(t, pageErrors(h.page(t, "/register")), "errors are shown once")

	t.Run("Short Password", func(t *testing.T) {
		form := registration()
		form.Set("password", "short")
		h.post(t, "/register", form)
		assert.Equal(t, "The password field must be at least 8 characters.", pageErrors(h.page(t, "/register"))["password"])
	})

	t.Run("Email Taken", func(t *testing.T) {
		h.createUser(t, "ann@example.com", "password1", false, false)
		h.post(t, "/register", registration())
		assert.Equal(t, msgEmailTaken, pageErrors(h.page(t, "/register"))["email"])
	})

	t.Run("Disabled", func(t *testing.T) {
		require.NoError(t, h.settings.Set(context.Background(), settings.KeyRegistrationEnabled, "false"))
		assert.Equal(t, http.StatusNotFound, h.get(t, "/register").StatusCode)
		assert.Equal(t, http.StatusNotFound, h.post(t, "/register", registration()).StatusCode)
	})
}

func TestLogin(t *testing.T) {
	h := newHarness(t)
	h.createUser(t, "ann@example.com", "password1", false, true)

	p := h.page(t, "/login")
	assert.Equal(t, "Auth/Login", p.Component)
	assert.Equal(t, true, p.Props["canResetPassword"])

	h.post(t, "/login", url.Values{"email": {"ann@example.com"}, "password": {"wrong-pass"}})
	assert.Equal(t, msgCredentials, pageErrors(h.page(t, "/login"))["email"])

	h.post(t, "/login", url.Values{})
	errs := pageErrors(h.page(t, "/login"))
	assert.Equal(t, "The email field is required.", errs["email"])
	assert.Equal(t, "The password field is required.", errs["password"])

	assert.Equal(t, "/login", location(t, h.get(t, "/dashboard")))
	res := h.post(t, "/login", url.Values{"email": {" ANN@example.com "}, "password": {"password1"}})
	assert.Equal(t, "/dashboard", location(t, res), "intended url wins")
	assert.Equal(t, http.StatusOK, h.get(t, "/dashboard").StatusCode)

	assert.Equal(t, "/dashboard", location(t, h.get(t, "/login")), "guests only")

	res = h.post(t, "/logout", nil)
	assert.Equal(t, "/", location(t, res))
	assert.Equal(t, "/login", location(t, h.get(t, "/dashboard")))

	t.Run("Reset Link Hidden When Disabled", func(t *testing.T) {
		require.NoError(t, h.settings.Set(context.Background(), settings.KeyPasswordResetEnabled, "false"))
		assert.Equal(t, false, h.page(t, "/login").Props["canResetPassword"])
		assert.Equal(t, http.StatusNotFound, h.get(t, "/forgot-password").StatusCode)
	})
}

func TestPasswordReset(t *testing.T) {
	h := newHarness(t)
	h.createUser(t, "ann@example.com", "password1", false, true)

	h.post(t, "/forgot-password", url.Values{"email": {"nobody@example.com"}})
	assert.Equal(t, msgUnknownEmail, pageErrors(h.page(t, "/forgot-password"))["email"])
	assert.Zero(t, h.mail.count())

	res := h.post(t, "/forgot-password", url.Values{"email": {"ann@example.com"}})
	assert.Equal(t, "/forgot-password", location(t, res))
	p := h.page(t, "/forgot-password")
	assert.Equal(t, statusResetLinkSent, p.Props["flash"].(map[string]any)["status"])

	link := h.mail.link(t)
	token := strings.TrimPrefix(link.Path, "/reset-password/")
	assert.Equal(t, "ann@example.com", link.Query().Get("email"))

	p = h.page(t, link.RequestURI())
	assert.Equal(t, "Auth/ResetPassword", p.Component)
	assert.Equal(t, token, p.Props["token"])
	assert.Equal(t, "ann@example.com", p.Props["email"])

	reset := url.Values{
		"token":                 {token},
		"email":                 {"ann@example.com"},
		"password":              {"new-password"},
		"password_confirmation": {"new-password"},
	}

	t.Run("Email Must Match Token", func(t *testing.T) {
		wrong := url.Values{}
		for k, v := range reset {
			wrong[k] = v
		}
		wrong.Set("email", "eve@example.com")
		h.post(t, "/reset-password", wrong)
		assert.Equal(t, msgInvalidReset, pageErrors(h.page(t, "/forgot-password"))["email"])
	})

	res = h.postFrom(t, link.RequestURI(), "/reset-password", reset)
	assert.Equal(t, "/login", location(t, res))

	res = h.post(t, "/login", url.Values{"email": {"ann@example.com"}, "password": {"new-password"}})
	assert.Equal(t, "/dashboard", location(t, res))
	h.post(t, "/logout", nil)

	h.post(t, "/reset-password", reset)
	assert.Equal(t, msgInvalidReset, pageErrors(h.page(t, "/forgot-password"))["email"], "links die with the password they were issued for")
}

func TestVerifyLinkBelongsToUser(t *testing.T) {
	h := newHarness(t)
	h.post(t, "/register", registration())
	link := h.mail.link(t)
	h.post(t, "/logout", nil)

	other := registration()
	other.Set("email", "bob@example.com")
	h.post(t, "/register", other)

	assert.Equal(t, http.StatusForbidden, h.get(t, link.Path).StatusCode)
	assert.Equal(t, http.StatusForbidden, h.get(t, "/verify-email/garbage").StatusCode)
}

func TestAdminLogin(t *testing.T) {
	h := newHarness(t)
	h.createUser(t, "ann@example.com", "password1", false, true)
	h.createUser(t, "root@example.com", "password1", true, true)

	assert.Equal(t, "/admin/login", location(t, h.get(t, "/admin")))
	assert.Equal(t, "Admin/Login", h.page(t, "/admin/login").Component)

	h.post(t, "/admin/login", url.Values{"email": {"ann@example.com"}, "password": {"password1"}})
	assert.Equal(t, msgNotAdmin, pageErrors(h.page(t, "/admin/login"))["email"])

	res := h.post(t, "/admin/login", url.Values{"email": {"root@example.com"}, "password": {"password1"}})
	assert.Equal(t, "/admin", location(t, res))
	assert.Equal(t, http.StatusOK, h.get(t, "/admin").StatusCode)
	assert.Equal(t, "/admin", location(t, h.get(t, "/admin/login")))
}

func TestSharedProps(t *testing.T) {
	s := &sessions.Session{ID: "abc"}
	s.Flash("status", "hello")
	s.SetErrors(map[string]string{"email": "bad"}, map[string]string{"email": "x"})
	ctx := sessions.WithSession(context.Background(), s)
	ctx = WithUser(ctx, &users.User{ID: "u1", Name: "Ann"})
	r := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx)

	props := SharedProps(r)
	assert.Equal(t, "hello", props["flash"].(map[string]any)["status"])
	assert.Equal(t, map[string]string{"email": "bad"}, props["errors"])
	assert.Equal(t, "u1", props["auth"].(map[string]any)["user"].(map[string]any)["id"])

	props = SharedProps(r)
	assert.Equal(t, map[string]string{}, props["errors"], "flash data is consumed")
	assert.Nil(t, props["old"])
}

func TestFormPagesStartSession(t *testing.T) {
	for _, path := range []string{"/login", "/register", "/forgot-password", "/reset-password/abc", "/admin/login"} {
		t.Run(path, func(t *testing.T) {
			h := newHarness(t)
			res := h.get(t, path)
			require.Equal(t, http.StatusOK, res.StatusCode)

			var names []string
			for _, c := range res.Cookies() {
				names = append(names, c.Name)
			}
			assert.Contains(t, names, sessions.CookieName)
		})
	}

	t.Run("Existing Session Keeps Its ID", func(t *testing.T) {
		h := newHarness(t)
		h.get(t, "/login")
		first := h.client.Jar.Cookies(mustParse(t, h.srv.URL))
		require.Len(t, first, 1)

		res := h.get(t, "/login")
		assert.Empty(t, res.Cookies(), "an unchanged session is not re-issued")
		assert.Equal(t, first, h.client.Jar.Cookies(mustParse(t, h.srv.URL)))
	})
}

func mustParse(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}
