package server

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"

	"github.com/JustinTDCT/moviestore/internal/auth"
	"github.com/JustinTDCT/moviestore/internal/browse"
	"github.com/JustinTDCT/moviestore/internal/config"
	"github.com/JustinTDCT/moviestore/internal/db"
	"github.com/JustinTDCT/moviestore/internal/inertia"
	"github.com/JustinTDCT/moviestore/internal/jobs"
	"github.com/JustinTDCT/moviestore/internal/livereload"
	"github.com/JustinTDCT/moviestore/internal/logging"
	"github.com/JustinTDCT/moviestore/internal/movies"
	"github.com/JustinTDCT/moviestore/internal/notifications"
	"github.com/JustinTDCT/moviestore/internal/ratelimit"
	"github.com/JustinTDCT/moviestore/internal/routes"
	"github.com/JustinTDCT/moviestore/internal/scheduler"
	"github.com/JustinTDCT/moviestore/internal/sessions"
	"github.com/JustinTDCT/moviestore/internal/settings"
	"github.com/JustinTDCT/moviestore/internal/users"
	"github.com/JustinTDCT/moviestore/internal/version"
	"github.com/JustinTDCT/moviestore/internal/views"
	"github.com/JustinTDCT/moviestore/internal/watcher"
)

const (
	signedLinkTTL = 60 * time.Minute
	mailTimeout   = 15 * time.Second
)

// App is the fully wired application.
type App struct {
	Config    *config.Config
	Logger    *log.Logger
	DB        *db.DB
	Server    *Server
	Scheduler *scheduler.Scheduler

	// Queue is set when Redis is configured.
	Queue *jobs.Queue
	// MailSender delivers mail on the caller's goroutine.
	MailSender notifications.Sender

	watcher *watcher.Watcher
	redis   *redis.Client
}

// Build connects to the database, runs migrations and assembles every
// component described by cfg.
func Build(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	database, err := db.Connect(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, err
	}
	if err := db.Migrate(database, logging.Component(logger, "migrate")); err != nil {
		database.Close()
		return nil, err
	}

	a := &App{Config: cfg, Logger: logger, DB: database}
	if err := a.wire(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) wire(ctx context.Context) error {
	cfg, logger := a.Config, a.Logger
	table := routes.Default(cfg.App.URL)

	userRepo := users.NewRepository(a.DB.DB)
	settingsRepo := settings.NewRepository(a.DB.DB)
	movieRepo := movies.NewRepository(a.DB.DB)

	store, err := a.sessionStore(ctx)
	if err != nil {
		return err
	}
	lifetime := time.Duration(cfg.Server.SessionHours) * time.Hour
	mgr := sessions.NewManager(store, lifetime, cfg.Server.SecureCookies, logging.Component(logger, "sessions"))

	renderer, err := notifications.NewRenderer()
	if err != nil {
		return err
	}
	mailLogger := logging.Component(logger, "mail")
	if cfg.MailEnabled() {
		a.MailSender = notifications.NewEmailSender(notifications.EmailConfig{
			Host:     cfg.Mail.Host,
			Port:     cfg.Mail.Port,
			Username: cfg.Mail.Username,
			Password: cfg.Mail.Password,
			From:     cfg.Mail.From,
		}, renderer, mailLogger)
	} else {
		a.MailSender = notifications.NewLogSender(renderer, mailLogger)
	}

	var dispatcher notifications.Dispatcher = notifications.NewSync(a.MailSender, mailTimeout)
	if cfg.RedisEnabled() {
		a.Queue = jobs.NewQueue(jobs.RedisOptions{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logging.Component(logger, "jobs"))
		a.Queue.RegisterHandler(jobs.TaskSendMail, jobs.MailHandler(a.MailSender, mailLogger))
		dispatcher = jobs.NewMailDispatcher(a.Queue)
	}

	var static fs.FS = views.Static()
	if dir := cfg.App.TemplatesDir; dir != "" {
		static = os.DirFS(filepath.Join(filepath.Dir(dir), "static"))
	}

	var hub *livereload.Hub
	if cfg.App.DevMode {
		hub = livereload.NewHub(logging.Component(logger, "livereload"))
	}

	viewLogger := logging.Component(logger, "views")
	app, err := views.NewApp(views.Options{
		Routes:     table,
		Logger:     viewLogger,
		Title:      cfg.App.Name,
		Dir:        cfg.App.TemplatesDir,
		LiveReload: hub != nil,
	})
	if err != nil {
		return err
	}

	assetVersion, err := version.Load(cfg.App.VersionFile, logger).Asset(static)
	if err != nil {
		return fmt.Errorf("failed to compute asset version: %w", err)
	}
	in := inertia.New(app, assetVersion, viewLogger)
	in.Share("appName", cfg.App.Name)
	in.ShareFunc(auth.SharedProps)

	authLogger := logging.Component(logger, "auth")
	gate := auth.NewGate(table, authLogger)
	limiter := ratelimit.PerMinute(cfg.Server.AuthRatePerMin)

	a.Server = New(Options{
		Addr:            cfg.Address(),
		ShutdownTimeout: time.Duration(cfg.Server.ShutdownSeconds) * time.Second,
		Logger:          logging.Component(logger, "http"),
		Routes:          table,
		Inertia:         in,
		Sessions:        mgr,
		Users:           userRepo,
		Gate:            gate,
		Auth: auth.NewHandler(auth.Options{
			Users:    userRepo,
			Settings: settingsRepo,
			Sessions: mgr,
			Signer:   auth.NewSigner(cfg.App.Key, signedLinkTTL),
			Mail:     dispatcher,
			Inertia:  in,
			Routes:   table,
			Logger:   authLogger,
		}),
		Browse:     browse.NewHandler(movieRepo, userRepo, settingsRepo, in, table, logging.Component(logger, "browse")),
		Limiter:    limiter,
		LiveReload: hub,
		Static:     static,
		StorageDir: cfg.App.StorageDir,
	})

	schedLogger := logging.Component(logger, "scheduler")
	a.Scheduler = scheduler.New(schedLogger)
	if err := a.Scheduler.AddJob("@every 15m", scheduler.PurgeSessions(store, schedLogger)); err != nil {
		return err
	}
	err = a.Scheduler.AddJob("@every 10m", scheduler.Func("sweep-rate-limits", func(context.Context) error {
		limiter.Sweep(30 * time.Minute)
		return nil
	}))
	if err != nil {
		return err
	}

	if hub != nil && cfg.App.TemplatesDir != "" {
		return a.watch(app, hub)
	}
	return nil
}

func (a *App) sessionStore(ctx context.Context) (sessions.Store, error) {
	if !a.Config.RedisEnabled() {
		return sessions.NewSQLStore(a.DB.DB), nil
	}
	a.redis = redis.NewClient(&redis.Options{
		Addr:     a.Config.Redis.Addr,
		Password: a.Config.Redis.Password,
		DB:       a.Config.Redis.DB,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := a.redis.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return sessions.NewRedisStore(a.redis), nil
}

// watch reloads templates and refreshes open tabs when view files change.
func (a *App) watch(app *views.App, hub *livereload.Hub) error {
	logger := logging.Component(a.Logger, "watcher")
	w, err := watcher.New(func(path string) {
		if err := app.Reload(); err != nil {
			logger.Error("failed to reload templates", "err", err)
			return
		}
		hub.Reload(path)
	}, 150*time.Millisecond, logger)
	if err != nil {
		return err
	}
	a.watcher = w
	for _, dir := range []string{a.Config.App.TemplatesDir, filepath.Join(filepath.Dir(a.Config.App.TemplatesDir), "static")} {
		if err := w.Add(dir); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// Run serves HTTP and runs the scheduler until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.Scheduler.Start()
	defer a.Scheduler.Stop()
	if a.watcher != nil {
		a.watcher.Start()
		defer a.watcher.Stop()
	}
	return a.Server.ListenAndServe(ctx)
}

func (a *App) Close() {
	if a.Queue != nil {
		a.Queue.Stop()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	a.DB.Close()
}
