package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/JustinTDCT/moviestore/internal/auth"
	"github.com/JustinTDCT/moviestore/internal/config"
	"github.com/JustinTDCT/moviestore/internal/db"
	"github.com/JustinTDCT/moviestore/internal/logging"
	"github.com/JustinTDCT/moviestore/internal/movies"
	"github.com/JustinTDCT/moviestore/internal/server"
	"github.com/JustinTDCT/moviestore/internal/users"
	"github.com/JustinTDCT/moviestore/internal/version"
)

var ErrNoQueue = errors.New("worker needs redis; set REDIS_ADDR")

type Runner struct{}

func NewRunner() *Runner { return &Runner{} }

func (r *Runner) version() string {
	return version.Load("version.json", logging.Discard()).Version
}

func (r *Runner) load(cmd *cli.Command) (*config.Config, *log.Logger, error) {
	cfg, err := config.Load(cmd.String("config"))
	if err != nil {
		return nil, nil, err
	}
	return cfg, logging.New(os.Stderr, cfg.App.LogLevel), nil
}

func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := r.load(cmd)
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := server.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	logger.Info("moviestore starting", "version", r.version(), "addr", cfg.Address(), "dev", cfg.App.DevMode)
	return app.Run(ctx)
}

func (r *Runner) Worker(ctx context.Context, cmd *cli.Command) error {
	cfg, logger, err := r.load(cmd)
	if err != nil {
		return err
	}
	if !cfg.RedisEnabled() {
		return ErrNoQueue
	}
	app, err := server.Build(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer app.Close()
	return app.Queue.Run()
}

func (r *Runner) migrator(cmd *cli.Command) (*db.Migrator, func(), error) {
	cfg, logger, err := r.load(cmd)
	if err != nil {
		return nil, nil, err
	}
	database, err := db.Connect(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	m, err := db.NewMigrator(database, logger)
	if err != nil {
		database.Close()
		return nil, nil, err
	}
	return m, func() { database.Close() }, nil
}

func (r *Runner) MigrateUp(_ context.Context, cmd *cli.Command) error {
	m, done, err := r.migrator(cmd)
	if err != nil {
		return err
	}
	defer done()
	return m.Up()
}

func (r *Runner) MigrateDown(_ context.Context, cmd *cli.Command) error {
	m, done, err := r.migrator(cmd)
	if err != nil {
		return err
	}
	defer done()
	return m.Down()
}

func (r *Runner) MigrateStatus(_ context.Context, cmd *cli.Command) error {
	m, done, err := r.migrator(cmd)
	if err != nil {
		return err
	}
	defer done()
	return m.Status()
}

func (r *Runner) open(cmd *cli.Command) (*db.DB, *log.Logger, error) {
	cfg, logger, err := r.load(cmd)
	if err != nil {
		return nil, nil, err
	}
	database, err := db.Connect(cfg.Database.Driver, cfg.Database.URL)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Migrate(database, logging.Component(logger, "migrate")); err != nil {
		database.Close()
		return nil, nil, err
	}
	return database, logger, nil
}

func (r *Runner) UserCreate(ctx context.Context, cmd *cli.Command) error {
	password := cmd.String("password")
	if err := auth.ValidatePassword(password, auth.MinPasswordLength, false); err != nil {
		return fmt.Errorf("%w: at least %d characters", err, auth.MinPasswordLength)
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}

	database, logger, err := r.open(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	u := &users.User{
		Name:         cmd.String("name"),
		Email:        auth.NormalizeEmail(cmd.String("email")),
		PasswordHash: hash,
		Level:        users.LevelUser,
		IsAdmin:      cmd.Bool("admin"),
	}
	if u.IsAdmin {
		u.Level = users.LevelAdmin
	}
	repo := users.NewRepository(database.DB)
	if err := repo.Create(ctx, u); err != nil {
		return err
	}
	if cmd.Bool("verified") {
		if err := repo.MarkEmailVerified(ctx, u.ID); err != nil {
			return err
		}
	}
	logger.Info("user created", "id", u.ID, "email", u.Email, "admin", u.IsAdmin)
	return nil
}

func (r *Runner) Seed(ctx context.Context, cmd *cli.Command) error {
	database, logger, err := r.open(cmd)
	if err != nil {
		return err
	}
	defer database.Close()

	n, err := movies.Seed(ctx, movies.NewRepository(database.DB))
	if err != nil {
		return err
	}
	if n == 0 {
		logger.Info("catalogue already has movies, nothing seeded")
		return nil
	}
	logger.Info("catalogue seeded", "movies", n)
	return nil
}

func (r *Runner) Init(_ context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if err := config.CreateConfigFile(path); err != nil {
		return err
	}
	fmt.Println("wrote", path)
	return nil
}
