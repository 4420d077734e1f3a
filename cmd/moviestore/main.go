package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/JustinTDCT/moviestore/internal/logging"
)

func main() {
	r := NewRunner()

	app := &cli.Command{
		Name:    "moviestore",
		Usage:   "Video streaming storefront",
		Version: r.version(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
				Sources: cli.EnvVars("MOVIESTORE_CONFIG"),
			},
		},
		Commands: r.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logging.New(os.Stderr, "info").Fatal("application error", "err", err)
	}
}
