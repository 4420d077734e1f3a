package main

import "github.com/urfave/cli/v3"

func (r *Runner) register() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "serve",
			Usage:  "Run the web server",
			Action: r.Serve,
		},
		{
			Name:   "worker",
			Usage:  "Deliver queued mail (needs Redis)",
			Action: r.Worker,
		},
		{
			Name:  "migrate",
			Usage: "Manage the database schema",
			Commands: []*cli.Command{
				{Name: "up", Usage: "Apply all pending migrations", Action: r.MigrateUp},
				{Name: "down", Usage: "Roll back the last migration", Action: r.MigrateDown},
				{Name: "status", Usage: "Show applied and pending migrations", Action: r.MigrateStatus},
			},
		},
		{
			Name:  "user",
			Usage: "Manage accounts",
			Commands: []*cli.Command{
				{
					Name:  "create",
					Usage: "Create an account without the registration form",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: "name", Usage: "Display name", Required: true},
						&cli.StringFlag{Name: "email", Usage: "Sign-in email", Required: true},
						&cli.StringFlag{Name: "password", Usage: "Initial password", Required: true},
						&cli.BoolFlag{Name: "admin", Usage: "Grant admin access"},
						&cli.BoolFlag{Name: "verified", Usage: "Mark the email as verified", Value: true},
					},
					Action: r.UserCreate,
				},
			},
		},
		{
			Name:   "seed",
			Usage:  "Fill an empty catalogue with sample titles",
			Action: r.Seed,
		},
		{
			Name:  "init",
			Usage: "Write an example configuration file",
			Action: r.Init,
		},
	}
}
