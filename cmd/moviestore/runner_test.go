package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"
)

func newApp(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "moviestore",
		Flags:    []cli.Flag{&cli.StringFlag{Name: "config", Value: "config.toml"}},
		Commands: r.register(),
	}
}

func TestRegister(t *testing.T) {
	names := map[string]bool{}
	for _, c := range NewRunner().register() {
		assert.False(t, names[c.Name], "duplicate command %s", c.Name)
		names[c.Name] = true
	}
	for _, want := range []string{"serve", "worker", "migrate", "user", "seed", "init"} {
		assert.True(t, names[want], want)
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "moviestore.toml")
	ctx := context.Background()

	require.NoError(t, newApp(NewRunner()).Run(ctx, []string{"moviestore", "--config", path, "init"}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[server]")

	err = newApp(NewRunner()).Run(ctx, []string{"moviestore", "--config", path, "init"})
	assert.ErrorContains(t, err, "already exists")
}

func TestUserCreate(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "sqlite3")
	t.Setenv("DATABASE_URL", filepath.Join(t.TempDir(), "users.db"))
	ctx := context.Background()
	args := []string{"moviestore", "--config", "", "user", "create", "--name", "Ada", "--email", " Ada@Example.com "}

	err := newApp(NewRunner()).Run(ctx, append(args, "--password", "short"))
	assert.Error(t, err)

	require.NoError(t, newApp(NewRunner()).Run(ctx, append(args, "--password", "correct-horse", "--admin")))
	err = newApp(NewRunner()).Run(ctx, append(args, "--password", "correct-horse"))
	assert.Error(t, err, "second account with the same email")
}
