package config

import (
	_ "embed"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/spf13/cast"
)

//go:embed config.example.toml
var exampleConf []byte

type Config struct {
	App      AppConfig      `toml:"app"`
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Redis    RedisConfig    `toml:"redis"`
	Mail     MailConfig     `toml:"mail"`
}

type AppConfig struct {
	Name         string `toml:"name"`
	URL          string `toml:"url"`
	Key          string `toml:"key"`
	StorageDir   string `toml:"storage_dir"`
	TemplatesDir string `toml:"templates_dir"`
	DevMode      bool   `toml:"dev_mode"`
	LogLevel     string `toml:"log_level"`
	VersionFile  string `toml:"version_file"`
}

type ServerConfig struct {
	Host            string `toml:"host"`
	Port            int    `toml:"port"`
	SessionHours    int    `toml:"session_hours"`
	SecureCookies   bool   `toml:"secure_cookies"`
	AuthRatePerMin  int    `toml:"auth_rate_per_min"`
	ShutdownSeconds int    `toml:"shutdown_seconds"`
}

type DatabaseConfig struct {
	Driver       string `toml:"driver"`
	URL          string `toml:"url"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`
}

type MailConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Username string `toml:"username"`
	Password string `toml:"password"`
	From     string `toml:"from"`
}

// Default returns the configuration parsed from the embedded example file.
func Default() *Config {
	var cfg Config
	if err := toml.Unmarshal(exampleConf, &cfg); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &cfg
}

// Load builds the configuration in three layers: embedded defaults, the TOML
// file at path (skipped when it does not exist) and finally the environment,
// after loading a .env file from the working directory if one is present.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if _, err := toml.DecodeFile(path, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg.applyEnv()
	return cfg, cfg.Validate()
}

// CreateConfigFile writes the embedded example config to path.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.App.URL = env("APP_URL", c.App.URL)
	c.App.Key = env("APP_KEY", c.App.Key)
	c.App.StorageDir = env("STORAGE_DIR", c.App.StorageDir)
	c.App.TemplatesDir = env("TEMPLATES_DIR", c.App.TemplatesDir)
	c.App.DevMode = envBool("DEV_MODE", c.App.DevMode)
	c.App.LogLevel = env("LOG_LEVEL", c.App.LogLevel)

	c.Server.Host = env("HOST", c.Server.Host)
	c.Server.Port = envInt("PORT", c.Server.Port)
	c.Server.SecureCookies = envBool("SECURE_COOKIES", c.Server.SecureCookies)

	c.Database.Driver = env("DATABASE_DRIVER", c.Database.Driver)
	c.Database.URL = env("DATABASE_URL", c.Database.URL)

	c.Redis.Addr = env("REDIS_ADDR", c.Redis.Addr)
	c.Redis.Password = env("REDIS_PASSWORD", c.Redis.Password)

	c.Mail.Host = env("SMTP_HOST", c.Mail.Host)
	c.Mail.Port = envInt("SMTP_PORT", c.Mail.Port)
	c.Mail.Username = env("SMTP_USERNAME", c.Mail.Username)
	c.Mail.Password = env("SMTP_PASSWORD", c.Mail.Password)
	c.Mail.From = env("MAIL_FROM", c.Mail.From)
}

// Validate reports settings the server cannot start without.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite3":
	default:
		return fmt.Errorf("%w: unsupported database driver %q", ErrInvalidConfig, c.Database.Driver)
	}
	if c.App.Key == "" {
		return fmt.Errorf("%w: app key is empty", ErrInvalidConfig)
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("%w: invalid port %d", ErrInvalidConfig, c.Server.Port)
	}
	return nil
}

var ErrInvalidConfig = errors.New("invalid configuration")

func (c *Config) Address() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

func (c *Config) RedisEnabled() bool {
	return c.Redis.Addr != ""
}

func (c *Config) MailEnabled() bool {
	return c.Mail.Host != "" && c.Mail.From != ""
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := cast.ToIntE(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := cast.ToBoolE(v); err == nil {
			return b
		}
	}
	return fallback
}
