package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "HANGMAN"

type Config struct {
	Addr           string
	GracePeriod    time.Duration
	OutboxSize     int
	IdleTimeout    time.Duration
	LogLevel       string
	DevLogs        bool
	DatabaseURL    string
	OriginPatterns []string
}

func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("--addr must not be empty")
	}
	if c.GracePeriod <= 0 {
		return fmt.Errorf("invalid grace period (must be positive): %s", c.GracePeriod)
	}
	if c.OutboxSize < 1 {
		return fmt.Errorf("invalid outbox size (must be at least 1): %d", c.OutboxSize)
	}
	if c.IdleTimeout < 0 {
		return fmt.Errorf("invalid idle timeout: %s", c.IdleTimeout)
	}
	return nil
}

// HistoryEnabled reports whether finished rounds should be archived.
func (c *Config) HistoryEnabled() bool { return c.DatabaseURL != "" }

// LoadDotEnv reads .env files into the process environment. Missing files
// are fine; variables already set win.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var existing []string
	for _, f := range files {
		if ok, err := exists(f); err != nil {
			return err
		} else if ok {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}
	return godotenv.Load(existing...)
}

// BindFlags registers every setting on fs and fills in unset flags from
// HANGMAN_* environment variables.
func BindFlags(fs *pflag.FlagSet, cfg *Config) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Addr, "addr", "a", ":8080", "address to listen on (env: HANGMAN_ADDR)")
	fs.DurationVar(&cfg.GracePeriod, "grace-period", 30*time.Second, "time an empty room is kept before removal (env: HANGMAN_GRACE_PERIOD)")
	fs.IntVar(&cfg.OutboxSize, "outbox-size", 16, "messages buffered per connection before it is dropped (env: HANGMAN_OUTBOX_SIZE)")
	fs.DurationVar(&cfg.IdleTimeout, "idle-timeout", 0, "close connections silent for this long, 0 disables (env: HANGMAN_IDLE_TIMEOUT)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "debug, info, warn or error (env: HANGMAN_LOG_LEVEL)")
	fs.BoolVar(&cfg.DevLogs, "dev-logs", false, "human readable console logs (env: HANGMAN_DEV_LOGS)")
	fs.StringVar(&cfg.DatabaseURL, "database-url", "", "postgres DSN for the round archive, empty disables it (env: HANGMAN_DATABASE_URL)")
	fs.StringSliceVar(&cfg.OriginPatterns, "origin-patterns", nil, "extra websocket origins to accept, e.g. localhost:* (env: HANGMAN_ORIGIN_PATTERNS)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}

func exists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, err
	}
}
