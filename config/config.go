// Package config loads the TOML configuration file and environment overrides.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/billbatista/acasinha-ledger/ledger"
	"github.com/billbatista/acasinha-ledger/split"
	"github.com/billbatista/acasinha-ledger/user"
	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml"
)

const (
	DefaultListen      = ":5000"
	DefaultDatabaseURL = "host=localhost port=5432 user=postgres password=postgres dbname=expenses sslmode=disable"
	DefaultEventBuffer = 100
	DefaultSplitA      = 60.0
	DefaultSplitB      = 40.0

	envPrefix = "ACASINHA_"
)

type Config struct {
	Listen          string        `toml:"listen" validate:"required"`
	DatabaseURL     string        `toml:"database_url" validate:"required"`
	LogLevel        string        `toml:"log_level" validate:"oneof=debug info warn error"`
	LogFormat       string        `toml:"log_format" validate:"oneof=text json"`
	RecentLimit     int           `toml:"recent_limit" validate:"gte=1,lte=500"`
	EventBuffer     int           `toml:"event_buffer" validate:"gte=1"`
	DefaultCategory string        `toml:"default_category" validate:"required"`
	Categories      []string      `toml:"categories" validate:"dive,required"`
	Split           SplitConfig   `toml:"split"`
	Parties         PartiesConfig `toml:"parties"`
}

// SplitConfig holds percentages as typed by the user. A and B are optional
// and are not validated here: bad values fall back to the defaults.
type SplitConfig struct {
	A        *float64 `toml:"a"`
	B        *float64 `toml:"b"`
	DefaultA *float64 `toml:"default_a" validate:"omitempty,gte=0"`
	DefaultB *float64 `toml:"default_b" validate:"omitempty,gte=0"`
}

type PartiesConfig struct {
	A PartyConfig `toml:"a"`
	B PartyConfig `toml:"b"`
}

type PartyConfig struct {
	Name         string `toml:"name" validate:"required"`
	PasswordHash string `toml:"password_hash"`
}

// Load reads path (optional), applies ACASINHA_* environment variables and
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(envPrefix + key); ok && v != "" {
			*dst = v
		}
	}
	str("LISTEN", &c.Listen)
	str("DATABASE_URL", &c.DatabaseURL)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("PARTY_A_NAME", &c.Parties.A.Name)
	str("PARTY_B_NAME", &c.Parties.B.Name)

	if v, ok := lookup(envPrefix + "RECENT_LIMIT"); ok && v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sRECENT_LIMIT: %w", envPrefix, err)
		}
		c.RecentLimit = n
	}

	// Split percentages are raw inputs; unparseable values count as missing.
	if v, ok := lookup(envPrefix + "SPLIT_A"); ok {
		c.Split.A = split.ParsePercent(v)
	}
	if v, ok := lookup(envPrefix + "SPLIT_B"); ok {
		c.Split.B = split.ParsePercent(v)
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = DefaultListen
	}
	if c.DatabaseURL == "" {
		c.DatabaseURL = DefaultDatabaseURL
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.LogLevel = strings.ToLower(c.LogLevel)
	if c.LogFormat == "" {
		c.LogFormat = "text"
	}
	if c.RecentLimit == 0 {
		c.RecentLimit = ledger.DefaultRecentLimit
	}
	if c.EventBuffer == 0 {
		c.EventBuffer = DefaultEventBuffer
	}
	if c.DefaultCategory == "" {
		c.DefaultCategory = ledger.DefaultCategory
	}
	if c.Split.DefaultA == nil && c.Split.DefaultB == nil {
		a, b := DefaultSplitA, DefaultSplitB
		c.Split.DefaultA, c.Split.DefaultB = &a, &b
	}
	if c.Parties.A.Name == "" {
		c.Parties.A.Name = "A"
	}
	if c.Parties.B.Name == "" {
		c.Parties.B.Name = "B"
	}
}

func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make([]string, 0, len(verrs))
			for _, fe := range verrs {
				fields = append(fields, fmt.Sprintf("%s (%s)", fe.Namespace(), fe.Tag()))
			}
			return fmt.Errorf("invalid config: %s", strings.Join(fields, ", "))
		}
		return fmt.Errorf("invalid config: %w", err)
	}

	if c.Split.DefaultA == nil || c.Split.DefaultB == nil {
		return errors.New("invalid config: split.default_a and split.default_b must be set together")
	}
	if err := c.Names().Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if len(c.Categories) > 0 && !slices.ContainsFunc(c.Categories, func(s string) bool {
		return strings.EqualFold(s, c.DefaultCategory)
	}) {
		return fmt.Errorf("invalid config: default_category %q is not one of categories", c.DefaultCategory)
	}
	return nil
}

// SplitPolicy builds the split policy from the configured defaults.
func (c *Config) SplitPolicy(logger *slog.Logger) (split.Policy, error) {
	p, err := split.NewPolicy(*c.Split.DefaultA, *c.Split.DefaultB, logger)
	if err != nil {
		return split.Policy{}, fmt.Errorf("invalid config: %w", err)
	}
	return p, nil
}

// SplitInput is the raw split applied to expenses that carry none.
func (c *Config) SplitInput() split.Config {
	return split.Config{A: c.Split.A, B: c.Split.B}
}

func (c *Config) Directory() (*user.Directory, error) {
	return user.NewDirectory(
		user.User{Name: c.Parties.A.Name, PasswordHash: c.Parties.A.PasswordHash},
		user.User{Name: c.Parties.B.Name, PasswordHash: c.Parties.B.PasswordHash},
	)
}

func (c *Config) Names() ledger.Names {
	return ledger.Names{A: c.Parties.A.Name, B: c.Parties.B.Name}
}

// ParseLevel maps the configured level onto slog.
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
