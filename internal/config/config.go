package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"github.com/spf13/viper"

	"github.com/jask/cashledger/internal/ledger"
)

// Config holds application configuration.
type Config struct {
	Database   DatabaseConfig
	Operations OperationsConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	HTTP       HTTPConfig
	Log        LogConfig
	Import     ImportConfig
	UI         UIConfig
	Accounts   []AccountConfig
	FeeBands   []FeeBandConfig `mapstructure:"fee_bands"`
}

// DatabaseConfig holds sqlite settings.
type DatabaseConfig struct {
	Path       string
	Migrations string
}

// OperationsConfig points at the back-office operations database.
// An empty DSN leaves every statement row unmatched.
type OperationsConfig struct {
	DSN string
}

// RedisConfig enables the fee band cache when Addr is set.
type RedisConfig struct {
	Addr       string
	Password   string
	DB         int
	FeeBandTTL time.Duration `mapstructure:"fee_band_ttl"`
}

// KafkaConfig enables import events when Brokers is non-empty.
type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type HTTPConfig struct {
	Addr string
}

type LogConfig struct {
	Level       string
	Development bool
}

// ImportConfig holds bank export layouts.
type ImportConfig struct {
	FormatsPath string `mapstructure:"formats_path"`
}

// UIConfig holds presentation settings.
type UIConfig struct {
	DateFormat string `mapstructure:"date_format"`
}

// AccountConfig registers an account on startup.
type AccountConfig struct {
	ID       string
	Label    string
	Currency string
	Kind     string
	Special  bool
}

// FeeBandConfig is one row of the fee band table.
type FeeBandConfig struct {
	RangeStart string `mapstructure:"range_start"`
	RangeEnd   string `mapstructure:"range_end"`
	FixedFee   string `mapstructure:"fixed_fee"`
}

// Load reads configuration from file and env. Env var overrides use prefix CASHLEDGER_.
// A .env file in the working directory is loaded first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()

	// default values
	v.SetDefault("database.path", filepath.Join(os.Getenv("HOME"), ".local", "share", "cashledger", "cashledger.db"))
	v.SetDefault("database.migrations", "internal/database/migrations")
	v.SetDefault("operations.dsn", "")
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.fee_band_ttl", 30*time.Minute)
	v.SetDefault("kafka.brokers", []string{})
	v.SetDefault("kafka.topic", "ledger.imported")
	v.SetDefault("http.addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("import.formats_path", "")
	v.SetDefault("ui.date_format", ledger.DefaultDateLayout)

	v.SetConfigType("toml")

	cfgPath := os.Getenv("CASHLEDGER_CONFIG")
	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
	} else {
		v.AddConfigPath(filepath.Join(os.Getenv("HOME"), ".config", "cashledger"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("CASHLEDGER")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgPath != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

// SeedAccounts converts the configured accounts into ledger accounts.
func (c Config) SeedAccounts() ([]ledger.Account, error) {
	out := make([]ledger.Account, 0, len(c.Accounts))
	for _, a := range c.Accounts {
		kind := ledger.AccountKind(strings.ToUpper(strings.TrimSpace(a.Kind)))
		if kind == "" {
			kind = ledger.KindBank
		}
		if !kind.Valid() {
			return nil, fmt.Errorf("account %s: unknown kind %q", a.ID, a.Kind)
		}
		if strings.TrimSpace(a.ID) == "" || strings.TrimSpace(a.Currency) == "" {
			return nil, fmt.Errorf("account %q: id and currency are required", a.Label)
		}
		out = append(out, ledger.Account{
			ID:       strings.TrimSpace(a.ID),
			Label:    a.Label,
			Currency: strings.ToUpper(strings.TrimSpace(a.Currency)),
			Kind:     kind,
			Special:  a.Special,
		})
	}
	return out, nil
}

// SeedFeeBands converts the configured fee bands.
func (c Config) SeedFeeBands() ([]ledger.FeeBand, error) {
	out := make([]ledger.FeeBand, 0, len(c.FeeBands))
	for i, b := range c.FeeBands {
		start, err := decimal.NewFromString(b.RangeStart)
		if err != nil {
			return nil, fmt.Errorf("fee band %d range_start: %w", i+1, err)
		}
		end, err := decimal.NewFromString(b.RangeEnd)
		if err != nil {
			return nil, fmt.Errorf("fee band %d range_end: %w", i+1, err)
		}
		fee, err := decimal.NewFromString(b.FixedFee)
		if err != nil {
			return nil, fmt.Errorf("fee band %d fixed_fee: %w", i+1, err)
		}
		out = append(out, ledger.FeeBand{RangeStart: start, RangeEnd: end, FixedFee: fee})
	}
	return out, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
// Only non-secret settings are written; the operations DSN and redis password
// are expected to come from the environment. Seed accounts and fee bands are
// written back so a rewrite keeps them.
func Save(cfg Config) error {
	path := os.Getenv("CASHLEDGER_CONFIG")
	if path == "" {
		path = filepath.Join(os.Getenv("HOME"), ".config", "cashledger", "config.toml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("database.path", cfg.Database.Path)
	v.Set("database.migrations", cfg.Database.Migrations)
	v.Set("redis.addr", cfg.Redis.Addr)
	v.Set("redis.db", cfg.Redis.DB)
	v.Set("redis.fee_band_ttl", cfg.Redis.FeeBandTTL.String())
	v.Set("kafka.brokers", cfg.Kafka.Brokers)
	v.Set("kafka.topic", cfg.Kafka.Topic)
	v.Set("http.addr", cfg.HTTP.Addr)
	v.Set("log.level", cfg.Log.Level)
	v.Set("log.development", cfg.Log.Development)
	v.Set("import.formats_path", cfg.Import.FormatsPath)
	v.Set("ui.date_format", cfg.UI.DateFormat)

	accounts := make([]map[string]any, 0, len(cfg.Accounts))
	for _, a := range cfg.Accounts {
		accounts = append(accounts, map[string]any{
			"id":       a.ID,
			"label":    a.Label,
			"currency": a.Currency,
			"kind":     a.Kind,
			"special":  a.Special,
		})
	}
	v.Set("accounts", accounts)

	bands := make([]map[string]any, 0, len(cfg.FeeBands))
	for _, b := range cfg.FeeBands {
		bands = append(bands, map[string]any{
			"range_start": b.RangeStart,
			"range_end":   b.RangeEnd,
			"fixed_fee":   b.FixedFee,
		})
	}
	v.Set("fee_bands", bands)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
