package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/attendly/timeclock/engine"
	"github.com/spf13/viper"
)

// Config is the service configuration, read from a TOML file with sane
// defaults for local development.
type Config struct {
	HTTPPort  string         `mapstructure:"http_port"`
	BadgerDir string         `mapstructure:"badger_dir"`
	Seed      bool           `mapstructure:"seed"`
	Postgres  PostgresConfig `mapstructure:"postgres"`
	Policy    PolicyConfig   `mapstructure:"policy"`
}

type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

type PolicyConfig struct {
	StandardDayMinutes int      `mapstructure:"standard_day_minutes"`
	Workweek           []string `mapstructure:"workweek"`
	SingleLunch        bool     `mapstructure:"single_lunch"`
}

// Load reads the config file at path, or returns defaults when path is
// empty.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("http_port", "5000")
	v.SetDefault("badger_dir", "./data/journal")
	v.SetDefault("seed", true)
	v.SetDefault("postgres.host", "localhost")
	v.SetDefault("postgres.port", "5432")
	v.SetDefault("postgres.user", "postgres")
	v.SetDefault("postgres.password", "postgrespassword")
	v.SetDefault("postgres.dbname", "postgres")
	v.SetDefault("postgres.sslmode", "disable")
	v.SetDefault("policy.standard_day_minutes", 480)
	v.SetDefault("policy.workweek", []string{"monday", "tuesday", "wednesday", "thursday", "friday"})
	v.SetDefault("policy.single_lunch", true)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// DSN builds the Postgres connection string.
func (c *Config) DSN() string {
	return fmt.Sprintf("postgresql://%s:%s@%s:%s/%s?sslmode=%s",
		c.Postgres.User, c.Postgres.Password,
		c.Postgres.Host, c.Postgres.Port,
		c.Postgres.DBName, c.Postgres.SSLMode,
	)
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// EnginePolicy translates the config into the engine's policy type.
func (c *Config) EnginePolicy() (engine.Policy, error) {
	policy := engine.Policy{
		StandardDayMinutes: c.Policy.StandardDayMinutes,
		SingleLunch:        c.Policy.SingleLunch,
	}
	if policy.StandardDayMinutes <= 0 {
		return policy, fmt.Errorf("standard_day_minutes must be positive, got %d", policy.StandardDayMinutes)
	}
	for _, name := range c.Policy.Workweek {
		day, ok := weekdayNames[strings.ToLower(name)]
		if !ok {
			return policy, fmt.Errorf("unknown weekday %q in workweek", name)
		}
		policy.Workweek = append(policy.Workweek, day)
	}
	return policy, nil
}
