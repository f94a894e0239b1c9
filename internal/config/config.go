package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	DriverStatic = "static"
	DriverGit    = "git"
)

type Config struct {
	Port          int                 `mapstructure:"port"`
	DatabasePath  string              `mapstructure:"database_path"`
	Log           LogConfig           `mapstructure:"log"`
	Cluster       ClusterConfig       `mapstructure:"cluster"`
	SourceControl SourceControlConfig `mapstructure:"source_control"`
	Runner        RunnerConfig        `mapstructure:"runner"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

type ClusterConfig struct {
	DNSPolicy          string `mapstructure:"dns_policy"`
	ServiceAccountName string `mapstructure:"service_account_name"`
}

type SourceControlConfig struct {
	Driver          string              `mapstructure:"driver"`
	Root            string              `mapstructure:"root"` // bare repositories, git driver only
	AllowedBranches map[string][]string `mapstructure:"allowed_branches"`
}

type RunnerConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// SetDefaults registers the default of every key on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("port", 8080)
	v.SetDefault("database_path", "./cloudops.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("cluster.dns_policy", "ClusterFirst")
	v.SetDefault("cluster.service_account_name", "default")
	v.SetDefault("source_control.driver", DriverStatic)
	v.SetDefault("source_control.root", "./repos")
	v.SetDefault("source_control.allowed_branches", map[string][]string{})
	v.SetDefault("runner.enabled", false)
}

// Load reads cloudops.yaml from the usual locations, then CLOUDOPS_*
// environment variables, on top of the defaults. Flags bound to v before
// the call take precedence over both.
func Load(v *viper.Viper) (*Config, error) {
	v.SetConfigName("cloudops")
	v.SetConfigType("yaml")
	v.AddConfigPath("/etc/cloudops/")
	v.AddConfigPath("$HOME/.cloudops")
	v.AddConfigPath(".")

	SetDefaults(v)

	v.SetEnvPrefix("CLOUDOPS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d out of range", c.Port)
	}
	switch c.SourceControl.Driver {
	case DriverStatic, DriverGit:
	default:
		return fmt.Errorf("unknown source_control.driver %q", c.SourceControl.Driver)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("unknown log.format %q", c.Log.Format)
	}
	return nil
}

type ctxKey struct{}

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, ctxKey{}, cfg)
}

// FromContext returns the configuration stored by WithContext, or nil.
func FromContext(ctx context.Context) *Config {
	cfg, _ := ctx.Value(ctxKey{}).(*Config)
	return cfg
}
