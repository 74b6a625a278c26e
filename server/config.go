package server

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the serving-layer configuration, read from trackfolio.yaml and
// TRACKFOLIO_* environment overrides.
type Config struct {
	Addr      string `mapstructure:"addr"`
	DataFile  string `mapstructure:"data"`
	StaticDir string `mapstructure:"static"`
	Currency  string `mapstructure:"currency"`

	// ProviderTimeout bounds every outbound quote/history attempt.
	ProviderTimeout time.Duration `mapstructure:"provider_timeout"`

	Poll PollConfig `mapstructure:"poll"`
}

// PollConfig carries the per-state quote polling intervals.
type PollConfig struct {
	Healthy  time.Duration `mapstructure:"healthy"`
	Degraded time.Duration `mapstructure:"degraded"`
}

// LoadConfig reads the configuration. path may name an explicit file;
// otherwise trackfolio.yaml is searched in the working directory. A missing
// file is not an error, defaults and environment apply.
func LoadConfig(path string) (Config, error) {
	v := viper.New()
	v.SetDefault("addr", ":8787")
	v.SetDefault("data", "positions.json")
	v.SetDefault("static", "static")
	v.SetDefault("currency", "TRY")
	v.SetDefault("provider_timeout", 8*time.Second)
	v.SetDefault("poll.healthy", 10*time.Second)
	v.SetDefault("poll.degraded", 30*time.Second)

	v.SetEnvPrefix("TRACKFOLIO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("cannot read config %q: %w", path, err)
		}
	} else {
		v.SetConfigName("trackfolio")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return Config{}, fmt.Errorf("cannot read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("cannot decode config: %w", err)
	}
	return cfg, nil
}
