// Package config loads the service's single YAML configuration file.
// There is no flag/env/file/defaults precedence chain here: config.Load
// reads one file and nothing else, and missing keys simply keep Go's
// zero value.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the service's full runtime configuration.
type Config struct {
	MaxCacheAge   time.Duration `mapstructure:"-"`
	IPMapFile     string        `mapstructure:"ipMapFile"`
	PACRoot       string        `mapstructure:"pacRoot"`
	ContactInfo   string        `mapstructure:"contactInfo"`
	AccessLogFile string        `mapstructure:"accessLogFile"`
	EventLogFile  string        `mapstructure:"eventLogFile"`
	DoAutoRefresh bool          `mapstructure:"doAutoRefresh"`
}

// rawConfig mirrors the YAML shape directly: maxCacheAge is an integer
// count of seconds on disk, converted to a time.Duration after
// unmarshalling.
type rawConfig struct {
	MaxCacheAge   int    `mapstructure:"maxCacheAge"`
	IPMapFile     string `mapstructure:"ipMapFile"`
	PACRoot       string `mapstructure:"pacRoot"`
	ContactInfo   string `mapstructure:"contactInfo"`
	AccessLogFile string `mapstructure:"accessLogFile"`
	EventLogFile  string `mapstructure:"eventLogFile"`
	DoAutoRefresh bool   `mapstructure:"doAutoRefresh"`
}

// ConfigFlag registers the --config CLI flag (default "config.yml") on
// the global pflag.CommandLine, the same flag library the rest of the
// ambient stack uses. Call before pflag.Parse().
func ConfigFlag() *string {
	return pflag.String("config", "config.yml", "path to the YAML configuration file")
}

// Load reads path as YAML and decodes it into a Config. There is no
// environment-variable or CLI-flag override layer for these keys;
// the configuration lives in exactly one file.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("config: cannot read %q: %w", path, err)
	}

	var raw rawConfig
	if err := v.Unmarshal(&raw); err != nil {
		return Config{}, fmt.Errorf("config: cannot decode %q: %w", path, err)
	}

	return Config{
		MaxCacheAge:   time.Duration(raw.MaxCacheAge) * time.Second,
		IPMapFile:     raw.IPMapFile,
		PACRoot:       raw.PACRoot,
		ContactInfo:   raw.ContactInfo,
		AccessLogFile: raw.AccessLogFile,
		EventLogFile:  raw.EventLogFile,
		DoAutoRefresh: raw.DoAutoRefresh,
	}, nil
}
