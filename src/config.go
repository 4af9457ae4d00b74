package main

import (
	"github.com/pkg/errors"
	"github.com/spf13/viper"

	"crosswarped.com/snailfish/pkg/number"
)

// config is read from SNAIL_* environment variables, plus the PORT and
// LOCAL_ONLY variables the functions runtime already uses.
type config struct {
	Project  string `mapstructure:"project"`
	Dataset  string `mapstructure:"dataset"`
	Table    string `mapstructure:"table"`
	Location string `mapstructure:"location"`

	MaxLines     int   `mapstructure:"max_lines"`
	MaxLineBytes int   `mapstructure:"max_line_bytes"`
	MaxBodyBytes int64 `mapstructure:"max_body_bytes"`
	MaxSteps int `mapstructure:"max_steps"`
	Workers  int `mapstructure:"workers"`

	Port      string `mapstructure:"port"`
	LocalOnly bool   `mapstructure:"local_only"`
}

func loadConfig() (config, error) {
	v := viper.New()
	v.SetEnvPrefix("snail")
	v.AutomaticEnv()

	v.SetDefault("project", "xword-x")
	v.SetDefault("dataset", "snailfish")
	v.SetDefault("table", "homework_lines")
	v.SetDefault("location", "US")
	v.SetDefault("max_lines", 1000)
	v.SetDefault("max_line_bytes", 4096)
	v.SetDefault("max_body_bytes", 1<<20)
	v.SetDefault("max_steps", number.DefaultMaxSteps)
	v.SetDefault("workers", 0)
	v.SetDefault("port", "8080")
	v.SetDefault("local_only", false)

	if err := v.BindEnv("port", "PORT"); err != nil {
		return config{}, err
	}
	if err := v.BindEnv("local_only", "LOCAL_ONLY"); err != nil {
		return config{}, err
	}

	var cfg config
	if err := v.Unmarshal(&cfg); err != nil {
		return config{}, errors.Wrap(err, "decoding config")
	}
	if cfg.MaxLines < 2 {
		return config{}, errors.Errorf("max_lines must be at least 2, got %d", cfg.MaxLines)
	}
	if cfg.MaxLineBytes < 5 {
		return config{}, errors.Errorf("max_line_bytes must be at least 5, got %d", cfg.MaxLineBytes)
	}
	if cfg.MaxBodyBytes <= 0 {
		return config{}, errors.Errorf("max_body_bytes must be positive, got %d", cfg.MaxBodyBytes)
	}
	return cfg, nil
}
