package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ConsoleConfig configures the operator console.
type ConsoleConfig struct {
	BaseURL   string
	Token     string
	Timeout   time.Duration
	LogLevel  string
	LogFormat string
}

// LoadConsole reads console settings from an optional config file and
// COURSEWARE_* environment variables. Environment wins over file.
func LoadConsole(path string) (*ConsoleConfig, error) {
	v := viper.New()

	v.SetTypeByDefaultValue(true)
	v.SetDefault("base_url", "http://localhost:8080")
	v.SetDefault("token", "")
	v.SetDefault("timeout", 15*time.Second)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "pretty")

	v.SetEnvPrefix("COURSEWARE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("courseware")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/courseware")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// A missing default file is fine; an explicit path must exist.
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read console config: %w", err)
		}
	}

	return &ConsoleConfig{
		BaseURL:   strings.TrimRight(v.GetString("base_url"), "/"),
		Token:     v.GetString("token"),
		Timeout:   v.GetDuration("timeout"),
		LogLevel:  v.GetString("log_level"),
		LogFormat: v.GetString("log_format"),
	}, nil
}
