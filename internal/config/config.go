// Package config loads tool configuration from defaults, an optional YAML
// config file, and YOLOGUI_* environment overrides, in that precedence
// order (lowest to highest).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the resolved tool configuration.
type Config struct {
	Trainer TrainerConfig `mapstructure:"trainer"`
	Server  ServerConfig  `mapstructure:"server"`
	Logging LoggingConfig `mapstructure:"logging"`
}

type TrainerConfig struct {
	// Binary is the trainer entry point looked up on PATH; when absent the
	// python module fallback is used.
	Binary string `mapstructure:"binary"`
	// StopGracePeriod is how long a cancelled run gets to exit after
	// SIGTERM before SIGKILL.
	StopGracePeriod time.Duration `mapstructure:"stop_grace_period"`
	// Project is the default results directory passed to the trainer.
	Project string `mapstructure:"project"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load resolves the configuration. path may be empty, in which case only
// defaults and environment variables apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("trainer.binary", "yolo")
	v.SetDefault("trainer.stop_grace_period", 2*time.Second)
	v.SetDefault("trainer.project", "runs/train")
	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8090)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetEnvPrefix("YOLOGUI")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}
