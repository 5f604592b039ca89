// Package config is used to load the configuration file
package config

import (
	"fmt"

	"github.com/spf13/viper"
)

type insert struct {
	InPlace bool   `mapstructure:"inplace"`
	AllYes  bool   `mapstructure:"all-yes"`
	Output  string `mapstructure:"output"`
	DryRun  bool   `mapstructure:"dry-run"`
	Verify  bool   `mapstructure:"verify"`
}

// Config is the configuration struct
type Config struct {
	Verbose bool   `mapstructure:"verbose"`
	Insert  insert `mapstructure:"insert"`
}

func (c *Config) verify() error {
	if c.Insert.InPlace && c.Insert.Output != "" {
		return fmt.Errorf("config: insert.inplace and insert.output cannot be set at the same time")
	}
	return nil
}

// LoadConfig loads the configuration from flags, environment and the config file
func LoadConfig() (*Config, error) {
	var c *Config

	if err := viper.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal: %v", err)
	}
	if c == nil {
		c = new(Config)
	}

	if err := c.verify(); err != nil {
		return nil, fmt.Errorf("config: failed to verify: %v", err)
	}

	return c, nil
}
