// Package config defines the data structures related to configuration and
// includes functions for loading and parsing the config.
package config

import (
	"fmt"
	"time"

	"github.com/codetoailtt/stalk-finance-by-Codetoli-Technology-sub000/pkg/constants"
	"github.com/spf13/viper"
)

// Configuration holds all configuration for the EMI ledger service.
type Configuration struct {
	Logging LoggingConfig `yaml:"logging,omitempty"`
	Server  ServerConfig  `yaml:"server,omitempty"`
	Storage StorageConfig `yaml:"storage,omitempty"`
	Cache   CacheConfig   `yaml:"cache,omitempty"`
	Output  OutputConfig  `yaml:"output,omitempty"`
}

// LoggingConfig holds logging configuration options
type LoggingConfig struct {
	Level      string `yaml:"level,omitempty"`      // debug, info, warn, error
	Format     string `yaml:"format,omitempty"`     // json, console
	OutputFile string `yaml:"outputFile,omitempty"` // optional file output
}

// ServerConfig holds HTTP server options
type ServerConfig struct {
	Address string `yaml:"address,omitempty"`
}

// StorageConfig holds persistence options
type StorageConfig struct {
	DatabasePath string `yaml:"databasePath,omitempty"`
}

// CacheConfig holds derivation-cache options. When RedisAddress is empty the
// service falls back to an in-process cache.
type CacheConfig struct {
	RedisAddress string        `yaml:"redisAddress,omitempty"`
	TTL          time.Duration `yaml:"ttl,omitempty"`
}

// OutputConfig holds output format configuration options
type OutputConfig struct {
	Format string `yaml:"format,omitempty"` // pretty, csv
}

// LoadConfiguration takes a file path as input and loads the YAML-formatted
// configuration there.
func LoadConfiguration(configPath string) (*Configuration, error) {
	viper.SetConfigFile(configPath)
	viper.AutomaticEnv()

	viper.SetConfigType("yml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file, %s", err)
	}

	var configuration Configuration
	err := viper.Unmarshal(&configuration)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct, %s", err)
	}

	configuration.applyDefaults()
	return &configuration, nil
}

func (c *Configuration) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = constants.DefaultServerAddress
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = constants.DefaultDatabasePath
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = time.Minute
	}
	if c.Output.Format == "" {
		c.Output.Format = constants.OutputFormatPretty
	}
}
