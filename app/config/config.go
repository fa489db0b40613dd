// Package config loads yabe settings from an optional YAML file and
// YABE_-prefixed environment variables.
package config

import (
	"log"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"golang.org/x/crypto/bcrypt"
)

const (
	KeyDBPath     = "db_path"
	KeyInMemory   = "in_memory"
	KeyBcryptCost = "bcrypt_cost"
	KeyVerbose    = "verbose"
	KeyBackupDir  = "backup_dir"

	envPrefix      = "YABE"
	configFileName = "yabe"
	configFileType = "yaml"
)

// Config holds the settings used to open the store.
type Config struct {
	DBPath     string `mapstructure:"db_path"`
	InMemory   bool   `mapstructure:"in_memory"`
	BcryptCost int    `mapstructure:"bcrypt_cost"`
	Verbose    bool   `mapstructure:"verbose"`
	BackupDir  string `mapstructure:"backup_dir"`
}

// New returns a viper instance with defaults and environment binding set up.
func New() *viper.Viper {
	v := viper.New()
	v.SetDefault(KeyDBPath, "data/blog.db")
	v.SetDefault(KeyInMemory, false)
	v.SetDefault(KeyBcryptCost, bcrypt.DefaultCost)
	v.SetDefault(KeyVerbose, false)
	v.SetDefault(KeyBackupDir, "data/backups")

	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	return v
}

// Load reads configuration. When file is empty, yabe.yaml is looked up in
// the working directory and in $HOME/.yabe; a missing file is not an error.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName(configFileName)
		v.SetConfigType(configFileType)
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.yabe")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if file != "" || !errors.As(err, &notFound) {
			return nil, errors.Wrap(err, "reading config")
		}
	} else {
		log.Printf("Using config file %s", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errors.Wrap(err, "decoding config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the store cannot start with.
func (c *Config) Validate() error {
	if !c.InMemory && c.DBPath == "" {
		return errors.New("db_path is required unless in_memory is set")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return errors.Errorf("bcrypt_cost must be between %d and %d, got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	return nil
}
