// Package config resolves brewlog's configuration at process start. The
// resolved values are threaded explicitly into the packages that need them;
// nothing outside this package reads configuration state ambiently.
package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Config holds the resolved settings for one invocation.
type Config struct {
	// DBPath is the brew database file location.
	DBPath string
	// LogPath is the rotating debug log location.
	LogPath string
}

// Load resolves configuration with the precedence: --db flag, BREWLOG_DB
// environment variable, db_path in ~/.brewlog/config.toml, then the default
// ~/.brewlog/brews.db. flagDBPath is the --db flag value, empty when the
// flag was not given.
func Load(flagDBPath string) (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve home directory: %w", err)
	}
	brewlogDir := filepath.Join(home, ".brewlog")

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(brewlogDir)
	v.SetDefault("db_path", filepath.Join(brewlogDir, "brews.db"))
	if err := v.BindEnv("db_path", "BREWLOG_DB"); err != nil {
		return nil, fmt.Errorf("failed to bind environment: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		// A missing config file is the normal case.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	dbPath := v.GetString("db_path")
	if flagDBPath != "" {
		dbPath = flagDBPath
	}

	return &Config{
		DBPath:  dbPath,
		LogPath: filepath.Join(brewlogDir, "brewlog.log"),
	}, nil
}

// NewLogger returns a command-trace logger writing to the rotating log
// file. User-facing output never goes through this logger.
func (c *Config) NewLogger() *log.Logger {
	return log.New(&lumberjack.Logger{
		Filename:   c.LogPath,
		MaxSize:    5, // megabytes
		MaxBackups: 2,
	}, "", log.LstdFlags)
}
