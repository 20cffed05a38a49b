/*
 * Copyright (c) 2026 Francesco Biribo'
 *
 * Permission to use, copy, modify, and distribute this software for any purpose with or without fee is hereby granted, provided that the above copyright notice and this permission notice appear in all copies.
 *
 * THE SOFTWARE IS PROVIDED "AS IS" AND THE AUTHOR DISCLAIMS ALL WARRANTIES WITH REGARD TO THIS SOFTWARE INCLUDING ALL IMPLIED WARRANTIES OF MERCHANTABILITY AND FITNESS. IN NO EVENT SHALL THE AUTHOR BE LIABLE FOR ANY SPECIAL, DIRECT, INDIRECT, OR CONSEQUENTIAL DAMAGES OR ANY DAMAGES WHATSOEVER RESULTING FROM LOSS OF USE, DATA OR PROFITS, WHETHER IN AN ACTION OF CONTRACT, NEGLIGENCE OR OTHER TORTIOUS ACTION, ARISING OUT OF OR IN CONNECTION WITH THE USE OR PERFORMANCE OF THIS SOFTWARE.
 */

package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
	"golang.org/x/crypto/bcrypt"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	FolderPath      string `json:"folder-path"`
	DBDriver        string `json:"db-driver"`
	DBName          string `json:"db-name"`      // SQLite file, relative to FolderPath
	DatabaseURL     string `json:"database-url"` // Postgres DSN
	EnableLogging   bool   `json:"enable-logging"`
	LogDirectory    string `json:"log-directory"`
	AvatarPath      string `json:"avatar-path"` // Default profile image
	NotifyWorkers   int    `json:"notify-workers"`
	NotifyQueueSize int    `json:"notify-queue-size"`
	BcryptCost      int    `json:"bcrypt-cost"`
	ServerKeyBits   int    `json:"server-key-bits"`
}

// Default returns the configuration used for every field the .cfg file leaves out
func Default(folderPath string) *Config {
	return &Config{
		FolderPath:      folderPath,
		DBDriver:        DriverSQLite,
		DBName:          "chat.db",
		EnableLogging:   true,
		LogDirectory:    "logs",
		NotifyWorkers:   4,
		NotifyQueueSize: 256,
		BcryptCost:      bcrypt.DefaultCost,
		ServerKeyBits:   2048,
	}
}

// LoadConfig reads <folderPath>/.cfg, then applies <folderPath>/.env (if present) and the process environment on top.
// Variables already set in the environment win over the .env file.
func LoadConfig(folderPath string) (*Config, error) {

	file, err := os.OpenFile(filepath.Join(folderPath, ".cfg"), os.O_RDONLY, 0755)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	payload, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}

	config := Default(folderPath)
	if err = json.Unmarshal(payload, config); err != nil {
		return nil, err
	}
	if config.FolderPath == "" {
		config.FolderPath = folderPath
	}

	envFile := filepath.Join(folderPath, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}
	if err := config.applyEnv(); err != nil {
		return nil, err
	}

	return config, config.Validate()
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("CHAT_DB_DRIVER"); v != "" {
		c.DBDriver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.DatabaseURL = v
	}
	if v := os.Getenv("CHAT_DB_NAME"); v != "" {
		c.DBName = v
	}
	if v := os.Getenv("CHAT_LOG_DIR"); v != "" {
		c.LogDirectory = v
	}
	if v := os.Getenv("CHAT_AVATAR_PATH"); v != "" {
		c.AvatarPath = v
	}
	if v := os.Getenv("CHAT_ENABLE_LOGGING"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("CHAT_ENABLE_LOGGING: %w", err)
		}
		c.EnableLogging = b
	}
	if v := os.Getenv("CHAT_NOTIFY_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CHAT_NOTIFY_WORKERS: %w", err)
		}
		c.NotifyWorkers = n
	}
	return nil
}

// Validate checks the fields that other packages rely on without rechecking
func (c *Config) Validate() error {
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBName == "" {
			return fmt.Errorf("db-name is required for the %s driver", DriverSQLite)
		}
	case DriverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("database-url is required for the %s driver", DriverPostgres)
		}
	default:
		return fmt.Errorf("unknown db-driver %q", c.DBDriver)
	}
	if c.NotifyWorkers <= 0 {
		return fmt.Errorf("notify-workers must be positive, got %d", c.NotifyWorkers)
	}
	if c.NotifyQueueSize <= 0 {
		return fmt.Errorf("notify-queue-size must be positive, got %d", c.NotifyQueueSize)
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt-cost must be within [%d, %d], got %d", bcrypt.MinCost, bcrypt.MaxCost, c.BcryptCost)
	}
	if c.ServerKeyBits < 1024 {
		return fmt.Errorf("server-key-bits must be at least 1024, got %d", c.ServerKeyBits)
	}
	return nil
}

// DBPath is the SQLite file location
func (c *Config) DBPath() string {
	if filepath.IsAbs(c.DBName) {
		return c.DBName
	}
	return filepath.Join(c.FolderPath, c.DBName)
}

// LogPath is the directory the server logger writes into
func (c *Config) LogPath() string {
	if filepath.IsAbs(c.LogDirectory) {
		return c.LogDirectory
	}
	return filepath.Join(c.FolderPath, c.LogDirectory)
}
