package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
)

// Environment variables
const (
	EnvPrivateKey = "PRIVATE_KEY"
	EnvNetwork    = "NETWORK" // "test" selects testnet_rpc
)

// Secrets are read from the environment only
type Secrets struct {
	PrivateKey string
}

// LoadEnv loads environment variables from .env files. Missing files are
// ignored.
func LoadEnv(filenames ...string) error {
	if err := godotenv.Load(filenames...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// LoadSecrets reads the wallet key
func LoadSecrets() (*Secrets, error) {
	privateKey, err := GetRequiredEnv(EnvPrivateKey)
	if err != nil {
		return nil, err
	}
	return &Secrets{PrivateKey: privateKey}, nil
}

// ApplyEnv lets NETWORK override the configured mode
func (c *Config) ApplyEnv() {
	if network := os.Getenv(EnvNetwork); network != "" {
		c.Mode = network
	}
}

func GetRequiredEnv(key string) (string, error) {
	value := os.Getenv(key)
	if value == "" {
		return "", fmt.Errorf("required environment variable %s not set", key)
	}
	return value, nil
}
