package store

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/nakachan-ing/dtl-cli/internal/model"
	"gopkg.in/yaml.v3"
)

// Environment variables that take precedence over config.yaml.
const (
	EnvConfig     = "DTL_CONFIG"
	EnvAPIToken   = "DTL_API_TOKEN"
	EnvAPIBaseURL = "DTL_API_BASE_URL"
	EnvUserID     = "DTL_USER_ID"
	EnvAPITimeout = "DTL_API_TIMEOUT"
)

var ErrNoUser = errors.New("user id is not configured (set user.id or DTL_USER_ID)")

func GetConfigPath() (string, error) {
	if customConfig := os.Getenv(EnvConfig); customConfig != "" {
		return customConfig, nil
	}

	var configPath string

	switch runtime.GOOS {
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData != "" {
			configPath = filepath.Join(appData, "dtl-cli", "config.yaml")
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to determine home directory: %w", err)
			}
			configPath = filepath.Join(homeDir, "AppData", "Roaming", "dtl-cli", "config.yaml")
		}

	default: // macOS / Linux
		configDir, err := os.UserConfigDir()
		if err != nil {
			homeDir, homeErr := os.UserHomeDir()
			if homeErr != nil {
				return "", fmt.Errorf("failed to determine home directory: %w", homeErr)
			}
			configPath = filepath.Join(homeDir, ".dtl-cli", "config.yaml")
			log.Printf("⚠️ Failed to get user config directory, using fallback: %s", configPath)
		} else {
			configPath = filepath.Join(configDir, "dtl-cli", "config.yaml")
		}
	}

	return configPath, nil
}

// Expand `~` to the home directory (Windows included)
func expandHomeDir(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			log.Printf("⚠️ Failed to get home directory: %v", err)
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// LoadEnv reads a .env file from the working directory when present.
// Variables already set in the process are not overwritten.
func LoadEnv() {
	if _, err := os.Stat(".env"); err != nil {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️ Failed to load .env: %v", err)
	}
}

func LoadConfig() (*model.Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, fmt.Errorf("failed to get config path: %w", err)
	}
	return LoadConfigFrom(configPath)
}

// LoadConfigFrom reads the YAML file at configPath on top of the
// defaults, then applies environment overrides.
func LoadConfigFrom(configPath string) (*model.Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file (%s): %w", configPath, err)
	}

	config := model.DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyEnv(&config)

	config.CacheDir = expandHomeDir(config.CacheDir)
	config.Telemetry.LogFile = expandHomeDir(config.Telemetry.LogFile)

	return &config, nil
}

func applyEnv(config *model.Config) {
	if v := os.Getenv(EnvAPIToken); v != "" {
		config.API.Token = v
	}
	if v := os.Getenv(EnvAPIBaseURL); v != "" {
		config.API.BaseURL = v
	}
	if v := os.Getenv(EnvUserID); v != "" {
		config.User.ID = v
	}
	if v := os.Getenv(EnvAPITimeout); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			config.API.Timeout = n
		} else {
			log.Printf("⚠️ Ignoring invalid %s=%q", EnvAPITimeout, v)
		}
	}
}

func SaveConfig(config model.Config) error {
	configPath, err := GetConfigPath()
	if err != nil {
		return fmt.Errorf("failed to get config path: %w", err)
	}
	return SaveConfigTo(configPath, config)
}

func SaveConfigTo(configPath string, config model.Config) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(&config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file (%s): %w", configPath, err)
	}
	return nil
}

// RequireUser returns the configured user id or ErrNoUser.
func RequireUser(config model.Config) (string, error) {
	if strings.TrimSpace(config.User.ID) == "" {
		return "", ErrNoUser
	}
	return config.User.ID, nil
}
