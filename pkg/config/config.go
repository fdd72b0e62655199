package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Chat    ChatConfig    `mapstructure:"chat"`
	Uploads UploadsConfig `mapstructure:"uploads"`
	Logging LoggingConfig `mapstructure:"logging"`

	// ConfigFile stores the path to the config file used
	ConfigFile string `mapstructure:"-"`
}

// ServerConfig holds connection settings for the learning platform API
type ServerConfig struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

// ChatConfig holds assistant chat settings
type ChatConfig struct {
	Model        string `mapstructure:"model"`
	FacilityType string `mapstructure:"facility_type"`
	TokenLimit   int    `mapstructure:"token_limit"`
}

// UploadsConfig holds attachment upload settings
type UploadsConfig struct {
	MaxBytes          int64    `mapstructure:"max_bytes"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	LogFile string `mapstructure:"log_file"`
	Persist bool   `mapstructure:"persist"`
	Level   string `mapstructure:"level"`
}

// Global config instance
var cfg *Config

// Get returns the global config instance
func Get() *Config {
	if cfg == nil {
		panic("config not initialized")
	}
	return cfg
}

// Load loads configuration from file and environment
func Load(cfgFile string) (*Config, error) {
	setDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}

		viper.AddConfigPath("./.sage")
		viper.AddConfigPath(filepath.Join(home, ".sage"))
		viper.SetConfigType("yaml")
		viper.SetConfigName("settings")
	}

	viper.SetEnvPrefix("SAGE")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()
	bindEnvironmentVariables()

	// Missing config file is fine; defaults and env cover everything
	_ = viper.ReadInConfig()

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.ConfigFile = viper.ConfigFileUsed()

	return cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.url", "http://localhost:8000/api/v1")
	viper.SetDefault("server.token", "")

	viper.SetDefault("chat.model", "learning-assistant-v1")
	viper.SetDefault("chat.facility_type", "")
	viper.SetDefault("chat.token_limit", 4000)

	viper.SetDefault("uploads.max_bytes", int64(10*1024*1024))
	viper.SetDefault("uploads.allowed_extensions", []string{
		".png", ".jpg", ".jpeg", ".gif", ".webp",
	})

	viper.SetDefault("logging.log_file", "sage.log")
	viper.SetDefault("logging.persist", false)
	viper.SetDefault("logging.level", "info")
}

func bindEnvironmentVariables() {
	viper.BindEnv("server.url", "SAGE_SERVER_URL")
	viper.BindEnv("server.token", "SAGE_ACCESS_TOKEN")
	viper.BindEnv("chat.model", "SAGE_CHAT_MODEL")
	viper.BindEnv("logging.level", "SAGE_LOG_LEVEL")
}

// BuildSettingsPath resolves a filename relative to the settings directory
func BuildSettingsPath(filename string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".sage", filename)
	}
	return filepath.Join(home, ".sage", filename)
}

// WriteDefaultConfig writes the current configuration values to disk
func WriteDefaultConfig() error {
	path := viper.ConfigFileUsed()
	if path == "" {
		path = BuildSettingsPath("settings.yaml")
	}

	configDir := filepath.Dir(path)
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		if err := os.MkdirAll(configDir, 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
	}

	if err := viper.WriteConfigAs(path); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}

	return nil
}
