// Package config manages configuration for the slipway CLI and daemon.
// It uses Viper for unified configuration management from files and
// environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/slipway/slipway/internal/constants"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the unified configuration for the CLI and the daemon. Values
// load from ~/.slipway/config.yaml with SLIPWAY_-prefixed environment
// variables taking precedence.
type Config struct {
	// CLI configuration
	APIEndpoint string `mapstructure:"api_endpoint" yaml:"api_endpoint" validate:"omitempty,url"`

	// Daemon configuration
	ListenAddr      string                `mapstructure:"listen_addr" yaml:"listen_addr"`
	Port            int                   `mapstructure:"port" yaml:"port" validate:"omitempty,min=1,max=65535"`
	DataDir         string                `mapstructure:"data_dir" yaml:"data_dir"`
	Environment     constants.Environment `mapstructure:"environment" yaml:"environment"`
	LogLevel        string                `mapstructure:"log_level" yaml:"log_level"`
	Parallelism     int                   `mapstructure:"parallelism" yaml:"parallelism" validate:"omitempty,min=1"`
	LogBufferSize   int                   `mapstructure:"log_buffer_size" yaml:"log_buffer_size" validate:"omitempty,min=1"`
	StopGracePeriod time.Duration         `mapstructure:"stop_grace_period" yaml:"stop_grace_period"`
}

var validate = validator.New()

// Load loads the configuration using Viper. The config file is optional;
// defaults apply without one and environment variables override both.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	if err := loadConfigFile(v); err != nil {
		return nil, err
	}

	v.SetEnvPrefix("SLIPWAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	bindEnvVars(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if cfg.DataDir == "" {
		currentUser, err := user.Current()
		if err != nil {
			return nil, fmt.Errorf("error getting current user: %w", err)
		}
		cfg.DataDir = constants.ConfigDirPath(currentUser.HomeDir)
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration and exits on error. Suitable for daemon
// startup where configuration errors should be fatal.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	return cfg
}

// Save writes the user-settable fields to the config file in the user's
// home directory, overwriting any existing file.
func Save(config *Config) error {
	currentUser, err := user.Current()
	if err != nil {
		return fmt.Errorf("error getting current user: %w", err)
	}

	configDir := constants.ConfigDirPath(currentUser.HomeDir)

	if err = os.MkdirAll(configDir, constants.ConfigDirPermissions); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	configFilePath := filepath.Join(configDir, constants.ConfigFileName)

	v := viper.New()
	v.Set("api_endpoint", config.APIEndpoint)
	v.Set("listen_addr", config.ListenAddr)
	v.Set("port", config.Port)
	v.Set("log_level", config.LogLevel)
	v.Set("parallelism", config.Parallelism)

	if err = v.WriteConfigAs(configFilePath); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	// Set proper permissions
	if err = os.Chmod(configFilePath, constants.ConfigFilePermissions); err != nil {
		return fmt.Errorf("error setting config file permissions: %w", err)
	}

	return nil
}

// GetConfigPath returns the path to the config file.
func GetConfigPath() (string, error) {
	currentUser, err := user.Current()
	if err != nil {
		return "", fmt.Errorf("error getting current user: %w", err)
	}

	return constants.ConfigFilePath(currentUser.HomeDir), nil
}

// GetLogLevel returns the slog.Level from the string configuration.
// Defaults to INFO if the level string is invalid.
func (c *Config) GetLogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// GetEnvironment returns the configured environment, defaulting to
// development.
func (c *Config) GetEnvironment() constants.Environment {
	if c.Environment == "" {
		return constants.Development
	}
	return c.Environment
}

// ListenAddress returns the daemon bind address in host:port form.
func (c *Config) ListenAddress() string {
	addr := c.ListenAddr
	if addr == "" {
		addr = constants.DefaultListenAddr
	}
	port := c.Port
	if port == 0 {
		port = constants.DefaultListenPort
	}
	return fmt.Sprintf("%s:%d", addr, port)
}

// APIBaseURL returns the daemon URL the CLI talks to.
func (c *Config) APIBaseURL() string {
	if c.APIEndpoint != "" {
		return strings.TrimSuffix(c.APIEndpoint, "/")
	}
	return "http://" + c.ListenAddress()
}

// RegistryPath returns the service registry file under the data directory.
func (c *Config) RegistryPath() string {
	return filepath.Join(c.DataDir, constants.RegistryFileName)
}

// SecretsPath returns the secret store file under the data directory.
func (c *Config) SecretsPath() string {
	return filepath.Join(c.DataDir, constants.SecretsFileName)
}

// GetParallelism returns the configured deploy parallelism, defaulting when
// unset.
func (c *Config) GetParallelism() int {
	if c.Parallelism <= 0 {
		return constants.DefaultDeployParallelism
	}
	return c.Parallelism
}

// GetLogBufferSize returns the per-deploy log buffer size, defaulting when
// unset.
func (c *Config) GetLogBufferSize() int {
	if c.LogBufferSize <= 0 {
		return constants.DefaultLogBufferSize
	}
	return c.LogBufferSize
}

// GetStopGracePeriod returns how long a stopping process gets between
// SIGTERM and SIGKILL.
func (c *Config) GetStopGracePeriod() time.Duration {
	if c.StopGracePeriod <= 0 {
		return constants.StopGracePeriod
	}
	return c.StopGracePeriod
}

// Helper functions

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen_addr", constants.DefaultListenAddr)
	v.SetDefault("port", constants.DefaultListenPort)
	v.SetDefault("environment", string(constants.Development))
	v.SetDefault("log_level", "INFO")
	v.SetDefault("parallelism", constants.DefaultDeployParallelism)
	v.SetDefault("log_buffer_size", constants.DefaultLogBufferSize)
	v.SetDefault("stop_grace_period", constants.StopGracePeriod)
}

func loadConfigFile(v *viper.Viper) error {
	currentUser, err := user.Current()
	if err != nil {
		return fmt.Errorf("error getting current user: %w", err)
	}

	configFile := constants.ConfigFilePath(currentUser.HomeDir)

	v.SetConfigFile(configFile)
	v.SetConfigType("yaml")

	if readErr := v.ReadInConfig(); readErr != nil {
		// A missing config file is fine; defaults and env vars apply.
		if os.IsNotExist(readErr) {
			return nil
		}
		var notFound viper.ConfigFileNotFoundError
		if errors.As(readErr, &notFound) {
			return nil
		}
		return fmt.Errorf("error loading config file: %w", readErr)
	}

	return nil
}

func bindEnvVars(v *viper.Viper) {
	// Bind all environment variables explicitly
	envVars := []string{
		"API_ENDPOINT",
		"LISTEN_ADDR",
		"PORT",
		"DATA_DIR",
		"ENVIRONMENT",
		"LOG_LEVEL",
		"PARALLELISM",
		"LOG_BUFFER_SIZE",
		"STOP_GRACE_PERIOD",
	}

	for _, envVar := range envVars {
		configKey := strings.ToLower(envVar)
		_ = v.BindEnv(configKey, "SLIPWAY_"+envVar)
	}
}
