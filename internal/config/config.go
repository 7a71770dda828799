package config

import (
	"path/filepath"

	"github.com/spf13/viper"

	"tomcat-devloop/internal/env"
)

/**
 * Daemon configuration parameters
 * @property {string} address - TCP listening address of the serve daemon (e.g. "127.0.0.1:8998")
 * @property {string} mode - gin mode (debug/release/test)
 * @property {bool} socket - Whether to also listen on the unix socket under ~/.devloop/run
 */
type ServerConfig struct {
	Address string `mapstructure:"address"`
	Mode    string `mapstructure:"mode"`
	Socket  bool   `mapstructure:"socket"`
}

/**
 * Logging configuration
 * @property {string} level - Log level (debug/info/warn/error)
 * @property {string} path - Log file path
 * @property {int} maxSize - Maximum size in megabytes before the file is rotated
 * @property {int} maxBackups - Number of rotated files to keep
 * @property {int} maxAge - Days to keep rotated files
 */
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Path       string `mapstructure:"path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

/**
 * Metrics configuration
 * @property {string} pushgateway - Pushgateway address for metrics, empty disables pushing
 * @property {int} interval - Seconds between pushes in daemon mode, 0 disables periodic pushing
 */
type MetricsConfig struct {
	Pushgateway string `mapstructure:"pushgateway"`
	Interval    int    `mapstructure:"interval"`
}

/**
 * Process discovery configuration
 * @property {string} backend - "shell" parses netstat/ps/wmic output, "native" enumerates via gopsutil
 * @property {[]string} patterns - Case-sensitive command line tokens identifying the server JVM
 */
type DiscoveryConfig struct {
	Backend  string   `mapstructure:"backend"`
	Patterns []string `mapstructure:"patterns"`
}

const (
	DiscoveryShell  = "shell"
	DiscoveryNative = "native"
)

var DefaultServerPatterns = []string{"catalina", "tomcat", "Bootstrap"}

type AppConfig struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
}

/**
 * Load application configuration from YAML file
 * @description
 * - Looks for config.yaml in the current directory, then in ~/.devloop
 */
func LoadConfig() (*AppConfig, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath(env.DevloopDir)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

var Config AppConfig

func collectConfig(cfg *AppConfig) *AppConfig {
	if cfg.Server.Address == "" {
		cfg.Server.Address = "127.0.0.1:8998"
	}
	if cfg.Server.Mode == "" {
		cfg.Server.Mode = "release"
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Path == "" {
		cfg.Log.Path = filepath.Join(env.DevloopDir, "logs", "tomcat-devloop.log")
	}
	if cfg.Log.MaxSize <= 0 {
		cfg.Log.MaxSize = 20
	}
	if cfg.Log.MaxBackups <= 0 {
		cfg.Log.MaxBackups = 3
	}
	if cfg.Log.MaxAge <= 0 {
		cfg.Log.MaxAge = 7
	}
	if cfg.Discovery.Backend == "" {
		cfg.Discovery.Backend = DiscoveryShell
	}
	if len(cfg.Discovery.Patterns) == 0 {
		cfg.Discovery.Patterns = DefaultServerPatterns
	}
	return cfg
}

/**
 * Reload configuration from disk
 * @returns {error} Returns error if the file exists but cannot be parsed
 * @description
 * - A missing config.yaml is not an error, defaults are applied instead
 */
func ReloadConfig() error {
	cfg, err := LoadConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return err
		}
		cfg = &AppConfig{}
	}
	Config = *collectConfig(cfg)
	return nil
}

func init() {
	cfg, err := LoadConfig()
	if err == nil {
		Config = *cfg
	}
	collectConfig(&Config)
}
