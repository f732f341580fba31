package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the probedeck backend.
type Config struct {
	General   GeneralConfig   `mapstructure:"general"`
	Server    ServerConfig    `mapstructure:"server"`
	Storage   StorageConfig   `mapstructure:"storage"`
	Agents    AgentsConfig    `mapstructure:"agents"`
	Export    ExportConfig    `mapstructure:"export"`
	Retention RetentionConfig `mapstructure:"retention"`
}

// GeneralConfig contains general application settings.
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server and auth settings.
type ServerConfig struct {
	Listen            string `mapstructure:"listen"`
	JWTSecret         string `mapstructure:"jwt_secret"`
	AdminUser         string `mapstructure:"admin_user"`
	AdminPasswordHash string `mapstructure:"admin_password_hash"`
	StreamEnabled     bool   `mapstructure:"stream_enabled"`
}

func (s ServerConfig) Validate() error {
	if strings.TrimSpace(s.JWTSecret) == "" {
		return fmt.Errorf("server.jwt_secret required")
	}
	if strings.TrimSpace(s.AdminPasswordHash) == "" {
		return fmt.Errorf("server.admin_password_hash required")
	}
	return nil
}

// StorageConfig contains persistence settings.
type StorageConfig struct {
	Redis         RedisConfig   `mapstructure:"redis"`
	DebounceWrite time.Duration `mapstructure:"debounce_write"`
}

// Normalize applies the default write-coalescing window.
func (s StorageConfig) Normalize() StorageConfig {
	if s.DebounceWrite <= 0 {
		s.DebounceWrite = 100 * time.Millisecond
	}
	return s
}

// RedisConfig contains redis connection settings.
type RedisConfig struct {
	Host     string        `mapstructure:"host"`
	Port     string        `mapstructure:"port"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (r RedisConfig) Validate() error {
	if strings.TrimSpace(r.Host) == "" {
		return fmt.Errorf("storage.redis.host required")
	}
	if strings.TrimSpace(r.Port) == "" {
		return fmt.Errorf("storage.redis.port required")
	}
	return nil
}

// AgentEntry declares one agent in the directory. Command, when set, names
// a local binary that is probed for availability.
type AgentEntry struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
	Command     string `mapstructure:"command"`
}

// AgentsConfig declares the agent directory supplied to the core.
type AgentsConfig struct {
	Directory []AgentEntry `mapstructure:"directory"`
}

// ExportConfig controls the PDF exporter.
type ExportConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Normalize applies exporter defaults.
func (e ExportConfig) Normalize() ExportConfig {
	if e.Timeout <= 0 {
		e.Timeout = 30 * time.Second
	}
	return e
}

// RetentionConfig controls the archived-history sweeper.
type RetentionConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	SweepCron string        `mapstructure:"sweep_cron"`
	MaxAge    time.Duration `mapstructure:"max_age"`
}

func (r RetentionConfig) Validate() error {
	if r.Enabled && r.MaxAge <= 0 {
		return fmt.Errorf("retention.max_age must be > 0 when retention is enabled")
	}
	return nil
}

// LoadConfig loads config from file. Missing files fall back to defaults
// plus PROBEDECK_* environment overrides; malformed files are fatal.
func LoadConfig(path string) *Config {
	viper.SetConfigName("config")
	viper.SetConfigType("json")
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("server.listen", ":10011")
	viper.SetDefault("server.admin_user", "admin")
	viper.SetDefault("server.stream_enabled", true)
	viper.SetDefault("storage.redis.host", "localhost")
	viper.SetDefault("storage.redis.port", "6379")
	viper.SetDefault("storage.redis.timeout", 5*time.Second)
	viper.SetDefault("export.enabled", true)
	viper.SetDefault("retention.sweep_cron", "@daily")

	if path == "" {
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("PROBEDECK")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}
	config.Storage = config.Storage.Normalize()
	config.Export = config.Export.Normalize()

	if err := config.Server.Validate(); err != nil {
		panic(err)
	}
	if err := config.Storage.Redis.Validate(); err != nil {
		panic(err)
	}
	if err := config.Retention.Validate(); err != nil {
		panic(err)
	}
	return &config
}
