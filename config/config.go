package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the trial-match service
type Config struct {
	General  GeneralConfig  `mapstructure:"general"`
	Server   ServerConfig   `mapstructure:"server"`
	Registry RegistryConfig `mapstructure:"registry"`
	NLU      NLUConfig      `mapstructure:"nlu"`
	Session  SessionConfig  `mapstructure:"session"`
}

// GeneralConfig contains general application settings
type GeneralConfig struct {
	Debug    bool   `mapstructure:"debug"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Address string `mapstructure:"address"`
}

// RegistryConfig contains ClinicalTrials.gov client settings
type RegistryConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	PageSize int           `mapstructure:"page_size"`
}

func (r RegistryConfig) Validate() error {
	if strings.TrimSpace(r.BaseURL) == "" {
		return fmt.Errorf("registry.base_url is required")
	}
	if r.PageSize <= 0 {
		return fmt.Errorf("registry.page_size must be > 0")
	}
	return nil
}

// NLUConfig contains settings for the NLU inference sidecar
type NLUConfig struct {
	Type     string        `mapstructure:"type"` // http
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

func (n NLUConfig) Validate() error {
	if n.Type == "http" && strings.TrimSpace(n.Endpoint) == "" {
		return fmt.Errorf("nlu.endpoint is required when nlu.type is http")
	}
	return nil
}

// SessionConfig contains session store settings
type SessionConfig struct {
	Store string             `mapstructure:"store"` // inmemory, redis
	TTL   time.Duration      `mapstructure:"ttl"`
	Redis RedisSessionConfig `mapstructure:"redis"`
}

// RedisSessionConfig contains connection settings for the redis store
type RedisSessionConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

func (s SessionConfig) Validate() error {
	switch s.Store {
	case "inmemory":
	case "redis":
		if strings.TrimSpace(s.Redis.Addr) == "" {
			return fmt.Errorf("session.redis.addr is required when session.store is redis")
		}
	default:
		return fmt.Errorf("session.store must be inmemory or redis, got %q", s.Store)
	}
	return nil
}

// LoadConfig loads config from file
func LoadConfig(path string) *Config {
	viper.SetConfigName("config") // name of config file (without extension)
	viper.SetConfigType("json")
	viper.SetDefault("general.log_level", "info")
	viper.SetDefault("server.address", ":8000")
	viper.SetDefault("registry.base_url", "https://clinicaltrials.gov/api/v2")
	viper.SetDefault("registry.timeout", 10*time.Second)
	viper.SetDefault("registry.page_size", 10)
	viper.SetDefault("nlu.type", "http")
	viper.SetDefault("nlu.endpoint", "http://localhost:9000/extract")
	viper.SetDefault("nlu.timeout", 15*time.Second)
	viper.SetDefault("session.store", "inmemory")
	viper.SetDefault("session.ttl", time.Hour)
	viper.SetDefault("session.redis.addr", "")
	viper.SetDefault("session.redis.db", 0)

	if path == "" {
		viper.AddConfigPath("./config") // path to look for the config file in
		viper.AddConfigPath(".")        // optionally look for config in the working directory
	} else {
		viper.SetConfigFile(path)
	}

	viper.SetEnvPrefix("TRIALMATCH")
	replacer := strings.NewReplacer(".", "_")
	viper.SetEnvKeyReplacer(replacer)

	viper.AutomaticEnv() // read in environment variables that match (TRIALMATCH_*)

	if err := viper.ReadInConfig(); err != nil {
		// Running on defaults plus env is fine; a broken file is not.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			panic(fmt.Errorf("fatal error config file: %w", err))
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		panic(fmt.Errorf("fatal error config file: %w", err))
	}

	if err := config.Registry.Validate(); err != nil {
		panic(err)
	}
	if err := config.NLU.Validate(); err != nil {
		panic(err)
	}
	if err := config.Session.Validate(); err != nil {
		panic(err)
	}

	return &config
}
