package config

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Version is the release version reported by the health endpoint.
const Version = "0.2.0"

// SchemeConfig represents server listen configuration
type SchemeConfig struct {
	Address   string `json:"address" mapstructure:"address"`
	HTTPPort  int    `json:"http_port" mapstructure:"http_port"`
	HTTPSPort int    `json:"https_port" mapstructure:"https_port"`
	CertFile  string `json:"cert_file" mapstructure:"cert_file"`
	KeyFile   string `json:"key_file" mapstructure:"key_file"`
	EnableH2C bool   `json:"enable_h2c" mapstructure:"enable_h2c"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level  string `json:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `json:"format" mapstructure:"format"` // console, json
	Output string `json:"output" mapstructure:"output"` // stderr, stdout, or a file path
}

// CacheConfig represents the derived-key cache configuration
type CacheConfig struct {
	Enable     bool `json:"enable" mapstructure:"enable"`
	Expiration int  `json:"expiration" mapstructure:"expiration"` // minutes
	MaxEntries int  `json:"max_entries" mapstructure:"max_entries"`
}

// Config represents the main configuration
type Config struct {
	Scheme    SchemeConfig `json:"scheme" mapstructure:"scheme"`
	Log       LogConfig    `json:"log" mapstructure:"log"`
	Cache     CacheConfig  `json:"cache" mapstructure:"cache"`
	DataDir   string       `json:"data_dir" mapstructure:"data_dir"`
	JWTSecret string       `json:"jwt_secret" mapstructure:"jwt_secret"`
	JWTExpire int          `json:"jwt_expire" mapstructure:"jwt_expire"` // hours
}

var (
	cfg  *Config
	once sync.Once
)

func Load() *Config {
	once.Do(func() {
		viper.SetConfigName("config")
		viper.SetConfigType("json")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("$HOME/.xorcism")

		// Scheme defaults
		viper.SetDefault("scheme.address", "0.0.0.0")
		viper.SetDefault("scheme.http_port", 5210)
		viper.SetDefault("scheme.https_port", -1)
		viper.SetDefault("scheme.enable_h2c", false)

		// Log defaults
		viper.SetDefault("log.level", "info")
		viper.SetDefault("log.format", "console")
		viper.SetDefault("log.output", "stderr")

		// Cache defaults
		viper.SetDefault("cache.enable", true)
		viper.SetDefault("cache.expiration", 10)
		viper.SetDefault("cache.max_entries", 256)

		// Other defaults
		viper.SetDefault("data_dir", "./data")
		viper.SetDefault("jwt_secret", "xorcism-secret-change-me")
		viper.SetDefault("jwt_expire", 24)

		// Environment variables
		viper.SetEnvPrefix("XORCISM")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		if err := viper.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); ok {
				log.Warn().Msg("Config file not found, using defaults")
			} else {
				log.Error().Err(err).Msg("Error reading config file")
			}
		}

		cfg = &Config{}
		if err := viper.Unmarshal(cfg); err != nil {
			log.Fatal().Err(err).Msg("Failed to unmarshal config")
		}
	})
	return cfg
}

func Get() *Config {
	if cfg == nil {
		return Load()
	}
	return cfg
}

// GetHTTPAddr returns the HTTP listen address
func (c *Config) GetHTTPAddr() string {
	return fmt.Sprintf("%s:%d", c.Scheme.Address, c.Scheme.HTTPPort)
}

// GetHTTPSAddr returns the HTTPS listen address
func (c *Config) GetHTTPSAddr() string {
	if c.Scheme.HTTPSPort <= 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d", c.Scheme.Address, c.Scheme.HTTPSPort)
}

// IsHTTPSEnabled returns whether HTTPS is enabled
func (c *Config) IsHTTPSEnabled() bool {
	return c.Scheme.HTTPSPort > 0 && c.Scheme.CertFile != "" && c.Scheme.KeyFile != ""
}

// IsH2CEnabled returns whether HTTP/2 cleartext is enabled
func (c *Config) IsH2CEnabled() bool {
	return c.Scheme.EnableH2C
}

// CacheTTL returns the derived-key cache expiration
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.Expiration) * time.Minute
}

// JWTExpiration returns the token lifetime
func (c *Config) JWTExpiration() time.Duration {
	return time.Duration(c.JWTExpire) * time.Hour
}
