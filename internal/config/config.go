// Package config loads server configuration from defaults, an optional
// config file, a .env file and INVENTORY_* environment variables, in
// increasing order of precedence. Command-line flags are applied on top by
// the caller.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Photos PhotosConfig `mapstructure:"photos"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Log    LogConfig    `mapstructure:"log"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host              string        `mapstructure:"host"`
	Port              int           `mapstructure:"port"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout"`
	// UploadRate limits photo uploads per second across all clients.
	// Zero disables the limit.
	UploadRate  float64 `mapstructure:"upload_rate"`
	UploadBurst int     `mapstructure:"upload_burst"`
}

// CacheConfig locates the data directory holding the collection file, the
// photo assets and the journal.
type CacheConfig struct {
	Dir string `mapstructure:"dir"`
}

// PhotosConfig controls upload handling.
type PhotosConfig struct {
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`
	MaxDimension   int   `mapstructure:"max_dimension"`
	MaxPixels      int64 `mapstructure:"max_pixels"`
	RequireImage   bool  `mapstructure:"require_image"`
}

// AuthConfig enables bearer-token protection of mutating routes when
// AdminPasswordHash is set.
type AuthConfig struct {
	Secret            string        `mapstructure:"secret"`
	AdminUser         string        `mapstructure:"admin_user"`
	AdminPasswordHash string        `mapstructure:"admin_password_hash"`
	TokenTTL          time.Duration `mapstructure:"token_ttl"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Load builds the configuration. configFile may be empty. A missing .env
// file is not an error.
func Load(configFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()
	v.SetEnvPrefix("INVENTORY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("config file loaded", "path", configFile)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "")
	v.SetDefault("server.port", 0)
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.idle_timeout", 120*time.Second)
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.upload_rate", 0)
	v.SetDefault("server.upload_burst", 5)

	v.SetDefault("cache.dir", "")

	v.SetDefault("photos.max_upload_bytes", 10<<20)
	v.SetDefault("photos.max_dimension", 2048)
	v.SetDefault("photos.max_pixels", 50_000_000)
	v.SetDefault("photos.require_image", true)

	v.SetDefault("auth.secret", "")
	v.SetDefault("auth.admin_user", "admin")
	v.SetDefault("auth.admin_password_hash", "")
	v.SetDefault("auth.token_ttl", 24*time.Hour)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
}

// Validate checks the configuration after flags have been applied.
func (c *Config) Validate() error {
	if c.Server.Host == "" {
		return fmt.Errorf("server host is required (-h)")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535 (-p), got %d", c.Server.Port)
	}
	if c.Cache.Dir == "" {
		return fmt.Errorf("cache directory is required (-c)")
	}
	if c.Photos.MaxUploadBytes <= 0 {
		return fmt.Errorf("photos.max_upload_bytes must be positive")
	}
	if c.Photos.MaxDimension < 0 {
		return fmt.Errorf("photos.max_dimension cannot be negative")
	}
	if c.Photos.MaxPixels < 0 {
		return fmt.Errorf("photos.max_pixels cannot be negative")
	}
	if c.Server.UploadRate < 0 {
		return fmt.Errorf("server.upload_rate cannot be negative")
	}
	if (c.Auth.Secret != "" || c.Auth.AdminPasswordHash != "") && (c.Auth.AdminUser == "" || c.Auth.AdminPasswordHash == "") {
		return fmt.Errorf("auth.admin_user and auth.admin_password_hash are required to enable auth")
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server.Host, strconv.Itoa(c.Server.Port))
}

// CollectionPath is the JSON document holding all items.
func (c *Config) CollectionPath() string {
	return filepath.Join(c.Cache.Dir, "inventory.json")
}

// PhotosDir is the directory holding photo assets.
func (c *Config) PhotosDir() string {
	return filepath.Join(c.Cache.Dir, "photos")
}

// UploadsDir is where incoming uploads are materialized before the store
// takes them over.
func (c *Config) UploadsDir() string {
	return filepath.Join(c.Cache.Dir, "uploads")
}

// HistoryPath is the SQLite journal database.
func (c *Config) HistoryPath() string {
	return filepath.Join(c.Cache.Dir, "history.sqlite3")
}

// AuthEnabled reports whether mutating routes require a bearer token. An
// empty auth.secret is then generated and kept in the history database.
func (c *Config) AuthEnabled() bool {
	return c.Auth.AdminPasswordHash != ""
}

// ParseLevel maps a level name to a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", level)
	}
}
