package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const defaultConfigFile = "configs/config.yaml"

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Session   SessionConfig   `yaml:"session"`
	JWT       JWTConfig       `yaml:"jwt"`
	Admin     AdminConfig     `yaml:"admin"`
	File      FileConfig      `yaml:"file"`
	Cache     CacheConfig     `yaml:"cache"`
	Sweep     SweepConfig     `yaml:"sweep"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	CORS      CORSConfig      `yaml:"cors"`
	Frontend  FrontendConfig  `yaml:"frontend"`
	Log       LogConfig       `yaml:"log"`
}

type ServerConfig struct {
	Port int    `yaml:"port"`
	Mode string `yaml:"mode"`

	// TrustedProxies lists the proxy addresses or CIDRs allowed to set
	// X-Forwarded-For. Empty means the peer address is the client IP.
	TrustedProxies []string `yaml:"trusted_proxies"`
}

type DatabaseConfig struct {
	// Driver is "mysql" or "sqlite".
	Driver       string        `yaml:"driver"`
	URL          string        `yaml:"url"`
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	User         string        `yaml:"user"`
	Password     string        `yaml:"password"`
	DBName       string        `yaml:"dbname"`
	Params       string        `yaml:"params"`
	SQLitePath   string        `yaml:"sqlite_path"`
	MaxOpenConns int           `yaml:"max_open_conns"`
	MaxIdleConns int           `yaml:"max_idle_conns"`
	QueryTimeout time.Duration `yaml:"query_timeout"`
	LogSQL       bool          `yaml:"log_sql"`
}

type SessionConfig struct {
	Name   string `yaml:"name"`
	Secret string `yaml:"secret"`
	MaxAge int    `yaml:"max_age"`
	Secure bool   `yaml:"secure"`
}

type JWTConfig struct {
	Secret      string `yaml:"secret"`
	ExpireHours int    `yaml:"expire_hours"`
}

type AdminConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

type FileConfig struct {
	UploadPath        string        `yaml:"upload_path"`
	MaxUploadSize     int64         `yaml:"max_upload_size"`
	MaxDimension      int           `yaml:"max_dimension"`
	JPEGQuality       int           `yaml:"jpeg_quality"`
	UploadTimeout     time.Duration `yaml:"upload_timeout"`
	AllowedExtensions []string      `yaml:"allowed_extensions"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	TTL     time.Duration `yaml:"ttl"`
}

type SweepConfig struct {
	Enabled     bool          `yaml:"enabled"`
	Interval    time.Duration `yaml:"interval"`
	GracePeriod time.Duration `yaml:"grace_period"`
}

type RateLimitConfig struct {
	// RequestsPerMinute applies to login and guestbook writes.
	RequestsPerMinute int `yaml:"requests_per_minute"`
	Burst             int `yaml:"burst"`
}

type CORSConfig struct {
	AllowOrigins []string `yaml:"allow_origins"`
}

type FrontendConfig struct {
	DistDir string `yaml:"dist_dir"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxAge     int    `yaml:"max_age"`
	MaxBackups int    `yaml:"max_backups"`
}

func Load() (*Config, error) {
	cfg := &Config{}

	path := os.Getenv("CONFIG_FILE")
	if path == "" {
		path = defaultConfigFile
	}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.overrideFromEnv()
	cfg.setDefaults()

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if err := cfg.fillDevSecrets(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overrideFromEnv() {
	// Database
	if val := os.Getenv("DB_DRIVER"); val != "" {
		c.Database.Driver = val
	}
	if val := os.Getenv("SQL_DSN"); val != "" {
		c.Database.URL = val
	}
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Database.Port = port
		}
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.DBName = val
	}
	if val := os.Getenv("SQLITE_PATH"); val != "" {
		c.Database.SQLitePath = val
	}

	// Server
	if val := os.Getenv("SERVER_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Server.Port = port
		}
	}
	if val := os.Getenv("GIN_MODE"); val != "" {
		c.Server.Mode = val
	}
	if val := os.Getenv("TRUSTED_PROXIES"); val != "" {
		c.Server.TrustedProxies = strings.Split(val, ",")
	}

	// Auth
	if val := os.Getenv("SESSION_SECRET"); val != "" {
		c.Session.Secret = val
	}
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}
	if val := os.Getenv("ADMIN_USERNAME"); val != "" {
		c.Admin.Username = val
	}
	if val := os.Getenv("ADMIN_PASSWORD"); val != "" {
		c.Admin.Password = val
	}

	// File
	if val := os.Getenv("UPLOAD_PATH"); val != "" {
		c.File.UploadPath = val
	}
	if val := os.Getenv("MAX_UPLOAD_SIZE"); val != "" {
		if size, err := strconv.ParseInt(val, 10, 64); err == nil {
			c.File.MaxUploadSize = size
		}
	}

	if val := os.Getenv("FRONTEND_DIST"); val != "" {
		c.Frontend.DistDir = val
	}
	if val := os.Getenv("CORS_ORIGINS"); val != "" {
		c.CORS.AllowOrigins = strings.Split(val, ",")
	}
	if val := os.Getenv("LOG_LEVEL"); val != "" {
		c.Log.Level = val
	}
}

func (c *Config) setDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "release"
	}

	if c.Database.Driver == "" {
		if c.Database.URL != "" || c.Database.Host != "" {
			c.Database.Driver = "mysql"
		} else {
			c.Database.Driver = "sqlite"
		}
	}
	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.DBName == "" {
		c.Database.DBName = "wedding"
	}
	if c.Database.Params == "" {
		c.Database.Params = "charset=utf8mb4&parseTime=True&loc=Local"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "./data/wedding.db"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 10
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.QueryTimeout == 0 {
		c.Database.QueryTimeout = 10 * time.Second
	}

	if c.Session.Name == "" {
		c.Session.Name = "wedding_admin"
	}
	if c.Session.MaxAge == 0 {
		c.Session.MaxAge = 86400
	}
	if c.JWT.ExpireHours == 0 {
		c.JWT.ExpireHours = 24
	}
	if c.Admin.Username == "" {
		c.Admin.Username = "admin"
	}

	if c.File.UploadPath == "" {
		c.File.UploadPath = "./uploads"
	}
	if c.File.MaxUploadSize == 0 {
		c.File.MaxUploadSize = 52428800 // 50MB
	}
	if c.File.MaxDimension == 0 {
		c.File.MaxDimension = 1920
	}
	if c.File.JPEGQuality == 0 {
		c.File.JPEGQuality = 85
	}
	if c.File.UploadTimeout == 0 {
		c.File.UploadTimeout = 60 * time.Second
	}
	if len(c.File.AllowedExtensions) == 0 {
		c.File.AllowedExtensions = []string{"jpg", "jpeg", "png", "webp"}
	}

	if c.Cache.TTL == 0 {
		c.Cache.TTL = 30 * time.Second
	}
	if c.Sweep.Interval == 0 {
		c.Sweep.Interval = 24 * time.Hour
	}
	if c.Sweep.GracePeriod == 0 {
		c.Sweep.GracePeriod = time.Hour
	}

	if c.RateLimit.RequestsPerMinute == 0 {
		c.RateLimit.RequestsPerMinute = 20
	}
	if c.RateLimit.Burst == 0 {
		c.RateLimit.Burst = 5
	}
	if len(c.CORS.AllowOrigins) == 0 {
		c.CORS.AllowOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.File == "" {
		c.Log.File = "./logs/app.log"
	}
	if c.Log.MaxSize == 0 {
		c.Log.MaxSize = 100
	}
	if c.Log.MaxAge == 0 {
		c.Log.MaxAge = 30
	}
	if c.Log.MaxBackups == 0 {
		c.Log.MaxBackups = 5
	}
}

func (c *Config) validate() error {
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Server.Mode == "release" {
		if c.Session.Secret == "" {
			return fmt.Errorf("SESSION_SECRET is required in release mode")
		}
		if c.JWT.Secret == "" {
			return fmt.Errorf("JWT_SECRET is required in release mode")
		}
	}
	if c.File.JPEGQuality < 1 || c.File.JPEGQuality > 100 {
		return fmt.Errorf("jpeg_quality must be within 1..100, got %d", c.File.JPEGQuality)
	}
	return nil
}

// fillDevSecrets generates throwaway secrets outside release mode so a
// local run works without any setup. Sessions do not survive a restart.
func (c *Config) fillDevSecrets() error {
	for _, secret := range []*string{&c.Session.Secret, &c.JWT.Secret} {
		if *secret != "" {
			continue
		}
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return fmt.Errorf("generate secret: %w", err)
		}
		*secret = hex.EncodeToString(buf)
	}
	return nil
}

// GetDSN returns the go-sql-driver/mysql DSN, preferring an explicit URL.
func (c *Config) GetDSN() string {
	if c.Database.URL != "" {
		return c.Database.URL
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?%s",
		c.Database.User, c.Database.Password, c.Database.Host,
		c.Database.Port, c.Database.DBName, c.Database.Params)
}

func (c *Config) IsAllowedExtension(ext string) bool {
	ext = strings.TrimPrefix(strings.ToLower(ext), ".")
	for _, allowed := range c.File.AllowedExtensions {
		if ext == allowed {
			return true
		}
	}
	return false
}
