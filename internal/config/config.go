package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           int      `yaml:"port"`
		UploadDir      string   `yaml:"uploadDir"`
		MaxUploadMB    int      `yaml:"maxUploadMB"`
		CORSOrigins    []string `yaml:"corsOrigins"`
		RateLimitRPS   float64  `yaml:"rateLimitRPS"`
		RateLimitBurst int      `yaml:"rateLimitBurst"`
	} `yaml:"server"`

	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`

	Database struct {
		Driver      string `yaml:"driver"`
		Host        string `yaml:"host"`
		Port        int    `yaml:"port"`
		User        string `yaml:"user"`
		Password    string `yaml:"password"`
		Name        string `yaml:"name"`
		SSLMode     string `yaml:"sslMode"`
		AutoMigrate bool   `yaml:"autoMigrate"`
	} `yaml:"database"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	AI struct {
		DefaultModel   string `yaml:"defaultModel"`
		TimeoutSeconds int    `yaml:"timeoutSeconds"`
		OpenAI         struct {
			APIKey  string `yaml:"apiKey"`
			BaseURL string `yaml:"baseURL"`
			Model   string `yaml:"model"`
		} `yaml:"openai"`
		DeepSeek struct {
			APIKey  string `yaml:"apiKey"`
			BaseURL string `yaml:"baseURL"`
			Model   string `yaml:"model"`
		} `yaml:"deepseek"`
		Claude struct {
			APIKey  string `yaml:"apiKey"`
			BaseURL string `yaml:"baseURL"`
			Model   string `yaml:"model"`
		} `yaml:"claude"`
	} `yaml:"ai"`

	Auth struct {
		JWTSecret     string `yaml:"jwtSecret"`
		JWTExpireDays int    `yaml:"jwtExpireDays"`
	} `yaml:"auth"`

	Image struct {
		TargetBytes      int  `yaml:"targetBytes"`
		InitialQuality   int  `yaml:"initialQuality"`
		QualityStep      int  `yaml:"qualityStep"`
		MinQuality       int  `yaml:"minQuality"`
		ThumbnailSize    int  `yaml:"thumbnailSize"`
		ThumbnailQuality int  `yaml:"thumbnailQuality"`
		SkipOrientation  bool `yaml:"skipOrientation"`
	} `yaml:"image"`
}

// Load reads .env (if any), then the YAML file (if any), then env overrides,
// then fills defaults. A missing file at path is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := os.LookupEnv(key)
		if !ok || v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str("OPENAI_API_KEY", &c.AI.OpenAI.APIKey)
	str("OPENAI_BASE_URL", &c.AI.OpenAI.BaseURL)
	str("ANTHROPIC_API_KEY", &c.AI.Claude.APIKey)
	str("DEEPSEEK_API_KEY", &c.AI.DeepSeek.APIKey)
	str("DEEPSEEK_BASE_URL", &c.AI.DeepSeek.BaseURL)
	str("DEFAULT_AI_MODEL", &c.AI.DefaultModel)
	str("JWT_SECRET", &c.Auth.JWTSecret)
	str("DATABASE_DRIVER", &c.Database.Driver)
	str("LOG_LEVEL", &c.Log.Level)
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.CORSOrigins = splitList(v)
	}
	return errors.Join(
		num("JWT_EXPIRE_DAYS", &c.Auth.JWTExpireDays),
		num("SERVER_PORT", &c.Server.Port),
	)
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8000
	}
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = "uploads"
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 20
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"http://localhost:5173", "http://localhost:3000"}
	}
	if c.Server.RateLimitRPS == 0 {
		c.Server.RateLimitRPS = 0.5
	}
	if c.Server.RateLimitBurst == 0 {
		c.Server.RateLimitBurst = 5
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "mysql"
	}
	if c.Database.Port == 0 {
		if c.Database.Driver == "postgres" {
			c.Database.Port = 5432
		} else {
			c.Database.Port = 3306
		}
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Minio.BucketName == "" {
		c.Minio.BucketName = "photos"
	}
	if c.AI.DefaultModel == "" {
		c.AI.DefaultModel = "deepseek"
	}
	if c.AI.TimeoutSeconds == 0 {
		c.AI.TimeoutSeconds = 120
	}
	if c.Auth.JWTExpireDays == 0 {
		c.Auth.JWTExpireDays = 7
	}
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port %d out of range", c.Server.Port))
	}
	switch c.Database.Driver {
	case "mysql", "postgres":
	default:
		errs = append(errs, fmt.Errorf("database.driver %q must be mysql or postgres", c.Database.Driver))
	}
	if c.Database.Host == "" || c.Database.Name == "" {
		errs = append(errs, errors.New("database.host and database.name are required"))
	}
	switch strings.ToLower(c.AI.DefaultModel) {
	case "deepseek", "openai", "claude":
	default:
		errs = append(errs, fmt.Errorf("ai.defaultModel %q is not a supported provider", c.AI.DefaultModel))
	}
	if c.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwtSecret (JWT_SECRET) is required"))
	}
	if c.Auth.JWTExpireDays < 0 {
		errs = append(errs, errors.New("auth.jwtExpireDays must not be negative"))
	}
	if c.Minio.Enabled && (c.Minio.Endpoint == "" || c.Minio.AccessKey == "" || c.Minio.SecretKey == "") {
		errs = append(errs, errors.New("minio.endpoint, accessKey and secretKey are required when minio is enabled"))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}
	return errors.Join(errs...)
}

// JWTTTL is the bearer token lifetime
func (c *Config) JWTTTL() time.Duration {
	return time.Duration(c.Auth.JWTExpireDays) * 24 * time.Hour
}

func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}

func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// DSN picks the connection string for the configured driver
func (c *Config) DSN() string {
	if c.Database.Driver == "postgres" {
		return c.PostgresDSN()
	}
	return c.MySQLDSN()
}

// Helper to build the MySQL DSN
func (c *Config) MySQLDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
	)
}

// Helper to build the Postgres URL for lib/pq
func (c *Config) PostgresDSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.Database.User, c.Database.Password),
		Host:     fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		Path:     "/" + c.Database.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.Database.SSLMode),
	}
	return u.String()
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
