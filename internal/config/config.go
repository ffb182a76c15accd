package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Queue     QueueConfig     `mapstructure:"queue"`
	Log       LogConfig       `mapstructure:"log"`
	Worker    WorkerConfig    `mapstructure:"worker"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Build     BuildConfig     `mapstructure:"build"`
	Hosting   HostingConfig   `mapstructure:"hosting"`
	Storage   StorageConfig   `mapstructure:"storage"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port        int      `mapstructure:"port" validate:"min=1,max=65535"`
	Mode        string   `mapstructure:"mode" validate:"oneof=development production"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

// IsDevelopment reports whether diagnostic detail may be shown to API clients.
func (s ServerConfig) IsDevelopment() bool {
	return s.Mode == "development"
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
	DSN             string `mapstructure:"dsn" validate:"required"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`    // Postgres only
	MaxOpenConns    int    `mapstructure:"max_open_conns"`    // Postgres only
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // minutes, Postgres only
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret" validate:"required"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// QueueConfig holds job queue configuration
type QueueConfig struct {
	Type       string `mapstructure:"type" validate:"oneof=memory valkey"`
	ValkeyAddr string `mapstructure:"valkey_addr"` // e.g. "localhost:6379"
}

// LogConfig holds logging configuration
type LogConfig struct {
	Format string `mapstructure:"format" validate:"oneof=json text"`
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	File   string `mapstructure:"file"` // optional rotating log file
}

// WorkerConfig bounds concurrent pipeline runs.
type WorkerConfig struct {
	Concurrency int `mapstructure:"concurrency" validate:"min=1"`
}

// GeneratorConfig configures the content generation service.
type GeneratorConfig struct {
	BaseURL     string        `mapstructure:"base_url" validate:"required,url"`
	APIKey      string        `mapstructure:"api_key"`
	Model       string        `mapstructure:"model" validate:"required"`
	Temperature float64       `mapstructure:"temperature" validate:"min=0,max=2"`
	MaxRetries  int           `mapstructure:"max_retries" validate:"min=0"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// BuildConfig configures the static site build.
type BuildConfig struct {
	Toolchain string `mapstructure:"toolchain" validate:"oneof=npm pnpm"`
	BinPath   string `mapstructure:"bin_path"` // custom toolchain binary (optional)
	CacheDir  string `mapstructure:"cache_dir"`
}

// HostingConfig configures the hosting provider.
type HostingConfig struct {
	BaseURL    string `mapstructure:"base_url" validate:"required,url"`
	APIToken   string `mapstructure:"api_token"`
	MaxRetries int    `mapstructure:"max_retries" validate:"min=0"`
}

// StorageConfig holds filesystem locations
type StorageConfig struct {
	TemplateDir   string `mapstructure:"template_dir" validate:"required"`
	WorkspacesDir string `mapstructure:"workspaces_dir" validate:"required"`
	UploadsDir    string `mapstructure:"uploads_dir" validate:"required"`
	MaxUploadMB   int64  `mapstructure:"max_upload_mb" validate:"min=1"`
}

var validate = validator.New()

// Load reads configuration from defaults, config file, .env and environment variables
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()

	v.SetDefault("server.port", 8460)
	v.SetDefault("server.mode", "development")
	v.SetDefault("server.cors_origins", []string{"http://localhost:3000"})
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./sitelure.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("auth.jwt_secret", "change-me-in-production")
	v.SetDefault("auth.token_ttl", 24*time.Hour)
	v.SetDefault("queue.type", "memory")
	v.SetDefault("queue.valkey_addr", "localhost:6379")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("worker.concurrency", 4)
	v.SetDefault("generator.base_url", "https://api.openai.com")
	v.SetDefault("generator.api_key", "")
	v.SetDefault("generator.model", "gpt-4o-mini")
	v.SetDefault("generator.temperature", 0.3)
	v.SetDefault("generator.max_retries", 2)
	v.SetDefault("generator.timeout", 2*time.Minute)
	v.SetDefault("build.toolchain", "npm")
	v.SetDefault("build.bin_path", "")
	v.SetDefault("build.cache_dir", "./data/cache")
	v.SetDefault("hosting.base_url", "https://api.netlify.com")
	v.SetDefault("hosting.api_token", "")
	v.SetDefault("hosting.max_retries", 2)
	v.SetDefault("storage.template_dir", "./template")
	v.SetDefault("storage.workspaces_dir", "./data/sites")
	v.SetDefault("storage.uploads_dir", "./data/uploads")
	v.SetDefault("storage.max_upload_mb", 5)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/etc/sitelure/")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("SITELURE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Unprefixed provider variables are still honoured.
	if cfg.Generator.APIKey == "" {
		cfg.Generator.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Hosting.APIToken == "" {
		cfg.Hosting.APIToken = os.Getenv("NETLIFY_API_TOKEN")
	}

	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}
