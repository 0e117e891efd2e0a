package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type LogConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	Component string `yaml:"component"`
	Source    bool   `yaml:"source"`
}

type AppConfig struct {
	ENV           string `yaml:"env"`
	EmailDomain   string `yaml:"email_domain"`
	DiscoverLimit int    `yaml:"discover_limit"`
	FeedLimit     int    `yaml:"feed_limit"`
}

type DBConfig struct {
	Driver   string `yaml:"driver"`
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	LogSQL   bool   `yaml:"log_sql"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type HTTPConfig struct {
	Host           string   `yaml:"host"`
	Port           string   `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

type GRPCConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret"`
	TokenTTL   time.Duration `yaml:"token_ttl"`
	BcryptCost int           `yaml:"bcrypt_cost"`
}

type RelayConfig struct {
	// Broker is "local" (single instance) or "redis" (fan-out across instances).
	Broker  string `yaml:"broker"`
	Channel string `yaml:"channel"`
}

type S3Config struct {
	Bucket        string        `yaml:"bucket"`
	Region        string        `yaml:"region"`
	Endpoint      string        `yaml:"endpoint"`
	AccessKey     string        `yaml:"access_key"`
	SecretKey     string        `yaml:"secret_key"`
	PublicBaseURL string        `yaml:"public_base_url"`
	PresignTTL    time.Duration `yaml:"presign_ttl"`
}

// DevJWTSecret signs tokens in development only; Load rejects it elsewhere.
const DevJWTSecret = "dev-secret-change-me"

type Config struct {
	Log   LogConfig   `yaml:"log"`
	App   AppConfig   `yaml:"app"`
	DB    DBConfig    `yaml:"db"`
	Redis RedisConfig `yaml:"redis"`
	HTTP  HTTPConfig  `yaml:"http"`
	GRPC  GRPCConfig  `yaml:"grpc"`
	Auth  AuthConfig  `yaml:"auth"`
	Relay RelayConfig `yaml:"relay"`
	S3    S3Config    `yaml:"s3"`
}

// Defaults returns the development configuration.
func Defaults() *Config {
	cfg := &Config{}

	cfg.Log.Level = "info"
	cfg.Log.Format = "text"
	cfg.Log.Component = "api"

	cfg.App.ENV = "development"
	cfg.App.EmailDomain = "ecci.edu.co"
	cfg.App.DiscoverLimit = 20
	cfg.App.FeedLimit = 50

	cfg.DB.Driver = "mysql"
	cfg.DB.Host = "localhost"
	cfg.DB.Port = "3306"
	cfg.DB.User = "root"
	cfg.DB.Password = "root"
	cfg.DB.Name = "campus_match"

	cfg.Redis.Addr = "localhost:6379"

	cfg.HTTP.Host = "0.0.0.0"
	cfg.HTTP.Port = "5000"
	cfg.HTTP.AllowedOrigins = []string{"http://localhost:3000"}

	cfg.GRPC.Host = "127.0.0.1"
	cfg.GRPC.Port = "50051"

	cfg.Auth.JWTSecret = DevJWTSecret
	cfg.Auth.TokenTTL = 30 * 24 * time.Hour
	cfg.Auth.BcryptCost = 12

	cfg.Relay.Broker = "local"
	cfg.Relay.Channel = "relay:events"

	cfg.S3.Bucket = "campus-match"
	cfg.S3.Region = "us-east-1"
	cfg.S3.PresignTTL = 15 * time.Minute

	return cfg
}

// Load applies defaults, then the YAML file at path (if any), then the environment.
// Outside development a real JWT secret is required.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path == "" {
		path = strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	applyEnv(cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.App.ENV == "development" {
		return nil
	}
	if c.Auth.JWTSecret == "" || c.Auth.JWTSecret == DevJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set when app.env is %q", c.App.ENV)
	}
	return nil
}

// MySQLDSN builds a DSN from the discrete DB fields when DSN is not set.
func (c *Config) MySQLDSN() string {
	if c.DB.DSN != "" {
		return c.DB.DSN
	}
	return fmt.Sprintf(
		"%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name,
	)
}

func applyEnv(cfg *Config) {
	// Logger
	cfg.Log.Level = getEnvDefault("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnvDefault("LOG_FORMAT", cfg.Log.Format)
	cfg.Log.Component = getEnvDefault("LOG_COMPONENT", cfg.Log.Component)
	if v, ok := lookupEnv("LOG_SOURCE"); ok {
		cfg.Log.Source = isTruthy(v)
	}

	// App
	cfg.App.ENV = getEnvDefault("APP_ENV", cfg.App.ENV)
	cfg.App.EmailDomain = strings.TrimPrefix(getEnvDefault("EMAIL_DOMAIN", cfg.App.EmailDomain), "@")
	cfg.App.DiscoverLimit = getEnvInt("DISCOVER_LIMIT", cfg.App.DiscoverLimit)
	cfg.App.FeedLimit = getEnvInt("FEED_LIMIT", cfg.App.FeedLimit)

	// Database
	cfg.DB.Driver = getEnvDefault("DB_DRIVER", cfg.DB.Driver)
	cfg.DB.DSN = getEnvDefault("MYSQL_DSN", cfg.DB.DSN)
	cfg.DB.DSN = getEnvDefault("DB_DSN", cfg.DB.DSN)
	cfg.DB.Host = getEnvDefault("DB_HOST", cfg.DB.Host)
	cfg.DB.Port = getEnvDefault("DB_PORT", cfg.DB.Port)
	cfg.DB.User = getEnvDefault("DB_USER", cfg.DB.User)
	cfg.DB.Password = getEnvDefault("DB_PASSWORD", cfg.DB.Password)
	cfg.DB.Name = getEnvDefault("DB_NAME", cfg.DB.Name)
	if v, ok := lookupEnv("DB_LOG_SQL"); ok {
		cfg.DB.LogSQL = isTruthy(v)
	}

	// Redis
	cfg.Redis.Addr = getEnvDefault("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = getEnvDefault("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getEnvInt("REDIS_DB", cfg.Redis.DB)

	// HTTP
	cfg.HTTP.Host = getEnvDefault("HTTP_HOST", cfg.HTTP.Host)
	cfg.HTTP.Port = getEnvDefault("HTTP_PORT", cfg.HTTP.Port)
	if v, ok := lookupEnv("CORS_ORIGINS"); ok {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}

	// gRPC
	cfg.GRPC.Host = getEnvDefault("GRPC_HOST", cfg.GRPC.Host)
	cfg.GRPC.Port = getEnvDefault("GRPC_PORT", cfg.GRPC.Port)

	// Auth
	cfg.Auth.JWTSecret = getEnvDefault("JWT_SECRET", cfg.Auth.JWTSecret)
	cfg.Auth.TokenTTL = getEnvDuration("TOKEN_TTL", cfg.Auth.TokenTTL)
	cfg.Auth.BcryptCost = getEnvInt("BCRYPT_COST", cfg.Auth.BcryptCost)

	// Relay
	cfg.Relay.Broker = getEnvDefault("RELAY_BROKER", cfg.Relay.Broker)
	cfg.Relay.Channel = getEnvDefault("RELAY_CHANNEL", cfg.Relay.Channel)

	// S3
	cfg.S3.Bucket = getEnvDefault("S3_BUCKET", cfg.S3.Bucket)
	cfg.S3.Region = getEnvDefault("S3_REGION", cfg.S3.Region)
	cfg.S3.Endpoint = getEnvDefault("S3_ENDPOINT", cfg.S3.Endpoint)
	cfg.S3.AccessKey = getEnvDefault("S3_ACCESS_KEY", cfg.S3.AccessKey)
	cfg.S3.SecretKey = getEnvDefault("S3_SECRET_KEY", cfg.S3.SecretKey)
	cfg.S3.PublicBaseURL = getEnvDefault("S3_PUBLIC_BASE_URL", cfg.S3.PublicBaseURL)
	cfg.S3.PresignTTL = getEnvDuration("S3_PRESIGN_TTL", cfg.S3.PresignTTL)
}

func lookupEnv(k string) (string, bool) {
	v := strings.TrimSpace(os.Getenv(k))
	return v, v != ""
}

func getEnvDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func getEnvInt(k string, def int) int {
	if v, ok := lookupEnv(k); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func getEnvDuration(k string, def time.Duration) time.Duration {
	if v, ok := lookupEnv(k); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
