package config

import (
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application configuration
type Config struct {
	Server    ServerConfig
	Pipeline  PipelineConfig
	Cache     CacheConfig
	MongoDB   MongoDBConfig
	Redis     RedisConfig
	OIDC      OIDCConfig
	RateLimit RateLimitConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// PipelineConfig controls the cross-cutting request pipeline.
type PipelineConfig struct {
	RequireHTTPS    bool
	MaxUploadLength int64  // bytes
	ErrorFieldName  string // "message" or "error"; fixed per deployment
}

// CacheConfig carries the account-directory TTLs. Zero seconds means the
// five-minute default.
type CacheConfig struct {
	AccountTTL time.Duration
	ProfileTTL time.Duration
}

type MongoDBConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// OIDCConfig points at the external authentication layer that issues and
// signs the tokens this service consumes.
type OIDCConfig struct {
	IssuerURL string
	ClientID  string
	Provider  string // issuer name stamped onto created accounts
}

type RateLimitConfig struct {
	Enabled       bool
	UseRedis      bool
	RPS           float64
	Burst         int
	WindowSeconds int
}

// LoadConfig loads configuration from environment variables and .env file
func LoadConfig() (*Config, error) {
	_ = godotenv.Load(".env")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "5002")
	viper.SetDefault("SERVER_HOST", "0.0.0.0")
	viper.SetDefault("SERVER_ENVIRONMENT", "development")
	viper.SetDefault("MONGODB_TIMEOUT", 10)
	viper.SetDefault("MAX_UPLOAD_LENGTH", 1048576)
	viper.SetDefault("ERROR_FIELD_NAME", "message")
	viper.SetDefault("OIDC_PROVIDER", "keycloak")
	viper.SetDefault("RATE_LIMIT_RPS", 10.0)
	viper.SetDefault("RATE_LIMIT_BURST", 20)
	viper.SetDefault("RATE_LIMIT_WINDOW_SECONDS", 60)

	cfg := &Config{
		Server: ServerConfig{
			Port:         viper.GetString("SERVER_PORT"),
			Host:         viper.GetString("SERVER_HOST"),
			Environment:  viper.GetString("SERVER_ENVIRONMENT"),
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Pipeline: PipelineConfig{
			RequireHTTPS:    viper.GetBool("REQUIRE_HTTPS"),
			MaxUploadLength: viper.GetInt64("MAX_UPLOAD_LENGTH"),
			ErrorFieldName:  viper.GetString("ERROR_FIELD_NAME"),
		},
		Cache: CacheConfig{
			AccountTTL: time.Duration(viper.GetInt("ACCOUNT_CACHE_TTL_SECONDS")) * time.Second,
			ProfileTTL: time.Duration(viper.GetInt("PROFILE_CACHE_TTL_SECONDS")) * time.Second,
		},
		MongoDB: MongoDBConfig{
			URI:      viper.GetString("MONGODB_URI"),
			Database: viper.GetString("MONGODB_DATABASE"),
			Timeout:  time.Duration(viper.GetInt("MONGODB_TIMEOUT")) * time.Second,
		},
		Redis: RedisConfig{
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       0,
		},
		OIDC: OIDCConfig{
			IssuerURL: viper.GetString("OIDC_ISSUER_URL"),
			ClientID:  viper.GetString("OIDC_CLIENT_ID"),
			Provider:  viper.GetString("OIDC_PROVIDER"),
		},
		RateLimit: RateLimitConfig{
			Enabled:       viper.GetBool("RATE_LIMIT_ENABLED"),
			UseRedis:      viper.GetBool("RATE_LIMIT_USE_REDIS"),
			RPS:           viper.GetFloat64("RATE_LIMIT_RPS"),
			Burst:         viper.GetInt("RATE_LIMIT_BURST"),
			WindowSeconds: viper.GetInt("RATE_LIMIT_WINDOW_SECONDS"),
		},
	}

	return cfg, nil
}
