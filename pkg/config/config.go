package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Store drivers understood by StoreConfig.Driver.
const (
	StoreDriverFile     = "file"
	StoreDriverMemory   = "memory"
	StoreDriverRedis    = "redis"
	StoreDriverPostgres = "postgres"
)

// Cache drivers understood by CacheConfig.Driver.
const (
	CacheDriverNone  = "none"
	CacheDriverLRU   = "lru"
	CacheDriverRedis = "redis"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Cache    CacheConfig
	Session  SessionConfig
	Images   ImagesConfig
	CORS     CORSConfig
	Log      LogConfig
}

// StoreConfig selects the durable key-value backend holding reports and session.
type StoreConfig struct {
	Driver          string
	Dir             string
	KeyPrefix       string
	WriteRetries    int
	WriteRetryDelay time.Duration
	SeedOnEmpty     bool
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// CacheConfig governs projection caching.
type CacheConfig struct {
	Driver  string
	TTL     time.Duration
	LRUSize int
}

// SessionConfig configures actor session tokens.
type SessionConfig struct {
	Secret                 string
	TTL                    time.Duration
	PrivilegedPasscodeHash string
}

// ImagesConfig bounds image intake on report creation.
type ImagesConfig struct {
	MaxFileSizeBytes int64
	MaxCount         int
	AllowedMIMEs     []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Store = StoreConfig{
		Driver:          strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
		Dir:             v.GetString("STORE_DIR"),
		KeyPrefix:       v.GetString("STORE_KEY_PREFIX"),
		WriteRetries:    v.GetInt("STORE_WRITE_RETRIES"),
		WriteRetryDelay: parseDuration(v.GetString("STORE_WRITE_RETRY_DELAY"), time.Second),
		SeedOnEmpty:     v.GetBool("SEED_ON_EMPTY"),
	}

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Cache = CacheConfig{
		Driver:  strings.ToLower(strings.TrimSpace(v.GetString("CACHE_DRIVER"))),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
		LRUSize: v.GetInt("CACHE_LRU_SIZE"),
	}

	cfg.Session = SessionConfig{
		Secret:                 v.GetString("SESSION_SECRET"),
		TTL:                    parseDuration(v.GetString("SESSION_TTL"), 30*24*time.Hour),
		PrivilegedPasscodeHash: v.GetString("SESSION_PRIVILEGED_PASSCODE_HASH"),
	}

	maxImageSize := v.GetInt64("IMAGES_MAX_FILE_SIZE")
	if maxImageSize <= 0 {
		maxImageSize = 5 * 1024 * 1024
	}
	cfg.Images = ImagesConfig{
		MaxFileSizeBytes: maxImageSize,
		MaxCount:         v.GetInt("IMAGES_MAX_COUNT"),
		AllowedMIMEs:     splitAndTrim(v.GetString("IMAGES_ALLOWED_MIME_TYPES")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("STORE_DRIVER", StoreDriverFile)
	v.SetDefault("STORE_DIR", "./data")
	v.SetDefault("STORE_KEY_PREFIX", "")
	v.SetDefault("STORE_WRITE_RETRIES", 3)
	v.SetDefault("STORE_WRITE_RETRY_DELAY", "1s")
	v.SetDefault("SEED_ON_EMPTY", true)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "vozdelcaserio")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 5)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("CACHE_DRIVER", CacheDriverLRU)
	v.SetDefault("CACHE_TTL", "5m")
	v.SetDefault("CACHE_LRU_SIZE", 256)

	v.SetDefault("SESSION_SECRET", "dev_session_secret")
	v.SetDefault("SESSION_TTL", "720h")
	v.SetDefault("SESSION_PRIVILEGED_PASSCODE_HASH", "")

	v.SetDefault("IMAGES_MAX_FILE_SIZE", 5*1024*1024)
	v.SetDefault("IMAGES_MAX_COUNT", 6)
	v.SetDefault("IMAGES_ALLOWED_MIME_TYPES", "image/jpeg,image/png,image/gif,image/webp")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
}

func isMissingFile(err error) bool {
	return strings.Contains(strings.ToLower(err.Error()), "no such file")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
