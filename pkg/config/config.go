package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database  DatabaseConfig
	Redis     RedisConfig
	JWT       JWTConfig
	CORS      CORSConfig
	Log       LogConfig
	Scheduler SchedulerConfig
	Weights   WeightsConfig
	Catalog   CatalogConfig
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

type JWTConfig struct {
	Secret string
	Issuer string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// SchedulerConfig bounds schedule generation and its caching.
type SchedulerConfig struct {
	Tolerance      int
	MaxResults     int
	WorkMultiplier int
	MaxStates      int
	Strategy       string
	ResolveWorkers int
	ResolveTimeout time.Duration
	ResultTTL      time.Duration
	CacheEnabled   bool
	CacheTTL       time.Duration
	OpenSeatsOnly  bool
}

// WeightsConfig exposes the section and schedule scoring constants.
type WeightsConfig struct {
	Instructor     float64
	Preference     float64
	Section        float64
	Diversity      float64
	MajorBonus     float64
	MajorThreshold int
}

// CatalogConfig points at the external course catalog and rating sources.
type CatalogConfig struct {
	BaseURL        string
	RatingsBaseURL string
	HTTPTimeout    time.Duration
	RequestDelay   time.Duration
	Workers        int
	Retries        int
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

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

	cfg.JWT = JWTConfig{
		Secret: v.GetString("JWT_SECRET"),
		Issuer: v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Scheduler = SchedulerConfig{
		Tolerance:      v.GetInt("SCHEDULER_TOLERANCE"),
		MaxResults:     v.GetInt("SCHEDULER_MAX_RESULTS"),
		WorkMultiplier: v.GetInt("SCHEDULER_WORK_MULTIPLIER"),
		MaxStates:      v.GetInt("SCHEDULER_MAX_STATES"),
		Strategy:       strings.ToLower(v.GetString("SCHEDULER_STRATEGY")),
		ResolveWorkers: v.GetInt("SCHEDULER_RESOLVE_WORKERS"),
		ResolveTimeout: parseDuration(v.GetString("SCHEDULER_RESOLVE_TIMEOUT"), 5*time.Second),
		ResultTTL:      parseDuration(v.GetString("SCHEDULER_RESULT_TTL"), 30*time.Minute),
		CacheEnabled:   v.GetBool("ENABLE_SCHEDULE_CACHE"),
		CacheTTL:       parseDuration(v.GetString("SCHEDULER_CACHE_TTL"), 10*time.Minute),
		OpenSeatsOnly:  v.GetBool("SCHEDULER_OPEN_SEATS_ONLY"),
	}

	cfg.Weights = WeightsConfig{
		Instructor:     v.GetFloat64("SCORER_INSTRUCTOR_WEIGHT"),
		Preference:     v.GetFloat64("SCORER_PREFERENCE_WEIGHT"),
		Section:        v.GetFloat64("RANK_SECTION_WEIGHT"),
		Diversity:      v.GetFloat64("RANK_DIVERSITY_WEIGHT"),
		MajorBonus:     v.GetFloat64("RANK_MAJOR_BONUS"),
		MajorThreshold: v.GetInt("RANK_MAJOR_THRESHOLD"),
	}

	cfg.Catalog = CatalogConfig{
		BaseURL:        strings.TrimRight(v.GetString("CATALOG_BASE_URL"), "/"),
		RatingsBaseURL: strings.TrimRight(v.GetString("RATINGS_BASE_URL"), "/"),
		HTTPTimeout:    parseDuration(v.GetString("CATALOG_HTTP_TIMEOUT"), 10*time.Second),
		RequestDelay:   parseDuration(v.GetString("CATALOG_REQUEST_DELAY"), 500*time.Millisecond),
		Workers:        v.GetInt("CATALOG_WORKERS"),
		Retries:        v.GetInt("CATALOG_RETRIES"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "course_planner")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SCHEDULER_TOLERANCE", 3)
	v.SetDefault("SCHEDULER_MAX_RESULTS", 5)
	v.SetDefault("SCHEDULER_WORK_MULTIPLIER", 10)
	v.SetDefault("SCHEDULER_MAX_STATES", 50000)
	v.SetDefault("SCHEDULER_STRATEGY", "dp")
	v.SetDefault("SCHEDULER_RESOLVE_WORKERS", 8)
	v.SetDefault("SCHEDULER_RESOLVE_TIMEOUT", "5s")
	v.SetDefault("SCHEDULER_RESULT_TTL", "30m")
	v.SetDefault("ENABLE_SCHEDULE_CACHE", true)
	v.SetDefault("SCHEDULER_CACHE_TTL", "10m")
	v.SetDefault("SCHEDULER_OPEN_SEATS_ONLY", true)

	v.SetDefault("SCORER_INSTRUCTOR_WEIGHT", 0.4)
	v.SetDefault("SCORER_PREFERENCE_WEIGHT", 0.6)
	v.SetDefault("RANK_SECTION_WEIGHT", 0.7)
	v.SetDefault("RANK_DIVERSITY_WEIGHT", 0.1)
	v.SetDefault("RANK_MAJOR_BONUS", 0.2)
	v.SetDefault("RANK_MAJOR_THRESHOLD", 2)

	v.SetDefault("CATALOG_BASE_URL", "https://api.umd.io/v1")
	v.SetDefault("RATINGS_BASE_URL", "https://planetterp.com/api/v1")
	v.SetDefault("CATALOG_HTTP_TIMEOUT", "10s")
	v.SetDefault("CATALOG_REQUEST_DELAY", "500ms")
	v.SetDefault("CATALOG_WORKERS", 1)
	v.SetDefault("CATALOG_RETRIES", 3)
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
