package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	Storage   StorageConfig
	Tracing   TracingConfig `mapstructure:"tracing"`
	Redis     RedisConfig
	AI        AIConfig
	Advisor   AdvisorConfig   `mapstructure:"advisor"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// 运行时标志（非配置文件，通过命令行参数设置）
	ForceMigrate bool `mapstructure:"-"`
	MigrateOnly  bool `mapstructure:"-"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type RateLimitConfig struct {
	MaxRequests   int `mapstructure:"max_requests"`
	WindowMinutes int `mapstructure:"window_minutes"`
}

type AIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

// CreditTierConfig 按GPA分档的学分上限，阈值必须从0开始且严格递增
type CreditTierConfig struct {
	MinGPA     float64 `mapstructure:"min_gpa"`
	MaxCredits int     `mapstructure:"max_credits"`
}

type AdvisorConfig struct {
	PassingGrade         float64            `mapstructure:"passing_grade"`
	ProbationGPA         float64            `mapstructure:"probation_gpa"`
	MinCreditsPerTerm    int                `mapstructure:"min_credits_per_term"`
	FinalSemesterBonus   int                `mapstructure:"final_semester_bonus"`
	TotalRequiredCredits int                `mapstructure:"total_required_credits"`
	CreditTiers          []CreditTierConfig `mapstructure:"credit_tiers"`
	SessionTTLMinutes    int                `mapstructure:"session_ttl_minutes"`
	SweepIntervalMinutes int                `mapstructure:"sweep_interval_minutes"`
	MaxContextBytes      int                `mapstructure:"max_context_bytes"`
	MatchConfidence      float64            `mapstructure:"match_confidence"`
	RecommendationTTL    time.Duration      `mapstructure:"recommendation_ttl_minutes"`
}

type ServerConfig struct {
	Port string
	Mode string
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type StorageConfig struct {
	Type          string `mapstructure:"type"`
	LocalPath     string `mapstructure:"local_path"`
	MinioEndpoint string `mapstructure:"minio_endpoint"`
	MinioAccessID string `mapstructure:"minio_access_key"`
	MinioSecret   string `mapstructure:"minio_secret_key"`
	MinioBucket   string `mapstructure:"minio_bucket"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("COURSEWISE")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")

	// AI
	viper.BindEnv("ai.base_url", "AI_BASE_URL")
	viper.BindEnv("ai.api_key", "AI_API_KEY")
	viper.BindEnv("ai.model", "AI_MODEL")

	// Storage
	viper.BindEnv("storage.type", "STORAGE_TYPE")
	viper.BindEnv("storage.minio_endpoint", "MINIO_ENDPOINT")
	viper.BindEnv("storage.minio_access_key", "MINIO_ACCESS_KEY")
	viper.BindEnv("storage.minio_secret_key", "MINIO_SECRET_KEY")
	viper.BindEnv("storage.minio_bucket", "MINIO_BUCKET")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	cfg.Advisor.RecommendationTTL = cfg.Advisor.RecommendationTTL * time.Minute
	applyAdvisorDefaults(&cfg.Advisor)

	// 生产环境校验 JWT Secret 强度
	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	if cfg.Storage.Type == "local" {
		if _, err := os.Stat(cfg.Storage.LocalPath); os.IsNotExist(err) {
			os.MkdirAll(cfg.Storage.LocalPath, 0755)
		}
	}

	return &cfg, nil
}

func applyAdvisorDefaults(a *AdvisorConfig) {
	if a.PassingGrade == 0 {
		a.PassingGrade = 10
	}
	if a.ProbationGPA == 0 {
		a.ProbationGPA = 12
	}
	if a.MinCreditsPerTerm == 0 {
		a.MinCreditsPerTerm = 14
	}
	if a.FinalSemesterBonus == 0 {
		a.FinalSemesterBonus = 4
	}
	if a.TotalRequiredCredits == 0 {
		a.TotalRequiredCredits = 140
	}
	if len(a.CreditTiers) == 0 {
		a.CreditTiers = []CreditTierConfig{
			{MinGPA: 0, MaxCredits: 16},
			{MinGPA: 12, MaxCredits: 18},
			{MinGPA: 15, MaxCredits: 20},
			{MinGPA: 17, MaxCredits: 24},
		}
	}
	if a.SessionTTLMinutes == 0 {
		a.SessionTTLMinutes = 60
	}
	if a.SweepIntervalMinutes == 0 {
		a.SweepIntervalMinutes = 10
	}
	if a.MaxContextBytes == 0 {
		a.MaxContextBytes = 24 * 1024
	}
	if a.MatchConfidence == 0 {
		a.MatchConfidence = 0.8
	}
	if a.RecommendationTTL == 0 {
		a.RecommendationTTL = 30 * time.Minute
	}
}
