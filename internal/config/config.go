package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type RedisConfig struct {
	URL          string        `mapstructure:"url"`
	MaxRetries   int           `mapstructure:"max_retries"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
}

type SchedulerConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Token   string        `mapstructure:"token"`
	Timeout time.Duration `mapstructure:"timeout"`
	// SigningKey verifies the signature on delivery callbacks.
	SigningKey string `mapstructure:"signing_key"`
	// CallbackBaseURL is the externally reachable base URL of the worker,
	// the destination the scheduler delivers to.
	CallbackBaseURL string `mapstructure:"callback_base_url"`
	DefaultRetries  int    `mapstructure:"default_retries"`
}

type EmailConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type EngagementConfig struct {
	RecentSetSize       int           `mapstructure:"recent_set_size"`
	NeighborCount       int           `mapstructure:"neighbor_count"`
	RecommendationLimit int           `mapstructure:"recommendation_limit"`
	RecommendationTTL   time.Duration `mapstructure:"recommendation_ttl"`
	RetentionDays       int           `mapstructure:"retention_days"`
	PopularityRefresh   time.Duration `mapstructure:"popularity_refresh"`
}

type RateLimitConfig struct {
	Enabled           bool    `mapstructure:"enabled"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type WorkerConfig struct {
	Port int `mapstructure:"port"`
}

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Email      EmailConfig      `mapstructure:"email"`
	Engagement EngagementConfig `mapstructure:"engagement"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Worker     WorkerConfig     `mapstructure:"worker"`
}

// envOverrides carries secrets that should never live in config.yaml.
// Populated from ENGAGE_* environment variables.
type envOverrides struct {
	RedisURL            string `envconfig:"REDIS_URL"`
	SchedulerToken      string `envconfig:"SCHEDULER_TOKEN"`
	SchedulerSigningKey string `envconfig:"SCHEDULER_SIGNING_KEY"`
	SMTPPassword        string `envconfig:"SMTP_PASSWORD"`
}

// Load reads config.yaml (from . or ./config) and overlays ENGAGE_*
// environment variables on top. A missing file is not an error; the
// defaults plus environment are enough to run against local Redis.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	var env envOverrides
	if err := envconfig.Process("engage", &env); err != nil {
		return nil, fmt.Errorf("failed to process environment: %w", err)
	}
	if env.RedisURL != "" {
		cfg.Redis.URL = env.RedisURL
	}
	if env.SchedulerToken != "" {
		cfg.Scheduler.Token = env.SchedulerToken
	}
	if env.SchedulerSigningKey != "" {
		cfg.Scheduler.SigningKey = env.SchedulerSigningKey
	}
	if env.SMTPPassword != "" {
		cfg.Email.Password = env.SMTPPassword
	}

	return &cfg, nil
}

func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.read_timeout", 10*time.Second)
	viper.SetDefault("server.write_timeout", 10*time.Second)

	viper.SetDefault("redis.max_retries", 3)
	viper.SetDefault("redis.retry_backoff", 100*time.Millisecond)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.min_idle_conns", 2)

	viper.SetDefault("scheduler.timeout", 10*time.Second)
	viper.SetDefault("scheduler.default_retries", 3)

	viper.SetDefault("engagement.recent_set_size", 20)
	viper.SetDefault("engagement.neighbor_count", 5)
	viper.SetDefault("engagement.recommendation_limit", 5)
	viper.SetDefault("engagement.recommendation_ttl", 5*time.Minute)
	viper.SetDefault("engagement.retention_days", 90)
	viper.SetDefault("engagement.popularity_refresh", 10*time.Minute)

	viper.SetDefault("rate_limit.enabled", true)
	viper.SetDefault("rate_limit.requests_per_second", 100.0)
	viper.SetDefault("rate_limit.burst", 200)

	viper.SetDefault("worker.port", 8081)

	viper.SetDefault("email.port", 587)
}
