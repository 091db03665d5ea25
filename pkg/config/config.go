package config

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"time"

	"wayfarer/pkg/client"
	"wayfarer/pkg/logger"
)

type Config struct {
	MongoURI          string
	MongoDatabaseName string
	MongoConnTimeout  time.Duration

	Port string

	ProviderBaseURL      string
	ProviderTokenURL     string
	ProviderClientID     string
	ProviderClientSecret string
	ProviderTimeout      time.Duration

	LoginMaxAttempts   int
	LoginLockoutWindow time.Duration

	TokenSecret string
	TokenTTL    time.Duration

	RateLimitRequests int
	RateLimitWindow   time.Duration

	RequestTimeout time.Duration
	IdempotencyTTL time.Duration
	MaxRequestSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	AlertTopic            string
	AlertDelayProbability float64
	AlertLookaheadDays    int
	AlertCheckInterval    time.Duration

	Log    *logger.Logger
	Client *client.Client
}

func Load(serviceName string) *Config {
	cfg := &Config{
		MongoURI:          getEnvStr(EnvMongoURI, DefaultMongoURI),
		MongoDatabaseName: getEnvStr(EnvMongoDatabaseName, DefaultMongoDatabaseName),
		MongoConnTimeout:  getEnvDuration(EnvMongoConnTimeout, DefaultMongoConnTimeout),

		Port: getEnvStr(EnvPort, DefaultPort),

		ProviderBaseURL:      getEnvStr(EnvProviderBaseURL, DefaultProviderBaseURL),
		ProviderTokenURL:     getEnvStr(EnvProviderTokenURL, DefaultProviderTokenURL),
		ProviderClientID:     getEnvStr(EnvProviderClientID, ""),
		ProviderClientSecret: getEnvStr(EnvProviderClientSecret, ""),
		ProviderTimeout:      getEnvDuration(EnvProviderTimeout, DefaultProviderTimeout),

		LoginMaxAttempts:   getEnvNum(EnvLoginMaxAttempts, DefaultLoginMaxAttempts),
		LoginLockoutWindow: getEnvDuration(EnvLoginLockoutWindow, DefaultLoginLockoutWindow),

		TokenSecret: getEnvStr(EnvTokenSecret, ""),
		TokenTTL:    getEnvDuration(EnvTokenTTL, DefaultTokenTTL),

		RateLimitRequests: getEnvNum(EnvRateLimitRequests, DefaultRateLimitRequests),
		RateLimitWindow:   getEnvDuration(EnvRateLimitWindow, DefaultRateLimitWindow),

		RequestTimeout: getEnvDuration(EnvRequestTimeout, DefaultRequestTimeout),
		IdempotencyTTL: getEnvDuration(EnvIdempotencyTTL, DefaultIdempotencyTTL),
		MaxRequestSize: getEnvNum(EnvMaxRequestSize, DefaultMaxRequestSize),

		ReadTimeout:     getEnvDuration(EnvReadTimeout, DefaultReadTimeout),
		WriteTimeout:    getEnvDuration(EnvWriteTimeout, DefaultWriteTimeout),
		IdleTimeout:     getEnvDuration(EnvIdleTimeout, DefaultIdleTimeout),
		ShutdownTimeout: getEnvDuration(EnvShutdownTimeout, DefaultShutdownTimeout),

		AlertTopic:            getEnvStr(EnvAlertTopic, DefaultAlertTopic),
		AlertDelayProbability: getEnvFloat(EnvAlertDelayProbability, DefaultAlertDelayProbability),
		AlertLookaheadDays:    getEnvNum(EnvAlertLookaheadDays, DefaultAlertLookaheadDays),
		AlertCheckInterval:    getEnvDuration(EnvAlertCheckInterval, DefaultAlertCheckInterval),

		Log: logger.New(logger.Config{
			Level:     getEnvStr(EnvLogLevel, DefaultLogLevel),
			Format:    logger.JSON,
			AddSource: true,
			Service:   serviceName,
		}),
		Client: client.NewClient(),
	}

	if err := cfg.Validate(); err != nil {
		cfg.Log.Fatal(err.Error())
	}
	cfg.LogConfiguration()
	return cfg
}

func (cfg *Config) SetMongo() {
	cfg.Client.SetMongo(cfg.Log, cfg.MongoURI, cfg.MongoConnTimeout)
}

func (cfg *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(cfg.Port); err != nil || port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("Port must be between 1 and 65535, got: %s", cfg.Port))
	}

	if cfg.MongoURI == "" {
		errs = append(errs, "MongoURI cannot be empty")
	} else if !regexp.MustCompile(`^mongodb(\+srv)?://`).MatchString(cfg.MongoURI) {
		errs = append(errs, fmt.Sprintf("MongoURI must start with 'mongodb://' or 'mongodb+srv://', got: %s", cfg.MongoURI))
	}
	if cfg.MongoDatabaseName == "" {
		errs = append(errs, "MongoDatabaseName cannot be empty")
	}
	if cfg.MongoConnTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("MongoConnTimeout must be positive, got: %s", cfg.MongoConnTimeout))
	}

	if cfg.ProviderBaseURL == "" {
		errs = append(errs, "ProviderBaseURL cannot be empty")
	}
	if cfg.ProviderTokenURL == "" {
		errs = append(errs, "ProviderTokenURL cannot be empty")
	}
	if cfg.ProviderTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ProviderTimeout must be positive, got: %s", cfg.ProviderTimeout))
	}

	if cfg.LoginMaxAttempts <= 0 {
		errs = append(errs, fmt.Sprintf("LoginMaxAttempts must be positive, got: %d", cfg.LoginMaxAttempts))
	}
	if cfg.LoginLockoutWindow <= 0 {
		errs = append(errs, fmt.Sprintf("LoginLockoutWindow must be positive, got: %s", cfg.LoginLockoutWindow))
	}
	if cfg.TokenTTL <= 0 {
		errs = append(errs, fmt.Sprintf("TokenTTL must be positive, got: %s", cfg.TokenTTL))
	}

	if cfg.RateLimitRequests <= 0 {
		errs = append(errs, fmt.Sprintf("RateLimitRequests must be positive, got: %d", cfg.RateLimitRequests))
	}
	if cfg.RateLimitWindow <= 0 {
		errs = append(errs, fmt.Sprintf("RateLimitWindow must be positive, got: %s", cfg.RateLimitWindow))
	}
	if cfg.RequestTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("RequestTimeout must be positive, got: %s", cfg.RequestTimeout))
	}
	if cfg.IdempotencyTTL <= 0 {
		errs = append(errs, fmt.Sprintf("IdempotencyTTL must be positive, got: %s", cfg.IdempotencyTTL))
	}
	if cfg.MaxRequestSize <= 0 {
		errs = append(errs, fmt.Sprintf("MaxRequestSize must be positive, got: %d", cfg.MaxRequestSize))
	}

	if cfg.ReadTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ReadTimeout must be positive, got: %s", cfg.ReadTimeout))
	}
	if cfg.WriteTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("WriteTimeout must be positive, got: %s", cfg.WriteTimeout))
	}
	if cfg.IdleTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("IdleTimeout must be positive, got: %s", cfg.IdleTimeout))
	}
	if cfg.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Sprintf("ShutdownTimeout must be positive, got: %s", cfg.ShutdownTimeout))
	}

	if cfg.AlertDelayProbability < 0 || cfg.AlertDelayProbability > 1 {
		errs = append(errs, fmt.Sprintf("AlertDelayProbability must be between 0 and 1, got: %f", cfg.AlertDelayProbability))
	}

	if len(errs) > 0 {
		errMsg := "Configuration validation failed:\n"
		for i, e := range errs {
			errMsg += fmt.Sprintf("  %d. %s\n", i+1, e)
		}
		return fmt.Errorf("%s", errMsg)
	}

	return nil
}

func (cfg *Config) LogConfiguration() {
	cfg.Log.Info("Configuration loaded successfully",
		"mongo_uri", redactMongoURI(cfg.MongoURI),
		"mongo_database", cfg.MongoDatabaseName,
		"mongo_conn_timeout", cfg.MongoConnTimeout,
		"port", cfg.Port,
		"provider_base_url", cfg.ProviderBaseURL,
		"provider_client_id_set", cfg.ProviderClientID != "",
		"provider_client_secret_set", cfg.ProviderClientSecret != "",
		"provider_timeout", cfg.ProviderTimeout,
		"login_max_attempts", cfg.LoginMaxAttempts,
		"login_lockout_window", cfg.LoginLockoutWindow,
		"token_secret_set", cfg.TokenSecret != "",
		"token_ttl", cfg.TokenTTL,
		"rate_limit_requests", cfg.RateLimitRequests,
		"rate_limit_window", cfg.RateLimitWindow,
		"request_timeout", cfg.RequestTimeout,
		"idempotency_ttl", cfg.IdempotencyTTL,
		"max_request_size", cfg.MaxRequestSize,
		"read_timeout", cfg.ReadTimeout,
		"write_timeout", cfg.WriteTimeout,
		"idle_timeout", cfg.IdleTimeout,
		"shutdown_timeout", cfg.ShutdownTimeout,
		"alert_topic", cfg.AlertTopic,
		"alert_delay_probability", cfg.AlertDelayProbability,
		"alert_lookahead_days", cfg.AlertLookaheadDays,
		"alert_check_interval", cfg.AlertCheckInterval,
	)
}

func redactMongoURI(uri string) string {
	credentialRegex := regexp.MustCompile(`(mongodb(\+srv)?://)[^:]+:[^@]+@`)
	return credentialRegex.ReplaceAllString(uri, "${1}***:***@")
}

func getEnvStr(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvNum(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func (cfg *Config) GracefulShutdown() {
	cfg.Client.GracefulShutdown()
}

func NormalizePaginationLimit(limit int) int {
	if limit <= 0 {
		limit = 10
	} else if limit > DefaultPaginationLimit {
		limit = DefaultPaginationLimit
	}
	return limit
}

func NormalizeOffset(offset int64) int64 {
	return max(0, offset)
}
