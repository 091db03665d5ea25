package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "wayfarer"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultProviderBaseURL  = "https://test.api.amadeus.com"
	DefaultProviderTokenURL = "/v1/security/oauth2/token"
	DefaultProviderTimeout  = 15 * time.Second

	DefaultLoginMaxAttempts   = 5
	DefaultLoginLockoutWindow = 5 * time.Minute

	DefaultTokenTTL = 24 * time.Hour

	DefaultRateLimitRequests = 10
	DefaultRateLimitWindow   = 1 * time.Minute

	DefaultRequestTimeout = 30 * time.Second
	DefaultIdempotencyTTL = 24 * time.Hour
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	DefaultAlertTopic            = "wayfarer.flight-alerts"
	DefaultAlertDelayProbability = 0.3
	DefaultAlertLookaheadDays    = 2
	DefaultAlertCheckInterval    = 30 * time.Minute

	DefaultPaginationLimit = 100
)
