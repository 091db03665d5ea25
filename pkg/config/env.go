package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvProviderBaseURL      = "PROVIDER_BASE_URL"
	EnvProviderTokenURL     = "PROVIDER_TOKEN_URL"
	EnvProviderClientID     = "PROVIDER_CLIENT_ID"
	EnvProviderClientSecret = "PROVIDER_CLIENT_SECRET"
	EnvProviderTimeout      = "PROVIDER_TIMEOUT"

	EnvLoginMaxAttempts   = "LOGIN_MAX_ATTEMPTS"
	EnvLoginLockoutWindow = "LOGIN_LOCKOUT_WINDOW"

	EnvTokenSecret = "TOKEN_SECRET"
	EnvTokenTTL    = "TOKEN_TTL"

	EnvRateLimitRequests = "RATE_LIMIT_REQUESTS"
	EnvRateLimitWindow   = "RATE_LIMIT_WINDOW"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvIdempotencyTTL = "IDEMPOTENCY_TTL"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvAlertTopic            = "ALERT_TOPIC"
	EnvAlertDelayProbability = "ALERT_DELAY_PROBABILITY"
	EnvAlertLookaheadDays    = "ALERT_LOOKAHEAD_DAYS"
	EnvAlertCheckInterval    = "ALERT_CHECK_INTERVAL"
)
