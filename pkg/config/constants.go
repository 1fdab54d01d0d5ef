package config

const EnvPrefix = "VITALFLEX"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "production"
)

const (
	EnvAppEnv    = "VITALFLEX_APP_ENV"
	EnvPort      = "VITALFLEX_APP_PORT"
	EnvDBDSN     = "VITALFLEX_DB_DSN"
	EnvDBHost    = "VITALFLEX_DB_HOST"
	EnvDBUser    = "VITALFLEX_DB_USER"
	EnvDBName    = "VITALFLEX_DB_NAME"
	EnvRedisURL  = "VITALFLEX_REDIS_URL"
	EnvJWTSecret = "VITALFLEX_JWT_SECRET"
	EnvJWTIssuer = "VITALFLEX_JWT_ISSUER"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
