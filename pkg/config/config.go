package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App          AppConfig
	DB           DBConfig
	Redis        RedisConfig
	JWT          JWTConfig
	Sync         SyncConfig
	Settlement   SettlementConfig
	FeatureFlags FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"VITALFLEX_APP_ENV" required:"true"`
	Port         string `envconfig:"VITALFLEX_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"VITALFLEX_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"VITALFLEX_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"VITALFLEX_DB_DSN"`
	Driver string `envconfig:"VITALFLEX_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"VITALFLEX_DB_HOST"`
	LegacyPort     int    `envconfig:"VITALFLEX_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"VITALFLEX_DB_USER"`
	LegacyPassword string `envconfig:"VITALFLEX_DB_PASSWORD"`
	LegacyName     string `envconfig:"VITALFLEX_DB_NAME"`
	LegacySSLMode  string `envconfig:"VITALFLEX_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"VITALFLEX_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"VITALFLEX_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"VITALFLEX_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"VITALFLEX_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"VITALFLEX_REDIS_URL" required:"true"`
	Address      string        `envconfig:"VITALFLEX_REDIS_ADDR"`
	Password     string        `envconfig:"VITALFLEX_REDIS_PASSWORD"`
	DB           int           `envconfig:"VITALFLEX_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"VITALFLEX_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"VITALFLEX_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"VITALFLEX_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"VITALFLEX_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"VITALFLEX_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"VITALFLEX_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"VITALFLEX_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"VITALFLEX_JWT_EXPIRATION_MINUTES" default:"60"`
}

// SyncConfig tunes the subscription sync engine.
type SyncConfig struct {
	PollInterval time.Duration `envconfig:"VITALFLEX_SYNC_POLL_INTERVAL" default:"10s"`
	PushEnabled  bool          `envconfig:"VITALFLEX_SYNC_PUSH_ENABLED" default:"true"`
}

// SettlementConfig tunes the simulated payment gateway.
type SettlementConfig struct {
	Delay       time.Duration `envconfig:"VITALFLEX_SETTLEMENT_DELAY" default:"2s"`
	SuccessRate float64       `envconfig:"VITALFLEX_SETTLEMENT_SUCCESS_RATE" default:"0.9"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"VITALFLEX_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"VITALFLEX_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
