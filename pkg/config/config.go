package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App      AppConfig
	DB       DBConfig
	Redis    RedisConfig
	JWT      JWTConfig
	GCP      GCPConfig
	PubSub   PubSubConfig
	Expo     ExpoConfig
	Dispatch DispatchConfig
	Eventing EventingConfig
	Features FeatureFlags
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
	Env          string `envconfig:"ROOMLY_APP_ENV" required:"true"`
	Port         string `envconfig:"ROOMLY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"ROOMLY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"ROOMLY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"ROOMLY_DB_DSN"`
	Driver string `envconfig:"ROOMLY_DB_DRIVER" default:"postgres"`

	Host     string `envconfig:"ROOMLY_DB_HOST"`
	Port     int    `envconfig:"ROOMLY_DB_PORT" default:"5432"`
	User     string `envconfig:"ROOMLY_DB_USER"`
	Password string `envconfig:"ROOMLY_DB_PASSWORD"`
	Name     string `envconfig:"ROOMLY_DB_NAME"`
	SSLMode  string `envconfig:"ROOMLY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"ROOMLY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"ROOMLY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"ROOMLY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"ROOMLY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"ROOMLY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"ROOMLY_REDIS_ADDR"`
	Password     string        `envconfig:"ROOMLY_REDIS_PASSWORD"`
	DB           int           `envconfig:"ROOMLY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"ROOMLY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"ROOMLY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"ROOMLY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"ROOMLY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"ROOMLY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"ROOMLY_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"ROOMLY_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"ROOMLY_JWT_EXPIRATION_MINUTES" default:"60"`
}

type GCPConfig struct {
	ProjectID       string `envconfig:"ROOMLY_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON string `envconfig:"ROOMLY_GCP_CREDENTIALS_JSON"`
}

type PubSubConfig struct {
	NotificationTopic        string `envconfig:"ROOMLY_PUBSUB_NOTIFICATION_TOPIC" default:"roomly-notification-events"`
	NotificationSubscription string `envconfig:"ROOMLY_PUBSUB_NOTIFICATION_SUBSCRIPTION" required:"true"`
}

type ExpoConfig struct {
	URL         string        `envconfig:"ROOMLY_EXPO_PUSH_URL" default:"https://exp.host/--/api/v2/push/send"`
	AccessToken string        `envconfig:"ROOMLY_EXPO_ACCESS_TOKEN"`
	Timeout     time.Duration `envconfig:"ROOMLY_EXPO_TIMEOUT" default:"15s"`
}

type DispatchConfig struct {
	MaxInFlight int    `envconfig:"ROOMLY_DISPATCH_MAX_IN_FLIGHT" default:"8"`
	ChannelID   string `envconfig:"ROOMLY_DISPATCH_CHANNEL_ID" default:"default"`
}

type EventingConfig struct {
	IdempotencyTTL time.Duration `envconfig:"ROOMLY_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type FeatureFlags struct {
	AutoMigrate bool `envconfig:"ROOMLY_FEATURE_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	values := map[string]string{
		EnvDBHost: db.Host,
		EnvDBUser: db.User,
		EnvDBName: db.Name,
	}
	for _, env := range discreteDBEnvVars {
		if values[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.User)
	if db.Password != "" {
		userInfo = url.UserPassword(db.User, db.Password)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.Host, db.Port),
		Path:   db.Name,
	}

	if db.SSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.SSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
