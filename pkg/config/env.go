package config

// EnvPrefix scopes all environment variables consumed by this service.
const EnvPrefix = "ROOMLY"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "ROOMLY_DB_DSN"
	EnvDBHost = "ROOMLY_DB_HOST"
	EnvDBUser = "ROOMLY_DB_USER"
	EnvDBName = "ROOMLY_DB_NAME"
)

var discreteDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
