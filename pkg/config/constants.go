package config

const (
	EnvPrefix = "MAKERSNEARBY"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv       = "MAKERSNEARBY_APP_ENV"
	EnvPort         = "MAKERSNEARBY_APP_PORT"
	EnvDBDSN        = "MAKERSNEARBY_DB_DSN"
	EnvDBHost       = "MAKERSNEARBY_DB_HOST"
	EnvDBUser       = "MAKERSNEARBY_DB_USER"
	EnvDBName       = "MAKERSNEARBY_DB_NAME"
	EnvRedisURL     = "MAKERSNEARBY_REDIS_URL"
	EnvGCPProjectID = "MAKERSNEARBY_GCP_PROJECT_ID"
	EnvGCSBucket    = "MAKERSNEARBY_GCS_BUCKET_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
