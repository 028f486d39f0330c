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
	Service      ServiceConfig
	DB           DBConfig
	Redis        RedisConfig
	FeatureFlags FeatureFlagsConfig
	GCP          GCPConfig
	GCS          GCSConfig
	Media        MediaConfig
	Gallery      GalleryConfig
	Autosave     AutosaveConfig
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
	Env          string `envconfig:"MAKERSNEARBY_APP_ENV" required:"true"`
	Port         string `envconfig:"MAKERSNEARBY_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MAKERSNEARBY_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MAKERSNEARBY_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MAKERSNEARBY_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MAKERSNEARBY_DB_DSN"`
	Driver string `envconfig:"MAKERSNEARBY_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MAKERSNEARBY_DB_HOST"`
	LegacyPort     int    `envconfig:"MAKERSNEARBY_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MAKERSNEARBY_DB_USER"`
	LegacyPassword string `envconfig:"MAKERSNEARBY_DB_PASSWORD"`
	LegacyName     string `envconfig:"MAKERSNEARBY_DB_NAME"`
	LegacySSLMode  string `envconfig:"MAKERSNEARBY_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MAKERSNEARBY_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MAKERSNEARBY_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MAKERSNEARBY_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MAKERSNEARBY_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MAKERSNEARBY_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MAKERSNEARBY_REDIS_ADDR"`
	Password     string        `envconfig:"MAKERSNEARBY_REDIS_PASSWORD"`
	DB           int           `envconfig:"MAKERSNEARBY_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MAKERSNEARBY_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MAKERSNEARBY_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MAKERSNEARBY_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MAKERSNEARBY_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MAKERSNEARBY_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type FeatureFlagsConfig struct {
	AutoMigrate bool `envconfig:"MAKERSNEARBY_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"MAKERSNEARBY_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"MAKERSNEARBY_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"MAKERSNEARBY_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"MAKERSNEARBY_GCS_BUCKET_NAME" required:"true"`
}

type MediaConfig struct {
	MaxUploadMB    int     `envconfig:"MAKERSNEARBY_MAX_UPLOAD_MB" default:"20"`
	ImageMaxWidth  int     `envconfig:"MAKERSNEARBY_MEDIA_IMAGE_MAX_WIDTH" default:"1920"`
	ImageMaxHeight int     `envconfig:"MAKERSNEARBY_MEDIA_IMAGE_MAX_HEIGHT" default:"1080"`
	ImageQuality   int     `envconfig:"MAKERSNEARBY_MEDIA_IMAGE_QUALITY" default:"80"`
	MinZoom        float64 `envconfig:"MAKERSNEARBY_MEDIA_MIN_ZOOM" default:"1.0"`
	MaxZoom        float64 `envconfig:"MAKERSNEARBY_MEDIA_MAX_ZOOM" default:"3.0"`
}

type GalleryConfig struct {
	FeaturedCap int `envconfig:"MAKERSNEARBY_GALLERY_FEATURED_CAP" default:"3"`
	MinImages   int `envconfig:"MAKERSNEARBY_GALLERY_MIN_IMAGES" default:"3"`
}

type AutosaveConfig struct {
	QuietPeriod time.Duration `envconfig:"MAKERSNEARBY_AUTOSAVE_QUIET_PERIOD" default:"1s"`
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
