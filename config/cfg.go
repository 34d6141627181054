package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	httpapi "github.com/jekabolt/farmgoods-reports/internal/api/http"
	"github.com/jekabolt/farmgoods-reports/internal/auth/jwt"
	"github.com/jekabolt/farmgoods-reports/internal/bucket"
	"github.com/jekabolt/farmgoods-reports/internal/cache"
	"github.com/jekabolt/farmgoods-reports/internal/digest"
	"github.com/jekabolt/farmgoods-reports/internal/docstore"
	"github.com/jekabolt/farmgoods-reports/internal/mail"
	"github.com/jekabolt/farmgoods-reports/internal/report"
	"github.com/jekabolt/farmgoods-reports/internal/store"
	"github.com/jekabolt/farmgoods-reports/log"
	"github.com/spf13/viper"
)

const (
	BackendMySQL    = "mysql"
	BackendDynamoDB = "dynamodb"
)

// StoreConfig selects where snapshots are read from.
type StoreConfig struct {
	Backend string `mapstructure:"backend"`
}

// Config represents the global configuration for the service.
type Config struct {
	Store    StoreConfig     `mapstructure:"store"`
	DB       store.Config    `mapstructure:"mysql"`
	DynamoDB docstore.Config `mapstructure:"dynamodb"`
	Redis    cache.Config    `mapstructure:"redis"`
	Logger   log.Config      `mapstructure:"logger"`
	HTTP     httpapi.Config  `mapstructure:"http"`
	Auth     jwt.Config      `mapstructure:"auth"`
	Bucket   bucket.Config   `mapstructure:"bucket"`
	Mailer   mail.Config     `mapstructure:"mailer"`
	Digest   digest.Config   `mapstructure:"digest"`
	Reports  report.Config   `mapstructure:"reports"`
}

// LoadConfig loads the configuration from a file and/or environment variables.
// Environment variables take precedence over config file values and a .env
// file in the working directory is loaded first when present.
// Nested config keys use double underscore, e.g., MYSQL__DSN for mysql.dsn
func LoadConfig(cfgFile string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %v", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	setDefaults(v)

	v.AutomaticEnv()
	// e.g., mysql.dsn -> MYSQL__DSN, auth.jwt_secret -> AUTH__JWT_SECRET
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "__", "-", "__"))
	bindEnvVars(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %v", err)
			}
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/config/farm-reports")
		v.AddConfigPath("/etc/farm-reports")
		// optional
		_ = v.ReadInConfig()
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config into struct: %v", err)
	}

	// MySQL DSN from individual env vars when the DSN itself is not set
	if config.DB.DSN == "" {
		if host := os.Getenv("MYSQL_HOST"); host != "" {
			port := os.Getenv("MYSQL_PORT")
			if port == "" {
				port = "3306"
			}
			user, password, database := os.Getenv("MYSQL_USER"), os.Getenv("MYSQL_PASSWORD"), os.Getenv("MYSQL_DATABASE")
			if user != "" && password != "" && database != "" {
				config.DB.DSN = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8&parseTime=true",
					user, password, host, port, database)
			}
		}
	}

	if err := config.validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

func (c *Config) validate() error {
	c.Store.Backend = strings.ToLower(strings.TrimSpace(c.Store.Backend))
	switch c.Store.Backend {
	case BackendMySQL, BackendDynamoDB:
	default:
		return fmt.Errorf("unknown store backend %q", c.Store.Backend)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	d := digest.DefaultConfig()
	v.SetDefault("store.backend", BackendMySQL)
	v.SetDefault("mysql.max_open_connections", 10)
	v.SetDefault("mysql.max_idle_connections", 5)
	v.SetDefault("logger.level", 0)
	v.SetDefault("http.port", "8081")
	v.SetDefault("http.request_timeout", 2*time.Minute)
	v.SetDefault("auth.jwt_ttl", jwt.DefaultTTL)
	v.SetDefault("redis.ttl", cache.DefaultTTL)
	v.SetDefault("digest.worker_interval", d.WorkerInterval)
	v.SetDefault("digest.report_type", d.ReportType)
	v.SetDefault("reports.fetch_timeout", 30*time.Second)
}

// bindEnvVars binds environment variables to config keys
// This allows using both nested keys (MYSQL__DSN) and flat keys (MYSQL_DSN)
func bindEnvVars(v *viper.Viper) {
	bind := func(key, env string) {
		_ = v.BindEnv(key, env)
	}

	bind("store.backend", "STORE_BACKEND")

	// MySQL
	bind("mysql.dsn", "MYSQL_DSN")
	bind("mysql.automigrate", "MYSQL_AUTOMIGRATE")
	bind("mysql.max_open_connections", "MYSQL_MAX_OPEN_CONNECTIONS")
	bind("mysql.max_idle_connections", "MYSQL_MAX_IDLE_CONNECTIONS")
	bind("mysql.tls_ca_path", "MYSQL_TLS_CA_PATH")

	// DynamoDB
	bind("dynamodb.region", "DYNAMODB_REGION")
	bind("dynamodb.endpoint", "DYNAMODB_ENDPOINT")
	bind("dynamodb.access_key_id", "DYNAMODB_ACCESS_KEY_ID")
	bind("dynamodb.secret_access_key", "DYNAMODB_SECRET_ACCESS_KEY")
	bind("dynamodb.orders_table", "DYNAMODB_ORDERS_TABLE")
	bind("dynamodb.products_table", "DYNAMODB_PRODUCTS_TABLE")
	bind("dynamodb.customers_table", "DYNAMODB_CUSTOMERS_TABLE")

	// Redis
	bind("redis.addr", "REDIS_ADDR")
	bind("redis.password", "REDIS_PASSWORD")
	bind("redis.db", "REDIS_DB")
	bind("redis.ttl", "REDIS_TTL")

	// Logger
	bind("logger.level", "LOG_LEVEL")
	bind("logger.add_source", "LOG_ADD_SOURCE")

	// HTTP
	bind("http.port", "HTTP_PORT")
	bind("http.address", "HTTP_ADDRESS")
	bind("http.allowed_origins", "HTTP_ALLOWED_ORIGINS")
	bind("http.request_timeout", "HTTP_REQUEST_TIMEOUT")
	bind("http.generate_limit", "HTTP_GENERATE_LIMIT")

	// Auth
	bind("auth.jwt_secret", "AUTH_JWT_SECRET")
	bind("auth.jwt_ttl", "AUTH_JWT_TTL")

	// Bucket
	bind("bucket.s3AccessKey", "BUCKET_S3_ACCESS_KEY")
	bind("bucket.s3SecretAccessKey", "BUCKET_S3_SECRET_ACCESS_KEY")
	bind("bucket.s3Endpoint", "BUCKET_S3_ENDPOINT")
	bind("bucket.s3BucketName", "BUCKET_S3_BUCKET_NAME")
	bind("bucket.s3BucketLocation", "BUCKET_S3_BUCKET_LOCATION")
	bind("bucket.baseFolder", "BUCKET_BASE_FOLDER")
	bind("bucket.subdomainEndpoint", "BUCKET_SUBDOMAIN_ENDPOINT")

	// Mailer
	bind("mailer.sendgrid_api_key", "MAILER_SENDGRID_API_KEY")
	bind("mailer.from_email", "MAILER_FROM_EMAIL")
	bind("mailer.from_email_name", "MAILER_FROM_EMAIL_NAME")
	bind("mailer.reply_to", "MAILER_REPLY_TO")

	// Digest
	bind("digest.worker_interval", "DIGEST_WORKER_INTERVAL")
	bind("digest.recipients", "DIGEST_RECIPIENTS")
	bind("digest.report_type", "DIGEST_REPORT_TYPE")
	bind("digest.upload", "DIGEST_UPLOAD")

	// Reports
	bind("reports.fetch_timeout", "REPORTS_FETCH_TIMEOUT")
	bind("reports.top_n", "REPORTS_TOP_N")
	bind("reports.timezone", "REPORTS_TIMEZONE")
	bind("reports.assumptions.profit_margin", "REPORTS_PROFIT_MARGIN")
	bind("reports.assumptions.cogs_ratio", "REPORTS_COGS_RATIO")
}
