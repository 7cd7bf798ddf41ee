package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server    ServerConfig
	DB        DBConfig
	JWT       JWTConfig
	S3        S3Config
	Log       LogConfig
	CORS      CORSConfig
	Audit     AuditConfig
	Documents DocumentsConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	Environment  string        `mapstructure:"environment"`
}

// DBConfig holds database settings. Driver is "postgres" or "memory".
type DBConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxOpen  int    `mapstructure:"max_open"`
	MaxIdle  int    `mapstructure:"max_idle"`
}

// DSN returns the PostgreSQL connection string.
func (d *DBConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// JWTConfig holds bearer-token validation settings.
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Issuer string `mapstructure:"issuer"`
}

// S3Config holds AWS S3 settings.
type S3Config struct {
	Region        string `mapstructure:"region"`
	Bucket        string `mapstructure:"bucket"`
	Endpoint      string `mapstructure:"endpoint"`
	AccessKey     string `mapstructure:"access_key"`
	SecretKey     string `mapstructure:"secret_key"`
	MaxFileSizeMB int64  `mapstructure:"max_file_size_mb"`
	PresignExpiry int64  `mapstructure:"presign_expiry"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// AuditConfig holds the audit policy and where deferred audit failures are
// reported. NotifyProvider is "noop" or "ses".
type AuditConfig struct {
	ExcludedKinds      []string `mapstructure:"excluded_kinds"`
	MetadataProperties []string `mapstructure:"metadata_properties"`
	NotifyProvider     string   `mapstructure:"notify_provider"`
	NotifyRegion       string   `mapstructure:"notify_region"`
	FromAddress        string   `mapstructure:"from_address"`
	ToAddresses        []string `mapstructure:"to_addresses"`
}

// DocumentsConfig holds document handling settings.
type DocumentsConfig struct {
	// StorName is the short name of the blob store recorded on every document.
	StorName     string        `mapstructure:"stor_name"`
	LockDuration time.Duration `mapstructure:"lock_duration"`
}

// Load reads configuration from environment variables with the DOCSTORE_ prefix.
func Load() (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("DOCSTORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Server defaults
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.environment", "development")

	// DB defaults
	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.user", "docstore")
	v.SetDefault("db.password", "docstore_secret")
	v.SetDefault("db.name", "docstore")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.max_open", 25)
	v.SetDefault("db.max_idle", 10)

	// JWT defaults
	v.SetDefault("jwt.secret", "change-me-in-production")
	v.SetDefault("jwt.issuer", "docstore")

	// S3 defaults
	v.SetDefault("s3.region", "us-east-1")
	v.SetDefault("s3.bucket", "docstore-documents")
	v.SetDefault("s3.endpoint", "")
	v.SetDefault("s3.max_file_size_mb", 100)
	v.SetDefault("s3.presign_expiry", 900)

	// Log defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("cors.allowed_origins", "http://localhost:3000,http://127.0.0.1:3000")

	// Audit defaults
	v.SetDefault("audit.excluded_kinds", "audits,access_logs")
	v.SetDefault("audit.metadata_properties", "Created,LastUpdate,LastViewed")
	v.SetDefault("audit.notify_provider", "noop")
	v.SetDefault("audit.notify_region", "us-east-1")
	v.SetDefault("audit.from_address", "docstore@localhost")
	v.SetDefault("audit.to_addresses", "")

	// Document defaults
	v.SetDefault("documents.stor_name", "s3")
	v.SetDefault("documents.lock_duration", "8h")

	// Bind environment variables explicitly for nested keys
	envBindings := map[string]string{
		"server.port":               "DOCSTORE_SERVER_PORT",
		"server.read_timeout":       "DOCSTORE_SERVER_READ_TIMEOUT",
		"server.write_timeout":      "DOCSTORE_SERVER_WRITE_TIMEOUT",
		"server.environment":        "DOCSTORE_SERVER_ENVIRONMENT",
		"db.driver":                 "DOCSTORE_DB_DRIVER",
		"db.host":                   "DOCSTORE_DB_HOST",
		"db.port":                   "DOCSTORE_DB_PORT",
		"db.user":                   "DOCSTORE_DB_USER",
		"db.password":               "DOCSTORE_DB_PASSWORD",
		"db.name":                   "DOCSTORE_DB_NAME",
		"db.sslmode":                "DOCSTORE_DB_SSLMODE",
		"db.max_open":               "DOCSTORE_DB_MAX_OPEN",
		"db.max_idle":               "DOCSTORE_DB_MAX_IDLE",
		"jwt.secret":                "DOCSTORE_JWT_SECRET",
		"jwt.issuer":                "DOCSTORE_JWT_ISSUER",
		"s3.region":                 "DOCSTORE_S3_REGION",
		"s3.bucket":                 "DOCSTORE_S3_BUCKET",
		"s3.endpoint":               "DOCSTORE_S3_ENDPOINT",
		"s3.access_key":             "DOCSTORE_S3_ACCESS_KEY",
		"s3.secret_key":             "DOCSTORE_S3_SECRET_KEY",
		"s3.max_file_size_mb":       "DOCSTORE_S3_MAX_FILE_SIZE_MB",
		"s3.presign_expiry":         "DOCSTORE_S3_PRESIGN_EXPIRY",
		"log.level":                 "DOCSTORE_LOG_LEVEL",
		"log.format":                "DOCSTORE_LOG_FORMAT",
		"cors.allowed_origins":      "DOCSTORE_CORS_ALLOWED_ORIGINS",
		"audit.excluded_kinds":      "DOCSTORE_AUDIT_EXCLUDED_KINDS",
		"audit.metadata_properties": "DOCSTORE_AUDIT_METADATA_PROPERTIES",
		"audit.notify_provider":     "DOCSTORE_AUDIT_NOTIFY_PROVIDER",
		"audit.notify_region":       "DOCSTORE_AUDIT_NOTIFY_REGION",
		"audit.from_address":        "DOCSTORE_AUDIT_FROM_ADDRESS",
		"audit.to_addresses":        "DOCSTORE_AUDIT_TO_ADDRESSES",
		"documents.stor_name":       "DOCSTORE_DOCUMENTS_STOR_NAME",
		"documents.lock_duration":   "DOCSTORE_DOCUMENTS_LOCK_DURATION",
	}
	for key, env := range envBindings {
		_ = v.BindEnv(key, env)
	}

	cfg := &Config{}

	// Container platforms set PORT. Use it if DOCSTORE_SERVER_PORT is not explicitly set.
	serverPort := v.GetString("server.port")
	if port := os.Getenv("PORT"); port != "" && os.Getenv("DOCSTORE_SERVER_PORT") == "" {
		serverPort = ":" + port
	}

	cfg.Server = ServerConfig{
		Port:         serverPort,
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		Environment:  v.GetString("server.environment"),
	}
	cfg.DB = DBConfig{
		Driver:   strings.ToLower(v.GetString("db.driver")),
		Host:     v.GetString("db.host"),
		Port:     v.GetInt("db.port"),
		User:     v.GetString("db.user"),
		Password: v.GetString("db.password"),
		Name:     v.GetString("db.name"),
		SSLMode:  v.GetString("db.sslmode"),
		MaxOpen:  v.GetInt("db.max_open"),
		MaxIdle:  v.GetInt("db.max_idle"),
	}
	cfg.JWT = JWTConfig{
		Secret: v.GetString("jwt.secret"),
		Issuer: v.GetString("jwt.issuer"),
	}
	cfg.S3 = S3Config{
		Region:        v.GetString("s3.region"),
		Bucket:        v.GetString("s3.bucket"),
		Endpoint:      v.GetString("s3.endpoint"),
		AccessKey:     v.GetString("s3.access_key"),
		SecretKey:     v.GetString("s3.secret_key"),
		MaxFileSizeMB: v.GetInt64("s3.max_file_size_mb"),
		PresignExpiry: v.GetInt64("s3.presign_expiry"),
	}
	cfg.Log = LogConfig{
		Level:  v.GetString("log.level"),
		Format: v.GetString("log.format"),
	}
	cfg.CORS = CORSConfig{
		AllowedOrigins: splitList(v.GetString("cors.allowed_origins")),
	}
	cfg.Audit = AuditConfig{
		ExcludedKinds:      splitList(v.GetString("audit.excluded_kinds")),
		MetadataProperties: splitList(v.GetString("audit.metadata_properties")),
		NotifyProvider:     strings.ToLower(v.GetString("audit.notify_provider")),
		NotifyRegion:       v.GetString("audit.notify_region"),
		FromAddress:        v.GetString("audit.from_address"),
		ToAddresses:        splitList(v.GetString("audit.to_addresses")),
	}
	cfg.Documents = DocumentsConfig{
		StorName:     v.GetString("documents.stor_name"),
		LockDuration: v.GetDuration("documents.lock_duration"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case "postgres", "memory":
	default:
		return fmt.Errorf("config: unknown db driver %q", c.DB.Driver)
	}
	switch c.Audit.NotifyProvider {
	case "noop":
	case "ses":
		if len(c.Audit.ToAddresses) == 0 {
			return fmt.Errorf("config: audit notify provider ses needs at least one to address")
		}
	default:
		return fmt.Errorf("config: unknown audit notify provider %q", c.Audit.NotifyProvider)
	}
	if c.Documents.LockDuration <= 0 {
		return fmt.Errorf("config: documents lock duration must be positive")
	}
	return nil
}

// splitList parses a comma-separated list, dropping blanks.
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	return out
}
