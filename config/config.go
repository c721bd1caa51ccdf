package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

// Supported STORE_BACKEND values
const (
	BackendFirestore = "firestore"
	BackendMySQL     = "mysql"
	BackendMemory    = "memory"
)

// Config holds application configuration
type Config struct {
	Database    DatabaseConfig
	Server      ServerConfig
	Store       StoreConfig
	Credentials CredentialsConfig
	Triage      TriageConfig
}

// DatabaseConfig holds database configuration (mysql backend)
type DatabaseConfig struct {
	DatabaseURL  string // DATABASE_URL (e.g. from Render) - takes precedence over individual vars
	Host         string
	Port         string
	User         string
	Password     string
	DBName       string
	PollInterval time.Duration // MYSQL_POLL_INTERVAL_SECONDS: change feed poll interval
}

// ServerConfig holds keep-alive server configuration
type ServerConfig struct {
	Port string
	Host string
}

// StoreConfig selects and addresses the record store
type StoreConfig struct {
	Backend    string // STORE_BACKEND: firestore | mysql | memory
	Collection string // COMPLAINTS_COLLECTION
	ProjectID  string // FIRESTORE_PROJECT_ID: overrides project_id from the service account
}

// CredentialsConfig locates the Firestore service account
type CredentialsConfig struct {
	ServiceAccountJSON string // FIREBASE_SERVICE_ACCOUNT: serialized service account (hosted deployments)
	ServiceAccountFile string // FIREBASE_CREDENTIALS_FILE: local key file
}

// TriageConfig holds triage worker tuning
type TriageConfig struct {
	DryRun               bool          // TRIAGE_DRY_RUN: classify and log without writing
	Workers              int           // TRIAGE_WORKERS: shards for cross-record parallelism (1 = sequential)
	UpdateMaxRetries     int           // UPDATE_MAX_RETRIES: attempts per store write
	UpdateRetryDelay     time.Duration // UPDATE_RETRY_DELAY_MS: base backoff between attempts
	OverdueSweepInterval time.Duration // OVERDUE_SWEEP_INTERVAL_SECONDS: periodic overdue sweep (0 = disabled)
}

// LoadConfig loads configuration from environment variables and validates it.
// Supports DATABASE_URL (for Render) or individual DB_* variables (for local dev).
func LoadConfig() (*Config, error) {
	cfg := &Config{
		Database: DatabaseConfig{
			DatabaseURL:  os.Getenv("DATABASE_URL"),
			Host:         getEnv("DB_HOST", "127.0.0.1"),
			Port:         getEnv("DB_PORT", "3306"),
			User:         os.Getenv("DB_USER"),
			Password:     os.Getenv("DB_PASSWORD"),
			DBName:       os.Getenv("DB_NAME"),
			PollInterval: time.Duration(getEnvInt("MYSQL_POLL_INTERVAL_SECONDS", 5)) * time.Second,
		},
		Server: ServerConfig{
			Host: getEnv("SERVER_HOST", "0.0.0.0"),
			Port: getEnv("PORT", "5000"), // PORT is set by Render/fly.io
		},
		Store: StoreConfig{
			Backend:    strings.ToLower(getEnv("STORE_BACKEND", BackendFirestore)),
			Collection: getEnv("COMPLAINTS_COLLECTION", "complaints"),
			ProjectID:  os.Getenv("FIRESTORE_PROJECT_ID"),
		},
		Credentials: CredentialsConfig{
			ServiceAccountJSON: os.Getenv("FIREBASE_SERVICE_ACCOUNT"),
			ServiceAccountFile: getEnv("FIREBASE_CREDENTIALS_FILE", "serviceAccountKey.json"),
		},
		Triage: TriageConfig{
			DryRun:               getEnvBool("TRIAGE_DRY_RUN", false),
			Workers:              getEnvInt("TRIAGE_WORKERS", 1),
			UpdateMaxRetries:     getEnvInt("UPDATE_MAX_RETRIES", 3),
			UpdateRetryDelay:     time.Duration(getEnvInt("UPDATE_RETRY_DELAY_MS", 500)) * time.Millisecond,
			OverdueSweepInterval: time.Duration(getEnvInt("OVERDUE_SWEEP_INTERVAL_SECONDS", 0)) * time.Second,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that required configuration is present and values are sensible
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendFirestore, BackendMemory:
	case BackendMySQL:
		if c.Database.DatabaseURL == "" && (c.Database.User == "" || c.Database.DBName == "") {
			return &ConfigError{Key: "DB_USER/DB_NAME", Message: "required for the mysql backend unless DATABASE_URL is set"}
		}
		if c.Database.PollInterval <= 0 {
			return &ConfigError{Key: "MYSQL_POLL_INTERVAL_SECONDS", Message: "must be at least 1"}
		}
	default:
		return &ConfigError{Key: "STORE_BACKEND", Message: fmt.Sprintf("unsupported backend %q", c.Store.Backend)}
	}

	if c.Store.Collection == "" {
		return &ConfigError{Key: "COMPLAINTS_COLLECTION", Message: "cannot be empty"}
	}
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return &ConfigError{Key: "PORT", Message: fmt.Sprintf("invalid port %q", c.Server.Port)}
	}
	if c.Triage.Workers < 1 {
		return &ConfigError{Key: "TRIAGE_WORKERS", Message: fmt.Sprintf("must be at least 1, got %d", c.Triage.Workers)}
	}
	if c.Triage.UpdateMaxRetries < 1 {
		return &ConfigError{Key: "UPDATE_MAX_RETRIES", Message: fmt.Sprintf("must be at least 1, got %d", c.Triage.UpdateMaxRetries)}
	}
	if c.Triage.OverdueSweepInterval < 0 {
		return &ConfigError{Key: "OVERDUE_SWEEP_INTERVAL_SECONDS", Message: "cannot be negative"}
	}
	return nil
}

// DSN builds the MySQL data source name. DATABASE_URL may be a mysql:// URL
// or a raw driver DSN; its parameters are kept, but parseTime and UTC are
// always forced because the complaint store scans DATETIME columns.
func (d DatabaseConfig) DSN() (string, error) {
	var cfg *mysql.Config
	switch {
	case d.DatabaseURL == "":
		cfg = mysql.NewConfig()
		cfg.User = d.User
		cfg.Passwd = d.Password
		cfg.Net = "tcp"
		cfg.Addr = net.JoinHostPort(d.Host, d.Port)
		cfg.DBName = d.DBName

	case strings.HasPrefix(d.DatabaseURL, "mysql://"):
		u, err := url.Parse(d.DatabaseURL)
		if err != nil {
			return "", &ConfigError{Key: "DATABASE_URL", Message: "not a valid URL", Err: err}
		}
		host := u.Host
		if u.Port() == "" {
			host = net.JoinHostPort(u.Hostname(), "3306")
		}
		raw := "tcp(" + host + ")/" + strings.TrimPrefix(u.Path, "/")
		if u.RawQuery != "" {
			raw += "?" + u.RawQuery
		}
		if cfg, err = mysql.ParseDSN(raw); err != nil {
			return "", &ConfigError{Key: "DATABASE_URL", Message: "invalid connection parameters", Err: err}
		}
		cfg.User = u.User.Username()
		cfg.Passwd, _ = u.User.Password()

	default:
		parsed, err := mysql.ParseDSN(d.DatabaseURL)
		if err != nil {
			return "", &ConfigError{Key: "DATABASE_URL", Message: "not a valid driver DSN", Err: err}
		}
		cfg = parsed
	}

	cfg.ParseTime = true
	cfg.Loc = time.UTC
	if cfg.Params == nil {
		cfg.Params = make(map[string]string)
	}
	if _, ok := cfg.Params["charset"]; !ok {
		cfg.Params["charset"] = "utf8mb4"
	}
	return cfg.FormatDSN(), nil
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable or returns a default value
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
