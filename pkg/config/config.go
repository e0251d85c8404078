// Package config provides configuration management for qadb.
//
// This package has no I/O dependencies (no file operations, no network calls).
// Validation functions may write user-facing warnings via gn.Warn().
//
// # Configuration Sources
//
// Precedence (highest to lowest): CLI flags > env vars > config.yaml > defaults
//
// # Design Principles
//
// - Default config (from New()) is always valid - no validation needed
// - All mutations go through Option functions - the only way to modify Config
// - Invalid options are rejected with gn.Warn() - config remains in valid state
// - ToOptions() converts persistent fields (those in config.yaml)
// - Environment variables match ToOptions() fields exactly
//
// # Persistent vs Runtime Fields
//
// Persistent fields (in ToOptions, config.yaml, and env vars):
//   - Database: url, driver, host, port, user, password, database,
//     ssl_mode, path
//   - Ingest: sentinel
//   - Log: level, format, destination
//   - Server: address
//   - NATS: url, subject
//   - S3: region, endpoint, path_style
//   - Metrics: textfile
//   - General: jobs_number
//
// Runtime-only fields (CLI flags only):
//   - HomeDir (set once at startup)
//
// # Environment Variables
//
// Use QADB_ prefix with underscores for nesting:
//
//	QADB_DATABASE_HOST=localhost
//	QADB_DATABASE_PORT=5432
//	QADB_INGEST_SENTINEL=-1
//	QADB_LOG_LEVEL=info
//
// When QADB_DATABASE_PASSWORD is empty, the PostgreSQL driver reads the
// password from ~/.pgpass (or the file named by PGPASSFILE).
package config

import (
	"runtime"
)

// Config represents the complete qadb configuration.
type Config struct {
	// Database contains connection settings of the QA store.
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`

	// Ingest contains settings of the upsert engine.
	Ingest IngestConfig `mapstructure:"ingest" yaml:"ingest"`

	Log LogConfig `mapstructure:"log" yaml:"log"`

	// Server contains settings of the HTTP ingest API.
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// NATS contains settings of the message-bus listener.
	NATS NATSConfig `mapstructure:"nats" yaml:"nats"`

	// S3 contains settings used to read QA files from object storage.
	S3 S3Config `mapstructure:"s3" yaml:"s3"`

	// Metrics contains settings of Prometheus metrics export.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// JobsNumber is the number of concurrent workers used to read and
	// parse input files. Rows are always written one at a time.
	JobsNumber int `mapstructure:"jobs_number" yaml:"jobs_number"`

	// HomeDir determines where config and logs directories reside.
	// It must be set by CLI during init, there is no default value for it.
	HomeDir string
}

// DatabaseConfig contains connection parameters of the QA store.
type DatabaseConfig struct {
	// URL is a connection string of the form
	// scheme://user@host:port/database. When set, it overrides Driver,
	// Host, Port, User, Database and Path.
	URL string `mapstructure:"url" yaml:"url"`

	// Driver is the storage engine: "postgres" or "sqlite".
	Driver string `mapstructure:"driver" yaml:"driver"`

	// Host is the PostgreSQL server hostname or IP address.
	Host string `mapstructure:"host" yaml:"host"`

	// Port is the PostgreSQL server port number.
	Port int `mapstructure:"port" yaml:"port"`

	// User is the PostgreSQL database username.
	User string `mapstructure:"user" yaml:"user"`

	// Password is the PostgreSQL database password. Empty means
	// the password is taken from ~/.pgpass.
	Password string `mapstructure:"password" yaml:"password"`

	// Database is the PostgreSQL database name to connect to.
	Database string `mapstructure:"database" yaml:"database"`

	// SSLMode specifies the SSL connection mode.
	// Valid values: "disable", "require", "verify-ca", "verify-full"
	SSLMode string `mapstructure:"ssl_mode" yaml:"ssl_mode"`

	// Path is the SQLite database file, ":memory:" for a transient
	// in-memory database.
	Path string `mapstructure:"path" yaml:"path"`
}

// IngestConfig contains settings of the upsert engine.
type IngestConfig struct {
	// Sentinel replaces missing numeric values before they are written.
	// Downstream consumers read it as "not computed".
	Sentinel float64 `mapstructure:"sentinel" yaml:"sentinel"`
}

// LogConfig provides typical settings for application logs.
type LogConfig struct {
	// Format can be 'json', 'text' or 'tint' (user-facing and colored).
	Format string `mapstructure:"format"      yaml:"format"`
	// Level of logging -- 'error', 'warn', 'info', 'debug'
	Level string `mapstructure:"level"       yaml:"level"`
	// Destination can be a log file (to default place), STDERR or STDOUT
	Destination string `mapstructure:"destination" yaml:"destination"`
}

// ServerConfig contains settings of the HTTP ingest API.
type ServerConfig struct {
	// Address to listen on, for example ":8080".
	Address string `mapstructure:"address" yaml:"address"`
}

// NATSConfig contains settings of the NATS listener.
type NATSConfig struct {
	// URL of the NATS server. Empty disables the listener.
	URL string `mapstructure:"url" yaml:"url"`

	// Subject is the prefix of ingest subjects. Rows for a table are
	// published to "<Subject>.<table>".
	Subject string `mapstructure:"subject" yaml:"subject"`
}

// S3Config contains settings used to fetch s3:// inputs.
type S3Config struct {
	// Region of the bucket.
	Region string `mapstructure:"region" yaml:"region"`

	// Endpoint overrides the S3 endpoint (MinIO and similar).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// PathStyle enables path-style addressing.
	PathStyle bool `mapstructure:"path_style" yaml:"path_style"`
}

// MetricsConfig contains settings of Prometheus metrics export.
type MetricsConfig struct {
	// Textfile is a path for node_exporter textfile collector output.
	// Batch commands write their metrics there on exit when it is set.
	Textfile string `mapstructure:"textfile" yaml:"textfile"`
}

// New creates a Config with sensible default values.
// The returned config is always valid and ready to use.
// Default values can be overridden using Option functions via Update().
func New() *Config {
	res := &Config{
		Database: DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			User:     "pfs",
			Database: "qadb",
			SSLMode:  "disable",
			Path:     "qadb.sqlite",
		},
		Ingest: IngestConfig{
			Sentinel: -1,
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
			// for now file is rewritten every time the log starts
			Destination: "file",
		},
		Server: ServerConfig{
			Address: ":8080",
		},
		NATS: NATSConfig{
			Subject: "qadb.ingest",
		},
		S3: S3Config{
			Region: "us-east-1",
		},
		JobsNumber: runtime.NumCPU(),
	}

	return res
}
