// Package ioconfig loads qadb configuration from config.yaml and QADB_*
// environment variables.
// This is an impure package that handles file system operations.
package ioconfig

import (
	"errors"
	"os"
	"strings"

	"github.com/Subaru-PFS/qadb/internal/iofs"
	"github.com/Subaru-PFS/qadb/pkg/config"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of environment variables read by qadb.
const EnvPrefix = "QADB"

// Load returns configuration built from defaults, config.yaml found
// under homeDir and environment variables, in increasing order of
// precedence. A missing config file is not an error. Invalid values are
// reported with warnings and leave the defaults in place.
func Load(homeDir string) (*config.Config, error) {
	v := viper.New()
	setDefaults(v, config.New())
	initEnvVars(v)

	if homeDir != "" {
		cfgPath := config.ConfigFilePath(homeDir)
		_, err := os.Stat(cfgPath)
		switch {
		case err == nil:
			v.SetConfigFile(cfgPath)
			if err = v.ReadInConfig(); err != nil {
				return nil, iofs.ReadFileError(cfgPath, err)
			}
		case !errors.Is(err, os.ErrNotExist):
			return nil, iofs.ReadFileError(cfgPath, err)
		}
	}

	var fromViper config.Config
	if err := v.Unmarshal(&fromViper); err != nil {
		return nil, iofs.ReadFileError(v.ConfigFileUsed(), err)
	}

	res := config.New()
	res.Update(fromViper.ToOptions())
	if homeDir != "" {
		res.Update([]config.Option{config.OptHomeDir(homeDir)})
	}
	return res, nil
}

// setDefaults registers every persistent key, so values absent from
// config.yaml keep their defaults and env variables are seen by
// Unmarshal.
func setDefaults(v *viper.Viper, d *config.Config) {
	v.SetDefault("database.url", d.Database.URL)
	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.database", d.Database.Database)
	v.SetDefault("database.ssl_mode", d.Database.SSLMode)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("ingest.sentinel", d.Ingest.Sentinel)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.destination", d.Log.Destination)
	v.SetDefault("server.address", d.Server.Address)
	v.SetDefault("nats.url", d.NATS.URL)
	v.SetDefault("nats.subject", d.NATS.Subject)
	v.SetDefault("s3.region", d.S3.Region)
	v.SetDefault("s3.endpoint", d.S3.Endpoint)
	v.SetDefault("s3.path_style", d.S3.PathStyle)
	v.SetDefault("metrics.textfile", d.Metrics.Textfile)
	v.SetDefault("jobs_number", d.JobsNumber)
}

func initEnvVars(v *viper.Viper) {
	// Set environment variables we want.
	// We set them manually so we can see clearly which env variables are allowed.
	// These match the fields included in config.ToOptions() - i.e., persistent
	// configuration that can be stored in config.yaml.
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Database configuration
	_ = v.BindEnv("database.url", "QADB_DATABASE_URL")
	_ = v.BindEnv("database.driver", "QADB_DATABASE_DRIVER")
	_ = v.BindEnv("database.host", "QADB_DATABASE_HOST")
	_ = v.BindEnv("database.port", "QADB_DATABASE_PORT")
	_ = v.BindEnv("database.user", "QADB_DATABASE_USER")
	_ = v.BindEnv("database.password", "QADB_DATABASE_PASSWORD")
	_ = v.BindEnv("database.database", "QADB_DATABASE_DATABASE")
	_ = v.BindEnv("database.ssl_mode", "QADB_DATABASE_SSL_MODE")
	_ = v.BindEnv("database.path", "QADB_DATABASE_PATH")

	// Ingest configuration
	_ = v.BindEnv("ingest.sentinel", "QADB_INGEST_SENTINEL")

	// Log configuration
	_ = v.BindEnv("log.level", "QADB_LOG_LEVEL")
	_ = v.BindEnv("log.format", "QADB_LOG_FORMAT")
	_ = v.BindEnv("log.destination", "QADB_LOG_DESTINATION")

	// Services
	_ = v.BindEnv("server.address", "QADB_SERVER_ADDRESS")
	_ = v.BindEnv("nats.url", "QADB_NATS_URL")
	_ = v.BindEnv("nats.subject", "QADB_NATS_SUBJECT")
	_ = v.BindEnv("s3.region", "QADB_S3_REGION")
	_ = v.BindEnv("s3.endpoint", "QADB_S3_ENDPOINT")
	_ = v.BindEnv("s3.path_style", "QADB_S3_PATH_STYLE")
	_ = v.BindEnv("metrics.textfile", "QADB_METRICS_TEXTFILE")

	// General configuration
	_ = v.BindEnv("jobs_number", "QADB_JOBS_NUMBER")
}
