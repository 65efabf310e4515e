package config

import (
	"github.com/spf13/viper"
)

// Config holds the runtime configuration, loaded from environment
// variables.
type Config struct {
	Env      string         // Env is the current environment: local, development, production.
	HTTPPort int            // HTTPPort is the port the board API listens on.
	Postgres PostgresConfig // Postgres holds the database configuration.
}

// PostgresConfig struct holds the configuration details for connecting to a
// PostgreSQL database.
type PostgresConfig struct {
	Host     string // Host is the database server address.
	Port     string // Port is the database server port.
	User     string // User is the database user.
	Password string // Password is the database user's password.
	Dbname   string // Dbname is the name of the database.
}

// MustLoad loads the configuration from the environment and panics on
// missing required values. Required: DB_HOST, DB_USERNAME, DB_PASSWORD,
// DB_NAME.
func MustLoad() *Config {
	viper.AutomaticEnv()

	viper.SetDefault("ARGUS_ENV", "local")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("HTTP_PORT", 8080)

	for _, key := range []string{"DB_HOST", "DB_USERNAME", "DB_PASSWORD", "DB_NAME"} {
		if viper.GetString(key) == "" {
			panic("missing required configuration: " + key)
		}
	}

	return &Config{
		Env:      viper.GetString("ARGUS_ENV"),
		HTTPPort: viper.GetInt("HTTP_PORT"),
		Postgres: PostgresConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			User:     viper.GetString("DB_USERNAME"),
			Password: viper.GetString("DB_PASSWORD"),
			Dbname:   viper.GetString("DB_NAME"),
		},
	}
}
