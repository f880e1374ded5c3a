package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/portaprosoftware/portapro-import/internal/csvparse"
	"github.com/portaprosoftware/portapro-import/internal/db"
	"github.com/portaprosoftware/portapro-import/internal/importer"
)

// Server holds HTTP server settings.
type Server struct {
	Addr         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Config is the full service configuration.
type Config struct {
	Server         Server
	Database       db.Config
	ImportLimits   importer.Limits
	AllowedOrigins []string
}

// Load reads config.yaml from configPath and applies environment
// overrides with the PORTAPRO_ prefix (PORTAPRO_DATABASE_HOST, ...).
// Missing files are not an error; defaults cover every setting.
func Load(configPath string) (Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.SetEnvPrefix("PORTAPRO")
	v.AutomaticEnv()

	v.BindEnv("server.addr")
	v.BindEnv("database.host")
	v.BindEnv("database.port")
	v.BindEnv("database.user")
	v.BindEnv("database.password")
	v.BindEnv("database.dbname")
	v.BindEnv("database.sslmode")
	v.BindEnv("import.max_rows")
	v.BindEnv("import.max_columns")
	v.BindEnv("import.max_body_bytes")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("import.max_rows", csvparse.DefaultMaxRows)
	v.SetDefault("import.max_columns", csvparse.DefaultMaxColumns)
	v.SetDefault("import.max_body_bytes", importer.DefaultMaxBodyBytes)
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})

	cfg := Config{
		Database: db.DefaultConfig(),
	}

	if err := v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return cfg, err
		}
	}

	cfg.Server = Server{
		Addr:         v.GetString("server.addr"),
		ReadTimeout:  v.GetDuration("server.read_timeout"),
		WriteTimeout: v.GetDuration("server.write_timeout"),
		IdleTimeout:  v.GetDuration("server.idle_timeout"),
	}

	if v.IsSet("database.host") {
		cfg.Database.Host = v.GetString("database.host")
	}
	if v.IsSet("database.port") {
		cfg.Database.Port = v.GetInt("database.port")
	}
	if v.IsSet("database.user") {
		cfg.Database.User = v.GetString("database.user")
	}
	if v.IsSet("database.password") {
		cfg.Database.Password = v.GetString("database.password")
	}
	if v.IsSet("database.dbname") {
		cfg.Database.DBName = v.GetString("database.dbname")
	}
	if v.IsSet("database.sslmode") {
		cfg.Database.SSLMode = v.GetString("database.sslmode")
	}

	cfg.ImportLimits = importer.Limits{
		MaxRows:      v.GetInt("import.max_rows"),
		MaxColumns:   v.GetInt("import.max_columns"),
		MaxBodyBytes: v.GetInt64("import.max_body_bytes"),
	}
	cfg.AllowedOrigins = v.GetStringSlice("cors.allowed_origins")

	return cfg, nil
}
