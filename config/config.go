// Package config loads meetway's runtime tunables from the environment.
package config

import (
	"time"

	"github.com/spf13/viper"

	"meetway.dev/meetway/meet"
)

// Config holds all configuration for the meetway service and CLI.
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Search  SearchConfig
}

// ServerConfig holds HTTP server settings for the httpapi listener.
type ServerConfig struct {
	Host         string        `mapstructure:"SERVER_HOST"`
	Port         int           `mapstructure:"SERVER_PORT"`
	ReadTimeout  time.Duration `mapstructure:"SERVER_READ_TIMEOUT"`
	WriteTimeout time.Duration `mapstructure:"SERVER_WRITE_TIMEOUT"`
	IdleTimeout  time.Duration `mapstructure:"SERVER_IDLE_TIMEOUT"`
	CORSOrigins  []string      `mapstructure:"SERVER_CORS_ORIGINS"`
}

// StorageConfig selects and configures the feed storage backend.
type StorageConfig struct {
	Backend      string `mapstructure:"STORAGE_BACKEND"` // "memory", "sqlite", "postgres"
	SQLiteDir    string `mapstructure:"SQLITE_DIR"`
	SQLiteOnDisk bool   `mapstructure:"SQLITE_ON_DISK"`
	PostgresDSN  string `mapstructure:"POSTGRES_DSN"`
}

// SearchConfig overrides meet.Constants; zero fields fall back to
// meet.DefaultConstants() defaults when Constants() resolves them.
type SearchConfig struct {
	WalkSpeed       float64 `mapstructure:"SEARCH_WALK_SPEED_MPS"`
	MaxWalkTime     int     `mapstructure:"SEARCH_MAX_WALK_TIME_SEC"`
	MaxTrip         int     `mapstructure:"SEARCH_MAX_TRIP_SEC"`
	MinTravel       int     `mapstructure:"SEARCH_MIN_TRAVEL_SEC"`
	MaxInitialWalk  float64 `mapstructure:"SEARCH_MAX_INITIAL_WALK_M"`
	MaxParticipants int     `mapstructure:"SEARCH_MAX_PARTICIPANTS"`
	IterationCap    int     `mapstructure:"SEARCH_ITERATION_CAP"`
}

// ServerAddr returns the HTTP listen address in host:port form.
func (s *ServerConfig) ServerAddr() string {
	if s.Host == "" {
		return ":" + viper.GetString("SERVER_PORT")
	}
	return s.Host + ":" + viper.GetString("SERVER_PORT")
}

// Constants resolves the effective search constants: defaults overridden
// field-by-field by any non-zero value read from the environment.
func (s *SearchConfig) Constants() meet.Constants {
	c := meet.DefaultConstants()
	if s.WalkSpeed != 0 {
		c.WalkSpeed = s.WalkSpeed
	}
	if s.MaxWalkTime != 0 {
		c.MaxWalkTime = s.MaxWalkTime
	}
	if s.WalkSpeed != 0 || s.MaxWalkTime != 0 {
		c.MaxWalkRadius = c.WalkSpeed * float64(c.MaxWalkTime)
	}
	if s.MaxTrip != 0 {
		c.MaxTrip = s.MaxTrip
	}
	if s.MinTravel != 0 {
		c.MinTravel = s.MinTravel
	}
	if s.MaxInitialWalk != 0 {
		c.MaxInitialWalk = s.MaxInitialWalk
	}
	if s.MaxParticipants != 0 {
		c.MaxParticipants = s.MaxParticipants
	}
	if s.IterationCap != 0 {
		c.IterationCap = s.IterationCap
	}
	return c
}

// Load reads configuration from environment variables and a .env file,
// falling back to meetway's defaults where unset.
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	viper.SetDefault("SERVER_HOST", "")
	viper.SetDefault("SERVER_PORT", 8080)
	viper.SetDefault("SERVER_READ_TIMEOUT", "5s")
	viper.SetDefault("SERVER_WRITE_TIMEOUT", "10s")
	viper.SetDefault("SERVER_IDLE_TIMEOUT", "120s")
	viper.SetDefault("SERVER_CORS_ORIGINS", []string{"*"})

	viper.SetDefault("STORAGE_BACKEND", "memory")
	viper.SetDefault("SQLITE_DIR", ".")
	viper.SetDefault("SQLITE_ON_DISK", false)
	viper.SetDefault("POSTGRES_DSN", "")

	viper.SetDefault("SEARCH_WALK_SPEED_MPS", 0.0)
	viper.SetDefault("SEARCH_MAX_WALK_TIME_SEC", 0)
	viper.SetDefault("SEARCH_MAX_TRIP_SEC", 0)
	viper.SetDefault("SEARCH_MIN_TRAVEL_SEC", 0)
	viper.SetDefault("SEARCH_MAX_INITIAL_WALK_M", 0.0)
	viper.SetDefault("SEARCH_MAX_PARTICIPANTS", 0)
	viper.SetDefault("SEARCH_ITERATION_CAP", 0)

	// Absence of a .env file is fine; env vars set by the surrounding
	// shell or a container orchestrator are used instead.
	_ = viper.ReadInConfig()

	cfg := &Config{
		Server: ServerConfig{
			Host:         viper.GetString("SERVER_HOST"),
			Port:         viper.GetInt("SERVER_PORT"),
			ReadTimeout:  viper.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout: viper.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:  viper.GetDuration("SERVER_IDLE_TIMEOUT"),
			CORSOrigins:  viper.GetStringSlice("SERVER_CORS_ORIGINS"),
		},
		Storage: StorageConfig{
			Backend:      viper.GetString("STORAGE_BACKEND"),
			SQLiteDir:    viper.GetString("SQLITE_DIR"),
			SQLiteOnDisk: viper.GetBool("SQLITE_ON_DISK"),
			PostgresDSN:  viper.GetString("POSTGRES_DSN"),
		},
		Search: SearchConfig{
			WalkSpeed:       viper.GetFloat64("SEARCH_WALK_SPEED_MPS"),
			MaxWalkTime:     viper.GetInt("SEARCH_MAX_WALK_TIME_SEC"),
			MaxTrip:         viper.GetInt("SEARCH_MAX_TRIP_SEC"),
			MinTravel:       viper.GetInt("SEARCH_MIN_TRAVEL_SEC"),
			MaxInitialWalk:  viper.GetFloat64("SEARCH_MAX_INITIAL_WALK_M"),
			MaxParticipants: viper.GetInt("SEARCH_MAX_PARTICIPANTS"),
			IterationCap:    viper.GetInt("SEARCH_ITERATION_CAP"),
		},
	}

	return cfg, nil
}
