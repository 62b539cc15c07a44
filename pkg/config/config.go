// Package config loads service settings with viper from defaults, an optional
// config file and PPI_* environment variables.
package config

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/natefinch/lumberjack"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"github.com/gilchrisn/ppi-network-service/pkg/centrality"
	"github.com/gilchrisn/ppi-network-service/pkg/fetcher"
	"github.com/gilchrisn/ppi-network-service/pkg/models"
)

// EnvPrefix is prepended to every environment override, e.g. PPI_LOG_LEVEL
const EnvPrefix = "PPI"

// Config manages service configuration using Viper
type Config struct {
	v *viper.Viper
}

// NewConfig creates a new configuration with defaults
func NewConfig() *Config {
	v := viper.New()

	// Server
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)
	v.SetDefault("server.shutdown_timeout", 30*time.Second)

	// Providers
	v.SetDefault("biogrid.base_url", "https://webservice.thebiogrid.org")
	v.SetDefault("biogrid.access_key", "")
	v.SetDefault("string.base_url", "https://string-db.org")
	v.SetDefault("fetch.organism", models.OrganismHuman)
	v.SetDefault("fetch.timeout", time.Duration(0))

	// Centrality
	v.SetDefault("centrality.max_iterations", centrality.DefaultMaxIterations)
	v.SetDefault("centrality.tolerance", centrality.DefaultTolerance)
	v.SetDefault("centrality.damping", centrality.DefaultDampingFactor)

	// Logging
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_age_days", 30)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return &Config{v: v}
}

// LoadFromFile loads configuration from file
func (c *Config) LoadFromFile(path string) error {
	c.v.SetConfigFile(path)
	return c.v.ReadInConfig()
}

// Getters for server parameters
func (c *Config) ServerAddress() string          { return c.v.GetString("server.address") }
func (c *Config) ReadTimeout() time.Duration     { return c.v.GetDuration("server.read_timeout") }
func (c *Config) WriteTimeout() time.Duration    { return c.v.GetDuration("server.write_timeout") }
func (c *Config) ShutdownTimeout() time.Duration { return c.v.GetDuration("server.shutdown_timeout") }

// Getters for provider parameters
func (c *Config) BioGRIDBaseURL() string      { return c.v.GetString("biogrid.base_url") }
func (c *Config) BioGRIDAccessKey() string    { return c.v.GetString("biogrid.access_key") }
func (c *Config) STRINGBaseURL() string       { return c.v.GetString("string.base_url") }
func (c *Config) Organism() int               { return c.v.GetInt("fetch.organism") }
func (c *Config) FetchTimeout() time.Duration { return c.v.GetDuration("fetch.timeout") }

// Getters for centrality parameters
func (c *Config) MaxIterations() int     { return c.v.GetInt("centrality.max_iterations") }
func (c *Config) Tolerance() float64     { return c.v.GetFloat64("centrality.tolerance") }
func (c *Config) DampingFactor() float64 { return c.v.GetFloat64("centrality.damping") }

// Getters for logging parameters
func (c *Config) LogLevel() string  { return c.v.GetString("log.level") }
func (c *Config) LogFormat() string { return c.v.GetString("log.format") }
func (c *Config) LogFile() string   { return c.v.GetString("log.file") }
func (c *Config) LogMaxSize() int   { return c.v.GetInt("log.max_size_mb") }
func (c *Config) LogMaxAge() int    { return c.v.GetInt("log.max_age_days") }

// Set allows dynamic configuration changes
func (c *Config) Set(key string, value interface{}) {
	c.v.Set(key, value)
}

// CentralityOptions returns engine options; out-of-range values fall back to defaults
func (c *Config) CentralityOptions() centrality.Options {
	opts := centrality.Options{
		EigenvectorMaxIterations: c.MaxIterations(),
		EigenvectorTolerance:     c.Tolerance(),
		DampingFactor:            c.DampingFactor(),
		PageRankMaxIterations:    centrality.DefaultPageRankIterations,
		PageRankTolerance:        c.Tolerance(),
	}
	opts.Validate()
	return opts
}

// HTTPClient returns the client used for provider requests. A zero
// fetch.timeout leaves requests bounded only by their context.
func (c *Config) HTTPClient() *http.Client {
	return &http.Client{Timeout: c.FetchTimeout()}
}

// Providers returns the configured interaction databases
func (c *Config) Providers() []fetcher.Provider {
	return []fetcher.Provider{
		&fetcher.BioGRIDProvider{
			BaseURL:   c.BioGRIDBaseURL(),
			AccessKey: c.BioGRIDAccessKey(),
			Organism:  c.Organism(),
		},
		&fetcher.STRINGProvider{
			BaseURL:  c.STRINGBaseURL(),
			Organism: c.Organism(),
		},
	}
}

// CreateLogger creates a zerolog logger based on config
func (c *Config) CreateLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(c.LogLevel())
	if err != nil {
		level = zerolog.InfoLevel
	}

	return zerolog.New(c.logWriter()).Level(level).With().Timestamp().Str("service", "ppi").Logger()
}

// SetupLogging installs CreateLogger as the global zerolog logger
func (c *Config) SetupLogging() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = c.CreateLogger()
}

func (c *Config) logWriter() io.Writer {
	var out io.Writer = os.Stderr
	if c.LogFile() != "" {
		out = &lumberjack.Logger{
			Filename: c.LogFile(),
			MaxSize:  c.LogMaxSize(), // megabytes
			MaxAge:   c.LogMaxAge(),  // days
		}
	}

	if strings.EqualFold(c.LogFormat(), "json") {
		return out
	}
	return zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		NoColor:    c.LogFile() != "",
	}
}
