package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// envPrefix lets every key also be set as CIVIC_<KEY>; the bare key is the fallback.
const envPrefix = "civic"

const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Config holds the application configuration.
type Config struct {
	Port     int    `yaml:"port"     envconfig:"PORT"`
	Env      string `yaml:"env"      envconfig:"APP_ENV"`
	LogLevel string `yaml:"logLevel" envconfig:"LOG_LEVEL"`

	DatabaseDriver string `yaml:"databaseDriver" envconfig:"DATABASE_DRIVER"`
	DatabasePath   string `yaml:"databasePath"   envconfig:"DATABASE_PATH"`
	MongoURL       string `yaml:"mongoUrl"       envconfig:"MONGO_URL"`
	MongoDatabase  string `yaml:"mongoDatabase"  envconfig:"MONGO_DATABASE"`

	JWTSecret      string        `yaml:"jwtSecret"      envconfig:"JWT_SECRET"`
	JWTIssuer      string        `yaml:"jwtIssuer"      envconfig:"JWT_ISSUER"`
	AccessTokenTTL time.Duration `yaml:"accessTokenTtl" envconfig:"ACCESS_TOKEN_TTL"`
	BcryptCost     int           `yaml:"bcryptCost"     envconfig:"BCRYPT_COST"`

	GeocoderURL       string        `yaml:"geocoderUrl"       envconfig:"GEOCODER_URL"`
	GeocoderUserAgent string        `yaml:"geocoderUserAgent" envconfig:"GEOCODER_USER_AGENT"`
	GeocoderTimeout   time.Duration `yaml:"geocoderTimeout"   envconfig:"GEOCODER_TIMEOUT"`
	// GeocoderRate is lookups per second; Nominatim's usage policy allows one.
	GeocoderRate float64 `yaml:"geocoderRate" envconfig:"GEOCODER_RATE"`

	CORSOrigins        []string `yaml:"corsOrigins"        envconfig:"CORS_ORIGINS"`
	ScoreAuditSchedule string   `yaml:"scoreAuditSchedule" envconfig:"SCORE_AUDIT_SCHEDULE"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Port:               8080,
		Env:                "development",
		LogLevel:           "info",
		DatabaseDriver:     DriverSQLite,
		DatabasePath:       "./civic.db",
		MongoDatabase:      "civic_innovation_simple",
		JWTIssuer:          "civic-ideas",
		AccessTokenTTL:     30 * time.Minute,
		BcryptCost:         10,
		GeocoderURL:        "https://nominatim.openstreetmap.org/search",
		GeocoderUserAgent:  "CivicIdeaPlatform/1.0",
		GeocoderTimeout:    5 * time.Second,
		GeocoderRate:       1,
		CORSOrigins:        []string{"http://localhost:3000"},
		ScoreAuditSchedule: "@hourly",
	}
}

// Load builds the configuration from defaults, then the YAML file at path
// (if path is non-empty), then a .env file in the working directory, then
// the process environment. Later sources win.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		buf, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(buf, cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	// godotenv never overrides variables that are already set.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error reading .env file: %w", err)
	}

	if err := envconfig.Process(envPrefix, cfg); err != nil {
		return nil, fmt.Errorf("error processing environment: %w", err)
	}

	cfg.DatabaseDriver = strings.ToLower(strings.TrimSpace(cfg.DatabaseDriver))
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d", c.Port)
	}
	if strings.TrimSpace(c.JWTSecret) == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_TTL must be positive, got %s", c.AccessTokenTTL)
	}
	switch c.DatabaseDriver {
	case DriverSQLite:
		if c.DatabasePath == "" {
			return errors.New("DATABASE_PATH is required for the sqlite driver")
		}
	case DriverMongo:
		if c.MongoURL == "" || c.MongoDatabase == "" {
			return errors.New("MONGO_URL and MONGO_DATABASE are required for the mongo driver")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q", c.DatabaseDriver)
	}
	if c.GeocoderRate < 0 {
		return fmt.Errorf("GEOCODER_RATE must not be negative, got %g", c.GeocoderRate)
	}
	return nil
}

// IsDevelopment reports whether human-readable logs and relaxed cookies are wanted.
func (c *Config) IsDevelopment() bool {
	return c.Env == "" || strings.EqualFold(c.Env, "development")
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}
