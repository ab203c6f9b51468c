package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"

	"fleetaudit/internal/audit"
)

// Config holds all configuration for the application.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	NewRelic NewRelicConfig `mapstructure:"newrelic"`
	Log      LogConfig      `mapstructure:"log"`
	Audit    audit.Config   `mapstructure:"audit"`
	Report   ReportConfig   `mapstructure:"report"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig holds PostgreSQL configuration.
type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the lib/pq connection string.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)
}

// RedisConfig holds Redis configuration.
type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
	LockTTL  time.Duration `mapstructure:"lock_ttl"`
}

// NewRelicConfig holds New Relic configuration.
type NewRelicConfig struct {
	AppName    string `mapstructure:"app_name"`
	LicenseKey string `mapstructure:"license_key"`
	Enabled    bool   `mapstructure:"enabled"`
}

// LogConfig controls the logrus logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or text
	Output string `mapstructure:"output"` // stdout, stderr or a file path
}

// ReportConfig configures the S3 report archive.
type ReportConfig struct {
	Bucket string `mapstructure:"bucket"`
	Region string `mapstructure:"region"`
	Prefix string `mapstructure:"prefix"`
}

// Load reads configuration from an optional config.yaml in the working
// directory and FLEET_-prefixed environment variables, e.g.
// FLEET_DATABASE_HOST or FLEET_AUDIT_MIN_DISTANCE_KM.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FLEET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}
	if err := cfg.Audit.Validate(); err != nil {
		return nil, eris.Wrap(err, "config: audit thresholds")
	}

	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.name", "fleet")
	v.SetDefault("database.sslmode", "disable")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.cache_ttl", 60*time.Second)
	v.SetDefault("redis.lock_ttl", 10*time.Second)

	v.SetDefault("newrelic.app_name", "fleet-audit-service")
	v.SetDefault("newrelic.license_key", "")
	v.SetDefault("newrelic.enabled", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	d := audit.DefaultConfig()
	v.SetDefault("audit.min_distance_km", d.MinDistanceKm)
	v.SetDefault("audit.max_distance_km", d.MaxDistanceKm)
	v.SetDefault("audit.max_fuel_cost", d.MaxFuelCost)
	v.SetDefault("audit.photo_required_above", d.PhotoRequiredAbove)
	v.SetDefault("audit.odometer_tolerance_km", d.OdometerToleranceKm)
	v.SetDefault("audit.fuel_price_per_liter", d.FuelPricePerLiter)
	v.SetDefault("audit.max_amount_per_trip", d.MaxAmountPerTrip)
	v.SetDefault("audit.min_fuel_efficiency_kml", d.MinFuelEfficiencyKmL)
	v.SetDefault("audit.max_fuel_efficiency_kml", d.MaxFuelEfficiencyKmL)
	v.SetDefault("audit.max_trips_per_day", d.MaxTripsPerDay)

	v.SetDefault("report.bucket", "")
	v.SetDefault("report.region", "us-east-1")
	v.SetDefault("report.prefix", "audit-reports")
}
