// Package audit classifies trip records against configurable anomaly rules
// and resolves their review status.
package audit

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidConfig is matched by every ConfigError.
var ErrInvalidConfig = errors.New("invalid audit config")

// ConfigError reports a negative or inverted threshold.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("audit config: %s: %s", e.Field, e.Reason)
}

// Is lets errors.Is match ErrInvalidConfig.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Config holds the thresholds used by the rule engine.
// A zero value for an optional threshold disables its rule.
type Config struct {
	MinDistanceKm       float64 `mapstructure:"min_distance_km" json:"min_distance_km"`
	MaxDistanceKm       float64 `mapstructure:"max_distance_km" json:"max_distance_km"`
	MaxFuelCost         float64 `mapstructure:"max_fuel_cost" json:"max_fuel_cost"`
	PhotoRequiredAbove  float64 `mapstructure:"photo_required_above" json:"photo_required_above"`
	OdometerToleranceKm float64 `mapstructure:"odometer_tolerance_km" json:"odometer_tolerance_km"`
	FuelPricePerLiter   float64 `mapstructure:"fuel_price_per_liter" json:"fuel_price_per_liter"`

	// Optional rules.
	MaxAmountPerTrip     float64 `mapstructure:"max_amount_per_trip" json:"max_amount_per_trip"`
	MinFuelEfficiencyKmL float64 `mapstructure:"min_fuel_efficiency_kml" json:"min_fuel_efficiency_kml"`
	MaxFuelEfficiencyKmL float64 `mapstructure:"max_fuel_efficiency_kml" json:"max_fuel_efficiency_kml"`
	MaxTripsPerDay       int     `mapstructure:"max_trips_per_day" json:"max_trips_per_day"`
}

// DefaultConfig returns the canonical thresholds.
func DefaultConfig() Config {
	return Config{
		MinDistanceKm:       5,
		MaxDistanceKm:       300,
		MaxFuelCost:         2500,
		PhotoRequiredAbove:  1000,
		OdometerToleranceKm: 0.01,
		FuelPricePerLiter:   100,
	}
}

// ExtendedConfig returns DefaultConfig with the earnings, fuel efficiency
// and daily trip volume rules switched on.
func ExtendedConfig() Config {
	cfg := DefaultConfig()
	cfg.MaxAmountPerTrip = 5000
	cfg.MinFuelEfficiencyKmL = 8
	cfg.MaxFuelEfficiencyKmL = 25
	cfg.MaxTripsPerDay = 10
	return cfg
}

// Validate rejects negative and inverted thresholds.
func (c Config) Validate() error {
	finite := []struct {
		field string
		value float64
	}{
		{"min_distance_km", c.MinDistanceKm},
		{"max_distance_km", c.MaxDistanceKm},
		{"max_fuel_cost", c.MaxFuelCost},
		{"photo_required_above", c.PhotoRequiredAbove},
		{"odometer_tolerance_km", c.OdometerToleranceKm},
		{"max_amount_per_trip", c.MaxAmountPerTrip},
		{"min_fuel_efficiency_kml", c.MinFuelEfficiencyKmL},
		{"max_fuel_efficiency_kml", c.MaxFuelEfficiencyKmL},
		{"fuel_price_per_liter", c.FuelPricePerLiter},
	}
	for _, f := range finite {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return &ConfigError{Field: f.field, Reason: "must be a finite number"}
		}
	}

	nonNegative := []struct {
		field string
		value float64
	}{
		{"min_distance_km", c.MinDistanceKm},
		{"max_distance_km", c.MaxDistanceKm},
		{"max_fuel_cost", c.MaxFuelCost},
		{"photo_required_above", c.PhotoRequiredAbove},
		{"odometer_tolerance_km", c.OdometerToleranceKm},
		{"max_amount_per_trip", c.MaxAmountPerTrip},
		{"min_fuel_efficiency_kml", c.MinFuelEfficiencyKmL},
		{"max_fuel_efficiency_kml", c.MaxFuelEfficiencyKmL},
		{"max_trips_per_day", float64(c.MaxTripsPerDay)},
	}
	for _, f := range nonNegative {
		if f.value < 0 {
			return &ConfigError{Field: f.field, Reason: "must not be negative"}
		}
	}

	if c.MinDistanceKm > c.MaxDistanceKm {
		return &ConfigError{Field: "min_distance_km", Reason: "greater than max_distance_km"}
	}
	if c.FuelPricePerLiter <= 0 {
		return &ConfigError{Field: "fuel_price_per_liter", Reason: "must be positive"}
	}
	if c.MinFuelEfficiencyKmL > 0 && c.MaxFuelEfficiencyKmL > 0 && c.MinFuelEfficiencyKmL > c.MaxFuelEfficiencyKmL {
		return &ConfigError{Field: "min_fuel_efficiency_kml", Reason: "greater than max_fuel_efficiency_kml"}
	}

	return nil
}
