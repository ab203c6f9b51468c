package audit

import (
	"fmt"
	"math"

	"fleetaudit/internal/domain"
)

// check inspects one trip and returns an anomaly, or nil when the rule does not fire.
type check func(trip *domain.Trip, cfg Config) *Anomaly

// checks run in declaration order; Evaluate preserves that order in its output.
var checks = []check{
	checkVeryLowDistance,
	checkHighDistance,
	checkHighFuelUsage,
	checkMissingPhoto,
	checkOdometerMismatch,
	checkUnusualEarnings,
	checkFuelEfficiency,
}

// Evaluate runs every single-trip rule against trip and returns the anomalies
// that fired. The trip must pass Validate; cfg must pass Config.Validate.
func Evaluate(trip *domain.Trip, cfg Config) ([]Anomaly, error) {
	if err := trip.Validate(); err != nil {
		return nil, err
	}

	anomalies := []Anomaly{}
	for _, c := range checks {
		if a := c(trip, cfg); a != nil {
			anomalies = append(anomalies, *a)
		}
	}
	return anomalies, nil
}

// Engine evaluates trips against a validated default config.
type Engine struct {
	cfg Config
}

// NewEngine creates an Engine, rejecting an invalid config.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg}, nil
}

// Config returns the engine's default thresholds.
func (e *Engine) Config() Config {
	return e.cfg
}

// Evaluate classifies trip against the engine's default config.
func (e *Engine) Evaluate(trip *domain.Trip) ([]Anomaly, error) {
	return Evaluate(trip, e.cfg)
}

// EvaluateWith classifies trip against a per-call override.
func (e *Engine) EvaluateWith(trip *domain.Trip, cfg Config) ([]Anomaly, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return Evaluate(trip, cfg)
}

func checkVeryLowDistance(trip *domain.Trip, cfg Config) *Anomaly {
	if trip.DistanceKm >= cfg.MinDistanceKm {
		return nil
	}
	return &Anomaly{
		Type:           TypeDistance,
		Rule:           RuleVeryLowDistance,
		Severity:       SeverityMedium,
		Description:    fmt.Sprintf("Very low distance: %gkm (minimum %gkm)", trip.DistanceKm, cfg.MinDistanceKm),
		Value:          num(trip.DistanceKm),
		Threshold:      num(cfg.MinDistanceKm),
		Recommendation: "Confirm the trip was completed and the distance was entered correctly.",
	}
}

func checkHighDistance(trip *domain.Trip, cfg Config) *Anomaly {
	if trip.DistanceKm <= cfg.MaxDistanceKm {
		return nil
	}
	return &Anomaly{
		Type:           TypeDistance,
		Rule:           RuleHighDistance,
		Severity:       SeverityMedium,
		Description:    fmt.Sprintf("Unusually high distance: %gkm (maximum %gkm)", trip.DistanceKm, cfg.MaxDistanceKm),
		Value:          num(trip.DistanceKm),
		Threshold:      num(cfg.MaxDistanceKm),
		Recommendation: "Check the route and odometer readings for this trip.",
	}
}

// checkHighFuelUsage only fires on a recorded fuel cost; an unrecorded cost is not evidence of overuse.
func checkHighFuelUsage(trip *domain.Trip, cfg Config) *Anomaly {
	if !trip.HasFuelCost() || *trip.FuelCost <= cfg.MaxFuelCost {
		return nil
	}
	return &Anomaly{
		Type:           TypeHighFuelUsage,
		Rule:           RuleHighFuelUsage,
		Severity:       SeverityHigh,
		Description:    fmt.Sprintf("Fuel cost of %g for %gkm trip exceeds %g", *trip.FuelCost, trip.DistanceKm, cfg.MaxFuelCost),
		Value:          num(*trip.FuelCost),
		Threshold:      num(cfg.MaxFuelCost),
		Recommendation: "Verify the fuel receipt and compare against the vehicle's usual consumption.",
	}
}

// checkMissingPhoto escalates to the high-value rule instead of reporting the photo twice.
func checkMissingPhoto(trip *domain.Trip, cfg Config) *Anomaly {
	if trip.HasPhoto() {
		return nil
	}
	if trip.AmountOrZero() > cfg.PhotoRequiredAbove {
		return &Anomaly{
			Type:           TypeMissingPhoto,
			Rule:           RuleHighValueMissingPhoto,
			Severity:       SeverityMedium,
			Description:    fmt.Sprintf("High-value trip (%g) without dashboard photo", trip.AmountOrZero()),
			Value:          num(trip.AmountOrZero()),
			Threshold:      num(cfg.PhotoRequiredAbove),
			Recommendation: "Request the dashboard photo before approving payment for this trip.",
		}
	}
	return &Anomaly{
		Type:           TypeMissingPhoto,
		Rule:           RuleMissingPhoto,
		Severity:       SeverityMedium,
		Description:    "Missing dashboard photo",
		Recommendation: "Ask the driver to upload the odometer photo.",
	}
}

func checkOdometerMismatch(trip *domain.Trip, cfg Config) *Anomaly {
	if trip.StartOdometer == nil || trip.EndOdometer == nil {
		return nil
	}
	recorded := *trip.EndOdometer - *trip.StartOdometer
	if math.Abs(recorded-trip.DistanceKm) <= cfg.OdometerToleranceKm {
		return nil
	}
	return &Anomaly{
		Type:           TypeDistance,
		Rule:           RuleOdometerMismatch,
		Severity:       SeverityMedium,
		Description:    fmt.Sprintf("Odometer shows %gkm but trip records %gkm", recorded, trip.DistanceKm),
		Value:          num(recorded),
		Threshold:      num(trip.DistanceKm),
		Recommendation: "Reconcile the odometer readings with the recorded distance.",
	}
}

func checkUnusualEarnings(trip *domain.Trip, cfg Config) *Anomaly {
	if cfg.MaxAmountPerTrip <= 0 || trip.AmountOrZero() <= cfg.MaxAmountPerTrip {
		return nil
	}
	return &Anomaly{
		Type:           TypeUnusualEarnings,
		Rule:           RuleUnusualEarnings,
		Severity:       SeverityMedium,
		Description:    fmt.Sprintf("Trip amount %g exceeds %g", trip.AmountOrZero(), cfg.MaxAmountPerTrip),
		Value:          num(trip.AmountOrZero()),
		Threshold:      num(cfg.MaxAmountPerTrip),
		Recommendation: "Confirm the fare with the platform statement.",
	}
}

func checkFuelEfficiency(trip *domain.Trip, cfg Config) *Anomaly {
	if cfg.MinFuelEfficiencyKmL <= 0 && cfg.MaxFuelEfficiencyKmL <= 0 {
		return nil
	}
	kml, ok := KmPerLiter(trip, cfg.FuelPricePerLiter)
	if !ok {
		return nil
	}

	var threshold float64
	switch {
	case cfg.MinFuelEfficiencyKmL > 0 && kml < cfg.MinFuelEfficiencyKmL:
		threshold = cfg.MinFuelEfficiencyKmL
	case cfg.MaxFuelEfficiencyKmL > 0 && kml > cfg.MaxFuelEfficiencyKmL:
		threshold = cfg.MaxFuelEfficiencyKmL
	default:
		return nil
	}

	return &Anomaly{
		Type:           TypeFuelEfficiency,
		Rule:           RuleFuelEfficiency,
		Severity:       SeverityLow,
		Description:    fmt.Sprintf("Fuel efficiency of %.1f km/l is outside %g-%g km/l", kml, cfg.MinFuelEfficiencyKmL, cfg.MaxFuelEfficiencyKmL),
		Value:          num(kml),
		Threshold:      num(threshold),
		Recommendation: "Compare fuel cost against distance and check for fuel card misuse.",
	}
}

// KmPerLiter derives fuel efficiency from cost at the given price per liter.
// It reports false when fuel or distance is absent or zero.
func KmPerLiter(trip *domain.Trip, pricePerLiter float64) (float64, bool) {
	if !trip.HasFuelCost() || *trip.FuelCost <= 0 || trip.DistanceKm <= 0 || pricePerLiter <= 0 {
		return 0, false
	}
	liters := *trip.FuelCost / pricePerLiter
	return trip.DistanceKm / liters, true
}
