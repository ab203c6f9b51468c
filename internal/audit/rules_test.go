package audit

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetaudit/internal/domain"
)

func newTrip(id string, distance float64) *domain.Trip {
	return &domain.Trip{
		ID:         id,
		DriverID:   "driver-1",
		Date:       time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		DistanceKm: distance,
		PhotoRef:   "photos/" + id + ".jpg",
		Platform:   "uber",
	}
}

func TestEvaluate_CleanTripsHaveNoAnomalies(t *testing.T) {
	t.Parallel()

	distances := []float64{5, 5.5, 50, 150, 299.99, 300}
	fuels := []*float64{nil, domain.Float(0), domain.Float(100), domain.Float(2500)}
	amounts := []*float64{nil, domain.Float(0), domain.Float(999), domain.Float(1000), domain.Float(20000)}

	for _, d := range distances {
		for _, f := range fuels {
			for _, a := range amounts {
				trip := newTrip("t", d)
				trip.FuelCost = f
				trip.Amount = a

				anomalies, err := Evaluate(trip, DefaultConfig())
				require.NoError(t, err)
				assert.Empty(t, anomalies, "distance=%v fuel=%v amount=%v", d, f, a)
				assert.Equal(t, domain.AuditStatusVerified, AutoStatus(anomalies))
			}
		}
	}
}

func TestEvaluate_DistanceOutOfRangeFiresOnce(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		distance float64
		rule     Rule
	}{
		{name: "zero", distance: 0, rule: RuleVeryLowDistance},
		{name: "one km", distance: 1, rule: RuleVeryLowDistance},
		{name: "just under minimum", distance: 4.99, rule: RuleVeryLowDistance},
		{name: "just over maximum", distance: 300.01, rule: RuleHighDistance},
		{name: "long haul", distance: 1000, rule: RuleHighDistance},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			anomalies, err := Evaluate(newTrip("t", tt.distance), DefaultConfig())
			require.NoError(t, err)

			var distance []Anomaly
			for _, a := range anomalies {
				if a.Type == TypeDistance {
					distance = append(distance, a)
				}
			}
			require.Len(t, distance, 1)
			assert.Equal(t, tt.rule, distance[0].Rule)
			assert.Equal(t, SeverityMedium, distance[0].Severity)
		})
	}
}

func TestEvaluate_ConcreteScenario(t *testing.T) {
	t.Parallel()

	trip1 := newTrip("trip-1", 2)
	trip1.FuelCost = domain.Float(0)
	trip1.PhotoRef = ""
	trip1.Amount = domain.Float(500)

	trip2 := newTrip("trip-2", 50)
	trip2.FuelCost = domain.Float(3000)
	trip2.Amount = domain.Float(1200)

	a1, err := Evaluate(trip1, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, []Rule{RuleVeryLowDistance, RuleMissingPhoto}, Rules(a1))

	a2, err := Evaluate(trip2, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, []Rule{RuleHighFuelUsage}, Rules(a2))
	assert.Equal(t, SeverityHigh, a2[0].Severity)
	assert.Equal(t, 3000.0, *a2[0].Value)
	assert.Equal(t, 2500.0, *a2[0].Threshold)
}

func TestEvaluate_MissingPhotoEscalatesForHighValue(t *testing.T) {
	t.Parallel()

	trip := newTrip("t", 40)
	trip.PhotoRef = "  "
	trip.Amount = domain.Float(1500)

	anomalies, err := Evaluate(trip, DefaultConfig())
	require.NoError(t, err)
	require.Len(t, anomalies, 1)
	assert.Equal(t, TypeMissingPhoto, anomalies[0].Type)
	assert.Equal(t, RuleHighValueMissingPhoto, anomalies[0].Rule)
}

func TestEvaluate_UnrecordedFuelNeverFlags(t *testing.T) {
	t.Parallel()

	trip := newTrip("t", 40)
	trip.FuelCost = nil

	anomalies, err := Evaluate(trip, ExtendedConfig())
	require.NoError(t, err)
	assert.False(t, HasType(anomalies, TypeHighFuelUsage))
	assert.False(t, HasType(anomalies, TypeFuelEfficiency))
}

func TestEvaluate_OdometerMismatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		start    float64
		end      float64
		distance float64
		want     bool
	}{
		{name: "matching readings", start: 100, end: 150, distance: 50, want: false},
		{name: "fractional readings", start: 100.1, end: 150.1, distance: 50, want: false},
		{name: "short by ten", start: 100, end: 150, distance: 40, want: true},
		{name: "over by five", start: 1000, end: 1020, distance: 25, want: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			trip := newTrip("t", tt.distance)
			trip.StartOdometer = domain.Float(tt.start)
			trip.EndOdometer = domain.Float(tt.end)

			anomalies, err := Evaluate(trip, DefaultConfig())
			require.NoError(t, err)
			assert.Equal(t, tt.want, containsRule(anomalies, RuleOdometerMismatch))
		})
	}
}

func TestEvaluate_OdometerNeedsBothReadings(t *testing.T) {
	t.Parallel()

	trip := newTrip("t", 40)
	trip.StartOdometer = domain.Float(100)

	anomalies, err := Evaluate(trip, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, anomalies)
}

func TestEvaluate_ExtendedRules(t *testing.T) {
	t.Parallel()

	efficient := newTrip("efficient", 100)
	efficient.FuelCost = domain.Float(500) // 5 L, 20 km/l

	thirsty := newTrip("thirsty", 100)
	thirsty.FuelCost = domain.Float(2000) // 20 L, 5 km/l

	pricey := newTrip("pricey", 100)
	pricey.Amount = domain.Float(6000)

	cfg := ExtendedConfig()

	a, err := Evaluate(efficient, cfg)
	require.NoError(t, err)
	assert.Empty(t, a)

	a, err = Evaluate(thirsty, cfg)
	require.NoError(t, err)
	assert.Equal(t, []Rule{RuleFuelEfficiency}, Rules(a))
	assert.Equal(t, SeverityLow, a[0].Severity)

	a, err = Evaluate(pricey, cfg)
	require.NoError(t, err)
	assert.Equal(t, []Rule{RuleUnusualEarnings}, Rules(a))

	// Disabled under the default thresholds.
	a, err = Evaluate(pricey, DefaultConfig())
	require.NoError(t, err)
	assert.Empty(t, a)
}

func TestEvaluate_RuleOrderIsStable(t *testing.T) {
	t.Parallel()

	trip := newTrip("t", 400)
	trip.FuelCost = domain.Float(4000)
	trip.PhotoRef = ""
	trip.StartOdometer = domain.Float(0)
	trip.EndOdometer = domain.Float(10)

	anomalies, err := Evaluate(trip, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, []Rule{RuleHighDistance, RuleHighFuelUsage, RuleMissingPhoto, RuleOdometerMismatch}, Rules(anomalies))
}

func TestEvaluate_RejectsInvalidRecords(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		mut   func(*domain.Trip)
		field string
	}{
		{name: "missing driver", mut: func(tr *domain.Trip) { tr.DriverID = "" }, field: "driver_id"},
		{name: "blank driver", mut: func(tr *domain.Trip) { tr.DriverID = "   " }, field: "driver_id"},
		{name: "negative distance", mut: func(tr *domain.Trip) { tr.DistanceKm = -1 }, field: "distance_km"},
		{name: "negative fuel", mut: func(tr *domain.Trip) { tr.FuelCost = domain.Float(-5) }, field: "fuel_cost"},
		{name: "negative amount", mut: func(tr *domain.Trip) { tr.Amount = domain.Float(-0.5) }, field: "amount"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			trip := newTrip("bad", 20)
			tt.mut(trip)

			anomalies, err := Evaluate(trip, DefaultConfig())
			require.Error(t, err)
			assert.Nil(t, anomalies)
			assert.True(t, errors.Is(err, domain.ErrInvalidRecord))

			var rec *domain.InvalidRecordError
			require.ErrorAs(t, err, &rec)
			assert.Equal(t, tt.field, rec.Field)
			assert.Equal(t, "bad", rec.TripID)
		})
	}
}

func TestEngine_EvaluateWithOverride(t *testing.T) {
	t.Parallel()

	engine, err := NewEngine(DefaultConfig())
	require.NoError(t, err)

	trip := newTrip("t", 2)

	a, err := engine.Evaluate(trip)
	require.NoError(t, err)
	assert.Equal(t, []Rule{RuleVeryLowDistance}, Rules(a))

	relaxed := DefaultConfig()
	relaxed.MinDistanceKm = 1
	a, err = engine.EvaluateWith(trip, relaxed)
	require.NoError(t, err)
	assert.Empty(t, a)

	inverted := DefaultConfig()
	inverted.MinDistanceKm = 500
	_, err = engine.EvaluateWith(trip, inverted)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		mut   func(*Config)
		field string
	}{
		{name: "negative min distance", mut: func(c *Config) { c.MinDistanceKm = -1 }, field: "min_distance_km"},
		{name: "negative fuel cap", mut: func(c *Config) { c.MaxFuelCost = -100 }, field: "max_fuel_cost"},
		{name: "inverted distance", mut: func(c *Config) { c.MinDistanceKm = 400 }, field: "min_distance_km"},
		{name: "zero fuel price", mut: func(c *Config) { c.FuelPricePerLiter = 0 }, field: "fuel_price_per_liter"},
		{name: "negative trips per day", mut: func(c *Config) { c.MaxTripsPerDay = -1 }, field: "max_trips_per_day"},
		{name: "NaN min distance", mut: func(c *Config) { c.MinDistanceKm = math.NaN() }, field: "min_distance_km"},
		{name: "NaN fuel cap", mut: func(c *Config) { c.MaxFuelCost = math.NaN() }, field: "max_fuel_cost"},
		{name: "infinite max distance", mut: func(c *Config) { c.MaxDistanceKm = math.Inf(1) }, field: "max_distance_km"},
		{name: "NaN fuel price", mut: func(c *Config) { c.FuelPricePerLiter = math.NaN() }, field: "fuel_price_per_liter"},
		{name: "inverted efficiency", mut: func(c *Config) {
			c.MinFuelEfficiencyKmL = 30
			c.MaxFuelEfficiencyKmL = 10
		}, field: "min_fuel_efficiency_kml"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mut(&cfg)

			err := cfg.Validate()
			require.ErrorIs(t, err, ErrInvalidConfig)

			var cfgErr *ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)

			_, err = NewEngine(cfg)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	assert.NoError(t, DefaultConfig().Validate())
	assert.NoError(t, ExtendedConfig().Validate())
}

func TestKmPerLiter(t *testing.T) {
	t.Parallel()

	trip := newTrip("t", 120)
	trip.FuelCost = domain.Float(1000)

	kml, ok := KmPerLiter(trip, 100)
	require.True(t, ok)
	assert.InDelta(t, 12.0, kml, 1e-9)

	trip.FuelCost = domain.Float(0)
	_, ok = KmPerLiter(trip, 100)
	assert.False(t, ok)

	trip.FuelCost = nil
	_, ok = KmPerLiter(trip, 100)
	assert.False(t, ok)
}

func containsRule(list []Anomaly, r Rule) bool {
	for _, a := range list {
		if a.Rule == r {
			return true
		}
	}
	return false
}
