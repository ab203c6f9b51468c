// Package aggregate reduces trip collections into dashboard views. Every
// function is a pure reducer: inputs are never modified.
package aggregate

import (
	"sort"
	"strings"
	"time"

	"fleetaudit/internal/domain"
)

const (
	// DefaultRecentLimit caps RecentAnomalies when limit <= 0.
	DefaultRecentLimit = 5
	// DefaultEfficiencyWindow caps FuelEfficiency when limit <= 0.
	DefaultEfficiencyWindow = 10
	// DefaultRankingSize is the dashboard's top-N driver count.
	DefaultRankingSize = 5
	// DefaultSeriesDays is the dashboard's chart window.
	DefaultSeriesDays = 30

	// MaxSeriesDays is the longest chart window a dashboard may request.
	MaxSeriesDays = 366
	// MaxRankingSize bounds the driver leaderboard.
	MaxRankingSize = 100
	// MaxRecentLimit bounds the recent anomalies list.
	MaxRecentLimit = 100
	// MaxEfficiencyWindow bounds the fuel efficiency series.
	MaxEfficiencyWindow = 100

	// UnknownDriverName labels rankings whose driver record is missing.
	UnknownDriverName = "Unknown"
	// OtherPlatform buckets trips with no platform recorded.
	OtherPlatform = "other"
)

// Summary holds whole-collection totals.
type Summary struct {
	TotalTrips    int     `json:"total_trips"`
	TotalDistance float64 `json:"total_distance"`
	TotalFuelCost float64 `json:"total_fuel_cost"`
	TotalAmount   float64 `json:"total_amount"`
	AnomalyCount  int     `json:"anomaly_count"`
	Verified      int     `json:"verified"`
	NeedsReview   int     `json:"needs_review"`
	Pending       int     `json:"pending"`
	AverageAmount float64 `json:"average_amount"`
	ActiveDrivers int     `json:"active_drivers"`
}

// Summarize totals trips. Absent fuel and amount count as zero. ActiveDrivers
// is the number of distinct drivers with at least one trip.
func Summarize(trips []*domain.Trip) Summary {
	var s Summary
	drivers := make(map[string]struct{})

	for _, t := range trips {
		s.TotalTrips++
		s.TotalDistance += t.DistanceKm
		s.TotalFuelCost += t.FuelCostOrZero()
		s.TotalAmount += t.AmountOrZero()
		if t.AnomalyFlag {
			s.AnomalyCount++
		}
		switch t.AuditStatus {
		case domain.AuditStatusVerified:
			s.Verified++
		case domain.AuditStatusNeedsReview:
			s.NeedsReview++
		default:
			s.Pending++
		}
		if t.DriverID != "" {
			drivers[t.DriverID] = struct{}{}
		}
	}

	if s.TotalTrips > 0 {
		s.AverageAmount = s.TotalAmount / float64(s.TotalTrips)
	}
	s.ActiveDrivers = len(drivers)
	return s
}

// DriverRanking is one row of the driver leaderboard.
type DriverRanking struct {
	DriverID      string  `json:"driver_id"`
	Name          string  `json:"name"`
	Trips         int     `json:"trips"`
	TotalDistance float64 `json:"total_distance"`
	TotalAmount   float64 `json:"total_amount"`
}

// DriverRankings groups trips by driver and sorts by summed amount descending,
// breaking ties by driver id. n <= 0 returns every driver. Trips without a
// driver id are skipped.
func DriverRankings(trips []*domain.Trip, drivers []domain.Driver, n int) []DriverRanking {
	names := make(map[string]string, len(drivers))
	for _, d := range drivers {
		names[d.ID] = d.Name
	}

	byDriver := make(map[string]*DriverRanking)
	for _, t := range trips {
		if t.DriverID == "" {
			continue
		}
		r, ok := byDriver[t.DriverID]
		if !ok {
			name := names[t.DriverID]
			if name == "" {
				name = UnknownDriverName
			}
			r = &DriverRanking{DriverID: t.DriverID, Name: name}
			byDriver[t.DriverID] = r
		}
		r.Trips++
		r.TotalDistance += t.DistanceKm
		r.TotalAmount += t.AmountOrZero()
	}

	out := make([]DriverRanking, 0, len(byDriver))
	for _, r := range byDriver {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalAmount != out[j].TotalAmount {
			return out[i].TotalAmount > out[j].TotalAmount
		}
		return out[i].DriverID < out[j].DriverID
	})

	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// DailyBucket is one day of the trip chart.
type DailyBucket struct {
	Date     string  `json:"date"`
	Trips    int     `json:"trips"`
	Distance float64 `json:"distance"`
	FuelCost float64 `json:"fuel_cost"`
	Amount   float64 `json:"amount"`
}

// DailySeries returns exactly days buckets ending on today, oldest first.
// Days without trips are present with zero values. Trips outside the window
// are ignored.
func DailySeries(trips []*domain.Trip, days int, today time.Time) []DailyBucket {
	if days <= 0 {
		return []DailyBucket{}
	}

	end := domain.Day(today)
	start := end.AddDate(0, 0, -(days - 1))

	buckets := make([]DailyBucket, days)
	index := make(map[string]int, days)
	for i := range buckets {
		key := domain.DateKey(start.AddDate(0, 0, i))
		buckets[i].Date = key
		index[key] = i
	}

	for _, t := range trips {
		i, ok := index[domain.DateKey(t.Day())]
		if !ok {
			continue
		}
		b := &buckets[i]
		b.Trips++
		b.Distance += t.DistanceKm
		b.FuelCost += t.FuelCostOrZero()
		b.Amount += t.AmountOrZero()
	}
	return buckets
}

// RecentAnomalies returns flagged trips, newest first, ties by id. limit <= 0
// uses DefaultRecentLimit.
func RecentAnomalies(trips []*domain.Trip, limit int) []*domain.Trip {
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	var flagged []*domain.Trip
	for _, t := range trips {
		if t.AnomalyFlag {
			flagged = append(flagged, t)
		}
	}
	sort.SliceStable(flagged, func(i, j int) bool {
		di, dj := flagged[i].Day(), flagged[j].Day()
		if !di.Equal(dj) {
			return di.After(dj)
		}
		return flagged[i].ID < flagged[j].ID
	})

	if len(flagged) > limit {
		flagged = flagged[:limit]
	}
	return flagged
}

// EfficiencyPoint is the km/L of one trip.
type EfficiencyPoint struct {
	TripID     string  `json:"trip_id"`
	Date       string  `json:"date"`
	KmPerLiter float64 `json:"km_per_liter"`
}

// FuelEfficiency computes km/L for the most recent limit trips that have both
// a positive fuel cost and a positive distance, oldest first. limit <= 0 uses
// DefaultEfficiencyWindow.
func FuelEfficiency(trips []*domain.Trip, pricePerLiter float64, limit int) []EfficiencyPoint {
	if limit <= 0 {
		limit = DefaultEfficiencyWindow
	}
	if pricePerLiter <= 0 {
		return []EfficiencyPoint{}
	}

	var eligible []*domain.Trip
	for _, t := range trips {
		if t.HasFuelCost() && *t.FuelCost > 0 && t.DistanceKm > 0 {
			eligible = append(eligible, t)
		}
	}
	sort.SliceStable(eligible, func(i, j int) bool {
		di, dj := eligible[i].Day(), eligible[j].Day()
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return eligible[i].ID < eligible[j].ID
	})
	if len(eligible) > limit {
		eligible = eligible[len(eligible)-limit:]
	}

	points := make([]EfficiencyPoint, 0, len(eligible))
	for _, t := range eligible {
		liters := *t.FuelCost / pricePerLiter
		points = append(points, EfficiencyPoint{
			TripID:     t.ID,
			Date:       domain.DateKey(t.Day()),
			KmPerLiter: t.DistanceKm / liters,
		})
	}
	return points
}

// Fleet is the headline block of the dashboard.
type Fleet struct {
	Summary
	TotalDrivers      int     `json:"total_drivers"`
	ActiveDriverCount int     `json:"active_driver_count"`
	PendingDues       float64 `json:"pending_dues"`
	TotalExpenses     float64 `json:"total_expenses"`
	NetEarnings       float64 `json:"net_earnings"`
}

// FleetSummary joins the trip summary with driver and payment totals.
// Pending dues sum payments still in the pending state.
func FleetSummary(trips []*domain.Trip, drivers []domain.Driver, payments []domain.Payment) Fleet {
	f := Fleet{Summary: Summarize(trips), TotalDrivers: len(drivers)}

	for _, d := range drivers {
		if d.Status == domain.DriverStatusActive {
			f.ActiveDriverCount++
		}
	}
	for _, p := range payments {
		if p.Status == domain.PaymentStatusPending {
			f.PendingDues += p.Amount
		}
	}

	f.TotalExpenses = f.TotalFuelCost
	f.NetEarnings = f.TotalAmount - f.TotalExpenses
	return f
}

// PlatformShare is the trip volume carried by one platform.
type PlatformShare struct {
	Platform string  `json:"platform"`
	Trips    int     `json:"trips"`
	Amount   float64 `json:"amount"`
}

// PlatformBreakdown groups trips by lowercased platform, busiest first.
// Trips with no platform are counted under OtherPlatform.
func PlatformBreakdown(trips []*domain.Trip) []PlatformShare {
	byPlatform := make(map[string]*PlatformShare)
	for _, t := range trips {
		name := strings.ToLower(strings.TrimSpace(t.Platform))
		if name == "" {
			name = OtherPlatform
		}
		s, ok := byPlatform[name]
		if !ok {
			s = &PlatformShare{Platform: name}
			byPlatform[name] = s
		}
		s.Trips++
		s.Amount += t.AmountOrZero()
	}

	out := make([]PlatformShare, 0, len(byPlatform))
	for _, s := range byPlatform {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Trips != out[j].Trips {
			return out[i].Trips > out[j].Trips
		}
		return out[i].Platform < out[j].Platform
	})
	return out
}

// Attendance counts attendance records by status.
type Attendance struct {
	Total   int     `json:"total"`
	Present int     `json:"present"`
	Absent  int     `json:"absent"`
	Late    int     `json:"late"`
	HalfDay int     `json:"half_day"`
	Rate    float64 `json:"rate"` // share of records where the driver showed up
}

// AttendanceStats counts records by status. Late and half-day records count
// toward Rate.
func AttendanceStats(records []domain.Attendance) Attendance {
	var a Attendance
	for _, r := range records {
		a.Total++
		switch r.Status {
		case domain.AttendanceStatusPresent:
			a.Present++
		case domain.AttendanceStatusAbsent:
			a.Absent++
		case domain.AttendanceStatusLate:
			a.Late++
		case domain.AttendanceStatusHalfDay:
			a.HalfDay++
		}
	}
	if a.Total > 0 {
		a.Rate = float64(a.Present+a.Late+a.HalfDay) / float64(a.Total)
	}
	return a
}
