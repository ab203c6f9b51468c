package audit

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"fleetaudit/internal/domain"
)

// ImageReuse is one photo reference shared by more than one trip.
type ImageReuse struct {
	PhotoRef string   `json:"photo_ref"`
	TripIDs  []string `json:"trip_ids"`
	Anomaly  Anomaly  `json:"anomaly"`
}

// DetectRepeatedImages groups trips by photo reference and reports each
// reference used by more than one trip, ordered by first occurrence.
func DetectRepeatedImages(trips []*domain.Trip) []ImageReuse {
	groups := make(map[string][]string)
	var order []string

	for _, t := range trips {
		if !t.HasPhoto() {
			continue
		}
		ref := strings.TrimSpace(t.PhotoRef)
		if _, seen := groups[ref]; !seen {
			order = append(order, ref)
		}
		groups[ref] = append(groups[ref], t.ID)
	}

	var reuse []ImageReuse
	for _, ref := range order {
		ids := groups[ref]
		if len(ids) < 2 {
			continue
		}
		reuse = append(reuse, ImageReuse{
			PhotoRef: ref,
			TripIDs:  ids,
			Anomaly: Anomaly{
				Type:           TypeRepeatedImage,
				Rule:           RuleRepeatedImage,
				Severity:       SeverityHigh,
				Description:    fmt.Sprintf("Same dashboard image used for %d different trips", len(ids)),
				Value:          num(float64(len(ids))),
				Threshold:      num(1),
				Recommendation: "Investigate repeated image usage and ensure unique photos per trip.",
			},
		})
	}
	return reuse
}

// AssignmentIndex answers driver/platform membership in constant time.
type AssignmentIndex map[string]map[string]struct{}

// NewAssignmentIndex indexes assignments by driver. Platform names compare case-insensitively.
func NewAssignmentIndex(assignments []domain.PlatformAssignment) AssignmentIndex {
	idx := make(AssignmentIndex)
	for _, a := range assignments {
		platforms, ok := idx[a.DriverID]
		if !ok {
			platforms = make(map[string]struct{})
			idx[a.DriverID] = platforms
		}
		platforms[normalizePlatform(a.Platform)] = struct{}{}
	}
	return idx
}

// Assigned reports whether driverID is assigned to platform.
func (idx AssignmentIndex) Assigned(driverID, platform string) bool {
	_, ok := idx[driverID][normalizePlatform(platform)]
	return ok
}

// CheckPlatformMismatch flags trip when its platform is not among the driver's assignments.
func CheckPlatformMismatch(trip *domain.Trip, assignments []domain.PlatformAssignment) []Anomaly {
	return NewAssignmentIndex(assignments).Check(trip)
}

// Check flags trip when its platform is not assigned to its driver.
func (idx AssignmentIndex) Check(trip *domain.Trip) []Anomaly {
	if idx.Assigned(trip.DriverID, trip.Platform) {
		return nil
	}
	return []Anomaly{{
		Type:           TypePlatformMismatch,
		Rule:           RulePlatformMismatch,
		Severity:       SeverityMedium,
		Description:    fmt.Sprintf("Driver not assigned to %s platform", displayPlatform(trip.Platform)),
		Recommendation: "Verify driver platform assignments and update if necessary.",
	}}
}

// AttendanceIndex answers driver/day attendance lookups in constant time.
type AttendanceIndex map[string]domain.AttendanceStatus

// NewAttendanceIndex indexes attendance by driver and calendar day.
func NewAttendanceIndex(records []domain.Attendance) AttendanceIndex {
	idx := make(AttendanceIndex, len(records))
	for _, r := range records {
		idx[attendanceKey(r.DriverID, r.Date)] = r.Status
	}
	return idx
}

// CheckMissingAttendance flags trip when no attendance entry covers its driver and date.
func CheckMissingAttendance(trip *domain.Trip, records []domain.Attendance) []Anomaly {
	return NewAttendanceIndex(records).Check(trip)
}

// Check flags trip when its driver has no attendance entry for the trip day,
// or the entry marks the driver absent.
func (idx AttendanceIndex) Check(trip *domain.Trip) []Anomaly {
	status, ok := idx[attendanceKey(trip.DriverID, trip.Date)]
	if ok && status != domain.AttendanceStatusAbsent {
		return nil
	}

	desc := fmt.Sprintf("No attendance record found for trip date %s", domain.DateKey(trip.Day()))
	if ok {
		desc = fmt.Sprintf("Driver marked absent on trip date %s", domain.DateKey(trip.Day()))
	}
	return []Anomaly{{
		Type:           TypeMissingAttendance,
		Rule:           RuleMissingAttendance,
		Severity:       SeverityMedium,
		Description:    desc,
		Recommendation: "Ensure attendance is marked for all working days.",
	}}
}

// DailyVolume is a driver/day whose trip count exceeded the configured maximum.
type DailyVolume struct {
	DriverID string   `json:"driver_id"`
	Date     string   `json:"date"`
	TripIDs  []string `json:"trip_ids"`
	Anomaly  Anomaly  `json:"anomaly"`
}

// DetectExcessiveDailyTrips reports drivers logging more than cfg.MaxTripsPerDay
// trips on one day. It returns nil when the rule is disabled.
func DetectExcessiveDailyTrips(trips []*domain.Trip, cfg Config) []DailyVolume {
	if cfg.MaxTripsPerDay <= 0 {
		return nil
	}

	groups := make(map[string][]string)
	for _, t := range trips {
		key := attendanceKey(t.DriverID, t.Date)
		groups[key] = append(groups[key], t.ID)
	}

	var out []DailyVolume
	for key, ids := range groups {
		if len(ids) <= cfg.MaxTripsPerDay {
			continue
		}
		driverID, date, _ := strings.Cut(key, "|")
		out = append(out, DailyVolume{
			DriverID: driverID,
			Date:     date,
			TripIDs:  ids,
			Anomaly: Anomaly{
				Type:           TypeTime,
				Rule:           RuleExcessiveDailyTrips,
				Severity:       SeverityLow,
				Description:    fmt.Sprintf("%d trips logged on %s (maximum %d)", len(ids), date, cfg.MaxTripsPerDay),
				Value:          num(float64(len(ids))),
				Threshold:      num(float64(cfg.MaxTripsPerDay)),
				Recommendation: "Check for duplicate trip entries.",
			},
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].DriverID < out[j].DriverID
	})
	return out
}

// Rejected is a trip that failed validation and was left out of a batch.
type Rejected struct {
	TripID string
	Err    error
}

// PartitionValid splits trips into those passing Validate and those rejected.
func PartitionValid(trips []*domain.Trip) ([]*domain.Trip, []Rejected) {
	valid := make([]*domain.Trip, 0, len(trips))
	var rejected []Rejected
	for _, t := range trips {
		if err := t.Validate(); err != nil {
			rejected = append(rejected, Rejected{TripID: t.ID, Err: err})
			continue
		}
		valid = append(valid, t)
	}
	return valid, rejected
}

func attendanceKey(driverID string, date time.Time) string {
	return driverID + "|" + domain.DateKey(domain.Day(date))
}

func normalizePlatform(p string) string {
	return strings.ToLower(strings.TrimSpace(p))
}

func displayPlatform(p string) string {
	if strings.TrimSpace(p) == "" {
		return "unspecified"
	}
	return p
}
