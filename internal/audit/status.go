package audit

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"

	"fleetaudit/internal/domain"
)

// ErrUnknownStatus is returned when a status string is not a known audit state.
var ErrUnknownStatus = errors.New("unknown audit status")

// Verdict summarizes the worst severity on a trip for display.
type Verdict string

const (
	VerdictClean    Verdict = "clean"
	VerdictWarning  Verdict = "warning"
	VerdictCritical Verdict = "critical"
)

// ParseStatus converts s to an AuditStatus.
func ParseStatus(s string) (domain.AuditStatus, error) {
	status := domain.AuditStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
	}
	return status, nil
}

// AutoStatus derives the automatic status from an evaluation.
func AutoStatus(anomalies []Anomaly) domain.AuditStatus {
	if len(anomalies) == 0 {
		return domain.AuditStatusVerified
	}
	return domain.AuditStatusNeedsReview
}

// VerdictOf grades anomalies by their worst severity.
func VerdictOf(anomalies []Anomaly) Verdict {
	v := VerdictClean
	for _, a := range anomalies {
		if a.Severity == SeverityHigh {
			return VerdictCritical
		}
		v = VerdictWarning
	}
	return v
}

// Transition moves a trip between audit states. Every valid state is reachable
// from every other; only unknown states are rejected.
func Transition(from, to domain.AuditStatus) (domain.AuditStatus, error) {
	if !from.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, from)
	}
	if !to.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, to)
	}
	return to, nil
}

// Resolution is the status a trip should carry after evaluation.
type Resolution struct {
	Status     domain.AuditStatus
	Overridden bool
	// StaleOverride is set when a manual override existed but the trip's
	// fields changed since it was made.
	StaleOverride bool
}

// Resolve combines the automatic status with any manual override. An override
// holds until a tracked field of the trip changes.
func Resolve(trip *domain.Trip, anomalies []Anomaly) Resolution {
	auto := AutoStatus(anomalies)
	if trip.Override == nil {
		return Resolution{Status: auto}
	}
	if trip.Override.Fingerprint != Fingerprint(trip) {
		return Resolution{Status: auto, StaleOverride: true}
	}
	return Resolution{Status: trip.Override.Status, Overridden: true}
}

// Override records a manual status decision on a copy of trip.
func Override(trip *domain.Trip, status domain.AuditStatus, actor string, at time.Time) (*domain.Trip, error) {
	next, err := Transition(currentStatus(trip), status)
	if err != nil {
		return nil, err
	}

	out := *trip
	out.AuditStatus = next
	out.Override = &domain.StatusOverride{
		Status:      next,
		Actor:       actor,
		At:          at,
		Fingerprint: Fingerprint(trip),
	}
	return &out, nil
}

// Apply returns a copy of trip carrying the evaluation outcome. A stale
// override is dropped.
func Apply(trip *domain.Trip, anomalies []Anomaly) (*domain.Trip, Resolution) {
	res := Resolve(trip, anomalies)

	out := *trip
	out.AnomalyFlag = len(anomalies) > 0
	out.AuditStatus = res.Status
	if res.StaleOverride {
		out.Override = nil
	}
	return &out, res
}

// Fingerprint hashes the fields the rule engine reads. Notes and audit
// fields are excluded, so editing them does not invalidate an override.
func Fingerprint(trip *domain.Trip) uint64 {
	d := xxhash.New()
	writeString(d, trip.DriverID)
	writeString(d, domain.DateKey(trip.Day()))
	writeFloat(d, &trip.DistanceKm)
	writeFloat(d, trip.FuelCost)
	writeFloat(d, trip.Amount)
	writeString(d, trip.Platform)
	writeString(d, trip.Destination)
	writeString(d, strings.TrimSpace(trip.PhotoRef))
	writeFloat(d, trip.StartOdometer)
	writeFloat(d, trip.EndOdometer)
	return d.Sum64()
}

func currentStatus(trip *domain.Trip) domain.AuditStatus {
	if trip.AuditStatus == "" {
		return domain.AuditStatusPending
	}
	return trip.AuditStatus
}

func writeString(d *xxhash.Digest, s string) {
	_, _ = d.WriteString(s)
	_, _ = d.Write([]byte{0})
}

func writeFloat(d *xxhash.Digest, v *float64) {
	var buf [9]byte
	if v != nil {
		buf[0] = 1
		binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(*v))
	}
	_, _ = d.Write(buf[:])
}
