package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fleetaudit/internal/audit"
	"fleetaudit/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationCriticalAnomaly NotificationType = "CRITICAL_ANOMALY"
	NotificationStatusOverride  NotificationType = "STATUS_OVERRIDE"
	NotificationAuditCompleted  NotificationType = "AUDIT_COMPLETED"
)

// ReviewersChannel is the recipient for fleet-wide review alerts.
const ReviewersChannel = "fleet-reviewers"

// Notification represents a notification to be sent.
type Notification struct {
	ID          string
	Type        NotificationType
	RecipientID string // Driver ID or ReviewersChannel
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService delivers review alerts to the structured log and keeps
// the most recent ones in memory.
type NotificationService struct {
	log logrus.FieldLogger

	mu     sync.Mutex
	recent []Notification
}

const maxRecentNotifications = 100

// NewNotificationService creates a new NotificationService.
func NewNotificationService(log logrus.FieldLogger) *NotificationService {
	return &NotificationService{log: log}
}

// NotifyCriticalAnomaly alerts reviewers that a trip has a high-severity anomaly.
func (s *NotificationService) NotifyCriticalAnomaly(ctx context.Context, result audit.Result) error {
	if result.Verdict != audit.VerdictCritical {
		return nil
	}

	types := make([]string, 0, len(result.Anomalies))
	for _, a := range result.Anomalies {
		if a.Severity == audit.SeverityHigh {
			types = append(types, string(a.Type))
		}
	}

	return s.send(ctx, Notification{
		Type:        NotificationCriticalAnomaly,
		RecipientID: ReviewersChannel,
		Title:       "Critical Trip Anomaly",
		Message:     fmt.Sprintf("Trip %s by driver %s needs immediate review", result.TripID, result.DriverID),
		Data: map[string]interface{}{
			"trip_id":   result.TripID,
			"driver_id": result.DriverID,
			"types":     types,
		},
	})
}

// NotifyStatusOverride tells the driver that a reviewer changed a trip's status.
func (s *NotificationService) NotifyStatusOverride(ctx context.Context, trip *domain.Trip) error {
	if trip.Override == nil {
		return nil
	}

	return s.send(ctx, Notification{
		Type:        NotificationStatusOverride,
		RecipientID: trip.DriverID,
		Title:       "Trip Review Updated",
		Message:     fmt.Sprintf("Trip on %s was marked %s by %s", domain.DateKey(trip.Day()), trip.Override.Status, trip.Override.Actor),
		Data: map[string]interface{}{
			"trip_id": trip.ID,
			"status":  trip.Override.Status,
			"actor":   trip.Override.Actor,
		},
	})
}

// NotifyAuditCompleted posts a run summary to reviewers.
func (s *NotificationService) NotifyAuditCompleted(ctx context.Context, run *RunResult) error {
	return s.send(ctx, Notification{
		Type:        NotificationAuditCompleted,
		RecipientID: ReviewersChannel,
		Title:       "Trip Audit Completed",
		Message: fmt.Sprintf("Audited %d trips: %d need review, %d rejected",
			run.Summary.TotalTrips, run.NeedsReview, len(run.Rejected)),
		Data: map[string]interface{}{
			"run_id":   run.RunID,
			"updated":  run.Updated,
			"critical": run.Summary.Critical,
			"dry_run":  run.DryRun,
		},
	})
}

// Recent returns the most recently sent notifications, oldest first.
func (s *NotificationService) Recent() []Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Notification, len(s.recent))
	copy(out, s.recent)
	return out
}

func (s *NotificationService) send(_ context.Context, n Notification) error {
	n.ID = uuid.New().String()
	n.CreatedAt = time.Now()

	s.log.WithFields(logrus.Fields{
		"notification_type": n.Type,
		"recipient":         n.RecipientID,
		"title":             n.Title,
	}).Info(n.Message)

	s.mu.Lock()
	s.recent = append(s.recent, n)
	if len(s.recent) > maxRecentNotifications {
		s.recent = s.recent[len(s.recent)-maxRecentNotifications:]
	}
	s.mu.Unlock()

	return nil
}
