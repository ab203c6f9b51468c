package audit

// Severity grades how urgently an anomaly needs attention.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Type is the category an anomaly is reported under.
type Type string

const (
	TypeDistance          Type = "distance_anomaly"
	TypeHighFuelUsage     Type = "high_fuel_usage"
	TypeMissingPhoto      Type = "missing_photo"
	TypePlatformMismatch  Type = "platform_mismatch"
	TypeRepeatedImage     Type = "repeated_image"
	TypeMissingAttendance Type = "missing_attendance"
	TypeUnusualEarnings   Type = "unusual_earnings"
	TypeTime              Type = "time_anomaly"
	TypeFuelEfficiency    Type = "fuel_efficiency_anomaly"
)

// Rule identifies the specific check that produced an anomaly.
type Rule string

const (
	RuleVeryLowDistance       Rule = "very_low_distance"
	RuleHighDistance          Rule = "high_distance"
	RuleHighFuelUsage         Rule = "high_fuel_usage"
	RuleMissingPhoto          Rule = "missing_photo"
	RuleHighValueMissingPhoto Rule = "high_value_missing_photo"
	RuleOdometerMismatch      Rule = "odometer_mismatch"
	RuleUnusualEarnings       Rule = "unusual_earnings"
	RuleFuelEfficiency        Rule = "fuel_efficiency_out_of_range"
	RuleRepeatedImage         Rule = "repeated_image"
	RulePlatformMismatch      Rule = "platform_mismatch"
	RuleMissingAttendance     Rule = "missing_attendance"
	RuleExcessiveDailyTrips   Rule = "excessive_daily_trips"
)

// Anomaly is a flagged irregularity on a trip record.
type Anomaly struct {
	Type           Type     `json:"type"`
	Rule           Rule     `json:"rule"`
	Severity       Severity `json:"severity"`
	Description    string   `json:"description"`
	Value          *float64 `json:"value,omitempty"`
	Threshold      *float64 `json:"threshold,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
}

// HasType reports whether any anomaly in list has type t.
func HasType(list []Anomaly, t Type) bool {
	for _, a := range list {
		if a.Type == t {
			return true
		}
	}
	return false
}

// Rules returns the rule ids of list in order.
func Rules(list []Anomaly) []Rule {
	rules := make([]Rule, 0, len(list))
	for _, a := range list {
		rules = append(rules, a.Rule)
	}
	return rules
}

func num(v float64) *float64 {
	return &v
}
