// Package report renders audit results and trip collections as text and CSV.
package report

import (
	"fmt"
	"sort"
	"strings"

	"fleetaudit/internal/audit"
)

// TypeCount is the number of anomalies of one type.
type TypeCount struct {
	Type  audit.Type `json:"type"`
	Count int        `json:"count"`
}

// AnomalySummary counts anomalies across a set of audit results.
type AnomalySummary struct {
	TotalTrips         int         `json:"total_trips"`
	TripsWithAnomalies int         `json:"trips_with_anomalies"`
	Critical           int         `json:"critical"`
	Warning            int         `json:"warning"`
	Low                int         `json:"low"`
	Types              []TypeCount `json:"types"` // sorted by type name
}

// Summarize counts anomalies by severity and type.
func Summarize(results []audit.Result) AnomalySummary {
	s := AnomalySummary{TotalTrips: len(results)}
	byType := make(map[audit.Type]int)

	for _, r := range results {
		if len(r.Anomalies) > 0 {
			s.TripsWithAnomalies++
		}
		for _, a := range r.Anomalies {
			switch a.Severity {
			case audit.SeverityHigh:
				s.Critical++
			case audit.SeverityMedium:
				s.Warning++
			default:
				s.Low++
			}
			byType[a.Type]++
		}
	}

	s.Types = make([]TypeCount, 0, len(byType))
	for t, n := range byType {
		s.Types = append(s.Types, TypeCount{Type: t, Count: n})
	}
	sort.Slice(s.Types, func(i, j int) bool { return s.Types[i].Type < s.Types[j].Type })
	return s
}

// GenerateReport renders results as a markdown audit report.
func GenerateReport(results []audit.Result) string {
	s := Summarize(results)

	var b strings.Builder
	b.WriteString("# Trip Audit Report\n\n")

	b.WriteString("## Summary\n")
	fmt.Fprintf(&b, "- Total Trips: %d\n", s.TotalTrips)
	fmt.Fprintf(&b, "- Trips with Anomalies: %d\n", s.TripsWithAnomalies)
	fmt.Fprintf(&b, "- Critical Anomalies: %d\n", s.Critical)
	fmt.Fprintf(&b, "- Warning Anomalies: %d\n", s.Warning)
	fmt.Fprintf(&b, "- Low Severity Anomalies: %d\n\n", s.Low)

	b.WriteString("## Anomaly Breakdown\n")
	for _, tc := range s.Types {
		fmt.Fprintf(&b, "- %s: %d\n", tc.Type, tc.Count)
	}

	b.WriteString("\n## Recommendations\n")
	if s.Critical > 0 {
		fmt.Fprintf(&b, "- Immediate review required for %d critical anomalies\n", s.Critical)
	}
	if s.Warning > 0 {
		fmt.Fprintf(&b, "- Review %d warning anomalies\n", s.Warning)
	}
	if s.TripsWithAnomalies == 0 {
		b.WriteString("- All trips appear to be within normal parameters\n")
	}

	return b.String()
}
