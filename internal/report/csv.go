package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"fleetaudit/internal/aggregate"
	"fleetaudit/internal/domain"
)

// CSVHeader is the first row of a trip export.
var CSVHeader = []string{
	"Date",
	"Driver",
	"Platform",
	"Destination",
	"Distance (KM)",
	"Fuel",
	"Amount",
	"Audit Status",
}

// ToCSVRows renders one row per trip. Unrecorded fuel and amount are left
// blank; drivers missing from drivers are named Unknown.
func ToCSVRows(trips []*domain.Trip, drivers []domain.Driver) [][]string {
	names := make(map[string]string, len(drivers))
	for _, d := range drivers {
		names[d.ID] = d.Name
	}

	rows := make([][]string, 0, len(trips))
	for _, t := range trips {
		name := names[t.DriverID]
		if name == "" {
			name = aggregate.UnknownDriverName
		}
		status := t.AuditStatus
		if status == "" {
			status = domain.AuditStatusPending
		}
		rows = append(rows, []string{
			domain.DateKey(t.Day()),
			name,
			t.Platform,
			t.Destination,
			formatFloat(&t.DistanceKm),
			formatFloat(t.FuelCost),
			formatFloat(t.Amount),
			string(status),
		})
	}
	return rows
}

// WriteCSV writes the header and one row per trip to w.
func WriteCSV(w io.Writer, trips []*domain.Trip, drivers []domain.Driver) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return err
	}
	if err := cw.WriteAll(ToCSVRows(trips, drivers)); err != nil {
		return err
	}
	return cw.Error()
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
