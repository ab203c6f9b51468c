package report

import (
	"bytes"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetaudit/internal/domain"
)

func TestToCSVRows(t *testing.T) {
	t.Parallel()

	trips := []*domain.Trip{
		{
			ID:          "1",
			DriverID:    "driver-1",
			Date:        time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC),
			DistanceKm:  42.5,
			FuelCost:    domain.Float(300),
			Amount:      domain.Float(1200),
			Platform:    "uber",
			Destination: "Airport",
			AuditStatus: domain.AuditStatusVerified,
		},
		{
			ID:         "2",
			DriverID:   "ghost",
			Date:       time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
			DistanceKm: 3,
		},
	}
	drivers := []domain.Driver{{ID: "driver-1", Name: "Asha"}}

	rows := ToCSVRows(trips, drivers)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"2024-05-01", "Asha", "uber", "Airport", "42.5", "300", "1200", "verified"}, rows[0])
	assert.Equal(t, []string{"2024-05-02", "Unknown", "", "", "3", "", "", "pending"}, rows[1])
}

func TestWriteCSV_QuotesDelimiters(t *testing.T) {
	t.Parallel()

	trips := []*domain.Trip{{
		ID:          "1",
		DriverID:    "driver-1",
		Date:        time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		DistanceKm:  10,
		Destination: `Terminal 2, Gate "B"`,
		AuditStatus: domain.AuditStatusNeedsReview,
	}}
	drivers := []domain.Driver{{ID: "driver-1", Name: "Doe, Jane"}}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, trips, drivers))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, CSVHeader, records[0])
	assert.Equal(t, "Doe, Jane", records[1][1])
	assert.Equal(t, `Terminal 2, Gate "B"`, records[1][3])
	assert.Equal(t, "needs_review", records[1][7])
}
