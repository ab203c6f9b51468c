package domain

import "time"

// AttendanceStatus represents a driver's presence on a working day.
type AttendanceStatus string

const (
	AttendanceStatusPresent AttendanceStatus = "present"
	AttendanceStatusAbsent  AttendanceStatus = "absent"
	AttendanceStatusLate    AttendanceStatus = "late"
	AttendanceStatusHalfDay AttendanceStatus = "half_day"
)

// Attendance is a driver's attendance entry for one day.
type Attendance struct {
	ID           string
	DriverID     string
	Date         time.Time
	Status       AttendanceStatus
	CheckInTime  *time.Time
	CheckOutTime *time.Time
	Notes        string
}
