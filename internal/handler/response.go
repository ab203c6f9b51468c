package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"fleetaudit/internal/audit"
	"fleetaudit/internal/domain"
	"fleetaudit/internal/repository"
	"fleetaudit/internal/service"
)

// ErrInvalidQuery is returned when a query or body parameter cannot be parsed.
var ErrInvalidQuery = errors.New("invalid query parameter")

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	if code == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidTripID),
		errors.Is(err, service.ErrInvalidActor),
		errors.Is(err, service.ErrInvalidDateRange),
		errors.Is(err, service.ErrEmptyEdit),
		errors.Is(err, audit.ErrUnknownStatus),
		errors.Is(err, audit.ErrInvalidConfig),
		errors.Is(err, ErrInvalidQuery),
		errors.Is(err, service.ErrInvalidDashboardSize):
		return http.StatusBadRequest

	// Records that fail validation cannot be audited.
	case errors.Is(err, domain.ErrInvalidRecord):
		return http.StatusUnprocessableEntity

	// Conflict errors
	case errors.Is(err, service.ErrOverrideInProgress):
		return http.StatusConflict

	// Service unavailable
	case errors.Is(err, service.ErrArchiveNotConfigured):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}

// parseDay parses an optional YYYY-MM-DD value. Empty input yields the zero time.
func parseDay(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, ErrInvalidQuery
	}
	return t, nil
}

// queryInt reads an optional non-negative integer query parameter.
func queryInt(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, ErrInvalidQuery
	}
	return n, nil
}

// runRequestFromQuery reads from, to and repeated driver parameters.
func runRequestFromQuery(c *gin.Context) (service.RunRequest, error) {
	from, err := parseDay(c.Query("from"))
	if err != nil {
		return service.RunRequest{}, err
	}
	to, err := parseDay(c.Query("to"))
	if err != nil {
		return service.RunRequest{}, err
	}
	return service.RunRequest{From: from, To: to, DriverIDs: c.QueryArray("driver")}, nil
}
