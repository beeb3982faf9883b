// Package apperr defines the shared error vocabulary for the API. Every
// lifecycle operation returns one of these sentinels (possibly wrapped)
// so handlers can map outcomes to HTTP statuses without string matching.
package apperr

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

// Validation errors (400).
var (
	ErrInvalidCategory = errors.New("unknown activity category")
	ErrInvalidDate     = errors.New("invalid date")
	ErrInvalidCapacity = errors.New("capacity must be positive")
	ErrInvalidStatus   = errors.New("invalid status")
)

// Authentication errors (401).
var (
	ErrTokenMissing   = errors.New("authorization token missing")
	ErrTokenMalformed = errors.New("malformed token")
	ErrTokenExpired   = errors.New("token expired")
	ErrTokenRevoked   = errors.New("token revoked")
	ErrBadCredentials = errors.New("invalid email or password")
)

// Authorization errors (403).
var (
	ErrInsufficientRole = errors.New("insufficient role")
	ErrNotOwner         = errors.New("not the resource owner")
	ErrIdentityDisabled = errors.New("account disabled")
)

// Not-found errors (404).
var (
	ErrIdentityNotFound     = errors.New("identity not found")
	ErrActivityNotFound     = errors.New("activity not found")
	ErrApplicationNotFound  = errors.New("application not found")
	ErrNotificationNotFound = errors.New("notification not found")
)

// Conflict errors (409).
var (
	ErrDuplicateApplication    = errors.New("application already exists for this activity")
	ErrDuplicateEmail          = errors.New("email already registered")
	ErrCapacityExceeded        = errors.New("activity capacity exceeded")
	ErrActivityFull            = errors.New("activity is full")
	ErrActivityCompleted       = errors.New("activity already completed")
	ErrUnresolvedApplications  = errors.New("activity has pending applications")
	ErrApplicationNotApproved  = errors.New("application is not approved")
	ErrAttendanceAlreadyMarked = errors.New("attendance already recorded")
)

var statusByError = map[error]int{
	ErrInvalidCategory: fiber.StatusBadRequest,
	ErrInvalidDate:     fiber.StatusBadRequest,
	ErrInvalidCapacity: fiber.StatusBadRequest,
	ErrInvalidStatus:   fiber.StatusBadRequest,

	ErrTokenMissing:   fiber.StatusUnauthorized,
	ErrTokenMalformed: fiber.StatusUnauthorized,
	ErrTokenExpired:   fiber.StatusUnauthorized,
	ErrTokenRevoked:   fiber.StatusUnauthorized,
	ErrBadCredentials: fiber.StatusUnauthorized,

	ErrInsufficientRole: fiber.StatusForbidden,
	ErrNotOwner:         fiber.StatusForbidden,
	ErrIdentityDisabled: fiber.StatusForbidden,

	ErrIdentityNotFound:     fiber.StatusNotFound,
	ErrActivityNotFound:     fiber.StatusNotFound,
	ErrApplicationNotFound:  fiber.StatusNotFound,
	ErrNotificationNotFound: fiber.StatusNotFound,

	ErrDuplicateApplication:    fiber.StatusConflict,
	ErrDuplicateEmail:          fiber.StatusConflict,
	ErrCapacityExceeded:        fiber.StatusConflict,
	ErrActivityFull:            fiber.StatusConflict,
	ErrActivityCompleted:       fiber.StatusConflict,
	ErrUnresolvedApplications:  fiber.StatusConflict,
	ErrApplicationNotApproved:  fiber.StatusConflict,
	ErrAttendanceAlreadyMarked: fiber.StatusConflict,
}

// HTTPStatus resolves the status code for a known sentinel, or 500 for
// anything else.
func HTTPStatus(err error) int {
	for sentinel, status := range statusByError {
		if errors.Is(err, sentinel) {
			return status
		}
	}
	return fiber.StatusInternalServerError
}

// IsKnown reports whether err maps to one of the declared sentinels.
func IsKnown(err error) bool {
	for sentinel := range statusByError {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
