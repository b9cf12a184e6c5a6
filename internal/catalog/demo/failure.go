package demo

import (
	"errors"
	"net/http"
)

// Failure maps an Accounts error to the HTTP status and message the
// storefront API answers with. ok is false for unexpected errors, which
// get a generic 500 message.
func Failure(err error) (status int, message string, ok bool) {
	var invalid *ValidationError
	switch {
	case errors.As(err, &invalid):
		return http.StatusBadRequest, invalid.Message, true
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials", true
	case errors.Is(err, ErrNotAdmin):
		return http.StatusForbidden, "Access denied. Admin privileges required.", true
	case errors.Is(err, ErrEmailTaken):
		return http.StatusConflict, "Email already exists", true
	case errors.Is(err, ErrPhoneTaken):
		return http.StatusConflict, "Phone already exists", true
	}
	return http.StatusInternalServerError, "An unexpected error occurred. Please try again later.", false
}
