package reviews

import (
	"errors"
	"fmt"
)

// GBP error codes surfaced to the HTTP layer.
const (
	CodeTokenExpired     = "TOKEN_EXPIRED"
	CodePermissionDenied = "PERMISSION_DENIED"
	CodeReviewNotFound   = "REVIEW_NOT_FOUND"
)

// GBPError is a coded error from the Google Business Profile API.
type GBPError struct {
	Code    string
	Message string
}

func (e *GBPError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// CodeOf extracts the GBP error code from err, or "" for uncoded errors.
func CodeOf(err error) string {
	var gbpErr *GBPError
	if errors.As(err, &gbpErr) {
		return gbpErr.Code
	}
	return ""
}
