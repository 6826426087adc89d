package favicon

import (
	"errors"
	"time"
)

// DefaultContentType is used when an upstream answers without a Content-Type.
const DefaultContentType = "image/x-icon"

var (
	// ErrNotFound is returned when no strategy produced a favicon.
	ErrNotFound = errors.New("favicon not found")

	// ErrInternal marks an unexpected failure while orchestrating strategies.
	ErrInternal = errors.New("internal error")

	// ErrInvalidDomain is returned when a domain cannot be normalized.
	ErrInvalidDomain = errors.New("invalid domain")
)

// Result is a resolved favicon. It is never mutated after creation.
type Result struct {
	Data        []byte
	ContentType string
}

// NewResult builds a Result, falling back to DefaultContentType.
func NewResult(data []byte, contentType string) Result {
	if contentType == "" {
		contentType = DefaultContentType
	}

	return Result{
		Data:        data,
		ContentType: contentType,
	}
}

// Rule overrides the lookup for one domain with a fixed icon URL.
type Rule struct {
	Domain  string
	URL     string
	Timeout time.Duration
}
