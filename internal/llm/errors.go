package llm

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// ErrRateLimit is returned when a vendor answers 429. RetryAfter carries
// the vendor's Retry-After hint when it sent one.
type ErrRateLimit struct {
	Provider   string
	RetryAfter time.Duration
	Err        error
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("%s: rate limited, retry after %s: %v", e.Provider, e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("%s: rate limited: %v", e.Provider, e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// ErrInvalidResponse means the model answered, but not with JSON matching
// the requested schema. Content holds what it did send.
type ErrInvalidResponse struct {
	Content json.RawMessage
	Err     error
}

func (e *ErrInvalidResponse) Error() string {
	return fmt.Sprintf("invalid model output: %v", e.Err)
}

func (e *ErrInvalidResponse) Unwrap() error { return e.Err }

// ErrProviderUnavailable covers 5xx answers, transport failures and an
// exhausted mock queue. StatusCode is zero when no HTTP answer arrived.
type ErrProviderUnavailable struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ErrProviderUnavailable) Error() string {
	name := e.Provider
	if name == "" {
		name = "llm"
	}
	switch {
	case e.StatusCode != 0 && e.Err != nil:
		return fmt.Sprintf("%s unavailable (HTTP %d): %v", name, e.StatusCode, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s unavailable: %v", name, e.Err)
	default:
		return name + " unavailable"
	}
}

func (e *ErrProviderUnavailable) Unwrap() error { return e.Err }

// ErrAuthentication is returned for 401 and 403 answers. Retrying cannot
// fix a bad key, so RetryProvider gives up immediately.
type ErrAuthentication struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ErrAuthentication) Error() string {
	return fmt.Sprintf("%s rejected credentials (HTTP %d): %v", e.Provider, e.StatusCode, e.Err)
}

func (e *ErrAuthentication) Unwrap() error { return e.Err }

// ErrMaxTokensExceeded means structured output was cut off at MaxTokens,
// leaving Content as a truncated JSON fragment.
type ErrMaxTokensExceeded struct {
	Content json.RawMessage
}

func (e *ErrMaxTokensExceeded) Error() string {
	return "model output truncated at max tokens"
}

// classifyStatus turns a vendor HTTP status into one of the typed errors
// above. Statuses the retry layer has no special rule for (400, 404, 422)
// surface as ErrProviderUnavailable carrying the code.
func classifyStatus(provider string, status int, header http.Header, err error) error {
	switch {
	case status == http.StatusTooManyRequests:
		return &ErrRateLimit{Provider: provider, RetryAfter: retryAfter(header), Err: err}
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return &ErrAuthentication{Provider: provider, StatusCode: status, Err: err}
	default:
		return &ErrProviderUnavailable{Provider: provider, StatusCode: status, Err: err}
	}
}

// retryAfter reads a Retry-After header in either delta-seconds or
// HTTP-date form. Missing or unparseable values yield zero.
func retryAfter(h http.Header) time.Duration {
	if h == nil {
		return 0
	}
	v := h.Get("Retry-After")
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
