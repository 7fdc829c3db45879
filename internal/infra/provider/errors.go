package provider

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const maxErrorBody = 512

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string

	// Throttled is set when a non-429 response carries a rate-limit message.
	Throttled bool
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > maxErrorBody {
		cut := maxErrorBody
		for cut > 0 && !utf8.RuneStart(body[cut]) {
			cut--
		}
		body = body[:cut] + "..."
	}
	if e.Throttled && e.StatusCode != http.StatusTooManyRequests {
		return fmt.Sprintf("%s: throttle detected in http %d: %s", e.Provider, e.StatusCode, body)
	}
	if body == "" {
		return fmt.Sprintf("%s: http %d %s", e.Provider, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s: http %d: %s", e.Provider, e.StatusCode, body)
}

// HTTPStatus reports the effective status for classification.
func (e *StatusError) HTTPStatus() int {
	if e.Throttled {
		return http.StatusTooManyRequests
	}
	return e.StatusCode
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := t.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
