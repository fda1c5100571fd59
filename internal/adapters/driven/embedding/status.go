// Package embedding holds helpers shared by the embedding provider adapters.
package embedding

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-rag/internal/core/domain"
)

// maxErrorBody bounds how much of an error response is kept.
const maxErrorBody = 512

// StatusError builds a ProviderStatusError from a non-2xx response.
// Retry-After is honoured in both its seconds and HTTP-date forms.
func StatusError(provider string, resp *http.Response, body []byte, now time.Time) *domain.ProviderStatusError {
	msg := strings.TrimSpace(string(body))
	if len(msg) > maxErrorBody {
		msg = msg[:maxErrorBody] + "..."
	}
	return &domain.ProviderStatusError{
		Provider:   provider,
		StatusCode: resp.StatusCode,
		RetryAfter: ParseRetryAfter(resp.Header.Get("Retry-After"), now),
		Body:       msg,
	}
}

// ParseRetryAfter returns the delay in a Retry-After header value,
// or 0 when absent or unparseable.
func ParseRetryAfter(v string, now time.Time) time.Duration {
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
	if at, err := http.ParseTime(v); err == nil {
		if d := at.Sub(now); d > 0 {
			return d
		}
	}
	return 0
}
