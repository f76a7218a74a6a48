package retry

import (
	"context"
	"errors"
	"strings"

	openaigo "github.com/sashabaranov/go-openai"
)

// Classification is the retry decision for a dispatch failure.
type Classification int

const (
	// NonRetryable is the fail-closed default: validation errors, malformed
	// input, and any error shape we do not recognize are never retried.
	NonRetryable Classification = iota
	Retryable
)

func (c Classification) String() string {
	if c == Retryable {
		return "retryable"
	}
	return "non_retryable"
}

// retryableMessagePatterns is the fixed taxonomy of transient failures:
// network-layer errors, upstream overload, and quota/rate limits. Matched
// case-insensitively against the error message.
var retryableMessagePatterns = []string{
	// network layer
	"timeout",
	"timed out",
	"network error",
	"failed to fetch",
	"connection refused",
	"connection reset",
	"no such host",
	"broken pipe",
	// upstream overload
	"503",
	"service unavailable",
	"unavailable",
	"overloaded",
	"overload",
	"không thể xử lý",
	"cannot process",
	// quota / rate limit
	"quota",
	"rate limit",
	"too many requests",
	"429",
}

// retryableStatusCodes covers structured upstream errors where the HTTP
// status survives (go-openai APIError). 408 timeout, 429 rate limit, and the
// 502-504 overload class.
func retryableStatusCode(code int) bool {
	return code == 408 || code == 429 || (code >= 502 && code <= 504)
}

// Classify decides whether a dispatch failure is worth one coordinated
// retry. Unknown error shapes classify as NonRetryable.
func Classify(err error) Classification {
	if err == nil {
		return NonRetryable
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Retryable
	}

	var apiErr *openaigo.APIError
	if errors.As(err, &apiErr) && retryableStatusCode(apiErr.HTTPStatusCode) {
		return Retryable
	}

	msg := strings.ToLower(err.Error())
	for _, p := range retryableMessagePatterns {
		if strings.Contains(msg, p) {
			return Retryable
		}
	}
	return NonRetryable
}
