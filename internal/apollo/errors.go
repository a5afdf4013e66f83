package apollo

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var ErrMissingAPIKey = errors.New("apollo api key is not configured")

const maxErrorBodyBytes = 500

var (
	bearerTokenPattern = regexp.MustCompile(`(?i)\bBearer\s+[^\s"']+`)
	apiKeyPattern      = regexp.MustCompile(`(?i)"?\b(api[_-]?key|x-api-key)\b"?\s*[:=]\s*"?[^\s"',}]+"?`)
)

// HTTPError is a non-2xx provider response. Body is truncated and has
// credential-looking substrings removed.
type HTTPError struct {
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.StatusCode)
	}
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Body)
}

// Retryable reports whether the status is worth retrying (429 and 5xx).
func (e *HTTPError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

func newHTTPError(statusCode int, body []byte) *HTTPError {
	snippet := body
	truncated := false
	if len(snippet) > maxErrorBodyBytes {
		snippet = snippet[:maxErrorBodyBytes]
		truncated = true
	}
	text := bearerTokenPattern.ReplaceAllString(string(snippet), "Bearer <redacted>")
	text = apiKeyPattern.ReplaceAllString(text, "<redacted_kv>")
	text = strings.TrimSpace(strings.NewReplacer("\n", " ", "\r", " ").Replace(text))
	if truncated && text != "" {
		text += "..."
	}
	return &HTTPError{StatusCode: statusCode, Body: text}
}

// transportError marks network-level failures so the retry policy can see them.
type transportError struct {
	err error
}

func (e *transportError) Error() string {
	return "transport error: " + e.err.Error()
}

func (e *transportError) Unwrap() error {
	return e.err
}
