package policy

import (
	"errors"
	"strings"
)

var ErrContentPolicyViolation = errors.New("content policy violation")

// MaxFieldLength bounds any single free-text field sent for drafting.
const MaxFieldLength = 4000

type Violation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type PolicyViolationError struct {
	Violations []Violation
}

func (e *PolicyViolationError) Error() string {
	if len(e.Violations) == 0 {
		return ErrContentPolicyViolation.Error()
	}
	return "content policy violation: " + e.Violations[0].Message
}

func (e *PolicyViolationError) Unwrap() error {
	return ErrContentPolicyViolation
}

// CheckDraftText rejects prospecting descriptions that are oversized or ask
// for abusive outreach.
func CheckDraftText(fields ...string) error {
	violations := EvaluateDraftText(fields...)
	if len(violations) == 0 {
		return nil
	}
	return &PolicyViolationError{Violations: violations}
}

func EvaluateDraftText(fields ...string) []Violation {
	values := make([]string, 0, len(fields))
	for _, field := range fields {
		if trimmed := strings.TrimSpace(field); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return nil
	}

	var violations []Violation
	for _, value := range values {
		if len(value) > MaxFieldLength {
			violations = append(violations, Violation{
				Code:    "payload_too_large",
				Message: "one or more text fields exceed policy size limits",
			})
			break
		}
	}

	content := strings.ToLower(strings.Join(values, "\n"))
	for _, token := range blockedKeywords {
		if strings.Contains(content, token) {
			violations = append(violations, Violation{
				Code:    "blocked_operation",
				Message: "request contains operation blocked by policy",
			})
			break
		}
	}
	return violations
}

var blockedKeywords = []string{
	"bulk messaging",
	"mass spam",
	"spam blast",
	"scrape personal emails",
	"phishing",
	"ransomware",
	"malware",
	"credential harvesting",
}
