package policy

import (
	"errors"
	"strings"
	"testing"
)

func TestMaskPIIMasksCommonPatterns(t *testing.T) {
	masked := MaskPII("reach ana@example.com or +55 11 99999-9999, card 4111 1111 1111 1111")

	if strings.Contains(masked, "ana@example.com") {
		t.Fatalf("expected email to be masked: %s", masked)
	}
	if strings.Contains(masked, "99999-9999") {
		t.Fatalf("expected phone to be masked: %s", masked)
	}
	if strings.Contains(masked, "4111 1111 1111 1111") {
		t.Fatalf("expected card to be masked: %s", masked)
	}
}

func TestMaskPIIKeepsPlainText(t *testing.T) {
	text := "Payroll software for mid-market HR teams"
	if got := MaskPII(text); got != text {
		t.Fatalf("expected text unchanged, got %q", got)
	}
}

func TestCheckDraftTextBlocksForbiddenOperation(t *testing.T) {
	err := CheckDraftText("Acme", "we need a phishing campaign")
	if !errors.Is(err, ErrContentPolicyViolation) {
		t.Fatalf("expected content policy violation, got %v", err)
	}

	var violation *PolicyViolationError
	if !errors.As(err, &violation) || violation.Violations[0].Code != "blocked_operation" {
		t.Fatalf("expected blocked_operation violation, got %v", err)
	}
}

func TestCheckDraftTextRejectsOversizedField(t *testing.T) {
	err := CheckDraftText(strings.Repeat("a", MaxFieldLength+1))
	if err == nil {
		t.Fatalf("expected oversized field to be rejected")
	}
}

func TestCheckDraftTextAllowsRegularDescription(t *testing.T) {
	if err := CheckDraftText("Payroll SaaS", "", "HR leaders in Brazil"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
