package policy

import "regexp"

var (
	emailPattern = regexp.MustCompile(`(?i)\b[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}\b`)
	phonePattern = regexp.MustCompile(`(?:\+?\d[\d()\-\s.]{7,}\d)`)
	cpfPattern   = regexp.MustCompile(`\b\d{3}\.?\d{3}\.?\d{3}\-?\d{2}\b`)
	cardPattern  = regexp.MustCompile(`\b(?:\d[ -]*?){13,16}\b`)
)

// MaskPII redacts contact details and document numbers from free text before
// it leaves the process in a model prompt.
func MaskPII(value string) string {
	masked := emailPattern.ReplaceAllString(value, "[email_redacted]")
	masked = phonePattern.ReplaceAllString(masked, "[phone_redacted]")
	masked = cpfPattern.ReplaceAllString(masked, "***.***.***-**")
	masked = cardPattern.ReplaceAllStringFunc(masked, maskCardNumber)
	return masked
}

func maskCardNumber(value string) string {
	digits := make([]rune, 0, len(value))
	for _, char := range value {
		if char >= '0' && char <= '9' {
			digits = append(digits, char)
		}
	}
	if len(digits) < 8 {
		return "[card_redacted]"
	}
	return "**** **** **** " + string(digits[len(digits)-4:])
}
