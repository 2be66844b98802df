package notify

import "strings"

// MaskEmail keeps the first character of the local part and the domain.
func MaskEmail(email string) string {
	at := strings.LastIndexByte(email, '@')
	if at <= 0 {
		return maskTail(email, 0)
	}
	return email[:1] + strings.Repeat("*", at-1) + email[at:]
}

// MaskPhone keeps the last four digits.
func MaskPhone(phone string) string {
	return maskTail(phone, 4)
}

func maskTail(s string, keep int) string {
	if len(s) <= keep {
		return strings.Repeat("*", len(s))
	}
	return strings.Repeat("*", len(s)-keep) + s[len(s)-keep:]
}
