package privacy

import (
	"regexp"
	"unicode/utf8"
)

const maxLogRunes = 200

var (
	emailRegex = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)

	// Vietnamese mobile (03x/05x/07x/08x/09x) and landline (02x) numbers,
	// with or without the +84 prefix and optional separators.
	// Matches: 0912345678, 091 234 5678, +84 912.345.678, 02838123456
	phoneRegex = regexp.MustCompile(`(?:\+84[\s.-]?|\b0)(?:[35789](?:[\s.-]?\d){8}|2(?:[\s.-]?\d){9})\b`)

	// Citizen ID (CCCD, 12 digits) and labelled old ID card numbers (CMND)
	nationalIDRegex = regexp.MustCompile(`\b\d{12}\b`)
	labelledIDRegex = regexp.MustCompile(`(?i)\b(?:CMND|CCCD)[\s:.#-]*\d{9,12}\b`)

	// Health insurance card (BHYT): two letters then 13 digits
	insuranceIDRegex = regexp.MustCompile(`\b[A-Z]{2}\d{13}\b`)
)

// RedactSensitiveData replaces personal identifiers in text with placeholders
func RedactSensitiveData(text string) string {
	text = emailRegex.ReplaceAllString(text, "[EMAIL]")
	text = insuranceIDRegex.ReplaceAllString(text, "[INSURANCE_ID]")
	text = labelledIDRegex.ReplaceAllString(text, "[NATIONAL_ID]")
	text = phoneRegex.ReplaceAllString(text, "[PHONE]")
	text = nationalIDRegex.ReplaceAllString(text, "[NATIONAL_ID]")
	return text
}

// SanitizeForLogging redacts text and caps it for a log line
func SanitizeForLogging(text string) string {
	redacted := RedactSensitiveData(text)

	if utf8.RuneCountInString(redacted) > maxLogRunes {
		runes := []rune(redacted)
		return string(runes[:maxLogRunes-3]) + "..."
	}
	return redacted
}

// ContainsPII checks if text contains potential personal identifiers
func ContainsPII(text string) bool {
	return emailRegex.MatchString(text) ||
		phoneRegex.MatchString(text) ||
		nationalIDRegex.MatchString(text) ||
		labelledIDRegex.MatchString(text) ||
		insuranceIDRegex.MatchString(text)
}
