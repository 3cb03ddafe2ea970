package logging

import (
	"regexp"
	"strings"
)

// RedactedPlaceholder replaces sensitive values in log output.
const RedactedPlaceholder = "[REDACTED]"

// Patterns for credential material that must never reach a log file.
// Compiled once at package init.
var sensitivePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(sk-[a-zA-Z0-9_-]{20,})`),        // OpenAI-style keys
	regexp.MustCompile(`(?i)(AIza[a-zA-Z0-9_-]{35})`),        // Google API keys
	regexp.MustCompile(`(?i)(bearer\s+[a-zA-Z0-9._-]{20,})`), // Bearer tokens
	regexp.MustCompile(`(?i)(api_?key\s*[:=]\s*[^\s,;&]{8,})`),
	regexp.MustCompile(`(?i)(secret\s*[:=]\s*[^\s,;&]{8,})`),
	regexp.MustCompile(`(?i)(token\s*[:=]\s*[^\s,;&]{8,})`),
}

// Field names whose entire value is treated as sensitive.
var sensitiveFieldMarkers = []string{
	"api_key",
	"apikey",
	"secret",
	"token",
	"credential",
	"password",
}

// RedactSensitiveData replaces any detected credential material in a string.
// Pure function; returns the input unchanged when nothing matches.
func RedactSensitiveData(value string) string {
	if value == "" {
		return value
	}
	for _, pattern := range sensitivePatterns {
		value = pattern.ReplaceAllString(value, RedactedPlaceholder)
	}
	return value
}

// IsSensitiveField reports whether a structured log field name indicates its
// value is a credential and must be redacted wholesale.
func IsSensitiveField(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range sensitiveFieldMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
