package logger

import (
	"fmt"
	"strings"
)

// RedactEmail masks an email address for safe logging.
// "john.doe@example.com" → "jo***@example.com"
// Short local parts (≤2 chars) are fully masked: "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return "***@***"
	}
	name := parts[0]
	if len(name) > 2 {
		return name[:2] + "***@" + parts[1]
	}
	return "***@" + parts[1]
}

// RedactFreeText masks user-written content, keeping only its length so
// log lines stay useful for debugging volume issues.
// "loved this post" → "[redacted:15]"
func RedactFreeText(s string) string {
	if s == "" {
		return ""
	}
	return fmt.Sprintf("[redacted:%d]", len(s))
}
