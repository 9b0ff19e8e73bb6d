package utils

import (
	"strings"

	"github.com/google/uuid"
)

// NewRunID returns a fresh identifier for one pipeline run.
func NewRunID() string {
	return uuid.New().String()
}

// ShortID returns the first eight characters of id, for log lines.
func ShortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

// SanitizeIdentifier makes an identifier safe for use in file names.
func SanitizeIdentifier(id string) string {
	r := strings.NewReplacer(":", "-", " ", "-", "/", "-", "\\", "-")
	return r.Replace(id)
}
