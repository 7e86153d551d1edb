package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/errdefs"
)

// Size limits (in bytes)
const (
	MaxJSONSize  = 1 * 1024 * 1024 // 1MB - maximum request body
	MaxInputSize = 256 * 1024      // 256KB - single terminal write
)

// String length limits
const (
	MaxIDLength   = 128
	MaxPathLength = 4096
)

var (
	// SafeIDPattern allows alphanumeric, hyphens, underscores
	SafeIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	// ToolIDPattern allows alphanumeric, hyphens, underscores, and dots (for service.tool format)
	ToolIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	const op = "validate"
	if required && value == "" {
		return errdefs.Invalid(op, "%s is required", fieldName)
	}
	if value == "" {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return errdefs.Invalid(op, "%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return errdefs.Invalid(op, "%s must not exceed %d characters", fieldName, maxLen)
	}

	if strings.Contains(value, "\x00") {
		return errdefs.Invalid(op, "%s contains invalid characters", fieldName)
	}
	return nil
}

// ValidateID validates an ID field
func ValidateID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}
	if id != "" && !SafeIDPattern.MatchString(id) {
		return errdefs.Invalid("validate", "%s contains invalid characters (only alphanumeric, hyphens, and underscores allowed)", fieldName)
	}
	return nil
}

// ValidateToolID validates a tool ID field (allows dots for service.tool format)
func ValidateToolID(id, fieldName string, required bool) error {
	if err := ValidateString(id, fieldName, 1, MaxIDLength, required); err != nil {
		return err
	}
	if id != "" && !ToolIDPattern.MatchString(id) {
		return errdefs.Invalid("validate", "%s contains invalid characters (only alphanumeric, dots, hyphens, and underscores allowed)", fieldName)
	}
	return nil
}

// ValidatePath validates a filesystem path argument
func ValidatePath(path, fieldName string, required bool) error {
	return ValidateString(path, fieldName, 1, MaxPathLength, required)
}
