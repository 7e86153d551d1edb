package utils

import (
	"encoding/json"
	"math"

	"github.com/LMMs-Lab/lmms-lab-writer/backend/internal/shared/errdefs"
)

// Tool parameters arrive as decoded JSON, so numbers are float64 unless a
// caller built the map by hand.

// String returns a required string parameter.
func String(params map[string]interface{}, key string) (string, error) {
	s, ok, err := lookupString(params, key)
	if err != nil {
		return "", err
	}
	if !ok || s == "" {
		return "", errdefs.Invalid("params", "%s is required", key)
	}
	return s, nil
}

// OptionalString returns a string parameter or "" when absent.
func OptionalString(params map[string]interface{}, key string) (string, error) {
	s, _, err := lookupString(params, key)
	return s, err
}

// Int returns a required integer parameter.
func Int(params map[string]interface{}, key string) (int, error) {
	n, ok, err := lookupInt(params, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, errdefs.Invalid("params", "%s is required", key)
	}
	return n, nil
}

// OptionalInt returns an integer parameter or def when absent.
func OptionalInt(params map[string]interface{}, key string, def int) (int, error) {
	n, ok, err := lookupInt(params, key)
	if err != nil || !ok {
		return def, err
	}
	return n, nil
}

// Dimension returns an optional terminal dimension; absent means 0.
func Dimension(params map[string]interface{}, key string) (uint16, error) {
	return dimension(params, key, false)
}

// RequiredDimension returns a required terminal dimension.
func RequiredDimension(params map[string]interface{}, key string) (uint16, error) {
	return dimension(params, key, true)
}

func dimension(params map[string]interface{}, key string, required bool) (uint16, error) {
	n, ok, err := lookupInt(params, key)
	if err != nil {
		return 0, err
	}
	if !ok {
		if required {
			return 0, errdefs.Invalid("params", "%s is required", key)
		}
		return 0, nil
	}
	if n < 0 || n > math.MaxUint16 {
		return 0, errdefs.Invalid("params", "%s out of range: %d", key, n)
	}
	return uint16(n), nil
}

func lookupString(params map[string]interface{}, key string) (string, bool, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return "", false, nil
	}
	s, ok := v.(string)
	if !ok {
		return "", false, errdefs.Invalid("params", "%s must be a string", key)
	}
	return s, true, nil
}

func lookupInt(params map[string]interface{}, key string) (int, bool, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return 0, false, nil
	}
	switch n := v.(type) {
	case int:
		return n, true, nil
	case int64:
		return int(n), true, nil
	case float64:
		if n != math.Trunc(n) {
			return 0, false, errdefs.Invalid("params", "%s must be an integer", key)
		}
		return int(n), true, nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false, errdefs.Invalid("params", "%s must be an integer", key)
		}
		return int(i), true, nil
	}
	return 0, false, errdefs.Invalid("params", "%s must be a number", key)
}
