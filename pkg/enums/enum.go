package enums

import (
	"fmt"
	"slices"
)

// parse matches raw exactly against allowed; label names the enum in the
// error message.
func parse[T ~string](allowed []T, raw, label string) (T, error) {
	if v := T(raw); slices.Contains(allowed, v) {
		return v, nil
	}
	return "", fmt.Errorf("invalid %s %q", label, raw)
}
