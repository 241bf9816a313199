package id

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalid is returned for account IDs that cannot be stored as a CSV key.
var ErrInvalid = errors.New("invalid account ID")

// maxLen bounds account IDs.
const maxLen = 32

// Normalize trims an account ID and checks it is usable as a record key:
// non-empty, at most 32 characters, letters, digits, '-' or '_' only.
func Normalize(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalid)
	}
	if len(s) > maxLen {
		return "", fmt.Errorf("%w: %q longer than %d characters", ErrInvalid, s, maxLen)
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r == '-', r == '_':
		default:
			return "", fmt.Errorf("%w: %q contains %q", ErrInvalid, s, r)
		}
	}
	return s, nil
}

// Next returns the numeric ID following the largest numeric ID in existing.
// Non-numeric IDs are ignored. With no numeric IDs it returns first.
func Next(existing []string, first int) string {
	maxID := first - 1
	for _, e := range existing {
		n, err := strconv.Atoi(e)
		if err != nil {
			continue
		}
		if n > maxID {
			maxID = n
		}
	}
	return strconv.Itoa(maxID + 1)
}

// Compare orders account IDs numerically when both are numbers, and
// lexically otherwise. Numbers sort before non-numbers.
func Compare(a, b string) int {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)
	switch {
	case errA == nil && errB == nil:
		switch {
		case na < nb:
			return -1
		case na > nb:
			return 1
		}
		return strings.Compare(a, b)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	default:
		return strings.Compare(a, b)
	}
}
