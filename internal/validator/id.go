// Package validator checks untrusted input before it reaches a registry.
package validator

import (
	"fmt"
	"os"
	"strconv"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/panelstate/pkg/domain"
)

var (
	// DefaultMaxIDSize is 256 bytes (conservative default)
	DefaultMaxIDSize = 256
	// EnvMaxIDSize is the environment variable to override the default
	EnvMaxIDSize = "PANELSTATE_MAX_ID_SIZE"
)

// CheckID rejects entry ids that are empty, too long, not valid UTF-8 or
// carry control characters. Ids are never rewritten: two different inputs
// must not end up naming the same entry.
func CheckID(id string) error {
	if id == "" {
		return domain.ErrEmptyIdentifier
	}

	// 1. Enforce Size Limit
	if limit := maxIDSize(); len(id) > limit {
		return fmt.Errorf("%w: size=%d limit=%d", domain.ErrInvalidIdentifier, len(id), limit)
	}

	// 2. Validate UTF-8
	if !utf8.ValidString(id) {
		return fmt.Errorf("%w: invalid UTF-8", domain.ErrInvalidIdentifier)
	}

	// 3. Reject Control Characters (ANSI codes, NULL, newlines...)
	// This prevents log poisoning and terminal corruption.
	for i, r := range id {
		if unicode.IsControl(r) {
			return fmt.Errorf("%w: control character %U at byte %d", domain.ErrInvalidIdentifier, r, i)
		}
	}
	return nil
}

func maxIDSize() int {
	if val := os.Getenv(EnvMaxIDSize); val != "" {
		if size, err := strconv.Atoi(val); err == nil && size > 0 {
			return size
		}
	}
	return DefaultMaxIDSize
}
