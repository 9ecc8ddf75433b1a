package validator

import (
	"strings"
	"testing"

	"github.com/aretw0/panelstate/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestCheckID(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{"plain", "panel1", nil},
		{"unicode", "painel-ção/1", nil},
		{"empty", "", domain.ErrEmptyIdentifier},
		{"too long", strings.Repeat("x", DefaultMaxIDSize+1), domain.ErrInvalidIdentifier},
		{"invalid utf8", "bad\xff", domain.ErrInvalidIdentifier},
		{"ansi escape", "\x1b[31mred", domain.ErrInvalidIdentifier},
		{"newline", "a\nb", domain.ErrInvalidIdentifier},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckID(tt.id)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestCheckID_EnvLimit(t *testing.T) {
	t.Setenv(EnvMaxIDSize, "4")
	assert.NoError(t, CheckID("abcd"))
	assert.ErrorIs(t, CheckID("abcde"), domain.ErrInvalidIdentifier)

	t.Setenv(EnvMaxIDSize, "nonsense")
	assert.NoError(t, CheckID("abcde"))
}
