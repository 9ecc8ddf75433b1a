package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/panelstate/pkg/domain"
	"github.com/aretw0/panelstate/pkg/ports"
)

// Mask replaces the values of redacted keys.
const Mask = "***"

type piiMiddleware struct {
	ports.SnapshotStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks values of keys matching the
// patterns before they reach the store. Masking is one-way: Load returns the
// masked tree.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.SnapshotStore) ports.SnapshotStore {
		return &piiMiddleware{SnapshotStore: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, id string, state *domain.Tree) error {
	// Clone so the live registry state keeps its values.
	masked := state.Clone()
	m.mask(masked)
	return m.SnapshotStore.Save(ctx, id, masked)
}

func (m *piiMiddleware) mask(t *domain.Tree) {
	if !t.IsStructural() {
		return
	}
	if t.Kind == domain.ListKind {
		for _, v := range t.Values {
			m.mask(v)
		}
		return
	}
	for i, k := range t.Keys {
		if m.matches(k) {
			t.Values[i] = domain.FromString(Mask)
			continue
		}
		m.mask(t.Values[i])
	}
}

func (m *piiMiddleware) matches(key string) bool {
	for _, p := range m.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}
