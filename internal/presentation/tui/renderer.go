package tui

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/panelstate/pkg/domain"
	"github.com/charmbracelet/glamour"
)

// NewRenderer returns a function that renders markdown using glamour.
func NewRenderer() (func(string) (string, error), error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(), // Automatically detect light/dark background
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create renderer: %w", err)
	}
	return r.Render, nil
}

// StateMarkdown describes a stored state as a markdown document with one
// table row per leaf.
func StateMarkdown(id string, state *domain.Tree) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", id)

	pairs := domain.Flatten(state, "")
	if len(pairs) == 0 {
		sb.WriteString("_empty state_\n")
		return sb.String()
	}

	sb.WriteString("| Path | Value |\n|------|-------|\n")
	for _, p := range pairs {
		path := p.Path
		if path == "" {
			path = "."
		}
		value, _ := json.Marshal(p.Value)
		fmt.Fprintf(&sb, "| `%s` | `%s` |\n", cell(path), cell(string(value)))
	}
	return sb.String()
}

func cell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
