package tui

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/aretw0/panelstate/pkg/domain"
	"github.com/aretw0/panelstate/pkg/treeio"
	"github.com/muesli/termenv"
)

// Printer writes coloured tree listings.
type Printer struct {
	Profile termenv.Profile
}

// NewPrinter uses the colour profile of the terminal.
func NewPrinter() Printer {
	return Printer{Profile: termenv.ColorProfile()}
}

// Plain never emits escape sequences.
func Plain() Printer {
	return Printer{Profile: termenv.Ascii}
}

func (p Printer) paint(s, color string) string {
	return p.Profile.String(s).Foreground(p.Profile.Color(color)).String()
}

// Listing writes one "path = value" line per leaf of t.
func (p Printer) Listing(w io.Writer, t *domain.Tree, prefix string) error {
	for _, pv := range domain.Flatten(t, prefix) {
		path := pv.Path
		if path == "" {
			path = "."
		}
		value, err := json.Marshal(pv.Value)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s = %s\n", p.paint(path, "#818cf8"), p.paint(string(value), valueColor(pv.Value))); err != nil {
			return err
		}
	}
	return nil
}

// Diff writes a line diff, added lines prefixed "+", removed ones "-".
func (p Printer) Diff(w io.Writer, lines []treeio.Line) error {
	for _, l := range lines {
		var out string
		switch l.Op {
		case treeio.Insert:
			out = p.paint("+ "+l.Text, "#22c55e")
		case treeio.Delete:
			out = p.paint("- "+l.Text, "#ef4444")
		default:
			out = "  " + l.Text
		}
		if _, err := fmt.Fprintln(w, out); err != nil {
			return err
		}
	}
	return nil
}

func valueColor(t *domain.Tree) string {
	switch t.Kind {
	case domain.StringKind:
		return "#a3e635"
	case domain.NumberKind:
		return "#f472b6"
	case domain.BoolKind:
		return "#fbbf24"
	default:
		return "#9ca3af"
	}
}
