package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the panelstate banner to w.
func PrintBanner(w io.Writer) {
	p := termenv.ColorProfile()
	lines := []struct{ text, color string }{
		{"                          _     _        _       ", "#818cf8"},
		{"  _ __   __ _ _ __   ___| |___| |_ __ _| |_ ___ ", "#a78bfa"},
		{" | '_ \\ / _` | '_ \\ / _ \\ / __| __/ _` | __/ _ \\", "#c084fc"},
		{" | |_) | (_| | | | |  __/ \\__ \\ || (_| | ||  __/", "#e879f9"},
		{" | .__/ \\__,_|_| |_|\\___|_|___/\\__\\__,_|\\__\\___|", "#f472b6"},
		{" |_|                                             ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
