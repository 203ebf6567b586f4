package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the intake banner to w.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	lines := []struct {
		text  string
		color string
	}{
		{"  _       _        _        ", "#38bdf8"},
		{" (_)_ __ | |_ __ _| | _____ ", "#22d3ee"},
		{" | | '_ \\| __/ _` | |/ / _ \\", "#2dd4bf"},
		{" | | | | | || (_| |   <  __/", "#34d399"},
		{" |_|_| |_|\\__\\__,_|_|\\_\\___|", "#4ade80"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	fmt.Fprintln(w, out.String("  claim intake "+version).Faint())
	fmt.Fprintln(w)
}
