package tui

import (
	"fmt"
	"io"

	"github.com/muesli/termenv"
)

// PrintBanner writes the Parley banner to w.
// Nothing is written when w is not a terminal.
func PrintBanner(w io.Writer) {
	if !IsTerminal(w) {
		return
	}
	p := termenv.ColorProfile()
	lines := []struct{ text, color string }{
		{"  ____            _            ", "#818cf8"},
		{" |  _ \\ __ _ _ __| | ___ _   _ ", "#a78bfa"},
		{" | |_) / _` | '__| |/ _ \\ | | |", "#c084fc"},
		{" |  __/ (_| | |  | |  __/ |_| |", "#e879f9"},
		{" |_|   \\__,_|_|  |_|\\___|\\__, |", "#f472b6"},
		{"                         |___/ ", "#fb7185"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, termenv.String(l.text).Foreground(p.Color(l.color)))
	}
	fmt.Fprintln(w)
}
