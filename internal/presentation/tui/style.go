package tui

import (
	"hash/fnv"
	"io"
	"os"

	"github.com/muesli/termenv"
	"golang.org/x/term"
)

var actorPalette = []string{"#818cf8", "#34d399", "#fbbf24", "#f472b6", "#60a5fa", "#fb7185"}

// IsTerminal reports whether w is attached to a terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}

// NewNameStyler returns a function that colours actor names.
// Each name gets a stable colour from a small palette.
func NewNameStyler() func(string) string {
	p := termenv.ColorProfile()
	return func(name string) string {
		h := fnv.New32a()
		_, _ = h.Write([]byte(name))
		color := actorPalette[h.Sum32()%uint32(len(actorPalette))]
		return termenv.String(name).Foreground(p.Color(color)).Bold().String()
	}
}
