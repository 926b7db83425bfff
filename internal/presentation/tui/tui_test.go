package tui_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/aretw0/parley/internal/presentation/tui"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintBanner_NotTerminal(t *testing.T) {
	var buf bytes.Buffer
	tui.PrintBanner(&buf)
	assert.Empty(t, buf.String())
	assert.False(t, tui.IsTerminal(&buf))
}

func TestNameStyler_KeepsName(t *testing.T) {
	style := tui.NewNameStyler()
	out := style("Guard")
	assert.Contains(t, out, "Guard")
	assert.Equal(t, out, style("Guard"))
}

func TestRenderer(t *testing.T) {
	render := tui.NewRenderer()
	out, err := render("**Halt!** Who goes there?")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "Halt!"))
}
