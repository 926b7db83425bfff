package codegen_test

import (
	"go/ast"
	"go/parser"
	"go/token"
	"strings"
	"testing"

	"github.com/aretw0/parley/internal/codegen"
	"github.com/aretw0/parley/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// constants parses src and returns every const name with its literal value.
func constants(t *testing.T, src string) map[string]string {
	t.Helper()
	file, err := parser.ParseFile(token.NewFileSet(), "gen.go", src, 0)
	require.NoError(t, err)

	out := make(map[string]string)
	for _, decl := range file.Decls {
		gd, ok := decl.(*ast.GenDecl)
		if !ok || gd.Tok != token.CONST {
			continue
		}
		for _, spec := range gd.Specs {
			vs := spec.(*ast.ValueSpec)
			out[vs.Names[0].Name] = vs.Values[0].(*ast.BasicLit).Value
		}
	}
	return out
}

func TestGenerate(t *testing.T) {
	g := &schema.Graph{
		Actors:        []schema.Actor{{ID: "city_guard"}},
		Conversations: []schema.Conversation{{ID: "gate-1"}, {ID: "tavern"}},
	}

	src, err := codegen.Generate(codegen.Input{Package: "lines", Graph: g, Flags: []string{"alarm", "door.open"}})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(src, "// Code generated by parley gen. DO NOT EDIT."))
	assert.Contains(t, src, "package lines")
	assert.Equal(t, map[string]string{
		"ConversationGate1":  `"gate-1"`,
		"ConversationTavern": `"tavern"`,
		"ActorCityGuard":     `"city_guard"`,
		"FlagAlarm":          "0",
		"FlagDoorOpen":       "1",
	}, constants(t, src))
	assert.Contains(t, src, `FlagNames = []string{"alarm", "door.open"}`)
}

func TestGenerate_Errors(t *testing.T) {
	_, err := codegen.Generate(codegen.Input{Graph: &schema.Graph{}})
	assert.EqualError(t, err, "package name is required")

	_, err = codegen.Generate(codegen.Input{Package: "p"})
	assert.EqualError(t, err, "graph is required")

	_, err = codegen.Generate(codegen.Input{Package: "p", Graph: &schema.Graph{
		Conversations: []schema.Conversation{{ID: "a-b"}, {ID: "a_b"}},
	}})
	assert.EqualError(t, err, `identifier ConversationAB derived from both "a-b" and "a_b"`)

	_, err = codegen.Generate(codegen.Input{Package: "p", Graph: &schema.Graph{}, Flags: []string{"--"}})
	assert.EqualError(t, err, `cannot derive identifier from "--"`)
}

func TestGenerate_Empty(t *testing.T) {
	src, err := codegen.Generate(codegen.Input{Package: "p", Graph: &schema.Graph{}})
	require.NoError(t, err)
	assert.Empty(t, constants(t, src))
	assert.NotContains(t, src, "FlagNames")
}
