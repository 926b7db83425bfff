// Package codegen generates Go constants for the identifiers of a conversation graph,
// so hosts can refer to conversations, actors and flags without string literals.
package codegen

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/aretw0/parley/pkg/schema"
	"github.com/dave/jennifer/jen"
)

// Input is what the generator needs from a compiled graph.
type Input struct {
	Package string
	Graph   *schema.Graph
	// Flags lists flag names in index order.
	Flags []string
}

// Generate renders the constants file.
func Generate(in Input) (string, error) {
	if in.Package == "" {
		return "", fmt.Errorf("package name is required")
	}
	if in.Graph == nil {
		return "", fmt.Errorf("graph is required")
	}

	f := jen.NewFile(in.Package)
	f.HeaderComment("Code generated by parley gen. DO NOT EDIT.")

	var convs, actors []jen.Code
	seen := make(map[string]string)
	for _, c := range in.Graph.Conversations {
		id, err := ident("Conversation", c.ID, seen)
		if err != nil {
			return "", err
		}
		convs = append(convs, jen.Id(id).Op("=").Lit(c.ID))
	}
	for _, a := range in.Graph.Actors {
		id, err := ident("Actor", a.ID, seen)
		if err != nil {
			return "", err
		}
		actors = append(actors, jen.Id(id).Op("=").Lit(a.ID))
	}

	if len(convs) > 0 {
		f.Comment("Conversation identifiers.")
		f.Const().Defs(convs...)
	}
	if len(actors) > 0 {
		f.Comment("Actor identifiers.")
		f.Const().Defs(actors...)
	}

	if len(in.Flags) > 0 {
		defs := make([]jen.Code, 0, len(in.Flags))
		names := make([]jen.Code, 0, len(in.Flags))
		for i, name := range in.Flags {
			id, err := ident("Flag", name, seen)
			if err != nil {
				return "", err
			}
			defs = append(defs, jen.Id(id).Op("=").Lit(i))
			names = append(names, jen.Lit(name))
		}
		f.Comment("Flag indices, as assigned when the graph is compiled.")
		f.Const().Defs(defs...)
		f.Comment("FlagNames maps flag indices back to their names.")
		f.Var().Id("FlagNames").Op("=").Index().String().Values(names...)
	}

	return f.GoString(), nil
}

// ident builds an exported Go identifier from a graph id, rejecting collisions.
func ident(prefix, raw string, seen map[string]string) (string, error) {
	var sb strings.Builder
	sb.WriteString(prefix)
	upper := true
	for _, r := range raw {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			upper = true
			continue
		}
		if upper {
			r = unicode.ToUpper(r)
			upper = false
		}
		sb.WriteRune(r)
	}
	id := sb.String()
	if id == prefix {
		return "", fmt.Errorf("cannot derive identifier from %q", raw)
	}
	if prev, ok := seen[id]; ok {
		return "", fmt.Errorf("identifier %s derived from both %q and %q", id, prev, raw)
	}
	seen[id] = raw
	return id, nil
}
