package main

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/registry"
	"github.com/aretw0/parley/pkg/runner"
	"gopkg.in/yaml.v3"
)

// hostBindings builds the routine surface available from the command line:
// variables seeded from --var and the standard functions. Leases passed to wait are
// released through poster, which may be nil for commands that never run routines.
func hostBindings(vars map[string]string, logger *slog.Logger, poster runner.Poster) (parley.Bindings, error) {
	store := parley.MapStore{}
	for name, raw := range vars {
		v, err := parseScalar(raw)
		if err != nil {
			return parley.Bindings{}, fmt.Errorf("--var %s: %w", name, err)
		}
		store[name] = v
	}

	reg := registry.NewRegistry()
	registry.RegisterStandard(reg, logger, poster)
	return reg.Bindings(store), nil
}

// parseScalar reads a YAML scalar into the value types routines understand.
func parseScalar(raw string) (any, error) {
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return nil, err
	}
	switch x := v.(type) {
	case int:
		return int64(x), nil
	case nil, int64, float64, bool, string:
		return x, nil
	default:
		return nil, fmt.Errorf("unsupported value %q", raw)
	}
}
