package compiler

import (
	"fmt"
	"sort"

	"github.com/aretw0/parley/pkg/routine"
)

// Function is a host function callable from routines.
// Arguments are int64, float64, string, bool, nil or host values.
type Function func(ctx routine.Context, args []any) (any, error)

// VariableStore holds host variables visible to routines.
// Identifiers that are not routine locals resolve here at runtime.
type VariableStore interface {
	Load(name string) (any, bool)
	Store(name string, value any) error
}

// Object lets host values expose members and methods to routines.
type Object interface {
	Member(name string) (any, error)
	Invoke(method string, args []any) (any, error)
}

// Bindings is the host surface routines are compiled against.
type Bindings struct {
	Functions map[string]Function
	Variables VariableStore
}

// FunctionNames returns the bound function names, sorted.
func (b Bindings) FunctionNames() []string {
	names := make([]string, 0, len(b.Functions))
	for name := range b.Functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// MapStore is a VariableStore backed by a map.
type MapStore map[string]any

// Load implements VariableStore.
func (m MapStore) Load(name string) (any, bool) {
	v, ok := m[name]
	return v, ok
}

// Store implements VariableStore.
func (m MapStore) Store(name string, value any) error {
	if m == nil {
		return fmt.Errorf("cannot store %q: nil variable store", name)
	}
	m[name] = value
	return nil
}
