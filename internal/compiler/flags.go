package compiler

// FlagRegistry assigns stable indices to flag names in first-seen order.
// One registry is shared by every routine compiled for a graph so that the
// indices agree across routines and size the runtime flag array.
type FlagRegistry struct {
	names []string
	index map[string]int
}

// NewFlagRegistry creates an empty registry.
func NewFlagRegistry() *FlagRegistry {
	return &FlagRegistry{index: make(map[string]int)}
}

// Register returns the index of name, adding it if needed.
func (r *FlagRegistry) Register(name string) int {
	if i, ok := r.index[name]; ok {
		return i
	}
	i := len(r.names)
	r.names = append(r.names, name)
	r.index[name] = i
	return i
}

// Index returns the index of a registered flag.
func (r *FlagRegistry) Index(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// Name returns the flag registered at index i.
func (r *FlagRegistry) Name(i int) (string, bool) {
	if i < 0 || i >= len(r.names) {
		return "", false
	}
	return r.names[i], true
}

// Len returns the number of registered flags.
func (r *FlagRegistry) Len() int {
	return len(r.names)
}

// Names returns the registered flags in index order.
func (r *FlagRegistry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}
