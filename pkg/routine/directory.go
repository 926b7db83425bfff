package routine

import "fmt"

// Reserved directory slots. Nodes with empty routines point here.
const (
	// NoopCode does nothing and completes immediately.
	NoopCode = 0
	// NoopCondition always evaluates to true.
	NoopCondition = 1

	reservedSlots = 2
)

// Directory maps routine indices to executable units.
// It is built once at load time and is read-only afterwards.
type Directory struct {
	routines []Routine
}

// NewDirectory returns a directory holding only the reserved no-op routines.
func NewDirectory() *Directory {
	d := &Directory{routines: make([]Routine, reservedSlots)}
	d.routines[NoopCode] = func(Context) error { return nil }
	d.routines[NoopCondition] = func(ctx Context) error {
		ctx.SetConditionResult(true)
		return nil
	}
	return d
}

// Add appends a routine and returns its index.
func (d *Directory) Add(r Routine) int {
	d.routines = append(d.routines, r)
	return len(d.routines) - 1
}

// Len returns the number of routines, reserved slots included.
func (d *Directory) Len() int {
	return len(d.routines)
}

// Get returns the routine at index i.
func (d *Directory) Get(i int) (Routine, error) {
	if i < 0 || i >= len(d.routines) {
		return nil, fmt.Errorf("routine index %d out of range [0,%d)", i, len(d.routines))
	}
	return d.routines[i], nil
}

// Run executes the routine at index i against ctx.
func (d *Directory) Run(i int, ctx Context) error {
	r, err := d.Get(i)
	if err != nil {
		return err
	}
	return r(ctx)
}
