// Package registry collects the host functions routines may call.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/parley"
	"github.com/aretw0/parley/pkg/routine"
	"github.com/aretw0/parley/pkg/runner"
)

// ErrNoPoster is returned by wait when the registry was set up without a driver to post to.
var ErrNoPoster = errors.New("wait: no driver to release the lease on")

// Registry manages the functions exposed to routines.
type Registry struct {
	mu        sync.RWMutex
	functions map[string]parley.Function
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		functions: make(map[string]parley.Function),
	}
}

// Register adds a function to the registry.
// If a function with the same name exists, it is overwritten.
func (r *Registry) Register(name string, fn parley.Function) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.functions[name] = fn
}

// Names lists the registered functions, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.functions))
	for name := range r.functions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Bindings snapshots the registered functions together with a variable store.
// Functions registered afterwards are not visible to graphs compiled with the result.
func (r *Registry) Bindings(vars parley.MapStore) parley.Bindings {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fns := make(map[string]parley.Function, len(r.functions))
	for name, fn := range r.functions {
		fns[name] = fn
	}
	return parley.Bindings{Functions: fns, Variables: vars}
}

// RegisterStandard adds the functions every host gets:
//
//	log(args...)         writes the arguments to logger at info level
//	random(lo, hi)       returns an integer in [lo, hi]
//	concat(args...)      joins the arguments into a string
//	wait(lease, millis)  releases lease after millis milliseconds
//
// wait releases on the engine's goroutine by posting through poster; with a nil poster
// it fails when called.
func RegisterStandard(r *Registry, logger *slog.Logger, poster runner.Poster) {
	r.Register("log", func(ctx routine.Context, args []any) (any, error) {
		logger.Info("routine log", "message", join(args, " "), "seq", ctx.SequenceNumber())
		return nil, nil
	})
	r.Register("random", func(_ routine.Context, args []any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("random expects 2 arguments, got %d", len(args))
		}
		lo, ok1 := args[0].(int64)
		hi, ok2 := args[1].(int64)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("random expects int arguments")
		}
		if hi < lo {
			return nil, fmt.Errorf("random: empty range [%d, %d]", lo, hi)
		}
		return lo + rand.Int64N(hi-lo+1), nil
	})
	r.Register("concat", func(_ routine.Context, args []any) (any, error) {
		return join(args, ""), nil
	})
	r.Register("wait", func(_ routine.Context, args []any) (any, error) {
		if len(args) != 2 {
			return nil, fmt.Errorf("wait expects 2 arguments, got %d", len(args))
		}
		lease, ok1 := args[0].(routine.Lease)
		millis, ok2 := args[1].(int64)
		if !ok1 || !ok2 {
			return nil, fmt.Errorf("wait expects a lease and an int")
		}
		if millis < 0 {
			return nil, fmt.Errorf("wait: negative delay %d", millis)
		}
		if poster == nil {
			return nil, ErrNoPoster
		}
		time.AfterFunc(time.Duration(millis)*time.Millisecond, func() {
			if err := poster.Post(lease.Release); err != nil {
				logger.Debug("lease not released", "error", err)
			}
		})
		return nil, nil
	})
}

func join(args []any, sep string) string {
	parts := make([]string, len(args))
	for i, a := range args {
		parts[i] = fmt.Sprint(a)
	}
	return strings.Join(parts, sep)
}
