package compiler

import (
	"cmp"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/aretw0/parley/pkg/domain"
	"github.com/aretw0/parley/pkg/routine"
)

// RuntimeError reports a failure while a compiled routine runs.
type RuntimeError struct {
	Line    int
	Column  int
	Message string
	Err     error
}

func (e *RuntimeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("line %d column %d: %s: %v", e.Line, e.Column, e.Message, e.Err)
	}
	return fmt.Sprintf("line %d column %d: %s", e.Line, e.Column, e.Message)
}

func (e *RuntimeError) Unwrap() error {
	return e.Err
}

func runtimeError(pos Position, format string, args ...any) *RuntimeError {
	return &RuntimeError{Line: pos.Line, Column: pos.Column, Message: fmt.Sprintf(format, args...)}
}

// typeName describes a value in error messages.
func typeName(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "string"
	case bool:
		return "bool"
	case *domain.Node:
		return "node"
	case routine.Lease:
		return "lease"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// normalize converts host results to the routine value domain.
func normalize(v any) any {
	switch x := v.(type) {
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case uint32:
		return int64(x)
	case float32:
		return float64(x)
	case *domain.Node:
		if x == nil {
			return nil
		}
	case *domain.Actor:
		if x == nil {
			return nil
		}
	}
	return v
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int64:
		return float64(x), true
	case float64:
		return x, true
	}
	return 0, false
}

func format(v any) string {
	switch x := v.(type) {
	case nil:
		return "null"
	case *domain.Node:
		return x.ID
	case *domain.Actor:
		return x.Name
	default:
		return fmt.Sprint(x)
	}
}

func arithmetic(pos Position, op TokenType, l, r any) (any, error) {
	if op == TokenPlus {
		_, ls := l.(string)
		_, rs := r.(string)
		if ls || rs {
			return format(l) + format(r), nil
		}
	}

	li, lInt := l.(int64)
	ri, rInt := r.(int64)
	if lInt && rInt {
		switch op {
		case TokenPlus:
			return li + ri, nil
		case TokenMinus:
			return li - ri, nil
		case TokenStar:
			return li * ri, nil
		case TokenSlash:
			if ri == 0 {
				return nil, runtimeError(pos, "integer division by zero")
			}
			return li / ri, nil
		case TokenPercent:
			if ri == 0 {
				return nil, runtimeError(pos, "integer division by zero")
			}
			return li % ri, nil
		}
	}

	lf, lok := toFloat(l)
	rf, rok := toFloat(r)
	if !lok || !rok {
		return nil, runtimeError(pos, "operator %s not defined on %s and %s", op, typeName(l), typeName(r))
	}
	switch op {
	case TokenPlus:
		return lf + rf, nil
	case TokenMinus:
		return lf - rf, nil
	case TokenStar:
		return lf * rf, nil
	case TokenSlash:
		return lf / rf, nil
	case TokenPercent:
		return math.Mod(lf, rf), nil
	}
	return nil, runtimeError(pos, "unknown arithmetic operator %s", op)
}

func equal(l, r any) bool {
	li, lInt := l.(int64)
	ri, rInt := r.(int64)
	if lInt && rInt {
		return li == ri
	}
	if lf, ok := toFloat(l); ok {
		if rf, ok := toFloat(r); ok {
			return lf == rf
		}
		return false
	}
	if l == nil || r == nil {
		return l == nil && r == nil
	}
	lt, rt := reflect.TypeOf(l), reflect.TypeOf(r)
	if lt != rt || !lt.Comparable() {
		return false
	}
	return l == r
}

func compare(pos Position, op TokenType, l, r any) (any, error) {
	var c int
	li, lInt := l.(int64)
	ri, rInt := r.(int64)
	if lInt && rInt {
		c = cmp.Compare(li, ri)
	} else if lf, ok := toFloat(l); ok {
		rf, ok := toFloat(r)
		if !ok {
			return nil, runtimeError(pos, "cannot compare %s with %s", typeName(l), typeName(r))
		}
		switch {
		case lf < rf:
			c = -1
		case lf > rf:
			c = 1
		}
	} else if ls, ok := l.(string); ok {
		rs, ok := r.(string)
		if !ok {
			return nil, runtimeError(pos, "cannot compare %s with %s", typeName(l), typeName(r))
		}
		c = strings.Compare(ls, rs)
	} else {
		return nil, runtimeError(pos, "operator %s not defined on %s", op, typeName(l))
	}

	switch op {
	case TokenLess:
		return c < 0, nil
	case TokenLessEq:
		return c <= 0, nil
	case TokenGreater:
		return c > 0, nil
	case TokenGreaterEq:
		return c >= 0, nil
	}
	return nil, runtimeError(pos, "unknown comparison operator %s", op)
}

// member reads a field of a host value.
func member(pos Position, recv any, name string) (any, error) {
	switch x := recv.(type) {
	case nil:
		return nil, runtimeError(pos, "null reference reading member %q", name)
	case *domain.Node:
		switch name {
		case "id":
			return x.ID, nil
		case "actor":
			return normalize(x.Actor), nil
		case "voice":
			return x.VoiceText, nil
		case "response":
			return x.ResponseText, nil
		case "preventResponse":
			return x.PreventResponse, nil
		}
	case *domain.Actor:
		switch name {
		case "id":
			return x.ID, nil
		case "name":
			return x.Name, nil
		}
	case map[string]any:
		return normalize(x[name]), nil
	case Object:
		v, err := x.Member(name)
		if err != nil {
			return nil, &RuntimeError{Line: pos.Line, Column: pos.Column, Message: "member " + name, Err: err}
		}
		return normalize(v), nil
	}
	return nil, runtimeError(pos, "%s has no member %q", typeName(recv), name)
}

// invoke calls a method of a host value.
func invoke(pos Position, recv any, name string, args []any) (any, error) {
	switch x := recv.(type) {
	case nil:
		return nil, runtimeError(pos, "null reference calling method %q", name)
	case *domain.Node:
		switch name {
		case "property", "hasProperty":
			if len(args) != 1 {
				return nil, runtimeError(pos, "%s expects 1 argument, got %d", name, len(args))
			}
			key, ok := args[0].(string)
			if !ok {
				return nil, runtimeError(pos, "%s expects a string, got %s", name, typeName(args[0]))
			}
			prop, found := x.Property(key)
			if name == "hasProperty" {
				return found, nil
			}
			return normalize(prop.Value), nil
		}
	case routine.Lease:
		switch name {
		case "release":
			x.Release()
			return nil, nil
		case "valid":
			return x.IsValid(), nil
		}
	case Object:
		v, err := x.Invoke(name, args)
		if err != nil {
			return nil, &RuntimeError{Line: pos.Line, Column: pos.Column, Message: "method " + name, Err: err}
		}
		return normalize(v), nil
	}
	return nil, runtimeError(pos, "%s has no method %q", typeName(recv), name)
}
