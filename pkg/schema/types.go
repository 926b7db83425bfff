package schema

import (
	"fmt"
	"math"
)

// Type defines the contract for property values.
// Implementations validate a decoded value and convert it to the runtime representation.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "int").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
	// Convert returns the runtime value: nil, string, int64, float64 or bool.
	Convert(value any) (any, error)
}

// --- Built-in Type Implementations ---

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	_, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

func (t *StringType) Convert(value any) (any, error) {
	if err := t.Validate(value); err != nil {
		return nil, err
	}
	return value, nil
}

// IntType validates integer values.
type IntType struct{}

func (t *IntType) Name() string { return "int" }

func (t *IntType) Validate(value any) error {
	_, err := t.Convert(value)
	return err
}

func (t *IntType) Convert(value any) (any, error) {
	switch v := value.(type) {
	case int:
		return int64(v), nil
	case int8:
		return int64(v), nil
	case int16:
		return int64(v), nil
	case int32:
		return int64(v), nil
	case int64:
		return v, nil
	case uint:
		return int64(v), nil
	case uint32:
		return int64(v), nil
	case float64:
		// Accept floats that are whole numbers (from JSON unmarshaling)
		if v == math.Trunc(v) {
			return int64(v), nil
		}
		return nil, fmt.Errorf("expected int, got float (not a whole number)")
	default:
		return nil, fmt.Errorf("expected int, got %T", value)
	}
}

// FloatType validates floating-point values.
type FloatType struct{}

func (t *FloatType) Name() string { return "float" }

func (t *FloatType) Validate(value any) error {
	_, err := t.Convert(value)
	return err
}

func (t *FloatType) Convert(value any) (any, error) {
	switch v := value.(type) {
	case float32:
		return float64(v), nil
	case float64:
		return v, nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	default:
		return nil, fmt.Errorf("expected float, got %T", value)
	}
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	_, ok := value.(bool)
	if !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

func (t *BoolType) Convert(value any) (any, error) {
	if err := t.Validate(value); err != nil {
		return nil, err
	}
	return value, nil
}

// EmptyType marks a property that carries no value.
type EmptyType struct{}

func (t *EmptyType) Name() string { return "empty" }

func (t *EmptyType) Validate(value any) error {
	if value != nil {
		return fmt.Errorf("expected no value, got %T", value)
	}
	return nil
}

func (t *EmptyType) Convert(value any) (any, error) {
	return nil, t.Validate(value)
}

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// Int creates an integer type validator.
func Int() Type { return &IntType{} }

// Float creates a float type validator.
func Float() Type { return &FloatType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Empty creates a validator for value-less properties.
func Empty() Type { return &EmptyType{} }

// ParseType converts a type name to a Type.
// An empty name infers the type from the value.
func ParseType(typeStr string) (Type, error) {
	switch typeStr {
	case "string":
		return String(), nil
	case "int":
		return Int(), nil
	case "float":
		return Float(), nil
	case "bool":
		return Bool(), nil
	case "empty":
		return Empty(), nil
	default:
		return nil, fmt.Errorf("unsupported type: %s", typeStr)
	}
}

// InferType picks the type of an untyped property value.
func InferType(value any) (Type, error) {
	switch value.(type) {
	case nil:
		return Empty(), nil
	case string:
		return String(), nil
	case bool:
		return Bool(), nil
	case int, int8, int16, int32, int64, uint, uint32:
		return Int(), nil
	case float32, float64:
		return Float(), nil
	default:
		return nil, fmt.Errorf("unsupported property value %T", value)
	}
}
