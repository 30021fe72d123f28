package bytecode

import (
	"fmt"
	"math"
	"strconv"
)

// ValueKind tags the variant held by a Value.
type ValueKind uint8

const (
	KindNil ValueKind = iota
	KindBool
	KindNumber
)

// String returns a human-readable name for the kind.
func (k ValueKind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	default:
		return fmt.Sprintf("ValueKind(%d)", k)
	}
}

// Value is a tagged runtime value: a number, a boolean, or nil.
// The zero Value is nil.
type Value struct {
	kind ValueKind
	num  float64
	b    bool
}

// Nil is the nil value.
var Nil = Value{}

// Number wraps a float64.
func Number(n float64) Value {
	return Value{kind: KindNumber, num: n}
}

// Bool wraps a boolean.
func Bool(b bool) Value {
	return Value{kind: KindBool, b: b}
}

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

func (v Value) IsNil() bool    { return v.kind == KindNil }
func (v Value) IsBool() bool   { return v.kind == KindBool }
func (v Value) IsNumber() bool { return v.kind == KindNumber }

// AsNumber returns the number held by v. ok is false for non-numbers.
func (v Value) AsNumber() (n float64, ok bool) {
	if v.kind != KindNumber {
		return 0, false
	}
	return v.num, true
}

// AsBool returns the boolean held by v. ok is false for non-booleans.
func (v Value) AsBool() (b bool, ok bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// IsFalsy reports whether v counts as false in a boolean context.
// Only nil and false are falsy; every number, including 0 and NaN, is truthy.
func (v Value) IsFalsy() bool {
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return !v.b
	default:
		return false
	}
}

// Equal reports structural equality. Values of different kinds are never
// equal, and numbers follow IEEE-754 (so NaN != NaN).
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNil:
		return true
	case KindBool:
		return v.b == other.b
	case KindNumber:
		return v.num == other.num
	default:
		return false
	}
}

// String renders the value the way the REPL prints it.
func (v Value) String() string {
	switch v.kind {
	case KindNil:
		return "nil"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return formatNumber(v.num)
	default:
		return fmt.Sprintf("<invalid value kind %d>", v.kind)
	}
}

// formatNumber prints the shortest decimal that round-trips, never in
// exponent form: 1e21 prints as 1000000000000000000000 and 1e-5 as 0.00001.
func formatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "inf"
	case math.IsInf(n, -1):
		return "-inf"
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
