package models

import (
	"fmt"
	"strconv"
)

// ValueKind enumerates the value shapes a cell can carry.
type ValueKind int

// Value kinds. Switches over ValueKind must handle every constant.
const (
	KindIdentifier ValueKind = iota + 1
	KindTime
	KindText
	KindUnhandled
)

// String implements fmt.Stringer.
func (k ValueKind) String() string {
	switch k {
	case KindIdentifier:
		return "identifier"
	case KindTime:
		return "time"
	case KindText:
		return "text"
	case KindUnhandled:
		return "unhandled"
	default:
		return "kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Value is a single typed cell value.
//
// Identifier carries an entity id in Text. Time carries the timestamp in Text
// and its precision in Precision (0 when unknown). Unhandled carries the source
// datatype name in Text.
type Value struct {
	Kind      ValueKind
	Text      string
	Precision int
}

// Identifier returns an identifier value for id.
func Identifier(id string) Value {
	return Value{Kind: KindIdentifier, Text: id}
}

// Time returns a time value with the given precision.
func Time(ts string, precision int) Value {
	return Value{Kind: KindTime, Text: ts, Precision: precision}
}

// Text returns a plain text value.
func Text(s string) Value {
	return Value{Kind: KindText, Text: s}
}

// Unhandled returns a value for a datatype the pipeline does not interpret.
func Unhandled(datatype string) Value {
	return Value{Kind: KindUnhandled, Text: datatype}
}

// String renders the value for output cells.
func (v Value) String() string {
	switch v.Kind {
	case KindIdentifier, KindTime, KindText:
		return v.Text
	case KindUnhandled:
		return "UNHANDLED " + v.Text
	default:
		panic(fmt.Sprintf("models: unknown value kind %d", v.Kind))
	}
}
