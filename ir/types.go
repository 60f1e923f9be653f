package ir

import "fmt"

// TypeKind is the ground type of a port, wire, register or expression.
type TypeKind int

const (
	KindUInt TypeKind = iota
	KindSInt
	KindClock
	KindReset
)

func (k TypeKind) String() string {
	switch k {
	case KindUInt:
		return "UInt"
	case KindSInt:
		return "SInt"
	case KindClock:
		return "Clock"
	case KindReset:
		return "Reset"
	default:
		return fmt.Sprintf("TypeKind(%d)", k)
	}
}

// UnknownWidth marks a width that has not been inferred by the host.
const UnknownWidth = -1

// Type is a ground type with a bit width. Clock and Reset are always one
// bit wide.
type Type struct {
	Kind  TypeKind
	Width int
}

// UInt returns an unsigned integer type of width w.
func UInt(w int) Type { return Type{Kind: KindUInt, Width: w} }

// SInt returns a signed integer type of width w.
func SInt(w int) Type { return Type{Kind: KindSInt, Width: w} }

// Clock returns the clock type.
func Clock() Type { return Type{Kind: KindClock, Width: 1} }

// Reset returns the reset type.
func Reset() Type { return Type{Kind: KindReset, Width: 1} }

// Known reports whether the width has been determined.
func (t Type) Known() bool {
	return t.Width >= 0
}

func (t Type) String() string {
	switch t.Kind {
	case KindClock, KindReset:
		return t.Kind.String()
	}
	if !t.Known() {
		return t.Kind.String()
	}
	return fmt.Sprintf("%s<%d>", t.Kind, t.Width)
}

// Direction is a port direction.
type Direction int

const (
	Input Direction = iota
	Output
)

func (d Direction) String() string {
	if d == Output {
		return "output"
	}
	return "input"
}

// Port is a module port.
type Port struct {
	Name      string
	Direction Direction
	Type      Type
}

// Param is a named integer parameter of an opaque module.
type Param struct {
	Name  string
	Value int64
}
