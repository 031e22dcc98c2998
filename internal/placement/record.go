// Package placement defines the canonical pixel-placement record and the
// decoders that turn raw CSV fields from either historical schema (2017 or
// 2022) into it.
//
// The package is pure: no I/O, no logging, no global state besides the fixed
// color palette. Callers hand Normalize an ordered slice of (name, value)
// pairs for a single source line and get back an immutable Record or a
// *FieldError naming the offending field.
package placement

import (
	"fmt"
	"math"
)

// Year tags the schema generation a record was decoded from. It is derived
// from which field names were observed, never supplied by the caller.
type Year uint8

const (
	YearUnknown Year = iota
	Year2017
	Year2022
)

// Int returns the calendar year stored alongside persisted rows. ok is false
// for YearUnknown.
func (y Year) Int() (year int, ok bool) {
	switch y {
	case Year2017:
		return 2017, true
	case Year2022:
		return 2022, true
	default:
		return 0, false
	}
}

func (y Year) String() string {
	if n, ok := y.Int(); ok {
		return fmt.Sprintf("%d", n)
	}
	return "unknown"
}

// Kind identifies which shape variant a record carries. It doubles as the
// index of the batch buffer and destination table the record is routed to.
type Kind uint8

const (
	KindTile Kind = iota
	KindRectangle
)

// Kinds lists every shape kind in drain order.
var Kinds = [...]Kind{KindTile, KindRectangle}

func (k Kind) String() string {
	switch k {
	case KindTile:
		return "tile"
	case KindRectangle:
		return "rectangle"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Point is one unsigned 16-bit coordinate pair.
type Point struct {
	X, Y uint16
}

// Shape is a sealed sum type: either Tile or Rectangle.
type Shape interface {
	Kind() Kind
	String() string
	shape()
}

// Tile is a single-pixel placement.
type Tile struct {
	X, Y uint16
}

func (Tile) Kind() Kind { return KindTile }
func (Tile) shape()     {}

func (t Tile) String() string { return fmt.Sprintf("tile(%d,%d)", t.X, t.Y) }

// Rectangle is a moderation placement covering the region between two
// corners, inclusive, in the order they appeared in the source.
type Rectangle struct {
	Corner1, Corner2 Point
}

func (Rectangle) Kind() Kind { return KindRectangle }
func (Rectangle) shape()     {}

func (r Rectangle) String() string {
	return fmt.Sprintf("rect(%d,%d-%d,%d)", r.Corner1.X, r.Corner1.Y, r.Corner2.X, r.Corner2.Y)
}

// Sentinel values carried by records whose source line omitted a field.
const (
	NoTimestamp  int64  = math.MaxInt64
	NoCoordinate uint16 = math.MaxUint16
)

// Record is the canonical placement event. It is built once per source line
// by Normalize and is treated as a value afterwards.
type Record struct {
	Timestamp int64
	UserHash  string
	Shape     Shape
	Color     string
	Year      Year
}

// Kind reports the record's shape kind. A record without a shape is a tile
// at the sentinel coordinate.
func (r Record) Kind() Kind {
	if r.Shape == nil {
		return KindTile
	}
	return r.Shape.Kind()
}

func (r Record) String() string {
	shape := "tile(?)"
	if r.Shape != nil {
		shape = r.Shape.String()
	}
	return fmt.Sprintf("ts=%d user=%s %s color=%s year=%s", r.Timestamp, r.UserHash, shape, r.Color, r.Year)
}
