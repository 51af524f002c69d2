package layout

import (
	"strconv"
	"strings"
)

// This file defines unit-safe types and helpers for font sizes.
// The canvas backend works in millimetres and is rasterised at one pixel per
// millimetre, so a pixel length is passed to it unchanged while font sizes
// have to be expressed in points.

// Unit represents the original unit of a length value as written by the user.
type Unit int

const (
	UnitNone Unit = iota // bare numbers, treated as pixels
	UnitPX               // pixels
	UnitPT               // typographic points at 96 dpi
)

// Conversion constants between pt and mm, and between pt and px.
const (
	PtToMm = 0.352777
	MmToPt = 1.0 / PtToMm

	PxPerPt = 96.0 / 72.0
)

// UnitToString returns a short string for a Unit value.
func UnitToString(u Unit) string {
	switch u {
	case UnitPX:
		return "px"
	case UnitPT:
		return "pt"
	default:
		return ""
	}
}

// Length preserves a numeric value with its unit.
type Length struct {
	Value float64 `json:"value"`
	Unit  Unit    `json:"unit"`
}

// ToPX converts this length to pixels.
func (l Length) ToPX() float64 {
	if l.Unit == UnitPT {
		return l.Value * PxPerPt
	}
	return l.Value
}

// ParseRawLengthStr parses a length string such as "26", "26px" or "19.5pt".
// The boolean result reports whether the number could be parsed.
func ParseRawLengthStr(value string) (Length, bool) {
	v := strings.ToLower(strings.TrimSpace(value))
	if v == "" {
		return Length{}, false
	}
	unit := UnitNone
	num := v
	for _, suf := range []struct {
		s string
		u Unit
	}{{"px", UnitPX}, {"pt", UnitPT}} {
		if strings.HasSuffix(v, suf.s) {
			unit = suf.u
			num = strings.TrimSpace(strings.TrimSuffix(v, suf.s))
			break
		}
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return Length{}, false
	}
	return Length{Value: f, Unit: unit}, true
}
