// Package notation defines the coordinate notation catalog and the
// observable options record that configures output formatting.
package notation

// CoordinateType selects which coordinate notation an option record
// represents.
type CoordinateType int

// Notation types, in canonical display order.
const (
	TypeGars CoordinateType = iota
	TypeGeoRef
	TypeLatLon
	TypeMgrs
	TypeUsng
	TypeUtm
)

// typeNames is index-aligned with the CoordinateType constants. The
// order is part of the contract: it drives on-screen ordering in choice
// widgets.
var typeNames = [...]string{
	"Gars",
	"GeoRef",
	"LatLon",
	"Mgrs",
	"Usng",
	"Utm",
}

// String returns the canonical name of the type, or an empty string for
// values outside the catalog.
func (t CoordinateType) String() string {
	if t < 0 || int(t) >= len(typeNames) {
		return ""
	}

	return typeNames[t]
}

// ParseCoordinateType maps a canonical name to its type. Matching is
// case-sensitive; anything unrecognized falls back to TypeLatLon rather
// than failing.
func ParseCoordinateType(s string) CoordinateType {
	for i, name := range typeNames {
		if s == name {
			return CoordinateType(i)
		}
	}

	return TypeLatLon
}

// TypeNames returns the canonical notation names in display order. The
// returned slice is a fresh copy, callers may mutate it.
func TypeNames() []string {
	names := make([]string, len(typeNames))
	copy(names, typeNames[:])

	return names
}

// SupportsAddSpaces reports whether the spacing flag is meaningful for
// this notation.
func (t CoordinateType) SupportsAddSpaces() bool {
	return t == TypeMgrs || t == TypeUsng || t == TypeUtm
}

// SupportsPrecision reports whether the precision setting is meaningful
// for this notation.
func (t CoordinateType) SupportsPrecision() bool {
	return t == TypeGeoRef || t == TypeMgrs || t == TypeUsng
}

// SupportsDecimalPlaces reports whether the decimal places setting is
// meaningful for this notation.
func (t CoordinateType) SupportsDecimalPlaces() bool {
	return t == TypeLatLon
}
