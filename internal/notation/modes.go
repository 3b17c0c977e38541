package notation

// MgrsConversionMode selects the lettering scheme and the zone that
// contains the 180th meridian in MGRS output.
type MgrsConversionMode int

const (
	MgrsAutomatic MgrsConversionMode = iota
	MgrsNew180InZone01
	MgrsNew180InZone60
	MgrsOld180InZone01
	MgrsOld180InZone60
)

var mgrsModeNames = [...]string{
	"Automatic",
	"New180InZone01",
	"New180InZone60",
	"Old180InZone01",
	"Old180InZone60",
}

func (m MgrsConversionMode) String() string {
	if m < 0 || int(m) >= len(mgrsModeNames) {
		return ""
	}

	return mgrsModeNames[m]
}

// ParseMgrsConversionMode maps a canonical name to its mode, falling
// back to MgrsAutomatic for unrecognized input.
func ParseMgrsConversionMode(s string) MgrsConversionMode {
	for i, name := range mgrsModeNames {
		if s == name {
			return MgrsConversionMode(i)
		}
	}

	return MgrsAutomatic
}

// UtmConversionMode selects how the hemisphere is encoded in UTM
// output.
type UtmConversionMode int

const (
	UtmLatitudeBandIndicators UtmConversionMode = iota
	UtmNorthSouthIndicators
)

var utmModeNames = [...]string{
	"LatitudeBandIndicators",
	"NorthSouthIndicators",
}

func (m UtmConversionMode) String() string {
	if m < 0 || int(m) >= len(utmModeNames) {
		return ""
	}

	return utmModeNames[m]
}

// ParseUtmConversionMode maps a canonical name to its mode, falling
// back to UtmLatitudeBandIndicators for unrecognized input.
func ParseUtmConversionMode(s string) UtmConversionMode {
	for i, name := range utmModeNames {
		if s == name {
			return UtmConversionMode(i)
		}
	}

	return UtmLatitudeBandIndicators
}

// LatLonFormat selects how latitude-longitude values are rendered.
type LatLonFormat int

const (
	DecimalDegrees LatLonFormat = iota
	DegreesDecimalMinutes
	DegreesMinutesSeconds
)

var latLonFormatNames = [...]string{
	"DecimalDegrees",
	"DegreesDecimalMinutes",
	"DegreesMinutesSeconds",
}

func (f LatLonFormat) String() string {
	if f < 0 || int(f) >= len(latLonFormatNames) {
		return ""
	}

	return latLonFormatNames[f]
}

// ParseLatLonFormat maps a canonical name to its format, falling back
// to DecimalDegrees for unrecognized input.
func ParseLatLonFormat(s string) LatLonFormat {
	for i, name := range latLonFormatNames {
		if s == name {
			return LatLonFormat(i)
		}
	}

	return DecimalDegrees
}

// GarsConversionMode selects which cell corner a GARS address refers
// to. No option record consumes it yet; it is declared for parity with
// the notation catalog.
type GarsConversionMode int

const (
	GarsLowerLeft GarsConversionMode = iota
	GarsCenter
)

var garsModeNames = [...]string{
	"LowerLeft",
	"Center",
}

func (m GarsConversionMode) String() string {
	if m < 0 || int(m) >= len(garsModeNames) {
		return ""
	}

	return garsModeNames[m]
}

// ParseGarsConversionMode maps a canonical name to its mode, falling
// back to GarsLowerLeft for unrecognized input.
func ParseGarsConversionMode(s string) GarsConversionMode {
	for i, name := range garsModeNames {
		if s == name {
			return GarsConversionMode(i)
		}
	}

	return GarsLowerLeft
}
