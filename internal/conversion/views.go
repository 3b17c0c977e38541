package conversion

import "github.com/woozymasta/coordpanel/internal/notation"

// OptionView is the wire representation of one option record.
type OptionView struct {
	Name          string `json:"name" yaml:"name"`
	Type          string `json:"type" yaml:"type"`
	MgrsMode      string `json:"mgrs_mode" yaml:"mgrs_mode"`
	UtmMode       string `json:"utm_mode" yaml:"utm_mode"`
	LatLonFormat  string `json:"latlon_format" yaml:"latlon_format"`
	Precision     int    `json:"precision" yaml:"precision"`
	DecimalPlaces int    `json:"decimal_places" yaml:"decimal_places"`
	AddSpaces     bool   `json:"add_spaces" yaml:"add_spaces"`
}

func makeView(rec *notation.ConversionOptions) OptionView {
	return OptionView{
		Name:          rec.Name(),
		Type:          rec.OutputMode().String(),
		AddSpaces:     rec.AddSpaces(),
		Precision:     rec.Precision(),
		DecimalPlaces: rec.DecimalPlaces(),
		MgrsMode:      rec.MgrsConversionMode().String(),
		UtmMode:       rec.UtmConversionMode().String(),
		LatLonFormat:  rec.LatLonFormat().String(),
	}
}

// Record rebuilds an option record from the view. Enum strings go
// through the tolerant parsers, so unknown values take the notation
// fallbacks instead of failing.
func (v OptionView) Record() *notation.ConversionOptions {
	rec := notation.NewConversionOptions()
	rec.SetName(v.Name)
	rec.SetOutputMode(notation.ParseCoordinateType(v.Type))
	rec.SetAddSpaces(v.AddSpaces)
	rec.SetPrecision(v.Precision)
	rec.SetDecimalPlaces(v.DecimalPlaces)
	rec.SetMgrsConversionMode(notation.ParseMgrsConversionMode(v.MgrsMode))
	rec.SetUtmConversionMode(notation.ParseUtmConversionMode(v.UtmMode))
	rec.SetLatLonFormat(notation.ParseLatLonFormat(v.LatLonFormat))

	return rec
}

// OptionPatch carries a partial update; nil fields are left unchanged.
type OptionPatch struct {
	Name          *string `json:"name"`
	Type          *string `json:"type"`
	AddSpaces     *bool   `json:"add_spaces"`
	Precision     *int    `json:"precision"`
	DecimalPlaces *int    `json:"decimal_places"`
	MgrsMode      *string `json:"mgrs_mode"`
	UtmMode       *string `json:"utm_mode"`
	LatLonFormat  *string `json:"latlon_format"`
}

// applyPatch runs one setter per present field. Every applied field
// fires the record's change notification.
func applyPatch(rec *notation.ConversionOptions, p OptionPatch) {
	if p.Name != nil {
		rec.SetName(*p.Name)
	}
	if p.Type != nil {
		rec.SetOutputMode(notation.ParseCoordinateType(*p.Type))
	}
	if p.AddSpaces != nil {
		rec.SetAddSpaces(*p.AddSpaces)
	}
	if p.Precision != nil {
		rec.SetPrecision(*p.Precision)
	}
	if p.DecimalPlaces != nil {
		rec.SetDecimalPlaces(*p.DecimalPlaces)
	}
	if p.MgrsMode != nil {
		rec.SetMgrsConversionMode(notation.ParseMgrsConversionMode(*p.MgrsMode))
	}
	if p.UtmMode != nil {
		rec.SetUtmConversionMode(notation.ParseUtmConversionMode(*p.UtmMode))
	}
	if p.LatLonFormat != nil {
		rec.SetLatLonFormat(notation.ParseLatLonFormat(*p.LatLonFormat))
	}
}

// Result is one formatted output, or the failure that produced none.
type Result struct {
	Name  string `json:"name" yaml:"name"`
	Type  string `json:"type" yaml:"type"`
	Value string `json:"value,omitempty" yaml:"value,omitempty"`
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}
