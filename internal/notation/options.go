package notation

// Field identifies a single observable property of ConversionOptions.
type Field int

const (
	FieldOutputMode Field = iota
	FieldName
	FieldAddSpaces
	FieldPrecision
	FieldDecimalPlaces
	FieldMgrsConversionMode
	FieldUtmConversionMode
	FieldLatLonFormat
)

var fieldNames = [...]string{
	"outputMode",
	"name",
	"addSpaces",
	"precision",
	"decimalPlaces",
	"mgrsConversionMode",
	"utmConversionMode",
	"latLonFormat",
}

// String returns the wire name of the field, or an empty string for
// values outside the catalog.
func (f Field) String() string {
	if f < 0 || int(f) >= len(fieldNames) {
		return ""
	}

	return fieldNames[f]
}

// ConversionOptions is an observable record of formatting preferences
// for one output notation. Setters store values unconditionally: no
// validation, no clamping, no failure path. Out-of-range numerics are
// kept as given and left for the formatting backend to reject or clamp.
// Fields irrelevant to the current output mode are retained, so
// switching modes back and forth preserves the per-mode settings.
//
// The record is not internally locked. Whoever owns it serializes
// access; observers run synchronously on the mutating goroutine.
type ConversionOptions struct {
	name          string
	outputMode    CoordinateType
	precision     int
	decimalPlaces int
	mgrsMode      MgrsConversionMode
	utmMode       UtmConversionMode
	latLonFormat  LatLonFormat
	addSpaces     bool

	observers []observer
	nextID    int
}

type observer struct {
	fn func(Field)
	id int
}

// Defaults for a fresh record.
const (
	DefaultPrecision     = 8
	DefaultDecimalPlaces = 6
)

// NewConversionOptions returns a record with the default settings:
// Usng output, precision 8, 6 decimal places, spaced grid notations.
func NewConversionOptions() *ConversionOptions {
	return &ConversionOptions{
		outputMode:    TypeUsng,
		addSpaces:     true,
		precision:     DefaultPrecision,
		decimalPlaces: DefaultDecimalPlaces,
		mgrsMode:      MgrsAutomatic,
		utmMode:       UtmLatitudeBandIndicators,
		latLonFormat:  DecimalDegrees,
	}
}

// Subscription undoes an OnChange registration.
type Subscription struct {
	opts *ConversionOptions
	id   int
}

// Remove detaches the observer. Safe to call more than once.
func (s Subscription) Remove() {
	if s.opts == nil {
		return
	}

	kept := make([]observer, 0, len(s.opts.observers))
	for _, ob := range s.opts.observers {
		if ob.id != s.id {
			kept = append(kept, ob)
		}
	}
	s.opts.observers = kept
}

// OnChange registers fn to be called synchronously after every setter,
// with the field that was stored. Notifications fire once per setter
// call, even when the new value equals the old one; observers run in
// registration order.
func (o *ConversionOptions) OnChange(fn func(Field)) Subscription {
	id := o.nextID
	o.nextID++
	o.observers = append(o.observers, observer{id: id, fn: fn})

	return Subscription{opts: o, id: id}
}

func (o *ConversionOptions) notify(f Field) {
	for _, ob := range o.observers {
		ob.fn(f)
	}
}

// OutputMode returns the notation this record formats to.
func (o *ConversionOptions) OutputMode() CoordinateType {
	return o.outputMode
}

// SetOutputMode selects the output notation. Settings belonging to
// other modes are left untouched.
func (o *ConversionOptions) SetOutputMode(mode CoordinateType) {
	o.outputMode = mode
	o.notify(FieldOutputMode)
}

// Name returns the display label.
func (o *ConversionOptions) Name() string {
	return o.name
}

// SetName stores the display label. Uniqueness is the owning
// collection's concern, not enforced here.
func (o *ConversionOptions) SetName(name string) {
	o.name = name
	o.notify(FieldName)
}

// AddSpaces reports whether grid notations are rendered with spacing.
// Meaningful for Mgrs, Usng and Utm output.
func (o *ConversionOptions) AddSpaces() bool {
	return o.addSpaces
}

// SetAddSpaces stores the spacing flag.
func (o *ConversionOptions) SetAddSpaces(addSpaces bool) {
	o.addSpaces = addSpaces
	o.notify(FieldAddSpaces)
}

// Precision returns the grid precision. Meaningful range is 0-9 for
// GeoRef and 0-8 for Mgrs and Usng.
func (o *ConversionOptions) Precision() int {
	return o.precision
}

// SetPrecision stores the precision as given, including out-of-range
// values.
func (o *ConversionOptions) SetPrecision(precision int) {
	o.precision = precision
	o.notify(FieldPrecision)
}

// DecimalPlaces returns the decimal count for LatLon output. Meaningful
// range is 0-16.
func (o *ConversionOptions) DecimalPlaces() int {
	return o.decimalPlaces
}

// SetDecimalPlaces stores the decimal count as given, including
// out-of-range values.
func (o *ConversionOptions) SetDecimalPlaces(decimalPlaces int) {
	o.decimalPlaces = decimalPlaces
	o.notify(FieldDecimalPlaces)
}

// MgrsConversionMode returns the MGRS lettering scheme.
func (o *ConversionOptions) MgrsConversionMode() MgrsConversionMode {
	return o.mgrsMode
}

// SetMgrsConversionMode stores the MGRS lettering scheme.
func (o *ConversionOptions) SetMgrsConversionMode(mode MgrsConversionMode) {
	o.mgrsMode = mode
	o.notify(FieldMgrsConversionMode)
}

// UtmConversionMode returns the UTM hemisphere encoding.
func (o *ConversionOptions) UtmConversionMode() UtmConversionMode {
	return o.utmMode
}

// SetUtmConversionMode stores the UTM hemisphere encoding.
func (o *ConversionOptions) SetUtmConversionMode(mode UtmConversionMode) {
	o.utmMode = mode
	o.notify(FieldUtmConversionMode)
}

// LatLonFormat returns the latitude-longitude rendering format.
func (o *ConversionOptions) LatLonFormat() LatLonFormat {
	return o.latLonFormat
}

// SetLatLonFormat stores the latitude-longitude rendering format.
func (o *ConversionOptions) SetLatLonFormat(format LatLonFormat) {
	o.latLonFormat = format
	o.notify(FieldLatLonFormat)
}
