package notation

// OptionList adapts an ordered, growable collection of option records
// to a list-driven UI surface. AppendOption and ClearOptions forward to
// the owning collection's mutation methods; OptionAt and OptionCount
// read its backing list. OptionAt is defined for indexes in
// [0, OptionCount) and returns nil outside that range.
//
// The record type itself carries no collection logic; concrete owners
// implement this interface.
type OptionList interface {
	AppendOption(opts *ConversionOptions)
	OptionAt(i int) *ConversionOptions
	OptionCount() int
	ClearOptions()
}
