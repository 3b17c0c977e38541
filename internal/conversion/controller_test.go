package conversion

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/woozymasta/coordpanel/internal/geo"
	"github.com/woozymasta/coordpanel/internal/notation"
)

// stubFormatter renders "<type>:<precision>" or fails on demand.
type stubFormatter struct {
	err   error
	calls int
}

func (s *stubFormatter) Format(_ context.Context, _ geo.Point, opts *notation.ConversionOptions) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}

	return opts.OutputMode().String() + ":" + strconv.Itoa(opts.Precision()), nil
}

func drain(ch <-chan Event) []Event {
	var events []Event
	for {
		select {
		case evt := <-ch:
			events = append(events, evt)
		case <-time.After(50 * time.Millisecond):
			return events
		}
	}
}

func typesOf(events []Event) []EventType {
	out := make([]EventType, 0, len(events))
	for _, evt := range events {
		out = append(out, evt.Type)
	}

	return out
}

func TestControllerListContract(t *testing.T) {
	c := NewController(&stubFormatter{}, time.Second)

	first := notation.NewConversionOptions()
	second := notation.NewConversionOptions()
	second.SetOutputMode(notation.TypeMgrs)

	c.AppendOption(first)
	c.AppendOption(second)

	assert.Equal(t, 2, c.OptionCount())
	assert.Same(t, first, c.OptionAt(0))
	assert.Same(t, second, c.OptionAt(1))
	assert.Nil(t, c.OptionAt(-1))
	assert.Nil(t, c.OptionAt(2))

	c.ClearOptions()
	assert.Equal(t, 0, c.OptionCount())
	assert.Nil(t, c.OptionAt(0))
	assert.Empty(t, c.Results())
}

func TestControllerFormatsOnPoint(t *testing.T) {
	stub := &stubFormatter{}
	c := NewController(stub, time.Second)

	opts := notation.NewConversionOptions()
	opts.SetName("grid")
	c.AppendOption(opts)

	// no point yet, nothing to format
	assert.Empty(t, c.Results())
	assert.Zero(t, stub.calls)

	require.NoError(t, c.SetPoint(geo.Point{Lat: 38.9, Lon: -77.04}))

	results := c.Results()
	require.Len(t, results, 1)
	assert.Equal(t, "grid", results[0].Name)
	assert.Equal(t, "Usng", results[0].Type)
	assert.Equal(t, "Usng:8", results[0].Value)
	assert.Empty(t, results[0].Error)

	pt, ok := c.Point()
	assert.True(t, ok)
	assert.Equal(t, geo.Point{Lat: 38.9, Lon: -77.04}, pt)
}

func TestControllerRejectsBadPoint(t *testing.T) {
	c := NewController(&stubFormatter{}, time.Second)

	require.Error(t, c.SetPoint(geo.Point{Lat: 91, Lon: 0}))

	_, ok := c.Point()
	assert.False(t, ok)
}

func TestControllerUpdateOption(t *testing.T) {
	c := NewController(&stubFormatter{}, time.Second)
	c.AppendOption(notation.NewConversionOptions())
	require.NoError(t, c.SetPoint(geo.Point{}))

	events, cancel := c.Subscribe()
	defer cancel()

	typ := "Mgrs"
	precision := 4
	view, err := c.UpdateOption(0, OptionPatch{Type: &typ, Precision: &precision})
	require.NoError(t, err)
	assert.Equal(t, "Mgrs", view.Type)
	assert.Equal(t, 4, view.Precision)

	results := c.Results()
	require.Len(t, results, 1)
	assert.Equal(t, "Mgrs:4", results[0].Value)

	// one field event per applied setter, then the rebuilt results
	got := drain(events)
	require.GreaterOrEqual(t, len(got), 3)
	assert.Equal(t, []EventType{EventField, EventField, EventResults}, typesOf(got[:3]))
	assert.Equal(t, "outputMode", got[0].Field)
	assert.Equal(t, 0, got[0].Index)
	assert.Equal(t, "precision", got[1].Field)

	_, err = c.UpdateOption(5, OptionPatch{Type: &typ})
	assert.ErrorIs(t, err, ErrIndexRange)
}

func TestControllerEqualValueStillNotifies(t *testing.T) {
	c := NewController(&stubFormatter{}, time.Second)
	c.AppendOption(notation.NewConversionOptions())

	events, cancel := c.Subscribe()
	defer cancel()

	precision := 8 // already the default
	_, err := c.UpdateOption(0, OptionPatch{Precision: &precision})
	require.NoError(t, err)

	got := drain(events)
	require.NotEmpty(t, got)
	assert.Equal(t, EventField, got[0].Type)
	assert.Equal(t, "precision", got[0].Field)
}

func TestControllerFormatterErrorSurfacesInResult(t *testing.T) {
	stub := &stubFormatter{err: errors.New("backend down")}
	c := NewController(stub, time.Second)

	c.AppendOption(notation.NewConversionOptions())
	require.NoError(t, c.SetPoint(geo.Point{Lat: 1, Lon: 2}))

	results := c.Results()
	require.Len(t, results, 1)
	assert.Empty(t, results[0].Value)
	assert.Contains(t, results[0].Error, "backend down")
}

func TestControllerReplaceAll(t *testing.T) {
	c := NewController(&stubFormatter{}, time.Second)
	c.AppendOption(notation.NewConversionOptions())

	events, cancel := c.Subscribe()
	defer cancel()

	repl := make([]*notation.ConversionOptions, 0, 2)
	for _, typ := range []notation.CoordinateType{notation.TypeGars, notation.TypeUtm} {
		rec := notation.NewConversionOptions()
		rec.SetOutputMode(typ)
		repl = append(repl, rec)
	}
	c.ReplaceAll(repl)

	assert.Equal(t, 2, c.OptionCount())
	views := c.Views()
	require.Len(t, views, 2)
	assert.Equal(t, "Gars", views[0].Type)
	assert.Equal(t, "Utm", views[1].Type)

	// one membership event for the whole swap
	got := drain(events)
	assert.Equal(t, []EventType{EventOptions, EventResults}, typesOf(got))
	assert.Equal(t, 2, got[0].Count)
}

func TestControllerSubscribeCancel(t *testing.T) {
	c := NewController(&stubFormatter{}, time.Second)

	events, cancel := c.Subscribe()
	cancel()

	_, open := <-events
	assert.False(t, open, "cancel should close the event channel")

	// publishing after cancel must not panic
	c.AppendOption(notation.NewConversionOptions())
}

func TestControllerSnapshot(t *testing.T) {
	c := NewController(&stubFormatter{}, time.Second)
	c.AppendOption(notation.NewConversionOptions())
	require.NoError(t, c.SetPoint(geo.Point{Lat: 10, Lon: 20}))

	snap := c.Snapshot()
	assert.Equal(t, EventResults, snap.Type)
	assert.NotEmpty(t, snap.ID)
	assert.Equal(t, 1, snap.Count)
	require.NotNil(t, snap.Point)
	assert.Equal(t, geo.Point{Lat: 10, Lon: 20}, *snap.Point)
	require.Len(t, snap.Results, 1)
}

func TestOptionViewRecordRoundTrip(t *testing.T) {
	view := OptionView{
		Name:          "utm zone",
		Type:          "Utm",
		AddSpaces:     false,
		Precision:     2,
		DecimalPlaces: 10,
		MgrsMode:      "Old180InZone60",
		UtmMode:       "NorthSouthIndicators",
		LatLonFormat:  "DegreesDecimalMinutes",
	}

	rec := view.Record()
	assert.Equal(t, view, makeView(rec))

	// unknown enum strings fall back instead of failing
	weird := OptionView{Type: "bogus", MgrsMode: "bogus", UtmMode: "bogus", LatLonFormat: "bogus"}
	back := makeView(weird.Record())
	assert.Equal(t, "LatLon", back.Type)
	assert.Equal(t, "Automatic", back.MgrsMode)
	assert.Equal(t, "LatitudeBandIndicators", back.UtmMode)
	assert.Equal(t, "DecimalDegrees", back.LatLonFormat)
}
