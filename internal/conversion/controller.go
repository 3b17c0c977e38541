// Package conversion owns the live option list and applies it to the
// formatting backend whenever something relevant changes.
package conversion

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/woozymasta/coordpanel/internal/geo"
	"github.com/woozymasta/coordpanel/internal/metrics"
	"github.com/woozymasta/coordpanel/internal/notation"
)

// Formatter renders one point as a notation string according to one
// option record. Implementations live in internal/format.
type Formatter interface {
	Format(ctx context.Context, pt geo.Point, opts *notation.ConversionOptions) (string, error)
}

// ErrIndexRange is returned for option indexes outside [0, count).
var ErrIndexRange = errors.New("option index out of range")

var _ notation.OptionList = (*Controller)(nil)

type entry struct {
	rec *notation.ConversionOptions
	sub notation.Subscription
}

type subscriber struct {
	ch chan Event
	id int
}

// Controller is the owning collection of option records. It implements
// notation.OptionList, serializes all access to the records, reapplies
// the formatter after every relevant change and publishes typed events
// to subscribers.
//
// Records handed to the controller must be mutated through it
// afterwards; the records themselves carry no locking.
type Controller struct {
	formatter Formatter
	timeout   time.Duration

	mu       sync.Mutex
	entries  []entry
	point    geo.Point
	hasPoint bool
	results  []Result

	subs      []subscriber
	nextSubID int
}

// NewController builds an empty controller around the given formatting
// backend. Timeout bounds a single backend call.
func NewController(f Formatter, timeout time.Duration) *Controller {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &Controller{formatter: f, timeout: timeout}
}

// Subscribe registers an event channel. Slow subscribers have events
// dropped rather than blocking mutations. The returned cancel func
// detaches and closes the channel.
func (c *Controller) Subscribe() (<-chan Event, func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextSubID
	c.nextSubID++
	ch := make(chan Event, 16)
	c.subs = append(c.subs, subscriber{id: id, ch: ch})

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		kept := make([]subscriber, 0, len(c.subs))
		for _, s := range c.subs {
			if s.id == id {
				close(s.ch)
				continue
			}
			kept = append(kept, s)
		}
		c.subs = kept
	}

	return ch, cancel
}

func (c *Controller) publishLocked(evt Event) {
	for _, s := range c.subs {
		select {
		case s.ch <- evt:
		default:
			log.Warn().
				Str("event", string(evt.Type)).
				Msg("Dropping event for slow subscriber")
		}
	}
}

// AppendOption adds a record to the end of the list and starts tracking
// its property changes.
func (c *Controller) AppendOption(opts *notation.ConversionOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.appendLocked(opts)
	c.refreshLocked()
}

// OptionAt returns the record at index i, or nil outside [0, count).
func (c *Controller) OptionAt(i int) *notation.ConversionOptions {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i < 0 || i >= len(c.entries) {
		return nil
	}

	return c.entries[i].rec
}

// OptionCount returns the number of records in the list.
func (c *Controller) OptionCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

// ClearOptions removes every record from the list.
func (c *Controller) ClearOptions() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearLocked()
	c.publishOptionsLocked()
	c.refreshLocked()
}

// ReplaceAll swaps the whole list in one step, publishing a single
// membership event. Used for config seeding and preset loading.
func (c *Controller) ReplaceAll(recs []*notation.ConversionOptions) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.clearLocked()
	for _, rec := range recs {
		c.attachLocked(rec)
	}
	metrics.OptionMutationsTotal.Inc()

	c.publishOptionsLocked()
	c.refreshLocked()
}

// CreateOption builds a record from the patch (unset fields keep their
// defaults), appends it and returns its index and view.
func (c *Controller) CreateOption(p OptionPatch) (int, OptionView) {
	rec := notation.NewConversionOptions()
	applyPatch(rec, p)

	c.mu.Lock()
	defer c.mu.Unlock()

	idx := c.appendLocked(rec)
	c.refreshLocked()

	return idx, makeView(rec)
}

// UpdateOption applies a partial update to the record at index i. Each
// present field goes through the record's setter, so one field event
// fires per applied field even when the value is unchanged.
func (c *Controller) UpdateOption(i int, p OptionPatch) (OptionView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i < 0 || i >= len(c.entries) {
		return OptionView{}, ErrIndexRange
	}

	rec := c.entries[i].rec
	applyPatch(rec, p)
	c.refreshLocked()

	return makeView(rec), nil
}

// SetPoint stores the input point after validation and reapplies the
// options to it.
func (c *Controller) SetPoint(pt geo.Point) error {
	if err := pt.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.point = pt
	c.hasPoint = true

	evt := newEvent(EventPoint)
	evt.Point = &pt
	evt.Count = len(c.entries)
	c.publishLocked(evt)

	c.refreshLocked()

	return nil
}

// Point returns the current input point and whether one has been set.
func (c *Controller) Point() (geo.Point, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.point, c.hasPoint
}

// Results returns a copy of the latest formatted outputs. Empty until a
// point has been set.
func (c *Controller) Results() []Result {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Result, len(c.results))
	copy(out, c.results)

	return out
}

// Views returns the wire representation of every record, in list order.
func (c *Controller) Views() []OptionView {
	c.mu.Lock()
	defer c.mu.Unlock()

	views := make([]OptionView, 0, len(c.entries))
	for _, e := range c.entries {
		views = append(views, makeView(e.rec))
	}

	return views
}

// View returns the wire representation of the record at index i.
func (c *Controller) View(i int) (OptionView, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if i < 0 || i >= len(c.entries) {
		return OptionView{}, ErrIndexRange
	}

	return makeView(c.entries[i].rec), nil
}

// Snapshot builds a results event describing the current state, used to
// greet new websocket clients.
func (c *Controller) Snapshot() Event {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.resultsEventLocked()
}

// appendLocked attaches and appends a record, publishing the membership
// change. Returns the new record's index.
func (c *Controller) appendLocked(rec *notation.ConversionOptions) int {
	idx := c.attachLocked(rec)
	metrics.OptionMutationsTotal.Inc()
	c.publishOptionsLocked()

	return idx
}

// attachLocked wires the record's change notifications into the event
// stream and adds it to the backing list.
func (c *Controller) attachLocked(rec *notation.ConversionOptions) int {
	sub := rec.OnChange(func(f notation.Field) {
		evt := newEvent(EventField)
		evt.Index = c.indexOfLocked(rec)
		evt.Field = f.String()
		evt.Count = len(c.entries)
		c.publishLocked(evt)
		metrics.OptionMutationsTotal.Inc()
	})

	c.entries = append(c.entries, entry{rec: rec, sub: sub})

	return len(c.entries) - 1
}

func (c *Controller) clearLocked() {
	for _, e := range c.entries {
		e.sub.Remove()
	}
	c.entries = nil
	metrics.OptionMutationsTotal.Inc()
}

func (c *Controller) indexOfLocked(rec *notation.ConversionOptions) int {
	for i, e := range c.entries {
		if e.rec == rec {
			return i
		}
	}

	return -1
}

func (c *Controller) publishOptionsLocked() {
	evt := newEvent(EventOptions)
	evt.Count = len(c.entries)
	c.publishLocked(evt)
}

// refreshLocked reapplies every option to the current point and
// publishes the rebuilt results. Formatter failures land in the result
// rows, never in the mutation that triggered the refresh.
func (c *Controller) refreshLocked() {
	if !c.hasPoint {
		c.results = nil
		c.publishLocked(c.resultsEventLocked())
		return
	}

	results := make([]Result, 0, len(c.entries))
	for _, e := range c.entries {
		results = append(results, c.formatLocked(e.rec))
	}
	c.results = results

	c.publishLocked(c.resultsEventLocked())
}

func (c *Controller) formatLocked(rec *notation.ConversionOptions) Result {
	res := Result{Name: rec.Name(), Type: rec.OutputMode().String()}

	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	start := time.Now()
	value, err := c.formatter.Format(ctx, c.point, rec)
	metrics.FormatCallsTotal.Inc()
	metrics.FormatDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.FormatErrorsTotal.Inc()
		log.Warn().
			Err(err).
			Str("option", rec.Name()).
			Str("type", res.Type).
			Msg("Formatter call failed")
		res.Error = err.Error()

		return res
	}

	res.Value = value

	return res
}

func (c *Controller) resultsEventLocked() Event {
	evt := newEvent(EventResults)
	evt.Count = len(c.entries)
	if c.hasPoint {
		pt := c.point
		evt.Point = &pt
	}
	evt.Results = make([]Result, len(c.results))
	copy(evt.Results, c.results)

	return evt
}
