package slots

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidTimeRange = errors.New("invalid time range")
	ErrSlotDuration     = errors.New("slot duration must be positive")
	ErrUnknownSlot      = errors.New("unknown time slot")
)

// LabelLayout renders slot starts as "10:00 AM", "1:00 PM".
const LabelLayout = "3:04 PM"

// TimeRange is the half-open interval [Start, End).
type TimeRange struct {
	Start time.Time
	End   time.Time
}

func NewTimeRange(start, end time.Time) (TimeRange, error) {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return TimeRange{}, ErrInvalidTimeRange
	}
	return TimeRange{Start: start, End: end}, nil
}

// SplitToTimeSlots cuts tr into consecutive slots of slotDuration.
// A tail shorter than slotDuration is dropped.
func SplitToTimeSlots(tr TimeRange, slotDuration time.Duration) ([]TimeRange, error) {
	if slotDuration <= 0 {
		return nil, ErrSlotDuration
	}
	if !tr.End.After(tr.Start) {
		return []TimeRange{}, nil
	}

	var out []TimeRange
	for cur := tr.Start; !cur.Add(slotDuration).After(tr.End); cur = cur.Add(slotDuration) {
		out = append(out, TimeRange{Start: cur, End: cur.Add(slotDuration)})
	}
	return out, nil
}

// Catalog is the fixed, ordered list of bookable slot labels. The same
// labels apply to every day.
type Catalog struct {
	labels []string
	index  map[string]int
}

// NewCatalog builds labels for [open, closing) in steps of slotDuration.
func NewCatalog(open, closing, slotDuration time.Duration) (*Catalog, error) {
	day := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	tr, err := NewTimeRange(day.Add(open), day.Add(closing))
	if err != nil {
		return nil, err
	}
	ranges, err := SplitToTimeSlots(tr, slotDuration)
	if err != nil {
		return nil, err
	}

	c := &Catalog{index: make(map[string]int, len(ranges))}
	for i, r := range ranges {
		label := r.Start.Format(LabelLayout)
		c.labels = append(c.labels, label)
		c.index[label] = i
	}
	return c, nil
}

// Default is the salon's nine hourly slots, 10:00 AM through 6:00 PM.
func Default() *Catalog {
	c, err := NewCatalog(10*time.Hour, 19*time.Hour, time.Hour)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Catalog) List() []string {
	out := make([]string, len(c.labels))
	copy(out, c.labels)
	return out
}

func (c *Catalog) Contains(label string) bool {
	_, ok := c.index[label]
	return ok
}

// Index is the position of label in the day, or -1.
func (c *Catalog) Index(label string) int {
	if i, ok := c.index[label]; ok {
		return i
	}
	return -1
}

// StartOn returns the wall-clock start of label on date in loc.
func (c *Catalog) StartOn(date time.Time, label string, loc *time.Location) (time.Time, error) {
	if !c.Contains(label) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownSlot, label)
	}
	clock, err := time.Parse(LabelLayout, label)
	if err != nil {
		return time.Time{}, err
	}
	if loc == nil {
		loc = time.UTC
	}
	y, m, d := date.Date()
	return time.Date(y, m, d, clock.Hour(), clock.Minute(), 0, 0, loc), nil
}

// FormatDate renders a date as "Monday, 20 October 2026".
func FormatDate(d time.Time) string {
	return d.Format("Monday, 2 January 2006")
}

// FormatShortDate renders a date as "Mon, 20 Oct 2026".
func FormatShortDate(d time.Time) string {
	return d.Format("Mon, 2 Jan 2006")
}
