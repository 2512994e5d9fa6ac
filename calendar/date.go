package calendar

import (
	"fmt"
	"sort"
	"time"
)

// =============================================================================
// DATE - Calendar-local day with no time component
// =============================================================================

// DateLayout is the wire format for dates everywhere in the system.
const DateLayout = "2006-01-02"

// Date is a civil day. The zero value means "unset".
// Dates are always normalized to UTC midnight so they compare with == and can
// be used as map keys.
type Date struct {
	t time.Time
}

// Constructors
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf keeps the year/month/day of t as seen in t's own location.
func DateOf(t time.Time) Date {
	if t.IsZero() {
		return Date{}
	}
	return NewDate(t.Year(), t.Month(), t.Day())
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

func Today() Date { return DateOf(time.Now()) }

// Comparison
func (d Date) Before(other Date) bool        { return d.t.Before(other.t) }
func (d Date) After(other Date) bool         { return d.t.After(other.t) }
func (d Date) Equal(other Date) bool         { return d.t.Equal(other.t) }
func (d Date) BeforeOrEqual(other Date) bool { return !d.After(other) }
func (d Date) AfterOrEqual(other Date) bool  { return !d.Before(other) }

// Arithmetic
func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

// Properties
func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }
func (d Date) IsWeekend() bool       { wd := d.Weekday(); return wd == time.Saturday || wd == time.Sunday }
func (d Date) IsWorkday() bool       { return !d.IsWeekend() }
func (d Date) IsZero() bool          { return d.t.IsZero() }
func (d Date) Time() time.Time       { return d.t }

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(DateLayout)
}

func DaysBetween(from, to Date) int { return int(to.t.Sub(from.t).Hours() / 24) }

// =============================================================================
// DATE RANGE
// =============================================================================

// DateRange is an inclusive [Start, End] span of days.
type DateRange struct {
	Start Date
	End   Date
}

func (r DateRange) Contains(d Date) bool {
	return d.AfterOrEqual(r.Start) && d.BeforeOrEqual(r.End)
}

// Days returns every day in the range, ascending. Empty when End < Start.
func (r DateRange) Days() []Date {
	var days []Date
	for current := r.Start; current.BeforeOrEqual(r.End); current = current.AddDays(1) {
		days = append(days, current)
	}
	return days
}

// Validate rejects unset bounds and ranges that end before they start.
func (r DateRange) Validate() error {
	if r.Start.IsZero() || r.End.IsZero() {
		return ErrMissingDates
	}
	if r.End.Before(r.Start) {
		return ErrInvalidDateRange
	}
	return nil
}

func (r DateRange) String() string {
	return "[" + r.Start.String() + ", " + r.End.String() + "]"
}

// =============================================================================
// DATE SET
// =============================================================================

// DateSet is an unordered set of days.
type DateSet map[Date]struct{}

func NewDateSet(dates ...Date) DateSet {
	s := make(DateSet, len(dates))
	for _, d := range dates {
		s.Add(d)
	}
	return s
}

func (s DateSet) Add(d Date)           { s[d] = struct{}{} }
func (s DateSet) Contains(d Date) bool { _, ok := s[d]; return ok }

// Sorted returns the members in ascending order.
func (s DateSet) Sorted() []Date {
	out := make([]Date, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
