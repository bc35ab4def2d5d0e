// Package period converts symbolic date-filter selections into concrete
// time ranges.
package period

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

const (
	Today     Filter = "TODAY"
	ThisWeek  Filter = "THIS_WEEK"
	ThisMonth Filter = "THIS_MONTH"
	ThisYear  Filter = "THIS_YEAR"
	AllTime   Filter = "ALL_TIME"
	Custom    Filter = "CUSTOM"
)

// ErrInvalidFilterState is returned when a Custom range is requested
// without both bounds. It is the only error this package produces.
var ErrInvalidFilterState = errors.New("invalid filter state: custom range requires both bounds")

type (
	// Filter is a symbolic date-range selector.
	Filter string

	// Range is a resolved [Start, End] window, both bounds inclusive.
	// End sits at the last millisecond of the selected span.
	Range struct {
		Start  time.Time
		End    time.Time
		filter Filter
	}

	// Resolver turns a Filter plus "now" into a Range. The zone decides
	// where midnight falls; WeekStart is the locale's first day of week.
	Resolver struct {
		Loc       *time.Location
		WeekStart time.Weekday
	}
)

func (f Filter) Valid() bool {
	switch f {
	case Today, ThisWeek, ThisMonth, ThisYear, AllTime, Custom:
		return true
	}
	return false
}

// ParseFilter maps a request parameter to a Filter. The empty string
// defaults to ThisMonth, the selection every screen starts on.
func ParseFilter(s string) (Filter, error) {
	if s == "" {
		return ThisMonth, nil
	}
	f := Filter(strings.ToUpper(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("unknown period filter %q", s)
	}
	return f, nil
}

// NewResolver builds a Resolver; nil loc falls back to the local zone.
func NewResolver(loc *time.Location, weekStart time.Weekday) Resolver {
	if loc == nil {
		loc = time.Local
	}
	return Resolver{Loc: loc, WeekStart: weekStart}
}

// Unbounded reports whether the range covers all time, a hint that the
// store should be queried without a range predicate.
func (r Range) Unbounded() bool {
	return r.filter == AllTime
}

// Contains reports whether t falls inside the range.
func (r Range) Contains(t time.Time) bool {
	return !t.Before(r.Start) && !t.After(r.End)
}

// Resolve computes the concrete range for the given filter and instant.
//
// Custom expects both bounds already normalized by the caller (end at
// 23:59:59.999 of the chosen day); they are passed through unchanged to
// avoid double correction. Every filter except Custom always succeeds.
func (rs Resolver) Resolve(f Filter, now time.Time, customStart, customEnd *time.Time) (Range, error) {
	now = now.In(rs.Loc)
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, rs.Loc)

	switch f {
	case Today:
		return Range{Start: midnight, End: midnight.AddDate(0, 0, 1).Add(-time.Millisecond), filter: f}, nil
	case ThisWeek:
		delta := (int(now.Weekday()) - int(rs.WeekStart) + 7) % 7
		start := midnight.AddDate(0, 0, -delta)
		return Range{Start: start, End: start.AddDate(0, 0, 7).Add(-time.Millisecond), filter: f}, nil
	case ThisMonth:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, rs.Loc)
		return Range{Start: start, End: start.AddDate(0, 1, 0).Add(-time.Millisecond), filter: f}, nil
	case ThisYear:
		start := time.Date(now.Year(), 1, 1, 0, 0, 0, 0, rs.Loc)
		return Range{Start: start, End: start.AddDate(1, 0, 0).Add(-time.Millisecond), filter: f}, nil
	case AllTime:
		return Range{Start: time.UnixMilli(0), End: time.UnixMilli(math.MaxInt64), filter: f}, nil
	case Custom:
		if customStart == nil || customEnd == nil {
			return Range{}, ErrInvalidFilterState
		}
		return Range{Start: *customStart, End: *customEnd, filter: f}, nil
	default:
		return Range{}, fmt.Errorf("unknown period filter %q", f)
	}
}
