// Package timewindow finds the best contiguous free interval for cooking dinner
// on one day, given the household's dinner bounds and calendar busy blocks.
//
// Resolution is pure: the same bounds, clock and blocks always produce the
// same interval.
package timewindow

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"dinnerplanner/kitchen"
)

// LeadTime is the minimum gap between now and the start of cooking.
const LeadTime = 15 * time.Minute

var ErrNoFeasibleWindow = errors.New("no feasible time window")

// Interval is a free cooking interval.
type Interval struct {
	Start   time.Time `json:"start"`
	End     time.Time `json:"end"`
	Minutes int       `json:"duration_minutes"`
}

func newInterval(start, end time.Time) Interval {
	return Interval{Start: start, End: end, Minutes: int(end.Sub(start) / time.Minute)}
}

func (i Interval) duration() time.Duration { return i.End.Sub(i.Start) }

// Bounds is the absolute search window for a single day.
type Bounds struct {
	Earliest time.Time
	Latest   time.Time
}

// DayBounds places the household's local dinner bounds on date.
func DayBounds(h kitchen.Household, date kitchen.Date) (Bounds, error) {
	loc, err := h.Location()
	if err != nil {
		return Bounds{}, err
	}
	return Bounds{
		Earliest: date.At(h.DinnerEarliest, loc),
		Latest:   date.At(h.DinnerLatest, loc),
	}, nil
}

// Resolve returns the longest free interval inside bounds, earliest first on
// ties. The search starts no sooner than now+LeadTime.
func Resolve(b Bounds, now time.Time, blocks []kitchen.CalendarBlock) (Interval, error) {
	start := b.Earliest
	if lead := now.Add(LeadTime); lead.After(start) {
		start = lead
	}
	end := b.Latest
	if !start.Before(end) {
		return Interval{}, fmt.Errorf("%w: search window %s-%s is empty", ErrNoFeasibleWindow, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	free := FreeIntervals(start, end, blocks)
	if len(free) == 0 {
		return Interval{}, fmt.Errorf("%w: %s-%s fully blocked", ErrNoFeasibleWindow, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}

	best := free[0]
	for _, iv := range free[1:] {
		if iv.duration() > best.duration() {
			best = iv
		}
		// Equal durations keep the earlier one: free is in start order.
	}
	return best, nil
}

// FreeIntervals subtracts the busy blocks overlapping [start, end) and returns
// the remaining non-empty intervals in start order.
func FreeIntervals(start, end time.Time, blocks []kitchen.CalendarBlock) []Interval {
	sorted := make([]kitchen.CalendarBlock, len(blocks))
	copy(sorted, blocks)
	sort.SliceStable(sorted, func(i, j int) bool {
		if !sorted[i].Start.Equal(sorted[j].Start) {
			return sorted[i].Start.Before(sorted[j].Start)
		}
		return sorted[i].End.Before(sorted[j].End)
	})

	var free []Interval
	cursor := start
	for _, blk := range sorted {
		bs, be := blk.Start, blk.End
		if bs.Before(start) {
			bs = start
		}
		if be.After(end) {
			be = end
		}
		if !bs.Before(be) {
			continue
		}
		if bs.After(cursor) {
			free = append(free, newInterval(cursor, bs))
		}
		if be.After(cursor) {
			cursor = be
		}
	}
	if cursor.Before(end) {
		free = append(free, newInterval(cursor, end))
	}
	return free
}
