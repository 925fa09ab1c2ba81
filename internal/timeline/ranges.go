// SPDX-License-Identifier: MIT

package timeline

// TimeRange is one seekable window in wallclock milliseconds.
type TimeRange struct {
	Start int64
	End   int64
}

// Duration returns the range length in milliseconds.
func (r TimeRange) Duration() int64 {
	return r.End - r.Start
}

// Contains reports whether t lies inside the range, boundaries included.
func (r TimeRange) Contains(t int64) bool {
	return t >= r.Start && t <= r.End
}

// Ranges is the seekable report from a media engine, ordered by start time.
type Ranges []TimeRange

// Empty reports whether no seekable window was reported.
func (rs Ranges) Empty() bool {
	return len(rs) == 0
}

// Discontinuous reports whether the engine reported more than one window.
func (rs Ranges) Discontinuous() bool {
	return len(rs) > 1
}

// Last returns the final reported window.
func (rs Ranges) Last() (TimeRange, bool) {
	if len(rs) == 0 {
		return TimeRange{}, false
	}
	return rs[len(rs)-1], true
}

// Span returns the window covering all reported ranges, from the first start
// to the last end.
func (rs Ranges) Span() (TimeRange, bool) {
	if len(rs) == 0 {
		return TimeRange{}, false
	}
	return TimeRange{Start: rs[0].Start, End: rs[len(rs)-1].End}, true
}

// Region locates a seek target relative to the seekable span.
type Region string

const (
	RegionBefore Region = "before"
	RegionWithin Region = "within"
	RegionAfter  Region = "after"
)

// Classify locates target against the seekable span. The boundary rule is
// inclusive on both ends: a target t is within [start, end+timeBehindLive],
// before when t < start, after otherwise. timeBehindLive extends only the
// upper bound, so a target slightly past the last seekable point still
// classifies as within rather than after.
//
// The second return is false when no ranges were reported; callers must
// handle the empty case themselves.
func Classify(target int64, rs Ranges, timeBehindLive int64) (Region, bool) {
	span, ok := rs.Span()
	if !ok {
		return RegionWithin, false
	}
	switch {
	case target < span.Start:
		return RegionBefore, true
	case target <= span.End+timeBehindLive:
		return RegionWithin, true
	default:
		return RegionAfter, true
	}
}
