// SPDX-License-Identifier: MIT

package playback

import (
	"fmt"

	"github.com/zelora/playcore/internal/metrics"
	"github.com/zelora/playcore/internal/timeline"
)

// SegmentLengthMS is the manifest segment length assumed when a unified
// manifest must start at its first fully available segment.
const SegmentLengthMS = int64(6000)

// PolicyKind selects a start-offset strategy.
type PolicyKind string

const (
	PolicyDefault        PolicyKind = "default"
	PolicyBeginning      PolicyKind = "beginning"
	PolicyBookmark       PolicyKind = "bookmark"
	PolicyCustomPosition PolicyKind = "custom_position"
	PolicyCustomTime     PolicyKind = "custom_time"
)

// StartPolicy is the caller-selected starting rule for a playback attempt.
// Custom policies carry the requested offset; the others carry no value.
type StartPolicy struct {
	kind  PolicyKind
	value int64
}

// DefaultStart lets each source variant choose its natural starting point.
func DefaultStart() StartPolicy { return StartPolicy{kind: PolicyDefault} }

// BeginningStart starts at the beginning of the content or buffer.
func BeginningStart() StartPolicy { return StartPolicy{kind: PolicyBeginning} }

// BookmarkStart resumes from the entitlement bookmark when one is present.
func BookmarkStart() StartPolicy { return StartPolicy{kind: PolicyBookmark} }

// CustomPositionStart starts at a buffer-relative millisecond position.
func CustomPositionStart(ms int64) StartPolicy {
	return StartPolicy{kind: PolicyCustomPosition, value: ms}
}

// CustomTimeStart starts at a wallclock epoch millisecond.
func CustomTimeStart(epochMS int64) StartPolicy {
	return StartPolicy{kind: PolicyCustomTime, value: epochMS}
}

// Kind returns the policy tag.
func (p StartPolicy) Kind() PolicyKind { return p.kind }

// Value returns the custom offset for the custom policies, 0 otherwise.
func (p StartPolicy) Value() int64 { return p.value }

func (p StartPolicy) String() string {
	switch p.kind {
	case PolicyCustomPosition, PolicyCustomTime:
		return fmt.Sprintf("%s(%d)", p.kind, p.value)
	default:
		return string(p.kind)
	}
}

// StartOffset computes the initial offset for a source under a start policy.
// It is a pure function of the source's entitlement and packaging mode:
// calling it twice with the same inputs yields the same offset.
func StartOffset(src *Source, policy StartPolicy) timeline.Offset {
	switch policy.Kind() {
	case PolicyCustomPosition:
		return timeline.Position(policy.Value())
	case PolicyCustomTime:
		return timeline.Time(policy.Value())
	}

	switch src.Kind() {
	case KindChannel:
		return channelStartOffset(src, policy)
	case KindProgram:
		return programStartOffset(src, policy)
	default:
		return assetStartOffset(src, policy)
	}
}

func assetStartOffset(src *Source, policy StartPolicy) timeline.Offset {
	switch policy.Kind() {
	case PolicyBeginning:
		return timeline.Position(0)
	case PolicyBookmark:
		if pos, ok := src.Entitlement().BookmarkPosition(); ok {
			return timeline.Position(pos)
		}
	}
	return timeline.DefaultPosition()
}

func channelStartOffset(src *Source, policy StartPolicy) timeline.Offset {
	ent := src.Entitlement()
	unified := ent.UnifiedPackager()

	switch policy.Kind() {
	case PolicyBeginning:
		if unified {
			return timeline.Position(SegmentLengthMS)
		}
		return timeline.DefaultPosition()
	case PolicyBookmark:
		if unified {
			if t, ok := ent.BookmarkTime(); ok {
				return timeline.Time(t)
			}
		}
		// Unified grants may still carry only a buffer bookmark; resume
		// from it rather than discarding the bookmark outright.
		if pos, ok := ent.BookmarkPosition(); ok {
			return timeline.Position(pos)
		}
	}
	// default policy, and the bookmark fallthrough when none is present
	if unified {
		return timeline.LiveEdge()
	}
	return timeline.DefaultPosition()
}

func programStartOffset(src *Source, policy StartPolicy) timeline.Offset {
	ent := src.Entitlement()
	unified := ent.UnifiedPackager()

	switch policy.Kind() {
	case PolicyBeginning:
		if unified {
			return timeline.Position(SegmentLengthMS)
		}
		return timeline.DefaultPosition()
	case PolicyBookmark:
		// Programs resume from the buffer position on both packaging modes.
		if pos, ok := ent.BookmarkPosition(); ok {
			return timeline.Position(pos)
		}
	}
	if unified {
		if ent.Live {
			return timeline.LiveEdge()
		}
		return timeline.Position(SegmentLengthMS)
	}
	return timeline.DefaultPosition()
}

// ResolveStartOffset computes the start offset and applies the custom-range
// guard: a custom offset outside the engine's known seekable report yields
// an invalid-start-time warning and the default policy's offset instead of
// a silent out-of-range start. An empty report skips the guard; nothing is
// known to check against yet.
func ResolveStartOffset(src *Source, policy StartPolicy, ranges timeline.Ranges, obs Observer) timeline.Offset {
	off := StartOffset(src, policy)

	custom := policy.Kind() == PolicyCustomPosition || policy.Kind() == PolicyCustomTime
	if custom && !ranges.Empty() && !startOffsetInRange(off, ranges) {
		if obs != nil {
			obs.OnWarning(Warning{
				Kind:    WarnInvalidStartTime,
				Message: fmt.Sprintf("custom start %s outside seekable ranges", off),
			})
		}
		metrics.RecordPolicyWarning(string(WarnInvalidStartTime))
		off = StartOffset(src, DefaultStart())
	}

	metrics.RecordStartOffset(string(src.Kind()), string(policy.Kind()), string(off.Tag()))
	return off
}

func startOffsetInRange(off timeline.Offset, ranges timeline.Ranges) bool {
	v, ok := off.Value()
	if !ok {
		return true
	}
	span, _ := ranges.Span()
	if off.Tag() == timeline.TagTime {
		return span.Contains(v)
	}
	return v >= 0 && v <= span.Duration()
}
