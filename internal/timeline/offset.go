// SPDX-License-Identifier: MIT

// Package timeline provides the millisecond time and position values the
// playback policy engine reasons about: tagged start/seek offsets and the
// seekable ranges reported by a media engine.
package timeline

import "fmt"

// Tag distinguishes the two axes an offset can live on. A position is
// buffer-relative milliseconds from asset start; a time is wallclock
// milliseconds since the Unix epoch.
type Tag string

const (
	TagPosition Tag = "position"
	TagTime     Tag = "time"
)

// Offset is a tagged playback offset. Exactly one tag applies, and the value
// may be absent: an absent position means "engine default start" and an
// absent time means "live edge". The zero Offset is an absent position.
type Offset struct {
	tag     Tag
	ms      int64
	present bool
}

// Position returns a buffer-relative offset in milliseconds.
func Position(ms int64) Offset {
	return Offset{tag: TagPosition, ms: ms, present: true}
}

// Time returns a wallclock offset in milliseconds since the Unix epoch.
func Time(epochMS int64) Offset {
	return Offset{tag: TagTime, ms: epochMS, present: true}
}

// DefaultPosition returns the absent position offset: the engine starts
// wherever its default for the manifest is.
func DefaultPosition() Offset {
	return Offset{tag: TagPosition}
}

// LiveEdge returns the absent time offset: the engine starts at the live
// edge of a dynamic manifest.
func LiveEdge() Offset {
	return Offset{tag: TagTime}
}

// Tag reports which axis the offset lives on.
func (o Offset) Tag() Tag {
	if o.tag == "" {
		return TagPosition
	}
	return o.tag
}

// Value returns the offset value and whether one is present.
func (o Offset) Value() (int64, bool) {
	return o.ms, o.present
}

// IsDefault reports whether the offset carries no explicit value.
func (o Offset) IsDefault() bool {
	return !o.present
}

func (o Offset) String() string {
	if !o.present {
		if o.Tag() == TagTime {
			return "time(live-edge)"
		}
		return "position(default)"
	}
	return fmt.Sprintf("%s(%d)", o.Tag(), o.ms)
}
