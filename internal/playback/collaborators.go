// SPDX-License-Identifier: MIT

package playback

import (
	"context"

	"github.com/zelora/playcore/internal/backend"
	"github.com/zelora/playcore/internal/timeline"
)

// StreamType is the manifest mode the media engine reports for the active
// stream. It is a runtime property: a program source does not know at
// construction whether it plays a growing or a fixed manifest.
type StreamType string

const (
	StreamTypeUnknown StreamType = ""
	StreamTypeDynamic StreamType = "dynamic"
	StreamTypeStatic  StreamType = "static"
)

// MediaEngine is the slice of the player engine the policy core consumes.
// The engine owns buffering, DRM and rendering; this interface only reports
// the time axis and accepts seeks.
type MediaEngine interface {
	// SeekableRanges reports the currently seekable windows in wallclock
	// milliseconds, ordered by start.
	SeekableRanges() timeline.Ranges

	// PlayheadTime is the current playhead in wallclock milliseconds.
	PlayheadTime() int64

	// PlayheadPosition is the current playhead in buffer-relative
	// milliseconds.
	PlayheadPosition() int64

	// ServerTime returns the server-reported current time when known.
	ServerTime() (int64, bool)

	// StreamType reports the active manifest mode.
	StreamType() StreamType

	// SeekTo performs the physical seek and returns once it completed.
	SeekTo(offset timeline.Offset) error
}

// ProgramResolver is the schedule-bound slice of the program service: which
// program covers a timestamp, and whether the viewer may play at it. A
// schedule gap is (nil, nil) from ProgramAt, not an error.
type ProgramResolver interface {
	ChannelID() string
	ProgramAt(ctx context.Context, atMS int64) (*backend.Program, error)
	ValidateAt(ctx context.Context, atMS int64) error
}

// SourceSwitcher receives the replacement source produced by an escalated
// seek or a static-manifest go-live, together with the offset playback
// should resume at.
type SourceSwitcher interface {
	SwitchTo(ctx context.Context, next *Source, start timeline.Offset) error
}

// Observer receives the policy outcomes the host surfaces to its UI or
// telemetry: non-fatal warnings, fatal stops, and program-change
// notifications (emitted only after the physical seek completed).
type Observer interface {
	OnWarning(w Warning)
	OnProgramChanged(p backend.Program)
	OnStop(status int, message string)
}

// NopObserver discards every notification.
type NopObserver struct{}

func (NopObserver) OnWarning(Warning) {}

func (NopObserver) OnProgramChanged(backend.Program) {}

func (NopObserver) OnStop(int, string) {}
