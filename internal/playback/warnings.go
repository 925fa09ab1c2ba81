// SPDX-License-Identifier: MIT

package playback

import "fmt"

// WarningKind enumerates the non-fatal, observable policy warnings. A
// warning never stops playback by itself; the surrounding engine may.
type WarningKind string

const (
	WarnSeekableRangesEmpty      WarningKind = "seekable_ranges_empty"
	WarnDiscontinuousRanges      WarningKind = "discontinuous_seekable_ranges"
	WarnSeekBeyondLivePoint      WarningKind = "seek_time_beyond_live_point"
	WarnInvalidStartTime         WarningKind = "invalid_start_time"
	WarnProgramServiceFetch      WarningKind = "program_service_fetch_failure"
	WarnProgramServiceValidation WarningKind = "program_service_validation_failure"
	WarnEPGGap                   WarningKind = "epg_gap"
)

// Warning is one observable policy event.
type Warning struct {
	Kind    WarningKind
	Message string
	Err     error
}

func (w Warning) String() string {
	if w.Err != nil {
		return fmt.Sprintf("%s: %s: %v", w.Kind, w.Message, w.Err)
	}
	if w.Message == "" {
		return string(w.Kind)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Message)
}
