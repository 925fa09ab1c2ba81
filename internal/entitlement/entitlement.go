// SPDX-License-Identifier: MIT

// Package entitlement models the server-issued playback grant and the
// contract restrictions derived from it.
package entitlement

import (
	"net/url"
	"strings"
	"time"
)

// Entitlement is one playback grant issued by the backend. It is immutable
// once constructed: a session needing fresh grant data builds a new source
// around a new Entitlement rather than mutating fields in place.
type Entitlement struct {
	MediaLocator     string
	PlaySessionID    string
	Live             bool
	FFEnabled        bool
	RWEnabled        bool
	TimeshiftEnabled bool

	// LastViewedOffset is the bookmark position in buffer-relative
	// milliseconds, LastViewedTime the bookmark wallclock time in epoch
	// milliseconds. Either may be absent.
	LastViewedOffset *int64
	LastViewedTime   *int64

	// LiveDelay is the server-specified distance to keep behind the live
	// edge, in milliseconds.
	LiveDelay *int64

	PlayTokenExpiration time.Time
}

// unifiedManifestMarker is the path extension identifying a unified-packager
// manifest, whose offsets are wallclock timestamps rather than buffer
// positions.
const unifiedManifestMarker = ".isml"

// UnifiedPackager reports whether the media locator points at a
// unified-packager manifest: an .isml path, or a /Manifest endpoint
// addressed by a t= wallclock query. Derived from the locator on every
// call, never stored.
func (e Entitlement) UnifiedPackager() bool {
	u, err := url.Parse(e.MediaLocator)
	if err != nil {
		return strings.Contains(strings.ToLower(e.MediaLocator), unifiedManifestMarker)
	}
	path := strings.ToLower(u.Path)
	if strings.Contains(path, unifiedManifestMarker) {
		return true
	}
	return strings.HasSuffix(path, "/manifest") && u.Query().Has("t")
}

// BookmarkPosition returns the bookmark as a buffer position. A bookmark of
// exactly zero counts as absent: presence alone never selects the bookmark
// branch of the start-offset table.
func (e Entitlement) BookmarkPosition() (int64, bool) {
	if e.LastViewedOffset == nil || *e.LastViewedOffset == 0 {
		return 0, false
	}
	return *e.LastViewedOffset, true
}

// BookmarkTime returns the bookmark as a wallclock time, with the same
// zero-is-absent rule as BookmarkPosition.
func (e Entitlement) BookmarkTime() (int64, bool) {
	if e.LastViewedTime == nil || *e.LastViewedTime == 0 {
		return 0, false
	}
	return *e.LastViewedTime, true
}

// LiveDelayMS returns the live delay when the backend specified one.
func (e Entitlement) LiveDelayMS() (int64, bool) {
	if e.LiveDelay == nil {
		return 0, false
	}
	return *e.LiveDelay, true
}

// Expired reports whether the play token has passed its expiration.
func (e Entitlement) Expired(now time.Time) bool {
	return !e.PlayTokenExpiration.IsZero() && now.After(e.PlayTokenExpiration)
}
