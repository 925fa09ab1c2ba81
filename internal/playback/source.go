// SPDX-License-Identifier: MIT

// Package playback is the policy core of the session orchestration layer.
// It turns entitlements into typed sources, computes start offsets under a
// start policy, and decides how seek and go-live requests are served.
package playback

import (
	"net/http"
	"sync/atomic"

	"github.com/zelora/playcore/internal/entitlement"
)

// Kind tags the source variants. Start and seek behavior dispatches on this
// tag so the policy tables stay exhaustive.
type Kind string

const (
	KindAsset   Kind = "asset"
	KindChannel Kind = "channel"
	KindProgram Kind = "program"
)

var generationCounter atomic.Uint64

func nextGeneration() uint64 {
	return generationCounter.Add(1)
}

// Source is a playback-ready object wrapping one entitlement. Its identity
// fields never change after construction; fetching a new entitlement always
// produces a whole new Source, so no partially updated source is observable.
type Source struct {
	kind      Kind
	assetID   string
	channelID string
	programID string

	ent          entitlement.Entitlement
	restrictions entitlement.Restrictions

	// response is the raw HTTP response the entitlement arrived with, kept
	// for downstream header inspection. Its body is drained.
	response *http.Response

	// generation tags async lookups issued for this source so results
	// arriving for a superseded source can be dropped.
	generation uint64
}

// NewAssetSource wraps an entitlement for on-demand content.
func NewAssetSource(assetID string, ent entitlement.Entitlement, res *http.Response) *Source {
	return &Source{
		kind:         KindAsset,
		assetID:      assetID,
		ent:          ent,
		restrictions: entitlement.RestrictionsFrom(ent),
		response:     res,
		generation:   nextGeneration(),
	}
}

// NewChannelSource wraps an entitlement for always-live channel content.
func NewChannelSource(channelID string, ent entitlement.Entitlement, res *http.Response) *Source {
	return &Source{
		kind:         KindChannel,
		assetID:      channelID,
		channelID:    channelID,
		ent:          ent,
		restrictions: entitlement.RestrictionsFrom(ent),
		response:     res,
		generation:   nextGeneration(),
	}
}

// NewProgramSource wraps an entitlement for one scheduled program within a
// channel.
func NewProgramSource(programID, channelID string, ent entitlement.Entitlement, res *http.Response) *Source {
	return &Source{
		kind:         KindProgram,
		assetID:      programID,
		channelID:    channelID,
		programID:    programID,
		ent:          ent,
		restrictions: entitlement.RestrictionsFrom(ent),
		response:     res,
		generation:   nextGeneration(),
	}
}

// Kind returns the variant tag.
func (s *Source) Kind() Kind { return s.kind }

// AssetID returns the identifying asset id.
func (s *Source) AssetID() string { return s.assetID }

// ChannelID returns the channel id for schedule-bound sources, "" otherwise.
func (s *Source) ChannelID() string { return s.channelID }

// ProgramID returns the program id for program sources, "" otherwise.
func (s *Source) ProgramID() string { return s.programID }

// Entitlement returns the wrapped grant.
func (s *Source) Entitlement() entitlement.Entitlement { return s.ent }

// Restrictions returns the contract policy computed at construction.
func (s *Source) Restrictions() entitlement.Restrictions { return s.restrictions }

// Response returns the raw HTTP response the entitlement arrived with.
func (s *Source) Response() *http.Response { return s.response }

// Generation returns the monotonically increasing construction generation.
func (s *Source) Generation() uint64 { return s.generation }

// ScheduleBound reports whether the source follows a channel schedule.
func (s *Source) ScheduleBound() bool {
	return s.kind == KindChannel || s.kind == KindProgram
}
