// SPDX-License-Identifier: MIT

// Package playcore orchestrates playback sessions between a media player
// engine and a backend entitlement service. It resolves playable sources
// with the documented unencrypted-DRM retry, applies the start-offset
// policy per source variant, and drives the seek and go-live policy under
// the contract restrictions of the active entitlement.
//
// The concrete types live in internal packages; this package is the embed
// surface for the host player. Hosts implement MediaEngine, SourceSwitcher
// and Observer and hand them to Begin.
package playcore

import (
	"context"
	"errors"

	"github.com/zelora/playcore/internal/backend"
	"github.com/zelora/playcore/internal/config"
	"github.com/zelora/playcore/internal/entitlement"
	"github.com/zelora/playcore/internal/log"
	"github.com/zelora/playcore/internal/playback"
	"github.com/zelora/playcore/internal/timeline"
)

// Boundary types, re-exported so hosts never touch the internal paths.
type (
	Config       = config.Config
	Offset       = timeline.Offset
	TimeRange    = timeline.TimeRange
	Ranges       = timeline.Ranges
	Entitlement  = entitlement.Entitlement
	Restrictions = entitlement.Restrictions

	Client              = backend.Client
	EntitlementProvider = backend.EntitlementProvider
	PlayRequest         = backend.PlayRequest
	Program             = backend.Program

	Source          = playback.Source
	Playable        = playback.Playable
	AssetPlayable   = playback.AssetPlayable
	ChannelPlayable = playback.ChannelPlayable
	ProgramPlayable = playback.ProgramPlayable
	StartPolicy     = playback.StartPolicy
	Decision        = playback.Decision
	Warning         = playback.Warning
	WarningKind     = playback.WarningKind
	StreamType      = playback.StreamType
	MediaEngine     = playback.MediaEngine
	ProgramResolver = playback.ProgramResolver
	SourceSwitcher  = playback.SourceSwitcher
	Observer        = playback.Observer
)

const (
	StreamTypeUnknown = playback.StreamTypeUnknown
	StreamTypeDynamic = playback.StreamTypeDynamic
	StreamTypeStatic  = playback.StreamTypeStatic

	DecisionSeekLocal        = playback.DecisionSeekLocal
	DecisionEscalateProgram  = playback.DecisionEscalateProgram
	DecisionGoLive           = playback.DecisionGoLive
	DecisionReEntitleChannel = playback.DecisionReEntitleChannel
	DecisionAbandon          = playback.DecisionAbandon
	DecisionRejectContract   = playback.DecisionRejectContract

	WarnSeekableRangesEmpty      = playback.WarnSeekableRangesEmpty
	WarnDiscontinuousRanges      = playback.WarnDiscontinuousRanges
	WarnSeekBeyondLivePoint      = playback.WarnSeekBeyondLivePoint
	WarnInvalidStartTime         = playback.WarnInvalidStartTime
	WarnProgramServiceFetch      = playback.WarnProgramServiceFetch
	WarnProgramServiceValidation = playback.WarnProgramServiceValidation
	WarnEPGGap                   = playback.WarnEPGGap
)

// Error classification, re-exported for errors.Is at the host boundary.
// ReasonCode and StatusOf unwrap the backend's rich error.
var (
	ErrNotEntitled         = backend.ErrNotEntitled
	ErrNotFound            = backend.ErrNotFound
	ErrTimeout             = backend.ErrTimeout
	ErrUpstreamUnavailable = backend.ErrUpstreamUnavailable
	ErrUpstreamError       = backend.ErrUpstreamError
	ErrUpstreamBadResponse = backend.ErrUpstreamBadResponse

	ReasonCode = backend.ReasonCode
	StatusOf   = backend.StatusOf
)

// Offset constructors.
var (
	Position        = timeline.Position
	Time            = timeline.Time
	DefaultPosition = timeline.DefaultPosition
	LiveEdge        = timeline.LiveEdge
)

// Start policy constructors.
var (
	DefaultStart        = playback.DefaultStart
	BeginningStart      = playback.BeginningStart
	BookmarkStart       = playback.BookmarkStart
	CustomPositionStart = playback.CustomPositionStart
	CustomTimeStart     = playback.CustomTimeStart
)

// FromEnv reads the PLAYCORE_* environment and configures logging once.
func FromEnv() Config {
	log.Configure(log.Config{})
	return config.FromEnv()
}

// NewClient creates the backend entitlement client.
func NewClient(cfg Config) *Client {
	return backend.New(cfg.BackendBaseURL, cfg.RequestTimeout)
}

// ProgramService binds the backend client's schedule operations to one
// channel, yielding the ProgramResolver the seek controller consumes.
func ProgramService(client *Client, channelID string) ProgramResolver {
	return boundProgramService{client: client, channelID: channelID}
}

type boundProgramService struct {
	client    *Client
	channelID string
}

func (b boundProgramService) ChannelID() string { return b.channelID }

func (b boundProgramService) ProgramAt(ctx context.Context, atMS int64) (*Program, error) {
	return b.client.ProgramAt(ctx, b.channelID, atMS)
}

func (b boundProgramService) ValidateAt(ctx context.Context, atMS int64) error {
	return b.client.ValidateAt(ctx, b.channelID, atMS)
}

// SessionOptions wires one playback session. Playable, Provider and Engine
// are required. Programs, Switcher and Observer are optional; without them
// the escalation paths degrade to warnings as documented on the Controller.
type SessionOptions struct {
	Playable    Playable
	Policy      StartPolicy
	Provider    EntitlementProvider
	Credentials PlayRequest
	Engine      MediaEngine
	Programs    ProgramResolver
	Switcher    SourceSwitcher
	Observer    Observer

	// TimeBehindLiveMS extends the within-range boundary outward; zero
	// selects the configured default.
	TimeBehindLiveMS int64
}

// Session is one resolved playback session: the active source, the offset
// playback should start at, and the seek policy for everything after.
type Session struct {
	ctrl  *playback.Controller
	start Offset
}

// Begin resolves the playable into a source, computes the start offset for
// the requested policy and returns the session. Entitlement failures are
// returned verbatim, including the one-shot 403 retry outcomes.
func Begin(ctx context.Context, opts SessionOptions) (*Session, error) {
	if opts.Playable == nil || opts.Provider == nil || opts.Engine == nil {
		return nil, errors.New("playcore: Playable, Provider and Engine are required")
	}

	src, err := opts.Playable.PrepareSource(ctx, opts.Provider, opts.Credentials)
	if err != nil {
		return nil, err
	}

	start := playback.ResolveStartOffset(src, opts.Policy, opts.Engine.SeekableRanges(), opts.Observer)

	ctrl := playback.NewController(playback.Options{
		Source:           src,
		Engine:           opts.Engine,
		Programs:         opts.Programs,
		Provider:         opts.Provider,
		Credentials:      opts.Credentials,
		Switcher:         opts.Switcher,
		Observer:         opts.Observer,
		TimeBehindLiveMS: opts.TimeBehindLiveMS,
	})
	return &Session{ctrl: ctrl, start: start}, nil
}

// StartOffset is the offset playback should begin at. Unset offsets mean
// the engine default for positions and the live edge for times.
func (s *Session) StartOffset() Offset { return s.start }

// Source returns the active source; escalated seeks replace it wholesale.
func (s *Session) Source() *Source { return s.ctrl.Source() }

// SeekToPosition serves a buffer-position seek request.
func (s *Session) SeekToPosition(ctx context.Context, toMS int64) (Decision, error) {
	return s.ctrl.HandleSeekPosition(ctx, toMS)
}

// SeekToTime serves a wallclock seek request.
func (s *Session) SeekToTime(ctx context.Context, epochMS int64) (Decision, error) {
	return s.ctrl.HandleSeekTime(ctx, epochMS)
}

// GoLive seeks to the live edge, or re-entitles the channel when the
// active manifest is static.
func (s *Session) GoLive(ctx context.Context) (Decision, error) {
	return s.ctrl.HandleGoLive(ctx)
}

// CanPause reports whether pausing is allowed under the contract.
func (s *Session) CanPause() bool { return s.ctrl.CanPause() }
