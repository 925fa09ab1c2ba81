// SPDX-License-Identifier: MIT

package playback

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/zelora/playcore/internal/backend"
	"github.com/zelora/playcore/internal/config"
	"github.com/zelora/playcore/internal/log"
	"github.com/zelora/playcore/internal/metrics"
	"github.com/zelora/playcore/internal/timeline"
)

// Decision is the outcome of one seek or go-live request.
type Decision string

const (
	// DecisionSeekLocal served the request with a local engine seek.
	DecisionSeekLocal Decision = "seek_local"

	// DecisionEscalateProgram re-resolved a program source for the target
	// timestamp and switched playback to it.
	DecisionEscalateProgram Decision = "escalate_program"

	// DecisionGoLive sought to the computed live edge.
	DecisionGoLive Decision = "go_live"

	// DecisionReEntitleChannel replaced a static manifest with a fresh
	// channel resolution.
	DecisionReEntitleChannel Decision = "re_entitle_channel"

	// DecisionAbandon took no action; a warning explains why unless the
	// request was silently dropped as stale or unanswered.
	DecisionAbandon Decision = "abandon"

	// DecisionRejectContract refused the seek under the contract
	// restrictions.
	DecisionRejectContract Decision = "reject_contract"
)

// Options wires a Controller to its collaborators. Engine and Source are
// required; Programs, Provider and Switcher are needed only for the
// escalation paths and may be nil for plain local seeking.
type Options struct {
	Source      *Source
	Engine      MediaEngine
	Programs    ProgramResolver
	Provider    backend.EntitlementProvider
	Credentials backend.PlayRequest
	Switcher    SourceSwitcher
	Observer    Observer

	// TimeBehindLiveMS extends the within-range boundary outward; zero
	// selects the configured default.
	TimeBehindLiveMS int64
}

// Controller applies the seek and go-live policy for one playback session.
// The caller serializes seek requests; the controller additionally
// single-flights the escalation paths so a duplicate request issued while a
// confirmation is pending joins the in-flight one instead of firing twice.
type Controller struct {
	mu     sync.Mutex
	source *Source

	engine   MediaEngine
	programs ProgramResolver
	provider backend.EntitlementProvider
	creds    backend.PlayRequest
	switcher SourceSwitcher
	observer Observer

	timeBehindLive int64
	sf             singleflight.Group
	logger         zerolog.Logger
}

// NewController creates a seek controller for the given source.
func NewController(opts Options) *Controller {
	obs := opts.Observer
	if obs == nil {
		obs = NopObserver{}
	}
	tbl := opts.TimeBehindLiveMS
	if tbl <= 0 {
		tbl = config.DefaultTimeBehindLiveMS
	}
	return &Controller{
		source:         opts.Source,
		engine:         opts.Engine,
		programs:       opts.Programs,
		provider:       opts.Provider,
		creds:          opts.Credentials,
		switcher:       opts.Switcher,
		observer:       obs,
		timeBehindLive: tbl,
		logger:         log.WithComponent("seek"),
	}
}

// Source returns the active source. It changes only through a full
// substitution after an escalation.
func (c *Controller) Source() *Source {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source
}

func (c *Controller) setSource(next *Source) {
	c.mu.Lock()
	c.source = next
	c.mu.Unlock()
}

// stale reports whether the source the request was issued for has been
// superseded; results for stale generations are dropped.
func (c *Controller) stale(generation uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.source.Generation() != generation
}

// CanPause reports whether pausing at the current playhead is allowed under
// the contract restrictions.
func (c *Controller) CanPause() bool {
	return c.Source().Restrictions().CanPause(c.engine.PlayheadPosition())
}

// HandleSeekPosition serves a buffer-position seek. This is the whole seek
// policy for asset sources: a contract check and a local seek.
func (c *Controller) HandleSeekPosition(ctx context.Context, toMS int64) (Decision, error) {
	_ = ctx
	src := c.Source()
	from := c.engine.PlayheadPosition()
	if !src.Restrictions().CanSeek(from, toMS) {
		return c.decide(src, DecisionRejectContract), nil
	}
	adjusted := src.Restrictions().WillSeek(from, toMS)
	if err := c.engine.SeekTo(timeline.Position(adjusted)); err != nil {
		return c.decide(src, DecisionAbandon), err
	}
	return c.decide(src, DecisionSeekLocal), nil
}

// HandleSeekTime serves a wallclock seek request. Schedule-bound sources
// classify the target against the seekable report: before the range
// escalates to a schedule lookup, within the range seeks locally after an
// optional entitlement confirmation, and after the range either goes live
// (dynamic manifest) or escalates (static manifest, whose end is not a live
// edge).
func (c *Controller) HandleSeekTime(ctx context.Context, targetMS int64) (Decision, error) {
	src := c.Source()
	from := c.engine.PlayheadTime()
	if !src.Restrictions().CanSeek(from, targetMS) {
		return c.decide(src, DecisionRejectContract), nil
	}

	if !src.ScheduleBound() {
		adjusted := src.Restrictions().WillSeek(from, targetMS)
		if err := c.engine.SeekTo(timeline.Time(adjusted)); err != nil {
			return c.decide(src, DecisionAbandon), err
		}
		return c.decide(src, DecisionSeekLocal), nil
	}

	ranges := c.engine.SeekableRanges()
	region, ok := timeline.Classify(targetMS, ranges, c.timeBehindLive)
	if !ok {
		c.warn(Warning{Kind: WarnSeekableRangesEmpty, Message: "seek with no seekable report"})
		return c.decide(src, DecisionAbandon), nil
	}

	switch region {
	case timeline.RegionBefore:
		return c.escalate(ctx, src, targetMS)
	case timeline.RegionWithin:
		return c.confirmAndSeek(ctx, src, from, targetMS)
	default:
		if c.engine.StreamType() == StreamTypeStatic {
			// Past the fixed end of a catch-up manifest lies unresolved
			// content, not a live edge.
			return c.escalate(ctx, src, targetMS)
		}
		return c.HandleGoLive(ctx)
	}
}

// HandleGoLive seeks to the live edge of a dynamic manifest, or performs a
// full channel re-entitlement when the active manifest is static and has no
// live edge of its own.
func (c *Controller) HandleGoLive(ctx context.Context) (Decision, error) {
	src := c.Source()
	if !src.ScheduleBound() {
		return c.decide(src, DecisionAbandon), nil
	}

	if c.engine.StreamType() == StreamTypeStatic {
		return c.reEntitleChannel(ctx, src)
	}

	ranges := c.engine.SeekableRanges()
	if ranges.Empty() {
		c.warn(Warning{Kind: WarnSeekableRangesEmpty, Message: "go-live with no seekable report"})
		return c.decide(src, DecisionAbandon), nil
	}
	if ranges.Discontinuous() {
		c.warn(Warning{Kind: WarnDiscontinuousRanges, Message: fmt.Sprintf("%d seekable ranges reported", len(ranges))})
	}

	last, _ := ranges.Last()
	target := last.End
	if delay, ok := src.Entitlement().LiveDelayMS(); ok {
		target -= delay
	} else if serverTime, ok := c.engine.ServerTime(); ok && target > serverTime {
		// Client buffer claims to reach past the server's now; trusting it
		// would seek into content that does not exist yet.
		c.warn(Warning{Kind: WarnSeekBeyondLivePoint, Message: fmt.Sprintf("live target %d past server time %d", target, serverTime)})
		return c.decide(src, DecisionAbandon), nil
	}

	v, err, _ := c.sf.Do(fmt.Sprintf("golive:%d", target), func() (interface{}, error) {
		return c.doGoLive(ctx, src, target)
	})
	return c.asDecision(v, err)
}

func (c *Controller) doGoLive(ctx context.Context, src *Source, target int64) (Decision, error) {
	if c.programs != nil {
		if err := c.programs.ValidateAt(ctx, target); err != nil {
			if d, fatalErr, fatal := c.handleValidationError(ctx, src, err); fatal {
				return d, fatalErr
			}
		}
	}
	if c.stale(src.Generation()) {
		return c.decide(src, DecisionAbandon), nil
	}
	if err := c.engine.SeekTo(timeline.Time(target)); err != nil {
		return c.decide(src, DecisionAbandon), err
	}

	// The seek has physically completed; only now may observers hear about
	// a program change.
	if c.programs != nil {
		switch p, err := c.programs.ProgramAt(ctx, target); {
		case err != nil:
			if ctx.Err() == nil {
				c.warn(Warning{Kind: WarnProgramServiceFetch, Err: err})
			}
		case p == nil:
			c.warn(Warning{Kind: WarnEPGGap, Message: fmt.Sprintf("no program at %d", target)})
		default:
			c.observer.OnProgramChanged(*p)
		}
	}

	c.logger.Info().
		Str(log.FieldDecision, string(DecisionGoLive)).
		Int64(log.FieldTargetMS, target).
		Uint64(log.FieldGeneration, src.Generation()).
		Msg("went live")
	return c.decide(src, DecisionGoLive), nil
}

// escalate resolves the program covering the target timestamp and switches
// playback to a fresh source for it. This is the only seek path that mints
// a new entitlement.
func (c *Controller) escalate(ctx context.Context, src *Source, targetMS int64) (Decision, error) {
	v, err, _ := c.sf.Do(fmt.Sprintf("escalate:%d", targetMS), func() (interface{}, error) {
		return c.doEscalate(ctx, src, targetMS)
	})
	return c.asDecision(v, err)
}

func (c *Controller) doEscalate(ctx context.Context, src *Source, targetMS int64) (Decision, error) {
	if c.programs == nil || c.provider == nil || c.switcher == nil {
		c.warn(Warning{Kind: WarnProgramServiceFetch, Message: "no program service attached, cannot escalate seek"})
		return c.decide(src, DecisionAbandon), nil
	}

	program, err := c.programs.ProgramAt(ctx, targetMS)
	if err != nil {
		if ctx.Err() == nil {
			c.warn(Warning{Kind: WarnProgramServiceFetch, Err: err})
		}
		return c.decide(src, DecisionAbandon), nil
	}
	if program == nil {
		c.warn(Warning{Kind: WarnEPGGap, Message: fmt.Sprintf("no program at %d", targetMS)})
		return c.decide(src, DecisionAbandon), nil
	}

	playable := ProgramPlayable{ProgramID: program.ProgramID, ChannelID: program.ChannelID}
	next, err := playable.PrepareSource(ctx, c.provider, c.creds)
	if err != nil {
		if errors.Is(err, backend.ErrNotEntitled) {
			c.stop(err)
			return c.decide(src, DecisionAbandon), err
		}
		if ctx.Err() == nil {
			c.warn(Warning{Kind: WarnProgramServiceFetch, Err: err})
		}
		return c.decide(src, DecisionAbandon), nil
	}

	if c.stale(src.Generation()) {
		// The session moved on while the lookup was in flight.
		return c.decide(src, DecisionAbandon), nil
	}
	if err := c.switcher.SwitchTo(ctx, next, timeline.Time(targetMS)); err != nil {
		return c.decide(src, DecisionAbandon), err
	}
	c.setSource(next)
	c.observer.OnProgramChanged(*program)

	c.logger.Info().
		Str(log.FieldDecision, string(DecisionEscalateProgram)).
		Str(log.FieldProgramID, program.ProgramID).
		Int64(log.FieldTargetMS, targetMS).
		Msg("switched to program source")
	return c.decide(src, DecisionEscalateProgram), nil
}

func (c *Controller) reEntitleChannel(ctx context.Context, src *Source) (Decision, error) {
	v, err, _ := c.sf.Do("golive:channel", func() (interface{}, error) {
		if c.provider == nil || c.switcher == nil {
			c.warn(Warning{Kind: WarnProgramServiceFetch, Message: "no provider attached, cannot re-entitle channel"})
			return c.decide(src, DecisionAbandon), nil
		}

		playable := ChannelPlayable{ChannelID: src.ChannelID()}
		next, err := playable.PrepareSource(ctx, c.provider, c.creds)
		if err != nil {
			if errors.Is(err, backend.ErrNotEntitled) {
				c.stop(err)
				return c.decide(src, DecisionAbandon), err
			}
			if ctx.Err() == nil {
				c.warn(Warning{Kind: WarnProgramServiceFetch, Err: err})
			}
			return c.decide(src, DecisionAbandon), nil
		}
		if c.stale(src.Generation()) {
			return c.decide(src, DecisionAbandon), nil
		}
		if err := c.switcher.SwitchTo(ctx, next, timeline.LiveEdge()); err != nil {
			return c.decide(src, DecisionAbandon), err
		}
		c.setSource(next)
		return c.decide(src, DecisionReEntitleChannel), nil
	})
	return c.asDecision(v, err)
}

func (c *Controller) confirmAndSeek(ctx context.Context, src *Source, fromMS, targetMS int64) (Decision, error) {
	if c.programs != nil {
		if err := c.programs.ValidateAt(ctx, targetMS); err != nil {
			if d, fatalErr, fatal := c.handleValidationError(ctx, src, err); fatal {
				return d, fatalErr
			}
		}
	}
	adjusted := src.Restrictions().WillSeek(fromMS, targetMS)
	if err := c.engine.SeekTo(timeline.Time(adjusted)); err != nil {
		return c.decide(src, DecisionAbandon), err
	}
	return c.decide(src, DecisionSeekLocal), nil
}

// handleValidationError folds a ValidateAt failure into the policy: an
// unanswered confirmation abandons the seek silently, a not-entitled
// outcome stops playback fatally, anything else is a warning and the seek
// proceeds.
func (c *Controller) handleValidationError(ctx context.Context, src *Source, err error) (Decision, error, bool) {
	if ctx.Err() != nil {
		return c.decide(src, DecisionAbandon), nil, true
	}
	if errors.Is(err, backend.ErrNotEntitled) {
		c.stop(err)
		return c.decide(src, DecisionAbandon), err, true
	}
	c.warn(Warning{Kind: WarnProgramServiceValidation, Err: err})
	return "", nil, false
}

func (c *Controller) decide(src *Source, d Decision) Decision {
	metrics.RecordSeekDecision(string(src.Kind()), string(d))
	return d
}

func (c *Controller) warn(w Warning) {
	metrics.RecordPolicyWarning(string(w.Kind))
	c.logger.Warn().Str(log.FieldWarning, string(w.Kind)).Msg(w.String())
	c.observer.OnWarning(w)
}

// stop surfaces a fatal not-entitled outcome with the backend status and
// message unchanged.
func (c *Controller) stop(err error) {
	status := backend.StatusOf(err)
	message := backend.ReasonCode(err)
	if message == "" {
		message = err.Error()
	}
	c.logger.Error().Int(log.FieldStatus, status).Str(log.FieldCode, message).Msg("playback stopped: not entitled")
	c.observer.OnStop(status, message)
}

func (c *Controller) asDecision(v interface{}, err error) (Decision, error) {
	d, ok := v.(Decision)
	if !ok {
		d = DecisionAbandon
	}
	return d, err
}
