// SPDX-License-Identifier: MIT

package playback

import (
	"context"
	"net/http"
	"sync"

	"github.com/zelora/playcore/internal/backend"
	"github.com/zelora/playcore/internal/entitlement"
	"github.com/zelora/playcore/internal/timeline"
)

// recordingObserver captures every notification for assertions.
type recordingObserver struct {
	mu             sync.Mutex
	warnings       []Warning
	programChanges []backend.Program
	stops          []stopEvent
}

type stopEvent struct {
	status  int
	message string
}

func (o *recordingObserver) OnWarning(w Warning) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.warnings = append(o.warnings, w)
}

func (o *recordingObserver) OnProgramChanged(p backend.Program) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.programChanges = append(o.programChanges, p)
}

func (o *recordingObserver) OnStop(status int, message string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.stops = append(o.stops, stopEvent{status: status, message: message})
}

// fakeEngine reports scripted ranges and records every seek.
type fakeEngine struct {
	mu           sync.Mutex
	ranges       timeline.Ranges
	playheadTime int64
	playheadPos  int64
	serverTime   int64
	hasServer    bool
	streamType   StreamType
	seekErr      error
	seeks        []timeline.Offset
}

func (e *fakeEngine) SeekableRanges() timeline.Ranges { return e.ranges }

func (e *fakeEngine) PlayheadTime() int64 { return e.playheadTime }

func (e *fakeEngine) PlayheadPosition() int64 { return e.playheadPos }

func (e *fakeEngine) ServerTime() (int64, bool) { return e.serverTime, e.hasServer }

func (e *fakeEngine) StreamType() StreamType { return e.streamType }

func (e *fakeEngine) SeekTo(offset timeline.Offset) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.seekErr != nil {
		return e.seekErr
	}
	e.seeks = append(e.seeks, offset)
	return nil
}

func (e *fakeEngine) seekLog() []timeline.Offset {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]timeline.Offset, len(e.seeks))
	copy(out, e.seeks)
	return out
}

// fakePrograms scripts the program service.
type fakePrograms struct {
	mu            sync.Mutex
	channelID     string
	program       *backend.Program
	programErr    error
	validateErr   error
	blockValidate chan struct{} // when set, ValidateAt waits for it (or ctx)
	onProgramAt   func()        // hook fired before ProgramAt answers
	validateCalls int
	programCalls  int
}

func (p *fakePrograms) ChannelID() string { return p.channelID }

func (p *fakePrograms) ProgramAt(ctx context.Context, atMS int64) (*backend.Program, error) {
	p.mu.Lock()
	p.programCalls++
	hook := p.onProgramAt
	program, err := p.program, p.programErr
	p.mu.Unlock()
	if hook != nil {
		hook()
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	_ = atMS
	return program, err
}

func (p *fakePrograms) ValidateAt(ctx context.Context, atMS int64) error {
	p.mu.Lock()
	p.validateCalls++
	block := p.blockValidate
	err := p.validateErr
	p.mu.Unlock()
	_ = atMS
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (p *fakePrograms) counts() (programs, validates int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.programCalls, p.validateCalls
}

// fakeSwitcher records source substitutions.
type fakeSwitcher struct {
	mu       sync.Mutex
	err      error
	switched []*Source
	offsets  []timeline.Offset
}

func (s *fakeSwitcher) SwitchTo(_ context.Context, next *Source, start timeline.Offset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.switched = append(s.switched, next)
	s.offsets = append(s.offsets, start)
	return nil
}

// fakeProvider scripts entitlement resolutions and records each call's DRM
// override.
type fakeProvider struct {
	mu    sync.Mutex
	calls []provCall

	// results are consumed per key in FIFO order; key is "asset:<id>",
	// "channel:<id>" or "program:<channelID>:<programID>".
	results map[string][]provResult
}

type provCall struct {
	key string
	drm string
}

type provResult struct {
	ent *entitlement.Entitlement
	res *http.Response
	err error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{results: make(map[string][]provResult)}
}

func (f *fakeProvider) queue(key string, r provResult) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.results[key] = append(f.results[key], r)
}

func (f *fakeProvider) callLog() []provCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]provCall, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *fakeProvider) next(key, drm string) (*entitlement.Entitlement, *http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, provCall{key: key, drm: drm})
	queued := f.results[key]
	if len(queued) == 0 {
		return &entitlement.Entitlement{MediaLocator: "https://cdn.test/default.m3u8"}, nil, nil
	}
	r := queued[0]
	f.results[key] = queued[1:]
	return r.ent, r.res, r.err
}

func (f *fakeProvider) EntitleAsset(_ context.Context, assetID string, req backend.PlayRequest) (*entitlement.Entitlement, *http.Response, error) {
	return f.next("asset:"+assetID, req.DRM)
}

func (f *fakeProvider) EntitleChannel(_ context.Context, channelID string, req backend.PlayRequest) (*entitlement.Entitlement, *http.Response, error) {
	return f.next("channel:"+channelID, req.DRM)
}

func (f *fakeProvider) EntitleProgram(_ context.Context, programID, channelID string, req backend.PlayRequest) (*entitlement.Entitlement, *http.Response, error) {
	return f.next("program:"+channelID+":"+programID, req.DRM)
}
