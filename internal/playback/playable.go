// SPDX-License-Identifier: MIT

package playback

import (
	"context"

	"github.com/zelora/playcore/internal/backend"
	"github.com/zelora/playcore/internal/log"
	"github.com/zelora/playcore/internal/metrics"
)

// Playable is a one-shot request descriptor that knows how to obtain its
// Source from an entitlement provider. A playable holds nothing but
// identifiers; every PrepareSource call goes back to the provider.
type Playable interface {
	Kind() Kind
	PrepareSource(ctx context.Context, provider backend.EntitlementProvider, req backend.PlayRequest) (*Source, error)
}

// AssetPlayable requests on-demand content.
type AssetPlayable struct {
	AssetID string
}

func (p AssetPlayable) Kind() Kind { return KindAsset }

// PrepareSource resolves a single entitlement. Provider errors are surfaced
// verbatim.
func (p AssetPlayable) PrepareSource(ctx context.Context, provider backend.EntitlementProvider, req backend.PlayRequest) (*Source, error) {
	ent, res, err := provider.EntitleAsset(ctx, p.AssetID, req)
	if err != nil {
		metrics.RecordEntitlementRequest(string(KindAsset), "error", false)
		return nil, err
	}
	metrics.RecordEntitlementRequest(string(KindAsset), "success", false)
	return NewAssetSource(p.AssetID, *ent, res), nil
}

// ChannelPlayable requests always-live channel content.
type ChannelPlayable struct {
	ChannelID string
}

func (p ChannelPlayable) Kind() Kind { return KindChannel }

// PrepareSource resolves a channel entitlement. When the backend answers
// HTTP 403 with the no-media-on-channel code, the request is repeated
// exactly once with the unencrypted-DRM override before the failure is
// surfaced. This is a workaround for a known backend inconsistency, not a
// retry policy; it fires at most once per call and other errors pass
// through untouched.
func (p ChannelPlayable) PrepareSource(ctx context.Context, provider backend.EntitlementProvider, req backend.PlayRequest) (*Source, error) {
	ent, res, err := provider.EntitleChannel(ctx, p.ChannelID, req)
	retried := false
	if needsUnencryptedRetry(err, backend.CodeNoMediaOnChannel) {
		retried = true
		logger := log.WithComponent("playable")
		logger.Debug().
			Str(log.FieldChannelID, p.ChannelID).
			Str(log.FieldCode, backend.CodeNoMediaOnChannel).
			Msg("retrying channel entitlement with unencrypted drm")
		retryReq := req
		retryReq.DRM = backend.DRMUnencrypted
		ent, res, err = provider.EntitleChannel(ctx, p.ChannelID, retryReq)
	}
	if err != nil {
		metrics.RecordEntitlementRequest(string(KindChannel), "error", retried)
		return nil, err
	}
	metrics.RecordEntitlementRequest(string(KindChannel), "success", retried)
	return NewChannelSource(p.ChannelID, *ent, res), nil
}

// ProgramPlayable requests one scheduled program within a channel.
type ProgramPlayable struct {
	ProgramID string
	ChannelID string
}

func (p ProgramPlayable) Kind() Kind { return KindProgram }

// PrepareSource resolves a program entitlement, with the same one-shot
// unencrypted-DRM workaround as ChannelPlayable keyed on the
// no-media-for-program code.
func (p ProgramPlayable) PrepareSource(ctx context.Context, provider backend.EntitlementProvider, req backend.PlayRequest) (*Source, error) {
	ent, res, err := provider.EntitleProgram(ctx, p.ProgramID, p.ChannelID, req)
	retried := false
	if needsUnencryptedRetry(err, backend.CodeNoMediaForProgram) {
		retried = true
		logger := log.WithComponent("playable")
		logger.Debug().
			Str(log.FieldProgramID, p.ProgramID).
			Str(log.FieldChannelID, p.ChannelID).
			Str(log.FieldCode, backend.CodeNoMediaForProgram).
			Msg("retrying program entitlement with unencrypted drm")
		retryReq := req
		retryReq.DRM = backend.DRMUnencrypted
		ent, res, err = provider.EntitleProgram(ctx, p.ProgramID, p.ChannelID, retryReq)
	}
	if err != nil {
		metrics.RecordEntitlementRequest(string(KindProgram), "error", retried)
		return nil, err
	}
	metrics.RecordEntitlementRequest(string(KindProgram), "success", retried)
	return NewProgramSource(p.ProgramID, p.ChannelID, *ent, res), nil
}

func needsUnencryptedRetry(err error, code string) bool {
	if err == nil {
		return false
	}
	return backend.StatusOf(err) == 403 && backend.ReasonCode(err) == code
}
