// SPDX-License-Identifier: MIT

package playback

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zelora/playcore/internal/backend"
	"github.com/zelora/playcore/internal/entitlement"
)

func noMediaErr(code string) error {
	return &backend.APIError{
		Sentinel:  backend.ErrNotEntitled,
		Operation: "entitle",
		Status:    http.StatusForbidden,
		Code:      code,
		Message:   code,
	}
}

func TestAssetPlayable_Success(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	res := &http.Response{StatusCode: http.StatusOK}
	provider.queue("asset:vod-1", provResult{
		ent: &entitlement.Entitlement{MediaLocator: legacyLocator, PlaySessionID: "s1", FFEnabled: true},
		res: res,
	})

	src, err := AssetPlayable{AssetID: "vod-1"}.PrepareSource(context.Background(), provider, backend.PlayRequest{})
	require.NoError(t, err)

	assert.Equal(t, KindAsset, src.Kind())
	assert.Equal(t, "vod-1", src.AssetID())
	assert.Empty(t, src.ChannelID())
	assert.Equal(t, "s1", src.Entitlement().PlaySessionID)
	assert.Same(t, res, src.Response(), "raw response must be attached for header inspection")
	assert.True(t, src.Restrictions().FFEnabled)
}

func TestAssetPlayable_ErrorSurfacedVerbatim(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	queued := noMediaErr("SOMETHING_ELSE")
	provider.queue("asset:vod-1", provResult{err: queued})

	_, err := AssetPlayable{AssetID: "vod-1"}.PrepareSource(context.Background(), provider, backend.PlayRequest{})
	require.Error(t, err)
	assert.Equal(t, queued, err, "errors pass through unwrapped")
	assert.Len(t, provider.callLog(), 1, "asset resolution never retries")
}

func TestChannelPlayable_NoMediaRetriesOnceUnencrypted(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.queue("channel:ch-1", provResult{err: noMediaErr(backend.CodeNoMediaOnChannel)})
	provider.queue("channel:ch-1", provResult{
		ent: &entitlement.Entitlement{MediaLocator: unifiedLocator, Live: true},
	})

	src, err := ChannelPlayable{ChannelID: "ch-1"}.PrepareSource(context.Background(), provider, backend.PlayRequest{})
	require.NoError(t, err)
	assert.Equal(t, KindChannel, src.Kind())
	assert.Equal(t, "ch-1", src.ChannelID())

	calls := provider.callLog()
	require.Len(t, calls, 2)
	assert.Equal(t, "", calls[0].drm)
	assert.Equal(t, backend.DRMUnencrypted, calls[1].drm)
}

func TestChannelPlayable_RetryFiresAtMostOnce(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.queue("channel:ch-1", provResult{err: noMediaErr(backend.CodeNoMediaOnChannel)})
	second := noMediaErr(backend.CodeNoMediaOnChannel)
	provider.queue("channel:ch-1", provResult{err: second})

	_, err := ChannelPlayable{ChannelID: "ch-1"}.PrepareSource(context.Background(), provider, backend.PlayRequest{})
	require.Error(t, err)
	assert.Equal(t, second, err, "second failure is surfaced, not retried again")
	assert.Len(t, provider.callLog(), 2)
}

func TestChannelPlayable_OtherForbiddenCodesDoNotRetry(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	queued := noMediaErr(backend.CodeNotEntitled)
	provider.queue("channel:ch-1", provResult{err: queued})

	_, err := ChannelPlayable{ChannelID: "ch-1"}.PrepareSource(context.Background(), provider, backend.PlayRequest{})
	require.Error(t, err)
	assert.Equal(t, queued, err)
	assert.Len(t, provider.callLog(), 1)
}

func TestProgramPlayable_RetryKeyedOnProgramCode(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	provider.queue("program:ch-1:p-1", provResult{err: noMediaErr(backend.CodeNoMediaForProgram)})
	provider.queue("program:ch-1:p-1", provResult{
		ent: &entitlement.Entitlement{MediaLocator: unifiedLocator},
	})

	src, err := ProgramPlayable{ProgramID: "p-1", ChannelID: "ch-1"}.PrepareSource(context.Background(), provider, backend.PlayRequest{})
	require.NoError(t, err)
	assert.Equal(t, KindProgram, src.Kind())
	assert.Equal(t, "p-1", src.ProgramID())
	assert.Equal(t, "ch-1", src.ChannelID())

	calls := provider.callLog()
	require.Len(t, calls, 2)
	assert.Equal(t, backend.DRMUnencrypted, calls[1].drm)
}

func TestProgramPlayable_ChannelCodeDoesNotTriggerRetry(t *testing.T) {
	t.Parallel()

	provider := newFakeProvider()
	queued := noMediaErr(backend.CodeNoMediaOnChannel)
	provider.queue("program:ch-1:p-1", provResult{err: queued})

	_, err := ProgramPlayable{ProgramID: "p-1", ChannelID: "ch-1"}.PrepareSource(context.Background(), provider, backend.PlayRequest{})
	require.Error(t, err)
	assert.Equal(t, queued, err)
	assert.Len(t, provider.callLog(), 1)
}

func TestSource_GenerationsIncrease(t *testing.T) {
	t.Parallel()

	a := NewChannelSource("ch", entitlement.Entitlement{}, nil)
	b := NewChannelSource("ch", entitlement.Entitlement{}, nil)
	assert.Greater(t, b.Generation(), a.Generation())
}

// End-to-end through the real HTTP client: the workaround parameters reach
// the wire.
func TestChannelPlayable_RetryAgainstMockBackend(t *testing.T) {
	mock := backend.NewMockServer()
	t.Cleanup(mock.Close)
	client := backend.New(mock.URL, 5*time.Second)

	mock.FailNext("channel:ch-1", http.StatusForbidden, backend.CodeNoMediaOnChannel)

	src, err := ChannelPlayable{ChannelID: "ch-1"}.PrepareSource(context.Background(), client, backend.PlayRequest{SessionToken: "tok"})
	require.NoError(t, err)
	assert.True(t, src.Entitlement().UnifiedPackager())
	assert.Equal(t, []string{"", backend.DRMUnencrypted}, mock.DRMParams("channel:ch-1"))
	require.NotNil(t, src.Response())
	assert.Equal(t, http.StatusOK, src.Response().StatusCode)
}

func TestNeedsUnencryptedRetry_NonAPIError(t *testing.T) {
	t.Parallel()

	assert.False(t, needsUnencryptedRetry(nil, backend.CodeNoMediaOnChannel))
	assert.False(t, needsUnencryptedRetry(errors.New("dial tcp: refused"), backend.CodeNoMediaOnChannel))
}
