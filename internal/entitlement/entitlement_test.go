// SPDX-License-Identifier: MIT

package entitlement

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func i64(v int64) *int64 { return &v }

func TestUnifiedPackager_Detection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		locator string
		want    bool
	}{
		{"unified manifest path", "https://cdn.example.com/live/ch1.isml/Manifest", true},
		{"unified with wallclock query", "https://cdn.example.com/live/ch1.isml/manifest.mpd?t=1700000000", true},
		{"uppercase marker", "https://cdn.example.com/live/CH1.ISML/Manifest", true},
		{"legacy hls locator", "https://cdn.example.com/vod/asset42/index.m3u8", false},
		{"manifest endpoint with wallclock query", "https://cdn.example.com/live/ch1/Manifest?t=1700000000", true},
		{"manifest endpoint without wallclock query", "https://cdn.example.com/live/ch1/Manifest", false},
		{"wallclock query on a non-manifest path", "https://cdn.example.com/vod/index.m3u8?t=1700000000", false},
		{"marker only in query is ignored", "https://cdn.example.com/vod/index.m3u8?ref=x.isml", false},
		{"unparseable locator falls back to substring", "://bad\x7f.isml/", true},
		{"empty locator", "", false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := Entitlement{MediaLocator: tt.locator}
			assert.Equal(t, tt.want, e.UnifiedPackager())
		})
	}
}

func TestBookmark_ZeroIsAbsent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		offset  *int64
		wantVal int64
		wantOK  bool
	}{
		{"nil bookmark", nil, 0, false},
		{"zero bookmark treated as absent", i64(0), 0, false},
		{"real bookmark", i64(100), 100, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := Entitlement{LastViewedOffset: tt.offset, LastViewedTime: tt.offset}
			v, ok := e.BookmarkPosition()
			assert.Equal(t, tt.wantVal, v)
			assert.Equal(t, tt.wantOK, ok)
			tv, tok := e.BookmarkTime()
			assert.Equal(t, tt.wantVal, tv)
			assert.Equal(t, tt.wantOK, tok)
		})
	}
}

func TestExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	assert.False(t, Entitlement{}.Expired(now), "zero expiration never expires")
	assert.True(t, Entitlement{PlayTokenExpiration: now.Add(-time.Minute)}.Expired(now))
	assert.False(t, Entitlement{PlayTokenExpiration: now.Add(time.Minute)}.Expired(now))
}

func TestRestrictions_SeekMatrix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		r    Restrictions
		from int64
		to   int64
		want bool
	}{
		{"backward rejected without rewind", Restrictions{FFEnabled: true}, 5000, 1000, false},
		{"backward allowed with rewind", Restrictions{RWEnabled: true}, 5000, 1000, true},
		{"forward rejected without fast-forward", Restrictions{RWEnabled: true}, 1000, 5000, false},
		{"forward allowed with fast-forward", Restrictions{FFEnabled: true}, 1000, 5000, true},
		{"same position always allowed", Restrictions{}, 3000, 3000, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.r.CanSeek(tt.from, tt.to))
		})
	}
}

func TestRestrictions_PauseAndWillSeek(t *testing.T) {
	t.Parallel()

	assert.True(t, Restrictions{TimeshiftEnabled: true}.CanPause(1234))
	assert.False(t, Restrictions{}.CanPause(1234))

	// Default adjustment policy passes the destination through.
	assert.Equal(t, int64(9000), Restrictions{}.WillSeek(100, 9000))
}

func TestRestrictionsFrom(t *testing.T) {
	t.Parallel()

	e := Entitlement{TimeshiftEnabled: true, RWEnabled: true}
	r := RestrictionsFrom(e)
	assert.Equal(t, Restrictions{TimeshiftEnabled: true, RWEnabled: true}, r)
}
