// SPDX-License-Identifier: MIT

package backend

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
)

// MockServer provides a configurable entitlement-backend mock for testing.
type MockServer struct {
	*httptest.Server
	mu           sync.RWMutex
	entitlements map[string]Fixture
	schedules    map[string][]Program
	validations  map[string]string // channelID -> reason code, "" = entitled
	failures     map[string][]queuedFailure
	drmSeen      map[string][]string
}

// Fixture is the entitlement data the mock returns for one playable key.
type Fixture struct {
	MediaLocator     string
	PlaySessionID    string
	Live             bool
	FFEnabled        bool
	RWEnabled        bool
	TimeshiftEnabled bool
	LastViewedOffset *int64
	LastViewedTime   *int64
	LiveDelay        *int64
}

type queuedFailure struct {
	status int
	code   string
}

// NewMockServer creates a new entitlement-backend mock server.
func NewMockServer() *MockServer {
	mock := &MockServer{
		entitlements: make(map[string]Fixture),
		schedules:    make(map[string][]Program),
		validations:  make(map[string]string),
		failures:     make(map[string][]queuedFailure),
		drmSeen:      make(map[string][]string),
	}
	mock.SetDefaultData()

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/entitlement/asset/{assetID}/play", mock.handleAsset)
	mux.HandleFunc("GET /v1/entitlement/channel/{channelID}/play", mock.handleChannel)
	mux.HandleFunc("GET /v1/entitlement/channel/{channelID}/program/{programID}/play", mock.handleProgram)
	mux.HandleFunc("GET /v1/entitlement/channel/{channelID}/validate", mock.handleValidate)
	mux.HandleFunc("GET /v1/epg/{channelID}/program", mock.handleProgramAt)

	mock.Server = httptest.NewServer(mux)
	return mock
}

// SetDefaultData sets up realistic test data.
func (m *MockServer) SetDefaultData() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entitlements["asset:vod-42"] = Fixture{
		MediaLocator:  "https://cdn.test/vod/vod-42/index.m3u8",
		PlaySessionID: "sess-asset",
		FFEnabled:     true,
		RWEnabled:     true,
	}
	m.entitlements["channel:ch-1"] = Fixture{
		MediaLocator:     "https://cdn.test/live/ch-1.isml/manifest",
		PlaySessionID:    "sess-channel",
		Live:             true,
		FFEnabled:        true,
		RWEnabled:        true,
		TimeshiftEnabled: true,
	}
}

// SetEntitlement installs the fixture returned for a playable key:
// "asset:<id>", "channel:<id>" or "program:<channelID>:<programID>".
func (m *MockServer) SetEntitlement(key string, f Fixture) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entitlements[key] = f
}

// FailNext queues one failure for a playable key; each queued failure is
// consumed by exactly one request before the fixture is served again.
func (m *MockServer) FailNext(key string, status int, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[key] = append(m.failures[key], queuedFailure{status: status, code: code})
}

// SetSchedule installs the EPG entries for a channel.
func (m *MockServer) SetSchedule(channelID string, programs []Program) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.schedules[channelID] = programs
}

// SetValidation controls the validate endpoint for a channel. An empty code
// means entitled; otherwise validation fails with HTTP 403 and the code.
func (m *MockServer) SetValidation(channelID, code string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validations[channelID] = code
}

// DRMParams returns the drm query parameter of every request seen for the
// key, in order, with "" for requests that carried none.
func (m *MockServer) DRMParams(key string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, len(m.drmSeen[key]))
	copy(out, m.drmSeen[key])
	return out
}

func (m *MockServer) handleAsset(w http.ResponseWriter, r *http.Request) {
	m.serveEntitlement(w, r, "asset:"+r.PathValue("assetID"))
}

func (m *MockServer) handleChannel(w http.ResponseWriter, r *http.Request) {
	m.serveEntitlement(w, r, "channel:"+r.PathValue("channelID"))
}

func (m *MockServer) handleProgram(w http.ResponseWriter, r *http.Request) {
	m.serveEntitlement(w, r, "program:"+r.PathValue("channelID")+":"+r.PathValue("programID"))
}

func (m *MockServer) serveEntitlement(w http.ResponseWriter, r *http.Request, key string) {
	m.mu.Lock()
	m.drmSeen[key] = append(m.drmSeen[key], r.URL.Query().Get("drm"))
	if queued := m.failures[key]; len(queued) > 0 {
		f := queued[0]
		m.failures[key] = queued[1:]
		m.mu.Unlock()
		writeError(w, f.status, f.code)
		return
	}
	fixture, ok := m.entitlements[key]
	m.mu.Unlock()

	if !ok {
		writeError(w, http.StatusNotFound, "UNKNOWN_ASSET")
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(entitlementPayload{
		MediaLocator:     fixture.MediaLocator,
		PlaySessionID:    fixture.PlaySessionID,
		Live:             fixture.Live,
		FFEnabled:        fixture.FFEnabled,
		RWEnabled:        fixture.RWEnabled,
		TimeshiftEnabled: fixture.TimeshiftEnabled,
		LastViewedOffset: fixture.LastViewedOffset,
		LastViewedTime:   fixture.LastViewedTime,
		LiveDelay:        fixture.LiveDelay,
	})
}

func (m *MockServer) handleValidate(w http.ResponseWriter, r *http.Request) {
	m.mu.RLock()
	code := m.validations[r.PathValue("channelID")]
	m.mu.RUnlock()

	if code != "" {
		writeError(w, http.StatusForbidden, code)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (m *MockServer) handleProgramAt(w http.ResponseWriter, r *http.Request) {
	at, err := strconv.ParseInt(r.URL.Query().Get("time"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_TIME")
		return
	}

	m.mu.RLock()
	programs := m.schedules[r.PathValue("channelID")]
	m.mu.RUnlock()

	for _, p := range programs {
		if p.Covers(at) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(p)
			return
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorPayload{HTTPCode: status, Message: code})
}
