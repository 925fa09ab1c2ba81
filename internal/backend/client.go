// SPDX-License-Identifier: MIT

// Package backend is the client for the entitlement and schedule API. It
// resolves playback grants for assets, channels and programs, looks up the
// program covering a timestamp, and validates entitlement at a timestamp.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/zelora/playcore/internal/entitlement"
	"github.com/zelora/playcore/internal/log"
)

// DRMUnencrypted is the request override used by the one-shot workaround for
// channels and programs the backend reports as having no media. It must be
// sent at most once per resolution attempt.
const DRMUnencrypted = "UNENCRYPTED"

// PlayRequest carries the credentials and options for one entitlement call.
type PlayRequest struct {
	SessionToken string
	AccountID    string
	DRM          string // optional override, e.g. DRMUnencrypted
}

// EntitlementProvider is the resolution contract consumed by the playable
// layer. One method per resolution path; test doubles implement it directly.
type EntitlementProvider interface {
	EntitleAsset(ctx context.Context, assetID string, req PlayRequest) (*entitlement.Entitlement, *http.Response, error)
	EntitleChannel(ctx context.Context, channelID string, req PlayRequest) (*entitlement.Entitlement, *http.Response, error)
	EntitleProgram(ctx context.Context, programID, channelID string, req PlayRequest) (*entitlement.Entitlement, *http.Response, error)
}

// Program is one schedule entry returned by the EPG lookup.
type Program struct {
	ProgramID string `json:"programId"`
	ChannelID string `json:"channelId"`
	AssetID   string `json:"assetId"`
	StartMS   int64  `json:"start"`
	EndMS     int64  `json:"end"`
}

// Covers reports whether the program's schedule window contains t.
func (p Program) Covers(t int64) bool {
	return t >= p.StartMS && t < p.EndMS
}

type Client struct {
	base   string
	http   *http.Client
	logger zerolog.Logger
}

// New creates a backend client against the given base URL.
func New(base string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: log.WithComponent("backend"),
	}
}

type entitlementPayload struct {
	MediaLocator        string `json:"mediaLocator"`
	PlaySessionID       string `json:"playSessionId"`
	Live                bool   `json:"live"`
	FFEnabled           bool   `json:"ffEnabled"`
	RWEnabled           bool   `json:"rwEnabled"`
	TimeshiftEnabled    bool   `json:"timeshiftEnabled"`
	LastViewedOffset    *int64 `json:"lastViewedOffset"`
	LastViewedTime      *int64 `json:"lastViewedTime"`
	LiveDelay           *int64 `json:"liveDelay"`
	PlayTokenExpiration string `json:"playTokenExpiration"`
}

type errorPayload struct {
	HTTPCode int    `json:"httpCode"`
	Message  string `json:"message"`
}

// EntitleAsset resolves a grant for on-demand content.
func (c *Client) EntitleAsset(ctx context.Context, assetID string, req PlayRequest) (*entitlement.Entitlement, *http.Response, error) {
	return c.entitle(ctx, "entitle asset", "/v1/entitlement/asset/"+url.PathEscape(assetID)+"/play", req)
}

// EntitleChannel resolves a grant for always-live channel content.
func (c *Client) EntitleChannel(ctx context.Context, channelID string, req PlayRequest) (*entitlement.Entitlement, *http.Response, error) {
	return c.entitle(ctx, "entitle channel", "/v1/entitlement/channel/"+url.PathEscape(channelID)+"/play", req)
}

// EntitleProgram resolves a grant for one scheduled program within a channel.
func (c *Client) EntitleProgram(ctx context.Context, programID, channelID string, req PlayRequest) (*entitlement.Entitlement, *http.Response, error) {
	path := "/v1/entitlement/channel/" + url.PathEscape(channelID) + "/program/" + url.PathEscape(programID) + "/play"
	return c.entitle(ctx, "entitle program", path, req)
}

func (c *Client) entitle(ctx context.Context, op, path string, req PlayRequest) (*entitlement.Entitlement, *http.Response, error) {
	u := c.base + path
	if req.DRM != "" {
		u += "?drm=" + url.QueryEscape(req.DRM)
	}

	res, body, err := c.get(ctx, op, u, req)
	if err != nil {
		return nil, res, err
	}

	var p entitlementPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, res, &APIError{Sentinel: ErrUpstreamBadResponse, Operation: op, Status: res.StatusCode, Response: res, Err: err}
	}
	if p.MediaLocator == "" {
		return nil, res, &APIError{Sentinel: ErrUpstreamBadResponse, Operation: op, Status: res.StatusCode, Response: res, Message: "missing mediaLocator"}
	}

	ent := &entitlement.Entitlement{
		MediaLocator:     p.MediaLocator,
		PlaySessionID:    p.PlaySessionID,
		Live:             p.Live,
		FFEnabled:        p.FFEnabled,
		RWEnabled:        p.RWEnabled,
		TimeshiftEnabled: p.TimeshiftEnabled,
		LastViewedOffset: p.LastViewedOffset,
		LastViewedTime:   p.LastViewedTime,
		LiveDelay:        p.LiveDelay,
	}
	if ent.PlaySessionID == "" {
		ent.PlaySessionID = uuid.New().String()
	}
	if p.PlayTokenExpiration != "" {
		if exp, err := time.Parse(time.RFC3339, p.PlayTokenExpiration); err == nil {
			ent.PlayTokenExpiration = exp
		}
	}

	c.logger.Debug().
		Str(log.FieldOperation, op).
		Str(log.FieldSessionID, ent.PlaySessionID).
		Bool("live", ent.Live).
		Msg("entitlement resolved")
	return ent, res, nil
}

// ProgramAt looks up the program covering the given wallclock millisecond on
// a channel. A gap in the schedule is (nil, nil), not an error.
func (c *Client) ProgramAt(ctx context.Context, channelID string, atMS int64) (*Program, error) {
	const op = "program lookup"
	u := c.base + "/v1/epg/" + url.PathEscape(channelID) + "/program?time=" + strconv.FormatInt(atMS, 10)

	res, body, err := c.get(ctx, op, u, PlayRequest{})
	if err != nil {
		return nil, err
	}
	if res.StatusCode == http.StatusNoContent || len(body) == 0 {
		return nil, nil
	}

	var p Program
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, &APIError{Sentinel: ErrUpstreamBadResponse, Operation: op, Status: res.StatusCode, Response: res, Err: err}
	}
	if p.ChannelID == "" {
		p.ChannelID = channelID
	}
	return &p, nil
}

// ValidateAt confirms entitlement to play the channel at the given wallclock
// millisecond. nil means entitled; a not-entitled outcome is an *APIError
// wrapping ErrNotEntitled with the backend status and message unchanged.
func (c *Client) ValidateAt(ctx context.Context, channelID string, atMS int64) error {
	const op = "validate entitlement"
	u := c.base + "/v1/entitlement/channel/" + url.PathEscape(channelID) + "/validate?time=" + strconv.FormatInt(atMS, 10)

	_, _, err := c.get(ctx, op, u, PlayRequest{})
	return err
}

// get performs one request and maps non-2xx statuses onto the error
// taxonomy. The returned response has its body drained and closed; it is
// retained for downstream header inspection only.
func (c *Client) get(ctx context.Context, op, rawURL string, req PlayRequest) (*http.Response, []byte, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, nil, &APIError{Sentinel: ErrUpstreamBadResponse, Operation: op, Err: err}
	}
	requestID := log.RequestIDFromContext(ctx)
	if requestID == "" {
		requestID = uuid.New().String()
	}
	httpReq.Header.Set("X-Request-Id", requestID)
	if req.SessionToken != "" {
		httpReq.Header.Set("Authorization", "Bearer "+req.SessionToken)
	}
	if req.AccountID != "" {
		httpReq.Header.Set("X-Account-Id", req.AccountID)
	}

	res, err := c.http.Do(httpReq)
	if err != nil {
		sentinel := ErrUpstreamUnavailable
		if errors.Is(err, context.DeadlineExceeded) {
			sentinel = ErrTimeout
		}
		return nil, nil, &APIError{Sentinel: sentinel, Operation: op, Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return res, nil, &APIError{Sentinel: ErrUpstreamBadResponse, Operation: op, Status: res.StatusCode, Response: res, Err: err}
	}

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return res, body, nil
	}

	apiErr := &APIError{Operation: op, Status: res.StatusCode, Response: res}
	var ep errorPayload
	if json.Unmarshal(body, &ep) == nil && ep.Message != "" {
		apiErr.Code = ep.Message
		apiErr.Message = ep.Message
	}
	switch {
	case res.StatusCode == http.StatusForbidden || res.StatusCode == http.StatusUnauthorized:
		apiErr.Sentinel = ErrNotEntitled
	case res.StatusCode == http.StatusNotFound:
		apiErr.Sentinel = ErrNotFound
	case res.StatusCode >= 500:
		apiErr.Sentinel = ErrUpstreamError
	default:
		apiErr.Sentinel = ErrUpstreamBadResponse
	}

	c.logger.Warn().
		Str(log.FieldOperation, op).
		Int(log.FieldStatus, res.StatusCode).
		Str(log.FieldCode, apiErr.Code).
		Str(log.FieldRequestID, requestID).
		Msg("backend request failed")
	return res, body, apiErr
}

var _ EntitlementProvider = (*Client)(nil)

// String implements fmt.Stringer for diagnostics.
func (c *Client) String() string {
	return fmt.Sprintf("backend.Client(%s)", c.base)
}
