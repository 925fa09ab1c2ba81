// SPDX-License-Identifier: MIT

package config

import "time"

// Environment variable keys.
const (
	EnvBackendURL       = "PLAYCORE_BACKEND_URL"
	EnvRequestTimeout   = "PLAYCORE_REQUEST_TIMEOUT"
	EnvTimeBehindLiveMS = "PLAYCORE_TIME_BEHIND_LIVE_MS"
)

// Defaults.
const (
	DefaultRequestTimeout = 30 * time.Second

	// DefaultTimeBehindLiveMS is how far past the last seekable point a seek
	// target may lie and still count as a go-live rather than an
	// out-of-range escalation.
	DefaultTimeBehindLiveMS = int64(4000)
)

// Config is the snapshot of settings the playback core reads at startup.
type Config struct {
	// BackendBaseURL is the entitlement/schedule API endpoint.
	BackendBaseURL string

	// RequestTimeout bounds every backend call.
	RequestTimeout time.Duration

	// TimeBehindLiveMS extends the upper seekable boundary for the
	// within-range classification, in milliseconds.
	TimeBehindLiveMS int64
}

// FromEnv builds a Config from PLAYCORE_* environment variables, applying
// defaults for anything unset.
func FromEnv() Config {
	return Config{
		BackendBaseURL:   ParseString(EnvBackendURL, ""),
		RequestTimeout:   ParseDuration(EnvRequestTimeout, DefaultRequestTimeout),
		TimeBehindLiveMS: ParseInt64(EnvTimeBehindLiveMS, DefaultTimeBehindLiveMS),
	}
}
