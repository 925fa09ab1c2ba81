// SPDX-License-Identifier: MIT

package entitlement

// Restrictions is the contract policy governing position changes for one
// source. Computed once from an entitlement at source construction and
// immutable afterwards; every method is a pure function of its arguments.
type Restrictions struct {
	TimeshiftEnabled bool
	FFEnabled        bool
	RWEnabled        bool
}

// RestrictionsFrom derives the contract policy from an entitlement.
func RestrictionsFrom(e Entitlement) Restrictions {
	return Restrictions{
		TimeshiftEnabled: e.TimeshiftEnabled,
		FFEnabled:        e.FFEnabled,
		RWEnabled:        e.RWEnabled,
	}
}

// CanSeek reports whether a seek from one position to another is allowed.
// Seeking to the current position is always allowed; moving backward needs
// rewind, moving forward needs fast-forward.
func (r Restrictions) CanSeek(from, to int64) bool {
	switch {
	case to == from:
		return true
	case to < from:
		return r.RWEnabled
	default:
		return r.FFEnabled
	}
}

// WillSeek returns the position a permitted seek will actually land on. The
// default policy passes the destination through unchanged; deployments that
// clamp targets override this point rather than the call sites.
func (r Restrictions) WillSeek(from, to int64) int64 {
	_ = from
	return to
}

// CanPause reports whether pausing at the given position is allowed.
func (r Restrictions) CanPause(at int64) bool {
	_ = at
	return r.TimeshiftEnabled
}
