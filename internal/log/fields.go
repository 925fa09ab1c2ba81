// SPDX-License-Identifier: MIT

package log

// Canonical field name constants for structured logging.
const (
	// Identity fields
	FieldSessionID = "session_id"
	FieldRequestID = "request_id"
	FieldAssetID   = "asset_id"
	FieldChannelID = "channel_id"
	FieldProgramID = "program_id"

	// Session / policy fields
	FieldGeneration = "generation"
	FieldPolicy     = "policy"
	FieldDecision   = "decision"
	FieldWarning    = "warning"
	FieldOffsetTag  = "offset_tag"
	FieldOffsetMS   = "offset_ms"
	FieldTargetMS   = "target_ms"

	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"
	FieldOperation = "operation"

	// Network fields
	FieldBaseURL = "base_url"
	FieldStatus  = "status"
	FieldCode    = "code"
)
