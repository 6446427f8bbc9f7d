package audit

import (
	"encoding/json"
	"time"
)

// PipelineEventType categorizes an AuditEvent recorded by the hook-driven
// pipeline (distinct from the generic structured Logger's EventType).
type PipelineEventType string

const (
	EventPreToolUse  PipelineEventType = "pre_tool_use"
	EventPostToolUse PipelineEventType = "post_tool_use"
	EventToolBlocked PipelineEventType = "tool_blocked"

	EventSessionStop  PipelineEventType = "session_stop"
	EventSubagentStop PipelineEventType = "subagent_stop"

	EventResolutionScanStart    PipelineEventType = "resolution_scan_start"
	EventResolutionScanComplete PipelineEventType = "resolution_scan_complete"
	EventEntityMerge            PipelineEventType = "entity_merge"
	EventMergeRejected          PipelineEventType = "merge_rejected"
)

// AuditEvent is one entry in a session's append-only event log. Exactly one
// of the tool/session/resolution field groups is populated, selected by
// EventType.
type AuditEvent struct {
	EventType PipelineEventType `json:"event_type"`
	SessionID string            `json:"session_id"`
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`

	// Tool fields (pre_tool_use, post_tool_use, tool_blocked).
	ToolName     string          `json:"tool_name,omitempty"`
	ToolCallID   string          `json:"tool_call_id,omitempty"`
	ToolInput    json.RawMessage `json:"tool_input,omitempty"`
	ToolResponse json.RawMessage `json:"tool_response,omitempty"`
	Blocked      bool            `json:"blocked,omitempty"`
	BlockReason  string          `json:"block_reason,omitempty"`
	DurationMS   *int64          `json:"duration_ms,omitempty"`
	Success      *bool           `json:"success,omitempty"`

	// Session fields (session_stop, subagent_stop).
	SubagentID string `json:"subagent_id,omitempty"`
	StopReason string `json:"stop_reason,omitempty"`

	// Resolution fields (resolution_scan_start/complete, entity_merge, merge_rejected).
	ProjectID string         `json:"project_id,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// AuditLogResponse is a newest-first page over a session's event log.
type AuditLogResponse struct {
	Entries    []*AuditEvent `json:"entries"`
	TotalCount int           `json:"total_count"`
	HasMore    bool          `json:"has_more"`
}

// AuditStats is a point-in-time snapshot of the pipeline's running
// aggregates, returned by GetStats after flushing to disk.
type AuditStats struct {
	TotalEvents       int64   `json:"total_events"`
	BlockedCount      int64   `json:"blocked_count"`
	AvgToolDurationMS float64 `json:"avg_tool_duration_ms"`
	AvgScanDurationMS float64 `json:"avg_scan_duration_ms"`
}

// SessionAuditSummary is one row of ListSessionsWithAudits.
type SessionAuditSummary struct {
	SessionID    string    `json:"session_id"`
	EventCount   int       `json:"event_count"`
	LastModified time.Time `json:"last_modified"`
}
