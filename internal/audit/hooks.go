package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// PreToolUseFunc is called before a tool executes. A non-nil returned error
// means the operation is denied; the caller must not run the tool.
type PreToolUseFunc func(ctx context.Context, toolName, toolCallID string, input json.RawMessage, command, writePath string) error

// PostToolUseFunc is called after a tool executes (or fails).
type PostToolUseFunc func(ctx context.Context, toolName, toolCallID string, response json.RawMessage, explicitSuccess *bool, explicitError string)

// StopFunc records a session stop.
type StopFunc func(ctx context.Context, reason string)

// SubagentStopFunc records a sub-agent stop.
type SubagentStopFunc func(ctx context.Context, subagentID, reason string)

// Hooks bundles the four callbacks bound to one session.
type Hooks struct {
	PreToolUse    PreToolUseFunc
	PostToolUse   PostToolUseFunc
	Stop          StopFunc
	SubagentStop  SubagentStopFunc
}

// ErrToolBlocked is returned by PreToolUse when policy denies the call.
type ErrToolBlocked struct {
	ToolName string
	Reason   string
	Pattern  string
}

func (e *ErrToolBlocked) Error() string {
	return "audit: tool " + e.ToolName + " blocked: " + e.Reason
}

// NewHooks builds the four hook callbacks for one session, bound to service.
// pendingStarts tracks pre-tool-use start times keyed by tool-use id so
// post-tool-use can compute a duration; it is private to this session's
// hook set, matching one SessionActor owning one set of hooks.
func NewHooks(sessionID string, service *Service) *Hooks {
	var mu sync.Mutex
	pendingStarts := make(map[string]time.Time)

	preToolUse := func(ctx context.Context, toolName, toolCallID string, input json.RawMessage, command, writePath string) error {
		mu.Lock()
		pendingStarts[toolCallID] = time.Now()
		mu.Unlock()

		decision := checkToolPolicy(toolName, command, writePath)
		if decision.blocked {
			service.LogEvent(ctx, &AuditEvent{
				EventType:   EventToolBlocked,
				SessionID:   sessionID,
				ToolName:    toolName,
				ToolCallID:  toolCallID,
				ToolInput:   input,
				Blocked:     true,
				BlockReason: decision.reason,
			})
			return &ErrToolBlocked{ToolName: toolName, Reason: decision.reason, Pattern: decision.pattern}
		}

		service.LogEvent(ctx, &AuditEvent{
			EventType:  EventPreToolUse,
			SessionID:  sessionID,
			ToolName:   toolName,
			ToolCallID: toolCallID,
			ToolInput:  input,
		})
		return nil
	}

	postToolUse := func(ctx context.Context, toolName, toolCallID string, response json.RawMessage, explicitSuccess *bool, explicitError string) {
		mu.Lock()
		start, ok := pendingStarts[toolCallID]
		delete(pendingStarts, toolCallID)
		mu.Unlock()

		var durationMS *int64
		if ok {
			d := time.Since(start).Milliseconds()
			durationMS = &d
		}

		success := classifySuccess(explicitSuccess, explicitError)
		sanitized := sanitizeResponse(response)

		service.LogEvent(ctx, &AuditEvent{
			EventType:    EventPostToolUse,
			SessionID:    sessionID,
			ToolName:     toolName,
			ToolCallID:   toolCallID,
			ToolResponse: sanitized,
			DurationMS:   durationMS,
			Success:      &success,
		})
	}

	stop := func(ctx context.Context, reason string) {
		service.LogEvent(ctx, &AuditEvent{
			EventType:  EventSessionStop,
			SessionID:  sessionID,
			StopReason: reason,
		})
	}

	subagentStop := func(ctx context.Context, subagentID, reason string) {
		service.LogEvent(ctx, &AuditEvent{
			EventType:  EventSubagentStop,
			SessionID:  sessionID,
			SubagentID: subagentID,
			StopReason: reason,
		})
	}

	return &Hooks{
		PreToolUse:   preToolUse,
		PostToolUse:  postToolUse,
		Stop:         stop,
		SubagentStop: subagentStop,
	}
}

// classifySuccess applies explicit success/error fields when present,
// defaulting to true (a tool call with no error signal is presumed to have
// succeeded).
func classifySuccess(explicitSuccess *bool, explicitError string) bool {
	if explicitSuccess != nil {
		return *explicitSuccess
	}
	return explicitError == ""
}
