// Package llmconv wraps the upstream LLM provider behind a small streaming
// conversation interface. The provider's wire protocol and prompt content
// are external collaborators; this package only adapts their streamed
// output into the shape the Session Actor's worker loop consumes.
package llmconv

import (
	"context"
	"encoding/json"
)

// Usage is the per-message token accounting an upstream streamed message
// may report.
type Usage struct {
	InputTokens         int64
	OutputTokens        int64
	CacheCreationTokens int64
	CacheReadTokens     int64
}

// ResultSubtype classifies how a conversation turn concluded.
type ResultSubtype string

const (
	SubtypeSuccess              ResultSubtype = "success"
	SubtypeErrorMaxTurns        ResultSubtype = "error_max_turns"
	SubtypeErrorDuringExecution ResultSubtype = "error_during_execution"
	SubtypeInterrupted          ResultSubtype = "interrupted"
)

// Result is the terminal, authoritative summary of one query, carried on
// the last streamed Message.
type Result struct {
	Subtype      ResultSubtype
	IsError      bool
	TotalCostUSD float64
}

// Message is one streamed unit of a conversation turn. Result is non-nil
// only on the final message of the stream.
type Message struct {
	ID               string
	Text             string
	StructuredOutput json.RawMessage
	Usage            *Usage
	Result           *Result
}

// ToolHandler answers a single tool invocation requested mid-turn.
type ToolHandler func(ctx context.Context, toolName string, input json.RawMessage) (json.RawMessage, error)

// PreToolUseFunc and PostToolUseFunc are narrower counterparts of
// internal/audit's hook signatures, declared here without importing that
// package to keep llmconv provider-agnostic; this PreToolUseFunc carries no
// command or write path. The Session Actor wires the two together.
type PreToolUseFunc func(ctx context.Context, toolName, toolCallID string, input json.RawMessage) error
type PostToolUseFunc func(ctx context.Context, toolName, toolCallID string, response json.RawMessage, success *bool, errMsg string)

// ConversationHooks bundles the audit callbacks a conversation invokes
// around every tool call.
type ConversationHooks struct {
	PreToolUse  PreToolUseFunc
	PostToolUse PostToolUseFunc
}

// ConversationOptions configures a new conversation.
type ConversationOptions struct {
	SystemPrompt string
	Model        string
	Tools        map[string]ToolHandler
	Hooks        ConversationHooks
}

// Conversation is a stateful, single-writer LLM conversation. Exactly one
// goroutine (the owning Session Actor's worker) may call Query at a time.
type Conversation interface {
	// Query sends one user turn and streams the assistant's response.
	// The returned channel is closed when the turn completes; the final
	// Message carries a non-nil Result.
	Query(ctx context.Context, text string) (<-chan Message, error)
	Close() error
}

// Client creates conversations against the upstream provider.
type Client interface {
	NewConversation(ctx context.Context, opts ConversationOptions) (Conversation, error)
}
