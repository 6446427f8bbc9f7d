// Package store implements the crash-safe JSON persistence substrate shared
// by the session actor, job queue, and audit pipeline: session transcripts,
// per-session cost, global cost, transcript metadata, and job records.
package store

import "time"

// Role identifies the author of a conversation message.
type Role string

const (
	RoleUser  Role = "user"
	RoleAgent Role = "agent"
)

// Message is one append-only entry in a session's transcript.
type Message struct {
	ID        string    `json:"id"`
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is a conversation with the LLM, identified by a UUIDv4.
type Session struct {
	ID        string     `json:"session_id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	Messages  []*Message `json:"messages"`
}

// SessionSummary is the list-view projection of a Session (no message bodies).
type SessionSummary struct {
	ID           string    `json:"session_id"`
	Title        string    `json:"title"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	MessageCount int       `json:"message_count"`
}

// SessionCost is the per-session cumulative usage aggregate.
//
// add_usage is idempotent keyed by message id: ProcessedMessageIDs is the
// dedup set guarding against upstream re-delivery of the same message.
type SessionCost struct {
	SessionID           string          `json:"session_id"`
	InputTokens         int64           `json:"input_tokens"`
	OutputTokens        int64           `json:"output_tokens"`
	CacheCreationTokens int64           `json:"cache_creation_tokens"`
	CacheReadTokens     int64           `json:"cache_read_tokens"`
	ReportedCostUSD     float64         `json:"reported_cost_usd"`
	ProcessedMessageIDs map[string]bool `json:"processed_message_ids"`
}

// NewSessionCost returns a zeroed SessionCost ready for AddUsage.
func NewSessionCost(sessionID string) *SessionCost {
	return &SessionCost{
		SessionID:           sessionID,
		ProcessedMessageIDs: make(map[string]bool),
	}
}

// MessageUsage is the per-message token accounting reported by the upstream
// provider alongside a message id used for dedup.
type MessageUsage struct {
	MessageID           string
	InputTokens         int64
	OutputTokens        int64
	CacheCreationTokens int64
	CacheReadTokens     int64
}

// AddUsage folds a message's usage into the cumulative totals. It is a no-op
// if MessageID has already been processed (upstream stream-restart replay).
func (c *SessionCost) AddUsage(u MessageUsage) {
	if c.ProcessedMessageIDs == nil {
		c.ProcessedMessageIDs = make(map[string]bool)
	}
	if u.MessageID != "" && c.ProcessedMessageIDs[u.MessageID] {
		return
	}
	c.InputTokens += u.InputTokens
	c.OutputTokens += u.OutputTokens
	c.CacheCreationTokens += u.CacheCreationTokens
	c.CacheReadTokens += u.CacheReadTokens
	if u.MessageID != "" {
		c.ProcessedMessageIDs[u.MessageID] = true
	}
}

// SetReportedCost overwrites the authoritative upstream cumulative cost.
// Overwrite semantics, not sum: the upstream value is already cumulative.
func (c *SessionCost) SetReportedCost(usd float64) {
	c.ReportedCostUSD = usd
}

// GlobalCost is the process-wide aggregate over all sessions.
type GlobalCost struct {
	InputTokens         int64   `json:"input_tokens"`
	OutputTokens        int64   `json:"output_tokens"`
	CacheCreationTokens int64   `json:"cache_creation_tokens"`
	CacheReadTokens     int64   `json:"cache_read_tokens"`
	TotalCostUSD        float64 `json:"total_cost_usd"`
	SessionCount        int64   `json:"session_count"`
}

// GlobalCostDelta is the per-field increment applied by UpdateGlobalCost.
// Two sequential updates with deltas x then y must equal one update with
// their field-wise sum, since both pass through the same locked
// read-modify-write cycle.
type GlobalCostDelta struct {
	InputTokens         int64
	OutputTokens        int64
	CacheCreationTokens int64
	CacheReadTokens     int64
	CostUSD             float64
	NewSession          bool
}

// SourceType identifies where a transcript's raw text originated.
type SourceType string

const (
	SourceYouTube SourceType = "youtube"
	SourceUpload  SourceType = "upload"
	SourceLocal   SourceType = "local"
)

// TranscriptMeta describes a stored transcript body and its backing file.
type TranscriptMeta struct {
	ID             string        `json:"id"`
	Filename       string        `json:"filename"`
	FilePath       string        `json:"file_path"`
	OriginalSource string        `json:"original_source"`
	SourceType     SourceType    `json:"source_type"`
	CreatedAt      time.Time     `json:"created_at"`
	FileSize       int64         `json:"file_size"`
	SessionID      string        `json:"session_id,omitempty"`
	Title          string        `json:"title,omitempty"`
	Format         string        `json:"format,omitempty"`
	Duration       time.Duration `json:"duration,omitempty"`
}

// metadataFile is the on-disk shape of metadata.json.
type metadataFile struct {
	Transcripts map[string]*TranscriptMeta `json:"transcripts"`
	GlobalCost  GlobalCost                 `json:"global_cost"`
}
