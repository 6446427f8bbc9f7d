package audit

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nexuscore/agentruntime/internal/store"
)

const (
	defaultMaxEventsPerSession = 10000
	defaultRetention           = 7 * 24 * time.Hour
	defaultCacheSessions       = 50
)

// ServiceConfig configures the Audit Pipeline.
type ServiceConfig struct {
	// MaxEventsPerSession bounds the per-session event list; oldest events
	// are dropped once the bound is exceeded.
	MaxEventsPerSession int
	// Retention is how long a session's audit file survives an untouched
	// mtime before CleanupOldLogs removes it.
	Retention time.Duration
	// CacheSessions bounds the in-memory LRU of per-session event lists.
	CacheSessions int
}

func (c ServiceConfig) withDefaults() ServiceConfig {
	if c.MaxEventsPerSession <= 0 {
		c.MaxEventsPerSession = defaultMaxEventsPerSession
	}
	if c.Retention <= 0 {
		c.Retention = defaultRetention
	}
	if c.CacheSessions <= 0 {
		c.CacheSessions = defaultCacheSessions
	}
	return c
}

type statsState struct {
	TotalEvents       int64   `json:"total_events"`
	BlockedCount      int64   `json:"blocked_count"`
	AvgToolDurationMS float64 `json:"avg_tool_duration_ms"`
	ToolDurationCount int64   `json:"tool_duration_count"`
	AvgScanDurationMS float64 `json:"avg_scan_duration_ms"`
	ScanDurationCount int64   `json:"scan_duration_count"`
}

// Service is the Audit Pipeline: it receives hook callbacks from the LLM
// provider, enforces pre-execution blocking policy, persists events, and
// maintains running statistics. All in-memory cache mutation happens under
// mu; disk writes use the Atomic Store's tmp+rename primitive so a log-heavy
// session never exposes a torn file.
type Service struct {
	mu sync.Mutex

	dir    string // <data dir>/audit/sessions
	config ServiceConfig

	cache      *sessionCache
	stats      statsState
	statsDirty bool

	logger *Logger // ambient structured sink; nil is valid (no-op)
}

// NewService creates an Audit Pipeline rooted under dataDir/audit. logger
// may be nil.
func NewService(dataDir string, config ServiceConfig, logger *Logger) (*Service, error) {
	config = config.withDefaults()
	dir := filepath.Join(dataDir, "audit", "sessions")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("audit: mkdir %s: %w", dir, err)
	}

	s := &Service{
		dir:    dir,
		config: config,
		cache:  newSessionCache(config.CacheSessions),
		logger: logger,
	}

	statsPath := s.statsPath()
	var persisted statsState
	ok, err := store.ReadJSON(statsPath, &persisted)
	if err != nil {
		return nil, err
	}
	if ok {
		s.stats = persisted
	}
	return s, nil
}

func (s *Service) sessionPath(sessionID string) string {
	return filepath.Join(s.dir, sessionID+".json")
}

func (s *Service) statsPath() string {
	return filepath.Join(filepath.Dir(s.dir), "stats.json")
}

// loadLocked returns a session's event list, consulting the cache first and
// falling back to disk on a miss. Caller must hold mu.
func (s *Service) loadLocked(sessionID string) ([]*AuditEvent, error) {
	if events, ok := s.cache.get(sessionID); ok {
		return events, nil
	}
	var events []*AuditEvent
	_, err := store.ReadJSON(s.sessionPath(sessionID), &events)
	if err != nil {
		return nil, err
	}
	s.cache.put(sessionID, events)
	return events, nil
}

// LogEvent appends event to its session's log, prunes to the configured
// per-session maximum, updates running stats, and persists the result.
// Disk failures are logged and swallowed: the hook pipeline must never
// propagate an I/O error back to the caller mid-conversation.
func (s *Service) LogEvent(ctx context.Context, event *AuditEvent) {
	if event == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	s.mu.Lock()
	events, err := s.loadLocked(event.SessionID)
	if err != nil {
		s.mu.Unlock()
		s.logFailure(ctx, "audit: load session log", err)
		return
	}

	events = append(events, event)
	if len(events) > s.config.MaxEventsPerSession {
		events = events[len(events)-s.config.MaxEventsPerSession:]
	}
	s.cache.put(event.SessionID, events)
	s.applyStatsLocked(event)
	s.statsDirty = true
	s.mu.Unlock()

	if err := store.WriteJSONAtomic(s.sessionPath(event.SessionID), events, 0o640); err != nil {
		s.logFailure(ctx, "audit: persist session log", err)
	}
}

// LogResolutionEvent is a thin wrapper for entity-resolution events with
// flattened arguments, avoiding AuditEvent construction at every call site.
func (s *Service) LogResolutionEvent(ctx context.Context, eventType PipelineEventType, sessionID, projectID string, extra map[string]any) {
	s.LogEvent(ctx, &AuditEvent{
		EventType: eventType,
		SessionID: sessionID,
		ProjectID: projectID,
		Extra:     extra,
	})
}

// applyStatsLocked folds one event into the running aggregates. Caller must
// hold mu.
func (s *Service) applyStatsLocked(event *AuditEvent) {
	s.stats.TotalEvents++
	if event.Blocked {
		s.stats.BlockedCount++
	}
	if event.DurationMS != nil {
		switch event.EventType {
		case EventResolutionScanComplete:
			s.stats.ScanDurationCount++
			s.stats.AvgScanDurationMS += (float64(*event.DurationMS) - s.stats.AvgScanDurationMS) / float64(s.stats.ScanDurationCount)
		default:
			s.stats.ToolDurationCount++
			s.stats.AvgToolDurationMS += (float64(*event.DurationMS) - s.stats.AvgToolDurationMS) / float64(s.stats.ToolDurationCount)
		}
	}
}

// GetSessionAuditLog returns a newest-first page of a session's events,
// optionally filtered by event type.
func (s *Service) GetSessionAuditLog(sessionID string, limit, offset int, eventType *PipelineEventType) (*AuditLogResponse, error) {
	s.mu.Lock()
	events, err := s.loadLocked(sessionID)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	newestFirst := make([]*AuditEvent, len(events))
	for i, e := range events {
		newestFirst[len(events)-1-i] = e
	}

	if eventType != nil {
		filtered := newestFirst[:0:0]
		for _, e := range newestFirst {
			if e.EventType == *eventType {
				filtered = append(filtered, e)
			}
		}
		newestFirst = filtered
	}

	total := len(newestFirst)
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total
	}
	end := offset + limit
	if limit <= 0 || end > total {
		end = total
	}

	return &AuditLogResponse{
		Entries:    newestFirst[offset:end],
		TotalCount: total,
		HasMore:    end < total,
	}, nil
}

// GetStats flushes the dirty running aggregates to disk and returns a
// snapshot.
func (s *Service) GetStats() (*AuditStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.statsDirty {
		if err := store.WriteJSONAtomic(s.statsPath(), s.stats, 0o640); err != nil {
			return nil, err
		}
		s.statsDirty = false
	}

	return &AuditStats{
		TotalEvents:       s.stats.TotalEvents,
		BlockedCount:      s.stats.BlockedCount,
		AvgToolDurationMS: s.stats.AvgToolDurationMS,
		AvgScanDurationMS: s.stats.AvgScanDurationMS,
	}, nil
}

// ListSessionsWithAudits returns up to limit sessions with an audit log,
// sorted by file modification time descending. limit <= 0 means unlimited.
func (s *Service) ListSessionsWithAudits(limit int) ([]*SessionAuditSummary, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []*SessionAuditSummary
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		sessionID := trimJSONSuffix(e.Name())
		var events []*AuditEvent
		if _, err := store.ReadJSON(filepath.Join(s.dir, e.Name()), &events); err != nil {
			continue
		}
		out = append(out, &SessionAuditSummary{
			SessionID:    sessionID,
			EventCount:   len(events),
			LastModified: info.ModTime(),
		})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].LastModified.After(out[j].LastModified) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// CleanupOldLogs deletes per-session audit files whose mtime is older than
// the configured retention window and evicts their cache entries. Returns
// the number of files removed.
func (s *Service) CleanupOldLogs() (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}

	cutoff := time.Now().Add(-s.config.Retention)
	removed := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if err := os.Remove(path); err != nil {
			continue
		}
		removed++

		s.mu.Lock()
		s.cache.evict(trimJSONSuffix(e.Name()))
		s.mu.Unlock()
	}
	return removed, nil
}

func trimJSONSuffix(name string) string {
	const suffix = ".json"
	if len(name) > len(suffix) && name[len(name)-len(suffix):] == suffix {
		return name[:len(name)-len(suffix)]
	}
	return name
}

// logFailure records a pipeline I/O failure through the ambient logger
// without propagating it to the caller.
func (s *Service) logFailure(ctx context.Context, action string, err error) {
	if s.logger == nil {
		return
	}
	s.logger.LogError(ctx, EventAgentError, action, err.Error(), nil, "")
}
