package config

import "time"

// CoreConfig configures the session orchestrator, job queue, audit
// pipeline, and atomic store underlying the core agent runtime.
type CoreConfig struct {
	// ClaudeModel is the default model passed to new session actors when a
	// session doesn't specify one of its own.
	ClaudeModel string `yaml:"claude_model"`

	// ResponseTimeout bounds how long process_message waits for a reply
	// before surfacing a timeout to the caller. The actor's worker keeps
	// running past this deadline.
	ResponseTimeout time.Duration `yaml:"response_timeout"`

	// GreetingTimeout bounds how long get_greeting waits before falling
	// back to a canned reply.
	GreetingTimeout time.Duration `yaml:"greeting_timeout"`

	// SessionTTL is how long a session actor may sit idle before the
	// cleanup loop stops it and evicts it from the registry.
	SessionTTL time.Duration `yaml:"session_ttl"`

	// CleanupInterval is how often the cleanup loop scans for expired
	// session actors.
	CleanupInterval time.Duration `yaml:"cleanup_interval"`

	// GracefulShutdownTimeout bounds how long stopping an actor waits for
	// its worker to exit; the worker is not force-cancelled afterwards.
	GracefulShutdownTimeout time.Duration `yaml:"graceful_shutdown_timeout"`

	// QueueMaxSize bounds each session actor's pending-turn queue.
	QueueMaxSize int `yaml:"queue_max_size"`

	// DataDir roots the Atomic Store's on-disk tree (sessions, transcripts,
	// audit logs, exports, jobs).
	DataDir string `yaml:"data_dir"`

	Jobs  CoreJobsConfig  `yaml:"jobs"`
	Audit CoreAuditConfig `yaml:"audit"`
}

// CoreJobsConfig configures the background job queue.
type CoreJobsConfig struct {
	// MaxConcurrent bounds how many jobs run at once across the worker pool.
	MaxConcurrent int `yaml:"max_concurrent"`

	// PollInterval is parsed and defaulted but not read by the job queue:
	// its workers block on a channel of job ids and do not poll.
	PollInterval time.Duration `yaml:"poll_interval"`

	// DefaultMaxRetries is parsed and defaulted but not read by the job
	// queue, which does not retry a failed job.
	DefaultMaxRetries int `yaml:"default_max_retries"`

	// RetryBackoff is parsed and defaulted but not read by the job queue,
	// which does not retry a failed job.
	RetryBackoff time.Duration `yaml:"retry_backoff"`

	// RetryBackoffMax is parsed and defaulted but not read by the job
	// queue, which does not retry a failed job.
	RetryBackoffMax time.Duration `yaml:"retry_backoff_max"`
}

// CoreAuditConfig configures the audit event pipeline.
type CoreAuditConfig struct {
	// RetentionHours is the age after which audit.Service.CleanupOldLogs
	// removes a session's audit file. The runtime does not call
	// CleanupOldLogs on a schedule.
	RetentionHours int `yaml:"retention_hours"`

	// MaxEventsPerSession caps the in-memory per-session event cache;
	// oldest events are evicted first.
	MaxEventsPerSession int `yaml:"max_events_per_session"`

	// CacheMaxSessions bounds how many sessions' event caches are held in
	// memory at once (LRU eviction).
	CacheMaxSessions int `yaml:"cache_max_sessions"`

	// EntityResolutionEnabled is parsed and overridable from the
	// environment; no component in this module reads it, and no entity
	// extraction runs over audit payloads.
	EntityResolutionEnabled bool `yaml:"entity_resolution_enabled"`

	// ExportTTLHours is parsed and defaulted; no component in this module
	// reads it, and no export artifacts are generated or pruned.
	ExportTTLHours int `yaml:"export_ttl_hours"`

	// BatchExportMaxProjects is parsed and defaulted; no component in this
	// module reads it, and no batch export exists to cap.
	BatchExportMaxProjects int `yaml:"batch_export_max_projects"`
}

func applyCoreDefaults(cfg *CoreConfig) {
	if cfg.ClaudeModel == "" {
		cfg.ClaudeModel = "claude-sonnet-4-20250514"
	}
	if cfg.ResponseTimeout == 0 {
		cfg.ResponseTimeout = 300 * time.Second
	}
	if cfg.GreetingTimeout == 0 {
		cfg.GreetingTimeout = 30 * time.Second
	}
	if cfg.SessionTTL == 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.CleanupInterval == 0 {
		cfg.CleanupInterval = 5 * time.Minute
	}
	if cfg.GracefulShutdownTimeout == 0 {
		cfg.GracefulShutdownTimeout = 5 * time.Second
	}
	if cfg.QueueMaxSize == 0 {
		cfg.QueueMaxSize = 10
	}
	if cfg.DataDir == "" {
		cfg.DataDir = "./data"
	}
	if cfg.Jobs.MaxConcurrent == 0 {
		cfg.Jobs.MaxConcurrent = 5
	}
	if cfg.Jobs.PollInterval == 0 {
		cfg.Jobs.PollInterval = 1 * time.Second
	}
	if cfg.Jobs.DefaultMaxRetries == 0 {
		cfg.Jobs.DefaultMaxRetries = 3
	}
	if cfg.Jobs.RetryBackoff == 0 {
		cfg.Jobs.RetryBackoff = 5 * time.Second
	}
	if cfg.Jobs.RetryBackoffMax == 0 {
		cfg.Jobs.RetryBackoffMax = 5 * time.Minute
	}
	if cfg.Audit.RetentionHours == 0 {
		cfg.Audit.RetentionHours = 24 * 30
	}
	if cfg.Audit.MaxEventsPerSession == 0 {
		cfg.Audit.MaxEventsPerSession = 1000
	}
	if cfg.Audit.CacheMaxSessions == 0 {
		cfg.Audit.CacheMaxSessions = 256
	}
	if cfg.Audit.ExportTTLHours == 0 {
		cfg.Audit.ExportTTLHours = 24
	}
	if cfg.Audit.BatchExportMaxProjects == 0 {
		cfg.Audit.BatchExportMaxProjects = 50
	}
}

func applyCoreEnvOverrides(cfg *CoreConfig) {
	if cfg == nil {
		return
	}
	overrideString(&cfg.ClaudeModel, "APP_CLAUDE_MODEL")
	overrideDuration(&cfg.ResponseTimeout, "APP_RESPONSE_TIMEOUT")
	overrideDuration(&cfg.GreetingTimeout, "APP_GREETING_TIMEOUT")
	overrideDuration(&cfg.SessionTTL, "APP_SESSION_TTL")
	overrideDuration(&cfg.CleanupInterval, "APP_CLEANUP_INTERVAL")
	overrideDuration(&cfg.GracefulShutdownTimeout, "APP_GRACEFUL_SHUTDOWN_TIMEOUT")
	overrideInt(&cfg.QueueMaxSize, "APP_QUEUE_MAX_SIZE")
	overrideString(&cfg.DataDir, "APP_DATA_DIR")
	overrideInt(&cfg.Jobs.MaxConcurrent, "APP_JOB_MAX_CONCURRENT")
	overrideInt(&cfg.Audit.RetentionHours, "APP_AUDIT_RETENTION_HOURS")
	overrideInt(&cfg.Audit.MaxEventsPerSession, "APP_AUDIT_MAX_EVENTS_PER_SESSION")
	overrideInt(&cfg.Audit.CacheMaxSessions, "APP_AUDIT_CACHE_MAX_SESSIONS")
	overrideBool(&cfg.Audit.EntityResolutionEnabled, "APP_ENTITY_RESOLUTION_ENABLED")
	overrideInt(&cfg.Audit.ExportTTLHours, "APP_EXPORT_TTL_HOURS")
	overrideInt(&cfg.Audit.BatchExportMaxProjects, "APP_BATCH_EXPORT_MAX_PROJECTS")
}
