// Package container assembles the core runtime: the Atomic Store, the
// Audit Pipeline, the Session Orchestrator's actor registry, and the Job
// Queue, wired in dependency-leaves-first order and torn down in reverse.
package container

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nexuscore/agentruntime/internal/actor"
	"github.com/nexuscore/agentruntime/internal/audit"
	"github.com/nexuscore/agentruntime/internal/config"
	"github.com/nexuscore/agentruntime/internal/jobqueue"
	"github.com/nexuscore/agentruntime/internal/llmconv"
	"github.com/nexuscore/agentruntime/internal/metrics"
	"github.com/nexuscore/agentruntime/internal/store"
	"github.com/prometheus/client_golang/prometheus"
)

// Container owns the lifecycle of every core component and the background
// goroutines (cleanup sweep, job workers) that run alongside them.
type Container struct {
	cfg    *config.Config
	logger *slog.Logger

	Store    *store.Store
	Audit    *audit.Service
	Registry *actor.Registry
	Jobs     *jobqueue.Queue
	Metrics  *metrics.Metrics

	auditLogger *audit.Logger

	stopCleanup chan struct{}
	cleanupDone chan struct{}
}

// New builds every core component against cfg's data directory, in the
// order each depends on the last: Store, then Audit (which persists
// through the Store's data dir), then the session actor Registry (which
// logs through Audit), then the Job Queue. It does not start any
// background goroutines; call Start for that.
func New(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}

	st, err := store.New(cfg.Core.DataDir)
	if err != nil {
		return nil, fmt.Errorf("container: store: %w", err)
	}

	auditLogger, err := audit.NewLogger(audit.Config{
		Enabled: true,
		Level:   audit.LevelInfo,
		Format:  audit.FormatJSON,
		Output:  "stdout",
	})
	if err != nil {
		return nil, fmt.Errorf("container: audit logger: %w", err)
	}

	auditSvc, err := audit.NewService(st.DataDir(), audit.ServiceConfig{
		MaxEventsPerSession: cfg.Core.Audit.MaxEventsPerSession,
		Retention:           time.Duration(cfg.Core.Audit.RetentionHours) * time.Hour,
		CacheSessions:       cfg.Core.Audit.CacheMaxSessions,
	}, auditLogger)
	if err != nil {
		auditLogger.Close()
		return nil, fmt.Errorf("container: audit service: %w", err)
	}

	llmClient, err := newLLMClient(cfg)
	if err != nil {
		auditLogger.Close()
		return nil, fmt.Errorf("container: llm client: %w", err)
	}

	registry := actor.NewRegistry(llmClient, st, auditSvc, actor.Config{
		QueueSize:       cfg.Core.QueueMaxSize,
		GreetingTimeout: cfg.Core.GreetingTimeout,
		ResponseTimeout: cfg.Core.ResponseTimeout,
		ShutdownWindow:  cfg.Core.GracefulShutdownTimeout,
		Model:           cfg.Core.ClaudeModel,
	})

	jobs, err := jobqueue.New(st.DataDir(), cfg.Core.QueueMaxSize)
	if err != nil {
		auditLogger.Close()
		return nil, fmt.Errorf("container: job queue: %w", err)
	}

	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	return &Container{
		cfg:         cfg,
		logger:      logger,
		Store:       st,
		Audit:       auditSvc,
		Registry:    registry,
		Jobs:        jobs,
		Metrics:     metrics.New(reg),
		auditLogger: auditLogger,
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}, nil
}

func newLLMClient(cfg *config.Config) (llmconv.Client, error) {
	provider, ok := cfg.LLM.Providers[cfg.LLM.DefaultProvider]
	if !ok || provider.APIKey == "" {
		return &llmconv.FakeClient{}, nil
	}
	return llmconv.NewAnthropicClient(llmconv.AnthropicConfig{
		APIKey:       provider.APIKey,
		BaseURL:      provider.BaseURL,
		DefaultModel: cfg.Core.ClaudeModel,
	})
}

// Start launches the job processor pool, restores any jobs left pending
// from a prior crash, and starts the session cleanup sweep. It does not
// block; call Shutdown to stop everything it started.
func (c *Container) Start(ctx context.Context) error {
	restored, err := c.Jobs.RestorePendingJobs()
	if err != nil {
		return fmt.Errorf("container: restore pending jobs: %w", err)
	}
	if restored > 0 {
		c.logger.Info("restored pending jobs", "count", restored)
	}

	c.Jobs.RunJobProcessorLoop(c.cfg.Core.Jobs.MaxConcurrent)

	go c.runCleanupLoop()

	c.logger.Info("core runtime started",
		"session_ttl", c.cfg.Core.SessionTTL,
		"cleanup_interval", c.cfg.Core.CleanupInterval,
		"job_workers", c.cfg.Core.Jobs.MaxConcurrent,
	)
	return nil
}

func (c *Container) runCleanupLoop() {
	defer close(c.cleanupDone)

	interval := c.cfg.Core.CleanupInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCleanup:
			return
		case <-ticker.C:
			n := c.Registry.CleanupExpired(c.cfg.Core.SessionTTL)
			if n > 0 {
				c.logger.Info("expired idle sessions", "count", n)
			}
			c.Metrics.SetSessionActorsActive(c.Registry.Count())
		}
	}
}

// Shutdown stops the cleanup sweep, drains and stops the job queue, stops
// every live session actor, and closes the audit logger, in that order —
// the reverse of the dependency order New built them in.
func (c *Container) Shutdown(ctx context.Context) error {
	close(c.stopCleanup)
	select {
	case <-c.cleanupDone:
	case <-ctx.Done():
		c.logger.Warn("cleanup loop did not stop before shutdown deadline")
	}

	c.Jobs.Shutdown()
	c.Registry.StopAll()

	if err := c.auditLogger.Close(); err != nil {
		return fmt.Errorf("container: audit logger close: %w", err)
	}
	return nil
}
