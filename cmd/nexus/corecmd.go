package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/nexuscore/agentruntime/internal/config"
	"github.com/nexuscore/agentruntime/internal/container"
	"github.com/nexuscore/agentruntime/internal/jobqueue"
	"github.com/nexuscore/agentruntime/internal/profile"
	"github.com/spf13/cobra"
)

// =============================================================================
// Core Runtime Command Handlers
//
// These commands drive the session orchestrator, job queue, and audit
// pipeline directly, with no channel/transport gateway in front of them:
// they're the operator surface for the stateful core that
// process_message/get_greeting, background jobs, and audit exports run
// through.
// =============================================================================

func buildCoreServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "core-serve",
		Short: "Run the session orchestrator, job queue, and audit pipeline",
		Long: `Start the core runtime: the Atomic Store, Audit Pipeline, session actor
registry, and Job Queue, without the channel adapters or gRPC/HTTP gateway.

Useful for running the stateful core as its own process, or for local
development against it via the core-sessions/core-jobs/core-audit commands.

Graceful shutdown is handled on SIGINT/SIGTERM.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath = resolveConfigPath(configPath)
			return runCoreServe(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", profile.DefaultConfigPath(),
		"Path to YAML configuration file")
	return cmd
}

func runCoreServe(ctx context.Context, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	c, err := container.New(cfg, slog.Default(), nil)
	if err != nil {
		return fmt.Errorf("failed to build core runtime: %w", err)
	}

	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := c.Start(ctx); err != nil {
		return fmt.Errorf("failed to start core runtime: %w", err)
	}

	slog.Info("core runtime started", "config", configPath)
	<-ctx.Done()
	slog.Info("shutdown signal received, stopping core runtime")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Core.GracefulShutdownTimeout+10*time.Second)
	defer shutdownCancel()
	return c.Shutdown(shutdownCtx)
}

func buildCoreSessionsCmd() *cobra.Command {
	var configPath string
	var limit int

	cmd := &cobra.Command{
		Use:   "core-sessions",
		Short: "List persisted sessions from the Atomic Store",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath = resolveConfigPath(configPath)
			return runCoreSessionsList(cmd, configPath, limit)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", profile.DefaultConfigPath(), "Path to YAML configuration file")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of sessions to list")
	return cmd
}

func runCoreSessionsList(cmd *cobra.Command, configPath string, limit int) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	c, err := container.New(cfg, slog.Default(), nil)
	if err != nil {
		return fmt.Errorf("failed to build core runtime: %w", err)
	}

	summaries, err := c.Store.ListSessions(limit)
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(summaries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sessions found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tMESSAGES\tCREATED\tUPDATED")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n",
			s.ID, s.Title, s.MessageCount, s.CreatedAt.Format(time.RFC3339), s.UpdatedAt.Format(time.RFC3339))
	}
	return w.Flush()
}

func buildCoreJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "core-jobs",
		Short: "Inspect the background job queue",
	}

	var (
		configPath string
		jobType    string
		state      string
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List jobs, optionally filtered by type or state",
		RunE: func(cmd *cobra.Command, args []string) error {
			configPath = resolveConfigPath(configPath)
			return runCoreJobsList(cmd, configPath, jobType, state)
		},
	}
	listCmd.Flags().StringVarP(&configPath, "config", "c", profile.DefaultConfigPath(), "Path to YAML configuration file")
	listCmd.Flags().StringVar(&jobType, "type", "", "Filter by job type")
	listCmd.Flags().StringVar(&state, "state", "", "Filter by state (pending, running, succeeded, failed, cancelled)")

	var cancelConfigPath string
	cancelCmd := &cobra.Command{
		Use:   "cancel [job-id]",
		Short: "Cancel a pending or running job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cancelConfigPath = resolveConfigPath(cancelConfigPath)
			return runCoreJobsCancel(cmd, cancelConfigPath, args[0])
		},
	}
	cancelCmd.Flags().StringVarP(&cancelConfigPath, "config", "c", profile.DefaultConfigPath(), "Path to YAML configuration file")

	cmd.AddCommand(listCmd, cancelCmd)
	return cmd
}

func runCoreJobsList(cmd *cobra.Command, configPath, jobType, state string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	c, err := container.New(cfg, slog.Default(), nil)
	if err != nil {
		return fmt.Errorf("failed to build core runtime: %w", err)
	}

	jobs := c.Jobs.ListJobs(jobqueue.Filter{Type: jobType, State: jobqueue.State(state)})
	if len(jobs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No jobs found.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTYPE\tSTATE\tPROGRESS\tCREATED\tERROR")
	for _, j := range jobs {
		errText := j.Error
		if strings.TrimSpace(errText) == "" {
			errText = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%.0f%%\t%s\t%s\n",
			j.ID, j.Type, j.State, j.Progress*100, j.CreatedAt.Format(time.RFC3339), errText)
	}
	return w.Flush()
}

func runCoreJobsCancel(cmd *cobra.Command, configPath, jobID string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	c, err := container.New(cfg, slog.Default(), nil)
	if err != nil {
		return fmt.Errorf("failed to build core runtime: %w", err)
	}

	if err := c.Jobs.CancelJob(jobID); err != nil {
		return fmt.Errorf("cancel job %s: %w", jobID, err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "cancelled job %s\n", jobID)
	return nil
}

func buildCoreAuditCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "core-audit",
		Short: "Inspect the audit event pipeline",
	}

	var (
		logConfigPath string
		sessionID     string
		limit         int
		offset        int
	)
	logCmd := &cobra.Command{
		Use:   "log",
		Short: "Show a session's audit log",
		RunE: func(cmd *cobra.Command, args []string) error {
			logConfigPath = resolveConfigPath(logConfigPath)
			return runCoreAuditLog(cmd, logConfigPath, sessionID, limit, offset)
		},
	}
	logCmd.Flags().StringVarP(&logConfigPath, "config", "c", profile.DefaultConfigPath(), "Path to YAML configuration file")
	logCmd.Flags().StringVar(&sessionID, "session", "", "Session ID (required)")
	logCmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of events to return")
	logCmd.Flags().IntVar(&offset, "offset", 0, "Offset into the session's event log")

	var statsConfigPath string
	statsCmd := &cobra.Command{
		Use:   "stats",
		Short: "Show running audit pipeline aggregates",
		RunE: func(cmd *cobra.Command, args []string) error {
			statsConfigPath = resolveConfigPath(statsConfigPath)
			return runCoreAuditStats(cmd, statsConfigPath)
		},
	}
	statsCmd.Flags().StringVarP(&statsConfigPath, "config", "c", profile.DefaultConfigPath(), "Path to YAML configuration file")

	cmd.AddCommand(logCmd, statsCmd)
	return cmd
}

func runCoreAuditLog(cmd *cobra.Command, configPath, sessionID string, limit, offset int) error {
	if strings.TrimSpace(sessionID) == "" {
		return fmt.Errorf("--session is required")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	c, err := container.New(cfg, slog.Default(), nil)
	if err != nil {
		return fmt.Errorf("failed to build core runtime: %w", err)
	}

	resp, err := c.Audit.GetSessionAuditLog(sessionID, limit, offset, nil)
	if err != nil {
		return fmt.Errorf("get audit log: %w", err)
	}
	if len(resp.Entries) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No audit events found for session.")
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TIMESTAMP\tTYPE\tTOOL\tBLOCKED")
	for _, e := range resp.Entries {
		toolName := e.ToolName
		if strings.TrimSpace(toolName) == "" {
			toolName = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%t\n",
			e.Timestamp.Format(time.RFC3339), e.EventType, toolName, e.Blocked)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	if resp.HasMore {
		fmt.Fprintf(cmd.OutOrStdout(), "(%d of %d total, use --offset to page)\n", len(resp.Entries), resp.TotalCount)
	}
	return nil
}

func runCoreAuditStats(cmd *cobra.Command, configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	c, err := container.New(cfg, slog.Default(), nil)
	if err != nil {
		return fmt.Errorf("failed to build core runtime: %w", err)
	}

	stats, err := c.Audit.GetStats()
	if err != nil {
		return fmt.Errorf("get audit stats: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Total events:       %d\n", stats.TotalEvents)
	fmt.Fprintf(cmd.OutOrStdout(), "Blocked:            %d\n", stats.BlockedCount)
	fmt.Fprintf(cmd.OutOrStdout(), "Avg tool duration:  %.1fms\n", stats.AvgToolDurationMS)
	fmt.Fprintf(cmd.OutOrStdout(), "Avg scan duration:  %.1fms\n", stats.AvgScanDurationMS)
	return nil
}
