// Package main provides the CLI entry point for the core agent runtime.
//
// nexus drives the session orchestrator, job queue, and audit pipeline: the
// Atomic Store, the session actor registry, and the background job workers,
// independent of any channel adapter or transport gateway.
//
// # Basic Usage
//
// Start the core runtime:
//
//	nexus core-serve --config nexus.yaml
//
// Inspect persisted sessions, jobs, and audit events:
//
//	nexus core-sessions
//	nexus core-jobs list
//	nexus core-audit stats
//
// # Environment Variables
//
//   - NEXUS_PROFILE: named profile to load config from
//   - APP_CLAUDE_MODEL, APP_DATA_DIR, APP_QUEUE_MAX_SIZE, ...: core.* overrides (see config.CoreConfig)
package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/nexuscore/agentruntime/internal/profile"
	"github.com/spf13/cobra"
)

// Build information - populated by ldflags during build.
var (
	version     = "dev"
	commit      = "none"
	date        = "unknown"
	profileName string
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rootCmd := buildRootCmd()
	if err := rootCmd.Execute(); err != nil {
		slog.Error("command execution failed", "error", err)
		os.Exit(1)
	}
}

// buildRootCmd creates the root command with all subcommands attached.
// Separated from main() to facilitate testing.
func buildRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "nexus",
		Short: "Core session orchestrator, job queue, and audit pipeline",
		Long: `nexus drives the stateful core of the agent runtime: the Atomic Store,
the session actor registry, the background job queue, and the audit
pipeline.`,
		Version:      fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&profileName, "profile", "", "Profile name (uses ~/.nexus/profiles/<name>.yaml; or set NEXUS_PROFILE)")

	rootCmd.AddCommand(
		buildCoreServeCmd(),
		buildCoreSessionsCmd(),
		buildCoreJobsCmd(),
		buildCoreAuditCmd(),
		buildProfileCmd(),
	)

	return rootCmd
}

func resolveConfigPath(path string) string {
	activeProfile := strings.TrimSpace(profileName)
	if activeProfile == "" {
		activeProfile = strings.TrimSpace(os.Getenv("NEXUS_PROFILE"))
	}
	if activeProfile != "" {
		return profile.ProfileConfigPath(activeProfile)
	}
	if strings.TrimSpace(path) == "" || path == profile.DefaultConfigName {
		return profile.DefaultConfigPath()
	}
	return path
}

// buildProfileCmd creates the "profile" command group for selecting which
// named config file core-serve/core-sessions/core-jobs/core-audit load.
func buildProfileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage configuration profiles",
	}
	cmd.AddCommand(buildProfileListCmd(), buildProfileUseCmd(), buildProfilePathCmd())
	return cmd
}

func buildProfileListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available profiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			profiles, err := profile.ListProfiles()
			if err != nil {
				return err
			}
			active, _ := profile.ReadActiveProfile()
			out := cmd.OutOrStdout()
			if len(profiles) == 0 {
				fmt.Fprintln(out, "No profiles found.")
				return nil
			}
			fmt.Fprintln(out, "Profiles:")
			for _, name := range profiles {
				marker := ""
				if name == active {
					marker = " (active)"
				}
				fmt.Fprintf(out, "  - %s%s\n", name, marker)
			}
			return nil
		},
	}
}

func buildProfileUseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "use [name]",
		Short: "Set the active profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return fmt.Errorf("profile name is required")
			}
			if err := profile.WriteActiveProfile(name); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Active profile set: %s\n", name)
			return nil
		},
	}
}

func buildProfilePathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path [name]",
		Short: "Print the config path for a profile",
		Args:  cobra.RangeArgs(0, 1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := ""
			if len(args) > 0 {
				name = args[0]
			}
			fmt.Fprintln(cmd.OutOrStdout(), profile.ProfileConfigPath(name))
			return nil
		},
	}
}
