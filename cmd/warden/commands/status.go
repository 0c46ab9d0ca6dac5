package commands

import (
	"fmt"
	"os"

	"github.com/MEKXH/warden/internal/config"
	"github.com/MEKXH/warden/internal/guard"
	"github.com/MEKXH/warden/internal/metrics"
	"github.com/spf13/cobra"
)

func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show Warden configuration and execution metrics",
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	workspacePath, err := cfg.WorkspacePathChecked()
	if err != nil {
		return fmt.Errorf("invalid workspace: %w", err)
	}

	fmt.Println("=== Warden Status ===")
	fmt.Println()

	fmt.Printf("Config: %s\n", config.ConfigPath())
	if _, err := os.Stat(config.ConfigPath()); err == nil {
		fmt.Println("  Status: OK")
	} else {
		fmt.Println("  Status: Not found (run 'warden init')")
	}

	fmt.Printf("\nWorkspace: %s\n", workspacePath)
	if _, err := os.Stat(workspacePath); err == nil {
		fmt.Println("  Status: OK")
	} else {
		fmt.Println("  Status: Not found")
	}

	denyCount := len(cfg.Guard.DenyPatterns)
	if denyCount == 0 {
		denyCount = len(guard.DefaultDenyPatterns())
		fmt.Printf("\nGuard: %d deny patterns (built-in defaults)\n", denyCount)
	} else {
		fmt.Printf("\nGuard: %d deny patterns (custom)\n", denyCount)
	}
	if len(cfg.Guard.AllowPatterns) > 0 {
		fmt.Printf("  Allowlist: %d patterns\n", len(cfg.Guard.AllowPatterns))
	} else {
		fmt.Println("  Allowlist: disabled")
	}
	fmt.Printf("  Restrict to workspace: %v\n", cfg.Guard.RestrictToWorkspace)
	fmt.Printf("  Timeout: %ds\n", cfg.Exec.Timeout)
	fmt.Printf("  Max output: %d chars\n", cfg.Exec.MaxOutputChars)
	fmt.Printf("  Audit: %v\n", cfg.Audit.Enabled)

	snap, err := metrics.LoadSnapshot(workspacePath)
	if err != nil {
		return fmt.Errorf("failed to load metrics: %w", err)
	}
	if !snap.HasData() {
		fmt.Println("\nMetrics: no executions recorded")
		return nil
	}

	fmt.Printf("\nMetrics (as of %s):\n", snap.UpdatedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Printf("  Total: %d\n", snap.Exec.Total)
	fmt.Printf("  Rejected: %d (%.0f%%)\n", snap.Exec.Rejected, snap.Exec.RejectionRatio()*100)
	for reason, count := range snap.Exec.RejectedByReason {
		fmt.Printf("    %s: %d\n", reason, count)
	}
	fmt.Printf("  Timeouts: %d\n", snap.Exec.Timeouts)
	fmt.Printf("  Truncations: %d\n", snap.Exec.Truncations)
	fmt.Printf("  Spawn errors: %d\n", snap.Exec.SpawnErrors)
	fmt.Printf("  Avg latency: %.0fms (max %dms)\n", snap.Exec.AvgLatencyMs(), snap.Exec.MaxLatencyMs)

	return nil
}
