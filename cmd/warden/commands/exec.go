package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/MEKXH/warden/internal/audit"
	"github.com/MEKXH/warden/internal/config"
	"github.com/MEKXH/warden/internal/guard"
	"github.com/MEKXH/warden/internal/metrics"
	"github.com/MEKXH/warden/internal/sandbox"
	"github.com/MEKXH/warden/internal/tools"
)

func NewExecCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec [command...]",
		Short: "Run a command through the guard and sandbox",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runExec,
	}

	cmd.Flags().StringP("workdir", "d", "", "Working directory override")

	return cmd
}

func runExec(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	shell, err := buildShellTool(cfg)
	if err != nil {
		return err
	}

	workdir, _ := cmd.Flags().GetString("workdir")
	ctx := tools.WithInvocationContext(cmd.Context(), tools.InvocationContext{
		Caller:    "cli",
		RequestID: uuid.NewString(),
	})

	fmt.Println(shell.Execute(ctx, strings.Join(args, " "), workdir))
	return nil
}

// buildShellTool assembles the guard, runner, audit trail and metrics
// recorder from configuration.
func buildShellTool(cfg *config.Config) (*tools.ShellTool, error) {
	workspacePath, err := cfg.WorkspacePathChecked()
	if err != nil {
		return nil, fmt.Errorf("invalid workspace: %w", err)
	}

	policy, err := guard.NewPolicy(guard.Config{
		DenyPatterns:        cfg.Guard.DenyPatterns,
		AllowPatterns:       cfg.Guard.AllowPatterns,
		RestrictToWorkspace: cfg.Guard.RestrictToWorkspace,
	})
	if err != nil {
		return nil, fmt.Errorf("invalid guard policy: %w", err)
	}

	runner := sandbox.NewRunner(time.Duration(cfg.Exec.Timeout)*time.Second, cfg.Exec.MaxOutputChars)

	var auditor *audit.Writer
	if cfg.Audit.Enabled {
		auditor = audit.NewWriter(workspacePath)
	}

	return tools.NewShellTool(policy, runner, workspacePath, auditor, metrics.NewRecorder(workspacePath)), nil
}
