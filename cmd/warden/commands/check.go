package commands

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/MEKXH/warden/internal/config"
	"github.com/MEKXH/warden/internal/guard"
)

var (
	permitStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#2E8B57")) // SeaGreen

	rejectStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#CD5C5C")) // IndianRed

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

func NewCheckCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check [command...]",
		Short: "Evaluate a command against the policy without running it",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runCheck,
	}

	cmd.Flags().StringP("workdir", "d", "", "Working directory to evaluate against")
	cmd.Flags().Bool("show-normalized", false, "Print the normalized form used for matching")

	return cmd
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	policy, err := guard.NewPolicy(guard.Config{
		DenyPatterns:        cfg.Guard.DenyPatterns,
		AllowPatterns:       cfg.Guard.AllowPatterns,
		RestrictToWorkspace: cfg.Guard.RestrictToWorkspace,
	})
	if err != nil {
		return fmt.Errorf("invalid guard policy: %w", err)
	}

	workdir, _ := cmd.Flags().GetString("workdir")
	if workdir == "" {
		workdir, err = cfg.WorkspacePathChecked()
		if err != nil {
			return fmt.Errorf("invalid workspace: %w", err)
		}
	}

	command := strings.Join(args, " ")
	decision := policy.Evaluate(command, workdir)

	if showNormalized, _ := cmd.Flags().GetBool("show-normalized"); showNormalized {
		fmt.Printf("normalized: %s\n", guard.Normalize(command))
	}

	if decision.Permitted() {
		fmt.Println(permitStyle.Render("PERMIT"))
		return nil
	}

	fmt.Println(rejectStyle.Render("REJECT") + " " + string(decision.Reason))
	if decision.Detail != "" {
		fmt.Println(detailStyle.Render("matched: " + decision.Detail))
	}
	return nil
}
