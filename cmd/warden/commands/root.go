package commands

import (
	"github.com/MEKXH/warden/internal/config"
	"github.com/spf13/cobra"
)

var logLevelOverride string

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "warden",
		Short: "Warden - command execution guard and sandboxed runner",
		Long: `Warden evaluates shell commands from autonomous agents against a
deny/allow policy and runs permitted commands in their own process group
with a bounded timeout and bounded output.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "init" {
				return configureLogger(config.DefaultConfig(), logLevelOverride)
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return configureLogger(cfg, logLevelOverride)
		},
	}

	cmd.PersistentFlags().StringVar(&logLevelOverride, "log-level", "", "Override log level (debug|info|warn|error)")

	cmd.AddCommand(
		NewInitCmd(),
		NewExecCmd(),
		NewCheckCmd(),
		NewStatusCmd(),
		NewVersionCmd(),
	)

	return cmd
}
