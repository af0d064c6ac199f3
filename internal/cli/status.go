package cli

import (
	"os"

	"github.com/grantcarthew/htmlfmt/internal/cli/format"
	"github.com/grantcarthew/htmlfmt/internal/executor"
	"github.com/grantcarthew/htmlfmt/internal/ipc"
	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	Long:  "Reports whether the daemon is running, its PID, uptime, socket, and request counters.",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	outOpts := format.NewOutputOptions(JSONOutput, NoColor)

	if !execFactory.IsDaemonRunning() {
		if JSONOutput {
			return outputSuccess(ipc.StatusData{Running: false})
		}
		return format.Status(os.Stdout, ipc.StatusData{Running: false}, outOpts)
	}

	exec, err := execFactory.NewExecutor()
	if err != nil {
		return outputError(err.Error())
	}
	defer exec.Close()

	status, err := executor.Status(exec)
	if err != nil {
		return outputError(err.Error())
	}

	if JSONOutput {
		return outputSuccess(status)
	}
	return format.Status(os.Stdout, status, outOpts)
}
