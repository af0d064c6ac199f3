package cli

import (
	"os"

	"github.com/grantcarthew/htmlfmt/internal/cli/format"
	"github.com/grantcarthew/htmlfmt/internal/executor"
	"github.com/grantcarthew/htmlfmt/internal/ipc"
	"github.com/spf13/cobra"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show recent format requests",
	Long: `Lists the format requests the daemon has handled, oldest first: path, sizes,
whether the document changed, and how long it took.

Examples:
  htmlfmt log
  htmlfmt log --limit 10
  htmlfmt log --errors`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

var logParams ipc.LogParams

func init() {
	logCmd.Flags().IntVarP(&logParams.Limit, "limit", "n", 0, "Show only the newest N entries")
	logCmd.Flags().BoolVar(&logParams.Errors, "errors", false, "Show only failed requests")
	rootCmd.AddCommand(logCmd)
}

func runLog(cmd *cobra.Command, args []string) error {
	if logParams.Limit < 0 {
		return outputError("--limit must be at least 0")
	}

	exec, err := execFactory.NewExecutor()
	if err != nil {
		return outputError(err.Error())
	}
	defer exec.Close()

	data, err := executor.Log(exec, logParams)
	if err != nil {
		return outputError(err.Error())
	}

	if JSONOutput {
		return outputSuccess(data)
	}
	return format.Log(os.Stdout, data.Entries, format.NewOutputOptions(JSONOutput, NoColor))
}
