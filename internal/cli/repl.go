package cli

import (
	"github.com/grantcarthew/htmlfmt/internal/daemon"
	"github.com/spf13/cobra"
)

var replCmd = &cobra.Command{
	Use:   "repl",
	Short: "Format snippets interactively",
	Long: `Opens an interactive prompt backed by an in-process formatter. Lines that
start with "<" are formatted and printed; "set indent 4" or "set tabs on"
changes the options for later snippets; "options" shows them. Type help for
the full list.`,
	Args: cobra.NoArgs,
	RunE: runREPL,
}

func init() {
	addOptionFlags(replCmd.Flags())
	rootCmd.AddCommand(replCmd)
}

func runREPL(cmd *cobra.Command, args []string) error {
	if !daemon.IsStdinTTY() {
		return outputError("repl needs an interactive terminal")
	}

	opts, err := resolveOptions(cmd, "", false)
	if err != nil {
		return outputError(err.Error())
	}

	cfg := daemon.DefaultConfig()
	cfg.Debug = Debug
	handler := daemon.New(cfg).Handler()

	repl := daemon.NewREPL(handler, func(args []string) (bool, error) {
		SetExecutorFactory(NewDirectExecutorFactory(handler))
		defer ResetExecutorFactory()
		return ExecuteArgs(args)
	}, nil)
	repl.SetOptions(*opts)

	if err := repl.Run(); err != nil {
		return outputError(err.Error())
	}
	return nil
}
