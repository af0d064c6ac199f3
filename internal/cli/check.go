package cli

import (
	"fmt"
	"os"

	"github.com/grantcarthew/htmlfmt/internal/cli/format"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check <file|dir>...",
	Short: "Report files that are not formatted",
	Long: `Formats each file without writing it and lists the ones whose content would
change. Exits with status 1 when any file needs formatting, which suits
pre-commit hooks and CI.

Examples:
  htmlfmt check .
  htmlfmt check --json templates/ index.html`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

var checkTarget target

func init() {
	addTargetFlags(checkCmd, &checkTarget)
	addOptionFlags(checkCmd.Flags())
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	files, err := collectFiles(args)
	if err != nil {
		return outputError(err.Error())
	}

	opts, err := resolveOptions(cmd, commonDir(args), true)
	if err != nil {
		return outputError(err.Error())
	}

	f, err := newFormatter(checkTarget, opts)
	if err != nil {
		return outputError(err.Error())
	}
	defer f.Close()

	unformatted := []string{}
	for _, path := range files {
		res, err := formatFile(f, path)
		if err != nil {
			return outputError(fmt.Sprintf("%s: %v", path, err))
		}
		if res.Changed {
			unformatted = append(unformatted, path)
		}
	}

	if JSONOutput {
		resp := map[string]any{
			"ok": len(unformatted) == 0,
			"data": map[string]any{
				"unformatted": unformatted,
				"checked":     len(files),
			},
		}
		if err := outputJSON(os.Stdout, resp); err != nil {
			return err
		}
	} else {
		format.Unformatted(os.Stdout, unformatted, len(files), format.NewOutputOptions(JSONOutput, NoColor))
	}

	if len(unformatted) > 0 {
		return &printedError{msg: ErrUnformatted.Error(), cause: ErrUnformatted}
	}
	return nil
}
