package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/grantcarthew/htmlfmt/internal/cli/format"
	"github.com/spf13/cobra"
)

var formatCmd = &cobra.Command{
	Use:   "format [file|dir...]",
	Short: "Format HTML files or stdin",
	Long: `Formats HTML and prints the result. With no arguments, or "-", reads stdin.
Directories are searched for .html and .htm files.

Formatting runs in-process by default. --daemon sends documents to the
daemon started with "htmlfmt start"; --remote sends them to an
"htmlfmt serve" instance over WebSocket.

Examples:
  htmlfmt format index.html            # Print formatted index.html
  htmlfmt format -w site/              # Rewrite every HTML file under site/
  cat page.html | htmlfmt format -i 4  # Format stdin with 4-space indent
  htmlfmt format --daemon -w index.html
  htmlfmt format --remote ws://localhost:7331/ws page.html`,
	RunE: runFormat,
}

var (
	formatWrite  bool
	formatTarget target
)

func init() {
	formatCmd.Flags().BoolVarP(&formatWrite, "write", "w", false, "Write results back to the files")
	addTargetFlags(formatCmd, &formatTarget)
	addOptionFlags(formatCmd.Flags())
	rootCmd.AddCommand(formatCmd)
}

func addTargetFlags(cmd *cobra.Command, t *target) {
	cmd.Flags().BoolVarP(&t.daemon, "daemon", "d", false, "Format with the running daemon")
	cmd.Flags().StringVar(&t.remote, "remote", "", "Format with a serve instance at this WebSocket URL")
	cmd.MarkFlagsMutuallyExclusive("daemon", "remote")
}

// fileResult is the outcome of formatting one file.
type fileResult struct {
	Path    string `json:"path"`
	HTML    string `json:"html,omitempty"`
	Changed bool   `json:"changed"`
}

func runFormat(cmd *cobra.Command, args []string) error {
	if len(args) == 0 || (len(args) == 1 && args[0] == "-") {
		if formatWrite {
			return outputError("--write needs file arguments")
		}
		return formatStdin(cmd, os.Stdin, os.Stdout)
	}

	files, err := collectFiles(args)
	if err != nil {
		return outputError(err.Error())
	}

	opts, err := resolveOptions(cmd, commonDir(args), true)
	if err != nil {
		return outputError(err.Error())
	}
	debugf("Formatting %d files (%s)", len(files), describeOptions(opts))

	f, err := newFormatter(formatTarget, opts)
	if err != nil {
		return outputError(err.Error())
	}
	defer f.Close()

	var results []fileResult
	var written []string
	for _, path := range files {
		res, err := formatFile(f, path)
		if err != nil {
			return outputError(fmt.Sprintf("%s: %v", path, err))
		}
		if formatWrite {
			if res.Changed {
				if err := writeFile(path, res.HTML); err != nil {
					return outputError(err.Error())
				}
				written = append(written, path)
			}
			continue
		}
		results = append(results, res)
	}

	if formatWrite {
		if JSONOutput {
			if written == nil {
				written = []string{}
			}
			return outputSuccess(map[string]any{
				"formatted": written,
				"checked":   len(files),
			})
		}
		return format.Formatted(os.Stdout, written, format.NewOutputOptions(JSONOutput, NoColor))
	}

	if JSONOutput {
		return outputSuccess(map[string]any{"files": results})
	}
	for _, res := range results {
		if _, err := io.WriteString(os.Stdout, res.HTML); err != nil {
			return err
		}
	}
	return nil
}

// formatStdin formats all of r and writes the result to w. Options are
// always resolved here, relative to the working directory.
func formatStdin(cmd *cobra.Command, r io.Reader, w io.Writer) error {
	input, err := io.ReadAll(r)
	if err != nil {
		return outputError(err.Error())
	}

	opts, err := resolveOptions(cmd, "", false)
	if err != nil {
		return outputError(err.Error())
	}

	f, err := newFormatter(formatTarget, opts)
	if err != nil {
		return outputError(err.Error())
	}
	defer f.Close()

	data, err := f.Format(string(input), "")
	if err != nil {
		return outputError(err.Error())
	}
	out := withNewline(data.HTML)

	if JSONOutput {
		return outputSuccess(fileResult{Path: "-", HTML: out, Changed: out != string(input)})
	}
	_, err = io.WriteString(w, out)
	return err
}

// formatFile formats the file at path. The result holds the text to write,
// newline included, and whether it differs from the file.
func formatFile(f formatter, path string) (fileResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return fileResult{}, err
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return fileResult{}, err
	}
	data, err := f.Format(string(content), abs)
	if err != nil {
		return fileResult{}, err
	}
	out := withNewline(data.HTML)
	return fileResult{Path: path, HTML: out, Changed: out != string(content)}, nil
}
