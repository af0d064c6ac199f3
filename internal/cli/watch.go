package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/grantcarthew/htmlfmt/internal/cli/format"
	"github.com/grantcarthew/htmlfmt/internal/server"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dir...]",
	Short: "Format HTML files as they change",
	Long: `Watches directories (default: the current one) and rewrites HTML files
whenever they are saved. Files already formatted are left untouched, so the
rewrite does not trigger another round.

Examples:
  htmlfmt watch
  htmlfmt watch site/ --ignore "*.min.html"
  htmlfmt watch --daemon`,
	RunE: runWatch,
}

var (
	watchIgnore []string
	watchDelay  time.Duration
	watchTarget target
)

func init() {
	watchCmd.Flags().StringSliceVar(&watchIgnore, "ignore", nil, "Glob patterns to ignore (comma-separated)")
	watchCmd.Flags().DurationVar(&watchDelay, "delay", server.DefaultDebounce, "Wait this long after the last change before formatting")
	addTargetFlags(watchCmd, &watchTarget)
	addOptionFlags(watchCmd.Flags())
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		args = []string{"."}
	}

	opts, err := resolveOptions(cmd, commonDir(args), true)
	if err != nil {
		return outputError(err.Error())
	}

	f, err := newFormatter(watchTarget, opts)
	if err != nil {
		return outputError(err.Error())
	}
	defer f.Close()

	w, err := server.NewWatcher(server.WatcherConfig{
		Paths:      args,
		Ignore:     watchIgnore,
		Extensions: htmlExtensions,
		Delay:      watchDelay,
		OnChange:   reformatter(f),
		Debug:      Debug,
	})
	if err != nil {
		return outputError(err.Error())
	}
	if err := w.Start(); err != nil {
		return outputError(err.Error())
	}
	defer w.Stop()

	if !JSONOutput {
		fmt.Fprintf(os.Stderr, "Watching %d %s (Ctrl+C to stop)\n", len(args), pluralize(len(args), "path", "paths"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	return nil
}

// reformatter returns a watcher callback that rewrites changed files that
// are not formatted and reports each one.
func reformatter(f formatter) func([]server.FileEvent) {
	return func(events []server.FileEvent) {
		outOpts := format.NewOutputOptions(JSONOutput, NoColor)
		for _, ev := range events {
			written, err := reformat(f, ev.Path)
			if err != nil {
				if JSONOutput {
					outputJSON(os.Stderr, map[string]any{"ok": false, "path": ev.Path, "error": err.Error()})
				} else {
					format.ActionError(os.Stderr, fmt.Sprintf("%s: %v", ev.Path, err), outOpts)
				}
				continue
			}
			if !written {
				continue
			}
			if JSONOutput {
				outputJSON(os.Stdout, map[string]any{"ok": true, "formatted": ev.Path})
			} else {
				format.Formatted(os.Stdout, []string{ev.Path}, outOpts)
			}
		}
	}
}

// reformat formats path in place and reports whether it was rewritten.
func reformat(f formatter, path string) (bool, error) {
	res, err := formatFile(f, path)
	if err != nil {
		return false, err
	}
	if !res.Changed {
		debugf("%s already formatted", path)
		return false, nil
	}
	return true, writeFile(path, res.HTML)
}

func pluralize(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
