// Package format renders command results as human-readable text.
package format

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/grantcarthew/htmlfmt/internal/ipc"
	"golang.org/x/term"
)

// Color helper functions that respect color.NoColor flag
func colorFprint(w io.Writer, c color.Attribute, s string) {
	color.New(c).Fprint(w, s)
}

func colorFprintf(w io.Writer, c color.Attribute, format string, args ...any) {
	color.New(c).Fprintf(w, format, args...)
}

// OutputOptions controls text formatting behavior.
type OutputOptions struct {
	UseColor bool // Enable ANSI color codes
}

// NewOutputOptions returns output options based on flags and environment.
// Priority: jsonOutput > noColorFlag > NO_COLOR env > TTY detection.
func NewOutputOptions(jsonOutput bool, noColorFlag bool) OutputOptions {
	if jsonOutput {
		return OutputOptions{UseColor: false}
	}
	if noColorFlag {
		return OutputOptions{UseColor: false}
	}
	if os.Getenv("NO_COLOR") != "" {
		return OutputOptions{UseColor: false}
	}

	// Enable colors if stdout is a TTY
	return OutputOptions{
		UseColor: term.IsTerminal(int(os.Stdout.Fd())),
	}
}

// ActionSuccess outputs "OK" for successful action commands.
func ActionSuccess(w io.Writer) error {
	_, err := fmt.Fprintln(w, "OK")
	return err
}

// ActionError outputs "Error: <message>" for failed action commands.
func ActionError(w io.Writer, msg string, opts OutputOptions) error {
	if opts.UseColor {
		colorFprint(w, color.FgRed, "Error:")
		fmt.Fprintf(w, " %s\n", msg)
	} else {
		fmt.Fprintf(w, "Error: %s\n", msg)
	}
	return nil
}

// Status outputs daemon status in text format.
func Status(w io.Writer, data ipc.StatusData, opts OutputOptions) error {
	if !data.Running {
		if opts.UseColor {
			colorFprint(w, color.FgYellow, "Not running (start with: htmlfmt start)\n")
		} else {
			fmt.Fprintln(w, "Not running (start with: htmlfmt start)")
		}
		return nil
	}

	if opts.UseColor {
		colorFprint(w, color.FgGreen, "OK\n")
	} else {
		fmt.Fprintln(w, "OK")
	}
	if data.PID > 0 {
		fmt.Fprintf(w, "pid: %d\n", data.PID)
	}
	if data.Uptime != "" {
		fmt.Fprintf(w, "uptime: %s\n", data.Uptime)
	}
	if data.Socket != "" {
		fmt.Fprintf(w, "socket: %s\n", data.Socket)
	}
	fmt.Fprintf(w, "formatted: %d\n", data.Formatted)
	if data.Failed > 0 && opts.UseColor {
		colorFprintf(w, color.FgRed, "failed: %d\n", data.Failed)
	} else {
		fmt.Fprintf(w, "failed: %d\n", data.Failed)
	}
	return nil
}

// Log outputs format request entries, one per line.
func Log(w io.Writer, entries []ipc.LogEntry, opts OutputOptions) error {
	for _, e := range entries {
		ts := time.UnixMilli(e.Timestamp).Local().Format("15:04:05.000")
		path := e.Path
		if path == "" {
			path = "-"
		}

		if opts.UseColor {
			colorFprintf(w, color.Faint, "[%s] ", ts)
		} else {
			fmt.Fprintf(w, "[%s] ", ts)
		}

		switch {
		case e.Error != "":
			if opts.UseColor {
				colorFprint(w, color.FgRed, "FAIL")
			} else {
				fmt.Fprint(w, "FAIL")
			}
			fmt.Fprintf(w, " %s: %s\n", path, e.Error)
		case e.Changed:
			if opts.UseColor {
				colorFprint(w, color.FgYellow, "CHANGED")
			} else {
				fmt.Fprint(w, "CHANGED")
			}
			fmt.Fprintf(w, " %s %d -> %d bytes (%.1fms)\n", path, e.InBytes, e.OutBytes, e.Duration)
		default:
			if opts.UseColor {
				colorFprint(w, color.FgGreen, "OK")
			} else {
				fmt.Fprint(w, "OK")
			}
			fmt.Fprintf(w, " %s %d bytes (%.1fms)\n", path, e.InBytes, e.Duration)
		}
	}
	return nil
}

// Formatted outputs the paths rewritten by format --write or watch.
func Formatted(w io.Writer, paths []string, opts OutputOptions) error {
	for _, p := range paths {
		if opts.UseColor {
			colorFprint(w, color.FgGreen, "formatted")
		} else {
			fmt.Fprint(w, "formatted")
		}
		fmt.Fprintf(w, " %s\n", p)
	}
	return nil
}

// Unformatted outputs the result of check: the files that would change,
// followed by a summary line.
func Unformatted(w io.Writer, paths []string, checked int, opts OutputOptions) error {
	for _, p := range paths {
		if opts.UseColor {
			colorFprint(w, color.FgYellow, "unformatted")
		} else {
			fmt.Fprint(w, "unformatted")
		}
		fmt.Fprintf(w, " %s\n", p)
	}

	switch {
	case len(paths) == 0:
		if opts.UseColor {
			colorFprintf(w, color.FgGreen, "%d %s formatted\n", checked, plural(checked, "file", "files"))
		} else {
			fmt.Fprintf(w, "%d %s formatted\n", checked, plural(checked, "file", "files"))
		}
	default:
		fmt.Fprintf(w, "%d of %d %s need formatting\n", len(paths), checked, plural(checked, "file", "files"))
	}
	return nil
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
