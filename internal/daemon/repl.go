package daemon

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/grantcarthew/htmlfmt/internal/htmlformat"
	"github.com/grantcarthew/htmlfmt/internal/ipc"
	"github.com/peterh/liner"
	"golang.org/x/term"
)

// StatsProvider returns the number of documents formatted so far.
type StatsProvider func() int64

// REPL provides an interactive interface for formatting snippets and
// querying the daemon.
type REPL struct {
	handler   ipc.Handler
	cmdExec   ipc.CommandExecutor
	statsProv StatsProvider
	liner     *liner.State
	history   []string
	shutdown  func()
	opts      htmlformat.Options
	out       io.Writer
	quit      bool
}

// NewREPL creates a new REPL with the given handler, command executor, and shutdown callback.
// The cmdExec function executes CLI commands with full flag support.
// If cmdExec is nil, REPL falls back to basic IPC-only command execution.
func NewREPL(handler ipc.Handler, cmdExec ipc.CommandExecutor, shutdown func()) *REPL {
	return &REPL{
		handler:  handler,
		cmdExec:  cmdExec,
		shutdown: shutdown,
		opts:     htmlformat.DefaultOptions(),
		out:      os.Stdout,
	}
}

// SetStatsProvider sets the provider used for the prompt counter.
func (r *REPL) SetStatsProvider(sp StatsProvider) {
	r.statsProv = sp
}

// SetOptions sets the options used for snippets entered at the prompt.
func (r *REPL) SetOptions(opts htmlformat.Options) {
	r.opts = opts
}

// IsStdinTTY returns true if stdin is a terminal.
func IsStdinTTY() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// Run starts the REPL loop. Blocks until exit command or EOF.
func (r *REPL) Run() error {
	r.liner = liner.NewLiner()
	defer r.liner.Close()

	r.liner.SetCtrlCAborts(true)

	for {
		line, err := r.liner.Prompt(r.prompt())
		if err != nil {
			if err == liner.ErrPromptAborted || err == io.EOF {
				return nil
			}
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		r.liner.AppendHistory(line)
		r.history = append(r.history, line)

		if r.handleSpecialCommand(line) {
			if r.quit {
				return nil
			}
			continue
		}

		r.executeCommand(line)
	}
}

// prompt generates the REPL prompt with the formatted-document count.
func (r *REPL) prompt() string {
	if r.statsProv == nil {
		return "htmlfmt> "
	}
	if n := r.statsProv(); n > 0 {
		return fmt.Sprintf("htmlfmt [%d]> ", n)
	}
	return "htmlfmt> "
}

// replCommands lists REPL-specific commands for abbreviation matching.
// "stop" is left out so "st" still reaches status.
var replCommands = []string{"exit", "quit", "help", "history", "set", "options"}

// daemonCommands lists daemon commands for abbreviation matching.
var daemonCommands = []string{"status", "log", "clear"}

// expandAbbreviation expands a command prefix to a full command name.
// Returns the expanded command and true if exactly one match found.
// Returns empty string and false if no matches or ambiguous.
func expandAbbreviation(prefix string, commands []string) (string, bool) {
	prefix = strings.ToLower(prefix)
	var matches []string
	for _, cmd := range commands {
		if strings.HasPrefix(cmd, prefix) {
			matches = append(matches, cmd)
		}
	}
	if len(matches) == 1 {
		return matches[0], true
	}
	return "", false
}

// handleSpecialCommand handles REPL-specific commands.
// Returns true if the command was handled, false otherwise.
func (r *REPL) handleSpecialCommand(line string) bool {
	if isMarkup(line) {
		return false
	}
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])

	// Try to expand abbreviation
	if expanded, ok := expandAbbreviation(cmd, replCommands); ok {
		cmd = expanded
	}

	switch cmd {
	case "exit", "quit", "stop":
		r.quit = true
		if r.shutdown != nil {
			r.shutdown()
		}
		return true

	case "help", "?":
		r.printHelp()
		return true

	case "history":
		r.printHistory()
		return true

	case "options":
		r.outputJSON(r.opts)
		return true

	case "set":
		if err := r.set(parts[1:]); err != nil {
			r.outputError(err.Error())
		}
		return true
	}

	return false
}

// set changes one snippet option, e.g. "set indent 4" or "set tabs on".
func (r *REPL) set(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: set <option> <value>")
	}
	name, value := strings.ToLower(args[0]), args[1]

	opts := r.opts
	switch name {
	case "indent", "spacespertab":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%s must be a number, got %q", name, value)
		}
		if name == "indent" {
			opts.Indent = n
		} else {
			opts.SpacesPerTab = n
		}
	case "tabs", "formatting", "comments", "styles":
		b, err := parseSwitch(value)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		switch name {
		case "tabs":
			opts.Tabs = b
		case "formatting":
			opts.Formatting = b
		case "comments":
			opts.Comments = b
		case "styles":
			opts.Styles = b
		}
	default:
		return fmt.Errorf("unknown option: %s", name)
	}

	if err := opts.Validate(); err != nil {
		return err
	}
	r.opts = opts
	return nil
}

func parseSwitch(value string) (bool, error) {
	switch strings.ToLower(value) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", value)
}

// isMarkup reports whether a line should be formatted rather than run.
func isMarkup(line string) bool {
	return strings.HasPrefix(line, "<")
}

// executeCommand formats a snippet or runs a daemon command.
func (r *REPL) executeCommand(line string) {
	if isMarkup(line) {
		r.formatSnippet(line)
		return
	}

	args := strings.Fields(line)
	if len(args) == 0 {
		return
	}

	// Try to expand command abbreviation
	if expanded, ok := expandAbbreviation(args[0], daemonCommands); ok {
		args[0] = expanded
	}

	// Use command executor if available (provides full Cobra flag support)
	if r.cmdExec != nil {
		recognized, err := r.cmdExec(args)
		if !recognized {
			r.outputError(fmt.Sprintf("unknown command: %s", args[0]))
			return
		}
		// Errors are already output by the command, but Cobra may return an error
		// for flag parsing issues that aren't output
		if err != nil && !strings.Contains(err.Error(), "daemon") {
			r.outputError(err.Error())
		}
		return
	}

	// Fallback: basic IPC-only execution (no flag support)
	r.executeBasic(args)
}

// formatSnippet sends one line of markup through the handler and prints
// the formatted result.
func (r *REPL) formatSnippet(snippet string) {
	opts := r.opts
	data, err := ipc.Call[ipc.FormatData](r.handler.Send, ipc.CmdFormat, ipc.FormatParams{HTML: snippet, Options: &opts})
	if err != nil {
		r.outputError(err.Error())
		return
	}
	fmt.Fprintln(r.out, data.HTML)
}

// executeBasic provides basic command execution without Cobra flag support.
// This is a fallback when no CommandExecutor is provided.
func (r *REPL) executeBasic(args []string) {
	cmd := args[0]
	req := r.parseBasicCommand(cmd)
	if req == nil {
		r.outputError(fmt.Sprintf("unknown command: %s", cmd))
		return
	}

	resp := r.handler(*req)
	r.outputJSON(resp)
}

// parseBasicCommand converts a command to an IPC request (basic mode only).
func (r *REPL) parseBasicCommand(cmd string) *ipc.Request {
	switch cmd {
	case ipc.CmdStatus, ipc.CmdLog, ipc.CmdClear:
		return &ipc.Request{Cmd: cmd}
	default:
		return nil
	}
}

// isStdoutTTY returns true if stdout is a terminal.
func isStdoutTTY() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

// outputJSON writes data as JSON, pretty-printing if stdout is a TTY.
func (r *REPL) outputJSON(data any) {
	enc := json.NewEncoder(r.out)
	if isStdoutTTY() {
		enc.SetIndent("", "  ")
	}
	enc.Encode(data)
}

// outputError writes an error response as JSON.
func (r *REPL) outputError(msg string) {
	r.outputJSON(map[string]any{
		"ok":    false,
		"error": msg,
	})
}

// printHelp displays available commands.
func (r *REPL) printHelp() {
	help := `
Lines starting with < are formatted with the current options.

Commands (unique prefixes accepted: st=status, l=log, c=clear):
  status              Show daemon status
  log                 Show recent format requests
  clear               Clear the request log

REPL (unique prefixes accepted: he=help, hi=history, e=exit, q=quit, se=set, o=options):
  set <opt> <value>   Change an option: indent, spacesPerTab, tabs, formatting, comments, styles
  options             Show the current options
  help, ?             Show this help
  history             Show command history
  exit, quit          Stop daemon and exit
`
	fmt.Fprintln(r.out, help)
}

// printHistory displays command history.
func (r *REPL) printHistory() {
	for i, cmd := range r.history {
		fmt.Fprintf(r.out, "  %d  %s\n", i+1, cmd)
	}
}
