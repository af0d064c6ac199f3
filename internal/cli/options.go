package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/grantcarthew/htmlfmt/internal/config"
	"github.com/grantcarthew/htmlfmt/internal/htmlformat"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// optionFlags holds the formatting flags shared by every command that formats.
type optionFlags struct {
	indent       int
	tabs         bool
	spacesPerTab int
	noFormat     bool
	noComments   bool
	styles       bool
	config       string
}

var optFlags optionFlags

// optionFlagNames lists the flags that override config file settings.
var optionFlagNames = []string{"indent", "tabs", "spaces-per-tab", "no-format", "no-comments", "styles", "config"}

func addOptionFlags(fs *pflag.FlagSet) {
	defaults := htmlformat.DefaultOptions()
	fs.IntVarP(&optFlags.indent, "indent", "i", defaults.Indent, "Spaces per nesting level")
	fs.BoolVar(&optFlags.tabs, "tabs", defaults.Tabs, "Indent with tabs")
	fs.IntVar(&optFlags.spacesPerTab, "spaces-per-tab", defaults.SpacesPerTab, "Tab width when re-indenting script and style bodies")
	fs.BoolVar(&optFlags.noFormat, "no-format", false, "Collapse whitespace without line breaks or indentation")
	fs.BoolVar(&optFlags.noComments, "no-comments", false, "Drop comments")
	fs.BoolVar(&optFlags.styles, "styles", defaults.Styles, "Lay out style bodies as CSS")
	fs.StringVarP(&optFlags.config, "config", "c", "", "Config file (default: nearest .htmlfmt.yml)")
}

// optionFlagsSet reports whether any option flag was given.
func optionFlagsSet(cmd *cobra.Command) bool {
	for _, name := range optionFlagNames {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			return true
		}
	}
	return false
}

// resolveOptions builds the options for a command. Defaults are overlaid
// by the config file (--config, else the nearest one above dir) and then by
// the flags the user set. When perPath is true and no option flag was
// given, it returns nil so the formatter finds the config for each file.
func resolveOptions(cmd *cobra.Command, dir string, perPath bool) (*htmlformat.Options, error) {
	if perPath && !optionFlagsSet(cmd) {
		return nil, nil
	}

	var (
		file *config.File
		err  error
	)
	if optFlags.config != "" {
		file, err = config.Load(optFlags.config)
	} else {
		if dir == "" {
			if dir, err = os.Getwd(); err != nil {
				return nil, err
			}
		}
		file, err = config.Discover(dir)
	}
	if err != nil {
		return nil, err
	}
	if file.Path != "" {
		debugf("Using config %s", file.Path)
	}

	opts := file.Options()
	flags := cmd.Flags()
	if flags.Changed("indent") {
		opts.Indent = optFlags.indent
	}
	if flags.Changed("tabs") {
		opts.Tabs = optFlags.tabs
	}
	if flags.Changed("spaces-per-tab") {
		opts.SpacesPerTab = optFlags.spacesPerTab
	}
	if flags.Changed("no-format") {
		opts.Formatting = !optFlags.noFormat
	}
	if flags.Changed("no-comments") {
		opts.Comments = !optFlags.noComments
	}
	if flags.Changed("styles") {
		opts.Styles = optFlags.styles
	}

	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &opts, nil
}

// commonDir returns the directory used for config discovery when several
// paths share one set of options: the first path's directory.
func commonDir(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	info, err := os.Stat(paths[0])
	if err == nil && info.IsDir() {
		return paths[0]
	}
	return filepath.Dir(paths[0])
}

// withNewline terminates formatted output for writing to a file or stdout.
func withNewline(s string) string {
	if s == "" {
		return s
	}
	return s + "\n"
}

func describeOptions(opts *htmlformat.Options) string {
	if opts == nil {
		return "per-file config"
	}
	return fmt.Sprintf("indent=%d tabs=%t formatting=%t comments=%t styles=%t",
		opts.Indent, opts.Tabs, opts.Formatting, opts.Comments, opts.Styles)
}
