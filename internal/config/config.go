// Package config loads .htmlfmt.yml files and turns them into formatter
// options.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/grantcarthew/htmlfmt/internal/htmlformat"
	"github.com/grantcarthew/htmlfmt/internal/kinds"
	"gopkg.in/yaml.v3"
)

// FileNames are the config file names searched for, in order.
var FileNames = []string{".htmlfmt.yml", ".htmlfmt.yaml"}

// File is the decoded contents of a config file. Unset keys are nil and
// leave the defaults alone.
type File struct {
	Indent       *int  `yaml:"indent" validate:"omitempty,gte=0"`
	Tabs         *bool `yaml:"tabs"`
	SpacesPerTab *int  `yaml:"spacesPerTab" validate:"omitempty,gte=1"`
	Formatting   *bool `yaml:"formatting"`
	Comments     *bool `yaml:"comments"`
	Styles       *bool `yaml:"styles"`
	Kinds        Kinds `yaml:"kinds"`

	// Path is where the file was read from, empty for built-in defaults.
	Path string `yaml:"-" validate:"-"`
}

// Kinds overrides the tag and attribute classification.
type Kinds struct {
	SelfClosing KindList `yaml:"selfClosing"`
	Inline      KindList `yaml:"inline"`
	Embedded    KindList `yaml:"embedded"`
	Verbatim    KindList `yaml:"verbatim"`
	Boolean     KindList `yaml:"boolean"`
}

// KindList either extends a default set or, with Replace, stands in for it.
// In YAML it is written as a plain list or as {names: [...], replace: true}.
type KindList struct {
	Names   []string `yaml:"names" validate:"dive,required,lowercase"`
	Replace bool     `yaml:"replace"`
}

// UnmarshalYAML accepts the plain list shorthand.
func (l *KindList) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.SequenceNode {
		l.Replace = false
		return n.Decode(&l.Names)
	}
	type plain KindList
	return n.Decode((*plain)(l))
}

func (l KindList) apply(base kinds.Set) kinds.Set {
	if l.Replace {
		return kinds.NewSet(l.Names...)
	}
	return base.Union(l.Names...)
}

// Apply returns a copy of base with the overrides applied.
func (k Kinds) Apply(base *kinds.Kinds) *kinds.Kinds {
	return &kinds.Kinds{
		SelfClosing: k.SelfClosing.apply(base.SelfClosing),
		Inline:      k.Inline.apply(base.Inline),
		Embedded:    k.Embedded.apply(base.Embedded),
		Verbatim:    k.Verbatim.apply(base.Verbatim),
		Boolean:     k.Boolean.apply(base.Boolean),
	}
}

func (k Kinds) empty() bool {
	for _, l := range []KindList{k.SelfClosing, k.Inline, k.Embedded, k.Verbatim, k.Boolean} {
		if l.Replace || len(l.Names) > 0 {
			return false
		}
	}
	return true
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Find looks for a config file in dir and each of its parents. It returns
// an empty path when none exists.
func Find(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		for _, name := range FileNames {
			p := filepath.Join(dir, name)
			info, err := os.Stat(p)
			if err == nil && !info.IsDir() {
				return p, nil
			}
			if err != nil && !errors.Is(err, os.ErrNotExist) {
				return "", err
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// Load reads and validates the config file at path. Unknown keys are
// rejected.
func Load(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	f, err := Decode(fh)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Decode parses and validates a config document. An empty document is a
// valid config with nothing set.
func Decode(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Discover finds the config that applies to files in dir. With no config
// file present it returns an empty File.
func Discover(dir string) (*File, error) {
	p, err := Find(dir)
	if err != nil {
		return nil, err
	}
	if p == "" {
		return &File{}, nil
	}
	return Load(p)
}

// Validate reports the first invalid value.
func (f *File) Validate() error {
	err := validate.Struct(f)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return err
	}
	fe := verrs[0]
	switch fe.Tag() {
	case "gte":
		return fmt.Errorf("%s must be at least %s, got %v", fe.Field(), fe.Param(), fe.Value())
	case "required":
		return fmt.Errorf("%s contains an empty name", fe.Namespace())
	case "lowercase":
		return fmt.Errorf("%s must be lowercase, got %q", fe.Namespace(), fe.Value())
	default:
		return fmt.Errorf("%s failed %q check", fe.Namespace(), fe.Tag())
	}
}

// Options returns the defaults with the file's settings applied.
func (f *File) Options() htmlformat.Options {
	opts := htmlformat.DefaultOptions()
	f.ApplyTo(&opts)
	return opts
}

// ApplyTo overwrites the settings of opts that the file sets.
func (f *File) ApplyTo(opts *htmlformat.Options) {
	if f.Indent != nil {
		opts.Indent = *f.Indent
	}
	if f.Tabs != nil {
		opts.Tabs = *f.Tabs
	}
	if f.SpacesPerTab != nil {
		opts.SpacesPerTab = *f.SpacesPerTab
	}
	if f.Formatting != nil {
		opts.Formatting = *f.Formatting
	}
	if f.Comments != nil {
		opts.Comments = *f.Comments
	}
	if f.Styles != nil {
		opts.Styles = *f.Styles
	}
	if !f.Kinds.empty() {
		base := opts.Kinds
		if base == nil {
			base = kinds.Default()
		}
		opts.Kinds = f.Kinds.Apply(base)
	}
}
