// Package kinds holds the tag and attribute classification tables used by
// the formatter and the markup tokenizer.
package kinds

import "sort"

// Set is a set of tag or attribute names.
type Set map[string]struct{}

// NewSet returns a set containing names.
func NewSet(names ...string) Set {
	s := make(Set, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

// Has reports whether name is in the set. A nil set contains nothing.
func (s Set) Has(name string) bool {
	_, ok := s[name]
	return ok
}

// Union returns a new set holding the members of s and names.
func (s Set) Union(names ...string) Set {
	out := make(Set, len(s)+len(names))
	for n := range s {
		out[n] = struct{}{}
	}
	for _, n := range names {
		out[n] = struct{}{}
	}
	return out
}

// Names returns the members in sorted order.
func (s Set) Names() []string {
	names := make([]string, 0, len(s))
	for n := range s {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Kinds answers category-membership questions about tag and attribute names.
// Unknown names belong to no category and are treated as block elements.
type Kinds struct {
	SelfClosing Set
	Inline      Set
	Embedded    Set
	Verbatim    Set
	Boolean     Set
}

// Default returns the HTML5 partition. Each call returns fresh sets, so
// callers may extend them without affecting other runs.
func Default() *Kinds {
	return &Kinds{
		SelfClosing: NewSet(
			"area", "base", "br", "col", "command", "embed", "hr", "img",
			"input", "keygen", "link", "meta", "param", "source", "track", "wbr",
		),
		Inline: NewSet(
			"a", "b", "br", "button", "canvas", "cite", "code", "data",
			"datalist", "em", "embed", "i", "iframe", "img", "input", "label",
			"map", "noscript", "object", "picture", "q", "s", "select", "span",
			"strong", "sub", "sup", "textarea", "u", "wbr",
		),
		Embedded: NewSet("script", "style"),
		Verbatim: NewSet("pre"),
		Boolean: NewSet(
			"allowfullscreen", "allowpaymentrequest", "async", "autofocus",
			"autoplay", "checked", "controls", "default", "defer", "disabled",
			"formnovalidate", "hidden", "ismap", "itemscope", "loop",
			"multiple", "muted", "nomodule", "novalidate", "open",
			"playsinline", "readonly", "required", "reversed", "selected",
			"truespeed",
		),
	}
}

// IsSelfClosing reports whether name is a singleton element with no closing tag.
func (k *Kinds) IsSelfClosing(name string) bool { return k.SelfClosing.Has(name) }

// IsInline reports whether name flows with surrounding text.
func (k *Kinds) IsInline(name string) bool { return k.Inline.Has(name) }

// IsEmbedded reports whether name carries raw non-HTML content.
func (k *Kinds) IsEmbedded(name string) bool { return k.Embedded.Has(name) }

// IsVerbatim reports whether the content of name is preserved byte for byte.
func (k *Kinds) IsVerbatim(name string) bool { return k.Verbatim.Has(name) }

// IsBooleanAttribute reports whether attribute name may be written without a value.
func (k *Kinds) IsBooleanAttribute(name string) bool { return k.Boolean.Has(name) }

// Clone returns a deep copy of k.
func (k *Kinds) Clone() *Kinds {
	return &Kinds{
		SelfClosing: k.SelfClosing.Union(),
		Inline:      k.Inline.Union(),
		Embedded:    k.Embedded.Union(),
		Verbatim:    k.Verbatim.Union(),
		Boolean:     k.Boolean.Union(),
	}
}
