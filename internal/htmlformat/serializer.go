package htmlformat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/grantcarthew/htmlfmt/internal/cssformat"
	"github.com/grantcarthew/htmlfmt/internal/kinds"
	"github.com/grantcarthew/htmlfmt/internal/markup"
)

var (
	// ErrNotFinished is returned by Result before the End event was handled.
	ErrNotFinished = errors.New("htmlformat: end of input not reached")
	// ErrFinished is returned by Handle for events after End.
	ErrFinished = errors.New("htmlformat: event after end of input")
	// ErrStreamClosed is returned by Run when the event channel closes before End.
	ErrStreamClosed = errors.New("htmlformat: event stream closed before end of input")
)

type nodeKind int

const (
	nodeNone nodeKind = iota
	nodeTag
	nodeCloseTag
	nodeText
)

// prevNode is the most recently written logical node.
type prevNode struct {
	kind          nodeKind
	name          string
	trailingSpace bool
}

// Serializer consumes parse events in order and builds the formatted
// output. A Serializer formats one document; it is not safe for concurrent
// use, and separate Serializers share no state.
type Serializer struct {
	opts   Options
	kinds  *kinds.Kinds
	unit   string
	depth  int
	ctx    contextStack
	prev   prevNode
	out    []string
	done   bool
	result string
}

// New returns a Serializer for opts, or an error if opts is invalid.
func New(opts Options) (*Serializer, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Serializer{
		opts:  opts,
		kinds: opts.kinds(),
		unit:  opts.unit(),
	}, nil
}

// Handle processes a single event.
func (s *Serializer) Handle(ev markup.Event) error {
	if s.done {
		return ErrFinished
	}

	switch ev.Kind {
	case markup.ProcessingInstruction:
		s.emit("<" + ev.Data + ">")
	case markup.TagOpen:
		s.openTag(ev.Name, ev.Attrs)
	case markup.TagClose:
		s.closeTag(ev.Name)
	case markup.Text:
		s.text(ev.Data)
	case markup.Comment:
		// Comments are written where they fall, without line or indent handling.
		if s.opts.Comments {
			s.emit("<!--" + ev.Data + "-->")
		}
	case markup.End:
		s.result = strings.Join(s.out, "")
		s.done = true
	default:
		return fmt.Errorf("htmlformat: unknown event kind %v", ev.Kind)
	}
	return nil
}

// Run handles events from ch until End and returns the formatted output.
// If ctx is cancelled first, the partial output is discarded.
func (s *Serializer) Run(ctx context.Context, ch <-chan markup.Event) (string, error) {
	for {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case ev, ok := <-ch:
			if !ok {
				return "", ErrStreamClosed
			}
			if err := s.Handle(ev); err != nil {
				return "", err
			}
			if s.done {
				return s.result, nil
			}
		}
	}
}

// Result returns the formatted output once End has been handled.
func (s *Serializer) Result() (string, error) {
	if !s.done {
		return "", ErrNotFinished
	}
	return s.result, nil
}

// Chunks returns the output tokens written so far, in order.
func (s *Serializer) Chunks() []string {
	return append([]string(nil), s.out...)
}

func (s *Serializer) openTag(name string, attrs []markup.Attr) {
	selfClosing := s.kinds.IsSelfClosing(name)
	inline := s.kinds.IsInline(name)
	parent := s.ctx.cur

	if !parent.verbatim {
		// Inline tags continue the current line when they follow inline
		// content or sit first inside an element.
		if inline && (s.inRun() || s.prev.kind == nodeTag) {
			if s.pendingSpace() {
				s.emit(" ")
			}
		} else {
			s.lineBreak()
		}
	}

	s.emit(openTag(name, attrs, s.kinds))

	if !selfClosing {
		indented := !inline && !s.kinds.IsVerbatim(name) && !parent.inline && !parent.verbatim
		if indented {
			s.depth++
		}
		s.ctx.enter(name, s.kinds, indented)
	}
	s.prev = prevNode{kind: nodeTag, name: name}
}

func (s *Serializer) closeTag(name string) {
	if s.kinds.IsSelfClosing(name) {
		s.prev = prevNode{kind: nodeCloseTag, name: name}
		return
	}

	f, open := s.ctx.top()
	inner := s.ctx.cur
	if open && f.indented && s.depth > 0 {
		s.depth--
	}

	switch {
	case inner.verbatim:
	case inner.embedded && open && f.broken:
		// A re-margined body ends on its own line even inside an inline run.
		s.lineBreak()
	case inner.inline:
		if s.pendingSpace() {
			s.emit(" ")
		}
	case open && f.broken:
		s.lineBreak()
	}

	s.emit("</" + name + ">")
	s.ctx.leave()
	s.prev = prevNode{kind: nodeCloseTag, name: name}
}

func (s *Serializer) text(raw string) {
	switch {
	case s.ctx.cur.verbatim:
		s.emit(raw)
		s.prev = prevNode{kind: nodeText}
	case s.ctx.cur.embedded:
		s.embedded(raw)
	default:
		s.normalText(raw)
	}
}

func (s *Serializer) normalText(raw string) {
	run := normalizeText(raw)
	flowing := s.ctx.cur.inline || s.inRun()

	if run.content == "" {
		// Whitespace between inline nodes still separates words.
		if flowing {
			s.prev = prevNode{kind: nodeText, trailingSpace: run.trailing || s.pendingSpace()}
		}
		return
	}

	switch {
	case flowing:
		if run.leading || s.pendingSpace() {
			s.emit(" ")
		}
	case s.prev.kind == nodeTag:
		// First content of a block element stays on the opening line.
	default:
		s.lineBreak()
	}

	s.emit(run.content)
	s.prev = prevNode{kind: nodeText, trailingSpace: run.trailing}
}

func (s *Serializer) embedded(raw string) {
	if s.opts.Styles {
		if f, ok := s.ctx.top(); ok && f.name == "style" {
			raw = cssformat.Format(raw, s.unit)
		}
	}

	body := reindent(raw, s.indentation(), s.opts.SpacesPerTab)
	if body == "" {
		return
	}
	if s.opts.Formatting {
		s.emit("\n")
		s.ctx.markBroken()
	}
	s.emit(body)
	s.prev = prevNode{kind: nodeText}
}

// inRun reports whether the previous node belongs to an inline flow.
func (s *Serializer) inRun() bool {
	switch s.prev.kind {
	case nodeText:
		return true
	case nodeTag, nodeCloseTag:
		return s.kinds.IsInline(s.prev.name)
	}
	return false
}

// pendingSpace reports whether the previous text dropped trailing whitespace
// that still has to separate it from what follows on the same line.
func (s *Serializer) pendingSpace() bool {
	return s.prev.kind == nodeText && s.prev.trailingSpace
}

// lineBreak starts a new line at the current depth, unless formatting is
// off or nothing has been written yet.
func (s *Serializer) lineBreak() {
	if !s.opts.Formatting || len(s.out) == 0 {
		return
	}
	s.emit("\n" + s.indentation())
	s.ctx.markBroken()
}

func (s *Serializer) indentation() string {
	if !s.opts.Formatting {
		return ""
	}
	return strings.Repeat(s.unit, s.depth)
}

func (s *Serializer) emit(tok string) {
	s.out = append(s.out, tok)
}
