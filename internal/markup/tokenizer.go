package markup

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/grantcarthew/htmlfmt/internal/kinds"
	"golang.org/x/net/html"
)

// Tokenizer adapts the x/net/html tokenizer into a repaired event stream.
// Self-closing elements get a synthetic close right after their open,
// implied and missing closes are inserted, and stray end tags are dropped,
// so every TagClose matches an earlier TagOpen.
type Tokenizer struct {
	z     *html.Tokenizer
	kinds *kinds.Kinds
	open  []string
	queue []Event
	ended bool
}

// NewTokenizer creates a tokenizer reading HTML from r. A nil k uses the
// default classification.
func NewTokenizer(r io.Reader, k *kinds.Kinds) *Tokenizer {
	if k == nil {
		k = kinds.Default()
	}
	return &Tokenizer{
		z:     html.NewTokenizer(r),
		kinds: k,
	}
}

// Next returns the next event. After the End event it returns io.EOF.
// Read errors other than io.EOF are returned as is.
func (t *Tokenizer) Next() (Event, error) {
	for len(t.queue) == 0 {
		if t.ended {
			return Event{}, io.EOF
		}
		if err := t.advance(); err != nil {
			return Event{}, err
		}
	}
	ev := t.queue[0]
	t.queue = t.queue[1:]
	return ev, nil
}

// advance consumes one raw token and queues the events it produces.
func (t *Tokenizer) advance() error {
	tt := t.z.Next()
	switch tt {
	case html.ErrorToken:
		err := t.z.Err()
		if !errors.Is(err, io.EOF) {
			return err
		}
		for len(t.open) > 0 {
			t.pop()
		}
		t.emit(EndEvent())
		t.ended = true

	case html.TextToken:
		if data := normalizeNewlines(string(t.z.Raw())); data != "" {
			t.emit(TextEvent(data))
		}

	case html.CommentToken:
		raw := normalizeNewlines(string(t.z.Raw()))
		if strings.HasPrefix(raw, "<!--") {
			body := strings.TrimPrefix(raw, "<!--")
			body = strings.TrimSuffix(body, "-->")
			t.emit(CommentEvent(body))
		} else {
			// <?xml ...?> and <!...> declarations surface as bogus comments.
			t.emit(InstructionEvent(trimAngles(raw)))
		}

	case html.DoctypeToken:
		t.emit(InstructionEvent(trimAngles(string(t.z.Raw()))))

	case html.StartTagToken, html.SelfClosingTagToken:
		name, attrs := t.tag()
		t.closeImplied(name)
		t.emit(OpenTag(name, attrs...))
		switch {
		case t.kinds.IsSelfClosing(name):
			t.emit(CloseTag(name))
		case tt == html.SelfClosingTagToken && (foreignRoots.Has(name) || t.inForeign()):
			t.emit(CloseTag(name))
		default:
			t.open = append(t.open, name)
		}

	case html.EndTagToken:
		nameBytes, _ := t.z.TagName()
		name := string(nameBytes)
		if t.kinds.IsSelfClosing(name) {
			return nil
		}
		idx := t.lastOpen(name)
		if idx < 0 {
			return nil
		}
		for len(t.open) > idx {
			t.pop()
		}
	}
	return nil
}

// attrEscaper re-encodes a decoded attribute value for a double-quoted
// attribute. Ampersands must be escaped so that decoding the output again
// yields the same value.
var attrEscaper = strings.NewReplacer("&", "&amp;", `"`, "&quot;")

// tag reads the current tag name and its attributes. The first occurrence
// of a duplicated attribute wins.
func (t *Tokenizer) tag() (string, []Attr) {
	nameBytes, hasAttr := t.z.TagName()
	name := string(nameBytes)

	var attrs []Attr
	seen := make(map[string]bool)
	for hasAttr {
		var key, val []byte
		key, val, hasAttr = t.z.TagAttr()
		k := string(key)
		if seen[k] {
			continue
		}
		seen[k] = true
		attrs = append(attrs, Attr{
			Name:  k,
			Value: attrEscaper.Replace(string(val)),
		})
	}
	return name, attrs
}

func (t *Tokenizer) closeImplied(name string) {
	closes, ok := openImpliesClose[name]
	if !ok {
		return
	}
	for len(t.open) > 0 && closes.Has(t.open[len(t.open)-1]) {
		t.pop()
	}
}

func (t *Tokenizer) inForeign() bool {
	for _, n := range t.open {
		if foreignRoots.Has(n) {
			return true
		}
	}
	return false
}

func (t *Tokenizer) lastOpen(name string) int {
	for i := len(t.open) - 1; i >= 0; i-- {
		if t.open[i] == name {
			return i
		}
	}
	return -1
}

func (t *Tokenizer) pop() {
	name := t.open[len(t.open)-1]
	t.open = t.open[:len(t.open)-1]
	t.emit(CloseTag(name))
}

func (t *Tokenizer) emit(ev Event) {
	t.queue = append(t.queue, ev)
}

// All tokenizes r completely and returns every event including End.
func All(r io.Reader, k *kinds.Kinds) ([]Event, error) {
	t := NewTokenizer(r, k)
	var events []Event
	for {
		ev, err := t.Next()
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
}

// Stream tokenizes r in a goroutine and delivers events in order on the
// returned channel, ending with End. The error channel receives at most one
// error (a read failure or ctx.Err()) and is closed when the goroutine exits.
func Stream(ctx context.Context, r io.Reader, k *kinds.Kinds) (<-chan Event, <-chan error) {
	events := make(chan Event)
	errc := make(chan error, 1)

	go func() {
		defer close(errc)
		defer close(events)

		t := NewTokenizer(r, k)
		for {
			ev, err := t.Next()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				errc <- err
				return
			}
			select {
			case events <- ev:
			case <-ctx.Done():
				errc <- ctx.Err()
				return
			}
		}
	}()

	return events, errc
}

func trimAngles(raw string) string {
	raw = strings.TrimPrefix(raw, "<")
	return strings.TrimSuffix(raw, ">")
}

func normalizeNewlines(s string) string {
	if !strings.Contains(s, "\r") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}
