// Package htmlformat re-indents HTML from a stream of parse events. It keeps
// inline runs on one line, copies pre content verbatim, re-margins script and
// style bodies, and collapses insignificant whitespace everywhere else.
package htmlformat

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/grantcarthew/htmlfmt/internal/markup"
)

// Format formats an HTML document held in memory.
func Format(input string, opts Options) (string, error) {
	s, err := New(opts)
	if err != nil {
		return "", err
	}

	tok := markup.NewTokenizer(strings.NewReader(input), s.kinds)
	for {
		ev, err := tok.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if err := s.Handle(ev); err != nil {
			return "", err
		}
	}
	return s.Result()
}

// FormatReader formats HTML read incrementally from r. Tokenizing runs in
// its own goroutine and feeds the serializer in order. Cancelling ctx
// abandons the run without a partial result; the tokenizer goroutine exits
// once its pending read returns.
func FormatReader(ctx context.Context, r io.Reader, opts Options) (string, error) {
	s, err := New(opts)
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events, errc := markup.Stream(ctx, r, s.kinds)
	out, err := s.Run(ctx, events)
	if errors.Is(err, ErrStreamClosed) {
		// The tokenizer stopped early; its error explains why.
		if terr := <-errc; terr != nil {
			return "", terr
		}
	}
	if err != nil {
		return "", err
	}
	return out, nil
}

// FormatEvents formats an already tokenized event sequence. The sequence
// must end with an End event.
func FormatEvents(events []markup.Event, opts Options) (string, error) {
	s, err := New(opts)
	if err != nil {
		return "", err
	}
	for _, ev := range events {
		if err := s.Handle(ev); err != nil {
			return "", err
		}
	}
	return s.Result()
}
