package htmlformat

import "github.com/grantcarthew/htmlfmt/internal/kinds"

// mode is the formatting context in effect at a point in the document.
type mode struct {
	inline   bool // Sticky: set for every descendant of an inline element
	embedded bool // Inside script/style
	verbatim bool // Sticky like inline: markup nested in pre stays verbatim
}

// frame records the mode in effect before an element was entered.
type frame struct {
	saved    mode
	name     string
	indented bool // The element raised the nesting depth
	broken   bool // A line break was written inside the element
}

// contextStack tracks one frame per open non-self-closing element.
type contextStack struct {
	frames []frame
	cur    mode
}

// enter pushes the current mode and derives the mode for the element's content.
func (c *contextStack) enter(name string, k *kinds.Kinds, indented bool) {
	c.frames = append(c.frames, frame{saved: c.cur, name: name, indented: indented})
	c.cur = mode{
		inline:   c.cur.inline || k.IsInline(name),
		embedded: k.IsEmbedded(name),
		verbatim: c.cur.verbatim || k.IsVerbatim(name),
	}
}

// leave pops the innermost frame and restores its mode. With nothing open it
// is a no-op and reports false.
func (c *contextStack) leave() (frame, bool) {
	if len(c.frames) == 0 {
		return frame{}, false
	}
	f := c.frames[len(c.frames)-1]
	c.frames = c.frames[:len(c.frames)-1]
	c.cur = f.saved
	if f.broken {
		c.markBroken()
	}
	return f, true
}

func (c *contextStack) top() (frame, bool) {
	if len(c.frames) == 0 {
		return frame{}, false
	}
	return c.frames[len(c.frames)-1], true
}

// markBroken notes that the innermost element now spans several lines.
func (c *contextStack) markBroken() {
	if len(c.frames) > 0 {
		c.frames[len(c.frames)-1].broken = true
	}
}
