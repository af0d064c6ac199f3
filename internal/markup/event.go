// Package markup turns HTML source into the ordered event stream consumed by
// the formatter: processing instructions, tag opens and closes, text,
// comments and a final end-of-input marker.
package markup

import "fmt"

// Kind identifies the variant of an Event.
type Kind int

const (
	ProcessingInstruction Kind = iota
	TagOpen
	TagClose
	Text
	Comment
	End
)

func (k Kind) String() string {
	switch k {
	case ProcessingInstruction:
		return "ProcessingInstruction"
	case TagOpen:
		return "TagOpen"
	case TagClose:
		return "TagClose"
	case Text:
		return "Text"
	case Comment:
		return "Comment"
	case End:
		return "End"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Attr is a single attribute with its entity-decoded value.
// An empty Value means the attribute was present without a value.
type Attr struct {
	Name  string
	Value string
}

// Event is one parse event. Name and Attrs are set for tag events, Data for
// processing instructions, text and comments.
type Event struct {
	Kind  Kind
	Name  string
	Attrs []Attr
	Data  string
}

func (e Event) String() string {
	switch e.Kind {
	case TagOpen:
		return fmt.Sprintf("TagOpen(%s %v)", e.Name, e.Attrs)
	case TagClose:
		return fmt.Sprintf("TagClose(%s)", e.Name)
	case End:
		return "End"
	default:
		return fmt.Sprintf("%s(%q)", e.Kind, e.Data)
	}
}

// OpenTag returns a TagOpen event.
func OpenTag(name string, attrs ...Attr) Event {
	return Event{Kind: TagOpen, Name: name, Attrs: attrs}
}

// CloseTag returns a TagClose event.
func CloseTag(name string) Event {
	return Event{Kind: TagClose, Name: name}
}

// TextEvent returns a Text event carrying raw character data.
func TextEvent(data string) Event {
	return Event{Kind: Text, Data: data}
}

// CommentEvent returns a Comment event carrying the comment body.
func CommentEvent(data string) Event {
	return Event{Kind: Comment, Data: data}
}

// InstructionEvent returns a ProcessingInstruction event, e.g. "!DOCTYPE html".
func InstructionEvent(data string) Event {
	return Event{Kind: ProcessingInstruction, Data: data}
}

// EndEvent returns the end-of-input marker.
func EndEvent() Event {
	return Event{Kind: End}
}
