package htmlformat

import (
	"strings"

	"github.com/grantcarthew/htmlfmt/internal/kinds"
	"github.com/grantcarthew/htmlfmt/internal/markup"
)

// writeAttrs joins attributes in input order. A boolean attribute without a
// value is written bare; everything else is written name="value". Values
// arrive decoded and are not escaped again.
func writeAttrs(attrs []markup.Attr, k *kinds.Kinds) string {
	parts := make([]string, 0, len(attrs))
	for _, a := range attrs {
		if a.Value == "" && k.IsBooleanAttribute(a.Name) {
			parts = append(parts, a.Name)
			continue
		}
		parts = append(parts, a.Name+`="`+a.Value+`"`)
	}
	return strings.Join(parts, " ")
}

func openTag(name string, attrs []markup.Attr, k *kinds.Kinds) string {
	if len(attrs) == 0 {
		return "<" + name + ">"
	}
	return "<" + name + " " + writeAttrs(attrs, k) + ">"
}
