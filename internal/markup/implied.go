package markup

import "github.com/grantcarthew/htmlfmt/internal/kinds"

var (
	pTag        = kinds.NewSet("p")
	formTags    = kinds.NewSet("input", "option", "optgroup", "select", "button", "datalist", "textarea")
	tableRow    = kinds.NewSet("tr", "th", "td")
	tableHead   = kinds.NewSet("thead", "tbody")
	definitions = kinds.NewSet("dd", "dt")
	ruby        = kinds.NewSet("rt", "rp")
)

// openImpliesClose maps a tag to the set of elements it closes when one of
// them is the innermost open element at the time the tag opens.
var openImpliesClose = map[string]kinds.Set{
	"tr":         tableRow,
	"th":         kinds.NewSet("th"),
	"td":         kinds.NewSet("thead", "th", "td"),
	"body":       kinds.NewSet("head", "link", "script"),
	"li":         kinds.NewSet("li"),
	"p":          pTag,
	"h1":         pTag,
	"h2":         pTag,
	"h3":         pTag,
	"h4":         pTag,
	"h5":         pTag,
	"h6":         pTag,
	"select":     formTags,
	"input":      formTags,
	"output":     formTags,
	"button":     formTags,
	"datalist":   formTags,
	"textarea":   formTags,
	"option":     kinds.NewSet("option"),
	"optgroup":   kinds.NewSet("optgroup", "option"),
	"dd":         definitions,
	"dt":         definitions,
	"address":    pTag,
	"article":    pTag,
	"aside":      pTag,
	"blockquote": pTag,
	"details":    pTag,
	"div":        pTag,
	"dl":         pTag,
	"fieldset":   pTag,
	"figcaption": pTag,
	"figure":     pTag,
	"footer":     pTag,
	"form":       pTag,
	"header":     pTag,
	"hr":         pTag,
	"main":       pTag,
	"nav":        pTag,
	"ol":         pTag,
	"pre":        pTag,
	"section":    pTag,
	"table":      pTag,
	"ul":         pTag,
	"rt":         ruby,
	"rp":         ruby,
	"tbody":      tableHead,
	"tfoot":      tableHead,
}

// foreignRoots open contexts where "/>" really closes an element.
var foreignRoots = kinds.NewSet("svg", "math")
