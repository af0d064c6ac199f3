package htmlformat

import (
	"fmt"
	"strings"
	"testing"

	"github.com/grantcarthew/htmlfmt/internal/kinds"
)

func format(t *testing.T, input string, opts Options) string {
	t.Helper()
	result, err := Format(input, opts)
	if err != nil {
		t.Fatalf("Format() error = %v", err)
	}
	return result
}

func TestFormat_Scenarios(t *testing.T) {
	noFormatting := DefaultOptions()
	noFormatting.Formatting = false
	noComments := DefaultOptions()
	noComments.Comments = false

	tests := []struct {
		name  string
		input string
		opts  Options
		want  string
	}{
		{
			name:  "collapses whitespace inside paragraph",
			input: `<div><p>Hello   world</p></div>`,
			opts:  DefaultOptions(),
			want:  "<div>\n  <p>Hello world</p>\n</div>",
		},
		{
			name:  "self-closing element has no close tag",
			input: `<img src="a.png">`,
			opts:  DefaultOptions(),
			want:  `<img src="a.png">`,
		},
		{
			name:  "boolean attribute written bare",
			input: `<input checked="">`,
			opts:  DefaultOptions(),
			want:  `<input checked>`,
		},
		{
			name:  "formatting off",
			input: "<div>\n  <p>x</p>\n</div>",
			opts:  noFormatting,
			want:  "<div><p>x</p></div>",
		},
		{
			name:  "comments off",
			input: `<div><!--hi--><p>x</p></div>`,
			opts:  noComments,
			want:  "<div>\n  <p>x</p>\n</div>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := format(t, tt.input, tt.opts)
			if result != tt.want {
				t.Errorf("Format():\ngot:\n%q\nwant:\n%q", result, tt.want)
			}
		})
	}
}

func TestFormat_MinifiedHTML(t *testing.T) {
	input := `<!DOCTYPE html><html><head><title>Test</title></head><body><div><p>Text</p></div></body></html>`
	result := format(t, input, DefaultOptions())

	expected := []string{
		"<!DOCTYPE html>",
		"<html>",
		"  <head>",
		"    <title>Test</title>",
		"  </head>",
		"  <body>",
		"    <div>",
		"      <p>Text</p>",
		"    </div>",
		"  </body>",
		"</html>",
	}

	lines := strings.Split(result, "\n")
	if len(lines) != len(expected) {
		t.Fatalf("Expected %d lines, got %d:\n%s", len(expected), len(lines), result)
	}
	for i, exp := range expected {
		if lines[i] != exp {
			t.Errorf("Line %d: got %q, want %q", i, lines[i], exp)
		}
	}
}

func TestFormat_NestedElements(t *testing.T) {
	input := `<div><ul><li>Item 1</li><li>Item 2</li></ul></div>`
	result := format(t, input, DefaultOptions())

	expected := `<div>
  <ul>
    <li>Item 1</li>
    <li>Item 2</li>
  </ul>
</div>`

	if result != expected {
		t.Errorf("Format() nested elements:\ngot:\n%s\nwant:\n%s", result, expected)
	}
}

func TestFormat_ComplexNesting(t *testing.T) {
	input := `<html><body><div class="container"><header><h1>Title</h1></header><main><article><h2>Article</h2><p>Content</p></article></main><footer>Footer</footer></div></body></html>`
	result := format(t, input, DefaultOptions())

	expected := `<html>
  <body>
    <div class="container">
      <header>
        <h1>Title</h1>
      </header>
      <main>
        <article>
          <h2>Article</h2>
          <p>Content</p>
        </article>
      </main>
      <footer>Footer</footer>
    </div>
  </body>
</html>`

	if result != expected {
		t.Errorf("Format() complex nesting:\ngot:\n%s\nwant:\n%s", result, expected)
	}
}

func TestFormat_InlineRuns(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "inline tags keep word boundaries",
			input: `<div><p>Hello <b>big</b> world</p></div>`,
			want:  "<div>\n  <p>Hello <b>big</b> world</p>\n</div>",
		},
		{
			name:  "links and emphasis",
			input: `<p>Some <a href="#">link</a> and <em>emphasis</em>.</p>`,
			want:  `<p>Some <a href="#">link</a> and <em>emphasis</em>.</p>`,
		},
		{
			name:  "whitespace-only text between inline tags",
			input: `<p><b>a</b> <i>b</i></p>`,
			want:  `<p><b>a</b> <i>b</i></p>`,
		},
		{
			name:  "no space added where source had none",
			input: `<p>Text before<strong>bold</strong>text after</p>`,
			want:  `<p>Text before<strong>bold</strong>text after</p>`,
		},
		{
			name:  "line break element",
			input: `<p>a<br>b</p>`,
			want:  `<p>a<br>b</p>`,
		},
		{
			name:  "form controls",
			input: `<form><label>Name <input type="text" name="n"></label><button type="submit">Go</button></form>`,
			want:  `<form><label>Name <input type="text" name="n"></label><button type="submit">Go</button></form>`,
		},
		{
			name:  "newlines inside inline run",
			input: "<p>one\n  <em>two</em>\n  three</p>",
			want:  "<p>one <em>two</em> three</p>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := format(t, tt.input, DefaultOptions())
			if result != tt.want {
				t.Errorf("Format():\ngot:\n%q\nwant:\n%q", result, tt.want)
			}
		})
	}
}

func TestFormat_TextNodeHandling(t *testing.T) {
	input := `<p>This is  some    text   with     spaces</p>`
	result := format(t, input, DefaultOptions())

	expected := `<p>This is some text with spaces</p>`
	if result != expected {
		t.Errorf("Format() text handling:\ngot:\n%s\nwant:\n%s", result, expected)
	}
}

func TestFormat_TextAroundBlocks(t *testing.T) {
	input := `<div>Intro<p>x</p>Outro</div>`
	result := format(t, input, DefaultOptions())

	expected := "<div>Intro\n  <p>x</p>\n  Outro\n</div>"
	if result != expected {
		t.Errorf("Format() text around blocks:\ngot:\n%q\nwant:\n%q", result, expected)
	}
}

func TestFormat_EmptyElements(t *testing.T) {
	input := `<div></div><p></p>`
	result := format(t, input, DefaultOptions())

	expected := "<div></div>\n<p></p>"
	if result != expected {
		t.Errorf("Format() empty elements:\ngot:\n%q\nwant:\n%q", result, expected)
	}
}

func TestFormat_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "   \n\t"} {
		if result := format(t, input, DefaultOptions()); result != "" {
			t.Errorf("Format(%q) = %q, want empty", input, result)
		}
	}
}

func TestFormat_CommentsAndDoctype(t *testing.T) {
	input := `<!DOCTYPE html><!-- Main content --><html><head><!-- Head section --><title>Test</title></head></html>`
	result := format(t, input, DefaultOptions())

	// Comments land where they fall, without line breaks of their own.
	expected := `<!DOCTYPE html><!-- Main content -->
<html>
  <head><!-- Head section -->
    <title>Test</title>
  </head>
</html>`

	if result != expected {
		t.Errorf("Format() comments and doctype:\ngot:\n%s\nwant:\n%s", result, expected)
	}
}

func TestFormat_ProcessingInstruction(t *testing.T) {
	input := `<?xml version="1.0"?><root></root>`
	result := format(t, input, DefaultOptions())

	expected := "<?xml version=\"1.0\"?>\n<root></root>"
	if result != expected {
		t.Errorf("Format() processing instruction:\ngot:\n%q\nwant:\n%q", result, expected)
	}
}

func TestFormat_PreTagPreservation(t *testing.T) {
	input := "<pre>  Line 1\n    Line 2\n  Line 3</pre>"
	result := format(t, input, DefaultOptions())

	if result != input {
		t.Errorf("Format() pre content changed:\ngot:\n%q\nwant:\n%q", result, input)
	}
}

func TestFormat_NestedPreTag(t *testing.T) {
	input := "<div><pre><code>  x\n  y</code></pre><p>Normal   text</p></div>"
	result := format(t, input, DefaultOptions())

	expected := "<div>\n  <pre><code>  x\n  y</code></pre>\n  <p>Normal text</p>\n</div>"
	if result != expected {
		t.Errorf("Format() nested pre:\ngot:\n%q\nwant:\n%q", result, expected)
	}
}

func TestFormat_ScriptReindented(t *testing.T) {
	input := "<div><script>\n    a();\n      b();\n        c();\n</script></div>"
	result := format(t, input, DefaultOptions())

	expected := `<div>
  <script>
    a();
      b();
        c();
  </script>
</div>`

	if result != expected {
		t.Errorf("Format() script:\ngot:\n%s\nwant:\n%s", result, expected)
	}
}

func TestFormat_ScriptTagPreservation(t *testing.T) {
	input := `<html><head><script>
function test() {
  if (true) {
    console.log("indented");
  }
}
</script></head></html>`
	result := format(t, input, DefaultOptions())

	// Relative indentation survives, re-based on the script's depth
	want := "      function test() {\n        if (true) {\n          console.log(\"indented\");\n        }\n      }"
	if !strings.Contains(result, want) {
		t.Errorf("Script content not re-margined:\n%s", result)
	}
}

func TestFormat_ScriptWithBlankLines(t *testing.T) {
	input := "<script>\n\n  var x = 1;\n\n  var y = 2;\n\n</script>"
	result := format(t, input, DefaultOptions())

	expected := "<script>\n  var x = 1;\n\n  var y = 2;\n</script>"
	if result != expected {
		t.Errorf("Format() script blank lines:\ngot:\n%q\nwant:\n%q", result, expected)
	}
}

func TestFormat_EmptyScriptAndStyle(t *testing.T) {
	input := `<script></script><style>  </style>`
	result := format(t, input, DefaultOptions())

	expected := "<script></script>\n<style></style>"
	if result != expected {
		t.Errorf("Format() empty script/style:\ngot:\n%q\nwant:\n%q", result, expected)
	}
}

func TestFormat_IndentAfterRawTag(t *testing.T) {
	input := `<html><head><meta charset="utf-8"><style>body{margin:0;}</style><title>Test</title></head><body><p>Content</p></body></html>`
	result := format(t, input, DefaultOptions())

	expected := `<html>
  <head>
    <meta charset="utf-8">
    <style>
      body{margin:0;}
    </style>
    <title>Test</title>
  </head>
  <body>
    <p>Content</p>
  </body>
</html>`

	if result != expected {
		t.Errorf("Format() indentation after raw tag incorrect:\ngot:\n%s\nwant:\n%s", result, expected)

		gotLines := strings.Split(result, "\n")
		wantLines := strings.Split(expected, "\n")
		for i := 0; i < len(gotLines) || i < len(wantLines); i++ {
			got := ""
			want := ""
			if i < len(gotLines) {
				got = gotLines[i]
			}
			if i < len(wantLines) {
				want = wantLines[i]
			}
			if got != want {
				t.Errorf("Line %d differs:\n  got:  %q\n  want: %q", i, got, want)
			}
		}
	}
}

func TestFormat_Styles(t *testing.T) {
	opts := DefaultOptions()
	opts.Styles = true
	result := format(t, `<style>a{color:red}</style>`, opts)

	expected := "<style>\n  a {\n    color:red\n  }\n</style>"
	if result != expected {
		t.Errorf("Format() styles:\ngot:\n%q\nwant:\n%q", result, expected)
	}
}

func TestFormat_StylesLeaveScriptsAlone(t *testing.T) {
	opts := DefaultOptions()
	opts.Styles = true
	result := format(t, "<script>if(a){b;c}</script>", opts)

	expected := "<script>\n  if(a){b;c}\n</script>"
	if result != expected {
		t.Errorf("Format() script with styles on:\ngot:\n%q\nwant:\n%q", result, expected)
	}
}

func TestFormat_Tabs(t *testing.T) {
	opts := DefaultOptions()
	opts.Tabs = true
	input := "<div><script>\n\tif (a) {\n\t\tb();\n\t}\n</script></div>"
	result := format(t, input, opts)

	expected := "<div>\n\t<script>\n\t\tif (a) {\n\t\t\tb();\n\t\t}\n\t</script>\n</div>"
	if result != expected {
		t.Errorf("Format() tabs:\ngot:\n%q\nwant:\n%q", result, expected)
	}
}

func TestFormat_IndentWidth(t *testing.T) {
	tests := []struct {
		indent int
		want   string
	}{
		{0, "<div>\n<p>x</p>\n</div>"},
		{4, "<div>\n    <p>x</p>\n</div>"},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("indent %d", tt.indent), func(t *testing.T) {
			opts := DefaultOptions()
			opts.Indent = tt.indent
			if result := format(t, `<div><p>x</p></div>`, opts); result != tt.want {
				t.Errorf("Format():\ngot:\n%q\nwant:\n%q", result, tt.want)
			}
		})
	}
}

func TestFormat_NoFormattingEmbedded(t *testing.T) {
	opts := DefaultOptions()
	opts.Formatting = false
	result := format(t, "<div><script>\n  a();\n</script></div>", opts)

	expected := "<div><script>a();</script></div>"
	if result != expected {
		t.Errorf("Format() unformatted script:\ngot:\n%q\nwant:\n%q", result, expected)
	}
}

func TestFormat_BooleanAttributes(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{`<input type="checkbox" checked disabled>`, `<input type="checkbox" checked disabled>`},
		{`<input checked="checked">`, `<input checked="checked">`},
		{`<input value="">`, `<input value="">`},
		{`<script async src="a.js"></script>`, `<script async src="a.js"></script>`},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if result := format(t, tt.input, DefaultOptions()); result != tt.want {
				t.Errorf("Format() = %q, want %q", result, tt.want)
			}
		})
	}
}

func TestFormat_AttributesPreserved(t *testing.T) {
	input := `<div id="main" class="container wide" data-value="test"><a href="http://example.com" target="_blank">Link</a></div>`
	result := format(t, input, DefaultOptions())

	expected := `<div id="main" class="container wide" data-value="test"><a href="http://example.com" target="_blank">Link</a></div>`
	if result != expected {
		t.Errorf("Format() attributes:\ngot:\n%s\nwant:\n%s", result, expected)
	}
}

func TestFormat_HTMLEntities(t *testing.T) {
	input := `<p>&lt;div&gt; &amp; &copy; &nbsp;</p>`
	result := format(t, input, DefaultOptions())

	if result != input {
		t.Errorf("Format() entities changed:\ngot:  %q\nwant: %q", result, input)
	}
}

func TestFormat_EmbeddedInsideInline(t *testing.T) {
	input := `<div><span><script>x()</script></span></div>`
	expected := "<div><span>\n  <script>\n  x()\n  </script></span>\n</div>"

	result := format(t, input, DefaultOptions())
	if result != expected {
		t.Errorf("Format() script in span:\ngot:\n%q\nwant:\n%q", result, expected)
	}
	if again := format(t, result, DefaultOptions()); again != result {
		t.Errorf("second Format() = %q, want %q", again, result)
	}
}

func TestFormat_AttributeEntities(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"escaped entity text", `<p title="a &amp;lt;b&amp;gt; c">x</p>`, `<p title="a &amp;lt;b&amp;gt; c">x</p>`},
		{"bare ampersand", `<a href="?a=1&c=3">x</a>`, `<a href="?a=1&amp;c=3">x</a>`},
		{"named entity decoded", `<p title="&lt;b&gt;">x</p>`, `<p title="<b>">x</p>`},
		{"quote in single quotes", `<p title='say "hi"'>x</p>`, `<p title="say &quot;hi&quot;">x</p>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := format(t, tt.input, DefaultOptions())
			if got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
			if again := format(t, got, DefaultOptions()); again != got {
				t.Errorf("second Format() = %q, want %q", again, got)
			}
		})
	}
}

func TestFormat_UnicodeAndEmoji(t *testing.T) {
	input := `<p>Hello 世界 🌍 مرحبا Привет</p>`
	result := format(t, input, DefaultOptions())

	if result != input {
		t.Errorf("Format() unicode:\ngot:  %q\nwant: %q", result, input)
	}
}

func TestFormat_LongAttributeValues(t *testing.T) {
	longValue := strings.Repeat("x", 5000)
	input := fmt.Sprintf(`<img src="data:image/png;base64,%s" alt="test">`, longValue)
	result := format(t, input, DefaultOptions())

	if result != input {
		t.Error("Long attribute value was truncated or lost")
	}
}

func TestFormat_MalformedHTML_UnclosedTags(t *testing.T) {
	input := `<html><body><div><p>Text`
	result := format(t, input, DefaultOptions())

	expected := `<html>
  <body>
    <div>
      <p>Text</p>
    </div>
  </body>
</html>`

	if result != expected {
		t.Errorf("Format() unclosed tags:\ngot:\n%s\nwant:\n%s", result, expected)
	}
}

func TestFormat_StrayCloseTags(t *testing.T) {
	input := `<div>x</span></div></div>`
	result := format(t, input, DefaultOptions())

	if result != "<div>x</div>" {
		t.Errorf("Format() stray close tags = %q", result)
	}
}

func TestFormat_SVGSelfClosing(t *testing.T) {
	input := `<svg><circle cx="50" cy="50" r="40"/><rect x="0" y="0"/></svg>`
	result := format(t, input, DefaultOptions())

	expected := "<svg>\n  <circle cx=\"50\" cy=\"50\" r=\"40\"></circle>\n  <rect x=\"0\" y=\"0\"></rect>\n</svg>"
	if result != expected {
		t.Errorf("Format() svg:\ngot:\n%q\nwant:\n%q", result, expected)
	}
}

func TestFormat_AllVoidElements(t *testing.T) {
	input := `<html><head>
<meta charset="utf-8">
<link rel="stylesheet" href="style.css">
<base href="/">
</head><body>
<img src="test.jpg">
<input type="text">
<br>
<hr>
<area shape="rect" coords="0,0,100,100" href="/">
<col span="2">
<embed src="video.mp4">
<param name="autoplay" value="true">
<source src="audio.mp3" type="audio/mpeg">
<track src="subtitles.vtt" kind="subtitles">
<wbr>
</body></html>`

	result := format(t, input, DefaultOptions())

	voidElements := []string{
		"meta", "link", "base", "img", "input",
		"br", "hr", "area", "col", "embed",
		"param", "source", "track", "wbr",
	}
	for _, elem := range voidElements {
		if !strings.Contains(result, "<"+elem) {
			t.Errorf("Void element not found: %s", elem)
		}
		if strings.Contains(result, "</"+elem+">") {
			t.Errorf("Void element closed: %s", elem)
		}
	}
}

func TestFormat_CustomKinds(t *testing.T) {
	input := `<p>a <custom-el>b</custom-el></p>`

	result := format(t, input, DefaultOptions())
	if want := "<p>a\n  <custom-el>b</custom-el>\n</p>"; result != want {
		t.Errorf("Format() block custom element:\ngot:  %q\nwant: %q", result, want)
	}

	k := kinds.Default()
	k.Inline = k.Inline.Union("custom-el")
	opts := DefaultOptions()
	opts.Kinds = k

	result = format(t, input, opts)
	if want := "<p>a <custom-el>b</custom-el></p>"; result != want {
		t.Errorf("Format() inline custom element:\ngot:  %q\nwant: %q", result, want)
	}
}

func TestFormat_InvalidOptions(t *testing.T) {
	opts := DefaultOptions()
	opts.Indent = -1
	if _, err := Format("<p>x</p>", opts); err == nil {
		t.Fatal("Format() expected error for negative indent")
	}
}

func TestFormat_Idempotent(t *testing.T) {
	inputs := []string{
		`<!DOCTYPE html><html><head><title>Test</title></head><body><div><p>Text</p></div></body></html>`,
		`<div><p>Hello <b>big</b> world</p><ul><li>One</li><li>Two</li></ul></div>`,
		`<!DOCTYPE html><!-- Main content --><html><head><!-- Head section --><title>Test</title></head></html>`,
		"<div><script>\n    a();\n      b();\n</script><pre>  keep\n    this</pre></div>",
		`<div>Intro<p>x</p>Outro</div>`,
		`<p>Some <a href="#">link</a> and <em>emphasis</em>.</p>`,
		`<form><label>Name <input type="text" name="n"></label><button type="submit">Go</button></form>`,
		`<html><head><meta charset="utf-8"><style>body{margin:0;}</style></head><body><p>Content</p></body></html>`,
		`<table><tr><td>1<td>2<tr><td>3</table>`,
		`<p title="a &amp;lt;b&amp;gt; c"><a href="?a=1&amp;b=2&c=3">x</a></p>`,
	}

	optsList := map[string]Options{"default": DefaultOptions()}
	tabs := DefaultOptions()
	tabs.Tabs = true
	optsList["tabs"] = tabs
	styles := DefaultOptions()
	styles.Styles = true
	optsList["styles"] = styles

	for name, opts := range optsList {
		for i, input := range inputs {
			t.Run(fmt.Sprintf("%s/%d", name, i), func(t *testing.T) {
				once := format(t, input, opts)
				twice := format(t, once, opts)
				if once != twice {
					t.Errorf("Format() not idempotent:\nfirst:\n%s\nsecond:\n%s", once, twice)
				}
			})
		}
	}
}
