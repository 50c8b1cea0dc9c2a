// Package render turns post bodies into HTML for the preview pane.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"
	"sync"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/ast"
	md_html "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// DefaultStyle is the chroma style used for code blocks.
const DefaultStyle = "github"

func formatter() *chromahtml.Formatter {
	return chromahtml.New(
		chromahtml.WithClasses(true),
		chromahtml.TabWidth(4),
		chromahtml.WithLineNumbers(false),
	)
}

// HighlightCode renders code as class-annotated HTML. Unknown languages fall
// back to plain text; on failure the escaped code is returned.
func HighlightCode(code, language string) string {
	lexer := lexers.Get(language)
	if lexer == nil {
		lexer = lexers.Fallback
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, code)
	if err != nil {
		return "<pre>" + template.HTMLEscapeString(code) + "</pre>"
	}

	var buf strings.Builder
	if err := formatter().Format(&buf, styles.Get(DefaultStyle), iterator); err != nil {
		return "<pre>" + template.HTMLEscapeString(code) + "</pre>"
	}
	return buf.String()
}

// Markdown renders a post body. Raw HTML in the body is dropped, since bodies
// are user input.
func Markdown(body string) template.HTML {
	md := markdown.NormalizeNewlines([]byte(body))

	p := parser.NewWithExtensions(
		parser.CommonExtensions | parser.HardLineBreak | parser.NoEmptyLineBeforeBlock,
	)
	doc := p.Parse(md)

	opts := md_html.RendererOptions{
		Flags: md_html.CommonFlags | md_html.HrefTargetBlank | md_html.SkipHTML | md_html.Safelink,
		RenderNodeHook: func(w io.Writer, node ast.Node, entering bool) (ast.WalkStatus, bool) {
			if code, ok := node.(*ast.CodeBlock); ok && entering {
				var lang string
				if info := code.Info; info != nil {
					lang = string(info)
				}
				fmt.Fprintf(w, "<div class=\"highlight\">%s</div>", HighlightCode(string(code.Literal), lang))
				return ast.GoToNext, true
			}
			return ast.GoToNext, false
		},
	}

	out := markdown.Render(doc, md_html.NewRenderer(opts))
	return template.HTML(bytes.TrimSpace(out))
}

var (
	cssOnce sync.Once
	css     string
)

// SyntaxCSS returns the stylesheet for highlighted code blocks.
func SyntaxCSS() string {
	cssOnce.Do(func() {
		var buf strings.Builder
		style := styles.Get(DefaultStyle)
		if err := formatter().WriteCSS(&buf, style); err != nil {
			css = ""
			return
		}
		css = buf.String()
	})
	return css
}
