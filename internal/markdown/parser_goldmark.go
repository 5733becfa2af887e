package markdown

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

var engine = goldmark.New(goldmark.WithExtensions(extension.GFM))

// FirstParagraph returns the plain text of the first paragraph in body, with
// inline markup dropped and soft line breaks folded into spaces.
func FirstParagraph(body []byte) string {
	doc := engine.Parser().Parse(text.NewReader(body))

	var paragraph ast.Node
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if n.Kind() == ast.KindParagraph {
			paragraph = n
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	if paragraph == nil {
		return ""
	}

	var b strings.Builder
	collectText(&b, paragraph, body)
	return strings.Join(strings.Fields(b.String()), " ")
}

func collectText(b *strings.Builder, n ast.Node, source []byte) {
	for child := n.FirstChild(); child != nil; child = child.NextSibling() {
		switch node := child.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(source))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(node.Value)
		default:
			collectText(b, child, source)
		}
	}
}
