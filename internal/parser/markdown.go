package parser

import (
	"bytes"
	"io"
	"strings"

	"github.com/dgallion1/outlinesync/internal/chat"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// MarkdownParser handles Markdown transcripts using goldmark. Top-level
// blockquotes are the user's prompts; everything between them is the
// assistant's answer. A thematic break ends an answer.
type MarkdownParser struct{}

func (p *MarkdownParser) Parse(r io.Reader, filename string) ([]chat.Message, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var b assistantBuilder
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Blockquote:
			b.user(extractText(node, src))
		case *ast.ThematicBreak:
			b.flush()
		default:
			if block, ok := blockFor(n, src); ok {
				b.add(block)
			}
		}
	}
	return b.done(), nil
}

// MarkdownBlocks renders Markdown source into blocks. It is used for
// assistant content that arrives as a stream of Markdown.
func MarkdownBlocks(src []byte) []chat.Block {
	doc := goldmark.New().Parser().Parse(text.NewReader(src))
	var blocks []chat.Block
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if block, ok := blockFor(n, src); ok && strings.TrimSpace(block.Text) != "" {
			blocks = append(blocks, block)
		}
	}
	return blocks
}

func blockFor(n ast.Node, src []byte) (chat.Block, bool) {
	switch node := n.(type) {
	case *ast.Heading:
		return chat.Block{Kind: chat.KindHeading, Level: node.Level, Text: extractText(node, src)}, true
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		return chat.Block{Kind: chat.KindCode, Text: linesText(n, src)}, true
	case *ast.ThematicBreak:
		return chat.Block{}, false
	default:
		t := extractText(n, src)
		if t == "" {
			return chat.Block{}, false
		}
		return chat.Block{Kind: chat.KindParagraph, Text: t}, true
	}
}

// extractText gets the text content of a goldmark AST node. Container
// blocks join their children with newlines.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	switch n.(type) {
	case *ast.Paragraph, *ast.TextBlock, *ast.Heading:
		inlineText(&buf, n, src)
	case *ast.FencedCodeBlock, *ast.CodeBlock, *ast.HTMLBlock:
		buf.WriteString(linesText(n, src))
	default:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			t := extractText(c, src)
			if t == "" {
				continue
			}
			if buf.Len() > 0 {
				buf.WriteByte('\n')
			}
			buf.WriteString(t)
		}
	}
	return strings.TrimSpace(buf.String())
}

func inlineText(buf *bytes.Buffer, n ast.Node, src []byte) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			buf.Write(t.Segment.Value(src))
			if t.HardLineBreak() || t.SoftLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(t.Value)
		default:
			inlineText(buf, c, src)
		}
	}
}

func linesText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		buf.Write(line.Value(src))
	}
	return strings.TrimRight(buf.String(), "\n")
}
