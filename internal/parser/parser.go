package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/outlinesync/internal/chat"
)

// Parser converts an exported transcript into messages.
type Parser interface {
	Parse(r io.Reader, filename string) ([]chat.Message, error)
}

// SupportedExtensions lists file extensions that can be imported.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".pdf":      true,
	".docx":     true,
	".csv":      true,
}

// ForFile returns the appropriate parser for a filename.
func ForFile(filename string) (Parser, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextParser{}, nil
	case ".md", ".markdown":
		return &MarkdownParser{}, nil
	case ".html", ".htm":
		return &HTMLParser{}, nil
	case ".pdf":
		return &PDFParser{FallbackPdftotext: true}, nil
	case ".docx":
		return &DOCXParser{}, nil
	case ".csv":
		return &CSVParser{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension is supported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// assistantBuilder accumulates blocks into assistant turns, closing the
// current turn whenever a user turn interrupts it.
type assistantBuilder struct {
	msgs    []chat.Message
	current []chat.Block
}

func (b *assistantBuilder) add(block chat.Block) {
	if strings.TrimSpace(block.Text) == "" {
		return
	}
	b.current = append(b.current, block)
}

func (b *assistantBuilder) flush() {
	if len(b.current) > 0 {
		b.msgs = append(b.msgs, chat.Message{Role: chat.RoleAssistant, Blocks: b.current})
	}
	b.current = nil
}

func (b *assistantBuilder) user(text string) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	b.flush()
	b.msgs = append(b.msgs, chat.UserMessage(text))
}

func (b *assistantBuilder) done() []chat.Message {
	b.flush()
	return b.msgs
}
