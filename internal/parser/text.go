package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/outlinesync/internal/chat"
)

// TextParser handles plain-text transcripts. A line starting with "User:"
// or "Assistant:" opens a new turn; the assistant's text is read as
// Markdown so headings survive. Text before any prefix belongs to the
// assistant.
type TextParser struct{}

func (p *TextParser) Parse(r io.Reader, filename string) ([]chat.Message, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var msgs []chat.Message
	role := chat.RoleAssistant
	var current strings.Builder

	flush := func() {
		body := strings.TrimSpace(current.String())
		current.Reset()
		if body == "" {
			return
		}
		if role == chat.RoleUser {
			msgs = append(msgs, chat.UserMessage(body))
			return
		}
		msgs = append(msgs, chat.Message{
			Role:    chat.RoleAssistant,
			Content: body,
			Blocks:  MarkdownBlocks([]byte(body)),
		})
	}

	for scanner.Scan() {
		line := scanner.Text()
		if next, rest, ok := rolePrefix(line); ok {
			flush()
			role = next
			line = rest
		}
		current.WriteString(line)
		current.WriteString("\n")
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()

	return msgs, nil
}

func rolePrefix(line string) (chat.Role, string, bool) {
	for _, p := range []struct {
		prefix string
		role   chat.Role
	}{
		{"user:", chat.RoleUser},
		{"assistant:", chat.RoleAssistant},
	} {
		if len(line) >= len(p.prefix) && strings.EqualFold(line[:len(p.prefix)], p.prefix) {
			return p.role, strings.TrimSpace(line[len(p.prefix):]), true
		}
	}
	return "", "", false
}
