package chat

import "strings"

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// BlockKind classifies a rendered block.
type BlockKind string

const (
	KindHeading   BlockKind = "heading"
	KindParagraph BlockKind = "paragraph"
	KindCode      BlockKind = "code"
	KindQuery     BlockKind = "query"
)

// Block is one rendered unit of a message.
type Block struct {
	Kind  BlockKind `json:"kind"`
	Level int       `json:"level,omitempty"` // Heading level 1-6 (0 otherwise)
	Text  string    `json:"text"`
}

// Message is one turn of a conversation. Content holds the raw source
// (Markdown for streamed assistant turns) when it is known; Blocks is the
// rendered form.
type Message struct {
	Role    Role    `json:"role"`
	Content string  `json:"content,omitempty"`
	Blocks  []Block `json:"blocks"`
}

// Text joins the text of all blocks, one block per paragraph.
func (m Message) Text() string {
	var sb strings.Builder
	for i, b := range m.Blocks {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(b.Text)
	}
	return sb.String()
}

// UserMessage builds a user turn from plain text.
func UserMessage(text string) Message {
	return Message{
		Role:    RoleUser,
		Content: text,
		Blocks:  []Block{{Kind: KindQuery, Text: text}},
	}
}
