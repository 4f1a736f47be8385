package parser

import (
	"strings"
	"testing"

	"github.com/dgallion1/outlinesync/internal/chat"
)

func headingsOf(m chat.Message) []string {
	var out []string
	for _, b := range m.Blocks {
		if b.Kind == chat.KindHeading {
			out = append(out, b.Text)
		}
	}
	return out
}

func TestCSVParser_RoleContentHeader(t *testing.T) {
	input := "role,content\n" +
		"user,how do I deploy?\n" +
		"assistant,\"# Deploy\n\n## Build\n\nRun make.\"\n" +
		"assistant,## Rollback\n" +
		"user,thanks\n"
	p := &CSVParser{}
	msgs, err := p.Parse(strings.NewReader(input), "chat.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Role != chat.RoleUser || msgs[0].Text() != "how do I deploy?" {
		t.Errorf("expected user query, got %+v", msgs[0])
	}
	got := headingsOf(msgs[1])
	if msgs[1].Role != chat.RoleAssistant || len(got) != 3 || got[0] != "Deploy" || got[2] != "Rollback" {
		t.Errorf("expected consecutive assistant rows in one turn with 3 headings, got %v", got)
	}
	if msgs[2].Role != chat.RoleUser {
		t.Errorf("expected trailing user query, got %s", msgs[2].Role)
	}
}

func TestCSVParser_SpeakerTextHeader(t *testing.T) {
	input := "id,text,speaker\n1,hello there,Human\n2,# Greeting,AI\n"
	p := &CSVParser{}
	msgs, err := p.Parse(strings.NewReader(input), "export.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != chat.RoleUser || msgs[0].Text() != "hello there" {
		t.Errorf("expected columns picked by header name, got %+v", msgs[0])
	}
	if got := headingsOf(msgs[1]); len(got) != 1 || got[0] != "Greeting" {
		t.Errorf("expected heading [Greeting], got %v", got)
	}
}

func TestCSVParser_NoHeader(t *testing.T) {
	input := "you,question\nmodel,# Answer\nshort\n"
	p := &CSVParser{}
	msgs, err := p.Parse(strings.NewReader(input), "rows.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if msgs[0].Role != chat.RoleUser {
		t.Errorf("expected first column read as role, got %s", msgs[0].Role)
	}
	if got := headingsOf(msgs[1]); len(got) != 1 || got[0] != "Answer" {
		t.Errorf("expected heading [Answer], got %v", got)
	}
}

func TestCSVParser_LazyQuotesAndEmpty(t *testing.T) {
	p := &CSVParser{}
	msgs, err := p.Parse(strings.NewReader(`assistant,say "hi" to # nobody`+"\n"), "lazy.csv")
	if err != nil {
		t.Fatalf("expected bare quotes to be accepted, got %v", err)
	}
	if len(msgs) != 1 {
		t.Errorf("expected 1 message, got %d", len(msgs))
	}

	msgs, err = p.Parse(strings.NewReader(""), "empty.csv")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(msgs) != 0 {
		t.Errorf("expected 0 messages for empty input, got %d", len(msgs))
	}
}
