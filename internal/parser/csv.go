package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/dgallion1/outlinesync/internal/chat"
)

// CSVParser handles transcripts exported as one message per row. A header
// row naming a role column (role, speaker, author, sender) and a content
// column (content, text, message, body) picks the columns; without one the
// first two columns are role and content. Consecutive non-user rows form a
// single assistant turn.
type CSVParser struct{}

var (
	csvRoleColumns    = []string{"role", "speaker", "author", "sender"}
	csvContentColumns = []string{"content", "text", "message", "body"}
	csvUserRoles      = []string{"user", "human", "you"}
)

func (p *CSVParser) Parse(r io.Reader, filename string) ([]chat.Message, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	roleCol, contentCol := 0, 1
	if rc, cc, ok := csvHeader(records[0]); ok {
		roleCol, contentCol = rc, cc
		records = records[1:]
	}

	var b assistantBuilder
	for _, row := range records {
		if roleCol >= len(row) || contentCol >= len(row) {
			continue
		}
		role := strings.ToLower(strings.TrimSpace(row[roleCol]))
		if slices.Contains(csvUserRoles, role) {
			b.user(row[contentCol])
			continue
		}
		for _, block := range MarkdownBlocks([]byte(row[contentCol])) {
			b.add(block)
		}
	}
	return b.done(), nil
}

func csvHeader(row []string) (roleCol, contentCol int, ok bool) {
	roleCol, contentCol = -1, -1
	for i, cell := range row {
		name := strings.ToLower(strings.TrimSpace(cell))
		switch {
		case roleCol < 0 && slices.Contains(csvRoleColumns, name):
			roleCol = i
		case contentCol < 0 && slices.Contains(csvContentColumns, name):
			contentCol = i
		}
	}
	return roleCol, contentCol, roleCol >= 0 && contentCol >= 0
}
