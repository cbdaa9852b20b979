// Package anki reads and writes decks in the tab-separated text format used by
// Anki's plain-text import: one card per line, columns front, back and an
// optional space-separated tag list. The format is lossy: tabs inside fields
// become spaces, newlines are written as <br>, and a card whose front, back
// and tags are all blank exports as a whitespace-only line that Import skips.
package anki

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/example/recallbot/pkg/models"
	"github.com/google/uuid"
)

// LineBreak is the marker that stands for a newline inside a field.
const LineBreak = "<br>"

// ErrMalformedLine is matched by every *FormatError.
var ErrMalformedLine = errors.New("anki: malformed line")

// FormatError reports a line with fewer than two tab-separated fields.
type FormatError struct {
	Line int // 1-based
	Text string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("anki: line %d: expected at least 2 tab-separated fields, got %q", e.Line, e.Text)
}

// Is makes errors.Is(err, ErrMalformedLine) work.
func (e *FormatError) Is(target error) bool {
	return target == ErrMalformedLine
}

var fieldEscaper = strings.NewReplacer("\t", " ", "\r\n", LineBreak, "\n", LineBreak, "\r", LineBreak)

// Export renders cards, one line each.
func Export(cards []models.Card) string {
	var b strings.Builder
	for _, c := range cards {
		b.WriteString(fieldEscaper.Replace(c.Front))
		b.WriteByte('\t')
		b.WriteString(fieldEscaper.Replace(c.Back))
		b.WriteByte('\t')
		b.WriteString(fieldEscaper.Replace(strings.Join(c.Tags, " ")))
		b.WriteByte('\n')
	}
	return b.String()
}

// Write is Export to a writer.
func Write(w io.Writer, cards []models.Card) error {
	_, err := io.WriteString(w, Export(cards))
	return err
}

// Import parses text into cards. Blank lines are skipped; each imported card
// gets a fresh id.
func Import(text string) ([]models.Card, error) {
	var cards []models.Card
	for i, line := range strings.Split(text, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := strings.Split(line, "\t")
		if len(fields) < 2 {
			return nil, &FormatError{Line: i + 1, Text: line}
		}

		card := models.Card{
			ID:    uuid.NewString(),
			Front: unescape(fields[0]),
			Back:  unescape(fields[1]),
		}
		if len(fields) > 2 {
			if tags := strings.Fields(fields[2]); len(tags) > 0 {
				card.Tags = tags
			}
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// Read is Import from a reader.
func Read(r io.Reader) ([]models.Card, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("anki: read deck: %w", err)
	}
	return Import(string(data))
}

func unescape(s string) string {
	return strings.ReplaceAll(s, LineBreak, "\n")
}
