package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/example/recallbot/pkg/models"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	FrontColumn       string // Column with the front side
	BackColumn        string // Column with the back side
	HintColumn        string // Column with the hint, optional
	ExplanationColumn string // Column with the explanation, optional
	TagsColumn        string // Column with space-separated tags, optional
	DeckColumn        string // Column with the deck name, optional
	SheetName         string // Name of the sheet to import
	StartRow          int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		FrontColumn:       "A",
		BackColumn:        "B",
		HintColumn:        "C",
		ExplanationColumn: "D",
		TagsColumn:        "E",
		DeckColumn:        "F",
		SheetName:         "Sheet1",
		StartRow:          2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	Cards          []models.Card
	TotalProcessed int
	Skipped        int
	Errors         []string
}

// ImportCards reads cards from an Excel or CSV file. Rows that cannot be
// turned into a card are skipped and reported in Errors.
func ImportCards(path string, config ImportConfig) (*ImportResult, error) {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		file, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open CSV file: %w", err)
		}
		defer file.Close()
		return ImportCSV(file, config)
	}

	cols, err := config.columns()
	if err != nil {
		return nil, err
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return importRows(rows, config.StartRow, cols), nil
}

// ImportCSV reads cards from CSV data laid out like the spreadsheet.
func ImportCSV(r io.Reader, config ImportConfig) (*ImportResult, error) {
	cols, err := config.columns()
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return importRows(rows, config.StartRow, cols), nil
}

// columnIndexes holds 0-based column positions; -1 marks an unused column.
type columnIndexes struct {
	front, back, hint, explanation, tags, deck int
}

// columns resolves the configured column letters. Front and back are required.
func (c ImportConfig) columns() (columnIndexes, error) {
	var cols columnIndexes
	for _, col := range []struct {
		name     string
		letter   string
		required bool
		dst      *int
	}{
		{"front", c.FrontColumn, true, &cols.front},
		{"back", c.BackColumn, true, &cols.back},
		{"hint", c.HintColumn, false, &cols.hint},
		{"explanation", c.ExplanationColumn, false, &cols.explanation},
		{"tags", c.TagsColumn, false, &cols.tags},
		{"deck", c.DeckColumn, false, &cols.deck},
	} {
		if col.letter == "" {
			if col.required {
				return cols, fmt.Errorf("%s column is required", col.name)
			}
			*col.dst = -1
			continue
		}
		n, err := excelize.ColumnNameToNumber(col.letter)
		if err != nil {
			return cols, fmt.Errorf("invalid %s column %q: %w", col.name, col.letter, err)
		}
		*col.dst = n - 1
	}
	return cols, nil
}

func importRows(rows [][]string, startRow int, cols columnIndexes) *ImportResult {
	result := &ImportResult{Errors: make([]string, 0)}
	for i, row := range rows {
		// Skip header rows
		if i < startRow-1 {
			continue
		}
		if isBlank(row) {
			continue
		}

		result.TotalProcessed++
		card, err := rowToCard(row, cols)
		if err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
			continue
		}
		result.Cards = append(result.Cards, card)
	}
	return result
}

func rowToCard(row []string, cols columnIndexes) (models.Card, error) {
	card := models.Card{
		ID:          uuid.NewString(),
		Front:       cell(row, cols.front),
		Back:        cell(row, cols.back),
		Hint:        cell(row, cols.hint),
		Explanation: cell(row, cols.explanation),
		Deck:        cell(row, cols.deck),
	}
	if tags := strings.Fields(cell(row, cols.tags)); len(tags) > 0 {
		card.Tags = tags
	}

	if card.Front == "" {
		return card, fmt.Errorf("front cannot be empty")
	}
	if card.Back == "" {
		return card, fmt.Errorf("back cannot be empty")
	}
	return card, nil
}

// ExportCards writes cards to a new Excel workbook using the default layout,
// with a header row.
func ExportCards(path string, cards []models.Card) error {
	config := DefaultImportConfig()

	f := excelize.NewFile()
	defer f.Close()

	header := []interface{}{"Front", "Back", "Hint", "Explanation", "Tags", "Deck"}
	if err := f.SetSheetRow(config.SheetName, "A1", &header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for i, c := range cards {
		row := []interface{}{c.Front, c.Back, c.Hint, c.Explanation, strings.Join(c.Tags, " "), c.Deck}
		axis, err := excelize.CoordinatesToCellName(1, i+config.StartRow)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(config.SheetName, axis, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+config.StartRow, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
