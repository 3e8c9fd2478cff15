package storage

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/logger"

	"advent/internal/models"
)

// utf8BOM makes spreadsheet apps detect the encoding.
const utf8BOM = "\xef\xbb\xbf"

// prizeCSVColumns is the import row layout. A header row with these names is
// optional.
var prizeCSVColumns = []string{"kind", "title", "description", "emoji", "color"}

// historyCSVHeader labels the export columns.
var historyCSVHeader = []string{"Tag", "Typ", "Titel", "Beschreibung", "Emoji", "Gewonnen am"}

// ParseCatalogCSV reads prize rows. Malformed or invalid rows are skipped
// and counted; a broken CSV stream is an error.
func ParseCatalogCSV(r io.Reader) ([]models.PrizeSpec, int, error) {
	var (
		specs   []models.PrizeSpec
		skipped int
	)
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	for row := 1; ; row++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read csv: %w", err)
		}
		if row == 1 {
			record[0] = strings.TrimPrefix(record[0], utf8BOM)
			if strings.EqualFold(strings.TrimSpace(record[0]), prizeCSVColumns[0]) {
				continue
			}
		}

		if len(record) != len(prizeCSVColumns) {
			logger.Infof("Skipping malformed CSV record %d: %v", row, record)
			skipped++
			continue
		}

		spec := models.PrizeSpec{
			Kind:        models.PrizeKind(strings.ToLower(strings.TrimSpace(record[0]))),
			Title:       strings.TrimSpace(record[1]),
			Description: strings.TrimSpace(record[2]),
			Emoji:       strings.TrimSpace(record[3]),
			Color:       strings.TrimSpace(record[4]),
		}
		if err := ValidateSpec(spec); err != nil {
			logger.Infof("Skipping CSV record %d: %v", row, err)
			skipped++
			continue
		}
		specs = append(specs, spec)
	}
	return specs, skipped, nil
}

// WriteHistoryCSV writes the ledger with a UTF-8 BOM. Award times are shown
// in loc.
func WriteHistoryCSV(w io.Writer, entries []models.HistoryEntry, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(historyCSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, e := range entries {
		row := []string{strconv.Itoa(e.Day), "", "", "", "", e.AwardedAt.In(loc).Format("02.01.2006 15:04")}
		if p := e.Prize; p != nil {
			row[1], row[2], row[3], row[4] = string(p.Kind), p.Title, p.Description, p.Emoji
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
