// Package bankimport parses bank statement exports into transactions.
package bankimport

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/kjstillabower/solawi/internal/models"
)

// ErrUnsupportedFile is returned for uploads without a .csv extension.
var ErrUnsupportedFile = errors.New("only .csv files can be imported")

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

var (
	dateColumns   = []string{"buchungstag", "valutadatum", "date"}
	nameColumns   = []string{"beguenstigter/zahlungspflichtiger", "auftraggeber/empfänger", "name"}
	titleColumns  = []string{"verwendungszweck", "title"}
	amountColumns = []string{"betrag", "amount"}

	dateLayouts = []string{"02.01.2006", "02.01.06", models.DateLayout}
)

// AllowedFile reports whether filename has a csv extension.
func AllowedFile(filename string) bool {
	ext := filepath.Ext(filename)
	return ext == ".csv" || ext == ".CSV"
}

// Parse reads a windows-1252 encoded, semicolon separated statement with a header row.
// Outgoing payments (non-positive amounts) and rows without a name are dropped.
func Parse(r io.Reader) ([]models.BankTransaction, error) {
	reader := csv.NewReader(transform.NewReader(r, charmap.Windows1252.NewDecoder()))
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols, err := resolveColumns(header)
	if err != nil {
		return nil, err
	}

	var out []models.BankTransaction
	line := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if isBlank(record) {
			continue
		}
		tx, keep, err := parseRecord(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if !keep {
			continue
		}
		tx.Line = line
		out = append(out, tx)
	}
	return out, nil
}

type columns struct {
	date, name, title, amount int
}

func resolveColumns(header []string) (columns, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, seen := index[key]; !seen {
			index[key] = i
		}
	}
	find := func(names []string) (int, error) {
		for _, n := range names {
			if i, ok := index[n]; ok {
				return i, nil
			}
		}
		return -1, fmt.Errorf("%w: %s", ErrMissingColumn, names[0])
	}
	var c columns
	var err error
	if c.date, err = find(dateColumns); err != nil {
		return c, err
	}
	if c.name, err = find(nameColumns); err != nil {
		return c, err
	}
	if c.title, err = find(titleColumns); err != nil {
		return c, err
	}
	if c.amount, err = find(amountColumns); err != nil {
		return c, err
	}
	return c, nil
}

func parseRecord(record []string, c columns) (models.BankTransaction, bool, error) {
	field := func(i int) string {
		if i < len(record) {
			return strings.TrimSpace(record[i])
		}
		return ""
	}
	amount, err := ParseAmount(field(c.amount))
	if err != nil {
		return models.BankTransaction{}, false, err
	}
	name := field(c.name)
	if !amount.IsPositive() || name == "" {
		return models.BankTransaction{}, false, nil
	}
	day, err := parseDate(field(c.date))
	if err != nil {
		return models.BankTransaction{}, false, err
	}
	return models.BankTransaction{
		Date:   day,
		Name:   name,
		Title:  field(c.title),
		Amount: amount,
	}, true, nil
}

// ParseAmount accepts German formatted amounts ("1.234,56") as well as plain decimals.
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "EUR")
	s = strings.TrimSpace(strings.TrimSuffix(s, "€"))
	if strings.Contains(s, ",") {
		s = strings.ReplaceAll(s, ".", "")
		s = strings.ReplaceAll(s, ",", ".")
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("invalid amount %q", s)
	}
	return d, nil
}

func parseDate(s string) (models.Date, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return models.DateOf(t), nil
		}
	}
	return models.Date{}, fmt.Errorf("invalid date %q", s)
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
