// Package importer loads a restaurant's menu from a CSV file.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"foodorder/internal/domain"
	"foodorder/internal/service/menu"
)

// MenuWriter creates menu items with the same validation as the API.
type MenuWriter interface {
	ListByOwner(ctx context.Context, ownerID string) ([]domain.MenuItem, error)
	Create(ctx context.Context, ownerID string, in menu.ItemInput) (*domain.MenuItem, error)
}

// CSVImporter reads rows of name, description, price and imageUrl and adds
// them to one owner's menu. Items whose name the owner already has are
// skipped, so re-running a file is safe.
type CSVImporter struct {
	reader  *csv.Reader
	menu    MenuWriter
	ownerID string
}

func NewCSVImporter(r io.Reader, w MenuWriter, ownerID string) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:  csvr,
		menu:    w,
		ownerID: ownerID,
	}
}

// Result counts what a run did.
type Result struct {
	Imported int
	Skipped  int
}

// Run imports every row. It stops at the first row the menu rejects.
func (i *CSVImporter) Run(ctx context.Context) (Result, error) {
	var res Result

	headers, err := i.reader.Read()
	if err != nil {
		return res, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["name"]; !ok {
		return res, errors.New("read headers: missing name column")
	}

	existing, err := i.menu.ListByOwner(ctx, i.ownerID)
	if err != nil {
		return res, fmt.Errorf("list existing items: %w", err)
	}
	seen := make(map[string]bool, len(existing))
	for _, item := range existing {
		seen[strings.ToLower(item.Name)] = true
	}

	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return res, fmt.Errorf("read row %d: %w", line, err)
		}

		in := parseRow(record, index)
		if in.Name == "" && in.Description == "" && in.Price == "" {
			continue
		}
		if seen[strings.ToLower(in.Name)] {
			res.Skipped++
			continue
		}
		if _, err := i.menu.Create(ctx, i.ownerID, in); err != nil {
			return res, fmt.Errorf("row %d (%q): %w", line, in.Name, err)
		}
		seen[strings.ToLower(in.Name)] = true
		res.Imported++
	}
	return res, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) menu.ItemInput {
	return menu.ItemInput{
		Name:        pick(record, index, "name"),
		Description: pick(record, index, "description"),
		Price:       pick(record, index, "price"),
		ImageURL:    pick(record, index, "imageurl"),
	}
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
