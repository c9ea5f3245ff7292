package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

// Header aliases accepted for each column; the Italian names match the
// original Golf GTD export.
var columnAliases = map[string][]string{
	"year":      {"year", "anno"},
	"mileage":   {"mileage", "km", "chilometri"},
	"listPrice": {"list_price", "listprice", "list price", "prezzo di listino"},
	"price":     {"price", "prezzo"},
	"condition": {"condition", "condizioni"},
}

// CSVSource reads listings from a CSV file with a header row.
type CSVSource struct {
	Path string
}

// Load implements Source.
func (s CSVSource) Load(ctx context.Context) ([]Listing, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() {
		_ = f.Close()
	}()

	return ReadCSV(ctx, f)
}

// ReadCSV parses listings from r. Year, mileage, list price and price are
// required columns, condition is optional.
func ReadCSV(ctx context.Context, r io.Reader) ([]Listing, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoListings
		}
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	columns, err := mapColumns(header)
	if err != nil {
		return nil, err
	}

	var listings []Listing
	for line := 2; ; line++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		listing, err := parseRecord(record, columns)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		listings = append(listings, listing)
	}

	if len(listings) == 0 {
		return nil, ErrNoListings
	}
	return listings, nil
}

func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int)
	for i, name := range header {
		normalized := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		for column, aliases := range columnAliases {
			for _, alias := range aliases {
				if normalized == alias {
					columns[column] = i
				}
			}
		}
	}

	for _, required := range []string{"year", "mileage", "listPrice", "price"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("missing required column %q", required)
		}
	}
	return columns, nil
}

func parseRecord(record []string, columns map[string]int) (Listing, error) {
	field := func(column string) string {
		idx, ok := columns[column]
		if !ok || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	year, err := strconv.Atoi(field("year"))
	if err != nil {
		return Listing{}, fmt.Errorf("invalid year %q", field("year"))
	}
	mileage, err := strconv.ParseFloat(field("mileage"), 64)
	if err != nil {
		return Listing{}, fmt.Errorf("invalid mileage %q", field("mileage"))
	}
	listPrice, err := strconv.ParseFloat(field("listPrice"), 64)
	if err != nil {
		return Listing{}, fmt.Errorf("invalid list price %q", field("listPrice"))
	}
	price, err := strconv.ParseFloat(field("price"), 64)
	if err != nil {
		return Listing{}, fmt.Errorf("invalid price %q", field("price"))
	}

	listing := Listing{
		Year:      year,
		Mileage:   mileage,
		ListPrice: listPrice,
		Price:     price,
		Condition: field("condition"),
	}
	if err := validate(listing); err != nil {
		return Listing{}, err
	}
	return listing, nil
}
