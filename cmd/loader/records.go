package main

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/samirrijal/schoolfinder/internal/core/domain"
	"github.com/samirrijal/schoolfinder/internal/core/usecases"
)

// record is one parsed input row. Err is set when the row was rejected.
type record struct {
	Pos string // "line 12" or "element 3"
	In  domain.SchoolInput
	Err error
}

var requiredColumns = []string{"name", "address", "latitude", "longitude"}

// readCSV parses a CSV file with a header row naming at least the four school
// columns, in any order. Each row is validated.
func readCSV(r io.Reader, v *usecases.Validator) ([]record, error) {
	reader := csv.NewReader(r)
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	cols := indexColumns(header)
	for _, c := range requiredColumns {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("missing column %q", c)
		}
	}

	var out []record
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line, _ := reader.FieldPos(0)
		pos := fmt.Sprintf("line %d", line)
		if err != nil {
			out = append(out, record{Pos: pos, Err: err})
			continue
		}

		in, err := parseRow(row, cols, v)
		out = append(out, record{Pos: pos, In: in, Err: err})
	}
	return out, nil
}

// parseRow maps a CSV row onto the JSON fields the validator checks, so one
// row reports every violation at once. Blank coordinates count as missing.
func parseRow(row []string, cols map[string]int, v *usecases.Validator) (domain.SchoolInput, error) {
	fields := make(map[string]json.RawMessage, len(requiredColumns))
	for _, name := range []string{"name", "address"} {
		fields[name], _ = json.Marshal(getField(row, cols, name))
	}
	for _, name := range []string{"latitude", "longitude"} {
		raw := getField(row, cols, name)
		if raw == "" {
			continue
		}
		if n, err := strconv.ParseFloat(raw, 64); err == nil && !math.IsNaN(n) && !math.IsInf(n, 0) {
			fields[name] = json.RawMessage(strconv.FormatFloat(n, 'g', -1, 64))
			continue
		}
		// Not a number: hand it over as a string so it fails the type check.
		fields[name], _ = json.Marshal(raw)
	}
	return v.ValidateFields(fields)
}

// readJSON parses a JSON array of school objects.
func readJSON(r io.Reader, v *usecases.Validator) ([]record, error) {
	var items []json.RawMessage
	if err := json.NewDecoder(r).Decode(&items); err != nil {
		return nil, fmt.Errorf("decode: expected an array of schools: %w", err)
	}

	out := make([]record, 0, len(items))
	for i, item := range items {
		in, err := v.Validate(item)
		out = append(out, record{Pos: fmt.Sprintf("element %d", i), In: in, Err: err})
	}
	return out, nil
}

func indexColumns(header []string) map[string]int {
	m := make(map[string]int, len(header))
	for i, h := range header {
		// Strip a UTF-8 BOM on the first column
		h = strings.TrimPrefix(h, "\ufeff")
		m[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return m
}

func getField(record []string, cols map[string]int, name string) string {
	idx, ok := cols[name]
	if !ok || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
