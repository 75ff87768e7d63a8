// Package importfile parses bulk location files into import rows. The
// tabular readers accept a header row in any column order and tolerate
// ragged trailing cells; the JSON reader takes the API payload shape.
// Semantic validation happens downstream, row by row.
package importfile

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/expopass/server/internal/domain/locations"
)

// ErrUnknownFormat is returned when the file name carries no recognized
// extension.
var ErrUnknownFormat = errors.New("unknown import file format")

var headerAliases = map[string]string{
	"countryname": "countryName",
	"country":     "countryName",
	"countrycode": "countryCode",
	"statename":   "stateName",
	"state":       "stateName",
	"statecode":   "stateCode",
	"city":        "city",
	"cityname":    "city",
	"pincode":     "pincode",
	"postalcode":  "pincode",
	"zipcode":     "pincode",
	"area":        "area",
	"locality":    "area",
}

// Read dispatches on the file extension.
func Read(r io.Reader, filename string) ([]locations.ImportRow, error) {
	switch {
	case strings.HasSuffix(strings.ToLower(filename), ".csv"):
		return ReadCSV(r)
	case strings.HasSuffix(strings.ToLower(filename), ".xlsx"):
		return ReadXLSX(r)
	case strings.HasSuffix(strings.ToLower(filename), ".json"):
		return ReadJSON(r)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownFormat, filename)
}

// ReadJSON parses either a bare row array or the API import payload
// shape, an object with a "rows" array.
func ReadJSON(r io.Reader) ([]locations.ImportRow, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read json: %w", err)
	}

	var rows []locations.ImportRow
	if err := json.Unmarshal(data, &rows); err == nil {
		return rows, nil
	}

	var payload struct {
		Rows []locations.ImportRow `json:"rows"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, fmt.Errorf("parse json rows: %w", err)
	}
	return payload.Rows, nil
}

// ReadCSV parses a comma-separated file with a header row.
func ReadCSV(r io.Reader) ([]locations.ImportRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	columns, err := mapHeader(header)
	if err != nil {
		return nil, err
	}

	var rows []locations.ImportRow
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}
		if row, ok := rowFromRecord(columns, record); ok {
			rows = append(rows, row)
		}
	}
	return rows, nil
}

// mapHeader resolves each header cell to a canonical field, ignoring
// case, surrounding space and unknown columns.
func mapHeader(header []string) (map[int]string, error) {
	columns := make(map[int]string, len(header))
	for i, cell := range header {
		key := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(cell), " ", ""))
		if field, ok := headerAliases[key]; ok {
			columns[i] = field
		}
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("no recognized columns in header %v", header)
	}
	return columns, nil
}

func rowFromRecord(columns map[int]string, record []string) (locations.ImportRow, bool) {
	var row locations.ImportRow
	empty := true
	for i, field := range columns {
		if i >= len(record) {
			continue
		}
		value := strings.TrimSpace(record[i])
		if value != "" {
			empty = false
		}
		switch field {
		case "countryName":
			row.CountryName = value
		case "countryCode":
			row.CountryCode = value
		case "stateName":
			row.StateName = value
		case "stateCode":
			row.StateCode = value
		case "city":
			row.City = value
		case "pincode":
			row.Pincode = value
		case "area":
			row.Area = value
		}
	}
	return row, !empty
}
