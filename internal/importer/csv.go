// Package importer turns an uploaded guest spreadsheet (CSV) into guest
// records.  Problems with individual rows are collected, not returned as
// errors, so a partially valid file still imports its good rows.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/iliyamo/wedding-seating/internal/model"
)

// Guest fields a column can map to.
const (
	FieldFullName       = "full_name"
	FieldRelationship   = "relationship"
	FieldMealPreference = "meal_preference"
	FieldNotes          = "notes"
)

// ErrNoNameColumn is returned when no header maps to FieldFullName.
var ErrNoNameColumn = errors.New("header row has no Name column")

// Mapping maps a lower-cased header label to a guest field.  Headers that
// are not in the mapping become custom fields.
type Mapping map[string]string

// DefaultMapping recognises the usual English header names.
func DefaultMapping() Mapping {
	return Mapping{
		"name":            FieldFullName,
		"full name":       FieldFullName,
		"guest":           FieldFullName,
		"guest name":      FieldFullName,
		"relationship":    FieldRelationship,
		"relation":        FieldRelationship,
		"meal":            FieldMealPreference,
		"meal preference": FieldMealPreference,
		"notes":           FieldNotes,
	}
}

// With returns a copy of m with label mapped to field.
func (m Mapping) With(label, field string) Mapping {
	out := make(Mapping, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	out[normalizeHeader(label)] = field
	return out
}

// Issue is a row-level problem.  Row is the 1-based line number in the
// file, header included.
type Issue struct {
	Row     int    `json:"row"`
	Message string `json:"message"`
}

// Result is the outcome of an import.
type Result struct {
	Guests        []model.Guest `json:"guests"`
	Errors        []Issue       `json:"errors"`
	Warnings      []Issue       `json:"warnings"`
	TotalRows     int           `json:"total_rows"`
	ProcessedRows int           `json:"processed_rows"`
}

// ImportCSV reads r.  Guests come back without ids or chart; the caller
// assigns both.
func ImportCSV(r io.Reader, m Mapping) (*Result, error) {
	if m == nil {
		m = DefaultMapping()
	}
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoNameColumn
		}
		return nil, fmt.Errorf("read header: %w", err)
	}
	fields := make([]string, len(header))
	labels := make([]string, len(header))
	hasName := false
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		labels[i] = strings.TrimSpace(h)
		fields[i] = m[normalizeHeader(h)]
		if fields[i] == FieldFullName {
			hasName = true
		}
	}
	if !hasName {
		return nil, ErrNoNameColumn
	}

	res := &Result{Guests: []model.Guest{}, Errors: []Issue{}, Warnings: []Issue{}}
	seen := make(map[string]int)
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				res.TotalRows++
				res.Errors = append(res.Errors, Issue{Row: pe.StartLine, Message: pe.Err.Error()})
				continue
			}
			return nil, fmt.Errorf("read rows: %w", err)
		}
		// physical line, so blank lines skipped by the reader still count
		row, _ := cr.FieldPos(0)
		if blank(rec) {
			continue
		}
		res.TotalRows++

		g := model.Guest{}
		for i, v := range rec {
			v = strings.TrimSpace(v)
			if i >= len(fields) {
				if v != "" {
					res.Warnings = append(res.Warnings, Issue{Row: row, Message: fmt.Sprintf("extra value %q ignored", v)})
				}
				continue
			}
			switch fields[i] {
			case FieldFullName:
				if g.FullName == "" {
					g.FullName = v
				}
			case FieldRelationship:
				g.Relationship = v
			case FieldMealPreference:
				g.MealPreference = v
			case FieldNotes:
				g.Notes = v
			default:
				if v != "" && labels[i] != "" {
					if g.CustomFields == nil {
						g.CustomFields = make(map[string]string)
					}
					g.CustomFields[labels[i]] = v
				}
			}
		}
		if g.FullName == "" {
			res.Errors = append(res.Errors, Issue{Row: row, Message: "missing name"})
			continue
		}
		key := strings.ToLower(g.FullName)
		if prev, dup := seen[key]; dup {
			res.Warnings = append(res.Warnings, Issue{Row: row, Message: fmt.Sprintf("duplicate of row %d", prev)})
		} else {
			seen[key] = row
		}
		res.Guests = append(res.Guests, g)
		res.ProcessedRows++
	}
	return res, nil
}

func normalizeHeader(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return strings.Join(strings.Fields(strings.ToLower(h)), " ")
}

func blank(rec []string) bool {
	for _, v := range rec {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
