// Package analysis talks to the remote candidate-classification endpoint
// and prepares the CSV payload it expects.
package analysis

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Fields lists the feature columns the endpoint understands, in display order.
var Fields = []string{"period", "radius", "distance", "depth", "duration", "snr"}

// Template is the downloadable example CSV.
const Template = `time,flux,period,radius,distance,depth,duration,snr
0,1.0,365,1.0,1.0,100,3.0,5.0
1,0.9999,730,1.5,2.0,200,4.0,7.0
2,1.0001,182.5,0.8,0.5,50,2.0,4.0
`

// ErrNoMappedFields is returned when no feature column is marked present.
var ErrNoMappedFields = errors.New("no fields mapped")

// Mapping ties a feature to a CSV column.
type Mapping struct {
	Field    string `json:"field"`
	Position int    `json:"position"`
	Present  bool   `json:"present"`
}

// DefaultMappings returns one unmapped entry per field.
func DefaultMappings() []Mapping {
	out := make([]Mapping, len(Fields))
	for i, f := range Fields {
		out[i] = Mapping{Field: f, Position: -1}
	}
	return out
}

// AutoMap marks each field present whose name matches a header cell,
// ignoring case and surrounding space.
func AutoMap(header []string) []Mapping {
	out := DefaultMappings()
	for i := range out {
		for col, h := range header {
			if strings.EqualFold(strings.TrimSpace(h), out[i].Field) {
				out[i].Position = col
				out[i].Present = true
				break
			}
		}
	}
	return out
}

// SetMapping updates one field in place. It reports whether the field exists.
func SetMapping(ms []Mapping, field string, position int, present bool) bool {
	for i := range ms {
		if ms[i].Field == field {
			ms[i].Position = position
			ms[i].Present = present
			return true
		}
	}
	return false
}

// ValidateMappings checks that at least one field is present and that every
// present field points at an existing column.
func ValidateMappings(ms []Mapping, columns int) error {
	mapped := false
	for _, m := range ms {
		if !m.Present {
			continue
		}
		mapped = true
		if m.Position < 0 || m.Position >= columns {
			return fmt.Errorf("field %s: column %d out of range [0,%d)", m.Field, m.Position, columns)
		}
	}
	if !mapped {
		return ErrNoMappedFields
	}
	return nil
}

// ParseCSV reads all rows. Rows may have differing lengths; blank lines are
// skipped.
func ParseCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, errors.New("parse csv: no rows")
	}
	return rows, nil
}
