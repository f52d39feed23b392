package transit

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// CSVHeader is the header row of exported sample data.
var CSVHeader = []string{"Time", "Flux", "Phase"}

// WriteCSV writes samples with a Time,Flux,Phase header.
func WriteCSV(w io.Writer, samples []Sample) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, s := range samples {
		row := []string{
			strconv.FormatFloat(s.Time, 'f', 4, 64),
			strconv.FormatFloat(s.Flux, 'f', 6, 64),
			strconv.FormatFloat(s.Phase, 'f', 4, 64),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
