package catalog

import (
	"encoding/csv"
	"io"
	"path"
	"strings"
)

var intakeHeader = []string{
	"path", "index_type", "base", "frequency", "experiment",
	"model", "ensemble", "variable", "date_range",
}

// Intake writes the catalog as a flat csv export suitable for building an
// intake catalogue: every record's categorical columns plus the absolute
// file path and the date-range token taken from the filename.
func Intake(store *Store, w io.Writer, baseDir string) error {
	rows, err := store.Rows()
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(intakeHeader); err != nil {
		return err
	}
	for _, r := range rows {
		tokens := strings.Split(r.Filename, "_")
		dateRange := ""
		if len(tokens) >= 2 {
			dateRange = tokens[len(tokens)-2]
		}
		line := []string{
			path.Join(baseDir, r.Location, r.Filename),
			r.IndexType, r.Product, r.Timestep, r.Experiment,
			r.Model, r.Ensemble, r.Variable, dateRange,
		}
		if err := cw.Write(line); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
