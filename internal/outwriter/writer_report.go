package outwriter

import (
	"encoding/csv"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/devflow/schema"
)

// reportCSVHeader is one row per metric; failed families get a single row carrying the error.
var reportCSVHeader = []string{"run_id", "subject_id", "window_start", "window_end", "family", "metric", "value", "error"}

// writeCSVReport writes the flattened report rows in CSV format.
func writeCSVReport(w io.Writer, report *schema.DeveloperReport, fmtOptional func(*float64) string) error {
	prefix := []string{
		report.RunID,
		strconv.FormatInt(report.Subject.ID, 10),
		report.Window.Start.Format(time.RFC3339),
		report.Window.End.Format(time.RFC3339),
	}
	record := func(family schema.FamilyName, metric, value, errMsg string) []string {
		rec := append([]string(nil), prefix...)
		return append(rec, string(family), metric, value, errMsg)
	}

	return writeCSVWithHeader(w, reportCSVHeader, func(cw *csv.Writer) error {
		for _, name := range schema.AllFamilies {
			if msg, failed := report.Errors[name]; failed {
				if err := cw.Write(record(name, "", "", msg)); err != nil {
					return err
				}
				continue
			}
			for _, row := range schema.Rows(report.Result(name)) {
				if err := cw.Write(record(row.Family, row.Metric, fmtOptional(row.Value), "")); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
