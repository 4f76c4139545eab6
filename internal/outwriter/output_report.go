package outwriter

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/huangsam/devflow/internal/contract"
	"github.com/huangsam/devflow/internal/parquet"
	"github.com/huangsam/devflow/schema"
)

// WriteReportResults outputs a developer report, dispatching on the configured output format.
func WriteReportResults(report *schema.DeveloperReport, cfg *contract.Config, duration time.Duration) error {
	if report == nil {
		return errors.New("no report to write")
	}
	fmtFloat, fmtOptional := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON")
	case schema.YAMLOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeYAML(w, report)
		}, "Wrote YAML")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCSVReport(w, report, fmtOptional)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.Write(w, parquet.ConvertReport(report))
		}, "Wrote Parquet")
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeReportTable(w, report, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
}

// writeReportTable renders the human-readable report: a header, one table of
// metrics grouped by family, and the audit summary.
func writeReportTable(w io.Writer, report *schema.DeveloperReport, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	if _, err := fmt.Fprintf(w, "📊 Delivery metrics for %s\n", subjectLabel(report.Subject)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Window: %s → %s (%d days), projects: %d\n",
		report.Window.Start.Format(time.DateOnly), report.Window.End.Format(time.DateOnly),
		report.Window.LengthDays, report.ProjectCount); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Family", "Metric", "Value"})
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	detailWidth := getMaxDetailWidth(cfg)
	var data [][]string
	for _, name := range schema.AllFamilies {
		if msg, failed := report.Errors[name]; failed {
			data = append(data, []string{string(name), "error", contract.TruncateText(msg, detailWidth)})
			continue
		}
		rows := schema.Rows(report.Result(name))
		for i, row := range rows {
			family := ""
			if i == 0 {
				family = string(name)
			}
			value := "-"
			if row.Value != nil {
				value = fmtFloat(*row.Value)
			}
			data = append(data, []string{family, row.Metric, value})
		}
		data = append(data, extraRows(report.Result(name), fmtFloat, detailWidth)...)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if err := writeAuditSummary(w, report.Audit); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Run %s completed in %v with %d workers. Cache backend: %s\n",
		report.RunID, duration, cfg.Workers, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

// extraRows renders the list-valued fields that do not flatten into metric rows.
func extraRows(res schema.FamilyResult, fmtFloat func(float64) string, width int) [][]string {
	var rows [][]string
	switch r := res.(type) {
	case *schema.QualityResult:
		for _, s := range r.StageDurations {
			rows = append(rows, []string{"", "stage_" + s.Stage + "_avg_seconds", fmtFloat(s.AvgSeconds)})
		}
	case *schema.AdvancedResult:
		if len(r.TopAuthors) > 0 {
			rows = append(rows, []string{"", "top_authors", contract.TruncateText(schema.FormatAuthors(r.TopAuthors), width)})
		}
	}
	return rows
}

// writeAuditSummary prints the colored rating and the per-source sample counts.
func writeAuditSummary(w io.Writer, audit schema.MetricsAudit) error {
	var parts []string
	for _, src := range schema.AllSources {
		part := fmt.Sprintf("%s %d", src, audit.SampleCounts[src])
		if audit.LowSample[src] {
			part += " (low)"
		}
		parts = append(parts, part)
	}
	if _, err := fmt.Fprintf(w, "Data quality: %s | %s\n", contract.GetColorLabel(audit.Rating), strings.Join(parts, ", ")); err != nil {
		return err
	}
	if len(audit.Errors) == 0 {
		return nil
	}
	failed := make([]string, 0, len(audit.Errors))
	for name := range audit.Errors {
		failed = append(failed, string(name))
	}
	slices.Sort(failed)
	_, err := fmt.Fprintf(w, "Failed families: %s\n", strings.Join(failed, ", "))
	return err
}

func subjectLabel(u schema.User) string {
	switch {
	case u.Username != "" && u.Name != "":
		return fmt.Sprintf("@%s (%s)", u.Username, u.Name)
	case u.Username != "":
		return "@" + u.Username
	case u.Name != "":
		return u.Name
	default:
		return fmt.Sprintf("user %d", u.ID)
	}
}
