package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/huangsam/devflow/schema"
)

// writeCSVMetrics writes one row per metric definition.
func writeCSVMetrics(w io.Writer, model *schema.MetricsRenderModel) error {
	return writeCSVWithHeader(w, []string{"family", "metric", "unit", "formula"}, func(cw *csv.Writer) error {
		for _, fam := range model.Families {
			for _, m := range fam.Metrics {
				if err := cw.Write([]string{string(fam.Name), m.Key, m.Unit, m.Formula}); err != nil {
					return fmt.Errorf("failed to write CSV record: %w", err)
				}
			}
		}
		return nil
	})
}

// writeTextMetrics writes the definitions in human-readable text format.
func writeTextMetrics(w io.Writer, model *schema.MetricsRenderModel) error {
	var b strings.Builder
	fmt.Fprintf(&b, "📐 %s\n", model.Title)
	fmt.Fprintf(&b, "%s\n\n", strings.Repeat("=", len(model.Title)+3))
	fmt.Fprintf(&b, "%s\n\n", model.Description)

	for _, fam := range model.Families {
		fmt.Fprintf(&b, "%s: %s\n", strings.ToUpper(string(fam.Name)), fam.Purpose)
		width := 0
		for _, m := range fam.Metrics {
			width = max(width, len(m.Key))
		}
		for _, m := range fam.Metrics {
			fmt.Fprintf(&b, "   %-*s  [%s] %s\n", width, m.Key, m.Unit, m.Formula)
		}
		b.WriteString("\n")
	}

	b.WriteString("🔎 Data quality rating\n")
	keys := make([]string, 0, len(model.Audit))
	for k := range model.Audit {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int { return strings.Compare(auditOrder(a), auditOrder(b)) })
	for _, k := range keys {
		fmt.Fprintf(&b, "   %s: %s\n", k, model.Audit[k])
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// auditOrder lists the ratings best first, then the thresholds alphabetically.
func auditOrder(key string) string {
	for i, r := range []schema.QualityRating{schema.ExcellentRating, schema.GoodRating, schema.FairRating, schema.PoorRating} {
		if key == string(r) {
			return fmt.Sprintf("0%d", i)
		}
	}
	return "1" + key
}
