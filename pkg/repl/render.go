package repl

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/duynguyendang/airdata/pkg/survey"
)

const (
	// subsetDisplayLimit caps how many respondent rows are printed; the
	// footer reports how many were cut.
	subsetDisplayLimit = 20
	// cellDisplayWidth truncates long question texts and answer values.
	cellDisplayWidth = 60
	// barWidth is the length of the distribution bar.
	barWidth = 25
)

// renderTable prints a tabular result. maxRows of 0 means print everything.
func renderTable(out io.Writer, t *survey.Table, maxRows int) {
	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, strings.Join(t.Columns, "\t"))

	shown := t.Len()
	if maxRows > 0 && shown > maxRows {
		shown = maxRows
	}
	for _, row := range t.Rows[:shown] {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = truncate(cellText(v), cellDisplayWidth)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
	w.Flush()

	if remaining := t.Len() - shown; remaining > 0 {
		fmt.Fprintf(out, "... and %d more rows\n", remaining)
	}
}

// renderDistribution prints answer/count/percentage rows with a bar scaled
// to the largest count.
func renderDistribution(out io.Writer, t *survey.Table) {
	valueIdx := t.ColumnIndex("answer_value")
	countIdx := t.ColumnIndex("response_count")
	pctIdx := t.ColumnIndex("percentage")
	if valueIdx < 0 || countIdx < 0 || pctIdx < 0 {
		renderTable(out, t, 0)
		return
	}

	var maxCount int64
	for _, row := range t.Rows {
		if n := asInt64(row[countIdx]); n > maxCount {
			maxCount = n
		}
	}

	w := tabwriter.NewWriter(out, 2, 4, 2, ' ', 0)
	fmt.Fprintln(w, "Answer\tCount\tPercentage\tBar")
	for _, row := range t.Rows {
		count := asInt64(row[countIdx])
		barLength := 0
		if maxCount > 0 {
			barLength = int(count * barWidth / maxCount)
		}
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", barWidth-barLength)
		fmt.Fprintf(w, "%s\t%d\t%.1f%%\t%s\n",
			truncate(cellText(row[valueIdx]), cellDisplayWidth),
			count,
			asFloat64(row[pctIdx]),
			bar)
	}
	w.Flush()
}

func cellText(v any) string {
	if v == nil {
		return "N/A"
	}
	return fmt.Sprintf("%v", v)
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return s[:width-3] + "..."
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int32:
		return int64(n)
	case int:
		return int64(n)
	case float64:
		return int64(n)
	default:
		return 0
	}
}

func asFloat64(v any) float64 {
	switch n := v.(type) {
	case float64:
		return n
	case float32:
		return float64(n)
	case int64:
		return float64(n)
	case int32:
		return float64(n)
	default:
		return 0
	}
}
