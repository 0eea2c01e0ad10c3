package eval

import (
	"fmt"
	"io"
	"time"

	"github.com/montanaflynn/stats"
)

type aggregate struct {
	precision float64
	recall    float64
	f1        float64
	correct   int
	expected  int
}

func aggregateResults(results []MessageResult, pick func(MessageResult) Comparison) aggregate {
	var agg aggregate
	var precisions, recalls, f1s []float64
	for _, r := range results {
		cmp := pick(r)
		precisions = append(precisions, cmp.Precision)
		recalls = append(recalls, cmp.Recall)
		f1s = append(f1s, cmp.F1)
		agg.correct += len(cmp.Correct)
		agg.expected += cmp.ExpectedCount
	}
	agg.precision, _ = stats.Mean(precisions)
	agg.recall, _ = stats.Mean(recalls)
	agg.f1, _ = stats.Mean(f1s)
	return agg
}

func better(v1, v2 float64) string {
	if v2 > v1 {
		return "v2"
	}
	return "v1"
}

// WriteReport renders the comparison as a Markdown document.
func WriteReport(w io.Writer, results []MessageResult, now time.Time) error {
	v1 := aggregateResults(results, func(r MessageResult) Comparison { return r.V1 })
	v2 := aggregateResults(results, func(r MessageResult) Comparison { return r.V2 })

	fmt.Fprintf(w, "# Person extraction report\n\n")
	fmt.Fprintf(w, "**Date:** %s\n\n", now.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "**Messages:** %d\n\n", len(results))

	fmt.Fprintf(w, "## Summary\n\n")
	fmt.Fprintf(w, "| Metric | Pipeline v1 | Pipeline v2 |\n")
	fmt.Fprintf(w, "|--------|-------------|-------------|\n")
	fmt.Fprintf(w, "| Correct | %d/%d | %d/%d |\n", v1.correct, v1.expected, v2.correct, v2.expected)
	fmt.Fprintf(w, "| Precision (mean) | %.2f%% | %.2f%% |\n", v1.precision*100, v2.precision*100)
	fmt.Fprintf(w, "| Recall (mean) | %.2f%% | %.2f%% |\n", v1.recall*100, v2.recall*100)
	fmt.Fprintf(w, "| F1 (mean) | %.2f%% | %.2f%% |\n\n", v1.f1*100, v2.f1*100)

	fmt.Fprintf(w, "## Per message\n\n")
	for _, r := range results {
		fmt.Fprintf(w, "### Message %s\n\n", r.Message.ID)
		fmt.Fprintf(w, "**Text:** %s\n\n", r.Message.Text)
		if r.Message.Notes != "" {
			fmt.Fprintf(w, "**Notes:** %s\n\n", r.Message.Notes)
		}
		writeComparison(w, r.V1)
		writeComparison(w, r.V2)
	}

	fmt.Fprintf(w, "## Pipeline v1 vs v2\n\n")
	fmt.Fprintf(w, "| Metric | v1 | v2 | Better |\n")
	fmt.Fprintf(w, "|--------|----|----|--------|\n")
	fmt.Fprintf(w, "| Precision | %.2f%% | %.2f%% | %s |\n", v1.precision*100, v2.precision*100, better(v1.precision, v2.precision))
	fmt.Fprintf(w, "| Recall | %.2f%% | %.2f%% | %s |\n", v1.recall*100, v2.recall*100, better(v1.recall, v2.recall))
	fmt.Fprintf(w, "| F1 | %.2f%% | %.2f%% | %s |\n", v1.f1*100, v2.f1*100, better(v1.f1, v2.f1))

	return nil
}

func writeComparison(w io.Writer, cmp Comparison) {
	fmt.Fprintf(w, "#### Pipeline %s\n\n", cmp.Pipeline)
	fmt.Fprintf(w, "- Found: %d | Expected: %d | Correct: %d\n", cmp.ActualCount, cmp.ExpectedCount, len(cmp.Correct))
	fmt.Fprintf(w, "- Precision: %.2f%% | Recall: %.2f%% | F1: %.2f%%\n\n", cmp.Precision*100, cmp.Recall*100, cmp.F1*100)

	writePersonList(w, "Correct", cmp.Correct)
	writePersonList(w, "Missed", cmp.Missed)
	writePersonList(w, "Extra", cmp.Extra)

	if len(cmp.VariantIssues) > 0 {
		fmt.Fprintf(w, "**Variant issues:**\n\n")
		for _, issue := range cmp.VariantIssues {
			fmt.Fprintf(w, "- expected %q, found %q\n", issue.Expected, issue.Found)
		}
		fmt.Fprintf(w, "\n")
	}
}

func writePersonList(w io.Writer, label string, persons []LabeledPerson) {
	if len(persons) == 0 {
		return
	}
	fmt.Fprintf(w, "**%s:**\n\n", label)
	for _, p := range persons {
		fmt.Fprintf(w, "- %s (%s)\n", p.Name, p.Type)
	}
	fmt.Fprintf(w, "\n")
}
