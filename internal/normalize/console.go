package normalize

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
)

var sampleLanguageNames = map[string]string{"en": "English", "mr": "Marathi"}

// WriteConsoleReport renders s as a human readable report.
func WriteConsoleReport(w io.Writer, s Summary) {
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintln(w, "PROCESSING COMPLETE - SUMMARY REPORT")
	fmt.Fprintln(w, strings.Repeat("=", 60))
	fmt.Fprintf(w, "\nTOTAL COMPLAINTS: %d\n", s.Total)

	writeDistribution(w, "LANGUAGE DISTRIBUTION", "Language", upperValues(s.Languages))
	writeDistribution(w, "CATEGORY DISTRIBUTION", "Category", s.Categories)
	writeDistribution(w, "SENTIMENT DISTRIBUTION", "Sentiment", s.Sentiments)
	writeDistribution(w, "PRIORITY DISTRIBUTION", "Priority", s.Priorities)

	fmt.Fprintf(w, "\nTOP %d STANDARDIZED COMPLAINT TYPES:\n", topComplaintLimit)
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Complaint", "Count"})
	for _, b := range s.TopComplaints {
		t.AppendRow(table.Row{b.Value, b.Count})
	}
	t.Render()

	fmt.Fprintln(w, "\nSAMPLE COMPLAINTS BY LANGUAGE:")
	for _, ls := range s.Samples {
		name := sampleLanguageNames[ls.Lang]
		if name == "" {
			name = ls.Lang
		}
		fmt.Fprintf(w, "\n   %s samples:\n", name)
		for i, sample := range ls.Samples {
			fmt.Fprintf(w, "     %d. %s...\n", i+1, sample.Text)
			fmt.Fprintf(w, "        -> Standardized: %s\n", sample.Standardized)
			fmt.Fprintf(w, "        -> Category: %s, Sentiment: %s, Priority: %s\n", sample.Category, sample.Sentiment, sample.Priority)
		}
	}
}

func writeDistribution(w io.Writer, title, column string, buckets []Bucket) {
	fmt.Fprintf(w, "\n%s:\n", title)
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{column, "Count", "Share"})
	for _, b := range buckets {
		t.AppendRow(table.Row{b.Value, b.Count, fmt.Sprintf("%.1f%%", b.Percent)})
	}
	t.Render()
}

func upperValues(in []Bucket) []Bucket {
	out := make([]Bucket, len(in))
	for i, b := range in {
		b.Value = strings.ToUpper(b.Value)
		out[i] = b
	}
	return out
}
