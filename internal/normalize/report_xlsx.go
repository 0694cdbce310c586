package normalize

import (
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// ExportSummaryToXLSX writes the summary into a workbook with one sheet for
// distributions, one for top complaints and one for samples.
func ExportSummaryToXLSX(s Summary, outputPath string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), "Distribution"); err != nil {
		return err
	}
	for _, name := range []string{"Top Complaints", "Samples"} {
		if _, err := f.NewSheet(name); err != nil {
			return err
		}
	}

	row := 1
	set := func(sheet string, col, r int, value any) {
		cell, _ := excelize.CoordinatesToCellName(col, r)
		_ = f.SetCellValue(sheet, cell, value)
	}

	set("Distribution", 1, row, "total")
	set("Distribution", 2, row, s.Total)
	row += 2
	groups := []struct {
		name    string
		buckets []Bucket
	}{
		{"lang", s.Languages},
		{"category", s.Categories},
		{"sentiment", s.Sentiments},
		{"priority", s.Priorities},
	}
	for _, g := range groups {
		set("Distribution", 1, row, g.name)
		set("Distribution", 2, row, "count")
		set("Distribution", 3, row, "percent")
		row++
		for _, b := range g.buckets {
			set("Distribution", 1, row, b.Value)
			set("Distribution", 2, row, b.Count)
			set("Distribution", 3, row, roundTenth(b.Percent))
			row++
		}
		row++
	}

	set("Top Complaints", 1, 1, "standardized_complaint")
	set("Top Complaints", 2, 1, "count")
	for i, b := range s.TopComplaints {
		set("Top Complaints", 1, i+2, b.Value)
		set("Top Complaints", 2, i+2, b.Count)
	}

	headers := []string{"lang", "complaint_text", "standardized_complaint", "category", "sentiment", "priority"}
	for i, h := range headers {
		set("Samples", i+1, 1, h)
	}
	r := 2
	for _, ls := range s.Samples {
		for _, sample := range ls.Samples {
			set("Samples", 1, r, ls.Lang)
			set("Samples", 2, r, sample.Text)
			set("Samples", 3, r, sample.Standardized)
			set("Samples", 4, r, sample.Category)
			set("Samples", 5, r, sample.Sentiment)
			set("Samples", 6, r, sample.Priority)
			r++
		}
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func roundTenth(v float64) float64 {
	return float64(int64(v*10+0.5)) / 10
}
