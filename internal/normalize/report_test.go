package normalize

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
)

func TestBuildSummary(t *testing.T) {
	long := strings.Repeat("क", 70)
	records := []Record{
		{ComplaintText: "a", Lang: "en", Category: "Water", Sentiment: "Negative", Priority: "High", StandardizedComplaint: "no_water_supply"},
		{ComplaintText: "b", Lang: "en", Category: "Road", Sentiment: "Neutral", Priority: "Low", StandardizedComplaint: "new_road_required"},
		{ComplaintText: "c", Lang: "en", Category: "Water", Sentiment: "Negative", Priority: "High", StandardizedComplaint: "no_water_supply"},
		{ComplaintText: long, Lang: "mr", Category: "Road", Sentiment: "Negative", Priority: "Medium", StandardizedComplaint: "road_potholes"},
	}

	s := BuildSummary(records)
	if s.Total != 4 {
		t.Fatalf("total=%d", s.Total)
	}

	wantLangs := []Bucket{{Value: "en", Count: 3, Percent: 75}, {Value: "mr", Count: 1, Percent: 25}}
	if diff := cmp.Diff(wantLangs, s.Languages); diff != "" {
		t.Fatalf("languages (-want +got):\n%s", diff)
	}
	wantCats := []Bucket{{Value: "Road", Count: 2, Percent: 50}, {Value: "Water", Count: 2, Percent: 50}}
	if diff := cmp.Diff(wantCats, s.Categories); diff != "" {
		t.Fatalf("categories (-want +got):\n%s", diff)
	}

	var top []string
	for _, b := range s.TopComplaints {
		top = append(top, b.Value)
	}
	// ties keep first-seen order
	if diff := cmp.Diff([]string{"no_water_supply", "new_road_required", "road_potholes"}, top); diff != "" {
		t.Fatalf("top (-want +got):\n%s", diff)
	}

	if len(s.Samples) != 2 || s.Samples[0].Lang != "en" || s.Samples[1].Lang != "mr" {
		t.Fatalf("samples=%+v", s.Samples)
	}
	if len(s.Samples[0].Samples) != 2 || s.Samples[0].Samples[1].Text != "b" {
		t.Fatalf("en samples=%+v", s.Samples[0].Samples)
	}
	if got := []rune(s.Samples[1].Samples[0].Text); len(got) != 60 {
		t.Fatalf("mr sample not truncated: %d runes", len(got))
	}
}

func TestBuildSummaryTopLimit(t *testing.T) {
	var records []Record
	for i := 0; i < 12; i++ {
		label := string(rune('a' + i))
		for j := 0; j <= i; j++ {
			records = append(records, Record{StandardizedComplaint: label})
		}
	}
	s := BuildSummary(records)
	if len(s.TopComplaints) != 10 {
		t.Fatalf("len=%d", len(s.TopComplaints))
	}
	if s.TopComplaints[0].Value != "l" || s.TopComplaints[0].Count != 12 {
		t.Fatalf("first=%+v", s.TopComplaints[0])
	}
}

func TestBuildSummaryEmpty(t *testing.T) {
	s := BuildSummary(nil)
	if s.Total != 0 || len(s.Languages) != 0 || len(s.TopComplaints) != 0 {
		t.Fatalf("unexpected: %+v", s)
	}
}

func TestWriteConsoleReport(t *testing.T) {
	s := BuildSummary([]Record{
		{ComplaintText: "No water supply in village", Lang: "en", Category: "Water", Sentiment: "Negative", Priority: "High", StandardizedComplaint: "no_water_supply"},
		{ComplaintText: "x", Lang: "mr", Category: "Others", Sentiment: "Neutral", Priority: "Low", StandardizedComplaint: "other_issue"},
		{ComplaintText: "y", Lang: "mr", Category: "Others", Sentiment: "Neutral", Priority: "Low", StandardizedComplaint: "other_issue"},
	})
	var buf bytes.Buffer
	WriteConsoleReport(&buf, s)
	out := buf.String()
	for _, want := range []string{"TOTAL COMPLAINTS: 3", "EN", "33.3%", "66.7%", "no_water_supply", "English samples:", "Marathi samples:", "-> Standardized: other_issue"} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}

func TestExportSummaryToXLSX(t *testing.T) {
	s := BuildSummary([]Record{{ComplaintText: "a", Lang: "en", Category: "Water", Sentiment: "Negative", Priority: "High", StandardizedComplaint: "no_water_supply"}})
	out := filepath.Join(t.TempDir(), "report", "summary.xlsx")
	if err := ExportSummaryToXLSX(s, out); err != nil {
		t.Fatal(err)
	}
	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if diff := cmp.Diff([]string{"Distribution", "Top Complaints", "Samples"}, f.GetSheetList()); diff != "" {
		t.Fatalf("sheets (-want +got):\n%s", diff)
	}
	v, err := f.GetCellValue("Top Complaints", "A2")
	if err != nil || v != "no_water_supply" {
		t.Fatalf("A2=%q err=%v", v, err)
	}
}
