package normalize

import (
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/xuri/excelize/v2"
)

const sampleCSV = `Complaint_Text,lang,Village,Date,Category,Sentiment,Priority,Ward
No water supply in village,en,X,2024-01-01,Water,Negative,Low,3
New road required urgently,en,Y,2024-01-02,Road,Negative,High,4
No water supply since Monday,en,X,2024-01-01,Water,Negative,Low,5
गावात पाणी पुरवठा बंद आहे,mr,Z,2024-01-03,Water,,,6
  Primary Health Center needs a health camp needed ,en,Y,2024-01-04,Health,Negative,High,7
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func TestRunCSV(t *testing.T) {
	tmp := t.TempDir()
	in := filepath.Join(tmp, "in.csv")
	out := filepath.Join(tmp, "out", "processed.csv")
	writeFile(t, in, sampleCSV)

	res, err := Run(Options{InputPath: in, OutputPath: out})
	if err != nil {
		t.Fatal(err)
	}
	if res.InputRows != 5 || res.OutputRows != 4 {
		t.Fatalf("rows in=%d out=%d", res.InputRows, res.OutputRows)
	}

	want := [][]string{
		{"Complaint_Text", "lang", "Village", "Date", "Category", "Sentiment", "Priority", "Ward", "Standardized_Complaint"},
		{"No water supply in village", "en", "X", "2024-01-01", "Water", "Negative", "High", "3", "no_water_supply"},
		{"New road required urgently", "en", "Y", "2024-01-02", "Road", "Neutral", "Low", "4", "new_road_required"},
		{"गावात पाणी पुरवठा बंद आहे", "mr", "Z", "2024-01-03", "Water", "Negative", "High", "6", "no_water_supply"},
		{"PHC needs a health camp needed", "en", "Y", "2024-01-04", "Others", "Neutral", "Low", "7", "health_camp_needed"},
	}
	if diff := cmp.Diff(want, readCSV(t, out)); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if res.Summary.Total != 4 {
		t.Fatalf("summary total=%d", res.Summary.Total)
	}
}

func TestRunIsRepeatable(t *testing.T) {
	tmp := t.TempDir()
	in := filepath.Join(tmp, "in.csv")
	writeFile(t, in, sampleCSV)

	first, err := Run(Options{InputPath: in, OutputPath: filepath.Join(tmp, "a.csv")})
	if err != nil {
		t.Fatal(err)
	}
	second, err := Run(Options{InputPath: in, OutputPath: filepath.Join(tmp, "b.csv")})
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(first.Records, second.Records); diff != "" {
		t.Fatalf("runs differ:\n%s", diff)
	}
}

func TestRunInputNotFound(t *testing.T) {
	tmp := t.TempDir()
	out := filepath.Join(tmp, "out.csv")
	_, err := Run(Options{InputPath: filepath.Join(tmp, "missing.csv"), OutputPath: out})
	if !errors.Is(err, ErrInputNotFound) {
		t.Fatalf("err=%v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("output must not exist, stat err=%v", err)
	}
}

func TestRunMissingColumn(t *testing.T) {
	tmp := t.TempDir()
	in := filepath.Join(tmp, "in.csv")
	out := filepath.Join(tmp, "out.csv")
	writeFile(t, in, "Complaint_Text,lang,Village\nx,en,y\n")

	_, err := Run(Options{InputPath: in, OutputPath: out})
	var perr *ProcessingError
	if !errors.As(err, &perr) || perr.Stage != "read" {
		t.Fatalf("err=%v", err)
	}
	if !strings.Contains(err.Error(), "Date") || !strings.Contains(err.Error(), "Category") {
		t.Fatalf("missing columns not named: %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("output must not exist")
	}
}

func TestRunInvalidUTF8(t *testing.T) {
	tmp := t.TempDir()
	in := filepath.Join(tmp, "in.csv")
	out := filepath.Join(tmp, "out.csv")
	writeFile(t, in, "Complaint_Text,lang,Village,Date,Category\nno water supply,en,X,d,Water\nbad \xff\xfe text,en,Y,d,Water\n")

	_, err := Run(Options{InputPath: in, OutputPath: out})
	var perr *ProcessingError
	if !errors.As(err, &perr) || perr.Stage != "read" {
		t.Fatalf("err=%v", err)
	}
	if !strings.Contains(err.Error(), "row 3") {
		t.Fatalf("row not reported: %v", err)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("output must not exist, stat err=%v", err)
	}
}

func TestRunWriteFailureLeavesNoFiles(t *testing.T) {
	tmp := t.TempDir()
	in := filepath.Join(tmp, "in.csv")
	writeFile(t, in, sampleCSV)

	t.Run("parent is a file", func(t *testing.T) {
		blocker := filepath.Join(tmp, "blocker")
		writeFile(t, blocker, "x")
		out := filepath.Join(blocker, "out.csv")

		_, err := Run(Options{InputPath: in, OutputPath: out})
		var perr *ProcessingError
		if !errors.As(err, &perr) || perr.Stage != "write" {
			t.Fatalf("err=%v", err)
		}
	})

	t.Run("rename fails", func(t *testing.T) {
		dir := filepath.Join(tmp, "target")
		// an existing non-empty directory cannot be replaced by a file
		out := filepath.Join(dir, "processed.csv")
		if err := os.MkdirAll(filepath.Join(out, "keep"), 0o755); err != nil {
			t.Fatal(err)
		}

		_, err := Run(Options{InputPath: in, OutputPath: out})
		var perr *ProcessingError
		if !errors.As(err, &perr) || perr.Stage != "write" {
			t.Fatalf("err=%v", err)
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatal(err)
		}
		for _, e := range entries {
			if strings.HasSuffix(e.Name(), ".tmp") {
				t.Fatalf("temp file left behind: %s", e.Name())
			}
		}
	})
}

func TestRunOutputMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	tmp := t.TempDir()
	in := filepath.Join(tmp, "in.csv")
	out := filepath.Join(tmp, "out.csv")
	writeFile(t, in, sampleCSV)

	if _, err := Run(Options{InputPath: in, OutputPath: out}); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(out)
	if err != nil {
		t.Fatal(err)
	}
	if got := info.Mode().Perm(); got != 0o644 {
		t.Fatalf("mode=%o", got)
	}
}

func TestRunAddsMissingOptionalColumns(t *testing.T) {
	tmp := t.TempDir()
	in := filepath.Join(tmp, "in.csv")
	out := filepath.Join(tmp, "out.csv")
	writeFile(t, in, "\ufeffComplaint_Text,lang,Village,Date,Category\nmedicines are not available,en,V,d,health\n")

	if _, err := Run(Options{InputPath: in, OutputPath: out}); err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		{"Complaint_Text", "lang", "Village", "Date", "Category", "Sentiment", "Priority", "Standardized_Complaint"},
		{"medicines are not available", "en", "V", "d", "Health", "Negative", "Medium", "medicines_not_available"},
	}
	if diff := cmp.Diff(want, readCSV(t, out)); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestRunSemicolonDelimiter(t *testing.T) {
	tmp := t.TempDir()
	in := filepath.Join(tmp, "in.csv")
	out := filepath.Join(tmp, "out.csv")
	writeFile(t, in, "Complaint_Text;lang;Village;Date;Category\nno teachers in school;en;V;d;Others\n")

	res, err := Run(Options{InputPath: in, OutputPath: out, Delimiter: ';'})
	if err != nil {
		t.Fatal(err)
	}
	got := res.Records[0]
	if got.Category != CategoryEducation || got.Priority != PriorityLow || got.StandardizedComplaint != "teachers_not_available" {
		t.Fatalf("unexpected record: %+v", got)
	}
}

func TestRunXLSXInput(t *testing.T) {
	tmp := t.TempDir()
	in := filepath.Join(tmp, "in.xlsx")
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]any{
		{"Complaint_Text", "lang", "Village", "Date", "Category"},
		{"drainage water is overflowing", "en", "A", "2024-02-01", "Sanitation"},
		{"कचरा उचलला जात नाही", "mr", "B", "2024-02-02", "Sanitation"},
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	if err := f.SaveAs(in); err != nil {
		t.Fatal(err)
	}

	res, err := Run(Options{InputPath: in, OutputPath: filepath.Join(tmp, "out.xlsx")})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Records) != 2 {
		t.Fatalf("len=%d", len(res.Records))
	}
	if res.Records[0].Priority != PriorityHigh || res.Records[1].Priority != PriorityMedium {
		t.Fatalf("priorities: %s %s", res.Records[0].Priority, res.Records[1].Priority)
	}

	back, err := ReadDataset(filepath.Join(tmp, "out.xlsx"), 0)
	if err != nil {
		t.Fatal(err)
	}
	if back.Header[len(back.Header)-1] != ColStandardized || len(back.Records) != 2 {
		t.Fatalf("xlsx output header=%v rows=%d", back.Header, len(back.Records))
	}
}

func TestDeduplicateKeepsFirst(t *testing.T) {
	records := []Record{
		{ComplaintText: "first", StandardizedComplaint: "no_water_supply", Village: "X", Date: "d1"},
		{ComplaintText: "second", StandardizedComplaint: "no_water_supply", Village: "X", Date: "d1"},
		{ComplaintText: "other day", StandardizedComplaint: "no_water_supply", Village: "X", Date: "d2"},
		{ComplaintText: "other label", StandardizedComplaint: "road_potholes", Village: "X", Date: "d1"},
	}
	got := Deduplicate(records)
	texts := make([]string, 0, len(got))
	for _, r := range got {
		texts = append(texts, r.ComplaintText)
	}
	if diff := cmp.Diff([]string{"first", "other day", "other label"}, texts); diff != "" {
		t.Fatalf("(-want +got):\n%s", diff)
	}
}

func TestEnrichRecordCanonicalizesEnums(t *testing.T) {
	got := EnrichRecord(Record{ComplaintText: "bus late", Lang: "mr", Category: "road", Sentiment: "POSITIVE", Priority: "urgent"})
	if got.Category != CategoryRoad || got.Sentiment != SentimentPositive || got.Priority != PriorityMedium || got.Lang != "mr" {
		t.Fatalf("unexpected: %+v", got)
	}
	unknown := EnrichRecord(Record{ComplaintText: "   ", Category: "Misc"})
	if unknown.StandardizedComplaint != LabelUnknown || unknown.Category != CategoryOthers || unknown.Priority != PriorityLow {
		t.Fatalf("unexpected: %+v", unknown)
	}
}
