package normalize

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"gopkg.in/yaml.v3"
)

func TestWriteSummaryFile(t *testing.T) {
	s := BuildSummary([]Record{
		{ComplaintText: "no water", Lang: "en", Category: "Water", Sentiment: "Negative", Priority: "High", StandardizedComplaint: "no_water_supply"},
		{ComplaintText: "खड्डे", Lang: "mr", Category: "Road", Sentiment: "Negative", Priority: "Medium", StandardizedComplaint: "road_potholes"},
	})
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "out", "summary.json")
	if err := WriteSummaryFile(s, jsonPath); err != nil {
		t.Fatal(err)
	}
	blob, err := os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	var fromJSON Summary
	if err := json.Unmarshal(blob, &fromJSON); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(s, fromJSON); diff != "" {
		t.Fatalf("json summary (-want +got):\n%s", diff)
	}

	yamlPath := filepath.Join(dir, "summary.yml")
	if err := WriteSummaryFile(s, yamlPath); err != nil {
		t.Fatal(err)
	}
	blob, err = os.ReadFile(yamlPath)
	if err != nil {
		t.Fatal(err)
	}
	var fromYAML Summary
	if err := yaml.Unmarshal(blob, &fromYAML); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(s, fromYAML); diff != "" {
		t.Fatalf("yaml summary (-want +got):\n%s", diff)
	}

	if err := WriteSummaryFile(s, filepath.Join(dir, "summary.txt")); err == nil {
		t.Fatal("expected error for .txt")
	}
}
