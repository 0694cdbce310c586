package classify

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"
)

func writeModel(t *testing.T, m map[string]any) string {
	t.Helper()
	blob, err := json.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(t.TempDir(), "model.json")
	if err := os.WriteFile(path, blob, 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testModel() map[string]any {
	ln := math.Log
	return map[string]any{
		"classes":         []string{"Water", "Road"},
		"vocabulary":      map[string]int{"water": 0, "supply": 1, "road": 2, "water supply": 3},
		"idf":             []float64{1, 1.5, 1, 2},
		"class_log_prior": []float64{ln(0.5), ln(0.5)},
		"feature_log_prob": [][]float64{
			{ln(0.4), ln(0.3), ln(0.1), ln(0.2)},
			{ln(0.1), ln(0.1), ln(0.7), ln(0.1)},
		},
		"stop_words":  []string{"no", "the"},
		"ngram_range": []int{1, 2},
	}
}

func TestModelPredict(t *testing.T) {
	m, err := LoadModel(writeModel(t, testModel()))
	if err != nil {
		t.Fatal(err)
	}

	cases := map[string]string{
		"No water supply in the village": "Water",
		"The ROAD is broken":             "Road",
	}
	for text, want := range cases {
		got, err := m.Classify(context.Background(), text)
		if err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Fatalf("Classify(%q) = %q, want %q", text, got, want)
		}
	}
}

func TestModelTerms(t *testing.T) {
	m, err := LoadModel(writeModel(t, testModel()))
	if err != nil {
		t.Fatal(err)
	}
	got := m.terms("No water, supply!")
	want := []string{"water", "supply", "water supply"}
	if len(got) != len(want) {
		t.Fatalf("terms=%v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("terms=%v", got)
		}
	}
}

func TestLoadModelRejectsMismatch(t *testing.T) {
	bad := testModel()
	bad["class_log_prior"] = []float64{0}
	if _, err := LoadModel(writeModel(t, bad)); err == nil {
		t.Fatal("expected dimension error")
	}

	bad = testModel()
	bad["vocabulary"] = map[string]int{"water": 9}
	if _, err := LoadModel(writeModel(t, bad)); err == nil {
		t.Fatal("expected vocabulary range error")
	}
}

func TestRuleClassifier(t *testing.T) {
	r := NewRuleClassifier()
	cases := map[string]string{
		"No water supply since Monday":               "Water",
		"primary health center: no doctor available": "Health",
		"रस्त्यावर खड्डे":                            "Road",
		"no teachers in school":                      "Education",
		"the bus is late":                            "Others",
		"   ":                                        DepartmentUnknown,
	}
	for text, want := range cases {
		if got := r.Predict(text); got != want {
			t.Fatalf("Predict(%q) = %q, want %q", text, got, want)
		}
	}
}
