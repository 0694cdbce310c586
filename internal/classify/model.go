// Package classify routes complaint text to a government department.
//
// Model runs inference for a TF-IDF + multinomial naive Bayes classifier that
// was trained elsewhere and exported as JSON. RuleClassifier is the
// dependency-free fallback built on the standardization table.
package classify

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"
)

var tokenPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]{2,}`)

// Model is a pretrained TF-IDF + multinomial naive Bayes classifier.
type Model struct {
	Classes        []string       `json:"classes"`
	Vocabulary     map[string]int `json:"vocabulary"`
	IDF            []float64      `json:"idf"`
	ClassLogPrior  []float64      `json:"class_log_prior"`
	FeatureLogProb [][]float64    `json:"feature_log_prob"`
	StopWords      []string       `json:"stop_words"`
	NgramRange     [2]int         `json:"ngram_range"`
	SublinearTF    bool           `json:"sublinear_tf"`

	stop map[string]struct{}
}

// LoadModel reads and validates an exported model file.
func LoadModel(path string) (*Model, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var m Model
	if err := json.Unmarshal(blob, &m); err != nil {
		return nil, fmt.Errorf("decode model %s: %w", path, err)
	}
	if err := m.init(); err != nil {
		return nil, fmt.Errorf("model %s: %w", path, err)
	}
	return &m, nil
}

func (m *Model) init() error {
	if len(m.Classes) == 0 {
		return fmt.Errorf("no classes")
	}
	if len(m.ClassLogPrior) != len(m.Classes) || len(m.FeatureLogProb) != len(m.Classes) {
		return fmt.Errorf("class dimension mismatch: classes=%d priors=%d rows=%d", len(m.Classes), len(m.ClassLogPrior), len(m.FeatureLogProb))
	}
	features := len(m.IDF)
	for term, idx := range m.Vocabulary {
		if idx < 0 || idx >= features {
			return fmt.Errorf("vocabulary index %d for %q out of range", idx, term)
		}
	}
	for i, row := range m.FeatureLogProb {
		if len(row) != features {
			return fmt.Errorf("feature row %d has %d entries, want %d", i, len(row), features)
		}
	}
	if m.NgramRange[0] <= 0 {
		m.NgramRange = [2]int{1, 1}
	}
	if m.NgramRange[1] < m.NgramRange[0] {
		m.NgramRange[1] = m.NgramRange[0]
	}
	m.stop = make(map[string]struct{}, len(m.StopWords))
	for _, w := range m.StopWords {
		m.stop[w] = struct{}{}
	}
	return nil
}

// Predict returns the most likely department for text.
func (m *Model) Predict(text string) string {
	weights := m.vectorize(text)
	best, bestScore := 0, math.Inf(-1)
	for c := range m.Classes {
		score := m.ClassLogPrior[c]
		for idx, w := range weights {
			score += w * m.FeatureLogProb[c][idx]
		}
		if score > bestScore {
			best, bestScore = c, score
		}
	}
	return m.Classes[best]
}

// Classify lets Model serve as an intake classifier.
func (m *Model) Classify(_ context.Context, text string) (string, error) {
	return m.Predict(text), nil
}

func (m *Model) vectorize(text string) map[int]float64 {
	counts := map[int]float64{}
	for _, term := range m.terms(text) {
		if idx, ok := m.Vocabulary[term]; ok {
			counts[idx]++
		}
	}

	var norm float64
	for idx, tf := range counts {
		if m.SublinearTF {
			tf = 1 + math.Log(tf)
		}
		w := tf * m.IDF[idx]
		counts[idx] = w
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for idx := range counts {
			counts[idx] /= norm
		}
	}
	return counts
}

func (m *Model) terms(text string) []string {
	raw := tokenPattern.FindAllString(strings.ToLower(text), -1)
	tokens := raw[:0]
	for _, tok := range raw {
		if _, stop := m.stop[tok]; !stop {
			tokens = append(tokens, tok)
		}
	}

	var out []string
	for n := m.NgramRange[0]; n <= m.NgramRange[1]; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			out = append(out, strings.Join(tokens[i:i+n], " "))
		}
	}
	return out
}
