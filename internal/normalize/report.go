package normalize

import (
	"sort"
)

const (
	topComplaintLimit = 10
	samplesPerLang    = 2
	sampleTextRunes   = 60
)

var sampleLanguages = []string{"en", "mr"}

// Bucket is one value of a frequency distribution.
type Bucket struct {
	Value   string  `json:"value" yaml:"value"`
	Count   int     `json:"count" yaml:"count"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// Sample is a truncated example record.
type Sample struct {
	Text         string `json:"text" yaml:"text"`
	Standardized string `json:"standardized" yaml:"standardized"`
	Category     string `json:"category" yaml:"category"`
	Sentiment    string `json:"sentiment" yaml:"sentiment"`
	Priority     string `json:"priority" yaml:"priority"`
}

type LanguageSamples struct {
	Lang    string   `json:"lang" yaml:"lang"`
	Samples []Sample `json:"samples" yaml:"samples"`
}

// Summary is the observational report over a processed dataset.
type Summary struct {
	Total         int               `json:"total" yaml:"total"`
	Languages     []Bucket          `json:"languages" yaml:"languages"`
	Categories    []Bucket          `json:"categories" yaml:"categories"`
	Sentiments    []Bucket          `json:"sentiments" yaml:"sentiments"`
	Priorities    []Bucket          `json:"priorities" yaml:"priorities"`
	TopComplaints []Bucket          `json:"topComplaints" yaml:"topComplaints"`
	Samples       []LanguageSamples `json:"samples" yaml:"samples"`
}

// counter remembers first-seen order so ties can be resolved by it.
type counter struct {
	order  []string
	counts map[string]int
}

func newCounter() *counter {
	return &counter{counts: map[string]int{}}
}

func (c *counter) add(value string) {
	if _, ok := c.counts[value]; !ok {
		c.order = append(c.order, value)
	}
	c.counts[value]++
}

func (c *counter) buckets(total int) []Bucket {
	out := make([]Bucket, 0, len(c.order))
	for _, v := range c.order {
		out = append(out, Bucket{Value: v, Count: c.counts[v], Percent: percent(c.counts[v], total)})
	}
	return out
}

// BuildSummary computes distributions, the top complaint labels and a few
// samples per language. It does not modify records.
func BuildSummary(records []Record) Summary {
	total := len(records)
	langs, cats, sents, prios, labels := newCounter(), newCounter(), newCounter(), newCounter(), newCounter()
	for _, rec := range records {
		langs.add(rec.Lang)
		cats.add(rec.Category)
		sents.add(rec.Sentiment)
		prios.add(rec.Priority)
		labels.add(rec.StandardizedComplaint)
	}

	s := Summary{
		Total:      total,
		Languages:  sortedByValue(langs.buckets(total)),
		Categories: sortedByValue(cats.buckets(total)),
		Sentiments: sortedByValue(sents.buckets(total)),
		Priorities: sortedByValue(prios.buckets(total)),
	}

	top := labels.buckets(total)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Count > top[j].Count })
	if len(top) > topComplaintLimit {
		top = top[:topComplaintLimit]
	}
	s.TopComplaints = top

	for _, lang := range sampleLanguages {
		ls := LanguageSamples{Lang: lang, Samples: []Sample{}}
		for _, rec := range records {
			if len(ls.Samples) == samplesPerLang {
				break
			}
			if rec.Lang != lang {
				continue
			}
			ls.Samples = append(ls.Samples, Sample{
				Text:         truncateRunes(rec.ComplaintText, sampleTextRunes),
				Standardized: rec.StandardizedComplaint,
				Category:     rec.Category,
				Sentiment:    rec.Sentiment,
				Priority:     rec.Priority,
			})
		}
		s.Samples = append(s.Samples, ls)
	}
	return s
}

func sortedByValue(b []Bucket) []Bucket {
	sort.Slice(b, func(i, j int) bool { return b[i].Value < b[j].Value })
	return b
}

func percent(count, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(count) / float64(total) * 100
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
