package normalize

import (
	"fmt"
	"strings"
)

// Options controls one normalization run.
type Options struct {
	InputPath  string
	OutputPath string
	// Delimiter for CSV input and output; zero means comma.
	Delimiter rune
}

// Result describes a finished run.
type Result struct {
	InputRows  int
	OutputRows int
	Header     []string
	Records    []Record
	Summary    Summary
}

// EnrichRecord runs the per-record stages in their fixed order and returns
// the annotated copy.
func EnrichRecord(rec Record) Record {
	out := rec
	out.ComplaintText = CleanText(rec.ComplaintText)
	out.StandardizedComplaint = Standardize(out.ComplaintText)
	out.Category = CorrectCategory(out.StandardizedComplaint, canonical(out.Category, Categories, CategoryOthers))
	out.Sentiment = RefineSentiment(out.ComplaintText, out.StandardizedComplaint, canonical(out.Sentiment, Sentiments, SentimentNegative))
	out.Priority = ReassessPriority(out.Category, out.StandardizedComplaint, canonical(out.Priority, Priorities, PriorityMedium))
	return out
}

// Process enriches all records and then drops duplicates.
func Process(records []Record) []Record {
	enriched := make([]Record, 0, len(records))
	for _, rec := range records {
		enriched = append(enriched, EnrichRecord(rec))
	}
	return Deduplicate(enriched)
}

// Run reads the input dataset, processes it and writes the output. The output
// file only appears once every stage has succeeded.
func Run(opts Options) (Result, error) {
	if strings.TrimSpace(opts.InputPath) == "" || strings.TrimSpace(opts.OutputPath) == "" {
		return Result{}, stageErr("config", fmt.Errorf("input and output paths are required"))
	}

	ds, err := ReadDataset(opts.InputPath, opts.Delimiter)
	if err != nil {
		return Result{}, err
	}

	processed := Process(ds.Records)
	header := OutputHeader(ds.Header)
	if err := WriteDataset(opts.OutputPath, header, processed, opts.Delimiter); err != nil {
		return Result{}, err
	}

	return Result{
		InputRows:  len(ds.Records),
		OutputRows: len(processed),
		Header:     header,
		Records:    processed,
		Summary:    BuildSummary(processed),
	}, nil
}
