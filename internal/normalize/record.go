package normalize

// Column names of the tabular complaint dataset.
const (
	ColComplaintText = "Complaint_Text"
	ColLang          = "lang"
	ColVillage       = "Village"
	ColDate          = "Date"
	ColCategory      = "Category"
	ColSentiment     = "Sentiment"
	ColPriority      = "Priority"
	ColStandardized  = "Standardized_Complaint"
)

var requiredColumns = []string{ColComplaintText, ColLang, ColVillage, ColDate, ColCategory}

// Record is one complaint row. Known columns are lifted into fields; every
// other input column is kept in Extra so it can be written back unchanged.
type Record struct {
	ComplaintText         string
	Lang                  string
	Village               string
	Date                  string
	Category              string
	Sentiment             string
	Priority              string
	StandardizedComplaint string
	Extra                 map[string]string
}

// Dataset is an ordered record sequence plus the header it was read with.
type Dataset struct {
	Header  []string
	Records []Record
}

func recordFromRow(header []string, row []string) Record {
	rec := Record{Extra: map[string]string{}}
	for i, col := range header {
		value := ""
		if i < len(row) {
			value = row[i]
		}
		switch col {
		case ColComplaintText:
			rec.ComplaintText = value
		case ColLang:
			rec.Lang = value
		case ColVillage:
			rec.Village = value
		case ColDate:
			rec.Date = value
		case ColCategory:
			rec.Category = value
		case ColSentiment:
			rec.Sentiment = value
		case ColPriority:
			rec.Priority = value
		case ColStandardized:
			// derived column, recomputed on every run
		default:
			rec.Extra[col] = value
		}
	}
	return rec
}

// Value returns the cell for the named column.
func (r Record) Value(col string) string {
	switch col {
	case ColComplaintText:
		return r.ComplaintText
	case ColLang:
		return r.Lang
	case ColVillage:
		return r.Village
	case ColDate:
		return r.Date
	case ColCategory:
		return r.Category
	case ColSentiment:
		return r.Sentiment
	case ColPriority:
		return r.Priority
	case ColStandardized:
		return r.StandardizedComplaint
	default:
		return r.Extra[col]
	}
}

// OutputHeader is the input header with Standardized_Complaint appended last.
// Sentiment and Priority are always computed, so when the input lacks them
// they are appended ahead of the derived column.
func OutputHeader(input []string) []string {
	out := make([]string, 0, len(input)+3)
	hasSentiment, hasPriority := false, false
	for _, col := range input {
		switch col {
		case ColStandardized:
			continue
		case ColSentiment:
			hasSentiment = true
		case ColPriority:
			hasPriority = true
		}
		out = append(out, col)
	}
	if !hasSentiment {
		out = append(out, ColSentiment)
	}
	if !hasPriority {
		out = append(out, ColPriority)
	}
	return append(out, ColStandardized)
}

func rowFromRecord(header []string, rec Record) []string {
	row := make([]string, len(header))
	for i, col := range header {
		row[i] = rec.Value(col)
	}
	return row
}

func missingColumns(header []string) []string {
	present := map[string]struct{}{}
	for _, col := range header {
		present[col] = struct{}{}
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := present[col]; !ok {
			missing = append(missing, col)
		}
	}
	return missing
}
