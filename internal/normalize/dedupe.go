package normalize

type dedupKey struct {
	label   string
	village string
	date    string
}

// Deduplicate keeps the first record per (label, village, date) in input
// order. Complaint text is not part of the key.
func Deduplicate(records []Record) []Record {
	seen := map[dedupKey]struct{}{}
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		key := dedupKey{label: rec.StandardizedComplaint, village: rec.Village, date: rec.Date}
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, rec)
	}
	return out
}
