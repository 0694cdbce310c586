package pipeline

import (
	"strings"

	"grievance/internal/normalize"
)

type DetectResult struct {
	IsComplaint bool
	Score       float64
	Reason      string
}

var complaintKeywords = []string{
	"complaint", "grievance", "problem", "issue", "not working", "not available", "broken", "pending",
	"तक्रार", "समस्या", "बंद", "नाही", "उपलब्ध",
}

// DetectComplaint decides whether a parsed email should become a complaint.
// Auto-replies and messages with no usable content are rejected; anything
// else from a citizen is accepted, with the score recording how confident
// the match was.
func DetectComplaint(mc MailComplaint) DetectResult {
	if mc.AutoReply {
		return DetectResult{Reason: "auto_reply"}
	}
	if strings.TrimSpace(mc.Text) == "" && mc.Image == nil && mc.Audio == nil {
		return DetectResult{Reason: "empty"}
	}

	score := 0.3
	lower := strings.ToLower(mc.Subject + " " + mc.Text)
	for _, kw := range complaintKeywords {
		if strings.Contains(lower, kw) {
			score += 0.1
		}
	}
	label := normalize.Standardize(normalize.CleanText(mc.Text))
	if label != normalize.LabelOther && label != normalize.LabelUnknown {
		score += 0.4
	}
	if mc.Image != nil || mc.Audio != nil {
		score += 0.2
	}
	if mc.Village != "" || mc.Pincode != "" {
		score += 0.1
	}
	if score > 1 {
		score = 1
	}

	reason := "rules_weak"
	if score >= 0.6 {
		reason = "rules_positive"
	}
	return DetectResult{IsComplaint: true, Score: score, Reason: reason}
}
