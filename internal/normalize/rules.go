package normalize

import (
	"regexp"
	"slices"
	"strings"
)

// Fallback labels outside the pattern table.
const (
	LabelOther   = "other_issue"
	LabelUnknown = "unknown_issue"
)

const (
	CategoryWater          = "Water"
	CategoryElectricity    = "Electricity"
	CategoryHealth         = "Health"
	CategorySanitation     = "Sanitation"
	CategoryRoad           = "Road"
	CategoryEducation      = "Education"
	CategoryAdministrative = "Administrative"
	CategoryOthers         = "Others"

	SentimentPositive = "Positive"
	SentimentNeutral  = "Neutral"
	SentimentNegative = "Negative"

	PriorityHigh   = "High"
	PriorityMedium = "Medium"
	PriorityLow    = "Low"
)

var (
	Categories = []string{
		CategoryWater, CategoryElectricity, CategoryHealth, CategorySanitation,
		CategoryRoad, CategoryEducation, CategoryAdministrative, CategoryOthers,
	}
	Sentiments = []string{SentimentPositive, SentimentNeutral, SentimentNegative}
	Priorities = []string{PriorityHigh, PriorityMedium, PriorityLow}
)

// StandardRule maps one canonical label to the patterns that select it.
type StandardRule struct {
	Label    string
	Patterns []*regexp.Regexp
}

// StandardizationTable is scanned top-down; the first rule with a matching
// pattern wins, so the slice order is the priority order.
type StandardizationTable []StandardRule

func rule(label string, patterns ...string) StandardRule {
	compiled := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		compiled = append(compiled, regexp.MustCompile(`(?i)`+p))
	}
	return StandardRule{Label: label, Patterns: compiled}
}

// DefaultTable is the bilingual English/Marathi complaint table.
var DefaultTable = StandardizationTable{
	// water
	rule("no_water_supply", `no water supply`, `पाणी पुरवठा बंद`),
	rule("water_tanker_not_arrived", `water tanker not arrived`, `पाण्याचा टँकर आला नाही`),
	rule("water_tank_empty", `drinking water tank is empty`, `पाण्याचा टँक रिकामा`),
	rule("handpump_broken", `handpump is broken`, `हँडपंप बंद`),
	rule("drinking_water_problem", `drinking water problem`, `पिण्याच्या पाण्याची समस्या`),

	// electricity
	rule("electricity_supply_disrupted", `electricity supply disrupted`, `वीज पुरवठा खंडित झाला`),
	rule("frequent_power_cuts", `frequent power cuts`, `वीज खूप वेळा जाते`),
	rule("transformer_not_working", `electric transformer is not working`, `ट्रान्सफॉर्मर बंद`),
	rule("prolonged_power_cut", `no electricity for.*hours`, `वीज गेली`),

	// health
	rule("doctor_not_available", `no doctor available`, `डॉक्टर उपलब्ध नाही`),
	rule("medicines_not_available", `medicines are not available`, `औषधे उपलब्ध नाहीत`),
	rule("health_worker_absent", `village health worker is absent`, `आरोग्य कर्मचारी गैरहजर`),
	rule("ambulance_not_arrived", `emergency ambulance did not arrive`, `अॅम्ब्युलन्स आली नाही`),
	rule("health_camp_needed", `health camp needed`, `आरोग्य शिबीराची गरज`),

	// road
	rule("road_potholes", `road is damaged`, `रस्त्यावर खड्डे`, `potholes`),
	rule("new_road_required", `new road required`, `नवीन रस्ता बनवणे आवश्यक`),
	rule("road_work_pending", `road construction is pending`, `रस्ता बांधकाम प्रलंबित`),

	// sanitation
	rule("garbage_not_collected", `garbage is not collected`, `कचरा उचलला जात नाही`, `dustbins are overflowing`),
	rule("drainage_problem", `drainage water is overflowing`, `नाल्यांची स्वच्छता होत नाही`),

	// education
	rule("teachers_not_available", `no teachers`, `शिक्षक नाहीत`),

	// infrastructure
	rule("streetlights_not_working", `streetlights are not working`, `स्ट्रीटलाइट बंद`),
	rule("playground_not_maintained", `playground is not maintained`, `प्लेग्राउंडची देखभाल नाही`),
	rule("library_closed", `library remains closed`, `ग्रंथालय बंद`),

	// administrative
	rule("panchayat_office_empty", `no one available at panchayat office`, `पंचायत कार्यालयात कोणी नाही`),
}

// Labels lists every value Standardize can return, table order first.
func (t StandardizationTable) Labels() []string {
	out := make([]string, 0, len(t)+2)
	for _, r := range t {
		out = append(out, r.Label)
	}
	return append(out, LabelOther, LabelUnknown)
}

// Standardize returns the label of the first pattern that matches text.
func (t StandardizationTable) Standardize(text string) string {
	if text == "" {
		return LabelUnknown
	}
	lower := strings.ToLower(text)
	for _, r := range t {
		for _, p := range r.Patterns {
			if p.MatchString(lower) {
				return r.Label
			}
		}
	}
	return LabelOther
}

// Standardize applies DefaultTable.
func Standardize(text string) string {
	return DefaultTable.Standardize(text)
}

type categoryCorrection struct {
	label    string
	when     string // required current category, empty for any
	category string
}

var categoryCorrections = []categoryCorrection{
	{label: "health_camp_needed", category: CategoryOthers},
	{label: "teachers_not_available", when: CategoryOthers, category: CategoryEducation},
	{label: "panchayat_office_empty", when: CategoryOthers, category: CategoryAdministrative},
}

// CorrectCategory applies the first matching override for label.
func CorrectCategory(label, category string) string {
	for _, c := range categoryCorrections {
		if !strings.Contains(label, c.label) {
			continue
		}
		if c.when != "" && category != c.when {
			continue
		}
		return c.category
	}
	return category
}

var (
	requestLabels   = []string{"health_camp_needed", "new_road_required"}
	requestKeywords = []string{"need", "required", "necessary", "should be", "गरज", "आवश्यक", "बनवणे"}
)

// RefineSentiment marks requests and suggestions as Neutral.
func RefineSentiment(text, label, sentiment string) string {
	if slices.Contains(requestLabels, label) {
		return SentimentNeutral
	}
	lower := strings.ToLower(text)
	for _, kw := range requestKeywords {
		if strings.Contains(lower, kw) {
			return SentimentNeutral
		}
	}
	if sentiment == "" {
		return SentimentNegative
	}
	return sentiment
}

type priorityRule struct {
	categories []string // any-of; empty matches every category
	labels     []string // exact label any-of
	contains   string   // label substring
}

func (r priorityRule) matches(category, label string) bool {
	if len(r.categories) > 0 && !slices.Contains(r.categories, category) {
		return false
	}
	if len(r.labels) > 0 && !slices.Contains(r.labels, label) {
		return false
	}
	if r.contains != "" && !strings.Contains(label, r.contains) {
		return false
	}
	return true
}

type priorityTier struct {
	priority string
	rules    []priorityRule
}

var priorityTiers = []priorityTier{
	{priority: PriorityHigh, rules: []priorityRule{
		{categories: []string{CategoryWater, CategoryElectricity}},
		{categories: []string{CategoryHealth}, labels: []string{"doctor_not_available", "ambulance_not_arrived"}},
		{categories: []string{CategorySanitation}, contains: "drainage_problem"},
	}},
	{priority: PriorityMedium, rules: []priorityRule{
		{categories: []string{CategoryHealth}, labels: []string{"medicines_not_available", "health_worker_absent"}},
		{categories: []string{CategorySanitation}, contains: "garbage_not_collected"},
		{categories: []string{CategoryRoad}, contains: "road_potholes"},
	}},
	{priority: PriorityLow, rules: []priorityRule{
		{categories: []string{CategoryOthers, CategoryEducation, CategoryAdministrative}},
		{contains: "health_camp_needed"},
		{contains: "new_road_required"},
	}},
}

// ReassessPriority walks the tiers top-down and returns the first hit.
func ReassessPriority(category, label, priority string) string {
	for _, tier := range priorityTiers {
		for _, r := range tier.rules {
			if r.matches(category, label) {
				return tier.priority
			}
		}
	}
	if priority == "" {
		return PriorityMedium
	}
	return priority
}

// canonical maps value case-insensitively onto one of allowed.
func canonical(value string, allowed []string, fallback string) string {
	v := strings.TrimSpace(value)
	for _, a := range allowed {
		if strings.EqualFold(v, a) {
			return a
		}
	}
	return fallback
}
