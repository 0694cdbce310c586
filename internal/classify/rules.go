package classify

import (
	"context"

	"grievance/internal/normalize"
)

// DepartmentUnknown is reported for text that maps to no department.
const DepartmentUnknown = "Unknown"

var labelDepartments = map[string]string{
	"no_water_supply":              normalize.CategoryWater,
	"water_tanker_not_arrived":     normalize.CategoryWater,
	"water_tank_empty":             normalize.CategoryWater,
	"handpump_broken":              normalize.CategoryWater,
	"drinking_water_problem":       normalize.CategoryWater,
	"electricity_supply_disrupted": normalize.CategoryElectricity,
	"frequent_power_cuts":          normalize.CategoryElectricity,
	"transformer_not_working":      normalize.CategoryElectricity,
	"prolonged_power_cut":          normalize.CategoryElectricity,
	"streetlights_not_working":     normalize.CategoryElectricity,
	"doctor_not_available":         normalize.CategoryHealth,
	"medicines_not_available":      normalize.CategoryHealth,
	"health_worker_absent":         normalize.CategoryHealth,
	"ambulance_not_arrived":        normalize.CategoryHealth,
	"health_camp_needed":           normalize.CategoryOthers,
	"road_potholes":                normalize.CategoryRoad,
	"new_road_required":            normalize.CategoryRoad,
	"road_work_pending":            normalize.CategoryRoad,
	"garbage_not_collected":        normalize.CategorySanitation,
	"drainage_problem":             normalize.CategorySanitation,
	"teachers_not_available":       normalize.CategoryEducation,
	"playground_not_maintained":    normalize.CategoryOthers,
	"library_closed":               normalize.CategoryOthers,
	"panchayat_office_empty":       normalize.CategoryAdministrative,
	normalize.LabelOther:           normalize.CategoryOthers,
}

// RuleClassifier derives the department from the standardized label.
type RuleClassifier struct {
	Table normalize.StandardizationTable
}

func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{Table: normalize.DefaultTable}
}

func (r *RuleClassifier) Predict(text string) string {
	label := r.Table.Standardize(normalize.CleanText(text))
	if dept, ok := labelDepartments[label]; ok {
		return dept
	}
	return DepartmentUnknown
}

func (r *RuleClassifier) Classify(_ context.Context, text string) (string, error) {
	return r.Predict(text), nil
}
