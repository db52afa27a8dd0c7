package models

// DailyStrength holds headcount percentages (0-100) for one day of the month.
type DailyStrength struct {
	Breakfast  float64 `bson:"breakfast" json:"breakfast"`
	Lunch      float64 `bson:"lunch" json:"lunch"`
	Supper     float64 `bson:"supper" json:"supper"`
	LunchPacks float64 `bson:"lunch_packs" json:"lunchPacks"`
	ScaleM     float64 `bson:"scale_m" json:"scaleM"`
}

// MonthlyStrength is a unit's strength projection for one calendar month,
// keyed by day of month.
type MonthlyStrength struct {
	UnitID    string                `bson:"unit_id" json:"unitId"`
	Year      int                   `bson:"year" json:"year"`
	Month     int                   `bson:"month" json:"month"`
	Strengths map[int]DailyStrength `bson:"strengths" json:"strengths"`
}

// ForDay returns the strength entry for the given day of month.
func (m *MonthlyStrength) ForDay(day int) (DailyStrength, bool) {
	if m == nil || m.Strengths == nil {
		return DailyStrength{}, false
	}
	s, ok := m.Strengths[day]
	return s, ok
}
