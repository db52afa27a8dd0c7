package models

// CycleLength is the number of days in the repeating menu template.
const CycleLength = 28

// MenuCycleDay is one of the 28 canonical days of the menu cycle.
type MenuCycleDay struct {
	Day      int           `bson:"day" json:"day"`
	Sections []MenuSection `bson:"sections" json:"sections"`
}

// MenuSection groups the items served under one meal slot. The ID carries the
// meal marker (breakfast, luncheon, dinner, ...) used to pick a strength.
type MenuSection struct {
	ID    string     `bson:"id" json:"id"`
	Items []MenuItem `bson:"items" json:"items"`
}

// MenuItem is a planned food item. Strength is the ration scale quantity at
// 100% headcount. An empty IngredientID marks a dish-only or unfilled slot.
type MenuItem struct {
	IngredientID string  `bson:"ingredient_id,omitempty" json:"ingredientId,omitempty"`
	Strength     float64 `bson:"strength" json:"strength"`
	CategoryID   string  `bson:"category_id,omitempty" json:"categoryId,omitempty"`
}
