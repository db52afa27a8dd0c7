package models

import "time"

// ProcurementRequest is the input of a procurement list generation.
type ProcurementRequest struct {
	UnitIDs   []string `json:"unitIds" binding:"required"`
	StartDate string   `json:"startDate" binding:"required"`
	EndDate   string   `json:"endDate" binding:"required"`
}

// ProcurementLine is one ingredient to purchase.
type ProcurementLine struct {
	IngredientID    string  `bson:"ingredient_id" json:"ingredientId"`
	IngredientName  string  `bson:"ingredient_name" json:"ingredientName"`
	QuantityToOrder float64 `bson:"quantity_to_order" json:"quantityToOrder"`
	UnitOfMeasure   string  `bson:"unit_of_measure" json:"unitOfMeasure"`
}

// Diagnostics counts the contributions skipped because planning data was missing.
type Diagnostics struct {
	DaysWalked              int      `bson:"days_walked" json:"daysWalked"`
	DatesWithoutMenu        int      `bson:"dates_without_menu" json:"datesWithoutMenu"`
	UnitDaysWithoutStrength int      `bson:"unit_days_without_strength" json:"unitDaysWithoutStrength"`
	ItemsWithoutIngredient  int      `bson:"items_without_ingredient" json:"itemsWithoutIngredient"`
	UnknownIngredients      int      `bson:"unknown_ingredients" json:"unknownIngredients"`
	MissingStrengthMonths   []string `bson:"missing_strength_months,omitempty" json:"missingStrengthMonths,omitempty"`
}

// ProcurementList is a generated list, as returned by the API and persisted
// when published.
type ProcurementList struct {
	ID             string            `bson:"_id,omitempty" json:"id,omitempty"`
	UnitIDs        []string          `bson:"unit_ids" json:"unitIds"`
	StartDate      string            `bson:"start_date" json:"startDate"`
	EndDate        string            `bson:"end_date" json:"endDate"`
	ItemsToProcure []ProcurementLine `bson:"items_to_procure" json:"itemsToProcure"`
	Diagnostics    Diagnostics       `bson:"diagnostics" json:"diagnostics"`
	GeneratedAt    time.Time         `bson:"generated_at" json:"generatedAt"`
}
