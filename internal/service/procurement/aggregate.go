package procurement

import (
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/messmaestro/maestro/internal/domain/models"
)

// FallbackUnit labels lines whose ingredient has no usable variant unit.
const FallbackUnit = "units"

// Snapshot is the reference data one aggregation runs against. It lives for a
// single call.
type Snapshot struct {
	Ingredients map[string]models.Ingredient
	Uoms        map[string]models.UnitOfMeasure
	// Strengths is indexed by StrengthKey.
	Strengths map[string]*models.MonthlyStrength
	// Menus is indexed by cycle day.
	Menus map[int]*models.MenuCycleDay
}

// NewSnapshot indexes the catalogues by id.
func NewSnapshot(ingredients []models.Ingredient, uoms []models.UnitOfMeasure) Snapshot {
	snap := Snapshot{
		Ingredients: make(map[string]models.Ingredient, len(ingredients)),
		Uoms:        make(map[string]models.UnitOfMeasure, len(uoms)),
		Strengths:   make(map[string]*models.MonthlyStrength),
		Menus:       make(map[int]*models.MenuCycleDay),
	}
	for _, ing := range ingredients {
		snap.Ingredients[ing.ID] = ing
	}
	for _, u := range uoms {
		snap.Uoms[u.ID] = u
	}
	return snap
}

// Requirements walks every date of the inclusive range for every unit and
// sums the scaled ration quantities per ingredient id.
func Requirements(snap Snapshot, unitIDs []string, start, end time.Time) (map[string]float64, models.Diagnostics) {
	totals := make(map[string]float64)
	var diag models.Diagnostics

	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		diag.DaysWalked++

		menu := snap.Menus[CycleDay(date)]
		if menu == nil {
			diag.DatesWithoutMenu++
			continue
		}

		for _, unitID := range unitIDs {
			monthly := snap.Strengths[StrengthKey(unitID, date.Year(), date.Month())]
			daily, ok := monthly.ForDay(date.Day())
			if !ok {
				diag.UnitDaysWithoutStrength++
				continue
			}

			for _, section := range menu.Sections {
				percent := ClassifySection(section.ID).Percent(daily)
				for _, item := range section.Items {
					if item.IngredientID == "" {
						diag.ItemsWithoutIngredient++
						continue
					}
					totals[item.IngredientID] += item.Strength * (percent / 100)
				}
			}
		}
	}

	return totals, diag
}

// NetLines turns required totals into purchase lines: stock is subtracted,
// non-positive results are dropped, and lines are sorted by ingredient name.
func NetLines(snap Snapshot, totals map[string]float64, diag *models.Diagnostics) []models.ProcurementLine {
	ids := make([]string, 0, len(totals))
	for id := range totals {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	lines := make([]models.ProcurementLine, 0, len(ids))
	for _, id := range ids {
		ing, ok := snap.Ingredients[id]
		if !ok {
			if diag != nil {
				diag.UnknownIngredients++
			}
			continue
		}

		qty := totals[id] - ing.TotalStock()
		if qty <= 0 {
			continue
		}

		lines = append(lines, models.ProcurementLine{
			IngredientID:    id,
			IngredientName:  ing.Name,
			QuantityToOrder: qty,
			UnitOfMeasure:   snap.unitName(ing),
		})
	}

	SortLines(lines)
	return lines
}

// Aggregate runs the whole fold over an in-memory snapshot.
func Aggregate(snap Snapshot, unitIDs []string, start, end time.Time) ([]models.ProcurementLine, models.Diagnostics) {
	totals, diag := Requirements(snap, unitIDs, start, end)
	lines := NetLines(snap, totals, &diag)
	return lines, diag
}

// SortLines orders lines by ingredient name using English collation.
func SortLines(lines []models.ProcurementLine) {
	c := collate.New(language.English)
	sort.SliceStable(lines, func(i, j int) bool {
		return c.CompareString(lines[i].IngredientName, lines[j].IngredientName) < 0
	})
}

func (s Snapshot) unitName(ing models.Ingredient) string {
	if len(ing.Variants) == 0 {
		return FallbackUnit
	}
	if uom, ok := s.Uoms[ing.Variants[0].UomID]; ok && uom.Name != "" {
		return uom.Name
	}
	return FallbackUnit
}
