package procurement

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/messmaestro/maestro/internal/domain/models"
)

type fakeSource struct {
	mu sync.Mutex

	ingredients []models.Ingredient
	uoms        []models.UnitOfMeasure
	menus       map[int]*models.MenuCycleDay
	strengths   map[string]*models.MonthlyStrength

	ingredientsErr error

	menuCalls     map[int]int
	strengthCalls map[string]int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		uoms:          []models.UnitOfMeasure{{ID: "kg", Name: "kg"}, {ID: "l", Name: "litre"}},
		menus:         make(map[int]*models.MenuCycleDay),
		strengths:     make(map[string]*models.MonthlyStrength),
		menuCalls:     make(map[int]int),
		strengthCalls: make(map[string]int),
	}
}

func (f *fakeSource) GetIngredients(ctx context.Context) ([]models.Ingredient, error) {
	if f.ingredientsErr != nil {
		return nil, f.ingredientsErr
	}
	return f.ingredients, nil
}

func (f *fakeSource) GetUoms(ctx context.Context) ([]models.UnitOfMeasure, error) {
	return f.uoms, nil
}

func (f *fakeSource) GetMenuCycle(ctx context.Context, day int) (*models.MenuCycleDay, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.menuCalls[day]++
	return f.menus[day], nil
}

func (f *fakeSource) GetStrengthForMonth(ctx context.Context, unitID string, year, month int) (*models.MonthlyStrength, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := StrengthKey(unitID, year, timeMonth(month))
	f.strengthCalls[key]++
	return f.strengths[key], nil
}

func (f *fakeSource) addStrength(unitID string, year, month int, days map[int]models.DailyStrength) {
	f.strengths[StrengthKey(unitID, year, timeMonth(month))] = &models.MonthlyStrength{
		UnitID: unitID, Year: year, Month: month, Strengths: days,
	}
}

func timeMonth(m int) time.Month {
	return time.Month(m)
}

// breakfastScenario: 2024-03-05 is cycle day 9 with a single breakfast item.
func breakfastScenario(stock float64) *fakeSource {
	src := newFakeSource()
	src.ingredients = []models.Ingredient{
		{ID: "ING1", Name: "Oats", Variants: []models.Variant{{Stock: stock, UomID: "kg"}}},
	}
	src.menus[9] = &models.MenuCycleDay{
		Day: 9,
		Sections: []models.MenuSection{
			{ID: "breakfast", Items: []models.MenuItem{{IngredientID: "ING1", Strength: 100}}},
		},
	}
	src.addStrength("U1", 2024, 3, map[int]models.DailyStrength{5: {Breakfast: 50}})
	return src
}

func TestGenerateSingleUnitSingleDay(t *testing.T) {
	svc := NewService(breakfastScenario(0), zaptest.NewLogger(t))

	list, err := svc.Generate(context.Background(), []string{"U1"}, "2024-03-05", "2024-03-05")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	want := []models.ProcurementLine{
		{IngredientID: "ING1", IngredientName: "Oats", QuantityToOrder: 50, UnitOfMeasure: "kg"},
	}
	if !reflect.DeepEqual(list.ItemsToProcure, want) {
		t.Fatalf("unexpected lines: %+v", list.ItemsToProcure)
	}
	if list.Diagnostics.DaysWalked != 1 {
		t.Errorf("expected 1 day walked, got %d", list.Diagnostics.DaysWalked)
	}
}

func TestGenerateOmitsIngredientCoveredByStock(t *testing.T) {
	svc := NewService(breakfastScenario(50), nil)

	list, err := svc.Generate(context.Background(), []string{"U1"}, "2024-03-05", "2024-03-05")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(list.ItemsToProcure) != 0 {
		t.Fatalf("expected no lines, got %+v", list.ItemsToProcure)
	}
}

func TestGenerateSumsAcrossUnits(t *testing.T) {
	src := newFakeSource()
	src.ingredients = []models.Ingredient{
		{ID: "RICE", Name: "Rice", Variants: []models.Variant{{Stock: 4, UomID: "kg"}, {Stock: 6, UomID: "l"}}},
	}
	src.menus[9] = &models.MenuCycleDay{
		Day: 9,
		Sections: []models.MenuSection{
			{ID: "luncheon", Items: []models.MenuItem{{IngredientID: "RICE", Strength: 40}}},
		},
	}
	src.addStrength("U1", 2024, 3, map[int]models.DailyStrength{5: {Lunch: 50}})
	src.addStrength("U2", 2024, 3, map[int]models.DailyStrength{5: {Lunch: 50}})

	svc := NewService(src, nil)
	list, err := svc.Generate(context.Background(), []string{"U1", "U2"}, "2024-03-05", "2024-03-05")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(list.ItemsToProcure) != 1 {
		t.Fatalf("expected 1 line, got %d", len(list.ItemsToProcure))
	}
	line := list.ItemsToProcure[0]
	if line.QuantityToOrder != 30 {
		t.Errorf("expected 30 to order, got %v", line.QuantityToOrder)
	}
	if line.UnitOfMeasure != "kg" {
		t.Errorf("expected first variant unit kg, got %s", line.UnitOfMeasure)
	}
}

func TestGenerateSkipsUnitMonthWithoutStrength(t *testing.T) {
	src := newFakeSource()
	src.ingredients = []models.Ingredient{{ID: "MILK", Name: "Milk"}}
	for day := 1; day <= 28; day++ {
		src.menus[day] = &models.MenuCycleDay{
			Day: day,
			Sections: []models.MenuSection{
				{ID: "tea", Items: []models.MenuItem{{IngredientID: "MILK", Strength: 2}}},
			},
		}
	}
	// March is planned, April is a gap month.
	src.addStrength("U1", 2024, 3, map[int]models.DailyStrength{30: {}, 31: {}})

	svc := NewService(src, nil)
	list, err := svc.Generate(context.Background(), []string{"U1"}, "2024-03-30", "2024-04-02")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(list.ItemsToProcure) != 1 {
		t.Fatalf("expected 1 line, got %+v", list.ItemsToProcure)
	}
	// Two March days at 100% for an unsectioned slot, April contributes nothing.
	if got := list.ItemsToProcure[0].QuantityToOrder; got != 4 {
		t.Errorf("expected 4, got %v", got)
	}
	if list.ItemsToProcure[0].UnitOfMeasure != FallbackUnit {
		t.Errorf("expected fallback unit, got %s", list.ItemsToProcure[0].UnitOfMeasure)
	}

	diag := list.Diagnostics
	if diag.UnitDaysWithoutStrength != 2 {
		t.Errorf("expected 2 unit-days without strength, got %d", diag.UnitDaysWithoutStrength)
	}
	if !reflect.DeepEqual(diag.MissingStrengthMonths, []string{"U1_2024_4"}) {
		t.Errorf("unexpected missing months: %v", diag.MissingStrengthMonths)
	}
}

func TestGenerateFetchesEachUnitMonthAndCycleDayOnce(t *testing.T) {
	src := breakfastScenario(0)
	svc := NewService(src, nil)

	list, err := svc.Generate(context.Background(), []string{"U1", "U1", "U2"}, "2024-01-15", "2024-03-20")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if len(src.strengthCalls) != 6 {
		t.Errorf("expected 6 unit-month fetches, got %d", len(src.strengthCalls))
	}
	for key, n := range src.strengthCalls {
		if n != 1 {
			t.Errorf("strength %s fetched %d times", key, n)
		}
	}

	if len(src.menuCalls) != 28 {
		t.Errorf("expected all 28 cycle days fetched, got %d", len(src.menuCalls))
	}
	for day, n := range src.menuCalls {
		if n != 1 {
			t.Errorf("cycle day %d fetched %d times", day, n)
		}
	}

	// Only cycle day 9 has a menu, and only Feb 6 and Mar 5 map to it.
	diag := list.Diagnostics
	if diag.DaysWalked != 66 {
		t.Errorf("expected 66 days walked, got %d", diag.DaysWalked)
	}
	if diag.DatesWithoutMenu != 64 {
		t.Errorf("expected 64 dates without menu, got %d", diag.DatesWithoutMenu)
	}
	// Mar 5 for U1 is the only planned unit-day with a menu.
	if len(list.ItemsToProcure) != 1 || list.ItemsToProcure[0].QuantityToOrder != 50 {
		t.Errorf("expected only the planned day to count, got %+v", list.ItemsToProcure)
	}
}

func TestGenerateSortsByNameAndIsRepeatable(t *testing.T) {
	src := newFakeSource()
	src.ingredients = []models.Ingredient{
		{ID: "c", Name: "cherry"},
		{ID: "b", Name: "Banana"},
		{ID: "a", Name: "apple"},
	}
	src.menus[9] = &models.MenuCycleDay{
		Day: 9,
		Sections: []models.MenuSection{
			{ID: "dinner", Items: []models.MenuItem{
				{IngredientID: "c", Strength: 1},
				{IngredientID: "b", Strength: 2},
				{IngredientID: "a", Strength: 3},
				{Strength: 99},
				{IngredientID: "ghost", Strength: 5},
			}},
		},
	}
	src.addStrength("U1", 2024, 3, map[int]models.DailyStrength{5: {Supper: 100}})

	svc := NewService(src, nil)
	first, err := svc.Generate(context.Background(), []string{"U1"}, "2024-03-05", "2024-03-05")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	var names []string
	for _, line := range first.ItemsToProcure {
		names = append(names, line.IngredientName)
	}
	if want := []string{"apple", "Banana", "cherry"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("expected %v, got %v", want, names)
	}

	if first.Diagnostics.ItemsWithoutIngredient != 1 {
		t.Errorf("expected 1 item without ingredient, got %d", first.Diagnostics.ItemsWithoutIngredient)
	}
	if first.Diagnostics.UnknownIngredients != 1 {
		t.Errorf("expected 1 unknown ingredient, got %d", first.Diagnostics.UnknownIngredients)
	}

	second, err := svc.Generate(context.Background(), []string{"U1"}, "2024-03-05", "2024-03-05")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if !reflect.DeepEqual(first.ItemsToProcure, second.ItemsToProcure) {
		t.Errorf("repeated call differs: %+v vs %+v", first.ItemsToProcure, second.ItemsToProcure)
	}
}

func TestGenerateLogsItemsWithoutIngredient(t *testing.T) {
	src := breakfastScenario(0)
	src.menus[9].Sections[0].Items = []models.MenuItem{{Strength: 99}}

	core, logs := observer.New(zapcore.DebugLevel)
	svc := NewService(src, zap.New(core))

	list, err := svc.Generate(context.Background(), []string{"U1"}, "2024-03-05", "2024-03-05")
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if list.Diagnostics.ItemsWithoutIngredient != 1 {
		t.Fatalf("expected 1 item without ingredient, got %d", list.Diagnostics.ItemsWithoutIngredient)
	}

	entries := logs.FilterMessage("procurement aggregation skipped contributions").All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 skipped-contributions entry, got %d", len(entries))
	}
	if got := entries[0].ContextMap()["items_without_ingredient"]; got != int64(1) {
		t.Errorf("expected items_without_ingredient=1, got %v", got)
	}
}

func TestGenerateRejectsInvalidInput(t *testing.T) {
	svc := NewService(newFakeSource(), nil)

	tests := []struct {
		name       string
		units      []string
		start, end string
		want       error
	}{
		{"no units", nil, "2024-03-01", "2024-03-02", ErrNoUnits},
		{"blank units", []string{""}, "2024-03-01", "2024-03-02", ErrNoUnits},
		{"bad start", []string{"U1"}, "03/01/2024", "2024-03-02", ErrInvalidDate},
		{"bad end", []string{"U1"}, "2024-03-01", "2024-02-30", ErrInvalidDate},
		{"reversed", []string{"U1"}, "2024-03-02", "2024-03-01", ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Generate(context.Background(), tt.units, tt.start, tt.end)
			if !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestGeneratePropagatesSourceFailure(t *testing.T) {
	src := breakfastScenario(0)
	src.ingredientsErr = errors.New("store unavailable")

	svc := NewService(src, nil)
	list, err := svc.Generate(context.Background(), []string{"U1"}, "2024-03-05", "2024-03-05")
	if err == nil {
		t.Fatal("expected an error")
	}
	if !errors.Is(err, src.ingredientsErr) {
		t.Errorf("expected wrapped source error, got %v", err)
	}
	if list.ItemsToProcure != nil {
		t.Errorf("expected no partial result, got %+v", list.ItemsToProcure)
	}
}

func TestAggregateKeepsFractions(t *testing.T) {
	snap := NewSnapshot(
		[]models.Ingredient{{ID: "salt", Name: "Salt", Variants: []models.Variant{{Stock: 0.25, UomID: "kg"}}}},
		[]models.UnitOfMeasure{{ID: "kg", Name: "kg"}},
	)
	snap.Menus[9] = &models.MenuCycleDay{Day: 9, Sections: []models.MenuSection{
		{ID: "scale_m", Items: []models.MenuItem{{IngredientID: "salt", Strength: 1.5}}},
	}}
	snap.Strengths[StrengthKey("U1", 2024, 3)] = &models.MonthlyStrength{
		Strengths: map[int]models.DailyStrength{5: {ScaleM: 150}},
	}

	lines, diag := Aggregate(snap, []string{"U1"}, date(t, "2024-03-05"), date(t, "2024-03-05"))
	if len(lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(lines))
	}
	if lines[0].QuantityToOrder != 2 {
		t.Errorf("expected 2, got %v", lines[0].QuantityToOrder)
	}
	if diag.DaysWalked != 1 || diag.DatesWithoutMenu != 0 {
		t.Errorf("unexpected diagnostics: %+v", diag)
	}
}

type countingSource struct {
	*fakeSource

	inFlight atomic.Int64
	peak     atomic.Int64
}

func (c *countingSource) GetStrengthForMonth(ctx context.Context, unitID string, year, month int) (*models.MonthlyStrength, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	time.Sleep(time.Millisecond)
	return c.fakeSource.GetStrengthForMonth(ctx, unitID, year, month)
}

func TestGenerateBoundsConcurrentReads(t *testing.T) {
	src := &countingSource{fakeSource: breakfastScenario(0)}
	units := make([]string, 40)
	for i := range units {
		units[i] = fmt.Sprintf("U%d", i)
	}

	svc := NewService(src, nil, WithFetchConcurrency(4))
	if _, err := svc.Generate(context.Background(), units, "2024-01-01", "2024-12-31"); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if got := len(src.strengthCalls); got != 480 {
		t.Errorf("expected 480 unit-month fetches, got %d", got)
	}
	if peak := src.peak.Load(); peak > 4 {
		t.Errorf("expected at most 4 concurrent reads, got %d", peak)
	}
}

func TestGenerateRejectsOverlongRange(t *testing.T) {
	src := newFakeSource()

	tests := []struct {
		name       string
		svc        *Service
		start, end string
		wantErr    bool
	}{
		{"default allows a leap year", NewService(src, nil), "2024-01-01", "2024-12-31", false},
		{"default rejects beyond a year", NewService(src, nil), "2024-01-01", "2025-01-01", true},
		{"far future", NewService(src, nil), "0001-01-01", "9999-12-31", true},
		{"configured cap", NewService(src, nil, WithMaxRangeDays(7)), "2024-03-04", "2024-03-11", true},
		{"configured cap boundary", NewService(src, nil, WithMaxRangeDays(7)), "2024-03-04", "2024-03-10", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.svc.Generate(context.Background(), []string{"U1"}, tt.start, tt.end)
			if tt.wantErr && !errors.Is(err, ErrRangeTooLong) {
				t.Fatalf("expected ErrRangeTooLong, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}

	if calls := len(src.strengthCalls); calls > 13 {
		t.Errorf("rejected ranges must not reach the store, saw %d strength reads", calls)
	}
}
