package procurement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/messmaestro/maestro/internal/domain/models"
)

var (
	// ErrNoUnits indicates the request did not name any unit.
	ErrNoUnits = errors.New("at least one unit id is required")
	// ErrInvalidDate indicates a date was not in YYYY-MM-DD form.
	ErrInvalidDate = errors.New("invalid date, expected YYYY-MM-DD")
	// ErrInvalidRange indicates the start date falls after the end date.
	ErrInvalidRange = errors.New("start date is after end date")
	// ErrRangeTooLong indicates the range spans more days than the service allows.
	ErrRangeTooLong = errors.New("date range is too long")
)

const (
	DefaultMaxRangeDays     = 366
	DefaultFetchConcurrency = 16
)

// DataSource is the read-only planning data the aggregator consumes.
type DataSource interface {
	GetIngredients(ctx context.Context) ([]models.Ingredient, error)
	GetUoms(ctx context.Context) ([]models.UnitOfMeasure, error)
	// GetMenuCycle returns nil without error when the day has no menu.
	GetMenuCycle(ctx context.Context, day int) (*models.MenuCycleDay, error)
	// GetStrengthForMonth returns nil without error when no record exists.
	GetStrengthForMonth(ctx context.Context, unitID string, year, month int) (*models.MonthlyStrength, error)
}

// Generator produces procurement lists.
type Generator interface {
	Generate(ctx context.Context, unitIDs []string, startDate, endDate string) (models.ProcurementList, error)
}

// Service computes net ingredient purchases from menus, strengths and stock.
type Service struct {
	source           DataSource
	logger           *zap.Logger
	now              func() time.Time
	maxRangeDays     int
	fetchConcurrency int
}

// Option tunes a Service.
type Option func(*Service)

// WithMaxRangeDays caps the number of days one call may cover.
func WithMaxRangeDays(days int) Option {
	return func(s *Service) {
		if days > 0 {
			s.maxRangeDays = days
		}
	}
}

// WithFetchConcurrency caps the number of in-flight data source reads.
func WithFetchConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.fetchConcurrency = n
		}
	}
}

// NewService wires a procurement aggregator over the given data source.
func NewService(source DataSource, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		source:           source,
		logger:           logger,
		now:              time.Now,
		maxRangeDays:     DefaultMaxRangeDays,
		fetchConcurrency: DefaultFetchConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Generate builds the list of ingredients to purchase for the units over the
// inclusive date range. Missing planning data is skipped and counted in the
// diagnostics; a failing read from the data source fails the whole call.
func (s *Service) Generate(ctx context.Context, unitIDs []string, startDate, endDate string) (models.ProcurementList, error) {
	units := dedupe(unitIDs)
	if len(units) == 0 {
		return models.ProcurementList{}, ErrNoUnits
	}

	start, err := parseDate(startDate)
	if err != nil {
		return models.ProcurementList{}, err
	}
	end, err := parseDate(endDate)
	if err != nil {
		return models.ProcurementList{}, err
	}
	if start.After(end) {
		return models.ProcurementList{}, ErrInvalidRange
	}
	if days := int(end.Sub(start).Hours()/24) + 1; days > s.maxRangeDays {
		return models.ProcurementList{}, fmt.Errorf("%w: %d days, at most %d allowed", ErrRangeTooLong, days, s.maxRangeDays)
	}

	snap, missing, err := s.load(ctx, units, start, end)
	if err != nil {
		return models.ProcurementList{}, err
	}

	lines, diag := Aggregate(snap, units, start, end)
	diag.MissingStrengthMonths = missing

	if diag.DatesWithoutMenu > 0 || diag.UnitDaysWithoutStrength > 0 ||
		diag.ItemsWithoutIngredient > 0 || diag.UnknownIngredients > 0 {
		s.logger.Debug("procurement aggregation skipped contributions",
			zap.Int("dates_without_menu", diag.DatesWithoutMenu),
			zap.Int("unit_days_without_strength", diag.UnitDaysWithoutStrength),
			zap.Int("items_without_ingredient", diag.ItemsWithoutIngredient),
			zap.Int("unknown_ingredients", diag.UnknownIngredients),
			zap.Strings("missing_strength_months", missing))
	}

	s.logger.Info("procurement list generated",
		zap.Strings("units", units),
		zap.String("start", startDate),
		zap.String("end", endDate),
		zap.Int("lines", len(lines)))

	return models.ProcurementList{
		UnitIDs:        units,
		StartDate:      start.Format(dateLayout),
		EndDate:        end.Format(dateLayout),
		ItemsToProcure: lines,
		Diagnostics:    diag,
		GeneratedAt:    s.now().UTC(),
	}, nil
}

// load fetches everything the fold needs: both catalogues, one strength record
// per unit-month and one menu per distinct cycle day. It returns the keys of
// unit-months that have no strength record.
func (s *Service) load(ctx context.Context, units []string, start, end time.Time) (Snapshot, []string, error) {
	var (
		ingredients []models.Ingredient
		uoms        []models.UnitOfMeasure
	)

	months := unitMonths(units, start, end)
	strengths := make([]*models.MonthlyStrength, len(months))

	cycleDays := cycleDaysInRange(start, end)
	menus := make([]*models.MenuCycleDay, len(cycleDays))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.fetchConcurrency)

	g.Go(func() error {
		var err error
		ingredients, err = s.source.GetIngredients(gctx)
		if err != nil {
			return fmt.Errorf("load ingredients: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		uoms, err = s.source.GetUoms(gctx)
		if err != nil {
			return fmt.Errorf("load units of measure: %w", err)
		}
		return nil
	})

	for i, um := range months {
		i, um := i, um
		g.Go(func() error {
			ms, err := s.source.GetStrengthForMonth(gctx, um.unitID, um.year, int(um.month))
			if err != nil {
				return fmt.Errorf("load strength %s: %w", um.key(), err)
			}
			strengths[i] = ms
			return nil
		})
	}

	for i, day := range cycleDays {
		i, day := i, day
		g.Go(func() error {
			menu, err := s.source.GetMenuCycle(gctx, day)
			if err != nil {
				return fmt.Errorf("load menu cycle day %d: %w", day, err)
			}
			menus[i] = menu
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return Snapshot{}, nil, err
	}

	snap := NewSnapshot(ingredients, uoms)

	var missing []string
	for i, um := range months {
		if strengths[i] == nil {
			missing = append(missing, um.key())
			continue
		}
		snap.Strengths[um.key()] = strengths[i]
	}
	for i, day := range cycleDays {
		if menus[i] != nil {
			snap.Menus[day] = menus[i]
		}
	}

	return snap, missing, nil
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
