package reporting

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/messmaestro/maestro/internal/domain/models"
	"github.com/messmaestro/maestro/internal/service/procurement"
)

// Store persists generated procurement lists.
type Store interface {
	SaveProcurementList(ctx context.Context, list models.ProcurementList) (string, error)
}

// Exporter pushes a list to an external sheet.
type Exporter interface {
	ExportProcurementList(ctx context.Context, list models.ProcurementList) error
}

// Notifier delivers the text summary of a list.
type Notifier interface {
	PostMessage(ctx context.Context, text string) error
}

// Service generates procurement lists and distributes them.
type Service struct {
	generator procurement.Generator
	store     Store
	exporter  Exporter
	notifier  Notifier
	logger    *zap.Logger
}

// NewService wires a new reporting service instance. Exporter and notifier
// may be nil.
func NewService(generator procurement.Generator, store Store, exporter Exporter, notifier Notifier, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		generator: generator,
		store:     store,
		exporter:  exporter,
		notifier:  notifier,
		logger:    logger,
	}
}

// Publish generates the list, saves it, then exports and announces it.
// Export and notification are best effort.
func (s *Service) Publish(ctx context.Context, unitIDs []string, startDate, endDate string) (models.ProcurementList, error) {
	list, err := s.generator.Generate(ctx, unitIDs, startDate, endDate)
	if err != nil {
		return models.ProcurementList{}, err
	}

	id, err := s.store.SaveProcurementList(ctx, list)
	if err != nil {
		return models.ProcurementList{}, fmt.Errorf("save procurement list: %w", err)
	}
	list.ID = id

	if s.exporter != nil {
		if err := s.exporter.ExportProcurementList(ctx, list); err != nil {
			s.logger.Error("failed to export procurement list", zap.String("list_id", id), zap.Error(err))
		}
	}

	if s.notifier != nil {
		if err := s.notifier.PostMessage(ctx, Summary(list)); err != nil {
			s.logger.Error("failed to send procurement summary", zap.String("list_id", id), zap.Error(err))
		}
	}

	s.logger.Info("procurement list published", zap.String("list_id", id), zap.Int("lines", len(list.ItemsToProcure)))
	return list, nil
}

// Summary renders a list as a short chat message.
func Summary(list models.ProcurementList) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Procurement %s to %s (units: %s)", list.StartDate, list.EndDate, strings.Join(list.UnitIDs, ", "))

	if len(list.ItemsToProcure) == 0 {
		b.WriteString("\nNothing to order, stock covers the plan.")
	}
	for _, line := range list.ItemsToProcure {
		qty := decimal.NewFromFloat(line.QuantityToOrder).Round(3)
		fmt.Fprintf(&b, "\n- %s: %s %s", line.IngredientName, qty.String(), line.UnitOfMeasure)
	}

	d := list.Diagnostics
	if d.DatesWithoutMenu > 0 || d.UnitDaysWithoutStrength > 0 {
		fmt.Fprintf(&b, "\nSkipped: %d day(s) without menu, %d unit-day(s) without strength.", d.DatesWithoutMenu, d.UnitDaysWithoutStrength)
	}
	if len(d.MissingStrengthMonths) > 0 {
		fmt.Fprintf(&b, "\nNo strength plan for: %s", strings.Join(d.MissingStrengthMonths, ", "))
	}

	return b.String()
}
