package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/messmaestro/maestro/internal/config"
	"github.com/messmaestro/maestro/internal/domain/models"
)

const generatedLayout = "2006-01-02 15:04"

// Appender is the narrow slice of the Sheets API the exporter needs.
type Appender interface {
	AppendRows(ctx context.Context, spreadsheetID, sheetRange string, rows [][]interface{}) error
}

// GoogleSheetRepository exports procurement lists to a spreadsheet.
type GoogleSheetRepository struct {
	appender      Appender
	spreadsheetID string
	sheetRange    string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed exporter.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return NewWithAppender(apiAppender{service: service}, cfg, logger), nil
}

// NewWithAppender builds an exporter over an arbitrary appender.
func NewWithAppender(appender Appender, cfg config.SheetsConfig, logger *zap.Logger) *GoogleSheetRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GoogleSheetRepository{
		appender:      appender,
		spreadsheetID: cfg.SpreadsheetID,
		sheetRange:    cfg.ProcurementRange,
		logger:        logger,
	}
}

// ExportProcurementList appends one row per line of the list.
func (r *GoogleSheetRepository) ExportProcurementList(ctx context.Context, list models.ProcurementList) error {
	if r.sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}
	if len(list.ItemsToProcure) == 0 {
		r.logger.Debug("nothing to export", zap.String("list_id", list.ID))
		return nil
	}

	if err := r.appender.AppendRows(ctx, r.spreadsheetID, r.sheetRange, Rows(list)); err != nil {
		return fmt.Errorf("append procurement list %s: %w", list.ID, err)
	}

	r.logger.Debug("procurement list appended to sheet",
		zap.String("list_id", list.ID),
		zap.String("range", r.sheetRange),
		zap.Int("rows", len(list.ItemsToProcure)))
	return nil
}

// Rows renders the list as sheet rows.
func Rows(list models.ProcurementList) [][]interface{} {
	generated := list.GeneratedAt.Format(generatedLayout)
	rows := make([][]interface{}, 0, len(list.ItemsToProcure))
	for _, line := range list.ItemsToProcure {
		rows = append(rows, []interface{}{
			list.ID,
			generated,
			list.StartDate,
			list.EndDate,
			line.IngredientName,
			line.QuantityToOrder,
			line.UnitOfMeasure,
		})
	}
	return rows
}

type apiAppender struct {
	service *sheetsapi.Service
}

func (a apiAppender) AppendRows(ctx context.Context, spreadsheetID, sheetRange string, rows [][]interface{}) error {
	payload := &sheetsapi.ValueRange{Values: rows}

	call := a.service.Spreadsheets.Values.Append(spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	_, err := call.Do()
	return err
}
