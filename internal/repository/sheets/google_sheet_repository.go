package sheets

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/agrisms/internal/config"
	"github.com/mamadbah2/agrisms/internal/domain/models"
)

const messagesWriteRange = "Messages!A:I"

// Repository defines the persistence operations supported by the Google Sheets adapter.
type Repository interface {
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// WriteRow appends the provided values to the supplied sheet range.
func (r *GoogleSheetRepository) WriteRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	resp, err := call.Do()
	if err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}

	updated := sheetRange
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		updated = resp.Updates.UpdatedRange
	}
	r.logger.Debug("audit row appended", zap.String("range", updated), zap.Int("cells", len(values)))
	return nil
}

// MessageAudit appends every handled SMS to a spreadsheet for field staff.
type MessageAudit struct {
	repo Repository
}

// NewMessageAudit wraps a sheet repository.
func NewMessageAudit(repo Repository) *MessageAudit {
	return &MessageAudit{repo: repo}
}

// AppendMessage writes one audit row.
func (a *MessageAudit) AppendMessage(ctx context.Context, entry models.MessageLog) error {
	coordinates := ""
	if entry.Coordinates != nil {
		coordinates = entry.Coordinates.String()
	}

	row := []interface{}{
		entry.ReceivedAt.UTC().Format(time.RFC3339),
		entry.MessageID,
		entry.From,
		entry.RawText,
		string(entry.Command),
		coordinates,
		string(entry.Crop),
		entry.ParseError,
		entry.Reply,
	}
	return a.repo.WriteRow(ctx, messagesWriteRange, row)
}
