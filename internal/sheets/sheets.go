// Package sheets appends registration records to a Google Sheets spreadsheet.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/drive/v3"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/gratefultolord/qabul_bot/internal/registration"
)

const (
	sinkName        = "sheets"
	spreadsheetMime = "application/vnd.google-apps.spreadsheet"
)

type Config struct {
	CredentialsJSON []byte
	SpreadsheetID   string
	SpreadsheetName string
	Range           string
	WritesPerMinute float64
}

type Sink struct {
	values        *gsheets.SpreadsheetsValuesService
	spreadsheetID string
	writeRange    string
	limiter       *rate.Limiter
}

// New authorizes with the service account in cfg and checks that the spreadsheet is reachable.
// Extra client options replace the credential-based ones.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Sink, error) {
	if len(opts) == 0 {
		creds, err := google.CredentialsFromJSON(ctx, cfg.CredentialsJSON,
			gsheets.SpreadsheetsScope, drive.DriveMetadataReadonlyScope)
		if err != nil {
			return nil, fmt.Errorf("sheets.New: cannot parse credentials: %w", err)
		}
		opts = []option.ClientOption{option.WithCredentials(creds)}
	}

	srv, err := gsheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets.New: cannot create sheets service: %w", err)
	}

	spreadsheetID := cfg.SpreadsheetID
	if spreadsheetID == "" {
		spreadsheetID, err = findByName(ctx, cfg.SpreadsheetName, opts)
		if err != nil {
			return nil, err
		}
	}

	_, err = srv.Spreadsheets.Get(spreadsheetID).Fields("spreadsheetId").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets.New: cannot open spreadsheet %s: %w", spreadsheetID, err)
	}

	writeRange := cfg.Range
	if writeRange == "" {
		writeRange = "A1"
	}

	limit := rate.Inf
	if cfg.WritesPerMinute > 0 {
		limit = rate.Limit(cfg.WritesPerMinute / 60)
	}

	return &Sink{
		values:        srv.Spreadsheets.Values,
		spreadsheetID: spreadsheetID,
		writeRange:    writeRange,
		limiter:       rate.NewLimiter(limit, 1),
	}, nil
}

func findByName(ctx context.Context, name string, opts []option.ClientOption) (string, error) {
	driveSrv, err := drive.NewService(ctx, opts...)
	if err != nil {
		return "", fmt.Errorf("sheets.findByName: cannot create drive service: %w", err)
	}

	q := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		strings.ReplaceAll(name, "'", `\'`), spreadsheetMime)

	list, err := driveSrv.Files.List().Q(q).Fields("files(id, name)").PageSize(1).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("sheets.findByName: %w", err)
	}
	if len(list.Files) == 0 {
		return "", fmt.Errorf("sheets.findByName: spreadsheet %q not found or not shared with the service account", name)
	}

	return list.Files[0].Id, nil
}

// SpreadsheetID returns the resolved target spreadsheet.
func (s *Sink) SpreadsheetID() string {
	return s.spreadsheetID
}

// Append adds the record as a new row after the last filled row of the range.
func (s *Sink) Append(ctx context.Context, rec registration.Record) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return registration.NewPersistenceError(sinkName, fmt.Errorf("Sink.Append: %w", err))
	}

	row := rec.Row()
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}

	_, err := s.values.Append(s.spreadsheetID, s.writeRange, &gsheets.ValueRange{
		Values: [][]interface{}{cells},
	}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return registration.NewPersistenceError(sinkName, fmt.Errorf("Sink.Append: %w", err))
	}

	return nil
}
