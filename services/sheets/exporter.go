package sheetsvc

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/matkerbino/murim/core"
)

const (
	maxAttempts = 3
	retryDelay  = 500 * time.Millisecond
)

type exporter struct {
	svc           *sheets.Service
	spreadsheetID string
	sheetName     string
	logger        core.Logger
}

var _ core.SheetExporter = (*exporter)(nil)

// NewExporter returns a Google Sheets exporter authenticated with the service account
// credentials file, or a disabled exporter when sheets are not configured.
func NewExporter(conf *core.Config, logger core.Logger) (core.SheetExporter, error) {
	if conf.Sheets.SpreadsheetID == "" || conf.Sheets.CredentialsFile == "" {
		return disabled{}, nil
	}

	ctx := context.Background()
	credentials, err := os.ReadFile(conf.Sheets.CredentialsFile)
	if err != nil {
		return nil, errors.Wrap(err, "reading sheets credentials")
	}
	jwtConf, err := google.JWTConfigFromJSON(credentials, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, errors.Wrap(err, "parsing sheets credentials")
	}
	return NewExporterWithClient(ctx, jwtConf.Client(ctx), conf.Sheets.SpreadsheetID, conf.Sheets.SheetName, logger)
}

// NewExporterWithClient builds an exporter on an already authenticated http.Client.
func NewExporterWithClient(ctx context.Context, hc *http.Client, spreadsheetID, sheetName string, logger core.Logger, opts ...option.ClientOption) (core.SheetExporter, error) {
	opts = append([]option.ClientOption{option.WithHTTPClient(hc)}, opts...)
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating sheets client")
	}
	return &exporter{svc: svc, spreadsheetID: spreadsheetID, sheetName: sheetName, logger: logger}, nil
}

func (e *exporter) Export(ctx context.Context, header []string, rows [][]interface{}) error {
	if err := e.ensureSheet(ctx); err != nil {
		return err
	}

	clearRange := fmt.Sprintf("'%s'!A1:ZZ", e.sheetName)
	err := e.retry(ctx, "clear", func() error {
		_, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do()
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "clearing %s", clearRange)
	}

	values := make([][]interface{}, 0, len(rows)+1)
	headerRow := make([]interface{}, 0, len(header))
	for _, h := range header {
		headerRow = append(headerRow, h)
	}
	values = append(values, headerRow)
	values = append(values, rows...)

	writeRange := fmt.Sprintf("'%s'!A1", e.sheetName)
	err = e.retry(ctx, "update", func() error {
		_, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, writeRange, &sheets.ValueRange{Values: values}).
			ValueInputOption("RAW").Context(ctx).Do()
		return err
	})
	if err != nil {
		return errors.Wrapf(err, "writing %d rows", len(rows))
	}
	e.logger.Info(fmt.Sprintf("sheets: exported %d rows to %q", len(rows), e.sheetName))
	return nil
}

func (e *exporter) ensureSheet(ctx context.Context) error {
	ss, err := e.svc.Spreadsheets.Get(e.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return errors.Wrap(err, "getting spreadsheet")
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == e.sheetName {
			return nil
		}
	}

	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: e.sheetName}}}},
	}
	err = e.retry(ctx, "add sheet", func() error {
		_, err := e.svc.Spreadsheets.BatchUpdate(e.spreadsheetID, req).Context(ctx).Do()
		return err
	})
	return errors.Wrapf(err, "creating sheet %q", e.sheetName)
}

// retry runs call up to maxAttempts times while it fails with a 429 or 5xx.
func (e *exporter) retry(ctx context.Context, op string, call func() error) error {
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if err = call(); err == nil || !retryable(err) {
			return err
		}
		e.logger.Warn(fmt.Sprintf("sheets: %s failed (attempt %d/%d): %v", op, attempt+1, maxAttempts, err))
		select {
		case <-time.After(retryDelay * time.Duration(1<<attempt)):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return err
}

func retryable(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.Code == http.StatusTooManyRequests || apiErr.Code >= http.StatusInternalServerError
}

type disabled struct{}

// Disabled returns an exporter that always fails with core.ErrExportDisabled.
func Disabled() core.SheetExporter {
	return disabled{}
}

func (disabled) Export(context.Context, []string, [][]interface{}) error {
	return core.ErrExportDisabled
}
