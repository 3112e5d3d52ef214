package core

import (
	"context"
	"errors"
)

// ErrExportDisabled is returned by exporters that are not configured.
var ErrExportDisabled = errors.New("export is not configured")

// SheetExporter replaces the content of an external sheet with a header row followed by rows.
type SheetExporter interface {
	Export(ctx context.Context, header []string, rows [][]interface{}) error
}
