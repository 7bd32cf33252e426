// Package gsheets wraps the Google Drive and Sheets APIs behind the thin
// adapters the import pipeline needs: file discovery, tab enumeration and
// ranged value reads.
package gsheets

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/dvloznov/sheets-importer/internal/apperr"
	"github.com/dvloznov/sheets-importer/internal/domain"
)

const (
	spreadsheetMimeType = "application/vnd.google-apps.spreadsheet"

	// Discovery returns a single page of this many files. No pagination
	// loop: a user with more spreadsheets sees only the first page.
	discoveryPageSize = 10

	// PreviewRange covers the six columns of the default mapping.
	PreviewRange = "A1:F"
	// ImportRange covers every column an explicit mapping may address.
	ImportRange = "A1:Z"
)

// Client bundles authenticated Drive and Sheets services for one request.
type Client struct {
	drive  *drive.Service
	sheets *sheets.Service
}

// NewClient builds Drive and Sheets services over the given authenticated
// HTTP client (see gauth.Flow.Client).
func NewClient(ctx context.Context, hc *http.Client) (*Client, error) {
	driveSvc, err := drive.NewService(ctx, option.WithHTTPClient(hc))
	if err != nil {
		return nil, fmt.Errorf("gsheets: drive service: %w", err)
	}
	sheetsSvc, err := sheets.NewService(ctx, option.WithHTTPClient(hc))
	if err != nil {
		return nil, fmt.Errorf("gsheets: sheets service: %w", err)
	}
	return &Client{drive: driveSvc, sheets: sheetsSvc}, nil
}

// ListSpreadsheets lists the user's spreadsheet files, one page only.
func (c *Client) ListSpreadsheets(ctx context.Context) ([]domain.FileHandle, error) {
	resp, err := c.drive.Files.List().
		Q(fmt.Sprintf("mimeType='%s'", spreadsheetMimeType)).
		Fields("files(id, name)").
		PageSize(discoveryPageSize).
		Context(ctx).Do()
	if err != nil {
		return nil, remoteErr("list spreadsheets", err)
	}

	files := make([]domain.FileHandle, 0, len(resp.Files))
	for _, f := range resp.Files {
		files = append(files, domain.FileHandle{ID: f.Id, Name: f.Name})
	}
	return files, nil
}

// ListSheets returns every tab of the given spreadsheet file.
func (c *Client) ListSheets(ctx context.Context, fileID string) ([]domain.SheetHandle, error) {
	resp, err := c.sheets.Spreadsheets.Get(fileID).Context(ctx).Do()
	if err != nil {
		return nil, remoteErr("get spreadsheet", err)
	}

	tabs := make([]domain.SheetHandle, 0, len(resp.Sheets))
	for _, s := range resp.Sheets {
		if s.Properties == nil {
			continue
		}
		tabs = append(tabs, domain.SheetHandle{
			ID:    s.Properties.SheetId,
			Name:  s.Properties.Title,
			Index: s.Properties.Index,
		})
	}
	return tabs, nil
}

// Values fetches a rectangular block of cells as strings. When sheetName
// is non-empty the range is qualified as '<sheetName>'!<rng>. An empty
// block (no rows) is a valid result.
func (c *Client) Values(ctx context.Context, fileID, sheetName, rng string) ([][]string, error) {
	fullRange := rng
	if sheetName != "" {
		fullRange = fmt.Sprintf("'%s'!%s", sheetName, rng)
	}

	resp, err := c.sheets.Spreadsheets.Values.Get(fileID, fullRange).Context(ctx).Do()
	if err != nil {
		return nil, remoteErr("get values", err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, len(row))
		for i, cell := range row {
			cells[i] = strings.TrimSpace(fmt.Sprint(cell))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// remoteErr converts a Google API failure into a RemoteAPIError, lifting
// the HTTP status from googleapi.Error when one is present.
func remoteErr(op string, err error) *apperr.RemoteAPIError {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := gerr.Message
		if msg == "" {
			msg = gerr.Error()
		}
		return &apperr.RemoteAPIError{Status: gerr.Code, Message: fmt.Sprintf("%s: %s", op, msg), Cause: err}
	}
	return &apperr.RemoteAPIError{Status: http.StatusBadGateway, Message: fmt.Sprintf("%s: %v", op, err), Cause: err}
}
