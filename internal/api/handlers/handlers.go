package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/dvloznov/sheets-importer/internal/api/middleware"
	"github.com/dvloznov/sheets-importer/internal/apperr"
	"github.com/dvloznov/sheets-importer/internal/archive"
	"github.com/dvloznov/sheets-importer/internal/domain"
	"github.com/dvloznov/sheets-importer/internal/gauth"
	"github.com/dvloznov/sheets-importer/internal/gsheets"
	"github.com/dvloznov/sheets-importer/internal/importer"
	"github.com/dvloznov/sheets-importer/internal/session"
	"github.com/dvloznov/sheets-importer/internal/sink"
)

const previewLimit = 5

// Exchanger is the OAuth leg of the pipeline: consent URL and code
// exchange. Satisfied by gauth.Flow.
type Exchanger interface {
	AuthURL() string
	Exchange(ctx context.Context, code string) (*gauth.TokenSet, error)
}

// SheetsService is the remote spreadsheet port: file discovery, tab
// enumeration and ranged value reads. Satisfied by gsheets.Client.
type SheetsService interface {
	ListSpreadsheets(ctx context.Context) ([]domain.FileHandle, error)
	ListSheets(ctx context.Context, fileID string) ([]domain.SheetHandle, error)
	Values(ctx context.Context, fileID, sheetName, rng string) ([][]string, error)
}

// ServiceFactory builds a SheetsService authenticated with the given
// tokens. One service per request; nothing is cached across requests.
type ServiceFactory func(ctx context.Context, ts *gauth.TokenSet) (SheetsService, error)

// NewServiceFactory wires gauth and gsheets into the default factory.
func NewServiceFactory(flow *gauth.Flow) ServiceFactory {
	return func(ctx context.Context, ts *gauth.TokenSet) (SheetsService, error) {
		return gsheets.NewClient(ctx, flow.Client(ctx, ts))
	}
}

// SheetsHandler handles the Google Sheets authorization and import
// endpoints.
type SheetsHandler struct {
	flow     Exchanger
	services ServiceFactory
	tokens   session.TokenStore
	sink     sink.Sink
	archive  *archive.Writer // nil disables batch archiving
	log      zerolog.Logger
}

// NewSheetsHandler creates a new sheets handler.
func NewSheetsHandler(flow Exchanger, services ServiceFactory, tokens session.TokenStore, snk sink.Sink, arch *archive.Writer, log zerolog.Logger) *SheetsHandler {
	return &SheetsHandler{
		flow:     flow,
		services: services,
		tokens:   tokens,
		sink:     snk,
		archive:  arch,
		log:      log,
	}
}

// AuthURL handles GET /api/google/auth-url
func (h *SheetsHandler) AuthURL(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"url": h.flow.AuthURL()})
}

// Callback handles GET /api/google/callback?code=
//
// The token store write is awaited before any response is produced: the
// browser may fire a dependent request (list sheets) the moment this one
// returns, and that request must observe the tokens.
func (h *SheetsHandler) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	code := r.URL.Query().Get("code")
	if code == "" {
		middleware.WriteError(w, http.StatusBadRequest, "No code provided")
		return
	}

	ts, err := h.flow.Exchange(ctx, code)
	if err != nil {
		h.log.Error().Err(err).Msg("Token exchange failed")
		middleware.WriteError(w, http.StatusBadRequest, "Authentication failed")
		return
	}

	sessionID := middleware.SessionID(ctx)
	if err := h.tokens.Store(ctx, sessionID, ts); err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to store tokens")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}

	svc, err := h.services(ctx, ts)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	files, err := svc.ListSpreadsheets(ctx)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	h.log.Info().
		Str("session_id", sessionID).
		Bool("has_refresh_token", ts.RefreshToken != "").
		Int("files", len(files)).
		Msg("Authorization completed")

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"sheets":  files,
	})
}

// ListSheets handles GET /api/google/sheets?fileId=
func (h *SheetsHandler) ListSheets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	fileID := r.URL.Query().Get("fileId")
	if fileID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "fileId is required")
		return
	}

	svc, ok := h.authenticatedService(ctx, w)
	if !ok {
		return
	}

	tabs, err := svc.ListSheets(ctx, fileID)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"sheets":  tabs,
	})
}

// PreviewSheet handles POST /api/google/preview-sheet
func (h *SheetsHandler) PreviewSheet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		FileID    string `json:"fileId"`
		SheetID   int64  `json:"sheetId"`
		SheetName string `json:"sheetName"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FileID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "fileId is required")
		return
	}

	svc, ok := h.authenticatedService(ctx, w)
	if !ok {
		return
	}

	rows, err := svc.Values(ctx, req.FileID, req.SheetName, gsheets.PreviewRange)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	headers, body := splitHeader(rows)
	result := importer.MapRows(headers, body, importer.DefaultMapping())

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"headers": headers,
		"preview": result.Preview(previewLimit),
	})
}

// ImportSheet handles POST /api/google/import-sheet
func (h *SheetsHandler) ImportSheet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		FileID    string                 `json:"fileId"`
		SheetName string                 `json:"sheetName"`
		Mappings  importer.ColumnMapping `json:"mappings"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.FileID == "" {
		middleware.WriteError(w, http.StatusBadRequest, "fileId is required")
		return
	}
	if req.Mappings.Amount == nil {
		middleware.WriteError(w, http.StatusBadRequest, "amount column mapping is required")
		return
	}

	svc, ok := h.authenticatedService(ctx, w)
	if !ok {
		return
	}

	rows, err := svc.Values(ctx, req.FileID, req.SheetName, gsheets.ImportRange)
	if err != nil {
		h.writeFailure(w, err)
		return
	}

	batchID := uuid.New().String()
	headers, body := splitHeader(rows)

	if h.archive != nil {
		// Archive failures are logged, never fail the import.
		if uri, err := h.archive.WriteBatch(ctx, batchID, req.FileID, req.SheetName, rows); err != nil {
			h.log.Warn().Err(err).Str("batch_id", batchID).Msg("Failed to archive batch")
		} else {
			h.log.Info().Str("batch_id", batchID).Str("uri", uri).Msg("Batch archived")
		}
	}

	result := importer.MapRows(headers, body, req.Mappings)

	count, err := h.sink.Save(ctx, batchID, result.Records)
	if err != nil {
		h.log.Error().Err(err).Str("batch_id", batchID).Msg("Failed to save batch")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to import sheet")
		return
	}

	h.log.Info().
		Str("batch_id", batchID).
		Int("count", count).
		Int("income", result.Summary.Income).
		Int("expense", result.Summary.Expense).
		Int("flagged", result.Summary.Flagged).
		Msg("Sheet imported")

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"count":   count,
		"summary": result.Summary,
	})
}

// Disconnect handles POST /api/google/disconnect. Removes the stored
// tokens for the session; the Google-side grant stays live until the user
// revokes it from their account.
func (h *SheetsHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	sessionID := middleware.SessionID(ctx)
	if err := h.tokens.Delete(ctx, sessionID); err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to delete tokens")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to disconnect")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// authenticatedService loads the session tokens and builds a per-request
// SheetsService. On failure the response is already written and ok is
// false. Absence of tokens is a normal outcome of the store read and maps
// to 401 here, never to a dereference.
func (h *SheetsHandler) authenticatedService(ctx context.Context, w http.ResponseWriter) (SheetsService, bool) {
	sessionID := middleware.SessionID(ctx)

	ts, err := h.tokens.Get(ctx, sessionID)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", sessionID).Msg("Failed to read tokens")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to read session")
		return nil, false
	}
	if ts == nil {
		h.writeFailure(w, apperr.NotAuthenticated())
		return nil, false
	}

	svc, err := h.services(ctx, ts)
	if err != nil {
		h.writeFailure(w, err)
		return nil, false
	}
	return svc, true
}

// writeFailure maps the error taxonomy onto status codes: auth failures
// are 401, malformed input 400, remote failures surface the provider's
// status (502 when it carried none).
func (h *SheetsHandler) writeFailure(w http.ResponseWriter, err error) {
	var authErr *apperr.AuthError
	var remoteErr *apperr.RemoteAPIError
	var validationErr *apperr.ValidationError

	switch {
	case errors.As(err, &authErr):
		middleware.WriteError(w, http.StatusUnauthorized, authErr.Message)
	case errors.As(err, &remoteErr):
		h.log.Error().Err(err).Int("remote_status", remoteErr.Status).Msg("Remote API call failed")
		status := remoteErr.Status
		if status < 400 {
			status = http.StatusBadGateway
		}
		middleware.WriteError(w, status, remoteErr.Message)
	case errors.As(err, &validationErr):
		middleware.WriteError(w, http.StatusBadRequest, validationErr.Message)
	default:
		h.log.Error().Err(err).Msg("Unexpected failure")
		middleware.WriteError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// splitHeader separates the header row from the body rows. An empty value
// block yields empty headers and no body rows.
func splitHeader(rows [][]string) ([]string, [][]string) {
	if len(rows) == 0 {
		return []string{}, nil
	}
	return rows[0], rows[1:]
}
