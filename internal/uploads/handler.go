package uploads

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/tallybook/tallybook/internal/authz"
	"github.com/tallybook/tallybook/internal/guard"
	"github.com/tallybook/tallybook/internal/platform/httpx"
	"github.com/tallybook/tallybook/internal/routes"
)

// Handler exposes the upload bookkeeping endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds a Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// Routes declares the upload endpoints.
func (h *Handler) Routes() []routes.Route {
	return []routes.Route{
		{Method: http.MethodGet, Path: "/api/uploads", Permission: authz.PermDataUpload, Handler: h.list},
		{Method: http.MethodPost, Path: "/api/uploads", Permission: authz.PermDataUpload, Handler: h.create},
		{Method: http.MethodDelete, Path: "/api/uploads/{id}", Permission: authz.PermDataUpload, Handler: h.remove},
	}
}

type recordPayload struct {
	ID         int64  `json:"id"`
	Filename   string `json:"filename"`
	Kind       string `json:"kind"`
	Size       int64  `json:"size"`
	RowCount   int    `json:"row_count"`
	UploadedBy string `json:"uploaded_by,omitempty"`
	Note       string `json:"note,omitempty"`
	CreatedAt  string `json:"created_at"`
}

func toPayload(rec Record) recordPayload {
	return recordPayload{
		ID: rec.ID, Filename: rec.Filename, Kind: rec.Kind, Size: rec.Size,
		RowCount: rec.RowCount, UploadedBy: rec.UploadedBy, Note: rec.Note,
		CreatedAt: rec.CreatedAt.Format("2006-01-02 15:04"),
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := h.service.List(r.Context(), limit)
	if err != nil {
		h.logger.Error("list uploads", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	payloads := make([]recordPayload, 0, len(records))
	for _, rec := range records {
		payloads = append(payloads, toPayload(rec))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"uploads": payloads})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Filename string `json:"filename"`
		Kind     string `json:"kind"`
		Size     int64  `json:"size"`
		RowCount int    `json:"row_count"`
		Note     string `json:"note"`
	}
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed upload payload")
		return
	}
	input := Input{
		Filename: req.Filename, Kind: req.Kind, Size: req.Size,
		RowCount: req.RowCount, Note: req.Note,
	}
	if user := guard.UserFromContext(r.Context()); user != nil {
		input.UploadedBy = user.Name
	}
	rec, err := h.service.Record(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.Created(w, toPayload(rec))
}

func (h *Handler) remove(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.service.Delete(r.Context(), id); err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.NoContent(w)
}
