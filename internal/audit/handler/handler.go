package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"verilist/internal/audit"
	"verilist/internal/transport/http/shared"
	dErrors "verilist/pkg/domain-errors"
)

// Handler exposes the read side of the audit log.
type Handler struct {
	auditor *audit.Publisher
	logger  *slog.Logger
}

func New(auditor *audit.Publisher, logger *slog.Logger) *Handler {
	return &Handler{auditor: auditor, logger: logger}
}

// RegisterReviewer mounts the per-request audit trail endpoint.
func (h *Handler) RegisterReviewer(r chi.Router) {
	r.Get("/verification/requests/{id}/audit", h.HandleListByRequest)
}

// RegisterAdmin mounts the full audit listing.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/verification/audit", h.HandleListAll)
}

// HandleListByRequest handles GET /verification/requests/{id}/audit.
func (h *Handler) HandleListByRequest(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := h.auditor.ListByRequest(ctx, chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit entries"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, entries)
}

// HandleListAll handles GET /verification/audit, newest first.
func (h *Handler) HandleListAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entries, err := h.auditor.ListAll(ctx)
	if err != nil {
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list audit entries"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, entries)
}
