package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"verilist/internal/decision"
	"verilist/internal/transport/http/shared"
	dErrors "verilist/pkg/domain-errors"
	"verilist/pkg/requestcontext"
)

// Service defines the decision operations the handler needs.
type Service interface {
	Approve(ctx context.Context, requestID, reviewerID string) (decision.Outcome, error)
	Reject(ctx context.Context, requestID, reviewerID, reason string) (decision.Outcome, error)
}

// Handler wires decision endpoints to the decision service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the reviewer decision endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verification/requests/{id}/approve", h.HandleApprove)
	r.Post("/verification/requests/{id}/reject", h.HandleReject)
}

// HandleApprove handles POST /verification/requests/{id}/approve.
func (h *Handler) HandleApprove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chi.URLParam(r, "id")
	reviewerID := requestcontext.UserID(ctx)

	out, err := h.service.Approve(ctx, requestID, reviewerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "approve failed",
			"request_id", requestID,
			"reviewer_id", reviewerID,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, FromOutcome(out))
}

// HandleReject handles POST /verification/requests/{id}/reject. The body is
// optional; an empty reason falls back to the service default.
func (h *Handler) HandleReject(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := chi.URLParam(r, "id")
	reviewerID := requestcontext.UserID(ctx)

	var body RejectRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}

	out, err := h.service.Reject(ctx, requestID, reviewerID, body.Reason)
	if err != nil {
		h.logger.ErrorContext(ctx, "reject failed",
			"request_id", requestID,
			"reviewer_id", reviewerID,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, FromOutcome(out))
}
