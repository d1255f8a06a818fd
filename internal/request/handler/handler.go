package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"verilist/internal/domain"
	"verilist/internal/transport/http/shared"
	dErrors "verilist/pkg/domain-errors"
	"verilist/pkg/requestcontext"
)

// Service defines the submission-side operations the handler needs.
type Service interface {
	Submit(ctx context.Context, userID string, claims domain.Claims) (domain.VerificationRequest, error)
	GetByUser(ctx context.Context, userID string) (domain.VerificationRequest, error)
	GetByID(ctx context.Context, id string) (domain.VerificationRequest, error)
	ListByStatus(ctx context.Context, status domain.RequestStatus) ([]domain.VerificationRequest, error)
	ListAll(ctx context.Context) ([]domain.VerificationRequest, error)
}

// Handler wires verification request endpoints to the request service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// RegisterLister mounts the endpoints available to the requesting lister.
func (h *Handler) RegisterLister(r chi.Router) {
	r.Post("/verification/requests", h.HandleSubmit)
	r.Get("/verification/requests/me", h.HandleGetMine)
}

// RegisterReviewer mounts the review-queue endpoints.
func (h *Handler) RegisterReviewer(r chi.Router) {
	r.Get("/verification/requests", h.HandleList)
	r.Get("/verification/requests/{id}", h.HandleGetByID)
}

// HandleSubmit handles POST /verification/requests.
func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	var body SubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid JSON body"))
		return
	}

	req, err := h.service.Submit(ctx, userID, body.Claims())
	if err != nil {
		h.logger.ErrorContext(ctx, "submission failed",
			"request_id", requestcontext.RequestID(ctx),
			"user_id", userID,
			"error", err,
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, FromRequest(req))
}

// HandleGetMine handles GET /verification/requests/me.
func (h *Handler) HandleGetMine(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := h.service.GetByUser(ctx, requestcontext.UserID(ctx))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, FromRequest(req))
}

// HandleList handles GET /verification/requests with an optional ?status=
// filter.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		reqs []domain.VerificationRequest
		err  error
	)
	if status := r.URL.Query().Get("status"); status != "" {
		reqs, err = h.service.ListByStatus(ctx, domain.RequestStatus(status))
	} else {
		reqs, err = h.service.ListAll(ctx)
	}
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, FromRequests(reqs))
}

// HandleGetByID handles GET /verification/requests/{id}.
func (h *Handler) HandleGetByID(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := h.service.GetByID(ctx, chi.URLParam(r, "id"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, FromRequest(req))
}
