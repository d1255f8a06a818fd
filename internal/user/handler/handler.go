package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"verilist/internal/transport/http/shared"
	"verilist/internal/user"
	dErrors "verilist/pkg/domain-errors"
	"verilist/pkg/platform/sentinel"
	"verilist/pkg/requestcontext"
)

// Handler exposes the user's verification status projection.
type Handler struct {
	cache  *user.CachedStatus
	logger *slog.Logger
}

func New(cache *user.CachedStatus, logger *slog.Logger) *Handler {
	return &Handler{cache: cache, logger: logger}
}

// Register mounts the status endpoint for the authenticated user.
func (h *Handler) Register(r chi.Router) {
	r.Get("/me/verification-status", h.HandleStatus)
}

// HandleStatus handles GET /me/verification-status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := requestcontext.UserID(ctx)

	status, err := h.cache.Get(ctx, userID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			shared.WriteError(w, dErrors.New(dErrors.CodeNotFound, "user not found"))
			return
		}
		shared.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load verification status"))
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]string{
		"userId":             userID,
		"verificationStatus": string(status),
	})
}
