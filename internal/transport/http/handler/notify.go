package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-journal/internal/application/notification"
	"github.com/go-journal/internal/domain"
	"github.com/go-journal/internal/pkg/validate"
)

// NotifyHandler handles the operator broadcast endpoint. Authentication is
// applied by middleware before it runs.
type NotifyHandler struct {
	svc notification.Service
}

func NewNotifyHandler(svc notification.Service) *NotifyHandler { return &NotifyHandler{svc: svc} }

func (h *NotifyHandler) Notify(w http.ResponseWriter, r *http.Request) {
	var req domain.NotifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}
	if err := validate.First(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	res, err := h.svc.Notify(r.Context(), req)
	if err != nil {
		slog.Error("notify failed", "post_id", req.PostID, "err", err)
		writeError(w, http.StatusInternalServerError, "Failed to send notifications")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
