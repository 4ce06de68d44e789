package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-journal/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Success bool   `json:"success,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// SubscribersEnvelope wraps the operator subscriber listing.
type SubscribersEnvelope struct {
	Count       int                 `json:"count"`
	Subscribers []SubscriberSummary `json:"subscribers"`
}

// SubscriberSummary leaves out id and metadata.
type SubscriberSummary struct {
	Name         string    `json:"name"`
	Phone        string    `json:"phone"`
	SubscribedAt time.Time `json:"subscribedAt"`
}

// ReloadEnvelope reports how many posts were loaded.
type ReloadEnvelope struct {
	Success bool `json:"success"`
	Posts   int  `json:"posts"`
}

const genericError = "Something went wrong. Please try again."

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

// httpError maps domain sentinels to status codes. Duplicate subscriptions
// are a client error (400), not a 409. Unclassified errors are logged and
// reported with a generic message.
func httpError(w http.ResponseWriter, err error) {
	msg := err.Error()
	var de *domain.Error
	if errors.As(err, &de) {
		msg = de.Message
	}
	switch {
	case errors.Is(err, domain.ErrBadRequest), errors.Is(err, domain.ErrConflict):
		writeError(w, http.StatusBadRequest, msg)
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, msg)
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	default:
		slog.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, genericError)
	}
}
