package delivery

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/abakusuz/paybot/internal/ports"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type SubscriptionHandler struct {
	service ports.SubscriptionService
}

func NewSubscriptionHandler(service ports.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{service: service}
}

type grantRequest struct {
	UID  string  `json:"uid" validate:"required"`
	Days int     `json:"days" validate:"required,gt=0"`
	Note *string `json:"note"`
}

type extendRequest struct {
	UID string `json:"uid" validate:"required"`
	Add int    `json:"add" validate:"required,gt=0"`
}

type uidRequest struct {
	UID string `json:"uid" validate:"required"`
}

type noteRequest struct {
	UID  string `json:"uid" validate:"required"`
	Note string `json:"note"`
}

// GET /subscriptions
func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	subs, err := h.service.List(r.Context())
	if err != nil {
		http.Error(w, "failed to list subscriptions: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(subs)
}

// POST /subscriptions/grant
func (h *SubscriptionHandler) Grant(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "uid and positive days are required", http.StatusBadRequest)
		return
	}

	if err := h.service.Grant(r.Context(), req.UID, req.Days, req.Note); err != nil {
		writeServiceError(w, err)
		return
	}
	writeOK(w)
}

// POST /subscriptions/extend
func (h *SubscriptionHandler) Extend(w http.ResponseWriter, r *http.Request) {
	var req extendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "uid and positive add are required", http.StatusBadRequest)
		return
	}

	if err := h.service.Extend(r.Context(), req.UID, req.Add); err != nil {
		writeServiceError(w, err)
		return
	}
	writeOK(w)
}

// POST /subscriptions/reset
func (h *SubscriptionHandler) Reset(w http.ResponseWriter, r *http.Request) {
	var req uidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "missing uid", http.StatusBadRequest)
		return
	}

	if err := h.service.Reset(r.Context(), req.UID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeOK(w)
}

// POST /subscriptions/note
func (h *SubscriptionHandler) Annotate(w http.ResponseWriter, r *http.Request) {
	var req noteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "missing uid", http.StatusBadRequest)
		return
	}

	if err := h.service.Annotate(r.Context(), req.UID, req.Note); err != nil {
		writeServiceError(w, err)
		return
	}
	writeOK(w)
}

// POST /subscriptions/delete
func (h *SubscriptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	var req uidRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(req); err != nil {
		http.Error(w, "missing uid", http.StatusBadRequest)
		return
	}

	if err := h.service.Remove(r.Context(), req.UID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeOK(w)
}

// GET /subscriptions/status?tg_id=...
// Never errors: any failure reads as "inactive".
func (h *SubscriptionHandler) Status(w http.ResponseWriter, r *http.Request) {
	uid := r.URL.Query().Get("tg_id")

	status := ports.Status{}
	if uid != "" {
		if st, err := h.service.Status(r.Context(), uid); err == nil {
			status = st
		}
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(status)
}

func writeOK(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ports.ErrInvalidInput):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, ports.ErrNotFound):
		http.Error(w, "subscription not found", http.StatusNotFound)
	default:
		http.Error(w, "storage error: "+err.Error(), http.StatusInternalServerError)
	}
}
