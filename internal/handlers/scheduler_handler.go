package handlers

import (
	"errors"
	"net/http"

	"github.com/ternarybob/pasar/internal/interfaces"
	"github.com/ternarybob/pasar/internal/services/scheduler"
)

// SchedulerHandler exposes the refresh tasks
type SchedulerHandler struct {
	scheduler interfaces.SchedulerService
}

// NewSchedulerHandler creates a new scheduler handler
func NewSchedulerHandler(scheduler interfaces.SchedulerService) *SchedulerHandler {
	return &SchedulerHandler{scheduler: scheduler}
}

// StatusHandler handles GET /api/scheduler/status
func (h *SchedulerHandler) StatusHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodGet) {
		return
	}

	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"running": h.scheduler.IsRunning(),
		"tasks":   h.scheduler.Status(),
	})
}

// TriggerHandler handles POST /api/scheduler/trigger?job={name}
func (h *SchedulerHandler) TriggerHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, http.MethodPost) {
		return
	}

	name := r.URL.Query().Get("job")
	if name == "" {
		WriteError(w, http.StatusBadRequest, "Job name is required")
		return
	}

	err := h.scheduler.Trigger(name)
	switch {
	case errors.Is(err, scheduler.ErrUnknownTask):
		WriteError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, scheduler.ErrTaskRunning):
		WriteError(w, http.StatusConflict, err.Error())
	case err != nil:
		WriteError(w, http.StatusInternalServerError, err.Error())
	default:
		WriteSuccess(w, "Job triggered: "+name)
	}
}
