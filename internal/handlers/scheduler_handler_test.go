package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/pasar/internal/models"
	"github.com/ternarybob/pasar/internal/services/scheduler"
)

// signalTask reports each run on a channel and blocks until released
type signalTask struct {
	ran     chan struct{}
	release chan struct{}
}

func (t *signalTask) Name() string { return "news_refresh" }

func (t *signalTask) Run(ctx context.Context) (models.CycleReport, error) {
	t.ran <- struct{}{}
	<-t.release
	return models.CycleReport{Units: 1}, nil
}

func TestSchedulerHandler(t *testing.T) {
	svc := scheduler.NewService(arbor.NewLogger())
	task := &signalTask{ran: make(chan struct{}, 1), release: make(chan struct{})}
	require.NoError(t, svc.Register("*/15 * * * *", task, false))
	handler := NewSchedulerHandler(svc)

	rec := httptest.NewRecorder()
	handler.StatusHandler(rec, httptest.NewRequest(http.MethodGet, "/api/scheduler/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"name":"news_refresh"`)
	assert.Contains(t, rec.Body.String(), `"running":false`)

	rec = httptest.NewRecorder()
	handler.TriggerHandler(rec, httptest.NewRequest(http.MethodPost, "/api/scheduler/trigger?job=news_refresh", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	select {
	case <-task.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("triggered task did not run")
	}

	rec = httptest.NewRecorder()
	handler.TriggerHandler(rec, httptest.NewRequest(http.MethodPost, "/api/scheduler/trigger?job=news_refresh", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	close(task.release)

	rec = httptest.NewRecorder()
	handler.TriggerHandler(rec, httptest.NewRequest(http.MethodPost, "/api/scheduler/trigger?job=missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	handler.TriggerHandler(rec, httptest.NewRequest(http.MethodPost, "/api/scheduler/trigger", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	handler.TriggerHandler(rec, httptest.NewRequest(http.MethodGet, "/api/scheduler/trigger?job=news_refresh", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
