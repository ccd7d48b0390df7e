// Package server exposes the calculation engine over HTTP as a JSON API.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/revisional/loan-engine/internal/report"
	"github.com/revisional/loan-engine/internal/request"
	"github.com/revisional/loan-engine/internal/store"
	"github.com/revisional/loan-engine/pkg/reconcile"
	"github.com/revisional/loan-engine/pkg/schedule"
	"github.com/revisional/loan-engine/pkg/validation"
	"go.uber.org/zap"
)

type handler struct {
	logger  *zap.Logger
	engine  *report.Engine
	storage store.Storage
}

// NewHandler constructs the HTTP handler serving the calculation API. Storage
// may be nil, in which case the snapshot endpoints respond 503.
func NewHandler(logger *zap.Logger, engine *report.Engine, storage store.Storage) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = report.NewEngine(logger)
	}

	h := &handler{logger: logger, engine: engine, storage: storage}

	router := mux.NewRouter()
	router.HandleFunc("/api/preview", h.handlePreview).Methods(http.MethodPost)
	router.HandleFunc("/api/report", h.handleReport).Methods(http.MethodPost)
	router.HandleFunc("/api/reconcile", h.handleReconcile).Methods(http.MethodPost)
	router.HandleFunc("/api/schedules", h.handleSaveSchedule).Methods(http.MethodPost)
	router.HandleFunc("/api/schedules", h.handleListSchedules).Methods(http.MethodGet)
	router.HandleFunc("/api/schedules/{id}", h.handleGetSchedule).Methods(http.MethodGet)
	router.HandleFunc("/api/schedules/{id}", h.handleDeleteSchedule).Methods(http.MethodDelete)

	return router
}

// reconcileRequest accepts either a previously stored schedule by id or an
// inline request, plus the recorded payment history.
type reconcileRequest struct {
	ScheduleID      string                 `json:"scheduleId,omitempty"`
	Request         *request.Request       `json:"request,omitempty"`
	PaymentEvents   []request.PaymentEvent `json:"paymentEvents"`
	FromInstallment int                    `json:"fromInstallment,omitempty"`
}

func (h *handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	result, _, ok := h.runRequest(w, r, "server.handlePreview")
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, result.Preview())
}

func (h *handler) handleReport(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleReport"

	table, err := report.ParseTable(r.URL.Query().Get("whichTable"))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err, op)
		return
	}

	result, _, ok := h.runRequest(w, r, op)
	if !ok {
		return
	}

	switch table {
	case report.TablePreview:
		h.writeJSON(w, http.StatusOK, result.Preview())
	case report.TableCharged:
		h.writeJSON(w, http.StatusOK, result.Charged)
	case report.TableDue:
		h.writeJSON(w, http.StatusOK, result.Due)
	case report.TableComparative:
		h.writeJSON(w, http.StatusOK, result.Comparison)
	}
}

func (h *handler) handleReconcile(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleReconcile"

	var payload reconcileRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Errorf("failed to decode request: %w", err), op)
		return
	}

	req, original, ok := h.resolveReconcileSource(w, payload, op)
	if !ok {
		return
	}

	params, err := req.Parameters()
	if err != nil {
		h.respondDomainError(w, err, op)
		return
	}

	events, err := request.Events(payload.PaymentEvents)
	if err != nil {
		h.respondDomainError(w, err, op)
		return
	}

	if original == nil {
		result, err := h.engine.Run(params)
		if err != nil {
			h.respondDomainError(w, err, op)
			return
		}
		original = result.Charged
	}

	revised, err := h.engine.Reconcile(original, params, events, payload.FromInstallment)
	if err != nil {
		h.respondDomainError(w, err, op)
		return
	}

	h.writeJSON(w, http.StatusOK, revised)
}

// resolveReconcileSource produces the wire request and, when a stored schedule
// is referenced, its previously computed charged scenario.
func (h *handler) resolveReconcileSource(w http.ResponseWriter, payload reconcileRequest, op string) (*request.Request, *schedule.Scenario, bool) {
	if payload.ScheduleID != "" {
		if h.storage == nil {
			h.respondError(w, http.StatusServiceUnavailable, errors.New("snapshot storage is not configured"), op)
			return nil, nil, false
		}
		id, err := uuid.Parse(payload.ScheduleID)
		if err != nil {
			h.respondError(w, http.StatusBadRequest, fmt.Errorf("invalid scheduleId %q: %w", payload.ScheduleID, err), op)
			return nil, nil, false
		}
		snapshot, err := h.storage.GetSnapshot(id)
		if err != nil {
			h.respondDomainError(w, err, op)
			return nil, nil, false
		}
		return &snapshot.Request, snapshot.Result.Charged, true
	}

	if payload.Request == nil {
		h.respondError(w, http.StatusBadRequest, errors.New("either scheduleId or request is required"), op)
		return nil, nil, false
	}
	return payload.Request, nil, true
}

func (h *handler) handleSaveSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSaveSchedule"

	if h.storage == nil {
		h.respondError(w, http.StatusServiceUnavailable, errors.New("snapshot storage is not configured"), op)
		return
	}

	result, req, ok := h.runRequest(w, r, op)
	if !ok {
		return
	}

	snapshot := &store.Snapshot{Request: *req, Result: *result}
	if err := h.storage.SaveSnapshot(snapshot); err != nil {
		h.respondError(w, http.StatusInternalServerError, err, op)
		return
	}

	h.logger.Info("schedule snapshot stored",
		zap.String("op", op),
		zap.String("id", snapshot.ID.String()),
	)

	h.writeJSON(w, http.StatusCreated, map[string]string{
		"id":        snapshot.ID.String(),
		"createdAt": snapshot.CreatedAt.Format(time.RFC3339),
	})
}

func (h *handler) handleListSchedules(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleListSchedules"

	if h.storage == nil {
		h.respondError(w, http.StatusServiceUnavailable, errors.New("snapshot storage is not configured"), op)
		return
	}

	snapshots, err := h.storage.ListSnapshots()
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err, op)
		return
	}

	type summary struct {
		ID        string `json:"id"`
		CreatedAt string `json:"createdAt"`
		Principal string `json:"principal"`
	}
	summaries := make([]summary, 0, len(snapshots))
	for _, snapshot := range snapshots {
		summaries = append(summaries, summary{
			ID:        snapshot.ID.String(),
			CreatedAt: snapshot.CreatedAt.Format(time.RFC3339),
			Principal: snapshot.Request.Principal,
		})
	}

	h.writeJSON(w, http.StatusOK, summaries)
}

func (h *handler) handleGetSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGetSchedule"

	snapshot, ok := h.loadSnapshot(w, r, op)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, snapshot)
}

func (h *handler) handleDeleteSchedule(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleDeleteSchedule"

	if h.storage == nil {
		h.respondError(w, http.StatusServiceUnavailable, errors.New("snapshot storage is not configured"), op)
		return
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Errorf("invalid id: %w", err), op)
		return
	}

	if err := h.storage.DeleteSnapshot(id); err != nil {
		h.respondDomainError(w, err, op)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) loadSnapshot(w http.ResponseWriter, r *http.Request, op string) (*store.Snapshot, bool) {
	if h.storage == nil {
		h.respondError(w, http.StatusServiceUnavailable, errors.New("snapshot storage is not configured"), op)
		return nil, false
	}

	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Errorf("invalid id: %w", err), op)
		return nil, false
	}

	snapshot, err := h.storage.GetSnapshot(id)
	if err != nil {
		h.respondDomainError(w, err, op)
		return nil, false
	}
	return snapshot, true
}

// runRequest decodes the wire request from the body, converts it, and runs the
// engine. On any failure the response has already been written.
func (h *handler) runRequest(w http.ResponseWriter, r *http.Request, op string) (*report.Result, *request.Request, bool) {
	start := time.Now()

	var req request.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, fmt.Errorf("failed to decode request: %w", err), op)
		return nil, nil, false
	}

	params, err := req.Parameters()
	if err != nil {
		h.respondDomainError(w, err, op)
		return nil, nil, false
	}

	result, err := h.engine.Run(params)
	if err != nil {
		h.respondDomainError(w, err, op)
		return nil, nil, false
	}

	h.logger.Info("calculation completed",
		zap.String("op", op),
		zap.Int("installments", len(result.Charged.Lines)),
		zap.Duration("duration", time.Since(start)),
	)

	return result, &req, true
}

// errorResponse is the JSON error body. Code and details are present for
// domain errors, absent for transport-level failures.
type errorResponse struct {
	Error   string            `json:"error"`
	Code    string            `json:"code,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// respondDomainError maps engine errors onto HTTP statuses: invalid input is
// 400, reconciliation conflicts 409, missing snapshots 404, the rest 500.
func (h *handler) respondDomainError(w http.ResponseWriter, err error, op string) {
	var validationErr *validation.Error
	var configErr *schedule.ConfigError
	var conflictErr *reconcile.ConflictError

	switch {
	case errors.As(err, &validationErr):
		h.respondErrorBody(w, http.StatusBadRequest, errorResponse{
			Error:   validationErr.Message,
			Code:    validationErr.Code,
			Details: validationErr.Details,
		}, op)
	case errors.As(err, &configErr):
		h.respondErrorBody(w, http.StatusBadRequest, errorResponse{
			Error:   configErr.Message,
			Code:    configErr.Code,
			Details: configErr.Details,
		}, op)
	case errors.As(err, &conflictErr):
		h.respondErrorBody(w, http.StatusConflict, errorResponse{
			Error:   conflictErr.Message,
			Code:    conflictErr.Code,
			Details: conflictErr.Details,
		}, op)
	case errors.Is(err, store.ErrNotFound):
		h.respondError(w, http.StatusNotFound, err, op)
	default:
		h.respondError(w, http.StatusInternalServerError, err, op)
	}
}

func (h *handler) respondError(w http.ResponseWriter, status int, err error, op string) {
	h.respondErrorBody(w, status, errorResponse{Error: err.Error()}, op)
}

func (h *handler) respondErrorBody(w http.ResponseWriter, status int, body errorResponse, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", body.Error),
	)
	h.writeJSON(w, status, body)
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
