package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/revisional/loan-engine/internal/report"
	"github.com/revisional/loan-engine/internal/request"
	"github.com/revisional/loan-engine/internal/store"
	"github.com/revisional/loan-engine/pkg/schedule"
	"go.uber.org/zap"
)

func testRequest() request.Request {
	horizon := 12
	return request.Request{
		Principal:         "302400.00",
		TotalInstallments: 360,
		FirstDueDate:      "2018-06-21",
		RateBands: []request.RateBand{
			{Start: "2018-06-21", End: "2048-06-20", MonthlyRate: "0.005654145387"},
		},
		AncillaryCharges: []request.AncillaryCharge{
			{Date: "2018-06-21", InsuranceA: "62.54", InsuranceB: "77.66", AdminFee: "25.00"},
		},
		HorizonMonths:     &horizon,
		MarketMonthlyRate: "0.0062",
	}
}

func performJSON(t *testing.T, handler http.Handler, method, target string, payload interface{}) *httptest.ResponseRecorder {
	t.Helper()

	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}

	req := httptest.NewRequest(method, target, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestHandlePreviewSuccess(t *testing.T) {
	handler := NewHandler(zap.NewNop(), report.NewEngine(zap.NewNop()), nil)

	rr := performJSON(t, handler, http.MethodPost, "/api/preview", testRequest())
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp map[string]json.RawMessage
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	for _, field := range []string{"contractRateMonthly", "marketRateMonthly", "totalRestitution", "formatted"} {
		if _, ok := resp[field]; !ok {
			t.Errorf("preview response missing field %q", field)
		}
	}
}

func TestHandleReportTables(t *testing.T) {
	handler := NewHandler(zap.NewNop(), report.NewEngine(zap.NewNop()), nil)

	tests := []struct {
		name      string
		table     string
		wantField string
	}{
		{name: "charged table", table: "charged", wantField: "lines"},
		{name: "due table", table: "due", wantField: "lines"},
		{name: "comparative table", table: "comparative", wantField: "totalRestitution"},
		{name: "default preview", table: "", wantField: "totalRestitution"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := performJSON(t, handler, http.MethodPost, "/api/report?whichTable="+tt.table, testRequest())
			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
			}

			var resp map[string]json.RawMessage
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if _, ok := resp[tt.wantField]; !ok {
				t.Errorf("response missing field %q", tt.wantField)
			}
		})
	}
}

func TestHandleReportUnknownTable(t *testing.T) {
	handler := NewHandler(zap.NewNop(), report.NewEngine(zap.NewNop()), nil)

	rr := performJSON(t, handler, http.MethodPost, "/api/report?whichTable=everything", testRequest())
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestHandlePreviewValidationError(t *testing.T) {
	handler := NewHandler(zap.NewNop(), report.NewEngine(zap.NewNop()), nil)

	req := testRequest()
	req.Principal = "-100"

	rr := performJSON(t, handler, http.MethodPost, "/api/preview", req)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp errorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Code == "" {
		t.Error("expected an error code in the response")
	}
}

func TestHandleReconcileInline(t *testing.T) {
	handler := NewHandler(zap.NewNop(), report.NewEngine(zap.NewNop()), nil)

	req := testRequest()
	payload := reconcileRequest{
		Request: &req,
		PaymentEvents: []request.PaymentEvent{
			{Installment: 1, PaymentDate: "2018-06-21", AmountPaid: "2715.01", Status: "paid"},
			{Installment: 2, PaymentDate: "2018-07-21", AmountPaid: "2710.26", Status: "paid"},
		},
	}

	rr := performJSON(t, handler, http.MethodPost, "/api/reconcile", payload)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	var revised schedule.Scenario
	if err := json.Unmarshal(rr.Body.Bytes(), &revised); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(revised.Lines) != 12 {
		t.Errorf("revised schedule has %d lines, want 12", len(revised.Lines))
	}
}

func TestHandleReconcileConflict(t *testing.T) {
	handler := NewHandler(zap.NewNop(), report.NewEngine(zap.NewNop()), nil)

	req := testRequest()
	payload := reconcileRequest{
		Request: &req,
		PaymentEvents: []request.PaymentEvent{
			{Installment: 5, PaymentDate: "2018-10-21", AmountPaid: "2700.00", Status: "paid"},
		},
		FromInstallment: 3,
	}

	rr := performJSON(t, handler, http.MethodPost, "/api/reconcile", payload)
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleReconcileMissingSource(t *testing.T) {
	handler := NewHandler(zap.NewNop(), report.NewEngine(zap.NewNop()), nil)

	rr := performJSON(t, handler, http.MethodPost, "/api/reconcile", reconcileRequest{})
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rr.Code)
	}
}

func TestScheduleSnapshotLifecycle(t *testing.T) {
	storage, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "snapshots.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	defer storage.Close()

	handler := NewHandler(zap.NewNop(), report.NewEngine(zap.NewNop()), storage)

	rr := performJSON(t, handler, http.MethodPost, "/api/schedules", testRequest())
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var created map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	id := created["id"]
	if id == "" {
		t.Fatal("expected an id in the response")
	}

	rr = performJSON(t, handler, http.MethodGet, "/api/schedules/"+id, nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 on get, got %d: %s", rr.Code, rr.Body.String())
	}

	// Reconcile against the stored schedule by id.
	payload := reconcileRequest{
		ScheduleID: id,
		PaymentEvents: []request.PaymentEvent{
			{Installment: 1, PaymentDate: "2018-06-21", AmountPaid: "2715.01", Status: "paid"},
		},
	}
	rr = performJSON(t, handler, http.MethodPost, "/api/reconcile", payload)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 on reconcile, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = performJSON(t, handler, http.MethodGet, "/api/schedules", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200 on list, got %d", rr.Code)
	}

	rr = performJSON(t, handler, http.MethodDelete, "/api/schedules/"+id, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("expected status 204 on delete, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = performJSON(t, handler, http.MethodGet, "/api/schedules/"+id, nil)
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 after delete, got %d", rr.Code)
	}
}

func TestSnapshotEndpointsWithoutStorage(t *testing.T) {
	handler := NewHandler(zap.NewNop(), report.NewEngine(zap.NewNop()), nil)

	rr := performJSON(t, handler, http.MethodPost, "/api/schedules", testRequest())
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rr.Code)
	}
}
