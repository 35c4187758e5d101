package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/fulfillment"
	obsinfra "github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/prometrics"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/infrastructure/observability/zaplogger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubProcessOrder struct {
	err    error
	called []int64
}

func (s *stubProcessOrder) Execute(_ context.Context, cmd fulfillment.ProcessOrderInput) (*fulfillment.ProcessOrderResult, error) {
	s.called = append(s.called, cmd.OrderID)
	if s.err != nil {
		return nil, s.err
	}
	return &fulfillment.ProcessOrderResult{OrderID: cmd.OrderID}, nil
}

func TestProcessOrderResponses(t *testing.T) {
	cases := []struct {
		name       string
		path       string
		err        error
		wantStatus int
		wantBody   string
	}{
		{"ok", "/orders/1/processOrder", nil, http.StatusOK, `{"id":1}`},
		{"not found", "/orders/404/processOrder", fulfillment.ErrNotFound, http.StatusNotFound, ""},
		{"bad id", "/orders/abc/processOrder", nil, http.StatusBadRequest, `{"error":"order id must be an integer"}`},
		{"store failure", "/orders/2/processOrder", fmt.Errorf("%w: %w", fulfillment.ErrStore, errors.New("db down")), http.StatusInternalServerError, ""},
		{"cancelled", "/orders/3/processOrder", context.DeadlineExceeded, http.StatusServiceUnavailable, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := &stubProcessOrder{err: tc.err}
			h := NewHandler(uc, nil, nil)

			rec := httptest.NewRecorder()
			h.Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, tc.path, nil))

			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tc.wantStatus)
			}
			body := strings.TrimSpace(rec.Body.String())
			switch {
			case tc.wantStatus == http.StatusNotFound && body != "":
				t.Fatalf("404 body = %q, want empty", body)
			case tc.wantBody != "" && body != tc.wantBody:
				t.Fatalf("body = %q, want %q", body, tc.wantBody)
			}
			if rec.Header().Get(headerRequestID) == "" {
				t.Fatal("missing X-Request-ID")
			}
		})
	}
}

func TestProcessOrderErrorBody(t *testing.T) {
	uc := &stubProcessOrder{err: fmt.Errorf("%w: %w", fulfillment.ErrStore, errors.New("db down"))}
	rec := httptest.NewRecorder()
	NewHandler(uc, nil, nil).Router().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/orders/2/processOrder", nil))

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !strings.Contains(body["error"], "db down") {
		t.Fatalf("error body = %v", body)
	}
}

func TestProcessOrderRejectsWrongMethod(t *testing.T) {
	uc := &stubProcessOrder{}
	rec := httptest.NewRecorder()
	NewHandler(uc, nil, nil).Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/orders/1/processOrder", nil))

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
	if len(uc.called) != 0 {
		t.Fatal("use case invoked for wrong method")
	}
}

func TestProcessOrderCancelledRequest(t *testing.T) {
	uc := application.UseCaseFunc[fulfillment.ProcessOrderInput, *fulfillment.ProcessOrderResult](
		func(ctx context.Context, _ fulfillment.ProcessOrderInput) (*fulfillment.ProcessOrderResult, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/orders/3/processOrder", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	NewHandler(uc, nil, nil).Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rec.Code)
	}
}

func TestHealth(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHandler(&stubProcessOrder{}, nil, nil).Router().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("health = %d %q", rec.Code, rec.Body.String())
	}
}

func TestMiddlewareRecordsMetricsAndAccessLog(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	reg := prometheus.NewRegistry()
	counters, histograms := prometrics.Instruments(prometrics.New(reg, "", ""))
	tel := obsinfra.New(obsinfra.WithLogger(zaplogger.New(zap.New(core))), obsinfra.WithInstruments(counters, histograms))

	h := NewHandler(&stubProcessOrder{}, nil, tel)
	req := httptest.NewRequest(http.MethodPost, "/orders/5/processOrder", nil)
	req.Header.Set(headerRequestID, "req-123")
	rec := httptest.NewRecorder()
	h.Router().ServeHTTP(rec, req)

	if rec.Header().Get(headerRequestID) != "req-123" {
		t.Fatalf("request id not echoed: %q", rec.Header().Get(headerRequestID))
	}

	expected := `
# HELP http_requests_total Total number of HTTP requests.
# TYPE http_requests_total counter
http_requests_total{method="POST",route="/orders/{orderId}/processOrder",status="200"} 1
`
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "http_requests_total"); err != nil {
		t.Fatalf("metrics mismatch: %v", err)
	}

	access := logs.FilterMessage("http_access").All()
	if len(access) != 1 {
		t.Fatalf("access logs = %d, want 1", len(access))
	}
	if got := access[0].ContextMap()["request_id"]; got != "req-123" {
		t.Fatalf("request_id = %v", got)
	}
}
