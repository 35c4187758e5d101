package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Zhima-Mochi/minishop-fulfillment/internal/application/fulfillment"
	"github.com/Zhima-Mochi/minishop-fulfillment/internal/config"
)

func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestProcessCommand(t *testing.T) {
	out, err := runCommand(t, "process", "1", "--log-level", "error")
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if strings.TrimSpace(out) != `{"id":1}` {
		t.Fatalf("output = %q", out)
	}
}

func TestProcessCommandUnknownOrder(t *testing.T) {
	_, err := runCommand(t, "process", "999", "--log-level", "error")
	if !errors.Is(err, fulfillment.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProcessCommandRejectsBadID(t *testing.T) {
	if _, err := runCommand(t, "process", "abc"); err == nil {
		t.Fatal("expected error for non-integer id")
	}
}

func TestProcessCommandRejectsBadConfig(t *testing.T) {
	_, err := runCommand(t, "process", "1", "--store", "postgres")
	if !errors.Is(err, config.ErrInvalid) {
		t.Fatalf("expected config.ErrInvalid, got %v", err)
	}
}

func testConfig() config.Config {
	return config.Config{
		ServiceName:     "fulfillment-test",
		Env:             "test",
		Store:           config.StoreMemory,
		LogLevel:        "error",
		ShutdownTimeout: 5 * time.Second,
		BusBuffer:       16,
		BusConcurrency:  2,
	}
}

func TestRuntimeServesAPIAndMetrics(t *testing.T) {
	ctx := context.Background()
	rt, err := Build(ctx, testConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rt.Start(ctx)
	t.Cleanup(func() { _ = rt.Close(ctx) })

	srv := httptest.NewServer(rt.HTTPHandler())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/orders/1/processOrder", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Post(srv.URL+"/orders/77/processOrder", "application/json", nil)
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}

	resp, err = http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	defer resp.Body.Close()
	var body bytes.Buffer
	_, _ = body.ReadFrom(resp.Body)
	for _, want := range []string{"usecase_requests_total", "fulfillment_item_decisions_total", "http_requests_total"} {
		if !strings.Contains(body.String(), want) {
			t.Fatalf("/metrics missing %s", want)
		}
	}
}

func TestRuntimeAppliesDefaultScenario(t *testing.T) {
	ctx := context.Background()
	rt, err := Build(ctx, testConfig())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	rt.Start(ctx)
	defer rt.Close(ctx)

	res, err := rt.ProcessOrder.ProcessOrder(ctx, 2)
	if err != nil {
		t.Fatalf("empty order: %v", err)
	}
	if res.OrderID != 2 {
		t.Fatalf("order id = %d", res.OrderID)
	}
}
