package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
)

type pingFunc func(context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestHealth(t *testing.T) {
	f := newFixture(t, nil)
	w := f.do(http.MethodGet, "/health", "", "", nil)
	var resp HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Code != http.StatusOK || resp.Status != "ok" || resp.Checks != nil {
		t.Fatalf("unexpected: %d %+v", w.Code, resp)
	}

	f = newFixture(t, func(d *Deps) {
		d.Checks = map[string]Pinger{
			"storage": pingFunc(func(context.Context) error { return nil }),
			"nats":    pingFunc(func(context.Context) error { return errors.New("not connected") }),
		}
	})
	w = f.do(http.MethodGet, "/health", "", "", nil)
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if w.Code != http.StatusServiceUnavailable || resp.Status != "degraded" {
		t.Fatalf("unexpected: %d %+v", w.Code, resp)
	}
	if resp.Checks["storage"] != "ok" || resp.Checks["nats"] != "not connected" {
		t.Fatalf("checks: %v", resp.Checks)
	}
}
