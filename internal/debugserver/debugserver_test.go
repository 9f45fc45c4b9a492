package debugserver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("net.Listen() error = %v", err)
	}
	addr := l.Addr().String()
	l.Close()
	return addr
}

func waitUntilUp(t *testing.T, url string) *http.Response {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			return resp
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("server at %s never came up", url)
	return nil
}

func TestHealthEndpoint(t *testing.T) {
	addr := freeAddr(t)
	s := New(addr, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Start(ctx) }()

	resp := waitUntilUp(t, fmt.Sprintf("http://%s/health", addr))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /health status = %d, want 200", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start() returned error = %v, want nil after graceful shutdown", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Start() did not return after context cancellation")
	}
}

func TestReadinessReflectsCallback(t *testing.T) {
	addr := freeAddr(t)
	ready := false
	s := New(addr, nil, func() bool { return ready })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)

	resp := waitUntilUp(t, fmt.Sprintf("http://%s/health/ready", addr))
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("not-ready status = %d, want 503", resp.StatusCode)
	}

	ready = true
	resp2, err := http.Get(fmt.Sprintf("http://%s/health/ready", addr))
	if err != nil {
		t.Fatalf("GET /health/ready error = %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusOK {
		t.Errorf("ready status = %d, want 200", resp2.StatusCode)
	}
}

func TestMetricsEndpointServedWhenRegistrySet(t *testing.T) {
	addr := freeAddr(t)
	reg := prometheus.NewRegistry()
	s := New(addr, reg, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)

	resp := waitUntilUp(t, fmt.Sprintf("http://%s/metrics", addr))
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("GET /metrics status = %d, want 200", resp.StatusCode)
	}
}

func TestMetricsEndpointAbsentWithoutRegistry(t *testing.T) {
	addr := freeAddr(t)
	s := New(addr, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go s.Start(ctx)

	resp := waitUntilUp(t, fmt.Sprintf("http://%s/health", addr))
	resp.Body.Close()

	resp2, err := http.Get(fmt.Sprintf("http://%s/metrics", addr))
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer resp2.Body.Close()
	if resp2.StatusCode != http.StatusNotFound {
		t.Errorf("GET /metrics status = %d, want 404 when no registry configured", resp2.StatusCode)
	}
}
