package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"wayfarer/pkg/logger"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Level: logger.ERROR, Output: io.Discard})
}

func newTestGateway(t *testing.T, handler http.Handler) (*Gateway, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	gw := New(Config{
		BaseURL:      srv.URL,
		TokenPath:    "/token",
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		Timeout:      5 * time.Second,
	}, testLogger())
	return gw, srv
}

func tokenHandler(t *testing.T, issued *atomic.Int32) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			t.Errorf("token request is not form-encoded: %v", err)
		}
		if got := r.PostFormValue("grant_type"); got != "client_credentials" {
			t.Errorf("grant_type = %q, want client_credentials", got)
		}
		if got := r.PostFormValue("client_id"); got != "test-client" {
			t.Errorf("client_id = %q, want test-client", got)
		}
		n := issued.Add(1)
		json.NewEncoder(w).Encode(map[string]string{
			"access_token": fmt.Sprintf("token-%d", n),
		})
	}
}

func TestGateway_AcquiresTokenLazily(t *testing.T) {
	var issued atomic.Int32
	var calls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/token", tokenHandler(t, &issued))
	mux.HandleFunc("/v1/things", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if got := r.Header.Get("Authorization"); got != "Bearer token-1" {
			t.Errorf("Authorization = %q, want Bearer token-1", got)
		}
		json.NewEncoder(w).Encode(map[string]string{"ok": "true"})
	})

	gw, _ := newTestGateway(t, mux)

	if issued.Load() != 0 {
		t.Fatalf("token acquired before first call")
	}

	for i := 0; i < 3; i++ {
		if _, err := gw.get(context.Background(), "things", "/v1/things"); err != nil {
			t.Fatalf("get: %v", err)
		}
	}

	if got := issued.Load(); got != 1 {
		t.Errorf("tokens issued = %d, want 1 (token must be reused across calls)", got)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("api calls = %d, want 3", got)
	}
}

func TestGateway_RefreshesAndRetriesOnceOn401(t *testing.T) {
	var issued atomic.Int32
	var calls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/token", tokenHandler(t, &issued))
	mux.HandleFunc("/v1/things", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		// The first token is stale: reject it, accept any later one.
		if r.Header.Get("Authorization") == "Bearer token-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		json.NewEncoder(w).Encode(map[string]string{"ok": "true"})
	})

	gw, _ := newTestGateway(t, mux)

	resp, err := gw.get(context.Background(), "things", "/v1/things")
	if err != nil {
		t.Fatalf("get after refresh: %v", err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
	if got := issued.Load(); got != 2 {
		t.Errorf("tokens issued = %d, want 2 (initial acquisition plus one refresh)", got)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("api calls = %d, want 2 (one failed attempt, one retry)", got)
	}
}

func TestGateway_SecondConsecutive401IsFatal(t *testing.T) {
	var issued atomic.Int32
	var calls atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/token", tokenHandler(t, &issued))
	mux.HandleFunc("/v1/things", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
	})

	gw, _ := newTestGateway(t, mux)

	_, err := gw.get(context.Background(), "things", "/v1/things")
	if err == nil {
		t.Fatal("expected error after two consecutive 401s")
	}
	if !IsAuthExpired(err) {
		t.Errorf("IsAuthExpired(err) = false, want true, err = %v", err)
	}
	if got := calls.Load(); got != 2 {
		t.Errorf("api calls = %d, want exactly 2 (no further retries)", got)
	}
	if got := issued.Load(); got != 2 {
		t.Errorf("tokens issued = %d, want 2", got)
	}
}

func TestGateway_NonSuccessCarriesStatusAndBody(t *testing.T) {
	var issued atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/token", tokenHandler(t, &issued))
	mux.HandleFunc("/v1/things", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"errors":[{"detail":"offer no longer available"}]}`))
	})

	gw, _ := newTestGateway(t, mux)

	_, err := gw.get(context.Background(), "things", "/v1/things")
	pe, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *provider.Error, got %T: %v", err, err)
	}
	if pe.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want 400", pe.StatusCode)
	}
	if string(pe.Body) != `{"errors":[{"detail":"offer no longer available"}]}` {
		t.Errorf("Body = %s", pe.Body)
	}
	if IsAuthExpired(err) {
		t.Error("a 400 must not be classified as auth expiry")
	}
}

func TestGateway_TokenEndpointFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_client"}`))
	})

	gw, _ := newTestGateway(t, mux)

	_, err := gw.get(context.Background(), "things", "/v1/things")
	pe, ok := AsError(err)
	if !ok {
		t.Fatalf("expected *provider.Error, got %T: %v", err, err)
	}
	if pe.Op != "token" {
		t.Errorf("Op = %q, want token", pe.Op)
	}
	if pe.StatusCode != http.StatusUnauthorized {
		t.Errorf("StatusCode = %d, want 401", pe.StatusCode)
	}
}

func TestGateway_ConcurrentCallsShareOneToken(t *testing.T) {
	var issued atomic.Int32

	mux := http.NewServeMux()
	mux.HandleFunc("/token", tokenHandler(t, &issued))
	mux.HandleFunc("/v1/things", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"ok": "true"})
	})

	gw, _ := newTestGateway(t, mux)

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			_, err := gw.get(context.Background(), "things", "/v1/things")
			done <- err
		}()
	}
	for i := 0; i < 10; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent get: %v", err)
		}
	}

	if got := issued.Load(); got != 1 {
		t.Errorf("tokens issued = %d, want 1 (concurrent refreshes must collapse)", got)
	}
}
