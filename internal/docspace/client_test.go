package docspace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestExtractProgress(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want float64
	}{
		{"rollup", `{"rollup":{"number":42}}`, 42},
		{"formula", `{"formula":{"number":75}}`, 75},
		{"number property", `{"number":60}`, 60},
		{"plain number", `33`, 33},
		{"fraction scales", `0.5`, 50},
		{"one means full", `1`, 100},
		{"clamped high", `150`, 100},
		{"clamped low", `{"number":-2}`, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractProgress(json.RawMessage(tc.raw))
			if err != nil {
				t.Fatalf("extract %s: %v", tc.raw, err)
			}
			if got != tc.want {
				t.Fatalf("extract %s = %v, want %v", tc.raw, got, tc.want)
			}
		})
	}

	if _, err := ExtractProgress(json.RawMessage(`{"rich_text":[]}`)); err == nil {
		t.Fatalf("expected error for non-numeric property")
	}
}

func TestProgressReadsPageProperty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		switch r.URL.Path {
		case "/pages/doc-1":
			w.Write([]byte(`{"id":"doc-1","properties":{"progress":{"rollup":{"number":0.25}}}}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"error":"no such page"}`))
		}
	}))
	defer srv.Close()

	c := New(srv.URL, "secret")
	got, err := c.Progress(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	if got != 25 {
		t.Fatalf("progress = %v, want 25", got)
	}

	if _, err := c.Progress(context.Background(), "missing"); err == nil {
		t.Fatalf("expected error for missing page")
	}
}

func TestNewInitializesHTTPClient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"doc-1","properties":{"progress":{"number":40}}}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "secret")
	if c.HTTPClient == nil {
		t.Fatalf("New left HTTPClient nil")
	}

	// concurrent lookups share the client without mutating it
	done := make(chan error, 4)
	for i := 0; i < 4; i++ {
		go func() {
			_, err := c.Progress(context.Background(), "doc-1")
			done <- err
		}()
	}
	for i := 0; i < 4; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent progress: %v", err)
		}
	}
}

func TestGetManyProgressDefaultsFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/pages/ok" {
			w.Write([]byte(`{"id":"ok","properties":{"progress":{"number":80}}}`))
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, "secret")
	got := c.GetManyProgress(context.Background(), []string{"ok", "broken"})
	if got["ok"] != 80 {
		t.Fatalf("ok = %v", got["ok"])
	}
	if got["broken"] != 0 {
		t.Fatalf("broken = %v, want 0", got["broken"])
	}
}
