package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestStaticHandler(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte("home"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "app.js"), []byte("script"), 0o644); err != nil {
		t.Fatal(err)
	}

	h, err := staticHandler(dir)
	if err != nil {
		t.Fatalf("staticHandler failed: %v", err)
	}

	tests := []struct {
		path string
		code int
		body string
	}{
		{"/", http.StatusOK, "home"},
		{"/app.js", http.StatusOK, "script"},
		{"/groups/42", http.StatusOK, "home"},
		{"/settleup.v1.GroupService/Missing", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))
			if rec.Code != tt.code {
				t.Fatalf("expected %d, got %d", tt.code, rec.Code)
			}
			if tt.body != "" && !strings.Contains(rec.Body.String(), tt.body) {
				t.Errorf("expected body %q, got %q", tt.body, rec.Body.String())
			}
		})
	}
}

func TestCorsMiddleware(t *testing.T) {
	called := false
	h := corsMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/settleup.v1.AuthService/Login", nil))
	if rec.Code != http.StatusOK || called {
		t.Fatalf("expected a short-circuited preflight, got %d (called=%v)", rec.Code, called)
	}
	if !strings.Contains(rec.Header().Get("Access-Control-Allow-Headers"), "Authorization") {
		t.Errorf("expected Authorization to be allowed, got %q", rec.Header().Get("Access-Control-Allow-Headers"))
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/settleup.v1.AuthService/Login", nil))
	if !called {
		t.Error("expected POST to reach the handler")
	}
}
