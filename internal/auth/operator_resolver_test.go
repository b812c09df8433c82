package auth

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func writeOperatorsFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "operators.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write test YAML file: %v", err)
	}
	return path
}

func TestOperatorResolver_GetOperator(t *testing.T) {
	yamlPath := writeOperatorsFile(t, `"10.0.1.5": m.mustermann
"10.0.1.8": a.beispiel
`)

	resolver := &OperatorResolver{ipToName: make(map[string]string)}
	if err := resolver.loadConfig(yamlPath); err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	tests := []struct {
		name          string
		remoteAddr    string
		xForwardedFor string
		xRealIP       string
		expected      string
		expectedFound bool
	}{
		{
			name:          "remote addr",
			remoteAddr:    "10.0.1.5:12345",
			expected:      "m.mustermann",
			expectedFound: true,
		},
		{
			name:          "x-forwarded-for",
			remoteAddr:    "192.168.1.1:12345",
			xForwardedFor: "10.0.1.8",
			expected:      "a.beispiel",
			expectedFound: true,
		},
		{
			name:          "x-forwarded-for list takes first",
			remoteAddr:    "192.168.1.1:12345",
			xForwardedFor: "10.0.1.5,172.16.0.1",
			expected:      "m.mustermann",
			expectedFound: true,
		},
		{
			name:          "x-real-ip",
			remoteAddr:    "192.168.1.1:12345",
			xRealIP:       "10.0.1.5",
			expected:      "m.mustermann",
			expectedFound: true,
		},
		{
			name:          "unknown ip",
			remoteAddr:    "192.168.1.1:12345",
			expectedFound: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/leads/1/merge", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xForwardedFor != "" {
				req.Header.Set("X-Forwarded-For", tt.xForwardedFor)
			}
			if tt.xRealIP != "" {
				req.Header.Set("X-Real-IP", tt.xRealIP)
			}

			got, found := resolver.GetOperator(req)
			if found != tt.expectedFound {
				t.Fatalf("found = %v, want %v", found, tt.expectedFound)
			}
			if found && got != tt.expected {
				t.Errorf("operator = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestOperatorResolver_MissingFile(t *testing.T) {
	resolver := NewOperatorResolver(filepath.Join(t.TempDir(), "missing.yaml"))
	if resolver.IsLoaded() {
		t.Error("resolver must report not loaded for a missing file")
	}
}

func TestOperatorResolver_Reload(t *testing.T) {
	yamlPath := writeOperatorsFile(t, `"10.0.1.5": m.mustermann`)
	resolver := NewOperatorResolver(yamlPath)
	if !resolver.IsLoaded() {
		t.Fatal("expected resolver to load")
	}

	if err := os.WriteFile(yamlPath, []byte(`"10.0.9.9": neu.person`), 0o644); err != nil {
		t.Fatalf("rewrite failed: %v", err)
	}
	if err := resolver.Reload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "10.0.9.9:1000"
	if _, found := resolver.GetOperator(req); !found {
		t.Error("expected new mapping after reload")
	}
	req.RemoteAddr = "10.0.1.5:1000"
	if _, found := resolver.GetOperator(req); found {
		t.Error("old mapping must be gone after reload")
	}
}

func TestOperatorAuthMiddleware(t *testing.T) {
	yamlPath := writeOperatorsFile(t, `"10.0.1.5": m.mustermann`)
	resolver := NewOperatorResolver(yamlPath)
	mw := NewOperatorAuthMiddleware(resolver)

	var seenOperator string
	handler := mw.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seenOperator, _ = GetOperatorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	t.Run("authorized", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/leads/1/merge", nil)
		req.RemoteAddr = "10.0.1.5:40000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if seenOperator != "m.mustermann" {
			t.Errorf("operator in context = %q, want m.mustermann", seenOperator)
		}
	})

	t.Run("unknown ip rejected", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/leads/1/merge", nil)
		req.RemoteAddr = "192.168.0.1:40000"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", rec.Code)
		}
	})
}
