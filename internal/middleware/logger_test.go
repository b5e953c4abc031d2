package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerRecordsRequest(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	logger := zap.New(core)

	h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodDelete, "/api/bills/1", nil)
	rec := httptest.NewRecorder()

	h.ServeHTTP(rec, req)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("log entries = %d, want 1", len(entries))
	}

	fields := entries[0].ContextMap()
	if fields["method"] != http.MethodDelete {
		t.Fatalf("method = %v, want DELETE", fields["method"])
	}
	if fields["path"] != "/api/bills/1" {
		t.Fatalf("path = %v, want /api/bills/1", fields["path"])
	}
	if fields["status"] != int64(http.StatusNoContent) {
		t.Fatalf("status = %v, want 204", fields["status"])
	}
}
