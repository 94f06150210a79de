package middleware

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func newPanicEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	l := slog.New(slog.NewTextHandler(io.Discard, nil))

	r := gin.New()
	r.Use(
		RequestID(),
		Logger(l),
		Metrics(),
		ErrorHandler(l),
		Recovery(l),
	)
	r.GET("/boom", func(c *gin.Context) {
		panic("kaboom")
	})
	r.GET("/ok", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestPanicReturns500JSON(t *testing.T) {
	r := newPanicEngine()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body %q is not JSON: %v", w.Body.String(), err)
	}
	if body["error"] == "" || body["error"] == nil {
		t.Fatalf("body = %v, want an error message", body)
	}
	if body["request_id"] == "" || body["request_id"] == nil {
		t.Fatalf("body = %v, want a request id", body)
	}
}

func TestPanicDoesNotPoisonLaterRequests(t *testing.T) {
	r := newPanicEngine()

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("panic status = %d, want 500", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("followup status = %d, want 200", w.Code)
	}
}
