package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func serveWith(t *testing.T, opt SecurityOptions, prep func(*http.Request)) http.Header {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(SecurityHeaders(opt))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	if prep != nil {
		prep(req)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w.Header()
}

func TestSecurityHeaders_Baseline(t *testing.T) {
	h := serveWith(t, SecurityOptions{EnablePolicy: true}, nil)

	if h.Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("nosniff missing")
	}
	if h.Get("X-Frame-Options") != "DENY" {
		t.Fatalf("frame options missing")
	}
	if h.Get("Referrer-Policy") != "no-referrer" {
		t.Fatalf("referrer policy missing")
	}
	if h.Get("Permissions-Policy") == "" {
		t.Fatalf("permissions policy missing with EnablePolicy")
	}
	// HSTS must never appear on plain HTTP, options notwithstanding.
	if h.Get("Strict-Transport-Security") != "" {
		t.Fatalf("HSTS set on plain HTTP")
	}
}

func TestSecurityHeaders_HSTSBehindProxy(t *testing.T) {
	h := serveWith(t,
		SecurityOptions{EnableHSTS: true, HSTSMaxAge: 24 * time.Hour},
		func(req *http.Request) { req.Header.Set("X-Forwarded-Proto", "https") },
	)
	got := h.Get("Strict-Transport-Security")
	if got == "" {
		t.Fatalf("HSTS missing for forwarded HTTPS")
	}
	if got != "max-age=86400; includeSubDomains; preload" {
		t.Fatalf("HSTS = %q", got)
	}
}

func TestSecurityHeaders_NoStore(t *testing.T) {
	h := serveWith(t, SecurityOptions{NoStore: true}, nil)
	if h.Get("Cache-Control") != "no-store" {
		t.Fatalf("Cache-Control = %q", h.Get("Cache-Control"))
	}
}
