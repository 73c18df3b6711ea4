package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newCtx(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/assignments", nil)
	return c, w
}

func TestIdempotencyValidator_NoHeaderIsNoop(t *testing.T) {
	c, _ := newCtx(t)

	IdempotencyValidator(IdempotencyOptions{}, nil)(c)

	if _, ok := GetIdempotencyKey(c); ok {
		t.Fatalf("key should be absent")
	}
	if IsReplay(c) {
		t.Fatalf("no header must never flag a replay")
	}
}

func TestIdempotencyValidator_InvalidKeyRejected(t *testing.T) {
	for _, bad := range []string{"has space", "emoji-☃", strings.Repeat("a", 250)} {
		c, w := newCtx(t)
		c.Request.Header.Set(HeaderIdempotencyKey, bad)

		IdempotencyValidator(IdempotencyOptions{MaxLen: 200}, nil)(c)

		if w.Code != http.StatusBadRequest {
			t.Fatalf("key %q: status = %d, want 400", bad, w.Code)
		}
		if !c.IsAborted() {
			t.Fatalf("key %q: request not aborted", bad)
		}
	}
}

func TestIdempotencyValidator_StoresKeyAndDetectsReplay(t *testing.T) {
	c, _ := newCtx(t)
	c.Request.Header.Set(HeaderIdempotencyKey, "retry-abc.123")
	c.Request.Header.Set("X-User-ID", "user-1")

	var lookedUp struct {
		user, key string
	}
	lookup := func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
		lookedUp.user, lookedUp.key = userID, key
		return true, nil
	}

	IdempotencyValidator(IdempotencyOptions{}, lookup)(c)

	key, ok := GetIdempotencyKey(c)
	if !ok || key != "retry-abc.123" {
		t.Fatalf("stored key = (%q, %v)", key, ok)
	}
	if lookedUp.user != "user-1" || lookedUp.key != "retry-abc.123" {
		t.Fatalf("lookup saw (%q, %q)", lookedUp.user, lookedUp.key)
	}
	if !IsReplay(c) {
		t.Fatalf("replay flag not set")
	}
	if !IsRateBypass(c) {
		t.Fatalf("replay must bypass rate limiting")
	}
}

func TestIdempotencyValidator_FreshKeyIsNotReplay(t *testing.T) {
	c, _ := newCtx(t)
	c.Request.Header.Set(HeaderIdempotencyKey, "fresh-key")

	lookup := func(ctx context.Context, userID, key string, now time.Time) (bool, error) {
		return false, nil
	}
	IdempotencyValidator(IdempotencyOptions{}, lookup)(c)

	if IsReplay(c) || IsRateBypass(c) {
		t.Fatalf("fresh key must not flag replay or bypass")
	}
}

func Test_userIDFromCtx_Fallbacks(t *testing.T) {
	c, _ := newCtx(t)
	if got := userIDFromCtx(c); got != "demo-user" {
		t.Fatalf("default user = %q", got)
	}

	c.Request.Header.Set("X-User-ID", "header-user")
	if got := userIDFromCtx(c); got != "header-user" {
		t.Fatalf("header user = %q", got)
	}

	c.Set("userID", "ctx-user")
	if got := userIDFromCtx(c); got != "ctx-user" {
		t.Fatalf("ctx user = %q", got)
	}
}
