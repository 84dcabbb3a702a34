package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func newIdemRouter(lookup IdempotencyLookup, opts IdempotencyOptions, calls *int) *gin.Engine {
	r := gin.New()
	r.Use(RequestID(), Identity(), Idempotency(opts, lookup))
	r.POST("/messages", func(c *gin.Context) {
		*calls++
		k, _ := GetIdempotencyKey(c)
		c.JSON(http.StatusOK, gin.H{"key": k})
	})
	r.GET("/messages", func(c *gin.Context) {
		*calls++
		c.Status(http.StatusOK)
	})
	return r
}

func post(r *gin.Engine, user, key string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/messages", strings.NewReader(`{}`))
	if user != "" {
		req.Header.Set(HeaderUserID, user)
	}
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestIdempotency_NoHeaderSkipsLookup(t *testing.T) {
	calls := 0
	r := newIdemRouter(func(context.Context, string, string, time.Time) (*StoredResponse, error) {
		t.Fatalf("lookup must not be called")
		return nil, nil
	}, IdempotencyOptions{}, &calls)

	if w := post(r, "u1", ""); w.Code != http.StatusOK || calls != 1 {
		t.Fatalf("status=%d calls=%d", w.Code, calls)
	}
}

func TestIdempotency_InvalidKey(t *testing.T) {
	calls := 0
	r := newIdemRouter(nil, IdempotencyOptions{MaxLen: 8}, &calls)

	for _, key := range []string{"has space", "way-too-long-key", "ключ"} {
		w := post(r, "u1", key)
		if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "invalid Idempotency-Key") {
			t.Fatalf("key %q: status=%d body=%s", key, w.Code, w.Body.String())
		}
	}
	if calls != 0 {
		t.Fatalf("handler ran for invalid keys")
	}

	r = newIdemRouter(nil, IdempotencyOptions{Pattern: regexp.MustCompile(`^[0-9]+$`)}, &calls)
	if w := post(r, "u1", "abc"); w.Code != http.StatusBadRequest {
		t.Fatalf("custom pattern not applied: %d", w.Code)
	}
}

func TestIdempotency_ReplayServesStoredResponse(t *testing.T) {
	var gotUser, gotKey string
	lookup := func(_ context.Context, userID, key string, now time.Time) (*StoredResponse, error) {
		gotUser, gotKey = userID, key
		if now.Location() != time.UTC {
			t.Fatalf("lookup time should be UTC")
		}
		if key == "k-1" {
			return &StoredResponse{Status: http.StatusOK, Body: []byte(`{"intent":"greeting"}`)}, nil
		}
		return nil, nil
	}
	calls := 0
	r := newIdemRouter(lookup, IdempotencyOptions{}, &calls)

	w := post(r, "u1", "k-1")
	if w.Code != http.StatusOK || w.Body.String() != `{"intent":"greeting"}` {
		t.Fatalf("replay: %d %s", w.Code, w.Body.String())
	}
	if w.Header().Get(HeaderIdempotencyReplayed) != "true" || calls != 0 {
		t.Fatalf("replay should skip handler: header=%q calls=%d", w.Header().Get(HeaderIdempotencyReplayed), calls)
	}
	if gotUser != "u1" || gotKey != "k-1" {
		t.Fatalf("lookup args: %q %q", gotUser, gotKey)
	}

	w = post(r, "u1", "k-2")
	if w.Code != http.StatusOK || calls != 1 || !strings.Contains(w.Body.String(), `"key":"k-2"`) {
		t.Fatalf("miss should reach handler with key stashed: %s", w.Body.String())
	}
	if w.Header().Get(HeaderIdempotencyReplayed) != "" {
		t.Fatalf("miss must not be marked replayed")
	}
}

func TestIdempotency_LookupErrorProceeds(t *testing.T) {
	calls := 0
	r := newIdemRouter(func(context.Context, string, string, time.Time) (*StoredResponse, error) {
		return nil, errors.New("db locked")
	}, IdempotencyOptions{}, &calls)

	if w := post(r, "u1", "k-1"); w.Code != http.StatusOK || calls != 1 {
		t.Fatalf("status=%d calls=%d", w.Code, calls)
	}
}

func TestIdempotency_SkipsAnonymousAndNonPost(t *testing.T) {
	calls := 0
	r := newIdemRouter(func(context.Context, string, string, time.Time) (*StoredResponse, error) {
		t.Fatalf("lookup must not be called")
		return nil, nil
	}, IdempotencyOptions{}, &calls)

	if w := post(r, "", "k-1"); w.Code != http.StatusOK {
		t.Fatalf("anonymous post: %d", w.Code)
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/messages", nil)
	req.Header.Set(HeaderIdempotencyKey, "not valid!")
	req.Header.Set(HeaderUserID, "u1")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK || calls != 2 {
		t.Fatalf("GET should ignore the header: %d calls=%d", w.Code, calls)
	}
}

func TestGetIdempotencyKey_WrongType(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	if _, ok := GetIdempotencyKey(c); ok {
		t.Fatalf("expected absent key")
	}
	c.Set(ctxKeyIdemKey, 123)
	if _, ok := GetIdempotencyKey(c); ok {
		t.Fatalf("non-string key should be absent")
	}
}
