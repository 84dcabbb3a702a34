// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements idempotent POST handling. Clients may send an
// Idempotency-Key header; keys are scoped to the caller's user id. When a
// stored response exists for (user, key) it is written back verbatim with
// Idempotency-Replayed: true and the handler is skipped, so a retried
// message is never analyzed or counted twice. Otherwise the validated key is
// stashed for the handler, which records its response after success.
package middleware

import (
	"context"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/iris-triage/internal/metrics"
)

const (
	// HeaderIdempotencyKey is the request header carrying the client key.
	HeaderIdempotencyKey = "Idempotency-Key"
	// HeaderIdempotencyReplayed marks a response served from the store.
	HeaderIdempotencyReplayed = "Idempotency-Replayed"

	ctxKeyIdemKey = "idem.key"
)

var defaultKeyPattern = regexp.MustCompile(`^[A-Za-z0-9._~\-:]+$`)

// StoredResponse is a previously recorded response.
type StoredResponse struct {
	Status int
	Body   []byte
}

// IdempotencyLookup returns the stored response for (userID, key) that is
// still valid at now, or nil. Errors are logged and the request proceeds.
type IdempotencyLookup func(ctx context.Context, userID, key string, now time.Time) (*StoredResponse, error)

// IdempotencyOptions configures key validation.
type IdempotencyOptions struct {
	MaxLen  int            // default 200
	Pattern *regexp.Regexp // default ^[A-Za-z0-9._~\-:]+$
}

// GetIdempotencyKey returns the key validated by Idempotency.
func GetIdempotencyKey(c *gin.Context) (string, bool) {
	v, _ := c.Get(ctxKeyIdemKey)
	s := asString(v)
	return s, s != ""
}

// Idempotency validates the Idempotency-Key header on POST requests and
// serves stored responses. Requests without a user id are not looked up.
func Idempotency(opts IdempotencyOptions, lookup IdempotencyLookup) gin.HandlerFunc {
	maxLen := opts.MaxLen
	if maxLen <= 0 {
		maxLen = 200
	}
	pat := opts.Pattern
	if pat == nil {
		pat = defaultKeyPattern
	}

	return func(c *gin.Context) {
		key := c.GetHeader(HeaderIdempotencyKey)
		if key == "" || c.Request.Method != http.MethodPost {
			c.Next()
			return
		}
		if len(key) > maxLen || !pat.MatchString(key) {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
				"request_id": c.Writer.Header().Get(requestIDHeader),
				"code":       "bad_request",
				"message":    "invalid Idempotency-Key",
			})
			return
		}
		c.Set(ctxKeyIdemKey, key)

		uid := UserID(c)
		if lookup == nil || uid == "" {
			c.Next()
			return
		}
		prev, err := lookup(c.Request.Context(), uid, key, time.Now().UTC())
		if err != nil {
			LoggerFrom(c).Warn().Err(err).Msg("idempotency lookup failed")
		}
		if prev == nil {
			c.Next()
			return
		}
		metrics.IdempotentReplays.Inc()
		c.Header(HeaderIdempotencyReplayed, "true")
		c.Data(prev.Status, "application/json; charset=utf-8", prev.Body)
		c.Abort()
	}
}
