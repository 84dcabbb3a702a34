// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements AccessLog, the structured access logger. Customer
// messages routinely carry phone numbers, e-mail addresses and Thai national
// ID numbers, so query strings and header values are scrubbed before they
// are logged. Bodies are never logged.
package middleware

import (
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const maxQueryLogLength = 2048

var (
	emailRE = regexp.MustCompile(`(?i)[a-z0-9._%+\-]+@[a-z0-9.\-]+\.[a-z]{2,}`)
	// 13-digit Thai citizen id, optionally grouped 1-4-5-2-1.
	nationalIDRE = regexp.MustCompile(`\b\d[ -]?\d{4}[ -]?\d{5}[ -]?\d{2}[ -]?\d\b`)
	// Thai mobile and landline numbers, local or +66.
	phoneRE = regexp.MustCompile(`(?:\+66[ -]?|\b0)\d{1,2}[ -]?\d{3}[ -]?\d{4}\b`)
)

// Redact masks e-mail addresses, Thai national ids and phone numbers in s.
// National ids are replaced first because the phone pattern would match
// their tail.
func Redact(s string) string {
	if s == "" {
		return s
	}
	s = emailRE.ReplaceAllString(s, "[REDACTED:email]")
	s = nationalIDRE.ReplaceAllString(s, "[REDACTED:id]")
	return phoneRE.ReplaceAllString(s, "[REDACTED:phone]")
}

// RedactOptions lists extra headers whose values are masked entirely, in
// addition to Authorization, Cookie and Set-Cookie.
type RedactOptions struct {
	MaskHeaders []string
}

// AccessLog attaches a request-scoped logger (see LoggerFrom) and emits one
// line per request at info, warn (4xx) or error (5xx or gin errors) level.
func AccessLog(opts RedactOptions) gin.HandlerFunc {
	masked := map[string]struct{}{"authorization": {}, "cookie": {}, "set-cookie": {}}
	for _, h := range opts.MaskHeaders {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			masked[h] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()
		if path == "" {
			path = c.Request.URL.Path
		}
		rid, _ := c.Get(requestIDKey)

		headers := make(map[string]string, len(c.Request.Header))
		for k, vv := range c.Request.Header {
			if _, ok := masked[strings.ToLower(k)]; ok {
				headers[k] = "[REDACTED]"
				continue
			}
			headers[k] = Redact(strings.Join(vv, ", "))
		}

		l := log.With().
			Str("request_id", asString(rid)).
			Str("method", c.Request.Method).
			Str("path", path).
			Logger()
		c.Set(loggerKey, &l)

		c.Next()

		status := c.Writer.Status()
		ev := l.Info()
		switch {
		case len(c.Errors) > 0:
			ev = l.Error().Str("errors", c.Errors.String())
		case status >= 500:
			ev = l.Error()
		case status >= 400:
			ev = l.Warn()
		}
		ev.
			Str("user_id", UserID(c)).
			Str("remote_ip", c.ClientIP()).
			Str("query", truncate(Redact(c.Request.URL.RawQuery), maxQueryLogLength)).
			Interface("headers", headers).
			Int("status", status).
			Int("bytes_out", c.Writer.Size()).
			Dur("latency", time.Since(start)).
			Msg("http_request")
	}
}

func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	return s[:max] + "…"
}
