// Message HTTP handlers.
//
// POST /messages runs the triage pipeline. When the request carries a valid
// Idempotency-Key, the exact response bytes are recorded so that a retry is
// answered verbatim by middleware.Idempotency without touching the pipeline.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/iris-triage/internal/domain"
	"github.com/tbourn/iris-triage/internal/http/middleware"
	"github.com/tbourn/iris-triage/internal/services"
)

// PostMessageRequest is the JSON payload for one inbound message.
type PostMessageRequest struct {
	Text        string `json:"text" example:"สวัสดีครับ สินค้านี้ราคาเท่าไร"`
	SessionID   string `json:"session_id,omitempty"`
	Platform    string `json:"platform,omitempty" example:"line"`
	DisplayName string `json:"display_name,omitempty" example:"Somchai"`
}

// ListMessagesResponse contains a page of messages and pagination metadata.
type ListMessagesResponse struct {
	Messages   []domain.ConversationMessage `json:"messages"`
	Pagination Pagination                   `json:"pagination"`
}

// nlCollapseRE collapses runs of 3+ newlines to two.
var nlCollapseRE = regexp.MustCompile(`\n{3,}`)

// sanitizeText normalizes line endings and blank-line runs. Unicode
// normalization happens in the pipeline.
func sanitizeText(raw string) string {
	s := strings.ReplaceAll(raw, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return nlCollapseRE.ReplaceAllString(s, "\n\n")
}

// PostMessage godoc
// @ID          postMessage
// @Summary     Triage a customer message
// @Description Detects language, intent, sentiment and entities, updates the conversation and returns a reply.
// @Description Supports idempotency via the Idempotency-Key header (same key, same response).
// @Tags        Messages
// @Accept      json
// @Produce     json
// @Param       X-User-ID        header  string  true   "Customer id"
// @Param       Idempotency-Key  header  string  false  "Idempotency key for safe retries"
// @Param       body             body    handlers.PostMessageRequest  true  "Message"
// @Success     200  {object}  services.Result
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /messages [post]
func (h *Handlers) PostMessage(c *gin.Context) {
	var req PostMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}

	uid := userID(c)
	res, err := h.Pipeline.Process(c.Request.Context(), services.Request{
		Text:        sanitizeText(req.Text),
		UserID:      uid,
		SessionID:   strings.TrimSpace(req.SessionID),
		Platform:    strings.ToLower(strings.TrimSpace(req.Platform)),
		DisplayName: strings.TrimSpace(req.DisplayName),
	})
	if err != nil {
		h.failInput(c, err)
		return
	}

	body, err := json.Marshal(res)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "encoding result")
		return
	}

	if key, ok := middleware.GetIdempotencyKey(c); ok && h.Idempotency != nil {
		rec := IdempotencyRecord{
			UserID:    uid,
			SessionID: res.SessionID,
			Key:       key,
			MessageID: res.MessageID,
			Status:    http.StatusOK,
			Body:      body,
			TTL:       h.IdempotencyTTL,
		}
		if err := h.Idempotency.Record(c.Request.Context(), rec); err != nil {
			middleware.LoggerFrom(c).Warn().Err(err).Str("idempotency_key", key).Msg("recording idempotent response failed")
		}
	}

	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (h *Handlers) failInput(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrMissingUser):
		fail(c, http.StatusBadRequest, ErrCodeMissingUser, "X-User-ID header is required")
	case errors.Is(err, services.ErrEmptyInput):
		fail(c, http.StatusBadRequest, ErrCodeEmptyInput, "text is required")
	case errors.Is(err, services.ErrInputTooLong):
		fail(c, http.StatusBadRequest, ErrCodeInputTooLong, fmt.Sprintf("message text too long: max %d characters", h.MaxInputRunes))
	case errors.Is(err, services.ErrUnknownPlatform):
		fail(c, http.StatusBadRequest, ErrCodeUnknownPlatform, "platform must be one of "+strings.Join(domain.Platforms, ", "))
	case errors.Is(err, services.ErrInvalidInput):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}

// ListMessages godoc
// @ID          listMessages
// @Summary     List a session's messages
// @Description Returns the session's analyzed messages, oldest first. Supports weak ETag via If-None-Match.
// @Tags        Sessions
// @Produce     json
// @Param       X-User-ID  header  string  true   "Customer id"
// @Param       id         path    string  true   "Session id"
// @Param       page       query   int     false  "Page number"     minimum(1) default(1)
// @Param       page_size  query   int     false  "Items per page"  minimum(1) maximum(100) default(20)
// @Success     200  {object}  handlers.ListMessagesResponse
// @Success     304  {string}  string  "Not Modified"
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /sessions/{id}/messages [get]
func (h *Handlers) ListMessages(c *gin.Context) {
	ctx := c.Request.Context()
	uid := userID(c)
	if uid == "" {
		fail(c, http.StatusBadRequest, ErrCodeMissingUser, "X-User-ID header is required")
		return
	}
	sessionID := c.Param("id")

	// ETag pre-check (best effort).
	if h.Stats != nil {
		count, latest, err := h.Stats(ctx, uid, sessionID)
		if err == nil && count > 0 {
			var ts int64
			if latest != nil {
				ts = latest.UnixNano()
			}
			etag := fmt.Sprintf(`W/"messages:%s:%d:%d"`, sessionID, count, ts)
			middleware.Revalidate(c)
			c.Header("ETag", etag)
			if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
				c.Status(http.StatusNotModified)
				return
			}
		}
	}

	page, pageSize := clampPagination(c)
	items, total, err := h.Sessions.ListPage(ctx, uid, sessionID, page, pageSize)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrSessionNotFound):
			fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
		default:
			fail(c, http.StatusInternalServerError, ErrCodeListFailed, err.Error())
		}
		return
	}

	ok(c, http.StatusOK, ListMessagesResponse{
		Messages:   items,
		Pagination: newPagination(page, pageSize, total),
	})
}
