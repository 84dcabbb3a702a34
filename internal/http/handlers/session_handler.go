package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/iris-triage/internal/services"
)

// GetProfile godoc
// @ID          getProfile
// @Summary     Get the caller's profile
// @Description Returns the learned profile, creating a default one on first contact.
// @Tags        Sessions
// @Produce     json
// @Param       X-User-ID  header  string  true  "Customer id"
// @Success     200  {object}  domain.UserProfile
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /profile [get]
func (h *Handlers) GetProfile(c *gin.Context) {
	p, err := h.Sessions.Profile(c.Request.Context(), userID(c))
	if err != nil {
		if errors.Is(err, services.ErrMissingUser) {
			fail(c, http.StatusBadRequest, ErrCodeMissingUser, "X-User-ID header is required")
			return
		}
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
		return
	}
	ok(c, http.StatusOK, p)
}

// GetContext godoc
// @ID          getContext
// @Summary     Get a session's conversation context
// @Tags        Sessions
// @Produce     json
// @Param       X-User-ID  header  string  true  "Customer id"
// @Param       id         path    string  true  "Session id"
// @Success     200  {object}  domain.ConversationContext
// @Failure     404  {object}  handlers.ErrorResponse
// @Router      /sessions/{id}/context [get]
func (h *Handlers) GetContext(c *gin.Context) {
	cc, err := h.Sessions.Context(c.Request.Context(), userID(c), c.Param("id"))
	switch {
	case err == nil:
		ok(c, http.StatusOK, cc)
	case errors.Is(err, services.ErrMissingUser):
		fail(c, http.StatusBadRequest, ErrCodeMissingUser, "X-User-ID header is required")
	case errors.Is(err, services.ErrSessionNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "session not found")
	default:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, err.Error())
	}
}
