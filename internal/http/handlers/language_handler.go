package handlers

import (
	"net/http"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
)

// DetectLanguageRequest is the payload for POST /language/detect.
type DetectLanguageRequest struct {
	Text string `json:"text" example:"ขอบคุณมากครับ"`
}

// DetectLanguage godoc
// @ID          detectLanguage
// @Summary     Detect the language of a text
// @Description Returns th, en or unknown with confidence, alternatives, method and cultural context.
// @Tags        Language
// @Accept      json
// @Produce     json
// @Param       body  body  handlers.DetectLanguageRequest  true  "Text"
// @Success     200  {object}  language.Result
// @Failure     400  {object}  handlers.ErrorResponse
// @Router      /language/detect [post]
func (h *Handlers) DetectLanguage(c *gin.Context) {
	var req DetectLanguageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid JSON body")
		return
	}
	if utf8.RuneCountInString(req.Text) > h.MaxInputRunes {
		fail(c, http.StatusBadRequest, ErrCodeInputTooLong, "text too long")
		return
	}
	ok(c, http.StatusOK, h.Detector.Detect(req.Text))
}
