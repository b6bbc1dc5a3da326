package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/themobileprof/symptomchat-be/internal/api/middleware"
	"github.com/themobileprof/symptomchat-be/internal/chat"
)

// ChatHandler serves the HTTP chat endpoints
type ChatHandler struct {
	engine *chat.Engine
}

// NewChatHandler creates a new chat handler
func NewChatHandler(engine *chat.Engine) *ChatHandler {
	return &ChatHandler{engine: engine}
}

// MessageRequest is a user message, sent as JSON or form data
type MessageRequest struct {
	Message string `json:"message" form:"message"`
}

// GetHistory returns the session history, seeding greetings for a new session
// GET /api/chat
func (h *ChatHandler) GetHistory(c *gin.Context) {
	history, err := h.engine.History(c.Request.Context(), middleware.GetSessionID(c), middleware.GetLanguage(c))
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"history": history})
}

// PostMessage runs the symptom checker on one message
// POST /api/chat
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req MessageRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	ctx := c.Request.Context()
	sessionID := middleware.GetSessionID(c)
	lang := middleware.GetLanguage(c)

	entries, err := h.engine.ProcessMessage(ctx, chat.ProcessRequest{
		SessionID: sessionID,
		Message:   req.Message,
		Language:  lang,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	if entries == nil {
		entries = []chat.Entry{}
	}

	history, err := h.engine.History(ctx, sessionID, lang)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"history": history,
	})
}

// Reset clears the session history
// POST /api/chat/reset
func (h *ChatHandler) Reset(c *gin.Context) {
	if err := h.engine.Reset(c.Request.Context(), middleware.GetSessionID(c)); err != nil {
		log.Printf("Reset failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to reset conversation"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func (h *ChatHandler) fail(c *gin.Context, err error) {
	lang := middleware.GetLanguage(c)
	code := chat.ErrorCode(err)

	if errors.Is(err, chat.ErrNotReady) {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":        chat.ErrorText(err, lang),
			"code":         code,
			"disable_form": true,
			"history":      []chat.Entry{},
		})
		return
	}

	status := http.StatusInternalServerError
	if code == chat.CodeHistoryDown {
		status = http.StatusServiceUnavailable
	}

	log.Printf("Chat request failed: %v", err)
	c.JSON(status, gin.H{
		"error": chat.ErrorText(err, lang),
		"code":  code,
	})
}
