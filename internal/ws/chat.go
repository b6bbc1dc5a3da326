package ws

import (
	"log"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/themobileprof/symptomchat-be/internal/api/middleware"
	"github.com/themobileprof/symptomchat-be/internal/chat"
)

// DefaultMessagesPerMinute caps how fast one connection may send messages
const DefaultMessagesPerMinute = 30

// Outgoing message types
const (
	TypeHistory = "history"
	TypeEntry   = "entry"
	TypeError   = "error"
	TypeDone    = "done"
)

// ChatHandler handles WebSocket chat connections
type ChatHandler struct {
	engine            *chat.Engine
	upgrader          websocket.Upgrader
	messagesPerMinute int
}

// NewChatHandler creates a new chat handler. An empty origin list accepts
// any origin.
func NewChatHandler(engine *chat.Engine, allowedOrigins []string) *ChatHandler {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return &ChatHandler{
		engine: engine,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return allowAll || origin == "" || allowed[origin]
			},
		},
		messagesPerMinute: DefaultMessagesPerMinute,
	}
}

// SetMessageRate changes the per-connection message limit
func (h *ChatHandler) SetMessageRate(perMinute int) {
	if perMinute > 0 {
		h.messagesPerMinute = perMinute
	}
}

// IncomingMessage represents a message from the client
type IncomingMessage struct {
	Content string `json:"content"`
}

// OutgoingMessage represents a message to the client
type OutgoingMessage struct {
	Type    string      `json:"type"` // "history", "entry", "error", "done"
	Content string      `json:"content,omitempty"`
	Code    string      `json:"code,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// HandleChat handles WebSocket chat connections. The session and language
// are resolved by middleware before the upgrade.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	sessionID := middleware.GetSessionID(c)
	lang := middleware.GetLanguage(c)

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	log.Printf("WebSocket connected: session=%s, language=%s", sessionID, lang)

	responder := &wsResponder{conn: conn}
	ctx := c.Request.Context()

	history, err := h.engine.History(ctx, sessionID, lang)
	if err != nil {
		log.Printf("Failed to load history for session=%s: %v", sessionID, err)
		responder.SendError(chat.ErrorCode(err), chat.ErrorText(err, lang))
	} else {
		responder.write(OutgoingMessage{Type: TypeHistory, Data: history})
	}

	limiter := middleware.NewWebSocketLimiter(h.messagesPerMinute)
	for {
		var msg IncomingMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		if !limiter.Allow() {
			responder.SendError("rate_limited", "Rate limit exceeded. Please slow down.")
			continue
		}

		if _, err := h.engine.ProcessMessage(ctx, chat.ProcessRequest{
			SessionID: sessionID,
			Message:   msg.Content,
			Language:  lang,
			Responder: responder,
		}); err != nil {
			log.Printf("Error processing message: %v", err)
		}
	}

	log.Printf("WebSocket disconnected: session=%s", sessionID)
}

// wsResponder implements chat.Responder over one connection
type wsResponder struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (r *wsResponder) write(msg OutgoingMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conn.WriteJSON(msg)
}

func (r *wsResponder) SendEntry(entry chat.Entry) error {
	return r.write(OutgoingMessage{Type: TypeEntry, Data: entry})
}

func (r *wsResponder) SendError(code, message string) error {
	return r.write(OutgoingMessage{Type: TypeError, Content: message, Code: code})
}

func (r *wsResponder) SendDone() error {
	return r.write(OutgoingMessage{Type: TypeDone})
}
