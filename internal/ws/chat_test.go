package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/themobileprof/symptomchat-be/internal/api/middleware"
	"github.com/themobileprof/symptomchat-be/internal/chat"
	"github.com/themobileprof/symptomchat-be/internal/circuitbreaker"
	"github.com/themobileprof/symptomchat-be/internal/classifier"
	"github.com/themobileprof/symptomchat-be/internal/fallback"
	"github.com/themobileprof/symptomchat-be/internal/features"
	"github.com/themobileprof/symptomchat-be/internal/language"
	"github.com/themobileprof/symptomchat-be/internal/lexicon"
	"github.com/themobileprof/symptomchat-be/internal/memory"
)

type wireMessage struct {
	Type    string          `json:"type"`
	Content string          `json:"content"`
	Code    string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func readyResources(t *testing.T) *chat.Resources {
	t.Helper()
	model, err := classifier.Fit([][]float64{{1, 0}, {0, 1}}, []string{"Pharyngitis", "Bronchitis"}, 1)
	if err != nil {
		t.Fatal(err)
	}
	return chat.NewResources(chat.ResourceSet{
		Vocabulary: features.NewVocabulary([]string{"sore_throat", "cough"}),
		Lexicon:    lexicon.FromMap(map[string][]string{"sore_throat": {"đau họng"}}),
		Classifier: model,
	})
}

type downStore struct{}

func (downStore) Append(context.Context, string, ...chat.Entry) error { return circuitbreaker.ErrOpen }
func (downStore) List(context.Context, string) ([]chat.Entry, error) {
	return nil, circuitbreaker.ErrOpen
}
func (downStore) Clear(context.Context, string) error { return circuitbreaker.ErrOpen }

func startServer(t *testing.T, res *chat.Resources, origins []string, perMinute int) *httptest.Server {
	t.Helper()
	return startServerWithStore(t, res, memory.NewHistoryManager(10), origins, perMinute)
}

func startServerWithStore(t *testing.T, res *chat.Resources, store chat.HistoryStore, origins []string, perMinute int) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	lm := language.NewManager()
	handler := NewChatHandler(chat.NewEngine(res, store, lm), origins)
	handler.SetMessageRate(perMinute)

	r := gin.New()
	r.Use(middleware.Session(middleware.NewSessionManager("ws-secret", time.Hour, false)))
	r.Use(middleware.Language(lm))
	r.GET("/ws/chat", handler.HandleChat)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, header http.Header) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat"
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func read(t *testing.T, conn *websocket.Conn) wireMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg wireMessage
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	return msg
}

func TestHandleChat_Conversation(t *testing.T) {
	conn := dial(t, startServer(t, readyResources(t), nil, 60), nil)

	hello := read(t, conn)
	if hello.Type != TypeHistory {
		t.Fatalf("first message type = %q, want history", hello.Type)
	}
	var greetings []map[string]interface{}
	if err := json.Unmarshal(hello.Data, &greetings); err != nil || len(greetings) != 2 {
		t.Fatalf("history = %s (%v)", hello.Data, err)
	}

	if err := conn.WriteJSON(IncomingMessage{Content: "Tôi bị đau họng"}); err != nil {
		t.Fatal(err)
	}

	wantKinds := []string{"user_utterance", "prediction"}
	for _, want := range wantKinds {
		msg := read(t, conn)
		if msg.Type != TypeEntry {
			t.Fatalf("type = %q, want entry", msg.Type)
		}
		entry, err := chat.UnmarshalEntry(msg.Data)
		if err != nil {
			t.Fatal(err)
		}
		if string(entry.Kind()) != want {
			t.Errorf("entry kind = %q, want %q", entry.Kind(), want)
		}
		if p, ok := entry.(chat.PredictionResult); ok && p.Label != "Pharyngitis" {
			t.Errorf("label = %q, want Pharyngitis", p.Label)
		}
	}
	if msg := read(t, conn); msg.Type != TypeDone {
		t.Errorf("type = %q, want done", msg.Type)
	}

	if err := conn.WriteJSON(IncomingMessage{Content: "  "}); err != nil {
		t.Fatal(err)
	}
	if msg := read(t, conn); msg.Type != TypeDone {
		t.Errorf("blank message answered with %q, want done", msg.Type)
	}
}

func TestHandleChat_NotReady(t *testing.T) {
	conn := dial(t, startServer(t, chat.NewResources(chat.ResourceSet{}), nil, 60), nil)

	msg := read(t, conn)
	if msg.Type != TypeError || msg.Code != chat.CodeNotReady {
		t.Fatalf("got %+v, want not_ready error", msg)
	}

	if err := conn.WriteJSON(IncomingMessage{Content: "đau họng"}); err != nil {
		t.Fatal(err)
	}
	if msg := read(t, conn); msg.Type != TypeError || msg.Code != chat.CodeNotReady {
		t.Errorf("got %+v, want not_ready error", msg)
	}
}

func TestHandleChat_HistoryUnavailable(t *testing.T) {
	conn := dial(t, startServerWithStore(t, readyResources(t), downStore{}, nil, 60), nil)

	msg := read(t, conn)
	if msg.Type != TypeError || msg.Code != chat.CodeHistoryDown {
		t.Fatalf("got %+v, want history_unavailable error", msg)
	}
	if msg.Content != fallback.GetErrorResponse("vi").Content {
		t.Errorf("content = %q, want the generic error text", msg.Content)
	}

	if err := conn.WriteJSON(IncomingMessage{Content: "đau họng"}); err != nil {
		t.Fatal(err)
	}
	if msg := read(t, conn); msg.Type != TypeError || msg.Code != chat.CodeHistoryDown {
		t.Errorf("got %+v, want history_unavailable error", msg)
	}
}

func TestHandleChat_RateLimited(t *testing.T) {
	conn := dial(t, startServer(t, readyResources(t), nil, 1), nil)
	read(t, conn)

	conn.WriteJSON(IncomingMessage{Content: "  "})
	if msg := read(t, conn); msg.Type != TypeDone {
		t.Fatalf("type = %q, want done", msg.Type)
	}

	conn.WriteJSON(IncomingMessage{Content: "  "})
	if msg := read(t, conn); msg.Type != TypeError || msg.Code != "rate_limited" {
		t.Errorf("got %+v, want rate_limited error", msg)
	}
}

func TestHandleChat_Origin(t *testing.T) {
	srv := startServer(t, readyResources(t), []string{"https://app.example.com"}, 60)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws/chat"

	header := http.Header{"Origin": {"https://evil.example.com"}}
	if _, _, err := websocket.DefaultDialer.Dial(url, header); err == nil {
		t.Error("expected foreign origin to be rejected")
	}

	conn := dial(t, srv, http.Header{"Origin": {"https://app.example.com"}})
	if msg := read(t, conn); msg.Type != TypeHistory {
		t.Errorf("type = %q, want history", msg.Type)
	}
}
