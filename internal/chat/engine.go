package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/themobileprof/symptomchat-be/internal/circuitbreaker"
	"github.com/themobileprof/symptomchat-be/internal/classifier"
	"github.com/themobileprof/symptomchat-be/internal/fallback"
	"github.com/themobileprof/symptomchat-be/internal/language"
	"github.com/themobileprof/symptomchat-be/internal/privacy"
	"github.com/themobileprof/symptomchat-be/internal/ranking"
)

// ErrNotReady is returned for every prediction while the model or the
// symptom vocabulary is unavailable.
var ErrNotReady = errors.New("symptom checker is not ready")

// Error codes reported to clients
const (
	CodeNotReady         = "not_ready"
	CodeShapeMismatch    = "shape_mismatch"
	CodePredictionFailed = "prediction_failed"
	CodeHistoryDown      = "history_unavailable"
)

// Responder defines the interface for sending entries to any transport
type Responder interface {
	SendEntry(entry Entry) error
	SendError(code, message string) error
	SendDone() error
}

// HistoryStore keeps the entries of each session, oldest first
type HistoryStore interface {
	Append(ctx context.Context, sessionID string, entries ...Entry) error
	List(ctx context.Context, sessionID string) ([]Entry, error)
	Clear(ctx context.Context, sessionID string) error
}

type LanguageInterface interface {
	Validate(code string) language.ValidationResult
}

// ProcessRequest contains all data needed to process a message
type ProcessRequest struct {
	SessionID string
	Message   string
	Language  string
	Responder Responder
}

// Engine runs the symptom pipeline independent of transport
type Engine struct {
	res         *Resources
	history     HistoryStore
	langManager LanguageInterface
	topK        int
}

// NewEngine creates a chat engine over loaded resources
func NewEngine(res *Resources, store HistoryStore, lm LanguageInterface) *Engine {
	if res == nil {
		res = NewResources(ResourceSet{})
	}
	return &Engine{
		res:         res,
		history:     store,
		langManager: lm,
		topK:        ranking.DefaultK,
	}
}

// SetTopK changes how many candidates a prediction lists. Call before serving.
func (e *Engine) SetTopK(k int) {
	if k > 0 {
		e.topK = k
	}
}

// Resources returns the engine's loaded resources.
func (e *Engine) Resources() *Resources {
	return e.res
}

// Ready reports whether predictions are served.
func (e *Engine) Ready() bool {
	return e.res.Ready()
}

// ErrorCode maps a pipeline error to its client-facing code
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotReady):
		return CodeNotReady
	case errors.Is(err, classifier.ErrShapeMismatch):
		return CodeShapeMismatch
	case errors.Is(err, circuitbreaker.ErrOpen), errors.Is(err, circuitbreaker.ErrProbing):
		return CodeHistoryDown
	default:
		return CodePredictionFailed
	}
}

// ErrorText returns the localized message shown to clients for err
func ErrorText(err error, lang string) string {
	if ErrorCode(err) == CodeNotReady {
		return fallback.GetNotReadyResponse(lang).Content
	}
	return fallback.GetErrorResponse(lang).Content
}

func (e *Engine) lang(code string) string {
	if e.langManager == nil {
		return language.DefaultLanguage
	}
	return e.langManager.Validate(code).Code
}

// Predict extracts symptoms from message and classifies them. The reply is
// a NoMatchNotice when nothing is recognized, in which case the classifier
// is not called.
func (e *Engine) Predict(message, lang string) (Entry, error) {
	if !e.res.Ready() {
		return nil, ErrNotReady
	}
	lang = e.lang(lang)

	vocab := e.res.Vocabulary()
	recognized := vocab.Filter(e.res.extractor.Extract(message))
	if len(recognized) == 0 {
		return NoMatchNotice{
			ID:        newID(),
			Text:      fallback.GetNoMatchResponse(lang).Content,
			CreatedAt: now(),
		}, nil
	}

	out, err := classifier.Run(e.res.Classifier(), vocab.Vectorize(recognized))
	if err != nil {
		return nil, fmt.Errorf("failed to classify %d symptom(s): %w", len(recognized), err)
	}

	projector := ranking.Projector{
		Catalog:       e.res.Catalog(),
		Lexicon:       e.res.Lexicon(),
		K:             e.topK,
		NoDescription: fallback.GetNoDescription(lang),
	}
	return PredictionResult{
		ID:        newID(),
		CreatedAt: now(),
		Result:    projector.Project(out, recognized),
	}, nil
}

// ProcessMessage answers one user message, appends the exchange to the
// session history and returns the new entries. A blank message is ignored.
func (e *Engine) ProcessMessage(ctx context.Context, req ProcessRequest) ([]Entry, error) {
	lang := e.lang(req.Language)
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, e.done(req.Responder)
	}

	if !e.res.Ready() {
		e.sendError(req.Responder, CodeNotReady, fallback.GetNotReadyResponse(lang).Content)
		return nil, ErrNotReady
	}

	log.Printf("Processing message: session=%s, length=%d", req.SessionID, len(message))
	if privacy.ContainsPII(message) {
		log.Printf("Warning: Potential PII detected in message from session=%s", req.SessionID)
	}

	reply, err := e.Predict(message, lang)
	if err != nil {
		log.Printf("Prediction failed for session=%s: %v", req.SessionID, err)
		e.sendError(req.Responder, ErrorCode(err), ErrorText(err, lang))
		return nil, err
	}

	if p, ok := reply.(PredictionResult); ok {
		log.Printf("Predicted %q from %d symptom(s) for session=%s", p.Label, len(p.Symptoms), req.SessionID)
	}

	entries := []Entry{
		UserUtterance{ID: newID(), Text: message, CreatedAt: now()},
		reply,
	}
	if err := e.history.Append(ctx, req.SessionID, entries...); err != nil {
		err = fmt.Errorf("failed to save history: %w", err)
		e.sendError(req.Responder, ErrorCode(err), ErrorText(err, lang))
		return nil, err
	}

	if req.Responder != nil {
		for _, entry := range entries {
			if err := req.Responder.SendEntry(entry); err != nil {
				return entries, err
			}
		}
	}
	return entries, e.done(req.Responder)
}

// History returns the session's entries. An empty history is seeded with the
// greeting messages first.
func (e *Engine) History(ctx context.Context, sessionID, lang string) ([]Entry, error) {
	if !e.res.Ready() {
		return nil, ErrNotReady
	}

	entries, err := e.history.List(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	if len(entries) > 0 {
		return entries, nil
	}

	for _, text := range fallback.GetGreetings(e.lang(lang)) {
		entries = append(entries, Greeting{ID: newID(), Text: text, CreatedAt: now()})
	}
	if err := e.history.Append(ctx, sessionID, entries...); err != nil {
		return nil, fmt.Errorf("failed to save greetings: %w", err)
	}
	return entries, nil
}

// Reset forgets the session's history
func (e *Engine) Reset(ctx context.Context, sessionID string) error {
	if err := e.history.Clear(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	log.Printf("History cleared for session=%s", sessionID)
	return nil
}

func (e *Engine) sendError(r Responder, code, message string) {
	if r == nil {
		return
	}
	if err := r.SendError(code, message); err != nil {
		log.Printf("Failed to send error: %v", err)
	}
}

func (e *Engine) done(r Responder) error {
	if r == nil {
		return nil
	}
	return r.SendDone()
}
