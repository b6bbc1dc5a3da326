package chat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"
	"testing"

	"github.com/themobileprof/symptomchat-be/internal/catalog"
	"github.com/themobileprof/symptomchat-be/internal/circuitbreaker"
	"github.com/themobileprof/symptomchat-be/internal/classifier"
	"github.com/themobileprof/symptomchat-be/internal/fallback"
	"github.com/themobileprof/symptomchat-be/internal/features"
	"github.com/themobileprof/symptomchat-be/internal/language"
	"github.com/themobileprof/symptomchat-be/internal/lexicon"
	"github.com/themobileprof/symptomchat-be/internal/ranking"
)

type mockClassifier struct {
	classes []string
	probs   []float64
	err     error
	calls   int
	lastX   []float64
}

func (m *mockClassifier) Predict(x []float64) (string, error) {
	m.calls++
	m.lastX = append([]float64(nil), x...)
	if m.err != nil {
		return "", m.err
	}
	return m.classes[0], nil
}

func (m *mockClassifier) PredictProba(x []float64) ([]float64, error) {
	m.calls++
	m.lastX = append([]float64(nil), x...)
	if m.err != nil {
		return nil, m.err
	}
	return m.probs, nil
}

func (m *mockClassifier) Classes() []string { return m.classes }

type sizedClassifier struct {
	mockClassifier
	n int
}

func (s *sizedClassifier) NumFeatures() int { return s.n }

type mockStore struct {
	mu      sync.Mutex
	entries map[string][]Entry
	err     error
}

func newMockStore() *mockStore {
	return &mockStore{entries: make(map[string][]Entry)}
}

func (m *mockStore) Append(ctx context.Context, sessionID string, entries ...Entry) error {
	if m.err != nil {
		return m.err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[sessionID] = append(m.entries[sessionID], entries...)
	return nil
}

func (m *mockStore) List(ctx context.Context, sessionID string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Entry(nil), m.entries[sessionID]...), nil
}

func (m *mockStore) Clear(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, sessionID)
	return nil
}

type mockResponder struct {
	entries []Entry
	codes   []string
	done    int
}

func (m *mockResponder) SendEntry(entry Entry) error {
	m.entries = append(m.entries, entry)
	return nil
}
func (m *mockResponder) SendError(code, message string) error {
	m.codes = append(m.codes, code)
	return nil
}
func (m *mockResponder) SendDone() error { m.done++; return nil }

func testResources(cls classifier.Classifier) *Resources {
	return NewResources(ResourceSet{
		Vocabulary: features.NewVocabulary([]string{"sore_throat", "runny_nose", "headache"}),
		Lexicon: lexicon.FromMap(map[string][]string{
			"sore_throat": {"đau họng"},
			"runny_nose":  {"sổ mũi"},
			"headache":    {"đau đầu"},
		}),
		Classifier: cls,
		Catalog: catalog.New(
			map[string]string{"Common Cold": "Cảm lạnh"},
			map[string]string{"Common Cold": "Nhiễm virus. Triệu chứng thường gặp: ho, sổ mũi"},
			nil,
			map[string][]string{"Common Cold": {"nghỉ ngơi"}},
		),
	})
}

func testClassifier() *mockClassifier {
	return &mockClassifier{
		classes: []string{"Allergy", "Common Cold", "Migraine"},
		probs:   []float64{0.1, 0.7, 0.2},
	}
}

func TestEngine_Predict(t *testing.T) {
	cls := testClassifier()
	engine := NewEngine(testResources(cls), newMockStore(), language.NewManager())

	entry, err := engine.Predict("Tôi bị đau họng và sổ mũi", "vi")
	if err != nil {
		t.Fatalf("Predict failed: %v", err)
	}

	result, ok := entry.(PredictionResult)
	if !ok {
		t.Fatalf("got %T, want PredictionResult", entry)
	}
	if !reflect.DeepEqual(cls.lastX, []float64{1, 1, 0}) {
		t.Errorf("classifier input = %v", cls.lastX)
	}
	if result.Label != "Common Cold" || result.Disease != "Cảm lạnh" {
		t.Errorf("label = %q / %q", result.Label, result.Disease)
	}
	if !reflect.DeepEqual(result.Symptoms, []string{"đau họng", "sổ mũi"}) {
		t.Errorf("Symptoms = %q", result.Symptoms)
	}
	if len(result.Top) != 3 || result.Top[1].Label != "Migraine" {
		t.Errorf("Top = %+v", result.Top)
	}
	if result.Description != "Nhiễm virus." {
		t.Errorf("Description = %q", result.Description)
	}
}

func TestEngine_NoSymptomsSkipsClassifier(t *testing.T) {
	tests := []struct {
		name    string
		message string
	}{
		{name: "empty", message: ""},
		{name: "greeting only", message: "xin chào bác sĩ"},
		{name: "punctuation", message: "?!..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := testClassifier()
			engine := NewEngine(testResources(cls), newMockStore(), language.NewManager())

			entry, err := engine.Predict(tt.message, "vi")
			if err != nil {
				t.Fatalf("Predict failed: %v", err)
			}
			notice, ok := entry.(NoMatchNotice)
			if !ok {
				t.Fatalf("got %T, want NoMatchNotice", entry)
			}
			if !strings.Contains(notice.Text, "không nhận ra triệu chứng") {
				t.Errorf("Text = %q", notice.Text)
			}
			if cls.calls != 0 {
				t.Errorf("classifier called %d times", cls.calls)
			}
		})
	}
}

func TestEngine_NotReady(t *testing.T) {
	tests := []struct {
		name string
		res  *Resources
	}{
		{name: "no classifier", res: testResources(nil)},
		{name: "no vocabulary", res: NewResources(ResourceSet{Classifier: testClassifier()})},
		{name: "feature count mismatch", res: testResources(&sizedClassifier{mockClassifier: *testClassifier(), n: 5})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			engine := NewEngine(tt.res, store, language.NewManager())

			if engine.Ready() {
				t.Fatal("engine should not be ready")
			}
			if len(tt.res.Problems()) == 0 {
				t.Error("expected problems to be reported")
			}
			if _, err := engine.Predict("đau họng", "vi"); !errors.Is(err, ErrNotReady) {
				t.Errorf("Predict error = %v, want ErrNotReady", err)
			}

			responder := &mockResponder{}
			_, err := engine.ProcessMessage(context.Background(), ProcessRequest{
				SessionID: "s1", Message: "đau họng", Responder: responder,
			})
			if !errors.Is(err, ErrNotReady) {
				t.Errorf("ProcessMessage error = %v, want ErrNotReady", err)
			}
			if !reflect.DeepEqual(responder.codes, []string{CodeNotReady}) {
				t.Errorf("error codes = %v", responder.codes)
			}
			if _, err := engine.History(context.Background(), "s1", "vi"); !errors.Is(err, ErrNotReady) {
				t.Errorf("History error = %v, want ErrNotReady", err)
			}
			if len(store.entries) != 0 {
				t.Errorf("history written while not ready: %v", store.entries)
			}
		})
	}
}

func TestEngine_ProcessMessage(t *testing.T) {
	store := newMockStore()
	engine := NewEngine(testResources(testClassifier()), store, language.NewManager())
	responder := &mockResponder{}

	entries, err := engine.ProcessMessage(context.Background(), ProcessRequest{
		SessionID: "s1",
		Message:   "  đau đầu  ",
		Language:  "vi",
		Responder: responder,
	})
	if err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	if u, ok := entries[0].(UserUtterance); !ok || u.Text != "đau đầu" {
		t.Errorf("first entry = %#v", entries[0])
	}
	if entries[1].Kind() != KindPrediction {
		t.Errorf("second entry kind = %s", entries[1].Kind())
	}
	if len(store.entries["s1"]) != 2 {
		t.Errorf("stored %d entries", len(store.entries["s1"]))
	}
	if len(responder.entries) != 2 || responder.done != 1 {
		t.Errorf("responder got %d entries, %d done", len(responder.entries), responder.done)
	}
}

func TestEngine_ProcessMessage_Blank(t *testing.T) {
	cls := testClassifier()
	store := newMockStore()
	engine := NewEngine(testResources(cls), store, language.NewManager())
	responder := &mockResponder{}

	entries, err := engine.ProcessMessage(context.Background(), ProcessRequest{
		SessionID: "s1", Message: "   ", Responder: responder,
	})
	if err != nil || entries != nil {
		t.Errorf("ProcessMessage = %v, %v", entries, err)
	}
	if len(store.entries) != 0 || cls.calls != 0 {
		t.Error("blank message must not touch history or classifier")
	}
	if responder.done != 1 {
		t.Errorf("done = %d, want 1", responder.done)
	}
}

func TestEngine_ShapeMismatch(t *testing.T) {
	cls := testClassifier()
	cls.err = classifier.ErrShapeMismatch
	store := newMockStore()
	engine := NewEngine(testResources(cls), store, language.NewManager())
	responder := &mockResponder{}

	_, err := engine.ProcessMessage(context.Background(), ProcessRequest{
		SessionID: "s1", Message: "đau họng", Responder: responder,
	})
	if !errors.Is(err, classifier.ErrShapeMismatch) {
		t.Fatalf("error = %v, want ErrShapeMismatch", err)
	}
	if ErrorCode(err) != CodeShapeMismatch {
		t.Errorf("ErrorCode = %s", ErrorCode(err))
	}
	if !reflect.DeepEqual(responder.codes, []string{CodeShapeMismatch}) {
		t.Errorf("error codes = %v", responder.codes)
	}
	if len(store.entries["s1"]) != 0 {
		t.Error("failed prediction must not be stored")
	}
}

func TestEngine_HistorySeedsGreetings(t *testing.T) {
	store := newMockStore()
	engine := NewEngine(testResources(testClassifier()), store, language.NewManager())
	ctx := context.Background()

	first, err := engine.History(ctx, "s1", "vi")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(first) != 2 || first[0].Kind() != KindGreeting || first[1].Kind() != KindGreeting {
		t.Fatalf("History = %#v", first)
	}
	if g := first[0].(Greeting); !strings.HasPrefix(g.Text, "Xin chào bạn") {
		t.Errorf("greeting = %q", g.Text)
	}

	second, err := engine.History(ctx, "s1", "vi")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(second) != 2 || second[0].EntryID() != first[0].EntryID() {
		t.Error("greetings must be seeded once")
	}

	if err := engine.Reset(ctx, "s1"); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if len(store.entries["s1"]) != 0 {
		t.Error("Reset did not clear history")
	}
}

func TestEngine_StoreError(t *testing.T) {
	tests := []struct {
		name     string
		storeErr error
		wantCode string
	}{
		{name: "generic failure", storeErr: errors.New("disk full"), wantCode: CodePredictionFailed},
		{name: "breaker open", storeErr: circuitbreaker.ErrOpen, wantCode: CodeHistoryDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockStore()
			store.err = tt.storeErr
			engine := NewEngine(testResources(testClassifier()), store, language.NewManager())
			responder := &mockResponder{}

			_, err := engine.ProcessMessage(context.Background(), ProcessRequest{
				SessionID: "s1",
				Message:   "đau họng",
				Responder: responder,
			})
			if !errors.Is(err, tt.storeErr) {
				t.Fatalf("err = %v, want %v", err, tt.storeErr)
			}
			if !reflect.DeepEqual(responder.codes, []string{tt.wantCode}) {
				t.Errorf("error codes = %v, want [%s]", responder.codes, tt.wantCode)
			}
			if len(responder.entries) != 0 {
				t.Errorf("entries sent = %d, want 0 when nothing was saved", len(responder.entries))
			}
		})
	}
}

func TestEntryJSON(t *testing.T) {
	entries := []Entry{
		Greeting{ID: "g1", Text: "Xin chào"},
		UserUtterance{ID: "u1", Text: "đau họng"},
		NoMatchNotice{ID: "n1", Text: "Xin lỗi"},
		PredictionResult{ID: "p1", Result: ranking.Result{
			Label:    "Common Cold",
			Disease:  "Cảm lạnh",
			Symptoms: []string{"đau họng"},
			Top:      []ranking.Candidate{{Label: "Common Cold", Disease: "Cảm lạnh", Probability: 0.9}},
		}},
	}

	for _, entry := range entries {
		data, err := json.Marshal(entry)
		if err != nil {
			t.Fatalf("Marshal(%T) failed: %v", entry, err)
		}

		var head map[string]interface{}
		if err := json.Unmarshal(data, &head); err != nil {
			t.Fatal(err)
		}
		if head["type"] != string(entry.Kind()) {
			t.Errorf("%T: type = %v", entry, head["type"])
		}

		decoded, err := UnmarshalEntry(data)
		if err != nil {
			t.Fatalf("UnmarshalEntry(%s) failed: %v", data, err)
		}
		if !reflect.DeepEqual(decoded, entry) {
			t.Errorf("decoded %#v, want %#v", decoded, entry)
		}
	}

	if _, err := UnmarshalEntry([]byte(`{"type":"calendar"}`)); !errors.Is(err, ErrUnknownEntry) {
		t.Errorf("unknown type error = %v", err)
	}
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{err: ErrNotReady, want: CodeNotReady},
		{err: fmt.Errorf("failed to classify: %w", classifier.ErrShapeMismatch), want: CodeShapeMismatch},
		{err: fmt.Errorf("failed to load history: %w", circuitbreaker.ErrOpen), want: CodeHistoryDown},
		{err: errors.New("boom"), want: CodePredictionFailed},
	}

	for _, tt := range tests {
		if got := ErrorCode(tt.err); got != tt.want {
			t.Errorf("ErrorCode(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}
}

func TestErrorText(t *testing.T) {
	if got := ErrorText(ErrNotReady, "vi"); got != fallback.GetNotReadyResponse("vi").Content {
		t.Errorf("not ready text = %q", got)
	}
	down := fmt.Errorf("failed to load history: %w", circuitbreaker.ErrOpen)
	if got := ErrorText(down, "en"); got != fallback.GetErrorResponse("en").Content {
		t.Errorf("history down text = %q", got)
	}
}
