package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/themobileprof/symptomchat-be/internal/ranking"
)

// Kind tags the variant of an Entry
type Kind string

const (
	KindGreeting   Kind = "greeting"
	KindUtterance  Kind = "user_utterance"
	KindNoMatch    Kind = "no_match"
	KindPrediction Kind = "prediction"
)

// Senders of an entry
const (
	SenderBot  = "bot"
	SenderUser = "user"
)

var ErrUnknownEntry = errors.New("unknown chat entry type")

// Entry is one item of a conversation. The concrete type is one of
// Greeting, UserUtterance, NoMatchNotice or PredictionResult.
type Entry interface {
	Kind() Kind
	EntryID() string
	Sender() string
	Created() time.Time
}

// Greeting is a bot message that opens a conversation
type Greeting struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// UserUtterance is what the user typed
type UserUtterance struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// NoMatchNotice tells the user that no symptom was recognized
type NoMatchNotice struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}

// PredictionResult carries the ranked, enriched diagnosis
type PredictionResult struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	ranking.Result
}

func (Greeting) Kind() Kind         { return KindGreeting }
func (UserUtterance) Kind() Kind    { return KindUtterance }
func (NoMatchNotice) Kind() Kind    { return KindNoMatch }
func (PredictionResult) Kind() Kind { return KindPrediction }

func (e Greeting) EntryID() string         { return e.ID }
func (e UserUtterance) EntryID() string    { return e.ID }
func (e NoMatchNotice) EntryID() string    { return e.ID }
func (e PredictionResult) EntryID() string { return e.ID }

func (Greeting) Sender() string         { return SenderBot }
func (UserUtterance) Sender() string    { return SenderUser }
func (NoMatchNotice) Sender() string    { return SenderBot }
func (PredictionResult) Sender() string { return SenderBot }

func (e Greeting) Created() time.Time         { return e.CreatedAt }
func (e UserUtterance) Created() time.Time    { return e.CreatedAt }
func (e NoMatchNotice) Created() time.Time    { return e.CreatedAt }
func (e PredictionResult) Created() time.Time { return e.CreatedAt }

func (e Greeting) MarshalJSON() ([]byte, error) {
	type alias Greeting
	return json.Marshal(struct {
		Type Kind `json:"type"`
		alias
	}{KindGreeting, alias(e)})
}

func (e UserUtterance) MarshalJSON() ([]byte, error) {
	type alias UserUtterance
	return json.Marshal(struct {
		Type Kind `json:"type"`
		alias
	}{KindUtterance, alias(e)})
}

func (e NoMatchNotice) MarshalJSON() ([]byte, error) {
	type alias NoMatchNotice
	return json.Marshal(struct {
		Type Kind `json:"type"`
		alias
	}{KindNoMatch, alias(e)})
}

func (e PredictionResult) MarshalJSON() ([]byte, error) {
	type alias PredictionResult
	return json.Marshal(struct {
		Type Kind `json:"type"`
		alias
	}{KindPrediction, alias(e)})
}

// UnmarshalEntry decodes a JSON entry using its type field
func UnmarshalEntry(data []byte) (Entry, error) {
	var head struct {
		Type Kind `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("failed to decode entry: %w", err)
	}

	var (
		entry Entry
		err   error
	)
	switch head.Type {
	case KindGreeting:
		var e Greeting
		err = json.Unmarshal(data, &e)
		entry = e
	case KindUtterance:
		var e UserUtterance
		err = json.Unmarshal(data, &e)
		entry = e
	case KindNoMatch:
		var e NoMatchNotice
		err = json.Unmarshal(data, &e)
		entry = e
	case KindPrediction:
		var e PredictionResult
		err = json.Unmarshal(data, &e)
		entry = e
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEntry, head.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s entry: %w", head.Type, err)
	}
	return entry, nil
}

func newID() string {
	return uuid.NewString()
}

func now() time.Time {
	return time.Now().UTC()
}
