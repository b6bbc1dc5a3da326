package classifier

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrShapeMismatch means a feature vector does not have the length the
	// classifier was trained on. It is never coerced into a prediction.
	ErrShapeMismatch = errors.New("feature vector does not match classifier input")
	ErrNotTrained    = errors.New("classifier is not trained")
	ErrEmptyDataset  = errors.New("dataset has no rows")
)

// Classifier predicts a disease label from a symptom indicator vector.
type Classifier interface {
	Predict(features []float64) (string, error)
}

// Probabilistic classifiers also expose a distribution over their labels.
// PredictProba()[i] is the probability of Classes()[i].
type Probabilistic interface {
	Classifier
	PredictProba(features []float64) ([]float64, error)
	Classes() []string
}

// Sized classifiers report the feature count they expect.
type Sized interface {
	NumFeatures() int
}

// Output is the classifier's answer for one vector. Probabilities and Classes
// are empty when the classifier has no probability interface.
type Output struct {
	Label         string
	Probabilities []float64
	Classes       []string
}

// HasProbabilities reports whether a full distribution is available.
func (o Output) HasProbabilities() bool {
	return len(o.Probabilities) > 0 && len(o.Probabilities) == len(o.Classes)
}

// Run classifies one vector, using the probability interface when the
// classifier has one.
func Run(c Classifier, features []float64) (Output, error) {
	if c == nil {
		return Output{}, ErrNotTrained
	}

	if s, ok := c.(Sized); ok && s.NumFeatures() != len(features) {
		return Output{}, shapeError(s.NumFeatures(), len(features))
	}

	p, ok := c.(Probabilistic)
	if !ok {
		label, err := c.Predict(features)
		if err != nil {
			return Output{}, err
		}
		return Output{Label: strings.TrimSpace(label)}, nil
	}

	probs, err := p.PredictProba(features)
	if err != nil {
		return Output{}, err
	}
	classes := p.Classes()
	if len(probs) != len(classes) {
		return Output{}, fmt.Errorf("classifier returned %d probabilities for %d classes", len(probs), len(classes))
	}

	best := 0
	for i := range probs {
		if probs[i] > probs[best] {
			best = i
		}
	}

	out := Output{Probabilities: probs, Classes: classes}
	if len(classes) > 0 {
		out.Label = strings.TrimSpace(classes[best])
	}
	return out, nil
}

func shapeError(want, got int) error {
	return fmt.Errorf("%w: expected %d features, got %d", ErrShapeMismatch, want, got)
}
