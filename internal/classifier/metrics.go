package classifier

import "fmt"

// Metrics are the evaluation scores stored next to a trained model.
type Metrics struct {
	Accuracy float64 `json:"accuracy"`
	F1Macro  float64 `json:"f1_macro"`
}

// Map returns the metrics keyed the way they are persisted.
func (m Metrics) Map() map[string]float64 {
	return map[string]float64{
		"accuracy": m.Accuracy,
		"f1_macro": m.F1Macro,
	}
}

// Evaluate predicts every row of ds and scores the result.
func Evaluate(c Classifier, ds *Dataset) (Metrics, error) {
	if ds == nil || len(ds.X) == 0 {
		return Metrics{}, ErrEmptyDataset
	}

	pred := make([]string, len(ds.X))
	for i, x := range ds.X {
		label, err := c.Predict(x)
		if err != nil {
			return Metrics{}, fmt.Errorf("failed to predict row %d: %w", i, err)
		}
		pred[i] = label
	}

	return Metrics{
		Accuracy: Accuracy(ds.Y, pred),
		F1Macro:  F1Macro(ds.Y, pred),
	}, nil
}

// Accuracy is the share of positions where truth and pred agree.
func Accuracy(truth, pred []string) float64 {
	if len(truth) == 0 || len(truth) != len(pred) {
		return 0
	}
	var hit int
	for i := range truth {
		if truth[i] == pred[i] {
			hit++
		}
	}
	return float64(hit) / float64(len(truth))
}

// F1Macro averages per-label F1 over every label seen in truth or pred.
// A label with no true or predicted positives scores 0.
func F1Macro(truth, pred []string) float64 {
	if len(truth) == 0 || len(truth) != len(pred) {
		return 0
	}

	type counts struct{ tp, fp, fn float64 }
	perLabel := make(map[string]*counts)
	get := func(label string) *counts {
		c, ok := perLabel[label]
		if !ok {
			c = &counts{}
			perLabel[label] = c
		}
		return c
	}

	for i := range truth {
		if truth[i] == pred[i] {
			get(truth[i]).tp++
			continue
		}
		get(truth[i]).fn++
		get(pred[i]).fp++
	}

	var sum float64
	for _, c := range perLabel {
		denom := 2*c.tp + c.fp + c.fn
		if denom > 0 {
			sum += 2 * c.tp / denom
		}
	}
	return sum / float64(len(perLabel))
}
