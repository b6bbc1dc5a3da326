package classifier

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
)

// DefaultAlpha is the Laplace smoothing used when training.
const DefaultAlpha = 1.0

// BernoulliNB is a naive Bayes classifier over binary features.
// It is read-only after Fit or Load and safe for concurrent use.
type BernoulliNB struct {
	alpha          float64
	classes        []string
	classLogPrior  []float64
	featureLogProb [][]float64 // log P(x_j = 1 | c)
	negLogProb     [][]float64 // log P(x_j = 0 | c)
	negLogSum      []float64
}

// Fit trains a model on indicator rows X with labels y. Values above zero
// count as present. Classes are sorted.
func Fit(X [][]float64, y []string, alpha float64) (*BernoulliNB, error) {
	if len(X) == 0 {
		return nil, ErrEmptyDataset
	}
	if len(X) != len(y) {
		return nil, fmt.Errorf("got %d rows but %d labels", len(X), len(y))
	}
	if alpha <= 0 {
		alpha = DefaultAlpha
	}

	nFeatures := len(X[0])
	classIndex := make(map[string]int)
	for _, label := range y {
		classIndex[label] = 0
	}
	classes := make([]string, 0, len(classIndex))
	for label := range classIndex {
		classes = append(classes, label)
	}
	sort.Strings(classes)
	for i, label := range classes {
		classIndex[label] = i
	}

	classCount := make([]float64, len(classes))
	featureCount := make([][]float64, len(classes))
	for i := range featureCount {
		featureCount[i] = make([]float64, nFeatures)
	}

	for row, x := range X {
		if len(x) != nFeatures {
			return nil, fmt.Errorf("row %d: %w", row, shapeError(nFeatures, len(x)))
		}
		c := classIndex[y[row]]
		classCount[c]++
		for j, v := range x {
			if v > 0 {
				featureCount[c][j]++
			}
		}
	}

	m := &BernoulliNB{
		alpha:          alpha,
		classes:        classes,
		classLogPrior:  make([]float64, len(classes)),
		featureLogProb: make([][]float64, len(classes)),
	}
	total := float64(len(X))
	for c := range classes {
		m.classLogPrior[c] = math.Log(classCount[c] / total)
		m.featureLogProb[c] = make([]float64, nFeatures)
		for j := 0; j < nFeatures; j++ {
			m.featureLogProb[c][j] = math.Log((featureCount[c][j] + alpha) / (classCount[c] + 2*alpha))
		}
	}
	m.precompute()

	return m, nil
}

func (m *BernoulliNB) precompute() {
	m.negLogProb = make([][]float64, len(m.featureLogProb))
	m.negLogSum = make([]float64, len(m.featureLogProb))
	for c, row := range m.featureLogProb {
		m.negLogProb[c] = make([]float64, len(row))
		for j, lp := range row {
			neg := math.Log1p(-math.Exp(lp))
			m.negLogProb[c][j] = neg
			m.negLogSum[c] += neg
		}
	}
}

// Classes returns the labels in probability order.
func (m *BernoulliNB) Classes() []string {
	out := make([]string, len(m.classes))
	copy(out, m.classes)
	return out
}

// NumFeatures is the vector length the model was trained on.
func (m *BernoulliNB) NumFeatures() int {
	if len(m.featureLogProb) == 0 {
		return 0
	}
	return len(m.featureLogProb[0])
}

func (m *BernoulliNB) jointLogLikelihood(x []float64) ([]float64, error) {
	if len(m.classes) == 0 {
		return nil, ErrNotTrained
	}
	if len(x) != m.NumFeatures() {
		return nil, shapeError(m.NumFeatures(), len(x))
	}

	jll := make([]float64, len(m.classes))
	for c := range m.classes {
		score := m.classLogPrior[c] + m.negLogSum[c]
		for j, v := range x {
			if v > 0 {
				score += m.featureLogProb[c][j] - m.negLogProb[c][j]
			}
		}
		jll[c] = score
	}
	return jll, nil
}

// PredictProba returns P(class | x) aligned with Classes().
func (m *BernoulliNB) PredictProba(x []float64) ([]float64, error) {
	jll, err := m.jointLogLikelihood(x)
	if err != nil {
		return nil, err
	}

	maxLL := math.Inf(-1)
	for _, v := range jll {
		if v > maxLL {
			maxLL = v
		}
	}
	var sum float64
	probs := make([]float64, len(jll))
	for i, v := range jll {
		probs[i] = math.Exp(v - maxLL)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs, nil
}

// Predict returns the most likely label. Ties go to the earlier class.
func (m *BernoulliNB) Predict(x []float64) (string, error) {
	jll, err := m.jointLogLikelihood(x)
	if err != nil {
		return "", err
	}
	best := 0
	for i, v := range jll {
		if v > jll[best] {
			best = i
		}
	}
	return m.classes[best], nil
}

// artifact is the persisted form of a BernoulliNB.
type artifact struct {
	Alpha          float64
	Classes        []string
	ClassLogPrior  []float64
	FeatureLogProb [][]float64
}

// Save writes the model to path as gob.
func (m *BernoulliNB) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create model dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create model file: %w", err)
	}
	defer f.Close()

	a := artifact{
		Alpha:          m.alpha,
		Classes:        m.classes,
		ClassLogPrior:  m.classLogPrior,
		FeatureLogProb: m.featureLogProb,
	}
	if err := gob.NewEncoder(f).Encode(a); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return nil
}

// Load reads a model written by Save.
func Load(path string) (*BernoulliNB, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model: %w", err)
	}
	defer f.Close()

	var a artifact
	if err := gob.NewDecoder(f).Decode(&a); err != nil {
		return nil, fmt.Errorf("failed to decode model: %w", err)
	}
	if len(a.Classes) == 0 || len(a.Classes) != len(a.ClassLogPrior) || len(a.Classes) != len(a.FeatureLogProb) {
		return nil, fmt.Errorf("corrupt model %s: %d classes, %d priors, %d feature rows",
			path, len(a.Classes), len(a.ClassLogPrior), len(a.FeatureLogProb))
	}
	for c, row := range a.FeatureLogProb {
		if len(row) != len(a.FeatureLogProb[0]) {
			return nil, fmt.Errorf("corrupt model %s: class %d has %d features", path, c, len(row))
		}
	}

	m := &BernoulliNB{
		alpha:          a.Alpha,
		classes:        a.Classes,
		classLogPrior:  a.ClassLogPrior,
		featureLogProb: a.FeatureLogProb,
	}
	m.precompute()
	return m, nil
}
