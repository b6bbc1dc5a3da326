package api

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/themobileprof/symptomchat-be/internal/chat"
	"github.com/themobileprof/symptomchat-be/internal/classifier"
	"github.com/themobileprof/symptomchat-be/internal/features"
	"github.com/themobileprof/symptomchat-be/internal/textnorm"
)

// ModelHandler exposes what the loaded model knows
type ModelHandler struct {
	res *chat.Resources
}

// NewModelHandler creates a new model handler
func NewModelHandler(res *chat.Resources) *ModelHandler {
	return &ModelHandler{res: res}
}

// Health reports liveness and readiness
// GET /health
func (h *ModelHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"ready":  h.res.Ready(),
		"time":   time.Now().Unix(),
	})
}

// GetModel returns training metadata and readiness
// GET /api/model
func (h *ModelHandler) GetModel(c *gin.Context) {
	labelCol := features.DefaultLabelColumn
	metrics := map[string]float64{}
	if meta := h.res.Meta(); meta != nil {
		if meta.LabelCol != "" {
			labelCol = meta.LabelCol
		}
		if meta.Metrics != nil {
			metrics = meta.Metrics
		}
	}

	classes := []string{}
	if p, ok := h.res.Classifier().(classifier.Probabilistic); ok {
		classes = p.Classes()
	}

	c.JSON(http.StatusOK, gin.H{
		"ready":     h.res.Ready(),
		"problems":  h.res.Problems(),
		"label_col": labelCol,
		"features":  h.res.Vocabulary().Len(),
		"classes":   classes,
		"metrics":   metrics,
	})
}

// SymptomInfo is one vocabulary entry with its display name
type SymptomInfo struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

// GetSymptoms lists the recognizable symptoms, optionally filtered
// GET /api/symptoms?q=dau
func (h *ModelHandler) GetSymptoms(c *gin.Context) {
	query := textnorm.StripAccents(textnorm.Normalize(c.Query("q")))
	lex := h.res.Lexicon()

	symptoms := []SymptomInfo{}
	for _, token := range h.res.Vocabulary().Tokens() {
		name, ok := lex.First(token)
		if !ok {
			name = strings.ReplaceAll(token, "_", " ")
		}
		if query != "" && !matchesQuery(query, token, name) {
			continue
		}
		symptoms = append(symptoms, SymptomInfo{Token: token, Name: name})
	}
	sort.SliceStable(symptoms, func(i, j int) bool { return symptoms[i].Name < symptoms[j].Name })

	c.JSON(http.StatusOK, gin.H{
		"symptoms": symptoms,
		"count":    len(symptoms),
	})
}

func matchesQuery(query, token, name string) bool {
	for _, s := range []string{token, name} {
		if strings.Contains(textnorm.StripAccents(textnorm.Normalize(s)), query) {
			return true
		}
	}
	return false
}
