package fallback

// Response is a canned reply shown instead of a prediction
type Response struct {
	Content string
	Action  string // "train_model", "rephrase", "retry"
}

var (
	notReady = map[string]Response{
		"vi": {
			Content: "Model chưa được huấn luyện. Hãy huấn luyện mô hình trước khi sử dụng chatbot.",
			Action:  "train_model",
		},
		"en": {
			Content: "The model has not been trained yet. Please train it before using the chatbot.",
			Action:  "train_model",
		},
	}

	noMatch = map[string]Response{
		"vi": {
			Content: "Xin lỗi, tôi không nhận ra triệu chứng nào từ mô tả của bạn.",
			Action:  "rephrase",
		},
		"en": {
			Content: "Sorry, I could not recognize any symptoms in your description.",
			Action:  "rephrase",
		},
	}

	internalError = map[string]Response{
		"vi": {
			Content: "Xin lỗi, đã có lỗi khi dự đoán. Vui lòng thử lại sau.",
			Action:  "retry",
		},
		"en": {
			Content: "Sorry, something went wrong while predicting. Please try again later.",
			Action:  "retry",
		},
	}

	greetings = map[string][]string{
		"vi": {
			"Xin chào bạn 👋\nMình là chatbot tư vấn sức khỏe. Bạn hãy mô tả các triệu chứng bạn đang gặp nhé.\n",
			"Ví dụ bạn có thể nhập:\n• \"Sổ mũi, hắt hơi, nghẹt mũi\"\n• \"Sốt nhẹ, ho, đau họng, có đờm\"\n• \"Đau bụng, buồn nôn, tiêu chảy\"\n\n",
		},
		"en": {
			"Hello 👋\nI'm a health advice chatbot. Please describe the symptoms you are having.\n",
			"For example you could type:\n• \"Sổ mũi, hắt hơi, nghẹt mũi\"\n• \"Sốt nhẹ, ho, đau họng, có đờm\"\n• \"Đau bụng, buồn nôn, tiêu chảy\"\n\n",
		},
	}

	noDescription = map[string]string{
		"vi": "Chưa có mô tả cho bệnh này.",
		"en": "No description is available for this disease yet.",
	}
)

const defaultLanguage = "vi"

// GetNotReadyResponse is shown while no trained model is loaded
func GetNotReadyResponse(language string) Response {
	return pick(notReady, language)
}

// GetNoMatchResponse is shown when no symptom was recognized
func GetNoMatchResponse(language string) Response {
	return pick(noMatch, language)
}

// GetErrorResponse is shown when a prediction fails
func GetErrorResponse(language string) Response {
	return pick(internalError, language)
}

// GetGreetings returns the messages that open a new conversation
func GetGreetings(language string) []string {
	g, ok := greetings[language]
	if !ok {
		g = greetings[defaultLanguage]
	}
	out := make([]string, len(g))
	copy(out, g)
	return out
}

// GetNoDescription is the placeholder for diseases without a description
func GetNoDescription(language string) string {
	if s, ok := noDescription[language]; ok {
		return s
	}
	return noDescription[defaultLanguage]
}

func pick(m map[string]Response, language string) Response {
	if r, ok := m[language]; ok {
		return r
	}
	return m[defaultLanguage]
}
