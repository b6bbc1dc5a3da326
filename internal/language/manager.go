package language

import (
	"sort"
	"strings"
	"sync"
)

// DefaultLanguage is used when a request names no supported language.
const DefaultLanguage = "vi"

// LanguageInfo describes a supported reply language
type LanguageInfo struct {
	Code       string `json:"code"`
	Name       string `json:"name"`
	NativeName string `json:"native_name"`
	IsEnabled  bool   `json:"is_enabled"`
}

// ValidationResult is the language a request will be answered in
type ValidationResult struct {
	Code         string `json:"code"`
	UsedFallback bool   `json:"used_fallback"`
}

// Manager tracks which reply languages are available
type Manager struct {
	languages map[string]*LanguageInfo
	mu        sync.RWMutex
}

// NewManager creates a manager with Vietnamese and English enabled
func NewManager() *Manager {
	return &Manager{
		languages: map[string]*LanguageInfo{
			"vi": {Code: "vi", Name: "Vietnamese", NativeName: "Tiếng Việt", IsEnabled: true},
			"en": {Code: "en", Name: "English", NativeName: "English", IsEnabled: true},
		},
	}
}

// IsSupported checks if a language code is known and enabled
func (m *Manager) IsSupported(code string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lang, exists := m.languages[code]
	return exists && lang.IsEnabled
}

// Validate returns code if supported, otherwise the default language
func (m *Manager) Validate(code string) ValidationResult {
	code = strings.ToLower(strings.TrimSpace(code))
	if m.IsSupported(code) {
		return ValidationResult{Code: code}
	}
	return ValidationResult{Code: DefaultLanguage, UsedFallback: true}
}

// Negotiate picks the first supported language from an Accept-Language
// header value. Quality weights are ignored; order wins.
func (m *Manager) Negotiate(header string) ValidationResult {
	for _, part := range strings.Split(header, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if tag == "" {
			continue
		}
		primary := strings.ToLower(strings.SplitN(tag, "-", 2)[0])
		if m.IsSupported(primary) {
			return ValidationResult{Code: primary}
		}
	}
	return ValidationResult{Code: DefaultLanguage, UsedFallback: true}
}

// GetLanguageInfo returns information about a language
func (m *Manager) GetLanguageInfo(code string) (LanguageInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lang, exists := m.languages[code]
	if !exists {
		return LanguageInfo{}, false
	}
	return *lang, true
}

// DisableLanguage turns a language off. The default language stays on.
func (m *Manager) DisableLanguage(code string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if code == DefaultLanguage {
		return
	}
	if lang, exists := m.languages[code]; exists {
		lang.IsEnabled = false
	}
}

// GetSupportedLanguages lists enabled languages ordered by code
func (m *Manager) GetSupportedLanguages() []LanguageInfo {
	m.mu.RLock()
	defer m.mu.RUnlock()

	languages := make([]LanguageInfo, 0, len(m.languages))
	for _, lang := range m.languages {
		if lang.IsEnabled {
			languages = append(languages, *lang)
		}
	}
	sort.Slice(languages, func(i, j int) bool { return languages[i].Code < languages[j].Code })
	return languages
}
