// Package prompt renders the review prompt and the fallback messages from an
// embedded template catalog.
package prompt

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"

	"github.com/sevigo/code-lens/internal/core"
)

//go:embed prompts.yaml
var catalog []byte

// Key names a template in the catalog.
type Key string

const (
	SystemKey          Key = "system"
	ReviewKey          Key = "review"
	TroubleshootingKey Key = "troubleshooting"
	UnexpectedKey      Key = "unexpected"
)

var requiredKeys = []Key{SystemKey, ReviewKey, TroubleshootingKey, UnexpectedKey}

// ReviewData is the input of the review template.
type ReviewData struct {
	Language string
	Code     string
}

// TroubleshootingData is the input of the troubleshooting template.
type TroubleshootingData struct {
	Model string
	URL   string
	Error string
}

// UnexpectedData is the input of the unexpected-error template.
type UnexpectedData struct {
	Error string
}

// Manager holds the parsed templates. It is safe for concurrent use.
type Manager struct {
	templates map[Key]*template.Template
}

// NewManager parses the embedded catalog.
func NewManager() (*Manager, error) {
	return Parse(catalog)
}

// Parse builds a Manager from a YAML document mapping keys to template text.
// Every key the service renders must be present.
func Parse(data []byte) (*Manager, error) {
	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse prompt catalog: %w", err)
	}

	m := &Manager{templates: make(map[Key]*template.Template, len(raw))}
	for name, text := range raw {
		tmpl, err := template.New(name).Option("missingkey=error").Parse(text)
		if err != nil {
			return nil, fmt.Errorf("could not parse template %q: %w", name, err)
		}
		m.templates[Key(name)] = tmpl
	}

	for _, key := range requiredKeys {
		if _, ok := m.templates[key]; !ok {
			return nil, fmt.Errorf("prompt catalog is missing template %q", key)
		}
	}
	return m, nil
}

// Render executes the template registered under key.
func (m *Manager) Render(key Key, data any) (string, error) {
	tmpl, ok := m.templates[key]
	if !ok {
		return "", fmt.Errorf("no template found for key '%s'", key)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", key, err)
	}
	return buf.String(), nil
}

// ReviewPrompt renders the system persona and the user prompt for code.
func (m *Manager) ReviewPrompt(code, language string) (core.Prompt, error) {
	system, err := m.Render(SystemKey, nil)
	if err != nil {
		return core.Prompt{}, err
	}
	user, err := m.Render(ReviewKey, ReviewData{
		Language: strings.TrimSpace(language),
		Code:     code,
	})
	if err != nil {
		return core.Prompt{}, err
	}
	return core.Prompt{System: system, User: user}, nil
}
