package extract

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/minios-linux/termex/settings"
)

// ---------------------------------------------------------------------------
// Prompt templates
// ---------------------------------------------------------------------------

// Prompt keys in prompts.json.
const (
	PromptSystem              = "system"
	PromptParallel            = "parallel"
	PromptMonolingual         = "monolingual"
	PromptFreeFormParallel    = "freeform_parallel"
	PromptFreeFormMonolingual = "freeform_monolingual"
)

// DefaultSystemPrompt is sent as the system message of every request.
const DefaultSystemPrompt = `You extract terminology from texts. Output only valid JSON arrays. Never include instruction text in your output.`

const outputExample = `Output ONLY a JSON array like this:
[{"source":"中文術語","target":"English term","category":"type"}]`

// DefaultParallelPrompt is the category-guided prompt for a segment with a
// target excerpt.
const DefaultParallelPrompt = `You are a bilingual terminology extractor. Extract {{sourceLang}}-{{targetLang}} term pairs from the parallel texts below.

<source_text>
{{source}}
</source_text>

<target_text>
{{target}}
</target_text>

Instructions:
- Extract {{count}} terminology pairs
- Match {{sourceLang}} terms with their {{targetLang}} translations from the texts
- Include: proper nouns, technical terms, organizations, places, dates/times, chemicals, medical terms
- {{focus}}
- Use categories: medical, organization, place, social, technical, chemical, date, general

` + outputExample

// DefaultMonolingualPrompt is the category-guided prompt for a segment
// without a target excerpt.
const DefaultMonolingualPrompt = `You are a bilingual terminology extractor. Extract key {{sourceLang}} terms with {{targetLang}} translations from the text below.

<source_text>
{{source}}
</source_text>

Instructions:
- Extract {{count}} terms with accurate {{targetLang}} translations
- Include: proper nouns, technical terms, organizations, places, dates/times, chemicals, medical terms
- {{focus}}
- Use categories: medical, organization, place, social, technical, chemical, date, general

` + outputExample

// DefaultFreeFormParallelPrompt follows the user's own command instead of
// the category template.
const DefaultFreeFormParallelPrompt = `You are a bilingual terminology extractor working on the parallel {{sourceLang}} and {{targetLang}} texts below.

<source_text>
{{source}}
</source_text>

<target_text>
{{target}}
</target_text>

Task: {{command}}

Follow the task exactly and return only the items it asks for.
- "source" is the {{sourceLang}} term as written in the source text
- "target" is its {{targetLang}} translation, taken from the target text where one exists
- "category" is one of: medical, organization, place, social, technical, chemical, date, name, general

` + outputExample

// DefaultFreeFormMonolingualPrompt is the free-form prompt without a target
// excerpt.
const DefaultFreeFormMonolingualPrompt = `You are a bilingual terminology extractor working on the {{sourceLang}} text below.

<source_text>
{{source}}
</source_text>

Task: {{command}}

Follow the task exactly and return only the items it asks for.
- "source" is the {{sourceLang}} term as written in the text
- "target" is an accurate {{targetLang}} translation
- "category" is one of: medical, organization, place, social, technical, chemical, date, name, general

` + outputExample

// PromptsConfig holds prompt templates loaded from prompts.json.
type PromptsConfig struct {
	Prompts map[string]string `json:"prompts"`
}

// DefaultPrompts returns all built-in templates keyed by prompt name.
func DefaultPrompts() map[string]string {
	return map[string]string{
		PromptSystem:              DefaultSystemPrompt,
		PromptParallel:            DefaultParallelPrompt,
		PromptMonolingual:         DefaultMonolingualPrompt,
		PromptFreeFormParallel:    DefaultFreeFormParallelPrompt,
		PromptFreeFormMonolingual: DefaultFreeFormMonolingualPrompt,
	}
}

// PromptKeys returns the template names, sorted.
func PromptKeys() []string {
	keys := make([]string, 0, 5)
	for k := range DefaultPrompts() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// LoadPromptsFromFile loads templates from a JSON file.
// A missing file is not an error; it returns nil and the built-in defaults apply.
func LoadPromptsFromFile(path string) (*PromptsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var config PromptsConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse prompts file: %w", err)
	}
	for key := range config.Prompts {
		if _, ok := DefaultPrompts()[key]; !ok {
			return nil, fmt.Errorf("prompts file %s: unknown prompt %q", path, key)
		}
	}
	return &config, nil
}

// WriteDefaultPrompts writes the built-in templates to path as formatted JSON.
// An existing file is left alone unless overwrite is set.
func WriteDefaultPrompts(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("prompts file %s already exists", path)
		}
	}
	data, err := json.MarshalIndent(PromptsConfig{Prompts: DefaultPrompts()}, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling default prompts: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating prompts directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing default prompts file: %w", err)
	}
	return nil
}

// LoadPromptsFromDefaultLocations loads prompts.json from the user data
// directory (~/.local/share/termex, next to auth.json). It returns the
// loaded config and its path; both are empty when the file does not exist.
func LoadPromptsFromDefaultLocations() (*PromptsConfig, string, error) {
	path, err := settings.PromptsFilePath()
	if err != nil {
		return nil, "", fmt.Errorf("cannot determine prompts file path: %w", err)
	}
	config, err := LoadPromptsFromFile(path)
	if err != nil || config == nil {
		return nil, "", err
	}
	return config, path, nil
}

// get returns the template for key, falling back to the built-in default.
func (p *PromptsConfig) get(key string) string {
	if p != nil {
		if prompt, ok := p.Prompts[key]; ok && strings.TrimSpace(prompt) != "" {
			return prompt
		}
	}
	return DefaultPrompts()[key]
}

// promptVars are the values substituted into a template.
type promptVars struct {
	Source     string
	Target     string
	Count      string
	Focus      string
	Command    string
	SourceLang string
	TargetLang string
}

// render substitutes {{name}} placeholders in one pass, so placeholder-like
// text inside the source is left untouched.
func render(tmpl string, v promptVars) string {
	return strings.NewReplacer(
		"{{source}}", v.Source,
		"{{target}}", v.Target,
		"{{count}}", v.Count,
		"{{focus}}", v.Focus,
		"{{command}}", v.Command,
		"{{sourceLang}}", v.SourceLang,
		"{{targetLang}}", v.TargetLang,
	).Replace(tmpl)
}
