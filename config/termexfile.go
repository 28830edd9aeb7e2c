// Package config handles the .termex.yaml project file.
//
// A .termex.yaml in the project root sets defaults for `termex extract`:
// provider and model, language pair, pipeline sizes, filter groups and
// export formats. Command-line flags override every value.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/minios-linux/termex/export"
	"github.com/minios-linux/termex/llm"
	"github.com/minios-linux/termex/term"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// TermexFile is the top-level .termex.yaml structure.
type TermexFile struct {
	// Provider is the model provider ID (default "llm7").
	Provider string `yaml:"provider,omitempty"`
	// Model overrides the provider's default model.
	Model string `yaml:"model,omitempty"`
	// BaseURL overrides the provider's endpoint.
	BaseURL string `yaml:"base_url,omitempty"`
	// Proxy is an HTTP/HTTPS proxy URL.
	Proxy string `yaml:"proxy,omitempty"`
	// Timeout is the per-request timeout, e.g. "90s".
	Timeout time.Duration `yaml:"timeout,omitempty"`
	// MaxRetries is the number of retries per model call.
	MaxRetries int `yaml:"max_retries,omitempty"`

	// SourceLang and TargetLang are language codes (default "zh-TW", "en").
	SourceLang string `yaml:"source_lang,omitempty"`
	TargetLang string `yaml:"target_lang,omitempty"`

	// ChunkSize is the segment size in characters (default 1500).
	ChunkSize int `yaml:"chunk_size,omitempty"`
	// MaxChars caps each input text (default 20000).
	MaxChars int `yaml:"max_chars,omitempty"`
	// MaxTerms caps the final list (default 150).
	MaxTerms int `yaml:"max_terms,omitempty"`
	// RequestDelay is the pause between model calls (default 500ms).
	RequestDelay time.Duration `yaml:"request_delay,omitempty"`
	// Concurrency is the number of segments in flight (default 1).
	Concurrency int `yaml:"concurrency,omitempty"`

	// Focus and Filter are the default focus text and category selector.
	Focus  string `yaml:"focus,omitempty"`
	Filter string `yaml:"filter,omitempty"`
	// Groups adds or redefines filter selectors, e.g. health: [medical, chemical].
	Groups map[string][]string `yaml:"groups,omitempty"`
	// ReplaceGroups drops the built-in selectors instead of extending them.
	ReplaceGroups bool `yaml:"replace_groups,omitempty"`

	// Export lists the formats written after each run.
	Export []string `yaml:"export,omitempty"`
	// OutDir is the export directory relative to .termex.yaml (default ".").
	OutDir string `yaml:"out_dir,omitempty"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// FileName is the default config file name.
const FileName = ".termex.yaml"

// Default language pair.
const (
	DefaultSourceLang = "zh-TW"
	DefaultTargetLang = "en"
)

// LoadTermexFile loads and validates .termex.yaml from the given directory.
// Returns nil if no .termex.yaml exists.
func LoadTermexFile(rootDir string) (*TermexFile, error) {
	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var tf TermexFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if err := tf.applyDefaults(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	// out_dir is relative to the config file.
	if !filepath.IsAbs(tf.OutDir) {
		tf.OutDir = filepath.Join(rootDir, tf.OutDir)
	}
	return &tf, nil
}

// Default returns the configuration used when no .termex.yaml exists.
func Default() *TermexFile {
	tf := &TermexFile{}
	// Defaults alone always validate.
	_ = tf.applyDefaults()
	return tf
}

func (tf *TermexFile) applyDefaults() error {
	if tf.Provider == "" {
		tf.Provider = llm.DefaultProviderID
	}
	if _, ok := llm.LookupProvider(tf.Provider); !ok {
		return fmt.Errorf("unknown provider %q (valid: %s)", tf.Provider, strings.Join(llm.ProviderIDs(), ", "))
	}
	if tf.SourceLang == "" {
		tf.SourceLang = DefaultSourceLang
	}
	if tf.TargetLang == "" {
		tf.TargetLang = DefaultTargetLang
	}
	if tf.Filter == "" {
		tf.Filter = term.All
	}
	tf.Filter = strings.ToLower(strings.TrimSpace(tf.Filter))
	if tf.OutDir == "" {
		tf.OutDir = "."
	}

	for name, v := range map[string]int{
		"max_retries": tf.MaxRetries,
		"chunk_size":  tf.ChunkSize,
		"max_chars":   tf.MaxChars,
		"max_terms":   tf.MaxTerms,
		"concurrency": tf.Concurrency,
	} {
		if v < 0 {
			return fmt.Errorf("%s must not be negative (got %d)", name, v)
		}
	}
	if tf.Timeout < 0 || tf.RequestDelay < 0 {
		return fmt.Errorf("timeout and request_delay must not be negative")
	}

	for i, f := range tf.Export {
		format, err := export.ParseFormat(f)
		if err != nil {
			return err
		}
		tf.Export[i] = string(format)
	}

	for name, tags := range tf.Groups {
		if strings.TrimSpace(name) == "" || len(tags) == 0 {
			return fmt.Errorf("filter group %q must have a name and at least one category", name)
		}
		if strings.EqualFold(name, term.All) {
			return fmt.Errorf("filter group %q is reserved", name)
		}
	}
	return nil
}

// FilterGroups returns the selector table: the built-in groups extended by
// the configured ones, or only the configured ones when ReplaceGroups is set.
func (tf *TermexFile) FilterGroups() term.Groups {
	groups := term.Groups{}
	if !tf.ReplaceGroups {
		groups = term.DefaultGroups()
	}
	for name, tags := range tf.Groups {
		lowered := make([]string, len(tags))
		for i, tag := range tags {
			lowered[i] = strings.ToLower(strings.TrimSpace(tag))
		}
		groups[strings.ToLower(strings.TrimSpace(name))] = lowered
	}
	return groups
}

// ExportFormats returns the configured export formats.
func (tf *TermexFile) ExportFormats() []export.Format {
	formats := make([]export.Format, 0, len(tf.Export))
	for _, f := range tf.Export {
		formats = append(formats, export.Format(f))
	}
	return formats
}
