package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/minios-linux/termex/config"
	"github.com/minios-linux/termex/extract"
	"github.com/minios-linux/termex/llm"
	"github.com/minios-linux/termex/settings"
)

func isolateSettings(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv(settings.EnvAPIKey, "")
}

func TestMergeConfig_FlagsWin(t *testing.T) {
	cfg := &config.TermexFile{
		Provider:   llm.ProviderGroq,
		Model:      "llama-3.3-70b-versatile",
		MaxTerms:   20,
		Filter:     "medical",
		SourceLang: "zh-HK",
		Export:     []string{"tbx"},
		Groups:     map[string][]string{"health": {"medical"}},
	}
	a := extractArgs{
		provider:   llm.ProviderOpenAI,
		model:      "",
		maxTerms:   150,
		filter:     "all",
		sourceLang: config.DefaultSourceLang,
	}
	changed := func(name string) bool { return name == "provider" || name == "filter" }

	got := mergeConfig(cfg, a, changed)

	if got.provider != llm.ProviderOpenAI {
		t.Errorf("provider = %q, want flag value", got.provider)
	}
	if got.model != "llama-3.3-70b-versatile" {
		t.Errorf("model = %q, want config value", got.model)
	}
	if got.maxTerms != 20 {
		t.Errorf("maxTerms = %d, want 20", got.maxTerms)
	}
	if got.filter != "all" {
		t.Errorf("filter = %q, want flag value", got.filter)
	}
	if got.sourceLang != "zh-HK" {
		t.Errorf("sourceLang = %q, want zh-HK", got.sourceLang)
	}
	if !reflect.DeepEqual(got.exports, []string{"tbx"}) {
		t.Errorf("exports = %#v, want [tbx]", got.exports)
	}
	if _, ok := got.groups["health"]; !ok {
		t.Errorf("groups = %#v, want configured group", got.groups)
	}
	if _, ok := got.groups["medical"]; !ok {
		t.Errorf("groups = %#v, want built-in groups kept", got.groups)
	}
}

func TestResolveProvider_StoreAndFlags(t *testing.T) {
	isolateSettings(t)
	if err := settings.Set(llm.ProviderCustomOpenAI, &settings.Info{
		Key:     "sk-stored-0000",
		BaseURL: "https://llm.example.com/v1",
		Model:   "stored-model",
	}); err != nil {
		t.Fatalf("settings.Set() error: %v", err)
	}

	prov, source, err := resolveProvider(extractArgs{provider: "Custom-OpenAI"})
	if err != nil {
		t.Fatalf("resolveProvider() error: %v", err)
	}
	if prov.ID != llm.ProviderCustomOpenAI || prov.BaseURL != "https://llm.example.com/v1" || prov.Model != "stored-model" {
		t.Fatalf("unexpected provider: %+v", prov)
	}
	if prov.APIKey != "sk-stored-0000" || source != settings.SourceStore {
		t.Fatalf("key = %q from %q, want stored key", prov.APIKey, source)
	}

	prov, source, err = resolveProvider(extractArgs{
		provider: llm.ProviderCustomOpenAI,
		apiKey:   "sk-flag",
		model:    "flag-model",
		baseURL:  "http://localhost:8080/v1",
		timeout:  5 * time.Second,
	})
	if err != nil {
		t.Fatalf("resolveProvider() error: %v", err)
	}
	if prov.APIKey != "sk-flag" || source != settings.SourceFlag {
		t.Errorf("key = %q from %q, want flag key", prov.APIKey, source)
	}
	if prov.Model != "flag-model" || prov.BaseURL != "http://localhost:8080/v1" || prov.Timeout != 5*time.Second {
		t.Errorf("flags not applied: %+v", prov)
	}
}

func TestResolveProvider_DefaultAndUnknown(t *testing.T) {
	isolateSettings(t)

	prov, source, err := resolveProvider(extractArgs{})
	if err != nil {
		t.Fatalf("resolveProvider() error: %v", err)
	}
	if prov.ID != llm.DefaultProviderID || prov.Model == "" || source != settings.SourceNone {
		t.Fatalf("unexpected default provider: %+v (key source %q)", prov, source)
	}

	if _, _, err := resolveProvider(extractArgs{provider: "copilot"}); err == nil {
		t.Fatal("resolveProvider(copilot) error = nil, want unknown provider")
	}
}

func TestValidateProvider(t *testing.T) {
	oldProbe := ollamaProbe
	t.Cleanup(func() { ollamaProbe = oldProbe })
	ollamaProbe = func(string) error { return errors.New("connection refused") }

	providers := llm.DefaultProviders()
	groqWithModel := providers[llm.ProviderGroq]
	groqWithModel.Model = "llama-3.3-70b-versatile"
	ollama := providers[llm.ProviderOllama]
	ollama.Model = "qwen2.5"

	tests := []struct {
		name    string
		prov    llm.Provider
		wantErr string
	}{
		{name: "default llm7 needs nothing", prov: providers[llm.ProviderLLM7]},
		{name: "custom endpoint missing", prov: providers[llm.ProviderCustomOpenAI], wantErr: "endpoint URL"},
		{name: "model missing", prov: providers[llm.ProviderGroq], wantErr: "--model is required"},
		{name: "key missing", prov: groqWithModel, wantErr: "requires an API key"},
		{name: "ollama not running", prov: ollama, wantErr: "Ollama server"},
	}

	for _, tc := range tests {
		err := validateProvider(tc.prov)
		if tc.wantErr == "" {
			if err != nil {
				t.Fatalf("%s: validateProvider() error: %v", tc.name, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
			t.Fatalf("%s: validateProvider() error = %v, want %q", tc.name, err, tc.wantErr)
		}
	}
}

func TestChooseProvider(t *testing.T) {
	if got, ok := chooseProvider("1"); !ok || got != llm.ProviderLLM7 {
		t.Fatalf("chooseProvider(1) = %q, %v", got, ok)
	}
	if got, ok := chooseProvider(" GROQ "); !ok || got != llm.ProviderGroq {
		t.Fatalf("chooseProvider(GROQ) = %q, %v", got, ok)
	}
	if _, ok := chooseProvider("ollama"); ok {
		t.Fatal("chooseProvider(ollama) ok = true, want false")
	}
	if _, ok := chooseProvider("99"); ok {
		t.Fatal("chooseProvider(99) ok = true, want false")
	}
}

// newModelServer answers every chat completion with content.
func newModelServer(t *testing.T, content string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Type", "application/json")
		body := `{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":` +
			jsonString(content) + `},"finish_reason":"stop"}]}`
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func jsonString(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
	return `"` + r.Replace(s) + `"`
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("os.WriteFile() error: %v", err)
	}
	return path
}

func TestRunExtract_EndToEnd(t *testing.T) {
	isolateSettings(t)
	dir := t.TempDir()
	srv, calls := newModelServer(t, "```json\n"+
		`[{"source":"登革熱","target":"dengue fever","category":"medical"},`+
		`{"source":"衛生署","target":"Department of Health","category":"organization"}]`+"\n```")

	a := extractArgs{
		source:       writeFile(t, dir, "zh.txt", "衛生署提醒市民預防登革熱。"),
		target:       writeFile(t, dir, "en.txt", "The Department of Health reminds the public to prevent dengue fever."),
		filter:       "all",
		provider:     llm.ProviderCustomOpenAI,
		baseURL:      srv.URL,
		model:        "test-model",
		requestDelay: -1,
		sourceLang:   "zh-TW",
		targetLang:   "en",
		format:       outputCSV,
		exports:      []string{"json", "tbx"},
		outDir:       filepath.Join(dir, "out"),
		debugLog:     filepath.Join(dir, "debug.log"),
	}

	var stdout bytes.Buffer
	if err := runExtract(context.Background(), a, &stdout); err != nil {
		t.Fatalf("runExtract() error: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("model calls = %d, want 1", calls.Load())
	}

	want := "Source,Target,Category\n" +
		`"登革熱","dengue fever","medical"` + "\n" +
		`"衛生署","Department of Health","organization"` + "\n"
	if stdout.String() != want {
		t.Fatalf("stdout = %q, want %q", stdout.String(), want)
	}

	data, err := os.ReadFile(filepath.Join(dir, "out", "terms.json"))
	if err != nil {
		t.Fatalf("reading JSON export: %v", err)
	}
	if !strings.Contains(string(data), `"target": "dengue fever"`) {
		t.Errorf("terms.json = %s", data)
	}
	data, err = os.ReadFile(filepath.Join(dir, "out", "terms.tbx"))
	if err != nil {
		t.Fatalf("reading TBX export: %v", err)
	}
	if !strings.Contains(string(data), `xml:lang="zh"`) {
		t.Errorf("terms.tbx lacks zh langSet: %s", data)
	}
	logData, err := os.ReadFile(a.debugLog)
	if err != nil {
		t.Fatalf("reading debug log: %v", err)
	}
	if !strings.Contains(string(logData), "=== EXTRACTION SUMMARY ===") {
		t.Errorf("debug log = %s", logData)
	}
}

func TestRunExtract_EmptyResultIsNotAnError(t *testing.T) {
	isolateSettings(t)
	dir := t.TempDir()
	srv, _ := newModelServer(t, "[]")

	a := extractArgs{
		source:       writeFile(t, dir, "zh.txt", "今天天氣很好。"),
		provider:     llm.ProviderCustomOpenAI,
		baseURL:      srv.URL,
		model:        "test-model",
		requestDelay: -1,
		format:       outputTable,
		exports:      []string{"csv"},
		outDir:       filepath.Join(dir, "out"),
	}

	var stdout bytes.Buffer
	if err := runExtract(context.Background(), a, &stdout); err != nil {
		t.Fatalf("runExtract() error: %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("stdout = %q, want empty", stdout.String())
	}
	if _, err := os.Stat(filepath.Join(dir, "out", "terms.csv")); !os.IsNotExist(err) {
		t.Errorf("terms.csv written for empty result (stat err %v)", err)
	}
}

func TestRunExtract_RejectsBadArguments(t *testing.T) {
	isolateSettings(t)
	dir := t.TempDir()
	src := writeFile(t, dir, "zh.txt", "登革熱")

	tests := []struct {
		name    string
		args    extractArgs
		wantErr string
	}{
		{name: "no source", args: extractArgs{format: outputTable}, wantErr: "--source"},
		{name: "bad format", args: extractArgs{source: src, format: "xml"}, wantErr: "output format"},
		{name: "bad export", args: extractArgs{source: src, format: outputTable, exports: []string{"docx"}}, wantErr: "docx"},
		{name: "missing file", args: extractArgs{source: filepath.Join(dir, "missing.txt"), format: outputTable}, wantErr: "missing.txt"},
		{name: "both stdin", args: extractArgs{source: "-", target: "-", format: outputTable}, wantErr: "stdin"},
	}

	for _, tc := range tests {
		err := runExtract(context.Background(), tc.args, io.Discard)
		if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
			t.Fatalf("%s: runExtract() error = %v, want %q", tc.name, err, tc.wantErr)
		}
	}
}

func TestPrintCredentials(t *testing.T) {
	isolateSettings(t)
	if err := settings.SetAPIKey(llm.ProviderGroq, "gsk_1234567890abcdef"); err != nil {
		t.Fatalf("SetAPIKey() error: %v", err)
	}

	var buf bytes.Buffer
	printCredentials(&buf)
	out := buf.String()

	if !strings.Contains(out, "gsk_...cdef") {
		t.Errorf("output lacks masked groq key:\n%s", out)
	}
	if strings.Contains(out, "gsk_1234567890abcdef") {
		t.Errorf("output leaks the full key:\n%s", out)
	}
	if !strings.Contains(out, "anonymous") {
		t.Errorf("output lacks llm7 anonymous status:\n%s", out)
	}
}

func TestDescribeKey(t *testing.T) {
	if got := describeKey("", settings.SourceNone); got != "none" {
		t.Fatalf("describeKey(none) = %q", got)
	}
	if got := describeKey("sk-abcdefghijkl", settings.SourceEnv); got != "sk-a...ijkl ("+settings.EnvAPIKey+")" {
		t.Fatalf("describeKey(env) = %q", got)
	}
}

func TestPrintPromptsPath_ListsTemplateKeys(t *testing.T) {
	var buf bytes.Buffer
	if err := printPromptsPath(&buf, "/tmp/termex/prompts.json"); err != nil {
		t.Fatalf("printPromptsPath() error: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 || lines[0] != "/tmp/termex/prompts.json" {
		t.Fatalf("output = %q, want path then templates", buf.String())
	}
	for _, key := range []string{extract.PromptSystem, extract.PromptParallel, extract.PromptFreeFormMonolingual} {
		if !strings.Contains(lines[1], key) {
			t.Errorf("templates line %q missing %q", lines[1], key)
		}
	}
}

func TestMergeConfig_ExportFromConfigDoesNotAliasDefaults(t *testing.T) {
	defaults := []string{"csv"}
	a := extractArgs{exports: defaults}
	cfg := &config.TermexFile{Export: []string{"tbx", "json"}}

	got := mergeConfig(cfg, a, func(string) bool { return false })

	if !reflect.DeepEqual(got.exports, []string{"tbx", "json"}) {
		t.Errorf("exports = %#v, want config formats", got.exports)
	}
	if defaults[0] != "csv" {
		t.Errorf("defaults slice modified: %#v", defaults)
	}
}
