package settings

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestDataDirAndFilePathUseXDGDataHome(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	dir, err := DataDir()
	if err != nil {
		t.Fatalf("DataDir() error: %v", err)
	}
	if want := filepath.Join(tmp, "termex"); dir != want {
		t.Fatalf("DataDir() = %q, want %q", dir, want)
	}
	if want := filepath.Join(tmp, "termex", "auth.json"); FilePath() != want {
		t.Fatalf("FilePath() = %q, want %q", FilePath(), want)
	}
	prompts, err := PromptsFilePath()
	if err != nil || prompts != filepath.Join(tmp, "termex", "prompts.json") {
		t.Fatalf("PromptsFilePath() = %q, %v", prompts, err)
	}
}

func TestSaveLoadRemoveLifecycle(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)

	store := Store{
		"openai":        {Key: "sk-abcdef123456"},
		"custom-openai": {Key: "k", BaseURL: "http://localhost:8080/v1", Model: "qwen"},
	}
	if err := Save(store); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	info, err := os.Stat(filepath.Join(tmp, "termex", "auth.json"))
	if err != nil {
		t.Fatalf("stat auth.json: %v", err)
	}
	if info.Mode().Perm() != 0600 {
		t.Fatalf("auth.json mode = %o, want 600", info.Mode().Perm())
	}

	if got := GetAPIKey("openai"); got != "sk-abcdef123456" {
		t.Fatalf("GetAPIKey(openai) = %q", got)
	}
	if GetBaseURL("custom-openai") != "http://localhost:8080/v1" || GetModel("custom-openai") != "qwen" {
		t.Fatalf("custom-openai entry = %#v", Get("custom-openai"))
	}
	if got := Providers(); !reflect.DeepEqual(got, []string{"custom-openai", "openai"}) {
		t.Fatalf("Providers() = %v", got)
	}

	// Re-keying keeps the stored endpoint.
	if err := SetAPIKey("custom-openai", "k2"); err != nil {
		t.Fatalf("SetAPIKey() error: %v", err)
	}
	if e := Get("custom-openai"); e.Key != "k2" || e.BaseURL == "" || e.Model != "qwen" {
		t.Fatalf("after SetAPIKey: %#v", e)
	}

	if err := Remove("openai"); err != nil {
		t.Fatalf("Remove(openai) error: %v", err)
	}
	if Get("openai") != nil {
		t.Fatal("openai still present after Remove")
	}
	if err := Remove("never-stored"); err != nil {
		t.Fatalf("Remove(missing) error: %v", err)
	}

	if err := RemoveAll(); err != nil {
		t.Fatalf("RemoveAll() error: %v", err)
	}
	if len(Load()) != 0 {
		t.Fatal("Load() not empty after RemoveAll")
	}
}

func TestLoadInvalidFileReturnsEmptyStore(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("XDG_DATA_HOME", tmp)
	os.MkdirAll(filepath.Join(tmp, "termex"), 0700)
	os.WriteFile(filepath.Join(tmp, "termex", "auth.json"), []byte("{broken"), 0600)

	if store := Load(); store == nil || len(store) != 0 {
		t.Fatalf("Load() = %#v, want empty store", store)
	}
}

func TestResolveAPIKeyOrder(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", t.TempDir())
	t.Setenv(EnvAPIKey, "")

	if k, src := ResolveAPIKey("groq", ""); k != "" || src != SourceNone {
		t.Fatalf("empty lookup = %q, %q", k, src)
	}

	SetAPIKey("groq", "stored-key")
	if k, src := ResolveAPIKey("groq", ""); k != "stored-key" || src != SourceStore {
		t.Fatalf("store lookup = %q, %q", k, src)
	}

	t.Setenv(EnvAPIKey, "env-key")
	if k, src := ResolveAPIKey("groq", ""); k != "env-key" || src != SourceEnv {
		t.Fatalf("env lookup = %q, %q", k, src)
	}

	if k, src := ResolveAPIKey("groq", " flag-key "); k != "flag-key" || src != SourceFlag {
		t.Fatalf("flag lookup = %q, %q", k, src)
	}
}

func TestMaskKey(t *testing.T) {
	if got := MaskKey("short"); got != "****" {
		t.Errorf("MaskKey(short) = %q", got)
	}
	if got := MaskKey("sk-1234567890abcd"); got != "sk-1...abcd" {
		t.Errorf("MaskKey(long) = %q", got)
	}
}
