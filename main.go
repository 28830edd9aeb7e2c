// termex: bilingual terminology extraction with AI models.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/minios-linux/termex/config"
	"github.com/minios-linux/termex/export"
	"github.com/minios-linux/termex/extract"
	"github.com/minios-linux/termex/i18n"
	"github.com/minios-linux/termex/input"
	"github.com/minios-linux/termex/langmeta"
	"github.com/minios-linux/termex/llm"
	"github.com/minios-linux/termex/settings"
	"github.com/minios-linux/termex/term"
	"github.com/spf13/cobra"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// ANSI colors
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[0;31m"
	colorGreen  = "\033[0;32m"
	colorYellow = "\033[1;33m"
	colorBlue   = "\033[0;34m"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorBlue+"[INFO]"+colorReset+" "+format+"\n", args...)
}

func logSuccess(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorGreen+"[OK]"+colorReset+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorYellow+"[WARN]"+colorReset+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, colorRed+"[ERROR]"+colorReset+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var rootDir string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "termex",
		Short: i18n.T("Bilingual terminology extraction with AI models"),
		Long: `termex extracts bilingual terminology (source term, translation, category)
from a source text and an optional parallel translation using an AI model.

Commands:
  extract     Extract a term list from text files
  auth        Manage provider credentials
  prompts     Manage custom prompt templates

AI Providers:
  llm7           LLM7 (default, works without a key)
  openai         OpenAI, API key required
  groq           Groq, API key required
  google         Google AI (Gemini), API key required
  anthropic      Anthropic, API key required
  ollama         Ollama local server
  custom-openai  Custom OpenAI-compatible endpoint`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&rootDir, "root", ".", "Project root directory (location of .termex.yaml)")

	root.AddCommand(
		newExtractCmd(),
		newAuthCmd(),
		newPromptsCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// signalContext returns a context cancelled on the first interrupt.
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		select {
		case <-sigCh:
			logWarning("%s", i18n.T("Interrupted, cancelling pending requests..."))
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()
	return ctx, cancel
}

// ---------------------------------------------------------------------------
// version
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("termex version %s\n", version)
			fmt.Printf("  commit:    %s\n", commit)
			fmt.Printf("  built:     %s\n", date)
		},
	}
}

// ---------------------------------------------------------------------------
// extract
// ---------------------------------------------------------------------------

// Output formats for the term list printed to stdout.
const (
	outputTable = "table"
	outputCSV   = "csv"
	outputJSON  = "json"
)

type extractArgs struct {
	source, target string
	focus, filter  string
	maxTerms       int

	provider, model, apiKey, baseURL string
	proxy                            string
	timeout                          time.Duration
	maxRetries                       int

	chunkSize, maxChars    int
	requestDelay           time.Duration
	concurrency            int
	sourceLang, targetLang string

	format   string
	exports  []string
	outDir   string
	debugLog string
	verbose  bool

	groups term.Groups
}

func newExtractCmd() *cobra.Command {
	var a extractArgs

	cmd := &cobra.Command{
		Use:   "extract",
		Short: i18n.T("Extract bilingual terminology from text"),
		Long: `Extract a bilingual term list from a source text and an optional parallel
translation. Long texts are split into segments that are sent to the model one
by one (or concurrently with --concurrency); the answers are validated,
deduplicated, filtered by category and sorted.

Defaults come from .termex.yaml in --root when present; flags override it.
Use - to read a text from stdin. .html files are reduced to plain text.

Examples:
  # Extract from a Chinese press release with the anonymous default provider
  termex extract --source release.zh.txt

  # Parallel texts, medical terms only, exported for CAT tools
  termex extract --source zh.txt --target en.txt --filter medical --export csv,tbx

  # Free-form command
  termex extract --source zh.txt --focus "only list the government departments"

  # Another provider
  termex extract --source zh.txt --provider groq --model llama-3.3-70b-versatile`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadTermexFile(rootDir)
			if err != nil {
				return err
			}
			if cfg == nil {
				cfg = config.Default()
			}
			a = mergeConfig(cfg, a, cmd.Flags().Changed)

			ctx, cancel := signalContext()
			defer cancel()
			return runExtract(ctx, a, os.Stdout)
		},
	}

	// Input
	cmd.Flags().StringVarP(&a.source, "source", "s", "", "Source text file (required, - for stdin)")
	cmd.Flags().StringVarP(&a.target, "target", "t", "", "Parallel translation of the source text (optional)")
	cmd.Flags().StringVar(&a.sourceLang, "source-lang", config.DefaultSourceLang, "Source language code")
	cmd.Flags().StringVar(&a.targetLang, "target-lang", config.DefaultTargetLang, "Target language code")

	// Extraction behavior
	cmd.Flags().StringVar(&a.focus, "focus", "", "Topic keyword (e.g. medical) or a free-form command")
	cmd.Flags().StringVar(&a.filter, "filter", term.All, "Category filter: "+strings.Join(term.DefaultGroups().Selectors(), ", "))
	cmd.Flags().IntVar(&a.maxTerms, "max-terms", extract.DefaultMaxTerms, "Maximum number of terms returned")
	cmd.Flags().IntVar(&a.chunkSize, "chunk-size", 0, "Segment size in characters (0 = default 1500)")
	cmd.Flags().IntVar(&a.maxChars, "max-chars", extract.DefaultMaxChars, "Maximum characters read from each text")
	cmd.Flags().DurationVar(&a.requestDelay, "request-delay", extract.DefaultRequestDelay, "Delay between model requests")
	cmd.Flags().IntVar(&a.concurrency, "concurrency", 1, "Segments processed concurrently")

	// Provider selection
	cmd.Flags().StringVar(&a.provider, "provider", llm.DefaultProviderID, "AI provider: "+strings.Join(llm.ProviderIDs(), ", "))
	cmd.Flags().StringVar(&a.model, "model", "", "Model name (default: provider default)")
	cmd.Flags().StringVar(&a.apiKey, "api-key", "", "API key (or "+settings.EnvAPIKey+" env var)")
	cmd.Flags().StringVar(&a.baseURL, "base-url", "", "Custom API base URL")

	// Network
	cmd.Flags().DurationVar(&a.timeout, "timeout", 0, "Request timeout (0 = provider default)")
	cmd.Flags().StringVar(&a.proxy, "proxy", "", "HTTP/HTTPS proxy URL")
	cmd.Flags().IntVar(&a.maxRetries, "max-retries", 3, "Maximum retries per model request")

	// Output
	cmd.Flags().StringVarP(&a.format, "format", "f", outputTable, "Output format: table, csv, json")
	cmd.Flags().StringSliceVar(&a.exports, "export", nil, "Also write files: csv, json, tsv, tbx, po")
	cmd.Flags().StringVarP(&a.outDir, "out", "o", ".", "Directory for exported files")
	cmd.Flags().StringVar(&a.debugLog, "debug-log", "", "Write the extraction diagnostic log to this file")
	cmd.Flags().BoolVar(&a.verbose, "verbose", false, "Enable detailed logging")

	_ = cmd.RegisterFlagCompletionFunc("provider", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		providers := llm.DefaultProviders()
		completions := make([]string, 0, len(providers))
		for _, id := range llm.ProviderIDs() {
			completions = append(completions, id+"\t"+providers[id].Name)
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("filter", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		groups := term.DefaultGroups()
		if cfg, err := config.LoadTermexFile(rootDir); err == nil && cfg != nil {
			groups = cfg.FilterGroups()
		}
		return groups.Selectors(), cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("format", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{outputTable, outputCSV, outputJSON}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("export", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		formats := export.Formats()
		completions := make([]string, len(formats))
		for i, f := range formats {
			completions[i] = string(f)
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.RegisterFlagCompletionFunc("source-lang", completeLanguages)
	_ = cmd.RegisterFlagCompletionFunc("target-lang", completeLanguages)

	return cmd
}

func completeLanguages(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	codes := langmeta.Codes()
	completions := make([]string, len(codes))
	for i, code := range codes {
		completions[i] = code + "\t" + langmeta.Resolve(code).Native
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// mergeConfig fills every flag the user did not set from the project file.
func mergeConfig(cfg *config.TermexFile, a extractArgs, changed func(string) bool) extractArgs {
	str := func(flag string, dst *string, v string) {
		if !changed(flag) && v != "" {
			*dst = v
		}
	}
	num := func(flag string, dst *int, v int) {
		if !changed(flag) && v > 0 {
			*dst = v
		}
	}
	dur := func(flag string, dst *time.Duration, v time.Duration) {
		if !changed(flag) && v > 0 {
			*dst = v
		}
	}

	str("provider", &a.provider, cfg.Provider)
	str("model", &a.model, cfg.Model)
	str("base-url", &a.baseURL, cfg.BaseURL)
	str("proxy", &a.proxy, cfg.Proxy)
	dur("timeout", &a.timeout, cfg.Timeout)
	num("max-retries", &a.maxRetries, cfg.MaxRetries)

	str("source-lang", &a.sourceLang, cfg.SourceLang)
	str("target-lang", &a.targetLang, cfg.TargetLang)
	num("chunk-size", &a.chunkSize, cfg.ChunkSize)
	num("max-chars", &a.maxChars, cfg.MaxChars)
	num("max-terms", &a.maxTerms, cfg.MaxTerms)
	dur("request-delay", &a.requestDelay, cfg.RequestDelay)
	num("concurrency", &a.concurrency, cfg.Concurrency)

	str("focus", &a.focus, cfg.Focus)
	str("filter", &a.filter, cfg.Filter)
	str("out", &a.outDir, cfg.OutDir)
	if !changed("export") && len(cfg.Export) > 0 {
		a.exports = nil
		for _, f := range cfg.ExportFormats() {
			a.exports = append(a.exports, string(f))
		}
	}

	a.groups = cfg.FilterGroups()
	return a
}

func runExtract(ctx context.Context, a extractArgs, stdout io.Writer) error {
	if strings.TrimSpace(a.source) == "" {
		return fmt.Errorf("%s", i18n.T("--source is required (use - to read from stdin)"))
	}
	switch a.format {
	case outputTable, outputCSV, outputJSON:
	default:
		return fmt.Errorf(i18n.T("unknown output format %q (valid: table, csv, json)"), a.format)
	}
	exports := make([]export.Format, 0, len(a.exports))
	for _, name := range a.exports {
		f, err := export.ParseFormat(name)
		if err != nil {
			return err
		}
		exports = append(exports, f)
	}

	groups := a.groups
	if groups == nil {
		groups = term.DefaultGroups()
	}

	if a.target == input.Stdin && a.source == input.Stdin {
		return fmt.Errorf("%s", i18n.T("only one of --source and --target can read from stdin"))
	}
	sourceText, err := input.Read(a.source)
	if err != nil {
		return err
	}
	var targetText string
	if a.target != "" {
		if targetText, err = input.Read(a.target); err != nil {
			return err
		}
	}

	prov, keySource, err := resolveProvider(a)
	if err != nil {
		return err
	}
	if err := validateProvider(prov); err != nil {
		return err
	}
	client, err := llm.New(prov, llm.Options{
		Timeout:    a.timeout,
		MaxRetries: a.maxRetries,
		Verbose:    a.verbose,
	})
	if err != nil {
		return err
	}

	prompts, promptsPath, err := extract.LoadPromptsFromDefaultLocations()
	if err != nil {
		return err
	}
	if prompts != nil {
		logInfo(i18n.T("Using custom prompts from %s"), promptsPath)
	}

	logInfo(i18n.T("Provider: %s (%s), Model: %s"), prov.Name, prov.ID, prov.Model)
	if a.verbose {
		logInfo("API key: %s", describeKey(prov.APIKey, keySource))
		logInfo("Languages: %s -> %s", langmeta.PromptName(a.sourceLang), langmeta.PromptName(a.targetLang))
	}

	opts := extract.Options{
		ChunkSize:    a.chunkSize,
		MaxChars:     a.maxChars,
		RequestDelay: a.requestDelay,
		Concurrency:  a.concurrency,
		Groups:       groups,
		Prompts:      prompts,
		SourceLang:   langmeta.PromptName(a.sourceLang),
		TargetLang:   langmeta.PromptName(a.targetLang),
		OnError:      logWarning,
	}
	if a.verbose {
		opts.OnLog = logInfo
		opts.OnProgress = func(done, total int) {
			logInfo(i18n.T("Segment %d/%d done"), done, total)
		}
	}

	token := ""
	if keySource != settings.SourceNone {
		token = prov.APIKey
	}
	res, err := extract.New(client, opts).Run(ctx, extract.Request{
		SourceText: sourceText,
		TargetText: targetText,
		Focus:      a.focus,
		Filter:     a.filter,
		MaxTerms:   a.maxTerms,
		Token:      token,
	})
	if err != nil {
		return err
	}

	if a.debugLog != "" {
		if err := os.WriteFile(a.debugLog, []byte(res.Log()), 0644); err != nil {
			logWarning(i18n.T("Failed to write debug log: %v"), err)
		} else {
			logInfo(i18n.T("Debug log written to %s"), a.debugLog)
		}
	}

	if !res.HasResults() {
		logWarning("%s", res.Warning())
		return nil
	}

	if err := printTerms(stdout, a.format, res); err != nil {
		return err
	}
	logSuccess("%s", res.Summary())

	exportOpts := export.Options{
		SourceLang: langmeta.TBXTag(a.sourceLang),
		TargetLang: langmeta.TBXTag(a.targetLang),
		BOM:        true,
	}
	for _, f := range exports {
		path, err := export.WriteFile(a.outDir, f, res.Terms, exportOpts)
		if err != nil {
			return err
		}
		logSuccess(i18n.T("Exported %s"), path)
	}
	return nil
}

func printTerms(w io.Writer, format string, res *extract.Result) error {
	switch format {
	case outputCSV:
		_, err := io.WriteString(w, res.CSV())
		return err
	case outputJSON:
		return export.WriteJSON(w, res.Terms)
	default:
		_, err := io.WriteString(w, res.Table())
		return err
	}
}

func describeKey(key, source string) string {
	switch source {
	case settings.SourceFlag:
		return settings.MaskKey(key) + " (--api-key)"
	case settings.SourceEnv:
		return settings.MaskKey(key) + " (" + settings.EnvAPIKey + ")"
	case settings.SourceStore:
		return settings.MaskKey(key) + " (" + settings.FilePath() + ")"
	default:
		return "none"
	}
}

// ---------------------------------------------------------------------------
// Provider resolution
// ---------------------------------------------------------------------------

// resolveProvider builds the provider from its defaults, the credential
// store and the flags, in increasing priority.
func resolveProvider(a extractArgs) (llm.Provider, string, error) {
	id := strings.ToLower(strings.TrimSpace(a.provider))
	if id == "" {
		id = llm.DefaultProviderID
	}
	prov, ok := llm.LookupProvider(id)
	if !ok {
		return llm.Provider{}, "", fmt.Errorf(i18n.T("unknown provider %q (valid: %s)"), a.provider, strings.Join(llm.ProviderIDs(), ", "))
	}

	key, source := settings.ResolveAPIKey(prov.ID, a.apiKey)
	prov.APIKey = key

	if a.baseURL != "" {
		prov.BaseURL = a.baseURL
	} else if stored := settings.GetBaseURL(prov.ID); stored != "" {
		prov.BaseURL = stored
	}
	if a.model != "" {
		prov.Model = a.model
	} else if stored := settings.GetModel(prov.ID); stored != "" {
		prov.Model = stored
	}
	if a.proxy != "" {
		prov.Proxy = a.proxy
	}
	if a.timeout > 0 {
		prov.Timeout = a.timeout
	}
	return prov, source, nil
}

// modelExamples are suggested when a provider has no default model.
var modelExamples = map[string]string{
	llm.ProviderOpenAI:       "gpt-4.1-mini, gpt-4o",
	llm.ProviderGroq:         "llama-3.3-70b-versatile, qwen/qwen3-32b",
	llm.ProviderOllama:       "qwen2.5, llama3.2, mistral",
	llm.ProviderAnthropic:    "claude-sonnet-4-5, claude-haiku-4-5",
	llm.ProviderGoogle:       "gemini-2.5-flash, gemini-2.5-pro",
	llm.ProviderCustomOpenAI: "depends on your endpoint",
}

// ollamaProbe checks that a local Ollama server answers.
var ollamaProbe = func(baseURL string) error {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(strings.TrimSuffix(strings.TrimRight(baseURL, "/"), "/v1") + "/api/tags")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func validateProvider(prov llm.Provider) error {
	if prov.ID == llm.ProviderCustomOpenAI && prov.BaseURL == "" {
		return fmt.Errorf("provider 'custom-openai' requires an endpoint URL\n\n" +
			"Option 1: Configure via auth:\n" +
			"  termex auth login --provider custom-openai\n\n" +
			"Option 2: Pass directly:\n" +
			"  --base-url https://api.example.com/v1")
	}

	if prov.Model == "" {
		return fmt.Errorf("--model is required for provider '%s'\n\n"+
			"Example models for %s:\n  %s\n\n"+
			"Usage: --provider %s --model MODEL_NAME",
			prov.ID, prov.Name, modelExamples[prov.ID], prov.ID)
	}

	if prov.KeyRequired && prov.APIKey == "" {
		return fmt.Errorf("provider '%s' requires an API key\n\n"+
			"Option 1: Store your API key:\n"+
			"  termex auth login --provider %s\n\n"+
			"Option 2: Pass key directly:\n"+
			"  --api-key YOUR_KEY or export %s=YOUR_KEY",
			prov.ID, prov.ID, settings.EnvAPIKey)
	}

	if prov.ID == llm.ProviderOllama {
		if err := ollamaProbe(prov.BaseURL); err != nil {
			return fmt.Errorf("provider 'ollama' requires Ollama server to be running\n\n" +
				"Start Ollama with: ollama serve\n" +
				"Install from: https://ollama.com\n" +
				"Alternative providers:\n" +
				"  --provider llm7            (default, no key needed)\n" +
				"  --provider groq            (requires API key)")
		}
	}
	return nil
}

// ---------------------------------------------------------------------------
// auth
// ---------------------------------------------------------------------------

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: i18n.T("Manage provider credentials"),
		Long: `Manage API keys and endpoints for AI providers.

Credentials are stored in auth.json in the termex data directory
($XDG_DATA_HOME/termex or ~/.local/share/termex) with mode 0600.
The ` + settings.EnvAPIKey + ` environment variable and --api-key override stored keys.

Examples:
  termex auth login                         Interactive provider selection
  termex auth login --provider groq         Store a Groq API key
  termex auth login --provider custom-openai
  termex auth logout --provider groq        Remove the Groq key
  termex auth logout                        Remove all credentials
  termex auth list                          Show stored credentials`,
	}

	cmd.AddCommand(
		newAuthLoginCmd(),
		newAuthLogoutCmd(),
		newAuthListCmd(),
	)

	return cmd
}

// authProviders are the providers that accept stored credentials, in menu order.
var authProviders = []struct {
	id      string
	desc    string
	helpURL string
}{
	{llm.ProviderLLM7, "optional token for higher limits", "https://token.llm7.io"},
	{llm.ProviderOpenAI, "API key required", "https://platform.openai.com/api-keys"},
	{llm.ProviderGroq, "fast inference, free tier available", "https://console.groq.com/keys"},
	{llm.ProviderGoogle, "Gemini API key, free tier available", "https://aistudio.google.com/apikey"},
	{llm.ProviderAnthropic, "API key required", "https://console.anthropic.com/settings/keys"},
	{llm.ProviderCustomOpenAI, "any OpenAI-compatible endpoint", ""},
}

func authProviderIDs() []string {
	ids := make([]string, len(authProviders))
	for i, p := range authProviders {
		ids[i] = p.id
	}
	return ids
}

func completeAuthProviders(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	completions := make([]string, 0, len(authProviders))
	for _, p := range authProviders {
		completions = append(completions, p.id+"\t"+p.desc)
	}
	return completions, cobra.ShellCompDirectiveNoFileComp
}

// chooseProvider maps a menu answer (number or ID) to a provider ID.
func chooseProvider(choice string) (string, bool) {
	choice = strings.TrimSpace(choice)
	for i, p := range authProviders {
		if choice == fmt.Sprintf("%d", i+1) || strings.EqualFold(choice, p.id) {
			return p.id, true
		}
	}
	return "", false
}

func newAuthLoginCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Store an API key or endpoint for a provider",
		Long: `Store an API key for a provider, or an endpoint URL, key and model for
custom-openai. If --provider is not specified, you will be prompted to choose.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			in := bufio.NewScanner(os.Stdin)

			if provider == "" {
				fmt.Fprintln(os.Stderr)
				fmt.Fprintf(os.Stderr, "%s%s%s\n\n", colorBlue, i18n.T("Select provider to authenticate:"), colorReset)
				for i, p := range authProviders {
					fmt.Fprintf(os.Stderr, "  %d. %s%-13s%s %s\n", i+1, colorYellow, p.id, colorReset, p.desc)
				}
				fmt.Fprintln(os.Stderr)
				fmt.Fprintf(os.Stderr, "%s", i18n.T("Enter choice (number or name): "))

				if !in.Scan() {
					return fmt.Errorf("%s", i18n.T("no input received"))
				}
				id, ok := chooseProvider(in.Text())
				if !ok {
					return fmt.Errorf("%s", i18n.T("invalid choice, use: termex auth login --provider PROVIDER"))
				}
				provider = id
			}

			switch provider {
			case llm.ProviderCustomOpenAI:
				return authLoginCustomOpenAI(in)
			default:
				if _, ok := chooseProvider(provider); !ok {
					return fmt.Errorf(i18n.T("unknown provider '%s' (valid: %s)"), provider, strings.Join(authProviderIDs(), ", "))
				}
				return authLoginAPIKey(provider, in)
			}
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider to authenticate")
	_ = cmd.RegisterFlagCompletionFunc("provider", completeAuthProviders)

	return cmd
}

func authLoginAPIKey(providerID string, in *bufio.Scanner) error {
	prov, _ := llm.LookupProvider(providerID)
	helpURL := ""
	for _, p := range authProviders {
		if p.id == providerID {
			helpURL = p.helpURL
		}
	}

	fmt.Fprintf(os.Stderr, "\n%s%s: %s%s\n", colorBlue, prov.Name, i18n.T("API Key Setup"), colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintln(os.Stderr)
	if helpURL != "" {
		fmt.Fprintf(os.Stderr, "  %s %s%s%s\n\n", i18n.T("Get your API key from:"), colorGreen, helpURL, colorReset)
	}

	existing := settings.GetAPIKey(providerID)
	if existing != "" {
		fmt.Fprintf(os.Stderr, "  Current key: %s%s%s\n", colorYellow, settings.MaskKey(existing), colorReset)
		fmt.Fprintf(os.Stderr, "  %s", i18n.T("Enter new key to replace, or press Enter to keep: "))
	} else {
		fmt.Fprintf(os.Stderr, "  %s", i18n.T("Enter API key: "))
	}

	if !in.Scan() {
		return fmt.Errorf("%s", i18n.T("no input received"))
	}
	key := strings.TrimSpace(in.Text())
	if key == "" {
		if existing != "" {
			logInfo("%s", i18n.T("Keeping existing key"))
			return nil
		}
		return fmt.Errorf("%s", i18n.T("no API key provided"))
	}

	if err := settings.SetAPIKey(providerID, key); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}
	logSuccess(i18n.T("%s API key saved!"), prov.Name)
	fmt.Fprintf(os.Stderr, "\n  You can now use: termex extract --provider %s --source FILE\n\n", providerID)
	return nil
}

func authLoginCustomOpenAI(in *bufio.Scanner) error {
	fmt.Fprintf(os.Stderr, "\n%s%s%s\n", colorBlue, i18n.T("Custom OpenAI-Compatible Endpoint"), colorReset)
	fmt.Fprintln(os.Stderr, strings.Repeat("─", 60))
	fmt.Fprintln(os.Stderr)

	existing := settings.Get(llm.ProviderCustomOpenAI)
	ask := func(label, current string) (string, bool) {
		if current != "" {
			fmt.Fprintf(os.Stderr, "  %s [%s]: ", label, current)
		} else {
			fmt.Fprintf(os.Stderr, "  %s: ", label)
		}
		if !in.Scan() {
			return "", false
		}
		if v := strings.TrimSpace(in.Text()); v != "" {
			return v, true
		}
		return current, true
	}

	info := &settings.Info{}
	if existing != nil {
		*info = *existing
	}

	var ok bool
	if info.BaseURL, ok = ask(i18n.T("Endpoint URL (e.g. https://api.example.com/v1)"), info.BaseURL); !ok {
		return fmt.Errorf("%s", i18n.T("no input received"))
	}
	if info.BaseURL == "" {
		return fmt.Errorf("%s", i18n.T("an endpoint URL is required"))
	}
	keyHint := ""
	if info.Key != "" {
		keyHint = settings.MaskKey(info.Key)
	}
	key, ok := ask(i18n.T("API key (optional)"), keyHint)
	if !ok {
		return fmt.Errorf("%s", i18n.T("no input received"))
	}
	if key != keyHint {
		info.Key = key
	}
	if info.Model, ok = ask(i18n.T("Default model (optional)"), info.Model); !ok {
		return fmt.Errorf("%s", i18n.T("no input received"))
	}

	if err := settings.Set(llm.ProviderCustomOpenAI, info); err != nil {
		return fmt.Errorf("failed to save credentials: %w", err)
	}
	logSuccess("%s", i18n.T("Custom endpoint saved!"))
	return nil
}

func newAuthLogoutCmd() *cobra.Command {
	var provider string

	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		Long: `Remove stored credentials for one or all providers.

If --provider is not specified, credentials for ALL providers are removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if provider != "" {
				if settings.Get(provider) == nil {
					logWarning(i18n.T("No credentials stored for %s"), provider)
					return nil
				}
				if err := settings.Remove(provider); err != nil {
					return fmt.Errorf("failed to remove %s credentials: %w", provider, err)
				}
				logSuccess(i18n.T("%s credentials removed"), provider)
				return nil
			}

			if err := settings.RemoveAll(); err != nil {
				return fmt.Errorf("failed to remove credentials: %w", err)
			}
			logSuccess("%s", i18n.T("All stored credentials removed"))
			return nil
		},
	}

	cmd.Flags().StringVar(&provider, "provider", "", "Provider to logout (default: all)")
	_ = cmd.RegisterFlagCompletionFunc("provider", completeAuthProviders)

	return cmd
}

func newAuthListCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show stored credentials and status",
		Run: func(cmd *cobra.Command, args []string) {
			printCredentials(os.Stderr)
		},
	}
}

func printCredentials(w io.Writer) {
	fmt.Fprintf(w, "\n%s%s%s\n", colorBlue, i18n.T("Stored Credentials"), colorReset)
	fmt.Fprintln(w, strings.Repeat("─", 60))
	fmt.Fprintln(w)

	for _, p := range authProviders {
		entry := settings.Get(p.id)
		switch {
		case entry != nil && entry.Key != "":
			status := fmt.Sprintf("%sconfigured%s (key: %s)", colorGreen, colorReset, settings.MaskKey(entry.Key))
			if entry.BaseURL != "" {
				status += fmt.Sprintf("\n  %14s endpoint: %s", "", entry.BaseURL)
			}
			if entry.Model != "" {
				status += fmt.Sprintf("\n  %14s model: %s", "", entry.Model)
			}
			fmt.Fprintf(w, "  %-14s %s\n", p.id, status)
		case entry != nil && entry.BaseURL != "":
			status := fmt.Sprintf("%sconfigured%s (no key)", colorGreen, colorReset)
			status += fmt.Sprintf("\n  %14s endpoint: %s", "", entry.BaseURL)
			fmt.Fprintf(w, "  %-14s %s\n", p.id, status)
		case p.id == llm.ProviderLLM7:
			fmt.Fprintf(w, "  %-14s %sanonymous%s\n", p.id, colorYellow, colorReset)
		default:
			fmt.Fprintf(w, "  %-14s %snot configured%s\n", p.id, colorRed, colorReset)
		}
	}

	fmt.Fprintf(w, "\n  %s%s%s\n", colorYellow, i18n.T("Environment Variables"), colorReset)
	if envKey := os.Getenv(settings.EnvAPIKey); envKey != "" {
		fmt.Fprintf(w, "  %s: %s%s%s (overrides stored keys)\n", settings.EnvAPIKey, colorGreen, settings.MaskKey(envKey), colorReset)
	} else {
		fmt.Fprintf(w, "  %s: %snot set%s\n", settings.EnvAPIKey, colorRed, colorReset)
	}
	if path := settings.FilePath(); path != "" {
		fmt.Fprintf(w, "\n  File: %s\n", path)
	}
	fmt.Fprintln(w)
}

// ---------------------------------------------------------------------------
// prompts
// ---------------------------------------------------------------------------

// printPromptsPath prints the prompts.json location followed by the
// template keys it may override.
func printPromptsPath(w io.Writer, path string) error {
	if _, err := fmt.Fprintln(w, path); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w, i18n.Sprintf("Templates: %s", strings.Join(extract.PromptKeys(), ", ")))
	return err
}

func newPromptsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "prompts",
		Short: i18n.T("Manage custom prompt templates"),
		Long: `Manage prompts.json, which overrides the built-in extraction prompts.

Templates may use {{sourceLang}}, {{targetLang}}, {{focus}}, {{count}},
{{command}}, {{source}} and {{target}}. Keys that are missing or
empty fall back to the built-in template.`,
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the built-in prompts to prompts.json for editing",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := settings.PromptsFilePath()
			if err != nil {
				return err
			}
			if err := extract.WriteDefaultPrompts(path, force); err != nil {
				return err
			}
			logSuccess(i18n.T("Default prompts written to %s"), path)
			logInfo(i18n.T("Templates: %s"), strings.Join(extract.PromptKeys(), ", "))
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing prompts.json")

	pathCmd := &cobra.Command{
		Use:   "path",
		Short: "Print the prompts.json location",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := settings.PromptsFilePath()
			if err != nil {
				return err
			}
			return printPromptsPath(cmd.OutOrStdout(), path)
		},
	}

	cmd.AddCommand(initCmd, pathCmd)
	return cmd
}
