// Package extract runs a terminology extraction: it splits the source (and
// optional parallel target) text into segments, asks the model for term
// pairs per segment, and cleans the combined answers into a ranked list.
//
//	source ─ segment.Split ─┐
//	                        ├─ align.Align ─ model per pair ─ term.Parse
//	target ─ segment.Split ─┘
//	  ─ term.Validate ─ term.Dedupe ─ term.FilterAndRank ─ Result
//
// A failed model call only empties its own segment; a run fails only on
// missing input or cancellation.
package extract

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"

	"github.com/minios-linux/termex/align"
	"github.com/minios-linux/termex/focus"
	"github.com/minios-linux/termex/input"
	"github.com/minios-linux/termex/llm"
	"github.com/minios-linux/termex/segment"
	"github.com/minios-linux/termex/term"
)

// ErrNoSource is returned when the source text is empty after trimming.
var ErrNoSource = errors.New("source text is empty")

// Defaults.
const (
	DefaultMaxChars     = 20000
	DefaultMaxTerms     = 150
	DefaultRequestDelay = 500 * time.Millisecond

	// Temperature and MaxTokens are sent with every model request.
	Temperature = 0.1
	MaxTokens   = 2500

	// excerptBudget bounds source plus target excerpt per request, in runes.
	excerptBudget = 3000
)

// Term counts requested from the model per segment.
const (
	countAll      = "40-60"
	countFiltered = "25-40"
)

// noFocusInstruction fills the focus line when the user gave no focus.
const noFocusInstruction = "Extract all types of terminology"

// ---------------------------------------------------------------------------
// Request and options
// ---------------------------------------------------------------------------

// Request is one extraction run's input.
type Request struct {
	// SourceText is required.
	SourceText string
	// TargetText is an optional parallel translation of SourceText.
	TargetText string
	// Focus is a topic keyword or a free-form command.
	Focus string
	// Filter is a category selector; empty means "all".
	Filter string
	// MaxTerms caps the final list; zero uses DefaultMaxTerms.
	MaxTerms int
	// Token is only reported in the log as provided or anonymous; the model
	// client carries the actual credential.
	Token string
}

// Options controls how runs are executed.
type Options struct {
	// ChunkSize is the segment size in characters. Default: 1500.
	ChunkSize int
	// MaxChars caps each input text in characters. Default: 20000.
	MaxChars int
	// RequestDelay is the pause between model calls. Default: 500ms.
	// A negative value disables the pause.
	RequestDelay time.Duration
	// Concurrency is the number of segments in flight. Values below 2 run
	// segments strictly one after another.
	Concurrency int
	// Groups is the filter selector table. Default: term.DefaultGroups().
	Groups term.Groups
	// Prompts overrides the built-in prompt templates.
	Prompts *PromptsConfig
	// SourceLang and TargetLang are language names inserted into prompts.
	SourceLang string
	TargetLang string
	// OnProgress is called after each segment completes.
	OnProgress func(done, total int)
	// OnLog emits log messages during extraction.
	OnLog func(format string, args ...any)
	// OnError emits error messages during extraction.
	OnError func(format string, args ...any)
}

func (o *Options) log(format string, args ...any) {
	if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) logError(format string, args ...any) {
	if o.OnError != nil {
		o.OnError(format, args...)
	} else if o.OnLog != nil {
		o.OnLog(format, args...)
	}
}

func (o *Options) effectiveChunkSize() int {
	if o.ChunkSize > 0 {
		return o.ChunkSize
	}
	return segment.DefaultSize
}

func (o *Options) effectiveMaxChars() int {
	if o.MaxChars > 0 {
		return o.MaxChars
	}
	return DefaultMaxChars
}

func (o *Options) effectiveRequestDelay() time.Duration {
	if o.RequestDelay < 0 {
		return 0
	}
	if o.RequestDelay > 0 {
		return o.RequestDelay
	}
	return DefaultRequestDelay
}

func (o *Options) effectiveGroups() term.Groups {
	if o.Groups != nil {
		return o.Groups
	}
	return term.DefaultGroups()
}

func (o *Options) sourceLang() string {
	if o.SourceLang != "" {
		return o.SourceLang
	}
	return "Chinese"
}

func (o *Options) targetLang() string {
	if o.TargetLang != "" {
		return o.TargetLang
	}
	return "English"
}

// ---------------------------------------------------------------------------
// Extractor
// ---------------------------------------------------------------------------

// Extractor runs extractions against one model.
type Extractor struct {
	model llm.Completer
	opts  Options
}

// New returns an Extractor that sends prompts to model.
func New(model llm.Completer, opts Options) *Extractor {
	return &Extractor{model: model, opts: opts}
}

// plan is the per-run prompt setup shared by every segment.
type plan struct {
	mode        focus.Mode
	instruction string
	command     string
	count       string
}

// Run extracts terms for req. Model and parse failures never fail the run;
// they leave their segment empty and show up in Result.Log.
func (e *Extractor) Run(ctx context.Context, req Request) (*Result, error) {
	maxChars := e.opts.effectiveMaxChars()
	source := input.Cap(req.SourceText, maxChars)
	if source == "" {
		return nil, ErrNoSource
	}
	target := input.Cap(req.TargetText, maxChars)

	filter := strings.ToLower(strings.TrimSpace(req.Filter))
	if filter == "" {
		filter = term.All
	}
	maxTerms := req.MaxTerms
	if maxTerms <= 0 {
		maxTerms = DefaultMaxTerms
	}

	res := &Result{
		RunID:         ulid.Make().String(),
		Focus:         strings.TrimSpace(req.Focus),
		Filter:        filter,
		TokenProvided: strings.TrimSpace(req.Token) != "",
	}
	p := e.plan(res.Focus, filter)
	res.Mode = p.mode

	chunkSize := e.opts.effectiveChunkSize()
	var targetChunks []string
	if target != "" {
		targetChunks = segment.Split(target, chunkSize)
	}
	pairs := align.Align(segment.Split(source, chunkSize), targetChunks)

	e.opts.log("Run %s: %d segment(s), mode %s, filter %s", res.RunID, len(pairs), p.mode, filter)

	start := time.Now()
	segments, err := e.runSegments(ctx, pairs, p)
	res.Elapsed = time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("extraction canceled: %w", err)
	}
	res.Segments = segments

	var raw []term.Record
	for _, s := range segments {
		raw = append(raw, s.Terms...)
	}
	valid := term.Validate(raw)
	unique := term.Dedupe(valid)
	filtered := term.FilterAndRank(unique, filter, e.opts.effectiveGroups(), 0)
	final := filtered
	if len(final) > maxTerms {
		final = final[:maxTerms]
	}

	res.Terms = final
	res.Counts = Counts{
		Raw:          len(raw),
		Validated:    len(valid),
		Deduplicated: len(unique),
		Filtered:     len(filtered),
		Final:        len(final),
	}
	return res, nil
}

// plan selects the instruction mode. Free-form commands are only honored
// when every category is accepted; otherwise the focus falls back to its
// keyword instruction.
func (e *Extractor) plan(focusText, filter string) plan {
	cls := focus.Classify(focusText)
	p := plan{
		mode:        cls.Mode,
		instruction: cls.Instruction,
		command:     cls.Command,
		count:       countFiltered,
	}
	if term.IsAll(filter) {
		p.count = countAll
	} else if p.mode == focus.FreeForm {
		p.mode = focus.Keyword
	}
	if p.instruction == "" {
		p.instruction = noFocusInstruction
	}
	return p
}

func (e *Extractor) runSegments(ctx context.Context, pairs []align.Pair, p plan) ([]Segment, error) {
	if e.opts.Concurrency > 1 {
		return e.runParallel(ctx, pairs, p)
	}

	delay := e.opts.effectiveRequestDelay()
	segments := make([]Segment, len(pairs))
	for i, pair := range pairs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		segments[i] = e.extractSegment(ctx, i, pair, p)
		e.progress(i+1, len(pairs))

		if i < len(pairs)-1 {
			if err := sleep(ctx, delay); err != nil {
				return nil, err
			}
		}
	}
	return segments, nil
}

// runParallel keeps at most Concurrency segments in flight and still spaces
// out request launches by RequestDelay. Results stay in segment order.
func (e *Extractor) runParallel(ctx context.Context, pairs []align.Pair, p plan) ([]Segment, error) {
	delay := e.opts.effectiveRequestDelay()
	segments := make([]Segment, len(pairs))

	var mu sync.Mutex
	done := 0

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i, pair := range pairs {
		if i > 0 {
			if err := sleep(gctx, delay); err != nil {
				break
			}
		}
		g.Go(func() error {
			segments[i] = e.extractSegment(gctx, i, pair, p)
			mu.Lock()
			done++
			n := done
			mu.Unlock()
			e.progress(n, len(pairs))
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return segments, nil
}

func (e *Extractor) progress(done, total int) {
	if e.opts.OnProgress != nil {
		e.opts.OnProgress(done, total)
	}
}

// extractSegment asks the model for the terms of one aligned pair. A model
// error becomes the segment's response text and yields no terms.
func (e *Extractor) extractSegment(ctx context.Context, index int, pair align.Pair, p plan) Segment {
	excerpt := targetExcerpt(pair.Source, pair.Target)
	seg := Segment{
		Index:       index + 1,
		SourceChars: utf8.RuneCountInString(pair.Source),
		TargetChars: utf8.RuneCountInString(excerpt),
	}

	text, err := e.model.Complete(ctx, llm.Request{
		System:      e.opts.Prompts.get(PromptSystem),
		User:        e.userPrompt(pair.Source, excerpt, p),
		Temperature: Temperature,
		MaxTokens:   MaxTokens,
	})
	if err != nil {
		seg.Err = err
		seg.Response = err.Error()
		e.opts.logError("Segment %d: %v", seg.Index, err)
		return seg
	}

	seg.Response = strings.TrimSpace(text)
	seg.Terms = term.Parse(seg.Response)
	e.opts.log("Segment %d: %d raw terms", seg.Index, len(seg.Terms))
	return seg
}

func (e *Extractor) userPrompt(source, excerpt string, p plan) string {
	var key string
	switch {
	case p.mode == focus.FreeForm && excerpt != "":
		key = PromptFreeFormParallel
	case p.mode == focus.FreeForm:
		key = PromptFreeFormMonolingual
	case excerpt != "":
		key = PromptParallel
	default:
		key = PromptMonolingual
	}

	return render(e.opts.Prompts.get(key), promptVars{
		Source:     source,
		Target:     excerpt,
		Count:      p.count,
		Focus:      p.instruction,
		Command:    p.command,
		SourceLang: e.opts.sourceLang(),
		TargetLang: e.opts.targetLang(),
	})
}

// targetExcerpt truncates target so that source and excerpt together stay
// within excerptBudget characters. The source is never cut.
func targetExcerpt(source, target string) string {
	room := excerptBudget - utf8.RuneCountInString(source)
	if room <= 0 || target == "" {
		return ""
	}
	if utf8.RuneCountInString(target) <= room {
		return target
	}
	return string([]rune(target)[:room])
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
