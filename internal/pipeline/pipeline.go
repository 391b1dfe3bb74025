package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"
	"unicode/utf8"

	"github.com/ppiankov/spotlight/internal/cache"
	"github.com/ppiankov/spotlight/internal/extract"
	"github.com/ppiankov/spotlight/internal/highlight"
	"github.com/ppiankov/spotlight/internal/llm"
	"github.com/ppiankov/spotlight/internal/model"
	"github.com/ppiankov/spotlight/internal/score"
	"github.com/ppiankov/spotlight/internal/ui"
	"github.com/ppiankov/spotlight/internal/util"
	"github.com/ppiankov/spotlight/internal/worker"
)

// Report sources
const (
	SourceText = "text"
	SourceURL  = "url"
	SourceLLM  = "llm"
)

const subjectMaxRunes = 60

var (
	// ErrInputTooLarge is returned for texts above Highlight.MaxInputBytes
	ErrInputTooLarge = errors.New("input too large")

	// ErrDisallowedByRobots is returned when robots.txt forbids fetching a URL
	ErrDisallowedByRobots = errors.New("disallowed by robots.txt")

	// ErrLLMDisabled is returned by Ask when no provider is configured
	ErrLLMDisabled = errors.New("no LLM provider configured")
)

// Pipeline orchestrates annotation of texts, LLM answers and web pages
type Pipeline struct {
	fetcher    *Fetcher
	robots     *util.RobotsChecker
	limiter    *worker.Limiter
	cache      cache.Cache
	provider   llm.Provider // Optional; nil when no LLM is configured
	summarizer *score.Summarizer
	config     *model.Config
	logger     *ui.Logger
	now        func() time.Time
}

// New creates a new pipeline. provider may be nil, which disables Ask.
func New(cfg *model.Config, provider llm.Provider) *Pipeline {
	c := cache.New(cfg.Cache)

	if provider != nil {
		provider = llm.NewCachedProvider(provider, c, cfg.Cache.DiskTTL)
	}

	fetcher := NewFetcher(
		cfg.HTTP.Timeout,
		cfg.HTTP.UserAgent,
		cfg.HTTP.MaxBodyBytes,
		cfg.HTTP.InsecureTLS,
		cfg.HTTP.HTTPProxy,
		cfg.HTTP.HTTPSProxy,
		cfg.HTTP.NoProxy,
	)
	if cfg.HTTP.MaxRetries > 0 {
		fetcher.maxAttempts = cfg.HTTP.MaxRetries
	}

	robotsClient := util.NewHTTPClient(util.ClientOptions{
		Timeout:     10 * time.Second,
		InsecureTLS: cfg.HTTP.InsecureTLS,
		HTTPProxy:   cfg.HTTP.HTTPProxy,
		HTTPSProxy:  cfg.HTTP.HTTPSProxy,
		NoProxy:     cfg.HTTP.NoProxy,
	})

	return &Pipeline{
		fetcher:    fetcher,
		robots:     util.NewRobotsChecker(cfg.HTTP.UserAgent, 10*time.Second, robotsClient),
		limiter:    worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize),
		cache:      c,
		provider:   provider,
		summarizer: score.NewSummarizer(),
		config:     cfg,
		logger:     ui.NewLogger(os.Stderr, cfg.Output.Verbose),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// SetLogger replaces the progress logger, which defaults to stderr
func (p *Pipeline) SetLogger(logger *ui.Logger) {
	if logger != nil {
		p.logger = logger
	}
}

// Annotator annotates documents against one compiled set of entities
type Annotator struct {
	pipeline    *Pipeline
	entities    model.Entities
	highlighter *highlight.Highlighter
}

// Annotator compiles entities once for annotating many documents
func (p *Pipeline) Annotator(entities model.Entities) *Annotator {
	return &Annotator{
		pipeline:    p,
		entities:    entities,
		highlighter: highlight.Compile(entities),
	}
}

// AnnotateText annotates a single document
func (p *Pipeline) AnnotateText(ctx context.Context, doc model.Document, entities model.Entities) (*model.Report, error) {
	return p.Annotator(entities).AnnotateText(ctx, doc)
}

// Ask sends prompt to the configured LLM and annotates both the prompt and the answer
func (p *Pipeline) Ask(ctx context.Context, prompt string, entities model.Entities) (*model.Report, error) {
	return p.Annotator(entities).Ask(ctx, prompt)
}

// ScanURL fetches a page and annotates its visible text
func (p *Pipeline) ScanURL(ctx context.Context, rawURL string, entities model.Entities) (*model.Report, error) {
	return p.Annotator(entities).ScanURL(ctx, rawURL)
}

// Annotate annotates a batch document: its text, or the page at its URL when
// the text is empty
func (a *Annotator) Annotate(ctx context.Context, doc model.Document) (*model.Report, error) {
	if doc.Text == "" && doc.URL != "" {
		report, err := a.ScanURL(ctx, doc.URL)
		if err != nil {
			return nil, err
		}
		if doc.ID != "" {
			report.Subject = doc.ID
		}
		return report, nil
	}
	return a.AnnotateText(ctx, doc)
}

// AnnotateText annotates a single document
func (a *Annotator) AnnotateText(ctx context.Context, doc model.Document) (*model.Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := a.pipeline.checkSize(doc.Text); err != nil {
		return nil, err
	}

	text, err := extract.PrepareText(doc.Text, doc.Format)
	if err != nil {
		return nil, fmt.Errorf("prepare text: %w", err)
	}

	subject := doc.ID
	if subject == "" {
		subject = subjectFrom(text)
	}

	return &model.Report{
		Subject:       subject,
		Source:        SourceText,
		CreatedAt:     a.pipeline.now(),
		Entities:      a.entities,
		AnnotatedText: a.annotate(text),
	}, nil
}

// Ask sends prompt to the configured LLM and annotates both the prompt and the answer
func (a *Annotator) Ask(ctx context.Context, prompt string) (*model.Report, error) {
	p := a.pipeline
	if p.provider == nil {
		return nil, ErrLLMDisabled
	}
	if err := p.checkSize(prompt); err != nil {
		return nil, err
	}

	if err := p.limiter.WaitKey(ctx, "llm:"+p.provider.Name()); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	p.logger.Step("Asking %s...", p.provider.Name())
	resp, err := p.provider.Complete(ctx, llm.CompletionRequest{Prompt: prompt})
	if err != nil {
		return nil, fmt.Errorf("llm completion: %w", err)
	}
	if resp.Cached {
		p.logger.Done("Using cached %s answer", p.provider.Name())
	}
	if err := p.checkSize(resp.Text); err != nil {
		return nil, fmt.Errorf("llm answer: %w", err)
	}

	promptText := a.annotate(prompt)

	return &model.Report{
		Subject:       subjectFrom(prompt),
		Source:        SourceLLM,
		CreatedAt:     p.now(),
		Entities:      a.entities,
		AnnotatedText: a.annotate(resp.Text),
		Prompt:        &promptText,
		LLM: &model.LLMInfo{
			Provider:   p.provider.Name(),
			Model:      resp.Model,
			TokensUsed: resp.TokensUsed,
			Cached:     resp.Cached,
		},
	}, nil
}

// ScanURL fetches a page and annotates its visible text
func (a *Annotator) ScanURL(ctx context.Context, rawURL string) (*model.Report, error) {
	p := a.pipeline

	parsed, err := url.Parse(rawURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return nil, fmt.Errorf("invalid URL %q: must be an absolute http(s) URL", rawURL)
	}

	page, err := p.fetchPage(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	text, err := extract.VisibleText(page.HTML)
	if err != nil {
		return nil, fmt.Errorf("extract text: %w", err)
	}
	if err := p.checkSize(text); err != nil {
		return nil, err
	}

	meta := page.Meta

	return &model.Report{
		Subject:       page.Subject,
		Source:        SourceURL,
		SourceURL:     page.FinalURL,
		CreatedAt:     p.now(),
		Entities:      a.entities,
		AnnotatedText: a.annotate(text),
		FetchMeta:     &meta,
	}, nil
}

// fetchPage returns the page from cache or fetches it, honoring robots.txt
// and the per-host rate limit
func (p *Pipeline) fetchPage(ctx context.Context, rawURL string) (*FetchResult, error) {
	key := cache.Key("page", rawURL)
	if data, ok := p.cache.Get(key); ok {
		var cached FetchResult
		if err := json.Unmarshal(data, &cached); err == nil {
			p.logger.Done("Using cached page %s", rawURL)
			return &cached, nil
		}
	}

	if p.config.HTTP.RespectRobots {
		allowed, crawlDelay, err := p.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("robots.txt: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrDisallowedByRobots, rawURL)
		}
		if crawlDelay > 0 {
			if host, err := url.Parse(rawURL); err == nil {
				p.limiter.SetDomainRate(host.Host, 1/crawlDelay.Seconds(), 1)
			}
		}
	}

	if err := p.limiter.Wait(ctx, rawURL); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	p.logger.Step("Fetching %s...", rawURL)
	page, err := p.fetcher.FetchWithRetry(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}

	if data, err := json.Marshal(page); err == nil {
		if err := p.cache.Set(key, data, p.config.Cache.DiskTTL); err != nil {
			p.logger.Warn("failed to cache page: %v", err)
		}
	}

	return page, nil
}

// annotate runs the engine and the mention summary over text
func (a *Annotator) annotate(text string) model.AnnotatedText {
	spans := a.highlighter.Annotate(text)
	return model.AnnotatedText{
		Text:    text,
		Spans:   spans,
		Summary: a.pipeline.summarizer.Summarize(text, spans),
	}
}

// checkSize rejects texts above the configured limit; a zero limit disables the check
func (p *Pipeline) checkSize(text string) error {
	limit := p.config.Highlight.MaxInputBytes
	if limit > 0 && len(text) > limit {
		return fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrInputTooLarge, len(text), limit)
	}
	return nil
}

// subjectFrom derives a short report subject from the first line of a text
func subjectFrom(text string) string {
	line := text
	for i, r := range text {
		if r == '\n' {
			line = text[:i]
			break
		}
	}
	if utf8.RuneCountInString(line) <= subjectMaxRunes {
		return line
	}
	runes := []rune(line)
	return string(runes[:subjectMaxRunes]) + "…"
}
