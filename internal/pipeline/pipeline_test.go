package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/spotlight/internal/llm"
	"github.com/ppiankov/spotlight/internal/model"
	"github.com/ppiankov/spotlight/internal/ui"
)

func testConfig() *model.Config {
	cfg := model.DefaultConfig()
	cfg.Cache = model.CacheConfig{Enabled: true, MemoryTTL: time.Minute, DiskTTL: time.Minute}
	cfg.HTTP.Timeout = 5 * time.Second
	cfg.RateLimiting.RequestsPerSecond = 0
	return cfg
}

func testEntities() model.Entities {
	return model.Entities{
		BusinessName: "Acme",
		Competitors:  model.Names("Globex"),
		Industry:     "robotics",
		Products:     model.Names("RoadRunner Trap"),
	}
}

// stubProvider answers every prompt with a fixed text
type stubProvider struct {
	answer string
	calls  atomic.Int32
}

func (s *stubProvider) Name() string { return "stub" }
func (s *stubProvider) IsAvailable(context.Context) bool { return true }
func (s *stubProvider) Complete(_ context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	s.calls.Add(1)
	return &llm.CompletionResponse{Text: s.answer, Model: "stub-1", TokensUsed: 42}, nil
}

func TestAnnotateText(t *testing.T) {
	p := New(testConfig(), nil)

	report, err := p.AnnotateText(context.Background(), model.Document{
		ID:   "review-1",
		Text: "Acme beats Globex in robotics.",
	}, testEntities())
	if err != nil {
		t.Fatalf("AnnotateText failed: %v", err)
	}

	if report.Subject != "review-1" || report.Source != SourceText {
		t.Errorf("Unexpected descriptor: %s / %s", report.Subject, report.Source)
	}
	if report.CreatedAt.IsZero() {
		t.Error("Expected creation time")
	}

	annotated := model.Annotated(report.Spans)
	if len(annotated) != 3 {
		t.Fatalf("Expected 3 mentions, got %d: %+v", len(annotated), report.Spans)
	}
	if annotated[0].Text != "Acme" || annotated[0].Category != model.CategoryBusiness {
		t.Errorf("Unexpected first mention: %+v", annotated[0])
	}
	if report.Summary.Counts[model.CategoryCompetitor] != 1 {
		t.Errorf("Expected one competitor mention, got %d", report.Summary.Counts[model.CategoryCompetitor])
	}
	if report.Summary.BusinessShare != 0.5 {
		t.Errorf("Expected business share 0.5, got %v", report.Summary.BusinessShare)
	}
}

func TestAnnotateText_HTML(t *testing.T) {
	p := New(testConfig(), nil)

	report, err := p.AnnotateText(context.Background(), model.Document{
		Text:   "<html><head><script>var Globex = 1;</script></head><body><p>Acme ships.</p></body></html>",
		Format: "html",
	}, testEntities())
	if err != nil {
		t.Fatalf("AnnotateText failed: %v", err)
	}

	if strings.Contains(report.Text, "var Globex") {
		t.Errorf("Expected script content to be dropped, got %q", report.Text)
	}
	if report.Summary.Counts[model.CategoryBusiness] != 1 || report.Summary.Counts[model.CategoryCompetitor] != 0 {
		t.Errorf("Unexpected counts: %v", report.Summary.Counts)
	}
	if report.Subject != "Acme ships." {
		t.Errorf("Expected subject from first line, got %q", report.Subject)
	}
}

func TestAnnotateText_TooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.Highlight.MaxInputBytes = 10
	p := New(cfg, nil)

	_, err := p.AnnotateText(context.Background(), model.Document{Text: "Acme is far too long here"}, testEntities())
	if !errors.Is(err, ErrInputTooLarge) {
		t.Errorf("Expected ErrInputTooLarge, got %v", err)
	}
}

func TestAnnotateText_UnknownFormat(t *testing.T) {
	p := New(testConfig(), nil)

	if _, err := p.AnnotateText(context.Background(), model.Document{Text: "Acme", Format: "pdf"}, testEntities()); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestAnnotateText_NoEntities(t *testing.T) {
	p := New(testConfig(), nil)

	report, err := p.AnnotateText(context.Background(), model.Document{Text: "Acme beats Globex."}, model.Entities{})
	if err != nil {
		t.Fatalf("AnnotateText failed: %v", err)
	}
	if len(report.Spans) != 1 || report.Spans[0].IsAnnotated() {
		t.Errorf("Expected a single plain span, got %+v", report.Spans)
	}
}

func TestAsk(t *testing.T) {
	provider := &stubProvider{answer: "Globex and Acme both build robotics kits."}
	p := New(testConfig(), provider)
	ctx := context.Background()

	report, err := p.Ask(ctx, "Who sells robotics kits?", testEntities())
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}

	if report.Source != SourceLLM {
		t.Errorf("Expected llm source, got %s", report.Source)
	}
	if report.LLM == nil || report.LLM.Provider != "stub" || report.LLM.Model != "stub-1" || report.LLM.TokensUsed != 42 {
		t.Fatalf("Unexpected LLM info: %+v", report.LLM)
	}
	if report.LLM.Cached {
		t.Error("Expected first answer to be fresh")
	}
	if report.Summary.FirstMention != model.CategoryCompetitor {
		t.Errorf("Expected competitor first, got %s", report.Summary.FirstMention)
	}
	if report.Prompt == nil || report.Prompt.Summary.Counts[model.CategoryIndustry] != 1 {
		t.Errorf("Expected annotated prompt with one industry mention, got %+v", report.Prompt)
	}

	again, err := p.Ask(ctx, "Who sells robotics kits?", testEntities())
	if err != nil {
		t.Fatalf("Ask failed: %v", err)
	}
	if !again.LLM.Cached {
		t.Error("Expected repeated prompt to be served from cache")
	}
	if provider.calls.Load() != 1 {
		t.Errorf("Expected one upstream call, got %d", provider.calls.Load())
	}
}

func TestAsk_Disabled(t *testing.T) {
	p := New(testConfig(), nil)

	if _, err := p.Ask(context.Background(), "hi", testEntities()); !errors.Is(err, ErrLLMDisabled) {
		t.Errorf("Expected ErrLLMDisabled, got %v", err)
	}
}

func newSiteServer(t *testing.T, pageHits *atomic.Int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			_, _ = fmt.Fprint(w, "User-agent: *\nDisallow: /private\n")
		case "/about-us":
			pageHits.Add(1)
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.Header().Set("ETag", `"v1"`)
			_, _ = fmt.Fprint(w, `<html><body><h1>About</h1><p>Acme leads robotics.</p><p>Unlike Globex.</p><style>.Acme{}</style></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestScanURL(t *testing.T) {
	var hits atomic.Int32
	server := newSiteServer(t, &hits)
	defer server.Close()

	p := New(testConfig(), nil)

	report, err := p.ScanURL(context.Background(), server.URL+"/about-us", testEntities())
	if err != nil {
		t.Fatalf("ScanURL failed: %v", err)
	}

	if report.Source != SourceURL || report.SourceURL != server.URL+"/about-us" {
		t.Errorf("Unexpected source: %s %s", report.Source, report.SourceURL)
	}
	if report.Subject != "about us" {
		t.Errorf("Expected subject from URL, got %q", report.Subject)
	}
	if report.FetchMeta == nil || report.FetchMeta.StatusCode != http.StatusOK || report.FetchMeta.ETag != `"v1"` {
		t.Errorf("Unexpected fetch metadata: %+v", report.FetchMeta)
	}
	if report.Summary.Counts[model.CategoryBusiness] != 1 {
		t.Errorf("Expected one business mention outside the stylesheet, got %v", report.Summary.Counts)
	}

	// Second scan is served from the page cache
	if _, err := p.ScanURL(context.Background(), server.URL+"/about-us", testEntities()); err != nil {
		t.Fatalf("ScanURL failed: %v", err)
	}
	if hits.Load() != 1 {
		t.Errorf("Expected a single page fetch, got %d", hits.Load())
	}
}

func TestScanURL_DisallowedByRobots(t *testing.T) {
	var hits atomic.Int32
	server := newSiteServer(t, &hits)
	defer server.Close()

	p := New(testConfig(), nil)

	_, err := p.ScanURL(context.Background(), server.URL+"/private/page", testEntities())
	if !errors.Is(err, ErrDisallowedByRobots) {
		t.Errorf("Expected ErrDisallowedByRobots, got %v", err)
	}
}

func TestScanURL_IgnoreRobots(t *testing.T) {
	var hits atomic.Int32
	server := newSiteServer(t, &hits)
	defer server.Close()

	cfg := testConfig()
	cfg.HTTP.RespectRobots = false
	p := New(cfg, nil)

	// Robots are skipped, so the request reaches the server and gets a 404
	_, err := p.ScanURL(context.Background(), server.URL+"/private/page", testEntities())
	if err == nil || errors.Is(err, ErrDisallowedByRobots) {
		t.Fatalf("Expected fetch error, got %v", err)
	}
	if !strings.Contains(err.Error(), "404") {
		t.Errorf("Expected 404 in error, got %v", err)
	}
}

// brokenCache never holds anything and fails every write
type brokenCache struct{}

func (brokenCache) Get(string) ([]byte, bool) { return nil, false }
func (brokenCache) Set(string, []byte, time.Duration) error { return errors.New("disk full") }
func (brokenCache) Delete(string) error { return nil }
func (brokenCache) Clear() error { return nil }

func TestScanURL_LogsThroughLogger(t *testing.T) {
	var hits atomic.Int32
	server := newSiteServer(t, &hits)
	defer server.Close()

	tests := []struct {
		name       string
		verbose    bool
		wantSteps  bool
		wantWarned bool
	}{
		{name: "quiet", verbose: false, wantSteps: false, wantWarned: true},
		{name: "verbose", verbose: true, wantSteps: true, wantWarned: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := New(testConfig(), nil)
			p.cache = brokenCache{}
			p.SetLogger(ui.NewLogger(&out, tt.verbose))

			if _, err := p.ScanURL(context.Background(), server.URL+"/about-us", testEntities()); err != nil {
				t.Fatalf("ScanURL failed: %v", err)
			}

			logged := out.String()
			if got := strings.Contains(logged, "Fetching "+server.URL+"/about-us"); got != tt.wantSteps {
				t.Errorf("fetch step logged = %v, expected %v; output:\n%s", got, tt.wantSteps, logged)
			}
			if got := strings.Contains(logged, "Warning: failed to cache page: disk full"); got != tt.wantWarned {
				t.Errorf("cache warning logged = %v, expected %v; output:\n%s", got, tt.wantWarned, logged)
			}
		})
	}
}

func TestAsk_LogsThroughLogger(t *testing.T) {
	var out bytes.Buffer
	p := New(testConfig(), &stubProvider{answer: "Acme."})
	p.SetLogger(ui.NewLogger(&out, true))
	p.SetLogger(nil) // ignored

	for i := 0; i < 2; i++ {
		if _, err := p.Ask(context.Background(), "Who?", testEntities()); err != nil {
			t.Fatalf("Ask failed: %v", err)
		}
	}

	logged := out.String()
	if strings.Count(logged, "Asking ") != 2 {
		t.Errorf("Expected two ask steps, got:\n%s", logged)
	}
	if !strings.Contains(logged, "✓ Using cached ") {
		t.Errorf("Expected the cached answer to be reported, got:\n%s", logged)
	}
}

func TestScanURL_InvalidURL(t *testing.T) {
	p := New(testConfig(), nil)

	for _, raw := range []string{"ftp://example.com/file", "/relative/path", "http://"} {
		if _, err := p.ScanURL(context.Background(), raw, testEntities()); err == nil {
			t.Errorf("Expected error for %q", raw)
		}
	}
}

func TestAnnotator_Annotate(t *testing.T) {
	var hits atomic.Int32
	server := newSiteServer(t, &hits)
	defer server.Close()

	annotator := New(testConfig(), nil).Annotator(testEntities())

	fromURL, err := annotator.Annotate(context.Background(), model.Document{ID: "site", URL: server.URL + "/about-us"})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if fromURL.Source != SourceURL || fromURL.Subject != "site" {
		t.Errorf("Expected scanned page under document id, got %s / %s", fromURL.Source, fromURL.Subject)
	}

	fromText, err := annotator.Annotate(context.Background(), model.Document{ID: "t", Text: "RoadRunner trap", URL: "http://ignored"})
	if err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}
	if fromText.Source != SourceText || fromText.Summary.Counts[model.CategoryProduct] != 1 {
		t.Errorf("Expected text to win over URL, got %+v", fromText.Summary)
	}
}

func TestSubjectFrom(t *testing.T) {
	long := strings.Repeat("א", 70)

	tests := []struct {
		in   string
		want string
	}{
		{"Short prompt", "Short prompt"},
		{"First line\nsecond line", "First line"},
		{long, strings.Repeat("א", subjectMaxRunes) + "…"},
	}

	for _, tt := range tests {
		if got := subjectFrom(tt.in); got != tt.want {
			t.Errorf("subjectFrom(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
