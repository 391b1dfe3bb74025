package worker

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ppiankov/spotlight/internal/model"
)

// maxDocumentLine bounds a single JSON Lines record
const maxDocumentLine = 16 << 20

// Annotator annotates one document
type Annotator interface {
	Annotate(ctx context.Context, doc model.Document) (*model.Report, error)
}

// DocumentJob represents one document annotation job
type DocumentJob struct {
	Doc       model.Document
	Annotator Annotator
}

// Execute executes the annotation job
func (j *DocumentJob) Execute(ctx context.Context) *DocumentResult {
	report, err := j.Annotator.Annotate(ctx, j.Doc)
	if err != nil {
		return &DocumentResult{ID: j.Doc.ID, Error: err}
	}
	return &DocumentResult{ID: j.Doc.ID, Report: report}
}

// DocumentResult represents the result of a document job
type DocumentResult struct {
	ID     string
	Report *model.Report
	Error  error
}

// GetError returns the error from the document result
func (r *DocumentResult) GetError() error {
	return r.Error
}

// BatchProcessor annotates multiple documents concurrently
type BatchProcessor struct {
	annotator   Annotator
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(annotator Annotator, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		annotator:   annotator,
		concurrency: concurrency,
	}
}

// Process annotates documents concurrently. Results are in input order.
func (b *BatchProcessor) Process(ctx context.Context, docs []model.Document) []*DocumentResult {
	if len(docs) == 0 {
		return []*DocumentResult{}
	}

	pool := NewPool[*DocumentResult](ctx, b.concurrency)
	pool.Start()

	for _, doc := range docs {
		if !pool.Submit(&DocumentJob{Doc: doc, Annotator: b.annotator}) {
			break
		}
	}

	results := pool.Wait()

	// Documents never run because the context ended still get a result
	out := make([]*DocumentResult, len(docs))
	for i, doc := range docs {
		if i < len(results) && results[i] != nil {
			out[i] = results[i]
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = fmt.Errorf("document %s was not processed", doc.ID)
		}
		out[i] = &DocumentResult{ID: doc.ID, Error: err}
	}

	return out
}

// ProcessFile reads documents from a JSON Lines file and annotates them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*DocumentResult, error) {
	docs, err := ReadDocuments(filePath)
	if err != nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}

	return b.Process(ctx, docs), nil
}

// ReadDocuments reads documents from a JSON Lines file, one
// {"id","text","format","url"} object per line. Blank lines and lines starting
// with # are skipped, missing IDs default to doc-<line>, and repeated IDs keep
// the first document.
func ReadDocuments(filePath string) ([]model.Document, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var docs []model.Document
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), maxDocumentLine)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var doc model.Document
		if err := json.Unmarshal([]byte(line), &doc); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		if doc.Text == "" && doc.URL == "" {
			return nil, fmt.Errorf("line %d: document has neither text nor url", lineNo)
		}
		if doc.ID == "" {
			doc.ID = "doc-" + strconv.Itoa(lineNo)
		}

		if !seen[doc.ID] {
			seen[doc.ID] = true
			docs = append(docs, doc)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return docs, nil
}
