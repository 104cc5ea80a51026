// Package rulebook loads declarative rule definitions from a file or an HTTP
// endpoint and builds them into promotion rules.
package rulebook

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/promo-engine/internal/promotion"
	"github.com/noah-isme/promo-engine/internal/promotion/rules"
)

// ErrFetch is returned when a remote rulebook cannot be retrieved.
var ErrFetch = errors.New("rulebook fetch failed")

// ErrEmpty is reported by Check when a configured source yielded no rules.
var ErrEmpty = errors.New("rulebook has no rules")

const maxDocumentBytes = 1 << 20

// Document is the JSON layout of a rulebook.
type Document struct {
	Rules []rules.Definition `json:"rules"`
}

// Book is a parsed rulebook. Built rules are stateless and safe to share
// between engines.
type Book struct {
	source      string
	definitions []rules.Definition
	rules       []promotion.Rule
}

// Empty returns a book without rules.
func Empty() *Book {
	return &Book{}
}

// Source reports where the book was loaded from.
func (b *Book) Source() string { return b.source }

// Len returns the number of rules in the book.
func (b *Book) Len() int { return len(b.rules) }

// Definitions returns a copy of the declarative definitions.
func (b *Book) Definitions() []rules.Definition {
	out := make([]rules.Definition, len(b.definitions))
	copy(out, b.definitions)
	return out
}

// Rules returns the built rules in document order.
func (b *Book) Rules() []promotion.Rule {
	out := make([]promotion.Rule, len(b.rules))
	copy(out, b.rules)
	return out
}

// Check is a readiness probe: a book loaded from a source must hold at least
// one rule.
func (b *Book) Check(context.Context) error {
	if b.source != "" && len(b.rules) == 0 {
		return fmt.Errorf("%w: %s", ErrEmpty, b.source)
	}
	return nil
}

// Parse decodes a rulebook. Both {"rules": [...]} and a bare array of
// definitions are accepted.
func Parse(r io.Reader) (*Book, error) {
	raw, err := io.ReadAll(io.LimitReader(r, maxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read rulebook: %w", err)
	}
	if len(raw) > maxDocumentBytes {
		return nil, fmt.Errorf("rulebook exceeds %d bytes", maxDocumentBytes)
	}

	var doc Document
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		err = decodeStrict(trimmed, &doc.Rules)
	} else {
		err = decodeStrict(trimmed, &doc)
	}
	if err != nil {
		return nil, fmt.Errorf("decode rulebook: %w", err)
	}

	built, err := rules.BuildAll(doc.Rules)
	if err != nil {
		return nil, err
	}
	return &Book{definitions: doc.Rules, rules: built}, nil
}

func decodeStrict(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// HTTPClient returns the instrumented client used for remote rulebooks.
func HTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}
}

// Loader resolves a rulebook source into a Book.
type Loader struct {
	client *http.Client
	logger zerolog.Logger
}

// NewLoader constructs a Loader. A nil client falls back to HTTPClient(0).
func NewLoader(client *http.Client, logger zerolog.Logger) *Loader {
	if client == nil {
		client = HTTPClient(0)
	}
	return &Loader{client: client, logger: logger}
}

// Load reads source, which may be empty (no rules), an http(s) URL or a
// file path.
func (l *Loader) Load(ctx context.Context, source string) (*Book, error) {
	source = strings.TrimSpace(source)
	if source == "" {
		return Empty(), nil
	}

	var (
		book *Book
		err  error
	)
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		book, err = l.fetch(ctx, source)
	} else {
		book, err = l.readFile(source)
	}
	if err != nil {
		return nil, err
	}
	book.source = source
	l.logger.Info().Str("source", source).Int("rules", book.Len()).Msg("rulebook_loaded")
	return book, nil
}

func (l *Loader) readFile(path string) (*Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open rulebook: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

func (l *Loader) fetch(ctx context.Context, url string) (*Book, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}
	return Parse(resp.Body)
}
