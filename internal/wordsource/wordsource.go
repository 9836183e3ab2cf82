// Package wordsource supplies the words of a session. Sources never fail:
// any problem falls back to the local word pool.
package wordsource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/verte-zerg/keysprint/internal/generator"
	"github.com/verte-zerg/keysprint/internal/model"
	"github.com/verte-zerg/keysprint/internal/wordlist"
)

const (
	defaultQuoteTimeout = 3 * time.Second
	maxQuoteBody        = 64 << 10
)

// Source returns an ordered word sequence for a session.
type Source interface {
	Fetch(ctx context.Context, count int) []string
}

// Pool samples words from a local list.
type Pool struct {
	gen   *generator.Generator
	words []string
	opts  generator.Options
}

// NewPool returns a pool over words, or over the built-in list when words is
// empty.
func NewPool(gen *generator.Generator, words []string, opts generator.Options) *Pool {
	if len(words) == 0 {
		words = wordlist.Default()
	}
	if gen == nil {
		gen = generator.New()
	}
	return &Pool{gen: gen, words: words, opts: opts}
}

// Fetch implements Source.
func (p *Pool) Fetch(_ context.Context, count int) []string {
	if count <= 0 {
		count = model.DefaultWordCount
	}
	return p.gen.Generate(p.words, count, p.opts)
}

// Quotes fetches a quote over HTTP and splits it into words.
type Quotes struct {
	url      string
	client   *http.Client
	timeout  time.Duration
	fallback Source
}

// QuotesOption configures Quotes.
type QuotesOption func(*Quotes)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) QuotesOption {
	return func(q *Quotes) {
		q.client = client
	}
}

// WithTimeout bounds one quote request.
func WithTimeout(d time.Duration) QuotesOption {
	return func(q *Quotes) {
		q.timeout = d
	}
}

// NewQuotes returns a quote source falling back to fallback.
func NewQuotes(url string, fallback Source, opts ...QuotesOption) *Quotes {
	q := &Quotes{
		url:      url,
		client:   http.DefaultClient,
		timeout:  defaultQuoteTimeout,
		fallback: fallback,
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Fetch implements Source. A quote longer than count is truncated and a
// shorter one is padded with the fallback's words. Any failure returns the
// fallback's words.
func (q *Quotes) Fetch(ctx context.Context, count int) (words []string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("quote source panicked, using word pool: %v", r)
			words = q.fallback.Fetch(ctx, count)
		}
	}()
	words, err := q.fetch(ctx)
	if err != nil {
		log.Printf("quote fetch failed, using word pool: %v", err)
		return q.fallback.Fetch(ctx, count)
	}
	switch {
	case count <= 0:
	case len(words) > count:
		words = words[:count]
	case len(words) < count:
		words = append(words, q.fallback.Fetch(ctx, count-len(words))...)
	}
	return words
}

type quotePayload struct {
	Content string `json:"content"`
	Quote   string `json:"quote"`
	Text    string `json:"text"`
}

func (p quotePayload) text() string {
	for _, s := range []string{p.Content, p.Quote, p.Text} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func (q *Quotes) fetch(ctx context.Context) ([]string, error) {
	if q.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.url, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := q.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quote: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort body close.
			_ = cerr
		}
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxQuoteBody))
	if err != nil {
		return nil, fmt.Errorf("failed to read quote: %w", err)
	}
	text, err := decodeQuote(body)
	if err != nil {
		return nil, err
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil, fmt.Errorf("quote is empty")
	}
	return words, nil
}

// decodeQuote accepts a quote object or an array whose first element is one.
func decodeQuote(body []byte) (string, error) {
	var single quotePayload
	if err := json.Unmarshal(body, &single); err == nil {
		return single.text(), nil
	}
	var list []quotePayload
	if err := json.Unmarshal(body, &list); err != nil {
		return "", fmt.Errorf("failed to decode quote: %w", err)
	}
	if len(list) == 0 {
		return "", fmt.Errorf("quote list is empty")
	}
	return list[0].text(), nil
}

// For selects the source configured by cfg.
func For(cfg model.Config, pool Source, opts ...QuotesOption) Source {
	if cfg.Source == model.SourceQuotes {
		return NewQuotes(cfg.QuoteURL, pool, opts...)
	}
	return pool
}
