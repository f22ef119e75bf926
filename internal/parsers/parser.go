package parsers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/apperr"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

const userAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"

// Parser scrapes one review site into staging rows.
type Parser interface {
	Source() string
	Parse(ctx context.Context, bankSlug string, pages int) ([]*types.RawReview, error)
}

// fetchDocument does a polite GET and hands the body to goquery.
func fetchDocument(ctx context.Context, httpClient *http.Client, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", "ru-RU,ru;q=0.9")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s returned %d", apperr.ErrUpstreamUnavailable, url, resp.StatusCode)
	}
	return goquery.NewDocumentFromReader(resp.Body)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 30 * time.Second}
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Registry maps source names onto their parsers.
type Registry struct {
	parsers map[string]Parser
	log     *logger.Logger
}

func NewRegistry(baseLog *logger.Logger) *Registry {
	regLog := baseLog.With("component", "ParserRegistry")
	r := &Registry{parsers: map[string]Parser{}, log: regLog}
	for _, p := range []Parser{NewBankiParser(regLog), NewSravniParser(regLog)} {
		r.parsers[p.Source()] = p
	}
	return r
}

// Get returns the parser registered under source.
func (r *Registry) Get(source string) (Parser, error) {
	p, ok := r.parsers[strings.ToLower(source)]
	if !ok {
		return nil, fmt.Errorf("%w: parser %q", apperr.ErrNotFound, source)
	}
	return p, nil
}

// Sources lists the registered parser names.
func (r *Registry) Sources() []string {
	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	return names
}
