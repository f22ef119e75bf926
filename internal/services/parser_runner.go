package services

import (
	"context"
	"encoding/json"

	"gorm.io/datatypes"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/clients/classifier"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/parsers"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/repos"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

// ParseResult reports one scrape-and-stage run.
type ParseResult struct {
	Parsed     int  `json:"parsed"`
	Staged     int  `json:"staged"`
	Classified bool `json:"classified"`
}

// ParserRunner bridges the blocking scrapers into the request path:
// scrape, optionally classify, then stage.
type ParserRunner interface {
	Run(ctx context.Context, source, bankSlug string, pages int, classify bool) (*ParseResult, error)
	Sources() []string
}

type parserRunner struct {
	registry   *parsers.Registry
	classifier classifier.Client
	rawReviews repos.RawReviewRepo
	log        *logger.Logger
}

func NewParserRunner(registry *parsers.Registry, classifierClient classifier.Client, rawReviews repos.RawReviewRepo, baseLog *logger.Logger) ParserRunner {
	svcLog := baseLog.With("service", "ParserRunner")
	return &parserRunner{
		registry:   registry,
		classifier: classifierClient,
		rawReviews: rawReviews,
		log:        svcLog,
	}
}

func (pr *parserRunner) Sources() []string {
	return pr.registry.Sources()
}

func (pr *parserRunner) Run(ctx context.Context, source, bankSlug string, pages int, classify bool) (*ParseResult, error) {
	parser, err := pr.registry.Get(source)
	if err != nil {
		return nil, err
	}

	// The scrape blocks on network I/O; run it off the request goroutine
	// so cancellation stays responsive.
	type parseOut struct {
		records []*types.RawReview
		err     error
	}
	out := make(chan parseOut, 1)
	go func() {
		records, err := parser.Parse(ctx, bankSlug, pages)
		out <- parseOut{records: records, err: err}
	}()

	var records []*types.RawReview
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case result := <-out:
		if result.err != nil {
			return nil, result.err
		}
		records = result.records
	}

	result := &ParseResult{Parsed: len(records)}
	if classify && len(records) > 0 {
		if err := pr.classify(ctx, records); err != nil {
			return nil, err
		}
		result.Classified = true
	}

	if _, err := pr.rawReviews.BulkCreate(ctx, nil, records); err != nil {
		return nil, err
	}
	result.Staged = len(records)
	pr.log.Info("Parser run finished", "source", source, "bank", bankSlug, "staged", result.Staged)
	return result, nil
}

// classify embeds classifier predictions into each record's
// additional_data, keyed positionally by the request ids.
func (pr *parserRunner) classify(ctx context.Context, records []*types.RawReview) error {
	items := make([]classifier.Item, 0, len(records))
	for i, record := range records {
		text := record.ReviewText
		if runes := []rune(text); len(runes) > 1000 {
			text = string(runes[:1000])
		}
		items = append(items, classifier.Item{ID: i, Text: text})
	}

	predictions, err := pr.classifier.Predict(ctx, items)
	if err != nil {
		return err
	}

	for _, p := range predictions {
		if p.ID < 0 || p.ID >= len(records) {
			continue
		}
		record := records[p.ID]
		payload := map[string]any{
			"predictions": types.Predictions{
				Topics:     p.Topics,
				Sentiments: p.Sentiments,
			},
		}
		encoded, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		record.AdditionalData = datatypes.JSON(encoded)
		if len(p.Topics) > 0 {
			record.ProductName = p.Topics[0]
		}
	}
	return nil
}
