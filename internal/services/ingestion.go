package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/repos"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

// errRecordSkipped aborts a per-record savepoint without failing the batch.
var errRecordSkipped = errors.New("staging record skipped")

// IngestResult reports one transformer run.
type IngestResult struct {
	Processed       int `json:"processed"`
	Created         int `json:"created"`
	ProductsCreated int `json:"products_created"`
}

// IngestionService turns staging rows into canonical reviews with product
// links. Per-record failures are logged and skipped; each (bank, topic)
// batch commits in one transaction.
type IngestionService interface {
	Process(ctx context.Context, bankSlug, topic string, limit int, markProcessed bool) (*IngestResult, error)
	ProcessAll(ctx context.Context, limit int) (*IngestResult, error)
}

type ingestionService struct {
	db             *gorm.DB
	rawReviews     repos.RawReviewRepo
	reviews        repos.ReviewRepo
	reviewProducts repos.ReviewProductRepo
	hierarchy      HierarchyService
	log            *logger.Logger
}

func NewIngestionService(db *gorm.DB, rawReviews repos.RawReviewRepo, reviews repos.ReviewRepo, reviewProducts repos.ReviewProductRepo, hierarchy HierarchyService, baseLog *logger.Logger) IngestionService {
	svcLog := baseLog.With("service", "IngestionService")
	return &ingestionService{
		db:             db,
		rawReviews:     rawReviews,
		reviews:        reviews,
		reviewProducts: reviewProducts,
		hierarchy:      hierarchy,
		log:            svcLog,
	}
}

// matchesTopic keeps staging rows whose primary topic or predicted topics
// include the requested English topic code.
func matchesTopic(raw *types.RawReview, topic string) bool {
	if topic == "" {
		return true
	}
	if strings.EqualFold(raw.ProductName, topic) {
		return true
	}
	predictions, ok, err := types.ParsePredictions(raw.AdditionalData)
	if err != nil || !ok {
		return false
	}
	for _, t := range predictions.Topics {
		if strings.EqualFold(t, topic) {
			return true
		}
	}
	return false
}

func (is *ingestionService) Process(ctx context.Context, bankSlug, topic string, limit int, markProcessed bool) (*IngestResult, error) {
	staged, err := is.rawReviews.GetUnprocessedByBank(ctx, nil, bankSlug, limit)
	if err != nil {
		return nil, err
	}

	result := &IngestResult{}
	err = is.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var done []int64
		for _, raw := range staged {
			if !matchesTopic(raw, topic) {
				continue
			}
			// Savepoint per record: a row that fails partway through
			// leaves no review behind while the rest of the batch
			// still commits.
			var created, productsCreated int
			recErr := tx.Transaction(func(rtx *gorm.DB) error {
				var ok bool
				created, productsCreated, ok = is.processRecord(ctx, rtx, raw)
				if !ok {
					return errRecordSkipped
				}
				return nil
			})
			if recErr != nil {
				if !errors.Is(recErr, errRecordSkipped) {
					is.log.Error("Record rolled back", "raw_review_id", raw.ID, "error", recErr)
				}
				continue
			}
			result.Created += created
			result.ProductsCreated += productsCreated
			result.Processed++
			done = append(done, raw.ID)
		}
		if markProcessed {
			return is.rawReviews.MarkProcessed(ctx, tx, done)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	is.log.Info("Ingestion batch finished",
		"bank", bankSlug, "topic", topic,
		"processed", result.Processed, "created", result.Created,
		"products_created", result.ProductsCreated)
	return result, nil
}

func (is *ingestionService) ProcessAll(ctx context.Context, limit int) (*IngestResult, error) {
	pairs, err := is.rawReviews.UnprocessedPairs(ctx, nil)
	if err != nil {
		return nil, err
	}

	total := &IngestResult{}
	for _, pair := range pairs {
		result, err := is.Process(ctx, pair.BankSlug, pair.ProductName, limit, true)
		if err != nil {
			is.log.Error("Ingestion batch failed", "bank", pair.BankSlug, "topic", pair.ProductName, "error", err)
			continue
		}
		total.Processed += result.Processed
		total.Created += result.Created
		total.ProductsCreated += result.ProductsCreated
	}
	return total, nil
}

// processRecord canonicalizes a single staging row. A false return means
// the row is skipped and stays unprocessed.
func (is *ingestionService) processRecord(ctx context.Context, tx *gorm.DB, raw *types.RawReview) (created, productsCreated int, ok bool) {
	predictions, found, err := types.ParsePredictions(raw.AdditionalData)
	if err != nil {
		is.log.Warn("Bad predictions payload", "raw_review_id", raw.ID, "error", err)
		return 0, 0, false
	}
	if !found || len(predictions.Topics) == 0 {
		return 0, 0, false
	}
	if !predictions.Aligned() {
		is.log.Warn("Prediction arrays have mismatched lengths", "raw_review_id", raw.ID)
		return 0, 0, false
	}

	rawRating := raw.Rating
	if len(predictions.Ratings) > 0 {
		rawRating = predictions.Ratings[0].String()
	}
	rating := ParseRating(rawRating)
	if rating == nil {
		return 0, 0, false
	}

	rawDate := raw.ReviewDate
	if dates := predictions.Dates(); len(dates) > 0 {
		rawDate = dates[0]
	}
	if rawDate == "" && raw.ReviewTimestamp != nil {
		rawDate = raw.ReviewTimestamp.Format("02.01.2006 15:04")
	}
	date, parsed := ParseStagingDate(rawDate, raw.ReviewTimestamp)
	if !parsed {
		date = truncateToDay(raw.ParsedAt)
	}

	source := InferSource(raw.SourceURL, raw.SourceURL)
	aggregate := AggregateSentiment(predictions.Sentiments)
	aggregateScore := SentimentScore(aggregate)

	// Distinct topics can map to the same display name (other and general
	// both become «Другой»), so the link plan is deduplicated up front;
	// the first occurrence's sentiment wins.
	type topicLink struct {
		displayName string
		sentiment   types.Sentiment
	}
	var plan []topicLink
	seen := map[string]bool{}
	for i, topic := range predictions.Topics {
		displayName := TranslateTopic(topic)
		if displayName == "" {
			continue
		}
		fold := types.FoldName(displayName)
		if seen[fold] {
			continue
		}
		seen[fold] = true

		linkSentiment := aggregate
		if i < len(predictions.Sentiments) {
			if s, ok := TranslateSentiment(predictions.Sentiments[i]); ok {
				linkSentiment = s
			}
		}
		plan = append(plan, topicLink{displayName: displayName, sentiment: linkSentiment})
	}
	if len(plan) == 0 {
		return 0, 0, false
	}

	review := &types.Review{
		Text:           raw.ReviewText,
		Date:           date,
		Rating:         rating,
		Sentiment:      &aggregate,
		SentimentScore: &aggregateScore,
		Source:         &source,
	}
	if _, err := is.reviews.Create(ctx, tx, review); err != nil {
		is.log.Error("Failed to create review", "raw_review_id", raw.ID, "error", err)
		return 0, 0, false
	}
	created = 1

	links := make([]*types.ReviewProduct, 0, len(plan))
	for _, item := range plan {
		product, newProducts, err := is.hierarchy.GetOrCreate(ctx, tx, item.displayName)
		if err != nil {
			is.log.Error("Failed to resolve topic product", "topic", item.displayName, "error", err)
			return 0, 0, false
		}
		productsCreated += newProducts

		sentiment := item.sentiment
		score := SentimentScore(sentiment)
		links = append(links, &types.ReviewProduct{
			ReviewID:       review.ID,
			ProductID:      product.ID,
			Sentiment:      &sentiment,
			SentimentScore: &score,
		})
	}
	if _, err := is.reviewProducts.Create(ctx, tx, links); err != nil {
		is.log.Error("Failed to link review to products", "review_id", review.ID, "error", err)
		return 0, 0, false
	}

	return created, productsCreated, true
}
