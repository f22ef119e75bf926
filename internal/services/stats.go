package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/apperr"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/repos"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

const bulkLimit = 1000

// ProductStats is the per-product overview card. ChangePercent compares the
// review count against a second window, defaulting to the 30 days preceding
// the primary one.
type ProductStats struct {
	ProductID     int64                 `json:"product_id"`
	ProductName   string                `json:"product_name"`
	ReviewCount   int64                 `json:"review_count"`
	AvgRating     float64               `json:"avg_rating"`
	Tonality      types.SentimentCounts `json:"tonality"`
	ChangePercent float64               `json:"change_percent"`
}

// ReviewPage is one page of the review listing.
type ReviewPage struct {
	Items    []*types.Review `json:"items"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	PageSize int             `json:"page_size"`
}

// BulkReviewItem is one row of the bulk upload payload.
type BulkReviewItem struct {
	ID        int64   `json:"id"`
	Text      string  `json:"text"`
	Date      string  `json:"date"`
	Rating    *int    `json:"rating,omitempty"`
	Sentiment *string `json:"sentiment,omitempty"`
	Source    *string `json:"source,omitempty"`
	ProductID *int64  `json:"product_id,omitempty"`
}

// StatsService serves the overview card, review listings, and the bulk
// review upload.
type StatsService interface {
	ProductStats(ctx context.Context, tx *gorm.DB, productID int64, w Window, previous *Window, source *string) (*ProductStats, error)
	ListReviews(ctx context.Context, tx *gorm.DB, productID int64, filter repos.ReviewFilter) (*ReviewPage, error)
	BulkCreateReviews(ctx context.Context, items []BulkReviewItem) (int, error)
}

type statsService struct {
	db             *gorm.DB
	hierarchy      HierarchyService
	reviews        repos.ReviewRepo
	reviewProducts repos.ReviewProductRepo
	log            *logger.Logger
}

func NewStatsService(db *gorm.DB, hierarchy HierarchyService, reviews repos.ReviewRepo, reviewProducts repos.ReviewProductRepo, baseLog *logger.Logger) StatsService {
	svcLog := baseLog.With("service", "StatsService")
	return &statsService{
		db:             db,
		hierarchy:      hierarchy,
		reviews:        reviews,
		reviewProducts: reviewProducts,
		log:            svcLog,
	}
}

func (ss *statsService) ProductStats(ctx context.Context, tx *gorm.DB, productID int64, w Window, previous *Window, source *string) (*ProductStats, error) {
	product, err := ss.hierarchy.GetProduct(ctx, tx, productID)
	if err != nil {
		return nil, err
	}
	productIDs, err := ss.hierarchy.Resolve(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	stats := &ProductStats{ProductID: product.ID, ProductName: product.Name}
	if stats.ReviewCount, err = ss.reviews.CountDistinct(ctx, tx, productIDs, w.Start, w.End, source, nil); err != nil {
		return nil, err
	}
	if stats.Tonality, err = ss.reviews.SentimentCounts(ctx, tx, productIDs, w.Start, w.End, source); err != nil {
		return nil, err
	}
	avg, err := ss.reviews.AvgRating(ctx, tx, productIDs, &w.Start, &w.End, source)
	if err != nil {
		return nil, err
	}
	stats.AvgRating = Round1(avg)

	if previous == nil {
		previous = &Window{
			Start: w.Start.AddDate(0, 0, -30),
			End:   w.Start.AddDate(0, 0, -1),
		}
	}
	if previous.Start.After(previous.End) {
		return nil, fmt.Errorf("%w: comparison window start after end", apperr.ErrBadRequest)
	}
	previousCount, err := ss.reviews.CountDistinct(ctx, tx, productIDs, previous.Start, previous.End, source, nil)
	if err != nil {
		return nil, err
	}
	stats.ChangePercent = PctChange(float64(stats.ReviewCount), float64(previousCount))
	return stats, nil
}

func (ss *statsService) ListReviews(ctx context.Context, tx *gorm.DB, productID int64, filter repos.ReviewFilter) (*ReviewPage, error) {
	if filter.Sentiment != nil && !filter.Sentiment.Valid() {
		return nil, fmt.Errorf("%w: sentiment %q", apperr.ErrBadRequest, *filter.Sentiment)
	}
	productIDs, err := ss.hierarchy.Resolve(ctx, tx, productID)
	if err != nil {
		return nil, err
	}
	filter.ProductIDs = productIDs
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 50
	}

	items, total, err := ss.reviews.List(ctx, tx, filter)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []*types.Review{}
	}
	return &ReviewPage{Items: items, Total: total, Page: filter.Page, PageSize: filter.PageSize}, nil
}

func (ss *statsService) BulkCreateReviews(ctx context.Context, items []BulkReviewItem) (int, error) {
	if len(items) == 0 {
		return 0, fmt.Errorf("%w: empty payload", apperr.ErrBadRequest)
	}
	if len(items) > bulkLimit {
		return 0, fmt.Errorf("%w: payload exceeds %d items", apperr.ErrBadRequest, bulkLimit)
	}
	seen := make(map[int64]struct{}, len(items))
	for _, item := range items {
		if _, dup := seen[item.ID]; dup {
			return 0, fmt.Errorf("%w: duplicate id %d", apperr.ErrBadRequest, item.ID)
		}
		seen[item.ID] = struct{}{}
	}

	reviews := make([]*types.Review, 0, len(items))
	productLinks := make([]*int64, 0, len(items))
	for _, item := range items {
		if item.Text == "" {
			return 0, fmt.Errorf("%w: empty text for id %d", apperr.ErrBadRequest, item.ID)
		}
		date, err := time.Parse("2006-01-02", item.Date)
		if err != nil {
			return 0, fmt.Errorf("%w: invalid date %q for id %d", apperr.ErrBadRequest, item.Date, item.ID)
		}
		if item.Rating != nil && (*item.Rating < 1 || *item.Rating > 5) {
			return 0, fmt.Errorf("%w: rating out of range for id %d", apperr.ErrBadRequest, item.ID)
		}
		review := &types.Review{Text: item.Text, Date: date, Rating: item.Rating, Source: item.Source}
		if item.Sentiment != nil {
			s := types.Sentiment(*item.Sentiment)
			if !s.Valid() {
				return 0, fmt.Errorf("%w: sentiment %q for id %d", apperr.ErrBadRequest, *item.Sentiment, item.ID)
			}
			score := SentimentScore(s)
			review.Sentiment = &s
			review.SentimentScore = &score
		}
		reviews = append(reviews, review)
		productLinks = append(productLinks, item.ProductID)
	}

	inserted := 0
	err := ss.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, productID := range productLinks {
			if productID == nil {
				continue
			}
			if _, err := ss.hierarchy.GetProduct(ctx, tx, *productID); err != nil {
				return err
			}
		}
		if _, err := ss.reviews.BulkCreate(ctx, tx, reviews); err != nil {
			return err
		}
		var links []*types.ReviewProduct
		for i, productID := range productLinks {
			if productID == nil {
				continue
			}
			links = append(links, &types.ReviewProduct{
				ReviewID:       reviews[i].ID,
				ProductID:      *productID,
				Sentiment:      reviews[i].Sentiment,
				SentimentScore: reviews[i].SentimentScore,
			})
		}
		if _, err := ss.reviewProducts.Create(ctx, tx, links); err != nil {
			return err
		}
		inserted = len(reviews)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}
