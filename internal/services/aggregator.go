package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/apperr"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/repos"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

const (
	GranularityDay   = "day"
	GranularityWeek  = "week"
	GranularityMonth = "month"
)

// Window is an inclusive date range.
type Window struct {
	Start time.Time
	End   time.Time
}

// Bucket holds the facts of one time bucket.
type Bucket struct {
	Label      string
	Tonality   types.SentimentCounts
	Total      int64
	Clusters   map[int64]int64
	AvgRating  float64
	RatedCount int64
}

// TonalityChange is the per-sentiment percentage change of one bucket pair.
type TonalityChange struct {
	Positive float64
	Neutral  float64
	Negative float64
}

// ChangeBucket pairs one bucket of window1 against its positional
// counterpart in window2.
type ChangeBucket struct {
	Label          string
	Tonality       TonalityChange
	TotalPct       float64
	ClustersPct    map[int64]float64
	AvgRatingDelta float64
}

// AggregateResult is the full two-window aggregation.
type AggregateResult struct {
	Period1 []Bucket
	Period2 []Bucket
	Changes []ChangeBucket
}

// AggregatorService buckets canonical-store facts over two comparison
// windows. It is stateless per call.
type AggregatorService interface {
	Aggregate(ctx context.Context, tx *gorm.DB, productID int64, window1 Window, window2 *Window, granularity string, source *string, clusterIDs []int64) (*AggregateResult, error)
}

type aggregatorService struct {
	hierarchy      HierarchyService
	reviews        repos.ReviewRepo
	reviewClusters repos.ReviewClusterRepo
	log            *logger.Logger
}

func NewAggregatorService(hierarchy HierarchyService, reviews repos.ReviewRepo, reviewClusters repos.ReviewClusterRepo, baseLog *logger.Logger) AggregatorService {
	svcLog := baseLog.With("service", "AggregatorService")
	return &aggregatorService{
		hierarchy:      hierarchy,
		reviews:        reviews,
		reviewClusters: reviewClusters,
		log:            svcLog,
	}
}

// Round1 rounds to one decimal, half away from zero.
func Round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// PctChange is the relative change of p1 against base p2, one decimal.
func PctChange(p1, p2 float64) float64 {
	if p2 > 0 {
		return Round1(100 * (p1 - p2) / p2)
	}
	if p1 > 0 {
		return 100.0
	}
	return 0.0
}

// mondayOf returns the Monday on-or-before t.
func mondayOf(t time.Time) time.Time {
	t = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

// ValidGranularity reports whether g is one of day, week, month.
func ValidGranularity(g string) bool {
	return g == GranularityDay || g == GranularityWeek || g == GranularityMonth
}

// BucketLabels generates the complete ordered list of bucket keys
// covering the window.
func BucketLabels(w Window, granularity string) []string {
	var labels []string
	switch granularity {
	case GranularityDay:
		for d := truncateToDay(w.Start); !d.After(w.End); d = d.AddDate(0, 0, 1) {
			labels = append(labels, d.Format("2006-01-02"))
		}
	case GranularityWeek:
		for d := mondayOf(w.Start); !d.After(w.End); d = d.AddDate(0, 0, 7) {
			labels = append(labels, d.Format("2006-01-02"))
		}
	case GranularityMonth:
		d := time.Date(w.Start.Year(), w.Start.Month(), 1, 0, 0, 0, 0, time.UTC)
		for !d.After(w.End) {
			labels = append(labels, d.Format("2006-01"))
			d = d.AddDate(0, 1, 0)
		}
	}
	return labels
}

// bucketLabelFor maps a review date onto its bucket key.
func bucketLabelFor(date time.Time, granularity string) string {
	switch granularity {
	case GranularityWeek:
		return mondayOf(date).Format("2006-01-02")
	case GranularityMonth:
		return date.Format("2006-01")
	}
	return date.Format("2006-01-02")
}

func (as *aggregatorService) Aggregate(ctx context.Context, tx *gorm.DB, productID int64, window1 Window, window2 *Window, granularity string, source *string, clusterIDs []int64) (*AggregateResult, error) {
	if !ValidGranularity(granularity) {
		return nil, fmt.Errorf("%w: granularity %q", apperr.ErrBadRequest, granularity)
	}
	if window1.Start.After(window1.End) {
		return nil, fmt.Errorf("%w: window start after end", apperr.ErrBadRequest)
	}
	if window2 != nil && window2.Start.After(window2.End) {
		return nil, fmt.Errorf("%w: window start after end", apperr.ErrBadRequest)
	}

	productIDs, err := as.hierarchy.Resolve(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	period1, err := as.bucketize(ctx, tx, productIDs, window1, granularity, source, clusterIDs)
	if err != nil {
		return nil, err
	}

	var period2 []Bucket
	if window2 != nil {
		period2, err = as.bucketize(ctx, tx, productIDs, *window2, granularity, source, clusterIDs)
		if err != nil {
			return nil, err
		}
	}

	return &AggregateResult{
		Period1: period1,
		Period2: period2,
		Changes: computeChanges(period1, period2),
	}, nil
}

func (as *aggregatorService) bucketize(ctx context.Context, tx *gorm.DB, productIDs []int64, w Window, granularity string, source *string, clusterIDs []int64) ([]Bucket, error) {
	labels := BucketLabels(w, granularity)
	buckets := make([]Bucket, len(labels))
	index := make(map[string]int, len(labels))
	for i, label := range labels {
		buckets[i] = Bucket{Label: label, Clusters: map[int64]int64{}}
		index[label] = i
	}

	sentimentRows, err := as.reviews.SentimentDateRows(ctx, tx, productIDs, w.Start, w.End, source)
	if err != nil {
		return nil, err
	}
	// A review linked to several products in the set shows up once per
	// distinct sentiment; totals dedupe by review identity.
	seen := make([]map[int64]struct{}, len(buckets))
	for i := range seen {
		seen[i] = map[int64]struct{}{}
	}
	for _, row := range sentimentRows {
		i, ok := index[bucketLabelFor(row.Date, granularity)]
		if !ok {
			continue
		}
		if _, dup := seen[i][row.ReviewID]; !dup {
			seen[i][row.ReviewID] = struct{}{}
			buckets[i].Total++
		}
		if row.Sentiment != nil {
			buckets[i].Tonality.Add(*row.Sentiment, 1)
		}
	}

	clusterRows, err := as.reviewClusters.ClusterDateRows(ctx, tx, productIDs, w.Start, w.End, clusterIDs, source)
	if err != nil {
		return nil, err
	}
	for _, row := range clusterRows {
		if i, ok := index[bucketLabelFor(row.Date, granularity)]; ok {
			buckets[i].Clusters[row.ClusterID]++
		}
	}

	ratingRows, err := as.reviews.RatingDateRows(ctx, tx, productIDs, w.Start, w.End, source)
	if err != nil {
		return nil, err
	}
	sums := make([]int64, len(buckets))
	for _, row := range ratingRows {
		if i, ok := index[bucketLabelFor(row.Date, granularity)]; ok {
			sums[i] += int64(row.Rating)
			buckets[i].RatedCount++
		}
	}
	for i := range buckets {
		if buckets[i].RatedCount > 0 {
			buckets[i].AvgRating = float64(sums[i]) / float64(buckets[i].RatedCount)
		}
	}

	return buckets, nil
}

// tailPct applies the longer-window rule: +100 for window1 extras with a
// positive metric, -100 for window2 extras, else 0.
func tailPct(metric float64, fromPeriod1 bool) float64 {
	if metric <= 0 {
		return 0.0
	}
	if fromPeriod1 {
		return 100.0
	}
	return -100.0
}

func clusterKeys(buckets ...*Bucket) map[int64]struct{} {
	keys := map[int64]struct{}{}
	for _, b := range buckets {
		if b == nil {
			continue
		}
		for id := range b.Clusters {
			keys[id] = struct{}{}
		}
	}
	return keys
}

func computeChanges(period1, period2 []Bucket) []ChangeBucket {
	paired := len(period1)
	if len(period2) < paired {
		paired = len(period2)
	}

	var changes []ChangeBucket
	for i := 0; i < paired; i++ {
		p1, p2 := &period1[i], &period2[i]
		cb := ChangeBucket{
			Label: p1.Label,
			Tonality: TonalityChange{
				Positive: PctChange(float64(p1.Tonality.Positive), float64(p2.Tonality.Positive)),
				Neutral:  PctChange(float64(p1.Tonality.Neutral), float64(p2.Tonality.Neutral)),
				Negative: PctChange(float64(p1.Tonality.Negative), float64(p2.Tonality.Negative)),
			},
			TotalPct:       PctChange(float64(p1.Total), float64(p2.Total)),
			ClustersPct:    map[int64]float64{},
			AvgRatingDelta: Round1(p1.AvgRating - p2.AvgRating),
		}
		for id := range clusterKeys(p1, p2) {
			cb.ClustersPct[id] = PctChange(float64(p1.Clusters[id]), float64(p2.Clusters[id]))
		}
		changes = append(changes, cb)
	}

	appendTail := func(buckets []Bucket, fromPeriod1 bool) {
		for i := paired; i < len(buckets); i++ {
			b := &buckets[i]
			cb := ChangeBucket{
				Label: b.Label,
				Tonality: TonalityChange{
					Positive: tailPct(float64(b.Tonality.Positive), fromPeriod1),
					Neutral:  tailPct(float64(b.Tonality.Neutral), fromPeriod1),
					Negative: tailPct(float64(b.Tonality.Negative), fromPeriod1),
				},
				TotalPct:    tailPct(float64(b.Total), fromPeriod1),
				ClustersPct: map[int64]float64{},
			}
			for id, n := range b.Clusters {
				cb.ClustersPct[id] = tailPct(float64(n), fromPeriod1)
			}
			if fromPeriod1 {
				cb.AvgRatingDelta = Round1(b.AvgRating)
			} else {
				cb.AvgRatingDelta = Round1(-b.AvgRating)
			}
			changes = append(changes, cb)
		}
	}
	appendTail(period1, true)
	appendTail(period2, false)

	return changes
}
