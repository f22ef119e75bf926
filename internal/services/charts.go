package services

import (
	"context"
	"sort"

	"gorm.io/gorm"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/repos"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

// Fixed palettes. Cluster colors cycle by cluster id.
var (
	clusterPalette     = []string{"blue", "cyan", "pink", "purple", "green"}
	tonalityPieLabels  = []string{"negative", "neutral", "positive"}
	tonalityPieColors  = []string{"red", "yellow", "green"}
	smallBarRowLabels  = []string{"Негатив", "Нейтрал", "Позитив"}
	smallBarRowColors  = []string{"orange", "cyan", "blue"}
	tonalityBarColors  = map[string]string{"negative": "red", "neutral": "yellow", "positive": "green"}
	smallBarWindowDays = 30
)

type TonalityBucket struct {
	Aggregation string                `json:"aggregation"`
	Tonality    types.SentimentCounts `json:"tonality"`
}

type TonalityChangePayload struct {
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
}

type TonalityChangeBucket struct {
	Aggregation      string                `json:"aggregation"`
	PercentageChange TonalityChangePayload `json:"percentage_change"`
}

// ReviewCountChart is the tonality-per-bucket comparison of two windows.
type ReviewCountChart struct {
	Period1 []TonalityBucket       `json:"period1"`
	Period2 []TonalityBucket       `json:"period2"`
	Changes []TonalityChangeBucket `json:"changes"`
}

type CountBucket struct {
	Aggregation string `json:"aggregation"`
	Count       int64  `json:"count"`
}

type CountChangeBucket struct {
	Aggregation   string  `json:"aggregation"`
	ChangePercent float64 `json:"change_percent"`
}

// BarChart is the scalar-count variant of the two-window comparison.
type BarChart struct {
	Period1 []CountBucket       `json:"period1"`
	Period2 []CountBucket       `json:"period2"`
	Changes []CountChangeBucket `json:"changes"`
}

type RatingBucket struct {
	Aggregation string  `json:"aggregation"`
	AvgRating   float64 `json:"avg_rating"`
	Count       int64   `json:"count"`
}

type RatingChangeBucket struct {
	Aggregation string  `json:"aggregation"`
	Change      float64 `json:"change"`
}

// RatingChart tracks per-bucket average rating across two windows.
type RatingChart struct {
	Period1 []RatingBucket       `json:"period1"`
	Period2 []RatingBucket       `json:"period2"`
	Changes []RatingChangeBucket `json:"changes"`
}

type PieWindow struct {
	Labels []string  `json:"labels"`
	Data   []float64 `json:"data"`
	Colors []string  `json:"colors"`
	Total  int64     `json:"total"`
}

type PieChanges struct {
	Labels                    []string  `json:"labels"`
	PercentagePointChanges    []float64 `json:"percentage_point_changes"`
	RelativePercentageChanges []float64 `json:"relative_percentage_changes"`
}

// PieChart is the share-of-total projection over two windows.
type PieChart struct {
	Period1 PieWindow  `json:"period1"`
	Period2 PieWindow  `json:"period2"`
	Changes PieChanges `json:"changes"`
}

type StackedBucket struct {
	Aggregation string           `json:"aggregation"`
	Clusters    map[string]int64 `json:"clusters"`
}

type StackedChangeBucket struct {
	Aggregation      string             `json:"aggregation"`
	PercentageChange map[string]float64 `json:"percentage_change"`
}

// StackedBars is the per-bucket breakdown keyed by cluster or sentiment
// name.
type StackedBars struct {
	Period1 []StackedBucket       `json:"period1"`
	Period2 []StackedBucket       `json:"period2"`
	Changes []StackedChangeBucket `json:"changes"`
	Colors  map[string]string     `json:"colors,omitempty"`
}

type SmallBarRow struct {
	Label   string  `json:"label"`
	Percent float64 `json:"percent"`
	Color   string  `json:"color"`
}

// SmallBarChart is one cluster card: total reviews, change against the
// preceding 30-day window, and a three-row sentiment split.
type SmallBarChart struct {
	Title         string        `json:"title"`
	ReviewsCount  int64         `json:"reviews_count"`
	ChangePercent int           `json:"change_percent"`
	Data          []SmallBarRow `json:"data"`
}

type ChangeChartBucket struct {
	Aggregation   string  `json:"aggregation"`
	Count         int64   `json:"count"`
	ChangePercent float64 `json:"change_percent"`
}

// ChangeChart tracks bucket-over-bucket movement inside one window.
type ChangeChart struct {
	Buckets []ChangeChartBucket `json:"buckets"`
}

// ChartService shapes aggregator output into the dashboard payloads.
type ChartService interface {
	ChangeChart(ctx context.Context, tx *gorm.DB, productID int64, w Window, granularity string, source *string) (*ChangeChart, error)
	ReviewCountChart(ctx context.Context, tx *gorm.DB, productID int64, w1, w2 Window, granularity string, source *string) (*ReviewCountChart, error)
	BarChart(ctx context.Context, tx *gorm.DB, productID int64, w1, w2 Window, granularity string, source *string) (*BarChart, error)
	RatingChart(ctx context.Context, tx *gorm.DB, productID int64, w1, w2 Window, granularity string, source *string) (*RatingChart, error)
	ClusterPie(ctx context.Context, tx *gorm.DB, productID int64, w1, w2 Window, source *string) (*PieChart, error)
	TonalityPie(ctx context.Context, tx *gorm.DB, productID int64, w1, w2 Window, source *string) (*PieChart, error)
	ClusterStackedBars(ctx context.Context, tx *gorm.DB, productID int64, w1, w2 Window, granularity string, source *string) (*StackedBars, error)
	TonalityStackedBars(ctx context.Context, tx *gorm.DB, productID int64, w1, w2 Window, granularity string, source *string) (*StackedBars, error)
	SmallBars(ctx context.Context, tx *gorm.DB, productID int64, w Window, source *string) ([]SmallBarChart, error)
}

type chartService struct {
	aggregator     AggregatorService
	hierarchy      HierarchyService
	reviews        repos.ReviewRepo
	clusters       repos.ClusterRepo
	reviewClusters repos.ReviewClusterRepo
	log            *logger.Logger
}

func NewChartService(aggregator AggregatorService, hierarchy HierarchyService, reviews repos.ReviewRepo, clusters repos.ClusterRepo, reviewClusters repos.ReviewClusterRepo, baseLog *logger.Logger) ChartService {
	svcLog := baseLog.With("service", "ChartService")
	return &chartService{
		aggregator:     aggregator,
		hierarchy:      hierarchy,
		reviews:        reviews,
		clusters:       clusters,
		reviewClusters: reviewClusters,
		log:            svcLog,
	}
}

func clusterColor(clusterID int64) string {
	return clusterPalette[int(clusterID)%len(clusterPalette)]
}

func (cs *chartService) ReviewCountChart(ctx context.Context, tx *gorm.DB, productID int64, w1, w2 Window, granularity string, source *string) (*ReviewCountChart, error) {
	result, err := cs.aggregator.Aggregate(ctx, tx, productID, w1, &w2, granularity, source, nil)
	if err != nil {
		return nil, err
	}

	chart := &ReviewCountChart{
		Period1: make([]TonalityBucket, 0, len(result.Period1)),
		Period2: make([]TonalityBucket, 0, len(result.Period2)),
		Changes: make([]TonalityChangeBucket, 0, len(result.Changes)),
	}
	for _, b := range result.Period1 {
		chart.Period1 = append(chart.Period1, TonalityBucket{Aggregation: b.Label, Tonality: b.Tonality})
	}
	for _, b := range result.Period2 {
		chart.Period2 = append(chart.Period2, TonalityBucket{Aggregation: b.Label, Tonality: b.Tonality})
	}
	for _, c := range result.Changes {
		chart.Changes = append(chart.Changes, TonalityChangeBucket{
			Aggregation: c.Label,
			PercentageChange: TonalityChangePayload{
				Positive: c.Tonality.Positive,
				Neutral:  c.Tonality.Neutral,
				Negative: c.Tonality.Negative,
			},
		})
	}
	return chart, nil
}

func (cs *chartService) ChangeChart(ctx context.Context, tx *gorm.DB, productID int64, w Window, granularity string, source *string) (*ChangeChart, error) {
	result, err := cs.aggregator.Aggregate(ctx, tx, productID, w, nil, granularity, source, nil)
	if err != nil {
		return nil, err
	}

	chart := &ChangeChart{Buckets: make([]ChangeChartBucket, 0, len(result.Period1))}
	for i, b := range result.Period1 {
		bucket := ChangeChartBucket{Aggregation: b.Label, Count: b.Total}
		// The first bucket has no baseline.
		if i > 0 {
			bucket.ChangePercent = PctChange(float64(b.Total), float64(result.Period1[i-1].Total))
		}
		chart.Buckets = append(chart.Buckets, bucket)
	}
	return chart, nil
}

func (cs *chartService) BarChart(ctx context.Context, tx *gorm.DB, productID int64, w1, w2 Window, granularity string, source *string) (*BarChart, error) {
	result, err := cs.aggregator.Aggregate(ctx, tx, productID, w1, &w2, granularity, source, nil)
	if err != nil {
		return nil, err
	}

	chart := &BarChart{}
	for _, b := range result.Period1 {
		chart.Period1 = append(chart.Period1, CountBucket{Aggregation: b.Label, Count: b.Total})
	}
	for _, b := range result.Period2 {
		chart.Period2 = append(chart.Period2, CountBucket{Aggregation: b.Label, Count: b.Total})
	}
	for _, c := range result.Changes {
		chart.Changes = append(chart.Changes, CountChangeBucket{Aggregation: c.Label, ChangePercent: c.TotalPct})
	}
	return chart, nil
}

func (cs *chartService) RatingChart(ctx context.Context, tx *gorm.DB, productID int64, w1, w2 Window, granularity string, source *string) (*RatingChart, error) {
	result, err := cs.aggregator.Aggregate(ctx, tx, productID, w1, &w2, granularity, source, nil)
	if err != nil {
		return nil, err
	}

	chart := &RatingChart{}
	for _, b := range result.Period1 {
		chart.Period1 = append(chart.Period1, RatingBucket{Aggregation: b.Label, AvgRating: Round1(b.AvgRating), Count: b.RatedCount})
	}
	for _, b := range result.Period2 {
		chart.Period2 = append(chart.Period2, RatingBucket{Aggregation: b.Label, AvgRating: Round1(b.AvgRating), Count: b.RatedCount})
	}
	for _, c := range result.Changes {
		chart.Changes = append(chart.Changes, RatingChangeBucket{Aggregation: c.Label, Change: c.AvgRatingDelta})
	}
	return chart, nil
}

// clusterWindowCounts returns distinct review counts per cluster and the
// distinct review total for one window.
func (cs *chartService) clusterWindowCounts(ctx context.Context, tx *gorm.DB, productIDs []int64, w Window, source *string) (map[int64]int64, int64, error) {
	rows, err := cs.reviewClusters.ClusterDateRows(ctx, tx, productIDs, w.Start, w.End, nil, source)
	if err != nil {
		return nil, 0, err
	}
	counts := map[int64]int64{}
	distinct := map[int64]struct{}{}
	for _, row := range rows {
		counts[row.ClusterID]++
		distinct[row.ReviewID] = struct{}{}
	}
	return counts, int64(len(distinct)), nil
}

func share(count, total int64) float64 {
	if total <= 0 {
		return 0.0
	}
	return Round1(100 * float64(count) / float64(total))
}

func (cs *chartService) ClusterPie(ctx context.Context, tx *gorm.DB, productID int64, w1, w2 Window, source *string) (*PieChart, error) {
	productIDs, err := cs.hierarchy.Resolve(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	counts1, total1, err := cs.clusterWindowCounts(ctx, tx, productIDs, w1, source)
	if err != nil {
		return nil, err
	}
	counts2, total2, err := cs.clusterWindowCounts(ctx, tx, productIDs, w2, source)
	if err != nil {
		return nil, err
	}

	idSet := map[int64]struct{}{}
	for id := range counts1 {
		idSet[id] = struct{}{}
	}
	for id := range counts2 {
		idSet[id] = struct{}{}
	}
	ids := make([]int64, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	clusters, err := cs.clusters.GetByIDs(ctx, tx, ids)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(clusters))
	for _, c := range clusters {
		names[c.ID] = c.Name
	}

	chart := &PieChart{
		Period1: PieWindow{Total: total1},
		Period2: PieWindow{Total: total2},
	}
	for _, id := range ids {
		name := names[id]
		color := clusterColor(id)
		chart.Period1.Labels = append(chart.Period1.Labels, name)
		chart.Period1.Data = append(chart.Period1.Data, share(counts1[id], total1))
		chart.Period1.Colors = append(chart.Period1.Colors, color)
		chart.Period2.Labels = append(chart.Period2.Labels, name)
		chart.Period2.Data = append(chart.Period2.Data, share(counts2[id], total2))
		chart.Period2.Colors = append(chart.Period2.Colors, color)

		chart.Changes.Labels = append(chart.Changes.Labels, name)
		chart.Changes.PercentagePointChanges = append(chart.Changes.PercentagePointChanges,
			Round1(share(counts1[id], total1)-share(counts2[id], total2)))
		chart.Changes.RelativePercentageChanges = append(chart.Changes.RelativePercentageChanges,
			PctChange(float64(counts1[id]), float64(counts2[id])))
	}
	return chart, nil
}

// tonalityFacts counts distinct reviews per sentiment over one window. The
// total is the distinct review count, so a review linked with several
// sentiments is still one review in the denominator.
func (cs *chartService) tonalityFacts(ctx context.Context, tx *gorm.DB, ids []int64, w Window, source *string) (types.SentimentCounts, int64, error) {
	var counts types.SentimentCounts
	for _, s := range []types.Sentiment{types.SentimentNegative, types.SentimentNeutral, types.SentimentPositive} {
		sentiment := s
		n, err := cs.reviews.CountDistinct(ctx, tx, ids, w.Start, w.End, source, &sentiment)
		if err != nil {
			return counts, 0, err
		}
		counts.Add(s, n)
	}
	total, err := cs.reviews.CountDistinct(ctx, tx, ids, w.Start, w.End, source, nil)
	if err != nil {
		return counts, 0, err
	}
	return counts, total, nil
}

func (cs *chartService) TonalityPie(ctx context.Context, tx *gorm.DB, productID int64, w1, w2 Window, source *string) (*PieChart, error) {
	ids, err := cs.hierarchy.Resolve(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	counts1, total1, err := cs.tonalityFacts(ctx, tx, ids, w1, source)
	if err != nil {
		return nil, err
	}
	counts2, total2, err := cs.tonalityFacts(ctx, tx, ids, w2, source)
	if err != nil {
		return nil, err
	}
	order := []types.Sentiment{types.SentimentNegative, types.SentimentNeutral, types.SentimentPositive}

	chart := &PieChart{
		Period1: PieWindow{Labels: tonalityPieLabels, Colors: tonalityPieColors, Total: total1},
		Period2: PieWindow{Labels: tonalityPieLabels, Colors: tonalityPieColors, Total: total2},
		Changes: PieChanges{Labels: tonalityPieLabels},
	}
	for _, s := range order {
		share1 := share(counts1.Get(s), total1)
		share2 := share(counts2.Get(s), total2)
		chart.Period1.Data = append(chart.Period1.Data, share1)
		chart.Period2.Data = append(chart.Period2.Data, share2)
		chart.Changes.PercentagePointChanges = append(chart.Changes.PercentagePointChanges, Round1(share1-share2))
		chart.Changes.RelativePercentageChanges = append(chart.Changes.RelativePercentageChanges,
			PctChange(float64(counts1.Get(s)), float64(counts2.Get(s))))
	}
	return chart, nil
}

func (cs *chartService) ClusterStackedBars(ctx context.Context, tx *gorm.DB, productID int64, w1, w2 Window, granularity string, source *string) (*StackedBars, error) {
	result, err := cs.aggregator.Aggregate(ctx, tx, productID, w1, &w2, granularity, source, nil)
	if err != nil {
		return nil, err
	}

	// The full cluster set always appears, zero-filled.
	clusters, err := cs.clusters.GetAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	names := make(map[int64]string, len(clusters))
	colors := make(map[string]string, len(clusters))
	for _, c := range clusters {
		names[c.ID] = c.Name
		colors[c.Name] = clusterColor(c.ID)
	}

	toBucket := func(b Bucket) StackedBucket {
		out := StackedBucket{Aggregation: b.Label, Clusters: map[string]int64{}}
		for _, c := range clusters {
			out.Clusters[c.Name] = b.Clusters[c.ID]
		}
		return out
	}

	chart := &StackedBars{Colors: colors}
	for _, b := range result.Period1 {
		chart.Period1 = append(chart.Period1, toBucket(b))
	}
	for _, b := range result.Period2 {
		chart.Period2 = append(chart.Period2, toBucket(b))
	}
	for _, c := range result.Changes {
		change := StackedChangeBucket{Aggregation: c.Label, PercentageChange: map[string]float64{}}
		for _, cl := range clusters {
			change.PercentageChange[cl.Name] = c.ClustersPct[cl.ID]
		}
		chart.Changes = append(chart.Changes, change)
	}
	return chart, nil
}

func (cs *chartService) TonalityStackedBars(ctx context.Context, tx *gorm.DB, productID int64, w1, w2 Window, granularity string, source *string) (*StackedBars, error) {
	result, err := cs.aggregator.Aggregate(ctx, tx, productID, w1, &w2, granularity, source, nil)
	if err != nil {
		return nil, err
	}

	toBucket := func(b Bucket) StackedBucket {
		return StackedBucket{
			Aggregation: b.Label,
			Clusters: map[string]int64{
				"negative": b.Tonality.Negative,
				"neutral":  b.Tonality.Neutral,
				"positive": b.Tonality.Positive,
			},
		}
	}

	chart := &StackedBars{Colors: tonalityBarColors}
	for _, b := range result.Period1 {
		chart.Period1 = append(chart.Period1, toBucket(b))
	}
	for _, b := range result.Period2 {
		chart.Period2 = append(chart.Period2, toBucket(b))
	}
	for _, c := range result.Changes {
		chart.Changes = append(chart.Changes, StackedChangeBucket{
			Aggregation: c.Label,
			PercentageChange: map[string]float64{
				"negative": c.Tonality.Negative,
				"neutral":  c.Tonality.Neutral,
				"positive": c.Tonality.Positive,
			},
		})
	}
	return chart, nil
}

func (cs *chartService) SmallBars(ctx context.Context, tx *gorm.DB, productID int64, w Window, source *string) ([]SmallBarChart, error) {
	productIDs, err := cs.hierarchy.Resolve(ctx, tx, productID)
	if err != nil {
		return nil, err
	}

	clusters, err := cs.clusters.GetAll(ctx, tx)
	if err != nil {
		return nil, err
	}

	prev := Window{
		Start: w.Start.AddDate(0, 0, -smallBarWindowDays),
		End:   w.Start.AddDate(0, 0, -1),
	}

	counts, _, err := cs.clusterWindowCounts(ctx, tx, productIDs, w, source)
	if err != nil {
		return nil, err
	}

	var charts []SmallBarChart
	for _, cluster := range clusters {
		currentWeight, err := cs.reviewClusters.WeightedCount(ctx, tx, cluster.ID, productIDs, w.Start, w.End, source)
		if err != nil {
			return nil, err
		}
		if currentWeight <= 0 {
			continue
		}
		prevWeight, err := cs.reviewClusters.WeightedCount(ctx, tx, cluster.ID, productIDs, prev.Start, prev.End, source)
		if err != nil {
			return nil, err
		}

		rows, err := cs.reviewClusters.WeightedSentiments(ctx, tx, cluster.ID, productIDs, w.Start, w.End, source)
		if err != nil {
			return nil, err
		}
		weights := map[types.Sentiment]float64{}
		var weightTotal float64
		for _, row := range rows {
			if row.Sentiment == nil {
				continue
			}
			weights[*row.Sentiment] += row.Weight
			weightTotal += row.Weight
		}

		chart := SmallBarChart{
			Title:         cluster.Name,
			ReviewsCount:  counts[cluster.ID],
			ChangePercent: int(PctChange(currentWeight, prevWeight)),
		}
		order := []types.Sentiment{types.SentimentNegative, types.SentimentNeutral, types.SentimentPositive}
		for i, s := range order {
			percent := 0.0
			if weightTotal > 0 {
				percent = Round1(100 * weights[s] / weightTotal)
			}
			chart.Data = append(chart.Data, SmallBarRow{
				Label:   smallBarRowLabels[i],
				Percent: percent,
				Color:   smallBarRowColors[i],
			})
		}
		charts = append(charts, chart)
	}
	return charts, nil
}
