package services

import (
	"context"
	"errors"
	"testing"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/apperr"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/repos"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

func TestBucketLabelsMonth(t *testing.T) {
	w := Window{Start: mustDate(t, "2025-01-01"), End: mustDate(t, "2025-02-28")}
	got := BucketLabels(w, GranularityMonth)
	want := []string{"2025-01", "2025-02"}
	if len(got) != len(want) {
		t.Fatalf("labels = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("labels = %v, want %v", got, want)
		}
	}
}

func TestBucketLabelsWeek(t *testing.T) {
	// Tue Apr 1 through Mon Apr 14 covers three Monday-anchored weeks.
	w := Window{Start: mustDate(t, "2025-04-01"), End: mustDate(t, "2025-04-14")}
	got := BucketLabels(w, GranularityWeek)
	want := []string{"2025-03-31", "2025-04-07", "2025-04-14"}
	if len(got) != len(want) {
		t.Fatalf("labels = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("labels = %v, want %v", got, want)
		}
	}

	// Every day in the window lands in exactly one bucket.
	labelSet := map[string]bool{}
	for _, l := range got {
		labelSet[l] = true
	}
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		label := bucketLabelFor(d, GranularityWeek)
		if !labelSet[label] {
			t.Fatalf("day %s maps to unknown bucket %s", d.Format("2006-01-02"), label)
		}
	}
}

func TestBucketLabelsDay(t *testing.T) {
	w := Window{Start: mustDate(t, "2025-04-28"), End: mustDate(t, "2025-05-02")}
	got := BucketLabels(w, GranularityDay)
	if len(got) != 5 {
		t.Fatalf("expected 5 day buckets, got %v", got)
	}
	if got[0] != "2025-04-28" || got[4] != "2025-05-02" {
		t.Fatalf("unexpected bounds: %v", got)
	}
}

func TestPctChange(t *testing.T) {
	cases := []struct {
		p1, p2, want float64
	}{
		{150, 100, 50.0},
		{100, 150, -33.3},
		{0, 10, -100.0},
		{10, 0, 100.0},
		{0, 0, 0.0},
		{1, 3, -66.7},
	}
	for _, tc := range cases {
		if got := PctChange(tc.p1, tc.p2); got != tc.want {
			t.Fatalf("PctChange(%v, %v) = %v, want %v", tc.p1, tc.p2, got, tc.want)
		}
	}
}

func newAggregator(t *testing.T) (AggregatorService, *types.Product) {
	t.Helper()
	gdb := newTestDB(t)
	log := newTestLogger(t)
	productRepo := repos.NewProductRepo(gdb, log)
	reviewRepo := repos.NewReviewRepo(gdb, log)
	reviewClusterRepo := repos.NewReviewClusterRepo(gdb, log)
	hierarchy := NewHierarchyService(productRepo, log)
	agg := NewAggregatorService(hierarchy, reviewRepo, reviewClusterRepo, log)
	product := seedProduct(t, gdb, "Карты", nil)
	return agg, product
}

func TestAggregateMonthlyTonality(t *testing.T) {
	gdb := newTestDB(t)
	log := newTestLogger(t)
	productRepo := repos.NewProductRepo(gdb, log)
	reviewRepo := repos.NewReviewRepo(gdb, log)
	reviewClusterRepo := repos.NewReviewClusterRepo(gdb, log)
	hierarchy := NewHierarchyService(productRepo, log)
	agg := NewAggregatorService(hierarchy, reviewRepo, reviewClusterRepo, log)

	product := seedProduct(t, gdb, "Карты", nil)
	seedReview(t, gdb, product, "2025-01-05", types.SentimentPositive, 5)
	seedReview(t, gdb, product, "2025-01-20", types.SentimentNegative, 2)
	seedReview(t, gdb, product, "2025-02-10", types.SentimentPositive, 4)

	w1 := Window{Start: mustDate(t, "2025-01-01"), End: mustDate(t, "2025-02-28")}
	w2 := Window{Start: mustDate(t, "2024-01-01"), End: mustDate(t, "2024-02-29")}
	result, err := agg.Aggregate(context.Background(), nil, product.ID, w1, &w2, GranularityMonth, nil, nil)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}

	if len(result.Period1) != 2 {
		t.Fatalf("period1 has %d buckets, want 2", len(result.Period1))
	}
	jan := result.Period1[0]
	if jan.Label != "2025-01" || jan.Tonality.Positive != 1 || jan.Tonality.Negative != 1 || jan.Tonality.Neutral != 0 {
		t.Fatalf("january bucket = %+v", jan)
	}
	feb := result.Period1[1]
	if feb.Label != "2025-02" || feb.Tonality.Positive != 1 || feb.Tonality.Negative != 0 {
		t.Fatalf("february bucket = %+v", feb)
	}

	if len(result.Period2) != 2 {
		t.Fatalf("period2 has %d buckets, want 2", len(result.Period2))
	}
	for _, b := range result.Period2 {
		if b.Total != 0 || b.Tonality.Total() != 0 {
			t.Fatalf("period2 bucket %s not empty: %+v", b.Label, b)
		}
	}

	if len(result.Changes) != 2 {
		t.Fatalf("changes has %d buckets, want 2", len(result.Changes))
	}
	janChange := result.Changes[0]
	if janChange.Label != "2025-01" {
		t.Fatalf("change alignment broken: %s", janChange.Label)
	}
	if janChange.Tonality.Positive != 100.0 || janChange.Tonality.Neutral != 0.0 || janChange.Tonality.Negative != 100.0 {
		t.Fatalf("january change = %+v", janChange.Tonality)
	}
	febChange := result.Changes[1]
	if febChange.Tonality.Positive != 100.0 || febChange.Tonality.Negative != 0.0 {
		t.Fatalf("february change = %+v", febChange.Tonality)
	}
}

func TestAggregateCountsDistinctReviewOnce(t *testing.T) {
	gdb := newTestDB(t)
	log := newTestLogger(t)
	productRepo := repos.NewProductRepo(gdb, log)
	reviewRepo := repos.NewReviewRepo(gdb, log)
	reviewClusterRepo := repos.NewReviewClusterRepo(gdb, log)
	hierarchy := NewHierarchyService(productRepo, log)
	agg := NewAggregatorService(hierarchy, reviewRepo, reviewClusterRepo, log)

	root := seedProduct(t, gdb, "Карты", nil)
	debit := seedProduct(t, gdb, "Дебетовые карты", root)
	credit := seedProduct(t, gdb, "Кредитные карты", root)

	// One review linked to both children of the resolved set.
	review := seedReview(t, gdb, debit, "2025-03-10", types.SentimentPositive, 5)
	s := types.SentimentPositive
	if err := gdb.Create(&types.ReviewProduct{ReviewID: review.ID, ProductID: credit.ID, Sentiment: &s}).Error; err != nil {
		t.Fatalf("failed to add second link: %v", err)
	}

	w := Window{Start: mustDate(t, "2025-03-01"), End: mustDate(t, "2025-03-31")}
	result, err := agg.Aggregate(context.Background(), nil, root.ID, w, nil, GranularityMonth, nil, nil)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if len(result.Period1) != 1 || result.Period1[0].Total != 1 {
		t.Fatalf("review counted more than once: %+v", result.Period1)
	}
}

func TestAggregateSingleWindowTail(t *testing.T) {
	gdb := newTestDB(t)
	log := newTestLogger(t)
	productRepo := repos.NewProductRepo(gdb, log)
	reviewRepo := repos.NewReviewRepo(gdb, log)
	reviewClusterRepo := repos.NewReviewClusterRepo(gdb, log)
	hierarchy := NewHierarchyService(productRepo, log)
	agg := NewAggregatorService(hierarchy, reviewRepo, reviewClusterRepo, log)

	product := seedProduct(t, gdb, "Вклады", nil)
	seedReview(t, gdb, product, "2025-05-10", types.SentimentPositive, 5)

	w := Window{Start: mustDate(t, "2025-05-01"), End: mustDate(t, "2025-05-31")}
	result, err := agg.Aggregate(context.Background(), nil, product.ID, w, nil, GranularityMonth, nil, nil)
	if err != nil {
		t.Fatalf("aggregate failed: %v", err)
	}
	if len(result.Period2) != 0 {
		t.Fatalf("period2 must be empty in single-window mode")
	}
	if len(result.Changes) != 1 {
		t.Fatalf("changes = %+v", result.Changes)
	}
	if result.Changes[0].TotalPct != 100.0 {
		t.Fatalf("tail rule: total pct = %v, want 100.0", result.Changes[0].TotalPct)
	}
}

func TestAggregateRejectsBadInput(t *testing.T) {
	agg, product := newAggregator(t)

	w := Window{Start: mustDate(t, "2025-02-01"), End: mustDate(t, "2025-01-01")}
	if _, err := agg.Aggregate(context.Background(), nil, product.ID, w, nil, GranularityMonth, nil, nil); !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("inverted window must be a bad request, got %v", err)
	}

	ok := Window{Start: mustDate(t, "2025-01-01"), End: mustDate(t, "2025-02-01")}
	if _, err := agg.Aggregate(context.Background(), nil, product.ID, ok, nil, "year", nil, nil); !errors.Is(err, apperr.ErrBadRequest) {
		t.Fatalf("unknown granularity must be a bad request, got %v", err)
	}
	if _, err := agg.Aggregate(context.Background(), nil, 99999, ok, nil, GranularityMonth, nil, nil); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("unknown product must be not found, got %v", err)
	}
}
