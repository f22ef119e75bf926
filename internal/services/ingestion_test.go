package services

import (
	"context"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/repos"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

func newIngestion(t *testing.T, gdb *gorm.DB) IngestionService {
	t.Helper()
	log := newTestLogger(t)
	productRepo := repos.NewProductRepo(gdb, log)
	reviewRepo := repos.NewReviewRepo(gdb, log)
	reviewProductRepo := repos.NewReviewProductRepo(gdb, log)
	rawReviewRepo := repos.NewRawReviewRepo(gdb, log)
	hierarchy := NewHierarchyService(productRepo, log)
	return NewIngestionService(gdb, rawReviewRepo, reviewRepo, reviewProductRepo, hierarchy, log)
}

func seedStagingRecord(t *testing.T, gdb *gorm.DB, bankSlug, topic, payload string) *types.RawReview {
	t.Helper()
	raw := &types.RawReview{
		BankName:       "Gamma Bank",
		BankSlug:       bankSlug,
		ProductName:    topic,
		ReviewText:     "Отличная карта, но приложение тормозит",
		ReviewDate:     "",
		Rating:         "",
		SourceURL:      "https://www.banki.ru/services/responses/bank/gamma/",
		ParsedAt:       time.Now().UTC(),
		AdditionalData: datatypes.JSON(payload),
	}
	if err := gdb.Create(raw).Error; err != nil {
		t.Fatalf("failed to seed staging record: %v", err)
	}
	return raw
}

func TestProcessMultiTopicRecord(t *testing.T) {
	gdb := newTestDB(t)
	ingestion := newIngestion(t, gdb)

	payload := `{"predictions": {
		"topics": ["creditcards", "mobile_app"],
		"sentiments": ["положительная", "негативная"],
		"review_dates": ["10.04.2025 09:00"],
		"ratings": ["4"]
	}}`
	raw := seedStagingRecord(t, gdb, "gamma", "creditcards", payload)

	result, err := ingestion.Process(context.Background(), "gamma", "creditcards", 0, true)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if result.Processed != 1 || result.Created != 1 {
		t.Fatalf("result = %+v", result)
	}
	if result.ProductsCreated < 2 {
		t.Fatalf("expected topic products to be created, got %d", result.ProductsCreated)
	}

	var review types.Review
	if err := gdb.First(&review).Error; err != nil {
		t.Fatalf("canonical review missing: %v", err)
	}
	if review.Rating == nil || *review.Rating != 4 {
		t.Fatalf("rating = %v, want 4", review.Rating)
	}
	if review.Date.Format("2006-01-02") != "2025-04-10" {
		t.Fatalf("date = %s", review.Date.Format("2006-01-02"))
	}
	if review.Sentiment == nil || *review.Sentiment != types.SentimentNeutral {
		t.Fatalf("aggregate sentiment = %v, want neutral on a 1-1 tie", review.Sentiment)
	}
	if review.Source == nil || *review.Source != "Banki.ru" {
		t.Fatalf("source = %v", review.Source)
	}

	var links []types.ReviewProduct
	if err := gdb.Order("id").Find(&links).Error; err != nil {
		t.Fatalf("links missing: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("got %d links, want 2", len(links))
	}

	var creditCards, app types.Product
	if err := gdb.Where("name = ?", "Кредитные карты").First(&creditCards).Error; err != nil {
		t.Fatalf("credit cards product missing: %v", err)
	}
	if err := gdb.Where("name = ?", "Приложение").First(&app).Error; err != nil {
		t.Fatalf("app product missing: %v", err)
	}
	for _, link := range links {
		switch link.ProductID {
		case creditCards.ID:
			if link.Sentiment == nil || *link.Sentiment != types.SentimentPositive {
				t.Fatalf("credit cards link sentiment = %v", link.Sentiment)
			}
		case app.ID:
			if link.Sentiment == nil || *link.Sentiment != types.SentimentNegative {
				t.Fatalf("app link sentiment = %v", link.Sentiment)
			}
		default:
			t.Fatalf("link to unexpected product %d", link.ProductID)
		}
	}

	var staged types.RawReview
	if err := gdb.First(&staged, raw.ID).Error; err != nil {
		t.Fatalf("staging row missing: %v", err)
	}
	if !staged.Processed {
		t.Fatalf("staging row not flipped to processed")
	}
}

func TestProcessIsIdempotent(t *testing.T) {
	gdb := newTestDB(t)
	ingestion := newIngestion(t, gdb)

	payload := `{"predictions": {"topics": ["deposits"], "sentiments": ["положительная"], "ratings": ["5"], "review_dates": ["01.03.2025"]}}`
	seedStagingRecord(t, gdb, "gamma", "deposits", payload)

	if _, err := ingestion.Process(context.Background(), "gamma", "deposits", 0, true); err != nil {
		t.Fatalf("first process failed: %v", err)
	}
	second, err := ingestion.Process(context.Background(), "gamma", "deposits", 0, true)
	if err != nil {
		t.Fatalf("second process failed: %v", err)
	}
	if second.Processed != 0 || second.Created != 0 {
		t.Fatalf("reprocessing a flipped batch must be a no-op, got %+v", second)
	}

	var count int64
	if err := gdb.Model(&types.Review{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("review duplicated: count = %d", count)
	}
}

func TestProcessSkipsBadRecords(t *testing.T) {
	gdb := newTestDB(t)
	ingestion := newIngestion(t, gdb)

	// Zero rating and empty topics both skip, staying unprocessed.
	seedStagingRecord(t, gdb, "gamma", "cards", `{"predictions": {"topics": ["cards"], "sentiments": ["нейтральная"], "ratings": ["0"], "review_dates": ["01.03.2025"]}}`)
	seedStagingRecord(t, gdb, "gamma", "cards", `{"predictions": {"topics": [], "sentiments": [], "ratings": [], "review_dates": []}}`)

	result, err := ingestion.Process(context.Background(), "gamma", "cards", 0, true)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if result.Processed != 0 || result.Created != 0 {
		t.Fatalf("bad records must be skipped, got %+v", result)
	}

	var unprocessed int64
	if err := gdb.Model(&types.RawReview{}).Where("processed = ?", false).Count(&unprocessed).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if unprocessed != 2 {
		t.Fatalf("skipped records must stay unprocessed, got %d", unprocessed)
	}
}

func TestProcessCollapsesDuplicateTopicNames(t *testing.T) {
	gdb := newTestDB(t)
	ingestion := newIngestion(t, gdb)

	// other and general both translate to «Другой»; the record must end
	// up with a single product and a single link.
	payload := `{"predictions": {
		"topics": ["other", "general"],
		"sentiments": ["негативная", "положительная"],
		"ratings": ["3"],
		"review_dates": ["15.03.2025"]
	}}`
	seedStagingRecord(t, gdb, "gamma", "other", payload)

	result, err := ingestion.Process(context.Background(), "gamma", "other", 0, true)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if result.Processed != 1 || result.Created != 1 {
		t.Fatalf("result = %+v", result)
	}

	var products int64
	if err := gdb.Model(&types.Product{}).Where("name = ?", "Другой").Count(&products).Error; err != nil {
		t.Fatalf("product count failed: %v", err)
	}
	if products != 1 {
		t.Fatalf("got %d «Другой» products, want 1", products)
	}

	var links []types.ReviewProduct
	if err := gdb.Find(&links).Error; err != nil {
		t.Fatalf("links missing: %v", err)
	}
	if len(links) != 1 {
		t.Fatalf("got %d links, want 1", len(links))
	}
	if links[0].Sentiment == nil || *links[0].Sentiment != types.SentimentNegative {
		t.Fatalf("link sentiment = %v, want the first topic's negative", links[0].Sentiment)
	}
}

func TestProcessLeavesNoOrphanReviews(t *testing.T) {
	gdb := newTestDB(t)
	ingestion := newIngestion(t, gdb)

	good := `{"predictions": {"topics": ["deposits"], "sentiments": ["положительная"], "ratings": ["5"], "review_dates": ["01.03.2025"]}}`
	// Topics that translate to nothing must not leave a linkless review.
	bad := `{"predictions": {"topics": ["  "], "sentiments": ["негативная"], "ratings": ["2"], "review_dates": ["02.03.2025"]}}`
	seedStagingRecord(t, gdb, "gamma", "", good)
	badRaw := seedStagingRecord(t, gdb, "gamma", "", bad)

	result, err := ingestion.Process(context.Background(), "gamma", "", 0, true)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if result.Processed != 1 || result.Created != 1 {
		t.Fatalf("result = %+v", result)
	}

	var reviews int64
	if err := gdb.Model(&types.Review{}).Count(&reviews).Error; err != nil {
		t.Fatalf("review count failed: %v", err)
	}
	if reviews != 1 {
		t.Fatalf("got %d reviews, want 1", reviews)
	}

	var orphans int64
	sub := gdb.Model(&types.ReviewProduct{}).Select("review_id")
	if err := gdb.Model(&types.Review{}).Where("id NOT IN (?)", sub).Count(&orphans).Error; err != nil {
		t.Fatalf("orphan count failed: %v", err)
	}
	if orphans != 0 {
		t.Fatalf("%d reviews have no product links", orphans)
	}

	var staged types.RawReview
	if err := gdb.First(&staged, badRaw.ID).Error; err != nil {
		t.Fatalf("staging row missing: %v", err)
	}
	if staged.Processed {
		t.Fatalf("failed record must stay unprocessed for a later retry")
	}
}

func TestProcessAcceptsAltDatesKey(t *testing.T) {
	gdb := newTestDB(t)
	ingestion := newIngestion(t, gdb)

	payload := `{"predictions": {"topics": ["service"], "sentiments": ["негативная"], "ratings": ["2"], "review_dates:": ["05.02.2025"]}}`
	seedStagingRecord(t, gdb, "gamma", "service", payload)

	result, err := ingestion.Process(context.Background(), "gamma", "service", 0, true)
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("alt-keyed dates not accepted: %+v", result)
	}

	var review types.Review
	if err := gdb.First(&review).Error; err != nil {
		t.Fatalf("review missing: %v", err)
	}
	if review.Date.Format("2006-01-02") != "2025-02-05" {
		t.Fatalf("date = %s, want 2025-02-05", review.Date.Format("2006-01-02"))
	}
}
