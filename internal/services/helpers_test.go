package services

import (
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/db"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/logger"
	"github.com/Ana-Merge/bank-reviews-sentiment-sub000/internal/types"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("failed to get sql handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return gdb
}

func newTestLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("failed to init logger: %v", err)
	}
	return log
}

func mustDate(t *testing.T, value string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", value)
	if err != nil {
		t.Fatalf("bad test date %q: %v", value, err)
	}
	return d
}

func seedProduct(t *testing.T, gdb *gorm.DB, name string, parent *types.Product) *types.Product {
	t.Helper()
	p := &types.Product{
		Name:       name,
		Type:       types.ProductTypeCategory,
		ClientType: types.ClientTypeBoth,
	}
	if parent != nil {
		p.ParentID = &parent.ID
		p.Level = parent.Level + 1
		p.Type = types.ProductTypeSubcategory
	}
	if err := gdb.Create(p).Error; err != nil {
		t.Fatalf("failed to seed product %q: %v", name, err)
	}
	return p
}

func seedReview(t *testing.T, gdb *gorm.DB, product *types.Product, date string, sentiment types.Sentiment, rating int) *types.Review {
	t.Helper()
	review := &types.Review{
		Text:      "test review",
		Date:      mustDate(t, date),
		Sentiment: &sentiment,
	}
	if rating > 0 {
		review.Rating = &rating
	}
	if err := gdb.Create(review).Error; err != nil {
		t.Fatalf("failed to seed review: %v", err)
	}
	link := &types.ReviewProduct{
		ReviewID:  review.ID,
		ProductID: product.ID,
		Sentiment: &sentiment,
	}
	if err := gdb.Create(link).Error; err != nil {
		t.Fatalf("failed to link review: %v", err)
	}
	return review
}

func seedCluster(t *testing.T, gdb *gorm.DB, name string) *types.Cluster {
	t.Helper()
	cluster := &types.Cluster{Name: name}
	if err := gdb.Create(cluster).Error; err != nil {
		t.Fatalf("failed to seed cluster %q: %v", name, err)
	}
	return cluster
}

func linkCluster(t *testing.T, gdb *gorm.DB, review *types.Review, cluster *types.Cluster, weight float64) {
	t.Helper()
	link := &types.ReviewCluster{
		ReviewID:    review.ID,
		ClusterID:   cluster.ID,
		TopicWeight: weight,
	}
	if err := gdb.Create(link).Error; err != nil {
		t.Fatalf("failed to link cluster: %v", err)
	}
}
