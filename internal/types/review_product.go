package types

// ReviewProduct links one review to one product with the classifier's
// per-topic sentiment. The (review, product) pair is unique and rows cascade
// with their review.
type ReviewProduct struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ReviewID       int64      `gorm:"not null;index:idx_review_products_review_id;uniqueIndex:uq_review_products_pair" json:"review_id"`
	ProductID      int64      `gorm:"not null;index:idx_review_products_product_id;uniqueIndex:uq_review_products_pair" json:"product_id"`
	Sentiment      *Sentiment `gorm:"size:20" json:"sentiment,omitempty"`
	SentimentScore *float64   `json:"sentiment_score,omitempty"`
}

func (ReviewProduct) TableName() string {
	return "review_products"
}
