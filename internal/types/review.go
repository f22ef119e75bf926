package types

import (
	"time"
)

// Review is one canonical customer review. Sentiment is the aggregate across
// the review's product links; per-topic sentiments live on ReviewProduct.
type Review struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Text           string     `gorm:"type:text;not null" json:"text"`
	Date           time.Time  `gorm:"type:date;not null;index:idx_reviews_date" json:"date"`
	Rating         *int       `json:"rating,omitempty"`
	Sentiment      *Sentiment `gorm:"size:20;index:idx_reviews_sentiment" json:"sentiment,omitempty"`
	SentimentScore *float64   `json:"sentiment_score,omitempty"`
	Source         *string    `gorm:"size:50" json:"source,omitempty"`
	CreatedAt      time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Review) TableName() string {
	return "reviews"
}
