package types

import (
	"time"
)

// ReviewCluster links a review to a cluster. TopicWeight stays in [0,1];
// SentimentContribution, when set, overrides the review's aggregate sentiment
// inside cluster tonality breakdowns.
type ReviewCluster struct {
	ID                    int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	ReviewID              int64      `gorm:"not null;index:idx_review_clusters_review_id" json:"review_id"`
	ClusterID             int64      `gorm:"not null;index:idx_review_clusters_cluster_id" json:"cluster_id"`
	TopicWeight           float64    `gorm:"not null;default:1" json:"topic_weight"`
	SentimentContribution *Sentiment `gorm:"size:20" json:"sentiment_contribution,omitempty"`
	CreatedAt             time.Time  `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (ReviewCluster) TableName() string {
	return "review_clusters"
}
