package types

import (
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Cluster is a review topic grouping maintained by the model pipeline.
// NameFold mirrors Product.NameFold for driver-independent
// case-insensitive lookups.
type Cluster struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	NameFold    string         `gorm:"size:100;not null;uniqueIndex:uq_clusters_name_fold" json:"-"`
	Keywords    datatypes.JSON `gorm:"type:json" json:"keywords,omitempty"`
	Description *string        `gorm:"type:text" json:"description,omitempty"`
}

func (Cluster) TableName() string {
	return "clusters"
}

func (c *Cluster) BeforeSave(_ *gorm.DB) error {
	c.NameFold = FoldName(c.Name)
	return nil
}
