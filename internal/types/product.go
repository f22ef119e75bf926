package types

import (
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Product is one node of the self-referential product tree. Roots have a nil
// ParentID and level 0; children always carry level = parent.level + 1.
//
// NameFold holds the lowercased name and backs case-insensitive lookups.
// Folding happens in Go rather than SQL so Cyrillic names compare the same
// on every driver.
type Product struct {
	ID          int64          `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string         `gorm:"size:150;not null;index:idx_products_name" json:"name"`
	NameFold    string         `gorm:"size:150;not null;uniqueIndex:uq_products_name_fold" json:"-"`
	ParentID    *int64         `gorm:"index:idx_products_parent_id" json:"parent_id"`
	Level       int            `gorm:"not null;default:0" json:"level"`
	Type        ProductType    `gorm:"size:20;not null" json:"type"`
	ClientType  ClientType     `gorm:"size:20;not null;default:both;index:idx_products_client_type" json:"client_type"`
	Attributes  datatypes.JSON `gorm:"type:json" json:"attributes,omitempty"`
	Description *string        `gorm:"type:text" json:"description,omitempty"`
}

func (Product) TableName() string {
	return "products"
}

// BeforeSave keeps NameFold in sync with Name on every insert and update.
func (p *Product) BeforeSave(_ *gorm.DB) error {
	p.NameFold = FoldName(p.Name)
	return nil
}

// FoldName normalizes a product name for case-insensitive matching.
func FoldName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// ProductTreeNode is a Product plus its nested children, as served by the
// product-tree endpoint.
type ProductTreeNode struct {
	ID         int64              `json:"id"`
	Name       string             `json:"name"`
	Type       ProductType        `json:"type"`
	ClientType ClientType         `json:"client_type"`
	Level      int                `json:"level"`
	Children   []*ProductTreeNode `json:"children"`
}
