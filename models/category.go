package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Category represents a product tag scoped to one owner.
// Names are stored normalized (trimmed, lowercase) and are unique per owner.
type Category struct {
	ID                string            `gorm:"primaryKey" json:"id"`
	Name              string            `gorm:"not null" json:"name"`
	UserID            string            `gorm:"not null" json:"userId"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
	ProductCategories []ProductCategory `gorm:"foreignKey:CategoryID" json:"-"`
}

func (c *Category) TableName() string {
	return "category"
}

func (c *Category) BeforeCreate(_ *gorm.DB) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	return nil
}

// Products flattens the junction rows loaded with the category.
func (c *Category) Products() []Product {
	products := make([]Product, 0, len(c.ProductCategories))
	for _, pc := range c.ProductCategories {
		if pc.Product != nil {
			products = append(products, *pc.Product)
		}
	}
	return products
}

// NormalizeCategoryNames turns raw tag inputs such as "Tools, tools, ELECTRONICS"
// into distinct lowercase names in first-seen order.
func NormalizeCategoryNames(raw []string) []string {
	seen := make(map[string]struct{})
	var names []string
	for _, entry := range raw {
		for _, part := range strings.Split(entry, ",") {
			name := strings.ToLower(strings.TrimSpace(part))
			if name == "" {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	return names
}
