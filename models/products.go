package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Product represents an inventory item owned by a single user.
// Cost and Price are stored in minor currency units.
type Product struct {
	ID                string            `gorm:"primaryKey" json:"id"`
	Name              string            `gorm:"not null" json:"name"`
	SKU               string            `gorm:"column:sku;not null" json:"sku"`
	Code              *string           `json:"code"`
	Brand             *string           `json:"brand"`
	Model             *string           `json:"model"`
	Description       *string           `json:"description"`
	Quantity          int64             `gorm:"not null;default:0" json:"quantity"`
	RestockLevel      int64             `gorm:"not null;default:0" json:"restockLevel"`
	OptimalLevel      int64             `gorm:"not null;default:0" json:"optimalLevel"`
	Cost              int64             `gorm:"not null;default:0" json:"cost"`
	Price             int64             `gorm:"not null;default:0" json:"price"`
	UserID            string            `gorm:"not null" json:"userId"`
	CreatedAt         time.Time         `json:"createdAt"`
	UpdatedAt         time.Time         `json:"updatedAt"`
	Images            []Image           `gorm:"foreignKey:ProductID" json:"images"`
	ProductCategories []ProductCategory `gorm:"foreignKey:ProductID" json:"-"`
}

func (p *Product) TableName() string {
	return "product"
}

func (p *Product) BeforeCreate(_ *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return nil
}

// Categories flattens the junction rows loaded with the product.
func (p *Product) Categories() []Category {
	categories := make([]Category, 0, len(p.ProductCategories))
	for _, pc := range p.ProductCategories {
		if pc.Category != nil {
			categories = append(categories, *pc.Category)
		}
	}
	return categories
}

// Image is a stored picture of a product. FileKey is the object-storage key.
type Image struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	URL       string    `gorm:"not null" json:"url"`
	FileKey   string    `gorm:"not null" json:"fileKey"`
	ProductID string    `gorm:"not null" json:"productId"`
	IsPrimary bool      `gorm:"not null;default:false" json:"isPrimary"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Product   *Product  `gorm:"foreignKey:ProductID" json:"-"`
}

func (i *Image) TableName() string {
	return "image"
}

func (i *Image) BeforeCreate(_ *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}

// ProductCategory links a product to a category.
type ProductCategory struct {
	ProductID  string    `gorm:"primaryKey"`
	CategoryID string    `gorm:"primaryKey"`
	CreatedAt  time.Time
	Product    *Product  `gorm:"foreignKey:ProductID"`
	Category   *Category `gorm:"foreignKey:CategoryID"`
}

func (pc *ProductCategory) TableName() string {
	return "product_category"
}

// ProductDraft carries validated input for a new product together with
// its category tags and already-uploaded image URLs.
type ProductDraft struct {
	Name         string
	SKU          string
	Code         *string
	Brand        *string
	Model        *string
	Description  *string
	Quantity     int64
	RestockLevel int64
	OptimalLevel int64
	Cost         int64
	Price        int64
	Categories   []string
	ImageURLs    []string
}

func (d ProductDraft) product(ownerID string) *Product {
	return &Product{
		Name:         d.Name,
		SKU:          d.SKU,
		Code:         d.Code,
		Brand:        d.Brand,
		Model:        d.Model,
		Description:  d.Description,
		Quantity:     d.Quantity,
		RestockLevel: d.RestockLevel,
		OptimalLevel: d.OptimalLevel,
		Cost:         d.Cost,
		Price:        d.Price,
		UserID:       ownerID,
	}
}
