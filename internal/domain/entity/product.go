package entity

import "time"

// UnknownProductName is shown when the catalog has no name for a product.
const UnknownProductName = "Unknown Product"

type Product struct {
	ProductID          string    `gorm:"column:product_id;primaryKey" json:"product_id" validate:"required"`
	ProductName        string    `gorm:"column:product_name;not null" json:"product_name" validate:"required"`
	Category           string    `gorm:"column:category;not null" json:"category" validate:"required"`
	Brand              string    `gorm:"column:brand" json:"brand"`
	AboutProduct       string    `gorm:"column:about_product" json:"about_product"`
	ActualPrice        float64   `gorm:"column:actual_price" json:"actual_price"`
	DiscountedPrice    float64   `gorm:"column:discounted_price" json:"discounted_price"`
	DiscountPercentage float64   `gorm:"column:discount_percentage" json:"discount_percentage"`
	Rating             float64   `gorm:"column:rating" json:"rating"`
	RatingCount        int       `gorm:"column:rating_count" json:"rating_count"`
	ImgLink            string    `gorm:"column:img_link" json:"img_link"`
	ProductLink        string    `gorm:"column:product_link" json:"product_link"`
	Features           string    `gorm:"column:features" json:"features"` // JSON text
	Tags               string    `gorm:"column:tags" json:"tags"`
	CreatedAt          time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

func (Product) TableName() string { return "products" }
