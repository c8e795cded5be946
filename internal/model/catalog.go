package model

import "time"

// Product is the shop-independent catalog entry. Identity for upsert
// purposes is (name, category).
type Product struct {
	ID         uint     `json:"id" gorm:"primaryKey"`
	Name       string   `json:"name" gorm:"type:varchar(150);index"`
	Slug       string   `json:"slug" gorm:"type:varchar(150);uniqueIndex"`
	CategoryID uint     `json:"category_id" gorm:"index;not null"`
	Category   Category `json:"-"`
}

// ProductInfo is the shop-specific listing of a product: price, stock
// quantity and availability. Unique per (product, shop).
type ProductInfo struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(150);index"`
	Slug        string    `json:"slug" gorm:"type:varchar(150);uniqueIndex"`
	Description string    `json:"description" gorm:"type:text"`
	Quantity    int       `json:"quantity" gorm:"not null;default:0"`
	Price       float64   `json:"price" gorm:"type:decimal(10,2);not null"`
	PriceRRC    float64   `json:"price_rrc" gorm:"type:decimal(10,2);not null"`
	Available   bool      `json:"available" gorm:"default:true"`
	ProductID   uint      `json:"product_id" gorm:"uniqueIndex:idx_product_shop;not null"`
	Product     Product   `json:"-"`
	ShopID      uint      `json:"shop_id" gorm:"uniqueIndex:idx_product_shop;not null"`
	Shop        Shop      `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Parameter is a globally deduplicated attribute name, e.g. "color".
type Parameter struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"type:varchar(100);uniqueIndex"`
}

// ProductParameter holds one attribute value for one listing. Unique per
// (product_info, parameter); re-imports overwrite the value.
type ProductParameter struct {
	ID            uint        `json:"id" gorm:"primaryKey"`
	Value         string      `json:"value" gorm:"type:varchar(100)"`
	ProductInfoID uint        `json:"product_info_id" gorm:"uniqueIndex:idx_info_parameter;not null"`
	ProductInfo   ProductInfo `json:"-"`
	ParameterID   uint        `json:"parameter_id" gorm:"uniqueIndex:idx_info_parameter;not null"`
	Parameter     Parameter   `json:"-"`
}
