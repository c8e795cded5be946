package model

import "time"

// Shop is a storefront owned by a single user.
type Shop struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(50);uniqueIndex"`
	Slug        string    `json:"slug" gorm:"type:varchar(50);uniqueIndex"`
	Description string    `json:"description" gorm:"type:varchar(200)"`
	URL         string    `json:"url" gorm:"type:varchar(200)"`
	OwnerID     uint      `json:"owner_id" gorm:"index;not null"`
	Owner       User      `json:"-" gorm:"foreignKey:OwnerID"`
	CreatedAt   time.Time `json:"created_at"`
}

// Category is shared reference data; a category can be offered by many shops.
type Category struct {
	ID    uint   `json:"id" gorm:"primaryKey"`
	Name  string `json:"name" gorm:"type:varchar(50);index"`
	Slug  string `json:"slug" gorm:"type:varchar(50);uniqueIndex"`
	Shops []Shop `json:"shops,omitempty" gorm:"many2many:shop_categories"`
}
