package model

import (
	"time"

	"gorm.io/gorm"
)

// User represents a registered account. Shop owners and buyers share the
// same model; owning at least one shop is what grants partner access.
type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Email     string         `json:"email" gorm:"type:varchar(100);uniqueIndex"`
	Password  string         `json:"-" gorm:"type:varchar(255)"`
	FirstName string         `json:"first_name" gorm:"type:varchar(60)"`
	LastName  string         `json:"last_name" gorm:"type:varchar(60)"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}
