package model

import "time"

// ContactType is a contact channel kind.
type ContactType string

const (
	ContactPhone   ContactType = "phone"
	ContactEmail   ContactType = "email"
	ContactAddress ContactType = "address"
)

// Valid reports whether t is a recognized contact type.
func (t ContactType) Valid() bool {
	return t == ContactPhone || t == ContactEmail || t == ContactAddress
}

// Contact is a free-form contact channel owned by one user.
type Contact struct {
	ID        uint        `json:"id" gorm:"primaryKey"`
	UserID    uint        `json:"user_id" gorm:"index;not null"`
	User      User        `json:"-"`
	Type      ContactType `json:"type" gorm:"type:varchar(20);not null"`
	Value     string      `json:"value" gorm:"type:varchar(200);not null"`
	CreatedAt time.Time   `json:"created_at"`
}
