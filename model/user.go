package model

import "time"

// User represents an authentication principal.
type User struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	Username     string    `json:"username" gorm:"uniqueIndex;size:100;not null"`
	PasswordHash string    `json:"-" gorm:"size:255;not null"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TableName keeps the table name in line with the raw SQL schema.
func (User) TableName() string {
	return "users"
}
