package models

import (
	"time"
)

const (
	TicketStatusOpen   = "open"
	TicketStatusClosed = "closed"
)

type User struct {
	ID               uint    `gorm:"primaryKey;autoIncrement" json:"id"`
	Email            string  `gorm:"unique;not null"          json:"email"`
	PasswordHash     string  `gorm:"not null"                 json:"-"`
	ConfirmationCode *string `json:"-"`
}

type Ticket struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	Title       string    `gorm:"not null"                 json:"title"`
	Description string    `json:"description"`
	Status      string    `gorm:"not null;default:open"    json:"status"`
	OwnerID     uint      `gorm:"index;not null"           json:"owner_id"`
	CreatedAt   time.Time `json:"created_at"`
}
