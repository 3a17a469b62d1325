package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	AttemptStatusCreated  = "created"
	AttemptStatusConsumed = "consumed"
	AttemptStatusExpired  = "expired"
)

// PaymentAttempt is an outstanding order opened with the payment gateway.
// OrderID is the gateway-issued intent id. Only one caller may ever win the
// created→consumed transition; expired attempts are never consumed.
type PaymentAttempt struct {
	ID        uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	OrderID   string     `gorm:"size:64;not null;unique" json:"order_id"`
	DueID     *uuid.UUID `gorm:"type:uuid;index" json:"due_id,omitempty"`
	StudentID *uuid.UUID `gorm:"type:uuid;index" json:"student_id,omitempty"`
	Amount    float64    `gorm:"type:numeric(12,2);not null" json:"amount"`
	Currency  string     `gorm:"size:3;not null" json:"currency"`
	Status    string     `gorm:"size:20;not null;default:'created';index" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a *PaymentAttempt) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
