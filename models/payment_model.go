package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	MethodOnline       = "online"
	MethodCash         = "cash"
	MethodCheque       = "cheque"
	MethodBankTransfer = "bank_transfer"
	MethodCard         = "card"
)

// RecordedBySystem marks payments written by the capture engine rather than a
// staff member.
const RecordedBySystem = "system"

// Payment is the immutable record of a completed, verified transfer of funds.
// TransactionID is the external transaction identifier and the idempotency
// key: the unique constraint on it is the primary defense against a callback
// being processed twice. Rows are never updated or deleted.
type Payment struct {
	ID            uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	TransactionID string     `gorm:"size:64;not null;unique" json:"transaction_id"`
	OrderID       *string    `gorm:"size:64;unique" json:"order_id,omitempty"`
	DueID         *uuid.UUID `gorm:"type:uuid;index" json:"due_id,omitempty"`
	StudentID     *uuid.UUID `gorm:"type:uuid;index" json:"student_id,omitempty"`
	Amount        float64    `gorm:"type:numeric(12,2);not null" json:"amount"`
	Method        string     `gorm:"size:20;not null" json:"method"`
	ReceiptNumber string     `gorm:"size:32;not null;unique" json:"receipt_number"`
	PaymentDate   time.Time  `gorm:"not null" json:"payment_date"`
	RecordedBy    string     `gorm:"size:64;not null" json:"recorded_by"`
	DocumentURL   *string    `gorm:"size:512" json:"document_url,omitempty"`

	// Set when the capture engine had to clamp a gateway credit to the
	// outstanding balance. Surfaced by the reconciliation report.
	FlaggedForReview bool    `gorm:"default:false;index" json:"flagged_for_review"`
	FlagReason       *string `gorm:"type:text" json:"flag_reason,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
