package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	DueStatusPending = "pending"
	DueStatusPartial = "partial"
	DueStatusPaid    = "paid"
	DueStatusOverdue = "overdue"
)

// Due is a single installment obligation owed by a student. Its monetary
// state (PaidAmount, Status) is only ever written through the ledger
// service's credit chokepoint. Dues are never deleted, only voided.
type Due struct {
	ID                uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	StudentID         uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_dues_student_structure_installment" json:"student_id"`
	FeeStructureID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_dues_student_structure_installment" json:"fee_structure_id"`
	InstallmentNumber int       `gorm:"not null;uniqueIndex:idx_dues_student_structure_installment" json:"installment_number"`
	Amount            float64   `gorm:"type:numeric(12,2);not null" json:"amount"`
	PaidAmount        float64   `gorm:"type:numeric(12,2);not null;default:0" json:"paid_amount"`
	DueDate           time.Time `gorm:"not null" json:"due_date"`
	Status            string    `gorm:"size:20;not null;default:'pending'" json:"status"`

	VoidedAt   *time.Time `json:"voided_at,omitempty"`
	VoidReason *string    `gorm:"type:text" json:"void_reason,omitempty"`

	Student      Student      `gorm:"foreignkey:StudentID" json:"-"`
	FeeStructure FeeStructure `gorm:"foreignkey:FeeStructureID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (d *Due) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

// Outstanding is the balance still owed on this due.
func (d *Due) Outstanding() float64 {
	return d.Amount - d.PaidAmount
}
