package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ScheduleMonthly    = "monthly"
	ScheduleQuarterly  = "quarterly"
	ScheduleHalfYearly = "half_yearly"
	ScheduleYearly     = "yearly"
)

// FeeStructure is the per-class, per-year fee catalog entry. TotalAmount is
// always recomputed from Components on write, never trusted from input.
type FeeStructure struct {
	ID              uuid.UUID         `gorm:"type:uuid;primary_key" json:"id"`
	Class           string            `gorm:"size:50;not null;uniqueIndex:idx_fee_structures_class_year" json:"class"`
	AcademicYear    string            `gorm:"size:20;not null;uniqueIndex:idx_fee_structures_class_year" json:"academic_year"`
	Components      datatypes.JSONMap `gorm:"not null" json:"components"`
	TotalAmount     float64           `gorm:"type:numeric(12,2);not null" json:"total_amount"`
	PaymentSchedule string            `gorm:"size:20;not null" json:"payment_schedule"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (f *FeeStructure) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
