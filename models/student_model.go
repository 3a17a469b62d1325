package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Student struct {
	ID              uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	FullName        string    `gorm:"size:255;not null" json:"full_name"`
	AdmissionNumber string    `gorm:"size:50;not null;unique" json:"admission_number"`
	Class           string    `gorm:"size:50;not null" json:"class"`
	AcademicYear    string    `gorm:"size:20;not null" json:"academic_year"`
	GuardianName    *string   `gorm:"size:255" json:"guardian_name"`
	GuardianEmail   *string   `gorm:"size:255" json:"guardian_email"`
	GuardianPhone   *string   `gorm:"size:20" json:"guardian_phone"`
	IsActive        bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Student) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
