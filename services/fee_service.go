package services

import (
	"errors"
	"fmt"
	"math"

	"github.com/edusphere/school-backend/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// FeeService owns the fee catalog: read-mostly reference data describing what
// a class owes in a given academic year.
type FeeService struct {
	db *gorm.DB
}

func NewFeeService(db *gorm.DB) *FeeService {
	return &FeeService{db: db}
}

type CreateStructureInput struct {
	Class           string
	AcademicYear    string
	Components      map[string]float64
	PaymentSchedule string
}

func (s *FeeService) CreateStructure(in CreateStructureInput) (*models.FeeStructure, error) {
	if in.Class == "" || in.AcademicYear == "" {
		return nil, fmt.Errorf("%w: class and academic year are required", ErrValidation)
	}
	if len(in.Components) == 0 {
		return nil, fmt.Errorf("%w: at least one fee component is required", ErrValidation)
	}
	if _, err := installmentPlan(in.PaymentSchedule); err != nil {
		return nil, err
	}

	// Total is always recomputed from the components, never taken from input.
	total := 0.0
	components := datatypes.JSONMap{}
	for name, amount := range in.Components {
		if name == "" {
			return nil, fmt.Errorf("%w: component names must not be empty", ErrValidation)
		}
		if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
			return nil, fmt.Errorf("%w: component %q has an invalid amount", ErrValidation, name)
		}
		components[name] = amount
		total += amount
	}
	total = roundToCents(total)
	if total <= 0 {
		return nil, fmt.Errorf("%w: fee structure total must be greater than zero", ErrValidation)
	}

	structure := models.FeeStructure{
		Class:           in.Class,
		AcademicYear:    in.AcademicYear,
		Components:      components,
		TotalAmount:     total,
		PaymentSchedule: in.PaymentSchedule,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.FeeStructure{}).
			Where("class = ? AND academic_year = ?", in.Class, in.AcademicYear).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrStructureExists
		}
		return tx.Create(&structure).Error
	})
	if err != nil {
		return nil, err
	}

	return &structure, nil
}

func (s *FeeService) GetStructure(class, academicYear string) (*models.FeeStructure, error) {
	var structure models.FeeStructure
	err := s.db.First(&structure, "class = ? AND academic_year = ?", class, academicYear).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &structure, nil
}

func (s *FeeService) GetStructureByID(id string) (*models.FeeStructure, error) {
	var structure models.FeeStructure
	err := s.db.First(&structure, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &structure, nil
}

func (s *FeeService) ListStructures(academicYear string) ([]models.FeeStructure, error) {
	var structures []models.FeeStructure
	q := s.db.Order("academic_year desc, class asc")
	if academicYear != "" {
		q = q.Where("academic_year = ?", academicYear)
	}
	if err := q.Find(&structures).Error; err != nil {
		return nil, err
	}
	return structures, nil
}

func roundToCents(v float64) float64 {
	return math.Round(v*100) / 100
}
