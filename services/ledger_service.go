package services

import (
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/edusphere/school-backend/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// amountEpsilon absorbs float representation noise when comparing money
// stored as numeric(12,2). Half a cent is below anything representable in
// the ledger.
const amountEpsilon = 0.005

// maxCreditRetries bounds the compare-and-swap loop in applyCredit. A retry
// only happens when another credit landed between our read and our write, and
// each due can absorb a small number of credits before it is fully paid.
const maxCreditRetries = 25

// LedgerService owns every Due and is the sole writer of a Due's monetary
// state. All credits, from the gateway capture engine and from the manual
// recorder alike, go through its applyCredit chokepoint.
type LedgerService struct {
	db *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

func installmentPlan(schedule string) (int, error) {
	switch schedule {
	case models.ScheduleMonthly:
		return 12, nil
	case models.ScheduleQuarterly:
		return 4, nil
	case models.ScheduleHalfYearly:
		return 2, nil
	case models.ScheduleYearly:
		return 1, nil
	default:
		return 0, fmt.Errorf("%w: unknown payment schedule %q", ErrValidation, schedule)
	}
}

// splitAmount divides a total across n installments working in integer cents
// so no paisa is lost to rounding. Earlier installments absorb the remainder.
func splitAmount(total float64, n int) []float64 {
	cents := int64(math.Round(total * 100))
	base := cents / int64(n)
	remainder := cents % int64(n)

	amounts := make([]float64, n)
	for i := 0; i < n; i++ {
		c := base
		if int64(i) < remainder {
			c++
		}
		amounts[i] = float64(c) / 100
	}
	return amounts
}

// GenerateDues splits the structure's total into installments per its payment
// schedule and inserts the resulting Due rows with status pending. It is
// called exactly once per enrollment: a second call for the same
// student+structure pair fails with ErrDuplicateDues and leaves the original
// dues untouched.
func (s *LedgerService) GenerateDues(studentID, structureID uuid.UUID, anchor time.Time) ([]models.Due, error) {
	var structure models.FeeStructure
	if err := s.db.First(&structure, "id = ?", structureID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: fee structure %s", ErrNotFound, structureID)
		}
		return nil, err
	}

	n, err := installmentPlan(structure.PaymentSchedule)
	if err != nil {
		return nil, err
	}
	amounts := splitAmount(structure.TotalAmount, n)
	monthsBetween := 12 / n

	dues := make([]models.Due, n)
	for i := 0; i < n; i++ {
		dues[i] = models.Due{
			StudentID:         studentID,
			FeeStructureID:    structureID,
			InstallmentNumber: i + 1,
			Amount:            amounts[i],
			DueDate:           anchor.AddDate(0, monthsBetween*i, 0),
			Status:            models.DueStatusPending,
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Due{}).
			Where("student_id = ? AND fee_structure_id = ?", studentID, structureID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrDuplicateDues
		}
		return tx.Create(&dues).Error
	})
	if err != nil {
		return nil, err
	}

	return dues, nil
}

// ApplyCredit increments a due's paid amount and recomputes its status.
// Over-payment is rejected with ErrInvalidAmount; callers that must reconcile
// already-captured gateway money use the capture engine, which clamps instead.
func (s *LedgerService) ApplyCredit(dueID uuid.UUID, amount float64, source string) (*models.Due, error) {
	var due *models.Due
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		_, _, due, txErr = s.applyCredit(tx, dueID, amount, false)
		return txErr
	})
	if err != nil {
		return nil, err
	}
	log.Printf("✅ Credited %.2f to due %s from %s (paid %.2f/%.2f)", amount, dueID, source, due.PaidAmount, due.Amount)
	return due, nil
}

// applyCredit is the single mutator of Due.PaidAmount and Due.Status. It runs
// a compare-and-swap on the observed paid_amount: the UPDATE only lands if no
// concurrent credit moved the balance since our read, so racing credits can
// never push past the amount ceiling. With clamp set, a credit larger than
// the outstanding balance is reduced to it and reported via the clamped
// return; a fully-paid due then credits zero rather than failing.
func (s *LedgerService) applyCredit(tx *gorm.DB, dueID uuid.UUID, amount float64, clamp bool) (credited float64, clamped bool, due *models.Due, err error) {
	if amount <= 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return 0, false, nil, fmt.Errorf("%w: credit amount must be positive", ErrValidation)
	}

	for attempt := 0; attempt < maxCreditRetries; attempt++ {
		var current models.Due
		if err := tx.First(&current, "id = ?", dueID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return 0, false, nil, fmt.Errorf("%w: due %s", ErrNotFound, dueID)
			}
			return 0, false, nil, err
		}
		if current.VoidedAt != nil {
			return 0, false, nil, fmt.Errorf("%w: due %s has been voided", ErrNotFound, dueID)
		}

		outstanding := current.Outstanding()
		credit := amount
		wasClamped := false
		if credit > outstanding+amountEpsilon {
			if !clamp {
				return 0, false, nil, ErrInvalidAmount
			}
			credit = outstanding
			wasClamped = true
		}
		if credit <= amountEpsilon {
			if clamp {
				// Nothing left to credit; the due is already settled.
				return 0, true, &current, nil
			}
			return 0, false, nil, ErrInvalidAmount
		}

		newPaid := roundToCents(current.PaidAmount + credit)
		newStatus := statusFor(&current, newPaid, time.Now())

		res := tx.Model(&models.Due{}).
			Where("id = ? AND paid_amount = ?", current.ID, current.PaidAmount).
			Updates(map[string]interface{}{
				"paid_amount": newPaid,
				"status":      newStatus,
			})
		if res.Error != nil {
			return 0, false, nil, res.Error
		}
		if res.RowsAffected == 1 {
			current.PaidAmount = newPaid
			current.Status = newStatus
			return credit, wasClamped, &current, nil
		}
		// Lost the race against a concurrent credit; re-read and retry.
	}

	return 0, false, nil, fmt.Errorf("apply credit: contention retries exhausted for due %s", dueID)
}

// statusFor derives the status invariant: paid iff the full amount has been
// credited, overdue iff past due date and unpaid, partial otherwise once any
// money has landed.
func statusFor(due *models.Due, paidAmount float64, now time.Time) string {
	if paidAmount >= due.Amount-amountEpsilon {
		return models.DueStatusPaid
	}
	if due.DueDate.Before(now) {
		return models.DueStatusOverdue
	}
	if paidAmount > 0 {
		return models.DueStatusPartial
	}
	return models.DueStatusPending
}

type DueFilter struct {
	Status   string
	FromDate *time.Time
	ToDate   *time.Time
}

// ListDuesForStudent is a lock-free read for dashboards; it may observe a
// slightly stale snapshot.
func (s *LedgerService) ListDuesForStudent(studentID uuid.UUID, filter DueFilter) ([]models.Due, error) {
	q := s.db.Where("student_id = ? AND voided_at IS NULL", studentID).
		Order("due_date asc, installment_number asc")
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.FromDate != nil {
		q = q.Where("due_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		q = q.Where("due_date <= ?", *filter.ToDate)
	}

	var dues []models.Due
	if err := q.Find(&dues).Error; err != nil {
		return nil, err
	}
	return dues, nil
}

func (s *LedgerService) GetDue(dueID uuid.UUID) (*models.Due, error) {
	var due models.Due
	if err := s.db.First(&due, "id = ?", dueID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &due, nil
}

// MarkOverdue flips unpaid dues past their due date to overdue. Status only
// moves forward; paid dues are never touched.
func (s *LedgerService) MarkOverdue(now time.Time) (int64, error) {
	res := s.db.Model(&models.Due{}).
		Where("status IN ? AND due_date < ? AND paid_amount < amount AND voided_at IS NULL",
			[]string{models.DueStatusPending, models.DueStatusPartial}, now).
		Update("status", models.DueStatusOverdue)
	return res.RowsAffected, res.Error
}
