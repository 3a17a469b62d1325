package services

import (
	"sync"
	"testing"
	"time"

	"github.com/edusphere/school-backend/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func seedStructure(t *testing.T, db *gorm.DB, total float64, schedule string) *models.FeeStructure {
	t.Helper()
	structure, err := NewFeeService(db).CreateStructure(CreateStructureInput{
		Class:           "5th",
		AcademicYear:    "2024-2025",
		Components:      map[string]float64{"tuitionFee": total},
		PaymentSchedule: schedule,
	})
	require.NoError(t, err)
	return structure
}

func seedStudent(t *testing.T, db *gorm.DB) *models.Student {
	t.Helper()
	student := &models.Student{
		FullName:        "Asha Verma",
		AdmissionNumber: "ADM-" + uuid.NewString()[:8],
		Class:           "5th",
		AcademicYear:    "2024-2025",
	}
	require.NoError(t, db.Create(student).Error)
	return student
}

func TestSplitAmount_NoPaisaLost(t *testing.T) {
	cases := []struct {
		total float64
		n     int
	}{
		{12000, 12},
		{10000, 12},
		{999.99, 4},
		{100.01, 2},
		{12000, 1},
	}
	for _, tc := range cases {
		amounts := splitAmount(tc.total, tc.n)
		require.Len(t, amounts, tc.n)
		sum := 0.0
		for _, a := range amounts {
			sum += a
		}
		assert.InDelta(t, tc.total, sum, 0.001, "split of %v into %d", tc.total, tc.n)
	}
}

func TestGenerateDues_YearlyScenario(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	structure := seedStructure(t, db, 12000, models.ScheduleYearly)
	student := seedStudent(t, db)

	anchor := time.Now().AddDate(0, 1, 0)
	dues, err := ledger.GenerateDues(student.ID, structure.ID, anchor)
	require.NoError(t, err)

	require.Len(t, dues, 1)
	assert.Equal(t, 1, dues[0].InstallmentNumber)
	assert.Equal(t, 12000.0, dues[0].Amount)
	assert.Equal(t, models.DueStatusPending, dues[0].Status)
	assert.Equal(t, 0.0, dues[0].PaidAmount)
}

func TestGenerateDues_MonthlySpacing(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	structure := seedStructure(t, db, 12000, models.ScheduleMonthly)
	student := seedStudent(t, db)

	anchor := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	dues, err := ledger.GenerateDues(student.ID, structure.ID, anchor)
	require.NoError(t, err)

	require.Len(t, dues, 12)
	for i, due := range dues {
		assert.Equal(t, i+1, due.InstallmentNumber)
		assert.Equal(t, anchor.AddDate(0, i, 0), due.DueDate)
	}
}

func TestGenerateDues_NotReentrant(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	structure := seedStructure(t, db, 12000, models.ScheduleQuarterly)
	student := seedStudent(t, db)

	anchor := time.Now().AddDate(0, 1, 0)
	original, err := ledger.GenerateDues(student.ID, structure.ID, anchor)
	require.NoError(t, err)

	_, err = ledger.GenerateDues(student.ID, structure.ID, anchor)
	assert.ErrorIs(t, err, ErrDuplicateDues)

	// The originals are untouched.
	var count int64
	require.NoError(t, db.Model(&models.Due{}).
		Where("student_id = ?", student.ID).Count(&count).Error)
	assert.EqualValues(t, len(original), count)
}

func TestApplyCredit_PartialThenPaid(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	structure := seedStructure(t, db, 12000, models.ScheduleYearly)
	student := seedStudent(t, db)

	dues, err := ledger.GenerateDues(student.ID, structure.ID, time.Now().AddDate(0, 1, 0))
	require.NoError(t, err)
	dueID := dues[0].ID

	due, err := ledger.ApplyCredit(dueID, 5000, "manual")
	require.NoError(t, err)
	assert.Equal(t, 5000.0, due.PaidAmount)
	assert.Equal(t, models.DueStatusPartial, due.Status)

	due, err = ledger.ApplyCredit(dueID, 7000, "gateway")
	require.NoError(t, err)
	assert.Equal(t, 12000.0, due.PaidAmount)
	assert.Equal(t, models.DueStatusPaid, due.Status)
}

func TestApplyCredit_RejectsOverpayment(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	structure := seedStructure(t, db, 12000, models.ScheduleYearly)
	student := seedStudent(t, db)

	dues, err := ledger.GenerateDues(student.ID, structure.ID, time.Now().AddDate(0, 1, 0))
	require.NoError(t, err)

	_, err = ledger.ApplyCredit(dues[0].ID, 20000, "manual")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	// The due is unchanged.
	reloaded, err := ledger.GetDue(dues[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 0.0, reloaded.PaidAmount)
	assert.Equal(t, models.DueStatusPending, reloaded.Status)
}

func TestApplyCredit_RejectsNonPositiveAmounts(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	structure := seedStructure(t, db, 12000, models.ScheduleYearly)
	student := seedStudent(t, db)

	dues, err := ledger.GenerateDues(student.ID, structure.ID, time.Now().AddDate(0, 1, 0))
	require.NoError(t, err)

	_, err = ledger.ApplyCredit(dues[0].ID, 0, "manual")
	assert.ErrorIs(t, err, ErrValidation)
	_, err = ledger.ApplyCredit(dues[0].ID, -50, "manual")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestApplyCredit_VoidedDueRejected(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	structure := seedStructure(t, db, 12000, models.ScheduleYearly)
	student := seedStudent(t, db)

	dues, err := ledger.GenerateDues(student.ID, structure.ID, time.Now().AddDate(0, 1, 0))
	require.NoError(t, err)

	now := time.Now()
	reason := "superseded by revised structure"
	require.NoError(t, db.Model(&models.Due{}).Where("id = ?", dues[0].ID).
		Updates(map[string]interface{}{"voided_at": now, "void_reason": reason}).Error)

	_, err = ledger.ApplyCredit(dues[0].ID, 1000, "manual")
	assert.ErrorIs(t, err, ErrNotFound)
}

// Concurrent credits can never race past the amount ceiling: with a 2000 due
// and eight racing credits of 500, exactly four land and the rest are
// rejected, leaving paid_amount exactly at the ceiling.
func TestApplyCredit_ConcurrentCreditsRespectCeiling(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	structure := seedStructure(t, db, 2000, models.ScheduleYearly)
	student := seedStudent(t, db)

	dues, err := ledger.GenerateDues(student.ID, structure.ID, time.Now().AddDate(0, 1, 0))
	require.NoError(t, err)
	dueID := dues[0].ID

	const workers = 8
	var wg sync.WaitGroup
	results := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := ledger.ApplyCredit(dueID, 500, "manual")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	succeeded, rejected := 0, 0
	for err := range results {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, ErrInvalidAmount)
			rejected++
		}
	}
	assert.Equal(t, 4, succeeded)
	assert.Equal(t, 4, rejected)

	reloaded, err := ledger.GetDue(dueID)
	require.NoError(t, err)
	assert.Equal(t, 2000.0, reloaded.PaidAmount)
	assert.Equal(t, models.DueStatusPaid, reloaded.Status)
}

func TestListDuesForStudent_Filters(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	structure := seedStructure(t, db, 12000, models.ScheduleQuarterly)
	student := seedStudent(t, db)

	anchor := time.Now().AddDate(0, 1, 0)
	dues, err := ledger.GenerateDues(student.ID, structure.ID, anchor)
	require.NoError(t, err)

	_, err = ledger.ApplyCredit(dues[0].ID, dues[0].Amount, "manual")
	require.NoError(t, err)

	paid, err := ledger.ListDuesForStudent(student.ID, DueFilter{Status: models.DueStatusPaid})
	require.NoError(t, err)
	assert.Len(t, paid, 1)

	pending, err := ledger.ListDuesForStudent(student.ID, DueFilter{Status: models.DueStatusPending})
	require.NoError(t, err)
	assert.Len(t, pending, 3)

	all, err := ledger.ListDuesForStudent(student.ID, DueFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestMarkOverdue_ForwardOnly(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	structure := seedStructure(t, db, 12000, models.ScheduleHalfYearly)
	student := seedStudent(t, db)

	// Anchor in the past: the first installment is already due, the second
	// is six months out.
	anchor := time.Now().AddDate(0, -1, 0)
	dues, err := ledger.GenerateDues(student.ID, structure.ID, anchor)
	require.NoError(t, err)

	// The second installment is fully paid before the sweep.
	_, err = ledger.ApplyCredit(dues[1].ID, dues[1].Amount, "manual")
	require.NoError(t, err)

	marked, err := ledger.MarkOverdue(time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, marked)

	first, err := ledger.GetDue(dues[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.DueStatusOverdue, first.Status)

	second, err := ledger.GetDue(dues[1].ID)
	require.NoError(t, err)
	assert.Equal(t, models.DueStatusPaid, second.Status)

	// Running the sweep again changes nothing.
	marked, err = ledger.MarkOverdue(time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 0, marked)
}

// The status invariant holds after every mutation: paid iff the full amount
// has been credited.
func TestStatusInvariant(t *testing.T) {
	db := newTestDB(t)
	ledger := NewLedgerService(db)
	structure := seedStructure(t, db, 9000, models.ScheduleYearly)
	student := seedStudent(t, db)

	dues, err := ledger.GenerateDues(student.ID, structure.ID, time.Now().AddDate(0, 1, 0))
	require.NoError(t, err)
	dueID := dues[0].ID

	for _, credit := range []float64{1000, 2500, 500, 5000} {
		due, err := ledger.ApplyCredit(dueID, credit, "manual")
		require.NoError(t, err)
		assert.LessOrEqual(t, due.PaidAmount, due.Amount)
		if due.PaidAmount == due.Amount {
			assert.Equal(t, models.DueStatusPaid, due.Status)
		} else {
			assert.NotEqual(t, models.DueStatusPaid, due.Status)
		}
	}

	final, err := ledger.GetDue(dueID)
	require.NoError(t, err)
	assert.Equal(t, models.DueStatusPaid, final.Status)
	assert.Equal(t, 9000.0, final.PaidAmount)
}
