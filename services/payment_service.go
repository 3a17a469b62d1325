package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	config "github.com/edusphere/school-backend/configs"
	"github.com/edusphere/school-backend/models"
	"github.com/edusphere/school-backend/payments"
	"github.com/edusphere/school-backend/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Gateway is the outbound contract with the payment provider. The capture
// engine never trusts anything the client forwarded: order creation happens
// server-side and the callback signature is recomputed, not compared against
// a client-supplied expectation.
type Gateway interface {
	CreateOrder(amount float64, currency, receipt string, notes map[string]string) (*payments.Order, error)
	VerifySignature(orderID, paymentID, signature string) bool
	KeyID() string
}

// PaymentService issues gateway intents, verifies and reconciles gateway
// callbacks, records manual payments and produces the operator reconciliation
// report. All ledger mutation it performs goes through the ledger service's
// credit chokepoint.
type PaymentService struct {
	db      *gorm.DB
	gateway Gateway
	ledger  *LedgerService
	cfg     config.GatewayConfig
}

func NewPaymentService(db *gorm.DB, gateway Gateway, ledger *LedgerService, cfg config.GatewayConfig) *PaymentService {
	return &PaymentService{db: db, gateway: gateway, ledger: ledger, cfg: cfg}
}

type CreateIntentInput struct {
	DueID       *uuid.UUID
	StudentID   *uuid.UUID
	Amount      float64
	Description string
}

type IntentResult struct {
	OrderID  string  `json:"order_id"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	KeyID    string  `json:"key_id"`
}

// CreateIntent opens an order with the gateway and stores a PaymentAttempt in
// status created. It never touches the due ledger. Before any money moves,
// over-payment against a specific due is rejected outright; clamping only
// happens after capture, when the gateway already holds the funds.
func (s *PaymentService) CreateIntent(in CreateIntentInput) (*IntentResult, error) {
	if in.Amount <= 0 {
		return nil, fmt.Errorf("%w: intent amount must be positive", ErrValidation)
	}

	if in.DueID != nil {
		due, err := s.ledger.GetDue(*in.DueID)
		if err != nil {
			return nil, err
		}
		if due.VoidedAt != nil {
			return nil, fmt.Errorf("%w: due %s has been voided", ErrNotFound, due.ID)
		}
		if in.Amount > due.Outstanding()+amountEpsilon {
			return nil, ErrInvalidAmount
		}
		if in.StudentID == nil {
			in.StudentID = &due.StudentID
		}
	}

	receipt := fmt.Sprintf("intent_%d", time.Now().UnixNano())
	notes := map[string]string{}
	if in.Description != "" {
		notes["description"] = in.Description
	}
	if in.DueID != nil {
		notes["due_id"] = in.DueID.String()
	}

	order, err := s.gateway.CreateOrder(in.Amount, s.cfg.Currency, receipt, notes)
	if err != nil {
		log.Printf("🔥 Gateway order creation failed: %v", err)
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}

	attempt := models.PaymentAttempt{
		OrderID:   order.ID,
		DueID:     in.DueID,
		StudentID: in.StudentID,
		Amount:    in.Amount,
		Currency:  s.cfg.Currency,
		Status:    models.AttemptStatusCreated,
	}
	if err := s.db.Create(&attempt).Error; err != nil {
		return nil, err
	}

	return &IntentResult{
		OrderID:  order.ID,
		Amount:   in.Amount,
		Currency: s.cfg.Currency,
		KeyID:    s.gateway.KeyID(),
	}, nil
}

// CaptureCallback validates a gateway redirect result and reconciles it
// against the ledger. Each step is a hard gate, in order: signature
// verification, idempotency lookup, intent consumption, ledger credit,
// payment insertion. Steps three to five run in a single DB transaction so a
// failure rolls all of them back together.
func (s *PaymentService) CaptureCallback(paymentID, orderID, signature string) (*models.Payment, error) {
	if paymentID == "" || orderID == "" || signature == "" {
		return nil, fmt.Errorf("%w: payment id, order id and signature are required", ErrValidation)
	}

	if !s.gateway.VerifySignature(orderID, paymentID, signature) {
		log.Printf("🚨 SECURITY: signature mismatch on gateway callback (order %s, payment %s)", orderID, paymentID)
		return nil, ErrSignatureMismatch
	}

	// Idempotency: the unique transaction id makes replays a no-op.
	var existing models.Payment
	err := s.db.First(&existing, "transaction_id = ?", paymentID).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var payment models.Payment
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var attempt models.PaymentAttempt
		if err := tx.First(&attempt, "order_id = ?", orderID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUnknownIntent
			}
			return err
		}

		// Only one caller may win created→consumed; a concurrent duplicate
		// callback loses here and reports "already processed".
		res := tx.Model(&models.PaymentAttempt{}).
			Where("id = ? AND status = ?", attempt.ID, models.AttemptStatusCreated).
			Update("status", models.AttemptStatusConsumed)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrUnknownIntent
		}

		credited := attempt.Amount
		flagged := false
		var flagReason *string
		if attempt.DueID != nil {
			// The gateway already captured the money, so a stale intent is
			// clamped to the outstanding balance instead of rejected; the
			// credited (not requested) amount is what gets recorded.
			c, clamped, _, err := s.ledger.applyCredit(tx, *attempt.DueID, attempt.Amount, true)
			if err != nil {
				return err
			}
			credited = c
			if clamped {
				flagged = true
				reason := fmt.Sprintf("gateway captured %.2f but only %.2f was outstanding; credited %.2f, flagged for manual review",
					attempt.Amount, c, c)
				flagReason = &reason
				log.Printf("⚠️ Clamped gateway credit on due %s: %s", attempt.DueID, reason)
			}
		}

		receiptNumber, err := utils.GenerateReceiptNumber(tx)
		if err != nil {
			return err
		}

		orderRef := orderID
		payment = models.Payment{
			TransactionID:    paymentID,
			OrderID:          &orderRef,
			DueID:            attempt.DueID,
			StudentID:        attempt.StudentID,
			Amount:           credited,
			Method:           models.MethodOnline,
			ReceiptNumber:    receiptNumber,
			PaymentDate:      time.Now(),
			RecordedBy:       models.RecordedBySystem,
			FlaggedForReview: flagged,
			FlagReason:       flagReason,
		}
		return tx.Create(&payment).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Payment %s captured and verified (order %s, receipt %s)", paymentID, orderID, payment.ReceiptNumber)
	return &payment, nil
}

type ManualPaymentInput struct {
	DueID       uuid.UUID
	Amount      float64
	Method      string
	StaffUserID uuid.UUID
	DocumentURL *string
}

// RecordManualPayment is the trusted-staff path for cash, cheque, bank
// transfer and card payments taken at the office. It skips signature
// verification and intent consumption but shares the same credit chokepoint,
// so the two entry paths can never disagree about a due's balance.
// Over-payment is rejected here: no money has moved yet.
func (s *PaymentService) RecordManualPayment(in ManualPaymentInput) (*models.Payment, error) {
	switch in.Method {
	case models.MethodCash, models.MethodCheque, models.MethodBankTransfer, models.MethodCard:
	default:
		return nil, fmt.Errorf("%w: method %q is not a manual payment method", ErrValidation, in.Method)
	}
	if in.StaffUserID == uuid.Nil {
		return nil, fmt.Errorf("%w: staff user id is required", ErrValidation)
	}

	var payment models.Payment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		credited, _, due, err := s.ledger.applyCredit(tx, in.DueID, in.Amount, false)
		if err != nil {
			return err
		}

		receiptNumber, err := utils.GenerateReceiptNumber(tx)
		if err != nil {
			return err
		}

		payment = models.Payment{
			TransactionID: receiptNumber,
			DueID:         &in.DueID,
			StudentID:     &due.StudentID,
			Amount:        credited,
			Method:        in.Method,
			ReceiptNumber: receiptNumber,
			PaymentDate:   time.Now(),
			RecordedBy:    in.StaffUserID.String(),
			DocumentURL:   in.DocumentURL,
		}
		return tx.Create(&payment).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Manual %s payment recorded against due %s (receipt %s)", in.Method, in.DueID, payment.ReceiptNumber)
	return &payment, nil
}

// ExpireStaleIntents garbage-collects attempts older than the intent TTL.
// Expired intents can never be consumed afterwards; abandoning a checkout
// needs no explicit cancel call.
func (s *PaymentService) ExpireStaleIntents(now time.Time) (int64, error) {
	cutoff := now.Add(-s.cfg.IntentTTL)
	res := s.db.Model(&models.PaymentAttempt{}).
		Where("status = ? AND created_at < ?", models.AttemptStatusCreated, cutoff).
		Update("status", models.AttemptStatusExpired)
	return res.RowsAffected, res.Error
}

type PaymentFilter struct {
	StudentID *uuid.UUID
	Method    string
	FromDate  *time.Time
	ToDate    *time.Time
	Flagged   *bool
}

func (s *PaymentService) ListPayments(filter PaymentFilter) ([]models.Payment, error) {
	q := s.db.Order("payment_date desc")
	if filter.StudentID != nil {
		q = q.Where("student_id = ?", *filter.StudentID)
	}
	if filter.Method != "" {
		q = q.Where("method = ?", filter.Method)
	}
	if filter.FromDate != nil {
		q = q.Where("payment_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		q = q.Where("payment_date <= ?", *filter.ToDate)
	}
	if filter.Flagged != nil {
		q = q.Where("flagged_for_review = ?", *filter.Flagged)
	}

	var results []models.Payment
	if err := q.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ReconciliationReport is the out-of-band recovery mechanism for the crash
// window between intent consumption and payment insertion, plus everything an
// operator needs to eyeball: clamped credits and unmatched quick-pay money.
type ReconciliationReport struct {
	ConsumedWithoutPayment []models.PaymentAttempt `json:"consumed_without_payment"`
	FlaggedPayments        []models.Payment        `json:"flagged_payments"`
	UnmatchedQuickPay      []models.Payment        `json:"unmatched_quick_pay"`
}

func (s *PaymentService) Reconcile() (*ReconciliationReport, error) {
	report := &ReconciliationReport{}

	err := s.db.
		Where("status = ? AND order_id NOT IN (SELECT order_id FROM payments WHERE order_id IS NOT NULL)",
			models.AttemptStatusConsumed).
		Order("created_at asc").
		Find(&report.ConsumedWithoutPayment).Error
	if err != nil {
		return nil, err
	}

	if err := s.db.Where("flagged_for_review = ?", true).
		Order("payment_date desc").
		Find(&report.FlaggedPayments).Error; err != nil {
		return nil, err
	}

	if err := s.db.Where("due_id IS NULL").
		Order("payment_date desc").
		Find(&report.UnmatchedQuickPay).Error; err != nil {
		return nil, err
	}

	return report, nil
}
