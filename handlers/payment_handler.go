package handlers

import (
	"time"

	"github.com/edusphere/school-backend/database"
	"github.com/edusphere/school-backend/models"
	"github.com/edusphere/school-backend/notifications"
	"github.com/edusphere/school-backend/services"
	"github.com/edusphere/school-backend/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

type CreateIntentRequest struct {
	DueID       *string `json:"due_id,omitempty" validate:"omitempty,uuid"`
	StudentID   *string `json:"student_id,omitempty" validate:"omitempty,uuid"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Description string  `json:"description,omitempty"`
}

// CreatePaymentIntent opens a gateway order for a due (or a quick-pay amount
// with no due) and returns what the client-side checkout needs.
func CreatePaymentIntent(c *fiber.Ctx) error {
	var req CreateIntentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	input := services.CreateIntentInput{
		Amount:      req.Amount,
		Description: req.Description,
	}
	if req.DueID != nil {
		dueID := uuid.MustParse(*req.DueID)
		input.DueID = &dueID
	}
	if req.StudentID != nil {
		studentID := uuid.MustParse(*req.StudentID)
		input.StudentID = &studentID
	}

	intent, err := paymentService.CreateIntent(input)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(intent)
}

type CaptureCallbackRequest struct {
	PaymentID string `json:"payment_id" validate:"required"`
	OrderID   string `json:"order_id" validate:"required"`
	Signature string `json:"signature" validate:"required"`
}

// HandleGatewayCallback receives the gateway redirect result forwarded by
// the client. The signature is the authentication here; the endpoint is
// deliberately unauthenticated and idempotent so retries, duplicate tabs and
// replays are all safe.
func HandleGatewayCallback(c *fiber.Ctx) error {
	var req CaptureCallbackRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	payment, err := paymentService.CaptureCallback(req.PaymentID, req.OrderID, req.Signature)
	if err != nil {
		return serviceError(c, err)
	}

	websocket.PublishPayment(payment)
	go sendReceiptEmail(payment)

	return c.JSON(payment)
}

type ManualPaymentRequest struct {
	DueID       string  `json:"due_id" validate:"required,uuid"`
	Amount      float64 `json:"amount" validate:"required,gt=0"`
	Method      string  `json:"method" validate:"required,oneof=cash cheque bank_transfer card"`
	DocumentURL *string `json:"document_url,omitempty" validate:"omitempty,url"`
}

// RecordManualPayment is the trusted-staff path: authority-verified rather
// than cryptographically verified, but writing through the same ledger
// chokepoint.
func RecordManualPayment(c *fiber.Ctx) error {
	token := c.Locals("user").(*jwt.Token)
	claims := token.Claims.(jwt.MapClaims)
	staffID, err := uuid.Parse(claims["user_id"].(string))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid staff identity in token"})
	}

	var req ManualPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	payment, err := paymentService.RecordManualPayment(services.ManualPaymentInput{
		DueID:       uuid.MustParse(req.DueID),
		Amount:      req.Amount,
		Method:      req.Method,
		StaffUserID: staffID,
		DocumentURL: req.DocumentURL,
	})
	if err != nil {
		return serviceError(c, err)
	}

	websocket.PublishPayment(payment)
	go sendReceiptEmail(payment)

	return c.Status(fiber.StatusCreated).JSON(payment)
}

func AdminListPayments(c *fiber.Ctx) error {
	filter := services.PaymentFilter{Method: c.Query("method")}
	if sid := c.Query("student_id"); sid != "" {
		studentID, err := uuid.Parse(sid)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student ID format"})
		}
		filter.StudentID = &studentID
	}
	if from := c.Query("from"); from != "" {
		if parsed, err := time.Parse("2006-01-02", from); err == nil {
			filter.FromDate = &parsed
		}
	}
	if to := c.Query("to"); to != "" {
		if parsed, err := time.Parse("2006-01-02", to); err == nil {
			filter.ToDate = &parsed
		}
	}
	if c.Query("flagged") == "true" {
		flagged := true
		filter.Flagged = &flagged
	}

	paymentsList, err := paymentService.ListPayments(filter)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(paymentsList)
}

// ReconciliationReport lists consumed intents with no recorded payment (the
// crash window), clamped credits awaiting review, and unmatched quick-pay
// money. Operators run this out-of-band.
func ReconciliationReport(c *fiber.Ctx) error {
	report, err := paymentService.Reconcile()
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(report)
}

func sendReceiptEmail(payment *models.Payment) {
	if payment.StudentID == nil {
		return
	}
	var student models.Student
	if err := database.DB.First(&student, "id = ?", *payment.StudentID).Error; err != nil {
		return
	}
	if student.GuardianEmail == nil {
		return
	}
	guardianName := student.FullName
	if student.GuardianName != nil {
		guardianName = *student.GuardianName
	}
	notifications.SendPaymentReceipt(guardianName, *student.GuardianEmail, student.FullName,
		payment.ReceiptNumber, payment.Amount, payment.Method)
}
