package handlers

import (
	"errors"

	"github.com/edusphere/school-backend/services"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

var feeService *services.FeeService
var ledgerService *services.LedgerService
var paymentService *services.PaymentService

// Setup wires the constructed services into the handler package. Called once
// from main after the database is up.
func Setup(fee *services.FeeService, ledger *services.LedgerService, payment *services.PaymentService) {
	feeService = fee
	ledgerService = ledger
	paymentService = payment
}

// serviceError maps the service error taxonomy onto HTTP responses.
func serviceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrStructureExists), errors.Is(err, services.ErrDuplicateDues):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrUnknownIntent):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "payment already processed or invalid"})
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrInvalidAmount):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrSignatureMismatch):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "signature verification failed"})
	case errors.Is(err, services.ErrGatewayUnavailable):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "payment gateway unavailable, please retry"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}
