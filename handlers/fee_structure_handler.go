package handlers

import (
	"github.com/edusphere/school-backend/services"
	"github.com/gofiber/fiber/v2"
)

type CreateFeeStructureRequest struct {
	Class           string             `json:"class" validate:"required"`
	AcademicYear    string             `json:"academic_year" validate:"required"`
	Components      map[string]float64 `json:"components" validate:"required"`
	PaymentSchedule string             `json:"payment_schedule" validate:"required,oneof=monthly quarterly half_yearly yearly"`
}

func CreateFeeStructure(c *fiber.Ctx) error {
	var req CreateFeeStructureRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	structure, err := feeService.CreateStructure(services.CreateStructureInput{
		Class:           req.Class,
		AcademicYear:    req.AcademicYear,
		Components:      req.Components,
		PaymentSchedule: req.PaymentSchedule,
	})
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(structure)
}

func GetFeeStructure(c *fiber.Ctx) error {
	class := c.Query("class")
	year := c.Query("academic_year")
	if class == "" || year == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "class and academic_year are required"})
	}

	structure, err := feeService.GetStructure(class, year)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(structure)
}

func ListFeeStructures(c *fiber.Ctx) error {
	structures, err := feeService.ListStructures(c.Query("academic_year"))
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(structures)
}
