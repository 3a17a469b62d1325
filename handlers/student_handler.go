package handlers

import (
	"time"

	"github.com/edusphere/school-backend/database"
	"github.com/edusphere/school-backend/models"
	"github.com/edusphere/school-backend/services"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type CreateStudentRequest struct {
	FullName        string  `json:"full_name" validate:"required,min=2"`
	AdmissionNumber string  `json:"admission_number" validate:"required"`
	Class           string  `json:"class" validate:"required"`
	AcademicYear    string  `json:"academic_year" validate:"required"`
	GuardianName    *string `json:"guardian_name,omitempty"`
	GuardianEmail   *string `json:"guardian_email,omitempty" validate:"omitempty,email"`
	GuardianPhone   *string `json:"guardian_phone,omitempty"`
}

func CreateStudent(c *fiber.Ctx) error {
	var req CreateStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	student := models.Student{
		FullName:        req.FullName,
		AdmissionNumber: req.AdmissionNumber,
		Class:           req.Class,
		AcademicYear:    req.AcademicYear,
		GuardianName:    req.GuardianName,
		GuardianEmail:   req.GuardianEmail,
		GuardianPhone:   req.GuardianPhone,
	}
	if err := database.DB.Create(&student).Error; err != nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Admission number already exists"})
	}
	return c.Status(fiber.StatusCreated).JSON(student)
}

func ListStudents(c *fiber.Ctx) error {
	var students []models.Student
	q := database.DB.Where("is_active = ?", true).Order("class asc, full_name asc")
	if class := c.Query("class"); class != "" {
		q = q.Where("class = ?", class)
	}
	if year := c.Query("academic_year"); year != "" {
		q = q.Where("academic_year = ?", year)
	}
	if err := q.Find(&students).Error; err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to list students"})
	}
	return c.JSON(students)
}

func GetStudent(c *fiber.Ctx) error {
	studentID, err := uuid.Parse(c.Params("studentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student ID format"})
	}

	var student models.Student
	if err := database.DB.First(&student, "id = ?", studentID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}
	return c.JSON(student)
}

type EnrollStudentRequest struct {
	FeeStructureID string  `json:"fee_structure_id" validate:"required,uuid"`
	AnchorDate     *string `json:"anchor_date,omitempty"` // YYYY-MM-DD, defaults to today
}

// EnrollStudent attaches a student to a fee structure and generates their
// installment dues. Enrollment is the one and only trigger for due
// generation; re-enrolling the same pair is a conflict.
func EnrollStudent(c *fiber.Ctx) error {
	studentID, err := uuid.Parse(c.Params("studentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student ID format"})
	}

	var req EnrollStudentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Cannot parse JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var student models.Student
	if err := database.DB.First(&student, "id = ?", studentID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Student not found"})
	}

	anchor := time.Now()
	if req.AnchorDate != nil {
		parsed, err := time.Parse("2006-01-02", *req.AnchorDate)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "anchor_date must be YYYY-MM-DD"})
		}
		anchor = parsed
	}

	dues, err := ledgerService.GenerateDues(studentID, uuid.MustParse(req.FeeStructureID), anchor)
	if err != nil {
		return serviceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dues)
}

func GetStudentDues(c *fiber.Ctx) error {
	studentID, err := uuid.Parse(c.Params("studentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student ID format"})
	}

	filter := services.DueFilter{Status: c.Query("status")}
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

	dues, err := ledgerService.ListDuesForStudent(studentID, filter)
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(dues)
}

func GetStudentPayments(c *fiber.Ctx) error {
	studentID, err := uuid.Parse(c.Params("studentId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid student ID format"})
	}

	paymentsList, err := paymentService.ListPayments(services.PaymentFilter{StudentID: &studentID})
	if err != nil {
		return serviceError(c, err)
	}
	return c.JSON(paymentsList)
}
