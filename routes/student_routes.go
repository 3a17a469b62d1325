package routes

import (
	"github.com/edusphere/school-backend/handlers"
	"github.com/edusphere/school-backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func StudentRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	students := api.Group("/students", middleware.Protected())
	students.Get("", handlers.ListStudents)
	students.Get("/:studentId", handlers.GetStudent)
	students.Get("/:studentId/dues", handlers.GetStudentDues)
	students.Get("/:studentId/payments", handlers.GetStudentPayments)

	admin := students.Group("", middleware.AdminRequired())
	admin.Post("", handlers.CreateStudent)
	admin.Post("/:studentId/enroll", handlers.EnrollStudent)
}
