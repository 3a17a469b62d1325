package routes

import (
	"github.com/edusphere/school-backend/handlers"
	"github.com/edusphere/school-backend/middleware"
	"github.com/gofiber/fiber/v2"
)

func FeeRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	fees := api.Group("/fees", middleware.Protected())
	fees.Get("/structures", handlers.ListFeeStructures)
	fees.Get("/structure", handlers.GetFeeStructure)

	admin := fees.Group("", middleware.AdminRequired())
	admin.Post("/structures", handlers.CreateFeeStructure)
}
