package routes

import (
	"github.com/edusphere/school-backend/handlers"
	"github.com/edusphere/school-backend/middleware"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

func PaymentRoutes(app *fiber.App) {
	api := app.Group("/api/v1")

	// The callback is authenticated by its signature, not a session: the
	// gateway redirect lands on a logged-out browser tab often enough.
	api.Post("/payments/callback", handlers.HandleGatewayCallback)

	// The feed does its own token handshake over the socket, like the
	// callback it cannot carry an Authorization header.
	api.Use("/ws/payments", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})
	api.Get("/ws/payments", websocket.New(handlers.ServePaymentFeed))

	payments := api.Group("/payments", middleware.Protected())
	payments.Post("/intent", handlers.CreatePaymentIntent)

	staff := payments.Group("", middleware.AccountantRequired())
	staff.Post("/manual", handlers.RecordManualPayment)
	staff.Get("", handlers.AdminListPayments)
	staff.Get("/reconciliation", handlers.ReconciliationReport)
	staff.Get("/uploads/signature", handlers.GenerateUploadSignature)
}
