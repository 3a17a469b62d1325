package main

import (
	"log"
	"time"

	config "github.com/edusphere/school-backend/configs"
	"github.com/edusphere/school-backend/database"
	"github.com/edusphere/school-backend/handlers"
	"github.com/edusphere/school-backend/jobs"
	"github.com/edusphere/school-backend/notifications"
	"github.com/edusphere/school-backend/payments"
	"github.com/edusphere/school-backend/routes"
	"github.com/edusphere/school-backend/services"
	"github.com/edusphere/school-backend/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/robfig/cron/v3"
)

func main() {
	database.ConnectDB()
	database.Migrate()
	database.SeedAdmin()
	notifications.InitEmailService()

	gatewayCfg := config.LoadGatewayConfig()
	gateway := payments.NewRazorpayClient(gatewayCfg)

	feeService := services.NewFeeService(database.DB)
	ledgerService := services.NewLedgerService(database.DB)
	paymentService := services.NewPaymentService(database.DB, gateway, ledgerService, gatewayCfg)

	handlers.Setup(feeService, ledgerService, paymentService)
	jobs.Init(paymentService, ledgerService)

	c := cron.New()
	c.AddFunc("*/10 * * * *", jobs.ExpireStaleIntents)
	c.AddFunc("30 0 * * *", jobs.MarkOverdueDues)
	go c.Start()
	log.Println("✅ Cron jobs for intent expiry and overdue sweep scheduled successfully.")

	app := fiber.New(fiber.Config{
		Prefork:           false,
		AppName:           "School Admin",
		CaseSensitive:     true,
		StrictRouting:     true,
		EnablePrintRoutes: true,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}

			log.Printf("[ERROR] %v | Path: %s | Method: %s", err, c.Path(), c.Method())
			return c.Status(code).JSON(fiber.Map{
				"status":  "error",
				"code":    code,
				"message": err.Error(),
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:  "*",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowMethods:  "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		ExposeHeaders: "Content-Length, Authorization",
		MaxAge:        86400,
	}))

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		TimeFormat: "2006-01-02 15:04:05",
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "success",
			"message": "Welcome to School Admin API",
		})
	})

	routes.FeeRoutes(app)
	routes.StudentRoutes(app)
	routes.PaymentRoutes(app)

	go websocket.RunHub()

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})

	log.Println("✅ Server is running on port 8080")
	err := app.Listen(":8080")
	if err != nil {
		log.Fatalf("🔥 Server failed to start: %v", err)
	}
}
