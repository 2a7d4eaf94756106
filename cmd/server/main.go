package main

import (
	"log"

	"law_market_app_go/config"
	"law_market_app_go/db"
	"law_market_app_go/handlers"
	"law_market_app_go/middleware"
	"law_market_app_go/models"
	"law_market_app_go/services"
	"law_market_app_go/services/jobs"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	if err := db.Initialize(cfg.DBPath, cfg.Environment); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.AutoMigrate(
		&models.User{},
		&models.LawyerProfile{},
		&models.ExpertiseEntry{},
		&models.CaseType{},
		&models.Case{},
		&models.Consultation{},
		&models.StatusChange{},
		&models.Offer{},
		&models.Appointment{},
		&models.Chat{},
		&models.ChatMessage{},
		&models.Presence{},
	); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize attachment storage (R2 or local fallback)
	services.InitializeStorage(cfg)

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.Logger())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins: cfg.AllowedOrigins,
	}))

	// Make config available to handlers
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Set("config", cfg)
			return next(c)
		}
	})

	api := e.Group("/api/v1")

	// Public routes (no authentication required)
	api.POST("/auth/register", handlers.RegisterHandler)
	api.POST("/auth/login", handlers.LoginHandler)

	// Protected routes
	protected := api.Group("")
	protected.Use(middleware.RequireAuth())
	{
		protected.GET("/auth/me", handlers.MeHandler)

		consultations := protected.Group("/consultations")
		{
			// Client-facing
			clientRoutes := consultations.Group("")
			clientRoutes.Use(middleware.RequireRole(models.RoleUser))
			{
				clientRoutes.POST("", handlers.CreateConsultationHandler)
				clientRoutes.GET("", handlers.GetConsultationsHandler)
				clientRoutes.GET("/history", handlers.GetConsultationHistoryHandler)
				clientRoutes.GET("/compare-prices", handlers.ComparePricesHandler)
				clientRoutes.POST("/select-offer", handlers.SelectOfferHandler)
				clientRoutes.POST("/reject-offer", handlers.RejectOfferHandler)
				clientRoutes.POST("/saveAppointmentDate", handlers.SaveAppointmentDateHandler)
				clientRoutes.POST("/reset", handlers.ResetConsultationHandler)
				clientRoutes.GET("/:id/files/:key", handlers.DownloadConsultationFileHandler)
			}

			// Lawyer-facing
			lawyerRoutes := consultations.Group("")
			lawyerRoutes.Use(middleware.RequireRole(models.RoleLawyer))
			{
				lawyerRoutes.GET("/all", handlers.GetConsultationsForLawyerHandler)
				lawyerRoutes.POST("/send-offer", handlers.SendOfferHandler)
				lawyerRoutes.POST("/submitOffer", handlers.SubmitOfferHandler)
				lawyerRoutes.GET("/offers", handlers.GetOffersByLawyerHandler)
				lawyerRoutes.PUT("/update-offer/:offerId", handlers.UpdateOfferHandler)
				lawyerRoutes.GET("/export", handlers.ExportConsultationsHandler)
			}

			// Any authenticated principal
			consultations.POST("/details", handlers.GetConsultationDetailsHandler)
			consultations.POST("/offerCheck", handlers.OfferCheckHandler)
		}

		appointments := protected.Group("/appointments")
		{
			appointments.POST("", handlers.BookAppointmentHandler, middleware.RequireRole(models.RoleUser))
			appointments.GET("/slots/:lawyerId/:date", handlers.GetBookedSlotsHandler)
			appointments.POST("/:id/cancel", handlers.CancelAppointmentHandler)
		}

		chats := protected.Group("/chats")
		{
			chats.POST("", handlers.OpenChatHandler)
			chats.GET("", handlers.ListChatsHandler)
			chats.POST("/:id/messages", handlers.SendMessageHandler)
			chats.GET("/:id/messages", handlers.ListMessagesHandler)
		}

		presence := protected.Group("/presence")
		{
			presence.POST("/join", handlers.JoinPresenceHandler)
			presence.POST("/leave", handlers.LeavePresenceHandler)
			presence.GET("", handlers.ListPresenceHandler)
		}
	}

	// Background eviction of expired consultations
	if cfg.ExpirySweepEnabled {
		jobs.StartScheduler(db.DB)
	}

	// Start server
	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := e.Start(":" + cfg.ServerPort); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
