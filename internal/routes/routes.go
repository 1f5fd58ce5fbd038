package routes

import (
	"medibook-server/internal/config"
	"medibook-server/internal/handlers"
	"medibook-server/internal/mailer"
	"medibook-server/internal/middleware"
	"medibook-server/internal/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRoutes configures the application routes.
func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config) {
	// Initialize handlers
	m := mailer.New(cfg.SMTP)
	authHandler := handlers.NewAuthHandler(db, cfg)
	userHandler := handlers.NewUserHandler(db)
	doctorHandler := handlers.NewDoctorHandler(db)
	appointmentHandler := handlers.NewAppointmentHandler(db, m)
	recordHandler := handlers.NewMedicalRecordHandler(db, cfg.UploadDir)

	// Public routes (no authentication required)
	public := router.Group("/auth")
	{
		public.POST("/register-patient", authHandler.RegisterPatient)
		public.POST("/register-doctor", authHandler.RegisterDoctor)
		public.POST("/login", authHandler.Login)
		public.POST("/refresh", authHandler.Refresh)
	}

	// Authenticated routes
	private := router.Group("")
	private.Use(middleware.AuthMiddleware(db, cfg))
	{
		private.POST("/auth/logout", authHandler.Logout)

		// Self-service profile routes, any account kind
		userRoutes := private.Group("/users")
		{
			userRoutes.GET("/me", userHandler.GetMe)
			userRoutes.PATCH("/me", userHandler.UpdateMe)
			userRoutes.DELETE("/me", userHandler.DeleteMe)
		}

		// Doctor browsing; update authorization is checked in the handler
		// (admin or the doctor themselves)
		doctorRoutes := private.Group("/doctors")
		{
			doctorRoutes.GET("", doctorHandler.GetDoctors)
			doctorRoutes.GET("/:id", doctorHandler.GetDoctorByID)
			doctorRoutes.PATCH("/:id", doctorHandler.UpdateDoctor)
		}

		// Appointment routes
		appointmentRoutes := private.Group("/appointments")
		{
			appointmentRoutes.POST("", middleware.RoleAuthMiddleware(models.RolePatient), appointmentHandler.CreateAppointment)
			appointmentRoutes.GET("/me", middleware.RoleAuthMiddleware(models.RolePatient), appointmentHandler.GetPatientAppointments)
			appointmentRoutes.GET("/doctor/me", middleware.RoleAuthMiddleware(models.RoleDoctor), appointmentHandler.GetDoctorAppointments)
			appointmentRoutes.PATCH("/:id/status", middleware.RoleAuthMiddleware(models.RoleDoctor, models.RoleAdmin), appointmentHandler.UpdateAppointmentStatus)
			appointmentRoutes.PATCH("/:id/cancel", middleware.RoleAuthMiddleware(models.RolePatient), appointmentHandler.CancelAppointment)
		}

		// Medical record routes. The two-segment GETs share a dispatching
		// handler because gin cannot mount /records/appointment/* next to
		// the /records/:id wildcard.
		recordRoutes := private.Group("/records")
		{
			recordRoutes.POST("", middleware.RoleAuthMiddleware(models.RolePatient), recordHandler.UploadRecord)
			recordRoutes.GET("/:id", recordHandler.GetRecordByID)
			recordRoutes.GET("/:id/:sub", recordHandler.GetRecordSubresource)
		}
	}

	// Simple health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "UP"})
	})
}
