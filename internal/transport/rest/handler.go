package rest

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"mindwell/config"
	"mindwell/internal/service"
)

type Handler struct {
	services *service.Services
	logger   *zap.Logger
	config   *config.Config
}

func NewHandler(services *service.Services, logger *zap.Logger, config *config.Config) *Handler {
	return &Handler{
		services: services,
		logger:   logger,
		config:   config,
	}
}

func (h *Handler) InitRoutes(router *gin.Engine) {
	router.Use(h.loggerMiddleware())

	router.Use(h.errorMiddleware())

	router.Use(h.corsMiddleware())

	router.Use(h.metricsMiddleware())

	if h.config.SentryDSN != "" {
		router.Use(h.sentryMiddleware())
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.register)
			auth.POST("/login", h.login)
			auth.POST("/refresh", h.refreshTokens)
			auth.POST("/logout", h.logout)
		}

		signup := api.Group("/signup")
		{
			signup.POST("/step", h.processSignupStep)
		}

		users := api.Group("/users")
		users.Use(h.authMiddleware())
		{
			users.GET("/me", h.getCurrentUser)
			users.GET("/:id", h.getUserByID)
			users.PUT("/:id", h.updateUser)
			users.PUT("/:id/password", h.updatePassword)

			admin := users.Group("/")
			admin.Use(h.adminMiddleware())
			{
				admin.POST("/", h.createUser)
				admin.GET("/", h.getUsers)
				admin.DELETE("/:id", h.deleteUser)
			}
		}

		professionals := api.Group("/professionals")
		{
			professionals.GET("/", h.getProfessionals)
			professionals.GET("/search", h.searchProfessionals)
			professionals.GET("/me", h.authMiddleware(), h.getMyProfessionalProfile)
			professionals.GET("/:id", h.getProfessionalByID)
			professionals.GET("/:id/available-slots", h.getAvailableSlots)
			professionals.GET("/:id/availability", h.getAvailability)

			auth := professionals.Group("/", h.authMiddleware())
			{
				auth.POST("/", h.createProfessional)
				auth.PUT("/:id", h.updateProfessional)
				auth.DELETE("/:id", h.deleteProfessional)

				auth.POST("/:id/photo", h.uploadProfessionalPhoto)
				auth.POST("/:id/license", h.uploadLicenseDocument)

				professionalRoutes := auth.Group("/", h.professionalMiddleware())
				{
					professionalRoutes.PUT("/:id/availability", h.updateAvailability)
				}
			}
		}

		appointments := api.Group("/appointments")
		appointments.Use(h.authMiddleware())
		{
			appointments.POST("/", h.createAppointment)
			appointments.GET("/", h.getAppointments)
			appointments.GET("/:id", h.getAppointmentByID)
			appointments.PUT("/:id", h.updateAppointment)
			appointments.DELETE("/:id", h.cancelAppointment)

			professional := appointments.Group("/", h.professionalMiddleware())
			{
				professional.GET("/proposed", h.getProposedAppointments)
				professional.GET("/general", h.getGeneralAppointments)
				professional.POST("/:id/accept", h.acceptAppointment)
				professional.POST("/:id/refuse", h.refuseAppointment)
				professional.POST("/:id/start", h.startAppointment)
				professional.POST("/:id/complete", h.completeAppointment)
				professional.POST("/:id/no-show", h.markAppointmentNoShow)
			}
		}

		clients := api.Group("/clients")
		clients.Use(h.authMiddleware())
		{
			clients.GET("/:id/medical-profile", h.getMedicalProfile)
			clients.PATCH("/:id/medical-profile", h.updateMedicalProfile)
		}

		guests := api.Group("/guest-bookings")
		{
			guests.POST("/", h.createGuestBooking)
			guests.GET("/:reference", h.getGuestBooking)
			guests.POST("/:reference/confirm", h.confirmGuestPayment)
		}
	}
}
