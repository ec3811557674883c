package api

import (
	"net/http"

	"github.com/azizhamoud35/namatclinic3/internal/domain"
	"github.com/azizhamoud35/namatclinic3/internal/service"

	"github.com/gin-gonic/gin"
)

// SetupRoutes wires all handlers onto the router.
func SetupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authService service.AuthService,
	availabilityService service.AvailabilityService,
	schedulingService service.SchedulingService,
	appointmentService service.AppointmentService,
	autoScheduler *service.AutoScheduler,
) {
	authHandler := NewAuthHandler(authService)
	availabilityHandler := NewAvailabilityHandler(availabilityService)
	schedulingHandler := NewSchedulingHandler(schedulingService, autoScheduler)
	appointmentHandler := NewAppointmentHandler(appointmentService)

	authMiddleware := AuthMiddleware(jwtSecret)

	router.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	apiV1 := router.Group("/api/v1")
	{
		authGroup := apiV1.Group("/auth")
		{
			authGroup.POST("/register", authHandler.Register)
			authGroup.POST("/login", authHandler.Login)
		}
	}

	protected := apiV1.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/me", func(c *gin.Context) {
			userIDStr, err := getUserIDFromContext(c)
			if err != nil {
				abortWithError(c, http.StatusInternalServerError, "Failed to get user ID from token")
				return
			}
			role, _ := getUserRoleFromContext(c)
			c.JSON(http.StatusOK, gin.H{"userId": userIDStr, "role": role})
		})

		// --- Coach Routes ---
		coachGroup := protected.Group("/coach")
		coachGroup.Use(RoleMiddleware(domain.RoleCoach))
		{
			coachGroup.POST("/availabilities", availabilityHandler.CreateAvailability)
			coachGroup.GET("/availabilities", availabilityHandler.GetOwnAvailabilities)
			coachGroup.GET("/appointments", appointmentHandler.ListOwnAsCoach)
			coachGroup.PATCH("/appointments/:id", appointmentHandler.RecordOutcome)
		}

		// --- Customer Routes ---
		customerGroup := protected.Group("/customer")
		customerGroup.Use(RoleMiddleware(domain.RoleCustomer))
		{
			customerGroup.GET("/appointments", appointmentHandler.ListOwnAsCustomer)
		}

		// --- Admin Routes ---
		adminGroup := protected.Group("/admin")
		adminGroup.Use(RoleMiddleware(domain.RoleAdmin))
		{
			adminGroup.GET("/availabilities", availabilityHandler.ListByStatus)
			adminGroup.POST("/availabilities/:id/approve", availabilityHandler.Approve)
			adminGroup.POST("/availabilities/:id/reject", availabilityHandler.Reject)

			adminGroup.GET("/appointments", appointmentHandler.ListUpcoming)
			adminGroup.POST("/appointments", schedulingHandler.ScheduleManual)
			adminGroup.GET("/coaches/:id/slots", schedulingHandler.GetCandidateSlots)

			adminGroup.POST("/scheduling/trigger", schedulingHandler.TriggerScheduling)
			adminGroup.GET("/scheduling/auto", schedulingHandler.GetAutoScheduling)
			adminGroup.PUT("/scheduling/auto", schedulingHandler.SetAutoScheduling)

			adminGroup.GET("/settings/working-hours", schedulingHandler.GetWorkingHours)
			adminGroup.PUT("/settings/working-hours", schedulingHandler.SetWorkingHours)
		}
	}
}
