package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/restaurant-reservation/booking"
	"github.com/yeremiapane/restaurant-reservation/controllers"
	"github.com/yeremiapane/restaurant-reservation/live"
	"github.com/yeremiapane/restaurant-reservation/middlewares"
	"github.com/yeremiapane/restaurant-reservation/models"
	"github.com/yeremiapane/restaurant-reservation/notify"
	"gorm.io/gorm"
)

// Deps are the collaborators the HTTP layer is built from.
type Deps struct {
	DB       *gorm.DB
	Policy   *booking.Policy
	Hub      *live.Hub
	Notifier notify.Notifier

	BaseURL        string
	AllowedOrigins []string
	// RateLimiter throttles every route; nil disables it. AuthLimiter
	// guards login and register; nil uses the strict default.
	RateLimiter *middlewares.RateLimiter
	AuthLimiter *middlewares.RateLimiter
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.RequestID())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.Metrics())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORS(d.AllowedOrigins))
	if d.RateLimiter != nil {
		r.Use(d.RateLimiter.RateLimit())
	}

	userCtrl := controllers.NewUserController(d.DB, d.Notifier, d.BaseURL)
	tableCtrl := controllers.NewTableController(d.DB, d.Hub)
	reservationCtrl := controllers.NewReservationController(d.Policy, d.Hub)
	liveCtrl := controllers.NewLiveController(d.Hub, d.AllowedOrigins)
	exportCtrl := controllers.NewExportController(d.Policy)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", gin.WrapH(middlewares.MetricsHandler()))

	authLimiter := d.AuthLimiter
	if authLimiter == nil {
		authLimiter = middlewares.NewStrictRateLimiter()
	}
	public := r.Group("/")
	public.Use(authLimiter.RateLimit())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}
	r.GET("/users/verify/:token", userCtrl.VerifyEmail)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/")
	auth.Use(middlewares.AuthMiddleware(d.DB))
	{
		auth.POST("/logout", userCtrl.Logout)
		auth.GET("/profile", userCtrl.GetProfile)
		auth.GET("/tables", tableCtrl.GetAllTables)

		auth.GET("/reservations", reservationCtrl.GetQueue)
		auth.GET("/reservations/mine", reservationCtrl.GetMyReservations)
		auth.POST("/reservations", reservationCtrl.CreateReservation)
		auth.GET("/reservation/:reservation_id", reservationCtrl.GetReservation)
		auth.POST("/reservation/:reservation_id/update", reservationCtrl.UpdateReservation)
		auth.POST("/reservation/:reservation_id/delete", reservationCtrl.DeleteReservation)

		auth.GET("/live/ws", liveCtrl.Subscribe)
	}

	// ----------------------------------------------------------------
	//                      ADMIN ROUTES
	// ----------------------------------------------------------------
	admin := r.Group("/admin")
	admin.Use(middlewares.AuthMiddleware(d.DB), middlewares.RequireRole(models.RoleAdmin))
	{
		admin.POST("/tables", tableCtrl.CreateTable)
		admin.PATCH("/tables/:table_id", tableCtrl.UpdateTable)
		admin.DELETE("/tables/:table_id", tableCtrl.DeleteTable)

		admin.GET("/users", userCtrl.GetAllUsers)
		admin.PATCH("/users/:user_id/roles", userCtrl.UpdateRoles)
		admin.DELETE("/users/:user_id", userCtrl.DeleteUser)

		admin.GET("/reservations/export", exportCtrl.ExportReservations)
	}

	return r
}
