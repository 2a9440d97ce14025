package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/clinibook/booking-api/internal/handler"
	"github.com/clinibook/booking-api/internal/handler/appointment"
	"github.com/clinibook/booking-api/internal/handler/auth"
	"github.com/clinibook/booking-api/internal/handler/doctor"
	"github.com/clinibook/booking-api/internal/handler/staff"
	"github.com/clinibook/booking-api/internal/handler/training"
	"github.com/clinibook/booking-api/internal/middleware"
	"github.com/clinibook/booking-api/internal/model"
)

type Router struct {
	engine       *gin.Engine
	auth         *middleware.AuthMiddleware
	authH        *auth.Handler
	doctorH      *doctor.Handler
	appointmentH *appointment.Handler
	staffH       *staff.Handler
	trainingH    *training.Handler
	h            *handler.Handler
	metrics      *routerMetrics
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

type RouterConfig struct {
	RateLimitEnabled bool
	RateLimit        rate.Limit
	RateBurst        int
	CORSConfig       middleware.CORSConfig
	MetricsPrefix    string
}

func NewRouter(
	authMw *middleware.AuthMiddleware,
	authH *auth.Handler,
	doctorH *doctor.Handler,
	appointmentH *appointment.Handler,
	staffH *staff.Handler,
	trainingH *training.Handler,
	h *handler.Handler,
	config RouterConfig,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()

	r := &Router{
		engine:       engine,
		auth:         authMw,
		authH:        authH,
		doctorH:      doctorH,
		appointmentH: appointmentH,
		staffH:       staffH,
		trainingH:    trainingH,
		h:            h,
		metrics:      initRouterMetrics(config.MetricsPrefix),
	}

	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorHandler(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.DefaultTimeoutConfig()),
	)

	engine.Use(middleware.CORS(config.CORSConfig))

	if config.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.setupHealthCheck(api)
	r.setupPublicRoutes(api)

	protected := api.Group("")
	protected.Use(r.auth.Authenticate())
	r.setupProtectedRoutes(protected)
}

func (r *Router) setupHealthCheck(rg *gin.RouterGroup) {
	health := rg.Group("/health")
	{
		health.GET("", r.h.HealthCheck)
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
		health.GET("/metrics", r.h.MetricsHandler)
	}
}

func (r *Router) setupPublicRoutes(rg *gin.RouterGroup) {
	authGroup := rg.Group("/auth")
	{
		authGroup.POST("/register", r.authH.Register)
		authGroup.POST("/login", r.authH.Login)
	}
}

func (r *Router) setupProtectedRoutes(rg *gin.RouterGroup) {
	anyRole := r.auth.RequireRoles(model.RoleUser, model.RoleDoctor, model.RoleStaff, model.RoleAdmin)

	doctors := rg.Group("/doctors", anyRole)
	{
		doctors.GET("", r.doctorH.ListDoctors)
		doctors.GET("/:id", r.doctorH.GetDoctor)
		doctors.GET("/:id/slots", r.doctorH.AvailableSlots)
	}

	appointments := rg.Group("/appointments", r.auth.RequireRoles(model.RoleUser))
	{
		appointments.POST("", r.appointmentH.Book)
		appointments.GET("", r.appointmentH.History)
		appointments.POST("/:id/cancel", r.appointmentH.Cancel)
		appointments.POST("/:id/pay", r.appointmentH.Pay)
		appointments.POST("/:id/reports", r.appointmentH.AddReport)
		appointments.DELETE("/:id/reports/:reportID", r.appointmentH.DeleteReport)
	}

	// Report listing is shared between the patient and the treating doctor.
	reports := rg.Group("/appointments/:id/reports", r.auth.RequireRoles(model.RoleUser, model.RoleDoctor))
	{
		reports.GET("", r.appointmentH.ListReports)
	}

	doctorSelf := rg.Group("/doctor", r.auth.RequireRoles(model.RoleDoctor))
	{
		doctorSelf.GET("/appointments", r.doctorH.DayAppointments)
		doctorSelf.POST("/appointments/:id/complete", r.doctorH.CompleteAppointment)
		doctorSelf.GET("/slots", r.doctorH.ListSlots)
		doctorSelf.POST("/slots", r.doctorH.AddSlot)
		doctorSelf.PUT("/slots/:id", r.doctorH.EditSlot)
		doctorSelf.DELETE("/slots/:id", r.doctorH.DeleteSlot)
	}

	staffGroup := rg.Group("/staff", r.auth.RequireRoles(model.RoleStaff, model.RoleAdmin))
	{
		staffGroup.POST("/walk-ins", r.staffH.WalkIn)
		staffGroup.POST("/appointments/:id/payment", r.staffH.MarkPaid)
		staffGroup.POST("/appointments/:id/status", r.staffH.ForceStatus)
		staffGroup.GET("/doctors/:id/appointments", r.staffH.DoctorAppointments)
	}

	admin := rg.Group("/admin", r.auth.RequireRoles(model.RoleAdmin))
	{
		admin.POST("/doctors", r.doctorH.CreateDoctor)
		admin.PUT("/doctors/:id", r.doctorH.UpdateDoctor)
	}

	trainingGroup := rg.Group("/training", anyRole)
	{
		trainingGroup.GET("/courses", r.trainingH.ListCourses)
		trainingGroup.POST("/courses/:id/enroll", r.trainingH.Enroll)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

func initRouterMetrics(prefix string) *routerMetrics {
	m := &routerMetrics{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
	prometheus.MustRegister(m.requestDuration, m.requestTotal, m.errorTotal)
	return m
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := c.FullPath()
		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}
