package routes

import (
	"time"

	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/config"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/leaddesk/internal/middleware"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	resolver middleware.ActorResolver,
	gatherer prometheus.Gatherer,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	userHandler *handlers.UserHandler,
	leadHandler *handlers.LeadHandler,
	adminHandler *handlers.AdminHandler,
) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := app.Group("/api")

	// General API rate limiter: 120 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               120,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Login and refresh are public, with a stricter limit: 10 req/min per IP
	authLimit := limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	})
	api.Post("/users/login", authLimit, authHandler.Login)
	api.Post("/users/refresh", authLimit, authHandler.Refresh)

	protected := []fiber.Handler{middleware.JWTProtected(cfg), middleware.ResolveActor(resolver)}

	users := api.Group("/users", protected...)
	users.Post("/logout", authHandler.Logout)
	users.Get("/profile", userHandler.Profile)
	users.Put("/profile", userHandler.UpdateProfile)
	users.Post("/assign-leads", userHandler.AssignLeads)
	users.Post("/", userHandler.Create)
	users.Get("/", userHandler.List)
	users.Get("/:id", userHandler.Get)
	users.Put("/:id", userHandler.Update)
	users.Delete("/:id", userHandler.Delete)

	leads := api.Group("/leads", protected...)
	leads.Get("/", leadHandler.List)
	leads.Get("/today-followups", leadHandler.TodaysFollowUps)
	leads.Get("/stats", leadHandler.Stats)
	leads.Get("/:id", leadHandler.Get)
	leads.Post("/", leadHandler.Create)
	leads.Put("/:id", leadHandler.Update)
	leads.Post("/:id/call", leadHandler.RecordCall)
	leads.Delete("/:id", leadHandler.Delete)

	admin := api.Group("/admin", append(protected, middleware.AdminRequired())...)
	admin.Get("/dashboard-stats", adminHandler.DashboardStats)
	admin.Get("/team-performance", adminHandler.TeamPerformance)
	admin.Get("/unassigned-leads", adminHandler.UnassignedLeads)
	admin.Get("/lead-sources", adminHandler.LeadSources)
	admin.Get("/conversion-by-source", adminHandler.ConversionBySource)
	admin.Get("/monthly-trends", adminHandler.MonthlyTrends)
	admin.Get("/leads/export", adminHandler.ExportLeads)
}
