package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/cortexdesk/cortexdesk/internal/api/http/handlers"
	"github.com/cortexdesk/cortexdesk/internal/auth"
	"github.com/cortexdesk/cortexdesk/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Users          *handlers.UsersHandler
	Tickets        *handlers.TicketsHandler
	StaffTickets   *handlers.StaffTicketsHandler
	Categories     *handlers.CategoriesHandler
	Escalations    *handlers.EscalationsHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Users.Register)
	authGroup.Post("/login", cfg.Users.Login)

	app.Get("/categories", cfg.Categories.ListActive)

	customer := app.Group("/tickets", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleCustomer))
	customer.Post("", cfg.Tickets.CreateTicket)
	customer.Get("", cfg.Tickets.ListTickets)
	customer.Get("/:id", cfg.Tickets.GetTicket)
	customer.Get("/:id/sla", cfg.Tickets.GetSla)
	customer.Post("/:id/close", cfg.Tickets.CloseTicket)
	customer.Post("/:id/reopen", cfg.Tickets.ReopenTicket)

	escalations := app.Group("/escalations", cfg.AuthMiddleware.Handle)
	escalations.Post("/match", auth.RequireAnyRole(), cfg.Escalations.Match)
	escalations.Post("", auth.RequireRole(domain.RoleCustomer), cfg.Escalations.Escalate)

	staff := app.Group("/staff", cfg.AuthMiddleware.Handle)
	staffTickets := staff.Group("/tickets", auth.RequireRole(domain.RoleManager, domain.RoleEngineer, domain.RoleAdmin))
	staffTickets.Get("", cfg.StaffTickets.ListTickets)
	staffTickets.Get("/queue", cfg.StaffTickets.Queue)
	staffTickets.Get("/:id", cfg.StaffTickets.GetTicket)
	staffTickets.Get("/:id/history", cfg.StaffTickets.History)
	staffTickets.Post("/:id/assign", cfg.StaffTickets.AssignTicket)
	staffTickets.Post("/:id/auto-assign", cfg.StaffTickets.AutoAssignTicket)
	staffTickets.Post("/:id/pick", cfg.StaffTickets.PickTicket)
	staffTickets.Post("/:id/resolve", cfg.StaffTickets.ResolveTicket)

	admin := app.Group("/admin", cfg.AuthMiddleware.Handle, auth.RequireRole(domain.RoleAdmin))
	admin.Get("/categories", cfg.Categories.List)
	admin.Get("/categories/:id", cfg.Categories.Get)
	admin.Post("/categories", cfg.Categories.Create)
	admin.Put("/categories/:id", cfg.Categories.Update)
}
