package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"docflow/internal/auth"
	"docflow/internal/http/middleware"
	"docflow/internal/model"
)

// RegisterRoutes attaches HTTP routes to the provided Fiber app.
// Everything except the probes and /metrics requires a bearer token.
func RegisterRoutes(app *fiber.App, h *Handler, verifier auth.Verifier, gatherer prometheus.Gatherer) {
	app.Get("/health", h.HealthCheck)
	app.Get("/healthz", h.LivenessProbe)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := app.Group("", middleware.Auth(verifier))
	reviewers := middleware.RequireRole(model.RoleApprover, model.RoleAdmin)

	api.Post("/sessions", h.CreateSession)
	api.Get("/profiles/me", h.MyProfile)
	api.Get("/profiles", reviewers, h.ListProfiles)

	docs := api.Group("/documents")
	docs.Get("/", h.ListDocuments)
	docs.Post("/", h.CreateDocument)
	docs.Get("/:id", h.GetDocument)
	docs.Patch("/:id", h.UpdateDocument)
	docs.Post("/:id/submit", h.SubmitDocument)
	docs.Post("/:id/approve", h.ApproveDocument)
	docs.Post("/:id/reject", h.RejectDocument)
	docs.Post("/:id/revisions", h.ReviseDocument)
	docs.Get("/:id/versions", h.ListVersions)
	docs.Get("/:id/download", h.DownloadDocument)
	docs.Get("/:id/content", h.DocumentContent)
	docs.Get("/:id/audit", h.DocumentAudit)
	docs.Get("/:id/comments", h.ListComments)
	docs.Post("/:id/comments", h.AddComment)

	api.Get("/audit", reviewers, h.ListAudit)

	reports := api.Group("/reports")
	reports.Get("/summary", h.StatusSummary)
	reports.Get("/users", h.UserReport)
	reports.Get("/dashboard", h.Dashboard)
	reports.Get("/export.xlsx", h.ExportReport)
}
