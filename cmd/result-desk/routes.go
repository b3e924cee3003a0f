package main

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-result-desk/internal/handler"
	"github.com/noah-isme/sma-result-desk/internal/middleware"
	"github.com/noah-isme/sma-result-desk/pkg/config"
)

type routeDeps struct {
	sessions      middleware.SessionUser
	session       *handler.SessionHandler
	courses       *handler.CourseHandler
	results       *handler.ResultHandler
	caConfig      *handler.CAConfigHandler
	badges        *handler.BadgeHandler
	submitted     *handler.SubmittedResultHandler
	notifications *handler.NotificationHandler
	observability *handler.MetricsHandler
}

func registerRoutes(r *gin.Engine, cfg *config.Config, d routeDeps) {
	r.GET("/health", d.observability.Health)
	if cfg.Metrics.Enabled {
		r.GET("/metrics", d.observability.Prometheus)
	}

	api := r.Group(cfg.APIPrefix)
	api.POST("/session", d.session.SignIn)

	authed := api.Group("")
	authed.Use(middleware.RequireSession(d.sessions), middleware.RequireRoles())
	authed.GET("/session", d.session.Me)
	authed.DELETE("/session", d.session.SignOut)

	authed.GET("/courses", d.courses.List)
	authed.POST("/courses/:id/workspace", d.results.Open)
	authed.GET("/courses/:id/workspace", d.results.View)
	authed.DELETE("/courses/:id/workspace", d.results.Close)
	authed.PATCH("/courses/:id/workspace/scores/:student", d.results.UpdateScore)
	authed.GET("/courses/:id/workspace/export", d.results.Export)
	authed.POST("/courses/:id/result", d.results.Create)
	authed.POST("/courses/:id/result/draft", d.results.SaveDraft)
	authed.POST("/courses/:id/result/actions/:action", d.results.Apply)
	authed.POST("/courses/:id/result/reconcile", d.results.Reconcile)

	authed.GET("/badges", d.badges.List)
	authed.DELETE("/badges", d.badges.ClearAll)
	authed.DELETE("/badges/:id", d.badges.Clear)

	authed.GET("/notifications", d.notifications.List)
	authed.DELETE("/notifications/:id", d.notifications.Dismiss)

	caConfig := authed.Group("/ca-config")
	caConfig.GET("", d.caConfig.Get)
	caConfig.PUT("/slots/:slot", d.caConfig.SetSlot)
	caConfig.POST("/save", d.caConfig.Save)
	caConfig.POST("/reset", d.caConfig.Reset)
	caConfig.POST("/leave", d.caConfig.Leave)

	reviews := authed.Group("/submitted-results")
	reviews.GET("", d.submitted.List)
	reviews.GET("/:id", d.submitted.Get)
	reviews.POST("/:id/review", middleware.RequireRoles(middleware.RoleDRO, middleware.RoleFRO), d.submitted.Review)
	reviews.POST("/:id/correction", middleware.RequireRoles(middleware.RoleCO), d.submitted.SetCorrection)
	// A DRO edits and resubmits in place of an inactive lecturer; the
	// lifecycle table makes the per-result decision.
	correctionAuthors := middleware.RequireRoles(middleware.RoleLecturer, middleware.RoleDRO)
	reviews.PATCH("/:id/scores", correctionAuthors, d.submitted.SaveCorrections)
	reviews.POST("/:id/resubmit", correctionAuthors, d.submitted.Resubmit)
}
