package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/wedding-seating/internal/handler"    // planner handlers
	"github.com/iliyamo/wedding-seating/internal/middleware" // JWT + role middlewares
	"github.com/iliyamo/wedding-seating/internal/utils"      // role names
)

// RegisterPlanner registers session-scoped endpoints under /v1/planner.
// Every route requires a session token; the chart is the token's sid.
// Viewers may read, only planners may change anything.  cache wraps the
// read-only render route.
func RegisterPlanner(e *echo.Echo, p *handler.PlannerHandler, jwtSecret string, limit, cache echo.MiddlewareFunc) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1/planner",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RolePlanner, utils.RoleViewer),
		limit,
	)
	edit := middleware.RequireRole(utils.RolePlanner) // write routes

	// ---- Session ----
	g.GET("", p.GetState)
	g.PATCH("", p.UpdateChart, edit)
	g.DELETE("", p.EndSession, edit)
	g.POST("/share", p.ShareSession, edit)

	// ---- Wizard ----
	g.GET("/draft", p.GetDraft, edit)
	g.PUT("/draft", p.SaveDraft, edit)
	g.DELETE("/draft", p.DeleteDraft, edit)
	g.GET("/columns", p.GetColumns)
	g.PUT("/columns", p.SaveColumns, edit)

	// ---- Tables ----
	g.POST("/tables", p.AddTable, edit)
	g.PUT("/tables/positions", p.CommitPositions, edit) // bulk commit after a multi-table move
	g.PATCH("/tables/:id", p.UpdateTable, edit)
	g.DELETE("/tables/:id", p.DeleteTable, edit)
	g.PUT("/tables/:id/position", p.MoveTable, edit)
	g.PUT("/tables/:id/dimensions", p.ResizeTable, edit)
	g.PUT("/tables/:id/rotation", p.RotateTable, edit)
	g.GET("/tables/:id/seats", p.SeatPositions)

	// ---- Guests & groups ----
	g.GET("/guests", p.ListGuests)
	g.POST("/guests", p.AddGuests, edit)
	g.POST("/guests/import", p.ImportGuests, edit)
	g.PUT("/guests/:id", p.UpdateGuest, edit)
	g.DELETE("/guests/:id", p.DeleteGuest, edit)
	g.GET("/groups", p.ListGroups)
	g.POST("/groups", p.CreateGroup, edit)
	g.PUT("/groups/:id", p.UpdateGroup, edit)
	g.DELETE("/groups/:id", p.DeleteGroup, edit)

	// ---- Assignments ----
	g.PUT("/assignments", p.RestoreAssignments, edit)
	g.POST("/assignments/swap", p.SwapSeats, edit)
	g.POST("/assignments/repair", p.RepairSeats, edit)
	g.PUT("/assignments/:guestId", p.AssignSeat, edit)
	g.DELETE("/assignments/:guestId", p.UnassignSeat, edit)

	// ---- Canvas ----
	g.GET("/canvas", p.GetTransform)
	g.PUT("/canvas", p.SaveTransform, edit)
	g.POST("/canvas/pan", p.Pan, edit)
	g.POST("/canvas/zoom", p.Zoom, edit)
	g.POST("/canvas/wheel", p.Wheel, edit)
	g.POST("/canvas/reset", p.ResetView, edit)
	g.POST("/canvas/fit", p.FitView, edit)
	g.GET("/canvas/ws", p.CanvasStream, edit) // token arrives as ?token=
	g.GET("/render", p.Render, cache)

	// ---- Templates ----
	g.POST("/templates", p.SaveAsTemplate, edit)
	g.POST("/templates/:id/apply", p.ApplyTemplate, edit)
}

// RegisterTemplates registers the shared template library under
// /v1/templates.  Any session may browse it; planners may change it.
func RegisterTemplates(e *echo.Echo, p *handler.PlannerHandler, jwtSecret string, limit echo.MiddlewareFunc) {
	g := e.Group(
		"/v1/templates",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(utils.RolePlanner, utils.RoleViewer),
		limit,
	)
	edit := middleware.RequireRole(utils.RolePlanner)

	g.GET("", p.ListTemplates)
	g.POST("", p.CreateTemplate, edit)
	g.GET("/:id", p.GetTemplate)
	g.PUT("/:id", p.UpdateTemplate, edit)
	g.DELETE("/:id", p.DeleteTemplate, edit)
	g.POST("/:id/clone", p.CloneTemplate, edit)
}
