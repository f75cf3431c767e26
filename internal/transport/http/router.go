package httpserver

import (
	"github.com/labstack/echo/v4"

	"postboard/internal/handlers"
	mwauth "postboard/internal/middleware/auth"
	"postboard/internal/models"
)

type Deps struct {
	Guard       *mwauth.Guard
	AuthHandler *handlers.AuthHandler
	UserHandler *handlers.UserHandler
	PostHandler *handlers.PostHandler
}

// Register wires all routes. Only register, login and the refresh endpoint
// (which runs its own guard) bypass the access guard.
func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	auth := e.Group("/auth")
	auth.POST("/register", d.AuthHandler.Register)
	auth.POST("/login", d.AuthHandler.Login)
	auth.GET("/refresh-token", d.AuthHandler.Refresh, d.Guard.RequireRefresh)
	auth.POST("/logout", d.AuthHandler.Logout, d.Guard.RequireAccess)

	users := e.Group("/users", d.Guard.RequireAccess)
	users.POST("", d.UserHandler.Create, mwauth.RequireRole(models.RoleAdmin))
	users.GET("", d.UserHandler.List)
	users.GET("/active-in-last-week", d.UserHandler.ActiveInLastWeek)
	users.GET("/:id", d.UserHandler.Get)
	users.PUT("/:id", d.UserHandler.Update)
	users.DELETE("/:id", d.UserHandler.Delete, mwauth.RequireRole(models.RoleAdmin))

	posts := e.Group("/posts", d.Guard.RequireAccess)
	posts.POST("", d.PostHandler.Create)
	posts.GET("", d.PostHandler.List)
	posts.GET("/latest", d.PostHandler.Latest)
	posts.GET("/mostPopular", d.PostHandler.MostPopular)
	posts.GET("/search", d.PostHandler.SearchPosts)
	posts.GET("/unpublished", d.PostHandler.Unpublished)
	posts.GET("/stats", d.PostHandler.Stats)
	posts.GET("/date/:date", d.PostHandler.ByDate)
	posts.GET("/:id", d.PostHandler.Get)
	posts.PUT("/:id", d.PostHandler.Update)
	posts.PATCH("/:id/publish", d.PostHandler.Publish)
	posts.POST("/:id/like", d.PostHandler.Like)
	posts.DELETE("/:id", d.PostHandler.Delete)
}
