package echoServer

import (
	authctrl "github.com/Excellent-84/library-api/app/echoServer/controller/auth"
	authorctrl "github.com/Excellent-84/library-api/app/echoServer/controller/author"
	bookctrl "github.com/Excellent-84/library-api/app/echoServer/controller/book"
	rebookctrl "github.com/Excellent-84/library-api/app/echoServer/controller/rebook"
	userctrl "github.com/Excellent-84/library-api/app/echoServer/controller/user"

	"github.com/labstack/echo/v4"
)

type C struct {
	Auth   *authctrl.Controller
	User   *userctrl.Controller
	Author *authorctrl.Controller
	Book   *bookctrl.Controller
	Rebook *rebookctrl.Controller

	JWTSecret string
}

func Register(e *echo.Echo, c C) {
	// Public
	pub := e.Group("/v1")
	pub.POST("/users/register", c.Auth.Register)
	pub.POST("/users/login", c.Auth.Login)

	pub.GET("/authors", c.Author.List)
	pub.GET("/authors/:id", c.Author.Detail)
	pub.GET("/books", c.Book.List)
	pub.GET("/books/:id", c.Book.Detail)

	// Auth
	auth := e.Group("/v1")
	auth.Use(JWTAuth(c.JWTSecret))
	auth.Use(ClaimsToContext())

	admin := RequireRole("admin")

	// Users
	auth.GET("/users", c.User.List, admin)
	auth.GET("/users/me", c.User.Me)
	auth.PUT("/users/me", c.User.UpdateMe)
	auth.GET("/users/:id", c.User.Detail, admin)
	auth.PUT("/users/:id/role", c.User.UpdateRole, admin)

	// Authors (admin writes)
	auth.POST("/authors", c.Author.Create, admin)
	auth.PUT("/authors/:id", c.Author.Update, admin)
	auth.DELETE("/authors/:id", c.Author.Delete, admin)

	// Books (admin writes)
	auth.POST("/books", c.Book.Create, admin)
	auth.PUT("/books/:id", c.Book.Update, admin)
	auth.DELETE("/books/:id", c.Book.Delete, admin)

	// Rebooks
	auth.POST("/rebooks", c.Rebook.Borrow)
	auth.POST("/rebooks/return", c.Rebook.Return)
	auth.GET("/rebooks/:id", c.Rebook.Detail)
	auth.GET("/rebooks", c.Rebook.List, admin)
}
