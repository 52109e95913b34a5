// Package main library API.
//
// @title           Library API
// @version         1.0
// @description     Library management service (users, authors, books, rebooks).
// @BasePath        /
// @schemes         http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description  Use:  Bearer <JWT>
package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/robfig/cron/v3"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/Excellent-84/library-api/app/echoServer"
	authctrl "github.com/Excellent-84/library-api/app/echoServer/controller/auth"
	authorctrl "github.com/Excellent-84/library-api/app/echoServer/controller/author"
	bookctrl "github.com/Excellent-84/library-api/app/echoServer/controller/book"
	rebookctrl "github.com/Excellent-84/library-api/app/echoServer/controller/rebook"
	userctrl "github.com/Excellent-84/library-api/app/echoServer/controller/user"
	"github.com/Excellent-84/library-api/app/echoServer/validation"
	"github.com/Excellent-84/library-api/config"
	authorrepo "github.com/Excellent-84/library-api/repository/author"
	bookrepo "github.com/Excellent-84/library-api/repository/book"
	rebookrepo "github.com/Excellent-84/library-api/repository/rebook"
	userrepo "github.com/Excellent-84/library-api/repository/user"
	authsvc "github.com/Excellent-84/library-api/service/auth"
	authorsvc "github.com/Excellent-84/library-api/service/author"
	booksvc "github.com/Excellent-84/library-api/service/book"
	rebooksvc "github.com/Excellent-84/library-api/service/rebook"
	usersvc "github.com/Excellent-84/library-api/service/user"
	"github.com/Excellent-84/library-api/util/database"
)

func main() {

	cfg := config.Load()
	ctx := context.Background()

	// logger
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(log)

	// DB: *sql.DB
	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	// repos
	ur := userrepo.New(db)
	ar := authorrepo.New(db)
	br := bookrepo.New(db)
	rr := rebookrepo.New(db)

	// services
	as := authsvc.New(ur, cfg.JWTSecret, cfg.JWTTTLHours)
	us := usersvc.New(ur, rr)
	aus := authorsvc.New(ar)
	bs := booksvc.New(br, ar)
	rs := rebooksvc.New(db, rr, br, cfg.BorrowLimit, cfg.LoanPeriodDays)

	// controllers
	v := validator.New()
	authC := &authctrl.Controller{Svc: as, V: v, Log: log}
	userC := &userctrl.Controller{Svc: us, V: v, Log: log}
	authorC := &authorctrl.Controller{Svc: aus, V: v, Log: log}
	bookC := &bookctrl.Controller{Svc: bs, V: v, Log: log}
	rebookC := &rebookctrl.Controller{Svc: rs, V: v, Log: log}

	// overdue sweep: read-only reporter, never mutates loans
	reporter := rebooksvc.NewReporter(rr, log)
	cr := cron.New()
	if _, err := cr.AddFunc(cfg.OverdueCron, func() {
		_, _ = reporter.ReportOverdue(context.Background())
	}); err != nil {
		log.Error("invalid overdue sweep schedule", "cron", cfg.OverdueCron, "err", err)
		os.Exit(1)
	}
	cr.Start()
	defer cr.Stop()

	// echo
	e := echo.New()
	echoServer.RegisterMiddlewares(e)
	e.Validator = validation.New()

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(200, map[string]any{
			"status":  "ok",
			"message": "Service is healthy and connected",
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	echoServer.Register(e, echoServer.C{
		Auth:   authC,
		User:   userC,
		Author: authorC,
		Book:   bookC,
		Rebook: rebookC,

		JWTSecret: cfg.JWTSecret,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.Port
	}

	slog.Info("starting server", "port", port, "env", cfg.Env)

	e.Logger.Fatal(e.Start(":" + port))
}
