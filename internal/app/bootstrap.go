package app

import (
	"fmt"
	"strings"

	"ai-job-bot/internal/delivery/http/handler"
	"ai-job-bot/internal/delivery/http/middleware"
	"ai-job-bot/internal/delivery/http/routes"
	"ai-job-bot/internal/pkg/jwt"
	"ai-job-bot/internal/usecase"
	"ai-job-bot/internal/ws"

	"github.com/gofiber/fiber/v3"
)

type App struct {
	Fiber     *fiber.App
	Container *Container
}

// Bootstrap builds the container, the fiber app and the route tree, and
// starts the websocket hub. The returned cleanup closes connections.
func Bootstrap(c *Container) (*App, func() error, error) {
	f := fiber.New(fiber.Config{AppName: c.Config.App.AppName})

	f.Use(middleware.NewErrorMiddleware().Middleware())
	f.Use(middleware.NewAccessLogMiddleware(c.Logger).Middleware())

	jwtSvc := jwt.NewHMACService(
		c.Config.JWT.AccessSecret,
		c.Config.JWT.RefreshSecret,
		c.Config.JWT.AccessExpiresIn,
		c.Config.JWT.RefreshExpiresIn,
	)

	registry := &routes.Registry{
		Health:       handler.NewHealthHandler(c.DB, c.Cache),
		Auth:         handler.NewAuthHandler(usecase.NewAuthUsecase(c.Config.Admin, jwtSvc)),
		Runs:         handler.NewRunHandler(usecase.NewRunUsecase(c.Orchestrator, c.Runs)),
		Postings:     handler.NewPostingHandler(usecase.NewPostingUsecase(c.Postings)),
		Applications: handler.NewApplicationHandler(usecase.NewApplicationUsecase(c.Applications)),
		Stats:        handler.NewStatsHandler(usecase.NewStatsUsecase(c.Stats)),
		AuthMw:       middleware.NewAuthMiddleware(jwtSvc),
	}
	registry.Register(f)

	wsHandler := ws.NewHandler(c.Hub, c.Logger)
	f.Get("/ws/runs", wsHandler.HandleRunsWS)

	go c.Hub.Run()

	return &App{Fiber: f, Container: c}, c.Close, nil
}

func ListenAddr(port string) (string, error) {
	p := strings.TrimSpace(port)
	if p == "" {
		return "", fmt.Errorf("empty HTTP port")
	}
	if strings.HasPrefix(p, ":") {
		return p, nil
	}
	return ":" + p, nil
}
