package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/trouvly/trouvly-backend/internal/config"
	"github.com/trouvly/trouvly-backend/internal/db"
	"github.com/trouvly/trouvly-backend/internal/matching"
	appmw "github.com/trouvly/trouvly-backend/internal/middleware"
	"github.com/trouvly/trouvly-backend/internal/notify"
	"github.com/trouvly/trouvly-backend/internal/pipeline"
	"github.com/trouvly/trouvly-backend/internal/realtime"
	"github.com/trouvly/trouvly-backend/internal/request"
	"github.com/trouvly/trouvly-backend/internal/seller"
	"github.com/trouvly/trouvly-backend/internal/taxonomy"
	"github.com/trouvly/trouvly-backend/internal/user"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	ctx := context.Background()
	database, err := db.Connect(ctx, cfg.DB.DSN())
	if err != nil {
		log.Fatalf("database init failed: %v", err)
	}
	defer database.Close()

	// Stores
	userStore := user.NewStore(database)
	sellerStore := seller.NewStore(database)
	requestStore := request.NewStore(database)

	// Single shared session channel instance, injected everywhere it is used.
	hub := realtime.NewHub()
	push := notify.NewPushClient(cfg.Push.Endpoint, cfg.Push.BatchSize)

	engine := matching.NewEngine(sellerStore)
	coordinator := notify.NewCoordinator(hub, push, sellerStore)
	runner := pipeline.NewRunner(requestStore, userStore, engine, coordinator)

	// PIPELINE_MODE=inline skips Redis and runs passes in-process.
	var enqueuer request.MatchEnqueuer
	if os.Getenv("PIPELINE_MODE") == "inline" {
		enqueuer = pipeline.NewInline(runner)
		log.Println("Pipeline running inline (no Redis)")
	} else {
		queue := pipeline.NewQueue(cfg.RedisAddr, runner)
		queue.Start()
		defer queue.Close()
		enqueuer = queue
		log.Printf("Pipeline queue initialized (addr=%s)", cfg.RedisAddr)
	}

	verifier := appmw.NewVerifier(cfg.JWTSecret)
	requestHandler := request.NewHandler(requestStore, sellerStore, enqueuer, coordinator)
	sellerHandler := seller.NewHandler(sellerStore)
	userHandler := user.NewHandler(userStore)
	wsHandler := realtime.NewWSHandler(hub, verifier)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Health
	e.GET("/health", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	e.GET("/ready", func(c echo.Context) error {
		if err := database.Pool.Ping(c.Request().Context()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})
	e.GET("/categories", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"categories": taxonomy.Categories})
	})

	// Session channel handshake (token travels as a query parameter)
	e.GET("/ws", wsHandler.Serve)

	// Authenticated group
	g := e.Group("")
	g.Use(verifier.JWT)

	// Requests
	g.POST("/requests", requestHandler.Create)
	g.GET("/requests/me", requestHandler.ListMine)
	g.GET("/requests/nearby", requestHandler.NearbyFeed, appmw.RequireRoles("seller"))
	g.GET("/requests/:id", requestHandler.Get)
	g.POST("/requests/:id/cancel", requestHandler.Cancel)
	g.POST("/requests/:id/complete", requestHandler.Complete)
	g.POST("/requests/:id/respond", requestHandler.Respond, appmw.RequireRoles("seller"))

	// Sellers
	g.POST("/sellers", sellerHandler.Register)
	g.GET("/sellers/me", sellerHandler.Me)
	g.PATCH("/sellers/availability", sellerHandler.SetAvailability, appmw.RequireRoles("seller"))
	g.PATCH("/sellers/push-token", sellerHandler.SetPushToken, appmw.RequireRoles("seller"))

	// Users
	g.PATCH("/users/push-token", userHandler.SetPushToken)

	log.Printf("API server listening on :%s", cfg.Port)
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
