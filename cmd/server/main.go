package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/cleancity/waste-collection/internal/ai"
	"github.com/cleancity/waste-collection/internal/config"
	"github.com/cleancity/waste-collection/internal/database"
	"github.com/cleancity/waste-collection/internal/handler"
	"github.com/cleancity/waste-collection/internal/queue"
	"github.com/cleancity/waste-collection/internal/repository"
	"github.com/cleancity/waste-collection/internal/router"
	"github.com/cleancity/waste-collection/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg := config.Load()

	client, err := database.Open(cfg.MongoURI)
	if err != nil {
		log.Fatalf("mongodb connect: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Disconnect(ctx); err != nil {
			log.Printf("mongodb disconnect: %v", err)
		}
	}()

	db := client.Database(cfg.MongoDB)
	{
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		if err := database.EnsureIndexes(ctx, db); err != nil {
			log.Fatalf("ensure indexes: %v", err)
		}
		cancel()
	}

	// Repositories.
	users := repository.NewUserRepo(db)
	tasks := repository.NewTaskRepo(db)
	resets := repository.NewResetTokenRepo(db)
	tokens := repository.NewTokenRepo(db)
	notes := repository.NewNotificationRepo(db)

	// Task status events go out through RabbitMQ; the consumer turns them
	// into stored notifications. Both sides tolerate a broker that is down.
	publisher := queue.NewPublisher()
	go func() {
		if err := queue.StartNotificationConsumer(notes); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	// Services.
	lifecycle := service.NewLifecycle(tasks, users, publisher)
	query := service.NewQuery(tasks)
	stats := service.NewStats(tasks, users)
	creds := service.NewCredentials(users, resets, cfg.BcryptCost, cfg.BaseURL)

	// Redis is optional: when unreachable the cache and rate limiter
	// degrade to pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Printf("redis unavailable, caching and rate limiting disabled")
	}

	h := router.Handlers{
		Auth:          handler.NewAuthHandler(cfg, creds, users, tokens),
		Tasks:         handler.NewTaskHandler(lifecycle, query),
		Users:         handler.NewUserHandler(cfg, users, creds),
		Dashboard:     handler.NewDashboardHandler(stats),
		Notifications: handler.NewNotificationHandler(notes),
		AI:            handler.NewAIHandler(ai.New(cfg.GeminiAPIKey)),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	router.Register(e, h, cfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
