package main

import (
	"log"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/train-seat-reservation/internal/booking"
	"github.com/iliyamo/train-seat-reservation/internal/config"
	"github.com/iliyamo/train-seat-reservation/internal/database"
	"github.com/iliyamo/train-seat-reservation/internal/handler"
	"github.com/iliyamo/train-seat-reservation/internal/middleware"
	"github.com/iliyamo/train-seat-reservation/internal/queue"
	"github.com/iliyamo/train-seat-reservation/internal/repository"
	"github.com/iliyamo/train-seat-reservation/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories and the transactional booking engine.
	uow := repository.NewUnitOfWork(db)
	tickets := repository.NewTicketRepo(db)
	occupancies := repository.NewOccupancyRepo(db)
	routes := repository.NewRouteRepo(db)
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)

	coordinator := booking.NewCoordinator(
		uow, tickets, occupancies, routes,
		cfg.TotalSeats, cfg.HorizonDays, cfg.MaxBookRetries,
	)

	authH := handler.NewAuthHandler(cfg, users, tokens)
	ticketH := handler.NewTicketHandler(coordinator)
	routeH := handler.NewRouteHandler(routes, coordinator)
	adminH := handler.NewAdminTimetableHandler(routes, uow)

	e := echo.New()
	e.HideBanner = true

	// Redis backs the token-bucket rate limiter and the read cache.
	// Both degrade to no-ops when Redis is unreachable, so the booking
	// path never depends on it.
	rdb := config.NewRedisClient()
	var publicMW, writeMW []echo.MiddlewareFunc
	if rdb != nil {
		if rl := config.LoadRateLimitConfig(); rl.Enabled {
			writeMW = append(writeMW, middleware.NewTokenBucket(rl, rdb))
		}
		if cc := config.LoadCacheConfig(); cc.Enabled {
			publicMW = append(publicMW, middleware.NewRedisCache(cc, rdb))
		}
	}

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, routeH, publicMW...)
	router.RegisterTickets(e, ticketH, cfg.JWTSecret, writeMW...)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	// Background consumer writes ticket lifecycle events to
	// logs/ticket.log and survives broker restarts on its own.
	go func() {
		if err := queue.StartTicketConsumer(); err != nil {
			log.Printf("ticket-consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
