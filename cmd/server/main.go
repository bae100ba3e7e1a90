package main

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/library-seat-reservation/internal/config"
	"github.com/iliyamo/library-seat-reservation/internal/database"
	"github.com/iliyamo/library-seat-reservation/internal/handler"
	"github.com/iliyamo/library-seat-reservation/internal/queue"
	"github.com/iliyamo/library-seat-reservation/internal/repository"
	"github.com/iliyamo/library-seat-reservation/internal/router"
	"github.com/iliyamo/library-seat-reservation/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.Migrate(ctx, db); err != nil {
		cancel()
		log.Fatalf("migrate: %v", err)
	}
	cancel()

	// Redis is optional: a nil client disables rate limiting and caching.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; rate limiting and response cache disabled")
	}

	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	students := repository.NewStudentRepo(db)
	seats := repository.NewSeatRepo(db)
	reservations := repository.NewReservationRepo(db)
	otps := repository.NewOTPRepo(db)
	settings := repository.NewSettingsRepo(db)
	payments := repository.NewPaymentRepo(db)

	clock := service.SystemClock{}
	policy := service.NewPolicyService(settings)
	ledger := service.NewLedgerService(students, clock)
	reservationSvc := service.NewReservationService(db, reservations, seats, students, users, otps,
		policy, ledger, queue.PublishNotification, clock)
	seatSvc := service.NewSeatService(seats, policy, clock)
	paymentSvc := service.NewPaymentService(db, payments, students)

	sweeper := service.NewSweeper(reservationSvc, time.Duration(cfg.SweepIntervalMin)*time.Minute)
	go sweeper.Run(context.Background())

	go func() {
		if err := queue.StartNotificationConsumer(); err != nil {
			log.Printf("notification consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.Register(e, router.Handlers{
		Auth:        handler.NewAuthHandler(cfg, db, users, students, tokens),
		Reservation: handler.NewReservationHandler(reservationSvc),
		Seat:        handler.NewSeatHandler(seatSvc),
		Admin:       handler.NewAdminHandler(policy, reservationSvc, seatSvc, ledger),
		Payment:     handler.NewPaymentHandler(paymentSvc),
	}, cfg, rdb)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
