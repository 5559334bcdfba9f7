package main

import (
	"context"

	bookinghandler "salonbliss/internal/bookings/handler"
	bookingrepo "salonbliss/internal/bookings/repository"
	bookingsvc "salonbliss/internal/bookings/service"
	"salonbliss/internal/bookings/validator"
	catalogrepo "salonbliss/internal/catalog/repository"
	"salonbliss/internal/health"
	"salonbliss/internal/notifications"
	"salonbliss/internal/payments/gateway"
	paymenthandler "salonbliss/internal/payments/handler"
	paymentsvc "salonbliss/internal/payments/service"
	reminderrepo "salonbliss/internal/reminders/repository"
	remindersvc "salonbliss/internal/reminders/service"
	"salonbliss/internal/reminders/worker"
	"salonbliss/pkg/app"
	"salonbliss/pkg/config"
	"salonbliss/pkg/middleware"
)

const ServiceName = "salonbliss-api"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Salon Bliss API")

	auth := middleware.NewAuthenticator(cfg.JWTSecret, cfg.Log)
	mailer := notifications.NewMailer(cfg)
	events, err := notifications.NewEventPublisher(cfg)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize event publisher", "error", err)
	}

	serviceRepo := catalogrepo.NewMongoServiceRepository(cfg)
	bookingRepo := bookingrepo.NewMongoBookingRepository(cfg)
	lockRepo := bookingrepo.NewSlotLockRepository(cfg)
	reminderRepo := reminderrepo.NewMongoReminderRepository(cfg)

	bookingValidator := validator.NewBookingValidator(cfg.Log)
	scheduler := remindersvc.NewScheduler(reminderRepo, cfg)

	bookingService := bookingsvc.NewBookingService(
		bookingRepo,
		lockRepo,
		serviceRepo,
		bookingValidator,
		mailer,
		events,
		cfg,
	)

	paymentGateway := gateway.NewStripeGateway(cfg)
	paymentService := paymentsvc.NewPaymentService(
		bookingRepo,
		serviceRepo,
		paymentGateway,
		mailer,
		scheduler,
		events,
		cfg,
	)

	workerCtx, stopWorker := context.WithCancel(context.Background())
	reminderWorker := worker.New(reminderRepo, mailer, cfg)
	go reminderWorker.Start(workerCtx)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		health.NewHandler(cfg.Client.Mongo.Client, cfg.Log),
		bookinghandler.NewBookingHandler(bookingService, auth, cfg.Log),
		paymenthandler.NewPaymentHandler(paymentService, auth, cfg.Log),
	)
	serverApp.OnShutdown(func() {
		stopWorker()
		events.Close()
	})
	serverApp.Run()
}
