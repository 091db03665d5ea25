package main

import (
	"wayfarer/internal/accounts/token"
	"wayfarer/internal/flights/handler"
	"wayfarer/internal/flights/repository"
	"wayfarer/internal/flights/service"
	"wayfarer/internal/flights/validator"
	"wayfarer/internal/health"
	"wayfarer/internal/reconciliation"
	"wayfarer/pkg/app"
	"wayfarer/pkg/clock"
	"wayfarer/pkg/config"
	"wayfarer/pkg/provider"
)

const ServiceName = "flights"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Flights service")
	bookingService := initServices(cfg)
	issuer := token.NewIssuer(cfg.TokenSecret, cfg.TokenTTL)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewBookingHandler(bookingService, issuer, cfg.Log),
		health.NewHealthHandler(cfg.Client.Mongo, cfg.Log),
	)
	serverApp.Run()
}

func initServices(cfg *config.Config) service.BookingService {
	gateway := provider.New(provider.Config{
		BaseURL:      cfg.ProviderBaseURL,
		TokenPath:    cfg.ProviderTokenURL,
		ClientID:     cfg.ProviderClientID,
		ClientSecret: cfg.ProviderClientSecret,
		Timeout:      cfg.ProviderTimeout,
	}, cfg.Log)

	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	reconRepo := reconciliation.NewMongoRepository(cfg)
	bookingService := service.NewBookingService(
		bookingRepo,
		reconRepo,
		gateway,
		bookingValidator,
		clock.NewSystem(),
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName, "provider", cfg.ProviderBaseURL)
	return bookingService
}
