package main

import (
	"wayfarer/internal/accounts/token"
	"wayfarer/internal/health"
	"wayfarer/internal/trips/handler"
	"wayfarer/internal/trips/repository"
	"wayfarer/internal/trips/service"
	"wayfarer/internal/trips/validator"
	"wayfarer/pkg/app"
	"wayfarer/pkg/config"
)

const ServiceName = "trips"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Trips service")
	tripService := initServices(cfg)
	issuer := token.NewIssuer(cfg.TokenSecret, cfg.TokenTTL)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewTripHandler(tripService, issuer, cfg.Log),
		health.NewHealthHandler(cfg.Client.Mongo, cfg.Log),
	)
	serverApp.Run()
}

func initServices(cfg *config.Config) service.TripService {
	tripValidator := validator.NewTripValidator(cfg.Log)
	tripRepo := repository.NewMongoTripRepository(cfg)
	tripService := service.NewTripService(tripRepo, tripValidator, cfg)

	cfg.Log.Info("Trip service initialized", "database", cfg.MongoDatabaseName)
	return tripService
}
