package main

import (
	"wayfarer/internal/accounts/token"
	"wayfarer/internal/health"
	"wayfarer/internal/hotels/handler"
	"wayfarer/internal/hotels/repository"
	"wayfarer/internal/hotels/service"
	"wayfarer/internal/hotels/validator"
	"wayfarer/internal/reconciliation"
	"wayfarer/pkg/app"
	"wayfarer/pkg/config"
	"wayfarer/pkg/provider"
)

const ServiceName = "hotels"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Hotels service")
	hotelService := initServices(cfg)
	issuer := token.NewIssuer(cfg.TokenSecret, cfg.TokenTTL)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewHotelHandler(hotelService, issuer, cfg.Log),
		health.NewHealthHandler(cfg.Client.Mongo, cfg.Log),
	)
	serverApp.Run()
}

func initServices(cfg *config.Config) service.HotelService {
	gateway := provider.New(provider.Config{
		BaseURL:      cfg.ProviderBaseURL,
		TokenPath:    cfg.ProviderTokenURL,
		ClientID:     cfg.ProviderClientID,
		ClientSecret: cfg.ProviderClientSecret,
		Timeout:      cfg.ProviderTimeout,
	}, cfg.Log)

	hotelValidator := validator.NewHotelValidator(cfg.Log)
	hotelRepo := repository.NewMongoHotelBookingRepository(cfg)
	reconRepo := reconciliation.NewMongoRepository(cfg)
	hotelService := service.NewHotelService(
		hotelRepo,
		reconRepo,
		gateway,
		hotelValidator,
		cfg,
	)

	cfg.Log.Info("Hotel service initialized", "database", cfg.MongoDatabaseName, "provider", cfg.ProviderBaseURL)
	return hotelService
}
