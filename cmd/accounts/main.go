package main

import (
	"wayfarer/internal/accounts/handler"
	"wayfarer/internal/accounts/repository"
	"wayfarer/internal/accounts/service"
	"wayfarer/internal/accounts/token"
	"wayfarer/internal/accounts/validator"
	"wayfarer/internal/health"
	"wayfarer/pkg/app"
	"wayfarer/pkg/clock"
	"wayfarer/pkg/config"
)

const ServiceName = "accounts"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()

	cfg.Log.Info("Starting Accounts service")
	userService := initServices(cfg)
	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		handler.NewUserHandler(userService, cfg.Log),
		health.NewHealthHandler(cfg.Client.Mongo, cfg.Log),
	)
	serverApp.Run()
}

func initServices(cfg *config.Config) service.UserService {
	userValidator := validator.NewUserValidator(cfg.Log)
	userRepo := repository.NewMongoUserRepository(cfg)
	issuer := token.NewIssuer(cfg.TokenSecret, cfg.TokenTTL)
	userService := service.NewUserService(
		userRepo,
		userValidator,
		service.NewBcryptHasher(),
		issuer,
		clock.NewSystem(),
		cfg,
	)

	cfg.Log.Info("User service initialized", "database", cfg.MongoDatabaseName)
	return userService
}
