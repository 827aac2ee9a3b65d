package router

import (
	"booktrack/internal/application"
	"booktrack/internal/container"
	pginfra "booktrack/internal/infrastructure/postgres"
	handlers "booktrack/internal/interface/http"
	"booktrack/internal/router/modules"
)

// InitModules constructs every feature module from the container singletons
// and registers it. Called once during startup.
func InitModules(r *Registry) {
	cfg := container.GetConfig()
	logger := container.GetLogger()
	pool := container.GetPGPool()

	users := pginfra.NewUserRepository(pool)
	entries := pginfra.NewLibraryRepository(pool)
	books := pginfra.NewBookRepository(pool)

	authSvc := application.NewAuthService(users, container.GetJWT(), logger)
	resetSvc := application.NewResetService(users, cfg.ResetTokenTTL, logger)
	librarySvc := application.NewLibraryService(users, entries, logger)
	catalogSvc := application.NewCatalogService(
		books,
		container.GetRedis(),
		container.GetES(),
		cfg.ESBooksIndex,
		container.GetGCS(),
		cfg.GCSBucket,
		logger,
	)

	authHandler := handlers.NewAuthHandler(authSvc, resetSvc, container.GetRabbitPub(), logger, cfg)
	libraryHandler := handlers.NewLibraryHandler(librarySvc, logger)
	catalogHandler := handlers.NewCatalogHandler(catalogSvc, logger)

	r.Add(modules.NewAuthModule(authHandler, libraryHandler, container.GetJWT()))
	r.Add(modules.NewCatalogModule(catalogHandler, container.GetJWT()))
	r.Add(modules.NewDebugModule())
}
