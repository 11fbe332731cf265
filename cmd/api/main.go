package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-manager/internal/api"
	"recipe-manager/internal/core/ingredient"
	"recipe-manager/internal/core/recipe"
	"recipe-manager/internal/core/storage"
	"recipe-manager/internal/core/storage/memory"
	"recipe-manager/internal/core/storage/postgres"
	"recipe-manager/internal/infrastructure/cache"
	"recipe-manager/internal/infrastructure/config"
	"recipe-manager/internal/pkg/common"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("starting application",
		zap.String("version", cfg.App.Version),
		zap.String("env", cfg.App.Env),
		zap.String("driver", cfg.Database.Driver),
		zap.Bool("debug", cfg.App.Debug),
	)

	ingredientRepo, recipeRepo, closeDB, err := openStorage(cfg)
	if err != nil {
		common.LogFatal("Failed to initialize storage", zap.Error(err))
	}
	defer closeDB()

	var cacheClient *cache.Cache
	if cfg.Cache.Enabled {
		cacheClient, err = cache.New(context.Background(),
			cfg.Cache.Addr, cfg.Cache.Password, cfg.Cache.DB, cfg.Cache.TTL)
		if err != nil {
			common.LogFatal("Failed to initialize cache", zap.Error(err))
		}
	}
	defer cacheClient.Close()

	ingredientSvc := ingredient.NewService(ingredientRepo, recipeRepo, cacheClient)
	recipeSvc := recipe.NewService(recipeRepo, ingredientRepo, cacheClient)

	router := api.SetupRouter(cfg, ingredientSvc, recipeSvc)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		common.LogInfo("server listening", zap.Int("port", cfg.Server.Port))

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server", zap.Error(err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
		os.Exit(1)
	}

	common.LogInfo("Server exited")
}

// openStorage builds the repository pair for the configured driver.
func openStorage(cfg *config.Config) (storage.IngredientRepository, storage.RecipeRepository, func(), error) {
	switch cfg.Database.Driver {
	case "memory":
		return memory.NewIngredientRepository(), memory.NewRecipeRepository(), func() {}, nil
	case "postgres":
		db, err := sqlx.Connect("postgres", cfg.Database.URL)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
		db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
		db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

		if err := runMigrations(db, cfg.Database.MigrationsPath); err != nil {
			db.Close()
			return nil, nil, nil, err
		}

		closeDB := func() {
			if err := db.Close(); err != nil {
				common.LogWarn("failed to close database", zap.Error(err))
			}
		}
		return postgres.NewIngredientRepository(db), postgres.NewRecipeRepository(db), closeDB, nil
	default:
		return nil, nil, nil, fmt.Errorf("unknown database driver %q", cfg.Database.Driver)
	}
}

// runMigrations brings the schema up to date.
func runMigrations(db *sqlx.DB, path string) error {
	driver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+path, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	common.LogInfo("database migrations applied")
	return nil
}
