package main

import (
	"context"
	"database/sql"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	auth "github.com/cra-saint-louis/go-auth"
)

func main() {
	_ = godotenv.Load()

	cfg, err := auth.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.DatabaseDSN)))
	db := bun.NewDB(sqldb, pgdialect.New())
	defer db.Close()

	ctx := context.Background()

	if err := runMigrations(ctx, db); err != nil {
		log.Fatalf("migrations: %v", err)
	}

	repo := auth.NewRepositoryManager(db)
	repo.MustValidate()

	authenticator := auth.NewAuthenticator(repo, cfg).
		WithAuditRecorder(auth.NewAuditTrail(repo.AuditLogs()))

	controller := auth.NewAuthController(
		auth.WithAuthenticator(authenticator),
		auth.WithControllerDebug(!cfg.IsProduction()),
	)

	app := fiber.New(fiber.Config{
		AppName: "cra-auth",
	})

	auth.RegisterAuthRoutes(app, controller)

	go func() {
		if err := app.Listen(cfg.HTTPAddr); err != nil {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	if err := app.Shutdown(); err != nil {
		log.Printf("shutdown: %v", err)
	}
}

func runMigrations(ctx context.Context, db *bun.DB) error {
	fsys, err := fs.Sub(auth.GetMigrationsFS(), "data/sql/migrations")
	if err != nil {
		return err
	}

	migrations := migrate.NewMigrations()
	if err := migrations.Discover(fsys); err != nil {
		return err
	}

	migrator := migrate.NewMigrator(db, migrations)
	if err := migrator.Init(ctx); err != nil {
		return err
	}

	group, err := migrator.Migrate(ctx)
	if err != nil {
		return err
	}

	if group.IsZero() {
		log.Println("migrations: nothing to run")
	} else {
		log.Printf("migrations: applied group %s", group)
	}

	return nil
}
