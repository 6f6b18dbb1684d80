package main

import (
	"context"
	"log"

	fbauth "firebase.google.com/go/v4/auth"
	"github.com/redis/go-redis/v9"

	"github.com/atlas-collective/portal-backend/config"
	"github.com/atlas-collective/portal-backend/internal/auth"
	"github.com/atlas-collective/portal-backend/internal/bootstrap"
	"github.com/atlas-collective/portal-backend/internal/db"
	"github.com/atlas-collective/portal-backend/internal/projects/repository"
	"github.com/atlas-collective/portal-backend/internal/promotion"
	"github.com/atlas-collective/portal-backend/internal/sweep"
	"github.com/atlas-collective/portal-backend/internal/workflow"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	database, err := db.Open(ctx, db.Options{
		DSN:      cfg.Database.DSN,
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	var fbClient *fbauth.Client
	if cfg.Auth.FirebaseCredentials != "" {
		fbClient, err = auth.InitializeFirebase(cfg.Auth.FirebaseCredentials)
		if err != nil {
			log.Fatalf("firebase: %v", err)
		}
	} else {
		log.Println("FIREBASE_CREDENTIALS not set, using dev header identity")
	}

	reconciler := sweep.NewReconciler(
		sweep.NewRepo(database.Pool),
		repository.NewProjectRepository(database.Pool, workflow.DefaultConfig()),
		promotion.NewRefRepository(database.Pool),
	)
	scheduler, err := sweep.NewScheduler(reconciler, cfg.App.SweepSchedule)
	if err != nil {
		log.Fatalf("sweep schedule: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// catch up on anything missed while the service was down
	go func() {
		if _, err := reconciler.Run(ctx); err != nil {
			log.Printf("[sweep] startup pass failed: %v", err)
		}
	}()

	r := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName:            "portal-backend",
		Version:                cfg.App.Version,
		DB:                     database.Pool,
		Redis:                  rdb,
		FirebaseAuth:           fbClient,
		Sweeper:                reconciler,
		AllowedOrigins:         cfg.Server.AllowedOrigins,
		AttentionSourceTimeout: cfg.App.AttentionSourceTimeout,
	})

	log.Printf("portal-backend %s listening on :%s", cfg.App.Version, cfg.Server.Port)
	if err := r.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("server: %v", err)
	}
}
