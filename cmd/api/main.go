package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"leafmarket.io/internal/audit"
	"leafmarket.io/internal/auth"
	"leafmarket.io/internal/config"
	"leafmarket.io/internal/httpapi"
	"leafmarket.io/internal/obs"
	"leafmarket.io/internal/secrets"
	"leafmarket.io/internal/session"
)

var (
	version = "0.4.1"
	commit  = "dev"
)

func main() {
	cfg := config.Load()

	obs.Init()
	obs.InitBuildInfo(version, commit)

	var db *sql.DB
	if cfg.DatabaseDSN != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseDSN)
		if err != nil {
			log.Fatalf("open db: %v", err)
		}
		db.SetMaxOpenConns(10)
		db.SetMaxIdleConns(10)
		db.SetConnMaxLifetime(30 * time.Minute)
	}

	var users auth.UserStore
	if db != nil {
		users = auth.NewPGUserStore(db)
	} else {
		log.Printf("no database configured, using in-memory user store")
		users = auth.NewMemoryUserStore()
	}
	svc := auth.NewService(users)

	// Secret material: environment wins; a database-backed provider is the
	// rotatable production path.
	var provider secrets.Provider
	switch {
	case cfg.SessionSecret != "":
		provider = secrets.NewStatic(cfg.SessionSecret, cfg.SessionSecretPrevious)
	case db != nil:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		pg, err := secrets.NewPGProvider(ctx, db)
		cancel()
		if err != nil {
			log.Fatalf("load signing secrets: %v", err)
		}
		provider = pg
	default:
		log.Fatalf("no session secret configured: set LEAF_SESSION_SECRET or LEAF_PG_DSN")
	}

	issuer := session.NewIssuer(provider, session.WithTTL(cfg.SessionTTL))

	var rotations audit.Store
	if db != nil {
		rotations = audit.NewPGStore(db)
	}

	api := httpapi.New(httpapi.ReadyProbe{DB: db}, version, users, svc, issuer, rotations)
	api.SetCookieSecure(cfg.CookieSecure)
	api.SetRateLimit(cfg.RateBurst, cfg.RatePerSecond)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.Handler(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting leafmarket-api %s on %s", version, srv.Addr)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(ctx)
	if db != nil {
		_ = db.Close()
	}
	log.Println("Stopped")
}
