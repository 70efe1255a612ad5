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
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"matchday.app/internal/abuse"
	"matchday.app/internal/betting"
	"matchday.app/internal/cache"
	"matchday.app/internal/config"
	"matchday.app/internal/fixtures"
	"matchday.app/internal/httpapi"
	"matchday.app/internal/identity"
	"matchday.app/internal/kv"
	"matchday.app/internal/obs"
	"matchday.app/internal/session"
)

var version = "0.3.1"

func main() {
	// Инициализация observability (регистрация метрик, JSON-логгер и т.п.)
	obs.Init()
	obs.InitBuildInfo(version, os.Getenv("MATCHDAY_COMMIT"))

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := sql.Open("pgx", cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	store, err := kv.DialRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("dial redis: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURL))
	cancel()
	if err != nil {
		log.Fatalf("connect mongo: %v", err)
	}

	identities := identity.NewPGStore(db)

	// Справочник capability загружается один раз; изменения требуют рестарта.
	loadCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	directory, err := identity.LoadDirectory(loadCtx, identity.NewPGCapabilityStore(db))
	cancel()
	if err != nil {
		log.Fatalf("load capability directory: %v", err)
	}

	signer, err := session.NewSigner(cfg.SigningKey, cfg.SessionTTL, cfg.RefreshAfter)
	if err != nil {
		log.Fatalf("signer: %v", err)
	}
	sessions := session.NewService(identities, session.DirectorySource(directory),
		signer, session.NewRegistry(store))

	sharedCache := cache.New(store, cfg.CacheReadTTL, cfg.CacheWriteTTL,
		cache.WithCodec(cache.MsgpackCodec{}),
		cache.WithObserver(obs.CacheObserver{}))

	games := fixtures.NewGames(
		fixtures.NewMongoStore(mongoClient.Database(cfg.MongoDBName)), sharedCache)
	bets := betting.NewService(betting.NewPGStore(db), games, sharedCache, store)

	api := httpapi.New(cfg, httpapi.Deps{
		Sessions:   sessions,
		Identities: identities,
		Games:      games,
		FetchLog:   fixtures.NewFetchLog(store),
		Bets:       bets,
		Tracker:    abuse.NewTracker(store, cfg.BanThreshold),
		Signer:     signer,
		Ready:      httpapi.ReadyProbe{DB: db},
	}, version)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           api.Handler(), // уже обёрнут метриками в httpapi
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf("Starting matchday-api %s on %s", version, srv.Addr)

	// graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	<-stop
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_ = srv.Shutdown(shutdownCtx)
	_ = mongoClient.Disconnect(shutdownCtx)
	_ = store.Close()
	_ = db.Close()
	log.Println("Stopped")
}
