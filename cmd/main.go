package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"github.com/Vovarama1992/cdp-support-chat/internal/ai"
	"github.com/Vovarama1992/cdp-support-chat/internal/chat"
	"github.com/Vovarama1992/cdp-support-chat/internal/config"
	"github.com/Vovarama1992/cdp-support-chat/internal/transcript"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("no .env file loaded: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// --- Transcript store ---
	store, closeStore, err := newStore(ctx, cfg.Store)
	if err != nil {
		log.Fatalf("store error: %v", err)
	}
	defer closeStore()

	// --- Completion provider ---
	provider, err := newProvider(ctx, cfg.Completion)
	if err != nil {
		log.Fatalf("completion provider error: %v", err)
	}

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	// --- Chat module wiring ---
	mgr := chat.NewManager(provider, store, chat.Options{
		HistoryWindow: cfg.Chat.HistoryWindow,
	}, cfg.Chat.IdleTTL)
	chat.RegisterRoutes(r, chat.NewHandler(mgr))

	if cfg.Chat.IdleTTL > 0 {
		go mgr.RunJanitor(ctx, time.Minute)
	}

	// --- health ---
	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("pong"))
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening on %s (store=%s, provider=%s)", cfg.Server.Addr, cfg.Store.Driver, cfg.Completion.Provider)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}
	mgr.Wait()
}

func newStore(ctx context.Context, cfg config.StoreConfig) (transcript.Store, func(), error) {
	switch cfg.Driver {
	case config.StoreDriverPostgres:
		db, err := sqlx.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			return nil, nil, fmt.Errorf("db open: %w", err)
		}

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("db ping: %w", err)
		}

		store := transcript.NewPostgresStore(db)
		if err := store.Migrate(pingCtx); err != nil {
			db.Close()
			return nil, nil, err
		}
		return store, func() { db.Close() }, nil

	case config.StoreDriverRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		store, err := transcript.NewRedisStore(ctx, client, cfg.RedisTTL)
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return store, func() { client.Close() }, nil

	default:
		log.Println("[store] using in-memory transcripts; history is lost on restart")
		return transcript.NewMemoryStore(), func() {}, nil
	}
}

func newProvider(ctx context.Context, cfg config.CompletionConfig) (ai.Provider, error) {
	if cfg.Provider == config.ProviderArk {
		return ai.NewArkClient(ctx, ai.ArkConfig{
			APIKey:  cfg.ArkAPIKey,
			Model:   cfg.ArkModel,
			BaseURL: cfg.ArkBaseURL,
			Region:  cfg.ArkRegion,
		})
	}

	return ai.NewOpenAIClient(ai.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		Model:   cfg.OpenAIModel,
		BaseURL: cfg.OpenAIBaseURL,
		Timeout: cfg.Timeout,
	}), nil
}
