package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/vedran77/ripple/internal/auth"
	"github.com/vedran77/ripple/internal/cache"
	"github.com/vedran77/ripple/internal/config"
	"github.com/vedran77/ripple/internal/database"
	postgresrepo "github.com/vedran77/ripple/internal/repository/postgres"
	"github.com/vedran77/ripple/internal/service"
	"github.com/vedran77/ripple/internal/transport/http/handlers"
	"github.com/vedran77/ripple/internal/transport/http/middleware"
	"github.com/vedran77/ripple/internal/transport/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := newLogger(cfg.Dev)
	defer log.Sync()

	ctx := context.Background()

	// Database
	pool, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatal("connecting to database", zap.Error(err))
	}
	defer pool.Close()
	log.Info("connected to database")

	// Optional presence mirror
	var presenceCache *cache.PresenceCache
	if cfg.RedisURL != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
		if err := client.Ping(ctx).Err(); err != nil {
			log.Warn("redis unavailable, presence mirror disabled", zap.Error(err))
		} else {
			presenceCache = cache.NewPresenceCache(client, "ripple")
			log.Info("connected to redis")
		}
	}

	// Repositories
	userRepo := postgresrepo.NewUserRepo(pool)
	convRepo := postgresrepo.NewConversationRepo(pool)
	messageRepo := postgresrepo.NewMessageRepo(pool)

	// Connection registry + hub
	registry := ws.NewRegistry()
	hub := ws.NewHub(registry, log)

	// Services
	messageService := service.NewMessageService(messageRepo, convRepo, userRepo, registry, log)
	presenceService := service.NewPresenceService(userRepo, presenceCache, log)
	conversationService := service.NewConversationService(convRepo, userRepo, log)

	// Real-time notifier
	notifier := ws.NewHubNotifier(hub, log)
	messageService.SetNotifier(notifier)
	presenceService.SetNotifier(notifier)

	// Session verifier
	verifier := auth.NewJWTVerifier(cfg.JWTSecret)

	// Handlers
	messageHandler := handlers.NewMessageHandler(messageService, log)
	conversationHandler := handlers.NewConversationHandler(conversationService, log)
	settingsHandler := handlers.NewSettingsHandler(presenceService, log)

	authMW := middleware.Auth(verifier)

	// Routes
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status": "ok"}`))
	})

	mux.HandleFunc("GET /ws", ws.ServeWS(ws.Deps{
		Hub:           hub,
		Verifier:      verifier,
		Messages:      messageService,
		Presence:      presenceService,
		Conversations: conversationService,
		Log:           log,
	}))

	mux.Handle("POST /api/v1/conversations", authMW(http.HandlerFunc(conversationHandler.GetOrCreate)))
	mux.Handle("GET /api/v1/conversations", authMW(http.HandlerFunc(conversationHandler.List)))
	mux.Handle("GET /api/v1/conversations/{id}/messages", authMW(http.HandlerFunc(messageHandler.History)))

	mux.Handle("POST /api/v1/messages", authMW(http.HandlerFunc(messageHandler.Send)))
	mux.Handle("DELETE /api/v1/messages/{id}", authMW(http.HandlerFunc(messageHandler.Delete)))

	mux.Handle("GET /api/v1/settings", authMW(http.HandlerFunc(settingsHandler.Get)))
	mux.Handle("PUT /api/v1/settings", authMW(http.HandlerFunc(settingsHandler.Update)))

	addr := fmt.Sprintf(":%s", cfg.ServerPort)
	log.Info("starting server", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, middleware.CORS(mux)); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func newLogger(dev bool) *zap.Logger {
	var log *zap.Logger
	var err error
	if dev {
		log, err = zap.NewDevelopment()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		panic(err)
	}
	return log
}
