package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"melodex/cache"
	"melodex/config"
	"melodex/core/auth"
	"melodex/core/catalog"
	"melodex/db"
	"melodex/logger"
	"melodex/model"
	"melodex/repository"

	"github.com/gorilla/mux"
)

// Start initializes all components and runs the HTTP server until SIGINT
// or SIGTERM.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    cfg.LogMaxMB,
		MaxBackups: 3,
		MaxAge:     cfg.LogMaxAge,
		Compress:   true,
	})

	auth.SetSecret(cfg.JWTSecret)

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.CloseDB()

	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database with GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.AutoMigrateModels(&model.User{}); err != nil {
		logger.Fatal("Failed to migrate user model", logger.ErrorField(err))
	}

	trackRepo := repository.NewSQLiteTrackRepository()
	userRepo := repository.NewGormUserRepository()
	trackCache := cache.NewTrackCache()

	engine := catalog.NewEngine(trackRepo, trackCache, cfg)
	if err := engine.Initialize(); err != nil {
		logger.Fatal("Failed to initialize catalog", logger.ErrorField(err))
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	watcherDone := make(chan struct{})
	watcherStop := make(chan struct{})
	if cfg.WatchMusicDir {
		go func() {
			defer close(watcherDone)
			if err := engine.WatchMusicDir(watcherStop); err != nil {
				logger.Error("Music directory watcher stopped", logger.ErrorField(err))
			}
		}()
	} else {
		close(watcherDone)
	}

	apiHandler := NewAPIHandler(engine, userRepo, cfg)
	rateLimiter := NewRateLimiter(cfg.RateLimit, time.Duration(cfg.RateWindowSeconds)*time.Second)

	router := mux.NewRouter()
	router.Use(corsMiddleware)
	router.Use(rateLimiter.Middleware)

	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)

	router.HandleFunc("/api/tracks", apiHandler.GetTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}", apiHandler.GetTrackHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/{id}", apiHandler.AuthMiddleware(apiHandler.DeleteTrackHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/tracks/{id}/stream", apiHandler.StreamTrackHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/search", apiHandler.SearchTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/upload", apiHandler.AuthMiddleware(apiHandler.UploadTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/scan", apiHandler.AuthMiddleware(apiHandler.ScanDirectoryHandler)).Methods(http.MethodPost)

	// Cover art is plain static content.
	coverFileServer := http.FileServer(http.Dir(cfg.CoverDir))
	router.PathPrefix("/covers/").Handler(http.StripPrefix("/covers/", coverFileServer))

	server := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server")
	close(watcherStop)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}
	<-watcherDone

	logger.Info("Server stopped")
}

// corsMiddleware sets permissive CORS headers and answers preflight
// requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
