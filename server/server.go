package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"SelahFM/cache"
	"SelahFM/config"
	"SelahFM/core/auth"
	"SelahFM/core/engagement"
	"SelahFM/core/playback"
	"SelahFM/db"
	"SelahFM/ingest"
	"SelahFM/logger"
	"SelahFM/model"
	"SelahFM/repository"
	"SelahFM/storage"

	"github.com/gorilla/mux"
)

// Start initializes dependencies and runs the HTTP server until it
// receives an interrupt.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogPath,
		MaxSize:    100,
		MaxBackups: 3,
		MaxAge:     28,
		Compress:   true,
	})

	auth.SetSecret(cfg.JWTSecret)

	if err := storage.InitMinio(cfg); err != nil {
		logger.Fatal("failed to initialize MinIO", logger.ErrorField(err))
	}

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.ConnectGormDB(cfg); err != nil {
		logger.Fatal("failed to connect GORM", logger.ErrorField(err))
	}
	defer db.CloseGormDB()

	if err := db.ConnectRedis(cfg); err != nil {
		// Redis only backs caches; run degraded rather than refuse to start.
		logger.Warn("Redis unavailable, caching disabled", logger.ErrorField(err))
	} else {
		defer db.CloseRedis()
	}

	if err := db.InitDB(); err != nil {
		logger.Fatal("failed to initialize database schema", logger.ErrorField(err))
	}
	if err := db.AutoMigrateModels(
		&model.ProgressRecord{},
		&model.JournalEntry{},
		&model.PrayerRequest{},
		&model.PrayerEvent{},
		&model.Streak{},
	); err != nil {
		logger.Fatal("failed to migrate models", logger.ErrorField(err))
	}

	// Repositories.
	userRepo := repository.NewMySQLUserRepository(db.DB)
	audioRepo := repository.NewMySQLAudioRepository(db.DB)
	dailyRepo := repository.NewMySQLDailyRepository(db.DB)
	journalRepo := repository.NewGormJournalRepository(db.GormDB)
	prayerRepo := repository.NewGormPrayerRepository(db.GormDB)
	progressRepo := repository.NewGormProgressRepository(db.GormDB)
	streakRepo := repository.NewGormStreakRepository(db.GormDB)
	audioFavRepo := repository.NewAudioFavoriteRepository(db.DB)
	dailyFavRepo := repository.NewDailyFavoriteRepository(db.DB)

	// Engagement protocols.
	prayProtocol := engagement.NewPrayProtocol(prayerRepo)
	streakTracker := engagement.NewStreakTracker(streakRepo)

	// Playback: wall-clock engine probing the bucket, progress persisted
	// through the Redis read-through store.
	engine := playback.NewClockEngine(storage.NewMediaProber(), time.Second)
	progressStore := cache.NewCachedProgressStore(progressRepo)
	playbackManager := playback.NewManager(engine, progressStore)

	apiHandler := NewAPIHandler(
		cfg,
		userRepo, audioRepo, dailyRepo, journalRepo, prayerRepo, progressRepo,
		audioFavRepo, dailyFavRepo,
		prayProtocol, streakTracker,
		playbackManager,
	)

	router := mux.NewRouter()
	router.Use(corsMiddleware)
	registerRoutes(router, apiHandler)

	httpServer := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Ingest watcher for dropped audio files.
	ingestCtx, cancelIngest := context.WithCancel(context.Background())
	defer cancelIngest()
	watcher := ingest.NewWatcher(cfg.IngestDir, audioRepo)
	go func() {
		if err := watcher.Run(ingestCtx); err != nil {
			logger.Error("ingest watcher stopped", logger.ErrorField(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("server starting", logger.String("addr", cfg.ServerAddr))
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("shutting down server")

	// Flush every live playback position before the listener dies.
	playbackManager.StopAll()
	cancelIngest()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.Fatal("server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("server stopped")
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS, HEAD")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Range, X-Client-ID")
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func registerRoutes(router *mux.Router, h *APIHandler) {
	// Auth.
	router.HandleFunc("/api/auth/login", h.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/register", h.RegisterHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/me", h.AuthMiddleware(h.MeHandler)).Methods(http.MethodGet)

	// Catalog.
	router.HandleFunc("/api/audio", h.GetAudioItemsHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/audio/{id}", h.GetAudioItemHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/audio", h.AdminMiddleware(h.CreateAudioItemHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/audio/{id}", h.AdminMiddleware(h.UpdateAudioItemHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/audio/{id}/active", h.AdminMiddleware(h.SetAudioItemActiveHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/audio/upload", h.AdminMiddleware(h.UploadAudioHandler)).Methods(http.MethodPost)

	// Favorites.
	router.HandleFunc("/api/audio/{id}/favorite", h.AuthMiddleware(h.ToggleAudioFavoriteHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/audio/{id}/favorite", h.AuthMiddleware(h.GetAudioFavoriteStateHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/favorites/audio", h.AuthMiddleware(h.ListAudioFavoritesHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/daily/{id}/favorite", h.AuthMiddleware(h.ToggleDailyFavoriteHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/daily/{id}/favorite", h.AuthMiddleware(h.GetDailyFavoriteStateHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/favorites/daily", h.AuthMiddleware(h.ListDailyFavoritesHandler)).Methods(http.MethodGet)

	// Daily feed. The literal route must precede the {id} route.
	router.HandleFunc("/api/daily/today", h.GetTodayFeedHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/daily", h.GetTodayFeedHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/daily/{id}", h.GetDailyItemHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/daily", h.AdminMiddleware(h.CreateDailyItemHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/daily/{id}", h.AdminMiddleware(h.UpdateDailyItemHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/daily/{id}", h.AdminMiddleware(h.DeleteDailyItemHandler)).Methods(http.MethodDelete)

	// Journal and streak.
	router.HandleFunc("/api/journal", h.AuthMiddleware(h.CreateJournalEntryHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/journal", h.AuthMiddleware(h.ListJournalEntriesHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/journal/{id}", h.AuthMiddleware(h.GetJournalEntryHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/journal/{id}", h.AuthMiddleware(h.UpdateJournalEntryHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/journal/{id}", h.AuthMiddleware(h.DeleteJournalEntryHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/streak", h.AuthMiddleware(h.GetStreakHandler)).Methods(http.MethodGet)

	// Prayer board.
	router.HandleFunc("/api/prayers", h.OptionalAuthMiddleware(h.ListPrayerBoardHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/prayers/mine", h.AuthMiddleware(h.ListMyPrayersHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/prayers", h.AuthMiddleware(h.CreatePrayerRequestHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/prayers/{id}", h.OptionalAuthMiddleware(h.GetPrayerRequestHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/prayers/{id}", h.AuthMiddleware(h.UpdatePrayerRequestHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/prayers/{id}/answered", h.AuthMiddleware(h.MarkPrayerAnsweredHandler)).Methods(http.MethodPut)
	router.HandleFunc("/api/prayers/{id}", h.AuthMiddleware(h.DeletePrayerRequestHandler)).Methods(http.MethodDelete)
	router.HandleFunc("/api/prayers/{id}/pray", h.AuthMiddleware(h.PrayHandler)).Methods(http.MethodPost)

	// Playback sessions.
	router.HandleFunc("/api/playback/load", h.OptionalAuthMiddleware(h.LoadTrackHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playback/play", h.OptionalAuthMiddleware(h.PlayPauseHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playback/seek", h.OptionalAuthMiddleware(h.SeekHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playback/stop", h.OptionalAuthMiddleware(h.StopHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/playback/state", h.OptionalAuthMiddleware(h.PlaybackStateHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/playback/ws", h.OptionalAuthMiddleware(h.PlaybackWebSocketHandler)).Methods(http.MethodGet)

	// Continue listening.
	router.HandleFunc("/api/history", h.AuthMiddleware(h.RecentlyPlayedHandler)).Methods(http.MethodGet)

	// Media bytes.
	router.HandleFunc("/media/{key:.+}", h.MediaHandler).Methods(http.MethodGet, http.MethodHead)
}
