package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"SelahFM/config"
	"SelahFM/core/auth"
	"SelahFM/core/engagement"
	"SelahFM/core/playback"
	"SelahFM/logger"
	"SelahFM/repository"
)

// APIHandler carries the request handlers and their dependencies.
type APIHandler struct {
	cfg *config.Config

	userRepo     repository.UserRepository
	audioRepo    repository.AudioRepository
	dailyRepo    repository.DailyRepository
	journalRepo  repository.JournalRepository
	prayerRepo   repository.PrayerRepository
	progressRepo repository.ProgressRepository

	audioFavRepo repository.FavoriteRepository
	dailyFavRepo repository.FavoriteRepository

	audioFavorites *engagement.Toggler
	dailyFavorites *engagement.Toggler
	prayProtocol   *engagement.PrayProtocol
	streakTracker  *engagement.StreakTracker

	playbackManager *playback.Manager
}

// NewAPIHandler creates a new API handler.
func NewAPIHandler(
	cfg *config.Config,
	userRepo repository.UserRepository,
	audioRepo repository.AudioRepository,
	dailyRepo repository.DailyRepository,
	journalRepo repository.JournalRepository,
	prayerRepo repository.PrayerRepository,
	progressRepo repository.ProgressRepository,
	audioFavRepo repository.FavoriteRepository,
	dailyFavRepo repository.FavoriteRepository,
	prayProtocol *engagement.PrayProtocol,
	streakTracker *engagement.StreakTracker,
	playbackManager *playback.Manager,
) *APIHandler {
	return &APIHandler{
		cfg:             cfg,
		userRepo:        userRepo,
		audioRepo:       audioRepo,
		dailyRepo:       dailyRepo,
		journalRepo:     journalRepo,
		prayerRepo:      prayerRepo,
		progressRepo:    progressRepo,
		audioFavRepo:    audioFavRepo,
		dailyFavRepo:    dailyFavRepo,
		audioFavorites:  engagement.NewToggler("audioFavorite", audioFavRepo),
		dailyFavorites:  engagement.NewToggler("dailyFavorite", dailyFavRepo),
		prayProtocol:    prayProtocol,
		streakTracker:   streakTracker,
		playbackManager: playbackManager,
	}
}

type contextKey string

const (
	userIDKey   contextKey = "userID"
	usernameKey contextKey = "username"
)

// AuthMiddleware checks for a valid JWT token and rejects requests
// without one.
func (h *APIHandler) AuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := claimsFromRequest(r)
		if err != nil {
			respondError(w, http.StatusUnauthorized, err.Error())
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		ctx = context.WithValue(ctx, usernameKey, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// OptionalAuthMiddleware attaches the user identity when a valid token
// is present and lets anonymous requests through with user ID 0.
// Playback works signed out; persistence degrades to a no-op.
func (h *APIHandler) OptionalAuthMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, err := claimsFromRequest(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, claims.UserID)
		ctx = context.WithValue(ctx, usernameKey, claims.Username)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// AdminMiddleware requires an authenticated admin user.
func (h *APIHandler) AdminMiddleware(next http.HandlerFunc) http.HandlerFunc {
	return h.AuthMiddleware(func(w http.ResponseWriter, r *http.Request) {
		userID, err := GetUserIDFromContext(r.Context())
		if err != nil {
			respondError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		user, err := h.userRepo.GetUserByID(userID)
		if err != nil {
			logger.Error("failed to load user for admin check", logger.ErrorField(err))
			respondError(w, http.StatusInternalServerError, "Internal server error")
			return
		}
		if user == nil || !user.IsAdmin {
			respondError(w, http.StatusForbidden, "Admin access required")
			return
		}

		next.ServeHTTP(w, r)
	})
}

func claimsFromRequest(r *http.Request) (*auth.Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		// WebSocket clients cannot set headers; accept a query token.
		if token := r.URL.Query().Get("token"); token != "" {
			return auth.ParseToken(token)
		}
		return nil, fmt.Errorf("authorization header is required")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, fmt.Errorf("invalid authorization header format")
	}
	return auth.ParseToken(parts[1])
}

// GetUserIDFromContext extracts the user ID from the request context.
func GetUserIDFromContext(ctx context.Context) (int64, error) {
	userID, ok := ctx.Value(userIDKey).(int64)
	if !ok {
		return 0, fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// optionalUserID returns the authenticated user ID, or 0 for anonymous
// requests.
func optionalUserID(ctx context.Context) int64 {
	userID, _ := ctx.Value(userIDKey).(int64)
	return userID
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("failed to encode response", logger.ErrorField(err))
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
