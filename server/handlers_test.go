package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"SelahFM/core/auth"
	"SelahFM/core/engagement"
	"SelahFM/model"

	"github.com/gorilla/mux"
)

type fakeFavoriteRepo struct {
	mu   sync.Mutex
	rels map[string]bool
}

func newFakeFavoriteRepo() *fakeFavoriteRepo {
	return &fakeFavoriteRepo{rels: make(map[string]bool)}
}

func relID(userID, itemID int64) string {
	return fmt.Sprintf("%d:%d", userID, itemID)
}

func (f *fakeFavoriteRepo) Exists(ctx context.Context, userID, itemID int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rels[relID(userID, itemID)], nil
}

func (f *fakeFavoriteRepo) Insert(ctx context.Context, userID, itemID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rels[relID(userID, itemID)] = true
	return nil
}

func (f *fakeFavoriteRepo) Delete(ctx context.Context, userID, itemID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rels, relID(userID, itemID))
	return nil
}

func (f *fakeFavoriteRepo) ListItemIDs(ctx context.Context, userID int64) ([]int64, error) {
	return nil, nil
}

type fakePrayerStore struct {
	mu     sync.Mutex
	prayed map[string]bool
	count  int64
}

func newFakePrayerStore() *fakePrayerStore {
	return &fakePrayerStore{prayed: make(map[string]bool)}
}

func (s *fakePrayerStore) HasPrayed(ctx context.Context, userID, prayerID int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.prayed[relID(userID, prayerID)], nil
}

func (s *fakePrayerStore) RecordPrayer(ctx context.Context, userID, prayerID int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := relID(userID, prayerID)
	if s.prayed[key] {
		return 0, engagement.ErrAlreadyPrayed
	}
	s.prayed[key] = true
	s.count++
	return s.count, nil
}

func testHandler(favRepo *fakeFavoriteRepo, prayerStore *fakePrayerStore) *APIHandler {
	h := &APIHandler{
		audioFavRepo:   favRepo,
		audioFavorites: engagement.NewToggler("audioFavorite", favRepo),
	}
	if prayerStore != nil {
		h.prayProtocol = engagement.NewPrayProtocol(prayerStore)
	}
	return h
}

func authedRequest(method, target string, userID int64, vars map[string]string) *http.Request {
	r := httptest.NewRequest(method, target, nil)
	ctx := context.WithValue(r.Context(), userIDKey, userID)
	r = r.WithContext(ctx)
	if vars != nil {
		r = mux.SetURLVars(r, vars)
	}
	return r
}

func TestToggleFavoriteOnThenOff(t *testing.T) {
	favRepo := newFakeFavoriteRepo()
	h := testHandler(favRepo, nil)

	r := authedRequest(http.MethodPost, "/api/audio/7/favorite", 1, map[string]string{"id": "7"})
	w := httptest.NewRecorder()
	h.ToggleAudioFavoriteHandler(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		ItemID int64 `json:"itemId"`
		Value  bool  `json:"value"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if !resp.Value || resp.ItemID != 7 {
		t.Fatalf("expected value=true for item 7, got %+v", resp)
	}

	// Second toggle turns it back off.
	w = httptest.NewRecorder()
	h.ToggleAudioFavoriteHandler(w, authedRequest(http.MethodPost, "/api/audio/7/favorite", 1, map[string]string{"id": "7"}))
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Value {
		t.Fatal("expected value=false after second toggle")
	}
	if exists, _ := favRepo.Exists(context.Background(), 1, 7); exists {
		t.Fatal("relation should be gone after second toggle")
	}
}

func TestToggleFavoriteRequiresAuth(t *testing.T) {
	h := testHandler(newFakeFavoriteRepo(), nil)

	r := httptest.NewRequest(http.MethodPost, "/api/audio/7/favorite", nil)
	r = mux.SetURLVars(r, map[string]string{"id": "7"})
	w := httptest.NewRecorder()
	h.ToggleAudioFavoriteHandler(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", w.Code)
	}
}

func TestPrayHandlerIsOneShot(t *testing.T) {
	h := testHandler(newFakeFavoriteRepo(), newFakePrayerStore())
	vars := map[string]string{"id": "3"}

	w := httptest.NewRecorder()
	h.PrayHandler(w, authedRequest(http.MethodPost, "/api/prayers/3/pray", 1, vars))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		PrayCount int64 `json:"prayCount"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.PrayCount != 1 {
		t.Fatalf("expected prayCount 1, got %d", resp.PrayCount)
	}

	// Repeats conflict and change nothing.
	w = httptest.NewRecorder()
	h.PrayHandler(w, authedRequest(http.MethodPost, "/api/prayers/3/pray", 1, vars))
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on repeat, got %d", w.Code)
	}

	// A different user still counts.
	w = httptest.NewRecorder()
	h.PrayHandler(w, authedRequest(http.MethodPost, "/api/prayers/3/pray", 2, vars))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for second user, got %d", w.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	auth.SetSecret("test-secret")
	h := &APIHandler{}

	var gotUserID int64
	next := func(w http.ResponseWriter, r *http.Request) {
		gotUserID, _ = GetUserIDFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}

	// Missing header.
	w := httptest.NewRecorder()
	h.AuthMiddleware(next)(w, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", w.Code)
	}

	// Valid token passes the identity through.
	token, err := auth.GenerateToken(42, "grace")
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	r.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	h.AuthMiddleware(next)(w, r)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", w.Code)
	}
	if gotUserID != 42 {
		t.Fatalf("expected user 42 in context, got %d", gotUserID)
	}
}

func TestValidateDailyItem(t *testing.T) {
	cases := []struct {
		name    string
		item    model.DailyItem
		wantErr bool
	}{
		{"valid verse", model.DailyItem{PublishOn: "2026-08-28", Kind: model.DailyKindVerse, Title: "t", Body: "b"}, false},
		{"bad date", model.DailyItem{PublishOn: "28/08/2026", Kind: model.DailyKindVerse, Title: "t", Body: "b"}, true},
		{"bad kind", model.DailyItem{PublishOn: "2026-08-28", Kind: "song", Title: "t", Body: "b"}, true},
		{"missing body", model.DailyItem{PublishOn: "2026-08-28", Kind: model.DailyKindQuote, Title: "t"}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := validateDailyItem(&tc.item)
			if (err != nil) != tc.wantErr {
				t.Errorf("validateDailyItem(%+v) error = %v, wantErr %v", tc.item, err, tc.wantErr)
			}
		})
	}
}
