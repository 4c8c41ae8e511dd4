package handler_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/silid-lounge/api/internal/auth"
	"github.com/silid-lounge/api/internal/database"
	"github.com/silid-lounge/api/internal/enum"
	"github.com/silid-lounge/api/internal/handler"
	"golang.org/x/crypto/bcrypt"
)

const authTestSecret = "test-secret"

// --- Mock store ---

type mockAuthStore struct {
	staff map[uuid.UUID]database.Staff
}

func newMockAuthStore() *mockAuthStore {
	return &mockAuthStore{staff: make(map[uuid.UUID]database.Staff)}
}

func (m *mockAuthStore) GetStaffByEmail(_ context.Context, email string) (database.Staff, error) {
	for _, s := range m.staff {
		if s.Email == email {
			return s, nil
		}
	}
	return database.Staff{}, pgx.ErrNoRows
}

func (m *mockAuthStore) GetStaff(_ context.Context, id uuid.UUID) (database.Staff, error) {
	s, ok := m.staff[id]
	if !ok {
		return database.Staff{}, pgx.ErrNoRows
	}
	return s, nil
}

// --- Helpers ---

func setupAuthRouter(store *mockAuthStore) *chi.Mux {
	h := handler.NewAuthHandler(store, authTestSecret)
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return r
}

func addStaff(t *testing.T, store *mockAuthStore, email, password string) database.Staff {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	s := database.Staff{
		ID:           uuid.New(),
		Name:         "Test Staff",
		Email:        email,
		PasswordHash: string(hash),
		Role:         enum.StaffRoleStaff,
		IsActive:     true,
	}
	store.staff[s.ID] = s
	return s
}

// --- Tests ---

func TestLoginSuccess(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)
	staff := addStaff(t, store, "ana@example.com", "secret123")

	rr := postJSON(t, router, "/auth/login", map[string]interface{}{
		"email":    "ana@example.com",
		"password": "secret123",
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}

	resp := decodeObject(t, rr)
	token, _ := resp["access_token"].(string)
	if token == "" {
		t.Fatal("expected an access token")
	}
	claims, err := auth.ValidateToken(authTestSecret, token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if claims.StaffID != staff.ID {
		t.Errorf("expected staff ID %s in claims, got %s", staff.ID, claims.StaffID)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)
	addStaff(t, store, "ana@example.com", "secret123")

	rr := postJSON(t, router, "/auth/login", map[string]interface{}{
		"email":    "ana@example.com",
		"password": "wrong",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)

	rr := postJSON(t, router, "/auth/login", map[string]interface{}{
		"email":    "ghost@example.com",
		"password": "whatever",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}

func TestRefresh(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)
	staff := addStaff(t, store, "ana@example.com", "secret123")

	refresh, err := auth.GenerateRefreshToken(authTestSecret, staff.ID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	rr := postJSON(t, router, "/auth/refresh", map[string]interface{}{
		"refresh_token": refresh,
	})
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
	}
	resp := decodeObject(t, rr)
	if resp["access_token"] == "" {
		t.Error("expected a new access token")
	}
}

func TestRefreshInvalidToken(t *testing.T) {
	store := newMockAuthStore()
	router := setupAuthRouter(store)

	rr := postJSON(t, router, "/auth/refresh", map[string]interface{}{
		"refresh_token": "garbage",
	})
	if rr.Code != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", rr.Code)
	}
}
