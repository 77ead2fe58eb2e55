package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"roadwatch/internal/auth"
	"roadwatch/internal/models"
)

type stubAuthn struct {
	users map[string]*models.User
}

func (s *stubAuthn) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if u, ok := s.users[token]; ok {
		return u, nil
	}
	return nil, auth.ErrUnauthorized
}

func okHandler(captured **models.User) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		*captured = UserFrom(r.Context())
		w.WriteHeader(http.StatusOK)
	})
}

func TestAuthAcceptsBearerHeader(t *testing.T) {
	user := &models.User{ID: "u-1", Role: models.RoleViewer}
	authn := &stubAuthn{users: map[string]*models.User{"good-token": user}}

	var got *models.User
	handler := Auth(authn)(okHandler(&got))

	req := httptest.NewRequest(http.MethodGet, "/api/incidents", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got == nil || got.ID != "u-1" {
		t.Errorf("context user = %v, want u-1", got)
	}
}

func TestAuthAcceptsTokenQueryParam(t *testing.T) {
	user := &models.User{ID: "u-1", Role: models.RoleViewer}
	authn := &stubAuthn{users: map[string]*models.User{"good-token": user}}

	var got *models.User
	handler := Auth(authn)(okHandler(&got))

	req := httptest.NewRequest(http.MethodGet, "/ws?token=good-token", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if got == nil || got.ID != "u-1" {
		t.Errorf("context user = %v, want u-1", got)
	}
}

func TestAuthRejections(t *testing.T) {
	authn := &stubAuthn{users: map[string]*models.User{"good-token": {ID: "u-1"}}}

	tests := []struct {
		name  string
		setup func(r *http.Request)
	}{
		{"missing credentials", func(r *http.Request) {}},
		{"invalid token", func(r *http.Request) { r.Header.Set("Authorization", "Bearer bad-token") }},
		{"malformed header", func(r *http.Request) { r.Header.Set("Authorization", "good-token") }},
		{"wrong scheme", func(r *http.Request) { r.Header.Set("Authorization", "Basic good-token") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *models.User
			handler := Auth(authn)(okHandler(&got))

			req := httptest.NewRequest(http.MethodGet, "/api/incidents", nil)
			tt.setup(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("status = %d, want 401", rec.Code)
			}
			if got != nil {
				t.Error("handler must not run for rejected requests")
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	tests := []struct {
		name       string
		user       *models.User
		wantStatus int
	}{
		{"matching role", &models.User{ID: "u-1", Role: models.RoleAdmin}, http.StatusOK},
		{"other role", &models.User{ID: "u-2", Role: models.RoleViewer}, http.StatusForbidden},
		{"no user in context", nil, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *models.User
			handler := RequireRole(models.RoleAdmin)(okHandler(&got))

			req := httptest.NewRequest(http.MethodDelete, "/api/incidents/1", nil)
			if tt.user != nil {
				req = req.WithContext(context.WithValue(req.Context(), userKey, tt.user))
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}
