package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"roadwatch/internal/auth"
	"roadwatch/internal/logger"
)

// TokenIssuer exchanges credentials for a bearer token.
type TokenIssuer interface {
	Login(ctx context.Context, email, password string) (string, error)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// LoginHandler issues bearer tokens for valid email/password pairs.
func LoginHandler(issuer TokenIssuer, log *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		token, err := issuer.Login(r.Context(), req.Email, req.Password)
		switch {
		case errors.Is(err, auth.ErrUnauthorized):
			writeError(w, http.StatusUnauthorized, "invalid credentials")
			return
		case errors.Is(err, auth.ErrForbidden):
			writeError(w, http.StatusForbidden, "account disabled")
			return
		case err != nil:
			log.Error("Login failed: %v", err)
			writeError(w, http.StatusInternalServerError, "login failed")
			return
		}

		writeJSON(w, http.StatusOK, loginResponse{AccessToken: token, TokenType: "bearer"})
	}
}
