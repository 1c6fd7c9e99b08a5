package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"todoassist/internal/observability"
	"todoassist/internal/storage"
)

const passwordMinLen = 8

type ctxKey string

const ctxKeyUserID ctxKey = "user_id"

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string `json:"token"`
	TokenType string `json:"token_type"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "a valid email is required")
		return
	}
	if len(req.Password) < passwordMinLen {
		writeError(w, http.StatusBadRequest, "password must be at least 8 characters")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		s.internalError(w, r, "hash password", err)
		return
	}

	user, err := s.store.CreateUser(r.Context(), req.Email, string(hash))
	if err != nil {
		if errors.Is(err, storage.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "email already registered")
			return
		}
		s.internalError(w, r, "create user", err)
		return
	}

	token, err := s.store.CreateToken(r.Context(), user.ID, s.tokenTTL)
	if err != nil {
		s.internalError(w, r, "create token", err)
		return
	}
	writeJSON(w, http.StatusCreated, tokenResponse{Token: token.Token, TokenType: "bearer"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	user, err := s.store.GetUserByEmail(r.Context(), req.Email)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			// Same response as a wrong password so accounts can't be probed.
			writeError(w, http.StatusUnauthorized, "invalid email or password")
			return
		}
		s.internalError(w, r, "look up user", err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	token, err := s.store.CreateToken(r.Context(), user.ID, s.tokenTTL)
	if err != nil {
		s.internalError(w, r, "create token", err)
		return
	}
	writeJSON(w, http.StatusOK, tokenResponse{Token: token.Token, TokenType: "bearer"})
}

// requireAuth resolves the bearer token to a user id and stores it in
// the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		value, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || value == "" {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		token, err := s.store.GetToken(r.Context(), value)
		if err != nil {
			if errors.Is(err, storage.ErrTokenNotFound) {
				writeError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}
			s.internalError(w, r, "look up token", err)
			return
		}

		ctx := context.WithValue(r.Context(), ctxKeyUserID, token.UserID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func userID(r *http.Request) string {
	id, _ := r.Context().Value(ctxKeyUserID).(string)
	return id
}

func (s *Server) internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	observability.LoggerFromContext(r.Context()).Error(op+" failed", "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}
