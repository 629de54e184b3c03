package auth

import (
	"errors"
	"net/http"
	"strings"

	"bread-calculator/internal/httpjson"
	"bread-calculator/internal/logger"
	"bread-calculator/internal/models"

	"go.uber.org/zap"
)

type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
}

func (r *RegisterRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
}

type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	User        *models.User `json:"user"`
}

func RegisterHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RegisterRequest
		if !httpjson.Bind(w, r, &req) {
			return
		}
		user, err := svc.Register(r.Context(), req.Username, req.Email, req.Password)
		if err != nil {
			if errors.Is(err, ErrUserExists) {
				httpjson.Error(w, http.StatusBadRequest, "Username or email already registered")
				return
			}
			if errors.Is(err, ErrPasswordTooLong) {
				httpjson.Error(w, http.StatusUnprocessableEntity, "password: must be at most 72 bytes")
				return
			}
			logger.FromContext(r.Context()).Error("register failed", zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "internal error")
			return
		}
		logger.FromContext(r.Context()).Info("user registered", zap.Int64("user_id", user.ID))
		httpjson.Write(w, http.StatusCreated, user)
	}
}

func LoginHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if !httpjson.Bind(w, r, &req) {
			return
		}
		user, token, err := svc.Authenticate(r.Context(), req.Username, req.Password)
		if err != nil {
			if errors.Is(err, ErrInvalidCredentials) {
				w.Header().Set("WWW-Authenticate", "Bearer")
				httpjson.Error(w, http.StatusUnauthorized, "Incorrect username or password")
				return
			}
			logger.FromContext(r.Context()).Error("login failed", zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "internal error")
			return
		}
		httpjson.Write(w, http.StatusOK, TokenResponse{
			AccessToken: token,
			TokenType:   "bearer",
			User:        user,
		})
	}
}

// MeHandler must run behind Middleware.
func MeHandler(svc *Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := UserIDFromContext(r.Context())
		if !ok {
			httpjson.Error(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		user, err := svc.CurrentUser(r.Context(), userID)
		if err != nil {
			if errors.Is(err, ErrInvalidToken) {
				httpjson.Error(w, http.StatusUnauthorized, "Could not validate credentials")
				return
			}
			logger.FromContext(r.Context()).Error("load current user", zap.Error(err))
			httpjson.Error(w, http.StatusInternalServerError, "internal error")
			return
		}
		httpjson.Write(w, http.StatusOK, user)
	}
}
