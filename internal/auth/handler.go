package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/ayush/car-catalog/backend/internal/apperror"
	"github.com/ayush/car-catalog/backend/internal/models"
	"github.com/ayush/car-catalog/backend/internal/respond"
	"github.com/ayush/car-catalog/backend/internal/store"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	CreateUser(ctx context.Context, username, email, hashedPw string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// Revoker invalidates a token before its expiry.
type Revoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users    UserStore
	tokens   *TokenManager
	revoker  Revoker
	validate *validator.Validate
	log      *slog.Logger
}

func NewHandler(users UserStore, tokens *TokenManager, revoker Revoker, log *slog.Logger) *Handler {
	return &Handler{
		users:    users,
		tokens:   tokens,
		revoker:  revoker,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log,
	}
}

// Register creates a new user.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, h.log, apperror.NewValidation("invalid request body", err))
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if err := h.validate.Struct(req); err != nil {
		respond.Error(w, r, h.log, apperror.NewValidation("username, valid email, and password of at least 6 characters are required", err))
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respond.Error(w, r, h.log, apperror.NewInternal("hash password", err))
		return
	}

	user, err := h.users.CreateUser(r.Context(), req.Username, req.Email, string(hashed))
	if err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			respond.Error(w, r, h.log, apperror.NewConflict("user already exists", err))
			return
		}
		respond.Error(w, r, h.log, apperror.NewInternal("create user", err))
		return
	}

	h.log.InfoContext(r.Context(), "user registered", "user_id", user.ID)
	respond.JSON(w, http.StatusCreated, user)
}

// Login verifies credentials and issues a bearer token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, r, h.log, apperror.NewValidation("invalid request body", err))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		respond.Error(w, r, h.log, apperror.NewValidation("email and password are required", err))
		return
	}

	user, err := h.users.GetUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respond.Error(w, r, h.log, apperror.NewUnauthenticated("invalid credentials", nil))
			return
		}
		respond.Error(w, r, h.log, apperror.NewInternal("get user", err))
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		respond.Error(w, r, h.log, apperror.NewUnauthenticated("invalid credentials", nil))
		return
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		respond.Error(w, r, h.log, apperror.NewInternal("issue token", err))
		return
	}

	respond.JSON(w, http.StatusOK, models.LoginResponse{Token: token, User: user})
}

// Logout revokes the token the request was authenticated with.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := FromContext(r.Context())
	if !ok {
		respond.Error(w, r, h.log, apperror.NewUnauthenticated("not authenticated", nil))
		return
	}
	if claims.ExpiresAt != nil {
		if err := h.revoker.Revoke(r.Context(), claims.ID, claims.ExpiresAt.Time); err != nil {
			respond.Error(w, r, h.log, apperror.NewInternal("revoke token", err))
			return
		}
	}
	respond.Message(w, http.StatusOK, "logged out")
}

// Me returns the currently authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	userID := UserIDFromContext(r.Context())
	if userID == "" {
		respond.Error(w, r, h.log, apperror.NewUnauthenticated("not authenticated", nil))
		return
	}

	user, err := h.users.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respond.Error(w, r, h.log, apperror.NewNotFound("user not found", err))
			return
		}
		respond.Error(w, r, h.log, apperror.NewInternal("get user", err))
		return
	}

	respond.JSON(w, http.StatusOK, user)
}
