package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/plefebvre/task-api/internal"
	"github.com/plefebvre/task-api/internal/token"
)

// UserService ...
type UserService interface {
	Register(ctx context.Context, params internal.RegisterParams) (internal.User, error)
	Authenticate(ctx context.Context, email, password string) (internal.User, error)
	Current(ctx context.Context, id int64) (internal.User, error)
}

// TokenService ...
type TokenService interface {
	Issue(ctx context.Context, user internal.User) (token.Pair, error)
	ParseAccess(tokenStr string) (*token.Claims, error)
	Refresh(ctx context.Context, refreshToken string) (token.Pair, error)
}

// UserHandler ...
type UserHandler struct {
	svc    UserService
	tokens TokenService
}

// NewUserHandler ...
func NewUserHandler(svc UserService, tokens TokenService) *UserHandler {
	return &UserHandler{
		svc:    svc,
		tokens: tokens,
	}
}

// Register connects the handlers to the router, auth is the middleware
// guarding authenticated routes.
func (u *UserHandler) Register(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Post("/register", u.register)
	r.Post("/login", u.login)
	r.Post("/refresh", u.refresh)
	r.With(auth).Get("/me", u.me)
}

// User defines the JSON shape of an account. The password hash never leaves
// the process.
type User struct {
	ID        int64    `json:"id"`
	Email     string   `json:"email"`
	Roles     []string `json:"roles"`
	FirstName *string  `json:"firstname"`
	LastName  *string  `json:"lastname"`
	CreatedAt string   `json:"createdAt"`
}

func newUser(user internal.User) User {
	return User{
		ID:        user.ID,
		Email:     user.Email,
		Roles:     user.EffectiveRoles(),
		FirstName: user.FirstName,
		LastName:  user.LastName,
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
	}
}

// RegisterUserRequest defines the request used for creating accounts.
type RegisterUserRequest struct {
	Email     string  `json:"email"`
	Password  string  `json:"password"`
	FirstName *string `json:"firstname"`
	LastName  *string `json:"lastname"`
}

// LoginRequest defines the request used for authenticating.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest defines the request used for rotating tokens.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// TokenResponse defines the response returned after a successful login or
// refresh.
type TokenResponse struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
	ExpiresAt    int64  `json:"expiresAt"`
}

func (u *UserHandler) register(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderErrorResponse(r.Context(), w,
			internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "invalid request body"))
		return
	}
	defer r.Body.Close()

	user, err := u.svc.Register(r.Context(), internal.RegisterParams{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
	})
	if err != nil {
		renderErrorResponse(r.Context(), w, err)
		return
	}

	renderMessage(w, http.StatusCreated, "account created", newUser(user))
}

func (u *UserHandler) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderErrorResponse(r.Context(), w,
			internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "invalid request body"))
		return
	}
	defer r.Body.Close()

	user, err := u.svc.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		renderErrorResponse(r.Context(), w, err)
		return
	}

	pair, err := u.tokens.Issue(r.Context(), user)
	if err != nil {
		renderErrorResponse(r.Context(), w, err)
		return
	}

	renderData(w, http.StatusOK, TokenResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	})
}

func (u *UserHandler) refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		renderErrorResponse(r.Context(), w,
			internal.WrapErrorf(err, internal.ErrorCodeInvalidArgument, "invalid request body"))
		return
	}
	defer r.Body.Close()

	pair, err := u.tokens.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		renderErrorResponse(r.Context(), w, err)
		return
	}

	renderData(w, http.StatusOK, TokenResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	})
}

func (u *UserHandler) me(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		renderErrorResponse(r.Context(), w,
			internal.NewErrorf(internal.ErrorCodeUnauthorized, "not authenticated"))
		return
	}

	user, err := u.svc.Current(r.Context(), userID)
	if err != nil {
		renderErrorResponse(r.Context(), w, err)
		return
	}

	renderData(w, http.StatusOK, newUser(user))
}
