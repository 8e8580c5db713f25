package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/plefebvre/task-api/internal"
)

const bcryptCost = 12

// UserRepository defines the datastore handling persisted User records.
type UserRepository interface {
	Create(ctx context.Context, user internal.User) (internal.User, error)
	ByEmail(ctx context.Context, email string) (internal.User, error)
	ByID(ctx context.Context, id int64) (internal.User, error)
}

// User defines the application service in charge of accounts.
type User struct {
	logger *zap.Logger
	repo   UserRepository
}

// NewUser ...
func NewUser(logger *zap.Logger, repo UserRepository) *User {
	return &User{
		logger: logger,
		repo:   repo,
	}
}

// Register creates a new account with a hashed password. New accounts store
// no explicit roles, the base role is implied.
func (u *User) Register(ctx context.Context, params internal.RegisterParams) (internal.User, error) {
	ctx, span := otel.Tracer(otelName).Start(ctx, "User.Register")
	defer span.End()

	if err := params.Validate(); err != nil {
		return internal.User{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), bcryptCost)
	if err != nil {
		return internal.User{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "bcrypt.GenerateFromPassword")
	}

	user, err := u.repo.Create(ctx, internal.User{
		Email:        params.Email,
		PasswordHash: string(hash),
		Roles:        []string{},
		FirstName:    params.FirstName,
		LastName:     params.LastName,
		CreatedAt:    time.Now().UTC(),
	})
	if err != nil {
		return internal.User{}, err
	}

	u.logger.Info("account created", zap.Int64("user_id", user.ID))

	return user, nil
}

// Authenticate verifies the credentials and returns the matching account.
// Unknown emails and wrong passwords are indistinguishable to the caller.
func (u *User) Authenticate(ctx context.Context, email, password string) (internal.User, error) {
	ctx, span := otel.Tracer(otelName).Start(ctx, "User.Authenticate")
	defer span.End()

	user, err := u.repo.ByEmail(ctx, email)
	if err != nil {
		var ierr *internal.Error
		if errors.As(err, &ierr) && ierr.Code() == internal.ErrorCodeNotFound {
			return internal.User{}, internal.NewErrorf(internal.ErrorCodeUnauthorized, "invalid credentials")
		}

		return internal.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return internal.User{}, internal.NewErrorf(internal.ErrorCodeUnauthorized, "invalid credentials")
	}

	return user, nil
}

// Current returns the account matching an authenticated id.
func (u *User) Current(ctx context.Context, id int64) (internal.User, error) {
	ctx, span := otel.Tracer(otelName).Start(ctx, "User.Current")
	defer span.End()

	return u.repo.ByID(ctx, id)
}
