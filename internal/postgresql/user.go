package postgresql

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/plefebvre/task-api/internal"
)

// "user" is reserved in PostgreSQL, the table is named users instead.
const userColumns = `id, email, roles, password, firstname, lastname, created_at`

const pgUniqueViolation = "23505"

// User represents the repository used for interacting with User records.
type User struct {
	pool *pgxpool.Pool
}

// NewUser instantiates the User repository.
func NewUser(pool *pgxpool.Pool) *User {
	return &User{
		pool: pool,
	}
}

// Create inserts a new account. Duplicate emails surface as a conflict.
func (u *User) Create(ctx context.Context, user internal.User) (internal.User, error) {
	defer newOTELSpan(ctx, "User.Create").End()

	roles := user.Roles
	if roles == nil {
		roles = []string{}
	}

	err := u.pool.QueryRow(ctx,
		`INSERT INTO users (email, roles, password, firstname, lastname, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id`,
		user.Email,
		roles,
		user.PasswordHash,
		user.FirstName,
		user.LastName,
		user.CreatedAt,
	).Scan(&user.ID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			return internal.User{}, internal.NewErrorf(internal.ErrorCodeConflict, "email already registered")
		}

		return internal.User{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "pool.QueryRow")
	}

	return user, nil
}

// ByEmail returns the account matching email exactly.
func (u *User) ByEmail(ctx context.Context, email string) (internal.User, error) {
	defer newOTELSpan(ctx, "User.ByEmail").End()

	return u.scanOne(u.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE email = $1`,
		email,
	))
}

// ByID returns the account matching id.
func (u *User) ByID(ctx context.Context, id int64) (internal.User, error) {
	defer newOTELSpan(ctx, "User.ByID").End()

	return u.scanOne(u.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1`,
		id,
	))
}

func (u *User) scanOne(row pgx.Row) (internal.User, error) {
	var user internal.User

	err := row.Scan(
		&user.ID,
		&user.Email,
		&user.Roles,
		&user.PasswordHash,
		&user.FirstName,
		&user.LastName,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return internal.User{}, internal.NewErrorf(internal.ErrorCodeNotFound, "user not found")
		}

		return internal.User{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "row.Scan")
	}

	return user, nil
}
