package internal

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// Roles understood by the API. RoleUser is the base role, every
// authenticated user carries it whether or not it was stored.
const (
	RoleUser  = "ROLE_USER"
	RoleAdmin = "ROLE_ADMIN"
)

// User represents an account able to authenticate against the API. The
// password hash is internal state and is never serialized outward.
type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Roles        []string
	FirstName    *string
	LastName     *string
	CreatedAt    time.Time
}

// EffectiveRoles returns the stored roles plus the implicit base role,
// deduplicated. Stored roles are never rewritten, the union is computed at
// read time only.
func (u User) EffectiveRoles() []string {
	res := make([]string, 0, len(u.Roles)+1)
	seen := make(map[string]struct{}, len(u.Roles)+1)

	for _, role := range append(u.Roles, RoleUser) {
		if _, ok := seen[role]; ok {
			continue
		}

		seen[role] = struct{}{}
		res = append(res, role)
	}

	return res
}

// RegisterParams defines the values accepted when creating a new account.
type RegisterParams struct {
	Email     string
	Password  string
	FirstName *string
	LastName  *string
}

// Validate ...
func (p RegisterParams) Validate() error {
	if err := validation.ValidateStruct(&p,
		validation.Field(&p.Email, validation.Required, is.Email),
		validation.Field(&p.Password, validation.Required, validation.Length(8, 72)),
	); err != nil {
		return WrapErrorf(err, ErrorCodeInvalidArgument, "validation.ValidateStruct")
	}

	return nil
}
