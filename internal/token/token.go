// Package token issues and validates the JWTs protecting the API. Access
// tokens are stateless, refresh tokens are single use and tracked server
// side through a RefreshStore.
package token

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/plefebvre/task-api/internal"
)

// RefreshStore persists refresh token identifiers until they are redeemed or
// expire.
type RefreshStore interface {
	Save(ctx context.Context, jti string, userID int64, ttl time.Duration) error
	Take(ctx context.Context, jti string) (bool, error)
}

// Claims carried by every token. Refresh tokens additionally set the
// registered ID (jti) field, access tokens never do.
type Claims struct {
	UserID int64  `json:"uid"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Pair is what a successful login or refresh yields.
type Pair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    int64
}

// Manager signs and verifies tokens with a shared HMAC secret.
type Manager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	store      RefreshStore
}

// NewManager ...
func NewManager(secret, issuer string, accessTTL, refreshTTL time.Duration, store RefreshStore) *Manager {
	return &Manager{
		secret:     []byte(secret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		store:      store,
	}
}

// Issue returns a fresh access/refresh pair for the user.
func (m *Manager) Issue(ctx context.Context, user internal.User) (Pair, error) {
	now := time.Now()
	accessExpiry := now.Add(m.accessTTL)

	access, err := m.sign(Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			ExpiresAt: jwt.NewNumericDate(accessExpiry),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	if err != nil {
		return Pair{}, err
	}

	jti := uuid.NewString()

	refresh, err := m.sign(Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.issuer,
			ID:        jti,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	})
	if err != nil {
		return Pair{}, err
	}

	if err := m.store.Save(ctx, jti, user.ID, m.refreshTTL); err != nil {
		return Pair{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "store.Save")
	}

	return Pair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    accessExpiry.Unix(),
	}, nil
}

// ParseAccess validates an access token and returns its claims.
func (m *Manager) ParseAccess(tokenStr string) (*Claims, error) {
	claims, err := m.parse(tokenStr)
	if err != nil {
		return nil, err
	}

	// A jti marks a refresh token, refusing it here keeps refresh tokens
	// from doubling as access tokens.
	if claims.ID != "" {
		return nil, internal.NewErrorf(internal.ErrorCodeUnauthorized, "not an access token")
	}

	return claims, nil
}

// Refresh redeems a refresh token for a new pair. Each refresh token works
// exactly once.
func (m *Manager) Refresh(ctx context.Context, tokenStr string) (Pair, error) {
	claims, err := m.parse(tokenStr)
	if err != nil {
		return Pair{}, err
	}

	if claims.ID == "" {
		return Pair{}, internal.NewErrorf(internal.ErrorCodeUnauthorized, "not a refresh token")
	}

	ok, err := m.store.Take(ctx, claims.ID)
	if err != nil {
		return Pair{}, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "store.Take")
	}

	if !ok {
		return Pair{}, internal.NewErrorf(internal.ErrorCodeUnauthorized, "refresh token already used or revoked")
	}

	return m.Issue(ctx, internal.User{ID: claims.UserID, Email: claims.Email})
}

func (m *Manager) sign(claims Claims) (string, error) {
	res, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", internal.WrapErrorf(err, internal.ErrorCodeUnknown, "jwt.SignedString")
	}

	return res, nil
}

func (m *Manager) parse(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}

		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.NewErrorf(internal.ErrorCodeUnauthorized, "token expired")
		}

		return nil, internal.NewErrorf(internal.ErrorCodeUnauthorized, "invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, internal.NewErrorf(internal.ErrorCodeUnauthorized, "invalid token")
	}

	return claims, nil
}
