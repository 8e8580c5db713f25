package service

import (
	"context"
	"testing"

	"go.uber.org/zap"

	"github.com/plefebvre/task-api/internal"
)

type fakeUserRepo struct {
	nextID int64
	users  map[string]internal.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]internal.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, user internal.User) (internal.User, error) {
	if _, ok := r.users[user.Email]; ok {
		return internal.User{}, internal.NewErrorf(internal.ErrorCodeConflict, "email already registered")
	}

	r.nextID++
	user.ID = r.nextID
	r.users[user.Email] = user

	return user, nil
}

func (r *fakeUserRepo) ByEmail(_ context.Context, email string) (internal.User, error) {
	user, ok := r.users[email]
	if !ok {
		return internal.User{}, internal.NewErrorf(internal.ErrorCodeNotFound, "user not found")
	}

	return user, nil
}

func (r *fakeUserRepo) ByID(_ context.Context, id int64) (internal.User, error) {
	for _, user := range r.users {
		if user.ID == id {
			return user, nil
		}
	}

	return internal.User{}, internal.NewErrorf(internal.ErrorCodeNotFound, "user not found")
}

func TestUser_RegisterAndAuthenticate(t *testing.T) {
	t.Parallel()

	svc := NewUser(zap.NewNop(), newFakeUserRepo())

	user, err := svc.Register(context.Background(), internal.RegisterParams{
		Email:    "jean@example.com",
		Password: "s3cret-pass",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if user.ID == 0 {
		t.Error("Register() did not assign an id")
	}
	if user.PasswordHash == "s3cret-pass" {
		t.Error("password stored in clear")
	}

	got, err := svc.Authenticate(context.Background(), "jean@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Authenticate() error = %v", err)
	}

	if got.ID != user.ID {
		t.Errorf("Authenticate() id = %d, want %d", got.ID, user.ID)
	}
}

func TestUser_Register_DuplicateEmail(t *testing.T) {
	t.Parallel()

	svc := NewUser(zap.NewNop(), newFakeUserRepo())

	params := internal.RegisterParams{Email: "jean@example.com", Password: "s3cret-pass"}

	if _, err := svc.Register(context.Background(), params); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, err := svc.Register(context.Background(), params)
	if err == nil {
		t.Fatal("second Register() expected error")
	}

	if code := codeOf(t, err); code != internal.ErrorCodeConflict {
		t.Errorf("code = %v, want conflict", code)
	}
}

func TestUser_Authenticate_Failures(t *testing.T) {
	t.Parallel()

	svc := NewUser(zap.NewNop(), newFakeUserRepo())

	if _, err := svc.Register(context.Background(), internal.RegisterParams{
		Email:    "jean@example.com",
		Password: "s3cret-pass",
	}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	tests := []struct {
		name            string
		email, password string
	}{
		{name: "wrong password", email: "jean@example.com", password: "wrong-password"},
		{name: "unknown email", email: "nobody@example.com", password: "s3cret-pass"},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := svc.Authenticate(context.Background(), tt.email, tt.password)
			if err == nil {
				t.Fatal("Authenticate() expected error")
			}

			if code := codeOf(t, err); code != internal.ErrorCodeUnauthorized {
				t.Errorf("code = %v, want unauthorized", code)
			}
		})
	}
}
