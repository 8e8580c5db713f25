package internal_test

import (
	"testing"

	"github.com/plefebvre/task-api/internal"
)

func TestUser_EffectiveRoles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stored []string
		want   []string
	}{
		{
			name:   "no stored roles still gets base role",
			stored: nil,
			want:   []string{internal.RoleUser},
		},
		{
			name:   "admin keeps both roles",
			stored: []string{internal.RoleAdmin},
			want:   []string{internal.RoleAdmin, internal.RoleUser},
		},
		{
			name:   "base role not duplicated",
			stored: []string{internal.RoleUser},
			want:   []string{internal.RoleUser},
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := internal.User{Roles: tt.stored}.EffectiveRoles()
			if len(got) != len(tt.want) {
				t.Fatalf("EffectiveRoles() = %v, want %v", got, tt.want)
			}

			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("EffectiveRoles()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestRegisterParams_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		params  internal.RegisterParams
		wantErr bool
	}{
		{
			name:   "valid",
			params: internal.RegisterParams{Email: "jean@example.com", Password: "s3cret-pass"},
		},
		{
			name:    "missing email",
			params:  internal.RegisterParams{Password: "s3cret-pass"},
			wantErr: true,
		},
		{
			name:    "malformed email",
			params:  internal.RegisterParams{Email: "not-an-email", Password: "s3cret-pass"},
			wantErr: true,
		},
		{
			name:    "short password",
			params:  internal.RegisterParams{Email: "jean@example.com", Password: "short"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := tt.params.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
