package oauth

import (
	"context"
	"strings"
	"testing"
	"time"

	shared "github.com/stridewell/healthsync/pkg"
	"github.com/stridewell/healthsync/pkg/testing/mocks"
	"github.com/stridewell/healthsync/pkg/types"
)

func userWithCreds(provider string, creds *types.IntegrationCredentials) *mocks.MockUserStore {
	return &mocks.MockUserStore{
		GetUserFunc: func(ctx context.Context, id string) (*types.UserRecord, error) {
			return &types.UserRecord{
				UserID:       id,
				Integrations: map[string]*types.IntegrationCredentials{provider: creds},
			}, nil
		},
	}
}

func TestToken_ReturnsStoredCredentials(t *testing.T) {
	expiry := time.Now().Add(time.Hour)
	users := userWithCreds(shared.ProviderGoogleFit, &types.IntegrationCredentials{
		Enabled:      true,
		AccessToken:  "access-abc",
		RefreshToken: "refresh-xyz",
		ExpiresAt:    &expiry,
	})

	src := NewStoreTokenSource(users, "user-1", shared.ProviderGoogleFit)
	tok, err := src.Token(context.Background())
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if tok.AccessToken != "access-abc" {
		t.Errorf("expected stored access token, got %q", tok.AccessToken)
	}
	if tok.RefreshToken != "refresh-xyz" {
		t.Errorf("expected stored refresh token, got %q", tok.RefreshToken)
	}
	if !tok.Expiry.Equal(expiry) {
		t.Errorf("expected expiry %v, got %v", expiry, tok.Expiry)
	}
}

func TestToken_NoExpiryStillReturned(t *testing.T) {
	// Some providers never report expiry; a zero expiry must not trigger a refresh.
	users := userWithCreds(shared.ProviderFitbit, &types.IntegrationCredentials{
		Enabled:      true,
		AccessToken:  "access-abc",
		RefreshToken: "refresh-xyz",
	})

	src := NewStoreTokenSource(users, "user-1", shared.ProviderFitbit)
	tok, err := src.Token(context.Background())
	if err != nil {
		t.Fatalf("Token failed: %v", err)
	}
	if tok.AccessToken != "access-abc" {
		t.Errorf("expected stored access token, got %q", tok.AccessToken)
	}
}

func TestToken_NotLinked(t *testing.T) {
	tests := []struct {
		name  string
		creds *types.IntegrationCredentials
	}{
		{"missing integration", nil},
		{"disabled integration", &types.IntegrationCredentials{Enabled: false, AccessToken: "a", RefreshToken: "r"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := userWithCreds(shared.ProviderGoogleFit, tt.creds)
			src := NewStoreTokenSource(users, "user-1", shared.ProviderGoogleFit)
			_, err := src.Token(context.Background())
			if err == nil || !strings.Contains(err.Error(), "not linked/enabled") {
				t.Errorf("expected not linked error, got %v", err)
			}
		})
	}
}

func TestToken_MissingTokens(t *testing.T) {
	tests := []struct {
		name    string
		creds   *types.IntegrationCredentials
		wantErr string
	}{
		{"no access token", &types.IntegrationCredentials{Enabled: true, RefreshToken: "r"}, "missing access token"},
		{"no refresh token", &types.IntegrationCredentials{Enabled: true, AccessToken: "a"}, "missing refresh token"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users := userWithCreds(shared.ProviderFitbit, tt.creds)
			src := NewStoreTokenSource(users, "user-1", shared.ProviderFitbit)
			_, err := src.Token(context.Background())
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected %q error, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestToken_ExpiringSoonTriggersRefresh(t *testing.T) {
	// Expiry within the one minute window must enter the refresh path. With
	// no client secrets configured the refresh should fail before any
	// network call, which is how we observe the attempt.
	t.Setenv("GOOGLEFIT_CLIENT_ID", "")

	expiry := time.Now().Add(30 * time.Second)
	users := userWithCreds(shared.ProviderGoogleFit, &types.IntegrationCredentials{
		Enabled:      true,
		AccessToken:  "stale-access",
		RefreshToken: "refresh-xyz",
		ExpiresAt:    &expiry,
	})

	src := NewStoreTokenSource(users, "user-1", shared.ProviderGoogleFit)
	_, err := src.Token(context.Background())
	if err == nil || !strings.Contains(err.Error(), "GOOGLEFIT_CLIENT_ID") {
		t.Errorf("expected refresh attempt to fail on missing client id, got %v", err)
	}
}

func TestForceRefresh_UnsupportedProvider(t *testing.T) {
	t.Setenv("MOCK_CLIENT_ID", "id")
	t.Setenv("MOCK_CLIENT_SECRET", "secret")

	users := userWithCreds("mock", &types.IntegrationCredentials{
		Enabled:      true,
		AccessToken:  "a",
		RefreshToken: "r",
	})

	src := NewStoreTokenSource(users, "user-1", "mock")
	_, err := src.ForceRefresh(context.Background())
	if err == nil || !strings.Contains(err.Error(), "unsupported provider for refresh") {
		t.Errorf("expected unsupported provider error, got %v", err)
	}
}

func TestForceRefresh_MissingRefreshToken(t *testing.T) {
	users := userWithCreds(shared.ProviderFitbit, &types.IntegrationCredentials{
		Enabled:     true,
		AccessToken: "a",
	})

	src := NewStoreTokenSource(users, "user-1", shared.ProviderFitbit)
	_, err := src.ForceRefresh(context.Background())
	if err == nil || !strings.Contains(err.Error(), "missing refresh token") {
		t.Errorf("expected missing refresh token error, got %v", err)
	}
}
