package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2/endpoints"

	shared "github.com/stridewell/healthsync/pkg"
)

// Token represents the OAuth token structure we care about
type Token struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// TokenSource returns a valid token.
// It is safe for concurrent use by multiple goroutines.
type TokenSource interface {
	Token(context.Context) (*Token, error)
	ForceRefresh(context.Context) (*Token, error)
}

// StoreTokenSource reads credentials from the user store and refreshes them
// if necessary.
type StoreTokenSource struct {
	users    shared.UserStore
	userID   string
	provider string
	mu       sync.Mutex
}

func NewStoreTokenSource(users shared.UserStore, userID, provider string) *StoreTokenSource {
	return &StoreTokenSource{
		users:    users,
		userID:   userID,
		provider: provider,
	}
}

// ForceRefresh forcibly refreshes the token regardless of expiry.
func (s *StoreTokenSource) ForceRefresh(ctx context.Context) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Fetch the refresh token explicitly from the store again to be safe
	user, err := s.users.GetUser(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	creds := user.Integration(s.provider)
	if creds == nil || !creds.Enabled {
		return nil, fmt.Errorf("%s not linked/enabled", s.provider)
	}
	if creds.RefreshToken == "" {
		return nil, fmt.Errorf("missing refresh token for %s", s.provider)
	}

	return s.refreshToken(ctx, creds.RefreshToken)
}

// Token returns a token, refreshing it if necessary.
func (s *StoreTokenSource) Token(ctx context.Context) (*Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.users.GetUser(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	creds := user.Integration(s.provider)
	if creds == nil || !creds.Enabled {
		return nil, fmt.Errorf("%s not linked/enabled", s.provider)
	}
	if creds.AccessToken == "" {
		return nil, fmt.Errorf("missing access token for %s", s.provider)
	}
	if creds.RefreshToken == "" {
		return nil, fmt.Errorf("missing refresh token for %s", s.provider)
	}

	var expiry time.Time
	if creds.ExpiresAt != nil {
		expiry = *creds.ExpiresAt
	}

	// Proactive refresh if expired or expiring in the next minute
	if !expiry.IsZero() && time.Now().Add(1*time.Minute).After(expiry) {
		return s.refreshToken(ctx, creds.RefreshToken)
	}

	return &Token{
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		Expiry:       expiry,
	}, nil
}

// refreshToken performs the HTTP exchange for a new token and persists it.
func (s *StoreTokenSource) refreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	clientID, err := s.getSecret("client-id")
	if err != nil {
		return nil, err
	}
	clientSecret, err := s.getSecret("client-secret")
	if err != nil {
		return nil, err
	}

	var tokenURL string
	switch s.provider {
	case shared.ProviderGoogleFit:
		tokenURL = endpoints.Google.TokenURL
	case shared.ProviderFitbit:
		tokenURL = endpoints.Fitbit.TokenURL
	default:
		return nil, fmt.Errorf("unsupported provider for refresh: %s", s.provider)
	}

	data := url.Values{}
	// Google expects client_id/secret in the body. Fitbit uses Basic Auth (see below).
	if s.provider != shared.ProviderFitbit {
		data.Set("client_id", clientID)
		data.Set("client_secret", clientSecret)
	}
	data.Set("grant_type", "refresh_token")
	data.Set("refresh_token", refreshToken)

	req, err := http.NewRequestWithContext(ctx, "POST", tokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	if s.provider == shared.ProviderFitbit {
		req.SetBasicAuth(clientID, clientSecret)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("refresh failed with status: %d", resp.StatusCode)
	}

	var result struct {
		AccessToken  string `json:"access_token"`
		RefreshToken string `json:"refresh_token"`
		ExpiresIn    int    `json:"expires_in"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode refresh response: %w", err)
	}

	newExpiry := time.Now().Add(time.Duration(result.ExpiresIn) * time.Second)

	// Update with dotted paths to avoid overwriting the entire integration
	// sub-object (which would wipe enabled, granted_scopes, etc.)
	prefix := "integrations." + s.provider + "."
	updateData := map[string]interface{}{
		prefix + "access_token": result.AccessToken,
		prefix + "expires_at":   newExpiry,
		prefix + "last_used_at": time.Now(),
	}
	// Google doesn't rotate refresh tokens on refresh; writing the empty
	// response value would wipe the stored token.
	if result.RefreshToken != "" {
		updateData[prefix+"refresh_token"] = result.RefreshToken
	}

	if err := s.users.UpdateUser(ctx, s.userID, updateData); err != nil {
		return nil, fmt.Errorf("failed to persist new tokens: %w", err)
	}

	newRefreshToken := result.RefreshToken
	if newRefreshToken == "" {
		newRefreshToken = refreshToken
	}

	return &Token{
		AccessToken:  result.AccessToken,
		RefreshToken: newRefreshToken,
		Expiry:       newExpiry,
	}, nil
}

func (s *StoreTokenSource) getSecret(keyType string) (string, error) {
	// Environment variables use uppercase with underscores
	// e.g., "googlefit-client-id" becomes "GOOGLEFIT_CLIENT_ID"
	envVarName := strings.ToUpper(strings.ReplaceAll(s.provider, "-", "_")) + "_" + strings.ToUpper(strings.ReplaceAll(keyType, "-", "_"))

	value := os.Getenv(envVarName)
	if value == "" {
		return "", fmt.Errorf("environment variable %s not found", envVarName)
	}

	return value, nil
}
