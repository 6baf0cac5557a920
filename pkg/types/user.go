package types

import "time"

// IntegrationCredentials holds the OAuth material for one linked provider.
type IntegrationCredentials struct {
	Enabled       bool       `json:"enabled" firestore:"enabled"`
	AccessToken   string     `json:"access_token,omitempty" firestore:"access_token,omitempty"`
	RefreshToken  string     `json:"refresh_token,omitempty" firestore:"refresh_token,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty" firestore:"expires_at,omitempty"`
	GrantedScopes []string   `json:"granted_scopes,omitempty" firestore:"granted_scopes,omitempty"`
	LastUsedAt    *time.Time `json:"last_used_at,omitempty" firestore:"last_used_at,omitempty"`
}

// UserRecord is the slice of the backend user document the engine needs:
// linked provider credentials and push tokens. Profile, social graph and
// auth data stay backend-owned.
type UserRecord struct {
	UserID       string                             `json:"user_id" firestore:"user_id"`
	DeviceTokens []string                           `json:"device_tokens,omitempty" firestore:"device_tokens,omitempty"`
	Integrations map[string]*IntegrationCredentials `json:"integrations,omitempty" firestore:"integrations,omitempty"`
}

// Integration returns the credentials for a provider tag, or nil.
func (u *UserRecord) Integration(provider string) *IntegrationCredentials {
	if u == nil || u.Integrations == nil {
		return nil
	}
	return u.Integrations[provider]
}
