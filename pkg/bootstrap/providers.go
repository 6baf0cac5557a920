package bootstrap

import (
	shared "github.com/stridewell/healthsync/pkg"
	"github.com/stridewell/healthsync/pkg/infrastructure/oauth"
	"github.com/stridewell/healthsync/pkg/provider"
	"github.com/stridewell/healthsync/pkg/provider/fitbit"
	"github.com/stridewell/healthsync/pkg/provider/fitfile"
	"github.com/stridewell/healthsync/pkg/provider/googlefit"
)

// RegisterProviders installs the factory for each provider the deployment
// supports. OAuth-backed providers get a token-refreshing HTTP client that
// also stamps last_used_at on the stored credentials.
func RegisterProviders(svc *Service) {
	provider.ClearRegistry()

	provider.Register(shared.ProviderGoogleFit, func(userID string) provider.HealthProvider {
		source := oauth.NewStoreTokenSource(svc.Users, userID, shared.ProviderGoogleFit)
		client := oauth.NewClientWithUsageTracking(source, svc.Users, userID, shared.ProviderGoogleFit)
		return googlefit.New(svc.Users, userID, client)
	})

	provider.Register(shared.ProviderFitbit, func(userID string) provider.HealthProvider {
		source := oauth.NewStoreTokenSource(svc.Users, userID, shared.ProviderFitbit)
		client := oauth.NewClientWithUsageTracking(source, svc.Users, userID, shared.ProviderFitbit)
		return fitbit.New(svc.Users, userID, client)
	})

	provider.Register(shared.ProviderFitFile, func(userID string) provider.HealthProvider {
		return fitfile.New(svc.Store, svc.Config.UploadBucket, userID)
	})
}
