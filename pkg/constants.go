package shared

const (
	ProjectID = "stridewell-project" // Can be overridden by env var in main if needed

	TopicSyncRequested = "topic-sync-requested" // Sync engine entry point
	TopicSyncCompleted = "topic-sync-completed"
	TopicSyncFailed    = "topic-sync-failed"

	CollectionUsers       = "users"
	CollectionConnections = "connections"
	CollectionSyncLogs    = "synclogs"
	CollectionActivities  = "activities"
	CollectionGoals       = "goals"
)

// Provider tags. The composition root selects the concrete HealthProvider
// implementation from the connection's provider tag.
const (
	ProviderGoogleFit = "googlefit"
	ProviderFitbit    = "fitbit"
	ProviderFitFile   = "fitfile"
	ProviderMock      = "mock"
)

// UploadBatchSize bounds request size and backend transaction scope for one
// uploadActivityBatch call.
const UploadBatchSize = 100
