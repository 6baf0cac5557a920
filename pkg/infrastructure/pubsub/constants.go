package pubsub

// CloudEvent type and source URNs for the sync lifecycle.
const (
	EventTypeSyncRequested = "com.stridewell.healthsync.sync.requested"
	EventTypeSyncCompleted = "com.stridewell.healthsync.sync.completed"
	EventTypeSyncFailed    = "com.stridewell.healthsync.sync.failed"

	EventSourceAPI        = "urn:stridewell:service:api"
	EventSourceSyncRunner = "urn:stridewell:function:sync-runner"
	EventSourceDebugCLI   = "urn:stridewell:cmd:sync-debug"
)
