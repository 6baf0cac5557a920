package sync

import "fmt"

// SyncLogCreationError means the backend could not open a SyncLog, so no
// work was attempted and no audit record exists. Retryable: there is no
// partial state to clean up.
type SyncLogCreationError struct {
	Err error
}

func (e *SyncLogCreationError) Error() string {
	return fmt.Sprintf("failed to create sync log: %v", e.Err)
}

func (e *SyncLogCreationError) Unwrap() error {
	return e.Err
}

// BatchUploadError describes one failed batch-insert call. It is captured
// into the aggregated error list and never aborts the remaining batches.
type BatchUploadError struct {
	Batch   int
	Records int
	Err     error
}

func (e *BatchUploadError) Error() string {
	return fmt.Sprintf("batch %d upload failed (%d records): %v", e.Batch, e.Records, e.Err)
}

func (e *BatchUploadError) Unwrap() error {
	return e.Err
}
