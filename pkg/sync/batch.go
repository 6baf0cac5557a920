package sync

import "github.com/stridewell/healthsync/pkg/types"

// partition splits records into fixed-size batches, preserving order. The
// final batch holds the remainder: 250 records at size 100 yield batches of
// 100, 100 and 50.
func partition(records []types.ActivityRecord, size int) [][]types.ActivityRecord {
	if len(records) == 0 {
		return nil
	}

	batches := make([][]types.ActivityRecord, 0, (len(records)+size-1)/size)
	for start := 0; start < len(records); start += size {
		end := start + size
		if end > len(records) {
			end = len(records)
		}
		batches = append(batches, records[start:end])
	}
	return batches
}
