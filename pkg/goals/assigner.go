// Package goals assigns activity records to the user's active goals and
// challenges. Assignment is purely in-memory: the orchestrator fetches the
// active-goal set once per sync pass and hands it in.
package goals

import "github.com/stridewell/healthsync/pkg/types"

// Assigner stamps records with the goals they count toward.
type Assigner struct{}

func NewAssigner() *Assigner {
	return &Assigner{}
}

// Assign sets GoalIDs on each record to every goal whose activity type
// matches and whose [StartAt, EndAt] window contains the record's
// RecordedAt. A record matching zero goals is left unassigned and still
// uploads; unassigned activity is tracked independently of any goal.
func (a *Assigner) Assign(records []types.ActivityRecord, activeGoals []types.Goal) []types.ActivityRecord {
	if len(activeGoals) == 0 {
		return records
	}

	for i := range records {
		records[i].GoalIDs = matchGoals(records[i], activeGoals)
	}
	return records
}

func matchGoals(record types.ActivityRecord, goals []types.Goal) []string {
	var ids []string
	for _, g := range goals {
		if !g.Active {
			continue
		}
		if g.ActivityType != record.ActivityType {
			continue
		}
		if record.RecordedAt.Before(g.StartAt) || record.RecordedAt.After(g.EndAt) {
			continue
		}
		ids = append(ids, g.ID)
	}
	return ids
}
