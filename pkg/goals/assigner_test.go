package goals

import (
	"testing"
	"time"

	"github.com/stridewell/healthsync/pkg/types"
)

func day(d int) time.Time {
	return time.Date(2026, 8, d, 12, 0, 0, 0, time.UTC)
}

func TestAssign_MatchesTypeAndWindow(t *testing.T) {
	goals := []types.Goal{
		{ID: "g-steps", ActivityType: "steps", StartAt: day(1), EndAt: day(31), Active: true},
		{ID: "g-distance", ActivityType: "distance", StartAt: day(1), EndAt: day(31), Active: true},
		{ID: "g-steps-expired", ActivityType: "steps", StartAt: day(1), EndAt: day(10), Active: true},
		{ID: "g-steps-inactive", ActivityType: "steps", StartAt: day(1), EndAt: day(31), Active: false},
	}

	records := NewAssigner().Assign([]types.ActivityRecord{
		{ActivityType: "steps", RecordedAt: day(20)},
	}, goals)

	if len(records[0].GoalIDs) != 1 || records[0].GoalIDs[0] != "g-steps" {
		t.Errorf("expected only g-steps, got %v", records[0].GoalIDs)
	}
}

func TestAssign_MultipleGoals(t *testing.T) {
	goals := []types.Goal{
		{ID: "g-1", ActivityType: "workout", StartAt: day(1), EndAt: day(31), Active: true},
		{ID: "g-2", ActivityType: "workout", StartAt: day(15), EndAt: day(25), Active: true, ChallengeID: "challenge-1"},
	}

	records := NewAssigner().Assign([]types.ActivityRecord{
		{ActivityType: "workout", RecordedAt: day(20)},
	}, goals)

	if len(records[0].GoalIDs) != 2 {
		t.Errorf("expected both goals, got %v", records[0].GoalIDs)
	}
}

func TestAssign_WindowBoundsInclusive(t *testing.T) {
	goals := []types.Goal{
		{ID: "g-1", ActivityType: "steps", StartAt: day(10), EndAt: day(20), Active: true},
	}
	a := NewAssigner()

	onStart := a.Assign([]types.ActivityRecord{{ActivityType: "steps", RecordedAt: day(10)}}, goals)
	if len(onStart[0].GoalIDs) != 1 {
		t.Error("record on StartAt must match")
	}

	onEnd := a.Assign([]types.ActivityRecord{{ActivityType: "steps", RecordedAt: day(20)}}, goals)
	if len(onEnd[0].GoalIDs) != 1 {
		t.Error("record on EndAt must match")
	}

	after := a.Assign([]types.ActivityRecord{{ActivityType: "steps", RecordedAt: day(21)}}, goals)
	if len(after[0].GoalIDs) != 0 {
		t.Error("record after EndAt must not match")
	}
}

func TestAssign_NoGoalsLeavesRecordsUntouched(t *testing.T) {
	records := NewAssigner().Assign([]types.ActivityRecord{
		{ActivityType: "steps", RecordedAt: day(5)},
	}, nil)

	if records[0].GoalIDs != nil {
		t.Errorf("expected nil GoalIDs, got %v", records[0].GoalIDs)
	}
}

func TestAssign_UnmatchedRecordStillPresent(t *testing.T) {
	goals := []types.Goal{
		{ID: "g-1", ActivityType: "distance", StartAt: day(1), EndAt: day(31), Active: true},
	}

	records := NewAssigner().Assign([]types.ActivityRecord{
		{ActivityType: "steps", RecordedAt: day(5)},
	}, goals)

	if len(records) != 1 {
		t.Fatal("unmatched records must survive assignment")
	}
	if len(records[0].GoalIDs) != 0 {
		t.Errorf("expected no goals, got %v", records[0].GoalIDs)
	}
}
