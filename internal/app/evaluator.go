package app

import (
	"fmt"
	"time"

	"github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/domain"
)

// Modes reported back to clients for every progress transition.
const (
	ModeTimeStarted            = "time_started"
	ModeAlreadyStarted         = "already_started"
	ModeInsertedNoStartFlagged = "inserted_no_start_ts_flagged"
	ModeAlreadySolved          = "already_solved_no_change"
	ModeUpdatedFirstSolve      = "updated_first_solve"
)

// Flag reasons persisted to the audit log.
const (
	reasonNoStart         = "Solved without starting (missing start_ts)"
	reasonNoStartExisting = "Solved without starting (missing start_ts in existing row)"
)

// StartOutcome is the evaluator's verdict for a start event.
type StartOutcome struct {
	Record  domain.ProgressRecord
	Mode    string
	Changed bool
}

// FinishOutcome is the evaluator's verdict for a finish event. FlagReason is
// non-empty when this event triggered an anti-cheat rule.
type FinishOutcome struct {
	Record     domain.ProgressRecord
	Mode       string
	Changed    bool
	FlagReason string
}

// EvaluateStart decides the record state after a start event. A start never
// overwrites an existing start_ts: the first click wins, forever.
func EvaluateStart(existing *domain.ProgressRecord, userID, problemID string, at time.Time) StartOutcome {
	if existing != nil {
		return StartOutcome{Record: *existing, Mode: ModeAlreadyStarted}
	}
	start := at
	return StartOutcome{
		Record: domain.ProgressRecord{
			UserID:    userID,
			ProblemID: problemID,
			StartTS:   &start,
			CreatedAt: at,
			UpdatedAt: at,
		},
		Mode:    ModeTimeStarted,
		Changed: true,
	}
}

// EvaluateFinish decides the record state after a finish event.
//
// State machine: NotStarted -> Started -> {Solved, Solved+Flagged}. Solved is
// absorbing: once set, repeated finishes change nothing. Flagged is sticky and
// only ever transitions false -> true, either when the solve beats the
// anti-cheat threshold or when the finish arrives with no recorded start.
func EvaluateFinish(existing *domain.ProgressRecord, userID, problemID string, at time.Time, solved bool, thresholdSeconds int) FinishOutcome {
	if existing != nil && existing.Solved {
		return FinishOutcome{Record: *existing, Mode: ModeAlreadySolved}
	}

	end := at

	// Finish without any prior start: modeled as a flagged solve, not an error.
	if existing == nil {
		record := domain.ProgressRecord{
			UserID:    userID,
			ProblemID: problemID,
			EndTS:     &end,
			Solved:    solved,
			Flagged:   true,
			FlaggedAt: &end,
			CreatedAt: at,
			UpdatedAt: at,
		}
		if solved {
			record.SolvedAt = &end
		}
		return FinishOutcome{
			Record:     record,
			Mode:       ModeInsertedNoStartFlagged,
			Changed:    true,
			FlagReason: reasonNoStart,
		}
	}

	duration := domain.DurationSeconds(existing.StartTS, &end)

	flagged := existing.Flagged
	flaggedAt := existing.FlaggedAt
	reason := ""
	if existing.StartTS == nil {
		// Row exists but was never properly started; should not happen when
		// clients call start first, handled anyway.
		flagged = true
		flaggedAt = &end
		reason = reasonNoStartExisting
	} else if duration != nil && *duration < thresholdSeconds && !flagged {
		flagged = true
		flaggedAt = &end
		reason = fmt.Sprintf("duration %ds < threshold %ds", *duration, thresholdSeconds)
	}

	record := *existing
	record.EndTS = &end
	record.DurationSeconds = duration
	record.Solved = solved
	record.SolvedAt = nil
	if solved {
		record.SolvedAt = &end
	}
	record.Flagged = flagged
	record.FlaggedAt = flaggedAt
	record.UpdatedAt = at

	return FinishOutcome{
		Record:     record,
		Mode:       ModeUpdatedFirstSolve,
		Changed:    true,
		FlagReason: reason,
	}
}
