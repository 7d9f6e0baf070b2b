package app

import (
	"context"
	"log"
	"sort"
	"time"

	"github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/domain"
)

// DefaultThresholdSeconds is the anti-cheat floor used when no positive
// threshold is configured: solves faster than this are flagged for review.
const DefaultThresholdSeconds = 600

// ProgressRepository abstracts durable per-(participant, problem) progress
// state. Upsert must be atomic per key and honor the one-way transitions:
// a solved row is never modified again and start_ts is never overwritten.
type ProgressRepository interface {
	Get(ctx context.Context, userID, problemID string) (domain.ProgressRecord, bool, error)
	Upsert(ctx context.Context, record domain.ProgressRecord) (domain.ProgressRecord, error)
	RecordFlag(ctx context.Context, userID, problemID, reason string, at time.Time) error
	SolvedProblemIDs(ctx context.Context, userID string) ([]string, error)
	LeaderboardRows(ctx context.Context) ([]domain.LeaderboardRow, error)
}

// LeaderboardSource serves leaderboard reads. Cache implementations drop
// their snapshot on Invalidate; the direct source treats it as a no-op.
type LeaderboardSource interface {
	LeaderboardRows(ctx context.Context) ([]domain.LeaderboardRow, error)
	Invalidate(ctx context.Context)
}

// ProgressService orchestrates the start/finish state machine against the
// store using the pure evaluator, and projects the leaderboard.
type ProgressService struct {
	progress     ProgressRepository
	leaderboards LeaderboardSource
	broadcaster  *LeaderboardBroadcaster
	threshold    int
	now          func() time.Time
}

func NewProgressService(progress ProgressRepository, leaderboards LeaderboardSource, thresholdSeconds int) *ProgressService {
	return NewProgressServiceWithClock(progress, leaderboards, thresholdSeconds, time.Now)
}

// NewProgressServiceWithClock allows deterministic timestamps in tests.
func NewProgressServiceWithClock(progress ProgressRepository, leaderboards LeaderboardSource, thresholdSeconds int, now func() time.Time) *ProgressService {
	if thresholdSeconds <= 0 {
		thresholdSeconds = DefaultThresholdSeconds
	}
	if leaderboards == nil {
		leaderboards = directLeaderboard{progress}
	}
	return &ProgressService{
		progress:     progress,
		leaderboards: leaderboards,
		threshold:    thresholdSeconds,
		now:          now,
	}
}

// AttachBroadcaster wires live leaderboard publishing into finish calls.
func (s *ProgressService) AttachBroadcaster(b *LeaderboardBroadcaster) {
	s.broadcaster = b
}

// Start records the first time a participant opens a problem. Repeated calls
// return the original start_ts untouched.
func (s *ProgressService) Start(ctx context.Context, userID, problemID string) (domain.StartResult, error) {
	if err := requireIDs(userID, problemID); err != nil {
		return domain.StartResult{}, err
	}

	existing, ok, err := s.progress.Get(ctx, userID, problemID)
	if err != nil {
		return domain.StartResult{}, err
	}
	var prior *domain.ProgressRecord
	if ok {
		prior = &existing
	}

	outcome := EvaluateStart(prior, userID, problemID, s.now().UTC())
	record := outcome.Record
	if outcome.Changed {
		record, err = s.progress.Upsert(ctx, record)
		if err != nil {
			return domain.StartResult{}, err
		}
	}
	return domain.StartResult{StartTS: record.StartTS, Mode: outcome.Mode}, nil
}

// Finish marks an attempt done, evaluates the anti-cheat rules, and persists
// the result. It is idempotent: once solved, later calls change nothing.
func (s *ProgressService) Finish(ctx context.Context, userID, problemID string, solved bool) (domain.FinishResult, error) {
	if err := requireIDs(userID, problemID); err != nil {
		return domain.FinishResult{}, err
	}

	existing, ok, err := s.progress.Get(ctx, userID, problemID)
	if err != nil {
		return domain.FinishResult{}, err
	}
	var prior *domain.ProgressRecord
	if ok {
		prior = &existing
	}

	outcome := EvaluateFinish(prior, userID, problemID, s.now().UTC(), solved, s.threshold)
	record := outcome.Record
	mode := outcome.Mode

	if outcome.Changed {
		record, err = s.progress.Upsert(ctx, record)
		if err != nil {
			return domain.FinishResult{}, err
		}
		if lostFinishRace(outcome.Record, record) {
			// A concurrent finish committed first; the store kept its row.
			mode = ModeAlreadySolved
		}
	}

	if mode != ModeAlreadySolved && outcome.FlagReason != "" && record.FlaggedAt != nil {
		// The record's flagged column is authoritative; the audit row is
		// best-effort evidence for manual review.
		if err := s.progress.RecordFlag(ctx, userID, problemID, outcome.FlagReason, *record.FlaggedAt); err != nil {
			log.Printf("flag audit write failed for user=%s problem=%s: %v", userID, problemID, err)
		}
	}

	if mode != ModeAlreadySolved && outcome.Changed {
		s.publishLeaderboard(ctx)
	}

	return domain.FinishResult{
		Record:          record,
		Mode:            mode,
		Flagged:         record.Flagged,
		DurationSeconds: record.DurationSeconds,
	}, nil
}

// Leaderboard recomputes the standings projection: solved count descending,
// ties broken by who completed their tally first, then by participant id.
func (s *ProgressService) Leaderboard(ctx context.Context) (domain.Leaderboard, error) {
	rows, err := s.leaderboards.LeaderboardRows(ctx)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].TotalSolved != rows[j].TotalSolved {
			return rows[i].TotalSolved > rows[j].TotalSolved
		}
		if !rows[i].LastSolvedAt.Equal(rows[j].LastSolvedAt) {
			return rows[i].LastSolvedAt.Before(rows[j].LastSolvedAt)
		}
		return rows[i].UserID < rows[j].UserID
	})
	return domain.Leaderboard{Rows: rows, UpdatedAt: s.now().UTC()}, nil
}

// SolvedProblemIDs lists the problems a participant has solved.
func (s *ProgressService) SolvedProblemIDs(ctx context.Context, userID string) ([]string, error) {
	if userID == "" {
		return nil, domain.ErrParticipantRequired
	}
	return s.progress.SolvedProblemIDs(ctx, userID)
}

func (s *ProgressService) publishLeaderboard(ctx context.Context) {
	s.leaderboards.Invalidate(ctx)
	if s.broadcaster == nil {
		return
	}
	lb, err := s.Leaderboard(ctx)
	if err != nil {
		log.Printf("leaderboard broadcast skipped: %v", err)
		return
	}
	s.broadcaster.Publish(lb)
}

func requireIDs(userID, problemID string) error {
	if userID == "" {
		return domain.ErrParticipantRequired
	}
	if problemID == "" {
		return domain.ErrProblemRequired
	}
	return nil
}

// lostFinishRace reports whether the store kept a concurrently committed
// solve instead of the record this call evaluated.
func lostFinishRace(wanted, stored domain.ProgressRecord) bool {
	if !stored.Solved {
		return false
	}
	if wanted.SolvedAt == nil || stored.SolvedAt == nil {
		return wanted.SolvedAt == nil && stored.SolvedAt != nil
	}
	return !stored.SolvedAt.Equal(*wanted.SolvedAt)
}

// directLeaderboard reads straight from the progress store with no caching.
type directLeaderboard struct {
	progress ProgressRepository
}

func (d directLeaderboard) LeaderboardRows(ctx context.Context) ([]domain.LeaderboardRow, error) {
	return d.progress.LeaderboardRows(ctx)
}

func (d directLeaderboard) Invalidate(context.Context) {}
