package memory

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/domain"
)

type progressKey struct {
	userID    string
	problemID string
}

// Store is an in-memory implementation of the progress, problem, and profile
// repositories, used for demo mode and unit tests. All writes go through one
// mutex, so the upsert guards below are applied atomically per key, mirroring
// the conflict-key discipline of the postgres store.
type Store struct {
	mu       sync.RWMutex
	progress map[progressKey]domain.ProgressRecord
	flags    map[progressKey]domain.FlagAudit
	problems []domain.Problem
	profiles map[string]domain.Profile
	nextID   int
}

func NewStore() *Store {
	return &Store{
		progress: make(map[progressKey]domain.ProgressRecord),
		flags:    make(map[progressKey]domain.FlagAudit),
		profiles: make(map[string]domain.Profile),
	}
}

func (s *Store) Get(_ context.Context, userID, problemID string) (domain.ProgressRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.progress[progressKey{userID, problemID}]
	return record, ok, nil
}

// Upsert inserts or replaces the record for its key while enforcing the
// one-way transitions: a solved row is immutable and start_ts, solved_at,
// flagged, and flagged_at never lose information once set.
func (s *Store) Upsert(_ context.Context, record domain.ProgressRecord) (domain.ProgressRecord, error) {
	key := progressKey{record.UserID, record.ProblemID}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.progress[key]
	if ok {
		if existing.Solved {
			return existing, nil
		}
		record.CreatedAt = existing.CreatedAt
		if existing.StartTS != nil {
			record.StartTS = existing.StartTS
		}
		if existing.Flagged {
			record.Flagged = true
			record.FlaggedAt = existing.FlaggedAt
		}
	}
	s.progress[key] = record
	return record, nil
}

// RecordFlag upserts the audit entry for the key, last writer wins.
func (s *Store) RecordFlag(_ context.Context, userID, problemID, reason string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[progressKey{userID, problemID}] = domain.FlagAudit{
		UserID:    userID,
		ProblemID: problemID,
		Reason:    reason,
		FlaggedAt: at,
	}
	return nil
}

// FlagAudit returns the stored audit entry, if any. Used by tests and the
// manual review tooling.
func (s *Store) FlagAudit(userID, problemID string) (domain.FlagAudit, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	audit, ok := s.flags[progressKey{userID, problemID}]
	return audit, ok
}

func (s *Store) SolvedProblemIDs(_ context.Context, userID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0)
	for key, record := range s.progress {
		if key.userID == userID && record.Solved {
			ids = append(ids, key.problemID)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *Store) LeaderboardRows(_ context.Context) ([]domain.LeaderboardRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byUser := make(map[string]*domain.LeaderboardRow)
	for key, record := range s.progress {
		if !record.Solved {
			continue
		}
		row, ok := byUser[key.userID]
		if !ok {
			row = &domain.LeaderboardRow{UserID: key.userID}
			if profile, found := s.profiles[key.userID]; found {
				row.FullName = profile.FullName
			}
			byUser[key.userID] = row
		}
		row.TotalSolved++
		if record.SolvedAt != nil && record.SolvedAt.After(row.LastSolvedAt) {
			row.LastSolvedAt = *record.SolvedAt
		}
	}

	rows := make([]domain.LeaderboardRow, 0, len(byUser))
	for _, row := range byUser {
		rows = append(rows, *row)
	}
	return rows, nil
}

func (s *Store) ListProblems(_ context.Context, week *int) ([]domain.Problem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	problems := make([]domain.Problem, 0, len(s.problems))
	for _, p := range s.problems {
		if week != nil && (p.Week == nil || *p.Week != *week) {
			continue
		}
		problems = append(problems, p)
	}
	sort.SliceStable(problems, func(i, j int) bool {
		wi, wj := intOrZero(problems[i].Week), intOrZero(problems[j].Week)
		if wi != wj {
			return wi < wj
		}
		return intOrZero(problems[i].Position) < intOrZero(problems[j].Position)
	})
	return problems, nil
}

func (s *Store) AddProblem(_ context.Context, p domain.Problem) (domain.Problem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	p.ID = strconv.Itoa(s.nextID)
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
	}
	s.problems = append(s.problems, p)
	return p, nil
}

func (s *Store) GetProfile(_ context.Context, userID string) (domain.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	return profile, nil
}

func (s *Store) GrantAccess(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return domain.ErrProfileNotFound
	}
	profile.HasAccess = true
	s.profiles[userID] = profile
	return nil
}

// SeedProfiles loads identity-provider data for demo mode and tests.
func (s *Store) SeedProfiles(profiles []domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range profiles {
		s.profiles[p.ID] = p
	}
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
