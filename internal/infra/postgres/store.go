package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// Store implements the progress, problem, and profile repositories on top of
// Postgres. The (user_id, problem_id) uniqueness constraint plus the guarded
// ON CONFLICT upsert make each read-evaluate-write atomic per key: two racing
// finish calls cannot both commit divergent outcomes.
type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const progressColumns = `user_id, problem_id, start_ts, end_ts, duration_seconds, solved, solved_at, flagged, flagged_at, created_at, updated_at`

func (s *Store) Get(ctx context.Context, userID, problemID string) (domain.ProgressRecord, bool, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+progressColumns+` FROM user_progress WHERE user_id=$1 AND problem_id=$2`,
		userID, problemID)
	record, err := scanProgress(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ProgressRecord{}, false, nil
	}
	if err != nil {
		return domain.ProgressRecord{}, false, fmt.Errorf("get progress: %w", err)
	}
	return record, true, nil
}

// Upsert writes the record in a single statement. The WHERE guard keeps
// solved rows immutable, and the COALESCE on start_ts/flagged_at means those
// columns only ever gain information. When the guard rejects the update (a
// concurrent finish already solved the row), the stored row is returned.
func (s *Store) Upsert(ctx context.Context, record domain.ProgressRecord) (domain.ProgressRecord, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO user_progress (`+progressColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (user_id, problem_id) DO UPDATE SET
			start_ts         = COALESCE(user_progress.start_ts, EXCLUDED.start_ts),
			end_ts           = EXCLUDED.end_ts,
			duration_seconds = EXCLUDED.duration_seconds,
			solved           = EXCLUDED.solved,
			solved_at        = EXCLUDED.solved_at,
			flagged          = user_progress.flagged OR EXCLUDED.flagged,
			flagged_at       = COALESCE(user_progress.flagged_at, EXCLUDED.flagged_at),
			updated_at       = EXCLUDED.updated_at
		WHERE NOT user_progress.solved
		RETURNING `+progressColumns,
		record.UserID, record.ProblemID, record.StartTS, record.EndTS,
		record.DurationSeconds, record.Solved, record.SolvedAt,
		record.Flagged, record.FlaggedAt, record.CreatedAt, record.UpdatedAt)

	stored, err := scanProgress(row)
	if errors.Is(err, pgx.ErrNoRows) {
		// Guard fired: the row is already solved. Return it as-is.
		existing, ok, getErr := s.Get(ctx, record.UserID, record.ProblemID)
		if getErr != nil {
			return domain.ProgressRecord{}, getErr
		}
		if !ok {
			return domain.ProgressRecord{}, fmt.Errorf("upsert progress: row vanished for user=%s problem=%s", record.UserID, record.ProblemID)
		}
		return existing, nil
	}
	if err != nil {
		return domain.ProgressRecord{}, fmt.Errorf("upsert progress: %w", err)
	}
	return stored, nil
}

func (s *Store) RecordFlag(ctx context.Context, userID, problemID, reason string, at time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO flagged_problems (user_id, problem_id, reason, flagged_at)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (user_id, problem_id) DO UPDATE SET
			reason = EXCLUDED.reason,
			flagged_at = EXCLUDED.flagged_at`,
		userID, problemID, reason, at)
	if err != nil {
		return fmt.Errorf("record flag: %w", err)
	}
	return nil
}

func (s *Store) SolvedProblemIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT problem_id FROM user_progress WHERE user_id=$1 AND solved ORDER BY problem_id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("solved problems: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("solved problems scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *Store) LeaderboardRows(ctx context.Context) ([]domain.LeaderboardRow, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT up.user_id,
		       COALESCE(p.full_name, '') AS full_name,
		       COUNT(*)::int AS total_solved,
		       MAX(up.solved_at) AS last_solved_at
		FROM user_progress up
		LEFT JOIN profiles p ON p.id = up.user_id
		WHERE up.solved
		GROUP BY up.user_id, p.full_name
		ORDER BY total_solved DESC, last_solved_at ASC`)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}
	defer rows.Close()

	standings := make([]domain.LeaderboardRow, 0)
	for rows.Next() {
		var (
			row      domain.LeaderboardRow
			solvedAt *time.Time
		)
		if err := rows.Scan(&row.UserID, &row.FullName, &row.TotalSolved, &solvedAt); err != nil {
			return nil, fmt.Errorf("leaderboard scan: %w", err)
		}
		if solvedAt != nil {
			row.LastSolvedAt = *solvedAt
		}
		standings = append(standings, row)
	}
	return standings, rows.Err()
}

func (s *Store) ListProblems(ctx context.Context, week *int) ([]domain.Problem, error) {
	query := `SELECT id::text, title, difficulty, link, week, position, created_at
		FROM problems`
	args := []interface{}{}
	if week != nil {
		query += ` WHERE week=$1`
		args = append(args, *week)
	}
	query += ` ORDER BY week ASC NULLS LAST, position ASC NULLS LAST`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list problems: %w", err)
	}
	defer rows.Close()

	problems := make([]domain.Problem, 0)
	for rows.Next() {
		var p domain.Problem
		if err := rows.Scan(&p.ID, &p.Title, &p.Difficulty, &p.Link, &p.Week, &p.Position, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("list problems scan: %w", err)
		}
		problems = append(problems, p)
	}
	return problems, rows.Err()
}

func (s *Store) AddProblem(ctx context.Context, p domain.Problem) (domain.Problem, error) {
	row := s.pool.QueryRow(ctx, `
		INSERT INTO problems (title, difficulty, link, week, position)
		VALUES ($1,$2,$3,$4,$5)
		RETURNING id::text, created_at`,
		p.Title, p.Difficulty, p.Link, p.Week, p.Position)
	if err := row.Scan(&p.ID, &p.CreatedAt); err != nil {
		return domain.Problem{}, fmt.Errorf("add problem: %w", err)
	}
	return p, nil
}

func (s *Store) GetProfile(ctx context.Context, userID string) (domain.Profile, error) {
	var profile domain.Profile
	err := s.pool.QueryRow(ctx,
		`SELECT id, full_name, COALESCE(phone, ''), has_access FROM profiles WHERE id=$1`,
		userID).Scan(&profile.ID, &profile.FullName, &profile.Phone, &profile.HasAccess)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	if err != nil {
		return domain.Profile{}, fmt.Errorf("get profile: %w", err)
	}
	return profile, nil
}

func (s *Store) GrantAccess(ctx context.Context, userID string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE profiles SET has_access=TRUE WHERE id=$1`, userID)
	if err != nil {
		return fmt.Errorf("grant access: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}

func scanProgress(row pgx.Row) (domain.ProgressRecord, error) {
	var record domain.ProgressRecord
	err := row.Scan(
		&record.UserID, &record.ProblemID, &record.StartTS, &record.EndTS,
		&record.DurationSeconds, &record.Solved, &record.SolvedAt,
		&record.Flagged, &record.FlaggedAt, &record.CreatedAt, &record.UpdatedAt)
	return record, err
}
