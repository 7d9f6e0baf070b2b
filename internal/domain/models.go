package domain

import "time"

// ProgressRecord tracks one participant working one problem. There is at most
// one record per (UserID, ProblemID) pair; it is created lazily on the first
// start or finish call and never deleted.
type ProgressRecord struct {
	UserID          string     `json:"user_id"`
	ProblemID       string     `json:"problem_id"`
	StartTS         *time.Time `json:"start_ts"`
	EndTS           *time.Time `json:"end_ts"`
	DurationSeconds *int       `json:"duration_seconds"`
	Solved          bool       `json:"solved"`
	SolvedAt        *time.Time `json:"solved_at"`
	Flagged         bool       `json:"flagged"`
	FlaggedAt       *time.Time `json:"flagged_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// FlagAudit records why a progress record was flagged, kept separately from
// the record itself so manual review survives later updates.
type FlagAudit struct {
	UserID    string    `json:"user_id"`
	ProblemID string    `json:"problem_id"`
	Reason    string    `json:"reason"`
	FlaggedAt time.Time `json:"flagged_at"`
}

// LeaderboardRow is a derived standing, never stored.
type LeaderboardRow struct {
	UserID       string    `json:"user_id"`
	FullName     string    `json:"full_name"`
	TotalSolved  int       `json:"total_solved"`
	LastSolvedAt time.Time `json:"last_solved_at"`
}

// Leaderboard is the ordered standings snapshot returned to clients.
type Leaderboard struct {
	Rows      []LeaderboardRow `json:"leaderboard"`
	UpdatedAt time.Time        `json:"updatedAt"`
}

// Problem is a catalog entry pointing at an external judge.
type Problem struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Difficulty string    `json:"difficulty"`
	Link       string    `json:"link"`
	Week       *int      `json:"week"`
	Position   *int      `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
}

// Profile mirrors the identity provider's view of a participant plus the
// binary access flag flipped by payment verification.
type Profile struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	Phone     string `json:"phone"`
	HasAccess bool   `json:"has_access"`
}

// PaymentOrder is the gateway order handed back to the checkout UI.
type PaymentOrder struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// StartResult is the outcome of a progress start call. StartTS can be nil
// when the only existing record came from an anomalous finish-without-start.
type StartResult struct {
	StartTS *time.Time `json:"start_ts"`
	Mode    string     `json:"mode"`
}

// FinishResult is the outcome of a progress finish call.
type FinishResult struct {
	Record          ProgressRecord `json:"progress"`
	Mode            string         `json:"mode"`
	Flagged         bool           `json:"flagged"`
	DurationSeconds *int           `json:"duration_seconds"`
}
