package app

import (
	"context"

	"github.com/Rohith-Kaki/TechClub-Leetcode-Contest/internal/domain"
)

// ProblemRepository stores the curated problem set.
type ProblemRepository interface {
	ListProblems(ctx context.Context, week *int) ([]domain.Problem, error)
	AddProblem(ctx context.Context, p domain.Problem) (domain.Problem, error)
}

// ProfileRepository reads participant identity and holds the access flag.
type ProfileRepository interface {
	GetProfile(ctx context.Context, userID string) (domain.Profile, error)
	GrantAccess(ctx context.Context, userID string) error
}

// CatalogService is thin glue over the problem set and participant profiles.
type CatalogService struct {
	problems ProblemRepository
	profiles ProfileRepository
}

func NewCatalogService(problems ProblemRepository, profiles ProfileRepository) *CatalogService {
	return &CatalogService{problems: problems, profiles: profiles}
}

// ListProblems returns the problem set, optionally filtered by week, ordered
// by week then position.
func (s *CatalogService) ListProblems(ctx context.Context, week *int) ([]domain.Problem, error) {
	return s.problems.ListProblems(ctx, week)
}

// AddProblem inserts a catalog entry (admin surface).
func (s *CatalogService) AddProblem(ctx context.Context, p domain.Problem) (domain.Problem, error) {
	if p.Title == "" || p.Difficulty == "" || p.Link == "" {
		return domain.Problem{}, domain.ErrProblemInvalid
	}
	return s.problems.AddProblem(ctx, p)
}

// Profile returns the participant's identity view plus the access flag.
func (s *CatalogService) Profile(ctx context.Context, userID string) (domain.Profile, error) {
	if userID == "" {
		return domain.Profile{}, domain.ErrParticipantRequired
	}
	return s.profiles.GetProfile(ctx, userID)
}
