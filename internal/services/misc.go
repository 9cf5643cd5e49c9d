package services

import (
	"context"

	"github.com/jobportal/apiserver/types"
)

// StatsRepository answers dashboard aggregates.
type StatsRepository interface {
	Dashboard(ctx context.Context) (types.DashboardStats, error)
}

type StatsService struct {
	repo StatsRepository
}

func NewStatsService(repo StatsRepository) *StatsService {
	return &StatsService{repo: repo}
}

func (s *StatsService) Dashboard(ctx context.Context) (types.DashboardStats, error) {
	return s.repo.Dashboard(ctx)
}

// NewsletterRepository stores newsletter subscriptions.
type NewsletterRepository interface {
	Subscribe(ctx context.Context, email string) (bool, error)
}

type NewsletterService struct {
	repo NewsletterRepository
}

func NewNewsletterService(repo NewsletterRepository) *NewsletterService {
	return &NewsletterService{repo: repo}
}

// Subscribe adds email to the newsletter. Subscribing twice is not an error;
// the result reports whether the address was new.
func (s *NewsletterService) Subscribe(ctx context.Context, email string) (bool, error) {
	email, err := normalizeEmail(email)
	if err != nil {
		return false, err
	}
	return s.repo.Subscribe(ctx, email)
}
