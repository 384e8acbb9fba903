package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/wind-smp/market-backend/internal/apperr"
	"github.com/wind-smp/market-backend/internal/model"
	"github.com/wind-smp/market-backend/internal/repository"
	"gorm.io/gorm"
)

// ProfileStats are derived per read from the request store; nothing here is
// stored on the user row.
type ProfileStats struct {
	CreatedOpen          int64
	CreatedTotal         int64
	ClaimedActive        int64
	CompletedAsClaimer   int64
	CompletedSales       int64
	SuccessfulDealsTotal int64
}

type Profile struct {
	User  *model.User
	Stats ProfileStats
}

type ProfileService interface {
	Get(ctx context.Context, username string) (*Profile, error)
	UpdateBio(ctx context.Context, actor Identity, bio string) (*model.User, error)
}

type profileService struct {
	users    repository.UserRepository
	requests repository.RequestRepository
}

func NewProfileService(users repository.UserRepository, requests repository.RequestRepository) ProfileService {
	return &profileService{users: users, requests: requests}
}

func (s *profileService) Get(ctx context.Context, username string) (*Profile, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.WithMessage(apperr.ErrNotFound, "profile not found")
		}
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}

	var (
		open      = []model.RequestStatus{model.RequestStatusOpen}
		claimed   = []model.RequestStatus{model.RequestStatusClaimed}
		completed = []model.RequestStatus{model.RequestStatusCompleted}
	)
	stats := ProfileStats{}
	if stats.CreatedOpen, err = s.requests.CountByCreator(ctx, user.ID, open); err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	if stats.CreatedTotal, err = s.requests.CountByCreator(ctx, user.ID, nil); err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	if stats.ClaimedActive, err = s.requests.CountByClaimer(ctx, user.ID, claimed); err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	if stats.CompletedAsClaimer, err = s.requests.CountByClaimer(ctx, user.ID, completed); err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	if stats.CompletedSales, err = s.requests.CountByPreferredSeller(ctx, user.ID, completed); err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	completedAsCreator, err := s.requests.CountByCreator(ctx, user.ID, completed)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	stats.SuccessfulDealsTotal = stats.CompletedAsClaimer + completedAsCreator

	return &Profile{User: user, Stats: stats}, nil
}

func (s *profileService) UpdateBio(ctx context.Context, actor Identity, bio string) (*model.User, error) {
	bio = strings.TrimSpace(bio)
	if utf8.RuneCountInString(bio) > 500 {
		return nil, apperr.Validation("bio must be at most 500 characters")
	}
	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	if bio == "" {
		user.Bio = nil
	} else {
		user.Bio = &bio
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	return user, nil
}
