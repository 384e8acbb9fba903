package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/wind-smp/market-backend/internal/apperr"
	"github.com/wind-smp/market-backend/internal/model"
	"github.com/wind-smp/market-backend/internal/repository"
	"gorm.io/gorm"
)

type ReviewService interface {
	Upsert(ctx context.Context, actor Identity, targetUsername string, rating int, comment string) (*model.Review, error)
	ListFor(ctx context.Context, targetUsername string) ([]model.Review, error)
}

type reviewService struct {
	reviews repository.ReviewRepository
	users   repository.UserRepository
}

func NewReviewService(reviews repository.ReviewRepository, users repository.UserRepository) ReviewService {
	return &reviewService{reviews: reviews, users: users}
}

func (s *reviewService) Upsert(ctx context.Context, actor Identity, targetUsername string, rating int, comment string) (*model.Review, error) {
	target, err := s.findUser(ctx, targetUsername)
	if err != nil {
		return nil, err
	}
	if target.ID == actor.ID {
		return nil, apperr.Validation("you cannot review yourself")
	}
	if rating < 1 || rating > 5 {
		return nil, apperr.Validation("rating must be between 1 and 5")
	}
	comment = strings.TrimSpace(comment)
	if n := utf8.RuneCountInString(comment); n < 3 || n > 300 {
		return nil, apperr.Validation("comment must be 3 to 300 characters")
	}

	rv := &model.Review{
		ID:           uuid.NewString(),
		TargetUserID: target.ID,
		AuthorID:     actor.ID,
		Rating:       rating,
		Comment:      comment,
	}
	if err := s.reviews.Upsert(ctx, rv); err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	saved, err := s.reviews.FindByPair(ctx, target.ID, actor.ID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	return saved, nil
}

func (s *reviewService) ListFor(ctx context.Context, targetUsername string) ([]model.Review, error) {
	target, err := s.findUser(ctx, targetUsername)
	if err != nil {
		return nil, err
	}
	list, err := s.reviews.ListByTarget(ctx, target.ID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	return list, nil
}

func (s *reviewService) findUser(ctx context.Context, username string) (*model.User, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.WithMessage(apperr.ErrNotFound, "profile not found")
		}
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	return user, nil
}
