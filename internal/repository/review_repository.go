package repository

import (
	"context"

	"github.com/wind-smp/market-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReviewRepository interface {
	Upsert(ctx context.Context, rv *model.Review) error
	FindByPair(ctx context.Context, targetUserID, authorID string) (*model.Review, error)
	ListByTarget(ctx context.Context, targetUserID string) ([]model.Review, error)
}

type reviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

// Upsert keeps one review per (target, author) pair, replacing rating and
// comment when the author reviews the same profile again.
func (r *reviewRepository) Upsert(ctx context.Context, rv *model.Review) error {
	return r.db.WithContext(ctx).
		Omit("Author").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "target_user_id"}, {Name: "author_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "updated_at"}),
		}).
		Create(rv).Error
}

func (r *reviewRepository) FindByPair(ctx context.Context, targetUserID, authorID string) (*model.Review, error) {
	var rv model.Review
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where("target_user_id = ? AND author_id = ?", targetUserID, authorID).
		First(&rv).Error; err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *reviewRepository) ListByTarget(ctx context.Context, targetUserID string) ([]model.Review, error) {
	var list []model.Review
	if err := r.db.WithContext(ctx).
		Preload("Author").
		Where("target_user_id = ?", targetUserID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
