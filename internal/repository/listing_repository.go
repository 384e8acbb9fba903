package repository

import (
	"context"

	"github.com/wind-smp/market-backend/internal/model"
	"gorm.io/gorm"
)

type ListingRepository interface {
	Create(ctx context.Context, l *model.Listing) error
	FindByID(ctx context.Context, id string) (*model.Listing, error)
	ListActive(ctx context.Context) ([]model.Listing, error)
	Update(ctx context.Context, l *model.Listing) error
}

type listingRepository struct {
	db *gorm.DB
}

func NewListingRepository(db *gorm.DB) ListingRepository {
	return &listingRepository{db: db}
}

func (r *listingRepository) Create(ctx context.Context, l *model.Listing) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *listingRepository) FindByID(ctx context.Context, id string) (*model.Listing, error) {
	var l model.Listing
	if err := r.db.WithContext(ctx).
		Preload("Owner").
		First(&l, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *listingRepository) ListActive(ctx context.Context) ([]model.Listing, error) {
	var list []model.Listing
	if err := r.db.WithContext(ctx).
		Preload("Owner").
		Where("is_archived = ?", false).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *listingRepository) Update(ctx context.Context, l *model.Listing) error {
	return r.db.WithContext(ctx).Omit("Owner").Save(l).Error
}
