package repository

import (
	"context"

	"github.com/wind-smp/market-backend/internal/model"
	"gorm.io/gorm"
)

type RequestRepository interface {
	Create(ctx context.Context, req *model.PurchaseRequest) error
	FindByID(ctx context.Context, id string) (*model.PurchaseRequest, error)
	ListByStatuses(ctx context.Context, statuses []model.RequestStatus) ([]model.PurchaseRequest, error)
	ListByCreator(ctx context.Context, creatorID string) ([]model.PurchaseRequest, error)
	ListByClaimer(ctx context.Context, claimerID string, statuses []model.RequestStatus) ([]model.PurchaseRequest, error)
	ListIncoming(ctx context.Context, userID string) ([]model.PurchaseRequest, error)
	Claim(ctx context.Context, id, claimerID string) (int64, error)
	UpdateIfStatus(ctx context.Context, id string, from []model.RequestStatus, fields map[string]interface{}) (int64, error)
	CountByCreator(ctx context.Context, creatorID string, statuses []model.RequestStatus) (int64, error)
	CountByClaimer(ctx context.Context, claimerID string, statuses []model.RequestStatus) (int64, error)
	CountByPreferredSeller(ctx context.Context, sellerID string, statuses []model.RequestStatus) (int64, error)
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) withNames(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Preload("Creator").
		Preload("Claimer").
		Preload("PreferredSeller")
}

func (r *requestRepository) Create(ctx context.Context, req *model.PurchaseRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id string) (*model.PurchaseRequest, error) {
	var req model.PurchaseRequest
	if err := r.withNames(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) ListByStatuses(ctx context.Context, statuses []model.RequestStatus) ([]model.PurchaseRequest, error) {
	q := r.withNames(ctx)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var list []model.PurchaseRequest
	if err := q.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *requestRepository) ListByCreator(ctx context.Context, creatorID string) ([]model.PurchaseRequest, error) {
	var list []model.PurchaseRequest
	if err := r.withNames(ctx).
		Where("creator_id = ?", creatorID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *requestRepository) ListByClaimer(ctx context.Context, claimerID string, statuses []model.RequestStatus) ([]model.PurchaseRequest, error) {
	q := r.withNames(ctx).Where("claimer_id = ?", claimerID)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var list []model.PurchaseRequest
	if err := q.Order("created_at DESC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// ListIncoming returns the requests waiting on userID: open requests that
// name them preferred seller, and deliveries awaiting their confirmation.
func (r *requestRepository) ListIncoming(ctx context.Context, userID string) ([]model.PurchaseRequest, error) {
	var list []model.PurchaseRequest
	if err := r.withNames(ctx).
		Where("(status = ? AND preferred_seller_id = ?) OR (status = ? AND creator_id = ?)",
			model.RequestStatusOpen, userID,
			model.RequestStatusAwaitingBuyerConfirm, userID).
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Claim transfers an open, unclaimed request to claimerID in a single
// conditional update. The returned row count is the race arbiter: under
// concurrent attempts exactly one caller sees 1, everyone else sees 0.
func (r *requestRepository) Claim(ctx context.Context, id, claimerID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.PurchaseRequest{}).
		Where("id = ? AND status = ? AND claimer_id IS NULL", id, model.RequestStatusOpen).
		Updates(map[string]interface{}{
			"status":              model.RequestStatusClaimed,
			"claimer_id":          claimerID,
			"seller_confirmed_at": nil,
			"buyer_confirmed_at":  nil,
			"disputed_at":         nil,
			"dispute_comment":     nil,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

// UpdateIfStatus applies fields only while the request is still in one of
// the from statuses, reporting how many rows actually changed.
func (r *requestRepository) UpdateIfStatus(ctx context.Context, id string, from []model.RequestStatus, fields map[string]interface{}) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&model.PurchaseRequest{}).
		Where("id = ? AND status IN ?", id, from).
		Updates(fields)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *requestRepository) CountByCreator(ctx context.Context, creatorID string, statuses []model.RequestStatus) (int64, error) {
	return r.count(ctx, "creator_id = ?", creatorID, statuses)
}

func (r *requestRepository) CountByClaimer(ctx context.Context, claimerID string, statuses []model.RequestStatus) (int64, error) {
	return r.count(ctx, "claimer_id = ?", claimerID, statuses)
}

func (r *requestRepository) CountByPreferredSeller(ctx context.Context, sellerID string, statuses []model.RequestStatus) (int64, error) {
	return r.count(ctx, "preferred_seller_id = ?", sellerID, statuses)
}

func (r *requestRepository) count(ctx context.Context, cond, id string, statuses []model.RequestStatus) (int64, error) {
	q := r.db.WithContext(ctx).Model(&model.PurchaseRequest{}).Where(cond, id)
	if len(statuses) > 0 {
		q = q.Where("status IN ?", statuses)
	}
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, err
	}
	return total, nil
}
