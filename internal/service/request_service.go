package service

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/wind-smp/market-backend/internal/apperr"
	"github.com/wind-smp/market-backend/internal/model"
	"github.com/wind-smp/market-backend/internal/repository"
	"gorm.io/gorm"
)

const (
	disputeReasonMin = 3
	disputeReasonMax = 280
)

// ResolveDecision is the admin verdict on a disputed request.
const (
	DecisionComplete = "complete"
	DecisionCancel   = "cancel"
)

type CreateRequestInput struct {
	ItemID         string
	ItemName       string
	Quantity       int
	OfferedPriceAr int
	ListingID      *string
}

type RequestService interface {
	Create(ctx context.Context, actor Identity, in CreateRequestInput) (*model.PurchaseRequest, error)
	Get(ctx context.Context, id string) (*model.PurchaseRequest, error)
	List(ctx context.Context, filter string) ([]model.PurchaseRequest, error)
	ListCreatedBy(ctx context.Context, actor Identity) ([]model.PurchaseRequest, error)
	ListClaimedBy(ctx context.Context, actor Identity) ([]model.PurchaseRequest, error)
	ListIncoming(ctx context.Context, actor Identity) ([]model.PurchaseRequest, error)
	ListDisputes(ctx context.Context) ([]model.PurchaseRequest, error)
	Claim(ctx context.Context, actor Identity, id string) (*model.PurchaseRequest, error)
	Release(ctx context.Context, actor Identity, id string) (*model.PurchaseRequest, error)
	MarkDelivered(ctx context.Context, actor Identity, id string) (*model.PurchaseRequest, error)
	Complete(ctx context.Context, actor Identity, id string) (*model.PurchaseRequest, error)
	Dispute(ctx context.Context, actor Identity, id, reason string) (*model.PurchaseRequest, error)
	Resolve(ctx context.Context, actor Identity, id, decision string) (*model.PurchaseRequest, error)
	Cancel(ctx context.Context, actor Identity, id string) (*model.PurchaseRequest, error)
}

type requestService struct {
	requests repository.RequestRepository
	listings repository.ListingRepository
}

func NewRequestService(requests repository.RequestRepository, listings repository.ListingRepository) RequestService {
	return &requestService{requests: requests, listings: listings}
}

func (s *requestService) Create(ctx context.Context, actor Identity, in CreateRequestInput) (*model.PurchaseRequest, error) {
	itemID := strings.TrimSpace(in.ItemID)
	itemName := strings.TrimSpace(in.ItemName)
	if itemID == "" {
		return nil, apperr.Validation("itemId is required")
	}
	if in.Quantity <= 0 {
		return nil, apperr.Validation("quantity must be a positive integer")
	}
	if in.OfferedPriceAr <= 0 {
		return nil, apperr.Validation("offered price must be a positive integer")
	}

	var preferredSellerID *string
	if in.ListingID != nil && strings.TrimSpace(*in.ListingID) != "" {
		listing, err := s.listings.FindByID(ctx, strings.TrimSpace(*in.ListingID))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, apperr.WithMessage(apperr.ErrNotFound, "listing not found")
			}
			return nil, apperr.Wrap(err, apperr.ErrInternal)
		}
		if listing.IsArchived {
			return nil, apperr.Validation("listing is archived")
		}
		if listing.OwnerID == actor.ID {
			return nil, apperr.Validation("you cannot request your own listing")
		}
		owner := listing.OwnerID
		preferredSellerID = &owner
		// The listing title is the canonical item name.
		itemName = listing.Title
	}
	if itemName == "" {
		return nil, apperr.Validation("itemName is required")
	}

	req := &model.PurchaseRequest{
		ID:                uuid.NewString(),
		ItemID:            itemID,
		ItemName:          itemName,
		Quantity:          in.Quantity,
		OfferedPriceAr:    in.OfferedPriceAr,
		ListingID:         in.ListingID,
		CreatorID:         actor.ID,
		PreferredSellerID: preferredSellerID,
		Status:            model.RequestStatusOpen,
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	return s.reload(ctx, req.ID)
}

func (s *requestService) Get(ctx context.Context, id string) (*model.PurchaseRequest, error) {
	return s.find(ctx, id)
}

// List returns the public board. filter "all" includes terminal and disputed
// requests; anything else means the active board (OPEN and CLAIMED).
func (s *requestService) List(ctx context.Context, filter string) ([]model.PurchaseRequest, error) {
	var statuses []model.RequestStatus
	if filter != "all" {
		statuses = []model.RequestStatus{model.RequestStatusOpen, model.RequestStatusClaimed}
	}
	list, err := s.requests.ListByStatuses(ctx, statuses)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	return list, nil
}

func (s *requestService) ListCreatedBy(ctx context.Context, actor Identity) ([]model.PurchaseRequest, error) {
	list, err := s.requests.ListByCreator(ctx, actor.ID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	return list, nil
}

func (s *requestService) ListClaimedBy(ctx context.Context, actor Identity) ([]model.PurchaseRequest, error) {
	list, err := s.requests.ListByClaimer(ctx, actor.ID, []model.RequestStatus{
		model.RequestStatusClaimed,
		model.RequestStatusAwaitingBuyerConfirm,
		model.RequestStatusDisputed,
	})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	return list, nil
}

func (s *requestService) ListIncoming(ctx context.Context, actor Identity) ([]model.PurchaseRequest, error) {
	list, err := s.requests.ListIncoming(ctx, actor.ID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	return list, nil
}

func (s *requestService) ListDisputes(ctx context.Context) ([]model.PurchaseRequest, error) {
	list, err := s.requests.ListByStatuses(ctx, []model.RequestStatus{model.RequestStatusDisputed})
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	return list, nil
}

// Claim is the only transition whose precondition cannot be decided by the
// preceding read: the conditional write is the race arbiter. A zero row
// count after the checks passed means another caller won.
func (s *requestService) Claim(ctx context.Context, actor Identity, id string) (*model.PurchaseRequest, error) {
	req, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if !allowedFrom(OpClaim, req.Status) {
		return nil, apperr.WithMessage(apperr.ErrInvalidTransition, "this request is not available")
	}
	if err := authorize(OpClaim, actor, req); err != nil {
		return nil, err
	}

	rows, err := s.requests.Claim(ctx, id, actor.ID)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	if rows == 0 {
		return nil, apperr.WithMessage(apperr.ErrConflict, "another player already took this request")
	}
	return s.reload(ctx, id)
}

func (s *requestService) Release(ctx context.Context, actor Identity, id string) (*model.PurchaseRequest, error) {
	return s.transition(ctx, actor, id, OpRelease, map[string]interface{}{
		"status":              model.RequestStatusOpen,
		"claimer_id":          nil,
		"seller_confirmed_at": nil,
		"buyer_confirmed_at":  nil,
		"disputed_at":         nil,
		"dispute_comment":     nil,
	})
}

func (s *requestService) MarkDelivered(ctx context.Context, actor Identity, id string) (*model.PurchaseRequest, error) {
	return s.transition(ctx, actor, id, OpMarkDelivered, map[string]interface{}{
		"status":              model.RequestStatusAwaitingBuyerConfirm,
		"seller_confirmed_at": time.Now(),
	})
}

func (s *requestService) Complete(ctx context.Context, actor Identity, id string) (*model.PurchaseRequest, error) {
	return s.transition(ctx, actor, id, OpComplete, map[string]interface{}{
		"status":             model.RequestStatusCompleted,
		"buyer_confirmed_at": time.Now(),
	})
}

func (s *requestService) Dispute(ctx context.Context, actor Identity, id, reason string) (*model.PurchaseRequest, error) {
	reason = strings.TrimSpace(reason)
	if n := utf8.RuneCountInString(reason); n < disputeReasonMin || n > disputeReasonMax {
		return nil, apperr.Validation("dispute reason must be 3 to 280 characters")
	}
	return s.transition(ctx, actor, id, OpDispute, map[string]interface{}{
		"status":          model.RequestStatusDisputed,
		"disputed_at":     time.Now(),
		"dispute_comment": reason,
	})
}

func (s *requestService) Resolve(ctx context.Context, actor Identity, id, decision string) (*model.PurchaseRequest, error) {
	switch decision {
	case DecisionComplete:
		return s.transition(ctx, actor, id, OpResolve, map[string]interface{}{
			"status":             model.RequestStatusCompleted,
			"buyer_confirmed_at": time.Now(),
		})
	case DecisionCancel:
		// The claimer and dispute trail stay on the record for audit.
		return s.transition(ctx, actor, id, OpResolve, map[string]interface{}{
			"status": model.RequestStatusCancelled,
		})
	default:
		return nil, apperr.Validation("decision must be complete or cancel")
	}
}

func (s *requestService) Cancel(ctx context.Context, actor Identity, id string) (*model.PurchaseRequest, error) {
	return s.transition(ctx, actor, id, OpCancel, map[string]interface{}{
		"status": model.RequestStatusCancelled,
	})
}

// transition runs the shared pipeline: load, whitelist check, authorize
// (ownership first for cancel), then a status-guarded write so a
// concurrent transition cannot interleave.
func (s *requestService) transition(ctx context.Context, actor Identity, id string, op Operation, fields map[string]interface{}) (*model.PurchaseRequest, error) {
	req, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	authzErr := authorize(op, actor, req)
	// Cancel answers ownership before state: a non-creator always gets
	// Forbidden, even when the request is no longer open.
	if op == OpCancel && authzErr != nil {
		return nil, authzErr
	}
	if !allowedFrom(op, req.Status) {
		return nil, apperr.WithMessage(apperr.ErrInvalidTransition, invalidTransitionMessage(op))
	}
	if authzErr != nil {
		return nil, authzErr
	}

	rows, err := s.requests.UpdateIfStatus(ctx, id, transitionSources[op], fields)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	if rows == 0 {
		return nil, apperr.WithMessage(apperr.ErrInvalidTransition, "the request changed, refresh and try again")
	}
	return s.reload(ctx, id)
}

func invalidTransitionMessage(op Operation) string {
	switch op {
	case OpRelease:
		return "only a claimed request can be released"
	case OpMarkDelivered:
		return "only a claimed request can be marked delivered"
	case OpComplete:
		return "only a delivered request can be confirmed"
	case OpDispute:
		return "a dispute can only be opened on an active deal"
	case OpResolve:
		return "only a disputed request can be resolved"
	case OpCancel:
		return "only an open request can be cancelled"
	default:
		return "operation not valid in the current status"
	}
}

func (s *requestService) find(ctx context.Context, id string) (*model.PurchaseRequest, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.WithMessage(apperr.ErrNotFound, "request not found")
		}
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	return req, nil
}

func (s *requestService) reload(ctx context.Context, id string) (*model.PurchaseRequest, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrInternal)
	}
	return req, nil
}
