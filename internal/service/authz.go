package service

import (
	"github.com/wind-smp/market-backend/internal/apperr"
	"github.com/wind-smp/market-backend/internal/model"
)

// Operation names a lifecycle transition on a purchase request.
type Operation string

const (
	OpClaim         Operation = "claim"
	OpRelease       Operation = "release"
	OpMarkDelivered Operation = "mark-delivered"
	OpComplete      Operation = "complete"
	OpDispute       Operation = "dispute"
	OpResolve       Operation = "resolve"
	OpCancel        Operation = "cancel"
)

// transitionSources is the state-machine whitelist: the statuses each
// operation may start from. Anything not listed is an invalid transition.
var transitionSources = map[Operation][]model.RequestStatus{
	OpClaim:         {model.RequestStatusOpen},
	OpRelease:       {model.RequestStatusClaimed},
	OpMarkDelivered: {model.RequestStatusClaimed},
	OpComplete:      {model.RequestStatusAwaitingBuyerConfirm},
	OpDispute:       {model.RequestStatusClaimed, model.RequestStatusAwaitingBuyerConfirm},
	OpResolve:       {model.RequestStatusDisputed},
	OpCancel:        {model.RequestStatusOpen},
}

func allowedFrom(op Operation, status model.RequestStatus) bool {
	for _, s := range transitionSources[op] {
		if s == status {
			return true
		}
	}
	return false
}

// authorize evaluates the actor predicate for op. It is a pure function of
// the actor and the request's identity columns; every transition goes
// through it so the per-operation rules live in exactly one place.
func authorize(op Operation, actor Identity, req *model.PurchaseRequest) error {
	admin := actor.Role == model.RoleAdmin
	isCreator := req.CreatorID == actor.ID
	isClaimer := req.ClaimerID != nil && *req.ClaimerID == actor.ID

	switch op {
	case OpClaim:
		if isCreator {
			return apperr.WithMessage(apperr.ErrForbidden, "you cannot take your own request")
		}
		if req.PreferredSellerID != nil && *req.PreferredSellerID != actor.ID && !admin {
			return apperr.WithMessage(apperr.ErrForbidden, "this request is reserved for its preferred seller")
		}
		return nil
	case OpRelease:
		if isClaimer || admin {
			return nil
		}
		return apperr.WithMessage(apperr.ErrForbidden, "only the claimer can release this request")
	case OpMarkDelivered:
		if isClaimer || admin {
			return nil
		}
		return apperr.WithMessage(apperr.ErrForbidden, "only the claimer can mark this request delivered")
	case OpComplete:
		if isCreator || admin {
			return nil
		}
		return apperr.WithMessage(apperr.ErrForbidden, "only the creator can confirm this request")
	case OpDispute:
		if isCreator || isClaimer || admin {
			return nil
		}
		return apperr.WithMessage(apperr.ErrForbidden, "you are not a party to this request")
	case OpResolve:
		if admin {
			return nil
		}
		return apperr.WithMessage(apperr.ErrForbidden, "administrator rights required")
	case OpCancel:
		if isCreator || admin {
			return nil
		}
		return apperr.WithMessage(apperr.ErrForbidden, "only the creator can cancel this request")
	}
	return apperr.ErrForbidden
}
