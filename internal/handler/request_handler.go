package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wind-smp/market-backend/internal/apperr"
	"github.com/wind-smp/market-backend/internal/cache"
	"github.com/wind-smp/market-backend/internal/model"
	"github.com/wind-smp/market-backend/internal/service"
)

type RequestHandler struct {
	svc       service.RequestService
	listCache *cache.RequestListCache
}

func NewRequestHandler(svc service.RequestService, listCache *cache.RequestListCache) *RequestHandler {
	return &RequestHandler{svc: svc, listCache: listCache}
}

// RequestResponse exposes resolved usernames only; foreign-key ids never
// reach the client.
type RequestResponse struct {
	ID                  string  `json:"id"`
	ItemID              string  `json:"itemId"`
	ItemName            string  `json:"itemName"`
	Quantity            int     `json:"quantity"`
	OfferedPriceAr      int     `json:"offeredPriceAr"`
	Status              string  `json:"status"`
	CreatorName         string  `json:"creatorName"`
	ClaimerName         *string `json:"claimerName"`
	PreferredSellerName *string `json:"preferredSellerName"`
	SellerConfirmedAt   *string `json:"sellerConfirmedAt"`
	BuyerConfirmedAt    *string `json:"buyerConfirmedAt"`
	DisputedAt          *string `json:"disputedAt"`
	DisputeComment      *string `json:"disputeComment"`
	CreatedAt           string  `json:"createdAt"`
	UpdatedAt           string  `json:"updatedAt"`
}

func toRequestResponse(r *model.PurchaseRequest) RequestResponse {
	resp := RequestResponse{
		ID:                r.ID,
		ItemID:            r.ItemID,
		ItemName:          r.ItemName,
		Quantity:          r.Quantity,
		OfferedPriceAr:    r.OfferedPriceAr,
		Status:            string(r.Status),
		CreatorName:       r.Creator.Username,
		SellerConfirmedAt: formatTimePtr(r.SellerConfirmedAt),
		BuyerConfirmedAt:  formatTimePtr(r.BuyerConfirmedAt),
		DisputedAt:        formatTimePtr(r.DisputedAt),
		DisputeComment:    r.DisputeComment,
		CreatedAt:         formatTime(r.CreatedAt),
		UpdatedAt:         formatTime(r.UpdatedAt),
	}
	if r.Claimer != nil {
		resp.ClaimerName = &r.Claimer.Username
	}
	if r.PreferredSeller != nil {
		resp.PreferredSellerName = &r.PreferredSeller.Username
	}
	return resp
}

type requestEnvelope struct {
	Request RequestResponse `json:"request"`
}

type requestListEnvelope struct {
	Requests []RequestResponse `json:"requests"`
}

func toRequestListEnvelope(list []model.PurchaseRequest) requestListEnvelope {
	resp := requestListEnvelope{Requests: make([]RequestResponse, 0, len(list))}
	for i := range list {
		resp.Requests = append(resp.Requests, toRequestResponse(&list[i]))
	}
	return resp
}

type CreateRequestBody struct {
	ItemID         string  `json:"itemId"`
	ItemName       string  `json:"itemName"`
	Quantity       int     `json:"quantity" validate:"gt=0"`
	OfferedPriceAr int     `json:"offeredPriceAr" validate:"gt=0"`
	ListingID      *string `json:"listingId"`
}

type DisputeBody struct {
	Reason string `json:"reason"`
}

type ResolveBody struct {
	Decision string `json:"decision" validate:"required,oneof=complete cancel"`
}

// List serves the public poll endpoint; responses are cached briefly since
// every client re-reads the same board.
func (h *RequestHandler) List(c echo.Context) error {
	filter := c.QueryParam("status")
	if filter != "all" {
		filter = "active"
	}
	ctx := c.Request().Context()

	if payload, ok := h.listCache.Get(ctx, filter); ok {
		return c.JSONBlob(http.StatusOK, payload)
	}

	list, err := h.svc.List(ctx, filter)
	if err != nil {
		return Fail(c, err)
	}
	payload, err := json.Marshal(toRequestListEnvelope(list))
	if err != nil {
		return Fail(c, err)
	}
	h.listCache.Set(ctx, filter, payload)
	return c.JSONBlob(http.StatusOK, payload)
}

func (h *RequestHandler) Get(c echo.Context) error {
	req, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(http.StatusOK, requestEnvelope{Request: toRequestResponse(req)})
}

func (h *RequestHandler) Create(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return Fail(c, apperr.ErrUnauthorized)
	}
	var body CreateRequestBody
	if err := c.Bind(&body); err != nil {
		return Fail(c, apperr.Validation("invalid json body"))
	}
	if err := c.Validate(&body); err != nil {
		return Fail(c, apperr.Validation("quantity and offeredPriceAr must be positive integers"))
	}
	req, err := h.svc.Create(c.Request().Context(), identity, service.CreateRequestInput{
		ItemID:         body.ItemID,
		ItemName:       body.ItemName,
		Quantity:       body.Quantity,
		OfferedPriceAr: body.OfferedPriceAr,
		ListingID:      body.ListingID,
	})
	if err != nil {
		return Fail(c, err)
	}
	h.listCache.Invalidate(c.Request().Context())
	return c.JSON(http.StatusCreated, requestEnvelope{Request: toRequestResponse(req)})
}

func (h *RequestHandler) Claim(c echo.Context) error {
	return h.transition(c, h.svc.Claim)
}

func (h *RequestHandler) Release(c echo.Context) error {
	return h.transition(c, h.svc.Release)
}

func (h *RequestHandler) MarkDelivered(c echo.Context) error {
	return h.transition(c, h.svc.MarkDelivered)
}

func (h *RequestHandler) Complete(c echo.Context) error {
	return h.transition(c, h.svc.Complete)
}

func (h *RequestHandler) Cancel(c echo.Context) error {
	return h.transition(c, h.svc.Cancel)
}

func (h *RequestHandler) Dispute(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return Fail(c, apperr.ErrUnauthorized)
	}
	var body DisputeBody
	if err := c.Bind(&body); err != nil {
		return Fail(c, apperr.Validation("invalid json body"))
	}
	req, err := h.svc.Dispute(c.Request().Context(), identity, c.Param("id"), body.Reason)
	if err != nil {
		return Fail(c, err)
	}
	h.listCache.Invalidate(c.Request().Context())
	return c.JSON(http.StatusOK, requestEnvelope{Request: toRequestResponse(req)})
}

func (h *RequestHandler) Resolve(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return Fail(c, apperr.ErrUnauthorized)
	}
	var body ResolveBody
	if err := c.Bind(&body); err != nil {
		return Fail(c, apperr.Validation("invalid json body"))
	}
	if err := c.Validate(&body); err != nil {
		return Fail(c, apperr.Validation("decision must be complete or cancel"))
	}
	req, err := h.svc.Resolve(c.Request().Context(), identity, c.Param("id"), body.Decision)
	if err != nil {
		return Fail(c, err)
	}
	h.listCache.Invalidate(c.Request().Context())
	return c.JSON(http.StatusOK, requestEnvelope{Request: toRequestResponse(req)})
}

func (h *RequestHandler) ListMine(c echo.Context) error {
	return h.listFor(c, h.svc.ListCreatedBy)
}

func (h *RequestHandler) ListClaims(c echo.Context) error {
	return h.listFor(c, h.svc.ListClaimedBy)
}

func (h *RequestHandler) ListIncoming(c echo.Context) error {
	return h.listFor(c, h.svc.ListIncoming)
}

func (h *RequestHandler) ListDisputes(c echo.Context) error {
	list, err := h.svc.ListDisputes(c.Request().Context())
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(http.StatusOK, toRequestListEnvelope(list))
}

func (h *RequestHandler) transition(c echo.Context, op func(ctx context.Context, actor service.Identity, id string) (*model.PurchaseRequest, error)) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return Fail(c, apperr.ErrUnauthorized)
	}
	req, err := op(c.Request().Context(), identity, c.Param("id"))
	if err != nil {
		return Fail(c, err)
	}
	h.listCache.Invalidate(c.Request().Context())
	return c.JSON(http.StatusOK, requestEnvelope{Request: toRequestResponse(req)})
}

func (h *RequestHandler) listFor(c echo.Context, op func(ctx context.Context, actor service.Identity) ([]model.PurchaseRequest, error)) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return Fail(c, apperr.ErrUnauthorized)
	}
	list, err := op(c.Request().Context(), identity)
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(http.StatusOK, toRequestListEnvelope(list))
}
