package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wind-smp/market-backend/internal/apperr"
	"github.com/wind-smp/market-backend/internal/model"
	"github.com/wind-smp/market-backend/internal/service"
)

type ListingHandler struct {
	svc service.ListingService
}

func NewListingHandler(svc service.ListingService) *ListingHandler {
	return &ListingHandler{svc: svc}
}

type ListingResponse struct {
	ID               string  `json:"id"`
	Title            string  `json:"title"`
	Description      string  `json:"description"`
	Category         string  `json:"category"`
	ImageURL         string  `json:"imageUrl"`
	PriceAr          int     `json:"priceAr"`
	OwnerName        string  `json:"ownerName"`
	OwnerDisplayName *string `json:"ownerDisplayName"`
	CreatedAt        string  `json:"createdAt"`
	UpdatedAt        string  `json:"updatedAt"`
}

func toListingResponse(l *model.Listing) ListingResponse {
	return ListingResponse{
		ID:               l.ID,
		Title:            l.Title,
		Description:      l.Description,
		Category:         l.Category,
		ImageURL:         l.ImageURL,
		PriceAr:          l.PriceAr,
		OwnerName:        l.Owner.Username,
		OwnerDisplayName: l.Owner.DisplayName,
		CreatedAt:        formatTime(l.CreatedAt),
		UpdatedAt:        formatTime(l.UpdatedAt),
	}
}

type ListingBody struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required"`
	Category    string `json:"category"`
	ImageURL    string `json:"imageUrl" validate:"required"`
	PriceAr     int    `json:"priceAr" validate:"gt=0"`
}

func (h *ListingHandler) List(c echo.Context) error {
	list, err := h.svc.List(c.Request().Context())
	if err != nil {
		return Fail(c, err)
	}
	resp := make([]ListingResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toListingResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, map[string][]ListingResponse{"listings": resp})
}

func (h *ListingHandler) Get(c echo.Context) error {
	listing, err := h.svc.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]ListingResponse{"listing": toListingResponse(listing)})
}

func (h *ListingHandler) Create(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return Fail(c, apperr.ErrUnauthorized)
	}
	var body ListingBody
	if err := c.Bind(&body); err != nil {
		return Fail(c, apperr.Validation("invalid json body"))
	}
	if err := c.Validate(&body); err != nil {
		return Fail(c, apperr.Validation("title, description, imageUrl and a positive priceAr are required"))
	}
	listing, err := h.svc.Create(c.Request().Context(), identity, service.ListingInput{
		Title:       body.Title,
		Description: body.Description,
		Category:    body.Category,
		ImageURL:    body.ImageURL,
		PriceAr:     body.PriceAr,
	})
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(http.StatusCreated, map[string]ListingResponse{"listing": toListingResponse(listing)})
}

func (h *ListingHandler) Update(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return Fail(c, apperr.ErrUnauthorized)
	}
	var body ListingBody
	if err := c.Bind(&body); err != nil {
		return Fail(c, apperr.Validation("invalid json body"))
	}
	if err := c.Validate(&body); err != nil {
		return Fail(c, apperr.Validation("title, description, imageUrl and a positive priceAr are required"))
	}
	listing, err := h.svc.Update(c.Request().Context(), identity, c.Param("id"), service.ListingInput{
		Title:       body.Title,
		Description: body.Description,
		Category:    body.Category,
		ImageURL:    body.ImageURL,
		PriceAr:     body.PriceAr,
	})
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]ListingResponse{"listing": toListingResponse(listing)})
}

func (h *ListingHandler) Archive(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return Fail(c, apperr.ErrUnauthorized)
	}
	if err := h.svc.Archive(c.Request().Context(), identity, c.Param("id")); err != nil {
		return Fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
