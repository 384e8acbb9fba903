package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wind-smp/market-backend/internal/apperr"
	"github.com/wind-smp/market-backend/internal/model"
	"github.com/wind-smp/market-backend/internal/service"
)

type ReviewHandler struct {
	svc service.ReviewService
}

func NewReviewHandler(svc service.ReviewService) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

type ReviewResponse struct {
	ID                string  `json:"id"`
	Rating            int     `json:"rating"`
	Comment           string  `json:"comment"`
	AuthorName        string  `json:"authorName"`
	AuthorDisplayName *string `json:"authorDisplayName"`
	CreatedAt         string  `json:"createdAt"`
}

func toReviewResponse(r *model.Review) ReviewResponse {
	return ReviewResponse{
		ID:                r.ID,
		Rating:            r.Rating,
		Comment:           r.Comment,
		AuthorName:        r.Author.Username,
		AuthorDisplayName: r.Author.DisplayName,
		CreatedAt:         formatTime(r.CreatedAt),
	}
}

type ReviewBody struct {
	Rating  int    `json:"rating" validate:"gte=1,lte=5"`
	Comment string `json:"comment" validate:"required"`
}

func (h *ReviewHandler) List(c echo.Context) error {
	list, err := h.svc.ListFor(c.Request().Context(), c.Param("username"))
	if err != nil {
		return Fail(c, err)
	}
	resp := make([]ReviewResponse, 0, len(list))
	for i := range list {
		resp = append(resp, toReviewResponse(&list[i]))
	}
	return c.JSON(http.StatusOK, map[string][]ReviewResponse{"reviews": resp})
}

func (h *ReviewHandler) Upsert(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return Fail(c, apperr.ErrUnauthorized)
	}
	var body ReviewBody
	if err := c.Bind(&body); err != nil {
		return Fail(c, apperr.Validation("invalid json body"))
	}
	if err := c.Validate(&body); err != nil {
		return Fail(c, apperr.Validation("rating must be 1 to 5 and comment is required"))
	}
	review, err := h.svc.Upsert(c.Request().Context(), identity, c.Param("username"), body.Rating, body.Comment)
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]ReviewResponse{"review": toReviewResponse(review)})
}
