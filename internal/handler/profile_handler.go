package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wind-smp/market-backend/internal/apperr"
	"github.com/wind-smp/market-backend/internal/service"
)

type ProfileHandler struct {
	svc service.ProfileService
}

func NewProfileHandler(svc service.ProfileService) *ProfileHandler {
	return &ProfileHandler{svc: svc}
}

type ProfileStatsResponse struct {
	CreatedOpen          int64 `json:"createdOpen"`
	CreatedTotal         int64 `json:"createdTotal"`
	ClaimedActive        int64 `json:"claimedActive"`
	CompletedAsClaimer   int64 `json:"completedAsClaimer"`
	CompletedSales       int64 `json:"completedSales"`
	SuccessfulDealsTotal int64 `json:"successfulDealsTotal"`
}

type ProfileResponse struct {
	Username    string               `json:"username"`
	DisplayName *string              `json:"displayName"`
	Bio         *string              `json:"bio"`
	Role        string               `json:"role"`
	IsBanned    bool                 `json:"isBanned"`
	BanReason   *string              `json:"banReason"`
	CreatedAt   string               `json:"createdAt"`
	Stats       ProfileStatsResponse `json:"stats"`
}

func toProfileResponse(p *service.Profile) ProfileResponse {
	return ProfileResponse{
		Username:    p.User.Username,
		DisplayName: p.User.DisplayName,
		Bio:         p.User.Bio,
		Role:        string(p.User.Role),
		IsBanned:    p.User.IsBanned,
		BanReason:   p.User.BanReason,
		CreatedAt:   formatTime(p.User.CreatedAt),
		Stats: ProfileStatsResponse{
			CreatedOpen:          p.Stats.CreatedOpen,
			CreatedTotal:         p.Stats.CreatedTotal,
			ClaimedActive:        p.Stats.ClaimedActive,
			CompletedAsClaimer:   p.Stats.CompletedAsClaimer,
			CompletedSales:       p.Stats.CompletedSales,
			SuccessfulDealsTotal: p.Stats.SuccessfulDealsTotal,
		},
	}
}

func (h *ProfileHandler) Get(c echo.Context) error {
	profile, err := h.svc.Get(c.Request().Context(), c.Param("username"))
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]ProfileResponse{"profile": toProfileResponse(profile)})
}

func (h *ProfileHandler) Me(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return Fail(c, apperr.ErrUnauthorized)
	}
	profile, err := h.svc.Get(c.Request().Context(), identity.Username)
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]ProfileResponse{"profile": toProfileResponse(profile)})
}

type UpdateBioBody struct {
	Bio string `json:"bio"`
}

func (h *ProfileHandler) UpdateBio(c echo.Context) error {
	identity, ok := currentIdentity(c)
	if !ok {
		return Fail(c, apperr.ErrUnauthorized)
	}
	var body UpdateBioBody
	if err := c.Bind(&body); err != nil {
		return Fail(c, apperr.Validation("invalid json body"))
	}
	user, err := h.svc.UpdateBio(c.Request().Context(), identity, body.Bio)
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]UserResponse{"user": toUserResponse(user)})
}
