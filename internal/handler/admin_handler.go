package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wind-smp/market-backend/internal/apperr"
	"github.com/wind-smp/market-backend/internal/service"
)

type AdminHandler struct {
	svc service.AdminService
}

func NewAdminHandler(svc service.AdminService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

type BanBody struct {
	Ban    bool   `json:"ban"`
	Reason string `json:"reason"`
}

func (h *AdminHandler) SetBan(c echo.Context) error {
	var body BanBody
	if err := c.Bind(&body); err != nil {
		return Fail(c, apperr.Validation("invalid json body"))
	}
	user, err := h.svc.SetBan(c.Request().Context(), c.Param("username"), body.Ban, body.Reason)
	if err != nil {
		return Fail(c, err)
	}
	return c.JSON(http.StatusOK, map[string]UserResponse{"user": toUserResponse(user)})
}
