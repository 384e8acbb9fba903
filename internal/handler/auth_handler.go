package handler

import (
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/wind-smp/market-backend/internal/apperr"
	"github.com/wind-smp/market-backend/internal/config"
	"github.com/wind-smp/market-backend/internal/model"
	"github.com/wind-smp/market-backend/internal/service"
)

const oauthStateCookie = "discord_oauth_state"

type AuthHandler struct {
	svc service.AuthService
	cfg *config.Config
}

func NewAuthHandler(svc service.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{svc: svc, cfg: cfg}
}

type UserResponse struct {
	Username    string  `json:"username"`
	DisplayName *string `json:"displayName"`
	Bio         *string `json:"bio"`
	Role        string  `json:"role"`
	IsBanned    bool    `json:"isBanned"`
	BanReason   *string `json:"banReason"`
}

func toUserResponse(u *model.User) UserResponse {
	return UserResponse{
		Username:    u.Username,
		DisplayName: u.DisplayName,
		Bio:         u.Bio,
		Role:        string(u.Role),
		IsBanned:    u.IsBanned,
		BanReason:   u.BanReason,
	}
}

type CredentialsBody struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (h *AuthHandler) Register(c echo.Context) error {
	var body CredentialsBody
	if err := c.Bind(&body); err != nil {
		return Fail(c, apperr.Validation("invalid json body"))
	}
	if err := c.Validate(&body); err != nil {
		return Fail(c, apperr.Validation("username and password are required"))
	}
	user, sess, err := h.svc.Register(c.Request().Context(), body.Username, body.Password)
	if err != nil {
		return Fail(c, err)
	}
	h.setSessionCookie(c, sess)
	return c.JSON(http.StatusCreated, map[string]UserResponse{"user": toUserResponse(user)})
}

func (h *AuthHandler) Login(c echo.Context) error {
	var body CredentialsBody
	if err := c.Bind(&body); err != nil {
		return Fail(c, apperr.Validation("invalid json body"))
	}
	if err := c.Validate(&body); err != nil {
		return Fail(c, apperr.Validation("username and password are required"))
	}
	user, sess, err := h.svc.Login(c.Request().Context(), body.Username, body.Password)
	if err != nil {
		return Fail(c, err)
	}
	h.setSessionCookie(c, sess)
	return c.JSON(http.StatusOK, map[string]UserResponse{"user": toUserResponse(user)})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	if cookie, err := c.Cookie(h.cfg.SessionCookieName); err == nil {
		_ = h.svc.Logout(c.Request().Context(), cookie.Value)
	}
	h.clearSessionCookie(c)
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}

// Me never fails: an anonymous caller just gets a null user.
func (h *AuthHandler) Me(c echo.Context) error {
	user, ok := currentUser(c)
	if !ok {
		return c.JSON(http.StatusOK, map[string]interface{}{"user": nil})
	}
	return c.JSON(http.StatusOK, map[string]UserResponse{"user": toUserResponse(user)})
}

func (h *AuthHandler) DiscordRedirect(c echo.Context) error {
	state := uuid.NewString()
	authURL, err := h.svc.DiscordAuthURL(state)
	if err != nil {
		return Fail(c, err)
	}
	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   600,
	})
	return c.Redirect(http.StatusFound, authURL)
}

func (h *AuthHandler) DiscordCallback(c echo.Context) error {
	code := c.QueryParam("code")
	state := c.QueryParam("state")
	stateCookie, err := c.Cookie(oauthStateCookie)
	h.clearStateCookie(c)
	if code == "" || state == "" || err != nil || stateCookie.Value != state {
		return h.redirectWithError(c, "discord_state_invalid")
	}

	_, sess, err := h.svc.DiscordCallback(c.Request().Context(), code)
	if err != nil {
		return h.redirectWithError(c, "discord_login_failed")
	}
	h.setSessionCookie(c, sess)
	return c.Redirect(http.StatusFound, h.cfg.FrontendBaseURL+"/")
}

func (h *AuthHandler) redirectWithError(c echo.Context, code string) error {
	loc, _ := url.Parse(h.cfg.FrontendBaseURL + "/login")
	q := loc.Query()
	q.Set("error", code)
	loc.RawQuery = q.Encode()
	return c.Redirect(http.StatusFound, loc.String())
}

func (h *AuthHandler) setSessionCookie(c echo.Context, sess *model.Session) {
	c.SetCookie(&http.Cookie{
		Name:     h.cfg.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.cfg.Env == "production",
		Expires:  sess.ExpiresAt,
	})
}

func (h *AuthHandler) clearSessionCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     h.cfg.SessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   h.cfg.Env == "production",
		Expires:  time.Unix(0, 0),
	})
}

func (h *AuthHandler) clearStateCookie(c echo.Context) {
	c.SetCookie(&http.Cookie{
		Name:     oauthStateCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Expires:  time.Unix(0, 0),
	})
}
