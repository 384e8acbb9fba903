package handler

import (
	"time"

	"github.com/labstack/echo/v4"
	"github.com/wind-smp/market-backend/internal/apperr"
	appmw "github.com/wind-smp/market-backend/internal/middleware"
	"github.com/wind-smp/market-backend/internal/model"
	"github.com/wind-smp/market-backend/internal/service"
)

// Fail renders the uniform failure envelope; the status comes from the error.
func Fail(c echo.Context, err error) error {
	e := apperr.FromError(err)
	return c.JSON(e.Status, map[string]string{"message": e.Message})
}

func currentIdentity(c echo.Context) (service.Identity, bool) {
	identity, ok := c.Get(appmw.ContextIdentityKey).(service.Identity)
	return identity, ok
}

func currentUser(c echo.Context) (*model.User, bool) {
	user, ok := c.Get(appmw.ContextUserKey).(*model.User)
	return user, ok
}

func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	val := t.Format(time.RFC3339)
	return &val
}
