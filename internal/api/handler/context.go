package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/zsea1234/ZhiWU-sub000/internal/core/domain"
)

// ctxActor extracts the auth claims injected by the Auth middleware and
// performs a fast-fail check before any service call: both user_id and a
// known role must be present, otherwise the JWT is structurally valid but
// operationally unusable.
func ctxActor(c echo.Context) (domain.Actor, error) {
	userID, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)

	if userID == "" || !domain.ValidRole(domain.Role(role)) {
		return domain.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	return domain.Actor{ID: userID, Role: domain.Role(role)}, nil
}
