package api

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/sisagua/internal/pkg/constants"
)

// AdminMiddleware accepts the admin token from the secret_token cookie or a Bearer header.
func (svc *APIService) AdminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		token := ""
		if cookie, err := ctx.Cookie(constants.CookieKeySecretToken); err == nil {
			token = cookie.Value
		}
		if auth := ctx.Request().Header.Get(echo.HeaderAuthorization); token == "" && strings.HasPrefix(auth, "Bearer ") {
			token = strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
		}

		if err := svc.authService.AuthorizeAdmin(token); err != nil {
			return err
		}

		return next(ctx)
	}
}
