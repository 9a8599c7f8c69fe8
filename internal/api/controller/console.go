package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/sisagua/internal/domain"
	"github.com/ougirez/sisagua/internal/pkg/logger"
)

func (c *Controller) ReloadConsole(ctx echo.Context) error {
	if err := c.console.Reload(ctx.Request().Context()); err != nil {
		return err
	}

	tables := c.console.Tables()
	logger.Infof(ctx.Request().Context(), "console reloaded: %d tables", len(tables))

	return ctx.JSON(http.StatusOK, domain.ReloadResponse{Tables: tables})
}
