package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (c *Controller) ParameterStats(ctx echo.Context) error {
	stats, err := c.console.ParameterStats()
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, stats)
}
