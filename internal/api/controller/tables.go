package controller

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/sisagua/internal/domain"
)

func (c *Controller) ListTables(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, c.console.Tables())
}

func (c *Controller) PreviewTable(ctx echo.Context) error {
	var req domain.PreviewRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}
	if req.Limit == 0 {
		req.Limit = 10
	}

	res, err := c.console.Preview(req.Name, req.Limit)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, res)
}

func (c *Controller) DistinctValues(ctx echo.Context) error {
	var req domain.ColumnRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}

	values, tooMany, err := c.console.DistinctValues(req.Name, req.Column)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, domain.DistinctValuesResponse{Values: values, TooMany: tooMany})
}

func (c *Controller) FilterTable(ctx echo.Context) error {
	var req domain.FilterRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}

	res, err := c.console.Filter(req.Name, req.Column, req.Value)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, res)
}
