package controller

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/sisagua/internal/domain"
	"github.com/ougirez/sisagua/internal/service/console"
)

func (c *Controller) ListPresets(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, c.console.Presets())
}

func (c *Controller) RunQuery(ctx echo.Context) error {
	var req domain.RunQueryRequest
	if err := ctx.Bind(&req); err != nil {
		return err
	}

	res, err := c.run(ctx.Request().Context(), &req)
	if err != nil {
		return err
	}

	return ctx.JSON(http.StatusOK, res)
}

// DownloadQuery runs the query and returns the result as an attachment, CSV by default.
func (c *Controller) DownloadQuery(ctx echo.Context) error {
	format := ctx.QueryParam("format")
	mime, filename, err := console.ContentType(format)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	var req domain.RunQueryRequest
	if err = ctx.Bind(&req); err != nil {
		return err
	}

	res, err := c.run(ctx.Request().Context(), &req)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err = console.Encode(&buf, format, res); err != nil {
		return fmt.Errorf("encode %s: %w", filename, err)
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, mime, buf.Bytes())
}

func (c *Controller) run(ctx context.Context, req *domain.RunQueryRequest) (*domain.QueryResult, error) {
	if req.Preset != "" {
		return c.console.RunPreset(ctx, req.Preset, req.Params)
	}
	return c.console.Run(ctx, req.SQL)
}
