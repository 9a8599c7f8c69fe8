package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/ougirez/sisagua/internal/domain"
	"github.com/ougirez/sisagua/internal/pkg/constants"
	"github.com/ougirez/sisagua/internal/pkg/logger"
)

type codedError interface {
	error
	Code() int
}

func httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	resp := domain.ErrorResponse{Message: err.Error(), Code: http.StatusInternalServerError}

	var (
		coded codedError
		qe    *constants.QueryExecutionError
		he    *echo.HTTPError
	)
	switch {
	case errors.As(err, &coded):
		resp.Code = coded.Code()
	case errors.As(err, &he):
		resp.Code = he.Code
		resp.Message = fmt.Sprint(he.Message)
	}
	if errors.As(err, &qe) {
		resp.Hint = qe.Hint
	}

	ctx := c.Request().Context()
	if resp.Code >= http.StatusInternalServerError {
		logger.Errorf(ctx, "%s %s: %s", c.Request().Method, c.Path(), err.Error())
	} else {
		logger.Debugf(ctx, "%s %s: %s", c.Request().Method, c.Path(), err.Error())
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(resp.Code)
		return
	}
	_ = c.JSON(resp.Code, resp)
}
