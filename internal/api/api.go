package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/ougirez/sisagua/internal/api/controller"
	"github.com/ougirez/sisagua/internal/pkg/constants"
	"github.com/ougirez/sisagua/internal/pkg/logger"
	"github.com/ougirez/sisagua/internal/service/auth"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Options struct {
	AllowOrigins []string
	LogLevel     string
	// Gatherer backs GET /metrics; prometheus.DefaultGatherer when nil.
	Gatherer prometheus.Gatherer
}

type APIService struct {
	router      *echo.Echo
	authService *auth.Service
}

func (svc *APIService) Serve(addr string) error {
	err := svc.router.Start(addr)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (svc *APIService) Shutdown(ctx context.Context) error {
	return svc.router.Shutdown(ctx)
}

func (svc *APIService) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	svc.router.ServeHTTP(w, r)
}

func NewAPIService(console controller.Console, authService *auth.Service, opts Options) (*APIService, error) {
	svc := &APIService{router: echo.New(), authService: authService}

	svc.router.HideBanner = true
	svc.router.Logger.SetLevel(gommonLevel(opts.LogLevel))
	svc.router.JSONSerializer = NewSerializer()
	svc.router.Validator = NewValidator()
	svc.router.Binder = NewBinder()
	svc.router.HTTPErrorHandler = httpErrorHandler

	svc.router.Use(middleware.Recover())
	svc.router.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator:        uuid.NewString,
		TargetHeader:     constants.HeaderRequestID,
		RequestIDHandler: bindRequestID,
	}))
	svc.router.Use(middleware.Logger())

	origins := opts.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	svc.router.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{echo.GET, echo.POST},
		AllowHeaders: []string{"Content-Type", "Authorization", constants.HeaderRequestID},
	}))

	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	svc.router.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := svc.router.Group("/api/v1")
	cntrl := controller.NewController(console)

	tables := api.Group("/tables")
	tables.GET("", cntrl.ListTables)
	tables.GET("/:name", cntrl.PreviewTable)
	tables.GET("/:name/values", cntrl.DistinctValues)
	tables.GET("/:name/filter", cntrl.FilterTable)

	queries := api.Group("/queries")
	queries.GET("/presets", cntrl.ListPresets)
	queries.POST("/run", cntrl.RunQuery)
	queries.POST("/download", cntrl.DownloadQuery)

	stats := api.Group("/stats")
	stats.GET("/parameters", cntrl.ParameterStats)

	admin := api.Group("/console", svc.AdminMiddleware)
	admin.POST("/reload", cntrl.ReloadConsole)

	return svc, nil
}

// bindRequestID puts the request id into the request context for the zap logger.
func bindRequestID(c echo.Context, id string) {
	c.Set(constants.CtxKeyRequestID, id)
	req := c.Request()
	c.SetRequest(req.WithContext(logger.WithFields(req.Context(), zap.String(constants.CtxKeyRequestID, id))))
}

func gommonLevel(level string) log.Lvl {
	switch level {
	case "debug":
		return log.DEBUG
	case "warn":
		return log.WARN
	case "error":
		return log.ERROR
	default:
		return log.INFO
	}
}
