package api

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"DemandCast/internal/domain/models"
	"DemandCast/internal/service/ratelimit"
	"DemandCast/internal/services/export"
	"DemandCast/internal/usecase"
	xhttp "DemandCast/pkg/http"
	xlogger "DemandCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Forecaster is what the HTTP layer needs from the forecast use case.
type Forecaster interface {
	Products() models.ProductRanking
	Run(ctx context.Context, p usecase.ForecastParams) (*usecase.ForecastOutcome, error)
	Export(ctx context.Context, p usecase.ForecastParams) (string, []byte, error)
}

var _ Forecaster = (*usecase.ForecastUseCase)(nil)

func init() {
	names := models.BackendNames()
	err := xhttp.RegisterStringRule("backend", "%[1]s must be one of: "+strings.Join(names, ", "), names, func(s string) bool {
		_, err := models.ParseBackend(s)
		return err == nil
	})
	if err != nil {
		panic(err)
	}
}

// RateLimit is the per-client budget for the forecast endpoints.
type RateLimit struct {
	Capacity     float64
	RefillPerSec float64
}

// ForecastEchoHandler serves product selection, forecasts and CSV download.
type ForecastEchoHandler struct {
	logger  *xlogger.Logger
	uc      Forecaster
	limiter *ratelimit.Limiter
	rate    RateLimit
}

func NewForecastEchoHandler(logger *xlogger.Logger, uc Forecaster, limiter *ratelimit.Limiter, rate RateLimit) *ForecastEchoHandler {
	return &ForecastEchoHandler{logger: logger, uc: uc, limiter: limiter, rate: rate}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")
	g.GET("/products", h.Products)

	var mw []echo.MiddlewareFunc
	if h.limiter != nil {
		mw = append(mw, h.limiter.Middleware(h.rate.Capacity, h.rate.RefillPerSec))
	}
	g.GET("/forecast", h.Forecast, mw...)
	g.GET("/forecast/export", h.Export, mw...)
}

func (h *ForecastEchoHandler) Health(c echo.Context) error {
	if h.uc == nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("dataset not loaded"))
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{"status": "ok", "products": len(h.uc.Products())})
}

func (h *ForecastEchoHandler) Products(c echo.Context) error {
	req := &models.ProductsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.uc == nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("dataset not loaded"))
	}
	ranking := h.uc.Products()
	if len(ranking) > req.Limit {
		ranking = ranking[:req.Limit]
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return xhttp.ListResponse(c, ranking, int64(len(ranking)))
}

func (h *ForecastEchoHandler) Forecast(c echo.Context) error {
	req := &models.ForecastQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.uc == nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("dataset not loaded"))
	}

	out, err := h.uc.Run(c.Request().Context(), paramsOf(req))
	if err != nil {
		return h.fail(c, "forecast", err)
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *ForecastEchoHandler) Export(c echo.Context) error {
	req := &models.ForecastQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if h.uc == nil {
		return xhttp.AppErrorResponse(c, xhttp.ServiceUnavailableError("dataset not loaded"))
	}

	name, data, err := h.uc.Export(c.Request().Context(), paramsOf(req))
	if err != nil {
		return h.fail(c, "export", err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+name+`"`)
	return c.Blob(http.StatusOK, export.ContentType, data)
}

func paramsOf(q *models.ForecastQuery) usecase.ForecastParams {
	return usecase.ForecastParams{ProductCode: q.Product, HorizonWeeks: q.HorizonWeeks(), Backend: q.Backend}
}

func (h *ForecastEchoHandler) fail(c echo.Context, op string, err error) error {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		h.logger.Error(op+" usecase error", xlogger.Error(err))
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// toAppError maps domain errors onto HTTP statuses.
func toAppError(err error) *xhttp.AppError {
	var ff *models.ForecastFailure
	switch {
	case errors.Is(err, models.ErrInvalidHorizon):
		return xhttp.BadRequestError(err.Error()).WithCode("ERR_INVALID_HORIZON", "horizon").WithError(err)
	case errors.Is(err, models.ErrUnknownBackend):
		return xhttp.BadRequestError(err.Error()).WithCode("ERR_UNKNOWN_BACKEND", "backend").WithError(err)
	case errors.Is(err, models.ErrUnknownProduct):
		return xhttp.NotFoundError(err.Error()).WithCode("ERR_UNKNOWN_PRODUCT", "product").WithError(err)
	case errors.Is(err, models.ErrInsufficientData):
		return xhttp.UnprocessableError(err.Error()).WithCode("ERR_INSUFFICIENT_DATA", "product").WithError(err)
	case errors.Is(err, models.ErrNothingToExport):
		return xhttp.UnprocessableError(err.Error()).WithCode("ERR_NOTHING_TO_EXPORT", "").WithError(err)
	case errors.As(err, &ff):
		return xhttp.InternalError(err.Error()).WithCode("ERR_FORECAST_FAILED", "backend").
			WithParam("backend", string(ff.Backend)).WithError(err)
	case errors.Is(err, models.ErrEmptyDataset), errors.Is(err, models.ErrEmptySource):
		return xhttp.ServiceUnavailableError(err.Error()).WithError(err)
	default:
		return xhttp.InternalError("forecast request failed").WithError(err)
	}
}
