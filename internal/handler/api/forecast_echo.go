package api

import (
	"time"

	models "AlphaCast/internal/domain/models"
	domrepo "AlphaCast/internal/domain/repository"
	"AlphaCast/internal/usecase"
	xhttp "AlphaCast/pkg/http"
	xlogger "AlphaCast/pkg/logger"
	xutil "AlphaCast/pkg/util"

	"github.com/labstack/echo/v4"
)

// ForecastEchoHandler exposes the forecasting pipeline over HTTP.
type ForecastEchoHandler struct {
	logger *xlogger.Logger
	runner *usecase.ForecastRunner
	store  domrepo.ForecastStore
	prices domrepo.PriceStore
}

func NewForecastEchoHandler(logger *xlogger.Logger, runner *usecase.ForecastRunner, store domrepo.ForecastStore, prices domrepo.PriceStore) *ForecastEchoHandler {
	return &ForecastEchoHandler{logger: logger, runner: runner, store: store, prices: prices}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/forecast", h.Forecast)
	g.GET("/candles", h.Candles)
	g.GET("/allocation", h.Allocation)
	g.GET("/sentiment", h.Sentiment)
	e.GET("/healthz", h.Health)
}

func (h *ForecastEchoHandler) Forecast(c echo.Context) error {
	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	res, err := h.runner.ForecastFor(c.Request().Context(), req.Symbol, tf, req.Steps)
	if err != nil {
		h.logger.Error("forecast lookup error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if res == nil {
		return xhttp.NotFoundResponse(c, xhttp.NotFoundErrorf("no forecast for %s yet", req.Symbol))
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=30")
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) Candles(c echo.Context) error {
	req := &models.CandlesRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	tf := domrepo.NormalizeTimeframe(req.TF)

	to := xhttp.ParseTimeDefault(req.To, time.Now().UTC())
	from := xhttp.ParseTimeDefault(req.From, to.Add(-24*time.Hour))
	from, to = xutil.AlignFromTo(from, to, string(tf))

	candles, err := h.prices.GetCandles(c.Request().Context(), req.Symbol, from, to, tf)
	if err != nil {
		h.logger.Error("candles lookup error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, candles)
}

func (h *ForecastEchoHandler) Allocation(c echo.Context) error {
	alloc := h.runner.LatestAllocation()
	if alloc == nil {
		return xhttp.NotFoundResponse(c, xhttp.NotFoundError("no allocation computed yet"))
	}
	return xhttp.SuccessResponse(c, alloc)
}

func (h *ForecastEchoHandler) Sentiment(c echo.Context) error {
	req := &models.SentimentRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.runner.SentimentFor(c.Request().Context(), req.Symbol)
	if err != nil {
		h.logger.Error("sentiment lookup error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *ForecastEchoHandler) Health(c echo.Context) error {
	if err := h.store.Health(c.Request().Context()); err != nil {
		h.logger.Error("health check failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, xhttp.InternalError("storage unavailable").WithError(err))
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}
