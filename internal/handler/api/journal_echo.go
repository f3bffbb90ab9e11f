package api

import (
	"strconv"
	"strings"

	models "PippyDesk/internal/domain/models"
	"PippyDesk/internal/usecase"
	xhttp "PippyDesk/pkg/http"
	xlogger "PippyDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// JournalEchoHandler serves the trade journal.
type JournalEchoHandler struct {
	logger  *xlogger.Logger
	journal *usecase.JournalService
}

func NewJournalEchoHandler(logger *xlogger.Logger, journal *usecase.JournalService) *JournalEchoHandler {
	return &JournalEchoHandler{logger: logger, journal: journal}
}

func (h *JournalEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api/trades")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/stats", h.Stats)
	g.GET("/:id", h.Get)
	g.PATCH("/:id", h.Update)
	g.POST("/:id/close", h.Close)
	g.DELETE("/:id", h.Delete)
}

func (h *JournalEchoHandler) Create(c echo.Context) error {
	req := &models.Trade{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	t, err := h.journal.Create(c.Request().Context(), req)
	if err != nil {
		return errorResponse(c, h.logger, "create trade", err)
	}
	return xhttp.CreatedResponse(c, t)
}

func (h *JournalEchoHandler) List(c echo.Context) error {
	f := models.TradeFilter{
		Pair:   strings.TrimSpace(c.QueryParam("pair")),
		Status: models.TradeStatus(strings.ToUpper(c.QueryParam("status"))),
		Limit:  xhttp.ParseIntDefault(c.QueryParam("limit"), 50),
		Offset: xhttp.ParseIntDefault(c.QueryParam("offset"), 0),
	}
	rows, total, err := h.journal.List(c.Request().Context(), f)
	if err != nil {
		return errorResponse(c, h.logger, "list trades", err)
	}
	return xhttp.ListResponse(c, rows, total)
}

func (h *JournalEchoHandler) Get(c echo.Context) error {
	id, err := tradeID(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	t, err := h.journal.Get(c.Request().Context(), id)
	if err != nil {
		return errorResponse(c, h.logger, "get trade", err)
	}
	return xhttp.SuccessResponse(c, t)
}

func (h *JournalEchoHandler) Update(c echo.Context) error {
	id, err := tradeID(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	patch := &models.TradePatch{}
	if err := c.Bind(patch); err != nil {
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("invalid body"))
	}
	t, err := h.journal.Update(c.Request().Context(), id, *patch)
	if err != nil {
		return errorResponse(c, h.logger, "update trade", err)
	}
	return xhttp.SuccessResponse(c, t)
}

func (h *JournalEchoHandler) Close(c echo.Context) error {
	id, err := tradeID(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	req := &models.TradeClose{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	t, err := h.journal.Close(c.Request().Context(), id, *req)
	if err != nil {
		return errorResponse(c, h.logger, "close trade", err)
	}
	return xhttp.SuccessResponse(c, t)
}

func (h *JournalEchoHandler) Delete(c echo.Context) error {
	id, err := tradeID(c)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}
	if err := h.journal.Delete(c.Request().Context(), id); err != nil {
		return errorResponse(c, h.logger, "delete trade", err)
	}
	return xhttp.NoContentResponse(c)
}

func (h *JournalEchoHandler) Stats(c echo.Context) error {
	st, err := h.journal.Stats(c.Request().Context(), strings.TrimSpace(c.QueryParam("pair")))
	if err != nil {
		return errorResponse(c, h.logger, "trade stats", err)
	}
	return xhttp.SuccessResponse(c, st)
}

func tradeID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, xhttp.BadRequestErrorf("invalid trade id %q", c.Param("id"))
	}
	return id, nil
}
