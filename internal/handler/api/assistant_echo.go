package api

import (
	"net/http"

	models "PippyDesk/internal/domain/models"
	"PippyDesk/internal/usecase"
	xhttp "PippyDesk/pkg/http"
	"PippyDesk/pkg/http/middleware"
	xlogger "PippyDesk/pkg/logger"

	"github.com/labstack/echo/v4"
)

// AssistantEchoHandler serves chat, plan and health.
type AssistantEchoHandler struct {
	logger  *xlogger.Logger
	chat    *usecase.ChatService
	plan    *usecase.PlanService
	status  *usecase.StatusService
	limiter middleware.Limiter
}

func NewAssistantEchoHandler(logger *xlogger.Logger, chat *usecase.ChatService, plan *usecase.PlanService, status *usecase.StatusService, limiter middleware.Limiter) *AssistantEchoHandler {
	return &AssistantEchoHandler{logger: logger, chat: chat, plan: plan, status: status, limiter: limiter}
}

func (h *AssistantEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	var mw []echo.MiddlewareFunc
	if h.limiter != nil {
		mw = append(mw, middleware.RateLimit(h.limiter, h.logger))
	}
	g.POST("/chat", h.Chat, mw...)
	g.POST("/plan", h.Plan, mw...)
	g.GET("/health", h.Health)
}

func (h *AssistantEchoHandler) Chat(c echo.Context) error {
	req := &models.ChatRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.chat.Chat(c.Request().Context(), req)
	if err != nil {
		return errorResponse(c, h.logger, "chat", err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *AssistantEchoHandler) Plan(c echo.Context) error {
	req := &models.PlanRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, err := h.plan.Plan(c.Request().Context(), req)
	if err != nil {
		return errorResponse(c, h.logger, "plan", err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Health answers 200 while at least one provider is configured.
func (h *AssistantEchoHandler) Health(c echo.Context) error {
	r := h.status.Report()
	code := http.StatusOK
	if r.Status == "down" {
		code = http.StatusServiceUnavailable
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
	return xhttp.DataResponse(c, code, r)
}
