package api

import (
	xhttp "PippyDesk/pkg/http"

	"github.com/labstack/echo/v4"
)

// Router registers every API handler on one echo instance.
type Router struct {
	handlers []xhttp.Handler
}

// NewRouter skips nil handlers, so optional features can be left out.
func NewRouter(assistant *AssistantEchoHandler, journal *JournalEchoHandler) *Router {
	r := &Router{}
	if assistant != nil {
		r.handlers = append(r.handlers, assistant)
	}
	if journal != nil {
		r.handlers = append(r.handlers, journal)
	}
	return r
}

func (r *Router) RegisterRoutes(e *echo.Echo) {
	for _, h := range r.handlers {
		h.RegisterRoutes(e)
	}
}
