package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/billytalbutt/traka-launchpad/internal/core/ports"
)

// AdminHandler serves analytics and the service control plane.
type AdminHandler struct {
	analytics ports.AnalyticsService
	services  ports.ServiceAdminService
}

func NewAdminHandler(analytics ports.AnalyticsService, services ports.ServiceAdminService) *AdminHandler {
	return &AdminHandler{analytics: analytics, services: services}
}

// Analytics returns launch totals, the 30-day chart, the leaderboard and recent activity.
//
// @Summary      Launch analytics
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.AnalyticsSummary
// @Failure      403  {object}  map[string]string
// @Router       /api/admin/analytics [get]
func (h *AdminHandler) Analytics(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	summary, err := h.analytics.Summary(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summary)
}

// Services lists the configured services with their live status.
//
// @Summary      List services
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   ports.ServiceView
// @Failure      403  {object}  map[string]string
// @Router       /api/admin/services [get]
func (h *AdminHandler) Services(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	views, err := h.services.List(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

// Service returns one service, with recent log entries when logs=true.
//
// @Summary      Get a service
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        name  path      string  true   "Service name"
// @Param        logs  query     bool    false  "Include recent log entries"
// @Success      200   {object}  ports.ServiceDetail
// @Failure      404   {object}  map[string]string
// @Router       /api/admin/services/{name} [get]
func (h *AdminHandler) Service(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	withLogs, _ := strconv.ParseBool(c.QueryParam("logs"))
	detail, err := h.services.Get(c.Request().Context(), p, c.Param("name"), withLogs)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

// ServiceAction starts, stops or restarts a service and returns its refreshed state.
//
// @Summary      Control a service
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        name  path      string                true  "Service name"
// @Param        body  body      serviceActionRequest  true  "Action"
// @Success      200   {object}  ports.ServiceView
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      500   {object}  map[string]string  "code=access_denied when not elevated"
// @Router       /api/admin/services/{name}/action [post]
func (h *AdminHandler) ServiceAction(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req serviceActionRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	view, err := h.services.Perform(c.Request().Context(), p, c.Param("name"), req.Action)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}
