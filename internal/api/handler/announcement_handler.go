package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/billytalbutt/traka-launchpad/internal/core/ports"
)

type AnnouncementHandler struct {
	announcements ports.AnnouncementService
}

func NewAnnouncementHandler(announcements ports.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcements: announcements}
}

// Active returns the banners currently shown on the dashboard, newest first.
//
// @Summary      Active announcements
// @Tags         announcements
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Announcement
// @Router       /api/announcements [get]
func (h *AnnouncementHandler) Active(c echo.Context) error {
	list, err := h.announcements.Active(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// @Summary      All announcements
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Announcement
// @Failure      403  {object}  map[string]string
// @Router       /api/admin/announcements [get]
func (h *AnnouncementHandler) All(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	list, err := h.announcements.All(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, list)
}

// @Summary      Create an announcement
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      announcementRequest  true  "Announcement"
// @Success      201   {object}  domain.Announcement
// @Failure      400   {object}  map[string]string
// @Router       /api/admin/announcements [post]
func (h *AnnouncementHandler) Create(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req announcementRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	a, err := h.announcements.Create(c.Request().Context(), p, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, a)
}

// @Summary      Update an announcement
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string               true  "Announcement id"
// @Param        body  body      announcementRequest  true  "Fields to change"
// @Success      200   {object}  domain.Announcement
// @Failure      404   {object}  map[string]string
// @Router       /api/admin/announcements/{id} [put]
func (h *AnnouncementHandler) Update(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req announcementRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	a, err := h.announcements.Update(c.Request().Context(), p, c.Param("id"), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

// @Summary      Delete an announcement
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path  string  true  "Announcement id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /api/admin/announcements/{id} [delete]
func (h *AnnouncementHandler) Delete(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.announcements.Delete(c.Request().Context(), p, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
