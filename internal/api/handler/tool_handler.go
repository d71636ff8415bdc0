package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/billytalbutt/traka-launchpad/internal/core/ports"
)

// ToolHandler serves the dashboard catalogue, favorites, launches and tool administration.
type ToolHandler struct {
	tools    ports.ToolService
	launcher ports.LaunchService
}

func NewToolHandler(tools ports.ToolService, launcher ports.LaunchService) *ToolHandler {
	return &ToolHandler{tools: tools, launcher: launcher}
}

// List returns the tools visible to the caller with favorite flags and launch counts.
//
// @Summary      List tools
// @Tags         tools
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   ports.ToolView
// @Failure      401  {object}  map[string]string
// @Router       /api/tools [get]
func (h *ToolHandler) List(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	views, err := h.tools.ListForUser(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

// Get returns one tool with its parsed help sections.
//
// @Summary      Get a tool
// @Tags         tools
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Tool id"
// @Success      200  {object}  ports.ToolDetail
// @Failure      404  {object}  map[string]string
// @Router       /api/tools/{id} [get]
func (h *ToolHandler) Get(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	detail, err := h.tools.Get(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, detail)
}

// Favorites returns the caller's pinned tools.
//
// @Summary      List favorite tools
// @Tags         tools
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   ports.ToolView
// @Router       /api/favorites [get]
func (h *ToolHandler) Favorites(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	views, err := h.tools.Favorites(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

// ToggleFavorite flips the favorite flag and returns the new state.
//
// @Summary      Toggle favorite
// @Tags         tools
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Tool id"
// @Success      200  {object}  favoriteResponse
// @Failure      404  {object}  map[string]string
// @Router       /api/tools/{id}/favorite [post]
func (h *ToolHandler) ToggleFavorite(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	id := c.Param("id")
	fav, err := h.tools.ToggleFavorite(c.Request().Context(), p, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, favoriteResponse{ToolID: id, IsFavorite: fav})
}

// Launch records the launch and performs the tool's launch action. A failed
// desktop launch still answers 200 with desktopStatus and error set.
//
// @Summary      Launch a tool
// @Tags         tools
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Tool id"
// @Success      200  {object}  domain.LaunchResult
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/tools/{id}/launch [post]
func (h *ToolHandler) Launch(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	res, err := h.launcher.Launch(c.Request().Context(), p, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, res)
}

// AdminList returns every tool, inactive ones included.
//
// @Summary      List all tools
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Tool
// @Failure      403  {object}  map[string]string
// @Router       /api/admin/tools [get]
func (h *ToolHandler) AdminList(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	tools, err := h.tools.ListAll(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tools)
}

// Create adds a tool. Its id is derived from the name.
//
// @Summary      Create a tool
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      toolRequest  true  "Tool"
// @Success      201   {object}  domain.Tool
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Router       /api/admin/tools [post]
func (h *ToolHandler) Create(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req toolRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	tool, err := h.tools.Create(c.Request().Context(), p, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, tool)
}

// Update patches a tool. The id never changes.
//
// @Summary      Update a tool
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string       true  "Tool id"
// @Param        body  body      toolRequest  true  "Fields to change"
// @Success      200   {object}  domain.Tool
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/admin/tools/{id} [put]
func (h *ToolHandler) Update(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req toolRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	tool, err := h.tools.Update(c.Request().Context(), p, c.Param("id"), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tool)
}

// Delete removes a tool.
//
// @Summary      Delete a tool
// @Tags         admin
// @Security     BearerAuth
// @Param        id   path  string  true  "Tool id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /api/admin/tools/{id} [delete]
func (h *ToolHandler) Delete(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	if err := h.tools.Delete(c.Request().Context(), p, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
