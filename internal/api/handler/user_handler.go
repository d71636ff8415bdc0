package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/billytalbutt/traka-launchpad/internal/core/ports"
)

type UserHandler struct {
	users ports.UserService
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users}
}

// Profile returns the caller's launch settings. The RDP password is reported only as set or not.
//
// @Summary      Get own profile
// @Tags         profile
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.Profile
// @Router       /api/profile [get]
func (h *UserHandler) Profile(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	prof, err := h.users.Profile(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, prof)
}

// UpdateProfile changes the caller's launch settings.
//
// @Summary      Update own profile
// @Tags         profile
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      profileRequest  true  "Fields to change"
// @Success      200   {object}  ports.Profile
// @Failure      400   {object}  map[string]string
// @Router       /api/profile [put]
func (h *UserHandler) UpdateProfile(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req profileRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	prof, err := h.users.UpdateProfile(c.Request().Context(), p, req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, prof)
}

// List returns every account with its launch count.
//
// @Summary      List users
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   ports.UserView
// @Failure      403  {object}  map[string]string
// @Router       /api/admin/users [get]
func (h *UserHandler) List(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	users, err := h.users.List(c.Request().Context(), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, users)
}

// Update changes another user's role, flags or launch settings.
//
// @Summary      Update a user
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string             true  "User id"
// @Param        body  body      userUpdateRequest  true  "Fields to change"
// @Success      200   {object}  ports.UserView
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/admin/users/{id} [put]
func (h *UserHandler) Update(c echo.Context) error {
	p, err := principal(c)
	if err != nil {
		return err
	}
	var req userUpdateRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	view, err := h.users.Update(c.Request().Context(), p, c.Param("id"), req.input())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}
