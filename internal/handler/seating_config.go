package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/seat-planner/internal/service"
)

// GetConfig returns the current configuration or the built-in default.
func (h *SeatingHandler) GetConfig(c echo.Context) error {
    cfg, err := h.Svc.GetConfig(c.Request().Context())
    if err != nil {
        return fail(c, h.Log, err)
    }
    return ok(c, http.StatusOK, cfg, "")
}

// UpdateConfig replaces the configuration.
func (h *SeatingHandler) UpdateConfig(c echo.Context) error {
    var in service.ConfigInput
    if err := c.Bind(&in); err != nil {
        return badRequest(c, "invalid body")
    }
    cfg, err := h.Svc.UpdateConfig(c.Request().Context(), in)
    if err != nil {
        return fail(c, h.Log, err)
    }
    return ok(c, http.StatusOK, cfg, "configuration updated")
}
