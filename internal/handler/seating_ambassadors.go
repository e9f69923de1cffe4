package handler

import (
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/seat-planner/internal/service"
)

func (h *SeatingHandler) ListAmbassadors(c echo.Context) error {
    list, err := h.Svc.ListAmbassadors(c.Request().Context())
    if err != nil {
        return fail(c, h.Log, err)
    }
    return ok(c, http.StatusOK, list, "")
}

func (h *SeatingHandler) CreateAmbassador(c echo.Context) error {
    var in service.AmbassadorInput
    if err := c.Bind(&in); err != nil {
        return badRequest(c, "invalid body")
    }
    a, err := h.Svc.CreateAmbassador(c.Request().Context(), in)
    if err != nil {
        return fail(c, h.Log, err)
    }
    return ok(c, http.StatusCreated, a, "ambassador created")
}

func (h *SeatingHandler) RenameAmbassador(c echo.Context) error {
    id, valid := pathID(c, "id")
    if !valid {
        return badRequest(c, "invalid ambassador id")
    }
    var in service.AmbassadorInput
    if err := c.Bind(&in); err != nil {
        return badRequest(c, "invalid body")
    }
    a, err := h.Svc.RenameAmbassador(c.Request().Context(), id, in)
    if err != nil {
        return fail(c, h.Log, err)
    }
    return ok(c, http.StatusOK, a, "ambassador renamed")
}

// DeleteAmbassador removes one ambassador; its persons stay unlinked.
func (h *SeatingHandler) DeleteAmbassador(c echo.Context) error {
    id, valid := pathID(c, "id")
    if !valid {
        return badRequest(c, "invalid ambassador id")
    }
    res, err := h.Svc.DeleteAmbassador(c.Request().Context(), id)
    if err != nil {
        return fail(c, h.Log, err)
    }
    return ok(c, http.StatusOK, res, fmt.Sprintf("deleted ambassador %s", res.Names[0]))
}

func (h *SeatingHandler) DeleteAmbassadors(c echo.Context) error {
    var req ambassadorIDsReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    res, err := h.Svc.DeleteAmbassadors(c.Request().Context(), idsInput(req.IDs, req.AmbassadorIDs))
    if err != nil {
        return fail(c, h.Log, err)
    }
    return ok(c, http.StatusOK, res, fmt.Sprintf("deleted %d ambassadors", res.Deleted))
}
