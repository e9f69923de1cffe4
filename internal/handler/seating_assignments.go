package handler

import (
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/seat-planner/internal/service"
)

// ListAssignments returns raw stored rows joined with their persons.
func (h *SeatingHandler) ListAssignments(c echo.Context) error {
    rows, err := h.Svc.ListAssignments(c.Request().Context())
    if err != nil {
        return fail(c, h.Log, err)
    }
    return ok(c, http.StatusOK, rows, "")
}

// Layout returns the reconciled grid and waiting roster.
func (h *SeatingHandler) Layout(c echo.Context) error {
    layout, err := h.Svc.BuildLayout(c.Request().Context())
    if err != nil {
        return fail(c, h.Log, err)
    }
    return ok(c, http.StatusOK, layout, "")
}

func (h *SeatingHandler) AssignSingle(c echo.Context) error {
    var in service.Placement
    if err := c.Bind(&in); err != nil {
        return badRequest(c, "invalid body")
    }
    res, err := h.Svc.AssignSingle(c.Request().Context(), in)
    if err != nil {
        return fail(c, h.Log, err)
    }
    return ok(c, http.StatusOK, res.Assignment, res.Message)
}

type batchResp struct {
    Count int `json:"count"`
}

// AssignBatch saves several placements at once, typically a swap.
func (h *SeatingHandler) AssignBatch(c echo.Context) error {
    var in service.BatchInput
    if err := c.Bind(&in); err != nil {
        return badRequest(c, "invalid body")
    }
    n, err := h.Svc.AssignBatch(c.Request().Context(), in)
    if err != nil {
        return fail(c, h.Log, err)
    }
    return ok(c, http.StatusOK, batchResp{Count: n}, fmt.Sprintf("%d placements saved", n))
}

type unassignResp struct {
    PersonID uint64 `json:"person_id"`
    Outcome  string `json:"outcome"`
}

// Unassign moves a person to the waiting area.  Repeating it is harmless.
func (h *SeatingHandler) Unassign(c echo.Context) error {
    id, valid := pathID(c, "personId")
    if !valid {
        return badRequest(c, "invalid person id")
    }
    out, err := h.Svc.Unassign(c.Request().Context(), id)
    if err != nil {
        return fail(c, h.Log, err)
    }
    msg := "moved to waiting area"
    if out == service.UnassignAlreadyWaiting {
        msg = "already in waiting area"
    }
    return ok(c, http.StatusOK, unassignResp{PersonID: id, Outcome: out.String()}, msg)
}

// Suggest proposes seats for waiting persons without saving them.
func (h *SeatingHandler) Suggest(c echo.Context) error {
    var in service.SuggestInput
    if err := c.Bind(&in); err != nil {
        return badRequest(c, "invalid body")
    }
    res, err := h.Svc.Suggest(c.Request().Context(), in)
    if err != nil {
        return fail(c, h.Log, err)
    }
    return ok(c, http.StatusOK, res, fmt.Sprintf("%d seats suggested", len(res.Suggestions)))
}
