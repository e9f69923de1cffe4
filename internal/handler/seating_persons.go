package handler

import (
    "fmt"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/seat-planner/internal/service"
    "github.com/iliyamo/seat-planner/internal/sheet"
)

// maxUploadBytes bounds an uploaded import workbook.
const maxUploadBytes = 10 << 20

func (h *SeatingHandler) ListPersons(c echo.Context) error {
    list, err := h.Svc.ListPersons(c.Request().Context())
    if err != nil {
        return fail(c, h.Log, err)
    }
    return ok(c, http.StatusOK, list, "")
}

func (h *SeatingHandler) CreatePerson(c echo.Context) error {
    var in service.PersonInput
    if err := c.Bind(&in); err != nil {
        return badRequest(c, "invalid body")
    }
    p, err := h.Svc.CreatePerson(c.Request().Context(), in)
    if err != nil {
        return fail(c, h.Log, err)
    }
    return ok(c, http.StatusCreated, p, "person created")
}

func (h *SeatingHandler) UpdatePerson(c echo.Context) error {
    id, valid := pathID(c, "id")
    if !valid {
        return badRequest(c, "invalid person id")
    }
    var patch service.PersonPatch
    if err := c.Bind(&patch); err != nil {
        return badRequest(c, "invalid body")
    }
    p, err := h.Svc.UpdatePerson(c.Request().Context(), id, patch)
    if err != nil {
        return fail(c, h.Log, err)
    }
    return ok(c, http.StatusOK, p, "person updated")
}

func (h *SeatingHandler) DeletePerson(c echo.Context) error {
    id, valid := pathID(c, "id")
    if !valid {
        return badRequest(c, "invalid person id")
    }
    res, err := h.Svc.DeletePerson(c.Request().Context(), id)
    if err != nil {
        return fail(c, h.Log, err)
    }
    return ok(c, http.StatusOK, res, fmt.Sprintf("deleted %s", res.Names[0]))
}

// DeletePersons removes every listed person or, when any id is unknown,
// none of them.
func (h *SeatingHandler) DeletePersons(c echo.Context) error {
    var req personIDsReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    res, err := h.Svc.DeletePersons(c.Request().Context(), idsInput(req.IDs, req.PersonIDs))
    if err != nil {
        return fail(c, h.Log, err)
    }
    return ok(c, http.StatusOK, res, fmt.Sprintf("deleted %d persons", res.Deleted))
}

type importReq struct {
    Rows []service.ImportRow `json:"rows"`
}

// ImportPersons imports rows already parsed by the client.
func (h *SeatingHandler) ImportPersons(c echo.Context) error {
    var req importReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    return h.importRows(c, req.Rows)
}

// ImportWorkbook imports the first sheet of an uploaded xlsx file sent
// as multipart field "file".
func (h *SeatingHandler) ImportWorkbook(c echo.Context) error {
    fh, err := c.FormFile("file")
    if err != nil {
        return badRequest(c, "multipart field \"file\" is required")
    }
    if fh.Size > maxUploadBytes {
        return badRequest(c, "workbook is too large")
    }
    f, err := fh.Open()
    if err != nil {
        return badRequest(c, "cannot read upload")
    }
    defer f.Close()
    rows, err := sheet.ReadImportRows(f)
    if err != nil {
        return badRequest(c, "cannot read workbook: "+err.Error())
    }
    return h.importRows(c, rows)
}

func (h *SeatingHandler) importRows(c echo.Context, rows []service.ImportRow) error {
    res, err := h.Svc.ImportPersons(c.Request().Context(), rows)
    if err != nil {
        return fail(c, h.Log, err)
    }
    return ok(c, http.StatusOK, res, res.Message)
}
