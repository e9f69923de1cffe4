package handler

import (
    "bytes"
    "io"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/pkg/errors"

    "github.com/iliyamo/seat-planner/internal/model"
    "github.com/iliyamo/seat-planner/internal/sheet"
)

const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportSeating downloads the seating chart workbook.
func (h *SeatingHandler) ExportSeating(c echo.Context) error {
    return h.export(c, "seating", sheet.WriteSeatingChart)
}

// ExportSignIn downloads the per-desk sign-in workbook.  404 when no one
// other than counselors is seated.
func (h *SeatingHandler) ExportSignIn(c echo.Context) error {
    return h.export(c, "sign_in", sheet.WriteSignInSheet)
}

func (h *SeatingHandler) export(c echo.Context, prefix string, write func(io.Writer, *model.Layout) error) error {
    layout, err := h.Svc.BuildLayout(c.Request().Context())
    if err != nil {
        return fail(c, h.Log, err)
    }
    var buf bytes.Buffer
    if err := write(&buf, layout); err != nil {
        if errors.Is(err, sheet.ErrNothingToExport) {
            return c.JSON(http.StatusNotFound, envelope{Error: "no seated persons to export"})
        }
        return fail(c, h.Log, errors.Wrap(err, "render workbook"))
    }
    c.Response().Header().Set(echo.HeaderContentDisposition,
        `attachment; filename="`+sheet.Filename(prefix, h.Now().UTC())+`"`)
    return c.Blob(http.StatusOK, mimeXLSX, buf.Bytes())
}
