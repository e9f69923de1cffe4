package handler

import (
    "net/http"
    "strconv"

    "github.com/labstack/echo/v4"
    "github.com/pkg/errors"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/seat-planner/internal/service"
    "github.com/iliyamo/seat-planner/internal/validation"
)

// envelope is the body of every JSON response.
type envelope struct {
    Success bool                    `json:"success"`
    Data    any                     `json:"data,omitempty"`
    Message string                  `json:"message,omitempty"`
    Error   string                  `json:"error,omitempty"`
    Errors  []validation.FieldError `json:"errors,omitempty"`
}

func ok(c echo.Context, status int, data any, msg string) error {
    return c.JSON(status, envelope{Success: true, Data: data, Message: msg})
}

func badRequest(c echo.Context, msg string) error {
    return c.JSON(http.StatusBadRequest, envelope{Error: msg})
}

// statusOf maps a service error kind onto an HTTP status.
func statusOf(k service.Kind) int {
    switch k {
    case service.KindValidation:
        return http.StatusBadRequest
    case service.KindNotFound:
        return http.StatusNotFound
    case service.KindConflict:
        return http.StatusConflict
    default:
        return http.StatusInternalServerError
    }
}

// fail writes err as an envelope.  Internal causes are logged and
// replaced by a generic message.
func fail(c echo.Context, log logrus.FieldLogger, err error) error {
    var se *service.Error
    if !errors.As(err, &se) || se.Kind == service.KindInternal {
        log.WithError(err).WithField("path", c.Path()).Error("request failed")
        return c.JSON(http.StatusInternalServerError, envelope{Error: "internal error"})
    }
    return c.JSON(statusOf(se.Kind), envelope{Error: se.Message, Errors: se.Fields})
}

// pathID parses a positive integer path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
    id, err := strconv.ParseUint(c.Param(name), 10, 64)
    return id, err == nil && id > 0
}
