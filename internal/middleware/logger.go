package middleware

import (
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"
)

// RequestLogger writes one entry per request.  Server errors are logged
// at error level, client errors at warn level.
func RequestLogger(log logrus.FieldLogger) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                // let echo write the error response so the status is final
                c.Error(err)
            }

            req, res := c.Request(), c.Response()
            reqID := req.Header.Get(echo.HeaderXRequestID)
            if reqID == "" {
                reqID = res.Header().Get(echo.HeaderXRequestID)
            }
            entry := log.WithFields(logrus.Fields{
                "method":     req.Method,
                "path":       c.Path(),
                "uri":        req.RequestURI,
                "status":     res.Status,
                "latency_ms": time.Since(start).Milliseconds(),
                "bytes_out":  res.Size,
                "remote_ip":  c.RealIP(),
                "request_id": reqID,
                "operator":   Operator(c),
            })
            if err != nil {
                entry = entry.WithError(err)
            }
            switch {
            case res.Status >= 500:
                entry.Error("request")
            case res.Status >= 400:
                entry.Warn("request")
            default:
                entry.Info("request")
            }
            return nil
        }
    }
}
