package handler

import (
    "context"
    "net/http"
    "time"

    "github.com/labstack/echo/v4"
)

// Version is reported by /v1/health.  Overridden at build time with
// -ldflags "-X github.com/iliyamo/seat-planner/internal/handler.Version=...".
var Version = "dev"

// Health is the liveness probe.  It returns plain "ok" and never touches
// the database.
func Health(c echo.Context) error {
    return c.String(http.StatusOK, "ok")
}

// Pinger is satisfied by *sql.DB.
type Pinger interface {
    PingContext(ctx context.Context) error
}

// HealthHandler reports readiness, including database reachability.
type HealthHandler struct {
    DB Pinger
}

func NewHealthHandler(db Pinger) *HealthHandler {
    if db == nil {
        panic("nil database passed to NewHealthHandler")
    }
    return &HealthHandler{DB: db}
}

type healthData struct {
    Database  string    `json:"database"`
    Version   string    `json:"version"`
    Timestamp time.Time `json:"timestamp"`
}

// Ready pings the database with a short timeout.  An unreachable
// database yields 503 so that load balancers stop routing.
func (h *HealthHandler) Ready(c echo.Context) error {
    ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
    defer cancel()
    data := healthData{Database: "connected", Version: Version, Timestamp: time.Now().UTC()}
    if err := h.DB.PingContext(ctx); err != nil {
        data.Database = "unreachable"
        return c.JSON(http.StatusServiceUnavailable, envelope{Data: data, Error: "database unreachable"})
    }
    return ok(c, http.StatusOK, data, "service is running")
}
