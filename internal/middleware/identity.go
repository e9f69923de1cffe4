package middleware

import "github.com/labstack/echo/v4"

// operatorKey holds the authenticated operator's name in the echo
// context.  It is set by OperatorAuth.
const operatorKey = "operator"

// Operator returns the authenticated operator, or "anon" when the
// request passed no auth guard.
func Operator(c echo.Context) string {
    if v, ok := c.Get(operatorKey).(string); ok && v != "" {
        return v
    }
    return "anon"
}
