package middleware

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/seat-planner/internal/utils"
)

// OperatorAuth returns an echo middleware that requires a valid Bearer
// access token signed with secret.  The token subject is stored in the
// context and can be read with Operator.
func OperatorAuth(secret string) echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            auth := c.Request().Header.Get(echo.HeaderAuthorization)
            if !strings.HasPrefix(auth, "Bearer ") {
                return unauthorized(c, "missing bearer token")
            }
            claims, err := utils.ParseAccessToken(secret, strings.TrimPrefix(auth, "Bearer "))
            if err != nil {
                return unauthorized(c, "invalid token")
            }
            c.Set(operatorKey, claims.Subject)
            return next(c)
        }
    }
}

func unauthorized(c echo.Context, msg string) error {
    c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
    return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "error": msg})
}
