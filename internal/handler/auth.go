package handler

import (
    "crypto/subtle"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/seat-planner/internal/utils"
)

// AuthHandler issues access tokens to the single configured operator.
type AuthHandler struct {
    User         string
    PasswordHash string
    Secret       string
    TTL          time.Duration
    Log          logrus.FieldLogger
}

func NewAuthHandler(user, passwordHash, secret string, ttl time.Duration, log logrus.FieldLogger) *AuthHandler {
    if user == "" || passwordHash == "" || secret == "" || log == nil {
        panic("incomplete operator credentials passed to NewAuthHandler")
    }
    return &AuthHandler{User: user, PasswordHash: passwordHash, Secret: secret, TTL: ttl, Log: log}
}

type loginReq struct {
    Username string `json:"username"`
    Password string `json:"password"`
}

type loginResp struct {
    Operator string             `json:"operator"`
    Access   utils.AccessToken `json:"access"`
}

// Login verifies the operator credentials and returns an access token.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return badRequest(c, "invalid body")
    }
    req.Username = strings.TrimSpace(req.Username)
    if req.Username == "" || req.Password == "" {
        return badRequest(c, "username/password required")
    }
    userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.User)) == 1
    passOK := utils.VerifyPassword(h.PasswordHash, req.Password)
    if !userOK || !passOK {
        h.Log.WithField("username", req.Username).Warn("failed operator login")
        return c.JSON(http.StatusUnauthorized, envelope{Error: "invalid credentials"})
    }
    tok, err := utils.NewAccessToken(h.Secret, h.User, h.TTL)
    if err != nil {
        return fail(c, h.Log, err)
    }
    return ok(c, http.StatusOK, loginResp{Operator: h.User, Access: tok}, "")
}
