package handler_test

import (
    "bytes"
    "context"
    "encoding/json"
    "errors"
    "mime/multipart"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "github.com/xuri/excelize/v2"

    "github.com/iliyamo/seat-planner/internal/handler"
    "github.com/iliyamo/seat-planner/internal/logging"
    "github.com/iliyamo/seat-planner/internal/memstore"
    "github.com/iliyamo/seat-planner/internal/router"
    "github.com/iliyamo/seat-planner/internal/service"
    "github.com/iliyamo/seat-planner/internal/utils"
)

type body struct {
    Success bool            `json:"success"`
    Data    json.RawMessage `json:"data"`
    Message string          `json:"message"`
    Error   string          `json:"error"`
    Errors  []struct {
        Row     int    `json:"row"`
        Field   string `json:"field"`
        Message string `json:"message"`
    } `json:"errors"`
}

type pinger struct{ err error }

func (p pinger) PingContext(context.Context) error { return p.err }

type app struct {
    e     *echo.Echo
    store *memstore.Store
}

func newApp(t *testing.T, mutate ...func(*router.Deps)) *app {
    t.Helper()
    st := memstore.New()
    svc := service.New(st, service.WithLogger(logging.Discard()))
    h := handler.NewSeatingHandler(svc, logging.Discard())
    h.Now = func() time.Time { return time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC) }
    d := router.Deps{Seating: h, Health: handler.NewHealthHandler(pinger{})}
    for _, m := range mutate {
        m(&d)
    }
    e := echo.New()
    router.Register(e, d)
    return &app{e: e, store: st}
}

func (a *app) do(t *testing.T, method, path, payload string, hdr ...string) (*httptest.ResponseRecorder, body) {
    t.Helper()
    req := httptest.NewRequest(method, path, strings.NewReader(payload))
    if payload != "" {
        req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    }
    for i := 0; i+1 < len(hdr); i += 2 {
        req.Header.Set(hdr[i], hdr[i+1])
    }
    rec := httptest.NewRecorder()
    a.e.ServeHTTP(rec, req)
    var b body
    if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
        require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
    }
    return rec, b
}

// createPerson returns the new person's id.
func (a *app) createPerson(t *testing.T, name string) uint64 {
    t.Helper()
    rec, b := a.do(t, http.MethodPost, "/v1/persons", `{"name":"`+name+`"}`)
    require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
    var p struct {
        ID uint64 `json:"id"`
    }
    require.NoError(t, json.Unmarshal(b.Data, &p))
    return p.ID
}

func TestHealth(t *testing.T) {
    a := newApp(t)
    rec, _ := a.do(t, http.MethodGet, "/healthz", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "ok", rec.Body.String())

    rec, b := a.do(t, http.MethodGet, "/v1/health", "")
    assert.Equal(t, http.StatusOK, rec.Code)
    assert.True(t, b.Success)
    assert.Contains(t, string(b.Data), `"database":"connected"`)
}

func TestHealth_DatabaseDown(t *testing.T) {
    a := newApp(t, func(d *router.Deps) {
        d.Health = handler.NewHealthHandler(pinger{err: errors.New("refused")})
    })
    rec, b := a.do(t, http.MethodGet, "/v1/health", "")
    assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
    assert.False(t, b.Success)
    assert.Equal(t, "database unreachable", b.Error)
}

func TestConfig_DefaultThenUpdate(t *testing.T) {
    a := newApp(t)
    rec, b := a.do(t, http.MethodGet, "/v1/config", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, string(b.Data), `"desk_count":4`)

    rec, b = a.do(t, http.MethodPut, "/v1/config", `{"desk_count":0,"seats_per_desk":2}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.False(t, b.Success)
    assert.Len(t, b.Errors, 2)

    rec, b = a.do(t, http.MethodPut, "/v1/config", `{"desk_count":2,"seats_per_desk":4}`)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "configuration updated", b.Message)
    assert.Contains(t, string(b.Data), `"desk_count":2`)
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
    a := newApp(t)
    rec, b := a.do(t, http.MethodPost, "/v1/persons", `{"name":`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Equal(t, "invalid body", b.Error)
}

func TestInvalidPathID(t *testing.T) {
    a := newApp(t)
    rec, b := a.do(t, http.MethodDelete, "/v1/persons/abc", "")
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Equal(t, "invalid person id", b.Error)
}

func TestAssignments_SingleConflictAndUnassign(t *testing.T) {
    a := newApp(t)
    a.do(t, http.MethodPut, "/v1/config", `{"desk_count":2,"seats_per_desk":4}`)
    alice := a.createPerson(t, "Alice")
    bob := a.createPerson(t, "Bob")

    rec, b := a.do(t, http.MethodPost, "/v1/assignments/single",
        `{"person_id":`+utoa(alice)+`,"desk_number":1,"seat_number":2}`)
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    assert.True(t, b.Success)

    rec, b = a.do(t, http.MethodPost, "/v1/assignments/single",
        `{"person_id":`+utoa(bob)+`,"desk_number":1,"seat_number":2}`)
    assert.Equal(t, http.StatusConflict, rec.Code)
    assert.NotEmpty(t, b.Error)

    rec, b = a.do(t, http.MethodDelete, "/v1/assignments/"+utoa(alice), "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "moved to waiting area", b.Message)
    assert.Contains(t, string(b.Data), `"outcome":"moved"`)

    rec, b = a.do(t, http.MethodDelete, "/v1/assignments/"+utoa(alice), "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "already in waiting area", b.Message)
}

func TestAssignments_BatchSwapAndLayout(t *testing.T) {
    a := newApp(t)
    a.do(t, http.MethodPut, "/v1/config", `{"desk_count":1,"seats_per_desk":4}`)
    alice := a.createPerson(t, "Alice")
    bob := a.createPerson(t, "Bob")
    a.do(t, http.MethodPost, "/v1/assignments/single", `{"person_id":`+utoa(alice)+`,"desk_number":1,"seat_number":1}`)
    a.do(t, http.MethodPost, "/v1/assignments/single", `{"person_id":`+utoa(bob)+`,"desk_number":1,"seat_number":2}`)

    rec, b := a.do(t, http.MethodPut, "/v1/assignments", `{"assignments":[`+
        `{"person_id":`+utoa(alice)+`,"desk_number":1,"seat_number":2},`+
        `{"person_id":`+utoa(bob)+`,"desk_number":1,"seat_number":1}]}`)
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    assert.Equal(t, "2 placements saved", b.Message)

    rec, b = a.do(t, http.MethodGet, "/v1/assignments/layout", "")
    require.Equal(t, http.StatusOK, rec.Code)
    var layout struct {
        Desks []struct {
            Seats []struct {
                Person *struct {
                    Name string `json:"name"`
                } `json:"person"`
            } `json:"seats"`
        } `json:"layout"`
        Waiting []json.RawMessage `json:"waiting"`
    }
    require.NoError(t, json.Unmarshal(b.Data, &layout))
    require.Len(t, layout.Desks, 1)
    require.NotNil(t, layout.Desks[0].Seats[0].Person)
    assert.Equal(t, "Bob", layout.Desks[0].Seats[0].Person.Name)
    assert.Equal(t, "Alice", layout.Desks[0].Seats[1].Person.Name)
    assert.Empty(t, layout.Waiting)

    rec, b = a.do(t, http.MethodGet, "/v1/assignments", "")
    require.Equal(t, http.StatusOK, rec.Code)
    var rows []json.RawMessage
    require.NoError(t, json.Unmarshal(b.Data, &rows))
    assert.Len(t, rows, 2)
}

func TestLayout_NoConfigIsNotFound(t *testing.T) {
    a := newApp(t)
    rec, b := a.do(t, http.MethodGet, "/v1/assignments/layout", "")
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.False(t, b.Success)
}

func TestPersons_BatchDeleteAcceptsLegacyKey(t *testing.T) {
    a := newApp(t)
    alice := a.createPerson(t, "Alice")
    bob := a.createPerson(t, "Bob")

    rec, b := a.do(t, http.MethodDelete, "/v1/persons/batch", `{"person_ids":[`+utoa(alice)+`,`+utoa(bob)+`]}`)
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    assert.Equal(t, "deleted 2 persons", b.Message)

    rec, _ = a.do(t, http.MethodDelete, "/v1/persons/"+utoa(alice), "")
    assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAmbassadors_CRUD(t *testing.T) {
    a := newApp(t)
    rec, b := a.do(t, http.MethodPost, "/v1/ambassadors", `{"name":"Team Red"}`)
    require.Equal(t, http.StatusCreated, rec.Code)
    var amb struct {
        ID uint64 `json:"id"`
    }
    require.NoError(t, json.Unmarshal(b.Data, &amb))

    rec, _ = a.do(t, http.MethodPost, "/v1/ambassadors", `{"name":"Team Red"}`)
    assert.Equal(t, http.StatusConflict, rec.Code)

    rec, b = a.do(t, http.MethodPut, "/v1/ambassadors/"+utoa(amb.ID), `{"name":"Team Blue"}`)
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, string(b.Data), "Team Blue")

    rec, b = a.do(t, http.MethodDelete, "/v1/ambassadors/"+utoa(amb.ID), "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Equal(t, "deleted ambassador Team Blue", b.Message)
}

func TestAmbassadors_BatchDeleteIgnoresPersonKey(t *testing.T) {
    a := newApp(t)
    rec, b := a.do(t, http.MethodPost, "/v1/ambassadors", `{"name":"Team Red"}`)
    require.Equal(t, http.StatusCreated, rec.Code)
    var amb struct {
        ID uint64 `json:"id"`
    }
    require.NoError(t, json.Unmarshal(b.Data, &amb))

    rec, _ = a.do(t, http.MethodDelete, "/v1/ambassadors/batch", `{"person_ids":[`+utoa(amb.ID)+`]}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    rec, b = a.do(t, http.MethodGet, "/v1/ambassadors", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, string(b.Data), "Team Red")

    rec, b = a.do(t, http.MethodDelete, "/v1/ambassadors/batch", `{"ambassador_ids":[`+utoa(amb.ID)+`]}`)
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    assert.Equal(t, "deleted 1 ambassadors", b.Message)
}

func TestPersons_BatchDeleteIgnoresAmbassadorKey(t *testing.T) {
    a := newApp(t)
    alice := a.createPerson(t, "Alice")

    rec, _ := a.do(t, http.MethodDelete, "/v1/persons/batch", `{"ambassador_ids":[`+utoa(alice)+`]}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    rec, b := a.do(t, http.MethodGet, "/v1/persons", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, string(b.Data), "Alice")
}

func TestImportPersons_JSONRows(t *testing.T) {
    a := newApp(t)
    rec, b := a.do(t, http.MethodPost, "/v1/persons/import",
        `{"rows":[{"name":"Alice","position":"学员","ambassador_name":"Team Red"},{"name":"","position":"","ambassador_name":""}]}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    require.NotEmpty(t, b.Errors)
    assert.Equal(t, 3, b.Errors[0].Row)
}

func TestImportWorkbook(t *testing.T) {
    a := newApp(t)

    f := excelize.NewFile()
    sh := f.GetSheetName(0)
    require.NoError(t, f.SetSheetRow(sh, "A1", &[]any{"姓名", "职务", "传播大使"}))
    require.NoError(t, f.SetSheetRow(sh, "A2", &[]any{"Alice", "学员", "Team Red"}))
    require.NoError(t, f.SetSheetRow(sh, "A4", &[]any{"Bob", "组长", "Team Red"}))
    var xlsx bytes.Buffer
    require.NoError(t, f.Write(&xlsx))

    var form bytes.Buffer
    mw := multipart.NewWriter(&form)
    part, err := mw.CreateFormFile("file", "people.xlsx")
    require.NoError(t, err)
    _, err = part.Write(xlsx.Bytes())
    require.NoError(t, err)
    require.NoError(t, mw.Close())

    req := httptest.NewRequest(http.MethodPost, "/v1/persons/import/xlsx", &form)
    req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
    rec := httptest.NewRecorder()
    a.e.ServeHTTP(rec, req)
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

    var b body
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &b))
    assert.Contains(t, string(b.Data), `"success":2`)
}

func TestImportWorkbook_MissingFile(t *testing.T) {
    a := newApp(t)
    rec, b := a.do(t, http.MethodPost, "/v1/persons/import/xlsx", `{}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
    assert.Contains(t, b.Error, "file")
}

func TestSuggest(t *testing.T) {
    a := newApp(t)
    a.do(t, http.MethodPut, "/v1/config", `{"desk_count":1,"seats_per_desk":4}`)
    a.createPerson(t, "Carol")
    a.createPerson(t, "alice")

    rec, b := a.do(t, http.MethodPost, "/v1/assignments/suggest", `{"strategy":"alphabetical"}`)
    require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
    assert.Equal(t, "2 seats suggested", b.Message)

    rec, _ = a.do(t, http.MethodPost, "/v1/assignments/suggest", `{"strategy":"by-height"}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExport(t *testing.T) {
    a := newApp(t)
    a.do(t, http.MethodPut, "/v1/config", `{"desk_count":1,"seats_per_desk":4}`)

    rec, b := a.do(t, http.MethodGet, "/v1/export/sign-in.xlsx", "")
    assert.Equal(t, http.StatusNotFound, rec.Code)
    assert.False(t, b.Success)

    alice := a.createPerson(t, "Alice")
    a.do(t, http.MethodPost, "/v1/assignments/single", `{"person_id":`+utoa(alice)+`,"desk_number":1,"seat_number":1}`)

    rec, _ = a.do(t, http.MethodGet, "/v1/export/seating.xlsx", "")
    require.Equal(t, http.StatusOK, rec.Code)
    assert.Contains(t, rec.Header().Get(echo.HeaderContentDisposition), "seating_20240301_0830.xlsx")
    f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
    require.NoError(t, err)
    defer f.Close()
    v, err := f.GetCellValue("第1组", "B2")
    require.NoError(t, err)
    assert.Equal(t, "Alice", v)

    rec, _ = a.do(t, http.MethodGet, "/v1/export/sign-in.xlsx", "")
    assert.Equal(t, http.StatusOK, rec.Code)
}

func TestInternalErrorIsGeneric(t *testing.T) {
    a := newApp(t)
    a.store.FailOn("CreatePerson", 1, errors.New("disk full"))
    rec, b := a.do(t, http.MethodPost, "/v1/persons", `{"name":"Alice"}`)
    assert.Equal(t, http.StatusInternalServerError, rec.Code)
    assert.Equal(t, "internal error", b.Error)
    assert.NotContains(t, rec.Body.String(), "disk full")
}

func TestAuth_LoginAndGuard(t *testing.T) {
    hash, err := utils.HashPassword("pw", 4)
    require.NoError(t, err)
    a := newApp(t, func(d *router.Deps) {
        d.Auth = handler.NewAuthHandler("admin", hash, "secret", time.Hour, logging.Discard())
        d.JWTSecret = "secret"
    })

    rec, _ := a.do(t, http.MethodGet, "/v1/persons", "")
    assert.Equal(t, http.StatusUnauthorized, rec.Code)

    rec, b := a.do(t, http.MethodPost, "/v1/auth/login", `{"username":"admin","password":"nope"}`)
    assert.Equal(t, http.StatusUnauthorized, rec.Code)
    assert.Equal(t, "invalid credentials", b.Error)

    rec, b = a.do(t, http.MethodPost, "/v1/auth/login", `{"username":"admin","password":"pw"}`)
    require.Equal(t, http.StatusOK, rec.Code)
    var login struct {
        Access struct {
            Token string `json:"token"`
        } `json:"access"`
    }
    require.NoError(t, json.Unmarshal(b.Data, &login))
    require.NotEmpty(t, login.Access.Token)

    rec, _ = a.do(t, http.MethodGet, "/v1/persons", "", echo.HeaderAuthorization, "Bearer "+login.Access.Token)
    assert.Equal(t, http.StatusOK, rec.Code)
}

func TestConstructorsRejectNilDependencies(t *testing.T) {
    assert.Panics(t, func() { handler.NewSeatingHandler(nil, logging.Discard()) })
    assert.Panics(t, func() { handler.NewHealthHandler(nil) })
    assert.Panics(t, func() { handler.NewAuthHandler("", "", "", time.Hour, logging.Discard()) })
}

func utoa(n uint64) string {
    b, _ := json.Marshal(n)
    return string(b)
}
