package handler

import (
    "time"

    "github.com/sirupsen/logrus"

    "github.com/iliyamo/seat-planner/internal/service"
)

// SeatingHandler exposes the seating service over HTTP: configuration,
// ambassadors, persons, assignments, import and export.
type SeatingHandler struct {
    Svc *service.Service
    Log logrus.FieldLogger
    Now func() time.Time
}

// NewSeatingHandler panics if any dependency is nil.
func NewSeatingHandler(svc *service.Service, log logrus.FieldLogger) *SeatingHandler {
    if svc == nil || log == nil {
        panic("nil dependency passed to NewSeatingHandler")
    }
    return &SeatingHandler{Svc: svc, Log: log, Now: time.Now}
}

// Batch deletes take "ids" or the resource-specific key older clients
// send.  Each endpoint only reads its own key.
type personIDsReq struct {
    IDs       []uint64 `json:"ids"`
    PersonIDs []uint64 `json:"person_ids"`
}

type ambassadorIDsReq struct {
    IDs           []uint64 `json:"ids"`
    AmbassadorIDs []uint64 `json:"ambassador_ids"`
}

func idsInput(ids, legacy []uint64) service.IDsInput {
    return service.IDsInput{IDs: append(append([]uint64(nil), ids...), legacy...)}
}
