package application

import "errors"

var ErrNotFound = errors.New("not found")
var ErrConflict = errors.New("conflict")
var ErrBadRequest = errors.New("bad request")
var ErrTooManySessions = errors.New("too many sessions")
var ErrHistoryDisabled = errors.New("history disabled")
