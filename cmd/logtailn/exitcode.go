package main

import (
	"errors"

	"github.com/SteelMorgan/logtailn/internal/domain"
)

// Exit codes follow sysexits(3) so schedulers can branch on the failure class
const (
	exitOK        = 0
	exitUsage     = 64 // EX_USAGE
	exitDataErr   = 65 // EX_DATAERR
	exitNoInput   = 66 // EX_NOINPUT
	exitSoftware  = 70 // EX_SOFTWARE
	exitCantCreat = 73 // EX_CANTCREAT
	exitIOErr     = 74 // EX_IOERR
	exitTempFail  = 75 // EX_TEMPFAIL
	exitNoPerm    = 77 // EX_NOPERM
)

// exitCode maps a run error to its exit code
func exitCode(err error) int {
	switch {
	case err == nil:
		return exitOK
	case errors.Is(err, domain.ErrInvalidFormat), errors.Is(err, domain.ErrStat):
		return exitDataErr
	case errors.Is(err, domain.ErrInputNotReadable):
		return exitNoInput
	case errors.Is(err, domain.ErrOutput):
		return exitIOErr
	case errors.Is(err, domain.ErrCannotSetPermissions):
		return exitNoPerm
	case errors.Is(err, domain.ErrCannotCreate):
		return exitCantCreat
	case errors.Is(err, domain.ErrLocked):
		return exitTempFail
	default:
		return exitSoftware
	}
}
