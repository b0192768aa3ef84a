package transport

import "github.com/ground-x/blmessaging/common/errs"

var (
	errClosed          = errs.New(errs.ConnectivityFailure, "transport: connection closed")
	errHandshakeFailed = errs.New(errs.ConnectivityFailure, "transport: handshake failed")
	errNotReady        = errs.New(errs.ProgrammerError, "transport: send attempted before handshake completed")
)
