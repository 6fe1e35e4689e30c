package ftperr

import (
	"errors"
	"fmt"
	"net/textproto"
)

// Reply codes that mean the control or data connection itself failed;
// the session carrying them must not be reused.
const (
	codeServiceNotAvailable  = 421
	codeCannotOpenDataConn   = 425
	codeTransferAborted      = 426
)

// Reply extracts the FTP completion code and full reply text from a
// command error. ok is false when err carries no protocol reply (network
// failure, unexpected EOF), which callers must treat as a transport fault.
func Reply(err error) (code int, text string, ok bool) {
	var pe *textproto.Error
	if errors.As(err, &pe) {
		return pe.Code, fmt.Sprintf("%d %s", pe.Code, pe.Msg), true
	}
	return 0, "", false
}

// IsTransportFault reports whether err means the session is no longer
// usable, as opposed to a negative completion reply for one command.
// Faulted sessions must be marked broken so the pool discards them
// instead of re-idling.
func IsTransportFault(err error) bool {
	if err == nil {
		return false
	}
	code, _, ok := Reply(err)
	if !ok {
		return true
	}
	switch code {
	case codeServiceNotAvailable, codeCannotOpenDataConn, codeTransferAborted:
		return true
	}
	return false
}
