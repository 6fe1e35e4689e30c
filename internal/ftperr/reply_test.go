package ftperr

import (
	"fmt"
	"io"
	"net/textproto"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReply_ExtractsProtocolError(t *testing.T) {
	err := &textproto.Error{Code: 550, Msg: "/foo: No such file or directory."}

	code, text, ok := Reply(err)
	assert.True(t, ok)
	assert.Equal(t, 550, code)
	assert.Equal(t, "550 /foo: No such file or directory.", text)
}

func TestReply_SeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("remove: %w", &textproto.Error{Code: 450, Msg: "busy"})

	code, _, ok := Reply(err)
	assert.True(t, ok)
	assert.Equal(t, 450, code)
}

func TestReply_NonProtocolError(t *testing.T) {
	_, _, ok := Reply(io.ErrUnexpectedEOF)
	assert.False(t, ok)
}

func TestIsTransportFault(t *testing.T) {
	assert.False(t, IsTransportFault(nil))

	// Network-level failures are faults.
	assert.True(t, IsTransportFault(io.ErrUnexpectedEOF))

	// Connection-level reply codes are faults.
	assert.True(t, IsTransportFault(&textproto.Error{Code: 421, Msg: "Timeout."}))
	assert.True(t, IsTransportFault(&textproto.Error{Code: 425, Msg: "Can't open data connection."}))
	assert.True(t, IsTransportFault(&textproto.Error{Code: 426, Msg: "Connection closed; transfer aborted."}))

	// Ordinary negative completion replies are not.
	assert.False(t, IsTransportFault(&textproto.Error{Code: 550, Msg: "No such file."}))
	assert.False(t, IsTransportFault(&textproto.Error{Code: 530, Msg: "Not logged in."}))
}
