package vfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForRead(t *testing.T) {
	oo, err := ForRead()
	require.NoError(t, err)
	assert.True(t, oo.Read)
	assert.Equal(t, TypeDefault, oo.Type)

	oo, err = ForRead(Read, DeleteOnClose, OpenBinary)
	require.NoError(t, err)
	assert.True(t, oo.DeleteOnClose)
	assert.Equal(t, TypeBinary, oo.Type)

	for _, bad := range []OpenOption{Write, Append, Create, CreateNew} {
		_, err := ForRead(bad)
		assert.Error(t, err, "option %s", bad)
	}
}

func TestForWrite(t *testing.T) {
	oo, err := ForWrite()
	require.NoError(t, err)
	assert.True(t, oo.Write)
	assert.False(t, oo.Create)

	oo, err = ForWrite(Write, Append, Create, OpenASCII)
	require.NoError(t, err)
	assert.True(t, oo.Append)
	assert.True(t, oo.Create)
	assert.Equal(t, TypeASCII, oo.Type)

	for _, bad := range []OpenOption{Read, DeleteOnClose} {
		_, err := ForWrite(bad)
		assert.Error(t, err, "option %s", bad)
	}
}

func TestOpenOptions_ConflictingTypes(t *testing.T) {
	_, err := ForRead(OpenASCII, OpenBinary)
	assert.Error(t, err)
	_, err = ForWrite(OpenBinary, OpenASCII)
	assert.Error(t, err)

	// Repeating the same type is harmless.
	_, err = ForRead(OpenASCII, OpenASCII)
	assert.NoError(t, err)
}

func TestForCopy(t *testing.T) {
	co, err := ForCopy(ReplaceExisting, CopyBinary)
	require.NoError(t, err)
	assert.True(t, co.ReplaceExisting)
	assert.Equal(t, TypeBinary, co.Type)

	_, err = ForCopy(AtomicMove)
	assert.Error(t, err)
	_, err = ForCopy(CopyAttributes)
	assert.Error(t, err)
	_, err = ForCopy(CopyASCII, CopyBinary)
	assert.Error(t, err)
}

func TestForMove(t *testing.T) {
	co, err := ForMove(ReplaceExisting, AtomicMove)
	require.NoError(t, err)
	assert.True(t, co.ReplaceExisting)

	_, err = ForMove(CopyAttributes)
	assert.Error(t, err)
	_, err = ForMove(CopyASCII)
	assert.Error(t, err)
}
