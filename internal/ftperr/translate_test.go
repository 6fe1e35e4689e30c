package ftperr

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslateDelete_DirectoryNotEmpty(t *testing.T) {
	tr := NewDefaultTranslator()

	err := tr.TranslateDelete("/foo", 550, "550 /foo: Directory not empty.", true)
	assert.ErrorIs(t, err, ErrDirectoryNotEmpty)

	var re *ReplyError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "/foo", re.Path)
	assert.Equal(t, 550, re.Code)
	assert.Equal(t, "550 /foo: Directory not empty.", re.Text)
}

func TestTranslateDelete_NotFound(t *testing.T) {
	tr := NewDefaultTranslator()

	err := tr.TranslateDelete("/foo", 550, "550 /foo: No such file or directory.", false)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrDirectoryNotEmpty)
}

func TestTranslateDelete_NotEmptyTextWithoutDirFlag(t *testing.T) {
	tr := NewDefaultTranslator()

	// The not-empty pattern only applies when the target is a directory.
	err := tr.TranslateDelete("/foo", 550, "550 /foo: Directory not empty.", false)
	assert.NotErrorIs(t, err, ErrDirectoryNotEmpty)
}

func TestTranslate_AccessDenied(t *testing.T) {
	tr := NewDefaultTranslator()

	err := tr.TranslateStat("/secret", 550, "550 /secret: Permission denied.")
	assert.ErrorIs(t, err, ErrAccessDenied)

	// Code-based classification when the text matches nothing.
	err = tr.TranslateOpenRead("/secret", 530, "530 Please login with USER and PASS.")
	assert.ErrorIs(t, err, ErrAccessDenied)
}

func TestTranslateCreateDirectory_AlreadyExists(t *testing.T) {
	tr := NewDefaultTranslator()

	err := tr.TranslateCreateDirectory("/dir", 550, "550 /dir: File exists.")
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestTranslateOpenWrite_AlreadyExistsOnlyForCreateNew(t *testing.T) {
	tr := NewDefaultTranslator()

	err := tr.TranslateOpenWrite("/f", 553, "553 /f: File exists.", true)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	err = tr.TranslateOpenWrite("/f", 553, "553 /f: File exists.", false)
	assert.NotErrorIs(t, err, ErrAlreadyExists)
}

func TestTranslate_GenericFallbackKeepsDiagnostics(t *testing.T) {
	tr := NewDefaultTranslator()

	err := tr.TranslateStat("/f", 451, "451 Requested action aborted: local error in processing.")
	var re *ReplyError
	require.ErrorAs(t, err, &re)
	assert.Nil(t, re.Category())
	assert.Equal(t, 451, re.Code)
	assert.Contains(t, re.Error(), "451")
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.NotErrorIs(t, err, ErrAccessDenied)
}

func TestTranslateCopy_CarriesBothPaths(t *testing.T) {
	tr := NewDefaultTranslator()

	err := tr.TranslateCopy("/src", "/dst", 550, "550 /src: No such file or directory.")
	assert.ErrorIs(t, err, ErrNotFound)

	var re *ReplyError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "/src", re.Path)
	assert.Equal(t, "/dst", re.SecondaryPath)
	assert.Contains(t, re.Error(), "/src")
	assert.Contains(t, re.Error(), "/dst")
}

func TestTranslate_ClassificationIsCaseInsensitive(t *testing.T) {
	tr := NewDefaultTranslator()

	err := tr.TranslateStat("/f", 550, "550 NOT FOUND")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTranslate_PatternsAreOverridable(t *testing.T) {
	tr := NewDefaultTranslator()
	tr.NotFoundPatterns = []string{"ficheiro inexistente"}

	err := tr.TranslateStat("/f", 550, "550 /f: ficheiro inexistente")
	assert.ErrorIs(t, err, ErrNotFound)

	err = tr.TranslateStat("/f", 550, "550 /f: No such file or directory.")
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestTranslate_IsPure(t *testing.T) {
	tr := NewDefaultTranslator()

	a := tr.TranslateDelete("/foo", 550, "550 /foo: Directory not empty.", true)
	b := tr.TranslateDelete("/foo", 550, "550 /foo: Directory not empty.", true)
	assert.Equal(t, a.Error(), b.Error())
	assert.True(t, errors.Is(a, ErrDirectoryNotEmpty) && errors.Is(b, ErrDirectoryNotEmpty))
}
