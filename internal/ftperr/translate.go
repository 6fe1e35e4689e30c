package ftperr

import "strings"

// Translator maps protocol outcomes to typed errors, one method per
// operation kind. Implementations must be pure: same inputs, same error,
// no side effects. Callers can substitute their own implementation to
// adjust classification for a particular server dialect.
type Translator interface {
	TranslateStat(path string, code int, text string) error
	TranslateChangeDirectory(path string, code int, text string) error
	TranslateCreateDirectory(path string, code int, text string) error
	TranslateDelete(path string, code int, text string, isDir bool) error
	TranslateOpenRead(path string, code int, text string) error
	TranslateOpenWrite(path string, code int, text string, createNew bool) error
	TranslateCopy(src, dst string, code int, text string) error
	TranslateMove(src, dst string, code int, text string) error
}

// DefaultTranslator classifies replies by substring patterns over the
// reply text, layered over the numeric code. The FTP code space is too
// coarse to classify on its own (550 covers missing files, permission
// failures and non-empty directories alike) and wording varies between
// server dialects, so the pattern lists are plain fields: adjust them,
// or swap in another Translator, when a server phrases things differently.
type DefaultTranslator struct {
	NotFoundPatterns      []string
	AccessDeniedPatterns  []string
	NotEmptyPatterns      []string
	AlreadyExistsPatterns []string
}

// Reply codes that indicate a permission failure regardless of text.
const (
	codeNotLoggedIn    = 530
	codeNeedAccount    = 532
	codeNeedAccountApp = 533
)

func NewDefaultTranslator() *DefaultTranslator {
	return &DefaultTranslator{
		NotFoundPatterns:      []string{"no such file", "not found", "does not exist", "cannot find"},
		AccessDeniedPatterns:  []string{"permission denied", "access denied", "access is denied", "not permitted"},
		NotEmptyPatterns:      []string{"not empty"},
		AlreadyExistsPatterns: []string{"already exists", "file exists"},
	}
}

func (t *DefaultTranslator) TranslateStat(path string, code int, text string) error {
	return t.translate("stat", path, "", code, text, nil)
}

func (t *DefaultTranslator) TranslateChangeDirectory(path string, code int, text string) error {
	return t.translate("cd", path, "", code, text, nil)
}

func (t *DefaultTranslator) TranslateCreateDirectory(path string, code int, text string) error {
	return t.translate("mkdir", path, "", code, text, t.existsCategory(text))
}

func (t *DefaultTranslator) TranslateDelete(path string, code int, text string, isDir bool) error {
	var category error
	if isDir && matchAny(text, t.NotEmptyPatterns) {
		category = ErrDirectoryNotEmpty
	}
	return t.translate("delete", path, "", code, text, category)
}

func (t *DefaultTranslator) TranslateOpenRead(path string, code int, text string) error {
	return t.translate("open", path, "", code, text, nil)
}

func (t *DefaultTranslator) TranslateOpenWrite(path string, code int, text string, createNew bool) error {
	var category error
	if createNew {
		category = t.existsCategory(text)
	}
	return t.translate("create", path, "", code, text, category)
}

func (t *DefaultTranslator) TranslateCopy(src, dst string, code int, text string) error {
	return t.translate("copy", src, dst, code, text, nil)
}

func (t *DefaultTranslator) TranslateMove(src, dst string, code int, text string) error {
	return t.translate("move", src, dst, code, text, nil)
}

// translate builds the typed error. A category decided by the operation
// itself takes precedence; otherwise the shared not-found and
// access-denied classification applies, and anything left is a generic
// I/O failure with no category.
func (t *DefaultTranslator) translate(op, path, secondary string, code int, text string, category error) error {
	if category == nil {
		switch {
		case matchAny(text, t.NotFoundPatterns):
			category = ErrNotFound
		case matchAny(text, t.AccessDeniedPatterns):
			category = ErrAccessDenied
		case code == codeNotLoggedIn, code == codeNeedAccount, code == codeNeedAccountApp:
			category = ErrAccessDenied
		}
	}
	return &ReplyError{
		Op:            op,
		Path:          path,
		SecondaryPath: secondary,
		Code:          code,
		Text:          text,
		category:      category,
	}
}

func (t *DefaultTranslator) existsCategory(text string) error {
	if matchAny(text, t.AlreadyExistsPatterns) {
		return ErrAlreadyExists
	}
	return nil
}

func matchAny(text string, patterns []string) bool {
	lower := strings.ToLower(text)
	for _, p := range patterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
