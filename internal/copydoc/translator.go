package copydoc

import (
	"strings"

	"github.com/rafaeljc/bifrost/internal/validation"
)

// TranslateFunc is a translation table lookup. It returns "" (or the key
// itself, as most i18n libraries do) when the key is missing.
type TranslateFunc func(key, lang string) string

// Translator decorates a translation table with remote per-key overrides.
type Translator struct {
	resolver *Resolver
	next     TranslateFunc
}

// NewTranslator wraps next. A nil next means overrides only.
func NewTranslator(resolver *Resolver, next TranslateFunc) *Translator {
	validation.AssertNotNil(resolver, "copy resolver")
	return &Translator{resolver: resolver, next: next}
}

// Translate returns, in order: the remote override for key, the wrapped
// translation, or fallback.
func (t *Translator) Translate(key, fallback, lang string) string {
	lang = t.resolver.Language(lang)

	if s, ok := t.resolver.lookupKey(key, lang); ok && strings.TrimSpace(s) != "" {
		return t.resolver.finish("translate", s, true, fallback)
	}

	if t.next != nil {
		if s := t.next(key, lang); strings.TrimSpace(s) != "" && s != key {
			return t.resolver.finish("translate", s, true, fallback)
		}
	}
	return t.resolver.finish("translate", "", false, fallback)
}

// Func adapts the translator to a TranslateFunc that falls back to the key itself.
func (t *Translator) Func() TranslateFunc {
	return func(key, lang string) string {
		return t.Translate(key, key, lang)
	}
}
