package copydoc

import (
	"strings"

	"github.com/rafaeljc/bifrost/internal/locale"
	"github.com/rafaeljc/bifrost/internal/observability"
	"github.com/rafaeljc/bifrost/internal/validation"
)

// DefaultOverridesBucket is the reserved per-language member holding flat translation overrides.
const DefaultOverridesBucket = "i18n_overrides"

// ResolverOption customizes a Resolver.
type ResolverOption func(*Resolver)

// WithDefaultLanguage sets the language used when neither the caller nor the locale provides one.
func WithDefaultLanguage(lang string) ResolverOption {
	return func(r *Resolver) { r.defaultLang = lang }
}

// WithOverridesBucket renames the reserved translation override bucket.
func WithOverridesBucket(name string) ResolverOption {
	return func(r *Resolver) { r.bucket = name }
}

// Resolver reads copy out of the current Cache snapshot.
// Resolution never fails: every degraded case returns the caller's fallback.
type Resolver struct {
	cache       *Cache
	locale      locale.Accessor
	defaultLang string
	bucket      string
}

// NewResolver creates a resolver. A nil accessor always resolves to the default language.
func NewResolver(cache *Cache, accessor locale.Accessor, opts ...ResolverOption) *Resolver {
	validation.AssertNotNil(cache, "copy cache")
	r := &Resolver{
		cache:       cache,
		locale:      accessor,
		defaultLang: locale.DefaultLanguage,
		bucket:      DefaultOverridesBucket,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Language returns the language a lookup with the given explicit argument would use:
// lang when non-blank, else the base subtag of the active locale, else the default.
func (r *Resolver) Language(lang string) string {
	if lang = strings.TrimSpace(lang); lang != "" {
		return lang
	}
	if r.locale == nil {
		return r.defaultLang
	}
	return locale.BaseLanguage(r.locale.CurrentLanguageTag(), r.defaultLang)
}

// ResolveCopy descends the dotted path under the language root, e.g.
// "onboarding.index.cta_label". Missing segments, non-object intermediates and
// leaves that are not non-blank strings yield fallback.
func (r *Resolver) ResolveCopy(path, fallback, lang string) string {
	s, ok := r.lookupPath(path, lang).AsString()
	return r.finish("path", s, ok, fallback)
}

// ResolveString is ResolveCopy for configuration values: number and boolean
// leaves are rendered as text instead of falling back.
func (r *Resolver) ResolveString(path, fallback, lang string) string {
	s, ok := r.lookupPath(path, lang).Scalar()
	return r.finish("string", s, ok, fallback)
}

// ResolveByKey looks up a flat translation key (e.g., "onboarding:index_button_cta_text")
// in the reserved override bucket of the language root.
func (r *Resolver) ResolveByKey(key, fallback, lang string) string {
	s, ok := r.lookupKey(key, lang)
	return r.finish("key", s, ok, fallback)
}

// Lookup returns the raw value at path for callers that need structured data.
func (r *Resolver) Lookup(path, lang string) Value {
	return r.lookupPath(path, lang)
}

// Status proxies the cache diagnostics.
func (r *Resolver) Status() Status {
	return r.cache.Status()
}

func (r *Resolver) lookupPath(path, lang string) Value {
	if path == "" {
		return Value{}
	}
	node := r.cache.Document().Merged.Field(r.Language(lang))
	for _, seg := range strings.Split(path, ".") {
		if node.Kind() != KindObject {
			return Value{}
		}
		node = node.Field(seg)
	}
	return node
}

func (r *Resolver) lookupKey(key, lang string) (string, bool) {
	if key == "" {
		return "", false
	}
	root := r.cache.Document().Merged.Field(r.Language(lang))
	bucket := root.Field(r.bucket)
	if bucket.Kind() != KindObject {
		return "", false
	}
	return bucket.Field(key).AsString()
}

func (r *Resolver) finish(method, s string, ok bool, fallback string) string {
	if !ok || strings.TrimSpace(s) == "" {
		observability.CopyResolutions.WithLabelValues(method, "fallback").Inc()
		return fallback
	}
	observability.CopyResolutions.WithLabelValues(method, "hit").Inc()
	return s
}
