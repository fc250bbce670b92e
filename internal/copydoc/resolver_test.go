package copydoc

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rafaeljc/bifrost/internal/locale"
	"github.com/rafaeljc/bifrost/internal/logger"
	"github.com/rafaeljc/bifrost/internal/testsupport"
)

const resolverBase = `{
  "en": {
    "onboarding": {"index": {"cta_label": "Go", "blank": "   ", "count": 3, "enabled": true, "list": ["a"]}},
    "i18n_overrides": {"onboarding:index_button_cta_text": "Let's go", "empty": ""}
  },
  "pt": {
    "onboarding": {"index": {"cta_label": "Vamos"}},
    "i18n_overrides": {"onboarding:index_button_cta_text": "Bora"}
  }
}`

func newTestResolver(t *testing.T, base, override string, acc locale.Accessor, opts ...ResolverOption) *Resolver {
	t.Helper()
	c := NewCache(logger.Nop())
	c.Refresh(base, override)
	return NewResolver(c, acc, opts...)
}

func TestResolver_ResolveCopy(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, resolverBase, "", locale.Static("pt-BR"))

	tests := []struct {
		name     string
		path     string
		fallback string
		lang     string
		want     string
	}{
		{name: "explicit language hit", path: "onboarding.index.cta_label", fallback: "Let's start", lang: "en", want: "Go"},
		{name: "locale base subtag", path: "onboarding.index.cta_label", fallback: "x", want: "Vamos"},
		{name: "missing path", path: "onboarding.index.nope", fallback: "Let's start", lang: "en", want: "Let's start"},
		{name: "missing language", path: "onboarding.index.cta_label", fallback: "fb", lang: "de", want: "fb"},
		{name: "intermediate is not an object", path: "onboarding.index.cta_label.deeper", fallback: "fb", lang: "en", want: "fb"},
		{name: "leaf is an object", path: "onboarding.index", fallback: "fb", lang: "en", want: "fb"},
		{name: "leaf is blank", path: "onboarding.index.blank", fallback: "fb", lang: "en", want: "fb"},
		{name: "leaf is a number", path: "onboarding.index.count", fallback: "fb", lang: "en", want: "fb"},
		{name: "leaf is an array", path: "onboarding.index.list", fallback: "fb", lang: "en", want: "fb"},
		{name: "empty path", path: "", fallback: "fb", lang: "en", want: "fb"},
		{name: "empty segment", path: "onboarding..cta_label", fallback: "fb", lang: "en", want: "fb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, r.ResolveCopy(tt.path, tt.fallback, tt.lang))
		})
	}
}

func TestResolver_ResolveCopy_MissingDocument(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, `{"en":{"onboarding":{}}}`, "", nil)

	assert.Equal(t, "Let's start", r.ResolveCopy("onboarding.index.cta_label", "Let's start", "en"))
}

func TestResolver_OverrideLayerWins(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, resolverBase, `{"en":{"onboarding":{"index":{"cta_label":"Start now"}}}}`, nil)

	assert.Equal(t, "Start now", r.ResolveCopy("onboarding.index.cta_label", "fb", ""))
	assert.Equal(t, "Let's go", r.ResolveByKey("onboarding:index_button_cta_text", "Continue", ""), "untouched keys survive the merge")
}

func TestResolver_ResolveByKey(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, resolverBase, "", locale.Static("en-US"))

	assert.Equal(t, "Let's go", r.ResolveByKey("onboarding:index_button_cta_text", "Continue", ""))
	assert.Equal(t, "Bora", r.ResolveByKey("onboarding:index_button_cta_text", "Continue", "pt"))
	assert.Equal(t, "Continue", r.ResolveByKey("onboarding:index_button_cta_text", "Continue", "fr"))
	assert.Equal(t, "Continue", r.ResolveByKey("missing:key", "Continue", ""))
	assert.Equal(t, "Continue", r.ResolveByKey("empty", "Continue", ""))
	assert.Equal(t, "Continue", r.ResolveByKey("", "Continue", ""))
}

func TestResolver_ResolveByKey_CustomBucket(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, `{"en":{"overrides":{"k":"v"},"i18n_overrides":{"k":"other"}}}`, "", nil, WithOverridesBucket("overrides"))

	assert.Equal(t, "v", r.ResolveByKey("k", "fb", "en"))
}

func TestResolver_ResolveByKey_BucketNotAnObject(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, `{"en":{"i18n_overrides":["k"]}}`, "", nil)

	assert.Equal(t, "fb", r.ResolveByKey("k", "fb", "en"))
}

func TestResolver_ResolveString(t *testing.T) {
	t.Parallel()

	r := newTestResolver(t, resolverBase, "", nil)

	assert.Equal(t, "3", r.ResolveString("onboarding.index.count", "0", "en"))
	assert.Equal(t, "true", r.ResolveString("onboarding.index.enabled", "false", "en"))
	assert.Equal(t, "Go", r.ResolveString("onboarding.index.cta_label", "fb", "en"))
	assert.Equal(t, "fb", r.ResolveString("onboarding.index.list", "fb", "en"))
	assert.Equal(t, "fb", r.ResolveString("onboarding.index", "fb", "en"))
}

func TestResolver_Language(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "en", NewResolver(NewCache(nil), nil).Language(""))
	assert.Equal(t, "pt", NewResolver(NewCache(nil), locale.Static("pt_BR")).Language(""))
	assert.Equal(t, "de", NewResolver(NewCache(nil), locale.Static("pt_BR")).Language(" de "))
	assert.Equal(t, "es", NewResolver(NewCache(nil), locale.Static(""), WithDefaultLanguage("es")).Language(""))
}

func TestResolver_FollowsLocaleChanges(t *testing.T) {
	t.Parallel()

	acc := locale.NewSwitchable("en-GB")
	r := newTestResolver(t, resolverBase, "", acc)

	assert.Equal(t, "Go", r.ResolveCopy("onboarding.index.cta_label", "fb", ""))
	acc.Set("pt-PT")
	assert.Equal(t, "Vamos", r.ResolveCopy("onboarding.index.cta_label", "fb", ""))
}

func TestResolver_SeesRefreshes(t *testing.T) {
	t.Parallel()

	c := NewCache(logger.Nop())
	r := NewResolver(c, nil)
	assert.Equal(t, "fb", r.ResolveCopy("title", "fb", "en"))

	c.Refresh(`{"en":{"title":"Hello"}}`, "")
	assert.Equal(t, "Hello", r.ResolveCopy("title", "fb", "en"))

	c.Refresh(`{"en":{"title":"Hello"}}`, `{"en":{"title":"Howdy"}}`)
	assert.Equal(t, "Howdy", r.ResolveCopy("title", "fb", "en"))
}

func TestResolver_Metrics(t *testing.T) {
	r := newTestResolver(t, resolverBase, "", nil)

	testsupport.AssertMetricDelta(t, "bifrost_copy_resolutions_total", map[string]string{"method": "path", "result": "hit"}, 1, func() {
		r.ResolveCopy("onboarding.index.cta_label", "fb", "en")
	})
	testsupport.AssertMetricDelta(t, "bifrost_copy_resolutions_total", map[string]string{"method": "key", "result": "fallback"}, 1, func() {
		r.ResolveByKey("nope", "fb", "en")
	})
}
