// Package locale exposes the active language and base-subtag normalization.
package locale

import (
	"strings"
	"sync/atomic"

	"golang.org/x/text/language"
)

// DefaultLanguage is used when no usable locale is configured.
const DefaultLanguage = "en"

// Accessor reports the BCP 47 tag of the active locale (e.g., "en-US").
type Accessor interface {
	CurrentLanguageTag() string
}

// Static is an Accessor with a fixed tag.
type Static string

// CurrentLanguageTag returns s.
func (s Static) CurrentLanguageTag() string { return string(s) }

// Switchable is an Accessor whose tag can be changed at runtime.
// The zero value reports an empty tag.
type Switchable struct {
	tag atomic.Value // string
}

var (
	_ Accessor = Static("")
	_ Accessor = (*Switchable)(nil)
)

// NewSwitchable creates an accessor starting at tag.
func NewSwitchable(tag string) *Switchable {
	s := &Switchable{}
	s.Set(tag)
	return s
}

// Set changes the active tag.
func (s *Switchable) Set(tag string) {
	s.tag.Store(tag)
}

// CurrentLanguageTag returns the active tag.
func (s *Switchable) CurrentLanguageTag() string {
	v, _ := s.tag.Load().(string)
	return v
}

// BaseLanguage returns the primary language subtag of tag ("en" for "en-US",
// "pt" for "pt_BR"). Empty, undetermined or unparsable tags yield fallback.
func BaseLanguage(tag, fallback string) string {
	tag = strings.TrimSpace(strings.ReplaceAll(tag, "_", "-"))
	if tag == "" {
		return fallback
	}

	parsed, err := language.Parse(tag)
	if err != nil || parsed == language.Und {
		return fallback
	}

	base, conf := parsed.Base()
	if conf == language.No {
		return fallback
	}
	return base.String()
}

// FromAcceptLanguage returns the base language of the highest weighted entry
// of an Accept-Language header, or fallback when none is usable.
func FromAcceptLanguage(header, fallback string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return fallback
	}

	tags, _, err := language.ParseAcceptLanguage(header)
	if err != nil {
		return fallback
	}
	for _, t := range tags {
		if t == language.Und {
			continue
		}
		if base, conf := t.Base(); conf != language.No {
			return base.String()
		}
	}
	return fallback
}
