package translatable

import (
	"context"
	"fmt"
	"reflect"
	"strings"
)

// Source identifies where a resolved value came from.
type Source string

const (
	// SourceColumn marks values read from the parent's own column.
	SourceColumn Source = "column"
	// SourceOverlay marks values read from a translation overlay.
	SourceOverlay Source = "overlay"
	// SourceSentinel marks the configured nil sentinel.
	SourceSentinel Source = "sentinel"
)

// Origin is informational metadata about a resolution: which entity and
// attribute produced the value and for which locale. It never affects
// equality or printing of the value itself.
type Origin struct {
	Source    Source
	Entity    string
	Attribute string
	Locale    string
}

// Value is a resolved attribute value with its origin attached.
type Value struct {
	value  any
	origin Origin
}

// Interface returns the underlying value.
func (v Value) Interface() any {
	return v.value
}

// String renders the underlying value; nil renders as the empty string.
func (v Value) String() string {
	switch value := v.value.(type) {
	case nil:
		return ""
	case string:
		return value
	case *string:
		if value == nil {
			return ""
		}
		return *value
	default:
		return fmt.Sprint(value)
	}
}

// Origin returns the resolution metadata.
func (v Value) Origin() Origin {
	return v.origin
}

// IsSentinel reports whether the value is the configured nil sentinel rather
// than real content.
func (v Value) IsSentinel() bool {
	return v.origin.Source == SourceSentinel
}

// Resolve picks the value of a translated attribute for the active locale.
//
// The active locale is the one pinned on the entity, else the ambient locale
// from the provider. When it equals the default locale the parent's own
// column is read (nil sentinel substituted for empty values). Otherwise the
// already-loaded overlay collection is scanned; a missing overlay falls back
// to the parent's value when fallback is enabled, else to the nil sentinel.
// Resolution is pure: it never queries and never writes.
func (t *Translator[T, O]) Resolve(ctx context.Context, e *T, attr string) Value {
	if e == nil || !t.decl.Translates(attr) {
		return t.sentinel(attr, "")
	}

	active := t.activeLocale(ctx, e)
	def := t.locales.Default()
	if active == "" || localeEqual(active, def) || t.binding.handlers.Model(e).rawData() {
		return t.columnValue(e, attr, def)
	}

	// A missing overlay and an overlay with an empty value for the attribute
	// fall back the same way: partial translations stay usable.
	overlay := t.findOverlay(e, active)
	var translated any
	if overlay != nil {
		translated = t.binding.handlers.OverlayValue(overlay, attr)
	}
	if overlay == nil || isEmptyValue(translated) {
		if t.decl.config.Fallback {
			return t.columnValue(e, attr, def)
		}
		return t.sentinel(attr, active)
	}

	return Value{
		value: translated,
		origin: Origin{
			Source:    SourceOverlay,
			Entity:    t.binding.overlayName,
			Attribute: attr,
			Locale:    active,
		},
	}
}

// Pin sets a per-instance locale override consulted before the ambient
// locale context. It lives only as long as the in-memory instance and is
// never persisted. Pinning the empty string clears the override. Returns the
// same entity.
func (t *Translator[T, O]) Pin(e *T, code string) *T {
	if e == nil {
		return e
	}
	t.binding.handlers.Model(e).pin(code)
	return e
}

// WithRawData runs fn with the instance's raw-data mode enabled: overlay
// lookups are bypassed and resolutions return the parent's own values. The
// previous mode is restored afterwards. The store uses it to read back
// untranslated values during a full save.
func (t *Translator[T, O]) WithRawData(e *T, fn func()) {
	if fn == nil {
		return
	}
	if e == nil {
		fn()
		return
	}
	m := t.binding.handlers.Model(e)
	prev := m.rawData()
	m.setRawData(true)
	defer m.setRawData(prev)
	fn()
}

func (t *Translator[T, O]) activeLocale(ctx context.Context, e *T) string {
	if pinned := t.binding.handlers.Model(e).PinnedLocale(); pinned != "" {
		return pinned
	}
	return t.locales.Current(ctx)
}

func (t *Translator[T, O]) findOverlay(e *T, code string) *O {
	for _, overlay := range t.binding.handlers.Overlays(e) {
		if overlay == nil {
			continue
		}
		if localeEqual(t.binding.handlers.OverlayLocale(overlay), code) {
			return overlay
		}
	}
	return nil
}

func (t *Translator[T, O]) columnValue(e *T, attr, code string) Value {
	value := t.binding.handlers.ParentValue(e, attr)
	if isEmptyValue(value) {
		return t.sentinel(attr, code)
	}
	return Value{
		value: value,
		origin: Origin{
			Source:    SourceColumn,
			Entity:    t.binding.name,
			Attribute: attr,
			Locale:    code,
		},
	}
}

func (t *Translator[T, O]) sentinel(attr, code string) Value {
	return Value{
		value: t.decl.config.NilValue,
		origin: Origin{
			Source:    SourceSentinel,
			Entity:    t.binding.name,
			Attribute: attr,
			Locale:    code,
		},
	}
}

func localeEqual(a, b string) bool {
	return strings.EqualFold(strings.TrimSpace(a), strings.TrimSpace(b))
}

func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case *string:
		return v == nil || *v == ""
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Slice, reflect.Map:
		return rv.IsNil()
	}
	return false
}
