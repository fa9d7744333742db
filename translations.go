package translatable

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// LocaleTranslation pairs a locale code with its overlay. Exists is false
// when the overlay is a built, unsaved placeholder.
type LocaleTranslation[O any] struct {
	Locale  string
	Overlay *O
	Exists  bool
}

// Translation returns the overlay for the exact locale among the entity's
// loaded overlays. No fallback is applied and no query is issued; absent
// overlays return nil.
func (t *Translator[T, O]) Translation(e *T, code string) *O {
	if e == nil {
		return nil
	}
	return t.findOverlay(e, code)
}

// HasTranslation reports whether the entity carries values for the locale.
// The default locale is always covered (its values live on the parent); any
// other locale requires an exact overlay.
func (t *Translator[T, O]) HasTranslation(e *T, code string) bool {
	if e == nil {
		return false
	}
	if localeEqual(code, t.locales.Default()) {
		return true
	}
	return t.findOverlay(e, code) != nil
}

// AllTranslations returns one entry per available locale, in provider order:
// the existing overlay where present, else a freshly built in-memory
// placeholder. Placeholders are not appended to the entity's collection and
// are never persisted by this call; callers wire them into a save explicitly
// (typically to back an editing form).
func (t *Translator[T, O]) AllTranslations(e *T) []LocaleTranslation[O] {
	if e == nil {
		return nil
	}
	available := t.locales.Available()
	out := make([]LocaleTranslation[O], 0, len(available))
	for _, code := range available {
		if overlay := t.findOverlay(e, code); overlay != nil {
			out = append(out, LocaleTranslation[O]{Locale: code, Overlay: overlay, Exists: true})
			continue
		}
		out = append(out, LocaleTranslation[O]{Locale: code, Overlay: t.buildOverlay(e, code), Exists: false})
	}
	return out
}

// Write routes a translated attribute mutation. Under the default locale the
// parent's own column is set in memory. Under any other locale the overlay
// for the active locale is found or built (never queried) and mutated; built
// overlays are queued on the entity's collection and persisted by the next
// explicit save. Requires the writer option.
func (t *Translator[T, O]) Write(ctx context.Context, e *T, attr string, value any) error {
	if !t.decl.config.Writer {
		return &ConfigurationError{Field: OptionWriter, Reason: fmt.Sprintf("writer support is disabled for %s", t.binding.name)}
	}
	if e == nil {
		return ErrEntityRequired
	}
	if !t.decl.Translates(attr) {
		return &ConfigurationError{Field: attr, Reason: fmt.Sprintf("attribute is not declared translatable on %s", t.binding.name)}
	}

	active := t.activeLocale(ctx, e)
	if active == "" || localeEqual(active, t.locales.Default()) {
		t.binding.handlers.SetParentValue(e, attr, value)
		return nil
	}

	overlay := t.findOverlay(e, active)
	if overlay == nil {
		overlay = t.buildOverlay(e, active)
		h := t.binding.handlers
		h.SetOverlays(e, append(h.Overlays(e), overlay))
	}
	t.binding.handlers.SetOverlayValue(overlay, attr, value)
	return nil
}

func (t *Translator[T, O]) buildOverlay(e *T, code string) *O {
	h := t.binding.handlers
	overlay := h.NewOverlay()
	h.SetOverlayLocale(overlay, code)
	if id := h.ParentID(e); id != uuid.Nil {
		h.SetOverlayParentID(overlay, id)
	}
	return overlay
}
