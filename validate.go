package translatable

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// ValidateOverlay runs the application-level overlay checks: the locale must
// be a present, canonical 2-5 character code and must not duplicate another
// overlay already loaded on the parent. The check is an optimistic pre-check
// only; concurrent writers are caught by the storage layer's unique index
// and surface as a ConstraintViolationError instead.
func (t *Translator[T, O]) ValidateOverlay(e *T, overlay *O) error {
	if overlay == nil {
		return ErrOverlayRequired
	}

	h := t.binding.handlers
	errs := validation.Errors{}

	code := strings.TrimSpace(h.OverlayLocale(overlay))
	switch {
	case code == "":
		errs["locale"] = validation.NewError("translatable.overlay.locale_required", "locale is required")
	case len(code) < 2 || len(code) > 5:
		errs["locale"] = validation.NewError("translatable.overlay.locale_invalid", "locale must be a 2-5 character code")
	default:
		if e != nil && t.hasDuplicateLocale(e, overlay, code) {
			errs["locale"] = validation.NewError("translatable.overlay.locale_taken", "a translation for this locale already exists")
		}
	}

	if len(errs) > 0 {
		return wrapValidationError(errs)
	}
	return nil
}

func localeTakenError() validation.Errors {
	return validation.Errors{
		"locale": validation.NewError("translatable.overlay.locale_taken", "a translation for this locale already exists"),
	}
}

func (t *Translator[T, O]) hasDuplicateLocale(e *T, overlay *O, code string) bool {
	for _, existing := range t.binding.handlers.Overlays(e) {
		if existing == nil || existing == overlay {
			continue
		}
		if localeEqual(t.binding.handlers.OverlayLocale(existing), code) {
			return true
		}
	}
	return false
}
