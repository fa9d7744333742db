// Package locale exposes the locale context consumed by the translation
// engine: the active locale of the current request, the default locale whose
// values live on the parent record itself, and the ordered set of available
// locales. The engine only reads this state; setting and resetting it is the
// host application's responsibility.
package locale

import (
	"context"
	"strings"
)

// Provider is the locale context collaborator.
type Provider interface {
	// Current returns the active locale for the given context.
	Current(ctx context.Context) string

	// Default returns the locale stored directly on parent records.
	Default() string

	// Available returns the ordered sequence of supported locale codes.
	Available() []string
}

type contextKey string

const localeContextKey contextKey = "translatable.locale"

// WithLocale returns a context carrying the active locale for the current
// request. Providers consult it before their own default.
func WithLocale(ctx context.Context, code string) context.Context {
	code = strings.TrimSpace(code)
	if ctx == nil || code == "" {
		return ctx
	}
	return context.WithValue(ctx, localeContextKey, code)
}

// FromContext returns the locale stored on the context, if any.
func FromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	code, _ := ctx.Value(localeContextKey).(string)
	return code
}

// Static is a Provider with a fixed default and catalog. The active locale is
// taken from the context when set via WithLocale, falling back to the
// default.
type Static struct {
	def       string
	available []string
}

// NewStatic builds a Static provider. The default locale is always part of
// the available set; it is prepended when missing.
func NewStatic(def string, available ...string) *Static {
	def = strings.TrimSpace(def)
	codes := make([]string, 0, len(available)+1)
	seen := map[string]struct{}{}
	for _, code := range available {
		code = strings.TrimSpace(code)
		if code == "" {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	if _, ok := seen[def]; !ok && def != "" {
		codes = append([]string{def}, codes...)
	}
	return &Static{def: def, available: codes}
}

// Current implements Provider.
func (s *Static) Current(ctx context.Context) string {
	if code := FromContext(ctx); code != "" {
		return code
	}
	return s.def
}

// Default implements Provider.
func (s *Static) Default() string {
	return s.def
}

// Available implements Provider.
func (s *Static) Available() []string {
	out := make([]string, len(s.available))
	copy(out, s.available)
	return out
}
