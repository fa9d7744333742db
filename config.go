package translatable

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-translatable/locale"
)

// Option keys recognized by Declare.
const (
	OptionFallback = "fallback"
	OptionReader   = "reader"
	OptionWriter   = "writer"
	OptionNilValue = "nil_value"
)

// Config is the resolution configuration of a declaration.
type Config struct {
	// Fallback substitutes the parent's own value when no overlay exists for
	// the active locale. Enabled by default.
	Fallback bool

	// Reader marks the declaration as exposing read accessors. The engine
	// itself is always available through Translator.Resolve; hosts that
	// generate typed accessors consult this flag. Enabled by default.
	Reader bool

	// Writer enables Translator.Write. Disabled by default.
	Writer bool

	// NilValue is the sentinel returned when no real value can be resolved.
	// Defaults to the empty string.
	NilValue any
}

// DefaultConfig returns the configuration used when no options are given.
func DefaultConfig() Config {
	return Config{
		Fallback: true,
		Reader:   true,
		Writer:   false,
		NilValue: "",
	}
}

// ParseOptions builds a Config from an option map. Unknown keys and mistyped
// values fail with a ConfigurationError.
func ParseOptions(options map[string]any) (Config, error) {
	cfg := DefaultConfig()
	for key, value := range options {
		switch key {
		case OptionFallback:
			enabled, ok := value.(bool)
			if !ok {
				return Config{}, &ConfigurationError{Field: key, Reason: fmt.Sprintf("expected bool, got %T", value)}
			}
			cfg.Fallback = enabled
		case OptionReader:
			enabled, ok := value.(bool)
			if !ok {
				return Config{}, &ConfigurationError{Field: key, Reason: fmt.Sprintf("expected bool, got %T", value)}
			}
			cfg.Reader = enabled
		case OptionWriter:
			enabled, ok := value.(bool)
			if !ok {
				return Config{}, &ConfigurationError{Field: key, Reason: fmt.Sprintf("expected bool, got %T", value)}
			}
			cfg.Writer = enabled
		case OptionNilValue:
			cfg.NilValue = value
		default:
			return Config{}, &ConfigurationError{Field: key, Reason: "unknown option"}
		}
	}
	return cfg, nil
}

// Declaration is the immutable translated-attribute metadata of a parent
// type: which attributes are translated and under which configuration. It is
// established once by Declare and read on every resolution.
type Declaration struct {
	attributes []string
	index      map[string]struct{}
	config     Config
}

// Attributes returns the declared attribute names in declaration order.
func (d Declaration) Attributes() []string {
	out := make([]string, len(d.attributes))
	copy(out, d.attributes)
	return out
}

// Config returns the resolution configuration.
func (d Declaration) Config() Config {
	return d.config
}

// Translates reports whether attr was declared translatable.
func (d Declaration) Translates(attr string) bool {
	_, ok := d.index[attr]
	return ok
}

// Translator is the runtime attached to one parent type: it resolves
// translated attributes, pins locales, looks up overlays, and routes writes.
// It is safe for concurrent use; all per-entity state lives on the entity's
// embedded Model.
type Translator[T any, O any] struct {
	binding *Binding[T, O]
	decl    Declaration
	locales locale.Provider
}

// Declare attaches translation support to the parent type described by
// binding. attributes must be a non-empty subset of the binding's declared
// columns; options are parsed per ParseOptions.
func Declare[T any, O any](binding *Binding[T, O], locales locale.Provider, attributes []string, options map[string]any) (*Translator[T, O], error) {
	if binding == nil {
		return nil, &ConfigurationError{Field: "binding", Reason: "binding is required"}
	}
	if locales == nil {
		return nil, ErrLocaleProviderRequired
	}

	cfg, err := ParseOptions(options)
	if err != nil {
		return nil, err
	}

	declared := make([]string, 0, len(attributes))
	index := make(map[string]struct{}, len(attributes))
	for _, attr := range attributes {
		attr = strings.TrimSpace(attr)
		if attr == "" {
			continue
		}
		if _, ok := binding.columns[attr]; !ok {
			return nil, &ConfigurationError{Field: attr, Reason: fmt.Sprintf("attribute is not a column of %s", binding.name)}
		}
		if _, dup := index[attr]; dup {
			continue
		}
		index[attr] = struct{}{}
		declared = append(declared, attr)
	}
	if len(declared) == 0 {
		return nil, ErrAttributesRequired
	}

	return &Translator[T, O]{
		binding: binding,
		decl: Declaration{
			attributes: declared,
			index:      index,
			config:     cfg,
		},
		locales: locales,
	}, nil
}

// MustDeclare is Declare that panics on error. Intended for package level
// translator variables.
func MustDeclare[T any, O any](binding *Binding[T, O], locales locale.Provider, attributes []string, options map[string]any) *Translator[T, O] {
	translator, err := Declare(binding, locales, attributes, options)
	if err != nil {
		panic(err)
	}
	return translator
}

// Binding returns the parent/overlay type binding.
func (t *Translator[T, O]) Binding() *Binding[T, O] {
	return t.binding
}

// Declaration returns the immutable declaration metadata.
func (t *Translator[T, O]) Declaration() Declaration {
	return t.decl
}

// Locales returns the locale context collaborator.
func (t *Translator[T, O]) Locales() locale.Provider {
	return t.locales
}
