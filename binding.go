package translatable

import (
	"fmt"
	"reflect"
	"strings"
	"unicode"

	"github.com/gertd/go-pluralize"
)

var inflector = pluralize.NewClient()

// BindingOptions overrides the naming conventions used to bind a parent type
// to its overlay type. Every field is optional; zero values fall back to the
// convention documented on each field.
type BindingOptions struct {
	// Name is the parent type name. Defaults to the Go type name of T.
	Name string

	// Root names the nearest concrete ancestor of the parent type when
	// several types share one table (single-table inheritance). The overlay
	// foreign key derives from it. Defaults to Name.
	Root string

	// Table is the parent table name. Defaults to the plural snake_case of
	// Name.
	Table string

	// OverlayName is the overlay type name. Defaults to Name + "Translation".
	OverlayName string

	// OverlayTable is the overlay table name. Defaults to the singular of
	// Table suffixed with "_translations".
	OverlayTable string

	// ForeignKey is the overlay column referencing the parent. Defaults to
	// snake_case(Root) + "_id".
	ForeignKey string

	// Relation is the bun relation field name on the parent struct used for
	// eager loading. Defaults to "Translations".
	Relation string

	// Columns maps each translatable attribute to its SQL column type, e.g.
	// {"title": "varchar(255)", "body": "text"}. The declaration validates
	// attribute names against this set and the schema synchronizer mirrors
	// the types into the overlay table.
	Columns map[string]string
}

// Binding is the immutable association between a parent type and its overlay
// type: names, tables, foreign key, and attribute accessors. Build one per
// parent type at startup and share it across translators and stores.
type Binding[T any, O any] struct {
	name         string
	root         string
	table        string
	overlayName  string
	overlayTable string
	foreignKey   string
	relation     string
	columns      map[string]string
	handlers     ModelHandlers[T, O]
}

// NewBinding derives and validates a Binding from options and handlers.
func NewBinding[T any, O any](opts BindingOptions, handlers ModelHandlers[T, O]) (*Binding[T, O], error) {
	if err := handlers.validate(); err != nil {
		return nil, err
	}
	if len(opts.Columns) == 0 {
		return nil, &ConfigurationError{Field: "columns", Reason: "at least one attribute column must be declared"}
	}

	name := strings.TrimSpace(opts.Name)
	if name == "" {
		name = reflect.TypeFor[T]().Name()
	}
	if name == "" {
		return nil, &ConfigurationError{Field: "name", Reason: "parent type name could not be derived; set BindingOptions.Name"}
	}

	root := strings.TrimSpace(opts.Root)
	if root == "" {
		root = name
	}

	table := strings.TrimSpace(opts.Table)
	if table == "" {
		table = inflector.Plural(toSnake(name))
	}

	overlayName := strings.TrimSpace(opts.OverlayName)
	if overlayName == "" {
		overlayName = name + "Translation"
	}

	overlayTable := strings.TrimSpace(opts.OverlayTable)
	if overlayTable == "" {
		overlayTable = inflector.Singular(table) + "_translations"
	}

	foreignKey := strings.TrimSpace(opts.ForeignKey)
	if foreignKey == "" {
		foreignKey = toSnake(root) + "_id"
	}

	relation := strings.TrimSpace(opts.Relation)
	if relation == "" {
		relation = "Translations"
	}

	columns := make(map[string]string, len(opts.Columns))
	for attr, columnType := range opts.Columns {
		attr = strings.TrimSpace(attr)
		if !isIdentifier(attr) {
			return nil, &ConfigurationError{Field: "columns", Reason: fmt.Sprintf("attribute %q is not a valid column name", attr)}
		}
		columnType = strings.TrimSpace(columnType)
		if columnType == "" {
			return nil, &ConfigurationError{Field: "columns", Reason: fmt.Sprintf("attribute %q has no column type", attr)}
		}
		columns[attr] = columnType
	}

	for field, value := range map[string]string{
		"table":         table,
		"overlay_table": overlayTable,
		"foreign_key":   foreignKey,
	} {
		if !isIdentifier(value) {
			return nil, &ConfigurationError{Field: field, Reason: fmt.Sprintf("%q is not a valid identifier", value)}
		}
	}

	return &Binding[T, O]{
		name:         name,
		root:         root,
		table:        table,
		overlayName:  overlayName,
		overlayTable: overlayTable,
		foreignKey:   foreignKey,
		relation:     relation,
		columns:      columns,
		handlers:     handlers,
	}, nil
}

// MustNewBinding is NewBinding that panics on error. Intended for package
// level binding variables.
func MustNewBinding[T any, O any](opts BindingOptions, handlers ModelHandlers[T, O]) *Binding[T, O] {
	binding, err := NewBinding(opts, handlers)
	if err != nil {
		panic(err)
	}
	return binding
}

// Name returns the parent type name.
func (b *Binding[T, O]) Name() string { return b.name }

// Root returns the ancestor name the foreign key derives from.
func (b *Binding[T, O]) Root() string { return b.root }

// Table returns the parent table name.
func (b *Binding[T, O]) Table() string { return b.table }

// OverlayName returns the overlay type name.
func (b *Binding[T, O]) OverlayName() string { return b.overlayName }

// OverlayTable returns the overlay table name.
func (b *Binding[T, O]) OverlayTable() string { return b.overlayTable }

// ForeignKey returns the overlay column referencing the parent.
func (b *Binding[T, O]) ForeignKey() string { return b.foreignKey }

// Relation returns the bun relation field name used for eager loading.
func (b *Binding[T, O]) Relation() string { return b.relation }

// Columns returns a copy of the attribute column set.
func (b *Binding[T, O]) Columns() map[string]string {
	out := make(map[string]string, len(b.columns))
	for attr, columnType := range b.columns {
		out[attr] = columnType
	}
	return out
}

func toSnake(name string) string {
	var out strings.Builder
	runes := []rune(name)
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (!unicode.IsUpper(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				out.WriteByte('_')
			}
			out.WriteRune(unicode.ToLower(r))
			continue
		}
		out.WriteRune(r)
	}
	return out.String()
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_':
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}
