// Package translatable adds per-locale translated attributes to bun-persisted
// entities. A parent record keeps its default-locale values on its own
// columns; every other locale lives in a translation overlay row in a side
// table, one row per (parent, locale). The package provides the resolution
// and fallback engine invoked on attribute reads, the static binding between
// parent and overlay types, overlay validation and uniqueness enforcement,
// translated-only query scopes, a store with nested overlay saves and cascade
// deletes, and an administrative schema synchronizer for the overlay table.
package translatable
