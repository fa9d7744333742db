package translatable

import (
	"context"

	"github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// Translated returns a select criteria restricting parents to those having
// an overlay for the given locale. Membership matches inner-join semantics:
// parents without a matching overlay, including parents with no overlays at
// all, are excluded.
func (t *Translator[T, O]) Translated(code string) repository.SelectCriteria {
	overlayTable := t.binding.overlayTable
	foreignKey := t.binding.foreignKey
	return repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where(
			"EXISTS (SELECT 1 FROM "+overlayTable+" AS _t WHERE _t."+foreignKey+" = ?TableAlias.id AND _t.locale = ?)",
			code,
		)
	})
}

// WithTranslations returns a select criteria eager-loading the overlay
// relation.
func (t *Translator[T, O]) WithTranslations() repository.SelectCriteria {
	relation := t.binding.relation
	return repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Relation(relation)
	})
}

// WithTranslationsIfNeeded returns the eager-load criteria when the active
// locale differs from the default, and nil otherwise. Multi-row fetches use
// it so that subsequent attribute reads resolve against overlays loaded in
// the same round trip instead of one query per row.
func (t *Translator[T, O]) WithTranslationsIfNeeded(ctx context.Context) repository.SelectCriteria {
	active := t.locales.Current(ctx)
	if active == "" || localeEqual(active, t.locales.Default()) {
		return nil
	}
	return t.WithTranslations()
}
