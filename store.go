package translatable

import (
	"context"
	"fmt"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-translatable/internal/logging"
	"github.com/goliatone/go-translatable/pkg/interfaces"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Store persists a translatable parent type and its overlays. Parent reads
// go through a go-repository-bun repository; writes run in bun transactions
// so a single parent save also persists newly queued overlays (nested
// writes) and a parent delete cascades over its overlays.
type Store[T any, O any] struct {
	db         *bun.DB
	translator *Translator[T, O]
	parents    repository.Repository[*T]
	logger     interfaces.Logger
}

// NewStore builds a store for the translator's parent type. The logger
// provider may be nil.
func NewStore[T any, O any](db *bun.DB, translator *Translator[T, O], provider interfaces.LoggerProvider) (*Store[T, O], error) {
	if db == nil {
		return nil, ErrDatabaseRequired
	}
	if translator == nil {
		return nil, &ConfigurationError{Field: "translator", Reason: "translator is required"}
	}

	h := translator.binding.handlers
	parents := repository.MustNewRepository(db, repository.ModelHandlers[*T]{
		NewRecord: func() *T { return new(T) },
		GetID: func(e *T) uuid.UUID {
			if e == nil {
				return uuid.Nil
			}
			return h.ParentID(e)
		},
		SetID: func(e *T, id uuid.UUID) {
			if e != nil {
				h.SetParentID(e, id)
			}
		},
		GetIdentifier: func() string {
			return "id"
		},
		GetIdentifierValue: func(e *T) string {
			if e == nil {
				return ""
			}
			return h.ParentID(e).String()
		},
	})

	return &Store[T, O]{
		db:         db,
		translator: translator,
		parents:    parents,
		logger:     logging.StoreLogger(provider),
	}, nil
}

// Translator returns the translator backing this store.
func (s *Store[T, O]) Translator() *Translator[T, O] {
	return s.translator
}

// Save inserts or updates the parent and persists its overlays in one
// transaction. Overlays queued by the writer path (zero identity) are
// validated, stamped with the parent's foreign key, and inserted; overlays
// already saved are updated so in-memory writer mutations are flushed.
// Validation and constraint failures abort the transaction and surface to
// the caller unretried.
func (s *Store[T, O]) Save(ctx context.Context, e *T) (*T, error) {
	if e == nil {
		return nil, ErrEntityRequired
	}

	h := s.translator.binding.handlers
	insert := h.ParentID(e) == uuid.Nil
	if insert {
		h.SetParentID(e, uuid.New())
	}

	var stamped []*O
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if insert {
			if _, err := tx.NewInsert().Model(e).Exec(ctx); err != nil {
				return fmt.Errorf("insert %s: %w", s.translator.binding.table, err)
			}
		} else {
			if _, err := tx.NewUpdate().Model(e).WherePK().Exec(ctx); err != nil {
				return fmt.Errorf("update %s: %w", s.translator.binding.table, err)
			}
		}
		var txErr error
		stamped, txErr = s.persistOverlays(ctx, tx, e)
		return txErr
	})
	if err != nil {
		// The transaction rolled back; undo the identities assigned in it so
		// the overlays stay queued for the next save attempt.
		for _, overlay := range stamped {
			h.SetOverlayID(overlay, uuid.Nil)
		}
		if insert {
			h.SetParentID(e, uuid.Nil)
		}
		return nil, s.mapWriteError(err)
	}

	s.logger.Debug("saved translatable entity",
		"entity", s.translator.binding.name,
		"id", h.ParentID(e).String(),
	)
	return e, nil
}

func (s *Store[T, O]) persistOverlays(ctx context.Context, tx bun.Tx, e *T) ([]*O, error) {
	h := s.translator.binding.handlers
	parentID := h.ParentID(e)
	stamped := make([]*O, 0)
	for _, overlay := range h.Overlays(e) {
		if overlay == nil {
			continue
		}
		if h.OverlayID(overlay) != uuid.Nil {
			// Already saved; flush in-memory writer mutations.
			if _, err := tx.NewUpdate().Model(overlay).WherePK().Exec(ctx); err != nil {
				return stamped, fmt.Errorf("update %s: %w", s.translator.binding.overlayTable, err)
			}
			continue
		}
		h.SetOverlayParentID(overlay, parentID)
		if err := s.translator.ValidateOverlay(e, overlay); err != nil {
			return stamped, err
		}
		h.SetOverlayID(overlay, uuid.New())
		stamped = append(stamped, overlay)
		if _, err := tx.NewInsert().Model(overlay).Exec(ctx); err != nil {
			return stamped, fmt.Errorf("insert %s: %w", s.translator.binding.overlayTable, err)
		}
	}
	return stamped, nil
}

// Get loads a parent by id with its overlay collection attached, so that
// subsequent attribute reads resolve without further queries.
func (s *Store[T, O]) Get(ctx context.Context, id uuid.UUID) (*T, error) {
	relation := s.translator.binding.relation
	records, _, err := s.parents.List(ctx,
		repository.SelectRawProcessor(func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.Where("?TableAlias.id = ?", id).Relation(relation)
		}),
		repository.SelectPaginate(1, 0),
	)
	if err != nil {
		return nil, s.mapReadError(err, id.String())
	}
	if len(records) == 0 {
		return nil, &NotFoundError{Resource: s.translator.binding.name, Key: id.String()}
	}
	return records[0], nil
}

// List returns parents matching the criteria. When the active locale differs
// from the default the overlay relation is eager-loaded automatically, so a
// multi-row fetch costs one round trip instead of one query per row on read.
func (s *Store[T, O]) List(ctx context.Context, criteria ...repository.SelectCriteria) ([]*T, error) {
	applied := make([]repository.SelectCriteria, 0, len(criteria)+1)
	if eager := s.translator.WithTranslationsIfNeeded(ctx); eager != nil {
		applied = append(applied, eager)
	}
	applied = append(applied, criteria...)

	records, _, err := s.parents.List(ctx, applied...)
	if err != nil {
		return nil, s.mapReadError(err, "")
	}
	return records, nil
}

// Delete removes the parent and all its overlays in one transaction. The
// overlay table additionally declares ON DELETE CASCADE for deletes issued
// outside this store.
func (s *Store[T, O]) Delete(ctx context.Context, e *T) error {
	if e == nil {
		return ErrEntityRequired
	}
	h := s.translator.binding.handlers
	id := h.ParentID(e)
	if id == uuid.Nil {
		return ErrParentNotSaved
	}

	foreignKey := s.translator.binding.foreignKey
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewDelete().
			Model((*O)(nil)).
			Where("?TableAlias."+foreignKey+" = ?", id).
			Exec(ctx); err != nil {
			return fmt.Errorf("delete %s: %w", s.translator.binding.overlayTable, err)
		}
		if _, err := tx.NewDelete().Model(e).WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("delete %s: %w", s.translator.binding.table, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Debug("deleted translatable entity",
		"entity", s.translator.binding.name,
		"id", id.String(),
	)
	return nil
}

// CreateTranslation validates and persists one overlay for a saved parent
// and appends it to the parent's loaded collection. The duplicate-locale
// pre-check here is optimistic; a concurrent writer racing past it is caught
// by the unique index and reported as a ConstraintViolationError.
func (s *Store[T, O]) CreateTranslation(ctx context.Context, e *T, overlay *O) (*O, error) {
	if e == nil {
		return nil, ErrEntityRequired
	}
	if overlay == nil {
		return nil, ErrOverlayRequired
	}

	h := s.translator.binding.handlers
	parentID := h.ParentID(e)
	if parentID == uuid.Nil {
		return nil, ErrParentNotSaved
	}
	h.SetOverlayParentID(overlay, parentID)

	if err := s.translator.ValidateOverlay(e, overlay); err != nil {
		return nil, err
	}

	exists, err := s.translationExists(ctx, parentID, h.OverlayLocale(overlay))
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, wrapValidationError(localeTakenError())
	}

	if h.OverlayID(overlay) == uuid.Nil {
		h.SetOverlayID(overlay, uuid.New())
	}
	if _, err := s.db.NewInsert().Model(overlay).Exec(ctx); err != nil {
		h.SetOverlayID(overlay, uuid.Nil)
		return nil, s.mapWriteError(err)
	}

	h.SetOverlays(e, append(h.Overlays(e), overlay))
	return overlay, nil
}

// DeleteTranslation removes one overlay and drops it from the parent's
// loaded collection.
func (s *Store[T, O]) DeleteTranslation(ctx context.Context, e *T, overlay *O) error {
	if overlay == nil {
		return ErrOverlayRequired
	}
	h := s.translator.binding.handlers
	if h.OverlayID(overlay) == uuid.Nil {
		return ErrOverlayRequired
	}

	if _, err := s.db.NewDelete().Model(overlay).WherePK().Exec(ctx); err != nil {
		return fmt.Errorf("delete %s: %w", s.translator.binding.overlayTable, err)
	}

	if e != nil {
		remaining := make([]*O, 0)
		for _, existing := range h.Overlays(e) {
			if existing == overlay {
				continue
			}
			remaining = append(remaining, existing)
		}
		h.SetOverlays(e, remaining)
	}
	return nil
}

// SyncOverlayTable runs the administrative overlay schema synchronization
// using the store's database and logger.
func (s *Store[T, O]) SyncOverlayTable(ctx context.Context) error {
	return s.translator.syncOverlayTable(ctx, s.db, s.logger)
}

func (s *Store[T, O]) translationExists(ctx context.Context, parentID uuid.UUID, code string) (bool, error) {
	foreignKey := s.translator.binding.foreignKey
	exists, err := s.db.NewSelect().
		Model((*O)(nil)).
		Where("?TableAlias."+foreignKey+" = ?", parentID).
		Where("?TableAlias.locale = ?", code).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("%s lookup: %w", s.translator.binding.overlayTable, err)
	}
	return exists, nil
}

func (s *Store[T, O]) mapWriteError(err error) error {
	if err == nil {
		return nil
	}
	if isUniqueViolation(err) {
		return &ConstraintViolationError{Table: s.translator.binding.overlayTable, Err: err}
	}
	return err
}

func (s *Store[T, O]) mapReadError(err error, key string) error {
	if err == nil {
		return nil
	}
	if goerrors.IsCategory(err, repository.CategoryDatabaseNotFound) {
		return &NotFoundError{Resource: s.translator.binding.name, Key: key}
	}
	return fmt.Errorf("%s repository error: %w", s.translator.binding.table, err)
}
