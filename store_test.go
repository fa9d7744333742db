package translatable

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-translatable/locale"
	"github.com/goliatone/go-translatable/pkg/testsupport"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func newStoreHarness(t *testing.T, options map[string]any) (*Store[Article, ArticleTranslation], *bun.DB) {
	t.Helper()

	sqlDB, err := testsupport.NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	db, err := testsupport.NewBunDB(sqlDB, "sqlite3")
	if err != nil {
		t.Fatalf("wrap sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if _, err := db.NewCreateTable().Model((*Article)(nil)).IfNotExists().Exec(ctx); err != nil {
		t.Fatalf("create articles table: %v", err)
	}

	store, err := NewStore(db, newArticleTranslator(t, options), nil)
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	if err := store.SyncOverlayTable(ctx); err != nil {
		t.Fatalf("SyncOverlayTable() error = %v", err)
	}
	return store, db
}

func TestStoreSavePersistsPendingOverlays(t *testing.T) {
	store, _ := newStoreHarness(t, nil)
	ctx := context.Background()

	article := &Article{
		Title: "Breaking news",
		Body:  "Full story",
		Translations: []*ArticleTranslation{
			{Locale: "lv", Title: "Svarīgas ziņas"},
		},
	}

	saved, err := store.Save(ctx, article)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if saved.ID == uuid.Nil {
		t.Fatal("Save() must assign the parent an id")
	}
	if saved.Translations[0].ID == uuid.Nil {
		t.Fatal("Save() must persist the queued overlay")
	}
	if saved.Translations[0].ArticleID != saved.ID {
		t.Fatal("queued overlay must be stamped with the parent id")
	}

	loaded, err := store.Get(ctx, saved.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(loaded.Translations) != 1 || loaded.Translations[0].Locale != "lv" {
		t.Fatalf("Get() translations = %+v", loaded.Translations)
	}
}

func TestStoreSaveValidationFailureRollsBack(t *testing.T) {
	store, db := newStoreHarness(t, nil)
	ctx := context.Background()

	article := &Article{
		Title: "Breaking news",
		Translations: []*ArticleTranslation{
			{Locale: ""}, // invalid
		},
	}

	if _, err := store.Save(ctx, article); !IsValidationError(err) {
		t.Fatalf("expected validation error, got %v", err)
	}

	// The whole transaction rolled back and in-memory identities were reset,
	// so a corrected retry starts from a clean slate.
	if article.ID != uuid.Nil {
		t.Fatal("failed insert must leave the parent without an id")
	}
	count, err := db.NewSelect().Model((*Article)(nil)).Count(ctx)
	if err != nil {
		t.Fatalf("count articles: %v", err)
	}
	if count != 0 {
		t.Fatalf("articles count = %d after rollback, want 0", count)
	}

	article.Translations[0].Locale = "lv"
	if _, err := store.Save(ctx, article); err != nil {
		t.Fatalf("retry Save() error = %v", err)
	}
}

func TestStoreSaveUpdatesExistingParent(t *testing.T) {
	store, _ := newStoreHarness(t, nil)
	ctx := context.Background()

	article := &Article{Title: "Draft"}
	if _, err := store.Save(ctx, article); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	article.Title = "Published"
	if _, err := store.Save(ctx, article); err != nil {
		t.Fatalf("update Save() error = %v", err)
	}

	loaded, err := store.Get(ctx, article.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if loaded.Title != "Published" {
		t.Fatalf("Title = %q, want Published", loaded.Title)
	}
}

func TestStoreSaveFlushesOverlayMutations(t *testing.T) {
	store, _ := newStoreHarness(t, map[string]any{OptionWriter: true})
	translator := store.Translator()
	ctx := context.Background()

	article := &Article{
		Title:        "Breaking news",
		Translations: []*ArticleTranslation{{Locale: "lv", Title: "Svarīgas ziņas"}},
	}
	if _, err := store.Save(ctx, article); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	lvCtx := locale.WithLocale(ctx, "lv")
	if err := translator.Write(lvCtx, article, "title", "Jaunākās ziņas"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err := store.Save(ctx, article); err != nil {
		t.Fatalf("second Save() error = %v", err)
	}

	loaded, err := store.Get(ctx, article.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got := translator.Resolve(lvCtx, loaded, "title").String(); got != "Jaunākās ziņas" {
		t.Fatalf("Resolve(lv, title) = %q, want the flushed mutation", got)
	}
}

func TestStoreGetNotFound(t *testing.T) {
	store, _ := newStoreHarness(t, nil)

	_, err := store.Get(context.Background(), uuid.New())
	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestStoreCreateTranslation(t *testing.T) {
	store, _ := newStoreHarness(t, nil)
	translator := store.Translator()
	ctx := context.Background()

	article := &Article{Title: "Breaking news"}
	if _, err := store.Save(ctx, article); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	overlay, err := store.CreateTranslation(ctx, article, &ArticleTranslation{
		Locale: "lv",
		Title:  "Svarīgas ziņas",
	})
	if err != nil {
		t.Fatalf("CreateTranslation() error = %v", err)
	}
	if overlay.ID == uuid.Nil || overlay.ArticleID != article.ID {
		t.Fatalf("overlay not stamped: %+v", overlay)
	}
	if translator.Translation(article, "lv") == nil {
		t.Fatal("CreateTranslation() must append to the loaded collection")
	}

	// Second overlay for the same locale trips the duplicate pre-check.
	_, err = store.CreateTranslation(ctx, article, &ArticleTranslation{Locale: "lv", Title: "Atkārtoti"})
	if !IsValidationError(err) {
		t.Fatalf("expected validation error for duplicate locale, got %v", err)
	}
}

func TestStoreCreateTranslationRequiresSavedParent(t *testing.T) {
	store, _ := newStoreHarness(t, nil)

	_, err := store.CreateTranslation(context.Background(), &Article{}, &ArticleTranslation{Locale: "lv"})
	if !errors.Is(err, ErrParentNotSaved) {
		t.Fatalf("expected ErrParentNotSaved, got %v", err)
	}
}

func TestStoreUniqueIndexBacksValidation(t *testing.T) {
	store, db := newStoreHarness(t, nil)
	ctx := context.Background()

	article := &Article{Title: "Breaking news"}
	if _, err := store.Save(ctx, article); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	first := &ArticleTranslation{ID: uuid.New(), ArticleID: article.ID, Locale: "lv"}
	if _, err := db.NewInsert().Model(first).Exec(ctx); err != nil {
		t.Fatalf("insert overlay: %v", err)
	}

	// A writer racing past the application pre-check hits the unique
	// (parent, locale) index.
	second := &ArticleTranslation{ID: uuid.New(), ArticleID: article.ID, Locale: "lv"}
	_, err := db.NewInsert().Model(second).Exec(ctx)
	if err == nil {
		t.Fatal("expected unique index violation")
	}
	if !IsConstraintViolation(store.mapWriteError(err)) {
		t.Fatalf("mapWriteError(%v) must report a constraint violation", err)
	}
}

func TestStoreDeleteTranslation(t *testing.T) {
	store, db := newStoreHarness(t, nil)
	ctx := context.Background()

	article := &Article{Title: "Breaking news"}
	if _, err := store.Save(ctx, article); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	overlay, err := store.CreateTranslation(ctx, article, &ArticleTranslation{Locale: "lv", Title: "Svarīgas ziņas"})
	if err != nil {
		t.Fatalf("CreateTranslation() error = %v", err)
	}

	if err := store.DeleteTranslation(ctx, article, overlay); err != nil {
		t.Fatalf("DeleteTranslation() error = %v", err)
	}
	if len(article.Translations) != 0 {
		t.Fatal("DeleteTranslation() must drop the overlay from the collection")
	}
	count, err := db.NewSelect().Model((*ArticleTranslation)(nil)).Count(ctx)
	if err != nil {
		t.Fatalf("count overlays: %v", err)
	}
	if count != 0 {
		t.Fatalf("overlay count = %d, want 0", count)
	}
}

func TestStoreDeleteCascadesOverOverlays(t *testing.T) {
	store, db := newStoreHarness(t, nil)
	ctx := context.Background()

	article := &Article{
		Title: "Breaking news",
		Translations: []*ArticleTranslation{
			{Locale: "lv", Title: "Svarīgas ziņas"},
			{Locale: "de", Title: "Eilmeldung"},
		},
	}
	if _, err := store.Save(ctx, article); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if err := store.Delete(ctx, article); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	for model, want := range map[string]int{"articles": 0, "overlays": 0} {
		var count int
		var err error
		if model == "articles" {
			count, err = db.NewSelect().Model((*Article)(nil)).Count(ctx)
		} else {
			count, err = db.NewSelect().Model((*ArticleTranslation)(nil)).Count(ctx)
		}
		if err != nil {
			t.Fatalf("count %s: %v", model, err)
		}
		if count != want {
			t.Fatalf("%s count = %d, want %d", model, count, want)
		}
	}
}

func TestStoreTranslatedScope(t *testing.T) {
	store, _ := newStoreHarness(t, nil)
	translator := store.Translator()
	ctx := context.Background()

	translated := &Article{
		Title:        "Breaking news",
		Translations: []*ArticleTranslation{{Locale: "lv", Title: "Svarīgas ziņas"}},
	}
	untranslated := &Article{Title: "Local note"}
	for _, article := range []*Article{translated, untranslated} {
		if _, err := store.Save(ctx, article); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	records, err := store.List(ctx, translator.Translated("lv"))
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 || records[0].ID != translated.ID {
		t.Fatalf("Translated(lv) returned %d records, want the translated one", len(records))
	}

	records, err = store.List(ctx, translator.Translated("de"))
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("Translated(de) returned %d records, want 0", len(records))
	}
}

func TestStoreListEagerLoadsForNonDefaultLocale(t *testing.T) {
	store, _ := newStoreHarness(t, nil)
	ctx := context.Background()

	article := &Article{
		Title:        "Breaking news",
		Translations: []*ArticleTranslation{{Locale: "lv", Title: "Svarīgas ziņas"}},
	}
	if _, err := store.Save(ctx, article); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	records, err := store.List(locale.WithLocale(ctx, "lv"))
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 || len(records[0].Translations) != 1 {
		t.Fatal("List() under a non-default locale must eager-load overlays")
	}

	records, err = store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 || len(records[0].Translations) != 0 {
		t.Fatal("List() under the default locale must skip the overlay join")
	}
}

func TestStoreRoundTripResolution(t *testing.T) {
	store, _ := newStoreHarness(t, map[string]any{OptionWriter: true})
	translator := store.Translator()
	ctx := context.Background()

	article := &Article{Title: "Breaking news", Body: "Full story"}
	if _, err := store.Save(ctx, article); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	lvCtx := locale.WithLocale(ctx, "lv")
	if err := translator.Write(lvCtx, article, "title", "Svarīgas ziņas"); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if _, err := store.Save(ctx, article); err != nil {
		t.Fatalf("Save() after write error = %v", err)
	}

	loaded, err := store.Get(ctx, article.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}

	if got := translator.Resolve(lvCtx, loaded, "title").String(); got != "Svarīgas ziņas" {
		t.Fatalf("Resolve(lv, title) = %q", got)
	}
	if got := translator.Resolve(ctx, loaded, "title").String(); got != "Breaking news" {
		t.Fatalf("Resolve(en, title) = %q", got)
	}
}

func TestSyncOverlayTableIdempotent(t *testing.T) {
	store, _ := newStoreHarness(t, nil)

	if err := store.SyncOverlayTable(context.Background()); err != nil {
		t.Fatalf("second SyncOverlayTable() error = %v", err)
	}
}

func TestSyncOverlayTableAddsNewColumns(t *testing.T) {
	sqlDB, err := testsupport.NewSQLiteMemoryDB()
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	db, err := testsupport.NewBunDB(sqlDB, "sqlite3")
	if err != nil {
		t.Fatalf("wrap sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	ctx := context.Background()
	if _, err := db.NewCreateTable().Model((*Article)(nil)).IfNotExists().Exec(ctx); err != nil {
		t.Fatalf("create articles table: %v", err)
	}

	provider := locale.NewStatic("en", "en", "lv")
	binding := newArticleBinding(t, BindingOptions{})

	narrow, err := Declare(binding, provider, []string{"title"}, nil)
	if err != nil {
		t.Fatalf("Declare() error = %v", err)
	}
	if err := narrow.SyncOverlayTable(ctx, db); err != nil {
		t.Fatalf("SyncOverlayTable() error = %v", err)
	}

	columns, err := tableColumns(ctx, db, binding.OverlayTable())
	if err != nil {
		t.Fatalf("tableColumns() error = %v", err)
	}
	if _, ok := columns["body"]; ok {
		t.Fatal("body must not exist before it is declared")
	}

	wide, err := Declare(binding, provider, []string{"title", "body"}, nil)
	if err != nil {
		t.Fatalf("Declare() error = %v", err)
	}
	if err := wide.SyncOverlayTable(ctx, db); err != nil {
		t.Fatalf("second SyncOverlayTable() error = %v", err)
	}

	columns, err = tableColumns(ctx, db, binding.OverlayTable())
	if err != nil {
		t.Fatalf("tableColumns() error = %v", err)
	}
	if _, ok := columns["body"]; !ok {
		t.Fatal("body must be added for the widened declaration")
	}
	// Existing columns survive untouched.
	for _, name := range []string{"id", "article_id", "locale", "title"} {
		if _, ok := columns[name]; !ok {
			t.Fatalf("column %s missing after sync", name)
		}
	}
}
