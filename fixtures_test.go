package translatable

import (
	"testing"

	"github.com/goliatone/go-translatable/locale"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Article is the parent fixture: default-locale values live on its own
// columns, other locales on ArticleTranslation rows.
type Article struct {
	bun.BaseModel `bun:"table:articles,alias:a"`
	Model

	ID    uuid.UUID `bun:",pk,type:uuid"`
	Title string    `bun:"title"`
	Body  string    `bun:"body"`

	Translations []*ArticleTranslation `bun:"rel:has-many,join:id=article_id"`
}

type ArticleTranslation struct {
	bun.BaseModel `bun:"table:article_translations,alias:at"`

	ID        uuid.UUID `bun:",pk,type:uuid"`
	ArticleID uuid.UUID `bun:"article_id,type:uuid"`
	Locale    string    `bun:"locale"`
	Title     string    `bun:"title"`
	Body      string    `bun:"body"`
}

func articleHandlers() ModelHandlers[Article, ArticleTranslation] {
	return ModelHandlers[Article, ArticleTranslation]{
		Model:      func(a *Article) *Model { return &a.Model },
		NewOverlay: func() *ArticleTranslation { return &ArticleTranslation{} },
		ParentID:   func(a *Article) uuid.UUID { return a.ID },
		SetParentID: func(a *Article, id uuid.UUID) {
			a.ID = id
		},
		OverlayID: func(tr *ArticleTranslation) uuid.UUID { return tr.ID },
		SetOverlayID: func(tr *ArticleTranslation, id uuid.UUID) {
			tr.ID = id
		},
		OverlayParentID: func(tr *ArticleTranslation) uuid.UUID { return tr.ArticleID },
		SetOverlayParentID: func(tr *ArticleTranslation, id uuid.UUID) {
			tr.ArticleID = id
		},
		OverlayLocale: func(tr *ArticleTranslation) string { return tr.Locale },
		SetOverlayLocale: func(tr *ArticleTranslation, code string) {
			tr.Locale = code
		},
		Overlays: func(a *Article) []*ArticleTranslation { return a.Translations },
		SetOverlays: func(a *Article, translations []*ArticleTranslation) {
			a.Translations = translations
		},
		ParentValue: func(a *Article, attr string) any {
			switch attr {
			case "title":
				return a.Title
			case "body":
				return a.Body
			}
			return nil
		},
		SetParentValue: func(a *Article, attr string, value any) {
			text, _ := value.(string)
			switch attr {
			case "title":
				a.Title = text
			case "body":
				a.Body = text
			}
		},
		OverlayValue: func(tr *ArticleTranslation, attr string) any {
			switch attr {
			case "title":
				return tr.Title
			case "body":
				return tr.Body
			}
			return nil
		},
		SetOverlayValue: func(tr *ArticleTranslation, attr string, value any) {
			text, _ := value.(string)
			switch attr {
			case "title":
				tr.Title = text
			case "body":
				tr.Body = text
			}
		},
	}
}

func articleColumns() map[string]string {
	return map[string]string{
		"title": "varchar(255)",
		"body":  "text",
	}
}

func newArticleBinding(t *testing.T, opts BindingOptions) *Binding[Article, ArticleTranslation] {
	t.Helper()
	if opts.Columns == nil {
		opts.Columns = articleColumns()
	}
	binding, err := NewBinding(opts, articleHandlers())
	if err != nil {
		t.Fatalf("NewBinding() error = %v", err)
	}
	return binding
}

func newArticleTranslator(t *testing.T, options map[string]any) *Translator[Article, ArticleTranslation] {
	t.Helper()
	translator, err := Declare(
		newArticleBinding(t, BindingOptions{}),
		locale.NewStatic("en", "en", "lv", "de"),
		[]string{"title", "body"},
		options,
	)
	if err != nil {
		t.Fatalf("Declare() error = %v", err)
	}
	return translator
}
