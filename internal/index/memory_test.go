package index

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/MrSnakeDoc/readmehub/internal/domain"
)

func testDocument() *domain.Document {
	tech := domain.Category{ID: "c1", Name: "Tech", Slug: "tech"}
	life := domain.Category{ID: "c2", Name: "Life", Slug: "life"}
	return &domain.Document{
		Categories: []domain.Category{tech, life},
		Articles: []domain.Article{
			{ID: "a1", Title: "Newest", Slug: "newest", Category: domain.Ref(tech)},
			{ID: "a2", Title: "Pinned", Slug: "pinned", Category: domain.Ref(life), Featured: true},
			{ID: "a3", Title: "Legacy", Slug: "legacy", Category: domain.CategoryRef{ID: "c1"}},
			{ID: "a4", Title: "Dup", Slug: "newest", Category: domain.Ref(tech)},
		},
	}
}

func TestNewDocumentIndex(t *testing.T) {
	idx := NewDocumentIndex()
	if idx == nil {
		t.Fatal("NewDocumentIndex() returned nil")
	}
	if idx.Count() != 0 || idx.Loaded() {
		t.Errorf("new index should be empty and not loaded")
	}
	if _, ok := idx.Featured(); ok {
		t.Error("Featured() on empty index should report false")
	}
}

func TestReplace(t *testing.T) {
	idx := NewDocumentIndex()
	idx.Replace(testDocument(), "v1", false)

	if idx.Count() != 4 || idx.CategoryCount() != 2 {
		t.Errorf("Count() = %d, CategoryCount() = %d", idx.Count(), idx.CategoryCount())
	}
	if idx.Version() != "v1" || !idx.Loaded() || idx.Degraded() {
		t.Errorf("state = %q loaded=%v degraded=%v", idx.Version(), idx.Loaded(), idx.Degraded())
	}
	if idx.LastReload().IsZero() {
		t.Error("LastReload() not set")
	}

	idx.Replace(&domain.Document{}, "", true)
	if idx.Count() != 0 || !idx.Degraded() {
		t.Errorf("Replace() should overwrite, got %d articles", idx.Count())
	}
}

func TestLookups(t *testing.T) {
	idx := NewDocumentIndex()
	idx.Replace(testDocument(), "v1", false)

	tests := []struct {
		name   string
		lookup func() (domain.Article, bool)
		wantID string
	}{
		{"by slug", func() (domain.Article, bool) { return idx.ArticleBySlug("pinned") }, "a2"},
		{"duplicate slug keeps first", func() (domain.Article, bool) { return idx.ArticleBySlug("newest") }, "a1"},
		{"by id", func() (domain.Article, bool) { return idx.ArticleByID("a3") }, "a3"},
		{"featured", idx.Featured, "a2"},
		{"missing slug", func() (domain.Article, bool) { return idx.ArticleBySlug("nope") }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, ok := tt.lookup()
			if tt.wantID == "" {
				if ok {
					t.Errorf("expected miss, got %q", a.ID)
				}
				return
			}
			if !ok || a.ID != tt.wantID {
				t.Errorf("got %q (ok=%v), want %q", a.ID, ok, tt.wantID)
			}
		})
	}
}

func TestFeaturedFallsBackToFirst(t *testing.T) {
	doc := testDocument()
	doc.Articles[1].Featured = false

	idx := NewDocumentIndex()
	idx.Replace(doc, "v1", false)

	a, ok := idx.Featured()
	if !ok || a.ID != "a1" {
		t.Errorf("Featured() = %q, want a1", a.ID)
	}
}

func TestArticlesInCategory(t *testing.T) {
	idx := NewDocumentIndex()
	idx.Replace(testDocument(), "v1", false)

	got := idx.ArticlesInCategory("tech")
	if len(got) != 3 {
		t.Fatalf("ArticlesInCategory(tech) = %d articles, want 3 (bare reference included)", len(got))
	}
	if n := len(idx.ArticlesInCategory("unknown")); n != 0 {
		t.Errorf("unknown category returned %d articles", n)
	}
	if _, ok := idx.CategoryBySlug("life"); !ok {
		t.Error("CategoryBySlug(life) missed")
	}
}

func TestReplaceSanitizesContent(t *testing.T) {
	doc := testDocument()
	doc.Articles[0].Content = `<p onclick="x()">Hi</p><script>alert(1)</script>`

	idx := NewDocumentIndex()
	idx.Replace(doc, "v1", false)

	a, _ := idx.ArticleByID("a1")
	if strings.Contains(a.Content, "script") || strings.Contains(a.Content, "onclick") {
		t.Errorf("content not sanitized: %q", a.Content)
	}
	if doc.Articles[0].Content == a.Content {
		t.Error("Replace() must not modify the caller's document")
	}
}

func TestDocumentSavedAndInvalidate(t *testing.T) {
	idx := NewDocumentIndex()
	idx.DocumentSaved(context.Background(), testDocument(), "v2")
	if idx.Version() != "v2" || !idx.Loaded() {
		t.Errorf("DocumentSaved() did not replace the index")
	}
	idx.Invalidate()
	if idx.Loaded() {
		t.Error("Invalidate() should clear Loaded")
	}
	if idx.Count() != 4 {
		t.Error("Invalidate() should keep serving the last document")
	}
}

func TestConcurrentAccess(t *testing.T) {
	idx := NewDocumentIndex()
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			idx.Replace(testDocument(), "v", false)
		}()
		go func() {
			defer wg.Done()
			_ = idx.Articles()
			_, _ = idx.Featured()
			_ = idx.ArticlesInCategory("tech")
		}()
	}

	wg.Wait()
	if idx.Count() != 4 {
		t.Errorf("after concurrent replaces Count() = %d, want 4", idx.Count())
	}
}
