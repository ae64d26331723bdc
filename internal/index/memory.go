package index

import (
	"context"
	"sync"
	"time"

	"github.com/MrSnakeDoc/readmehub/internal/domain"
	"github.com/MrSnakeDoc/readmehub/internal/markup"
)

// DocumentIndex is the in-process read cache behind the public API.
// It is never ground truth: writers always go through the store, and the
// index is replaced wholesale after each save or periodic reload.
type DocumentIndex struct {
	mu         sync.RWMutex
	doc        *domain.Document
	bySlug     map[string]int // article slug -> position, first wins
	byID       map[string]int // article ID -> position
	catBySlug  map[string]int // category slug -> position
	version    string
	degraded   bool
	loaded     bool
	lastReload time.Time
}

// NewDocumentIndex creates an empty index.
func NewDocumentIndex() *DocumentIndex {
	idx := &DocumentIndex{}
	idx.reset(&domain.Document{})
	return idx
}

// Replace swaps in a resolved document. Article bodies are sanitized once
// here so every reader gets safe markup.
func (idx *DocumentIndex) Replace(doc *domain.Document, version string, degraded bool) {
	view := doc.Clone()
	view.Normalize()
	for i := range view.Articles {
		view.Articles[i].Content = markup.Sanitize(view.Articles[i].Content)
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.reset(view)
	idx.version = version
	idx.degraded = degraded
	idx.loaded = true
	idx.lastReload = time.Now()
}

// DocumentSaved refreshes the index after a successful write.
func (idx *DocumentIndex) DocumentSaved(_ context.Context, doc *domain.Document, version string) {
	idx.Replace(doc, version, false)
}

// Invalidate marks the index stale so the next reload repopulates it.
func (idx *DocumentIndex) Invalidate() {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	idx.loaded = false
}

// reset rebuilds lookups. Caller holds the write lock.
func (idx *DocumentIndex) reset(doc *domain.Document) {
	doc.Normalize()
	idx.doc = doc
	idx.bySlug = make(map[string]int, len(doc.Articles))
	idx.byID = make(map[string]int, len(doc.Articles))
	for i, a := range doc.Articles {
		idx.byID[a.ID] = i
		if _, dup := idx.bySlug[a.Slug]; !dup {
			idx.bySlug[a.Slug] = i
		}
	}
	idx.catBySlug = make(map[string]int, len(doc.Categories))
	for i, c := range doc.Categories {
		idx.catBySlug[c.Slug] = i
	}
}

// Articles returns every article in document order.
func (idx *DocumentIndex) Articles() []domain.Article {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return append([]domain.Article(nil), idx.doc.Articles...)
}

// Categories returns every category in document order.
func (idx *DocumentIndex) Categories() []domain.Category {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return append([]domain.Category(nil), idx.doc.Categories...)
}

// ArticleBySlug returns the first article with slug.
func (idx *DocumentIndex) ArticleBySlug(slug string) (domain.Article, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	i, ok := idx.bySlug[slug]
	if !ok {
		return domain.Article{}, false
	}
	return idx.doc.Articles[i], true
}

// ArticleByID returns the article with id.
func (idx *DocumentIndex) ArticleByID(id string) (domain.Article, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	i, ok := idx.byID[id]
	if !ok {
		return domain.Article{}, false
	}
	return idx.doc.Articles[i], true
}

// Featured returns the flagged article, or the newest one when none is.
func (idx *DocumentIndex) Featured() (domain.Article, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	for _, a := range idx.doc.Articles {
		if a.Featured {
			return a, true
		}
	}
	if len(idx.doc.Articles) > 0 {
		return idx.doc.Articles[0], true
	}
	return domain.Article{}, false
}

// CategoryBySlug returns the category with slug.
func (idx *DocumentIndex) CategoryBySlug(slug string) (domain.Category, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	i, ok := idx.catBySlug[slug]
	if !ok {
		return domain.Category{}, false
	}
	return idx.doc.Categories[i], true
}

// ArticlesInCategory returns the articles filed under the category with slug.
func (idx *DocumentIndex) ArticlesInCategory(slug string) []domain.Article {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	catID := ""
	if i, ok := idx.catBySlug[slug]; ok {
		catID = idx.doc.Categories[i].ID
	}
	out := make([]domain.Article, 0)
	for _, a := range idx.doc.Articles {
		if a.Category.Slug == slug || (catID != "" && a.Category.ID == catID) {
			out = append(out, a)
		}
	}
	return out
}

// Count returns the number of articles.
func (idx *DocumentIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.doc.Articles)
}

// CategoryCount returns the number of categories.
func (idx *DocumentIndex) CategoryCount() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return len(idx.doc.Categories)
}

// Version is the store revision the index was built from.
func (idx *DocumentIndex) Version() string {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.version
}

// Degraded reports whether the last reload fell back to an empty document.
func (idx *DocumentIndex) Degraded() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.degraded
}

// Loaded reports whether the index holds a document and has not been
// invalidated since.
func (idx *DocumentIndex) Loaded() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.loaded
}

// LastReload returns when the index was last replaced.
func (idx *DocumentIndex) LastReload() time.Time {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	return idx.lastReload
}
