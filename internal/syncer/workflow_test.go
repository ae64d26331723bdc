package syncer

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/readmehub/internal/docstore"
	"github.com/MrSnakeDoc/readmehub/internal/domain"
)

// TestEditorialWorkflow walks a full admin session against one store and
// checks the persisted document after each step.
func TestEditorialWorkflow(t *testing.T) {
	ctx := context.Background()
	s, store := newTestSynchronizer(t, nil)

	tech := s.AddCategory(ctx, domain.CategoryInput{Name: "Tech", Slug: "tech"})
	require.True(t, tech.Success, tech.Message)
	life := s.AddCategory(ctx, domain.CategoryInput{Name: "Life", Slug: "life"})
	require.True(t, life.Success, life.Message)

	first := s.CreateArticle(ctx, domain.ArticleInput{
		Title:    "Go Modules",
		Content:  "# Modules\n\nVersioned *dependencies*.",
		Category: "tech",
		Featured: true,
		Format:   domain.FormatMarkdown,
	})
	require.True(t, first.Success, first.Message)
	firstID := first.Data.(domain.Article).ID
	assert.Contains(t, first.Data.(domain.Article).Content, "<em>dependencies</em>")
	assert.Equal(t, "Modules Versioned dependencies.", first.Data.(domain.Article).Excerpt)

	second := s.CreateArticle(ctx, domain.ArticleInput{
		Title:    "Slow Mornings",
		Content:  "<p>Coffee first.</p>",
		Category: life.Data.(domain.Category).ID,
		VideoURL: "https://www.youtube.com/watch?v=abc",
	})
	require.True(t, second.Success, second.Message)
	secondID := second.Data.(domain.Article).ID

	// Promote the second article; the first loses the flag.
	updated := s.UpdateArticle(ctx, secondID, domain.ArticleInput{
		Title:    "Slow Mornings, Revisited",
		Content:  "<p>Coffee second.</p>",
		Category: "life",
		Featured: true,
	})
	require.True(t, updated.Success, updated.Message)

	comment := s.AddComment(ctx, firstID, domain.CommentInput{Author: "Ada", Content: "Helpful, thanks"})
	require.True(t, comment.Success, comment.Message)

	doc := load(t, s)
	require.Len(t, doc.Articles, 2)
	assert.Equal(t, 1, doc.FeaturedCount())

	a := doc.Articles[doc.FindArticle(secondID)]
	assert.True(t, a.Featured)
	assert.Equal(t, "slow-mornings-revisited", a.Slug)
	assert.Equal(t, "Coffee second.", a.Excerpt)
	assert.Empty(t, a.VideoURL, "an update without a video clears it")
	assert.Equal(t, second.Data.(domain.Article).PublishedAt, a.PublishedAt)

	assert.Len(t, doc.Articles[doc.FindArticle(firstID)].Comments, 1)

	// Tech is in use until its article goes.
	techID := tech.Data.(domain.Category).ID
	assert.False(t, s.DeleteCategory(ctx, techID).Success)
	require.True(t, s.DeleteArticle(ctx, firstID).Success)
	require.True(t, s.DeleteCategory(ctx, techID).Success)

	// Export then import into a fresh store reproduces the same document.
	exported, err := s.Export(ctx)
	require.NoError(t, err)

	fresh, freshStore := newTestSynchronizer(t, nil)
	imported := fresh.Import(ctx, exported)
	require.True(t, imported.Success, imported.Message)
	assert.Empty(t, imported.Warnings)
	assert.JSONEq(t, string(store.Raw()), string(freshStore.Raw()))

	var decoded map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(exported, &decoded))
	assert.Contains(t, decoded, "articles")
	assert.Contains(t, decoded, "categories")

	got, err := docstore.Decode(freshStore.Raw())
	require.NoError(t, err)
	assert.Empty(t, got.UnresolvedArticles())
}
