package syncer

import (
	"bytes"
	"context"
	"fmt"

	"github.com/MrSnakeDoc/readmehub/internal/docstore"
	"github.com/MrSnakeDoc/readmehub/internal/domain"
	"github.com/MrSnakeDoc/readmehub/internal/logger"
)

func (s *Synchronizer) CreateArticle(ctx context.Context, in domain.ArticleInput) *Result {
	data, err := s.mutate(ctx, func(doc *domain.Document) (string, any, error) {
		a, err := doc.CreateArticle(in, s.gen, s.author)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("feat: Create new article %q", a.Title), *a, nil
	})
	if err != nil {
		return failed("Failed to save article.", err)
	}
	return succeeded("Article created successfully.", data)
}

func (s *Synchronizer) UpdateArticle(ctx context.Context, id string, in domain.ArticleInput) *Result {
	data, err := s.mutate(ctx, func(doc *domain.Document) (string, any, error) {
		a, err := doc.UpdateArticle(id, in)
		if err != nil {
			return "", nil, err
		}
		a.Author = s.author
		return fmt.Sprintf("feat: Update article %q", a.Title), *a, nil
	})
	if err != nil {
		return failed("Failed to save article.", err)
	}
	return succeeded("Article updated successfully.", data)
}

func (s *Synchronizer) DeleteArticle(ctx context.Context, id string) *Result {
	_, err := s.mutate(ctx, func(doc *domain.Document) (string, any, error) {
		a, err := doc.DeleteArticle(id)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("feat: Delete article %q", a.Title), nil, nil
	})
	if err != nil {
		return failed("Failed to delete article.", err)
	}
	return succeeded("Article deleted successfully.", nil)
}

func (s *Synchronizer) AddCategory(ctx context.Context, in domain.CategoryInput) *Result {
	data, err := s.mutate(ctx, func(doc *domain.Document) (string, any, error) {
		c, err := doc.AddCategory(in, s.gen)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("feat: Add category %q", c.Name), *c, nil
	})
	if err != nil {
		return failed("Failed to manage category.", err)
	}
	return succeeded("Category added successfully.", data)
}

func (s *Synchronizer) DeleteCategory(ctx context.Context, id string) *Result {
	_, err := s.mutate(ctx, func(doc *domain.Document) (string, any, error) {
		c, err := doc.DeleteCategory(id)
		if err != nil {
			return "", nil, err
		}
		return fmt.Sprintf("feat: Delete category %q", c.Name), nil, nil
	})
	if err != nil {
		return failed("Failed to delete category.", err)
	}
	return succeeded("Category deleted successfully.", nil)
}

func (s *Synchronizer) AddComment(ctx context.Context, articleID string, in domain.CommentInput) *Result {
	data, err := s.mutate(ctx, func(doc *domain.Document) (string, any, error) {
		a, err := doc.AddComment(articleID, in, s.gen)
		if err != nil {
			return "", nil, err
		}
		msg := fmt.Sprintf("feat: Add comment to article %q", a.Title)
		resolved := doc.Resolve(s.author)
		return msg, resolved.Articles[doc.FindArticle(articleID)], nil
	})
	if err != nil {
		return failed("Failed to add comment.", err)
	}
	return succeeded("Comment added successfully.", data)
}

// Export returns the current document as persisted.
func (s *Synchronizer) Export(ctx context.Context) ([]byte, error) {
	snap, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	return docstore.Encode(snap.Document)
}

// Import merges an uploaded document into the stored one. Existing
// categories (by slug) and articles (by id) win. Articles whose category
// cannot be resolved are dropped and listed in the warnings. When the upload
// adds nothing no commit is made.
func (s *Synchronizer) Import(ctx context.Context, data []byte) *Result {
	if len(bytes.TrimSpace(data)) == 0 {
		return failed("No file uploaded.", domain.NewValidation("No file uploaded.",
			map[string]string{"jsonFile": "No file uploaded."}))
	}
	uploaded, err := docstore.Decode(data)
	if err != nil {
		return failed("Invalid JSON file.", domain.NewValidation("Invalid JSON file.",
			map[string]string{"jsonFile": err.Error()}))
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	snap, err := s.Load(ctx)
	if err != nil {
		return failed("GitHub Upload failed.", err)
	}
	merged, report := snap.Document.Merge(uploaded, s.author, s.gen)

	warnings := mergeWarnings(report)
	for _, w := range warnings {
		s.logger.Warn("import", logger.String("warning", w))
	}

	if report.CategoriesAdded == 0 && report.ArticlesAdded == 0 && snap.Exists {
		res := succeeded("Nothing new to merge, the document is unchanged.", report)
		res.Warnings = warnings
		return res
	}

	if err := s.save(ctx, merged, snap.Version, "feat: Merge and update database via admin panel upload"); err != nil {
		return failed("GitHub Upload failed.", err)
	}

	s.logger.Info("import merged",
		logger.Int("categories_added", report.CategoriesAdded),
		logger.Int("articles_added", report.ArticlesAdded),
		logger.Int("articles_dropped", len(report.DroppedArticles)))

	res := succeeded("Data successfully merged and uploaded.", report)
	res.Warnings = warnings
	return res
}

func mergeWarnings(r domain.MergeReport) []string {
	var out []string
	for _, id := range r.DroppedArticles {
		out = append(out, fmt.Sprintf("Article %q was dropped: its category could not be resolved.", id))
	}
	for _, slug := range r.IDClashes {
		out = append(out, fmt.Sprintf("Category %q was skipped: its id is already used by another category.", slug))
	}
	for _, id := range r.UnfeaturedIDs {
		out = append(out, fmt.Sprintf("Article %q was imported without its featured flag: another article is already featured.", id))
	}
	if r.InvalidEntries > 0 {
		out = append(out, fmt.Sprintf("%d entries without an id or slug were ignored.", r.InvalidEntries))
	}
	return out
}
