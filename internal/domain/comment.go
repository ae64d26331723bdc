package domain

import "time"

// AddComment appends a comment to the article with articleID and returns the
// updated article.
func (d *Document) AddComment(articleID string, in CommentInput, gen *Generator) (*Article, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	idx := d.FindArticle(articleID)
	if idx < 0 {
		return nil, NewNotFound("Article not found.")
	}

	a := &d.Articles[idx]
	a.Comments = append(a.Comments, Comment{
		ID:        gen.NewID(),
		Author:    in.Author,
		Content:   in.Content,
		CreatedAt: gen.Now().UTC().Format(time.RFC3339Nano),
	})
	return a, nil
}
