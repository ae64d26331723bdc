package domain

import (
	"fmt"
	"strings"

	"github.com/MrSnakeDoc/readmehub/internal/markup"
)

const imageURLTemplate = "https://picsum.photos/seed/%s/1200/800"

// resolveCategoryInput finds the category named by an admin form value,
// matching the id first and then the slug.
func (d *Document) resolveCategoryInput(ref string) (Category, bool) {
	if i := d.FindCategory(ref); i >= 0 {
		return d.Categories[i], true
	}
	if i := d.FindCategoryBySlug(ref); i >= 0 {
		return d.Categories[i], true
	}
	return Category{}, false
}

// renderContent returns the HTML body for in, converting markdown if asked.
func renderContent(in ArticleInput) (string, error) {
	if in.Format != FormatMarkdown {
		return in.Content, nil
	}
	html, err := markup.MarkdownToHTML(in.Content)
	if err != nil {
		return "", NewValidation("Invalid form data.", map[string]string{"content": err.Error()})
	}
	return html, nil
}

// feature clears the featured flag on every article except id.
func (d *Document) feature(id string) {
	for i := range d.Articles {
		if d.Articles[i].ID != id {
			d.Articles[i].setFeatured(false)
		}
	}
}

// CreateArticle builds a new article from in and puts it at the head of the
// document. Requesting featured clears the flag on every other article.
func (d *Document) CreateArticle(in ArticleInput, gen *Generator, author Author) (*Article, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	category, ok := d.resolveCategoryInput(in.Category)
	if !ok {
		return nil, NewReferential("Category not found.", map[string]string{"category": "Invalid category selected."})
	}
	content, err := renderContent(in)
	if err != nil {
		return nil, err
	}

	id := gen.NewID()
	article := Article{
		ID:          id,
		Title:       in.Title,
		Slug:        markup.Slugify(in.Title),
		Excerpt:     markup.Excerpt(content),
		Content:     content,
		ImageURL:    fmt.Sprintf(imageURLTemplate, id),
		ImageHint:   imageHint(in.Title),
		Category:    Ref(category),
		Author:      author,
		PublishedAt: gen.Now().Format(PublishedAtLayout),
		Featured:    in.Featured,
		VideoURL:    in.VideoURL,
		Comments:    []Comment{},
	}

	if article.Featured {
		d.feature(id)
	}
	d.Articles = append([]Article{article}, d.Articles...)
	return &d.Articles[0], nil
}

// UpdateArticle overwrites the editable fields of the article with id and
// re-derives slug and excerpt. Identity, publication date, image and comments
// are kept.
func (d *Document) UpdateArticle(id string, in ArticleInput) (*Article, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	idx := d.FindArticle(id)
	if idx < 0 {
		return nil, NewNotFound("Article not found for update.")
	}
	category, ok := d.resolveCategoryInput(in.Category)
	if !ok {
		return nil, NewReferential("Category not found.", map[string]string{"category": "Invalid category selected."})
	}
	content, err := renderContent(in)
	if err != nil {
		return nil, err
	}

	a := &d.Articles[idx]
	a.Title = in.Title
	a.Slug = markup.Slugify(in.Title)
	a.Content = content
	a.Excerpt = markup.Excerpt(content)
	a.Category = Ref(category)
	a.setFeatured(in.Featured)
	a.VideoURL = in.VideoURL
	if a.Comments == nil {
		a.Comments = []Comment{}
	}

	if a.Featured {
		d.feature(id)
	}
	return a, nil
}

// DeleteArticle removes the article with id. Nothing cascades.
func (d *Document) DeleteArticle(id string) (*Article, error) {
	if strings.TrimSpace(id) == "" {
		return nil, NewValidation("Article ID is required.", map[string]string{"id": "Article ID is required."})
	}
	idx := d.FindArticle(id)
	if idx < 0 {
		return nil, NewNotFound("Article not found.")
	}
	removed := d.Articles[idx]
	d.Articles = append(d.Articles[:idx:idx], d.Articles[idx+1:]...)
	return &removed, nil
}

// imageHint is the first two words of the title, lower-cased.
func imageHint(title string) string {
	words := strings.Fields(title)
	if len(words) > 2 {
		words = words[:2]
	}
	return strings.ToLower(strings.Join(words, " "))
}
