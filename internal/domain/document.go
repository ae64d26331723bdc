package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Every persisted type keeps the layout it was read with (see shape), so
// keys readmehub does not model, key order, and keys that were absent all
// survive a load and a save.

// Document is the whole persisted state of the site: every article and every
// category, in display order. It is read fresh before each mutation and
// written back wholesale.
type Document struct {
	Articles   []Article  `json:"articles"`
	Categories []Category `json:"categories"`

	shape *shape
}

// Category groups articles. Slug is unique across a Document.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`

	shape *shape
}

// Author is the byline attached to every article. The site has exactly one.
type Author struct {
	Name      string `json:"name"`
	AvatarURL string `json:"avatarUrl"`

	shape *shape
}

// Comment is a reader comment. Comments are append-only.
type Comment struct {
	ID        string `json:"id"`
	Author    string `json:"author"`
	Content   string `json:"content"`
	CreatedAt string `json:"createdAt"`

	shape *shape
}

// Article is a single published piece.
type Article struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Slug        string      `json:"slug"`
	Excerpt     string      `json:"excerpt"`
	Content     string      `json:"content"`
	ImageURL    string      `json:"imageUrl"`
	ImageHint   string      `json:"imageHint"`
	Category    CategoryRef `json:"category"`
	Author      Author      `json:"author"`
	PublishedAt string      `json:"publishedAt"`
	Featured    bool        `json:"featured"`
	VideoURL    string      `json:"videoUrl,omitempty"`
	Comments    []Comment   `json:"comments"`

	shape *shape
}

var (
	documentKeys = keySet("articles", "categories")
	categoryKeys = keySet("id", "name", "slug")
	authorKeys   = keySet("name", "avatarUrl")
	commentKeys  = keySet("id", "author", "content", "createdAt")
	articleKeys  = keySet("id", "title", "slug", "excerpt", "content", "imageUrl", "imageHint",
		"category", "author", "publishedAt", "featured", "videoUrl", "comments")
)

// setFeatured assigns the featured flag. On an article read without the key,
// the key is added so an explicit false is persisted.
func (a *Article) setFeatured(v bool) {
	a.Featured = v
	a.shape = a.shape.with("featured")
}

func (d Document) MarshalJSON() ([]byte, error) {
	articles, categories := d.Articles, d.Categories
	if articles == nil {
		articles = []Article{}
	}
	if categories == nil {
		categories = []Category{}
	}
	return d.shape.write([]field{
		{key: "articles", value: articles, zero: len(articles) == 0},
		{key: "categories", value: categories, zero: len(categories) == 0},
	})
}

func (d *Document) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	type plain Document
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	s, err := readShape(data, documentKeys)
	if err != nil {
		return err
	}
	*d = Document(p)
	d.shape = s
	return nil
}

func (c Category) MarshalJSON() ([]byte, error) {
	return c.shape.write([]field{
		{key: "id", value: c.ID, zero: c.ID == ""},
		{key: "name", value: c.Name, zero: c.Name == ""},
		{key: "slug", value: c.Slug, zero: c.Slug == ""},
	})
}

func (c *Category) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	type plain Category
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	s, err := readShape(data, categoryKeys)
	if err != nil {
		return err
	}
	*c = Category(p)
	c.shape = s
	return nil
}

func (a Author) MarshalJSON() ([]byte, error) {
	return a.shape.write([]field{
		{key: "name", value: a.Name, zero: a.Name == ""},
		{key: "avatarUrl", value: a.AvatarURL, zero: a.AvatarURL == ""},
	})
}

func (a *Author) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	type plain Author
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	s, err := readShape(data, authorKeys)
	if err != nil {
		return err
	}
	*a = Author(p)
	a.shape = s
	return nil
}

func (c Comment) MarshalJSON() ([]byte, error) {
	return c.shape.write([]field{
		{key: "id", value: c.ID, zero: c.ID == ""},
		{key: "author", value: c.Author, zero: c.Author == ""},
		{key: "content", value: c.Content, zero: c.Content == ""},
		{key: "createdAt", value: c.CreatedAt, zero: c.CreatedAt == ""},
	})
}

func (c *Comment) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	type plain Comment
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	s, err := readShape(data, commentKeys)
	if err != nil {
		return err
	}
	*c = Comment(p)
	c.shape = s
	return nil
}

func (a Article) MarshalJSON() ([]byte, error) {
	comments := a.Comments
	if comments == nil {
		comments = []Comment{}
	}
	return a.shape.write([]field{
		{key: "id", value: a.ID, zero: a.ID == ""},
		{key: "title", value: a.Title, zero: a.Title == ""},
		{key: "slug", value: a.Slug, zero: a.Slug == ""},
		{key: "excerpt", value: a.Excerpt, zero: a.Excerpt == ""},
		{key: "content", value: a.Content, zero: a.Content == ""},
		{key: "imageUrl", value: a.ImageURL, zero: a.ImageURL == ""},
		{key: "imageHint", value: a.ImageHint, zero: a.ImageHint == ""},
		{key: "category", value: a.Category, zero: a.Category == CategoryRef{}},
		{key: "author", value: a.Author, zero: a.Author == Author{}},
		{key: "publishedAt", value: a.PublishedAt, zero: a.PublishedAt == ""},
		{key: "featured", value: a.Featured, zero: !a.Featured},
		{key: "videoUrl", value: a.VideoURL, zero: a.VideoURL == "", optional: true},
		{key: "comments", value: comments, zero: len(comments) == 0},
	})
}

func (a *Article) UnmarshalJSON(data []byte) error {
	if isNull(data) {
		return nil
	}
	type plain Article
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	s, err := readShape(data, articleKeys)
	if err != nil {
		return err
	}
	*a = Article(p)
	a.shape = s
	return nil
}

func isNull(data []byte) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

// CategoryRef is the category an article points at. Documents written by
// readmehub embed the full category; older documents may hold only the id as
// a bare JSON string. Both forms decode, and a bare reference is encoded
// back as a bare string.
type CategoryRef struct {
	ID   string
	Name string
	Slug string

	shape *shape // of the embedded category
}

// Ref builds a resolved reference from a category.
func Ref(c Category) CategoryRef {
	return CategoryRef{ID: c.ID, Name: c.Name, Slug: c.Slug, shape: c.shape}
}

// Bare reports whether the reference carries only an id.
func (r CategoryRef) Bare() bool {
	return r.Name == "" && r.Slug == ""
}

func (r CategoryRef) MarshalJSON() ([]byte, error) {
	if r.Bare() && r.shape == nil {
		return marshalJSON(r.ID)
	}
	return Category{ID: r.ID, Name: r.Name, Slug: r.Slug, shape: r.shape}.MarshalJSON()
}

func (r *CategoryRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if isNull(data) {
		*r = CategoryRef{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var id string
		if err := json.Unmarshal(data, &id); err != nil {
			return fmt.Errorf("invalid category reference: %w", err)
		}
		*r = CategoryRef{ID: id}
		return nil
	}
	var c Category
	if err := json.Unmarshal(data, &c); err != nil {
		return fmt.Errorf("invalid category reference: %w", err)
	}
	*r = Ref(c)
	return nil
}

// Normalize replaces nil collections with empty ones so the document always
// encodes with [] rather than null.
func (d *Document) Normalize() {
	if d.Articles == nil {
		d.Articles = []Article{}
	}
	if d.Categories == nil {
		d.Categories = []Category{}
	}
	for i := range d.Articles {
		if d.Articles[i].Comments == nil {
			d.Articles[i].Comments = []Comment{}
		}
	}
}

// Clone returns a deep copy of d.
func (d *Document) Clone() *Document {
	out := &Document{
		Articles:   make([]Article, len(d.Articles)),
		Categories: make([]Category, len(d.Categories)),
		shape:      d.shape,
	}
	copy(out.Categories, d.Categories)
	for i, a := range d.Articles {
		if a.Comments != nil {
			a.Comments = append([]Comment(nil), a.Comments...)
		}
		out.Articles[i] = a
	}
	return out
}

// FindArticle returns the index of the article with id, or -1.
func (d *Document) FindArticle(id string) int {
	for i := range d.Articles {
		if d.Articles[i].ID == id {
			return i
		}
	}
	return -1
}

// FindCategory returns the index of the category with id, or -1.
func (d *Document) FindCategory(id string) int {
	for i := range d.Categories {
		if d.Categories[i].ID == id {
			return i
		}
	}
	return -1
}

// FindCategoryBySlug returns the index of the category with slug, or -1.
func (d *Document) FindCategoryBySlug(slug string) int {
	for i := range d.Categories {
		if d.Categories[i].Slug == slug {
			return i
		}
	}
	return -1
}

// FeaturedCount is the number of articles flagged as featured.
func (d *Document) FeaturedCount() int {
	n := 0
	for i := range d.Articles {
		if d.Articles[i].Featured {
			n++
		}
	}
	return n
}
