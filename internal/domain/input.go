package domain

import (
	"errors"
	"regexp"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	FormatHTML     = "html"
	FormatMarkdown = "markdown"

	MaxTitleLength = 200
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ArticleInput is the editable part of an article as submitted by the admin.
// Category holds a category id or slug.
type ArticleInput struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
	Featured bool   `json:"featured"`
	VideoURL string `json:"videoUrl,omitempty"`
	Format   string `json:"format,omitempty"`
}

// Validate checks required fields and reports per-field messages.
func (in *ArticleInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Category = strings.TrimSpace(in.Category)
	in.VideoURL = strings.TrimSpace(in.VideoURL)

	return fieldErrors("Invalid form data.", validation.ValidateStruct(in,
		validation.Field(&in.Title,
			validation.Required.Error("Title is required."),
			validation.RuneLength(1, MaxTitleLength).Error("Title is too long."),
		),
		validation.Field(&in.Content, validation.Required.Error("Content is required.")),
		validation.Field(&in.Category, validation.Required.Error("Category is required.")),
		validation.Field(&in.Format,
			validation.In(FormatHTML, FormatMarkdown).Error("Format must be html or markdown."),
		),
	))
}

// CategoryInput is a new category as submitted by the admin.
type CategoryInput struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (in *CategoryInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	in.Slug = strings.TrimSpace(in.Slug)

	return fieldErrors("Invalid category data.", validation.ValidateStruct(in,
		validation.Field(&in.Name, validation.Required.Error("Category name is required.")),
		validation.Field(&in.Slug,
			validation.Required.Error("Category slug is required."),
			validation.Match(slugPattern).Error("Slug may only contain lowercase letters, digits and dashes."),
		),
	))
}

// CommentInput is a reader comment as submitted on the public site.
type CommentInput struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

func (in *CommentInput) Validate() error {
	in.Author = strings.TrimSpace(in.Author)
	in.Content = strings.TrimSpace(in.Content)

	return fieldErrors("Invalid comment data.", validation.ValidateStruct(in,
		validation.Field(&in.Author, validation.Required.Error("Name is required.")),
		validation.Field(&in.Content, validation.Required.Error("Comment content is required.")),
	))
}

// fieldErrors turns an ozzo result into a validation *Error.
func fieldErrors(msg string, err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return &Error{Kind: KindInternal, Message: "validation failed", Err: err}
	}
	fields := make(map[string]string, len(verrs))
	for name, fe := range verrs {
		fields[name] = fe.Error()
	}
	return NewValidation(msg, fields)
}
