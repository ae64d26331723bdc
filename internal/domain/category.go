package domain

import "strings"

// AddCategory appends a new category. The slug must not already be in use.
func (d *Document) AddCategory(in CategoryInput, gen *Generator) (*Category, error) {
	if err := in.Validate(); err != nil {
		return nil, err
	}
	if d.FindCategoryBySlug(in.Slug) >= 0 {
		return nil, NewReferential("Category slug must be unique.", map[string]string{"slug": "This slug is already in use."})
	}

	d.Categories = append(d.Categories, Category{
		ID:   gen.NewID(),
		Name: in.Name,
		Slug: in.Slug,
	})
	return &d.Categories[len(d.Categories)-1], nil
}

// DeleteCategory removes the category with id. It is refused while any
// article still references the category.
func (d *Document) DeleteCategory(id string) (*Category, error) {
	if strings.TrimSpace(id) == "" {
		return nil, NewValidation("Category ID is required.", map[string]string{"id": "Category ID is required."})
	}
	if d.CategoryInUse(id) {
		return nil, NewReferential("Cannot delete category. It is currently in use by one or more articles.", nil)
	}
	idx := d.FindCategory(id)
	if idx < 0 {
		return nil, NewNotFound("Category not found.")
	}
	removed := d.Categories[idx]
	d.Categories = append(d.Categories[:idx:idx], d.Categories[idx+1:]...)
	return &removed, nil
}

// CategoryInUse reports whether any article references category id.
func (d *Document) CategoryInUse(id string) bool {
	for i := range d.Articles {
		if d.Articles[i].Category.ID == id {
			return true
		}
	}
	return false
}
