package domain

// Resolve returns the read view of d: each article's category reference is
// replaced by the full category when it can be found (the raw reference is
// kept otherwise), the byline is forced to author and missing comment lists
// become empty. d itself is not modified.
func (d *Document) Resolve(author Author) *Document {
	out := d.Clone()
	out.Normalize()

	byID := make(map[string]Category, len(out.Categories))
	for _, c := range out.Categories {
		byID[c.ID] = c
	}
	for i := range out.Articles {
		a := &out.Articles[i]
		if c, ok := byID[a.Category.ID]; ok {
			a.Category = Ref(c)
		}
		a.Author = author
	}
	return out
}

// UnresolvedArticles lists the ids of articles whose category is missing
// from the document.
func (d *Document) UnresolvedArticles() []string {
	var ids []string
	for _, a := range d.Articles {
		if d.FindCategory(a.Category.ID) < 0 {
			ids = append(ids, a.ID)
		}
	}
	return ids
}
