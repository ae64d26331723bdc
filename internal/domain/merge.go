package domain

// MergeReport describes what a bulk merge did.
type MergeReport struct {
	CategoriesAdded   int      `json:"categoriesAdded"`
	CategoriesSkipped int      `json:"categoriesSkipped"`
	ArticlesAdded     int      `json:"articlesAdded"`
	ArticlesSkipped   int      `json:"articlesSkipped"`
	DroppedArticles   []string `json:"droppedArticles,omitempty"`    // ids whose category could not be resolved
	IDClashes         []string `json:"idClashes,omitempty"`          // new slugs whose id is already taken
	UnfeaturedIDs     []string `json:"unfeaturedArticles,omitempty"` // incoming articles whose featured flag was cleared
	InvalidEntries    int      `json:"invalidEntries"`               // articles without an id, categories without a slug
}

// Merge unions uploaded into d and returns the merged document. Categories
// are keyed by slug and articles by id; on conflict the existing entry wins.
//
// An incoming category without an id gets one from gen. One whose id already
// belongs to another category is skipped and listed in IDClashes. Incoming
// articles are re-resolved against the merged category set and dropped, with
// a note in the report, when their category cannot be found. An incoming
// article keeps its featured flag only while no other article has one.
//
// Merging the same upload twice yields the same document as merging it once.
func (d *Document) Merge(uploaded *Document, author Author, gen *Generator) (*Document, MergeReport) {
	var report MergeReport
	merged := d.Clone()

	bySlug := make(map[string]bool, len(merged.Categories))
	byID := make(map[string]bool, len(merged.Categories))
	for _, c := range merged.Categories {
		bySlug[c.Slug] = true
		byID[c.ID] = true
	}
	for _, c := range uploaded.Categories {
		switch {
		case c.Slug == "":
			report.InvalidEntries++
			continue
		case bySlug[c.Slug]:
			report.CategoriesSkipped++
			continue
		case c.ID == "":
			c.ID = gen.NewID()
		case byID[c.ID]:
			report.IDClashes = append(report.IDClashes, c.Slug)
			continue
		}
		bySlug[c.Slug] = true
		byID[c.ID] = true
		merged.Categories = append(merged.Categories, c)
		report.CategoriesAdded++
	}

	catByID := make(map[string]Category, len(merged.Categories))
	catBySlug := make(map[string]Category, len(merged.Categories))
	for _, c := range merged.Categories {
		if _, dup := catByID[c.ID]; !dup {
			catByID[c.ID] = c
		}
		catBySlug[c.Slug] = c
	}

	featured := merged.FeaturedCount() > 0
	seen := make(map[string]bool, len(merged.Articles))
	for _, a := range merged.Articles {
		seen[a.ID] = true
	}
	for _, a := range uploaded.Articles {
		if a.ID == "" {
			report.InvalidEntries++
			continue
		}
		if seen[a.ID] {
			report.ArticlesSkipped++
			continue
		}
		cat, ok := catByID[a.Category.ID]
		if !ok && a.Category.Slug != "" {
			cat, ok = catBySlug[a.Category.Slug]
		}
		if !ok {
			report.DroppedArticles = append(report.DroppedArticles, a.ID)
			continue
		}

		seen[a.ID] = true
		a.Category = Ref(cat)
		a.Author = author
		if a.Comments == nil {
			a.Comments = []Comment{}
		} else {
			a.Comments = append([]Comment(nil), a.Comments...)
		}
		if a.Featured {
			if featured {
				a.setFeatured(false)
				report.UnfeaturedIDs = append(report.UnfeaturedIDs, a.ID)
			}
			featured = true
		}
		merged.Articles = append(merged.Articles, a)
		report.ArticlesAdded++
	}

	return merged, report
}
