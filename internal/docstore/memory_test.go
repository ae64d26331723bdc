package docstore

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/MrSnakeDoc/readmehub/internal/domain"
)

func sampleDocument() *domain.Document {
	return &domain.Document{
		Categories: []domain.Category{{ID: "c1", Name: "Tech", Slug: "tech"}},
		Articles: []domain.Article{{
			ID:          "a1",
			Title:       "Hello World",
			Slug:        "hello-world",
			Excerpt:     "Hi",
			Content:     "<p>Hi & welcome</p>",
			ImageURL:    "https://picsum.photos/seed/a1/1200/800",
			ImageHint:   "hello world",
			Category:    domain.CategoryRef{ID: "c1", Name: "Tech", Slug: "tech"},
			Author:      domain.Author{Name: "Admin User"},
			PublishedAt: "October 16, 2026",
			Featured:    true,
			Comments:    []domain.Comment{},
		}},
	}
}

func TestMemoryStoreBootstrap(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	snap, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if snap.Exists || snap.Version != "" {
		t.Errorf("empty store snapshot = %+v, want non-existent with no version", snap)
	}
	if snap.Document.Articles == nil || snap.Document.Categories == nil {
		t.Error("bootstrap document should have empty, non-nil lists")
	}

	if _, err := store.Save(ctx, sampleDocument(), "bogus", "first"); !errors.Is(err, ErrConflict) {
		t.Errorf("Save() with a token on a missing document = %v, want ErrConflict", err)
	}
	v, err := store.Save(ctx, sampleDocument(), "", "first")
	if err != nil {
		t.Fatalf("first Save() error = %v", err)
	}
	if v == "" {
		t.Error("Save() returned empty version")
	}
}

func TestMemoryStoreConditionalWrite(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(sampleDocument())

	snap, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if _, err := store.Save(ctx, snap.Document, "", "no token"); !errors.Is(err, ErrConflict) {
		t.Errorf("Save() without token on existing document = %v, want ErrConflict", err)
	}

	next, err := store.Save(ctx, snap.Document, snap.Version, "ok")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if next == snap.Version {
		t.Error("version should change on every write")
	}

	if _, err := store.Save(ctx, snap.Document, snap.Version, "stale"); !errors.Is(err, ErrConflict) {
		t.Errorf("Save() with stale token = %v, want ErrConflict", err)
	}

	commits := store.Commits()
	if len(commits) != 2 || commits[1].Message != "ok" {
		t.Errorf("Commits() = %+v", commits)
	}
}

func TestRoundTripIdentity(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(sampleDocument())
	before := store.Raw()

	snap, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	v, err := store.Save(ctx, snap.Document, snap.Version, "noop")
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	if !bytes.Equal(before, store.Raw()) {
		t.Errorf("round trip changed the document:\nbefore: %s\nafter:  %s", before, store.Raw())
	}
	if v == snap.Version {
		t.Error("version token should change")
	}
}

func TestEncodeKeepsMarkup(t *testing.T) {
	data, err := Encode(sampleDocument())
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if !bytes.Contains(data, []byte("<p>Hi & welcome</p>")) {
		t.Errorf("markup was escaped: %s", data)
	}
	if bytes.HasSuffix(data, []byte("\n")) {
		t.Error("encoded document should not end with a newline")
	}
}

func TestDecodeEmpty(t *testing.T) {
	for _, in := range []string{"", "{}", `{"articles":null}`} {
		doc, err := Decode([]byte(in))
		if err != nil {
			t.Fatalf("Decode(%q) error = %v", in, err)
		}
		if doc.Articles == nil || doc.Categories == nil {
			t.Errorf("Decode(%q) left nil lists", in)
		}
	}
	if _, err := Decode([]byte("{not json")); err == nil {
		t.Error("Decode() of garbage should fail")
	}
}

func TestMemoryStoreFailures(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)
	store.FailLoad = errors.New("boom")

	if _, err := store.Load(ctx); !errors.Is(err, ErrBackend) {
		t.Errorf("Load() = %v, want ErrBackend", err)
	}

	store.FailLoad = nil
	store.FailSave = errors.New("disk full")
	if _, err := store.Save(ctx, sampleDocument(), "", "x"); !errors.Is(err, ErrBackend) {
		t.Errorf("Save() = %v, want ErrBackend", err)
	}
}

// legacyDocument is laid out the way older tooling wrote it: keys in a
// different order, unknown keys, optional keys missing or empty.
const legacyDocument = `{
  "articles": [
    {
      "id": "1717000000000",
      "title": "Legacy Post",
      "slug": "legacy-post",
      "excerpt": "Old...",
      "content": "<p>Old & gold</p>",
      "imageUrl": "https://picsum.photos/seed/0.5/1200/800",
      "imageHint": "legacy post",
      "category": "1716000000000",
      "author": {
        "name": "Admin User",
        "avatarUrl": "https://example.com/a.png"
      },
      "publishedAt": "May 29, 2024",
      "videoUrl": "",
      "readTime": 5
    },
    {
      "id": "1717000000001",
      "title": "Second",
      "category": {
        "id": "1716000000000",
        "name": "Tech",
        "slug": "tech"
      },
      "featured": true,
      "comments": [
        {
          "id": "k1",
          "author": "Ann",
          "content": "Nice",
          "createdAt": "2024-05-30T10:00:00.000Z",
          "likes": 2
        }
      ]
    }
  ],
  "categories": [
    {
      "id": "1716000000000",
      "name": "Tech",
      "slug": "tech",
      "color": "#00f"
    }
  ],
  "siteTitle": "Readme Hub"
}`

func TestLegacyRoundTripIdentity(t *testing.T) {
	doc, err := Decode([]byte(legacyDocument))
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if doc.Articles[0].Comments == nil {
		t.Error("missing comments should decode as an empty list")
	}

	out, err := Encode(doc)
	if err != nil {
		t.Fatalf("Encode() error = %v", err)
	}
	if string(out) != legacyDocument {
		t.Errorf("legacy document changed:\n%s", out)
	}

	// Through a backend, untouched articles keep their layout after an edit.
	ctx := context.Background()
	fake := &fakeGitHub{content: []byte(legacyDocument), sha: "s1", token: "secret"}
	store := newTestGitHubStore(t, fake, "secret")

	snap, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := store.Save(ctx, snap.Document, snap.Version, "noop"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if string(fake.content) != legacyDocument {
		t.Errorf("load and save changed the document:\n%s", fake.content)
	}
}
