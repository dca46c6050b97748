package query

import (
	"testing"

	"notefeed/internal/store"
)

func seededService(t *testing.T) *Service {
	t.Helper()
	st, err := store.Open(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}

	articles := []store.Article{
		{ID: "a", Feed: "https://a.example/feed", Title: "Go generics", Date: "2024-03-01T00:00:00Z", Content: "body"},
		{ID: "b", Feed: "https://a.example/feed", Title: "Old go news", Date: "2024-01-01T00:00:00Z", Read: true, Content: "body"},
		{ID: "c", Feed: "https://b.example/rss", Title: "Rust post", Starred: true, Content: "body"},
	}
	for _, a := range articles {
		if _, err := st.PutIfAbsent(a); err != nil {
			t.Fatal(err)
		}
	}
	return New(st)
}

func TestUnreadExcludesRead(t *testing.T) {
	q := seededService(t)
	got, err := q.Unread(0)
	if err != nil {
		t.Fatal(err)
	}
	for _, a := range got {
		if a.Read {
			t.Errorf("unread listing contains read article %s", a.ID)
		}
	}
	if len(got) != 2 {
		t.Errorf("unread = %d, want 2", len(got))
	}
}

func TestStarredSubset(t *testing.T) {
	q := seededService(t)
	got, err := q.Starred(0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != "c" {
		t.Errorf("starred = %v, want only c", got)
	}
}

func TestByFeed(t *testing.T) {
	q := seededService(t)
	got, err := q.ByFeed("https://a.example/feed", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("by feed = %d articles, want 2", len(got))
	}
}

func TestSearch(t *testing.T) {
	q := seededService(t)
	got, err := q.Search("GO", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Errorf("search = %d matches, want 2 (case-insensitive)", len(got))
	}
}

func TestStats(t *testing.T) {
	q := seededService(t)
	total, unread, err := q.Stats()
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || unread != 2 {
		t.Errorf("stats = %d/%d, want 3 total, 2 unread", total, unread)
	}
}
