package scanner

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeNote(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestScanRecognitionRules(t *testing.T) {
	cases := []struct {
		name string
		line string
		want []string
	}{
		{"rss prefix", "rss: https://blog.example.com/index.xml", []string{"https://blog.example.com/index.xml"}},
		{"feed prefix uppercase", "FEED: https://example.org/posts.rss", []string{"https://example.org/posts.rss"}},
		{"prefix with label", "my favourite blog feed: https://example.org/updates.xml", []string{"https://example.org/updates.xml"}},
		{"bare url .xml", "see https://example.com/atom.xml for updates", []string{"https://example.com/atom.xml"}},
		{"bare url .rss", "https://example.com/news.rss", []string{"https://example.com/news.rss"}},
		{"bare url /feed", "link: https://example.com/blog/feed", []string{"https://example.com/blog/feed"}},
		{"bare url /rss trailing slash", "https://example.com/rss/", []string{"https://example.com/rss/"}},
		{"markdown link trailing paren", "[blog](https://example.com/feed)", []string{"https://example.com/feed"}},
		{"plain article url ignored", "https://example.com/posts/hello-world", nil},
		{"non-url ignored", "rss: not-a-url", nil},
		{"ftp ignored", "feed: ftp://example.com/feed.xml", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			writeNote(t, dir, "note.md", tc.line+"\n")
			res, err := Scan(dir)
			if err != nil {
				t.Fatal(err)
			}
			if len(res.Feeds) != len(tc.want) {
				t.Fatalf("feeds = %v, want %v", res.Feeds, tc.want)
			}
			for i := range tc.want {
				if res.Feeds[i] != tc.want[i] {
					t.Errorf("feeds[%d] = %q, want %q", i, res.Feeds[i], tc.want[i])
				}
			}
		})
	}
}

func TestScanYAMLMetadataBlock(t *testing.T) {
	dir := t.TempDir()
	note := writeNote(t, dir, "reading.md", `---
title: Reading list
rss_feeds:
  - https://example.com/a.xml
  - https://example.org/b/feed
---

Some note text.
`)
	res, err := Scan(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Feeds) != 2 {
		t.Fatalf("feeds = %v, want 2 entries", res.Feeds)
	}
	byURL := map[string]FeedRecord{}
	for _, r := range res.Records {
		byURL[r.URL] = r
	}
	a, ok := byURL["https://example.com/a.xml"]
	if !ok {
		t.Fatalf("first yaml feed missing from records: %v", res.Records)
	}
	if a.SourceFile != note || a.LineNumber != 4 {
		t.Errorf("record = %+v, want %s:4", a, note)
	}
	if b := byURL["https://example.org/b/feed"]; b.LineNumber != 5 {
		t.Errorf("second yaml feed line = %d, want 5", b.LineNumber)
	}
}

func TestScanDeduplicatesAcrossFiles(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, "a.md", "rss: https://example.com/feed\n")
	writeNote(t, dir, "sub/b.md", "also rss: https://example.com/feed\n")
	writeNote(t, dir, "c.txt", "rss: https://example.com/feed\n")

	res, err := Scan(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Feeds) != 1 {
		t.Errorf("feeds = %v, want a single deduplicated URL", res.Feeds)
	}
	if len(res.Records) != 3 {
		t.Errorf("records = %d, want one per occurrence", len(res.Records))
	}
	if res.FilesScanned != 3 {
		t.Errorf("files scanned = %d, want 3", res.FilesScanned)
	}
}

func TestScanIgnoresNonNoteFiles(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, "feeds.json", `{"url": "https://example.com/feed"}`)
	writeNote(t, dir, "image.png", "https://example.com/feed")

	res, err := Scan(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Feeds) != 0 {
		t.Errorf("feeds = %v, want none from non-note files", res.Feeds)
	}
}

func TestRescanReplacesOutput(t *testing.T) {
	dir := t.TempDir()
	note := writeNote(t, dir, "note.md", "rss: https://old.example.com/feed\n")

	res, err := Scan(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Feeds) != 1 || res.Feeds[0] != "https://old.example.com/feed" {
		t.Fatalf("initial scan = %v", res.Feeds)
	}

	if err := os.WriteFile(note, []byte("rss: https://new.example.com/feed\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err = Scan(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Feeds) != 1 || res.Feeds[0] != "https://new.example.com/feed" {
		t.Errorf("rescan = %v, removed feed must disappear", res.Feeds)
	}
}

func TestNormalizeURL(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"https://example.com/feed?utm_source=x&utm_medium=y", "https://example.com/feed", true},
		{"https://example.com/feed?fbclid=abc&page=2", "https://example.com/feed?page=2", true},
		{"https://example.com/feed#section", "https://example.com/feed", true},
		{"http://example.com/rss", "http://example.com/rss", true},
		{"ftp://example.com/feed", "", false},
		{"not a url", "", false},
	}
	for _, tc := range cases {
		got, ok := NormalizeURL(tc.in)
		if ok != tc.ok || got != tc.want {
			t.Errorf("NormalizeURL(%q) = %q, %v; want %q, %v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}

func TestMetadataBlockClosesOnExactDelimiterLine(t *testing.T) {
	content := "---\n" +
		"title: Reading list\n" +
		"---- not a closing line\n" +
		"rss_feeds:\n" +
		"  - https://example.com/a.xml\n" +
		"---\n" +
		"body\n"
	block, ok := leadingMetadataBlock(content)
	if !ok {
		t.Fatal("block with an exact closing line must be found")
	}
	if !strings.Contains(block, "---- not a closing line") || !strings.Contains(block, "rss_feeds:") {
		t.Errorf("block = %q, a ---- line must not close it early", block)
	}

	if block, ok := leadingMetadataBlock("---\ntitle: x\n----\nbody\n"); ok {
		t.Errorf("block = %q, want none without an exact closing line", block)
	}
}

func TestScanSameURLWithTrackingNoiseCollapses(t *testing.T) {
	dir := t.TempDir()
	writeNote(t, dir, "a.md", "rss: https://example.com/feed?utm_source=newsletter\n")
	writeNote(t, dir, "b.md", "rss: https://example.com/feed\n")

	res, err := Scan(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Feeds) != 1 || res.Feeds[0] != "https://example.com/feed" {
		t.Errorf("feeds = %v, tracking noise should collapse", res.Feeds)
	}
}
