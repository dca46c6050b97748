package viewer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"notefeed/internal/config"
	"notefeed/internal/store"
)

// CreateNote writes a draft note for the article into the configured notes
// directory and returns its path. The host editor decides what to do with
// the file; we only produce it.
func CreateNote(cfg config.Config, a store.Article) (string, error) {
	dir := config.ExpandPath(cfg.NotesPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating notes directory: %w", err)
	}

	name := time.Now().Format("200601021504") + "-" + slugify(a.Title) + ".md"
	path := filepath.Join(dir, name)

	var b strings.Builder
	title := a.Title
	if title == "" {
		title = "Untitled article"
	}
	b.WriteString("# " + title + "\n\n")
	b.WriteString("Source: " + a.Link + "\n")
	b.WriteString("Feed: " + a.Feed + "\n")
	if a.Date != "" {
		b.WriteString("Date: " + a.Date + "\n")
	}
	b.WriteString("\n## Summary\n\n")
	if p := firstParagraph(a.Content); p != "" {
		b.WriteString(p + "\n")
	}
	b.WriteString("\n## Notes\n\n")

	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing draft note: %w", err)
	}
	return path, nil
}

// firstParagraph takes the first non-heading paragraph of the body.
func firstParagraph(content string) string {
	for _, para := range strings.Split(strings.TrimSpace(content), "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" || strings.HasPrefix(para, "#") {
			continue
		}
		return para
	}
	return ""
}

func slugify(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		case r == ' ':
			b.WriteRune('-')
		}
	}
	s := strings.Trim(b.String(), "-")
	if s == "" {
		s = "article"
	}
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}
