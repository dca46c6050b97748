// Package store persists articles as one frontmatter file per record under
// a single directory. The filename is the article id, so existence of the
// file is the dedup boundary: creation uses O_EXCL and never read-then-write.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"notefeed/internal/scanner"
)

// ErrNotFound is returned for operations on an unknown article id.
var ErrNotFound = errors.New("article not found")

const (
	articlesDirName = "articles"
	stateDirName    = "state"
	feedListName    = "feeds.txt"
	discoveryName   = "discovery.json"
)

// Store owns one data directory. Multiple independent stores may coexist;
// nothing is cached across calls, so external hand-edits between runs are
// picked up on the next read.
type Store struct {
	dir    string
	logger *log.Logger
}

// Open creates the directory layout if needed and returns a store rooted at
// dir. A nil logger silences corruption warnings.
func Open(dir string, logger *log.Logger) (*Store, error) {
	for _, sub := range []string{articlesDirName, stateDirName} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("creating store layout: %w", err)
		}
	}
	return &Store{dir: dir, logger: logger}, nil
}

// Dir returns the store root.
func (s *Store) Dir() string { return s.dir }

func (s *Store) articlePath(id string) string {
	return filepath.Join(s.dir, articlesDirName, id+".md")
}

func (s *Store) statePath(name string) string {
	return filepath.Join(s.dir, stateDirName, name)
}

func (s *Store) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}

// PutIfAbsent stores a new record unless one with the same id already
// exists. It reports whether the record was created. Existing records are
// never touched, so a refetch cannot reset read/starred state. Safe to call
// from concurrent fetch workers: the exclusive create decides the race.
func (s *Store) PutIfAbsent(a Article) (bool, error) {
	if a.ID == "" {
		return false, fmt.Errorf("article has no id")
	}
	f, err := os.OpenFile(s.articlePath(a.ID), os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return false, nil
		}
		return false, fmt.Errorf("creating article %s: %w", a.ID, err)
	}
	defer f.Close()
	if _, err := f.Write(encodeArticle(a)); err != nil {
		return false, fmt.Errorf("writing article %s: %w", a.ID, err)
	}
	return true, nil
}

// Get loads one record by id.
func (s *Store) Get(id string) (Article, error) {
	raw, err := os.ReadFile(s.articlePath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Article{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return Article{}, err
	}
	a, err := decodeArticle(raw)
	if err != nil {
		return Article{}, fmt.Errorf("article %s: %w", id, err)
	}
	return a, nil
}

// Filter selects and orders records for List.
type Filter struct {
	ShowRead    bool
	StarredOnly bool
	FeedURL     string
	Query       string // case-insensitive substring over title+content+feed
	Limit       int    // 0 = no limit
}

// List loads every record, applies the filter and sorts newest first with
// undated records last. A record whose frontmatter fails to decode is logged
// and skipped; one corrupt file must not make the store unreadable.
func (s *Store) List(f Filter) ([]Article, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, articlesDirName))
	if err != nil {
		return nil, fmt.Errorf("reading article directory: %w", err)
	}

	query := strings.ToLower(f.Query)
	var articles []Article
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		path := filepath.Join(s.dir, articlesDirName, e.Name())
		raw, err := os.ReadFile(path)
		if err != nil {
			s.logf("skipping unreadable article: path=%s err=%v", path, err)
			continue
		}
		a, err := decodeArticle(raw)
		if err != nil {
			s.logf("skipping corrupt article: path=%s err=%v", path, err)
			continue
		}
		if !f.ShowRead && a.Read {
			continue
		}
		if f.StarredOnly && !a.Starred {
			continue
		}
		if f.FeedURL != "" && a.Feed != f.FeedURL {
			continue
		}
		if query != "" && !matchesQuery(a, query) {
			continue
		}
		articles = append(articles, a)
	}

	sort.SliceStable(articles, func(i, j int) bool {
		ti, iOK := articles[i].PublishedTime()
		tj, jOK := articles[j].PublishedTime()
		switch {
		case iOK && jOK:
			if !ti.Equal(tj) {
				return ti.After(tj)
			}
			return articles[i].ID < articles[j].ID
		case iOK:
			return true
		case jOK:
			return false
		}
		return articles[i].ID < articles[j].ID
	})

	if f.Limit > 0 && len(articles) > f.Limit {
		articles = articles[:f.Limit]
	}
	return articles, nil
}

func matchesQuery(a Article, lowered string) bool {
	return strings.Contains(strings.ToLower(a.Title), lowered) ||
		strings.Contains(strings.ToLower(a.Content), lowered) ||
		strings.Contains(strings.ToLower(a.Feed), lowered)
}

// UpdateField rewrites the metadata line for field, leaving every other byte
// of the file untouched, then replaces the file via temp-and-rename so a
// crash mid-write never leaves a truncated record.
func (s *Store) UpdateField(id, field, value string) error {
	path := s.articlePath(id)
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return err
	}

	lines := strings.Split(string(raw), "\n")
	replaced := false
	inBlock := false
	for i, line := range lines {
		if line == "---" {
			if inBlock {
				break
			}
			inBlock = true
			continue
		}
		if inBlock && strings.HasPrefix(line, field+":") {
			lines[i] = field + ": " + value
			replaced = true
			break
		}
	}
	if !replaced {
		return fmt.Errorf("article %s has no %q field", id, field)
	}
	return s.replaceFile(path, []byte(strings.Join(lines, "\n")))
}

func (s *Store) replaceFile(path string, content []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	// CreateTemp files are 0600; keep records readable like fresh ones.
	if err := tmp.Chmod(0o644); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

// MarkRead flags one article as read. Read is one-way from the store's
// callers; nothing in the tool unsets it.
func (s *Store) MarkRead(id string) error {
	return s.UpdateField(id, "read", "true")
}

// ToggleStar flips the starred flag and reports the new value.
func (s *Store) ToggleStar(id string) (bool, error) {
	a, err := s.Get(id)
	if err != nil {
		return false, err
	}
	next := !a.Starred
	if err := s.UpdateField(id, "starred", formatBool(next)); err != nil {
		return false, err
	}
	return next, nil
}

// MarkAllRead marks every unread article read and reports how many changed.
func (s *Store) MarkAllRead() (int, error) {
	unread, err := s.List(Filter{ShowRead: false})
	if err != nil {
		return 0, err
	}
	for i, a := range unread {
		if err := s.MarkRead(a.ID); err != nil {
			return i, err
		}
	}
	return len(unread), nil
}

// DeleteAll removes every article record and all state files, reporting the
// number of articles deleted. Confirmation is the caller's responsibility.
func (s *Store) DeleteAll() (int, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, articlesDirName))
	if err != nil {
		return 0, err
	}
	deleted := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".md" {
			continue
		}
		if err := os.Remove(filepath.Join(s.dir, articlesDirName, e.Name())); err != nil {
			return deleted, err
		}
		deleted++
	}
	for _, name := range []string{feedListName, discoveryName} {
		if err := os.Remove(s.statePath(name)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return deleted, err
		}
	}
	return deleted, nil
}

// SaveFeeds persists the deduplicated feed list, one URL per line.
func (s *Store) SaveFeeds(feeds []string) error {
	content := strings.Join(feeds, "\n")
	if content != "" {
		content += "\n"
	}
	return s.replaceFile(s.statePath(feedListName), []byte(content))
}

// LoadFeeds reads the persisted feed list. A missing file is an empty list.
func (s *Store) LoadFeeds() ([]string, error) {
	raw, err := os.ReadFile(s.statePath(feedListName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var feeds []string
	for _, line := range strings.Split(string(raw), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			feeds = append(feeds, line)
		}
	}
	return feeds, nil
}

// SaveDiscovery persists the per-occurrence scan output as JSON.
func (s *Store) SaveDiscovery(records []scanner.FeedRecord) error {
	if records == nil {
		records = []scanner.FeedRecord{}
	}
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return err
	}
	return s.replaceFile(s.statePath(discoveryName), append(raw, '\n'))
}

// LoadDiscovery reads the last scan's records. A missing file is empty.
func (s *Store) LoadDiscovery() ([]scanner.FeedRecord, error) {
	raw, err := os.ReadFile(s.statePath(discoveryName))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	var records []scanner.FeedRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", discoveryName, err)
	}
	return records, nil
}
