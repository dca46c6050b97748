// Package scanner discovers RSS/Atom feed URLs inside a directory of text
// notes. A scan is a pure function of the note tree: each run fully replaces
// the previous discovery output, so feeds removed from notes disappear.
package scanner

import (
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

// FeedRecord is one discovered occurrence of a feed URL. The same URL found
// in several notes yields several records but a single entry in Result.Feeds.
type FeedRecord struct {
	URL        string `json:"url"`
	SourceFile string `json:"source_file"`
	LineNumber int    `json:"line_number"`
}

// Result carries the output of one scan.
type Result struct {
	Feeds        []string // deduplicated, first-seen order
	Records      []FeedRecord
	FilesScanned int
	FilesSkipped int
}

var noteExtensions = map[string]bool{
	".md":       true,
	".markdown": true,
	".txt":      true,
}

// explicit "rss:" or "feed:" prefix, optionally preceded by label text
var prefixPattern = regexp.MustCompile(`(?i)(?:^|[\s*-])(?:rss|feed):\s*(https?://\S+)`)

// any bare http(s) URL; feed-shaped paths are filtered afterwards
var urlPattern = regexp.MustCompile(`https?://[^\s<>()\[\]"']+`)

// Scan walks root recursively and applies the recognition rules to every
// regular note file. Unreadable files are skipped and counted, never fatal.
func Scan(root string) (*Result, error) {
	res := &Result{}
	seen := map[string]bool{}
	occurrence := map[FeedRecord]bool{}

	add := func(rawURL, file string, line int) {
		u, ok := NormalizeURL(rawURL)
		if !ok {
			return
		}
		rec := FeedRecord{URL: u, SourceFile: file, LineNumber: line}
		// Several rules can match the same line; record it once.
		if occurrence[rec] {
			return
		}
		occurrence[rec] = true
		res.Records = append(res.Records, rec)
		if !seen[u] {
			seen[u] = true
			res.Feeds = append(res.Feeds, u)
		}
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// An unreadable root is fatal; anything below it is skipped.
			if path == root {
				return err
			}
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			res.FilesSkipped++
			return nil
		}
		if d.IsDir() || !d.Type().IsRegular() || !noteExtensions[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			res.FilesSkipped++
			return nil
		}
		res.FilesScanned++
		scanFile(string(content), path, add)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	return res, nil
}

func scanFile(content, path string, add func(url, file string, line int)) {
	scanMetadataFeeds(content, path, add)

	for i, line := range strings.Split(content, "\n") {
		lineNum := i + 1
		matched := map[string]bool{}

		for _, m := range prefixPattern.FindAllStringSubmatch(line, -1) {
			u := trimURL(m[1])
			matched[u] = true
			add(u, path, lineNum)
		}
		for _, raw := range urlPattern.FindAllString(line, -1) {
			u := trimURL(raw)
			if matched[u] {
				continue
			}
			if feedShapedURL(u) {
				add(u, path, lineNum)
			}
		}
	}
}

// scanMetadataFeeds reads a YAML list under a "rss_feeds:" key in the file's
// leading metadata block. yaml.Node is used rather than a plain unmarshal so
// each URL keeps its line number for jump-to-source.
func scanMetadataFeeds(content, path string, add func(url, file string, line int)) {
	block, ok := leadingMetadataBlock(content)
	if !ok {
		return
	}
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return
	}
	if len(doc.Content) == 0 || doc.Content[0].Kind != yaml.MappingNode {
		return
	}
	mapping := doc.Content[0]
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		key, value := mapping.Content[i], mapping.Content[i+1]
		if key.Value != "rss_feeds" || value.Kind != yaml.SequenceNode {
			continue
		}
		for _, item := range value.Content {
			if item.Kind != yaml.ScalarNode || strings.TrimSpace(item.Value) == "" {
				continue
			}
			// item.Line is relative to the block, which starts on line 2
			// of the file (after the opening delimiter).
			add(strings.TrimSpace(item.Value), path, item.Line+1)
		}
	}
}

// leadingMetadataBlock returns the YAML between a "---" first line and the
// next exact "---" line. A line that merely starts with the delimiter, like a
// "----" rule, does not close the block.
func leadingMetadataBlock(content string) (string, bool) {
	rest, ok := strings.CutPrefix(content, "---\n")
	if !ok {
		return "", false
	}
	var b strings.Builder
	for rest != "" {
		line, remainder, found := strings.Cut(rest, "\n")
		if line == "---" {
			return b.String(), true
		}
		if !found {
			break
		}
		b.WriteString(line)
		b.WriteByte('\n')
		rest = remainder
	}
	return "", false
}

// feedShapedURL reports whether a URL path looks like a feed endpoint.
func feedShapedURL(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	p := strings.TrimSuffix(u.Path, "/")
	return strings.HasSuffix(p, ".rss") ||
		strings.HasSuffix(p, ".xml") ||
		strings.HasSuffix(p, "/feed") ||
		strings.HasSuffix(p, "/rss")
}

// trimURL drops punctuation that commonly trails a URL embedded in prose.
func trimURL(s string) string {
	return strings.TrimRight(s, `.,;:!?)]}>"'`)
}

var trackingParams = map[string]bool{
	"fbclid": true,
	"gclid":  true,
	"ref":    true,
}

// NormalizeURL canonicalizes a feed URL: http(s) only, fragment dropped,
// tracking query parameters stripped. Two discoveries of the same feed that
// differ only in tracking noise collapse to one.
func NormalizeURL(rawURL string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return "", false
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", false
	}
	u.Fragment = ""
	q := u.Query()
	for key := range q {
		if trackingParams[key] || strings.HasPrefix(key, "utm_") {
			q.Del(key)
		}
	}
	u.RawQuery = q.Encode()
	return u.String(), true
}
