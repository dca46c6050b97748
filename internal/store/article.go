package store

import (
	"fmt"
	"time"

	"notefeed/internal/frontmatter"
)

// Article is one persisted record. Date stays an opaque string so a round
// trip through the store never reformats a hand-edited value; PublishedTime
// parses it on demand.
type Article struct {
	ID      string
	Feed    string
	Title   string
	Link    string
	Author  string
	Date    string
	Read    bool
	Starred bool
	Content string

	// Extra preserves metadata keys we do not know about, in file order.
	Extra []frontmatter.Field
}

// PublishedTime reports the parsed publication date. ok is false when the
// date is missing or unparsable; such articles sort after all dated ones.
func (a Article) PublishedTime() (time.Time, bool) {
	if a.Date == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, a.Date)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func encodeArticle(a Article) []byte {
	rec := frontmatter.Record{
		Fields: []frontmatter.Field{
			{Key: "id", Value: a.ID},
			{Key: "feed", Value: a.Feed},
			{Key: "title", Value: a.Title},
			{Key: "link", Value: a.Link},
			{Key: "author", Value: a.Author},
			{Key: "date", Value: a.Date},
			{Key: "read", Value: formatBool(a.Read)},
			{Key: "starred", Value: formatBool(a.Starred)},
		},
		Body: a.Content,
	}
	rec.Fields = append(rec.Fields, a.Extra...)
	return frontmatter.Encode(rec)
}

func decodeArticle(raw []byte) (Article, error) {
	rec, err := frontmatter.Decode(raw)
	if err != nil {
		return Article{}, err
	}
	a := Article{Content: rec.Body}
	for _, f := range rec.Fields {
		switch f.Key {
		case "id":
			a.ID = f.Value
		case "feed":
			a.Feed = f.Value
		case "title":
			a.Title = f.Value
		case "link":
			a.Link = f.Value
		case "author":
			a.Author = f.Value
		case "date":
			a.Date = f.Value
		case "read":
			if a.Read, err = frontmatter.ParseBool(f.Value); err != nil {
				return Article{}, fmt.Errorf("read: %w", err)
			}
		case "starred":
			if a.Starred, err = frontmatter.ParseBool(f.Value); err != nil {
				return Article{}, fmt.Errorf("starred: %w", err)
			}
		default:
			a.Extra = append(a.Extra, f)
		}
	}
	if a.ID == "" {
		return Article{}, fmt.Errorf("record has no id")
	}
	return a, nil
}

func formatBool(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
