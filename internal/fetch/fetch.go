// Package fetch retrieves the discovered feeds and hands new articles to the
// store. Feeds run through a bounded worker pool so one slow or unreachable
// feed never blocks the others, and a single feed failure is never fatal to
// the run.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/gofeed"

	"notefeed/internal/config"
	"notefeed/internal/store"
)

// FeedReport is the per-feed outcome of one run.
type FeedReport struct {
	URL     string
	Fetched int // entries seen in the document
	New     int // records actually created
	Skipped int // entries without GUID or link, unidentifiable
	Err     error
}

// Report aggregates every feed's outcome for one run.
type Report struct {
	Feeds []FeedReport
}

// TotalNew sums created records across feeds.
func (r *Report) TotalNew() int {
	n := 0
	for _, f := range r.Feeds {
		n += f.New
	}
	return n
}

// Failed counts feeds whose fetch or parse failed outright.
func (r *Report) Failed() int {
	n := 0
	for _, f := range r.Feeds {
		if f.Err != nil {
			n++
		}
	}
	return n
}

// Engine fetches and parses feeds. One engine is good for one run or many.
type Engine struct {
	store      *store.Store
	client     *http.Client
	parser     *gofeed.Parser
	logger     *log.Logger
	workers    int
	maxPerFeed int
	extract    bool
}

// NewEngine builds an engine from config. A nil logger disables logging.
func NewEngine(st *store.Store, cfg config.Config, logger *log.Logger) *Engine {
	timeout := time.Duration(cfg.FetchTimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := &http.Client{Timeout: timeout}
	parser := gofeed.NewParser()
	parser.Client = client
	parser.UserAgent = "notefeed/1.0"
	workers := cfg.FetchMaxWorkers
	if workers <= 0 {
		workers = 5
	}
	return &Engine{
		store:      st,
		client:     client,
		parser:     parser,
		logger:     logger,
		workers:    workers,
		maxPerFeed: cfg.FetchMaxPerFeed,
		extract:    cfg.ExtractContent,
	}
}

func (e *Engine) debugf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}

// Run fetches every feed and stores the entries not seen before. Dedup is
// delegated entirely to the store's exclusive create, so overlapping runs
// still produce exactly one record per entry.
func (e *Engine) Run(ctx context.Context, feeds []string) *Report {
	jobs := make(chan string)
	results := make(chan FeedReport, len(feeds))

	var wg sync.WaitGroup
	for i := 0; i < e.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for url := range jobs {
				results <- e.fetchFeed(ctx, url)
			}
		}()
	}

	queued := 0
	for _, raw := range feeds {
		url := strings.TrimSpace(raw)
		if url == "" {
			continue
		}
		jobs <- url
		queued++
	}
	close(jobs)
	wg.Wait()
	close(results)

	report := &Report{}
	for r := range results {
		report.Feeds = append(report.Feeds, r)
	}
	e.debugf("fetch run done: feeds=%d new=%d failed=%d", queued, report.TotalNew(), report.Failed())
	return report
}

func (e *Engine) fetchFeed(ctx context.Context, url string) FeedReport {
	rep := FeedReport{URL: url}
	feed, err := e.parser.ParseURLWithContext(url, ctx)
	if err != nil {
		rep.Err = fmt.Errorf("fetching %s: %w", url, err)
		e.debugf("feed fetch failed: url=%s err=%v", url, err)
		return rep
	}

	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		if e.maxPerFeed > 0 && rep.Fetched >= e.maxPerFeed {
			break
		}
		rep.Fetched++
		identity := firstNonEmpty(item.GUID, item.Link)
		if identity == "" {
			// Cannot dedup safely without either token.
			rep.Skipped++
			e.debugf("skipping unidentifiable entry: feed=%s title=%q", url, item.Title)
			continue
		}
		created, err := e.store.PutIfAbsent(e.buildArticle(ctx, url, identity, item))
		if err != nil {
			e.debugf("store put failed: feed=%s id=%s err=%v", url, identity, err)
			continue
		}
		if created {
			rep.New++
		}
	}
	e.debugf("feed done: url=%s fetched=%d new=%d skipped=%d", url, rep.Fetched, rep.New, rep.Skipped)
	return rep
}

func (e *Engine) buildArticle(ctx context.Context, feedURL, identity string, item *gofeed.Item) store.Article {
	title := oneLine(item.Title)
	link := strings.TrimSpace(item.Link)

	date := ""
	if item.PublishedParsed != nil {
		date = item.PublishedParsed.UTC().Format(time.RFC3339)
	} else if item.UpdatedParsed != nil {
		date = item.UpdatedParsed.UTC().Format(time.RFC3339)
	}

	body := htmlToText(firstNonEmpty(item.Content, item.Description))
	if body == "" && e.extract && link != "" {
		body = e.extractMainText(ctx, link)
	}

	return store.Article{
		ID:      ArticleID(feedURL, identity),
		Feed:    feedURL,
		Title:   title,
		Link:    link,
		Author:  itemAuthor(item),
		Date:    date,
		Content: composeBody(title, link, body),
	}
}

// composeBody lays out the stored plain-text body: heading, extracted text,
// then a link back to the original.
func composeBody(title, link, text string) string {
	var b strings.Builder
	b.WriteString("\n")
	if title != "" {
		b.WriteString("# " + title + "\n\n")
	}
	if text != "" {
		b.WriteString(text + "\n\n")
	}
	if link != "" {
		b.WriteString("[Read original](" + link + ")\n")
	}
	return b.String()
}

// ArticleID derives the stable, content-addressed record id. The entry GUID
// wins over the link when both are present.
func ArticleID(feedURL, identity string) string {
	sum := sha256.Sum256([]byte(feedURL + "\n" + identity))
	return hex.EncodeToString(sum[:16])
}

func itemAuthor(item *gofeed.Item) string {
	for _, p := range item.Authors {
		if p != nil && strings.TrimSpace(p.Name) != "" {
			return oneLine(p.Name)
		}
	}
	if item.Author != nil {
		return oneLine(item.Author.Name)
	}
	return ""
}

// oneLine collapses a metadata value some feeds ship with line breaks.
func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func firstNonEmpty(ss ...string) string {
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
