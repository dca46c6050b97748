package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/urfave/cli/v3"

	"notefeed/internal/config"
	"notefeed/internal/fetch"
	"notefeed/internal/query"
	"notefeed/internal/scanner"
	"notefeed/internal/store"
	"notefeed/internal/version"
	"notefeed/internal/viewer"
)

func main() {
	app := &cli.Command{
		Name:    "notefeed",
		Usage:   "RSS reader fed by the feeds mentioned in your notes",
		Version: version.Version,
		Commands: []*cli.Command{
			{
				Name:  "scan",
				Usage: "Discover feed URLs in your notes and persist the feed list",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "path", Usage: "Notes directory (default from config)"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return runScan(c.String("path"))
				},
			},
			{
				Name:  "fetch",
				Usage: "Fetch all feeds and store new articles",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "update", Usage: "Rescan notes for feeds before fetching"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return runFetch(ctx, c.Bool("update"))
				},
			},
			{
				Name:  "list",
				Usage: "List stored articles (unread by default)",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "all", Usage: "Include read articles"},
					&cli.BoolFlag{Name: "starred", Usage: "Only starred articles"},
					&cli.StringFlag{Name: "feed", Usage: "Only articles from this feed URL"},
					&cli.StringFlag{Name: "search", Usage: "Substring search over title, content and feed"},
					&cli.IntFlag{Name: "limit", Usage: "Maximum number of articles", Value: 0},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return runList(c)
				},
			},
			{
				Name:  "view",
				Usage: "Read one article in the terminal viewer",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "id", Usage: "Article id", Required: true},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return runView(ctx, c.String("id"))
				},
			},
			{
				Name:      "mark-read",
				Usage:     "Mark one article as read",
				Arguments: []cli.Argument{&cli.StringArg{Name: "id", UsageText: "article id"}},
				Action: func(ctx context.Context, c *cli.Command) error {
					st, err := openStore()
					if err != nil {
						return err
					}
					id := strings.TrimSpace(c.StringArg("id"))
					if id == "" {
						return fmt.Errorf("missing article id")
					}
					return st.MarkRead(id)
				},
			},
			{
				Name:  "mark-all-read",
				Usage: "Mark every article as read",
				Action: func(ctx context.Context, c *cli.Command) error {
					st, err := openStore()
					if err != nil {
						return err
					}
					n, err := st.MarkAllRead()
					if err != nil {
						return err
					}
					fmt.Printf("Marked %d articles read\n", n)
					return nil
				},
			},
			{
				Name:  "list-feeds",
				Usage: "Print the last scan's discovery records as JSON",
				Action: func(ctx context.Context, c *cli.Command) error {
					st, err := openStore()
					if err != nil {
						return err
					}
					records, err := st.LoadDiscovery()
					if err != nil {
						return err
					}
					if records == nil {
						records = []scanner.FeedRecord{}
					}
					out, err := json.MarshalIndent(records, "", "  ")
					if err != nil {
						return err
					}
					fmt.Println(string(out))
					return nil
				},
			},
			{
				Name:  "stats",
				Usage: "Show article counts",
				Action: func(ctx context.Context, c *cli.Command) error {
					st, err := openStore()
					if err != nil {
						return err
					}
					total, unread, err := query.New(st).Stats()
					if err != nil {
						return err
					}
					fmt.Printf("%d articles, %d unread\n", total, unread)
					return nil
				},
			},
			{
				Name:  "clear",
				Usage: "Delete every stored article and state file",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Usage: "Confirm deletion"},
				},
				Action: func(ctx context.Context, c *cli.Command) error {
					return runClear(c.Bool("yes"))
				},
			},
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newLogger() *log.Logger {
	return log.New(os.Stderr, "[notefeed] ", log.LstdFlags)
}

func openStore() (*store.Store, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return store.Open(cfg.ResolveDataDir(), newLogger())
}

func runScan(path string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if strings.TrimSpace(path) == "" {
		path = cfg.NotesPath
	}
	path = config.ExpandPath(path)

	res, err := scanner.Scan(path)
	if err != nil {
		return err
	}
	st, err := store.Open(cfg.ResolveDataDir(), newLogger())
	if err != nil {
		return err
	}
	if err := st.SaveFeeds(res.Feeds); err != nil {
		return err
	}
	if err := st.SaveDiscovery(res.Records); err != nil {
		return err
	}

	fmt.Printf("Scanned %d files (%d skipped), found %d feeds:\n", res.FilesScanned, res.FilesSkipped, len(res.Feeds))
	for _, rec := range res.Records {
		fmt.Printf("  %s  (%s:%d)\n", rec.URL, rec.SourceFile, rec.LineNumber)
	}
	return nil
}

func runFetch(ctx context.Context, update bool) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := newLogger()
	st, err := store.Open(cfg.ResolveDataDir(), logger)
	if err != nil {
		return err
	}

	var feeds []string
	if update {
		res, err := scanner.Scan(config.ExpandPath(cfg.NotesPath))
		if err != nil {
			return err
		}
		if err := st.SaveFeeds(res.Feeds); err != nil {
			return err
		}
		if err := st.SaveDiscovery(res.Records); err != nil {
			return err
		}
		feeds = res.Feeds
	} else {
		feeds, err = st.LoadFeeds()
		if err != nil {
			return err
		}
	}
	if len(feeds) == 0 {
		fmt.Println("No feeds known. Run 'notefeed scan' first.")
		return nil
	}

	report := fetch.NewEngine(st, cfg, logger).Run(ctx, feeds)
	for _, fr := range report.Feeds {
		if fr.Err != nil {
			fmt.Printf("  ✗ %s: %v\n", fr.URL, fr.Err)
			continue
		}
		fmt.Printf("  ✓ %s — %d fetched, %d new\n", fr.URL, fr.Fetched, fr.New)
	}
	fmt.Printf("Done: %d new articles, %d feeds failed\n", report.TotalNew(), report.Failed())
	return nil
}

func runList(c *cli.Command) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	q := query.New(st)
	limit := c.Int("limit")

	var articles []store.Article
	switch {
	case c.String("search") != "":
		articles, err = q.Search(c.String("search"), limit)
	case c.String("feed") != "":
		articles, err = q.ByFeed(c.String("feed"), limit)
	case c.Bool("starred"):
		articles, err = q.Starred(limit)
	case c.Bool("all"):
		articles, err = q.All(limit)
	default:
		articles, err = q.Unread(limit)
	}
	if err != nil {
		return err
	}
	if len(articles) == 0 {
		fmt.Println("No matching articles.")
		return nil
	}

	for _, a := range articles {
		marker := " "
		if !a.Read {
			marker = "●"
		}
		star := ""
		if a.Starred {
			star = " ★"
		}
		fmt.Printf("%s %s%s\n", marker, orUntitled(a.Title), star)
		fmt.Printf("  id: %s\n", a.ID)
		fmt.Printf("  feed: %s\n", a.Feed)
		if t, ok := a.PublishedTime(); ok {
			fmt.Printf("  date: %s\n", t.Format("2006-01-02 15:04"))
		}
		preview := truncate(strings.Join(strings.Fields(a.Content), " "), 160)
		if preview != "" {
			fmt.Printf("  %s\n", preview)
		}
		fmt.Println(strings.Repeat("-", 72))
	}
	return nil
}

func runView(ctx context.Context, id string) error {
	cfg, err := config.Load()
	if err != nil {
		return viewError(err)
	}
	st, err := store.Open(cfg.ResolveDataDir(), newLogger())
	if err != nil {
		return viewError(err)
	}
	code, err := viewer.Run(ctx, st, cfg, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return cli.Exit(fmt.Sprintf("article not found: %s", id), 3)
		}
		return viewError(err)
	}
	if code != viewer.ExitNormal {
		// The exit status is the handoff protocol; exit here rather than
		// letting error plumbing remap it.
		os.Exit(code)
	}
	return nil
}

// viewError maps any view failure onto exit status 3. Statuses 1 and 2 carry
// the open-browser and create-note handoff, so the generic error status would
// read as an action request to the calling shell.
func viewError(err error) error {
	return cli.Exit(err.Error(), 3)
}

func runClear(confirmed bool) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	if !confirmed {
		total, unread, err := query.New(st).Stats()
		if err != nil {
			return err
		}
		fmt.Printf("This would delete %d articles (%d unread) and all feed state.\n", total, unread)
		fmt.Println("Re-run with --yes to confirm.")
		return nil
	}
	n, err := st.DeleteAll()
	if err != nil {
		return err
	}
	fmt.Printf("Deleted %d articles\n", n)
	return nil
}

// truncate shortens s to at most max runes, never splitting a multi-byte
// character at the cut.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}

func orUntitled(title string) string {
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
