// Package query is the read-only view over the article store: the named
// filters the CLI exposes plus the derived statistics. Nothing here mutates
// a record.
package query

import "notefeed/internal/store"

// Service wraps one store for querying.
type Service struct {
	st *store.Store
}

// New returns a query service over st.
func New(st *store.Store) *Service {
	return &Service{st: st}
}

// Unread is the default listing: unread articles, newest first.
func (s *Service) Unread(limit int) ([]store.Article, error) {
	return s.st.List(store.Filter{Limit: limit})
}

// All lists every article regardless of read state.
func (s *Service) All(limit int) ([]store.Article, error) {
	return s.st.List(store.Filter{ShowRead: true, Limit: limit})
}

// Starred lists the starred subset, read or not.
func (s *Service) Starred(limit int) ([]store.Article, error) {
	return s.st.List(store.Filter{ShowRead: true, StarredOnly: true, Limit: limit})
}

// ByFeed lists articles from one feed by exact URL match.
func (s *Service) ByFeed(feedURL string, limit int) ([]store.Article, error) {
	return s.st.List(store.Filter{ShowRead: true, FeedURL: feedURL, Limit: limit})
}

// Search matches a case-insensitive substring over title, content and feed.
func (s *Service) Search(q string, limit int) ([]store.Article, error) {
	return s.st.List(store.Filter{ShowRead: true, Query: q, Limit: limit})
}

// Stats derives total and unread counts from one full pass.
func (s *Service) Stats() (total, unread int, err error) {
	all, err := s.st.List(store.Filter{ShowRead: true})
	if err != nil {
		return 0, 0, err
	}
	for _, a := range all {
		if !a.Read {
			unread++
		}
	}
	return len(all), unread, nil
}
