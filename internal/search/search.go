// Package search narrows the publisher, topic, chapter and tag lists of a
// browsing session. Matching is case-insensitive everywhere; stored tags
// keep their case.
package search

import (
	"strings"

	"golang.org/x/text/cases"

	"tagbrowser/internal/tree"
)

// Lister is the part of the folder scanner a session needs.
type Lister interface {
	ListPublishers() ([]string, error)
	ListTopics(publisher string) ([]string, error)
	ListChapters(publisher, topic string) ([]string, error)
}

// Entry is a displayed topic or chapter and the folder it points at.
type Entry struct {
	Label string `json:"label" yaml:"label"`
	Path  string `json:"path" yaml:"path"`
}

// Result is the content of all four columns after a search.
type Result struct {
	Publishers []string `json:"publishers,omitempty" yaml:"publishers,omitempty"`
	Topics     []Entry  `json:"topics" yaml:"topics"`
	Chapters   []Entry  `json:"chapters" yaml:"chapters"`
	Tags       []string `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Session holds the unfiltered lists that the filters narrow. Filters never
// modify it; only Reload and the Select methods do.
type Session struct {
	lister Lister
	cache  *tree.Cache

	publishers []string
	topics     []Entry
	chapters   []Entry
	tags       []string

	publisher string
	topic     string
}

// NewSession loads the publisher and tag lists.
func NewSession(l Lister, cache *tree.Cache) (*Session, error) {
	s := &Session{lister: l}
	if err := s.Reload(cache); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload refreshes the publisher and tag lists from disk and a new cache.
// The current topic and chapter lists are kept.
func (s *Session) Reload(cache *tree.Cache) error {
	pubs, err := s.lister.ListPublishers()
	if err != nil {
		return err
	}
	s.publishers = pubs
	s.cache = cache
	s.tags = cache.AllTags()
	return nil
}

// Cache returns the tag cache the session searches.
func (s *Session) Cache() *tree.Cache { return s.cache }

func (s *Session) Publishers() []string { return clone(s.publishers) }
func (s *Session) Topics() []Entry      { return clone(s.topics) }
func (s *Session) Chapters() []Entry    { return clone(s.chapters) }
func (s *Session) Tags() []string       { return clone(s.tags) }

// Selected returns the publisher and topic path last selected.
func (s *Session) Selected() (publisher, topic string) {
	return s.publisher, s.topic
}

// SelectPublisher loads the topics of publisher and clears the chapters.
func (s *Session) SelectPublisher(publisher string) ([]Entry, error) {
	names, err := s.lister.ListTopics(publisher)
	if err != nil {
		return nil, err
	}
	topics := make([]Entry, 0, len(names))
	for _, n := range names {
		topics = append(topics, Entry{Label: n, Path: tree.Join(publisher, n)})
	}
	s.publisher, s.topic = publisher, ""
	s.topics = topics
	s.chapters = nil
	return clone(topics), nil
}

// SelectTopic loads the chapters of the topic at topicPath.
func (s *Session) SelectTopic(topicPath string) ([]Entry, error) {
	parts := tree.Split(topicPath)
	if len(parts) != 2 {
		return nil, &tree.RoleError{Path: topicPath, Want: tree.RoleTopic}
	}
	names, err := s.lister.ListChapters(parts[0], parts[1])
	if err != nil {
		return nil, err
	}
	chapters := make([]Entry, 0, len(names))
	for _, n := range names {
		chapters = append(chapters, Entry{
			Label: n + " (" + parts[1] + ")",
			Path:  tree.Join(parts[0], parts[1], n),
		})
	}
	s.topic = topicPath
	s.chapters = chapters
	return clone(chapters), nil
}

// FilterPublishers returns the publishers containing query.
func (s *Session) FilterPublishers(query string) []string {
	return filterStrings(s.publishers, query)
}

// FilterTopics returns the loaded topics whose label contains query.
func (s *Session) FilterTopics(query string) []Entry {
	return filterEntries(s.topics, query)
}

// FilterChapters returns the loaded chapters whose label contains query.
func (s *Session) FilterChapters(query string) []Entry {
	return filterEntries(s.chapters, query)
}

// FilterTags returns the tags containing query.
func (s *Session) FilterTags(query string) []string {
	return filterStrings(s.tags, query)
}

// Global searches all four columns at once. A topic or chapter matches when
// its folder name or one of its tags contains query. A blank query gives
// back the unfiltered lists.
func (s *Session) Global(query string) Result {
	m := NewMatcher(query)
	if m.Blank() {
		return Result{
			Publishers: s.Publishers(),
			Topics:     s.Topics(),
			Chapters:   s.Chapters(),
			Tags:       s.Tags(),
		}
	}

	res := Result{
		Publishers: m.filterStrings(s.publishers),
		Tags:       m.filterStrings(s.tags),
	}
	for _, rel := range s.cache.Folders() {
		parts := tree.Split(rel)
		if len(parts) < 2 || len(parts) > 3 {
			continue
		}
		if !m.Match(parts[len(parts)-1]) && !m.MatchAny(s.cache.Get(rel)) {
			continue
		}
		switch len(parts) {
		case 2:
			res.Topics = append(res.Topics, Entry{Label: parts[1], Path: rel})
		case 3:
			res.Chapters = append(res.Chapters, Entry{Label: parts[2] + " (" + parts[1] + ")", Path: rel})
		}
	}
	return res
}

// ByTag returns the topics and chapters tagged with tag, ignoring case.
// Only Topics and Chapters are set on the result.
func (s *Session) ByTag(tag string) Result {
	m := NewMatcher(tag)
	var res Result
	for _, rel := range s.cache.Paths() {
		if !m.EqualAny(s.cache.Get(rel)) {
			continue
		}
		parts := tree.Split(rel)
		switch len(parts) {
		case 2:
			res.Topics = append(res.Topics, Entry{Label: parts[1] + " (" + parts[0] + ")", Path: rel})
		case 3:
			res.Chapters = append(res.Chapters, Entry{
				Label: "(" + parts[0] + ") (" + parts[1] + ") " + parts[2],
				Path:  rel,
			})
		}
	}
	return res
}

// Matcher compares strings against one query under Unicode case folding.
// It is not safe for concurrent use.
type Matcher struct {
	caser cases.Caser
	query string
}

// NewMatcher folds query, ignoring surrounding space.
func NewMatcher(query string) *Matcher {
	c := cases.Fold()
	return &Matcher{caser: c, query: c.String(strings.TrimSpace(query))}
}

// Blank reports whether the query is empty, which every string contains.
func (m *Matcher) Blank() bool { return m.query == "" }

// Match reports whether s contains the query.
func (m *Matcher) Match(s string) bool {
	return strings.Contains(m.caser.String(s), m.query)
}

// MatchAny reports whether any element of set contains the query.
func (m *Matcher) MatchAny(set []string) bool {
	for _, v := range set {
		if m.Match(v) {
			return true
		}
	}
	return false
}

// EqualAny reports whether an element of set equals the query.
func (m *Matcher) EqualAny(set []string) bool {
	for _, v := range set {
		if m.caser.String(v) == m.query {
			return true
		}
	}
	return false
}

func (m *Matcher) filterStrings(list []string) []string {
	out := []string{}
	for _, v := range list {
		if m.Match(v) {
			out = append(out, v)
		}
	}
	return out
}

func filterStrings(list []string, query string) []string {
	return NewMatcher(query).filterStrings(list)
}

func filterEntries(list []Entry, query string) []Entry {
	m := NewMatcher(query)
	out := []Entry{}
	for _, e := range list {
		if m.Match(e.Label) {
			out = append(out, e)
		}
	}
	return out
}

func clone[T any](in []T) []T {
	if in == nil {
		return nil
	}
	return append([]T(nil), in...)
}
