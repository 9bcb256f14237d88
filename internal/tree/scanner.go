// Package tree discovers the publisher → topic → chapter folders under a
// root directory and builds the tag cache from their marker files.
package tree

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"tagbrowser/internal/tags"
)

// DefaultPrefixes are the name prefixes that mark a top-level folder as a
// publisher.
var DefaultPrefixes = []string{"$_", "$__", "#_", "#__", "__"}

// Scanner lists folders under Root and collects their tags.
type Scanner struct {
	Fs       afero.Fs
	Root     string
	Prefixes []string
	Store    *tags.Store

	log zerolog.Logger
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithPrefixes overrides the publisher prefixes.
func WithPrefixes(prefixes []string) Option {
	return func(s *Scanner) {
		if len(prefixes) > 0 {
			s.Prefixes = prefixes
		}
	}
}

// WithLogger sets the logger used for skipped folders.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Scanner) { s.log = l }
}

// NewScanner creates a scanner rooted at root.
func NewScanner(fsys afero.Fs, root string, store *tags.Store, opts ...Option) *Scanner {
	s := &Scanner{
		Fs:       fsys,
		Root:     filepath.Clean(root),
		Prefixes: DefaultPrefixes,
		Store:    store,
		log:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Abs converts a relative key to a path on the scanner's filesystem.
func (s *Scanner) Abs(rel string) string {
	parts := Split(rel)
	return filepath.Join(append([]string{s.Root}, parts...)...)
}

// IsDir reports whether rel names an existing directory under the root.
func (s *Scanner) IsDir(rel string) bool {
	ok, err := afero.IsDir(s.Fs, s.Abs(rel))
	return err == nil && ok
}

func (s *Scanner) isPublisher(name string) bool {
	for _, p := range s.Prefixes {
		if strings.HasPrefix(name, p) {
			return true
		}
	}
	return false
}

// subdirs returns the names of the directories directly under rel, sorted.
// Symlinks count when they point at a directory.
func (s *Scanner) subdirs(rel string) ([]string, error) {
	dir := s.Abs(rel)
	infos, err := afero.ReadDir(s.Fs, dir)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	names := make([]string, 0, len(infos))
	for _, fi := range infos {
		isDir := fi.IsDir()
		if fi.Mode()&os.ModeSymlink != 0 {
			target, err := s.Fs.Stat(filepath.Join(dir, fi.Name()))
			isDir = err == nil && target.IsDir()
		}
		if isDir {
			names = append(names, fi.Name())
		}
	}
	// afero.ReadDir sorts by name
	return names, nil
}

// ListPublishers returns the top-level folders carrying a publisher prefix.
func (s *Scanner) ListPublishers() ([]string, error) {
	names, err := s.subdirs(".")
	if err != nil {
		return nil, err
	}
	out := names[:0]
	for _, n := range names {
		if s.isPublisher(n) {
			out = append(out, n)
		}
	}
	return out, nil
}

// ListTopics returns the folders directly under a publisher.
func (s *Scanner) ListTopics(publisher string) ([]string, error) {
	return s.subdirs(Join(publisher))
}

// ListChapters returns the folders directly under a topic.
func (s *Scanner) ListChapters(publisher, topic string) ([]string, error) {
	return s.subdirs(Join(publisher, topic))
}

// ScanAllTags walks the whole tree and loads every marker file it finds.
// Folders whose tag file cannot be read are logged and left out.
func (s *Scanner) ScanAllTags() (*Cache, error) {
	cache := NewCache()
	err := afero.Walk(s.Fs, s.Root, func(p string, info os.FileInfo, walkErr error) error {
		if walkErr != nil {
			s.log.Warn().Err(walkErr).Str("path", p).Msg("skipping unreadable path")
			if info != nil && info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.Root, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if d := Depth(rel); d >= 1 && d <= 3 {
			cache.AddFolder(rel)
		}
		set, err := s.Store.Load(p)
		if err != nil {
			s.log.Warn().Err(err).Str("folder", rel).Msg("skipping tag file")
			return nil
		}
		if len(set) > 0 {
			cache.Set(rel, set)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", s.Root, err)
	}
	s.log.Debug().Int("tagged", cache.Len()).Int("folders", len(cache.folders)).Msg("tag scan complete")
	return cache, nil
}

// Hierarchy lists every publisher with its topics and chapters.
func (s *Scanner) Hierarchy() (*Hierarchy, error) {
	pubs, err := s.ListPublishers()
	if err != nil {
		return nil, err
	}
	h := &Hierarchy{}
	for _, pub := range pubs {
		topics, err := s.ListTopics(pub)
		if err != nil {
			return nil, err
		}
		p := Publisher{Name: pub}
		for _, topic := range topics {
			chapters, err := s.ListChapters(pub, topic)
			if err != nil {
				return nil, err
			}
			p.Topics = append(p.Topics, Topic{Name: topic, Chapters: chapters})
		}
		h.Publishers = append(h.Publishers, p)
	}
	return h, nil
}

// Hierarchy is the publisher → topic → chapter listing of a root.
type Hierarchy struct {
	Publishers []Publisher
}

// Publisher is a top-level folder and its topics.
type Publisher struct {
	Name   string
	Topics []Topic
}

// Topic is a second-level folder and its chapter names.
type Topic struct {
	Name     string
	Chapters []string
}

// Path returns the relative key of the topic under pub.
func (t Topic) Path(pub string) string {
	return Join(pub, t.Name)
}
