// Package stats aggregates counts over a folder hierarchy and its tag cache
// and models the tables and charts of the statistics dashboard.
package stats

import (
	"sort"

	"tagbrowser/internal/tree"
)

// LeastUsedLimit caps the number of tags reported as least used.
const LeastUsedLimit = 10

// TagCount is a tag and the number of folders carrying it.
type TagCount struct {
	Tag   string `json:"tag" yaml:"tag"`
	Count int    `json:"count" yaml:"count"`
}

// Snapshot is a read-only set of aggregate counts.
type Snapshot struct {
	TotalPublishers       int            `json:"total_publishers" yaml:"total_publishers"`
	TotalTopics           int            `json:"total_topics" yaml:"total_topics"`
	TotalChapters         int            `json:"total_chapters" yaml:"total_chapters"`
	TotalUniqueTags       int            `json:"total_unique_tags" yaml:"total_unique_tags"`
	AvgTopicsPerPublisher float64        `json:"avg_topics_per_publisher" yaml:"avg_topics_per_publisher"`
	AvgChaptersPerTopic   float64        `json:"avg_chapters_per_topic" yaml:"avg_chapters_per_topic"`
	MostUsedTag           *TagCount      `json:"most_used_tag,omitempty" yaml:"most_used_tag,omitempty"`
	LeastUsedTags         []string       `json:"least_used_tags,omitempty" yaml:"least_used_tags,omitempty"`
	TopicsPerPublisher    map[string]int `json:"topics_per_publisher" yaml:"topics_per_publisher"`
	ChaptersPerTopic      map[string]int `json:"chapters_per_topic" yaml:"chapters_per_topic"`
	TagUsage              map[string]int `json:"tag_usage" yaml:"tag_usage"`
}

// Compute builds a snapshot from a hierarchy listing and a tag cache. It
// keeps no state between calls.
func Compute(h *tree.Hierarchy, c *tree.Cache) Snapshot {
	s := Snapshot{
		TopicsPerPublisher: make(map[string]int),
		ChaptersPerTopic:   make(map[string]int),
		TagUsage:           make(map[string]int),
	}

	if h != nil {
		s.TotalPublishers = len(h.Publishers)
		for _, pub := range h.Publishers {
			s.TopicsPerPublisher[pub.Name] = len(pub.Topics)
			s.TotalTopics += len(pub.Topics)
			for _, topic := range pub.Topics {
				s.ChaptersPerTopic[topic.Path(pub.Name)] = len(topic.Chapters)
				s.TotalChapters += len(topic.Chapters)
			}
		}
	}
	if s.TotalPublishers > 0 {
		s.AvgTopicsPerPublisher = float64(s.TotalTopics) / float64(s.TotalPublishers)
	}
	if s.TotalTopics > 0 {
		s.AvgChaptersPerTopic = float64(s.TotalChapters) / float64(s.TotalTopics)
	}

	if c != nil {
		for _, rel := range c.Paths() {
			for _, tag := range c.Get(rel) {
				s.TagUsage[tag]++
			}
		}
	}
	s.TotalUniqueTags = len(s.TagUsage)

	ranked := Ranked(s.TagUsage)
	if len(ranked) > 0 {
		top := TagCount{Tag: ranked[0].Key, Count: ranked[0].Value}
		s.MostUsedTag = &top

		least := ranked[len(ranked)-1].Value
		for _, r := range ranked {
			if r.Value == least {
				s.LeastUsedTags = append(s.LeastUsedTags, r.Key)
			}
		}
		sort.Strings(s.LeastUsedTags)
		if len(s.LeastUsedTags) > LeastUsedLimit {
			s.LeastUsedTags = s.LeastUsedTags[:LeastUsedLimit]
		}
	}
	return s
}

// Row is one key/count pair.
type Row struct {
	Key   string
	Value int
}

// Ranked orders a count map by descending value, then by key.
func Ranked(data map[string]int) []Row {
	rows := make([]Row, 0, len(data))
	for k, v := range data {
		rows = append(rows, Row{Key: k, Value: v})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Value != rows[j].Value {
			return rows[i].Value > rows[j].Value
		}
		return rows[i].Key < rows[j].Key
	})
	return rows
}
