package stats

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"tagbrowser/internal/output"
)

// Report lays a snapshot out for the CLI formatters. Breakdown tables are
// cut to the TopN largest entries when TopN is positive.
type Report struct {
	Snapshot
	TopN int `json:"-" yaml:"-"`
}

// ReportTitle implements output.Report.
func (r Report) ReportTitle() string { return "Tag Statistics" }

// Sections implements output.Report.
func (r Report) Sections() []output.Section {
	s := r.Snapshot
	summary := [][]string{
		{"Total publishers", humanize.Comma(int64(s.TotalPublishers))},
		{"Total topics", humanize.Comma(int64(s.TotalTopics))},
		{"Total chapters", humanize.Comma(int64(s.TotalChapters))},
		{"Total unique tags", humanize.Comma(int64(s.TotalUniqueTags))},
		{"Average topics per publisher", fmt.Sprintf("%.2f", s.AvgTopicsPerPublisher)},
		{"Average chapters per topic", fmt.Sprintf("%.2f", s.AvgChaptersPerTopic)},
	}
	if s.MostUsedTag != nil {
		summary = append(summary, []string{"Most used tag", fmt.Sprintf("%s (%d uses)", s.MostUsedTag.Tag, s.MostUsedTag.Count)})
	}
	if len(s.LeastUsedTags) > 0 {
		summary = append(summary, []string{"Least used tags", strings.Join(s.LeastUsedTags, ", ")})
	}

	return []output.Section{
		{Title: "Overview", Data: output.Data{Headers: []string{"Metric", "Value"}, Rows: summary}},
		{Title: "Tag Usage", Data: r.breakdown("Tag", "Count", s.TagUsage)},
		{Title: "Topics per Publisher", Data: r.breakdown("Publisher", "Topics", s.TopicsPerPublisher)},
		{Title: "Chapters per Topic", Data: r.breakdown("Topic", "Chapters", s.ChaptersPerTopic)},
	}
}

func (r Report) breakdown(key, value string, data map[string]int) output.Data {
	ranked := Ranked(data)
	if r.TopN > 0 && len(ranked) > r.TopN {
		ranked = ranked[:r.TopN]
	}
	rows := make([][]string, len(ranked))
	for i, row := range ranked {
		rows[i] = []string{row.Key, strconv.Itoa(row.Value)}
	}
	return output.Data{Headers: []string{key, value}, Rows: rows}
}
