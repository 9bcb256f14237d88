package stats

import (
	"fmt"
	"math"
	"strconv"

	"github.com/dustin/go-humanize"
)

// DefaultTopN is the number of categories a chart shows before the rest is
// folded into Others or cut.
const DefaultTopN = 50

// OthersKey labels the pie slice that aggregates the leftover categories.
const OthersKey = "Others"

// Kind is the chart type.
type Kind int

const (
	KindBar Kind = iota
	KindPie
)

// Item is one bar or slice. For the Others slice, Leftover holds the
// categories it stands for.
type Item struct {
	Key      string
	Value    float64
	Leftover []Item
}

// Chart is the data behind a rendered bar or pie chart.
type Chart struct {
	Title string
	Kind  Kind
	TopN  int
	Items []Item
}

func items(data map[string]int) []Item {
	ranked := Ranked(data)
	out := make([]Item, len(ranked))
	for i, r := range ranked {
		out[i] = Item{Key: r.Key, Value: float64(r.Value)}
	}
	return out
}

// Bar builds a bar chart sorted by descending value. When topN is positive
// only the first topN bars are kept.
func Bar(title string, data map[string]int, topN int) Chart {
	its := items(data)
	if topN > 0 && len(its) > topN {
		its = its[:topN]
	}
	return Chart{Title: title, Kind: KindBar, TopN: topN, Items: its}
}

// Pie builds a pie chart sorted by descending value. Past topN slices the
// remainder becomes one Others slice whose value is their sum.
func Pie(title string, data map[string]int, topN int) Chart {
	return pie(title, items(data), topN)
}

func pie(title string, its []Item, topN int) Chart {
	c := Chart{Title: title, Kind: KindPie, TopN: topN}
	if topN <= 0 || len(its) <= topN {
		c.Items = its
		return c
	}
	leftover := append([]Item(nil), its[topN:]...)
	var sum float64
	for _, it := range leftover {
		sum += it.Value
	}
	c.Items = append(append([]Item(nil), its[:topN]...), Item{Key: OthersKey, Value: sum, Leftover: leftover})
	return c
}

// Empty reports whether the chart has nothing to draw.
func (c Chart) Empty() bool { return len(c.Items) == 0 }

// Total is the sum of all item values.
func (c Chart) Total() float64 {
	var t float64
	for _, it := range c.Items {
		t += it.Value
	}
	return t
}

// Max is the largest item value.
func (c Chart) Max() float64 {
	var m float64
	for _, it := range c.Items {
		m = math.Max(m, it.Value)
	}
	return m
}

// Percent is item i's share of the total, in percent.
func (c Chart) Percent(i int) float64 {
	total := c.Total()
	if total == 0 || i < 0 || i >= len(c.Items) {
		return 0
	}
	return c.Items[i].Value / total * 100
}

// Tooltip is the hover text for item i.
func (c Chart) Tooltip(i int) string {
	if i < 0 || i >= len(c.Items) {
		return ""
	}
	it := c.Items[i]
	if c.Kind == KindPie {
		return fmt.Sprintf("%s\n%s (%.1f%%)", it.Key, FormatValue(it.Value), c.Percent(i))
	}
	return it.Key + "\n" + strconv.FormatFloat(it.Value, 'g', -1, 64)
}

// CanDrill reports whether item i is an Others slice with a breakdown.
func (c Chart) CanDrill(i int) bool {
	return c.Kind == KindPie && i >= 0 && i < len(c.Items) &&
		c.Items[i].Key == OthersKey && len(c.Items[i].Leftover) > 0
}

// Drill returns the breakdown pie of the Others slice at i.
func (c Chart) Drill(i int) (Chart, bool) {
	if !c.CanDrill(i) {
		return Chart{}, false
	}
	return pie("Others Breakdown", c.Items[i].Leftover, c.TopN), true
}

// FormatValue renders a value with thousands separators and two decimals,
// or four decimals below one.
func FormatValue(v float64) string {
	if math.Abs(v) >= 1 {
		return humanize.FormatFloat("#,###.##", v)
	}
	return fmt.Sprintf("%.4f", v)
}

// ViewStack is the navigation history of drilled-down charts. The base
// chart is never popped.
type ViewStack struct {
	views []Chart
}

// NewViewStack starts a stack at base.
func NewViewStack(base Chart) *ViewStack {
	return &ViewStack{views: []Chart{base}}
}

// Top is the chart currently displayed.
func (s *ViewStack) Top() Chart { return s.views[len(s.views)-1] }

// Depth is the number of charts on the stack.
func (s *ViewStack) Depth() int { return len(s.views) }

// Drill pushes the breakdown of item i of the top chart.
func (s *ViewStack) Drill(i int) bool {
	next, ok := s.Top().Drill(i)
	if !ok {
		return false
	}
	s.views = append(s.views, next)
	return true
}

// Back pops one level. It reports false at the base chart.
func (s *ViewStack) Back() bool {
	if len(s.views) <= 1 {
		return false
	}
	s.views = s.views[:len(s.views)-1]
	return true
}
