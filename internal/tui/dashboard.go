package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"tagbrowser/internal/stats"
)

type tabKind int

const (
	tabSummary tabKind = iota
	tabTable
	tabChart
)

type dashTab struct {
	title string
	kind  tabKind
	table *stats.Table
	views *stats.ViewStack
}

type statsModel struct {
	snapshot stats.Snapshot
	tabs     []dashTab
	active   int

	grid      table.Model
	filter    textinput.Model
	filtering bool

	// cursor is the highlighted bar or slice of a chart tab.
	cursor int

	width, height int
}

func newStatsModel(s stats.Snapshot, topN, width, height int) statsModel {
	tabs := []dashTab{
		{title: "Summary", kind: tabSummary},
		{title: "Tag Usage", kind: tabTable, table: stats.NewTable("Tag", "Count", s.TagUsage)},
		{title: "Topics per Publisher", kind: tabTable, table: stats.NewTable("Publisher", "Topics", s.TopicsPerPublisher)},
		{title: "Chapters per Topic", kind: tabTable, table: stats.NewTable("Topic", "Chapters", s.ChaptersPerTopic)},
		{title: "Tag Chart", kind: tabChart, views: stats.NewViewStack(stats.Bar("Tag Usage Chart", s.TagUsage, 0))},
		{title: "Publisher Chart", kind: tabChart, views: stats.NewViewStack(stats.Bar("Topics per Publisher Chart", s.TopicsPerPublisher, topN))},
		{title: "Topic Chart", kind: tabChart, views: stats.NewViewStack(stats.Bar("Chapters per Topic Chart", s.ChaptersPerTopic, topN))},
		{title: "Tag Pie", kind: tabChart, views: stats.NewViewStack(stats.Pie("Tag Usage Pie", s.TagUsage, topN))},
		{title: "Top Tags", kind: tabChart, views: stats.NewViewStack(stats.Bar(fmt.Sprintf("Top %d Tags", topN), s.TagUsage, topN))},
	}

	grid := table.New(table.WithFocused(true))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(border).
		BorderBottom(true).
		Foreground(primary).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(background).
		Background(secondary).
		Bold(true)
	grid.SetStyles(styles)

	fi := textinput.New()
	fi.Prompt = "Filter: "
	fi.CharLimit = 128

	sm := statsModel{snapshot: s, tabs: tabs, grid: grid, filter: fi}
	sm.resize(width, height)
	return sm
}

func (s *statsModel) resize(width, height int) {
	s.width, s.height = width, height
	if len(s.tabs) == 0 {
		return
	}
	h := height - 10
	if h < 5 {
		h = 5
	}
	s.grid.SetHeight(h)
	s.syncGrid()
}

func (s statsModel) activeTab() (dashTab, bool) {
	if s.active < 0 || s.active >= len(s.tabs) {
		return dashTab{}, false
	}
	return s.tabs[s.active], true
}

func (s statsModel) activeTable() *stats.Table {
	if tab, ok := s.activeTab(); ok && tab.kind == tabTable {
		return tab.table
	}
	return nil
}

// syncGrid copies the active table's filtered, sorted rows into the grid.
func (s *statsModel) syncGrid() {
	t := s.activeTable()
	if t == nil {
		return
	}
	col, desc := t.Sorting()
	arrow := " ▲"
	if desc {
		arrow = " ▼"
	}
	keyTitle, valueTitle := t.KeyTitle, t.ValueTitle
	if col == stats.ColumnKey {
		keyTitle += arrow
	} else {
		valueTitle += arrow
	}

	keyWidth := s.width - 24
	if keyWidth < 20 {
		keyWidth = 20
	}
	s.grid.SetColumns([]table.Column{
		{Title: keyTitle, Width: keyWidth},
		{Title: valueTitle, Width: 12},
	})
	rows := t.Rows()
	out := make([]table.Row, len(rows))
	for i, r := range rows {
		out[i] = table.Row{r.Key, strconv.Itoa(r.Value)}
	}
	s.grid.SetRows(out)
	s.grid.SetCursor(0)
}

func (s *statsModel) switchTab(delta int) {
	if len(s.tabs) == 0 {
		return
	}
	s.active = (s.active + delta + len(s.tabs)) % len(s.tabs)
	s.cursor = 0
	s.filtering = false
	s.filter.Blur()
	if t := s.activeTable(); t != nil {
		s.filter.SetValue(t.Filter())
	}
	s.syncGrid()
}

func (m model) applyStats(msg statsLoadedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.state = stateBrowse
		m.setError(fmt.Errorf("statistics: %w", msg.err))
		return m, nil
	}
	m.stats = newStatsModel(msg.snapshot, m.topN, m.getWidth(), m.getHeight())
	m.state = stateStats
	m.status = ""
	return m, nil
}

func (m model) updateStats(msg tea.Msg) (tea.Model, tea.Cmd) {
	s := &m.stats
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	if s.filtering {
		switch keyMsg.String() {
		case "enter":
			s.filtering = false
			s.filter.Blur()
			return m, nil
		case "esc":
			s.filtering = false
			s.filter.Blur()
			s.filter.SetValue("")
			if t := s.activeTable(); t != nil {
				t.SetFilter("")
			}
			s.syncGrid()
			return m, nil
		}
		var cmd tea.Cmd
		s.filter, cmd = s.filter.Update(msg)
		if t := s.activeTable(); t != nil {
			t.SetFilter(s.filter.Value())
		}
		s.syncGrid()
		return m, cmd
	}

	tab, _ := s.activeTab()
	switch {
	case key.Matches(keyMsg, m.keys.Back), key.Matches(keyMsg, m.keys.Quit):
		if tab.kind == tabChart && tab.views.Back() {
			s.cursor = 0
			return m, nil
		}
		m.state = stateBrowse
		return m, nil
	case key.Matches(keyMsg, m.keys.Help):
		m.showHelp()
		return m, nil
	case key.Matches(keyMsg, m.keys.NextTab), key.Matches(keyMsg, m.keys.Right):
		s.switchTab(1)
		return m, nil
	case key.Matches(keyMsg, m.keys.PrevTab), key.Matches(keyMsg, m.keys.Left):
		s.switchTab(-1)
		return m, nil
	}

	switch tab.kind {
	case tabTable:
		return m.updateStatsTable(keyMsg, tab.table)
	case tabChart:
		return m.updateStatsChart(keyMsg, tab.views)
	}
	return m, nil
}

func (m model) updateStatsTable(keyMsg tea.KeyMsg, t *stats.Table) (tea.Model, tea.Cmd) {
	s := &m.stats
	switch {
	case key.Matches(keyMsg, m.keys.Filter):
		s.filtering = true
		return m, s.filter.Focus()
	case key.Matches(keyMsg, m.keys.Sort):
		col, _ := t.Sorting()
		if col == stats.ColumnKey {
			t.Sort(stats.ColumnValue, true)
		} else {
			t.Sort(stats.ColumnKey, false)
		}
		s.syncGrid()
		return m, nil
	case key.Matches(keyMsg, m.keys.Reverse):
		col, desc := t.Sorting()
		t.Sort(col, !desc)
		s.syncGrid()
		return m, nil
	case key.Matches(keyMsg, m.keys.SaveCSV):
		return m.openPrompt(promptTableCSV)
	case key.Matches(keyMsg, m.keys.Up), key.Matches(keyMsg, m.keys.Down),
		keyMsg.String() == "pgup", keyMsg.String() == "pgdown":
		var cmd tea.Cmd
		s.grid, cmd = s.grid.Update(keyMsg)
		return m, cmd
	}
	return m, nil
}

func (m model) updateStatsChart(keyMsg tea.KeyMsg, views *stats.ViewStack) (tea.Model, tea.Cmd) {
	s := &m.stats
	n := len(views.Top().Items)
	switch {
	case key.Matches(keyMsg, m.keys.Up):
		if s.cursor > 0 {
			s.cursor--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if s.cursor < n-1 {
			s.cursor++
		}
	case key.Matches(keyMsg, m.keys.Drill):
		if views.Drill(s.cursor) {
			s.cursor = 0
		}
	}
	return m, nil
}

func (m model) viewStats() string {
	s := m.stats
	var titles []string
	for i, tab := range s.tabs {
		if i == s.active {
			titles = append(titles, selectedStyle.Padding(0, 1).Render(tab.title))
		} else {
			titles = append(titles, subtitleStyle.Padding(0, 1).Render(tab.title))
		}
	}

	var body string
	tab, _ := s.activeTab()
	switch tab.kind {
	case tabSummary:
		body = s.viewSummary()
	case tabTable:
		body = s.viewTable(tab.table)
	case tabChart:
		body = s.viewChart(tab.views)
	}

	parts := []string{
		renderTitle("Tag Statistics"),
		fit(strings.Join(titles, " "), s.width),
		"",
		body,
	}
	if st := m.renderStatus(); st != "" {
		parts = append(parts, st)
	}
	parts = append(parts, m.help.View(statsKeys{m.keys}))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (s statsModel) viewSummary() string {
	snap := s.snapshot
	top := lipgloss.JoinHorizontal(lipgloss.Top,
		renderCard("Publishers", humanize.Comma(int64(snap.TotalPublishers)), "top-level folders", primary),
		renderCard("Topics", humanize.Comma(int64(snap.TotalTopics)), "second level", secondary),
		renderCard("Chapters", humanize.Comma(int64(snap.TotalChapters)), "third level", accent),
		renderCard("Unique Tags", humanize.Comma(int64(snap.TotalUniqueTags)), "distinct tags", warning),
	)

	most := "none"
	if snap.MostUsedTag != nil {
		most = fmt.Sprintf("%s (%d)", snap.MostUsedTag.Tag, snap.MostUsedTag.Count)
	}
	bottom := lipgloss.JoinHorizontal(lipgloss.Top,
		renderCard("Topics/Publisher", fmt.Sprintf("%.2f", snap.AvgTopicsPerPublisher), "average", info),
		renderCard("Chapters/Topic", fmt.Sprintf("%.2f", snap.AvgChaptersPerTopic), "average", info),
		renderCard("Most Used Tag", fit(most, 18), "folders", success),
	)

	least := subtitleStyle.Render("none")
	if len(snap.LeastUsedTags) > 0 {
		least = valueStyle.Render(strings.Join(snap.LeastUsedTags, ", "))
	}
	return lipgloss.JoinVertical(lipgloss.Left, top, bottom, labelStyle.Render("Least used tags: ")+least)
}

func (s statsModel) viewTable(t *stats.Table) string {
	var filterLine string
	if s.filtering {
		filterLine = inputFocusStyle.Render(s.filter.View())
	} else {
		q := t.Filter()
		if q == "" {
			q = "none"
		}
		filterLine = labelStyle.Render("Filter: ") + valueStyle.Render(q)
	}
	count := subtitleStyle.Render(fmt.Sprintf("%d of %d rows", len(t.Rows()), t.Len()))
	if len(t.Rows()) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, filterLine+"  "+count, "", subtitleStyle.Render("No data to display"))
	}
	return lipgloss.JoinVertical(lipgloss.Left, filterLine+"  "+count, s.grid.View())
}

func (s statsModel) viewChart(views *stats.ViewStack) string {
	c := views.Top()
	title := headingStyle.Render(c.Title)
	if views.Depth() > 1 {
		title += subtitleStyle.Render(fmt.Sprintf("  (level %d, esc back)", views.Depth()))
	}
	if c.Empty() {
		return lipgloss.JoinVertical(lipgloss.Left, title, "", subtitleStyle.Render("No data to display"))
	}

	labelWidth := 24
	barWidth := s.width - labelWidth - 44
	if barWidth < 10 {
		barWidth = 10
	}
	lines := s.height - 12
	if lines < 5 {
		lines = 5
	}
	start := 0
	if s.cursor >= lines {
		start = s.cursor - lines + 1
	}
	end := start + lines
	if end > len(c.Items) {
		end = len(c.Items)
	}

	peak := c.Max()
	var rows []string
	if c.Kind == stats.KindPie {
		rows = append(rows, renderPieBand(c, barWidth+labelWidth), "")
	}
	for i := start; i < end; i++ {
		it := c.Items[i]
		color := seriesColors[i%len(seriesColors)]
		label := lipgloss.NewStyle().Width(labelWidth).Render(fit(it.Key, labelWidth-1))
		value := stats.FormatValue(it.Value)
		if c.Kind == stats.KindPie {
			value += fmt.Sprintf(" (%.1f%%)", c.Percent(i))
		}
		row := label + renderBar(it.Value, peak, barWidth, color) + " " + value
		if i == s.cursor {
			row = selectedStyle.Render("▸") + " " + row
		} else {
			row = "  " + row
		}
		rows = append(rows, row)
	}
	if len(c.Items) > lines {
		rows = append(rows, subtitleStyle.Render(fmt.Sprintf("(%d-%d of %d)", start+1, end, len(c.Items))))
	}

	tip := c.Tooltip(s.cursor)
	if c.CanDrill(s.cursor) {
		tip += "\n" + accentStyle.Render("enter: breakdown")
	}
	chart := lipgloss.JoinVertical(lipgloss.Left, rows...)
	return lipgloss.JoinVertical(lipgloss.Left, title, "",
		lipgloss.JoinHorizontal(lipgloss.Top, chart, "  ", tooltipStyle.Render(tip)))
}

// renderPieBand draws the slices of a pie as one stacked band.
func renderPieBand(c stats.Chart, width int) string {
	var b strings.Builder
	used := 0
	for i := range c.Items {
		cells := int(math.Round(c.Percent(i) / 100 * float64(width)))
		if used+cells > width {
			cells = width - used
		}
		if cells <= 0 {
			continue
		}
		used += cells
		b.WriteString(lipgloss.NewStyle().Foreground(seriesColors[i%len(seriesColors)]).Render(strings.Repeat("█", cells)))
	}
	if used < width {
		b.WriteString(lipgloss.NewStyle().Foreground(muted).Render(strings.Repeat("░", width-used)))
	}
	return b.String()
}
