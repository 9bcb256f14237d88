package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tagbrowser/internal/search"
	"tagbrowser/internal/tags"
	"tagbrowser/internal/tree"
)

type column int

const (
	colPublishers column = iota
	colTopics
	colChapters
	colTags
	numColumns
)

var columnTitles = [numColumns]string{"Publishers", "Topics", "Chapters", "Tags"}

type inputMode int

const (
	inputNone inputMode = iota
	inputGlobal
	inputFilter
)

type browseModel struct {
	focus  column
	cursor [numColumns]int

	publishers []string
	topics     []search.Entry
	chapters   []search.Entry
	tags       []string

	input     textinput.Model
	mode      inputMode
	filterCol column

	// query is the active global search; tag the active tag-click filter.
	query string
	tag   string
}

func newBrowseModel() browseModel {
	ti := textinput.New()
	ti.CharLimit = 256
	ti.Width = 40
	return browseModel{input: ti}
}

func (b browseModel) length(c column) int {
	switch c {
	case colPublishers:
		return len(b.publishers)
	case colTopics:
		return len(b.topics)
	case colChapters:
		return len(b.chapters)
	case colTags:
		return len(b.tags)
	}
	return 0
}

func (b *browseModel) clampCursors() {
	for c := column(0); c < numColumns; c++ {
		n := b.length(c)
		if b.cursor[c] >= n {
			b.cursor[c] = n - 1
		}
		if b.cursor[c] < 0 {
			b.cursor[c] = 0
		}
	}
}

func (b *browseModel) setResult(res search.Result) {
	if res.Publishers != nil {
		b.publishers = res.Publishers
	}
	b.topics = res.Topics
	b.chapters = res.Chapters
	if res.Tags != nil {
		b.tags = res.Tags
	}
	b.clampCursors()
}

// current returns the folder under the cursor of the focused column.
func (b browseModel) current() (string, bool) {
	i := b.cursor[b.focus]
	switch b.focus {
	case colPublishers:
		if i < len(b.publishers) {
			return b.publishers[i], true
		}
	case colTopics:
		if i < len(b.topics) {
			return b.topics[i].Path, true
		}
	case colChapters:
		if i < len(b.chapters) {
			return b.chapters[i].Path, true
		}
	}
	return "", false
}

// refresh rebuilds the columns from the session, keeping an active search
// or tag filter.
func (m *model) refresh() {
	if m.session == nil {
		return
	}
	switch {
	case m.browse.query != "":
		m.browse.setResult(m.session.Global(m.browse.query))
	case m.browse.tag != "":
		m.browse.tags = m.session.Tags()
		m.browse.setResult(m.session.ByTag(m.browse.tag))
	default:
		m.browse.setResult(search.Result{
			Publishers: m.session.Publishers(),
			Topics:     m.session.Topics(),
			Chapters:   m.session.Chapters(),
			Tags:       m.session.Tags(),
		})
	}
}

func (m *model) resetView() {
	m.browse.query, m.browse.tag = "", ""
	m.browse.input.SetValue("")
	m.refresh()
}

func (m model) applyScan(msg scanDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.fatal = msg.err
		m.log.Error().Err(msg.err).Msg("scan failed")
		return m, tea.Quit
	}
	m.session = msg.session
	m.state = stateBrowse
	m.browse.cursor = [numColumns]int{}
	m.refresh()
	m.setStatus(fmt.Sprintf("%d tagged folders", m.session.Cache().Len()))
	m.log.Info().Int("tagged", m.session.Cache().Len()).Msg("scan loaded")
	return m, nil
}

func (m model) updateBrowse(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if m.browse.mode != inputNone {
		return m.updateBrowseInput(msg)
	}
	if !ok {
		return m, nil
	}

	b := &m.browse
	switch {
	case key.Matches(keyMsg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(keyMsg, m.keys.Help):
		m.showHelp()
	case key.Matches(keyMsg, m.keys.Up):
		if b.cursor[b.focus] > 0 {
			b.cursor[b.focus]--
		}
	case key.Matches(keyMsg, m.keys.Down):
		if b.cursor[b.focus] < b.length(b.focus)-1 {
			b.cursor[b.focus]++
		}
	case key.Matches(keyMsg, m.keys.Left):
		b.focus = (b.focus + numColumns - 1) % numColumns
	case key.Matches(keyMsg, m.keys.Right), keyMsg.String() == "tab":
		b.focus = (b.focus + 1) % numColumns
	case key.Matches(keyMsg, m.keys.Select):
		return m.selectCurrent()
	case key.Matches(keyMsg, m.keys.Search):
		b.mode = inputGlobal
		b.input.Prompt = "Search: "
		b.input.SetValue(b.query)
		b.input.CursorEnd()
		return m, b.input.Focus()
	case key.Matches(keyMsg, m.keys.Filter):
		b.mode = inputFilter
		b.filterCol = b.focus
		b.input.Prompt = "Filter " + columnTitles[b.focus] + ": "
		b.input.SetValue("")
		return m, b.input.Focus()
	case key.Matches(keyMsg, m.keys.Back):
		m.resetView()
		m.setStatus("Filters cleared")
	case key.Matches(keyMsg, m.keys.Edit):
		return m.startEdit()
	case key.Matches(keyMsg, m.keys.Open):
		if rel, ok := b.current(); ok {
			return m, openCmd(m.opener, m.scanner.Abs(rel))
		}
	case key.Matches(keyMsg, m.keys.Copy):
		if rel, ok := b.current(); ok {
			return m, copyCmd(m.clip, m.scanner.Abs(rel))
		}
	case key.Matches(keyMsg, m.keys.Export):
		return m.openPrompt(promptExport)
	case key.Matches(keyMsg, m.keys.Import):
		return m.openPrompt(promptImport)
	case key.Matches(keyMsg, m.keys.Merge):
		return m.openPrompt(promptMerge)
	case key.Matches(keyMsg, m.keys.Clear):
		m.confirm = confirmModel{cleared: m.session.Cache().Len()}
		m.state = stateConfirm
	case key.Matches(keyMsg, m.keys.Stats):
		m.state = stateLoading
		m.loadingMsg = "Computing statistics"
		return m, tea.Batch(m.spin.Tick, statsCmd(m.scanner, m.session.Cache().Clone()))
	case key.Matches(keyMsg, m.keys.Rescan):
		m.state = stateLoading
		m.loadingMsg = "Scanning tags"
		return m, tea.Batch(m.spin.Tick, scanCmd(m.scanner))
	}
	return m, nil
}

func (m model) updateBrowseInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	b := &m.browse
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "enter", "esc":
			b.mode = inputNone
			b.input.Blur()
			return m, nil
		}
	}

	var cmd tea.Cmd
	b.input, cmd = b.input.Update(msg)
	q := b.input.Value()

	switch b.mode {
	case inputGlobal:
		b.query, b.tag = strings.TrimSpace(q), ""
		b.setResult(m.session.Global(q))
	case inputFilter:
		switch b.filterCol {
		case colPublishers:
			b.publishers = m.session.FilterPublishers(q)
		case colTopics:
			b.topics = m.session.FilterTopics(q)
		case colChapters:
			b.chapters = m.session.FilterChapters(q)
		case colTags:
			b.tags = m.session.FilterTags(q)
		}
		b.clampCursors()
	}
	return m, cmd
}

// selectCurrent drills into the highlighted entry.
func (m model) selectCurrent() (tea.Model, tea.Cmd) {
	b := &m.browse
	i := b.cursor[b.focus]
	switch b.focus {
	case colPublishers:
		if i >= len(b.publishers) {
			return m, nil
		}
		topics, err := m.session.SelectPublisher(b.publishers[i])
		if err != nil {
			m.setError(err)
			return m, nil
		}
		b.topics, b.chapters = topics, nil
		b.cursor[colTopics], b.cursor[colChapters] = 0, 0
		b.focus = colTopics
	case colTopics:
		if i >= len(b.topics) {
			return m, nil
		}
		chapters, err := m.session.SelectTopic(b.topics[i].Path)
		if err != nil {
			m.setError(err)
			return m, nil
		}
		b.chapters = chapters
		b.cursor[colChapters] = 0
		b.focus = colChapters
	case colChapters:
		return m.startEdit()
	case colTags:
		if i >= len(b.tags) {
			return m, nil
		}
		b.tag, b.query = b.tags[i], ""
		res := m.session.ByTag(b.tag)
		b.topics, b.chapters = res.Topics, res.Chapters
		b.clampCursors()
		m.setStatus(fmt.Sprintf("Tag %q: %d topics, %d chapters", b.tag, len(res.Topics), len(res.Chapters)))
	}
	return m, nil
}

func (m model) viewBrowse() string {
	b := m.browse
	width := m.getWidth()
	colWidth := (width - 4*4) / int(numColumns)
	if colWidth < 12 {
		colWidth = 12
	}
	lines := m.listLines()

	cols := make([]string, numColumns)
	for c := column(0); c < numColumns; c++ {
		cols[c] = m.renderColumn(c, colWidth, lines)
	}

	header := renderTitle("Tag Browser") + "  " + subtitleStyle.Render(m.scanner.Root)
	if crumb := m.selection(); crumb != "" {
		header += "  " + labelStyle.Render(crumb)
	}
	var parts []string
	parts = append(parts, header)

	switch {
	case b.mode != inputNone:
		parts = append(parts, inputFocusStyle.Render(b.input.View()))
	case b.query != "":
		parts = append(parts, inputStyle.Render(labelStyle.Render("Search: ")+valueStyle.Render(b.query)))
	case b.tag != "":
		parts = append(parts, inputStyle.Render(labelStyle.Render("Tag: ")+valueStyle.Render(b.tag)))
	}

	parts = append(parts, lipgloss.JoinHorizontal(lipgloss.Top, cols...))
	parts = append(parts, m.renderDetail(width))
	if s := m.renderStatus(); s != "" {
		parts = append(parts, s)
	}
	parts = append(parts, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// selection names the publisher and topic whose lists are loaded.
func (m model) selection() string {
	pub, topic := m.session.Selected()
	switch {
	case topic != "":
		return pub + " › " + tree.Name(topic)
	case pub != "":
		return pub
	}
	return ""
}

func (m model) renderColumn(c column, width, lines int) string {
	b := m.browse
	labels := make([]string, 0, b.length(c))
	switch c {
	case colPublishers:
		labels = append(labels, b.publishers...)
	case colTopics:
		for _, e := range b.topics {
			labels = append(labels, e.Label)
		}
	case colChapters:
		for _, e := range b.chapters {
			labels = append(labels, e.Label)
		}
	case colTags:
		labels = append(labels, b.tags...)
	}

	start := 0
	if b.cursor[c] >= lines {
		start = b.cursor[c] - lines + 1
	}
	end := start + lines
	if end > len(labels) {
		end = len(labels)
	}

	rows := []string{headingStyle.Render(fmt.Sprintf("%s (%d)", columnTitles[c], len(labels)))}
	if len(labels) == 0 {
		rows = append(rows, subtitleStyle.Render("empty"))
	}
	for i := start; i < end; i++ {
		label := fit(labels[i], width-2)
		switch {
		case i == b.cursor[c] && c == b.focus:
			rows = append(rows, selectedStyle.Render("▸ "+label))
		case i == b.cursor[c]:
			rows = append(rows, accentStyle.Render("▸ ")+label)
		default:
			rows = append(rows, "  "+label)
		}
	}

	style := columnStyle
	if c == b.focus {
		style = activeColumnStyle
	}
	return style.Width(width).Height(lines + 1).Render(strings.Join(rows, "\n"))
}

func (m model) renderDetail(width int) string {
	rel, ok := m.browse.current()
	if !ok {
		return subtitleStyle.Render("No folder selected")
	}
	set := m.session.Cache().Get(rel)
	tagText := subtitleStyle.Render("no tags")
	if len(set) > 0 {
		tagText = valueStyle.Render(tags.Format(set))
	}
	return fit(labelStyle.Render(rel+": ")+tagText, width)
}
