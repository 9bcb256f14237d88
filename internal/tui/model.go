// Package tui is the interactive terminal front end: a four column
// publisher/topic/chapter/tag browser with search, tag editing, CSV
// transfer and a statistics dashboard.
package tui

import (
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"

	"tagbrowser/internal/config"
	"tagbrowser/internal/search"
	"tagbrowser/internal/stats"
	"tagbrowser/internal/tree"
)

type appState int

const (
	stateLoading appState = iota
	stateBrowse
	stateEdit
	statePrompt
	stateConfirm
	stateStats
	stateHelp
)

// Opener reveals a folder in the file manager.
type Opener interface {
	Open(dir string) error
}

// Options configures the browser.
type Options struct {
	Scanner *tree.Scanner
	// Fs holds the CSV files read and written by the prompts. It defaults
	// to the OS filesystem.
	Fs        afero.Fs
	State     *config.State
	StatePath string
	TopN      int
	Opener    Opener
	Clipboard func(text string) error
	Log       zerolog.Logger
}

type model struct {
	state appState
	keys  keyMap
	help  help.Model
	spin  spinner.Model

	scanner   *tree.Scanner
	fs        afero.Fs
	session   *search.Session
	saved     *config.State
	statePath string
	topN      int
	opener    Opener
	clip      func(string) error
	log       zerolog.Logger

	browse  browseModel
	edit    editModel
	prompt  promptModel
	confirm confirmModel
	stats   statsModel

	previous   appState
	status     string
	statusErr  bool
	loadingMsg string
	fatal      error
	windowSize tea.WindowSizeMsg
}

// New builds the root model. Scanning starts in Init.
func New(opts Options) tea.Model {
	return newModel(opts)
}

func newModel(opts Options) model {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.State == nil {
		opts.State = config.LoadState(opts.Fs, opts.StatePath)
	}
	if opts.TopN <= 0 {
		opts.TopN = stats.DefaultTopN
	}
	if opts.Clipboard == nil {
		opts.Clipboard = clipboard.WriteAll
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(primary)

	return model{
		state:      stateLoading,
		keys:       defaultKeyMap(),
		help:       help.New(),
		spin:       sp,
		scanner:    opts.Scanner,
		fs:         opts.Fs,
		saved:      opts.State,
		statePath:  opts.StatePath,
		topN:       opts.TopN,
		opener:     opts.Opener,
		clip:       opts.Clipboard,
		log:        opts.Log,
		browse:     newBrowseModel(),
		loadingMsg: "Scanning tags",
	}
}

// Run starts the full screen program and blocks until it exits.
func Run(opts Options) error {
	p := tea.NewProgram(New(opts), tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return err
	}
	if m, ok := final.(model); ok && m.fatal != nil {
		return m.fatal
	}
	return nil
}

func (m model) Init() tea.Cmd {
	return tea.Batch(m.spin.Tick, scanCmd(m.scanner))
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.windowSize = msg
		m.help.Width = msg.Width
		m.stats.resize(m.getWidth(), m.getHeight())
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case scanDoneMsg:
		return m.applyScan(msg)
	case tagsSavedMsg:
		return m.applyTagsSaved(msg)
	case exportDoneMsg:
		return m.applyExport(msg)
	case importDoneMsg:
		return m.applyImport(msg)
	case clearDoneMsg:
		return m.applyClear(msg)
	case statsLoadedMsg:
		return m.applyStats(msg)
	case fileWrittenMsg:
		return m.applyFileWritten(msg)
	case actionDoneMsg:
		if msg.err != nil {
			m.setError(msg.err)
		} else {
			m.setStatus(msg.text)
		}
		return m, nil
	}

	switch m.state {
	case stateLoading:
		return m.updateLoading(msg)
	case stateBrowse:
		return m.updateBrowse(msg)
	case stateEdit:
		return m.updateEdit(msg)
	case statePrompt:
		return m.updatePrompt(msg)
	case stateConfirm:
		return m.updateConfirm(msg)
	case stateStats:
		return m.updateStats(msg)
	case stateHelp:
		return m.updateHelp(msg)
	default:
		return m, nil
	}
}

func (m model) View() string {
	switch m.state {
	case stateLoading:
		return m.viewLoading()
	case stateBrowse:
		return m.viewBrowse()
	case stateEdit:
		return m.viewEdit()
	case statePrompt:
		return m.viewPrompt()
	case stateConfirm:
		return m.viewConfirm()
	case stateStats:
		return m.viewStats()
	case stateHelp:
		return m.viewHelp()
	default:
		return ""
	}
}

func (m model) updateLoading(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "esc" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) viewLoading() string {
	root := ""
	if m.scanner != nil {
		root = m.scanner.Root
	}
	body := lipgloss.JoinVertical(lipgloss.Left,
		renderTitle("Tag Browser"),
		"",
		m.spin.View()+" "+valueStyle.Render(m.loadingMsg)+" "+subtitleStyle.Render(root),
		"",
		subtitleStyle.Render("q quit"),
	)
	return lipgloss.NewStyle().Padding(1, 2).Render(body)
}

func (m model) updateHelp(msg tea.Msg) (tea.Model, tea.Cmd) {
	if _, ok := msg.(tea.KeyMsg); ok {
		m.state = m.previous
	}
	return m, nil
}

func (m model) viewHelp() string {
	h := m.help
	h.ShowAll = true

	sections := []struct {
		title string
		lines [][2]string
	}{
		{"Browsing", [][2]string{
			{"enter", "Publisher: load topics. Topic: load chapters. Tag: show folders with that tag"},
			{"/", "Search every column by name and tag"},
			{"f", "Filter the focused column"},
			{"esc", "Clear search and filters"},
		}},
		{"Tags", [][2]string{
			{"e", "Edit the tags of the highlighted folder (comma separated)"},
			{"x / i / m", "Export to CSV, import overwriting, import merging"},
			{"C", "Clear every tag file"},
		}},
		{"Statistics", [][2]string{
			{"tab", "Switch between summary, tables and charts"},
			{"f / S / R", "Filter, change sort column, reverse sort"},
			{"x", "Export the filtered table to CSV"},
			{"enter", "Break down the Others slice of a pie chart"},
		}},
	}

	var parts []string
	parts = append(parts, renderTitle("Tag Browser - Help & Keyboard Shortcuts"), "")
	for _, s := range sections {
		parts = append(parts, valueStyle.Render(s.title))
		for _, l := range s.lines {
			parts = append(parts, "  "+accentStyle.Render(l[0])+" "+labelStyle.Render(l[1]))
		}
		parts = append(parts, "")
	}
	parts = append(parts, h.View(m.keys), "", subtitleStyle.Render("Press any key to return"))
	return lipgloss.NewStyle().Padding(1, 2).Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

func (m *model) showHelp() {
	m.previous = m.state
	m.state = stateHelp
}

func (m *model) setStatus(s string) {
	m.status, m.statusErr = s, false
}

func (m *model) setError(err error) {
	m.status, m.statusErr = err.Error(), true
	m.log.Error().Err(err).Msg("action failed")
}

func (m model) renderStatus() string {
	if m.status == "" {
		return ""
	}
	if m.statusErr {
		return errorStyle.Render("✗ " + m.status)
	}
	return successStyle.Render("✓ " + m.status)
}

// rememberPath records a CSV path in the recent list and persists it.
func (m *model) rememberPath(path string) {
	m.saved.Remember(path)
	if err := m.saved.Save(m.fs, m.statePath); err != nil {
		m.log.Debug().Err(err).Msg("state not saved")
	}
}

func (m model) getWidth() int {
	if m.windowSize.Width > 0 {
		return m.windowSize.Width
	}
	return 80
}

func (m model) getHeight() int {
	if m.windowSize.Height > 0 {
		return m.windowSize.Height
	}
	return 24
}

// listLines is the number of rows each browse column shows.
func (m model) listLines() int {
	h := m.getHeight() - 14
	if h < 5 {
		return 5
	}
	return h
}
