package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tagbrowser/internal/tags"
	"tagbrowser/internal/tree"
)

type editModel struct {
	rel   string
	input textinput.Model
}

func (m model) startEdit() (tea.Model, tea.Cmd) {
	rel, ok := m.browse.current()
	if !ok {
		return m, nil
	}
	ti := textinput.New()
	ti.Prompt = "Tags: "
	ti.Placeholder = "comma separated"
	ti.CharLimit = 1024
	ti.Width = m.getWidth() - 16
	ti.SetValue(tags.Format(m.session.Cache().Get(rel)))
	ti.CursorEnd()

	m.edit = editModel{rel: rel, input: ti}
	m.state = stateEdit
	return m, m.edit.input.Focus()
}

func (m model) updateEdit(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Back):
			m.state = stateBrowse
			return m, nil
		case key.Matches(keyMsg, m.keys.Select):
			m.state = stateBrowse
			return m, saveTagsCmd(m.scanner, m.edit.rel, tags.Parse(m.edit.input.Value()))
		}
	}
	var cmd tea.Cmd
	m.edit.input, cmd = m.edit.input.Update(msg)
	return m, cmd
}

func (m model) viewEdit() string {
	role := tree.RoleOf(m.edit.rel)
	preview := tags.Normalize(tags.Parse(m.edit.input.Value()))
	body := lipgloss.JoinVertical(lipgloss.Left,
		labelStyle.Render(role.String()+": ")+valueStyle.Render(m.edit.rel),
		"",
		inputFocusStyle.Render(m.edit.input.View()),
		"",
		subtitleStyle.Render(fmt.Sprintf("Will save %d tags: %s", len(preview), tags.Format(preview))),
		"",
		renderKeyHelp([]string{"enter save", "esc cancel"}),
	)
	return lipgloss.NewStyle().Padding(1, 2).Render(renderBorder(body, "Edit Tags", primary))
}

func (m model) applyTagsSaved(msg tagsSavedMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setError(msg.err)
		return m, nil
	}
	cache := m.session.Cache()
	cache.Set(msg.rel, msg.tags)
	if err := m.session.Reload(cache); err != nil {
		m.setError(err)
	}
	m.refresh()
	m.setStatus(fmt.Sprintf("Saved %d tags for %s", len(msg.tags), msg.rel))
	m.log.Info().Str("folder", msg.rel).Strs("tags", msg.tags).Msg("tags saved")
	return m, nil
}

type confirmModel struct {
	cleared int
}

func (m model) updateConfirm(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	m.state = stateBrowse
	if key.Matches(keyMsg, m.keys.Confirm) {
		return m, clearCmd(m.scanner, m.session.Cache().Clone())
	}
	m.setStatus("Clear cancelled")
	return m, nil
}

func (m model) viewConfirm() string {
	body := lipgloss.JoinVertical(lipgloss.Left,
		errorStyle.Render(fmt.Sprintf("Remove every tag from %d folders?", m.confirm.cleared)),
		subtitleStyle.Render("Each tag file is overwritten with an empty file."),
		"",
		renderKeyHelp([]string{"y clear", "any other key cancel"}),
	)
	return lipgloss.NewStyle().Padding(1, 2).Render(renderBorder(body, "Clear All Tags", danger))
}

func (m model) applyClear(msg clearDoneMsg) (tea.Model, tea.Cmd) {
	if msg.cache != nil {
		if err := m.session.Reload(msg.cache); err != nil {
			m.setError(err)
			return m, nil
		}
		m.resetView()
	}
	if msg.err != nil {
		m.setError(fmt.Errorf("cleared %d folders before failing: %w", msg.cleared, msg.err))
		return m, nil
	}
	m.setStatus(fmt.Sprintf("Cleared tags of %d folders", msg.cleared))
	m.log.Info().Int("cleared", msg.cleared).Msg("all tags cleared")
	return m, nil
}
