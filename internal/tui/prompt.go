package tui

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/afero"

	"tagbrowser/internal/transfer"
)

type promptKind int

const (
	promptExport promptKind = iota
	promptImport
	promptMerge
	promptTableCSV
)

func (k promptKind) title() string {
	switch k {
	case promptExport:
		return "Export Tags"
	case promptImport:
		return "Import Tags (overwrite)"
	case promptMerge:
		return "Import Tags (merge)"
	case promptTableCSV:
		return "Export Table"
	}
	return ""
}

// DefaultExportName is offered when no export path was used before.
const DefaultExportName = "tags_export.csv"

type promptModel struct {
	kind     promptKind
	input    textinput.Model
	returnTo appState
	err      string

	completions        []string
	completionIndex    int
	showingCompletions bool
	status             pathStatus
}

func (m model) openPrompt(kind promptKind) (tea.Model, tea.Cmd) {
	ti := textinput.New()
	ti.Prompt = "File: "
	ti.CharLimit = 1024
	ti.Width = m.getWidth() - 20

	var value string
	switch kind {
	case promptExport:
		value = m.saved.LastExportPath
		if value == "" {
			value = DefaultExportName
		}
	case promptImport, promptMerge:
		value = m.saved.LastImportPath
	case promptTableCSV:
		if t := m.stats.activeTable(); t != nil {
			value = t.DefaultFileName()
		}
	}
	ti.SetValue(value)
	ti.CursorEnd()

	m.prompt = promptModel{kind: kind, input: ti, returnTo: m.state}
	m.prompt.status = validatePath(m.fs, value)
	m.state = statePrompt
	return m, m.prompt.input.Focus()
}

func (m model) updatePrompt(msg tea.Msg) (tea.Model, tea.Cmd) {
	p := &m.prompt
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch {
		case key.Matches(keyMsg, m.keys.Complete):
			return m.handleTabCompletion()
		case keyMsg.String() == "down" && p.showingCompletions:
			p.completionIndex = (p.completionIndex + 1) % len(p.completions)
			return m, nil
		case keyMsg.String() == "up" && p.showingCompletions:
			p.completionIndex = (p.completionIndex + len(p.completions) - 1) % len(p.completions)
			return m, nil
		case key.Matches(keyMsg, m.keys.Select):
			if p.showingCompletions {
				p.setValue(m, p.completions[p.completionIndex])
				p.showingCompletions, p.completions = false, nil
				return m, nil
			}
			return m.submitPrompt()
		case key.Matches(keyMsg, m.keys.Back):
			if p.showingCompletions {
				p.showingCompletions, p.completions = false, nil
				return m, nil
			}
			m.state = p.returnTo
			return m, nil
		case key.Matches(keyMsg, m.keys.RecentPath):
			index := int(keyMsg.Runes[0] - '1')
			if index >= 0 && index < len(m.saved.RecentPaths) {
				p.setValue(m, m.saved.RecentPaths[index])
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	p.input, cmd = p.input.Update(msg)
	p.status = validatePath(m.fs, p.input.Value())
	return m, cmd
}

func (p *promptModel) setValue(m model, v string) {
	p.input.SetValue(v)
	p.input.CursorEnd()
	p.status = validatePath(m.fs, v)
	p.err = ""
}

func (m model) handleTabCompletion() (tea.Model, tea.Cmd) {
	p := &m.prompt
	completions := pathCompletions(m.fs, p.input.Value())
	switch len(completions) {
	case 0:
		return m, nil
	case 1:
		v := completions[0]
		if ok, _ := afero.IsDir(m.fs, v); ok {
			v += string(filepath.Separator)
		}
		p.setValue(m, v)
		return m, nil
	}
	p.completions = completions
	p.completionIndex = 0
	p.showingCompletions = true
	return m, nil
}

func (m model) submitPrompt() (tea.Model, tea.Cmd) {
	p := &m.prompt
	path := strings.TrimSpace(p.input.Value())
	if path == "" {
		p.err = "A file path is required."
		return m, nil
	}
	p.status = validatePath(m.fs, path)

	switch p.kind {
	case promptExport:
		if p.status == pathInvalid {
			p.err = "Parent folder does not exist."
			return m, nil
		}
		m.state = stateBrowse
		return m, exportCmd(m.fs, path, m.session.Cache().Clone())
	case promptImport, promptMerge:
		if p.status != pathValid {
			p.err = "File not found."
			return m, nil
		}
		mode := transfer.ModeOverwrite
		if p.kind == promptMerge {
			mode = transfer.ModeMerge
		}
		m.state = stateBrowse
		return m, importCmd(m.fs, m.log, m.scanner, m.session.Cache().Clone(), path, mode)
	case promptTableCSV:
		t := m.stats.activeTable()
		if t == nil {
			m.state = p.returnTo
			return m, nil
		}
		var buf bytes.Buffer
		if err := t.WriteCSV(&buf); err != nil {
			p.err = err.Error()
			return m, nil
		}
		m.state = p.returnTo
		return m, writeFileCmd(m.fs, path, buf.Bytes())
	}
	return m, nil
}

func (m model) viewPrompt() string {
	p := m.prompt
	var b strings.Builder

	fmt.Fprintf(&b, "%s %s\n", inputFocusStyle.Render(p.input.View()), pathValidationIndicator(p.status))
	if p.err != "" {
		fmt.Fprintf(&b, "\n%s\n", errorStyle.Render("⚠ "+p.err))
	}

	if p.showingCompletions && len(p.completions) > 0 {
		fmt.Fprintf(&b, "\n%s\n", valueStyle.Render("Path Suggestions"))
		maxShow := 8
		start := 0
		if p.completionIndex >= maxShow {
			start = p.completionIndex - maxShow + 1
		}
		for i := start; i < len(p.completions) && i < start+maxShow; i++ {
			prefix := "  "
			style := lipgloss.NewStyle().Foreground(secondary)
			if i == p.completionIndex {
				prefix = lipgloss.NewStyle().Foreground(warning).Render("▸ ")
				style = style.Bold(true)
			}
			fmt.Fprintf(&b, "%s%s\n", prefix, style.Render(filepath.Base(p.completions[i])))
		}
		if len(p.completions) > maxShow {
			fmt.Fprintf(&b, "%s\n", subtitleStyle.Render(fmt.Sprintf("(%d of %d)", p.completionIndex+1, len(p.completions))))
		}
	} else if len(m.saved.RecentPaths) > 0 {
		fmt.Fprintf(&b, "\n%s\n", valueStyle.Render("Recent Files (alt+1-9)"))
		for i, recent := range m.saved.RecentPaths {
			num := lipgloss.NewStyle().Background(primary).Foreground(text).Bold(true).Padding(0, 1).Render(fmt.Sprintf("%d", i+1))
			fmt.Fprintf(&b, "%s %s %s\n", num, lipgloss.NewStyle().Foreground(accent).Render(shortPath(recent)),
				pathValidationIndicator(validatePath(m.fs, recent)))
		}
	}

	fmt.Fprintf(&b, "\n%s", renderKeyHelp([]string{"enter confirm", "tab complete", "alt+1-9 recent", "esc cancel"}))
	return lipgloss.NewStyle().Padding(1, 2).Render(renderBorder(b.String(), p.kind.title(), secondary))
}

func (m model) applyExport(msg exportDoneMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setError(fmt.Errorf("export %s: %w", msg.path, msg.err))
		return m, nil
	}
	m.saved.LastExportPath = msg.path
	m.rememberPath(msg.path)
	m.setStatus(fmt.Sprintf("Exported %d folders to %s", msg.rows, msg.path))
	m.log.Info().Str("file", msg.path).Int("rows", msg.rows).Msg("tags exported")
	return m, nil
}

func (m model) applyImport(msg importDoneMsg) (tea.Model, tea.Cmd) {
	if msg.cache != nil {
		if err := m.session.Reload(msg.cache); err != nil {
			m.setError(err)
			return m, nil
		}
		m.refresh()
	}
	if msg.err != nil {
		if msg.report != nil && len(msg.report.Applied) > 0 {
			m.setError(fmt.Errorf("import %s stopped after %d folders: %w", msg.path, len(msg.report.Applied), msg.err))
		} else {
			m.setError(fmt.Errorf("import %s: %w", msg.path, msg.err))
		}
		return m, nil
	}
	m.saved.LastImportPath = msg.path
	m.rememberPath(msg.path)
	status := fmt.Sprintf("Imported %d folders (%s)", len(msg.report.Applied), msg.report.Mode)
	if n := len(msg.report.Skipped); n > 0 {
		status += fmt.Sprintf(", skipped %d rows: %v", n, msg.report.Skipped[0])
	}
	m.setStatus(status)
	return m, nil
}

func (m model) applyFileWritten(msg fileWrittenMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.setError(fmt.Errorf("write %s: %w", msg.path, msg.err))
		return m, nil
	}
	m.rememberPath(msg.path)
	m.setStatus("Saved " + msg.path)
	return m, nil
}
