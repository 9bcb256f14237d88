package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	Left       key.Binding
	Right      key.Binding
	Select     key.Binding
	Search     key.Binding
	Filter     key.Binding
	Edit       key.Binding
	Open       key.Binding
	Copy       key.Binding
	Export     key.Binding
	Import     key.Binding
	Merge      key.Binding
	Clear      key.Binding
	Stats      key.Binding
	Rescan     key.Binding
	Back       key.Binding
	Help       key.Binding
	Quit       key.Binding
	NextTab    key.Binding
	PrevTab    key.Binding
	Sort       key.Binding
	Reverse    key.Binding
	SaveCSV    key.Binding
	Drill      key.Binding
	Complete   key.Binding
	ForceQuit  key.Binding
	RecentPath key.Binding
	Confirm    key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Left:       key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "prev column")),
		Right:      key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next column")),
		Select:     key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "select")),
		Search:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "global search")),
		Filter:     key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter column")),
		Edit:       key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit tags")),
		Open:       key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "open folder")),
		Copy:       key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy path")),
		Export:     key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "export csv")),
		Import:     key.NewBinding(key.WithKeys("i"), key.WithHelp("i", "import csv")),
		Merge:      key.NewBinding(key.WithKeys("m"), key.WithHelp("m", "import merge")),
		Clear:      key.NewBinding(key.WithKeys("C"), key.WithHelp("C", "clear all tags")),
		Stats:      key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "statistics")),
		Rescan:     key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "rescan")),
		Back:       key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Help:       key.NewBinding(key.WithKeys("?", "f1"), key.WithHelp("?", "help")),
		Quit:       key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		NextTab:    key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
		PrevTab:    key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
		Sort:       key.NewBinding(key.WithKeys("S"), key.WithHelp("S", "sort column")),
		Reverse:    key.NewBinding(key.WithKeys("R"), key.WithHelp("R", "reverse sort")),
		SaveCSV:    key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "export table")),
		Drill:      key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "drill into Others")),
		Complete:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "complete path")),
		ForceQuit:  key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "force quit")),
		Confirm:    key.NewBinding(key.WithKeys("y", "Y"), key.WithHelp("y", "confirm")),
		RecentPath: key.NewBinding(key.WithKeys("alt+1", "alt+2", "alt+3", "alt+4", "alt+5", "alt+6", "alt+7", "alt+8", "alt+9"), key.WithHelp("alt+1-9", "recent path")),
	}
}

// ShortHelp is the footer of the browse screen.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Search, k.Filter, k.Edit, k.Stats, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right, k.Select},
		{k.Search, k.Filter, k.Edit, k.Open, k.Copy},
		{k.Export, k.Import, k.Merge, k.Clear, k.Rescan},
		{k.Stats, k.Help, k.Back, k.Quit, k.ForceQuit},
	}
}

// statsKeys is the key help of the statistics dashboard.
type statsKeys struct{ k keyMap }

func (s statsKeys) ShortHelp() []key.Binding {
	return []key.Binding{s.k.NextTab, s.k.Filter, s.k.Sort, s.k.Reverse, s.k.SaveCSV, s.k.Drill, s.k.Back}
}

func (s statsKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{s.ShortHelp()}
}
