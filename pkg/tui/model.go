// Package tui is the interactive terminal viewer for FIFO violations.
package tui

import (
	"sort"

	"github.com/DrSkyle/pierwatch/pkg/engine"
	"github.com/DrSkyle/pierwatch/pkg/engine/fifo"
	"github.com/DrSkyle/pierwatch/pkg/engine/policy"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

type ViewState int

const (
	ViewStateLoading ViewState = iota
	ViewStateList
	ViewStateDetail
	ViewStateClients
)

// SortMode orders the violation list.
type SortMode int

const (
	SortByClient SortMode = iota
	SortByGap
	SortByArrival
)

func (s SortMode) String() string {
	switch s {
	case SortByGap:
		return "GAP"
	case SortByArrival:
		return "ARRIVAL"
	default:
		return "CLIENT"
	}
}

// Loader runs the analysis the viewer shows.
type Loader func() (*engine.Result, error)

type resultMsg struct {
	res *engine.Result
	err error
}

type item struct {
	index int // position in the original result
	v     fifo.Violation
}

type Model struct {
	spinner spinner.Model
	help    help.Model
	keys    keyMap
	load    Loader

	state    ViewState
	quitting bool
	err      error
	width    int
	height   int

	result   *engine.Result
	items    []item
	findings map[int][]policy.Finding

	SortMode SortMode

	cursor       int
	clientCursor int
}

func NewModel(load Loader) Model {
	s := spinner.New()
	s.Spinner = spinner.Points
	s.Style = special

	return Model{
		spinner: s,
		help:    help.New(),
		keys:    defaultKeyMap(),
		load:    load,
		state:   ViewStateLoading,
		height:  24,
	}
}

func (m Model) Init() tea.Cmd {
	if m.load == nil {
		return m.spinner.Tick
	}
	load := m.load
	return tea.Batch(m.spinner.Tick, func() tea.Msg {
		res, err := load()
		return resultMsg{res: res, err: err}
	})
}

// Err is the load error, if any.
func (m Model) Err() error { return m.err }

// Result is the loaded analysis. It is nil when the viewer quit before
// loading finished or loading failed.
func (m Model) Result() *engine.Result { return m.result }

func (m *Model) setResult(res *engine.Result) {
	m.result = res
	m.items = m.items[:0]
	m.findings = make(map[int][]policy.Finding)
	if res == nil || res.Analysis == nil {
		return
	}
	for i, v := range res.Analysis.Violations {
		m.items = append(m.items, item{index: i, v: v})
	}
	for _, f := range res.Analysis.Findings {
		m.findings[f.ViolationIndex] = append(m.findings[f.ViolationIndex], f)
	}
	m.sortItems()
}

func (m *Model) sortItems() {
	sort.SliceStable(m.items, func(i, j int) bool {
		a, b := m.items[i].v, m.items[j].v
		switch m.SortMode {
		case SortByGap:
			if a.ShipmentDayGap != b.ShipmentDayGap {
				return a.ShipmentDayGap > b.ShipmentDayGap
			}
		case SortByArrival:
			if c := a.EarlierArrivalDate.Compare(b.EarlierArrivalDate); c != 0 {
				return c < 0
			}
		}
		return m.items[i].index < m.items[j].index
	})
}

func (m *Model) clients() []fifo.ClientCount {
	if m.result == nil || m.result.Analysis == nil {
		return nil
	}
	return m.result.Analysis.Summary.ByClient
}

func clamp(v, lo, hi int) int {
	if v > hi {
		v = hi
	}
	if v < lo {
		v = lo
	}
	return v
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case resultMsg:
		if m.quitting {
			return m, nil
		}
		if msg.err != nil {
			m.err = msg.err
			m.state = ViewStateList
			return m, nil
		}
		m.setResult(msg.res)
		m.state = ViewStateList
		return m, nil

	case spinner.TickMsg:
		if m.state != ViewStateLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	}
	if m.state == ViewStateLoading {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.move(-1)
	case key.Matches(msg, m.keys.Down):
		m.move(1)
	case key.Matches(msg, m.keys.Top):
		m.move(-len(m.items) - len(m.clients()))
	case key.Matches(msg, m.keys.Bottom):
		m.move(len(m.items) + len(m.clients()))
	case key.Matches(msg, m.keys.Select):
		switch m.state {
		case ViewStateList:
			if len(m.items) > 0 {
				m.state = ViewStateDetail
			}
		case ViewStateDetail:
			m.state = ViewStateList
		case ViewStateClients:
			m.jumpToClient()
		}
	case key.Matches(msg, m.keys.Back):
		m.state = ViewStateList
	case key.Matches(msg, m.keys.Clients):
		if m.state == ViewStateClients {
			m.state = ViewStateList
		} else {
			m.state = ViewStateClients
		}
	case key.Matches(msg, m.keys.Sort):
		m.SortMode = (m.SortMode + 1) % 3
		m.sortItems()
		m.cursor = 0
	}
	return m, nil
}

func (m *Model) move(delta int) {
	if m.state == ViewStateClients {
		m.clientCursor = clamp(m.clientCursor+delta, 0, len(m.clients())-1)
		return
	}
	m.cursor = clamp(m.cursor+delta, 0, len(m.items)-1)
}

// jumpToClient moves the list cursor to the first violation of the
// selected client.
func (m *Model) jumpToClient() {
	clients := m.clients()
	if m.clientCursor >= len(clients) {
		return
	}
	name := clients[m.clientCursor].Client
	for i, it := range m.items {
		if it.v.Client == name {
			m.cursor = i
			break
		}
	}
	m.state = ViewStateList
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if m.state == ViewStateLoading {
		return "\n\n   " + m.spinner.View() + " Reading pier log...\n"
	}
	if m.err != nil {
		return "\n\n   " + danger.Render("Analysis failed: ") + m.err.Error() + "\n"
	}

	var body string
	switch m.state {
	case ViewStateDetail:
		body = m.viewDetails()
	case ViewStateClients:
		body = m.viewClients()
	default:
		body = m.viewList()
	}
	return m.viewHUD() + "\n" + body + "\n" + m.help.View(m.keys)
}
