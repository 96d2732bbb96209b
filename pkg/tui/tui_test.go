package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DrSkyle/pierwatch/pkg/cargo"
	"github.com/DrSkyle/pierwatch/pkg/engine"
	"github.com/DrSkyle/pierwatch/pkg/engine/fifo"
	"github.com/DrSkyle/pierwatch/pkg/engine/history"
	"github.com/DrSkyle/pierwatch/pkg/engine/ingest"
	"github.com/DrSkyle/pierwatch/pkg/engine/policy"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) cargo.Date { return cargo.NewDate(2024, time.January, d) }

func sampleResult() *engine.Result {
	vs := []fifo.Violation{
		{
			Client: "Альфа", EarlierArrivalCertificate: "C-1", EarlierArrivalDate: day(1), EarlierShipmentDate: day(10),
			LaterArrivalCertificate: "C-2", LaterArrivalDate: day(5), LaterShipmentDate: day(8), ShipmentDayGap: 2,
		},
		{
			Client: "Бета", EarlierArrivalCertificate: "B-1", EarlierArrivalDate: day(2), EarlierShipmentDate: day(25),
			LaterArrivalCertificate: "B-2", LaterArrivalDate: day(3), LaterShipmentDate: day(4), ShipmentDayGap: 21,
		},
	}
	return &engine.Result{
		Dataset: &ingest.Dataset{Records: make([]cargo.Record, 6)},
		Analysis: &engine.Analysis{
			Eligible:   5,
			Violations: vs,
			Summary:    fifo.Summarize(vs),
			Findings: []policy.Finding{
				{RuleID: "long_wait", Severity: policy.SeverityCritical, ViolationIndex: 1, Client: "Бета", GapDays: 21},
			},
		},
		Trend: &history.Trend{Direction: history.DirectionWorse, ViolationsDelta: 2},
	}
}

func loaded(t *testing.T, res *engine.Result) Model {
	t.Helper()
	m := NewModel(nil)
	updated, _ := m.Update(resultMsg{res: res})
	return updated.(Model)
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		updated, _ := m.Update(msg)
		m = updated.(Model)
	}
	return m
}

func TestTUI_Loading(t *testing.T) {
	m := NewModel(nil)
	assert.Contains(t, m.View(), "Reading pier log")

	// keys other than quit are ignored while loading
	m = press(m, "enter")
	assert.Equal(t, ViewStateLoading, m.state)
}

func TestTUI_Init(t *testing.T) {
	res := sampleResult()
	m := NewModel(func() (*engine.Result, error) { return res, nil })
	require.NotNil(t, m.Init())
}

func TestTUI_List(t *testing.T) {
	m := loaded(t, sampleResult())
	view := m.View()

	for _, want := range []string{"PIERWATCH", "VIOLATIONS", "Альфа", "Бета", "C-1", "21 d", "[1 rule]", "WORSE (+2)", "[SORT: CLIENT]"} {
		assert.Contains(t, view, want)
	}
}

func TestTUI_Details(t *testing.T) {
	tests := []struct {
		name     string
		keys     []string
		want     []string
		dontWant []string
	}{
		{
			name:     "First violation has no rule",
			keys:     []string{"enter"},
			want:     []string{"Альфа : C-1 before C-2", "SHIPPED LATE BY: 2 days", "ARRIVED APART:   4 days", "No rule matched."},
			dontWant: []string{"long_wait"},
		},
		{
			name: "Second violation carries its finding",
			keys: []string{"down", "enter"},
			want: []string{"Бета : B-1 before B-2", "[CRITICAL] long_wait", "SHIPPED LATE BY: 21 days"},
		},
		{
			name: "Sorting by gap keeps findings attached",
			keys: []string{"s", "enter"},
			want: []string{"Бета : B-1 before B-2", "[CRITICAL] long_wait"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := press(loaded(t, sampleResult()), tc.keys...)
			require.Equal(t, ViewStateDetail, m.state)
			view := m.View()

			for _, w := range tc.want {
				assert.Contains(t, view, w)
			}
			for _, dw := range tc.dontWant {
				assert.NotContains(t, view, dw)
			}

			m = press(m, "esc")
			assert.Equal(t, ViewStateList, m.state)
		})
	}
}

func TestTUI_Clients(t *testing.T) {
	m := press(loaded(t, sampleResult()), "tab")
	require.Equal(t, ViewStateClients, m.state)
	assert.Contains(t, m.View(), "MAX GAP")

	// Summary ranks by count then name, so Бета is second.
	m = press(m, "down", "enter")
	assert.Equal(t, ViewStateList, m.state)
	assert.Equal(t, 1, m.cursor)
	assert.Equal(t, "Бета", m.items[m.cursor].v.Client)
}

func TestTUI_SortModes(t *testing.T) {
	m := loaded(t, sampleResult())
	assert.Equal(t, SortByClient, m.SortMode)

	m = press(m, "s")
	assert.Equal(t, SortByGap, m.SortMode)
	assert.Equal(t, 21, m.items[0].v.ShipmentDayGap)

	m = press(m, "s")
	assert.Equal(t, SortByArrival, m.SortMode)
	assert.Equal(t, "Альфа", m.items[0].v.Client)

	m = press(m, "s")
	assert.Equal(t, SortByClient, m.SortMode)
}

func TestTUI_Clean(t *testing.T) {
	res := sampleResult()
	res.Analysis.Violations = nil
	res.Analysis.Findings = nil
	res.Analysis.Summary = fifo.Summarize(nil)
	res.Trend = nil

	m := loaded(t, res)
	view := m.View()
	assert.Contains(t, view, "No FIFO violations detected")
	assert.Contains(t, view, "n/a")

	m = press(m, "enter")
	assert.Equal(t, ViewStateList, m.state, "nothing to open")
}

func TestTUI_LoadError(t *testing.T) {
	m := NewModel(nil)
	updated, _ := m.Update(resultMsg{err: errors.New("pier log not found")})
	m = updated.(Model)

	assert.Error(t, m.Err())
	assert.True(t, strings.Contains(m.View(), "pier log not found"))
}

func TestTUI_Quit(t *testing.T) {
	m := loaded(t, sampleResult())
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Empty(t, updated.(Model).View())
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "Альфа", truncate("Альфа", 20))
	assert.Equal(t, "Альф...", truncate("Альфа-Логистик", 7))
}

func TestRenderSparkline(t *testing.T) {
	assert.Equal(t, "[NO DATA]", renderSparkline(nil))
	assert.Equal(t, "[▄█]", renderSparkline([]float64{1, 2}))
}

func TestTUI_QuitWhileLoading(t *testing.T) {
	// 1. Quit before the analysis is done
	m := NewModel(nil)
	m = press(m, "q")
	require.True(t, m.quitting)

	// 2. A late result is dropped
	updated, _ := m.Update(resultMsg{res: sampleResult()})
	m = updated.(Model)

	// 3. Verify
	assert.Nil(t, m.Result())
	assert.NoError(t, m.Err())
	assert.Equal(t, ViewStateLoading, m.state)
}

func TestTUI_Result(t *testing.T) {
	res := sampleResult()
	m := loaded(t, res)
	assert.Same(t, res, m.Result())
}
