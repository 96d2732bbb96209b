package tui

import (
	"fmt"
	"strings"

	"github.com/DrSkyle/pierwatch/pkg/engine/policy"
	"github.com/charmbracelet/lipgloss"
)

func (m Model) viewDetails() string {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return "No violation selected"
	}
	it := m.items[m.cursor]
	v := it.v

	header := detailsHeaderStyle.Render(fmt.Sprintf("%s : %s before %s", v.Client, v.EarlierArrivalCertificate, v.LaterArrivalCertificate))

	pair := []string{
		fmt.Sprintf("%-12s %-14s %-12s %-12s %s", "", "CERTIFICATE", "ARRIVED", "SHIPPED", "ROW"),
		fmt.Sprintf("%-12s %-14s %-12s %-12s %s", "EARLIER", v.EarlierArrivalCertificate, v.EarlierArrivalDate, v.EarlierShipmentDate, row(v.EarlierRow)),
		fmt.Sprintf("%-12s %-14s %-12s %-12s %s", "LATER", v.LaterArrivalCertificate, v.LaterArrivalDate, v.LaterShipmentDate, row(v.LaterRow)),
	}

	intel := lipgloss.JoinVertical(lipgloss.Left,
		gapStyle(v.ShipmentDayGap).Render(fmt.Sprintf("SHIPPED LATE BY: %d days", v.ShipmentDayGap)),
		dimStyle.Render(fmt.Sprintf("ARRIVED APART:   %d days", v.ArrivalDayGap())),
		highlight.Render(fmt.Sprintf("CLIENT GAPS:     %s", renderSparkline(m.clientGaps(v.Client)))),
	)

	var rules []string
	for _, f := range m.findings[it.index] {
		style := warning
		if f.Severity == policy.SeverityCritical {
			style = danger
		}
		rules = append(rules, style.Render(fmt.Sprintf("[%s] %s", strings.ToUpper(string(f.Severity)), f.RuleID)))
	}
	if len(rules) == 0 {
		rules = append(rules, dimStyle.Render("No rule matched."))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		header,
		strings.Join(pair, "\n"),
		"",
		intel,
		"",
		highlight.Render("RULES:"),
		strings.Join(rules, "\n"),
		"",
		strings.Repeat("─", 50),
		dimStyle.Render("[Enter/Esc] Back to List"),
	)

	return detailsBoxStyle.Render(content)
}

func row(n int) string {
	if n <= 0 {
		return "-"
	}
	return fmt.Sprint(n)
}

// clientGaps lists the client's gaps in arrival order of the earlier record.
func (m Model) clientGaps(client string) []float64 {
	var gaps []float64
	if m.result == nil || m.result.Analysis == nil {
		return gaps
	}
	for _, v := range m.result.Analysis.Violations {
		if v.Client == client {
			gaps = append(gaps, float64(v.ShipmentDayGap))
		}
	}
	return gaps
}

func renderSparkline(data []float64) string {
	if len(data) == 0 {
		return "[NO DATA]"
	}
	bars := []string{" ", "▁", "▂", "▃", "▄", "▅", "▆", "▇", "█"}

	max := 0.0
	for _, v := range data {
		if v > max {
			max = v
		}
	}

	var s strings.Builder
	s.WriteString("[")
	for _, v := range data {
		if max == 0 {
			s.WriteString(bars[0])
			continue
		}
		idx := int((v / max) * float64(len(bars)-1))
		if idx >= len(bars) {
			idx = len(bars) - 1
		}
		s.WriteString(bars[idx])
	}
	s.WriteString("]")
	return s.String()
}
