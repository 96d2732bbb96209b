package tui

import (
	"fmt"
	"strings"

	"github.com/DrSkyle/pierwatch/pkg/engine/history"
)

func (m Model) viewHUD() string {
	if m.result == nil || m.result.Analysis == nil {
		return ""
	}
	a := m.result.Analysis
	mean := "n/a"
	if a.Summary.MeanGapDays != nil {
		mean = fmt.Sprintf("%.1f d", *a.Summary.MeanGapDays)
	}

	records := 0
	if m.result.Dataset != nil {
		records = len(m.result.Dataset.Records)
	}

	cells := []string{
		hudLabelStyle.Render("RECORDS") + hudValueStyle.Render(fmt.Sprint(records)),
		hudLabelStyle.Render("VIOLATIONS") + gapStyle(a.Summary.MaxGapDays).Render(fmt.Sprint(a.Summary.Total)),
		hudLabelStyle.Render("MEAN GAP") + hudValueStyle.Render(mean),
		hudLabelStyle.Render("MAX GAP") + gapStyle(a.Summary.MaxGapDays).Render(fmt.Sprintf("%d d", a.Summary.MaxGapDays)),
	}
	if t := m.result.Trend; t != nil && t.Direction != history.DirectionFirst {
		trend := fmt.Sprintf("%s (%+d)", strings.ToUpper(string(t.Direction)), t.ViolationsDelta)
		style := hudValueStyle
		if t.Direction == history.DirectionWorse {
			style = danger
		}
		cells = append(cells, hudLabelStyle.Render("TREND")+style.Render(trend))
	}

	return titleStyle.Render("PIERWATCH") + "\n" + hudStyle.Render(strings.Join(cells, "   "))
}

func (m Model) viewList() string {
	s := strings.Builder{}

	if len(m.items) == 0 {
		return "\n   " + iconSafe.Render() + dimStyle.Render("  Pier is clean. No FIFO violations detected.") + "\n"
	}

	start, end := m.calculateWindow(len(m.items), m.cursor)

	headerTxt := fmt.Sprintf("  %-20s | %-12s | %-10s | %-12s | %-10s | %s", "CLIENT", "EARLIER", "ARRIVED", "LATER", "ARRIVED", "GAP")
	s.WriteString(dimStyle.Render(headerTxt) + "\n")
	s.WriteString(warning.Render(fmt.Sprintf("   [SORT: %s] %d/%d", m.SortMode, m.cursor+1, len(m.items))) + "\n")

	for i := start; i < end; i++ {
		it := m.items[i]
		v := it.v

		cursor := "  "
		if i == m.cursor {
			cursor = "> "
		}

		flag := ""
		if n := len(m.findings[it.index]); n > 0 {
			flag = fmt.Sprintf(" [%d rule]", n)
		}

		line := fmt.Sprintf("%-20s | %-12s | %-10s | %-12s | %-10s | %s%s",
			truncate(v.Client, 20),
			truncate(v.EarlierArrivalCertificate, 12),
			v.EarlierArrivalDate,
			truncate(v.LaterArrivalCertificate, 12),
			v.LaterArrivalDate,
			gapStyle(v.ShipmentDayGap).Render(fmt.Sprintf("%d d", v.ShipmentDayGap)),
			flag,
		)

		if i == m.cursor {
			s.WriteString(listSelectedStyle.Render(cursor+line) + "\n")
		} else {
			s.WriteString(listNormalStyle.Render(cursor+line) + "\n")
		}
	}
	return s.String()
}

// truncate shortens s to n runes; client names are usually Cyrillic.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

func (m Model) calculateWindow(total, cursor int) (int, int) {
	windowSize := m.height - 10 // HUD + header + help
	if windowSize < 5 {
		windowSize = 5
	}

	start := cursor - (windowSize / 2)
	if start < 0 {
		start = 0
	}

	end := start + windowSize
	if end > total {
		end = total
		start = end - windowSize
		if start < 0 {
			start = 0
		}
	}
	return start, end
}
