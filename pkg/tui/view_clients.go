package tui

import (
	"fmt"
	"strings"
)

func (m Model) viewClients() string {
	clients := m.clients()
	if len(clients) == 0 {
		return "\n   " + iconSafe.Render() + dimStyle.Render("  No client has violations.") + "\n"
	}

	s := strings.Builder{}
	s.WriteString(dimStyle.Render(fmt.Sprintf("  %-28s | %-10s | %s", "CLIENT", "VIOLATIONS", "MAX GAP")) + "\n")
	s.WriteString(dimStyle.Render("  "+strings.Repeat("─", 60)) + "\n")

	start, end := m.calculateWindow(len(clients), m.clientCursor)
	for i := start; i < end; i++ {
		c := clients[i]
		cursor := "  "
		if i == m.clientCursor {
			cursor = "> "
		}
		line := fmt.Sprintf("%-28s | %-10d | %s", truncate(c.Client, 28), c.Violations,
			gapStyle(c.MaxGapDays).Render(fmt.Sprintf("%d d", c.MaxGapDays)))
		if i == m.clientCursor {
			s.WriteString(listSelectedStyle.Render(cursor+line) + "\n")
		} else {
			s.WriteString(listNormalStyle.Render(cursor+line) + "\n")
		}
	}
	return s.String()
}
