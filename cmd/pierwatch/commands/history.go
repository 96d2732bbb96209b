package commands

import (
	"fmt"
	"io"

	"github.com/DrSkyle/pierwatch/pkg/engine/history"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show how violations moved across recorded runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		backend, err := history.NewBackend(cmd.Context(), viper.GetString("history"))
		if err != nil {
			return err
		}
		snaps, err := history.NewClient(backend).LoadWindow(cmd.Context(), limit)
		if err != nil {
			return err
		}
		if len(snaps) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No runs recorded yet. Run 'pierwatch scan' first.")
			return nil
		}
		return printTrends(cmd.OutOrStdout(), history.Trends(snaps))
	},
}

func init() {
	historyCmd.Flags().Int("limit", 20, "Number of most recent runs to show (0 for all)")
}

func printTrends(w io.Writer, trends []history.Trend) error {
	rows := make([][]string, 0, len(trends))
	for _, t := range trends {
		s := t.Current
		mean := "-"
		if s.MeanGapDays != nil {
			mean = fmt.Sprintf("%.1f", *s.MeanGapDays)
		}
		delta := "-"
		if t.Direction != history.DirectionFirst {
			delta = fmt.Sprintf("%+d", t.ViolationsDelta)
		}
		rows = append(rows, []string{
			s.Time().Local().Format("2006-01-02 15:04"),
			fmt.Sprint(s.Records),
			fmt.Sprint(s.Violations),
			delta,
			mean,
			fmt.Sprint(s.MaxGapDays),
			string(t.Direction),
		})
	}

	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#874BFD"))).
		Headers("TIME", "RECORDS", "VIOLATIONS", "DELTA", "MEAN GAP", "MAX GAP", "TREND").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			style := lipgloss.NewStyle().Padding(0, 1)
			if row == table.HeaderRow {
				return style.Bold(true).Foreground(lipgloss.Color("#00FF99"))
			}
			if col == 6 && rows[row][6] == string(history.DirectionWorse) {
				return style.Foreground(lipgloss.Color("#FF0055"))
			}
			return style
		})

	_, err := fmt.Fprintln(w, tbl.Render())
	return err
}
