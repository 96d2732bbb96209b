package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write reports (CSV, JSON, HTML) without the TUI",
	Long: `Run the analysis and export the results. No Slack notification is sent.

Default output directory: ./pierwatch-out/`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), "Exporting pier log analysis...")

		res, err := runHeadless(cmd, viper.GetViper(), os.Stderr, false)
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), "\nExport Complete.")
		for _, p := range res.Paths {
			fmt.Fprintf(cmd.OutOrStdout(), "   %s\n", p)
		}
		if res.ReportURL != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "   %s\n", res.ReportURL)
		}
		return nil
	},
}
