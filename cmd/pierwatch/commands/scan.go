package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/DrSkyle/pierwatch/pkg/engine"
	"github.com/DrSkyle/pierwatch/pkg/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Analyze the pier log (interactive TUI)",
	Long: `Loads the pier log, detects FIFO violations and writes the reports.

Use --headless for CI and cron jobs.

Example:
  pierwatch scan
  pierwatch scan --headless --source pier.csv --fail-on-violations`,
	RunE: func(cmd *cobra.Command, args []string) error {
		headless, _ := cmd.Flags().GetBool("headless")
		failOn, _ := cmd.Flags().GetBool("fail-on-violations")

		var (
			res *engine.Result
			err error
		)
		if headless {
			res, err = runHeadless(cmd, viper.GetViper(), os.Stderr, true)
			if err != nil {
				return err
			}
			printSummary(cmd.OutOrStdout(), res)
		} else {
			res, err = runInteractive(cmd, viper.GetViper())
			if err != nil {
				return err
			}
		}

		if failOn && res != nil && res.Analysis.Summary.Total > 0 {
			return fmt.Errorf("%w: %d", errViolationsFound, res.Analysis.Summary.Total)
		}
		return nil
	},
}

func init() {
	scanCmd.Flags().Bool("headless", false, "Run without the TUI")
	scanCmd.Flags().Bool("fail-on-violations", false, "Exit with status 2 when violations are found")
}

func runHeadless(cmd *cobra.Command, v *viper.Viper, logOut io.Writer, notify bool) (*engine.Result, error) {
	ctx := cmd.Context()
	eng, err := newEngine(ctx, v, logOut)
	if err != nil {
		return nil, err
	}
	defer eng.Close(ctx)
	if !notify {
		eng.Notifier = nil
	}

	return eng.Run(ctx)
}

// runInteractive runs the analysis behind the TUI. Logs go to a file so
// they do not tear the screen. The analysis always finishes (or is
// cancelled) before the engine is closed.
func runInteractive(cmd *cobra.Command, v *viper.Viper) (*engine.Result, error) {
	logPath := filepath.Join(os.TempDir(), "pierwatch.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	defer logFile.Close()

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	eng, err := newEngine(ctx, v, logFile)
	if err != nil {
		return nil, err
	}
	defer eng.Close(context.WithoutCancel(ctx))

	var (
		runRes *engine.Result
		runErr error
	)
	finished := make(chan struct{})
	go func() {
		defer close(finished)
		runRes, runErr = eng.Run(ctx)
	}()

	model := tui.NewModel(func() (*engine.Result, error) {
		<-finished
		return runRes, runErr
	})

	final, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	// Quitting during loading abandons the run.
	cancel()
	<-finished
	if err != nil {
		return nil, fmt.Errorf("terminal UI: %w", err)
	}

	m, ok := final.(tui.Model)
	if !ok {
		return nil, nil
	}
	if m.Err() != nil {
		return nil, m.Err()
	}
	res := m.Result()
	if res != nil {
		printSummary(cmd.OutOrStdout(), res)
		fmt.Fprintf(cmd.OutOrStdout(), "Log: %s\n", logPath)
	}
	return res, nil
}
