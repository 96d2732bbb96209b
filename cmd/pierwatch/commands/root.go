package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/DrSkyle/pierwatch/pkg/version"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. PIERWATCH_SOURCE.
const EnvPrefix = "PIERWATCH"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "pierwatch",
	Short: "FIFO discharge auditor for pier cargo logs",
	Long: `PierWatch - Pier Log Analysis

Load. Detect. Report.`,
	Version:       version.Current,
	SilenceUsage:  true,
	SilenceErrors: true,
	// Run: nil (Forces help output).
	Run: nil,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(exitCode(err))
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Persistent Flags
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "Config file (default ~/.pierwatch.yaml)")
	pf.String("source", "", "Pier log location: path, http(s):// or s3:// (default: shared spreadsheet)")
	pf.String("out", "", "Report directory or s3:// prefix (default pierwatch-out)")
	pf.String("rules", "", "CEL rules file (YAML)")
	pf.String("history", "", "History ledger: path or s3:// URL (default ~/.pierwatch/history.jsonl)")
	pf.Bool("strict", false, "Fail when the log has no data rows")
	pf.Bool("no-history", false, "Do not record this run in the history ledger")
	pf.String("slack-webhook", "", "Slack Webhook URL")
	pf.String("slack-channel", "", "Slack channel override")
	pf.Int("max-workers", 0, "Parallel detection workers (default GOMAXPROCS)")
	pf.Bool("json-logs", false, "Emit logs as JSON")
	pf.BoolP("verbose", "v", false, "Enable debug logging")
	pf.String("today", "", "Reference date YYYY-MM-DD for daily statistics (default: now)")
	pf.String("otel-endpoint", "", "OTLP/HTTP collector endpoint")

	bindFlags(viper.GetViper(), pf)

	rootCmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		renderHelp(cmd)
	})

	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// bindFlags maps every flag onto a viper key of the same name with
// dashes turned into underscores, so "slack-webhook" reads from
// slack_webhook in the config file and PIERWATCH_SLACK_WEBHOOK in the env.
func bindFlags(v *viper.Viper, fs *pflag.FlagSet) {
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" {
			return
		}
		_ = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.SetConfigFile(filepath.Join(home, ".pierwatch.yaml"))
			viper.SetConfigType("yaml")
		}
	}
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
	if err := viper.ReadInConfig(); err != nil && cfgFile != "" {
		fmt.Fprintf(os.Stderr, "[WARN] Config file not read: %v\n", err)
	}
}

func renderHelp(cmd *cobra.Command) {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00FF99")).
		MarginBottom(1)

	flagStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA"))

	fmt.Println(titleStyle.Render(fmt.Sprintf("PIERWATCH %s", version.Current)))
	fmt.Println("FIFO discharge auditor for pier cargo logs.")

	fmt.Println(titleStyle.Render("USAGE"))
	fmt.Printf("  %s\n\n", cmd.UseLine())

	if cmd.HasAvailableSubCommands() {
		fmt.Println(titleStyle.Render("COMMANDS"))
		for _, c := range cmd.Commands() {
			if c.IsAvailableCommand() {
				fmt.Printf("  %-12s %s\n", c.Name(), c.Short)
			}
		}
		fmt.Println("")
	}

	fmt.Println(titleStyle.Render("EXAMPLES"))
	fmt.Println("  pierwatch scan                                # Interactive Mode (TUI)")
	fmt.Println("  pierwatch scan --headless --source log.csv    # CI Mode (No TUI)")
	fmt.Println("  pierwatch export --out s3://bucket/reports    # Publish reports")
	fmt.Println("")

	fmt.Println(titleStyle.Render("FLAGS"))
	printFlag := func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		output := fmt.Sprintf("  --%-15s %s", f.Name, f.Usage)
		if f.DefValue != "" && f.DefValue != "false" && f.DefValue != "0" {
			output += fmt.Sprintf(" (default %s)", f.DefValue)
		}
		fmt.Println(flagStyle.Render(output))
	}
	cmd.LocalFlags().VisitAll(printFlag)
	cmd.InheritedFlags().VisitAll(printFlag)
	fmt.Println("")
}
