package commands

import (
	"fmt"
	"runtime"

	"github.com/DrSkyle/pierwatch/pkg/version"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s, %s/%s) %s\n",
			version.AppName, version.Current, runtime.Version(), runtime.GOOS, runtime.GOARCH, version.License)
	},
}
