// Command courtside ingests ESPN sports feeds into a vector knowledge base
// and serves retrieval over it.
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	logLevel   string
)

func main() {
	root := &cobra.Command{
		Use:          "courtside",
		Short:        "Sports knowledge base over ESPN feeds",
		SilenceUsage: true,
	}
	root.Version = version
	root.SetVersionTemplate("{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file (default $COURTSIDE_CONFIG)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override log.level")

	root.AddCommand(ingestCmd())
	root.AddCommand(syncCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(apiCmd())
	root.AddCommand(askCmd())
	root.AddCommand(watchCmd())
	root.AddCommand(versionCmd())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
