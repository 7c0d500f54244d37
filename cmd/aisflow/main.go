// aisflow ingests raw AIS vessel-tracking message files into a database,
// splitting records into clean and dirty tables and logging rejects.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	commit  = "dev"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "aisflow",
	Short: "aisflow - ingest AIS message files into a database",
	Long: `aisflow parses raw AIS vessel-tracking files (CSV, XML, XLSX),
validates every message against the AIS domain rules, and bulk-loads the
results into clean and dirty tables through a concurrent batching
pipeline. Files already ingested are skipped; rejected rows are written
to a per-file error log.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("aisflow %s (%s)\n", version, commit)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (YAML)")
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
