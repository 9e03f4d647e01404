package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	appVersion  = "dev"
	flagVerbose bool
)

// SetVersion overrides the version baked in at build time.
func SetVersion(v string) {
	appVersion = v
}

var rootCmd = &cobra.Command{
	Use:   "fieldflow",
	Short: "Expose a REST API as callable tools generated from an OpenAPI spec",
	Long: "fieldflow compiles an OpenAPI document into callable tool operations and\n" +
		"proxies each call to the upstream API, pruning responses to the fields the\n" +
		"caller asked for.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")
	rootCmd.AddCommand(serveHTTPCmd)
	rootCmd.AddCommand(serveMCPCmd)
	rootCmd.SetVersionTemplate(fmt.Sprintf("fieldflow v%s\n", appVersion))
}

// Execute runs the CLI.
func Execute() error {
	rootCmd.Version = appVersion
	return rootCmd.Execute()
}

func newLogger() (*zap.Logger, error) {
	// Production config logs JSON to stderr, which keeps stdout free for
	// the stdio MCP transport. --verbose lowers the level so per-call
	// debug traces (sanitized auth headers, proxied URLs) are emitted.
	cfg := zap.NewProductionConfig()
	if flagVerbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
