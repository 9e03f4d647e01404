package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/guillaumegay13/fieldflow/internal/app"
	"github.com/guillaumegay13/fieldflow/internal/config"
	"github.com/guillaumegay13/fieldflow/internal/mcpserver"
)

var (
	flagMCPName         string
	flagMCPTransport    string
	flagMCPAddr         string
	flagMCPSpec         string
	flagMCPBaseURL      string
	flagMCPIncludeTools string
	flagMCPExcludeTools string
)

var serveMCPCmd = &cobra.Command{
	Use:   "serve-mcp",
	Short: "Serve the compiled tool set as an MCP server",
	Long: `Serve the compiled tool set as an MCP server.

Examples:
  fieldflow serve-mcp --spec petstore.yaml
  fieldflow serve-mcp --transport streamable-http --addr :8001
  fieldflow serve-mcp --name petstore --exclude-tools delete_pet_by_id`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServeMCP,
}

func init() {
	f := serveMCPCmd.Flags()
	f.StringVar(&flagMCPName, "name", "", "override the MCP server name")
	f.StringVar(&flagMCPTransport, "transport", "stdio", "MCP transport: stdio or streamable-http")
	f.StringVar(&flagMCPAddr, "addr", ":8001", "listen address for the streamable-http transport")
	f.StringVar(&flagMCPSpec, "spec", "", "path to the OpenAPI spec (JSON or YAML)")
	f.StringVar(&flagMCPBaseURL, "base-url", "", "upstream API base URL, overriding the spec's servers entry")
	f.StringVar(&flagMCPIncludeTools, "include-tools", "", "only register these operations (comma-separated)")
	f.StringVar(&flagMCPExcludeTools, "exclude-tools", "", "operations to skip (comma-separated)")
}

func runServeMCP(cmd *cobra.Command, args []string) error {
	if flagMCPTransport != "stdio" && flagMCPTransport != "streamable-http" {
		return fmt.Errorf("unknown transport %q: use stdio or streamable-http", flagMCPTransport)
	}

	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	settings := config.Load(flagMCPSpec, flagMCPBaseURL)
	settings.IncludeTools = flagMCPIncludeTools
	settings.ExcludeTools = flagMCPExcludeTools

	a, err := app.Build(settings, logger)
	if err != nil {
		return err
	}

	s, err := mcpserver.New(a, flagMCPName, appVersion, "")
	if err != nil {
		return err
	}

	if flagMCPTransport == "streamable-http" {
		logger.Info("serving mcp", zap.String("transport", flagMCPTransport), zap.String("addr", flagMCPAddr))
		return mcpserver.RunStreamableHTTP(s, flagMCPAddr)
	}
	logger.Info("serving mcp", zap.String("transport", flagMCPTransport))
	return mcpserver.RunStdio(s)
}
