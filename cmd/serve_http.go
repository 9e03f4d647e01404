package cmd

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/guillaumegay13/fieldflow/internal/app"
	"github.com/guillaumegay13/fieldflow/internal/config"
	"github.com/guillaumegay13/fieldflow/internal/httpapi"
)

var (
	flagHTTPHost         string
	flagHTTPPort         int
	flagHTTPSpec         string
	flagHTTPBaseURL      string
	flagHTTPIncludeTools string
	flagHTTPExcludeTools string
)

var serveHTTPCmd = &cobra.Command{
	Use:   "serve-http",
	Short: "Serve the compiled tool set over HTTP",
	Long: `Serve the compiled tool set over HTTP.

Endpoints:
  GET  /              service information
  GET  /tools         tool listing with input schemas
  POST /tools/{name}  call one tool

Examples:
  fieldflow serve-http --spec petstore.yaml
  fieldflow serve-http --spec petstore.json --base-url https://api.example.com
  fieldflow serve-http --include-tools get_users,get_user_by_id`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runServeHTTP,
}

func init() {
	f := serveHTTPCmd.Flags()
	f.StringVar(&flagHTTPHost, "host", "127.0.0.1", "host interface for the HTTP server")
	f.IntVar(&flagHTTPPort, "port", 8000, "port for the HTTP server")
	f.StringVar(&flagHTTPSpec, "spec", "", "path to the OpenAPI spec (JSON or YAML)")
	f.StringVar(&flagHTTPBaseURL, "base-url", "", "upstream API base URL, overriding the spec's servers entry")
	f.StringVar(&flagHTTPIncludeTools, "include-tools", "", "only register these operations (comma-separated)")
	f.StringVar(&flagHTTPExcludeTools, "exclude-tools", "", "operations to skip (comma-separated)")
}

func runServeHTTP(cmd *cobra.Command, args []string) error {
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync()

	settings := config.Load(flagHTTPSpec, flagHTTPBaseURL)
	settings.IncludeTools = flagHTTPIncludeTools
	settings.ExcludeTools = flagHTTPExcludeTools

	a, err := app.Build(settings, logger)
	if err != nil {
		return err
	}

	addr := fmt.Sprintf("%s:%d", flagHTTPHost, flagHTTPPort)
	logger.Info("serving http", zap.String("addr", addr))
	return http.ListenAndServe(addr, httpapi.New(a).Handler())
}
