// Package app assembles the compiled operation set and the proxy pipeline
// shared by both front-ends.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/guillaumegay13/fieldflow/internal/auth"
	"github.com/guillaumegay13/fieldflow/internal/config"
	"github.com/guillaumegay13/fieldflow/internal/proxy"
	"github.com/guillaumegay13/fieldflow/internal/spec"
	"github.com/guillaumegay13/fieldflow/internal/toolfilter"
	"github.com/guillaumegay13/fieldflow/internal/tooling"
)

// App is the compiled, immutable state both front-ends serve from.
type App struct {
	Settings config.Settings
	BaseURL  string
	Tools    []*tooling.Tool
	Executor *proxy.Executor
	Logger   *zap.Logger
}

// Build loads the spec, compiles the operation set, selects the auth
// provider, and wires the proxy executor. Any error here is fatal: the
// process has nothing to serve without a compiled tool set.
func Build(settings config.Settings, logger *zap.Logger) (*App, error) {
	doc, err := spec.Load(settings.SpecPath)
	if err != nil {
		return nil, err
	}

	parser, err := spec.NewParser(doc)
	if err != nil {
		return nil, err
	}
	operations, err := parser.Parse()
	if err != nil {
		return nil, fmt.Errorf("compiling spec %s: %w", settings.SpecPath, err)
	}

	include := toolfilter.ParseList(settings.IncludeTools)
	exclude := toolfilter.ParseList(settings.ExcludeTools)
	operations, err = toolfilter.Filter(operations, include, exclude)
	if err != nil {
		return nil, err
	}

	tools, err := tooling.BuildAll(operations, parser.Compiler())
	if err != nil {
		return nil, err
	}

	baseURL, err := settings.ResolveBaseURL(spec.ExtractBaseURL(doc))
	if err != nil {
		return nil, err
	}

	provider, err := auth.NewProvider(settings.AuthScheme, parser.SecuritySchemes())
	if err != nil {
		return nil, err
	}

	logger.Info("compiled operation set",
		zap.String("spec", settings.SpecPath),
		zap.String("base_url", baseURL),
		zap.Int("tools", len(tools)))

	return &App{
		Settings: settings,
		BaseURL:  baseURL,
		Tools:    tools,
		Executor: proxy.New(baseURL, provider, logger),
		Logger:   logger,
	}, nil
}

// Tool returns the registered tool with the given operation name.
func (a *App) Tool(name string) (*tooling.Tool, bool) {
	for _, tool := range a.Tools {
		if tool.Operation.Name == name {
			return tool, true
		}
	}
	return nil, false
}
