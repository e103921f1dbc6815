package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	theme "github.com/goliatone/go-theme"
	"github.com/spf13/cobra"

	"github.com/goliatone/go-formwizard/internal/server"
	"github.com/goliatone/go-formwizard/pkg/attachments"
	"github.com/goliatone/go-formwizard/pkg/renderers/vanilla"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the wizard over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
	cmd.Flags().String("addr", "", "listen address (default :8383)")
	cmd.Flags().String("renderer", "", "default renderer: vanilla or tui")
	cmd.Flags().String("templates", "", "directory overriding the embedded HTML templates")
	_ = a.v.BindPFlag("addr", cmd.Flags().Lookup("addr"))
	_ = a.v.BindPFlag("renderer", cmd.Flags().Lookup("renderer"))
	_ = a.v.BindPFlag("templates_dir", cmd.Flags().Lookup("templates"))
	return cmd
}

func (a *app) serve(ctx context.Context) error {
	srv, err := a.newServer()
	if err != nil {
		return err
	}
	defer srv.Close()
	return server.ListenAndServe(ctx, a.cfg.Addr, srv.Handler(), a.cfg.Grace, a.logger)
}

func (a *app) newServer() (*server.Server, error) {
	catalog, err := a.catalog()
	if err != nil {
		return nil, err
	}
	registry, err := a.registry(catalog)
	if err != nil {
		return nil, err
	}

	var themeCfg *theme.RendererConfig
	if a.cfg.Theme.Name != "" {
		selector := vanilla.NewStaticSelector(vanilla.DefaultManifest())
		themeCfg, err = vanilla.ResolveTheme(selector, a.cfg.Theme.Name, a.cfg.Theme.Variant)
		if err != nil {
			return nil, err
		}
	}

	renderers, err := server.DefaultRenderers(catalog, vanilla.WithTemplatesDir(a.cfg.TemplatesDir))
	if err != nil {
		return nil, err
	}
	previews := attachments.NewMemoryStore(attachments.WithPrefix(a.cfg.PreviewPrefix))

	return server.New(
		server.WithRenderers(renderers),
		server.WithDefaultRenderer(a.cfg.Renderer),
		server.WithCatalog(catalog),
		server.WithTheme(themeCfg),
		server.WithSteps(registry),
		server.WithPreviewStore(previews),
		server.WithReporter(wizard.LogReporter(a.logger)),
		server.WithLogger(a.logger),
		server.WithSessionTTL(a.cfg.SessionTTL),
		server.WithMaxUploadBytes(a.cfg.MaxUploadBytes()),
	)
}
