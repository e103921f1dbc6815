package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formwizard"
	"github.com/goliatone/go-formwizard/pkg/renderers/tui"
	"github.com/goliatone/go-formwizard/pkg/wizard"
)

func newPromptCmd(a *app) *cobra.Command {
	var outPath string
	cmd := &cobra.Command{
		Use:   "prompt",
		Short: "Fill in a listing interactively in the terminal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.promptRenderer()
			if err != nil {
				return err
			}
			payload, err := a.prompt(cmd, r)
			if err != nil {
				return err
			}
			return a.writePayload(outPath, payload)
		},
	}
	cmd.Flags().StringP("output", "o", "", "output format: json, pretty or form")
	cmd.Flags().StringVar(&outPath, "out", "", "output file (stdout if empty)")
	_ = a.v.BindPFlag("output", cmd.Flags().Lookup("output"))
	return cmd
}

func (a *app) promptRenderer(opts ...tui.Option) (*tui.Renderer, error) {
	catalog, err := a.catalog()
	if err != nil {
		return nil, err
	}
	format, ok := tui.ParseOutputFormat(a.cfg.Output)
	if !ok {
		return nil, fmt.Errorf("unknown output format %q", a.cfg.Output)
	}
	base := []tui.Option{
		tui.WithOutput(a.stderr),
		tui.WithCatalog(catalog),
		tui.WithOutputFormat(format),
	}
	return tui.New(append(base, opts...)...)
}

func (a *app) prompt(cmd *cobra.Command, r *tui.Renderer) ([]byte, error) {
	catalog, err := a.catalog()
	if err != nil {
		return nil, err
	}
	registry, err := a.registry(catalog)
	if err != nil {
		return nil, err
	}
	c := formwizard.NewController(
		wizard.WithRegistry(registry),
		wizard.WithReporter(wizard.LogReporter(a.logger)),
		wizard.WithLogger(a.logger),
	)
	payload, err := r.Run(cmd.Context(), c)
	if errors.Is(err, tui.ErrAborted) {
		a.logger.Info("wizard aborted", "step", c.Step())
	}
	return payload, err
}

func (a *app) writePayload(path string, payload []byte) error {
	if path == "" {
		_, err := a.stdout.Write(append(payload, '\n'))
		return err
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	fmt.Fprintf(a.stderr, "Listing written to %s\n", path)
	return nil
}
