package main

import (
	"io"
	"log/slog"
	"maps"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/goliatone/go-formwizard"
	"github.com/goliatone/go-formwizard/internal/config"
	"github.com/goliatone/go-formwizard/internal/logging"
	"github.com/goliatone/go-formwizard/pkg/listing"
	"github.com/goliatone/go-formwizard/pkg/steps"
)

var version = formwizard.Version

// app carries the state shared by every subcommand once the config is
// loaded.
type app struct {
	v       *viper.Viper
	cfgFile string
	cfg     config.Config
	logger  *slog.Logger
	stdout  io.Writer
	stderr  io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{v: viper.New(), stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:   "formwizard",
		Short: "A multi-step listing wizard",
		Long: `formwizard collects a classified listing in steps: category and package,
details and images, review, confirmation. Serve it over HTTP or run it in
the terminal.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return a.load()
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.PersistentFlags()
	flags.StringVarP(&a.cfgFile, "config", "c", "",
		"config file (default: ./formwizard.yaml)")
	flags.String("log-level", "", "log level: debug, info, warn or error")
	flags.String("log-format", "", "log format: text or json")
	_ = a.v.BindPFlag("log.level", flags.Lookup("log-level"))
	_ = a.v.BindPFlag("log.format", flags.Lookup("log-format"))

	root.AddCommand(newServeCmd(a), newPromptCmd(a), newConfigCmd(a))
	return root
}

func (a *app) load() error {
	cfg, err := config.Load(a.v, a.cfgFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logging.New(cfg.Log.Level, cfg.Log.Format, a.stderr)
	return nil
}

// registry applies the catalog's message overrides, then the config's.
func (a *app) registry(catalog listing.Catalog) (*steps.Registry, error) {
	messages := make(map[string]string, len(catalog.Messages)+len(a.cfg.Messages))
	maps.Copy(messages, catalog.Messages)
	maps.Copy(messages, a.cfg.Messages)
	return formwizard.NewRegistry(messages, a.cfg.DetailsRule)
}

func (a *app) catalog() (listing.Catalog, error) {
	return formwizard.LoadCatalog(a.cfg.Catalog)
}
